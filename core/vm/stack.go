// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package vm

import "github.com/holiman/uint256"

// maxStackDepth is the §4.E "Machine state" stack bound: exceeding it in
// either direction aborts the frame with StackError.
const maxStackDepth = 1024

// Stack is the interpreter's operand stack of 256-bit words.
type Stack struct {
	data []*uint256.Int
}

func newStack() *Stack {
	return &Stack{data: make([]*uint256.Int, 0, 16)}
}

func (s *Stack) len() int { return len(s.data) }

func (s *Stack) push(v *uint256.Int) error {
	if len(s.data) >= maxStackDepth {
		return ErrStackOverflow
	}
	s.data = append(s.data, v)
	return nil
}

func (s *Stack) pop() (*uint256.Int, error) {
	n := len(s.data)
	if n == 0 {
		return nil, ErrStackUnderflow
	}
	v := s.data[n-1]
	s.data = s.data[:n-1]
	return v, nil
}

// peek returns the nth item from the top (0 = the very top) without
// popping it.
func (s *Stack) peek(n int) (*uint256.Int, error) {
	idx := len(s.data) - 1 - n
	if idx < 0 {
		return nil, ErrStackUnderflow
	}
	return s.data[idx], nil
}

func (s *Stack) dup(n int) error {
	v, err := s.peek(n - 1)
	if err != nil {
		return err
	}
	return s.push(new(uint256.Int).Set(v))
}

func (s *Stack) swap(n int) error {
	top := len(s.data) - 1
	other := top - n
	if other < 0 {
		return ErrStackUnderflow
	}
	s.data[top], s.data[other] = s.data[other], s.data[top]
	return nil
}

func (s *Stack) require(n int) error {
	if len(s.data) < n {
		return ErrStackUnderflow
	}
	return nil
}
