// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006.
//
// mana-sub006 is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// mana-sub006 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with mana-sub006. If not, see <http://www.gnu.org/licenses/>.

// Package log provides the structured, leveled logger used throughout the
// core, matching the call surface of erigon-lib/log (key/value pairs after
// the message) but backed by log/slog.
package log

import (
	"context"
	"log/slog"
	"os"
)

type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

// Logger is the erigon-style structured logger interface.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
	New(ctx ...interface{}) Logger
}

type slogLogger struct {
	l *slog.Logger
}

var root Logger = &slogLogger{l: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))}

// Root returns the package-wide default logger, mirroring log.Root() in
// erigon-lib/log.
func Root() Logger { return root }

// SetRoot replaces the default logger, used by cmd/ entry points to wire a
// --debug flag into verbosity.
func SetRoot(l Logger) { root = l }

// NewWithLevel builds a standalone logger at the given verbosity, writing
// to stderr, for cmd/ entry points to install as root from a --debug/
// --verbosity flag.
func NewWithLevel(lvl Lvl) Logger {
	return &slogLogger{l: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel(lvl)}))}
}

func slogLevel(lvl Lvl) slog.Level {
	switch lvl {
	case LvlCrit, LvlError:
		return slog.LevelError
	case LvlWarn:
		return slog.LevelWarn
	case LvlInfo:
		return slog.LevelInfo
	case LvlDebug:
		return slog.LevelDebug
	case LvlTrace:
		return slog.LevelDebug - 4
	default:
		return slog.LevelInfo
	}
}

func New(ctx ...interface{}) Logger { return root.New(ctx...) }

func (s *slogLogger) New(ctx ...interface{}) Logger {
	return &slogLogger{l: s.l.With(ctx...)}
}

func (s *slogLogger) Trace(msg string, ctx ...interface{}) { s.l.Log(context.Background(), slog.LevelDebug-4, msg, ctx...) }
func (s *slogLogger) Debug(msg string, ctx ...interface{}) { s.l.Debug(msg, ctx...) }
func (s *slogLogger) Info(msg string, ctx ...interface{})  { s.l.Info(msg, ctx...) }
func (s *slogLogger) Warn(msg string, ctx ...interface{})  { s.l.Warn(msg, ctx...) }
func (s *slogLogger) Error(msg string, ctx ...interface{}) { s.l.Error(msg, ctx...) }
func (s *slogLogger) Crit(msg string, ctx ...interface{}) {
	s.l.Log(context.Background(), slog.LevelError+4, msg, ctx...)
	os.Exit(1)
}

// Package-level convenience wrappers, as erigon-lib/log exposes.
func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }

func LvlFromString(s string) Lvl {
	switch s {
	case "crit":
		return LvlCrit
	case "error":
		return LvlError
	case "warn":
		return LvlWarn
	case "debug":
		return LvlDebug
	case "trace":
		return LvlTrace
	default:
		return LvlInfo
	}
}
