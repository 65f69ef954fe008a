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

// Package rlp implements the Recursive Length Prefix encoding, per §4.A of
// the protocol core: a canonical, total function over byte strings and
// lists of values, with no encoding for negative or floating-point numbers.
//
// The encoding rules:
//
//   - a single byte in [0x00, 0x7f] encodes as itself;
//   - a byte string of 0-55 bytes encodes as a single byte 0x80+len followed
//     by the string;
//   - a byte string of more than 55 bytes encodes as a single byte 0xb7 plus
//     the length of the length, followed by the length, followed by the
//     string;
//   - a list with a total payload of 0-55 bytes encodes as 0xc0+len followed
//     by the concatenated encodings of its items;
//   - a list with a payload longer than 55 bytes encodes as 0xf7 plus the
//     length of the length, followed by the length, followed by the
//     concatenated item encodings.
//
// Consensus correctness depends on decode(encode(x)) == x for every value,
// and on re-encoding a decoded value producing byte-identical output.
package rlp
