// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

// Decodes a hexidecimal string in the formats: 0xFFFF, xFFFF, $FFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if strings.HasPrefix(s, "$") {
		s = "0x" + s[1:]
	}

	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 || s[0] != '0' {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (int16, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 16)

	if err != nil {
		return 0, err
	}

	return int16(result), nil
}

// Decodes a binary string in the formats: 0b1010, %1010
func DecodeBin(s string) (uint16, error) {
	if strings.HasPrefix(s, "%") {
		s = s[1:]
	} else if strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B") {
		s = s[2:]
	} else {
		return 0, errors.New("Invalid binary string")
	}

	result, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 2, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// JoinOpcode combines two consecutive memory bytes into a big-endian opcode.
func JoinOpcode(hi, lo uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// SplitOpcode is the inverse of JoinOpcode.
func SplitOpcode(opcode uint16) (hi, lo uint8) {
	return uint8(opcode >> 8), uint8(opcode & 0xFF)
}

// BCD returns the hundreds, tens and ones digits of value.
func BCD(value uint8) [3]uint8 {
	return [3]uint8{value / 100, (value / 10) % 10, value % 10}
}
