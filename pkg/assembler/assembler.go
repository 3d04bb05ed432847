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

package assembler

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

var instructions = map[string]InstructionType{
	"CLS":  INSTRUCTION_CLS,
	"RET":  INSTRUCTION_RET,
	"JP":   INSTRUCTION_JP,
	"CALL": INSTRUCTION_CALL,
	"SE":   INSTRUCTION_SE,
	"SNE":  INSTRUCTION_SNE,
	"LD":   INSTRUCTION_LD,
	"ADD":  INSTRUCTION_ADD,
	"OR":   INSTRUCTION_OR,
	"AND":  INSTRUCTION_AND,
	"XOR":  INSTRUCTION_XOR,
	"SUB":  INSTRUCTION_SUB,
	"SUBN": INSTRUCTION_SUBN,
	"SHR":  INSTRUCTION_SHR,
	"SHL":  INSTRUCTION_SHL,
	"RND":  INSTRUCTION_RND,
	"DRW":  INSTRUCTION_DRW,
	"SKP":  INSTRUCTION_SKP,
	"SKNP": INSTRUCTION_SKNP,
}

var directives = map[string]DirectiveType{
	".BYTE": DIRECTIVE_BYTE,
	".WORD": DIRECTIVE_WORD,
	".END":  DIRECTIVE_END,
}

var keywords = map[string]TokenType{
	"I":   TOKEN_INDEX,
	"[I]": TOKEN_INDIRECT,
	"DT":  TOKEN_DELAY,
	"K":   TOKEN_KEY,
	"F":   TOKEN_FONT,
	"B":   TOKEN_BCD,
}

func parseDirective(ident string) DirectiveType {
	return directives[strings.ToUpper(ident)]
}

func parseInstruction(ident string) InstructionType {
	return instructions[strings.ToUpper(ident)]
}

func parseRegister(ident string) (uint16, bool) {
	if len(ident) != 2 || (ident[0] != 'V' && ident[0] != 'v') {
		return 0, false
	}

	value, err := strconv.ParseUint(ident[1:], 16, 8)

	if err != nil {
		return 0, false
	}

	return uint16(value), true
}

func isLiteral(value string) bool {
	if len(value) == 0 {
		return false
	}

	switch char := value[0]; {
	case unicode.IsDigit(rune(char)), strings.IndexByte("#$%-", char) >= 0:
		return true

	// Hex Literal (i.e. x2A, no leading zero)
	case char == 'x' || char == 'X':
		if len(value) == 1 {
			return false
		}

		for _, digit := range value[1:] {
			if !unicode.Is(unicode.ASCII_Hex_Digit, digit) {
				return false
			}
		}

		return true
	}

	return false
}

func classifyToken(value string) TokenType {
	if strings.HasPrefix(value, ".") {
		return TOKEN_DIRECTIVE
	}

	if isLiteral(value) {
		return TOKEN_LITERAL
	}

	if _, ok := parseRegister(value); ok {
		return TOKEN_REGISTER
	}

	if tokenType, ok := keywords[strings.ToUpper(value)]; ok {
		return tokenType
	}

	return TOKEN_IDENT
}

// Literals are accepted when they fit in bits as either an unsigned or a
// two's complement value.
func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	var value int64

	switch s := token.Value; {
	case strings.HasPrefix(s, "$"),
		strings.HasPrefix(s, "x"),
		strings.HasPrefix(s, "X"),
		strings.HasPrefix(s, "0x"),
		strings.HasPrefix(s, "0X"):
		result, err := encoding.DecodeHex(s)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		value = int64(result)

	case strings.HasPrefix(s, "%"),
		strings.HasPrefix(s, "0b"),
		strings.HasPrefix(s, "0B"):
		result, err := encoding.DecodeBin(s)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		value = int64(result)

	default:
		result, err := encoding.DecodeInt(s)

		if err != nil {
			return 0, &InvalidLiteralError{token.Position}
		}

		value = int64(result)
	}

	limit := int64(1) << bits

	if value >= limit || value < -(limit>>1) {
		return 0, &OversizedLiteralError{token.Position, bits, value}
	}

	return uint16(value) & uint16(limit-1), nil
}

// Splits a line into tokens. Whitespace and commas separate tokens, and a
// semicolon comments out the rest of the line.
func tokenize(line string, cursor Cursor) (tokens []Token, errs []error) {
	var builder strings.Builder
	var tokenStart int

	flush := func() {
		if builder.Len() == 0 {
			return
		}

		value := builder.String()
		tokens = append(tokens, Token{
			Type: classifyToken(value),
			Position: Cursor{
				Line:     cursor.Line,
				Column:   tokenStart,
				Byte:     cursor.Byte + int64(tokenStart-1),
				Size:     int64(len(value)),
				LineByte: cursor.LineByte,
			},
			Value: value,
		})
		builder.Reset()
	}

	for column, char := range line {
		cursor.Column = column + 1

		switch {
		// Separators
		case unicode.IsSpace(char), char == ',':
			flush()
			continue

		// Comments
		case char == ';':
			flush()
			return

		case char > unicode.MaxASCII:
			errs = append(errs, &OversizedCharacterError{cursor})
			continue

		// Identifiers, literals, directives, labels and [I]
		case unicode.IsLetter(char),
			unicode.IsDigit(char),
			strings.ContainsRune("_.$#%[]:-", char):

		default:
			errs = append(errs, &UnexpectedCharacterError{cursor, char})
			continue
		}

		if builder.Len() == 0 {
			tokenStart = cursor.Column
		}

		builder.WriteRune(char)
	}

	flush()
	return
}

type labelRef struct {
	Label    string
	Offset   int
	Mask     uint16
	Position Cursor
}

type assembly struct {
	result    []byte
	errs      []error
	labels    map[string]uint16
	labelRefs []labelRef
}

func (as *assembly) fail(err error) {
	as.errs = append(as.errs, err)
}

func (as *assembly) addr() uint16 {
	return uint16(machine.MEMSPACE_USER + len(as.result))
}

func (as *assembly) emit(opcode uint16) {
	hi, lo := encoding.SplitOpcode(opcode)
	as.result = append(as.result, hi, lo)
}

func (as *assembly) count(keyword *Token, operands []Token, want int) bool {
	if count := len(operands); count != want {
		as.fail(&InvalidNumArgumentsError{keyword.Position, want, count})
		return false
	}
	return true
}

func (as *assembly) require(token *Token, types ...TokenType) bool {
	for _, tokenType := range types {
		if token.Type == tokenType {
			return true
		}
	}

	as.fail(&InvalidOperandError{token.Position, types, token.Type})
	return false
}

func (as *assembly) register(token *Token) uint16 {
	if !as.require(token, TOKEN_REGISTER) {
		return 0
	}

	reg, _ := parseRegister(token.Value)
	return reg
}

func (as *assembly) literal(token *Token, bits LiteralType) uint16 {
	if !as.require(token, TOKEN_LITERAL) {
		return 0
	}

	value, err := parseLiteral(token, bits)

	if err != nil {
		as.fail(err)
	}

	return value
}

// Resolves an address operand. Labels that are not yet known are patched
// into the word about to be emitted once the whole source has been read.
func (as *assembly) address(token *Token, bits LiteralType) uint16 {
	if token.Type == TOKEN_LITERAL {
		return as.literal(token, bits)
	}

	if !as.require(token, TOKEN_LITERAL, TOKEN_IDENT) {
		return 0
	}

	as.labelRefs = append(as.labelRefs, labelRef{
		Label:    token.Value,
		Offset:   len(as.result),
		Mask:     uint16(1)<<bits - 1,
		Position: token.Position,
	})

	return 0
}

func (as *assembly) instruction(
	instruction InstructionType,
	keyword *Token,
	operands []Token,
) uint16 {
	var scratch uint16

	switch instruction {
	// CLS  |0000|0000|1110|0000| Clear display
	// RET  |0000|0000|1110|1110| Return from subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_CLS:
		as.count(keyword, operands, 0)
		scratch = 0x00E0
	case INSTRUCTION_RET:
		as.count(keyword, operands, 0)
		scratch = 0x00EE

	// JP   |0001|addr          | Jump
	// JP   |1011|addr          | Jump to addr + V0
	// CALL |0010|addr          | Call subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_JP:
		if len(operands) == 2 {
			if reg := as.register(&operands[0]); reg != 0 {
				as.fail(&InvalidRegisterError{operands[0].Position})
			}
			scratch = 0xB000 | as.address(&operands[1], LITERAL_ADDRESS)
			break
		}

		if as.count(keyword, operands, 1) {
			scratch = 0x1000 | as.address(&operands[0], LITERAL_ADDRESS)
		}
	case INSTRUCTION_CALL:
		if as.count(keyword, operands, 1) {
			scratch = 0x2000 | as.address(&operands[0], LITERAL_ADDRESS)
		}

	// SE   |0011|Vx  |byte     | Skip if Vx == byte
	// SNE  |0100|Vx  |byte     | Skip if Vx != byte
	// SE   |0101|Vx  |Vy  |0000| Skip if Vx == Vy
	// SNE  |1001|Vx  |Vy  |0000| Skip if Vx != Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_SE, INSTRUCTION_SNE:
		if !as.count(keyword, operands, 2) {
			break
		}

		x := as.register(&operands[0])

		switch operands[1].Type {
		case TOKEN_REGISTER:
			scratch = 0x5000
			if instruction == INSTRUCTION_SNE {
				scratch = 0x9000
			}
			scratch |= x<<8 | as.register(&operands[1])<<4
		default:
			scratch = 0x3000
			if instruction == INSTRUCTION_SNE {
				scratch = 0x4000
			}
			scratch |= x<<8 | as.literal(&operands[1], LITERAL_BYTE)
		}

	// LD   |0110|Vx  |byte     | Vx = byte
	// LD   |1000|Vx  |Vy  |0000| Vx = Vy
	// LD   |1010|addr          | I = addr
	// LD   |1111|Vx  |....|....| Timer, keypad, font, BCD and memory forms
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_LD:
		if !as.count(keyword, operands, 2) {
			break
		}

		dst, src := &operands[0], &operands[1]

		switch dst.Type {
		case TOKEN_REGISTER:
			x := as.register(dst) << 8

			switch src.Type {
			case TOKEN_LITERAL:
				scratch = 0x6000 | x | as.literal(src, LITERAL_BYTE)
			case TOKEN_REGISTER:
				scratch = 0x8000 | x | as.register(src)<<4
			case TOKEN_DELAY:
				scratch = 0xF007 | x
			case TOKEN_KEY:
				scratch = 0xF00A | x
			case TOKEN_INDIRECT:
				scratch = 0xF065 | x
			default:
				as.require(
					src, TOKEN_LITERAL, TOKEN_REGISTER,
					TOKEN_DELAY, TOKEN_KEY, TOKEN_INDIRECT,
				)
			}
		case TOKEN_INDEX:
			scratch = 0xA000 | as.address(src, LITERAL_ADDRESS)
		case TOKEN_DELAY:
			scratch = 0xF015 | as.register(src)<<8
		case TOKEN_FONT:
			scratch = 0xF029 | as.register(src)<<8
		case TOKEN_BCD:
			scratch = 0xF033 | as.register(src)<<8
		case TOKEN_INDIRECT:
			scratch = 0xF055 | as.register(src)<<8
		default:
			as.require(
				dst, TOKEN_REGISTER, TOKEN_INDEX,
				TOKEN_DELAY, TOKEN_FONT, TOKEN_BCD, TOKEN_INDIRECT,
			)
		}

	// ADD  |0111|Vx  |byte     | Vx = Vx + byte
	// ADD  |1000|Vx  |Vy  |0100| Vx = Vx + Vy, VF = carry
	// ADD  |1111|Vx  |0001|1110| I = I + Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_ADD:
		if !as.count(keyword, operands, 2) {
			break
		}

		dst, src := &operands[0], &operands[1]

		if dst.Type == TOKEN_INDEX {
			scratch = 0xF01E | as.register(src)<<8
			break
		}

		x := as.register(dst) << 8

		if src.Type == TOKEN_REGISTER {
			scratch = 0x8004 | x | as.register(src)<<4
		} else {
			scratch = 0x7000 | x | as.literal(src, LITERAL_BYTE)
		}

	// OR   |1000|Vx  |Vy  |0001| Vx = Vx | Vy
	// AND  |1000|Vx  |Vy  |0010| Vx = Vx & Vy
	// XOR  |1000|Vx  |Vy  |0011| Vx = Vx ^ Vy
	// SUB  |1000|Vx  |Vy  |0101| Vx = Vx - Vy
	// SUBN |1000|Vx  |Vy  |0111| Vx = Vy - Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_OR,
		INSTRUCTION_AND,
		INSTRUCTION_XOR,
		INSTRUCTION_SUB,
		INSTRUCTION_SUBN:
		if !as.count(keyword, operands, 2) {
			break
		}

		switch instruction {
		case INSTRUCTION_OR:
			scratch = 0x8001
		case INSTRUCTION_AND:
			scratch = 0x8002
		case INSTRUCTION_XOR:
			scratch = 0x8003
		case INSTRUCTION_SUB:
			scratch = 0x8005
		case INSTRUCTION_SUBN:
			scratch = 0x8007
		}

		scratch |= as.register(&operands[0])<<8 | as.register(&operands[1])<<4

	// SHR  |1000|Vx  |Vy  |0110| Vx = Vx >> 1
	// SHL  |1000|Vx  |Vy  |1110| Vx = Vx << 1
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	//
	// Vy is ignored by the machine and may be left out.
	case INSTRUCTION_SHR, INSTRUCTION_SHL:
		scratch = 0x8006
		if instruction == INSTRUCTION_SHL {
			scratch = 0x800E
		}

		switch len(operands) {
		case 2:
			scratch |= as.register(&operands[1]) << 4
			fallthrough
		case 1:
			scratch |= as.register(&operands[0]) << 8
		default:
			as.count(keyword, operands, 1)
		}

	// RND  |1100|Vx  |byte     | Vx = random & byte
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_RND:
		if as.count(keyword, operands, 2) {
			scratch = 0xC000 |
				as.register(&operands[0])<<8 |
				as.literal(&operands[1], LITERAL_BYTE)
		}

	// DRW  |1101|Vx  |Vy  |n   | Draw n-byte sprite at (Vx, Vy)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_DRW:
		if as.count(keyword, operands, 3) {
			scratch = 0xD000 |
				as.register(&operands[0])<<8 |
				as.register(&operands[1])<<4 |
				as.literal(&operands[2], LITERAL_NIBBLE)
		}

	// SKP  |1110|Vx  |1001|1110| Skip if key Vx down
	// SKNP |1110|Vx  |1010|0001| Skip if key Vx up
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case INSTRUCTION_SKP, INSTRUCTION_SKNP:
		if !as.count(keyword, operands, 1) {
			break
		}

		scratch = 0xE09E
		if instruction == INSTRUCTION_SKNP {
			scratch = 0xE0A1
		}

		scratch |= as.register(&operands[0]) << 8
	}

	return scratch
}

func (as *assembly) directive(
	directive DirectiveType,
	keyword *Token,
	operands []Token,
) {
	if len(operands) == 0 {
		as.fail(&InvalidNumArgumentsError{keyword.Position, 1, 0})
		return
	}

	for i := range operands {
		switch directive {
		// .BYTE #[, #...]
		case DIRECTIVE_BYTE:
			as.result = append(
				as.result, uint8(as.literal(&operands[i], LITERAL_BYTE)),
			)

		// .WORD #|label[, #|label...]
		case DIRECTIVE_WORD:
			as.emit(as.address(&operands[i], LITERAL_WORD))
		}
	}
}

// AssembleSource assembles CHIP-8 source into a program image loaded at
// 0x200. When symtable is non-nil it receives the address of every
// assembled line and label.
func AssembleSource(input io.Reader, symtable *SymTable) ([]byte, []error) {
	var as = assembly{
		result: make([]byte, 0, machine.PROGRAM_MAX_SIZE),
		errs:   make([]error, 0),
		labels: make(map[string]uint16),
	}

	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1, Column: 0, Size: 0, Byte: 0}

	next := func(line string) {
		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)
	}

	// Process:
	// - Tokenize line
	// - Assemble line
	for scanner.Scan() {
		line := scanner.Text()
		cursor.Size = int64(len(line))

		tokens, lineErrs := tokenize(line, cursor)

		// Pass any potential assembler errors if we already had parser errors
		if len(lineErrs) > 0 {
			as.errs = append(as.errs, lineErrs...)
			next(line)
			continue
		}

		if len(tokens) == 0 {
			next(line)
			continue
		}

		var label *Token = nil
		var directive DirectiveType
		var instruction InstructionType
		var keyword *Token = nil
		var operands []Token

		start := len(as.result)

		for i := 0; i < len(tokens) && i < 2 && keyword == nil; i++ {
			instruction = parseInstruction(tokens[i].Value)
			directive = parseDirective(tokens[i].Value)

			if instruction != INSTRUCTION_INVALID ||
				directive != DIRECTIVE_INVALID {
				keyword = &tokens[i]
				operands = tokens[i+1:]
			} else if i == 0 {
				label = &tokens[0]
			}
		}

		if label != nil {
			name := strings.TrimSuffix(label.Value, ":")

			if classifyToken(name) != TOKEN_IDENT {
				as.fail(&UnknownIdentifierError{label.Position, label.Value})
				next(line)
				continue
			}

			if _, exists := as.labels[name]; !exists {
				as.labels[name] = as.addr()
			} else {
				as.fail(&RedeclaredLabelError{label.Position, name})
			}

			// No need to assemble label-only statements
			if len(tokens) == 1 {
				next(line)
				continue
			}
		}

		if keyword == nil {
			unknown := &tokens[0]
			if label != nil {
				unknown = &tokens[1]
			}

			as.fail(&UnknownIdentifierError{unknown.Position, unknown.Value})
			next(line)
			continue
		}

		if directive == DIRECTIVE_END {
			as.count(keyword, operands, 0)
			break
		}

		if instruction != INSTRUCTION_INVALID {
			as.emit(as.instruction(instruction, keyword, operands))
		} else {
			as.directive(directive, keyword, operands)
		}

		if symtable != nil && len(as.result) > start {
			symtable.Symbols[uint16(machine.MEMSPACE_USER+start)] = cursor.LineByte
		}

		if len(as.result) > machine.PROGRAM_MAX_SIZE {
			as.fail(&OversizedBinaryError{machine.PROGRAM_MAX_SIZE})
			return as.result, as.errs
		}

		next(line)
	}

	if err := scanner.Err(); err != nil {
		as.fail(err)
	}

	// Label
	// - Validate and resolve label references
	// - Add labels to symbol table
	for _, ref := range as.labelRefs {
		addr, exists := as.labels[ref.Label]

		if !exists {
			as.fail(&UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		scratch := encoding.JoinOpcode(
			as.result[ref.Offset], as.result[ref.Offset+1],
		)
		scratch = (scratch &^ ref.Mask) | (addr & ref.Mask)

		as.result[ref.Offset], as.result[ref.Offset+1] = encoding.SplitOpcode(
			scratch,
		)
	}

	if symtable != nil {
		for label, addr := range as.labels {
			symtable.Labels[addr] = label
		}
	}

	return as.result, as.errs
}
