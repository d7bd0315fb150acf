// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = func() map[string]string {
	equates := maps.Clone(_cpu_defines)
	equates["LINENO"] = "0"
	return equates
}()

// movMap maps the destination of 'mov' to its opcode.
var movMap = func() map[string]Opcode {
	moves := make(map[string]Opcode, len(movTarget))
	for op, reg := range movTarget {
		moves[reg.String()] = op
	}
	return moves
}()

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Assembler is a single pass macro assembler for the virtual CPU.
//
//	; comment
//	.equ NAME VALUE          ; equate
//	.macro NAME ARG...       ; macro definition, '@' is a per-expansion prefix
//	.endm
//	label:                   ; address of the next byte
//	mov r1 VALUE             ; MOV_LIT_R1
//	mov r2 VALUE             ; MOV_LIT_R2
//	add SLOT SLOT            ; ADD_REG_REG, register names or slot indices
//	.byte VALUE...           ; raw bytes
//	.word VALUE...           ; raw big-endian words
//
// Values are numbers, 'c' characters, equates, labels (mov only), or
// $(...) compile-time expressions. The assembled image must fit the
// 16-bit address space.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Line    []Line // List of generated lines.

	predefine  map[string]string   // Predefines
	expansions int                 // Macro expansions in this Parse.
	Label      map[string]int      // Map of labels to addresses.
	Equate     map[string]string   // Map of equates.
	Macro      map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}
	if strings.HasPrefix(word, "'") {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = ^value
	}

	return
}

// fit truncates a value to an unsigned or two's complement field.
func fit(value int64, bits int) (out uint64, err error) {
	if value >= (1<<bits) || value < -(1<<(bits-1)) {
		err = ErrValueRange{Value: value, Bits: bits}
		return
	}

	out = uint64(value) & ((1 << bits) - 1)
	return
}

// literal returns the 16-bit literal for a word, or the label to link.
func (asm *Assembler) literal(word string) (value uint16, label string, err error) {
	v64, err := asm.valueOf(word)
	if err != nil {
		if identRe.MatchString(word) {
			label = word
			err = nil
		}
		return
	}

	u64, err := fit(v64, 16)
	if err != nil {
		return
	}

	value = uint16(u64)
	return
}

// slot returns the register slot index for a word.
func (asm *Assembler) slot(word string) (index byte, err error) {
	reg, err := LookupRegister(word)
	if err == nil {
		index = byte(reg)
		return
	}

	value, err := asm.valueOf(word)
	if err != nil {
		err = ErrRegisterInvalid
		return
	}

	if value < 0 || value > 0xff {
		err = ErrValueRange{Value: value, Bits: 8}
		return
	}

	index = byte(value)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v64 int64
		v64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for key, ip := range asm.Label {
		pred[key] = starlark.MakeInt(ip)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine parses a single line into words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentIp()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		prefix := fmt.Sprintf("%v_%v_", name, asm.expansions)
		asm.expansions++

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", prefix)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}
		words = nil
		return
	}

	return
}

// currentIp gets the address of the next assembled byte.
func (asm *Assembler) currentIp() int {
	if len(asm.Line) == 0 {
		return 0
	}

	last := asm.Line[len(asm.Line)-1]

	return last.Ip + len(last.Bytes)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Line = asm.Line[:0]
	asm.expansions = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			glog.Infof("%v: %v", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(strings.ReplaceAll(text_comment[0], "\t", " "))
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Line {
		op := &asm.Line[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		ip, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrLabelMissing(op.LinkLabel)
			return
		}
		var u64 uint64
		u64, err = fit(int64(ip), 16)
		if err != nil {
			return
		}
		binary.BigEndian.PutUint16(op.Bytes[1:], uint16(u64))
	}

	prog = &Program{
		Lines: slices.Clone(asm.Line),
	}

	return
}

// parseWords assembles the words of a line.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || len(data) == 0 {
			return
		}
		ip := asm.currentIp()
		last := ip + len(data) - 1
		if last > 0xffff {
			err = ErrValueRange{Value: int64(last), Bits: 16}
			return
		}
		line := Line{LineNo: lineno, Ip: ip, Words: initial_words, Bytes: data, LinkLabel: label}
		asm.Line = append(asm.Line, line)
	}()

	switch words[0] {
	case "mov":
		if len(words) < 3 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(words) > 3 {
			err = ErrOpcodeExtraArgs
			return
		}
		op, ok := movMap[words[1]]
		if !ok {
			_, reg_err := LookupRegister(words[1])
			if reg_err == nil {
				err = ErrTargetInvalid
			} else {
				err = ErrRegisterInvalid
			}
			return
		}
		var value uint16
		value, label, err = asm.literal(words[2])
		if err != nil {
			return
		}
		data = binary.BigEndian.AppendUint16([]byte{byte(op)}, value)
	case "add":
		if len(words) < 3 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(words) > 3 {
			err = ErrOpcodeExtraArgs
			return
		}
		data = []byte{byte(ADD_REG_REG)}
		for _, word := range words[1:] {
			var index byte
			index, err = asm.slot(word)
			if err != nil {
				return
			}
			data = append(data, index)
		}
	case ".byte", ".word":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		bits := 8
		if words[0] == ".word" {
			bits = 16
		}
		for _, word := range words[1:] {
			var v64 int64
			v64, err = asm.valueOf(word)
			if err != nil {
				return
			}
			var u64 uint64
			u64, err = fit(v64, bits)
			if err != nil {
				return
			}
			if bits == 16 {
				data = binary.BigEndian.AppendUint16(data, uint16(u64))
			} else {
				data = append(data, byte(u64))
			}
		}
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}
