// Package code provides bytecode instruction definitions and utilities for the compiler and virtual machine.
//
// This package defines the bytecode instruction set used by the compiler to generate executable code
// and by the virtual machine to execute programs.
//
// It includes opcode definitions, instruction encoding and decoding
// functions, and the compiled-unit representation ([Unit]) shared by the
// compiler and the object system: a unit bundles a chunk of instructions
// with its constant pool and captured-free-variable specs, the same way
// object.CompiledFunction bundles Instructions in a classic Monkey-style
// compiler, generalized to FeInt's nested scopes and closures.
package code

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Instructions is a slice of bytes representing a sequence of instructions.
type Instructions []byte

// Opcode represents a single bytecode instruction used by the compiler and virtual machine.
type Opcode byte

// Bytecode instruction opcodes.
//
// Each opcode represents a specific operation that the virtual machine can
// execute. Instructions may have zero or more operands encoded after the
// opcode byte. Several opcodes (UnaryOp, BinaryOp, CompareOp) take a 1-byte sub-operator operand rather than having one opcode per
// operator, keeping the instruction set small while covering the full
// operator grammar.
const (
	// NoOp does nothing. The compiler does not emit it; the VM skips it.
	NoOp Opcode = iota

	// Pop discards the top stack value.
	//
	// Stack: [value] -> []
	Pop

	// LoadConst pushes a constant from the unit's constant pool.
	//
	// Operands: [const_index:2]
	LoadConst

	// LoadNil pushes the interned nil singleton.
	LoadNil
	// LoadTrue pushes the interned true singleton.
	LoadTrue
	// LoadFalse pushes the interned false singleton.
	LoadFalse
	// LoadAlways pushes the interned Always (`@`) singleton.
	LoadAlways
	// LoadEmptyStr pushes the interned empty string singleton.
	LoadEmptyStr
	// LoadEmptyTuple pushes the interned empty tuple singleton.
	LoadEmptyTuple

	// LoadGlobalConst pushes a shared interned small integer (0-256).
	//
	// Operands: [int_value:2]
	LoadGlobalConst

	// DeclareVar introduces a new module-level global, bound to the value
	// on top of the stack without popping it, at its compile-time-assigned
	// index. The name constant is carried alongside so the VM can also
	// register it by name, for REPL display and module attribute access.
	//
	// Operands: [global_index:2] [name_const_index:2]
	DeclareVar

	// AssignVar stores the top-of-stack value (without popping it) into an
	// existing local binding in the current function frame.
	//
	// Operands: [slot:2]
	AssignVar

	// AssignGlobal stores the top-of-stack value (without popping it)
	// into an already-declared module-level global by its numeric index,
	// used for `name = expr` reassignment as opposed to DeclareVar's
	// first-binding-by-name role.
	//
	// Operands: [global_index:2]
	AssignGlobal

	// LoadVar pushes the value of a local binding in the current function frame.
	//
	// Operands: [slot:2]
	LoadVar

	// LoadGlobal pushes a module-level global by index.
	//
	// Operands: [global_index:2]
	LoadGlobal

	// LoadBuiltin pushes a builtin function by index.
	//
	// Operands: [builtin_index:1]
	LoadBuiltin

	// AssignCell stores the top-of-stack value (without popping it) into a
	// heap cell captured by a closure.
	//
	// Operands: [cell_index:1]
	AssignCell

	// LoadCell pushes the value held by a heap cell.
	//
	// Operands: [cell_index:1]
	LoadCell

	// LoadCaptured pushes the value of a free variable captured from an
	// enclosing function's frame, dereferencing its Cell.
	//
	// Operands: [free_index:1]
	LoadCaptured

	// LoadCellRef pushes the Cell object itself (not its value) held in
	// the current frame's cell slot cell_index, used only as input to a
	// following CaptureSet/MakeFunc when a nested function literal
	// captures one of this function's own captured locals.
	//
	// Operands: [cell_index:1]
	LoadCellRef

	// LoadCapturedRef pushes the Cell object itself (not its value) this
	// closure holds at free_index, used only as input to a following
	// CaptureSet/MakeFunc when a nested function literal captures a
	// variable this function itself only captured from further out.
	//
	// Operands: [free_index:1]
	LoadCapturedRef

	// LoadSelf pushes the callable object for the currently executing
	// frame, used for a named function literal's self-reference (e.g.
	// `fact = (n) -> if n < 2 -> 1 else -> n * fact(n - 1)`).
	LoadSelf

	// Jump unconditionally jumps to addr. Neither the compiler nor the VM
	// unwinds the stack around it: break/continue/jump emit no Pops first,
	// since every statement boundary leaves the relative stack depth at 0.
	//
	// Operands: [addr:2]
	Jump

	// JumpPushNil jumps to addr and then pushes nil. The compiler emits it
	// only for `continue`: the jump goes back to the loop head, whose Pop
	// discards the pushed nil.
	//
	// Operands: [addr:2]
	JumpPushNil

	// JumpIf peeks the top value, leaving it on the stack; if truthy,
	// jumps to addr.
	//
	// Operands: [addr:2]
	JumpIf

	// JumpIfNot peeks the top value, leaving it on the stack; if not
	// truthy, jumps to addr.
	//
	// Operands: [addr:2]
	JumpIfNot

	// JumpIfNotNil peeks the top value; if it is not nil, jumps to addr
	// leaving the value on the stack (used for `??`). If it is nil, it
	// falls through, also leaving the value; the compiler's following Pop
	// discards it before the right-hand side is evaluated.
	//
	// Operands: [addr:2]
	JumpIfNotNil

	// UnaryOp applies a unary operator to the top-of-stack value.
	//
	// Operands: [op:1] - one of the Unary* sub-operator codes.
	//
	// Stack: [value] -> [result]
	UnaryOp

	// BinaryOp applies a binary arithmetic operator to the top two stack values.
	//
	// Operands: [op:1] - one of the Binary* sub-operator codes.
	//
	// Stack: [a, b] -> [a op b]
	BinaryOp

	// CompareOp applies a comparison/identity operator to the top two stack values.
	//
	// Operands: [op:1] - one of the Compare* sub-operator codes.
	//
	// Stack: [a, b] -> [a op b]
	CompareOp

	// AssignCaptured stores the top-of-stack value (without popping it)
	// through the Cell this closure holds at free_index - writes to a
	// free variable captured from an enclosing function.
	//
	// Operands: [free_index:1]
	AssignCaptured

	// GetAttr pops an object and pushes the named attribute.
	//
	// Operands: [name_const_index:2]
	GetAttr

	// GetItem pops an index/key and a collection, and pushes the item.
	//
	// Stack: [collection, index] -> [item]
	GetItem

	// Call invokes the callable num_args below the top of the stack.
	//
	// Operands: [num_args:1]
	//
	// Stack: [callable, arg1, ..., argN] -> [result]
	Call

	// Return pops the top value and returns it from the current call frame.
	Return

	// ReturnPlaceholder pops the top value and returns it from the
	// current call frame, exactly like Return; inserted at the end of
	// every unit whose last statement is not itself an explicit `return`
	// (see Unit.FixUpExplicitReturns), since the compiler always leaves
	// exactly one value on the stack after a unit's last statement runs
	// (nil, if the statement wouldn't otherwise produce one).
	ReturnPlaceholder

	// MakeString pops num_parts values, concatenates their string
	// representations, and pushes the resulting string (used for
	// formatted-string interpolation).
	//
	// Operands: [num_parts:2]
	MakeString

	// MakeTuple pops count values and pushes a tuple built from them.
	//
	// Operands: [count:2]
	MakeTuple

	// MakeList pops count values and pushes a list built from them.
	//
	// Operands: [count:2]
	MakeList

	// MakeMap pops pair_count key/value pairs and pushes a map built from them.
	//
	// Operands: [pair_count:2]
	MakeMap

	// CaptureSet marks the num_free cell references below the top of the
	// stack to be captured by the MakeFunc instruction that immediately
	// follows.
	//
	// Operands: [num_free:1]
	CaptureSet

	// MakeFunc builds a closure from a compiled unit in the constant pool
	// and num_free captured cells (pushed by the preceding CaptureSet).
	//
	// Operands: [unit_const_index:2, num_free:1]
	MakeFunc

	// LoadModule loads (or returns the cached instance of) the module
	// named by the constant pool string, and pushes it.
	//
	// Operands: [path_const_index:2]
	LoadModule

	// Halt pops the top value and halts the VM, using it as the process exit code.
	Halt

	// HaltTop halts the VM using whatever value is currently on top of the
	// stack without popping first. The compiler does not emit it.
	HaltTop

	// StatementStart marks the bytecode offset at which a new top-level
	// or block statement begins. When it runs, the VM records the
	// statement's start position (a token.Position constant) as the
	// current position reported by runtime errors.
	//
	// Operands: [span_const_index:2]
	StatementStart

	// Print implements the `$print(...)` special form.
	//
	// Operands: [num_args:1] - 1 to 5; arg1 is the value, the rest are
	// optional boolean flags (see PrintFlags).
	Print

	// DisplayStack is a debug instruction that dumps the current stack to
	// stderr without modifying it.
	DisplayStack
)

// Unary sub-operator codes for [UnaryOp].
const (
	UnaryPos byte = iota
	UnaryNeg
	UnaryNot
	UnaryNotNot
)

// Binary sub-operator codes for [BinaryOp].
const (
	BinaryAdd byte = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryFloorDiv
	BinaryMod
	BinaryPow
	BinaryAnd
	BinaryOr
)

// Compare sub-operator codes for [CompareOp].
const (
	CompareIs byte = iota
	CompareIsNot
	CompareTripleEq
	CompareNotTripleEq
	CompareEq
	CompareNotEq
	CompareLt
	CompareLte
	CompareGt
	CompareGte
)

// PrintFlags are the optional boolean flags accepted by [Print] beyond the
// mandatory first value argument, in positional order.
const (
	PrintFlagErr byte = iota
	PrintFlagNoNewline
	PrintFlagFlush
	PrintFlagRepr
)

// Definition represents an instruction definition with its name and operand widths.
type Definition struct {
	// Name is the name of the instruction.
	Name string

	// OperandWidths specifies the number of bytes each operand of an instruction occupies.
	OperandWidths []int
}

// definitions is a map of opcodes to their definitions.
var definitions = map[Opcode]*Definition{
	NoOp:              {"NoOp", []int{}},
	Pop:               {"Pop", []int{}},
	LoadConst:         {"LoadConst", []int{2}},
	LoadNil:           {"LoadNil", []int{}},
	LoadTrue:          {"LoadTrue", []int{}},
	LoadFalse:         {"LoadFalse", []int{}},
	LoadAlways:        {"LoadAlways", []int{}},
	LoadEmptyStr:      {"LoadEmptyStr", []int{}},
	LoadEmptyTuple:    {"LoadEmptyTuple", []int{}},
	LoadGlobalConst:   {"LoadGlobalConst", []int{2}},
	DeclareVar:        {"DeclareVar", []int{2, 2}},
	AssignVar:         {"AssignVar", []int{2}},
	AssignGlobal:      {"AssignGlobal", []int{2}},
	LoadVar:           {"LoadVar", []int{2}},
	LoadGlobal:        {"LoadGlobal", []int{2}},
	LoadBuiltin:       {"LoadBuiltin", []int{1}},
	AssignCell:        {"AssignCell", []int{1}},
	LoadCell:          {"LoadCell", []int{1}},
	LoadCaptured:      {"LoadCaptured", []int{1}},
	LoadCellRef:       {"LoadCellRef", []int{1}},
	LoadCapturedRef:   {"LoadCapturedRef", []int{1}},
	LoadSelf:          {"LoadSelf", []int{}},
	Jump:              {"Jump", []int{2}},
	JumpPushNil:       {"JumpPushNil", []int{2}},
	JumpIf:            {"JumpIf", []int{2}},
	JumpIfNot:         {"JumpIfNot", []int{2}},
	JumpIfNotNil:      {"JumpIfNotNil", []int{2}},
	UnaryOp:           {"UnaryOp", []int{1}},
	BinaryOp:          {"BinaryOp", []int{1}},
	CompareOp:         {"CompareOp", []int{1}},
	AssignCaptured:    {"AssignCaptured", []int{1}},
	GetAttr:           {"GetAttr", []int{2}},
	GetItem:           {"GetItem", []int{}},
	Call:              {"Call", []int{1}},
	Return:            {"Return", []int{}},
	ReturnPlaceholder: {"ReturnPlaceholder", []int{}},
	MakeString:        {"MakeString", []int{2}},
	MakeTuple:         {"MakeTuple", []int{2}},
	MakeList:          {"MakeList", []int{2}},
	MakeMap:           {"MakeMap", []int{2}},
	CaptureSet:        {"CaptureSet", []int{1}},
	MakeFunc:          {"MakeFunc", []int{2, 1}},
	LoadModule:        {"LoadModule", []int{2}},
	Halt:              {"Halt", []int{}},
	HaltTop:           {"HaltTop", []int{}},
	StatementStart:    {"StatementStart", []int{2}},
	Print:             {"Print", []int{1}},
	DisplayStack:      {"DisplayStack", []int{}},
}

// Lookup returns the [Definition] for the given [Opcode].
func Lookup(op byte) (*Definition, error) {
	def, ok := definitions[Opcode(op)]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// Make creates a byte slice representing an instruction using the provided opcode and operands.
func Make(op Opcode, operands ...int) []byte {
	def, ok := definitions[op]
	if !ok {
		return []byte{}
	}
	instructionLen := 1
	for _, w := range def.OperandWidths {
		instructionLen += w
	}
	instruction := make([]byte, instructionLen)
	instruction[0] = byte(op)
	offset := 1
	for i, operand := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 1:
			instruction[offset] = byte(operand)
		case 2:
			binary.BigEndian.PutUint16(instruction[offset:], uint16(operand))
		}
		offset += width
	}
	return instruction
}

// String provides a human-readable string representation of the [Instructions], formatted with opcodes and operands.
func (ins Instructions) String() string {
	var out strings.Builder

	i := 0
	for i < len(ins) {
		def, err := Lookup(ins[i])
		if err != nil {
			_, _ = fmt.Fprintf(&out, "ERROR: %s\n", err)
			i++
			continue
		}
		operands, read := ReadOperands(def, ins[i+1:])
		_, _ = fmt.Fprintf(&out, "%04d %s\n", i, ins.fmtInstruction(def, operands))
		i += read + 1
	}

	return out.String()
}

// fmtInstruction formats an instruction with its operands into a human-readable string representation.
func (ins Instructions) fmtInstruction(def *Definition, operands []int) string {
	operandCount := len(def.OperandWidths)

	if len(operands) != operandCount {
		return fmt.Sprintf("ERROR: operand len %d does not match defined %d\n", len(operands), operandCount)
	}

	switch operandCount {
	case 0:
		return def.Name
	case 1:
		return fmt.Sprintf("%s %d", def.Name, operands[0])
	case 2:
		return fmt.Sprintf("%s %d %d", def.Name, operands[0], operands[1])
	}
	return fmt.Sprintf("ERROR: unhandled operandCount for %s\n", def.Name)
}

// ReadOperands decodes operands from the specified instructions based
// on the definition and returns them with the total bytes read.
func ReadOperands(def *Definition, ins Instructions) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0

	for i, width := range def.OperandWidths {
		switch width {
		case 1:
			operands[i] = int(ReadUint8(ins[offset:]))
		case 2:
			operands[i] = int(ReadUint16(ins[offset:]))
		}
		offset += width
	}
	return operands, offset
}

// ReadUint16 decodes the first two bytes of the provided [Instructions] as uint16 in big-endian format.
func ReadUint16(ins Instructions) uint16 {
	return binary.BigEndian.Uint16(ins)
}

// ReadUint8 extracts the first byte from the provided [Instructions] slice and returns it as uint8.
func ReadUint8(ins Instructions) uint8 { return ins[0] }
