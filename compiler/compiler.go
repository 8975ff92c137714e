// Package compiler lowers a parsed FeInt module to bytecode.
//
// The compiler is a single recursive-descent visitor over the ast package's
// node types. Variable resolution runs through a SymbolTable tree that
// mirrors the module/function/block nesting of the source; closures are
// compiled in two phases per function literal — a lightweight pre-pass
// collects the names its nested function literals reference so locals that
// need to be shared via a Cell are known before the first reference is
// compiled, then the body is compiled in one pass emitting the code
// package's opcodes directly into a code.Unit.
package compiler

import (
	"encoding/binary"
	"fmt"

	"github.com/dr8co/feint/ast"
	"github.com/dr8co/feint/code"
	"github.com/dr8co/feint/token"
)

// Error kinds, matching the compiler's documented diagnostics.
const (
	ErrNameNotFound               = "NameNotFound"
	ErrLabelNotFoundInScope       = "LabelNotFoundInScope"
	ErrCannotJumpOutOfFunc        = "CannotJumpOutOfFunc"
	ErrDuplicateLabelInScope      = "DuplicateLabelInScope"
	ErrExpectedIdent              = "ExpectedIdent"
	ErrCannotReassignSpecialIdent = "CannotReassignSpecialIdent"
	ErrMainMustBeFunc             = "MainMustBeFunc"
	ErrGlobalNotFound             = "GlobalNotFound"
	ErrVarArgsMustBeLast          = "VarArgsMustBeLast"
	ErrPrint                      = "Print"
	ErrBreakOutsideLoop           = "BreakOutsideLoop"
	ErrContinueOutsideLoop        = "ContinueOutsideLoop"
)

// Error is a compile-time diagnostic.
type Error struct {
	Kind    string
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (line %d, col %d)", e.Kind, e.Message, e.Pos.Line, e.Pos.Col)
}

func errf(kind string, pos token.Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// loopContext tracks the patch points a loop's break statements need; the
// head address is known as soon as it's reached so continue patches
// immediately rather than deferring.
type loopContext struct {
	headAddr   int
	breakJumps []int
}

// unitScope is one code.Unit under construction, plus the bookkeeping the
// compiler needs while emitting into it.
type unitScope struct {
	unit    *code.Unit
	labels  map[string]int
	pending []pendingJump
}

// pendingJump is a `jump L` whose target label hadn't been seen yet when
// the jump was compiled.
type pendingJump struct {
	name string
	pos  int
	tok  token.Position
}

// Compiler lowers an *ast.Module (or, for a nested function literal, an
// *ast.Block) into a *code.Unit.
type Compiler struct {
	scopes      []*unitScope
	symbolTable *SymbolTable
	loops       []*loopContext
}

// New creates a compiler with a fresh module-level symbol table, seeding it
// with the given builtin names (functions and types) at their VM-assigned
// indices.
func New(builtinNames []string) *Compiler {
	st := NewSymbolTable()
	for i, name := range builtinNames {
		st.DefineBuiltin(i, name)
	}
	return NewWithState(st)
}

// NewWithState creates a compiler reusing an existing symbol table, letting
// the REPL compile one incremental chunk after another against the same
// growing set of global bindings.
func NewWithState(st *SymbolTable) *Compiler {
	c := &Compiler{symbolTable: st}
	c.pushScope(code.NewUnit("$main"))
	return c
}

// SymbolTable exposes the compiler's current symbol table, so a REPL can
// feed it back into NewWithState for the next chunk.
func (c *Compiler) SymbolTable() *SymbolTable { return c.symbolTable }

// Compile lowers module to a single code.Unit.
func (c *Compiler) Compile(module *ast.Module) (*code.Unit, error) {
	if err := c.compileStatements(module.Statements); err != nil {
		return nil, err
	}
	if err := c.resolvePendingJumps(ErrLabelNotFoundInScope); err != nil {
		return nil, err
	}
	u := c.unit()
	u.FixUpExplicitReturns()
	u.NumLocals = c.symbolTable.NumLocals()
	u.NumCells = c.symbolTable.NumCells()
	return u, nil
}

// ---- scope management -----------------------------------------------

func (c *Compiler) pushScope(u *code.Unit) {
	c.scopes = append(c.scopes, &unitScope{unit: u, labels: map[string]int{}})
}

func (c *Compiler) popScope() *unitScope {
	s := c.current()
	c.scopes = c.scopes[:len(c.scopes)-1]
	return s
}

func (c *Compiler) current() *unitScope { return c.scopes[len(c.scopes)-1] }
func (c *Compiler) unit() *code.Unit    { return c.current().unit }

func (c *Compiler) emit(op code.Opcode, operands ...int) int {
	return c.unit().Emit(op, operands...)
}

// patchJump overwrites the 2-byte address operand of the jump instruction
// at pos (the opcode's own position) with addr.
func (c *Compiler) patchJump(pos, addr int) {
	binary.BigEndian.PutUint16(c.unit().Chunk[pos+1:pos+3], uint16(addr))
}

func constEq(a, b any) bool { return a == b }

func (c *Compiler) addConstant(value any) int {
	return c.unit().AddConst(value, constEq)
}

// ---- statements -------------------------------------------------------

// compileStatements compiles a statement sequence with block-value
// semantics: every statement but the last is followed by a Pop, so exactly
// one value remains on the stack once the sequence finishes normally -
// nil, if the last statement doesn't itself produce one.
func (c *Compiler) compileStatements(stmts []ast.Statement) error {
	if len(stmts) == 0 {
		c.emit(code.LoadNil)
		return nil
	}
	for i, stmt := range stmts {
		c.emit(code.StatementStart, c.addConstant(stmt.Start()))
		if err := c.compileStatement(stmt, i == len(stmts)-1); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStatement(stmt ast.Statement, isLast bool) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if err := c.compileExpression(s.Expression); err != nil {
			return err
		}
		if !isLast {
			c.emit(code.Pop)
		}
		return nil

	case *ast.LabelStatement:
		if _, exists := c.current().labels[s.Name]; exists {
			return errf(ErrDuplicateLabelInScope, s.Start(), "label %q already defined in this scope", s.Name)
		}
		c.current().labels[s.Name] = c.unit().Len()
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
		if !isLast {
			c.emit(code.Pop)
		}
		return nil

	case *ast.JumpStatement:
		if addr, ok := c.current().labels[s.Name]; ok {
			c.emit(code.Jump, addr)
		} else {
			pos := c.emit(code.Jump, 0)
			c.current().pending = append(c.current().pending, pendingJump{name: s.Name, pos: pos, tok: s.Start()})
		}
		return nil

	case *ast.ImportStatement:
		return c.compileImport(s, isLast)

	case *ast.PrintStatement:
		return c.compilePrint(s, isLast)

	case *ast.BreakStatement:
		if len(c.loops) == 0 {
			return errf(ErrBreakOutsideLoop, s.Start(), "break outside of a loop")
		}
		if s.Value != nil {
			if err := c.compileExpression(s.Value); err != nil {
				return err
			}
		} else {
			c.emit(code.LoadNil)
		}
		loop := c.loops[len(c.loops)-1]
		pos := c.emit(code.Jump, 0)
		loop.breakJumps = append(loop.breakJumps, pos)
		return nil

	case *ast.ContinueStatement:
		if len(c.loops) == 0 {
			return errf(ErrContinueOutsideLoop, s.Start(), "continue outside of a loop")
		}
		loop := c.loops[len(c.loops)-1]
		c.emit(code.JumpPushNil, loop.headAddr)
		return nil

	case *ast.ReturnStatement:
		if s.Value != nil {
			if err := c.compileExpression(s.Value); err != nil {
				return err
			}
		} else {
			c.emit(code.LoadNil)
		}
		c.emit(code.Return)
		return nil

	case *ast.HaltStatement:
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
		c.emit(code.Halt)
		return nil

	default:
		return errf(ErrExpectedIdent, stmt.Start(), "unknown statement type %T", stmt)
	}
}

// compileImport loads the module, binds it under AsName (or the path's
// last segment), and - like any other binding expression - leaves the
// bound value on the stack for isLast to decide whether to keep.
func (c *Compiler) compileImport(s *ast.ImportStatement, isLast bool) error {
	pathIdx := c.addConstant(s.Path)
	c.emit(code.LoadModule, pathIdx)

	name := s.AsName
	if name == "" {
		name = importDefaultName(s.Path)
	}
	sym := c.symbolTable.Define(name)
	c.emitDeclare(sym, name)

	if !isLast {
		c.emit(code.Pop)
	}
	return nil
}

func importDefaultName(path string) string {
	start := 0
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			start = i + 1
			break
		}
	}
	return path[start:]
}

// compilePrint lowers `$print(args...)`; the special form itself produces
// no value, so unlike import (which leaves the bound module as its value)
// it pushes a nil result only when isLast.
func (c *Compiler) compilePrint(s *ast.PrintStatement, isLast bool) error {
	if len(s.Args) < 1 || len(s.Args) > 5 {
		return errf(ErrPrint, s.Start(), "$print takes 1 to 5 arguments, got %d", len(s.Args))
	}
	for _, a := range s.Args {
		if err := c.compileExpression(a); err != nil {
			return err
		}
	}
	c.emit(code.Print, len(s.Args))
	if isLast {
		c.emit(code.LoadNil)
	}
	return nil
}

// resolvePendingJumps resolves every `jump L` recorded in the current
// scope against that scope's own labels, reporting notFoundKind (which
// differs between module scope and function scope) for any that remain
// unresolved.
func (c *Compiler) resolvePendingJumps(notFoundKind string) error {
	s := c.current()
	for _, pj := range s.pending {
		addr, ok := s.labels[pj.name]
		if !ok {
			return errf(notFoundKind, pj.tok, "no label %q in this scope", pj.name)
		}
		c.patchJump(pj.pos, addr)
	}
	s.pending = nil
	return nil
}

// ---- expressions --------------------------------------------------------

func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.NilLiteral:
		c.emit(code.LoadNil)
		return nil

	case *ast.EllipsisLiteral:
		c.emit(code.LoadNil)
		return nil

	case *ast.BoolLiteral:
		if e.Value {
			c.emit(code.LoadTrue)
		} else {
			c.emit(code.LoadFalse)
		}
		return nil

	case *ast.AlwaysLiteral:
		c.emit(code.LoadAlways)
		return nil

	case *ast.IntLiteral:
		if e.Value >= 0 && e.Value <= 256 {
			c.emit(code.LoadGlobalConst, int(e.Value))
		} else {
			c.emit(code.LoadConst, c.addConstant(e.Value))
		}
		return nil

	case *ast.FloatLiteral:
		c.emit(code.LoadConst, c.addConstant(e.Value))
		return nil

	case *ast.StringLiteral:
		if e.Value == "" {
			c.emit(code.LoadEmptyStr)
		} else {
			c.emit(code.LoadConst, c.addConstant(e.Value))
		}
		return nil

	case *ast.FormattedString:
		return c.compileFormattedString(e)

	case *ast.Identifier:
		return c.compileIdentifier(e)

	case *ast.TupleLiteral:
		if len(e.Elements) == 0 {
			c.emit(code.LoadEmptyTuple)
			return nil
		}
		for _, el := range e.Elements {
			if err := c.compileExpression(el); err != nil {
				return err
			}
		}
		c.emit(code.MakeTuple, len(e.Elements))
		return nil

	case *ast.ListLiteral:
		for _, el := range e.Elements {
			if err := c.compileExpression(el); err != nil {
				return err
			}
		}
		c.emit(code.MakeList, len(e.Elements))
		return nil

	case *ast.MapLiteral:
		for _, p := range e.Pairs {
			if err := c.compileExpression(p.Key); err != nil {
				return err
			}
			if err := c.compileExpression(p.Value); err != nil {
				return err
			}
		}
		c.emit(code.MakeMap, len(e.Pairs))
		return nil

	case *ast.Block:
		return c.compileBlockExpr(e)

	case *ast.Conditional:
		return c.compileConditional(e)

	case *ast.Loop:
		return c.compileLoop(e)

	case *ast.FuncLiteral:
		return c.compileFuncLiteral(e, "")

	case *ast.CallExpression:
		return c.compileCall(e)

	case *ast.IndexExpression:
		return c.compileIndex(e)

	case *ast.DeclAssign:
		return c.compileDeclAssign(e)

	case *ast.Assignment:
		return c.compileAssignment(e)

	case *ast.UnaryExpression:
		return c.compileUnary(e)

	case *ast.BinaryExpression:
		return c.compileBinary(e)

	case *ast.CompareExpression:
		return c.compileCompare(e)

	case *ast.ShortCircuitExpression:
		return c.compileShortCircuit(e)

	case *ast.InplaceExpression:
		return c.compileInplace(e)

	default:
		return errf(ErrExpectedIdent, expr.Start(), "unknown expression type %T", expr)
	}
}

// compileBlockExpr compiles a block's statements directly into the
// enclosing unit (blocks don't get their own code.Unit or Call - they
// share the owning function's flat local-slot space, see symbol_table.go).
func (c *Compiler) compileBlockExpr(b *ast.Block) error {
	outer := c.symbolTable
	c.symbolTable = NewEnclosedSymbolTable(outer, BlockScopeKind)
	defer func() { c.symbolTable = outer }()
	return c.compileStatements(b.Statements)
}

func (c *Compiler) compileFormattedString(f *ast.FormattedString) error {
	count := 0
	for i, chunk := range f.Chunks {
		if chunk == "" {
			c.emit(code.LoadEmptyStr)
		} else {
			c.emit(code.LoadConst, c.addConstant(chunk))
		}
		count++
		if i < len(f.Exprs) {
			if err := c.compileExpression(f.Exprs[i]); err != nil {
				return err
			}
			count++
		}
	}
	c.emit(code.MakeString, count)
	return nil
}

func (c *Compiler) compileIdentifier(id *ast.Identifier) error {
	sym, ok := c.symbolTable.Resolve(id.Value)
	if !ok {
		return errf(ErrNameNotFound, id.Start(), "name %q is not defined", id.Value)
	}
	c.emitLoad(sym)
	return nil
}

func (c *Compiler) emitLoad(sym Symbol) {
	switch sym.Scope {
	case GlobalScope:
		c.emit(code.LoadGlobal, sym.Index)
	case LocalScope:
		c.emit(code.LoadVar, sym.Index)
	case CellScope:
		c.emit(code.LoadCell, sym.Index)
	case FreeScope:
		c.emit(code.LoadCaptured, sym.Index)
	case BuiltinScope:
		c.emit(code.LoadBuiltin, sym.Index)
	case FunctionScope:
		c.emit(code.LoadSelf)
	}
}

// emitDeclare binds sym's value (already on top of the stack) for the
// first time: global bindings register under name (for REPL/import/module
// attribute visibility); local and cell bindings just need their
// pre-sized slot written.
func (c *Compiler) emitDeclare(sym Symbol, name string) {
	switch sym.Scope {
	case GlobalScope:
		c.emit(code.DeclareVar, sym.Index, c.addConstant(name))
	case LocalScope:
		c.emit(code.AssignVar, sym.Index)
	case CellScope:
		c.emit(code.AssignCell, sym.Index)
	}
}

// emitStore writes to an already-declared binding (plain `name = expr`
// reassignment, or a compound-assignment's final store).
func (c *Compiler) emitStore(sym Symbol) {
	switch sym.Scope {
	case GlobalScope:
		c.emit(code.AssignGlobal, sym.Index)
	case LocalScope:
		c.emit(code.AssignVar, sym.Index)
	case CellScope:
		c.emit(code.AssignCell, sym.Index)
	case FreeScope:
		c.emit(code.AssignCaptured, sym.Index)
	}
}

func (c *Compiler) compileDeclAssign(d *ast.DeclAssign) error {
	if d.Name.Kind == ast.IdentSpecial && d.Name.Value != "$main" {
		return errf(ErrCannotReassignSpecialIdent, d.Start(), "cannot declare special identifier %q", d.Name.Value)
	}

	if fn, ok := d.Value.(*ast.FuncLiteral); ok && fn.Name == d.Name.Value {
		if d.Name.Value == "$main" && c.symbolTable.Kind != ModuleScopeKind {
			return errf(ErrMainMustBeFunc, d.Start(), "$main must be declared at module scope")
		}
		if err := c.compileFuncLiteral(fn, fn.Name); err != nil {
			return err
		}
		sym := c.symbolTable.Define(d.Name.Value)
		c.emitDeclare(sym, d.Name.Value)
		return nil
	}

	if d.Name.Value == "$main" {
		return errf(ErrMainMustBeFunc, d.Start(), "$main must be a function literal")
	}

	if err := c.compileExpression(d.Value); err != nil {
		return err
	}
	sym := c.symbolTable.Define(d.Name.Value)
	c.emitDeclare(sym, d.Name.Value)
	return nil
}

func (c *Compiler) compileAssignment(a *ast.Assignment) error {
	if a.Name.Kind == ast.IdentSpecial && a.Name.Value != "$main" {
		return errf(ErrCannotReassignSpecialIdent, a.Start(), "cannot assign to special identifier %q", a.Name.Value)
	}
	sym, ok := c.symbolTable.Resolve(a.Name.Value)
	if !ok {
		return errf(ErrNameNotFound, a.Start(), "name %q is not defined", a.Name.Value)
	}
	if err := c.compileExpression(a.Value); err != nil {
		return err
	}
	c.emitStore(sym)
	return nil
}

func (c *Compiler) compileCall(call *ast.CallExpression) error {
	if err := c.compileExpression(call.Callee); err != nil {
		return err
	}
	for _, arg := range call.Args {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}
	c.emit(code.Call, len(call.Args))
	return nil
}

// ---- operators ------------------------------------------------------

var unaryOps = map[string]byte{
	"+":  code.UnaryPos,
	"-":  code.UnaryNeg,
	"!":  code.UnaryNot,
	"!!": code.UnaryNotNot,
}

var binaryOps = map[string]byte{
	"^":  code.BinaryPow,
	"*":  code.BinaryMul,
	"/":  code.BinaryDiv,
	"//": code.BinaryFloorDiv,
	"%":  code.BinaryMod,
	"+":  code.BinaryAdd,
	"-":  code.BinarySub,
}

var compareOps = map[string]byte{
	"$$":  code.CompareIs,
	"$!":  code.CompareIsNot,
	"===": code.CompareTripleEq,
	"!==": code.CompareNotTripleEq,
	"==":  code.CompareEq,
	"!=":  code.CompareNotEq,
	"<":   code.CompareLt,
	"<=":  code.CompareLte,
	">":   code.CompareGt,
	">=":  code.CompareGte,
}

var inplaceOps = map[string]byte{
	"+=": code.BinaryAdd,
	"-=": code.BinarySub,
	"*=": code.BinaryMul,
	"/=": code.BinaryDiv,
}

func (c *Compiler) compileUnary(u *ast.UnaryExpression) error {
	if err := c.compileExpression(u.Operand); err != nil {
		return err
	}
	op, ok := unaryOps[u.Operator]
	if !ok {
		return errf(ErrExpectedIdent, u.Start(), "unknown unary operator %q", u.Operator)
	}
	c.emit(code.UnaryOp, int(op))
	return nil
}

func (c *Compiler) compileBinary(b *ast.BinaryExpression) error {
	if b.Operator == "." {
		if err := c.compileExpression(b.Left); err != nil {
			return err
		}
		name, ok := b.Right.(*ast.Identifier)
		if !ok {
			return errf(ErrExpectedIdent, b.Right.Start(), "expected an attribute name")
		}
		c.emit(code.GetAttr, c.addConstant(name.Value))
		return nil
	}

	if err := c.compileExpression(b.Left); err != nil {
		return err
	}
	if err := c.compileExpression(b.Right); err != nil {
		return err
	}
	op, ok := binaryOps[b.Operator]
	if !ok {
		return errf(ErrExpectedIdent, b.Start(), "unknown binary operator %q", b.Operator)
	}
	c.emit(code.BinaryOp, int(op))
	return nil
}

// compileIndex compiles `collection[index]`. There's no write form - FeInt
// has no assignment-target syntax for index or attribute expressions, only
// plain identifiers (see parseAssignExpression).
func (c *Compiler) compileIndex(e *ast.IndexExpression) error {
	if err := c.compileExpression(e.Collection); err != nil {
		return err
	}
	if err := c.compileExpression(e.Index); err != nil {
		return err
	}
	c.emit(code.GetItem)
	return nil
}

func (c *Compiler) compileCompare(cp *ast.CompareExpression) error {
	if err := c.compileExpression(cp.Left); err != nil {
		return err
	}
	if err := c.compileExpression(cp.Right); err != nil {
		return err
	}
	op, ok := compareOps[cp.Operator]
	if !ok {
		return errf(ErrExpectedIdent, cp.Start(), "unknown compare operator %q", cp.Operator)
	}
	c.emit(code.CompareOp, int(op))
	return nil
}

// compileShortCircuit lowers `&&`, `||`, `??`. JumpIf/JumpIfNot/
// JumpIfNotNil peek the left-hand value rather than popping it, so when
// the expression short-circuits, that already-computed value is left as
// the expression's result; otherwise it's discarded and the right-hand
// side is evaluated in its place.
func (c *Compiler) compileShortCircuit(s *ast.ShortCircuitExpression) error {
	if err := c.compileExpression(s.Left); err != nil {
		return err
	}

	var skipPos int
	switch s.Operator {
	case "&&":
		skipPos = c.emit(code.JumpIfNot, 0)
	case "||":
		skipPos = c.emit(code.JumpIf, 0)
	case "??":
		skipPos = c.emit(code.JumpIfNotNil, 0)
	default:
		return errf(ErrExpectedIdent, s.Start(), "unknown short-circuit operator %q", s.Operator)
	}

	c.emit(code.Pop)
	if err := c.compileExpression(s.Right); err != nil {
		return err
	}
	afterPos := c.emit(code.Jump, 0)
	c.patchJump(skipPos, c.unit().Len())
	c.patchJump(afterPos, c.unit().Len())
	return nil
}

func (c *Compiler) compileInplace(in *ast.InplaceExpression) error {
	if in.Name.Kind == ast.IdentSpecial && in.Name.Value != "$main" {
		return errf(ErrCannotReassignSpecialIdent, in.Start(), "cannot assign to special identifier %q", in.Name.Value)
	}
	sym, ok := c.symbolTable.Resolve(in.Name.Value)
	if !ok {
		return errf(ErrNameNotFound, in.Start(), "name %q is not defined", in.Name.Value)
	}

	baseOp, ok := inplaceOps[in.Operator]
	if !ok {
		return errf(ErrExpectedIdent, in.Start(), "unknown inplace operator %q", in.Operator)
	}

	c.emitLoad(sym)
	if err := c.compileExpression(in.Value); err != nil {
		return err
	}
	c.emit(code.BinaryOp, int(baseOp))
	c.emitStore(sym)
	return nil
}

// ---- conditionals and loops -------------------------------------------

func (c *Compiler) compileConditional(cond *ast.Conditional) error {
	var exitJumps []int

	for _, br := range cond.Branches {
		if err := c.compileExpression(br.Test); err != nil {
			return err
		}
		notPos := c.emit(code.JumpIfNot, 0)
		c.emit(code.Pop)
		if err := c.compileBlockExpr(br.Block); err != nil {
			return err
		}
		exitJumps = append(exitJumps, c.emit(code.Jump, 0))
		c.patchJump(notPos, c.unit().Len())
		c.emit(code.Pop)
	}

	if cond.Else != nil {
		if err := c.compileBlockExpr(cond.Else); err != nil {
			return err
		}
	} else {
		c.emit(code.LoadNil)
	}

	mergeAddr := c.unit().Len()
	for _, pos := range exitJumps {
		c.patchJump(pos, mergeAddr)
	}
	return nil
}

// compileLoop lowers `loop <cond> -> <body>`. The loop maintains a single
// "previous iteration result" slot on the stack across the backward jump:
// continue (JumpPushNil) and the normal body fallthrough both land on the
// loopHead Pop that discards it before the condition is re-tested. break
// and the loop's own no-break exit converge on a single afterLoop address,
// each leaving exactly one value - the break expression's value, or nil.
func (c *Compiler) compileLoop(l *ast.Loop) error {
	var declSym Symbol
	declCond, isDeclCond := l.Cond.(*ast.DeclAssign)
	if isDeclCond {
		if err := c.compileExpression(declCond.Value); err != nil {
			return err
		}
		declSym = c.symbolTable.Define(declCond.Name.Value)
		c.emitDeclare(declSym, declCond.Name.Value)
		c.emit(code.Pop)
	}

	loop := &loopContext{}
	c.loops = append(c.loops, loop)

	c.emit(code.LoadNil)
	loop.headAddr = c.unit().Len()
	c.emit(code.Pop)

	var err error
	if isDeclCond {
		c.emitLoad(declSym)
	} else {
		err = c.compileExpression(l.Cond)
	}
	if err != nil {
		c.loops = c.loops[:len(c.loops)-1]
		return err
	}

	exitPos := c.emit(code.JumpIfNot, 0)
	c.emit(code.Pop)
	if err := c.compileBlockExpr(l.Body); err != nil {
		c.loops = c.loops[:len(c.loops)-1]
		return err
	}
	c.emit(code.Jump, loop.headAddr)

	c.patchJump(exitPos, c.unit().Len())
	c.emit(code.Pop)
	c.emit(code.LoadNil)
	afterPos := c.emit(code.Jump, 0)
	afterAddr := c.unit().Len()
	c.patchJump(afterPos, afterAddr)
	for _, bp := range loop.breakJumps {
		c.patchJump(bp, afterAddr)
	}

	c.loops = c.loops[:len(c.loops)-1]
	return nil
}

// ---- function literals and closures ------------------------------------

// collectCaptured returns the set of identifier names referenced anywhere
// inside a function literal nested within body, a conservative
// over-approximation of the names body's own function must hold in Cells
// (a name shadowed inside the inner literal is still flagged; the only
// cost is an unused Cell slot).
func collectCaptured(body *ast.Block) map[string]bool {
	names := map[string]bool{}

	var walkExpr func(ast.Expression)
	var walkStmt func(ast.Statement)

	walkStmt = func(s ast.Statement) {
		switch v := s.(type) {
		case *ast.ExpressionStatement:
			walkExpr(v.Expression)
		case *ast.LabelStatement:
			walkExpr(v.Value)
		case *ast.BreakStatement:
			if v.Value != nil {
				walkExpr(v.Value)
			}
		case *ast.ReturnStatement:
			if v.Value != nil {
				walkExpr(v.Value)
			}
		case *ast.HaltStatement:
			walkExpr(v.Value)
		case *ast.PrintStatement:
			for _, a := range v.Args {
				walkExpr(a)
			}
		}
	}

	walkExpr = func(e ast.Expression) {
		switch v := e.(type) {
		case *ast.FormattedString:
			for _, sub := range v.Exprs {
				walkExpr(sub)
			}
		case *ast.TupleLiteral:
			for _, el := range v.Elements {
				walkExpr(el)
			}
		case *ast.ListLiteral:
			for _, el := range v.Elements {
				walkExpr(el)
			}
		case *ast.MapLiteral:
			for _, p := range v.Pairs {
				walkExpr(p.Key)
				walkExpr(p.Value)
			}
		case *ast.Block:
			for _, st := range v.Statements {
				walkStmt(st)
			}
		case *ast.Conditional:
			for _, br := range v.Branches {
				walkExpr(br.Test)
				for _, st := range br.Block.Statements {
					walkStmt(st)
				}
			}
			if v.Else != nil {
				for _, st := range v.Else.Statements {
					walkStmt(st)
				}
			}
		case *ast.Loop:
			walkExpr(v.Cond)
			for _, st := range v.Body.Statements {
				walkStmt(st)
			}
		case *ast.FuncLiteral:
			for _, st := range v.Body.Statements {
				walkNestedStmt(st, names)
			}
		case *ast.CallExpression:
			walkExpr(v.Callee)
			for _, a := range v.Args {
				walkExpr(a)
			}
		case *ast.IndexExpression:
			walkExpr(v.Collection)
			walkExpr(v.Index)
		case *ast.DeclAssign:
			walkExpr(v.Value)
		case *ast.Assignment:
			walkExpr(v.Value)
		case *ast.UnaryExpression:
			walkExpr(v.Operand)
		case *ast.BinaryExpression:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.CompareExpression:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.ShortCircuitExpression:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *ast.InplaceExpression:
			walkExpr(v.Value)
		}
	}

	for _, s := range body.Statements {
		walkStmt(s)
	}
	return names
}

// walkNestedStmt records every identifier referenced within a function
// literal's own body (names, not bindings) into names - the set of names
// that literal might reach out to an enclosing frame for.
func walkNestedStmt(s ast.Statement, names map[string]bool) {
	var collectExpr func(ast.Expression)
	collectExpr = func(e ast.Expression) {
		switch v := e.(type) {
		case *ast.Identifier:
			names[v.Value] = true
		case *ast.FormattedString:
			for _, sub := range v.Exprs {
				collectExpr(sub)
			}
		case *ast.TupleLiteral:
			for _, el := range v.Elements {
				collectExpr(el)
			}
		case *ast.ListLiteral:
			for _, el := range v.Elements {
				collectExpr(el)
			}
		case *ast.MapLiteral:
			for _, p := range v.Pairs {
				collectExpr(p.Key)
				collectExpr(p.Value)
			}
		case *ast.Block:
			for _, st := range v.Statements {
				walkNestedStmt(st, names)
			}
		case *ast.Conditional:
			for _, br := range v.Branches {
				collectExpr(br.Test)
				for _, st := range br.Block.Statements {
					walkNestedStmt(st, names)
				}
			}
			if v.Else != nil {
				for _, st := range v.Else.Statements {
					walkNestedStmt(st, names)
				}
			}
		case *ast.Loop:
			collectExpr(v.Cond)
			for _, st := range v.Body.Statements {
				walkNestedStmt(st, names)
			}
		case *ast.FuncLiteral:
			for _, st := range v.Body.Statements {
				walkNestedStmt(st, names)
			}
		case *ast.CallExpression:
			collectExpr(v.Callee)
			for _, a := range v.Args {
				collectExpr(a)
			}
		case *ast.IndexExpression:
			collectExpr(v.Collection)
			collectExpr(v.Index)
		case *ast.DeclAssign:
			collectExpr(v.Value)
		case *ast.Assignment:
			collectExpr(v.Value)
		case *ast.UnaryExpression:
			collectExpr(v.Operand)
		case *ast.BinaryExpression:
			collectExpr(v.Left)
			collectExpr(v.Right)
		case *ast.CompareExpression:
			collectExpr(v.Left)
			collectExpr(v.Right)
		case *ast.ShortCircuitExpression:
			collectExpr(v.Left)
			collectExpr(v.Right)
		case *ast.InplaceExpression:
			names[v.Name.Value] = true
			collectExpr(v.Value)
		}
	}

	switch v := s.(type) {
	case *ast.ExpressionStatement:
		collectExpr(v.Expression)
	case *ast.LabelStatement:
		collectExpr(v.Value)
	case *ast.BreakStatement:
		if v.Value != nil {
			collectExpr(v.Value)
		}
	case *ast.ReturnStatement:
		if v.Value != nil {
			collectExpr(v.Value)
		}
	case *ast.HaltStatement:
		collectExpr(v.Value)
	case *ast.PrintStatement:
		for _, a := range v.Args {
			collectExpr(a)
		}
	}
}

// compileFuncLiteral compiles fn into its own code.Unit and, back in the
// enclosing unit, emits the CaptureSet/MakeFunc pair that builds a closure
// from it. selfName, when non-empty, binds fn's own name to FunctionScope
// inside its body for recursive self-reference (see compileDeclAssign).
func (c *Compiler) compileFuncLiteral(fn *ast.FuncLiteral, selfName string) error {
	outer := c.symbolTable
	enclosed := NewEnclosedSymbolTable(outer, FuncScopeKind)
	enclosed.SetPrecaptured(collectCaptured(fn.Body))

	if selfName != "" {
		enclosed.DefineFunctionName(selfName)
	}

	c.symbolTable = enclosed
	c.pushScope(code.NewUnit(displayName(fn, selfName)))

	thisSym := enclosed.Define("this")
	varArgs := false
	paramSyms := make([]Symbol, 0, len(fn.Params))
	for _, p := range fn.Params {
		if p == "" {
			varArgs = true
			paramSyms = append(paramSyms, enclosed.Define("$args"))
			continue
		}
		if varArgs {
			c.popScope()
			c.symbolTable = outer
			return errf(ErrVarArgsMustBeLast, fn.Start(), "var-args parameter must be last")
		}
		paramSyms = append(paramSyms, enclosed.Define(p))
	}

	if err := c.compileStatements(fn.Body.Statements); err != nil {
		c.popScope()
		c.symbolTable = outer
		return err
	}
	if err := c.resolvePendingJumps(ErrCannotJumpOutOfFunc); err != nil {
		c.popScope()
		c.symbolTable = outer
		return err
	}

	inner := c.popScope().unit
	inner.FixUpExplicitReturns()
	inner.NumLocals = enclosed.NumLocals()
	inner.NumCells = enclosed.NumCells()
	inner.ThisSlot = paramSlotFor(thisSym)
	inner.ParamSlots = make([]code.ParamSlot, len(paramSyms))
	for i, sym := range paramSyms {
		inner.ParamSlots[i] = paramSlotFor(sym)
	}
	inner.IsVarArgs = varArgs

	freeSymbols := enclosed.FreeSymbols
	for i, sym := range freeSymbols {
		inner.FreeVars = append(inner.FreeVars, code.FreeVarSpec{
			Name:     sym.Name,
			FromCell: sym.Scope == CellScope || sym.FromCell,
			Index:    i,
		})
	}
	c.symbolTable = outer

	for _, sym := range freeSymbols {
		switch sym.Scope {
		case CellScope:
			c.emit(code.LoadCellRef, sym.Index)
		case FreeScope:
			c.emit(code.LoadCapturedRef, sym.Index)
		default:
			return errf(ErrNameNotFound, fn.Start(), "internal: free symbol %q has scope %s", sym.Name, sym.Scope)
		}
	}
	c.emit(code.CaptureSet, len(freeSymbols))

	unitIdx := c.unit().AddConst(inner, nil)
	c.emit(code.MakeFunc, unitIdx, len(freeSymbols))
	return nil
}

// paramSlotFor converts a parameter's resolved Symbol into the ParamSlot the
// VM's call protocol uses to bind an argument into a fresh frame, since a
// parameter captured by a nested closure lands in CellScope instead of a
// plain local slot (see SymbolTable.Define).
func paramSlotFor(sym Symbol) code.ParamSlot {
	return code.ParamSlot{Cell: sym.Scope == CellScope, Index: sym.Index}
}

func displayName(fn *ast.FuncLiteral, selfName string) string {
	if selfName != "" {
		return selfName
	}
	if fn.Name != "" {
		return fn.Name
	}
	return "<anonymous>"
}
