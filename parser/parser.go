// Package parser implements the syntactic analyzer for the FeInt
// scripting language.
//
// The parser takes a stream of tokens from [github.com/dr8co/feint/lexer]
// and constructs an [github.com/dr8co/feint/ast] tree. It implements a
// recursive-descent parser with Pratt parsing (precedence climbing) for
// expressions, in the same shape as a classic Monkey-style parser,
// generalized to FeInt's statement and operator set.
//
// Like the lexer, the parser is an external collaborator of the
// compile-and-execute core (spec §1): the compiler only depends on the
// AST shape this package produces, never on parsing itself.
package parser

import (
	"fmt"
	"strconv"

	"github.com/dr8co/feint/ast"
	"github.com/dr8co/feint/lexer"
	"github.com/dr8co/feint/token"
)

const (
	_ int = iota

	// Lowest is the lowest possible precedence.
	Lowest

	// Assign binds `=` and inplace operators.
	Assign

	// NilCoalesce binds `??`.
	NilCoalesce

	// LogicalOr binds `||`.
	LogicalOr

	// LogicalAnd binds `&&`.
	LogicalAnd

	// Equals binds equality/identity comparisons.
	Equals // == != === !== $$ $!

	// LessGreater binds ordering comparisons.
	LessGreater // < <= > >=

	// Sum binds `+ -`.
	Sum

	// Product binds `* / // %`.
	Product

	// Power binds `^`.
	Power

	// PrefixPrec binds unary `+ - ! !!`.
	PrefixPrec

	// CallPrec binds function calls.
	CallPrec

	// DotPrec binds `.` attribute access, the tightest binding operator.
	DotPrec
)

var precedences = map[token.Type]int{
	token.ASSIGN:        Assign,
	token.PLUS_EQ:       Assign,
	token.MINUS_EQ:      Assign,
	token.STAR_EQ:       Assign,
	token.SLASH_EQ:      Assign,
	token.QUEST_QUEST:   NilCoalesce,
	token.OR_OR:         LogicalOr,
	token.AND_AND:       LogicalAnd,
	token.EQ:            Equals,
	token.NOT_EQ:        Equals,
	token.TRIPLE_EQ:     Equals,
	token.NOT_TRIPLE_EQ: Equals,
	token.IS:            Equals,
	token.IS_NOT:        Equals,
	token.LT:            LessGreater,
	token.LTE:           LessGreater,
	token.GT:            LessGreater,
	token.GTE:           LessGreater,
	token.PLUS:          Sum,
	token.MINUS:         Sum,
	token.STAR:          Product,
	token.SLASH:         Product,
	token.DSLASH:        Product,
	token.PERCENT:       Product,
	token.CARET:         Power,
	token.LPAREN:        CallPrec,
	token.LBRACKET:      CallPrec,
	token.DOT:           DotPrec,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser is a FeInt recursive-descent/Pratt parser.
type Parser struct {
	l      *lexer.Lexer
	errors []string

	currentToken token.Token
	peekToken    token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// New creates a new Parser reading from the given Lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l, errors: []string{}}

	p.prefixParseFns = make(map[token.Type]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.TYPE_IDENT, p.parseIdentifier)
	p.registerPrefix(token.SPECIAL, p.parseIdentifier)
	p.registerPrefix(token.PRINT, p.parsePrintIdentifier)
	p.registerPrefix(token.THIS, p.parseThis)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.NIL, p.parseNilLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolLiteral)
	p.registerPrefix(token.FALSE, p.parseBoolLiteral)
	p.registerPrefix(token.ALWAYS, p.parseAlwaysLiteral)
	p.registerPrefix(token.ELLIPSIS, p.parseEllipsisLiteral)
	p.registerPrefix(token.BANG, p.parseUnaryExpression)
	p.registerPrefix(token.BANG_BANG, p.parseUnaryExpression)
	p.registerPrefix(token.MINUS, p.parseUnaryExpression)
	p.registerPrefix(token.PLUS, p.parseUnaryExpression)
	p.registerPrefix(token.LPAREN, p.parseParenOrTupleOrFunc)
	p.registerPrefix(token.LBRACKET, p.parseListLiteral)
	p.registerPrefix(token.LBRACE, p.parseMapOrBlock)
	p.registerPrefix(token.IF, p.parseConditional)
	p.registerPrefix(token.LOOP, p.parseLoop)

	p.infixParseFns = make(map[token.Type]infixParseFn)
	for _, t := range []token.Type{token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.DSLASH, token.PERCENT, token.CARET, token.DOT} {
		p.registerInfix(t, p.parseBinaryExpression)
	}
	for _, t := range []token.Type{token.EQ, token.NOT_EQ, token.TRIPLE_EQ, token.NOT_TRIPLE_EQ,
		token.IS, token.IS_NOT, token.LT, token.LTE, token.GT, token.GTE} {
		p.registerInfix(t, p.parseCompareExpression)
	}
	for _, t := range []token.Type{token.AND_AND, token.OR_OR, token.QUEST_QUEST} {
		p.registerInfix(t, p.parseShortCircuitExpression)
	}
	for _, t := range []token.Type{token.PLUS_EQ, token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ} {
		p.registerInfix(t, p.parseInplaceExpression)
	}
	p.registerInfix(token.ASSIGN, p.parseAssignExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) { p.prefixParseFns[t] = fn }
func (p *Parser) registerInfix(t token.Type, fn infixParseFn)   { p.infixParseFns[t] = fn }

// Errors returns the list of syntax errors encountered during parsing.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) nextToken() {
	p.currentToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) currentTokenIs(t token.Type) bool { return p.currentToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool    { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.Type) {
	p.errors = append(p.errors, fmt.Sprintf("expected next token to be %s, got %s (%q) instead",
		t, p.peekToken.Type, p.peekToken.Literal))
}

func (p *Parser) noPrefixParseFnError(t token.Type) {
	p.errors = append(p.errors, fmt.Sprintf("no prefix parse function for %s found", t))
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return Lowest
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.currentToken.Type]; ok {
		return pr
	}
	return Lowest
}

// ParseModule parses a complete FeInt module and returns its AST.
//
// Check [Parser.Errors] after calling this method for syntax errors.
func (p *Parser) ParseModule() *ast.Module {
	start := p.currentToken.Start
	m := &ast.Module{}
	for !p.currentTokenIs(token.EOF) {
		if stmt := p.parseStatement(); stmt != nil {
			m.Statements = append(m.Statements, stmt)
		}
		p.nextToken()
	}
	m.Span = ast.NewSpan(start, p.currentToken.End)
	return m
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.currentToken.Type {
	case token.BREAK:
		return p.parseBreakStatement()
	case token.CONTINUE:
		return p.parseContinueStatement()
	case token.IMPORT:
		return p.parseImportStatement()
	case token.JUMP:
		return p.parseJumpStatement()
	case token.LABEL:
		return p.parseLabelStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.HALT:
		return p.parseHaltStatement()
	case token.PRINT:
		if st := p.tryParsePrintStatement(); st != nil {
			return st
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseBreakStatement() *ast.BreakStatement {
	tok := p.currentToken
	p.nextToken()
	val := p.parseExpression(Lowest)
	return &ast.BreakStatement{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Value: val}
}

func (p *Parser) parseContinueStatement() *ast.ContinueStatement {
	tok := p.currentToken
	return &ast.ContinueStatement{Span: ast.NewSpan(tok.Start, tok.End), Token: tok}
}

func (p *Parser) parseImportStatement() *ast.ImportStatement {
	tok := p.currentToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	path := p.currentToken.Literal
	asName := ""
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		asName = p.currentToken.Literal
	}
	return &ast.ImportStatement{
		Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Path: path, AsName: asName,
	}
}

func (p *Parser) parseJumpStatement() *ast.JumpStatement {
	tok := p.currentToken
	if p.peekTokenIs(token.TYPE_IDENT) {
		p.nextToken()
	} else if !p.expectPeek(token.IDENT) {
		return nil
	}
	return &ast.JumpStatement{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Name: p.currentToken.Literal}
}

func (p *Parser) parseLabelStatement() *ast.LabelStatement {
	tok := p.currentToken
	if p.peekTokenIs(token.TYPE_IDENT) {
		p.nextToken()
	} else if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.currentToken.Literal
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	val := p.parseExpression(Lowest)
	return &ast.LabelStatement{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Name: name, Value: val}
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	tok := p.currentToken
	p.nextToken()
	val := p.parseExpression(Lowest)
	return &ast.ReturnStatement{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Value: val}
}

func (p *Parser) parseHaltStatement() *ast.HaltStatement {
	tok := p.currentToken
	p.nextToken()
	val := p.parseExpression(Lowest)
	return &ast.HaltStatement{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Value: val}
}

// tryParsePrintStatement handles `$print(args...)` called as a statement.
// It returns nil (without consuming input) if the token is followed by
// something other than `(`, leaving it to be parsed as a plain identifier
// expression instead.
func (p *Parser) tryParsePrintStatement() *ast.PrintStatement {
	tok := p.currentToken
	if !p.peekTokenIs(token.LPAREN) {
		return nil
	}
	p.nextToken() // consume '('
	args := p.parseExpressionList(token.RPAREN)
	if len(args) < 1 || len(args) > 5 {
		p.errors = append(p.errors, fmt.Sprintf("$print expects 1-5 arguments, got %d", len(args)))
	}
	return &ast.PrintStatement{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Args: args}
}

func (p *Parser) parseExpressionStatement() *ast.ExpressionStatement {
	tok := p.currentToken
	expr := p.parseExpression(Lowest)
	return &ast.ExpressionStatement{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Expression: expr}
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.currentToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.currentToken.Type)
		return nil
	}
	left := prefix()
	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

// ---- Prefix parse functions ----------------------------------------------

func (p *Parser) parseIdentifier() ast.Expression {
	kind := ast.IdentRegular
	switch p.currentToken.Type {
	case token.SPECIAL:
		kind = ast.IdentSpecial
	case token.TYPE_IDENT:
		kind = ast.IdentType
	}
	return &ast.Identifier{
		Span: ast.NewSpan(p.currentToken.Start, p.currentToken.End),
		Token: p.currentToken, Value: p.currentToken.Literal, Kind: kind,
	}
}

func (p *Parser) parsePrintIdentifier() ast.Expression {
	// `$print` used outside statement position (e.g. as a call target):
	// treat it like any other special identifier.
	return &ast.Identifier{
		Span: ast.NewSpan(p.currentToken.Start, p.currentToken.End),
		Token: p.currentToken, Value: p.currentToken.Literal, Kind: ast.IdentSpecial,
	}
}

func (p *Parser) parseThis() ast.Expression {
	return &ast.Identifier{
		Span: ast.NewSpan(p.currentToken.Start, p.currentToken.End),
		Token: p.currentToken, Value: "this", Kind: ast.IdentRegular,
	}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	tok := p.currentToken
	val, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("could not parse %q as integer", tok.Literal))
		return nil
	}
	return &ast.IntLiteral{Span: ast.NewSpan(tok.Start, tok.End), Token: tok, Value: val}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	tok := p.currentToken
	val, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("could not parse %q as float", tok.Literal))
		return nil
	}
	return &ast.FloatLiteral{Span: ast.NewSpan(tok.Start, tok.End), Token: tok, Value: val}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	tok := p.currentToken
	if chunks, exprs, ok := splitInterpolation(tok.Literal); ok {
		return &ast.FormattedString{Span: ast.NewSpan(tok.Start, tok.End), Token: tok, Chunks: chunks, Exprs: exprs}
	}
	return &ast.StringLiteral{Span: ast.NewSpan(tok.Start, tok.End), Token: tok, Value: tok.Literal}
}

// splitInterpolation scans a raw string literal's content for `${expr}`
// placeholders, parsing each as a nested FeInt expression via its own
// lexer/parser. Returns ok=false (and nil slices) when there are no
// placeholders, so the caller can build a plain StringLiteral instead.
func splitInterpolation(content string) (chunks []string, exprs []ast.Expression, ok bool) {
	var chunk []byte
	i := 0
	for i < len(content) {
		if content[i] == '$' && i+1 < len(content) && content[i+1] == '{' {
			depth := 1
			j := i + 2
			for j < len(content) && depth > 0 {
				switch content[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth > 0 {
					j++
				}
			}
			inner := content[i+2 : j]
			chunks = append(chunks, string(chunk))
			chunk = nil
			sub := New(lexer.New(inner))
			exprs = append(exprs, sub.parseExpression(Lowest))
			i = j + 1
			ok = true
			continue
		}
		chunk = append(chunk, content[i])
		i++
	}
	chunks = append(chunks, string(chunk))
	return chunks, exprs, ok
}

func (p *Parser) parseNilLiteral() ast.Expression {
	return &ast.NilLiteral{Span: ast.NewSpan(p.currentToken.Start, p.currentToken.End), Token: p.currentToken}
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	return &ast.BoolLiteral{
		Span: ast.NewSpan(p.currentToken.Start, p.currentToken.End),
		Token: p.currentToken, Value: p.currentTokenIs(token.TRUE),
	}
}

func (p *Parser) parseAlwaysLiteral() ast.Expression {
	return &ast.AlwaysLiteral{Span: ast.NewSpan(p.currentToken.Start, p.currentToken.End), Token: p.currentToken}
}

func (p *Parser) parseEllipsisLiteral() ast.Expression {
	return &ast.EllipsisLiteral{Span: ast.NewSpan(p.currentToken.Start, p.currentToken.End), Token: p.currentToken}
}

func (p *Parser) parseUnaryExpression() ast.Expression {
	tok := p.currentToken
	op := tok.Literal
	p.nextToken()
	operand := p.parseExpression(PrefixPrec)
	return &ast.UnaryExpression{
		Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Operator: op, Operand: operand,
	}
}

// parseParenOrTupleOrFunc disambiguates `(expr)`, `(a, b)` tuples, and
// `(params) -> body` function literals, all of which begin with `(`.
func (p *Parser) parseParenOrTupleOrFunc() ast.Expression {
	tok := p.currentToken

	if looksLikeParamList(p) {
		if params, ok := p.tryParseParamList(); ok && p.peekTokenIs(token.ARROW) {
			p.nextToken() // consume '->'
			p.nextToken()
			body := p.parseBlockBody(tok)
			return &ast.FuncLiteral{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Params: params, Body: body}
		}
	}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.TupleLiteral{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok}
	}

	p.nextToken()
	first := p.parseExpression(Lowest)
	if p.peekTokenIs(token.COMMA) {
		elems := []ast.Expression{first}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			elems = append(elems, p.parseExpression(Lowest))
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return &ast.TupleLiteral{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Elements: elems}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return first
}

// looksLikeParamList peeks for the `(ident, ident) ->` or `() ->` shape
// without committing; a full attempt is made by tryParseParamList on a
// cloned lexer state.
func looksLikeParamList(p *Parser) bool {
	return p.peekTokenIs(token.RPAREN) || p.peekTokenIs(token.IDENT)
}

// tryParseParamList attempts to parse a parameter list starting at the
// current `(` token. On success it leaves currentToken on `)`. An
// empty-string trailing name denotes var-args (e.g. a param written `...`).
func (p *Parser) tryParseParamList() (params []string, ok bool) {
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return nil, true
	}
	save := *p
	lexSave := *p.l
	p.nextToken()
	for {
		switch p.currentToken.Type {
		case token.IDENT:
			params = append(params, p.currentToken.Literal)
		case token.ELLIPSIS:
			params = append(params, "")
		default:
			*p = save
			*p.l = lexSave
			return nil, false
		}
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	if !p.peekTokenIs(token.RPAREN) {
		*p = save
		*p.l = lexSave
		return nil, false
	}
	p.nextToken()
	return params, true
}

func (p *Parser) parseListLiteral() ast.Expression {
	tok := p.currentToken
	elems := p.parseExpressionList(token.RBRACKET)
	return &ast.ListLiteral{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Elements: elems}
}

// parseExpressionList parses a comma-separated expression list up to and
// including the given closing token, assuming currentToken is the opening
// delimiter.
func (p *Parser) parseExpressionList(end token.Type) []ast.Expression {
	var list []ast.Expression
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	list = append(list, p.parseExpression(Lowest))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(Lowest))
	}
	if !p.expectPeek(end) {
		return nil
	}
	return list
}

// parseMapOrBlock disambiguates `{k: v, ...}` map literals from `{stmt;
// stmt}` blocks, both of which begin with `{`.
func (p *Parser) parseMapOrBlock() ast.Expression {
	tok := p.currentToken
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return &ast.MapLiteral{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok}
	}
	save := *p
	lexSave := *p.l
	p.nextToken()
	key := p.parseExpression(Lowest)
	if p.peekTokenIs(token.COLON) {
		pairs := []ast.MapPair{}
		p.nextToken()
		p.nextToken()
		val := p.parseExpression(Lowest)
		pairs = append(pairs, ast.MapPair{Key: key, Value: val})
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			k := p.parseExpression(Lowest)
			if !p.expectPeek(token.COLON) {
				return nil
			}
			p.nextToken()
			v := p.parseExpression(Lowest)
			pairs = append(pairs, ast.MapPair{Key: k, Value: v})
		}
		if !p.expectPeek(token.RBRACE) {
			return nil
		}
		return &ast.MapLiteral{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Pairs: pairs}
	}
	*p = save
	*p.l = lexSave
	return p.parseBlockBody(tok)
}

// parseBlockBody parses `{ stmt... }` starting with currentToken on `{`.
func (p *Parser) parseBlockBody(tok token.Token) *ast.Block {
	block := &ast.Block{Token: tok}
	p.nextToken()
	for !p.currentTokenIs(token.RBRACE) && !p.currentTokenIs(token.EOF) {
		if stmt := p.parseStatement(); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	block.Span = ast.NewSpan(tok.Start, p.currentToken.End)
	return block
}

func (p *Parser) parseConditional() ast.Expression {
	tok := p.currentToken
	cond := &ast.Conditional{Token: tok}

	p.nextToken()
	test := p.parseExpression(Lowest)
	if !p.expectPeek(token.ARROW) {
		return nil
	}
	p.nextToken()
	body := p.parseBranchBlock()
	cond.Branches = append(cond.Branches, ast.CondBranch{Test: test, Block: body})

	for p.peekTokenIs(token.ELIF) {
		p.nextToken()
		p.nextToken()
		test := p.parseExpression(Lowest)
		if !p.expectPeek(token.ARROW) {
			return nil
		}
		p.nextToken()
		body := p.parseBranchBlock()
		cond.Branches = append(cond.Branches, ast.CondBranch{Test: test, Block: body})
	}

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if !p.expectPeek(token.ARROW) {
			return nil
		}
		p.nextToken()
		cond.Else = p.parseBranchBlock()
	}

	cond.Span = ast.NewSpan(tok.Start, p.currentToken.End)
	return cond
}

// parseBranchBlock parses the body after `->`: either an explicit `{...}`
// block or a single expression treated as a one-statement block.
func (p *Parser) parseBranchBlock() *ast.Block {
	if p.currentTokenIs(token.LBRACE) {
		return p.parseBlockBody(p.currentToken)
	}
	tok := p.currentToken
	expr := p.parseExpression(Lowest)
	return &ast.Block{
		Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok,
		Statements: []ast.Statement{&ast.ExpressionStatement{
			Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Expression: expr,
		}},
	}
}

func (p *Parser) parseLoop() ast.Expression {
	tok := p.currentToken
	p.nextToken()
	cond := p.parseExpression(Lowest)
	if !p.expectPeek(token.ARROW) {
		return nil
	}
	p.nextToken()
	body := p.parseBranchBlock()
	return &ast.Loop{Span: ast.NewSpan(tok.Start, p.currentToken.End), Token: tok, Cond: cond, Body: body}
}

// ---- Infix parse functions -----------------------------------------------

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	tok := p.currentToken
	op := tok.Literal
	prec := p.curPrecedence()
	if tok.Type == token.CARET {
		prec-- // `^` is right-associative: a ^ b ^ c is a ^ (b ^ c)
	}
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.BinaryExpression{
		Span: ast.NewSpan(left.Start(), p.currentToken.End), Token: tok, Operator: op, Left: left, Right: right,
	}
}

func (p *Parser) parseCompareExpression(left ast.Expression) ast.Expression {
	tok := p.currentToken
	op := tok.Literal
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.CompareExpression{
		Span: ast.NewSpan(left.Start(), p.currentToken.End), Token: tok, Operator: op, Left: left, Right: right,
	}
}

func (p *Parser) parseShortCircuitExpression(left ast.Expression) ast.Expression {
	tok := p.currentToken
	op := tok.Literal
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(prec)
	return &ast.ShortCircuitExpression{
		Span: ast.NewSpan(left.Start(), p.currentToken.End), Token: tok, Operator: op, Left: left, Right: right,
	}
}

func (p *Parser) parseInplaceExpression(left ast.Expression) ast.Expression {
	tok := p.currentToken
	ident, ok := left.(*ast.Identifier)
	if !ok {
		p.errors = append(p.errors, fmt.Sprintf("left side of %s must be an identifier", tok.Literal))
		return nil
	}
	p.nextToken()
	val := p.parseExpression(Assign)
	return &ast.InplaceExpression{
		Span: ast.NewSpan(left.Start(), p.currentToken.End), Token: tok, Operator: tok.Literal, Name: ident, Value: val,
	}
}

func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	tok := p.currentToken
	ident, ok := left.(*ast.Identifier)
	if !ok {
		p.errors = append(p.errors, "left side of = must be an identifier")
		return nil
	}
	p.nextToken()
	val := p.parseExpression(Assign)
	if fl, ok := val.(*ast.FuncLiteral); ok && fl.Name == "" {
		fl.Name = ident.Value
	}
	span := ast.NewSpan(left.Start(), p.currentToken.End)
	if ident.Kind == ast.IdentRegular {
		return &ast.DeclAssign{Span: span, Token: tok, Name: ident, Value: val}
	}
	return &ast.Assignment{Span: span, Token: tok, Name: ident, Value: val}
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	tok := p.currentToken
	args := p.parseExpressionList(token.RPAREN)
	return &ast.CallExpression{Span: ast.NewSpan(callee.Start(), p.currentToken.End), Token: tok, Callee: callee, Args: args}
}

// parseIndexExpression parses `collection[index]`. There is no assignment
// form - `a[i] = v` isn't valid FeInt syntax, the same restriction
// parseAssignExpression already places on attribute access.
func (p *Parser) parseIndexExpression(collection ast.Expression) ast.Expression {
	tok := p.currentToken
	p.nextToken()
	index := p.parseExpression(Lowest)
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return &ast.IndexExpression{
		Span: ast.NewSpan(collection.Start(), p.currentToken.End), Token: tok, Collection: collection, Index: index,
	}
}
