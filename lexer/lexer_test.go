package lexer

import (
	"testing"

	"github.com/dr8co/feint/token"
)

// TestNextToken exercises the lexer against a representative slice of
// FeInt syntax, ensuring every token family is recognized.
func TestNextToken(t *testing.T) {
	input := `x = 5
y = 10.5
f = (n) -> n * 2
if x < y -> x elif x == y -> 0 else -> y
loop x -> break x
a = @
b = nil
c = ...
d = "foo\nbar"
$print(x, true)
x $$ y
x $! y
x === y
x !== y
x && y || z ?? w
x += 1
[1, 2, 3]
{1: 2}
(1, 2)
Type.new()
this
import std as s
jump L
label L: x
`
	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "5"},
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.FLOAT, "10.5"},
		{token.IDENT, "f"},
		{token.ASSIGN, "="},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.RPAREN, ")"},
		{token.ARROW, "->"},
		{token.IDENT, "n"},
		{token.STAR, "*"},
		{token.INT, "2"},
		{token.IF, "if"},
		{token.IDENT, "x"},
		{token.LT, "<"},
		{token.IDENT, "y"},
		{token.ARROW, "->"},
		{token.IDENT, "x"},
		{token.ELIF, "elif"},
		{token.IDENT, "x"},
		{token.EQ, "=="},
		{token.IDENT, "y"},
		{token.ARROW, "->"},
		{token.INT, "0"},
		{token.ELSE, "else"},
		{token.ARROW, "->"},
		{token.IDENT, "y"},
		{token.LOOP, "loop"},
		{token.IDENT, "x"},
		{token.ARROW, "->"},
		{token.BREAK, "break"},
		{token.IDENT, "x"},
		{token.IDENT, "a"},
		{token.ASSIGN, "="},
		{token.ALWAYS, "@"},
		{token.IDENT, "b"},
		{token.ASSIGN, "="},
		{token.NIL, "nil"},
		{token.IDENT, "c"},
		{token.ASSIGN, "="},
		{token.ELLIPSIS, "..."},
		{token.IDENT, "d"},
		{token.ASSIGN, "="},
		{token.STRING, "foo\nbar"},
		{token.PRINT, "$print"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.TRUE, "true"},
		{token.RPAREN, ")"},
		{token.IDENT, "x"},
		{token.IS, "$$"},
		{token.IDENT, "y"},
		{token.IDENT, "x"},
		{token.IS_NOT, "$!"},
		{token.IDENT, "y"},
		{token.IDENT, "x"},
		{token.TRIPLE_EQ, "==="},
		{token.IDENT, "y"},
		{token.IDENT, "x"},
		{token.NOT_TRIPLE_EQ, "!=="},
		{token.IDENT, "y"},
		{token.IDENT, "x"},
		{token.AND_AND, "&&"},
		{token.IDENT, "y"},
		{token.OR_OR, "||"},
		{token.IDENT, "z"},
		{token.QUEST_QUEST, "??"},
		{token.IDENT, "w"},
		{token.IDENT, "x"},
		{token.PLUS_EQ, "+="},
		{token.INT, "1"},
		{token.LBRACKET, "["},
		{token.INT, "1"},
		{token.COMMA, ","},
		{token.INT, "2"},
		{token.COMMA, ","},
		{token.INT, "3"},
		{token.RBRACKET, "]"},
		{token.LBRACE, "{"},
		{token.INT, "1"},
		{token.COLON, ":"},
		{token.INT, "2"},
		{token.RBRACE, "}"},
		{token.LPAREN, "("},
		{token.INT, "1"},
		{token.COMMA, ","},
		{token.INT, "2"},
		{token.RPAREN, ")"},
		{token.TYPE_IDENT, "Type"},
		{token.DOT, "."},
		{token.IDENT, "new"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.THIS, "this"},
		{token.IMPORT, "import"},
		{token.IDENT, "std"},
		{token.AS, "as"},
		{token.IDENT, "s"},
		{token.JUMP, "jump"},
		{token.TYPE_IDENT, "L"},
		{token.LABEL, "label"},
		{token.TYPE_IDENT, "L"},
		{token.COLON, ":"},
		{token.IDENT, "x"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal %q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestLineComments(t *testing.T) {
	input := "x = 1 # trailing comment\n# full line\ny = 2"
	expected := []token.Type{token.IDENT, token.ASSIGN, token.INT, token.IDENT, token.ASSIGN, token.INT, token.EOF}
	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %q, got %q", i, want, tok.Type)
		}
	}
}
