package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jerboa/pkg/lit"
)

func newTestLexer(src string) (*Lexer, *lit.Table) {
	lits := lit.NewTable()
	return New(src, lits), lits
}

// scanAll collects token types until EOF.
func scanAll(l *Lexer) []TokenType {
	var types []TokenType
	for {
		tok := l.NextToken(false)
		types = append(types, tok.Type)
		if tok.Type == EOF || tok.Type == ILLEGAL {
			return types
		}
	}
}

func TestPunctuators(t *testing.T) {
	l, _ := newTestLexer("=== !== == != <= >= << >> >>> >>>= && || ++ -- += . , ;")
	assert.Equal(t, []TokenType{
		STRICTEQ, STRICTNE, EQ, NE, LE, GE, LSHIFT, RSHIFT, URSHIFT, URSHIFTASSIGN,
		LAND, LOR, INC, DEC, PLUSASSIGN, DOT, COMMA, SEMICOLON, EOF,
	}, scanAll(l))
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	l, lits := newTestLexer("var foo = null")

	assert.Equal(t, VAR, l.NextToken(false).Type)

	tok := l.NextToken(false)
	require.Equal(t, NAME, tok.Type)
	assert.Equal(t, "foo", lits.StringOf(tok.Lit))

	assert.Equal(t, ASSIGN, l.NextToken(false).Type)
	assert.Equal(t, NULL, l.NextToken(false).Type)
}

func TestBooleans(t *testing.T) {
	l, _ := newTestLexer("true false")

	tok := l.NextToken(false)
	require.Equal(t, BOOL, tok.Type)
	assert.Equal(t, uint8(1), tok.SmallInt)

	tok = l.NextToken(false)
	require.Equal(t, BOOL, tok.Type)
	assert.Equal(t, uint8(0), tok.SmallInt)
}

func TestNumbers(t *testing.T) {
	l, lits := newTestLexer("1 255 256 3.5 0x10 1e3 12.5e-1")

	tok := l.NextToken(false)
	require.Equal(t, SMALLINT, tok.Type)
	assert.Equal(t, uint8(1), tok.SmallInt)

	tok = l.NextToken(false)
	require.Equal(t, SMALLINT, tok.Type)
	assert.Equal(t, uint8(255), tok.SmallInt)

	tok = l.NextToken(false)
	require.Equal(t, NUMBER, tok.Type)
	assert.Equal(t, 256.0, lits.Get(tok.Lit).Num)

	tok = l.NextToken(false)
	require.Equal(t, NUMBER, tok.Type)
	assert.Equal(t, 3.5, lits.Get(tok.Lit).Num)

	tok = l.NextToken(false)
	require.Equal(t, SMALLINT, tok.Type, "0x10 fits a byte")
	assert.Equal(t, uint8(16), tok.SmallInt)

	tok = l.NextToken(false)
	require.Equal(t, NUMBER, tok.Type)
	assert.Equal(t, 1000.0, lits.Get(tok.Lit).Num)

	tok = l.NextToken(false)
	require.Equal(t, NUMBER, tok.Type)
	assert.Equal(t, 1.25, lits.Get(tok.Lit).Num)
}

func TestStrings(t *testing.T) {
	l, lits := newTestLexer(`"hello" 'wo\'rld' "a\nb" "use strict"`)

	tok := l.NextToken(false)
	require.Equal(t, STRING, tok.Type)
	assert.Equal(t, "hello", lits.StringOf(tok.Lit))
	assert.False(t, tok.HasEscape)

	tok = l.NextToken(false)
	require.Equal(t, STRING, tok.Type)
	assert.Equal(t, "wo'rld", lits.StringOf(tok.Lit))
	assert.True(t, tok.HasEscape)

	tok = l.NextToken(false)
	require.Equal(t, STRING, tok.Type)
	assert.Equal(t, "a\nb", lits.StringOf(tok.Lit))

	tok = l.NextToken(false)
	require.Equal(t, STRING, tok.Type)
	assert.Equal(t, "use strict", lits.StringOf(tok.Lit))
	assert.False(t, tok.HasEscape)
}

func TestUnterminatedString(t *testing.T) {
	l, _ := newTestLexer(`"abc`)
	assert.Equal(t, ILLEGAL, l.NextToken(false).Type)
}

func TestNewlineTokens(t *testing.T) {
	l, _ := newTestLexer("a\nb\n\n\nc")
	assert.Equal(t, []TokenType{NAME, NEWLINE, NAME, NEWLINE, NAME, EOF}, scanAll(l),
		"runs of line terminators collapse into one NEWLINE token")
}

func TestCommentsAreBlanks(t *testing.T) {
	l, _ := newTestLexer("a // comment\nb /* c */ d")
	assert.Equal(t, []TokenType{NAME, NEWLINE, NAME, NAME, EOF}, scanAll(l))
}

func TestMultilineCommentContainsNewline(t *testing.T) {
	l, _ := newTestLexer("a /* x\ny */ b")
	assert.Equal(t, []TokenType{NAME, NEWLINE, NAME, EOF}, scanAll(l),
		"a line terminator inside a comment still separates lines for ASI")
}

func TestRegexpMode(t *testing.T) {
	l, lits := newTestLexer("/ab+c/gi")
	tok := l.NextToken(true)
	require.Equal(t, REGEXP, tok.Type)
	assert.Equal(t, "/ab+c/gi", lits.StringOf(tok.Lit))

	l, _ = newTestLexer("/ab/")
	tok = l.NextToken(false)
	assert.Equal(t, DIV, tok.Type, "without regex mode a slash is a punctuator")
}

func TestRegexpWithClassAndEscape(t *testing.T) {
	l, lits := newTestLexer(`/a[/\]]b\/c/m`)
	tok := l.NextToken(true)
	require.Equal(t, REGEXP, tok.Type)
	assert.Equal(t, `/a[/\]]b\/c/m`, lits.StringOf(tok.Lit))
}

func TestInvalidRegexpFlag(t *testing.T) {
	l, _ := newTestLexer("/ab/q")
	assert.Equal(t, ILLEGAL, l.NextToken(true).Type)

	l, _ = newTestLexer("/ab/gg")
	assert.Equal(t, ILLEGAL, l.NextToken(true).Type)
}

func TestSaveToken(t *testing.T) {
	l, _ := newTestLexer("a b")

	a := l.NextToken(false)
	require.Equal(t, NAME, a.Type)

	l.SaveToken(a)
	again := l.NextToken(false)
	assert.Equal(t, a, again, "pushback returns the saved token unchanged")

	b := l.NextToken(false)
	assert.Equal(t, "b", b.Text)
}

func TestPrevToken(t *testing.T) {
	l, _ := newTestLexer("a\nb")

	l.NextToken(false) // a
	l.NextToken(false) // newline
	l.NextToken(false) // b
	assert.Equal(t, NEWLINE, l.PrevToken().Type)
}

func TestSeekRescans(t *testing.T) {
	l, _ := newTestLexer("x / y")

	l.NextToken(false) // x
	div := l.NextToken(false)
	require.Equal(t, DIV, div.Type)

	l.Seek(div.Pos)
	tok := l.NextToken(true)
	assert.Equal(t, ILLEGAL, tok.Type, "rescan as regex fails on unterminated body")

	l.Seek(div.Pos)
	tok = l.NextToken(false)
	assert.Equal(t, DIV, tok.Type)
}

func TestSeekRestoresLineInfo(t *testing.T) {
	l, _ := newTestLexer("a\nbb ccc")

	l.NextToken(false) // a
	l.NextToken(false) // newline
	bb := l.NextToken(false)
	require.Equal(t, 2, bb.Line)

	l.NextToken(false) // ccc

	l.Seek(bb.Pos)
	again := l.NextToken(false)
	assert.Equal(t, bb.Line, again.Line)
	assert.Equal(t, bb.Column, again.Column)
	assert.Equal(t, bb.Pos, again.Pos)
}

func TestStrictModeOctal(t *testing.T) {
	l, _ := newTestLexer("010")
	tok := l.NextToken(false)
	require.Equal(t, SMALLINT, tok.Type)
	assert.Equal(t, uint8(8), tok.SmallInt)

	l, _ = newTestLexer("010")
	l.SetStrictMode(true)
	assert.Equal(t, ILLEGAL, l.NextToken(false).Type)
}

func TestStrictFutureReservedWords(t *testing.T) {
	l, _ := newTestLexer("let")
	assert.Equal(t, NAME, l.NextToken(false).Type)

	l, _ = newTestLexer("let")
	l.SetStrictMode(true)
	assert.Equal(t, RESERVED, l.NextToken(false).Type)

	l, _ = newTestLexer("class")
	assert.Equal(t, RESERVED, l.NextToken(false).Type)
}

func TestTokenPositions(t *testing.T) {
	l, _ := newTestLexer("ab cd")

	ab := l.NextToken(false)
	assert.Equal(t, 0, ab.Pos)
	assert.Equal(t, 1, ab.Line)
	assert.Equal(t, 1, ab.Column)

	cd := l.NextToken(false)
	assert.Equal(t, 3, cd.Pos)
	assert.Equal(t, 4, cd.Column)
}
