package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		ident string
		want  TokenType
	}{
		{"fn", FN},
		{"copy", COPY},
		{"ptr", PTR},
		{"ptr2", PTR},
		{"ptr9", PTR},
		{"ptr10", IDENT},
		{"uniqueptr", UNIQUEPTR},
		{"thread_local", THREAD_LOCAL},
		{"incto", INCTO},
		{"from", IDENT},
		{"becomes", IDENT},
		{"count", IDENT},
	}

	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupIdent(tt.ident))
		})
	}
}

func TestTokenClassification(t *testing.T) {
	assert.True(t, IsStorage(AUTOPTR))
	assert.False(t, IsStorage(CONST))
	assert.True(t, IsModifier(STATIC))
	assert.True(t, IsAssign(SHL_ASSIGN))
	assert.False(t, IsAssign(EQ))
	assert.True(t, IsKeyword(WHILE))
	assert.True(t, IsOperator(RANGE))
	assert.Equal(t, "->", ARROW.String())
	assert.Equal(t, "TOKEN(9999)", TokenType(9999).String())
}

func TestTokenIsOperand(t *testing.T) {
	assert.True(t, Token{Type: IDENT}.IsOperand())
	assert.True(t, Token{Type: RPAREN}.IsOperand())
	assert.False(t, Token{Type: ASSIGN}.IsOperand())
	assert.False(t, Token{Type: LPAREN}.IsOperand())
}

func TestPosition(t *testing.T) {
	p := Position{Line: 3, Column: 7, Offset: 20}
	assert.True(t, p.IsValid())
	assert.Equal(t, "3:7", p.String())
	assert.Equal(t, "-", Position{}.String())

	s := Span{Start: Position{Line: 2, Offset: 5}, End: Position{Line: 4, Offset: 30}}
	assert.True(t, s.Contains(5))
	assert.False(t, s.Contains(30))
	assert.Equal(t, 3, s.Lines())
}
