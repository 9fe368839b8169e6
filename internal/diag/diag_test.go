package diag

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tasty/pkg/transpiler"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		code string
	}{
		{
			name: "parse error",
			src:  "fn main( {\n}",
			want: "main.tasty:1:",
			code: "E2",
		},
		{
			name: "redeclaration",
			src:  "copy a: int = 1;\ncopy a: int = 2;",
			want: "main.tasty:2:",
			code: "E301",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transpiler.Transpile("main.tasty", tt.src, transpiler.Options{})
			require.Error(t, err)

			d := New("main.tasty", err)
			assert.Contains(t, d.String(), tt.want)
			assert.Contains(t, d.String(), ": error["+d.Code+"]: ")
			assert.True(t, len(d.Code) == 4 && d.Code[:len(tt.code)] == tt.code, d.Code)
			assert.NotContains(t, d.Message, "error at line", "stage prefix is stripped")
			assert.Equal(t, d.Code, CodeOf(err))
		})
	}
}

func TestNew_Uncoded(t *testing.T) {
	err := fmt.Errorf("main.tasty: %w", errors.New("permission denied"))
	d := New("main.tasty", err)

	assert.Empty(t, d.Code)
	assert.False(t, d.Pos.IsValid())
	assert.Equal(t, "main.tasty: error: permission denied", d.String())
	assert.Empty(t, CodeOf(err))
}

func TestPrinter_Print(t *testing.T) {
	_, err := transpiler.Transpile("main.tasty", "copy a: int = 1;\ncopy a: int = 2;", transpiler.Options{})
	require.Error(t, err)
	d := New("main.tasty", err).WithSource("copy a: int = 1;\ncopy a: int = 2;")
	require.Equal(t, "copy a: int = 2;", d.Line)

	var buf bytes.Buffer
	NewPrinter(&buf).Print(d)

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, d.String(), string(lines[0]), "no colour outside a terminal")
	assert.Equal(t, "2 | copy a: int = 2;", string(lines[1]))
	assert.Contains(t, string(lines[2]), "^")
}

func TestPrinter_NoSource(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Print(Diagnostic{File: "x.tasty", Message: "boom"})
	assert.Equal(t, "x.tasty: error: boom\n", buf.String())
}

func TestCaretIndent(t *testing.T) {
	assert.Equal(t, "    ", caretIndent("copy a", 5))
	assert.Equal(t, "\t  ", caretIndent("\tif x", 4))
	assert.Equal(t, "", caretIndent("x", 1))
}

func TestUseColor(t *testing.T) {
	assert.False(t, UseColor(&bytes.Buffer{}))
}
