package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer_ResolvesAuto(t *testing.T) {
	var out, errOut bytes.Buffer

	assert.Equal(t, ModeMarkdown, NewRenderer(&out, &errOut, ModeAuto).Mode())
	assert.Equal(t, ModeText, NewRendererWithTTY(&out, &errOut, ModeAuto, true).Mode())
	assert.Equal(t, ModeJSON, NewRendererWithTTY(&out, &errOut, ModeJSON, true).Mode())
	assert.Equal(t, ModeMarkdown, NewRendererWithTTY(&out, &errOut, "", false).Mode())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"text", ModeText, false},
		{"JSON", ModeJSON, false},
		{"markdown", ModeMarkdown, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderer_Table(t *testing.T) {
	headers := []string{"Name", "Kind"}
	rows := [][]string{{"main", "function"}, {"Point", "class"}}

	t.Run("markdown", func(t *testing.T) {
		var out bytes.Buffer
		NewRendererWithTTY(&out, &out, ModeMarkdown, false).Table(headers, rows)
		assert.Contains(t, strings.ToLower(out.String()), "| name | kind |")
		assert.Contains(t, out.String(), "| Point | class |")
	})

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		NewRendererWithTTY(&out, &out, ModeText, false).Table(headers, rows)
		assert.Contains(t, out.String(), "┌")
		assert.Contains(t, strings.ToUpper(out.String()), "NAME")
		assert.Contains(t, out.String(), "main")
	})
}

func TestRenderer_Text(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, ModeText, false)

	r.Header(1, "Symbols")
	r.KeyValue("Units", "3")
	r.Success("done")
	r.Warning("stale cache")

	assert.Equal(t, "Symbols\nUnits: 3\ndone\n", out.String())
	assert.Equal(t, "warning: stale cache\n", errOut.String())
}

func TestRenderer_Markdown(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, ModeMarkdown, false)

	r.Header(2, "Units")
	r.KeyValue("File", "main.tasty")

	assert.Equal(t, "## Units\n\n- **File**: main.tasty\n", out.String())
}

func TestRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"units": 2}))
	assert.Equal(t, "{\n  \"units\": 2\n}\n", out.String())
}
