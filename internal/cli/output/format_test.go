package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yaml", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  table  ", want: FormatTable},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinterMessages(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatTable, false)
	assert.Equal(t, FormatTable, printer.Format())

	printer.Println("plain")
	printer.Printf("%d items\n", 3)
	printer.Success("done")
	printer.Warning("careful")
	printer.Error("broken")

	out := buf.String()
	for _, want := range []string{"plain", "3 items", "done", "careful", "broken"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\033[")
}

func TestPrinterColors(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, FormatTable, true).Error("broken")
	assert.Equal(t, "\033[31mbroken\033[0m\n", buf.String())
}

func TestPrinterFormats(t *testing.T) {
	data := map[string]string{"name": "primary"}

	var js bytes.Buffer
	require.NoError(t, NewPrinter(&js, FormatJSON, false).Print(data))
	assert.JSONEq(t, `{"name":"primary"}`, js.String())

	var ym bytes.Buffer
	require.NoError(t, NewPrinter(&ym, FormatYAML, false).Print(data))
	assert.Equal(t, "name: primary\n", ym.String())

	// Tables fall back to JSON for data without a table rendering.
	var tb bytes.Buffer
	require.NoError(t, NewPrinter(&tb, FormatTable, false).Print(data))
	assert.JSONEq(t, `{"name":"primary"}`, tb.String())

	assert.Error(t, NewPrinter(&tb, Format("xml"), false).Print(data))
}
