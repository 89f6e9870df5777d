package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValue(t *testing.T) {
	tests := []struct {
		in         string
		delims     []rune
		key, value string
		ok         bool
	}{
		{in: "Content-Type:application/json", key: "Content-Type", value: "application/json", ok: true},
		{in: "title=Go", delims: []rune{'='}, key: "title", value: "Go", ok: true},
		{in: "expr=a==b", delims: []rune{'='}, key: "expr", value: "a==b", ok: true},
		{in: "novalue", delims: []rune{'='}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, value, ok := KeyValue(tt.in, tt.delims...)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestFields(t *testing.T) {
	got, err := Fields([]string{
		"title=The C Programming Language",
		`authors=["AUTHORID_1"]`,
		"pages=272",
		"draft=false",
		`quoted=""`,
		"empty=",
		" spaced =x",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"title":   "The C Programming Language",
		"authors": []any{"AUTHORID_1"},
		"pages":   float64(272),
		"draft":   false,
		"quoted":  "",
		"empty":   "",
		"spaced":  "x",
	}, got)

	_, err = Fields([]string{"title"})
	assert.ErrorContains(t, err, "expected key=value")

	_, err = Fields([]string{"=x"})
	assert.ErrorContains(t, err, "expected key=value")
}

func TestSplitTrim(t *testing.T) {
	assert.Nil(t, SplitTrim("", ","))
	assert.Equal(t, []string{"A1", "A2"}, SplitTrim(" A1, ,A2 ", ","))
}
