package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTableAlignsColumns(t *testing.T) {
	var buf strings.Builder
	err := writeTable(&buf, []string{"SCOPE", "CACHED"}, [][]string{
		{"alice", "3"},
		{"team-alpha", "100"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	// All CACHED cells start at the same column.
	col := strings.Index(lines[0], "CACHED")
	assert.Equal(t, col, strings.Index(lines[1], "3"))
	assert.Equal(t, col, strings.Index(lines[2], "100"))
}

func TestWriteTableRowWiderThanHeaders(t *testing.T) {
	var buf strings.Builder
	err := writeTable(&buf, []string{"A"}, [][]string{{"x", "extra"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "extra")
}

func TestWriteTableEmpty(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, writeTable(&buf, nil, nil))
	assert.Empty(t, buf.String())
}

func TestFormatYesNo(t *testing.T) {
	assert.Equal(t, "yes", formatYesNo(true))
	assert.Equal(t, "no", formatYesNo(false))
}

func TestParseCategory(t *testing.T) {
	got, err := parseCategory(" Team ")
	require.NoError(t, err)
	assert.Equal(t, "team", string(got))

	_, err = parseCategory("everything")
	assert.Error(t, err)
}
