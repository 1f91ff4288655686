package progress

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBar_Next(t *testing.T) {
	var buf bytes.Buffer
	bar := New(&buf, 3)

	bar.Next("Adding items")
	bar.Next("Adding items")
	bar.Next("Adding items")

	assert.Equal(t, "Adding items 1/3\nAdding items 2/3\nAdding items 3/3\n", buf.String())
	assert.Equal(t, 3, bar.Current())
	assert.Equal(t, 3, bar.Total())
}

func TestBar_CountsPastTotal(t *testing.T) {
	var buf bytes.Buffer
	bar := New(&buf, 1)

	bar.Next("Processing labels")
	bar.Next("Processing labels")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "Processing labels 2/1", lines[1])
}

func TestBar_RegularFileIsNotTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	defer f.Close()

	bar := New(f, 2)
	assert.False(t, bar.inPlace)

	bar.Next("step")
	require.NoError(t, f.Sync())

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "step 1/2\n", string(data))
}

func TestBar_InPlaceRewritesLine(t *testing.T) {
	var buf bytes.Buffer
	bar := &Bar{w: &buf, total: 2, inPlace: true}

	bar.Next("step")
	first := buf.Len()
	bar.Next("step")

	assert.NotContains(t, buf.String()[:first], cursorUp)
	assert.Contains(t, buf.String()[first:], cursorUp+clearLine)
	assert.Contains(t, buf.String(), "2/2")
}
