package genesets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGMT(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sets.gmt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSets_ParsesWellFormedFile(t *testing.T) {
	path := writeGMT(t, "pathwayA\tdescription A\tg1\tg2\tg3\n"+
		"pathwayB\thttp://example.org/b\tg2\tg4\n")

	sets, err := NewGMTFile(path).Sets(context.Background())
	require.NoError(t, err)

	require.Len(t, sets, 2)
	assert.Equal(t, []string{"g1", "g2", "g3"}, sets["pathwayA"])
	assert.Equal(t, []string{"g2", "g4"}, sets["pathwayB"])
}

func TestSets_SkipsBlankLinesAndEmptyMembers(t *testing.T) {
	path := writeGMT(t, "a\tdesc\tg1\t\tg2\n\n   \nb\tdesc\tg3\n")

	sets, err := NewGMTFile(path).Sets(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"g1", "g2"}, sets["a"])
	assert.Equal(t, []string{"g3"}, sets["b"])
}

func TestSets_HandlesCarriageReturns(t *testing.T) {
	path := writeGMT(t, "a\tdesc\tg1\tg2\r\nb\tdesc\tg3\r\n")

	sets, err := NewGMTFile(path).Sets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, sets["a"])
	assert.Equal(t, []string{"g3"}, sets["b"])
}

func TestSets_TooFewFields(t *testing.T) {
	path := writeGMT(t, "lonely\tdesc\n")

	_, err := NewGMTFile(path).Sets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":1:")
}

func TestSets_EmptySetName(t *testing.T) {
	path := writeGMT(t, "\tdesc\tg1\n")

	_, err := NewGMTFile(path).Sets(context.Background())
	assert.ErrorContains(t, err, "empty set name")
}

func TestSets_DuplicateSetName(t *testing.T) {
	path := writeGMT(t, "a\tdesc\tg1\na\tdesc\tg2\n")

	_, err := NewGMTFile(path).Sets(context.Background())
	assert.ErrorContains(t, err, `duplicate set name "a"`)
}

func TestSets_MissingFile(t *testing.T) {
	_, err := NewGMTFile(filepath.Join(t.TempDir(), "nope.gmt")).Sets(context.Background())
	assert.ErrorContains(t, err, "failed to open")
}

func TestSets_CancelledContext(t *testing.T) {
	path := writeGMT(t, "a\tdesc\tg1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGMTFile(path).Sets(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
