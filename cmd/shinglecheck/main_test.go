package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RishiKendai/shingle/internal/plagiarism"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompareJSON(t *testing.T) {
	a := writeFile(t, "a.txt", "The quick brown fox jumps over the lazy dog")
	b := writeFile(t, "b.txt", "A quick brown fox jumps over a lazy dog")

	out, err := run(t, "", "compare", a, b, "--json")
	require.NoError(t, err)

	var result plagiarism.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.InDelta(t, 63.57, result.Similarity, 0.001)
	assert.Equal(t, []plagiarism.Interval{{Start: 4, End: 30}}, result.Doc1Matches)
}

func TestCompareHTMLFromStdin(t *testing.T) {
	b := writeFile(t, "b.txt", "the quick brown fox")

	out, err := run(t, "quick brown", "compare", "-", b, "--html", "-k", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "78.95%")
	assert.Contains(t, out, `the <span class="plagiarism-highlight">quick brown</span> fox`)
}

func TestCompareErrors(t *testing.T) {
	_, err := run(t, "", "compare", "only-one")
	assert.Error(t, err)

	_, err = run(t, "", "compare", filepath.Join(t.TempDir(), "missing"), "-")
	assert.ErrorContains(t, err, "failed to read")
}
