package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrammar = `@START S.
NP ==> Det, +N | +N.
S ==> NP, +V, NP.
`

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.txt"), "")
	b := writeFile(t, filepath.Join(dir, "sub", "deep", "b.txt"), "")
	writeFile(t, filepath.Join(dir, "sub", "c.dat"), "")

	files, err := expandInputs([]string{filepath.Join(dir, "**", "*.txt")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)

	files, err = expandInputs([]string{b, a})
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, files, "argument order is kept")

	_, err = expandInputs([]string{filepath.Join(dir, "*.none")})
	assert.Error(t, err)
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	gram := writeFile(t, filepath.Join(dir, "toy.gram"), testGrammar)
	input := writeFile(t, filepath.Join(dir, "in", "one.txt"), "The the Det\ncat cat N\neats eat V\nfish fish N\n")

	out, err := run(t, "", "parse", "--grammar", gram, "--format", "conll", "--log-level", "error",
		filepath.Join(dir, "in", "*.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1\tThe\tthe\tDet\t2\tmodnorule\n"+
		"2\tcat\tcat\tN\t3\tmodnorule\n"+
		"3\teats\teat\tV\t0\ttop\n"+
		"4\tfish\tfish\tN\t3\tmodnorule\n\n", out)

	out, err = run(t, "cat cat N\neats eat V\nfish fish N\n", "parse", "-g", gram, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "+V_(eats eat V)")

	out, err = run(t, "", "parse", "-g", gram, "--format", "deps", "--log-level", "error", input)
	require.NoError(t, err)
	assert.Contains(t, out, "top/S/(eats eat V)")

	_, err = run(t, "", "parse", "-g", gram, "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestCheckCommand(t *testing.T) {
	gram := writeFile(t, filepath.Join(t.TempDir(), "toy.gram"), testGrammar)
	out, err := run(t, "", "check", "-g", gram, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "start symbol:   S")
	assert.Contains(t, out, "rules:          3")
}
