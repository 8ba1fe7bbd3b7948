package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReply = `<<<SEARCH>>>
hello
<<<REPLACE>>>
goodbye
<<<END>>>
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type applyTestHarness struct {
	cmd    *cobra.Command
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestApplyCmd(t *testing.T) *applyTestHarness {
	t.Helper()
	c := newApplyCmd()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	c.SetOut(out)
	c.SetErr(errOut)
	return &applyTestHarness{cmd: c, out: out, errOut: errOut}
}

func TestApplyCmd_PrintsPatchedContent(t *testing.T) {
	dir := t.TempDir()
	file := writeTestFile(t, dir, "file.txt", "hello world\n")
	reply := writeTestFile(t, dir, "reply.txt", testReply)
	logFile := filepath.Join(dir, "test.log")

	h := newTestApplyCmd(t)
	h.cmd.SetArgs([]string{file, reply, "--log-file", logFile})
	require.NoError(t, h.cmd.Execute())

	assert.Equal(t, "goodbye world\n", h.out.String())
	assert.Contains(t, h.errOut.String(), "EXACT")
	assert.Contains(t, h.errOut.String(), "1/1 edits applied")

	// Nothing was asked to be written back.
	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(content))
}

func TestApplyCmd_WriteInPlace(t *testing.T) {
	dir := t.TempDir()
	file := writeTestFile(t, dir, "file.txt", "hello world\n")
	reply := writeTestFile(t, dir, "reply.txt", testReply)
	logFile := filepath.Join(dir, "test.log")

	h := newTestApplyCmd(t)
	h.cmd.SetArgs([]string{file, reply, "--write", "--log-file", logFile})
	require.NoError(t, h.cmd.Execute())

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "goodbye world\n", string(content))
}

func TestApplyCmd_ReadsReplyFromStdin(t *testing.T) {
	dir := t.TempDir()
	file := writeTestFile(t, dir, "file.txt", "hello world\n")
	logFile := filepath.Join(dir, "test.log")

	h := newTestApplyCmd(t)
	h.cmd.SetIn(strings.NewReader(testReply))
	h.cmd.SetArgs([]string{file, "--log-file", logFile})
	require.NoError(t, h.cmd.Execute())

	assert.Equal(t, "goodbye world\n", h.out.String())
}

func TestApplyCmd_PartialFailureExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	file := writeTestFile(t, dir, "file.txt", "alpha\n")
	reply := writeTestFile(t, dir, "reply.txt",
		"<<<SEARCH>>>\nthis_token_is_nowhere_in_the_file\n<<<REPLACE>>>\nx\n<<<END>>>\n")
	logFile := filepath.Join(dir, "test.log")

	h := newTestApplyCmd(t)
	h.cmd.SetArgs([]string{file, reply, "--log-file", logFile})
	err := h.cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patch incomplete")

	// --partial-ok downgrades the failure to a warning.
	h = newTestApplyCmd(t)
	h.cmd.SetArgs([]string{file, reply, "--partial-ok", "--log-file", logFile})
	require.NoError(t, h.cmd.Execute())
}

func TestApplyCmd_JSONFormat(t *testing.T) {
	dir := t.TempDir()
	file := writeTestFile(t, dir, "file.txt", "hello world\n")
	reply := writeTestFile(t, dir, "reply.txt", testReply)
	logFile := filepath.Join(dir, "test.log")

	h := newTestApplyCmd(t)
	h.cmd.SetArgs([]string{file, reply, "--format", "json", "--log-file", logFile})
	require.NoError(t, h.cmd.Execute())

	out := h.out.String()
	assert.Contains(t, out, `"is_fully_applied": true`)
	assert.Contains(t, out, `"status": "exact"`)
	assert.Contains(t, out, `"new_content": "goodbye world\n"`)
}

func TestApplyCmd_DiffPreview(t *testing.T) {
	dir := t.TempDir()
	file := writeTestFile(t, dir, "file.txt", "hello world\nsame\n")
	reply := writeTestFile(t, dir, "reply.txt", testReply)
	logFile := filepath.Join(dir, "test.log")

	h := newTestApplyCmd(t)
	h.cmd.SetArgs([]string{file, reply, "--diff", "--log-file", logFile})
	require.NoError(t, h.cmd.Execute())

	out := h.out.String()
	assert.Contains(t, out, "-hello world")
	assert.Contains(t, out, "+goodbye world")
}

func TestApplyCmd_OutputPath(t *testing.T) {
	dir := t.TempDir()
	file := writeTestFile(t, dir, "file.txt", "hello world\n")
	reply := writeTestFile(t, dir, "reply.txt", testReply)
	target := filepath.Join(dir, "patched.txt")
	logFile := filepath.Join(dir, "test.log")

	h := newTestApplyCmd(t)
	h.cmd.SetArgs([]string{file, reply, "--output", target, "--log-file", logFile})
	require.NoError(t, h.cmd.Execute())

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "goodbye world\n", string(content))
}

func TestApplyCmd_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	file := writeTestFile(t, dir, "file.txt", "hello world\n")
	reply := writeTestFile(t, dir, "reply.txt", testReply)
	logFile := filepath.Join(dir, "test.log")

	h := newTestApplyCmd(t)
	h.cmd.SetArgs([]string{file, reply, "--format", "xml", "--log-file", logFile})
	err := h.cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestApplyCmd_MissingFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "test.log")

	h := newTestApplyCmd(t)
	h.cmd.SetIn(strings.NewReader(""))
	h.cmd.SetArgs([]string{filepath.Join(dir, "does-not-exist.txt"), "--log-file", logFile})
	err := h.cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}
