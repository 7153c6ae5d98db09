package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-autofill/pkg/models"
)

const savedPage = `<html><body>
<h1 data-test="job-title">React Native app for field inspections</h1>
<div class="job-description">Build an offline-first React Native app for building inspectors with photo capture, checklists and sync to our Node.js API once the device is back online.</div>
<form>
  <textarea name="coverLetter"></textarea>
  <div data-test="additional-questions">
    <div><label for="q1">How soon can you start?</label><input id="q1" type="text"></div>
  </div>
</form>
</body></html>`

func writePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(savedPage), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	out, err := run(t, "extract", "--in", writePage(t))
	require.NoError(t, err)

	var got extractOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "React Native app for field inspections", got.Job.Title)
	assert.True(t, got.Valid)
	assert.True(t, got.Application)
}

func TestQuestionsCommand(t *testing.T) {
	out, err := run(t, "questions", "--in", writePage(t))
	require.NoError(t, err)

	var got []models.ApplicationQuestion
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "How soon can you start?", got[0].Label)
}

func TestTemplatesCommand(t *testing.T) {
	out, err := run(t, "templates", "--type", "software")
	require.NoError(t, err)
	assert.Contains(t, out, "[Your Name]")

	_, err = run(t, "templates", "--type", "poetry")
	assert.Error(t, err)
	templateType = ""
}

func TestFillCommand_Fallback(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "filled.html")
	_, err := run(t, "fill", "--in", writePage(t), "--out", dst, "--name", "Jane D.")
	require.NoError(t, err)

	raw, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "React Native")
	assert.Contains(t, string(raw), "Jane D.")
}
