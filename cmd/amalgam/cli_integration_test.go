package main_test

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the amalgam binary and returns the path.
// The binary is placed in t.TempDir() so it's cleaned up automatically.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "amalgam"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "amalgam")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot returns the root of the amalgam project by walking up from
// the test file's directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

func createFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func run(t *testing.T, bin, dir string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		exitCode = exitErr.ExitCode()
	}
	return outBuf.String(), errBuf.String(), exitCode
}

func TestCLI_Build(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	bin := buildBinary(t)
	dir := createFixture(t, map[string]string{
		"main.ps1":   "using module ./lib/a.psm1\nWrite-Output 'main'\n",
		"lib/a.psm1": "function A { 'a' }\n",
	})

	_, stderr, code := run(t, bin, dir, "build", "-f", "main.ps1", "-o", "bundle.ps1", "--manifest", "builds.db")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "included modules")
	assert.Contains(t, stderr, "a (lib/a.psm1)")

	data, err := os.ReadFile(filepath.Join(dir, "bundle.ps1"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "### module: a (lib/a.psm1) ###\nfunction A { 'a' }\n")
	assert.Contains(t, string(data), "### main file code section ###\nWrite-Output 'main'\n")

	stdout, stderr, code := run(t, bin, dir, "manifest", "--manifest", "builds.db", "--format", "json")
	require.Equal(t, 0, code, stderr)
	var result struct {
		Command string `json:"command"`
		Results struct {
			ID      int64 `json:"id"`
			Modules []struct {
				Name string `json:"name"`
			} `json:"modules"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "manifest", result.Command)
	assert.Equal(t, int64(1), result.Results.ID)
	require.Len(t, result.Results.Modules, 2)
	assert.Equal(t, "a", result.Results.Modules[0].Name)
	assert.Equal(t, "main", result.Results.Modules[1].Name)
}

func TestCLI_BuildMissingDependency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	bin := buildBinary(t)
	dir := createFixture(t, map[string]string{
		"main.ps1": "using module ./gone.psm1\nusing module ./also-gone.psm1\n",
	})

	_, stderr, code := run(t, bin, dir, "build", "-f", "main.ps1", "-o", "bundle.ps1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "gone.psm1")
	assert.Contains(t, stderr, "also-gone.psm1")
	assert.NoFileExists(t, filepath.Join(dir, "bundle.ps1"))
}

func TestCLI_ListJSON(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	bin := buildBinary(t)
	dir := createFixture(t, map[string]string{
		"main.ps1": "using namespace System.IO\nusing module ./a.psm1\n",
		"a.psm1":   "using module ./b.psm1\n",
		"b.psm1":   "B\n",
	})

	stdout, stderr, code := run(t, bin, dir, "list", "-f", "main.ps1", "--format", "json")
	require.Equal(t, 0, code, stderr)

	var result struct {
		Command string `json:"command"`
		Results struct {
			Modules []struct {
				Name string `json:"name"`
				Path string `json:"path"`
			} `json:"modules"`
			Namespaces []struct {
				Name string `json:"name"`
			} `json:"namespaces"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "list", result.Command)
	require.Len(t, result.Results.Modules, 2)
	assert.Equal(t, "b", result.Results.Modules[0].Name)
	assert.Equal(t, "a.psm1", result.Results.Modules[1].Path)
	require.Len(t, result.Results.Namespaces, 1)
	assert.Equal(t, "System.IO", result.Results.Namespaces[0].Name)
}

func TestCLI_InvalidFormat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	bin := buildBinary(t)
	dir := createFixture(t, map[string]string{"main.ps1": "Main\n"})

	_, stderr, code := run(t, bin, dir, "list", "-f", "main.ps1", "--format", "yaml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid format")
}
