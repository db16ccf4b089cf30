package amalgam

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func script(src string) string {
	return strings.TrimPrefix(dedent.Dedent(src), "\n")
}

// amalgamate loads main.ps1 under dir and returns the merged output.
func amalgamate(t *testing.T, dir string, opts ...Option) string {
	t.Helper()
	e := newTestEngine(t, dir, opts...)
	g, err := e.Load(context.Background(), filepath.Join(dir, "main.ps1"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.Amalgamate(&buf, g))
	return buf.String()
}

// blocks splits amalgamated output into its four top-level sections.
func blocks(t *testing.T, out string) (pre, namespaces, modules, code []string) {
	t.Helper()
	var cur *[]string
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		switch line {
		case MarkerPreCode:
			cur = &pre
		case MarkerNamespaces:
			cur = &namespaces
		case MarkerModules:
			cur = &modules
		case MarkerCode:
			cur = &code
		default:
			require.NotNil(t, cur, "line before first marker: %q", line)
			*cur = append(*cur, line)
		}
	}
	return pre, namespaces, modules, code
}

var sampleProject = map[string]string{
	"main.ps1": script(`
		#requires -Version 7
		# Main script
		using namespace System.IO
		using module ./lib/util.psm1
		using module ./app.psm1
		using module PSReadLine
		param(
		    [string]$Name
		)
		Write-Host "hello $Name"
		Invoke-App
	`),
	"app.psm1": script(`
		using namespace System.Text
		using namespace System.IO
		using module ./lib/util.psm1
		function Invoke-App { Get-Util }
	`),
	"lib/util.psm1": script(`
		# util helpers
		using namespace System.IO
		function Get-Util { 'util' }
	`),
}

// =============================================================================
// Output layout
// =============================================================================

func TestAmalgamate_FullOutput(t *testing.T) {
	t.Parallel()
	dir := writeScripts(t, sampleProject)

	got := amalgamate(t, dir)
	want := script(`
		### main file pre code section ###
		# Main script
		param(
		    [string]$Name
		)
		### namespace injection ###
		### namespaces: util (lib/util.psm1) ###
		using namespace System.IO
		### namespaces: app (app.psm1) ###
		using namespace System.Text
		# using namespace System.IO
		### namespaces: main (main.ps1) ###
		# using namespace System.IO
		### module injection ###
		### module: util (lib/util.psm1) ###
		# util helpers
		function Get-Util { 'util' }
		### module: app (app.psm1) ###
		function Invoke-App { Get-Util }
		### main file code section ###
		Write-Host "hello $Name"
		Invoke-App
	`)
	assert.Equal(t, want, got)
}

func TestAmalgamate_DirectivesStrippedFromContent(t *testing.T) {
	t.Parallel()
	dir := writeScripts(t, sampleProject)

	pre, _, modules, code := blocks(t, amalgamate(t, dir))
	for _, line := range append(append(pre, modules...), code...) {
		trimmed := strings.ToLower(strings.TrimSpace(line))
		assert.False(t, strings.HasPrefix(trimmed, "using module"), line)
		assert.False(t, strings.HasPrefix(trimmed, "using namespace"), line)
		assert.False(t, strings.HasPrefix(trimmed, "#requires"), line)
	}
}

func TestAmalgamate_DependenciesPrecedeDependents(t *testing.T) {
	t.Parallel()
	dir := writeScripts(t, map[string]string{
		"main.ps1": "using module ./a.psm1\nusing module ./b.psm1\n",
		"a.psm1":   "using module ./c.psm1\nA\n",
		"b.psm1":   "using module ./c.psm1\nB\n",
		"c.psm1":   "C\n",
	})

	_, _, modules, _ := blocks(t, amalgamate(t, dir))
	assert.Equal(t, []string{
		"### module: c (c.psm1) ###", "C",
		"### module: a (a.psm1) ###", "A",
		"### module: b (b.psm1) ###", "B",
	}, modules)
}

func TestAmalgamate_CycleEmitsEachModuleOnce(t *testing.T) {
	t.Parallel()
	dir := writeScripts(t, map[string]string{
		"main.ps1": "using module ./a.psm1\nMain\n",
		"a.psm1":   "using module ./b.psm1\nA\n",
		"b.psm1":   "using module ./a.psm1\nusing module ./main.ps1\nB\n",
	})

	_, _, modules, code := blocks(t, amalgamate(t, dir))
	assert.Equal(t, []string{
		"### module: b (b.psm1) ###", "B",
		"### module: a (a.psm1) ###", "A",
	}, modules)
	assert.Equal(t, []string{"Main"}, code)
}

// =============================================================================
// Namespaces
// =============================================================================

func TestAmalgamate_NamespaceDedup(t *testing.T) {
	t.Parallel()
	dir := writeScripts(t, map[string]string{
		"main.ps1": "using module ./m1.psm1\nusing module ./m2.psm1\n",
		"m1.psm1":  "using namespace N\n",
		"m2.psm1":  "using namespace N\n",
	})

	_, namespaces, _, _ := blocks(t, amalgamate(t, dir))
	assert.Equal(t, []string{
		"### namespaces: m1 (m1.psm1) ###",
		"using namespace N",
		"### namespaces: m2 (m2.psm1) ###",
		"# using namespace N",
	}, namespaces)
}

func TestAmalgamate_RootNamespacesInjected(t *testing.T) {
	t.Parallel()
	dir := writeScripts(t, map[string]string{
		"main.ps1": "using namespace System.Collections.Generic\nMain\n",
	})

	pre, namespaces, _, code := blocks(t, amalgamate(t, dir))
	assert.Empty(t, pre)
	assert.Equal(t, []string{
		"### namespaces: main (main.ps1) ###",
		"using namespace System.Collections.Generic",
	}, namespaces)
	assert.Equal(t, []string{"Main"}, code)
}

// =============================================================================
// Options and failures
// =============================================================================

func TestAmalgamate_WarnsAboutOpaqueModules(t *testing.T) {
	t.Parallel()
	dir := writeScripts(t, sampleProject)

	var logs bytes.Buffer
	logger := log.New(&logs)
	out := amalgamate(t, dir, WithLogger(logger))

	assert.NotContains(t, out, "PSReadLine")
	assert.Contains(t, logs.String(), "opaque module not bundled")
	assert.Contains(t, logs.String(), "PSReadLine")
}

func TestAmalgamate_LabelOutsideWorkingDir(t *testing.T) {
	t.Parallel()
	dir := writeScripts(t, map[string]string{
		"src/main.ps1":  "using module ../shared/x.psm1\n",
		"shared/x.psm1": "X\n",
	})
	e := newTestEngine(t, filepath.Join(dir, "src"))
	g, err := e.Load(context.Background(), filepath.Join(dir, "src", "main.ps1"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.Amalgamate(&buf, g))
	want := "### module: x (" + filepath.ToSlash(filepath.Join(dir, "shared", "x.psm1")) + ") ###"
	assert.Contains(t, buf.String(), want)
}

func TestAmalgamate_WriteError(t *testing.T) {
	t.Parallel()
	dir := writeScripts(t, sampleProject)
	e := newTestEngine(t, dir)
	g, err := e.Load(context.Background(), filepath.Join(dir, "main.ps1"))
	require.NoError(t, err)

	boom := errors.New("disk full")
	err = e.Amalgamate(failingWriter{boom}, g)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write output", ioErr.Op)
}

func TestAmalgamate_NilRoot(t *testing.T) {
	t.Parallel()
	err := Amalgamate(&bytes.Buffer{}, nil, nil, AmalgamateOptions{})
	assert.Error(t, err)
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }
