package amalgam

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/jward/amalgam/internal/module"
	"github.com/jward/amalgam/internal/section"
)

// Block markers, in output order.
const (
	MarkerPreCode    = "### main file pre code section ###"
	MarkerNamespaces = "### namespace injection ###"
	MarkerModules    = "### module injection ###"
	MarkerCode       = "### main file code section ###"
)

// Newline sequences accepted by WithNewline and AmalgamateOptions.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// AmalgamateOptions controls how Amalgamate renders its output.
type AmalgamateOptions struct {
	// WorkingDir anchors the relative paths shown in module labels.
	WorkingDir string

	// Newline joins output lines. Empty means LF.
	Newline string

	// Logger receives a warning for every opaque module that is not bundled.
	// Nil discards.
	Logger *log.Logger
}

// Amalgamate writes the merged artifact for root and its flattened
// hierarchy to w. The output has four blocks, in order: the root's header,
// the namespace injection block, one block per hierarchy module, and the
// root's code section.
//
// Every namespace is activated once, on its first occurrence in hierarchy
// order with the root last; later occurrences are written commented out.
// Opaque modules are never bundled.
func Amalgamate(w io.Writer, root *Module, hierarchy []*Module, opts AmalgamateOptions) error {
	if root == nil {
		return fmt.Errorf("amalgamate: no root module")
	}
	a := &amalgamator{
		bw:      bufio.NewWriter(w),
		newline: opts.Newline,
		workDir: opts.WorkingDir,
		logger:  opts.Logger,
	}
	if a.newline == "" {
		a.newline = LF
	}
	if a.logger == nil {
		a.logger = log.New(io.Discard)
	}

	f, err := os.Open(root.Path)
	if err != nil {
		return &module.IOError{Op: "open", Path: root.Path, Err: err}
	}
	defer f.Close()
	rootReader := section.NewReader(f)

	// Block 1: everything the root produces before its code section.
	a.line(MarkerPreCode)
	for !rootReader.InCode() {
		line, ok, err := rootReader.Next()
		if err != nil {
			return &module.IOError{Op: "read", Path: root.Path, Err: err}
		}
		if !ok {
			break
		}
		a.line(line)
	}

	// Block 2: namespaces of the hierarchy, then the root's own.
	all := withRoot(hierarchy, root)
	a.line(MarkerNamespaces)
	var labeled *Module
	for _, use := range namespaceUses(all) {
		if use.Module != labeled {
			a.line(fmt.Sprintf("### namespaces: %s ###", a.label(use.Module)))
			labeled = use.Module
		}
		if use.Active {
			a.line("using namespace " + use.Name)
		} else {
			a.line("# using namespace " + use.Name)
		}
	}

	// Block 3: each dependency's filtered content, dependencies first.
	a.line(MarkerModules)
	for _, m := range hierarchy {
		a.line(fmt.Sprintf("### module: %s ###", a.label(m)))
		if err := a.copyModule(m); err != nil {
			return err
		}
	}

	// Block 4: the rest of the root.
	a.line(MarkerCode)
	for {
		line, ok, err := rootReader.Next()
		if err != nil {
			return &module.IOError{Op: "read", Path: root.Path, Err: err}
		}
		if !ok {
			break
		}
		a.line(line)
	}

	for _, m := range all {
		for _, name := range m.NativeModules() {
			a.logger.Warn("opaque module not bundled", "module", name, "required_by", a.label(m))
		}
	}

	if a.err == nil {
		a.err = a.bw.Flush()
	}
	if a.err != nil {
		return &module.IOError{Op: "write output", Err: a.err}
	}
	return nil
}

type amalgamator struct {
	bw      *bufio.Writer
	newline string
	workDir string
	logger  *log.Logger
	err     error // first write error; later writes are skipped
}

func (a *amalgamator) line(s string) {
	if a.err != nil {
		return
	}
	if _, a.err = a.bw.WriteString(s); a.err != nil {
		return
	}
	_, a.err = a.bw.WriteString(a.newline)
}

// copyModule writes every line the section reader produces for m.
func (a *amalgamator) copyModule(m *Module) error {
	f, err := os.Open(m.Path)
	if err != nil {
		return &module.IOError{Op: "open", Path: m.Path, Err: err}
	}
	defer f.Close()

	r := section.NewReader(f)
	for {
		line, ok, err := r.Next()
		if err != nil {
			return &module.IOError{Op: "read", Path: m.Path, Err: err}
		}
		if !ok {
			return nil
		}
		a.line(line)
	}
}

func (a *amalgamator) label(m *Module) string {
	return Label(m, a.workDir)
}

// Label renders a module as "Name (path)" where path is relative to workDir
// in slash form, or the absolute slash path when m lies outside workDir.
func Label(m *Module, workDir string) string {
	return fmt.Sprintf("%s (%s)", m.Name(), displayPath(m.Path, workDir))
}

func displayPath(p, workDir string) string {
	if workDir != "" {
		if rel, err := filepath.Rel(workDir, p); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(p)
}

func withRoot(hierarchy []*Module, root *Module) []*Module {
	out := make([]*Module, 0, len(hierarchy)+1)
	out = append(out, hierarchy...)
	return append(out, root)
}

// NamespaceUse is one namespace requirement in injection order.
type NamespaceUse struct {
	Module *Module
	Name   string

	// Active is false for a repeat of a namespace already injected earlier;
	// it is written as a comment.
	Active bool
}

// namespaceUses lists the namespaces of mods in order, flagging repeats.
// Namespace names compare exactly.
func namespaceUses(mods []*Module) []NamespaceUse {
	var out []NamespaceUse
	seen := make(map[string]bool)
	for _, m := range mods {
		for _, ns := range m.Namespaces {
			out = append(out, NamespaceUse{Module: m, Name: ns, Active: !seen[ns]})
			seen[ns] = true
		}
	}
	return out
}
