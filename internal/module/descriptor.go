package module

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// maxLineSize bounds a single physical line read by the header scanner.
const maxLineSize = 4 << 20

// utf8BOM is stripped from the first line of a file.
const utf8BOM = "\ufeff"

// NewLineScanner returns a bufio.Scanner over r that splits lines, tolerates
// long lines and drops a leading byte order mark.
func NewLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	first := true
	sc.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		advance, token, err := bufio.ScanLines(data, atEOF)
		if first && token != nil {
			first = false
			token = []byte(strings.TrimPrefix(string(token), utf8BOM))
		}
		return advance, token, err
	})
	return sc
}

// Describe parses the directive header of the file at path. Relative file
// references are resolved against the file's directory and then workDir.
//
// The returned Module is populated even when references fail to resolve: in
// that case the error is an *AggregateError holding one *NotFoundError per
// bad reference, and those references are marked Missing. A failure to read
// the file itself returns a nil Module and an *IOError.
func Describe(path, workDir string) (*Module, error) {
	canonical, err := Canonical(path)
	if err != nil {
		return nil, &IOError{Op: "describe", Path: path, Err: err}
	}
	f, err := os.Open(canonical)
	if err != nil {
		return nil, &IOError{Op: "open", Path: canonical, Err: err}
	}
	defer f.Close()

	m := New(canonical)
	errs, err := describeHeader(m, f, workDir)
	if err != nil {
		return nil, &IOError{Op: "read", Path: canonical, Err: err}
	}
	return m, Join(errs...)
}

// describeHeader scans the header of r into m. It returns the per-reference
// failures separately from a read error.
func describeHeader(m *Module, r io.Reader, workDir string) ([]error, error) {
	var errs []error
	sc := NewLineScanner(r)
	lineNo := 0
	inParam := false

scan:
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		if inParam {
			if ClosesParam(line) {
				break scan
			}
			continue
		}

		switch Classify(line) {
		case Blank, Comment, Requires:
			continue
		case NamespaceImport:
			if name, _ := NamespaceName(line); name != "" {
				m.Namespaces = append(m.Namespaces, name)
			}
		case ModuleImport:
			raw, _ := ModuleRef(line)
			if raw == "" {
				continue
			}
			ref, err := describeReference(m, raw, lineNo, workDir)
			if err != nil {
				errs = append(errs, err)
			}
			m.References = append(m.References, ref)
		case ParamStart:
			if ParamBalanced(line) {
				break scan
			}
			inParam = true
		default:
			break scan
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return errs, nil
}

func describeReference(m *Module, raw string, line int, workDir string) (Reference, error) {
	if !IsFileReference(raw) {
		return Reference{Raw: raw, Line: line, Kind: RefOpaque, Target: raw}, nil
	}
	ref := Reference{
		Raw:    raw,
		Line:   line,
		Kind:   RefFile,
		Target: ResolveReference(raw, m.Dir(), workDir),
	}
	if err := checkFile(ref.Target); err != nil {
		ref.Missing = true
		return ref, &NotFoundError{ResolvedPath: ref.Target, RawText: raw, Line: line}
	}
	return ref, nil
}

// checkFile returns fs.ErrNotExist unless p is an existing regular file (or a
// symlink to one).
func checkFile(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %w", p, fs.ErrNotExist)
	}
	return nil
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
