// Package section splits a script into its header and code sections while
// filtering header directives, in a single pass with one line of lookahead.
package section

import (
	"io"

	"github.com/jward/amalgam/internal/module"
)

type state int

const (
	scanningHeader state = iota
	inParameterBlock
	inCode
)

// Reader filters the lines of one file. Header lines are filtered: import
// directives and the #requires pragma are dropped, comments and everything
// else are kept. Parameter block and code lines are passed through verbatim.
//
// Reader is not safe for concurrent use.
type Reader struct {
	src   *lookahead
	state state

	// paramLines counts lines seen inside the current parameter block, so
	// the opening line can close a block like "param($x)".
	paramLines int

	pending     string
	pendingOK   bool
	pendingCode bool // pending belongs to the code section
	err         error
}

// NewReader returns a Reader over r. Lines are produced without their
// terminators.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: newLookahead(r)}
}

// InCode reports whether the code section has been reached: every line Next
// returns from now on is code. It becomes true right after the last header
// line (or the closing line of a parameter block) has been produced, and is
// true before the first Next when the file starts with code.
func (r *Reader) InCode() bool {
	r.fill()
	if r.pendingOK {
		return r.pendingCode
	}
	return r.state == inCode
}

// Next returns the next produced line. ok is false at the end of input or
// on a read error, which is returned as err.
func (r *Reader) Next() (line string, ok bool, err error) {
	r.fill()
	if !r.pendingOK {
		return "", false, r.err
	}
	r.pendingOK = false
	return r.pending, true, nil
}

// fill advances the state machine until one line is ready to be produced.
func (r *Reader) fill() {
	for !r.pendingOK && r.err == nil {
		line, ok, err := r.src.next()
		if err != nil {
			r.err = err
			return
		}
		if !ok {
			return
		}
		emit, code, err := r.step(line)
		if emit {
			r.pending, r.pendingOK, r.pendingCode = line, true, code
		}
		if err != nil {
			r.err = err
			return
		}
	}
}

// step runs one physical line through the state machine and reports whether
// it is produced and whether it belongs to the code section.
func (r *Reader) step(line string) (emit, code bool, err error) {
	switch r.state {
	case inCode:
		return true, true, nil
	case inParameterBlock:
		r.paramLine(line)
		return true, false, nil
	}

	kind := module.Classify(line)
	switch kind {
	case module.Code:
		// Only reachable for the first line: later code lines are caught by
		// the lookahead below before they are read.
		r.state = inCode
		return true, true, nil
	case module.ParamStart:
		r.state = inParameterBlock
		r.paramLines = 0
		r.paramLine(line)
		return true, false, nil
	}

	// A peek error is reported after the current line has been produced.
	next, ok, err := r.src.peek()
	if ok {
		switch module.Classify(next) {
		case module.ParamStart:
			r.state = inParameterBlock
			r.paramLines = 0
		case module.Code:
			r.state = inCode
		}
	}

	switch kind {
	case module.ModuleImport, module.NamespaceImport, module.Requires:
		return false, false, err
	}
	return true, false, err
}

func (r *Reader) paramLine(line string) {
	first := r.paramLines == 0
	r.paramLines++
	if module.ClosesParam(line) || (first && module.IsParamStart(line) && module.ParamBalanced(line)) {
		r.state = inCode
	}
}
