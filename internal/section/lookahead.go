package section

import (
	"bufio"
	"io"

	"github.com/jward/amalgam/internal/module"
)

// lookahead yields physical lines with at most one line buffered for
// peeking, so lines still come out in their original order.
type lookahead struct {
	sc     *bufio.Scanner
	peeked string
	has    bool // peeked holds a buffered line
	eof    bool
}

func newLookahead(r io.Reader) *lookahead {
	return &lookahead{sc: module.NewLineScanner(r)}
}

// next returns the next line, draining the peek buffer first.
func (l *lookahead) next() (string, bool, error) {
	if l.has {
		l.has = false
		return l.peeked, true, nil
	}
	return l.read()
}

// peek returns the line next will return, without consuming it.
func (l *lookahead) peek() (string, bool, error) {
	if l.has {
		return l.peeked, true, nil
	}
	line, ok, err := l.read()
	if !ok {
		return "", false, err
	}
	l.peeked, l.has = line, true
	return line, true, nil
}

func (l *lookahead) read() (string, bool, error) {
	if l.eof {
		return "", false, nil
	}
	if l.sc.Scan() {
		return l.sc.Text(), true, nil
	}
	l.eof = true
	return "", false, l.sc.Err()
}
