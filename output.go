package amalgam

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jward/amalgam/internal/module"
)

// writeAtomic streams render's output into a temporary file in path's
// directory, syncs it and renames it over path. On any failure the
// temporary file is removed and path is untouched. It returns the hex
// SHA-256 and size of what was written.
func writeAtomic(path string, render func(io.Writer) error) (string, int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", 0, &module.IOError{Op: "write output", Path: path, Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	h := sha256.New()
	cw := &countingWriter{w: io.MultiWriter(tmp, h)}
	if err := render(cw); err != nil {
		return "", 0, err
	}

	if err := tmp.Chmod(0o644); err != nil {
		return "", 0, &module.IOError{Op: "write output", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return "", 0, &module.IOError{Op: "write output", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", 0, &module.IOError{Op: "write output", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", 0, &module.IOError{Op: "write output", Path: path, Err: err}
	}
	committed = true
	return fmt.Sprintf("%x", h.Sum(nil)), cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
