package module

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports a file reference whose resolved path does not exist.
type NotFoundError struct {
	ResolvedPath string
	RawText      string
	Line         int

	// Module is the module declaring the reference. Describe leaves it nil;
	// the graph loader fills it in.
	Module *Module
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	if e.Module != nil {
		fmt.Fprintf(&b, "in module %s (%s:%d)\n", e.Module.Name(), e.Module.Path, e.Line)
	}
	fmt.Fprintf(&b, "module not found: %s resolved to %s", e.RawText, e.ResolvedPath)
	return b.String()
}

// IOError reports a failed file operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// AggregateError carries every failure collected during one phase.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  * ")
		b.WriteString(strings.ReplaceAll(err.Error(), "\n", "\n    "))
	}
	return b.String()
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// Join returns an *AggregateError holding errs, with nil entries dropped and
// nested aggregates flattened. It returns nil when nothing is left.
func Join(errs ...error) error {
	var flat []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if agg, ok := err.(*AggregateError); ok {
			flat = append(flat, agg.Errors...)
			continue
		}
		flat = append(flat, err)
	}
	if len(flat) == 0 {
		return nil
	}
	return &AggregateError{Errors: flat}
}

// Errors returns the individual failures held by err: the items of an
// *AggregateError anywhere in its chain, or err itself.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	var agg *AggregateError
	if errors.As(err, &agg) {
		return agg.Errors
	}
	return []error{err}
}
