package core

import (
	"errors"
	"fmt"
)

// Error categories used when reporting recovered failures.
const (
	CategoryStructure  = "structure"
	CategoryRewrite    = "rewrite"
	CategoryPreserve   = "preserve"
	CategoryConversion = "markdown-conversion"
)

// ErrConversion wraps every whole-pipeline failure.
var ErrConversion = errors.New("markdown conversion failed")

// PanicError carries a recovered panic value through the error path.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recovered converts a recover() value into an error, or nil.
func Recovered(v any) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return &PanicError{Value: v}
}

// Guard runs fn and turns a panic into an error, so that one bad
// substructure cannot abort the whole conversion.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := Recovered(recover()); r != nil {
			err = r
		}
	}()
	return fn()
}

// NopReporter discards every report.
type NopReporter struct{}

// Report implements ErrorReporter.
func (NopReporter) Report(string, string, error) {}
