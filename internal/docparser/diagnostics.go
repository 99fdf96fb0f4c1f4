package docparser

import (
	"errors"
	"fmt"
)

// Diagnostic is one recoverable finding: a malformed tag payload or a
// documentation/code inconsistency. Diagnostics never abort processing.
type Diagnostic struct {
	Unit    string `json:"unit" yaml:"unit"`
	Line    int    `json:"line" yaml:"line"`
	Message string `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s", d.Unit, d.Line, d.Message)
}

// Unit-fatal conditions. These abort the walk of one source unit and surface
// to the caller; other units in a batch are unaffected.
var (
	ErrDuplicateModule = errors.New("only one @module or @classmod is allowed per unit")
	ErrClassModShape   = errors.New("a @classmod unit must declare exactly one class")
)
