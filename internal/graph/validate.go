package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationErrors contains multiple validation errors
type ValidationErrors struct {
	Errors []error
}

// Error implements the error interface
func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Unwrap returns the collected errors (for errors.Is/As compatibility)
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}

// HasErrors returns true if there are any errors
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationErrors) add(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Errorf(format, args...))
}

// Validate checks the structural rules the editor is expected to honour:
// required fields, port kinds, unique node ids and unique port ids per node.
// Dangling connections are not an error; the compiler treats them as absent.
func (slf *Document) Validate() error {
	errs := &ValidationErrors{}

	if err := validate.Struct(slf); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs.add("%s: failed on %q", fe.Namespace(), fe.Tag())
			}
		} else {
			errs.Errors = append(errs.Errors, err)
		}
	}

	seen := make(map[string]bool, len(slf.Nodes))
	for _, n := range slf.Nodes {
		if n.ID == "" {
			continue
		}
		if seen[n.ID] {
			errs.add("node %s: duplicate id", n.ID)
		}
		seen[n.ID] = true

		ports := make(map[string]bool, len(n.Inputs)+len(n.Outputs))
		for _, p := range n.Inputs {
			if ports["in:"+p.ID] {
				errs.add("node %s: duplicate input port %s", n.ID, p.ID)
			}
			ports["in:"+p.ID] = true
		}
		for _, p := range n.Outputs {
			if ports["out:"+p.ID] {
				errs.add("node %s: duplicate output port %s", n.ID, p.ID)
			}
			ports["out:"+p.ID] = true
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
