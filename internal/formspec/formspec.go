// Package formspec validates form snapshots against CUE report templates.
//
// The surrounding product defines each report type as a CUE template: field
// names, types, and per-field constraints (ranges, enums, required marks).
// The autosave engine itself never interprets snapshot contents, but hosts
// validate a snapshot against its template before saving - a template
// violation is the canonical source of a rejected (non-retryable) save.
package formspec

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/fieldform/draftsync/internal/snapshot"
)

// DefinitionPath is the CUE definition a template must declare.
const DefinitionPath = "#Report"

// Template is a compiled report template ready to validate snapshots.
type Template struct {
	cctx   *cue.Context
	schema cue.Value
}

// ValidationError is one constraint violation found in a snapshot.
type ValidationError struct {
	// Field is the dotted path to the offending field ("" for whole-form
	// errors).
	Field string `json:"field"`

	// Message is the constraint violation description.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Compile parses CUE template source and extracts the #Report definition.
func Compile(src string) (*Template, error) {
	cctx := cuecontext.New()

	v := cctx.CompileString(src)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile template: %w", err)
	}

	schema := v.LookupPath(cue.ParsePath(DefinitionPath))
	if !schema.Exists() {
		return nil, fmt.Errorf("template does not define %s", DefinitionPath)
	}
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("template %s: %w", DefinitionPath, err)
	}

	return &Template{cctx: cctx, schema: schema}, nil
}

// Load reads and compiles a template file.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return Compile(string(data))
}

// Validate checks a snapshot against the template.
// Returns all violations found (does not fail-fast); nil means the snapshot
// conforms.
func (t *Template) Validate(snap snapshot.Value) []ValidationError {
	canonical, err := snapshot.MarshalCanonical(snap)
	if err != nil {
		return []ValidationError{{Message: fmt.Sprintf("snapshot not serializable: %v", err)}}
	}

	// Canonical snapshot JSON is valid CUE; unify it with the schema and
	// demand a concrete, consistent result.
	data := t.cctx.CompileBytes(canonical)
	if err := data.Err(); err != nil {
		return []ValidationError{{Message: fmt.Sprintf("snapshot not parseable: %v", err)}}
	}

	unified := t.schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return collectErrors(err)
	}

	return nil
}

// collectErrors flattens a CUE error into per-field violations.
func collectErrors(err error) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		out = append(out, ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	if out == nil {
		out = []ValidationError{{Message: err.Error()}}
	}
	return out
}
