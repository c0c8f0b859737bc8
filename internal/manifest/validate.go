package manifest

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// ValidationError reports a manifest that failed schema validation.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest %s: %s", e.Path, e.Message)
}

// Validate checks manifest YAML against the embedded CUE schema.
// path is used for error positions only.
func Validate(path string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Manifest"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing to compile it is a programming
		// error, not a user error.
		return fmt.Errorf("compile manifest schema: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return &ValidationError{Path: path, Message: fmt.Sprintf("parse YAML: %v", err)}
	}

	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &ValidationError{Path: path, Message: cueerrors.Details(err, nil)}
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return &ValidationError{Path: path, Message: cueerrors.Details(err, nil)}
	}

	return nil
}
