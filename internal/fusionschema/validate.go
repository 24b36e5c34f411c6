package fusionschema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// FieldError names a single validation failure by its JSON-pointer path
// into the submitted arguments, matching spec.md §7's requirement that
// VALIDATION_ERROR "enumerate offending field paths."
type FieldError struct {
	Path    string
	Message string
}

// Validator wraps a compiled branch schema. It is safe for concurrent use —
// santhosh-tekuri/jsonschema's compiled *Schema is immutable after Compile.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile compiles a branch's JSON Schema document under the given
// resource URL. The URL only needs to be unique within the compiler
// instance; it never leaves the process.
func Compile(url string, doc JSONSchema) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource %s: %w", url, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", url, err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks instance (typically the result of unmarshaling the raw
// call arguments into `any`) against the compiled schema. A nil slice means
// the instance is valid.
func (v *Validator) Validate(instance any) []FieldError {
	err := v.schema.Validate(instance)
	if err == nil {
		return nil
	}
	var out []FieldError
	collectFieldErrors(err, &out)
	if len(out) == 0 {
		out = append(out, FieldError{Path: "", Message: err.Error()})
	}
	return out
}

func collectFieldErrors(err error, out *[]FieldError) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		*out = append(*out, FieldError{Path: "", Message: err.Error()})
		return
	}
	if len(ve.Causes) == 0 {
		*out = append(*out, FieldError{
			Path:    "/" + strings.Join(toStrings(ve.InstanceLocation), "/"),
			Message: ve.Error(),
		})
		return
	}
	for _, cause := range ve.Causes {
		collectFieldErrors(cause, out)
	}
}

func toStrings(loc []string) []string {
	if loc == nil {
		return nil
	}
	return loc
}

// cache memoizes compiled validators by resource URL so that identical
// branch schemas compiled repeatedly across re-registrations in tests don't
// pay the compilation cost twice. Keyed by URL, not content — callers must
// pick stable, unique URLs per distinct schema (see Compiler in the fusion
// package, which keys by tool+action).
type cache struct {
	mu    sync.Mutex
	byURL map[string]*Validator
}

var globalCache = &cache{byURL: make(map[string]*Validator)}

// CompileCached is Compile with process-wide memoization by URL.
func CompileCached(url string, doc JSONSchema) (*Validator, error) {
	globalCache.mu.Lock()
	if v, ok := globalCache.byURL[url]; ok {
		globalCache.mu.Unlock()
		return v, nil
	}
	globalCache.mu.Unlock()

	v, err := Compile(url, doc)
	if err != nil {
		return nil, err
	}

	globalCache.mu.Lock()
	globalCache.byURL[url] = v
	globalCache.mu.Unlock()
	return v, nil
}
