package keymap

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed keymap.schema.json
var schemaSource string

const schemaURL = "keymap.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Schema returns the compiled structural schema for stored configs.
func Schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// SchemaSource returns the embedded JSON schema document.
func SchemaSource() string {
	return schemaSource
}

// classifySchemaError maps a schema violation to an error kind based on
// where in the document it occurred.
func classifySchemaError(err error) *Error {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return Wrap(KindInvalidConfig, err, "config failed validation")
	}

	leaf := leafCause(verr)
	segs := pointerSegments(leaf.InstanceLocation)
	kind := classifyLocation(segs, lastKeyword(leaf.KeywordLocation))

	where := "/" + strings.Join(segs, "/")
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf("%s: %s", where, leaf.Message),
		Err:     err,
	}
}

func classifyLocation(segs []string, keyword string) Kind {
	if len(segs) == 0 {
		return KindInvalidConfig
	}
	switch segs[0] {
	case "websites":
		if len(segs) == 1 {
			return KindInvalidConfig
		}
		return KindInvalidSite
	case "mappings":
		switch len(segs) {
		case 1:
			return KindInvalidConfig
		case 2:
			// The mapping value itself: wrong shape or an empty sequence.
			if keyword == "type" || keyword == "minItems" {
				return KindInvalidMapping
			}
			return KindInvalidKeyInfo
		case 3:
			if _, err := strconv.Atoi(segs[2]); err == nil && keyword == "type" {
				return KindInvalidMapping
			}
			return KindInvalidKeyInfo
		default:
			return KindInvalidKeyInfo
		}
	}
	return KindInvalidConfig
}

// leafCause follows the first cause down to the most specific violation.
func leafCause(e *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(e.Causes) > 0 {
		e = e.Causes[0]
	}
	return e
}

// pointerSegments splits a JSON pointer into unescaped segments.
func pointerSegments(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return nil
	}
	segs := strings.Split(ptr, "/")
	for i, s := range segs {
		s = strings.ReplaceAll(s, "~1", "/")
		segs[i] = strings.ReplaceAll(s, "~0", "~")
	}
	return segs
}

func lastKeyword(loc string) string {
	if i := strings.LastIndexByte(loc, '/'); i >= 0 {
		return loc[i+1:]
	}
	return loc
}
