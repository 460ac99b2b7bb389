package lang

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed languages.schema.json
var languagesSchemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

type languagesFile struct {
	Languages []Language `json:"languages"`
}

// LoadRegistryFile reads a language table from a JSON file, validates it
// against the embedded schema, and builds a registry from it. Deployments
// use this to extend or restrict the built-in table.
func LoadRegistryFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read languages file: %w", err)
	}

	value, err := decodeStrictJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode languages file: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load languages schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("languages file failed validation: %w", err)
	}

	var parsed languagesFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse languages file: %w", err)
	}

	registry, err := NewRegistryFromLanguages(parsed.Languages)
	if err != nil {
		return nil, fmt.Errorf("build registry from languages file: %w", err)
	}
	return registry, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("languages.schema.json", strings.NewReader(languagesSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("register schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("languages.schema.json")
	})
	return compiledSchema, schemaErr
}

func decodeStrictJSON(raw []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := ensureEOF(decoder); err != nil {
		return nil, err
	}
	return value, nil
}

func ensureEOF(decoder *json.Decoder) error {
	if _, err := decoder.Token(); err != io.EOF {
		return fmt.Errorf("unexpected trailing JSON content")
	}
	return nil
}
