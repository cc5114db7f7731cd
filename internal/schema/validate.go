// Package schema validates cgt JSON documents against the embedded schemas.
package schema

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "github.com/agbgames/cgt/schema"
)

const (
	settingsSchemaName = "settings.schema.json"
	infoSchemaName     = "info.schema.json"
)

var (
	settingsSchema *jsonschema.Schema
	infoSchema     *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for _, name := range []string{settingsSchemaName, infoSchemaName} {
			data, err := schemafs.FS.ReadFile(name)
			if err != nil {
				compileErr = fmt.Errorf("read %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("add %s resource: %w", name, err)
				return
			}
		}

		var err error
		if settingsSchema, err = compiler.Compile(settingsSchemaName); err != nil {
			compileErr = fmt.Errorf("compile settings schema: %w", err)
			return
		}
		if infoSchema, err = compiler.Compile(infoSchemaName); err != nil {
			compileErr = fmt.Errorf("compile info schema: %w", err)
		}
	})

	return compileErr
}

// ValidateSettings validates JSON data against the settings schema.
func ValidateSettings(data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	return validate(settingsSchema, data, "settings")
}

// ValidateInfo validates a JSON project report against the info schema.
func ValidateInfo(data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	return validate(infoSchema, data, "info")
}

func validate(s *jsonschema.Schema, data []byte, what string) error {
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%s validation failed: %w", what, err)
	}
	return nil
}
