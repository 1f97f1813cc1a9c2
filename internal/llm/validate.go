package llm

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// maxCachedSchemas caps the compiled-schema cache. Once full, further
// schemas are compiled on every call.
const maxCachedSchemas = 64

// schemaCache holds compiled schemas keyed by name and definition hash.
// Dynamic schemas are never stored.
var schemaCache = struct {
	sync.RWMutex
	entries map[string]*jsonschema.Schema
}{entries: make(map[string]*jsonschema.Schema)}

// validateResponse checks raw against schema and returns
// *ErrInvalidResponse on failure. A nil schema always passes.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("invalid JSON: %w", err),
		}
	}

	compiled, err := getCompiledSchema(schema)
	if err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("compile schema %q: %w", schema.Name, err),
		}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("schema validation failed: %w", err),
		}
	}

	return nil
}

func getCompiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}

	sum := sha256.Sum256(defBytes)
	key := schema.Name + "@" + hex.EncodeToString(sum[:8])

	if !schema.Dynamic {
		schemaCache.RLock()
		cached, ok := schemaCache.entries[key]
		schemaCache.RUnlock()
		if ok {
			return cached, nil
		}
	}

	compiled, err := compileSchema(key, defBytes)
	if err != nil {
		return nil, err
	}

	if !schema.Dynamic {
		schemaCache.Lock()
		if len(schemaCache.entries) < maxCachedSchemas {
			schemaCache.entries[key] = compiled
		}
		schemaCache.Unlock()
	}
	return compiled, nil
}

func compileSchema(key string, defBytes []byte) (*jsonschema.Schema, error) {
	// The compiler wants a decoded JSON value, not the Go map.
	defParsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(defBytes))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", key)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return compiled, nil
}

func cachedSchemaCount() int {
	schemaCache.RLock()
	defer schemaCache.RUnlock()
	return len(schemaCache.entries)
}
