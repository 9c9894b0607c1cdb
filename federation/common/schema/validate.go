package schema

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pilacorp/go-federation-sdk/federation/metadata"
)

// Registry maps metadata types to the JSON Schemas their documents must
// satisfy. Metadata types without a registered schema pass validation.
type Registry struct {
	schemas map[string]*gojsonschema.Schema
	mu      sync.RWMutex
}

// NewRegistry initializes an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register compiles and stores the schema for a metadata type.
func (r *Registry) Register(metadataType string, schemaJSON []byte) error {
	if metadataType == "" {
		return fmt.Errorf("metadata type is empty")
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("failed to compile schema for %q: %w", metadataType, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[metadataType] = compiled
	return nil
}

// Validate checks every metadata document with a registered schema.
func (r *Registry) Validate(md metadata.Metadata) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for typ, doc := range md {
		compiled, ok := r.schemas[typ]
		if !ok {
			continue
		}

		result, err := compiled.Validate(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return fmt.Errorf("failed to validate metadata type %q: %w", typ, err)
		}
		if !result.Valid() {
			return fmt.Errorf("metadata type %q validation failed: %v", typ, result.Errors())
		}
	}
	return nil
}
