// Package schema provides structural validation of metadata documents
// against JSON Schemas and a canonical fingerprint of resolved metadata
// for caching and change detection.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/piprate/json-gold/ld"

	"github.com/pilacorp/go-federation-sdk/federation/metadata"
)

// metadataVocabulary anchors metadata attribute names during
// canonicalization so plain JSON terms survive RDF normalization.
const metadataVocabulary = "https://openid.net/specs/openid-federation/md#"

// Fingerprint computes a stable hex digest of resolved metadata. Two
// metadata objects that differ only in map ordering or numeric encoding
// produce the same fingerprint.
func Fingerprint(md metadata.Metadata) (string, error) {
	doc := make(map[string]interface{}, len(md)+1)
	doc["@context"] = map[string]interface{}{"@vocab": metadataVocabulary}
	for typ, attrs := range md {
		doc[typ] = convertToJSONLDCompatible(map[string]interface{}(attrs))
	}

	canonical, err := canonicalizeDocument(doc)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize metadata: %w", err)
	}

	digest := sha256.Sum256(canonical)
	return hex.EncodeToString(digest[:]), nil
}

// canonicalizeDocument normalizes a document to N-Quads via URDNA2015.
func canonicalizeDocument(doc map[string]interface{}) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	processor := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.Format = "application/n-quads"
	options.Algorithm = ld.AlgorithmURDNA2015

	canonicalized, err := processor.Normalize(doc, options)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}

	return []byte(canonicalized.(string)), nil
}

// convertToJSONLDCompatible converts a value to a JSON-LD-compatible
// form, forcing scalars to typed literals.
func convertToJSONLDCompatible(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, val := range v {
			result[key] = convertToJSONLDCompatible(val)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = convertToJSONLDCompatible(val)
		}
		return result
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return map[string]interface{}{
			"@value": fmt.Sprintf("%v", v),
			"@type":  "http://www.w3.org/2001/XMLSchema#string",
		}
	case bool:
		return map[string]interface{}{
			"@value": fmt.Sprintf("%v", v),
			"@type":  "http://www.w3.org/2001/XMLSchema#boolean",
		}
	case nil:
		return nil
	default:
		return map[string]interface{}{
			"@value": fmt.Sprintf("%v", v),
			"@type":  "http://www.w3.org/2001/XMLSchema#string",
		}
	}
}
