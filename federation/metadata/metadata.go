// Package metadata models the per-type metadata an entity asserts about
// itself and the merge of that metadata with the view asserted by the
// entity's immediate superior.
package metadata

import (
	"fmt"

	"github.com/pilacorp/go-federation-sdk/federation/common/jsonmap"
)

// Metadata maps a metadata type (for example "openid_provider" or
// "openid_relying_party") to the attribute object claimed for that type.
type Metadata map[string]jsonmap.JSONMap

// Clone returns a deep copy of the metadata.
func (m Metadata) Clone() (Metadata, error) {
	if m == nil {
		return nil, nil
	}

	out := make(Metadata, len(m))
	for typ, doc := range m {
		docCopy, err := doc.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone metadata type %q: %w", typ, err)
		}
		out[typ] = docCopy
	}
	return out, nil
}

// Types returns the metadata type keys present in the metadata.
func (m Metadata) Types() []string {
	types := make([]string, 0, len(m))
	for typ := range m {
		types = append(types, typ)
	}
	return types
}

// Merge combines the subject's self-asserted metadata with the metadata
// the subject's immediate superior asserts about it. The merge is total:
// metadata types present on either side appear in the result, and within
// a type the attribute maps are merged shallowly. On an attribute
// conflict the superior's value wins, since a superior's statement about
// a subordinate carries more authority than the subordinate's own claim.
// Neither input is mutated.
func Merge(subject, superior Metadata) (Metadata, error) {
	merged, err := subject.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to copy subject metadata: %w", err)
	}
	if merged == nil {
		merged = make(Metadata)
	}

	for typ, superiorDoc := range superior {
		docCopy, err := superiorDoc.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to copy superior metadata type %q: %w", typ, err)
		}

		existing, ok := merged[typ]
		if !ok || existing == nil {
			merged[typ] = docCopy
			continue
		}
		for attr, val := range docCopy {
			existing[attr] = val
		}
	}

	return merged, nil
}
