package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-federation-sdk/federation/common/jsonmap"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		subject  Metadata
		superior Metadata
		expected Metadata
	}{
		{
			name:     "both nil",
			subject:  nil,
			superior: nil,
			expected: Metadata{},
		},
		{
			name:     "subject only",
			subject:  Metadata{"openid_provider": {"organization_name": "A"}},
			superior: nil,
			expected: Metadata{"openid_provider": {"organization_name": "A"}},
		},
		{
			name:     "superior only",
			subject:  nil,
			superior: Metadata{"openid_provider": {"organization_name": "B"}},
			expected: Metadata{"openid_provider": {"organization_name": "B"}},
		},
		{
			name:     "superior wins on attribute conflict",
			subject:  Metadata{"openid_provider": {"organization_name": "A", "logo_uri": "https://a.example.org/logo.png"}},
			superior: Metadata{"openid_provider": {"organization_name": "B"}},
			expected: Metadata{"openid_provider": {"organization_name": "B", "logo_uri": "https://a.example.org/logo.png"}},
		},
		{
			name:     "disjoint metadata types are kept",
			subject:  Metadata{"openid_relying_party": {"client_name": "client"}},
			superior: Metadata{"federation_entity": {"federation_fetch_endpoint": "https://i.example.org/fetch"}},
			expected: Metadata{
				"openid_relying_party": {"client_name": "client"},
				"federation_entity":    {"federation_fetch_endpoint": "https://i.example.org/fetch"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, err := Merge(tt.subject, tt.superior)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, merged)
		})
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	subject := Metadata{"openid_provider": jsonmap.JSONMap{"organization_name": "A"}}
	superior := Metadata{"openid_provider": jsonmap.JSONMap{"organization_name": "B"}}

	merged, err := Merge(subject, superior)
	require.NoError(t, err)

	assert.Equal(t, "B", merged["openid_provider"]["organization_name"])
	assert.Equal(t, "A", subject["openid_provider"]["organization_name"])
	assert.Equal(t, "B", superior["openid_provider"]["organization_name"])

	// Mutating the result must not reach back into either input.
	merged["openid_provider"]["organization_name"] = "C"
	assert.Equal(t, "A", subject["openid_provider"]["organization_name"])
	assert.Equal(t, "B", superior["openid_provider"]["organization_name"])
}

func TestClone(t *testing.T) {
	var nilMD Metadata
	cloned, err := nilMD.Clone()
	require.NoError(t, err)
	assert.Nil(t, cloned)

	md := Metadata{"openid_provider": {"contacts": []interface{}{"ops@example.org"}}}
	cloned, err = md.Clone()
	require.NoError(t, err)
	assert.Equal(t, md, cloned)

	cloned["openid_provider"]["contacts"] = "changed"
	assert.Equal(t, []interface{}{"ops@example.org"}, md["openid_provider"]["contacts"])
}
