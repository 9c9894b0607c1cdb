package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-federation-sdk/federation/common/jsonmap"
	"github.com/pilacorp/go-federation-sdk/federation/metadata"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name        string
		combined    CombinedPolicy
		input       metadata.Metadata
		expected    metadata.Metadata
		expectError bool
	}{
		{
			name: "value forces resolved value",
			combined: CombinedPolicy{
				"openid_provider": {"organization_name": {OperatorValue: "Org"}},
			},
			input: metadata.Metadata{
				"openid_provider": {"organization_name": "A"},
			},
			expected: metadata.Metadata{
				"openid_provider": {"organization_name": "Org"},
			},
		},
		{
			name: "default fills absence only",
			combined: CombinedPolicy{
				"openid_provider": {
					"organization_name": {OperatorDefault: "Fallback"},
					"contacts":          {OperatorDefault: "ops@example.org"},
				},
			},
			input: metadata.Metadata{
				"openid_provider": {"organization_name": "A"},
			},
			expected: metadata.Metadata{
				"openid_provider": {
					"organization_name": "A",
					"contacts":          "ops@example.org",
				},
			},
		},
		{
			name: "add accumulates into existing list",
			combined: CombinedPolicy{
				"openid_provider": {"scopes_supported": {OperatorAdd: []interface{}{"openid"}}},
			},
			input: metadata.Metadata{
				"openid_provider": {"scopes_supported": []interface{}{"profile"}},
			},
			expected: metadata.Metadata{
				"openid_provider": {"scopes_supported": []interface{}{"profile", "openid"}},
			},
		},
		{
			name: "add creates absent attribute",
			combined: CombinedPolicy{
				"openid_provider": {"scopes_supported": {OperatorAdd: []interface{}{"openid"}}},
			},
			input: metadata.Metadata{"openid_provider": {}},
			expected: metadata.Metadata{
				"openid_provider": {"scopes_supported": []interface{}{"openid"}},
			},
		},
		{
			name: "one_of validates membership",
			combined: CombinedPolicy{
				"openid_provider": {"token_endpoint_auth_method": {OperatorOneOf: []interface{}{"private_key_jwt"}}},
			},
			input: metadata.Metadata{
				"openid_provider": {"token_endpoint_auth_method": "client_secret_basic"},
			},
			expectError: true,
		},
		{
			name: "subset_of rejects values outside the permitted set",
			combined: CombinedPolicy{
				"openid_provider": {"scopes_supported": {OperatorSubsetOf: []interface{}{"openid", "profile"}}},
			},
			input: metadata.Metadata{
				"openid_provider": {"scopes_supported": []interface{}{"openid", "email"}},
			},
			expectError: true,
		},
		{
			name: "superset_of requires all mandated values",
			combined: CombinedPolicy{
				"openid_provider": {"scopes_supported": {OperatorSupersetOf: []interface{}{"openid", "profile"}}},
			},
			input: metadata.Metadata{
				"openid_provider": {"scopes_supported": []interface{}{"openid"}},
			},
			expectError: true,
		},
		{
			name: "essential fails on absence",
			combined: CombinedPolicy{
				"openid_provider": {"jwks_uri": {OperatorEssential: true}},
			},
			input:       metadata.Metadata{"openid_provider": {}},
			expectError: true,
		},
		{
			name: "essential satisfied by default",
			combined: CombinedPolicy{
				"openid_provider": {"jwks_uri": {
					OperatorEssential: true,
					OperatorDefault:   "https://op.example.org/jwks",
				}},
			},
			input: metadata.Metadata{"openid_provider": {}},
			expected: metadata.Metadata{
				"openid_provider": {"jwks_uri": "https://op.example.org/jwks"},
			},
		},
		{
			name: "ungoverned attributes pass through",
			combined: CombinedPolicy{
				"openid_provider": {"organization_name": {OperatorValue: "Org"}},
			},
			input: metadata.Metadata{
				"openid_provider":      {"organization_name": "A", "logo_uri": "https://a.example.org/logo.png"},
				"openid_relying_party": {"client_name": "client"},
			},
			expected: metadata.Metadata{
				"openid_provider":      {"organization_name": "Org", "logo_uri": "https://a.example.org/logo.png"},
				"openid_relying_party": {"client_name": "client"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := Apply(tt.combined, tt.input)

			if tt.expectError {
				assert.ErrorIs(t, err, ErrPolicyValidation)
				assert.Nil(t, resolved, "no partial output on failure")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, resolved)
		})
	}
}

func TestApplyIsIdempotentOnSatisfiedMetadata(t *testing.T) {
	combined := CombinedPolicy{
		"openid_provider": {
			"organization_name": {OperatorValue: "Org"},
			"scopes_supported":  {OperatorSubsetOf: []interface{}{"openid", "profile"}},
		},
	}
	input := metadata.Metadata{
		"openid_provider": {
			"organization_name": "Org",
			"scopes_supported":  []interface{}{"openid"},
		},
	}

	once, err := Apply(combined, input)
	require.NoError(t, err)
	assert.Equal(t, input, once)

	twice, err := Apply(combined, once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	combined := CombinedPolicy{
		"openid_provider": {"organization_name": {OperatorValue: "Org"}},
	}
	input := metadata.Metadata{
		"openid_provider": jsonmap.JSONMap{"organization_name": "A"},
	}

	_, err := Apply(combined, input)
	require.NoError(t, err)
	assert.Equal(t, "A", input["openid_provider"]["organization_name"])
}
