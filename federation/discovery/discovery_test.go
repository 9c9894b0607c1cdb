package discovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-federation-sdk/federation/entity"
)

const (
	subjectID = entity.EntityID("https://subject.example.org")
	inter1ID  = entity.EntityID("https://inter1.example.org")
	inter2ID  = entity.EntityID("https://inter2.example.org")
	anchorID  = entity.EntityID("https://anchor.example.org")
)

type fakeProvider struct {
	configs    map[entity.EntityID]*entity.EntityConfiguration
	statements map[string]*entity.EntityStatement
}

func statementKey(superior, subordinate entity.EntityID) string {
	return string(superior) + "|" + string(subordinate)
}

func (p *fakeProvider) FetchEntityConfiguration(_ context.Context, id entity.EntityID) (*entity.EntityConfiguration, error) {
	config, ok := p.configs[id]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", id)
	}
	return config, nil
}

func (p *fakeProvider) FetchSubordinateStatement(_ context.Context, superior *entity.EntityConfiguration, subordinate entity.EntityID) (*entity.EntityStatement, error) {
	stmt, ok := p.statements[statementKey(superior.Subject, subordinate)]
	if !ok {
		return nil, fmt.Errorf("no statement of %q about %q", superior.Subject, subordinate)
	}
	return stmt, nil
}

func okVerify(string, entity.JWKS) error { return nil }

func fedConfig(id entity.EntityID, hints ...entity.EntityID) *entity.EntityConfiguration {
	return &entity.EntityConfiguration{EntityStatement: entity.EntityStatement{
		Issuer:         id,
		Subject:        id,
		IssuedAt:       time.Now().Unix(),
		ExpiresAt:      time.Now().Add(time.Hour).Unix(),
		AuthorityHints: hints,
		RawJWT:         "token-" + string(id),
	}}
}

func fedStatement(superior, subordinate entity.EntityID) *entity.EntityStatement {
	return &entity.EntityStatement{
		Issuer:    superior,
		Subject:   subordinate,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		RawJWT:    "token-" + string(superior) + "-" + string(subordinate),
	}
}

// testFederation is subject -> {inter1, inter2} -> anchor.
func testFederation() *fakeProvider {
	return &fakeProvider{
		configs: map[entity.EntityID]*entity.EntityConfiguration{
			subjectID: fedConfig(subjectID, inter1ID, inter2ID),
			inter1ID:  fedConfig(inter1ID, anchorID),
			inter2ID:  fedConfig(inter2ID, anchorID),
			anchorID:  fedConfig(anchorID),
		},
		statements: map[string]*entity.EntityStatement{
			statementKey(inter1ID, subjectID): fedStatement(inter1ID, subjectID),
			statementKey(inter2ID, subjectID): fedStatement(inter2ID, subjectID),
			statementKey(anchorID, inter1ID):  fedStatement(anchorID, inter1ID),
			statementKey(anchorID, inter2ID):  fedStatement(anchorID, inter2ID),
		},
	}
}

func TestFetchEntityConfigurationChains(t *testing.T) {
	d, err := NewDiscoverer(testFederation())
	require.NoError(t, err)

	chains, err := d.FetchEntityConfigurationChains(context.Background(), subjectID, []entity.EntityID{anchorID}, okVerify)
	require.NoError(t, err)
	require.Len(t, chains, 2, "both authority paths to the anchor are found")

	for _, chain := range chains {
		require.Len(t, chain, 3)
		assert.Equal(t, subjectID, chain[0].Subject)
		assert.Equal(t, anchorID, chain[2].Subject)
	}
	assert.NotEqual(t, chains[0][1].Subject, chains[1][1].Subject)
}

func TestFetchEntityConfigurationChainsSubjectIsAnchor(t *testing.T) {
	d, err := NewDiscoverer(testFederation())
	require.NoError(t, err)

	chains, err := d.FetchEntityConfigurationChains(context.Background(), subjectID, []entity.EntityID{subjectID}, okVerify)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Len(t, chains[0], 1)
}

func TestFetchEntityConfigurationChainsCutsCycles(t *testing.T) {
	p := testFederation()
	// inter1 points back at the subject.
	p.configs[inter1ID] = fedConfig(inter1ID, subjectID, anchorID)

	d, err := NewDiscoverer(p)
	require.NoError(t, err)

	chains, err := d.FetchEntityConfigurationChains(context.Background(), subjectID, []entity.EntityID{anchorID}, okVerify)
	require.NoError(t, err)
	assert.Len(t, chains, 2)
}

func TestFetchEntityConfigurationChainsPrunesUnreachableBranches(t *testing.T) {
	p := testFederation()
	delete(p.configs, inter2ID)

	d, err := NewDiscoverer(p)
	require.NoError(t, err)

	chains, err := d.FetchEntityConfigurationChains(context.Background(), subjectID, []entity.EntityID{anchorID}, okVerify)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Equal(t, inter1ID, chains[0][1].Subject)
}

func TestFetchEntityConfigurationChainsDepthLimit(t *testing.T) {
	d, err := NewDiscoverer(testFederation(), WithMaxPathDepth(1))
	require.NoError(t, err)

	chains, err := d.FetchEntityConfigurationChains(context.Background(), subjectID, []entity.EntityID{anchorID}, okVerify)
	require.NoError(t, err)
	assert.Empty(t, chains, "anchor lies beyond the depth limit")
}

func TestFetchEntityStatementChain(t *testing.T) {
	p := testFederation()
	d, err := NewDiscoverer(p)
	require.NoError(t, err)

	configs := entity.EntityConfigurationChain{p.configs[subjectID], p.configs[inter1ID], p.configs[anchorID]}

	statements, err := d.FetchEntityStatementChain(context.Background(), configs, okVerify)
	require.NoError(t, err)
	require.Len(t, statements, 3)

	assert.Equal(t, inter1ID, statements[0].Issuer)
	assert.Equal(t, subjectID, statements[0].Subject)
	assert.Equal(t, anchorID, statements[1].Issuer)
	assert.Equal(t, inter1ID, statements[1].Subject)
	// Terminal statement is the anchor's own configuration.
	assert.Equal(t, anchorID, statements[2].Issuer)
	assert.Equal(t, anchorID, statements[2].Subject)
}

func TestFetchEntityStatementChainUnverifiableSignature(t *testing.T) {
	p := testFederation()
	d, err := NewDiscoverer(p)
	require.NoError(t, err)

	configs := entity.EntityConfigurationChain{p.configs[subjectID], p.configs[inter1ID], p.configs[anchorID]}

	badToken := p.statements[statementKey(inter1ID, subjectID)].RawJWT
	rejectOne := func(token string, _ entity.JWKS) error {
		if token == badToken {
			return fmt.Errorf("signature verification failed")
		}
		return nil
	}

	statements, err := d.FetchEntityStatementChain(context.Background(), configs, rejectOne)
	require.NoError(t, err)
	assert.Empty(t, statements, "an unverifiable hop means no verifiable path")
}

func TestFetchEntityStatementChainIssuerMismatch(t *testing.T) {
	p := testFederation()
	p.statements[statementKey(inter1ID, subjectID)] = fedStatement(inter2ID, subjectID)

	d, err := NewDiscoverer(p)
	require.NoError(t, err)

	configs := entity.EntityConfigurationChain{p.configs[subjectID], p.configs[inter1ID], p.configs[anchorID]}

	statements, err := d.FetchEntityStatementChain(context.Background(), configs, okVerify)
	require.NoError(t, err)
	assert.Empty(t, statements)
}

func TestFetchEntityStatementChainFetchError(t *testing.T) {
	p := testFederation()
	delete(p.statements, statementKey(anchorID, inter1ID))

	d, err := NewDiscoverer(p)
	require.NoError(t, err)

	configs := entity.EntityConfigurationChain{p.configs[subjectID], p.configs[inter1ID], p.configs[anchorID]}

	_, err = d.FetchEntityStatementChain(context.Background(), configs, okVerify)
	assert.ErrorContains(t, err, "failed to fetch statement")
}
