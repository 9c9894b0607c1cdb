package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pilacorp/go-federation-sdk/federation/entity"
)

// WellKnownPath is the path under which every federation entity
// publishes its configuration.
const WellKnownPath = "/.well-known/openid-federation"

type httpProvider struct {
	client *http.Client
	logger *slog.Logger
}

// ProviderOpt configures the HTTP provider.
type ProviderOpt func(*httpProvider)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) ProviderOpt {
	return func(p *httpProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithLogger enables request logging on the provider.
func WithLogger(logger *slog.Logger) ProviderOpt {
	return func(p *httpProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewHTTPProvider creates a Provider fetching statements over HTTP. The
// client transport is instrumented with otelhttp.
func NewHTTPProvider(opts ...ProviderOpt) Provider {
	p := &httpProvider{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *httpProvider) FetchEntityConfiguration(ctx context.Context, id entity.EntityID) (*entity.EntityConfiguration, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	endpoint := strings.TrimSuffix(string(id), "/") + WellKnownPath
	token, err := p.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entity configuration for %q: %w", id, err)
	}

	config, err := entity.ParseEntityConfiguration(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entity configuration for %q: %w", id, err)
	}
	if config.Subject != id {
		return nil, fmt.Errorf("entity configuration subject %q does not match requested entity %q", config.Subject, id)
	}

	p.logger.DebugContext(ctx, "fetched entity configuration", "entity", id)
	return config, nil
}

func (p *httpProvider) FetchSubordinateStatement(ctx context.Context, superior *entity.EntityConfiguration, subordinate entity.EntityID) (*entity.EntityStatement, error) {
	if superior == nil {
		return nil, fmt.Errorf("superior configuration is nil")
	}

	endpoint, err := fetchEndpoint(superior)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	q.Set("sub", string(subordinate))
	u.RawQuery = q.Encode()

	token, err := p.get(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subordinate statement for %q from %q: %w", subordinate, superior.Issuer, err)
	}

	stmt, err := entity.ParseEntityStatement(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subordinate statement for %q: %w", subordinate, err)
	}

	p.logger.DebugContext(ctx, "fetched subordinate statement", "superior", superior.Issuer, "subordinate", subordinate)
	return stmt, nil
}

// fetchEndpoint reads the superior's federation fetch endpoint from its
// federation_entity metadata.
func fetchEndpoint(config *entity.EntityConfiguration) (string, error) {
	fedEntity, ok := config.Metadata["federation_entity"]
	if !ok {
		return "", fmt.Errorf("entity %q declares no federation_entity metadata", config.Issuer)
	}
	endpoint, ok := fedEntity["federation_fetch_endpoint"].(string)
	if !ok || endpoint == "" {
		return "", fmt.Errorf("entity %q declares no federation fetch endpoint", config.Issuer)
	}
	return endpoint, nil
}

func (p *httpProvider) get(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("endpoint returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return strings.TrimSpace(string(body)), nil
}
