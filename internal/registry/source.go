package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Default metadata endpoints of the protocol's public catalog.
const (
	DefaultTokensURL = "https://harvest.finance/data/tokens.json"
	DefaultPoolsURL  = "https://harvest.finance/data/pools.json"
)

// SourceConfig holds the catalog source's collaborators. Zero values fall
// back to the public endpoints and a default HTTP client.
type SourceConfig struct {
	TokensURL  string
	PoolsURL   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Source fetches the remote catalog metadata and builds typed catalogs from
// it. The raw payloads are untyped JSON maps keyed by display name;
// malformed entries are filtered, not errored.
type Source struct {
	tokensURL  string
	poolsURL   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSource builds a Source with defaults applied.
func NewSource(cfg SourceConfig) *Source {
	if cfg.TokensURL == "" {
		cfg.TokensURL = DefaultTokensURL
	}
	if cfg.PoolsURL == "" {
		cfg.PoolsURL = DefaultPoolsURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Source{
		tokensURL:  cfg.TokensURL,
		poolsURL:   cfg.PoolsURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
}

func (s *Source) fetchTokenEntries(ctx context.Context) (map[string]TokenEntry, error) {
	var payload struct {
		Data map[string]TokenEntry `json:"data"`
	}
	if err := s.fetch(ctx, s.tokensURL, &payload); err != nil {
		return nil, fmt.Errorf("fetch token metadata: %w", err)
	}
	return payload.Data, nil
}

func (s *Source) fetchPoolEntries(ctx context.Context) (map[string]PoolEntry, error) {
	var payload struct {
		Data map[string]PoolEntry `json:"data"`
	}
	if err := s.fetch(ctx, s.poolsURL, &payload); err != nil {
		return nil, fmt.Errorf("fetch pool metadata: %w", err)
	}
	return payload.Data, nil
}

func (s *Source) fetch(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
