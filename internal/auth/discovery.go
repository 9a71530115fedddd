package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// DiscoveryDocument holds the provider endpoints extracted from the OIDC
// discovery metadata. EndSessionEndpoint is optional; the rest are required.
type DiscoveryDocument struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

// DiscoveryError means the provider metadata was unreachable or malformed.
// The current login attempt cannot proceed.
type DiscoveryError struct {
	Issuer string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover %s: %v", e.Issuer, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// DiscoveryCache fetches and caches provider metadata per issuer. Documents
// are written once and immutable afterwards, so the cache is safe to share
// across concurrent login attempts.
type DiscoveryCache struct {
	client *http.Client

	mu   sync.RWMutex
	docs map[string]*DiscoveryDocument
}

func NewDiscoveryCache(client *http.Client) *DiscoveryCache {
	if client == nil {
		client = http.DefaultClient
	}
	return &DiscoveryCache{
		client: client,
		docs:   make(map[string]*DiscoveryDocument),
	}
}

// Resolve returns the discovery document for the issuer, fetching it on
// first use.
func (c *DiscoveryCache) Resolve(ctx context.Context, issuer string) (*DiscoveryDocument, error) {
	issuer = strings.TrimRight(issuer, "/")

	c.mu.RLock()
	doc, ok := c.docs[issuer]
	c.mu.RUnlock()
	if ok {
		return doc, nil
	}

	doc, err := c.fetch(ctx, issuer)
	if err != nil {
		return nil, &DiscoveryError{Issuer: issuer, Err: err}
	}

	c.mu.Lock()
	// Another attempt may have fetched concurrently; keep the first document.
	if existing, ok := c.docs[issuer]; ok {
		doc = existing
	} else {
		c.docs[issuer] = doc
	}
	c.mu.Unlock()

	return doc, nil
}

func (c *DiscoveryCache) fetch(ctx context.Context, issuer string) (*DiscoveryDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata endpoint returned %d", resp.StatusCode)
	}

	var doc DiscoveryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	var missing []string
	if doc.AuthorizationEndpoint == "" {
		missing = append(missing, "authorization_endpoint")
	}
	if doc.TokenEndpoint == "" {
		missing = append(missing, "token_endpoint")
	}
	if doc.UserinfoEndpoint == "" {
		missing = append(missing, "userinfo_endpoint")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("metadata missing %s", strings.Join(missing, ", "))
	}

	return &doc, nil
}
