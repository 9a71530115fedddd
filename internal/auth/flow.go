package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ocralab/ocra/internal/config"
	"github.com/ocralab/ocra/internal/model"
)

// stateTTL bounds how long an authorization round trip may take before the
// stored verifier is treated as stale.
const stateTTL = 10 * time.Minute

// Identity is the user profile returned by the provider userinfo endpoint.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// Flow drives the authorization-code-with-PKCE login against a single
// configured identity provider. The steps are strictly sequential per
// attempt: validate state, exchange the code, fetch the profile.
type Flow struct {
	cfg       config.OAuthConfig
	discovery *DiscoveryCache
	states    *StateStore
	client    *http.Client
}

func NewFlow(cfg config.OAuthConfig, discovery *DiscoveryCache, client *http.Client) *Flow {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Flow{
		cfg:       cfg,
		discovery: discovery,
		states:    NewStateStore(stateTTL),
		client:    client,
	}
}

// Start generates a PKCE pair and state nonce, records them for the round
// trip, and returns the provider authorization URL to redirect the browser
// to.
func (f *Flow) Start(ctx context.Context, returnTo string) (string, error) {
	doc, err := f.discovery.Resolve(ctx, f.cfg.IssuerURL)
	if err != nil {
		return "", flowErr(ReasonDiscovery, err)
	}

	verifier, err := GenerateVerifier()
	if err != nil {
		return "", err
	}
	state, err := GenerateState()
	if err != nil {
		return "", err
	}

	f.states.Put(state, verifier, returnTo)

	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {f.cfg.ClientID},
		"redirect_uri":          {f.cfg.RedirectURI},
		"scope":                 {strings.Join(f.cfg.Scopes, " ")},
		"state":                 {state},
		"code_challenge":        {DeriveChallenge(verifier)},
		"code_challenge_method": {"S256"},
	}

	return doc.AuthorizationEndpoint + "?" + params.Encode(), nil
}

// Complete validates the callback state, exchanges the authorization code
// for tokens, and fetches the user profile. The stored verifier is consumed
// before any network call, so a duplicate callback for the same state fails
// fast without touching the provider; the code is one-time-use there
// regardless. Every failure path leaves no transient state behind.
func (f *Flow) Complete(ctx context.Context, code, state string) (*Identity, *model.TokenSet, string, error) {
	pending, ok := f.states.Consume(state)
	if !ok {
		return nil, nil, "", flowErr(ReasonInvalidState, fmt.Errorf("state does not match any in-flight attempt"))
	}
	if pending.Verifier == "" {
		return nil, nil, "", flowErr(ReasonMissingVerifier, fmt.Errorf("no code verifier stored for attempt"))
	}

	doc, err := f.discovery.Resolve(ctx, f.cfg.IssuerURL)
	if err != nil {
		return nil, nil, "", flowErr(ReasonDiscovery, err)
	}

	tokens, err := f.exchangeCode(ctx, doc, code, pending.Verifier)
	if err != nil {
		return nil, nil, "", err
	}

	identity, err := f.fetchUserinfo(ctx, doc, tokens.AccessToken)
	if err != nil {
		return nil, nil, "", err
	}

	return identity, tokens, pending.ReturnTo, nil
}

// Abandon erases the transient state for an attempt that failed before the
// exchange, such as a provider error on the callback. The state nonce and
// verifier become unusable immediately; unknown states are a no-op.
func (f *Flow) Abandon(state string) {
	f.states.Consume(state)
}

// LogoutURL builds the provider end-session URL. When the provider does not
// advertise an end-session endpoint the post-logout redirect URI is returned
// directly, so logout always lands the browser somewhere sensible.
func (f *Flow) LogoutURL(ctx context.Context, idTokenHint string) string {
	doc, err := f.discovery.Resolve(ctx, f.cfg.IssuerURL)
	if err != nil || doc.EndSessionEndpoint == "" {
		return f.cfg.PostLogoutRedirectURI
	}

	params := url.Values{
		"post_logout_redirect_uri": {f.cfg.PostLogoutRedirectURI},
		"client_id":                {f.cfg.ClientID},
	}
	if idTokenHint != "" {
		params.Set("id_token_hint", idTokenHint)
	}

	return doc.EndSessionEndpoint + "?" + params.Encode()
}

func (f *Flow) exchangeCode(ctx context.Context, doc *DiscoveryDocument, code, verifier string) (*model.TokenSet, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {f.cfg.RedirectURI},
		"client_id":     {f.cfg.ClientID},
		"code_verifier": {verifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, doc.TokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, flowErr(ReasonTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, flowErr(ReasonTokenExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, flowErr(ReasonTokenExchange, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FlowError{Reason: ReasonTokenExchange, Status: resp.StatusCode, Body: string(body)}
	}

	var tokens model.TokenSet
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, flowErr(ReasonTokenExchange, fmt.Errorf("decode token response: %w", err))
	}
	if tokens.AccessToken == "" {
		return nil, flowErr(ReasonTokenExchange, fmt.Errorf("empty access token"))
	}

	return &tokens, nil
}

func (f *Flow) fetchUserinfo(ctx context.Context, doc *DiscoveryDocument, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.UserinfoEndpoint, nil)
	if err != nil {
		return nil, flowErr(ReasonUserinfo, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, flowErr(ReasonUserinfo, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, flowErr(ReasonUserinfo, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FlowError{Reason: ReasonUserinfo, Status: resp.StatusCode, Body: string(body)}
	}

	var identity Identity
	if err := json.Unmarshal(body, &identity); err != nil {
		return nil, flowErr(ReasonUserinfo, fmt.Errorf("decode userinfo: %w", err))
	}
	if identity.Subject == "" {
		return nil, flowErr(ReasonUserinfo, fmt.Errorf("missing sub claim"))
	}

	return &identity, nil
}
