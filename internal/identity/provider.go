// Package identity talks to the external federated identity provider.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrTokenRejected is returned when the identity provider does not accept
// the presented bearer token.
var ErrTokenRejected = errors.New("identity provider rejected token")

// Profile is the subset of the provider's user profile the service needs.
type Profile struct {
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Email returns the normalized email for the profile: the mail field when
// present, otherwise the principal name, lower-cased either way.
func (p *Profile) Email() string {
	if p.Mail != "" {
		return strings.ToLower(p.Mail)
	}
	return strings.ToLower(p.UserPrincipalName)
}

// Provider fetches the profile behind a federated bearer token.
type Provider interface {
	Fetch(ctx context.Context, bearerToken string) (*Profile, error)
}

type httpProvider struct {
	profileURL string
	timeout    time.Duration
}

// NewHTTPProvider creates a Provider that calls the given profile endpoint
// (Graph-style /me). The timeout bounds the whole call so a slow provider
// cannot hang the login path.
func NewHTTPProvider(profileURL string, timeout time.Duration) Provider {
	return &httpProvider{profileURL: profileURL, timeout: timeout}
}

func (p *httpProvider) Fetch(ctx context.Context, bearerToken string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: bearerToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrTokenRejected
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile request returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	if profile.Email() == "" {
		return nil, ErrTokenRejected
	}

	return &profile, nil
}
