// Package sidechannel implements the best-effort post-commit integrations:
// Google Sheets mirroring, Drive photo copies and a generic outbound
// notification webhook. Nothing in this package may affect the primary
// payment transition; callers run hooks through Runner, which logs and
// swallows every failure.
package sidechannel

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenURL = "https://oauth2.googleapis.com/token"

	scopeSheets = "https://www.googleapis.com/auth/spreadsheets"
	scopeDrive  = "https://www.googleapis.com/auth/drive"
)

type googleCredentials struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// GoogleAuth mints short-lived access tokens from a service-account key:
// an RS256-signed assertion is exchanged at the OAuth token endpoint.
type GoogleAuth struct {
	creds      googleCredentials
	key        *rsa.PrivateKey
	httpClient *http.Client
	tokenURL   string
	now        func() time.Time
}

// NewGoogleAuth parses the service-account credentials JSON
// (client_email + private_key) and prepares the signer.
func NewGoogleAuth(credentialsJSON string) (*GoogleAuth, error) {
	var c googleCredentials
	if err := json.Unmarshal([]byte(credentialsJSON), &c); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if c.ClientEmail == "" || c.PrivateKey == "" {
		return nil, fmt.Errorf("credentials missing client_email or private_key")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &GoogleAuth{
		creds:      c,
		key:        key,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokenURL:   defaultTokenURL,
		now:        time.Now,
	}, nil
}

// AccessToken returns a bearer token valid for the given scope.
func (g *GoogleAuth) AccessToken(ctx context.Context, scope string) (string, error) {
	now := g.now()
	claims := jwt.MapClaims{
		"iss":   g.creds.ClientEmail,
		"scope": scope,
		"aud":   g.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(g.key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to get access token: %s", strings.TrimSpace(string(body)))
	}

	var tr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	return tr.AccessToken, nil
}
