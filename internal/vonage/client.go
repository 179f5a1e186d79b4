// Package vonage is a minimal client for the parts of the Vonage Voice API
// this service consumes: authenticated download of call recordings.
// Requests are authenticated with a short-lived RS256 application JWT
// signed by the application's private key.
package vonage

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// ErrUpstream is returned when the provider API responds with a non-2xx
// status or the request fails at the transport level.
var ErrUpstream = errors.New("vonage: upstream request failed")

// tokenTTL is the lifetime of a generated application JWT. Tokens are
// minted per request, so a short lifetime is enough.
const tokenTTL = 5 * time.Minute

// maxRecordingSize caps how much recording audio is read from the
// provider (32 MB).
const maxRecordingSize = 32 << 20

// Client authenticates to the Vonage API as a voice application.
type Client struct {
	httpClient    *http.Client
	applicationID string
	privateKey    *rsa.PrivateKey
}

// NewClient creates a Vonage API client for the given application.
// privateKeyPEM is the application's RSA private key in PEM form, as
// downloaded from the provider dashboard.
func NewClient(applicationID string, privateKeyPEM []byte) (*Client, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("vonage: parsing private key: %w", err)
	}

	return &Client{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		applicationID: applicationID,
		privateKey:    key,
	}, nil
}

// FetchRecording downloads the recording audio from the URL delivered in a
// recording webhook. The returned bytes are the raw MP3 payload.
func (c *Client) FetchRecording(ctx context.Context, url string) ([]byte, error) {
	token, err := c.generateToken()
	if err != nil {
		return nil, fmt.Errorf("vonage: signing request token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("vonage: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d fetching recording", ErrUpstream, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordingSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstream, err)
	}

	slog.Debug("recording fetched", "url", url, "bytes", len(data))
	return data, nil
}

// generateToken mints a Vonage application JWT: RS256 signed, carrying the
// application_id claim and a unique jti.
func (c *Client) generateToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"application_id": c.applicationID,
		"iat":            now.Unix(),
		"exp":            now.Add(tokenTTL).Unix(),
		"jti":            uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(c.privateKey)
}
