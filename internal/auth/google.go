package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/greenmark/notes-service/pkg/util/errorutil"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// Profile is the verified identity extracted from a provider assertion.
type Profile struct {
	SubjectID string
	Email     string
	Name      string
	AvatarURL string
}

// AssertionVerifier validates a third-party identity assertion and returns
// the verified profile.
type AssertionVerifier interface {
	Verify(ctx context.Context, assertion string) (*Profile, error)
}

// GoogleVerifier checks Google ID-token credentials against the token-info
// endpoint, enforcing audience and expiry.
type GoogleVerifier struct {
	audience string
	endpoint string
	client   *http.Client
}

// NewGoogleVerifier builds a verifier bound to the given OAuth client id.
// endpoint may be empty to use the Google default; tests override it.
func NewGoogleVerifier(clientID, endpoint string) *GoogleVerifier {
	if endpoint == "" {
		endpoint = defaultTokenInfoURL
	}
	return &GoogleVerifier{
		audience: clientID,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// tokenInfoResponse mirrors the provider response. All numeric fields arrive
// as strings.
type tokenInfoResponse struct {
	Aud     string `json:"aud"`
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Exp     string `json:"exp"`
}

// Verify checks the assertion's signature (delegated to the provider
// endpoint), audience and expiry, and extracts the subject profile.
func (v *GoogleVerifier) Verify(ctx context.Context, assertion string) (*Profile, error) {
	endpoint := v.endpoint + "?" + url.Values{"id_token": {assertion}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewAuthFailure(apperrors.CodeInvalidAssertion, fmt.Sprintf("build verification request: %v", err))
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, apperrors.NewAuthFailure(apperrors.CodeInvalidAssertion, fmt.Sprintf("assertion verification request failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewAuthFailure(apperrors.CodeInvalidAssertion, "read verification response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewAuthFailure(apperrors.CodeInvalidAssertion, fmt.Sprintf("provider rejected assertion with status %d", resp.StatusCode))
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, apperrors.NewAuthFailure(apperrors.CodeInvalidAssertion, "malformed verification response")
	}

	if info.Sub == "" {
		return nil, apperrors.NewAuthFailure(apperrors.CodeInvalidAssertion, "assertion missing subject")
	}
	if info.Aud != v.audience {
		return nil, apperrors.NewAuthFailure(apperrors.CodeInvalidAssertion, "assertion audience mismatch")
	}
	exp, err := strconv.ParseInt(info.Exp, 10, 64)
	if err != nil {
		return nil, apperrors.NewAuthFailure(apperrors.CodeInvalidAssertion, "assertion missing expiry")
	}
	if time.Now().Unix() >= exp {
		return nil, apperrors.NewAuthFailure(apperrors.CodeInvalidAssertion, "assertion expired")
	}

	return &Profile{
		SubjectID: info.Sub,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}, nil
}

var _ AssertionVerifier = (*GoogleVerifier)(nil)
