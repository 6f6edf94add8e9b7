package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/greenmark/notes-service/pkg/util/errorutil"
)

func tokenInfoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("id_token"))
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func validTokenInfo(aud string) string {
	exp := time.Now().Add(time.Hour).Unix()
	return fmt.Sprintf(`{"aud":%q,"sub":"google-sub-1","email":"eli@example.com","name":"Eli Vance","picture":"https://example.com/eli.png","exp":"%d"}`, aud, exp)
}

func TestGoogleVerifierSuccess(t *testing.T) {
	srv := tokenInfoServer(t, http.StatusOK, validTokenInfo("client-id"))

	v := NewGoogleVerifier("client-id", srv.URL)
	profile, err := v.Verify(context.Background(), "some-credential")
	require.NoError(t, err)

	assert.Equal(t, "google-sub-1", profile.SubjectID)
	assert.Equal(t, "eli@example.com", profile.Email)
	assert.Equal(t, "Eli Vance", profile.Name)
	assert.Equal(t, "https://example.com/eli.png", profile.AvatarURL)
}

func TestGoogleVerifierAudienceMismatch(t *testing.T) {
	srv := tokenInfoServer(t, http.StatusOK, validTokenInfo("someone-else"))

	v := NewGoogleVerifier("client-id", srv.URL)
	_, err := v.Verify(context.Background(), "some-credential")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidAssertion))
}

func TestGoogleVerifierExpiredAssertion(t *testing.T) {
	exp := time.Now().Add(-time.Minute).Unix()
	body := fmt.Sprintf(`{"aud":"client-id","sub":"google-sub-1","exp":"%d"}`, exp)
	srv := tokenInfoServer(t, http.StatusOK, body)

	v := NewGoogleVerifier("client-id", srv.URL)
	_, err := v.Verify(context.Background(), "some-credential")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidAssertion))
}

func TestGoogleVerifierProviderRejects(t *testing.T) {
	srv := tokenInfoServer(t, http.StatusBadRequest, `{"error":"invalid_token"}`)

	v := NewGoogleVerifier("client-id", srv.URL)
	_, err := v.Verify(context.Background(), "bad-credential")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidAssertion))
}

func TestGoogleVerifierMalformedResponse(t *testing.T) {
	srv := tokenInfoServer(t, http.StatusOK, `not json`)

	v := NewGoogleVerifier("client-id", srv.URL)
	_, err := v.Verify(context.Background(), "some-credential")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidAssertion))
}

func TestGoogleVerifierMissingSubject(t *testing.T) {
	body := fmt.Sprintf(`{"aud":"client-id","exp":"%d"}`, time.Now().Add(time.Hour).Unix())
	srv := tokenInfoServer(t, http.StatusOK, body)

	v := NewGoogleVerifier("client-id", srv.URL)
	_, err := v.Verify(context.Background(), "some-credential")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidAssertion))
}
