package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"rise_local_back_end/internal/config"
)

func testProvider(t *testing.T, profile string) *OAuthProvider {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(profile))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &OAuthProvider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		},
		UserInfoURL: srv.URL + "/me",
	}
}

func TestIdentify(t *testing.T) {
	p := testProvider(t, `{"sub":"g-42","email":"Ada@Example.com","name":"Ada"}`)
	id, err := p.Identify(context.Background(), "the-code", "")
	require.NoError(t, err)
	assert.Equal(t, &Identity{Provider: "google", ID: "g-42", Email: "ada@example.com", Name: "Ada"}, id)
}

func TestIdentifyFacebookShape(t *testing.T) {
	p := testProvider(t, `{"id":"fb-7","email":"bo@example.com"}`)
	id, err := p.Identify(context.Background(), "the-code", "")
	require.NoError(t, err)
	assert.Equal(t, "fb-7", id.ID)
}

func TestIdentifyRequiresEmail(t *testing.T) {
	p := testProvider(t, `{"sub":"g-1"}`)
	_, err := p.Identify(context.Background(), "the-code", "")
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestNewProvidersSkipsUnconfigured(t *testing.T) {
	ps := NewProviders(config.OAuthConfig{GoogleClientID: "g"}, "http://api")
	require.Len(t, ps, 1)
	assert.Equal(t, "http://api/api/auth/google/callback", ps["google"].Config.RedirectURL)
	assert.Contains(t, ps["google"].GetAuthURL("st"), "state=st")
}
