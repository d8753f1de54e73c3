// Package auth exchanges OAuth authorization codes obtained by the mobile
// apps for a verified identity. Browser sign-in goes through goth instead.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"rise_local_back_end/internal/config"
)

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrNoEmail         = errors.New("provider did not return an email")
)

// Identity is what a provider vouches for.
type Identity struct {
	Provider string
	ID       string
	Email    string
	Name     string
}

type OAuthProvider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
}

// NewProviders builds one provider per configured client id.
func NewProviders(cfg config.OAuthConfig, backendURL string) map[string]*OAuthProvider {
	providers := map[string]*OAuthProvider{}
	if cfg.GoogleClientID != "" {
		providers["google"] = &OAuthProvider{
			Name: "google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  backendURL + "/api/auth/google/callback",
				Scopes:       []string{"openid", "email", "profile"},
				Endpoint:     endpoints.Google,
			},
			UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		}
	}
	if cfg.FacebookClientID != "" {
		providers["facebook"] = &OAuthProvider{
			Name: "facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				RedirectURL:  backendURL + "/api/auth/facebook/callback",
				Scopes:       []string{"email", "public_profile"},
				Endpoint:     endpoints.Facebook,
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		}
	}
	return providers
}

func (p *OAuthProvider) GetAuthURL(state string) string {
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Identify trades code for a token and reads the profile behind it.
// redirectURL overrides the configured one for app deep links.
func (p *OAuthProvider) Identify(ctx context.Context, code, redirectURL string) (*Identity, error) {
	cfg := *p.Config
	if redirectURL != "" {
		cfg.RedirectURL = redirectURL
	}
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "exchange code")
	}

	resp, err := cfg.Client(ctx, token).Get(p.UserInfoURL)
	if err != nil {
		return nil, errors.Wrap(err, "fetch profile")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("profile request returned %d", resp.StatusCode)
	}

	// Google answers "sub", Facebook answers "id".
	var profile struct {
		Sub   string `json:"sub"`
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, errors.Wrap(err, "decode profile")
	}
	id := profile.Sub
	if id == "" {
		id = profile.ID
	}
	if profile.Email == "" {
		return nil, ErrNoEmail
	}
	return &Identity{
		Provider: p.Name,
		ID:       id,
		Email:    strings.ToLower(profile.Email),
		Name:     profile.Name,
	}, nil
}
