package config

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog/log"
)

// InitOAuth registers the goth providers that have credentials and wires
// gothic to a cookie session store.
func InitOAuth(cfg *Config) {
	store := sessions.NewCookieStore([]byte(cfg.Auth.SessionSecret))
	store.MaxAge(86400 * 30)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.IsProduction()
	store.Options.SameSite = http.SameSiteLaxMode
	gothic.Store = store

	// The gin handlers copy the :provider path param into the query string.
	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		return "", errors.New("provider not found")
	}

	var providers []goth.Provider
	if cfg.OAuth.GoogleClientID != "" {
		providers = append(providers, google.New(
			cfg.OAuth.GoogleClientID,
			cfg.OAuth.GoogleClientSecret,
			cfg.BackendURL+"/api/auth/google/callback",
			"email", "profile",
		))
	}
	if cfg.OAuth.FacebookClientID != "" {
		providers = append(providers, facebook.New(
			cfg.OAuth.FacebookClientID,
			cfg.OAuth.FacebookClientSecret,
			cfg.BackendURL+"/api/auth/facebook/callback",
			"email", "public_profile",
		))
	}
	if len(providers) == 0 {
		log.Warn().Msg("⚠️ No OAuth provider configured")
		return
	}
	goth.UseProviders(providers...)
	log.Info().Int("providers", len(providers)).Msg("🔐 OAuth providers registered")
}
