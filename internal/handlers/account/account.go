// Package account serves registration, login and social sign-in.
package account

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"rise_local_back_end/internal/auth"
	"rise_local_back_end/internal/cache"
	"rise_local_back_end/internal/config"
	"rise_local_back_end/internal/handlers"
	"rise_local_back_end/internal/models"
	"rise_local_back_end/internal/utils"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Welcomer greets new accounts.
type Welcomer interface {
	Welcome(user *models.User)
}

type Handler struct {
	db          *gorm.DB
	rdb         *redis.Client
	cfg         config.AuthConfig
	frontendURL string
	providers   map[string]*auth.OAuthProvider
	welcome     Welcomer
}

func NewHandler(db *gorm.DB, rdb *redis.Client, cfg config.AuthConfig, frontendURL string, providers map[string]*auth.OAuthProvider, welcome Welcomer) *Handler {
	return &Handler{db: db, rdb: rdb, cfg: cfg, frontendURL: frontendURL, providers: providers, welcome: welcome}
}

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	AccountType  string `json:"accountType"` // "consumer" (default) or "vendor"
	BusinessName string `json:"businessName"`
	Category     string `json:"category"`
	City         string `json:"city"`
}

// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "email and password are required")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(req.Email) {
		handlers.BadRequest(c, "invalid email")
		return
	}
	if len(req.Password) < minPasswordLength {
		handlers.BadRequest(c, "password must be at least 8 characters")
		return
	}
	isVendor := req.AccountType == models.RoleVendor
	if isVendor && strings.TrimSpace(req.BusinessName) == "" {
		handlers.BadRequest(c, "businessName is required for vendor accounts")
		return
	}
	if isVendor && req.Category != "" && !models.IsVendorCategory(req.Category) {
		handlers.BadRequest(c, "unknown category")
		return
	}

	ctx := c.Request.Context()
	var count int64
	if err := h.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		handlers.Error(c, err)
		return
	}
	if count > 0 {
		handlers.Fail(c, http.StatusConflict, "an account with this email already exists", "email_taken")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	user := &models.User{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Password: hash,
		Role:     models.RoleConsumer,
		Provider: "local",
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if isVendor {
			vendor := newVendor(req, user.ID)
			if err := tx.Create(vendor).Error; err != nil {
				return errors.Wrap(err, "create vendor")
			}
			user.Role = models.RoleVendor
			user.VendorID = &vendor.ID
		}
		return errors.Wrap(tx.Create(user).Error, "create user")
	})
	if err != nil {
		handlers.Error(c, err)
		return
	}

	log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("👤 Account created")
	if h.welcome != nil {
		h.welcome.Welcome(user)
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func newVendor(req registerRequest, ownerID string) *models.Vendor {
	id := uuid.NewString()
	category := req.Category
	if category == "" {
		category = models.VendorCategoryRetail
	}
	return &models.Vendor{
		ID:          id,
		OwnerUserID: ownerID,
		Name:        strings.TrimSpace(req.BusinessName),
		Slug:        slugify(req.BusinessName) + "-" + id[:8],
		Category:    category,
		City:        strings.TrimSpace(req.City),
		IsActive:    true,
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "email and password are required")
		return
	}

	ctx := c.Request.Context()
	var user models.User
	err := h.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		handlers.Error(c, err)
		return
	}
	if err != nil || user.Password == "" {
		handlers.Fail(c, http.StatusUnauthorized, "invalid email or password", "invalid_credentials")
		return
	}

	ok, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("⚠️ Unreadable password hash")
	}
	if !ok {
		handlers.Fail(c, http.StatusUnauthorized, "invalid email or password", "invalid_credentials")
		return
	}

	if utils.NeedsRehash(user.Password) {
		if hash, err := utils.HashPassword(req.Password); err == nil {
			if err := h.db.WithContext(ctx).Model(&user).Update("password", hash).Error; err != nil {
				log.Warn().Err(err).Str("user_id", user.ID).Msg("⚠️ Password rehash failed")
			} else {
				log.Info().Str("user_id", user.ID).Msg("🔐 Legacy password upgraded")
			}
		}
	}

	h.respondWithToken(c, http.StatusOK, &user)
}

// GET /api/me
func (h *Handler) Me(c *gin.Context) {
	user, ok := handlers.CurrentUser(c, h.db)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// POST /api/auth/logout revokes the bearer token until it would have
// expired anyway.
func (h *Handler) Logout(c *gin.Context) {
	tokenID := c.GetString("token_id")
	exp, _ := c.Get("token_exp")
	ttl := time.Hour
	if t, ok := exp.(time.Time); ok && !t.IsZero() {
		ttl = time.Until(t)
	}
	if h.rdb != nil && tokenID != "" && ttl > 0 {
		if err := cache.BlacklistToken(c.Request.Context(), h.rdb, tokenID, ttl); err != nil {
			handlers.Error(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /api/auth/:provider
func (h *Handler) BeginAuth(c *gin.Context) {
	withProvider(c)
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// GET /api/auth/:provider/callback redirects the browser back to the
// frontend with a token.
func (h *Handler) Callback(c *gin.Context) {
	withProvider(c)
	gu, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.Warn().Err(err).Str("provider", c.Param("provider")).Msg("⚠️ OAuth callback failed")
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/login?error=oauth")
		return
	}

	user, err := h.upsertSocial(c.Request.Context(), &auth.Identity{
		Provider: gu.Provider,
		ID:       gu.UserID,
		Email:    strings.ToLower(gu.Email),
		Name:     gu.Name,
	})
	if err != nil {
		log.Error().Err(err).Msg("❌ Social account upsert failed")
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/login?error=oauth")
		return
	}
	token, err := utils.GenerateJWT(user, h.cfg.JWTSecret, h.cfg.TokenTTL)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/auth/callback?token="+url.QueryEscape(token))
}

// POST /api/auth/:provider/token signs in a mobile app that obtained an
// authorization code on its own.
func (h *Handler) ExchangeCode(c *gin.Context) {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		handlers.Fail(c, http.StatusNotFound, auth.ErrUnknownProvider.Error(), "unknown_provider")
		return
	}
	var req struct {
		Code        string `json:"code" binding:"required"`
		RedirectURI string `json:"redirectUri"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "code is required")
		return
	}

	id, err := p.Identify(c.Request.Context(), req.Code, req.RedirectURI)
	if err != nil {
		log.Warn().Err(err).Str("provider", p.Name).Msg("⚠️ OAuth code exchange failed")
		handlers.Fail(c, http.StatusUnauthorized, "could not verify the sign-in", "oauth_failed")
		return
	}
	user, err := h.upsertSocial(c.Request.Context(), id)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

// upsertSocial finds the account by provider id, then by email, and
// creates a consumer account on first sign-in.
func (h *Handler) upsertSocial(ctx context.Context, id *auth.Identity) (*models.User, error) {
	db := h.db.WithContext(ctx)
	var user models.User
	err := db.Where("provider = ? AND provider_id = ?", id.Provider, id.ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "find social user")
	}

	err = db.Where("email = ?", id.Email).First(&user).Error
	switch {
	case err == nil:
		if err := db.Model(&user).Updates(map[string]interface{}{"provider": id.Provider, "provider_id": id.ID}).Error; err != nil {
			return nil, errors.Wrap(err, "link social user")
		}
		return &user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Wrap(err, "find user by email")
	}

	user = models.User{
		ID:         uuid.NewString(),
		Name:       id.Name,
		Email:      id.Email,
		Role:       models.RoleConsumer,
		Provider:   id.Provider,
		ProviderID: id.ID,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, errors.Wrap(err, "create social user")
	}
	log.Info().Str("user_id", user.ID).Str("provider", id.Provider).Msg("👤 Social account created")
	if h.welcome != nil {
		h.welcome.Welcome(&user)
	}
	return &user, nil
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := utils.GenerateJWT(user, h.cfg.JWTSecret, h.cfg.TokenTTL)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

// gothic reads the provider from the query string.
func withProvider(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("provider", c.Param("provider"))
	c.Request.URL.RawQuery = q.Encode()
}
