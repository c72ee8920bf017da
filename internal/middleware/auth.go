// Package middleware resolves who is calling the API.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lshigami/pblagro/config"
	"github.com/lshigami/pblagro/internal/dto"
	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	identityKey  = "pbl.identity"
	identityHdr  = "X-User-CPF"
	bearerPrefix = "Bearer "
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the caller of the current request. Role is empty when the identity came from
// the plain header and has not been looked up yet. Signed is set for token identities.
type Identity struct {
	NationalID string
	Role       string
	Signed     bool
}

type Auth struct {
	secret             []byte
	ttl                time.Duration
	cookieName         string
	secure             bool
	adminRequiresToken bool
	learners           repository.LearnerRepository
}

func NewAuth(cfg *config.Config, learners repository.LearnerRepository) *Auth {
	ttl := cfg.Auth.SessionTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Auth{
		secret:             []byte(cfg.Auth.JWTSecret),
		ttl:                ttl,
		cookieName:         cfg.Auth.CookieName,
		secure:             cfg.Env == "production",
		adminRequiresToken: cfg.Auth.AdminRequiresToken,
		learners:           learners,
	}
}

func (a *Auth) Sign(nationalID, role string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(a.ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   nationalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	return token, exp, err
}

func (a *Auth) Parse(raw string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid && c.Subject != "" {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// SetSessionCookie stores the token in the session cookie for browser clients.
func (a *Auth) SetSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.cookieName, token, int(a.ttl.Seconds()), "/", "", a.secure, true)
}

// Identify attaches the caller's identity when one is present. It never rejects a request.
func (a *Auth) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := a.resolve(c); ok {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

func (a *Auth) resolve(c *gin.Context) (Identity, bool) {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		if claims, err := a.Parse(strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))); err == nil {
			return Identity{NationalID: claims.Subject, Role: claims.Role, Signed: true}, true
		}
		log.Debug().Str("path", c.FullPath()).Msg("Rejected bearer token")
	}
	if raw, err := c.Cookie(a.cookieName); err == nil && raw != "" {
		if claims, err := a.Parse(raw); err == nil {
			return Identity{NationalID: claims.Subject, Role: claims.Role, Signed: true}, true
		}
	}
	if cpf := strings.TrimSpace(c.GetHeader(identityHdr)); cpf != "" {
		return Identity{NationalID: cpf}, true
	}
	return Identity{}, false
}

func (a *Auth) RequireLearner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin trusts the role claim of a signed token and looks the role up for header identities.
// With adminRequiresToken set, header identities are refused outright.
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Authentication required"})
			return
		}
		if a.adminRequiresToken && !id.Signed {
			log.Warn().Str("nationalID", id.NationalID).Str("path", c.FullPath()).Msg("Admin route called without a signed session")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Signed session required"})
			return
		}
		role := id.Role
		if role == "" {
			learner, err := a.learners.FindByNationalID(c.Request.Context(), id.NationalID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Message: "Admin access required"})
				return
			case err != nil:
				log.Error().Err(err).Str("nationalID", id.NationalID).Msg("Admin check: failed to load learner")
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to verify permissions"})
				return
			}
			role = learner.Role
		}
		if role != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Message: "Admin access required"})
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
