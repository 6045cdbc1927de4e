package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/entitlement"
	api "github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/api/smartvendoo"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/auth"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/config"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/middleware"
)

const adminTokenTTL = 12 * time.Hour

// AdminLogin authenticates the single configured admin account and issues
// a session token. ADMIN_PASSWORD_HASH takes precedence over the plain
// ADMIN_PASSWORD fallback.
func AdminLogin(c middleware.Context) {
	var req api.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
		return
	}

	adminEmail := config.GetEnv("ADMIN_EMAIL", "")
	if adminEmail == "" || !strings.EqualFold(req.Email, adminEmail) {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid credentials"})
		return
	}

	ok := false
	if hash := config.GetEnv("ADMIN_PASSWORD_HASH", ""); hash != "" {
		ok = auth.CheckPassword(req.Password, hash)
	} else if plain := config.GetEnv("ADMIN_PASSWORD", ""); plain != "" {
		ok = req.Password == plain
	}
	if !ok {
		logger.WithField("email", req.Email).Warn("Failed admin login attempt")
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid credentials"})
		return
	}

	secret := []byte(config.GetEnv("JWT_SECRET", ""))
	token, err := auth.GenerateJWT(adminEmail, "admin", adminTokenTTL, secret)
	if err != nil {
		logger.WithError(err).Error("Failed to generate admin token")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, api.AdminLoginResponse{Status: "ok", Token: token})
}

// AdminStats returns aggregate counters. A read over existing state only:
// computing stats never creates ledger or subscription records.
func AdminStats(c middleware.Context) {
	c.JSON(http.StatusOK, api.AdminStatsResponse{Stats: engine.Stats(time.Now())})
}

// AdminIdentities lists every tracked identity with its ledger and
// subscription state.
func AdminIdentities(c middleware.Context) {
	identities := engine.Identities()
	c.JSON(http.StatusOK, api.AdminIdentitiesResponse{Identities: identities, Count: len(identities)})
}

func bindIdentity(c middleware.Context) (entitlement.Identity, bool) {
	var req api.AdminIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Identity == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Missing identity"})
		return "", false
	}
	return entitlement.Identity(req.Identity), true
}

// AdminBan marks an identity banned. Banning wins over an active paid
// window.
func AdminBan(c middleware.Context) {
	id, ok := bindIdentity(c)
	if !ok {
		return
	}
	engine.Ban(id)
	logger.WithField("identity", id).Info("Identity banned")
	c.JSON(http.StatusOK, api.StatusResponse{Status: "banned"})
}

// AdminUnban lifts a ban. Unbanning an unknown identity is a no-op.
func AdminUnban(c middleware.Context) {
	id, ok := bindIdentity(c)
	if !ok {
		return
	}
	engine.Unban(id)
	logger.WithField("identity", id).Info("Identity unbanned")
	c.JSON(http.StatusOK, api.StatusResponse{Status: "unbanned"})
}

// AdminDeleteIdentity removes all state for an identity. Its next request
// starts from the fresh-identity defaults.
func AdminDeleteIdentity(c middleware.Context) {
	id, ok := bindIdentity(c)
	if !ok {
		return
	}
	engine.DeleteIdentity(id)
	logger.WithField("identity", id).Info("Identity deleted")
	c.JSON(http.StatusOK, api.StatusResponse{Status: "deleted"})
}
