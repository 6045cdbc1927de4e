package handlers

import (
	"net/http"
	"time"

	api "github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/api/smartvendoo"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/middleware"
)

// GetUserTrials reports remaining trials per service for the caller. A
// pure read: asking never creates ledger state.
func GetUserTrials(c middleware.Context) {
	id := resolveIdentity(c, c.Query("email"))

	c.JSON(http.StatusOK, api.TrialsResponse{
		Trials: engine.TrialsRemaining(id, cat.Names()),
		Paid:   engine.Subscriptions().IsPaidActive(id, time.Now()),
	})
}
