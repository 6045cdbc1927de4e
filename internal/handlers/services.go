package handlers

import (
	"net/http"
	"time"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/catalog"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/entitlement"
	api "github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/api/smartvendoo"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/logging"
	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/middleware"
)

// resolveIdentity maps the request to a stable identity: the email field
// when present, the client IP otherwise.
func resolveIdentity(c middleware.Context, email string) entitlement.Identity {
	return entitlement.ResolveIdentity(email, c.ClientIP())
}

// GenerateHandler returns the handler for one catalog service. Routes are
// registered per service, so the catalog alone decides the API surface.
func GenerateHandler(svc catalog.Service) middleware.HandlerFunc {
	return func(c middleware.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request body"})
			return
		}

		id := resolveIdentity(c, body["email"])
		delete(body, "email")

		decision := engine.Authorize(id, svc.Name, time.Now())
		if !decision.Allowed {
			if metrics != nil {
				metrics.EntitlementDenials.WithLabelValues(svc.Name, string(decision.Reason)).Inc()
			}
			logger.WithFields(logging.Fields{
				"identity": id,
				"service":  svc.Name,
				"reason":   decision.Reason,
			}).Info("Generation denied")

			msg := "No trials remaining. Please subscribe to continue."
			if decision.Reason == entitlement.DenyBanned {
				msg = "This account has been suspended."
			}
			c.JSON(http.StatusForbidden, api.DenialResponse{Error: msg, Reason: string(decision.Reason)})
			return
		}

		start := time.Now()
		result, err := gen.Generate(c.Request.Context(), svc.Name, body)
		if metrics != nil {
			metrics.GenerationDuration.WithLabelValues(svc.Name).Observe(time.Since(start).Seconds())
		}
		if err != nil {
			// The consumed trial is not refunded; retries spend a new one.
			if metrics != nil {
				metrics.GenerationRequests.WithLabelValues(svc.Name, "error").Inc()
			}
			logger.WithError(err).WithFields(logging.Fields{
				"identity": id,
				"service":  svc.Name,
			}).Error("Generation failed")
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Generation failed, please try again"})
			return
		}

		if metrics != nil {
			metrics.GenerationRequests.WithLabelValues(svc.Name, "success").Inc()
		}
		c.JSON(http.StatusOK, api.GenerateResponse{
			Result:          result,
			Service:         svc.Name,
			TrialsRemaining: decision.TrialsRemaining,
			Paid:            decision.Paid,
		})
	}
}
