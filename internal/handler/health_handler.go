package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-grader/internal/config"
	"github.com/noah-isme/gema-grader/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Service       string    `json:"service"`
	Environment   string    `json:"environment"`
	Rules         int       `json:"rules"`
	RemoteEnabled bool      `json:"remoteEnabled"`
}

// HealthCheck reports service identity and the size of the active rule catalog.
func HealthCheck(cfg config.Config, ruleCount int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "service healthy", HealthResponse{
			Status:        "ok",
			Timestamp:     time.Now().UTC(),
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			Rules:         ruleCount,
			RemoteEnabled: cfg.RemoteEndpoint != "",
		})
	}
}
