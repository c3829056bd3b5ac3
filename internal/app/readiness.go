package app

import (
	"context"
	"fmt"

	httpserver "github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/config"
)

// Pinger is anything that can report reachability.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the /readyz checks: the model provider and,
// when TIKA_URL is configured, the Tika server.
func BuildReadinessChecks(cfg config.Config, ai Pinger, tika Pinger) []httpserver.ReadinessCheck {
	checks := []httpserver.ReadinessCheck{{
		Name: "ai",
		Check: func(ctx context.Context) error {
			if ai == nil {
				return fmt.Errorf("ai client not configured")
			}
			return ai.Ping(ctx)
		},
	}}
	if cfg.TikaURL != "" {
		checks = append(checks, httpserver.ReadinessCheck{
			Name: "tika",
			Check: func(ctx context.Context) error {
				if tika == nil {
					return fmt.Errorf("tika client not configured")
				}
				return tika.Ping(ctx)
			},
		})
	}
	return checks
}
