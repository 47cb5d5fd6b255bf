package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command depends on. Scope selects the
// command family: "recommend", "serve", "store" or "plant".
func (c *Config) Validate(scope string) error {
	var errs []string

	switch scope {
	case "recommend", "serve":
		if len(c.Suitability.Features) == 0 {
			errs = append(errs, "suitability.features must define at least one feature")
		}
		for _, clash := range c.Suitability.keyCollisions() {
			errs = append(errs, "suitability.features keys clash: "+clash)
		}
		if c.Suitability.IDs.Species == "" {
			errs = append(errs, "suitability.ids.species is required")
		}
		if c.Rank.Precision < 0 || c.Rank.Precision > 12 {
			errs = append(errs, fmt.Sprintf("rank.precision must be between 0 and 12, got %d", c.Rank.Precision))
		}
		if c.Rank.MaxReasons < 0 {
			errs = append(errs, "rank.max_reasons must be >= 0")
		}
		if c.Batch.MaxConcurrentFarms < 1 {
			errs = append(errs, "batch.max_concurrent_farms must be >= 1")
		}
		if scope == "serve" {
			if c.Server.Port <= 0 {
				errs = append(errs, "server.port must be > 0")
			}
			if c.Server.RateLimit < 0 {
				errs = append(errs, "server.rate_limit must be >= 0")
			}
		}
	case "store":
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "plant":
		if c.Planting.SpacingM <= 0 {
			errs = append(errs, "planting.spacing_m must be > 0")
		}
		if c.Planting.MaxSlopeDeg < 0 || c.Planting.MaxSlopeDeg > 90 {
			errs = append(errs, "planting.max_slope_deg must be between 0 and 90")
		}
		if c.Planting.RotationStepDeg <= 0 || c.Planting.RotationStepDeg > 90 {
			errs = append(errs, "planting.rotation_step_deg must be in (0, 90]")
		}
	default:
		return eris.Errorf("config: unknown validation scope %q", scope)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s validation failed: %s", scope, strings.Join(errs, "; "))
	}
	return nil
}
