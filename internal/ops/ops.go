// Package ops implements the fact operations shared by the HTTP, MCP and CLI
// frontends. Every operation loads the collection fresh from the store and
// returns *errors.FactsError on failure.
package ops

import (
	"crypto/subtle"
	"fmt"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/fact"
)

// authorize checks token against the configured write token in constant time.
// An unset configured token rejects every caller.
func authorize(cfg *config.Config, token string) error {
	if cfg == nil || cfg.Token == "" {
		return errors.NewUnauthorized()
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) != 1 {
		return errors.NewUnauthorized()
	}
	return nil
}

// validateDescription rejects blank and over-long descriptions.
func validateDescription(cfg *config.Config, description string) error {
	if fact.IsBlank(description) {
		return errors.NewInvalidRequest("description is required")
	}
	if cfg != nil && cfg.MaxDescriptionChars > 0 {
		if n := fact.CountChars(description); n > cfg.MaxDescriptionChars {
			return errors.NewInvalidRequest(fmt.Sprintf(
				"description is %d characters, maximum is %d", n, cfg.MaxDescriptionChars))
		}
	}
	return nil
}
