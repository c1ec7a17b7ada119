// internal/config/normalize.go
package config

import "github.com/tamzrod/servo-replicator/internal/status"

// Default timeouts applied when the config leaves them at zero.
const (
	DefaultBusTimeoutMs    = 100
	DefaultTargetTimeoutMs = 2000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	r := &cfg.Replicator

	if r.Bus.TimeoutMs == 0 {
		r.Bus.TimeoutMs = DefaultBusTimeoutMs
	}
	if r.StatusMemory.TimeoutMs == 0 {
		r.StatusMemory.TimeoutMs = DefaultTargetTimeoutMs
	}

	for gi := range r.Groups {
		g := &r.Groups[gi]

		for ti := range g.Targets {
			if g.Targets[ti].TimeoutMs == 0 {
				g.Targets[ti].TimeoutMs = DefaultTargetTimeoutMs
			}
		}

		// Skip groups that did not opt in to a status block
		if g.StatusSlot == nil {
			continue
		}

		// group_name: ASCII already validated, truncate to the block size
		if len(g.GroupName) > status.NameMaxChars {
			g.GroupName = g.GroupName[:status.NameMaxChars]
		}
	}
}
