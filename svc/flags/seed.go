package flags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/humanyze/flagkit/pkg/feature"
)

// SeedFlag is the declarative YAML form of a flag definition.
type SeedFlag struct {
	Key               string            `yaml:"key"`
	Name              string            `yaml:"name"`
	Description       string            `yaml:"description"`
	Enabled           *bool             `yaml:"enabled"`
	MinTier           *string           `yaml:"min_subscription_tier"`
	PercentageRollout *int              `yaml:"percentage_rollout"`
	StartAt           *time.Time        `yaml:"start_date"`
	EndAt             *time.Time        `yaml:"end_date"`
	Metadata          map[string]string `yaml:"metadata"`
}

type seedFile struct {
	Flags []SeedFlag `yaml:"flags"`
}

// LoadSeedFile parses a YAML seed file of flag definitions.
//
//	flags:
//	  - key: beta-export
//	    name: Beta export
//	    min_subscription_tier: pro
//	    percentage_rollout: 50
func LoadSeedFile(path string) ([]*feature.Flag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	result := make([]*feature.Flag, 0, len(file.Flags))
	for _, sf := range file.Flags {
		flag, err := sf.toFlag()
		if err != nil {
			return nil, fmt.Errorf("seed flag %q: %w", sf.Key, err)
		}
		result = append(result, flag)
	}
	return result, nil
}

func (sf SeedFlag) toFlag() (*feature.Flag, error) {
	opts := []feature.FlagOption{feature.WithDescription(sf.Description)}

	if sf.Enabled != nil && !*sf.Enabled {
		opts = append(opts, feature.Disabled())
	}
	if sf.MinTier != nil {
		tier, err := feature.ParseTier(*sf.MinTier)
		if err != nil {
			return nil, err
		}
		opts = append(opts, feature.WithMinTier(tier))
	}
	if sf.PercentageRollout != nil {
		opts = append(opts, feature.WithRollout(*sf.PercentageRollout))
	}
	if sf.StartAt != nil {
		opts = append(opts, feature.WithStartAt(*sf.StartAt))
	}
	if sf.EndAt != nil {
		opts = append(opts, feature.WithEndAt(*sf.EndAt))
	}
	if sf.Metadata != nil {
		opts = append(opts, feature.WithMetadata(sf.Metadata))
	}

	return feature.NewFlag(sf.Key, sf.Name, opts...), nil
}

// Seed creates any flags from the list that don't exist yet. Existing flags
// are left untouched so operator edits survive restarts; the seed file only
// establishes defaults. Returns the number of flags created.
func (s *Service) Seed(ctx context.Context, seed []*feature.Flag) (int, error) {
	created := 0
	for _, flag := range seed {
		if _, err := s.CreateFlag(ctx, flag); err != nil {
			if errors.Is(err, feature.ErrDuplicateKey) {
				continue
			}
			return created, err
		}
		s.log.InfoContext(ctx, "seeded feature flag", slog.String("flag_key", flag.Key))
		created++
	}
	return created, nil
}
