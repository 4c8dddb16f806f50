package config

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cognicore/ngram/pkg/ngram"
	"github.com/cognicore/ngram/pkg/ngram/estimate"
	"github.com/cognicore/ngram/pkg/ngram/internalerr"
	"github.com/cognicore/ngram/pkg/ngram/store"
	"github.com/cognicore/ngram/pkg/ngram/store/memstore"
	"github.com/cognicore/ngram/pkg/ngram/store/sqlite"
)

// ModelOptions builds ngram.Options from the configuration
func (c *Config) ModelOptions(logger *zerolog.Logger) (ngram.Options, error) {
	est, err := estimate.ByName(c.Smoothing.Method, c.Smoothing.Alpha)
	if err != nil {
		return ngram.Options{}, fmt.Errorf("build estimator: %w", err)
	}

	reserved := c.Vocabulary
	opts := ngram.Options{
		Reserved:  &reserved,
		Estimator: est,
		Logger:    logger,
	}
	if c.Seed != nil {
		opts.Source = rand.NewPCG(*c.Seed, *c.Seed)
	}
	return opts, nil
}

// OpenStore opens the configured snapshot store
func (c *Config) OpenStore(ctx context.Context) (store.Store, error) {
	switch strings.ToLower(c.Store.Driver) {
	case DriverMemory:
		return memstore.New(), nil
	case DriverSQLite:
		st, err := sqlite.OpenSQLite(ctx, c.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", c.Store.Path, err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("store.driver %q: %w", c.Store.Driver, internalerr.ErrInvalidConfig)
	}
}
