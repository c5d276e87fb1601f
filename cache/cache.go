package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/yahtzee/config"
	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/policy"
	"github.com/domino14/yahtzee/scoring"
	"github.com/domino14/yahtzee/solution"
	"github.com/domino14/yahtzee/solver"
	"github.com/domino14/yahtzee/state"
	"github.com/domino14/yahtzee/transition"
)

// The cache holds the large objects that are expensive to build: transition
// models and solved tables. Each is built once per variant and shared.

type cache struct {
	sync.Mutex
	objects map[string]any
}

type loadFunc func(cfg *config.Config, key string) (any, error)

// GlobalObjectCache is our global object cache, of course.
var GlobalObjectCache *cache

func (c *cache) get(cfg *config.Config, key string, loadFunc loadFunc) (any, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("getting obj from cache")
		return obj, nil
	}
	log.Debug().Str("key", key).Msg("loading into cache")
	obj, err := loadFunc(cfg, key)
	if err != nil {
		return nil, err
	}
	c.objects[key] = obj
	return obj, nil
}

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]any)}
}

func Load(cfg *config.Config, key string, loadFunc loadFunc) (any, error) {
	if GlobalObjectCache == nil {
		CreateGlobalObjectCache()
	}
	return GlobalObjectCache.get(cfg, key, loadFunc)
}

// Put stores obj under key, replacing anything there.
func Put(key string, obj any) {
	if GlobalObjectCache == nil {
		CreateGlobalObjectCache()
	}
	GlobalObjectCache.Lock()
	defer GlobalObjectCache.Unlock()
	GlobalObjectCache.objects[key] = obj
}

// PutSolution replaces the cached solution for the variant.
func PutSolution(v scoring.Variant, sol *solution.Solution) {
	Put(solutionKey(v), sol)
}

func modelKey(v scoring.Variant) string {
	return "model:" + v.Name
}

func solutionKey(v scoring.Variant) string {
	return "solution:" + v.Name
}

// Model returns the shared transition model for the variant.
func Model(cfg *config.Config, v scoring.Variant) (*transition.Model, error) {
	obj, err := Load(cfg, modelKey(v), func(*config.Config, string) (any, error) {
		return transition.NewModel(state.NewEncoder(v, dice.Shared())), nil
	})
	if err != nil {
		return nil, err
	}
	return obj.(*transition.Model), nil
}

// SolutionPath is where the variant's solved table lives.
func SolutionPath(cfg *config.Config, v scoring.Variant) string {
	return filepath.Join(cfg.GetString(config.ConfigDataPath), v.Name+solution.Extension)
}

// Solution returns the solved table and policy for the variant. It reads
// them from the data path if they were saved there, and otherwise solves
// with the configured mode and saves the result.
func Solution(ctx context.Context, cfg *config.Config, v scoring.Variant) (*solution.Solution, error) {
	model, err := Model(cfg, v)
	if err != nil {
		return nil, err
	}
	obj, err := Load(cfg, solutionKey(v), func(cfg *config.Config, key string) (any, error) {
		path := SolutionPath(cfg, v)
		sol, err := solution.Load(path, model)
		if err == nil {
			return sol, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("ignoring-unusable-solution-file")
		}
		sol, err = Solve(ctx, cfg, model)
		if err != nil {
			return nil, err
		}
		if sol.Status != solver.StatusConverged {
			return nil, errors.New("solve did not finish; not caching a partial table")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			err = solution.Save(path, sol)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("could-not-save-solution")
			}
		}
		return sol, nil
	})
	if err != nil {
		return nil, err
	}
	return obj.(*solution.Solution), nil
}

// Solve runs the solver with the configured settings and extracts the
// policy.
func Solve(ctx context.Context, cfg *config.Config, model *transition.Model) (*solution.Solution, error) {
	mode, err := solver.ParseMode(cfg.GetString(config.ConfigMode))
	if err != nil {
		return nil, err
	}
	tol := cfg.GetFloat64(config.ConfigTolerance)
	threads := cfg.GetInt(config.ConfigThreads)
	s := solver.New(model,
		solver.WithThreads(threads),
		solver.WithMaxSweeps(cfg.GetInt(config.ConfigMaxSweeps)))
	res, err := s.Solve(ctx, tol, mode)
	if err != nil {
		return nil, err
	}
	var pol *policy.Policy
	if res.Status == solver.StatusConverged {
		pol, err = policy.Extract(ctx, res.Table, threads)
		if err != nil {
			return nil, err
		}
	}
	return solution.FromResult(res, tol, pol), nil
}
