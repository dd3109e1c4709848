package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/catlog/internal/destination"
	"github.com/agbru/catlog/internal/fsys"
	"github.com/agbru/catlog/internal/metrics"
	"github.com/agbru/catlog/internal/router"
)

type scenario struct {
	name  string
	title string
	run   func(ctx context.Context, env *runEnv) error
}

var scenarios = []scenario{
	{"global", "Method 1: Global configuration", runGlobal},
	{"runtime", "Method 2: Runtime customization", runRuntime},
	{"inheritance", "Method 3: Category inheritance", runInheritance},
	{"dynamic", "Method 4: Dynamic categories", runDynamic},
	{"burst", "Method 5: Concurrent burst", runBurst},
}

// selectScenarios returns the scenarios named by name, or all of them.
func selectScenarios(name string) []scenario {
	if name == "all" {
		return scenarios
	}
	for _, sc := range scenarios {
		if sc.name == name {
			return []scenario{sc}
		}
	}
	return nil
}

// runGlobal logs through the categories of the loaded routing document.
func runGlobal(_ context.Context, env *runEnv) error {
	s, err := env.open(env.app.Routing)
	if err != nil {
		return err
	}
	s.log("!info", "Testing custom 'debug' category", "debug")
	s.log("!info", "Testing custom 'database' category", "database")
	s.log("!info", "Testing custom 'warning' category", "warning")
	s.log("!info", "Testing 'all' category (logs to all files)", "all")
	s.log("!warn", "Testing an unknown category (falls back to default)", "unknown_category")
	return s.close()
}

// runRuntime replaces both maps with a per-session setup and validates a
// folder through the new categories.
func runRuntime(_ context.Context, env *runEnv) error {
	routing := env.app.Routing
	routing.LogFiles = destination.NewMap(
		destination.Destination{Name: "SESSION", Path: "logs/custom_session.log"},
		destination.Destination{Name: "MASTER", Path: "logs/custom_master.log"},
		destination.Destination{Name: "ERROR", Path: "logs/custom_error.log"},
		destination.Destination{Name: "API", Path: "logs/api.log"},
		destination.Destination{Name: "NETWORK", Path: "logs/network.log"},
	)
	routing.Categories = router.CategoryMap{
		"default":  {"MASTER", "SESSION"},
		"error":    {"ERROR", "SESSION", "MASTER"},
		"api":      {"API", "SESSION", "MASTER"},
		"network":  {"NETWORK", "SESSION"},
		"security": {"ERROR", "MASTER", "API"},
		"all":      {"MASTER", "SESSION", "ERROR", "API", "NETWORK"},
	}
	s, err := env.open(routing)
	if err != nil {
		return err
	}
	s.log("!info", "Testing custom 'api' category", "api")
	s.log("!info", "Testing custom 'network' category", "network")
	s.log("!info", "Testing custom 'security' category", "security")

	validator := fsys.NewFolderValidator(fsys.NewOS(), s.logger)
	folder := filepath.Join(env.app.Config.LogDir, "test_custom_logs")
	if _, err := validator.ValidateAndCreate(folder, "security"); err != nil {
		s.fail(err)
	}
	return s.close()
}

// advancedCategories combines destinations into application-level categories.
var advancedCategories = router.CategoryMap{
	"default": {"MASTER", "SESSION"},
	"error":   {"ERROR", "SESSION", "MASTER"},
	"fs":      {"MASTER", "SESSION", "FS"},
	"init":    {"INIT", "SESSION", "MASTER"},

	"auth":        {"MASTER", "SESSION", "ERROR"},
	"business":    {"MASTER", "SESSION"},
	"performance": {"MASTER", "DEBUG"},

	"critical": {"ERROR", "MASTER", "SESSION", "DEBUG"},
	"verbose":  {"MASTER", "SESSION", "ERROR", "FS", "INIT", "DEBUG"},
}

// runInheritance swaps in combined categories on a running logger.
func runInheritance(_ context.Context, env *runEnv) error {
	s, err := env.open(env.app.Routing)
	if err != nil {
		return err
	}
	if err := s.logger.SetCategories(advancedCategories); err != nil {
		s.fail(err)
		return s.close()
	}
	s.log("!info", "Standard business operation", "business")
	s.log("!warn", "Authentication attempt", "auth")
	s.log("!calc", "Performance metric: 150ms", "performance")
	s.log("!error", "Critical system error", "critical")
	return s.close()
}

var modules = []string{"user_mgmt", "payment", "inventory", "reporting"}

// runDynamic adds a destination and two categories per module at runtime.
func runDynamic(_ context.Context, env *runEnv) error {
	s, err := env.open(env.app.Routing)
	if err != nil {
		return err
	}
	if err := s.logger.SetCategories(router.CategoryMap{
		"default": {"MASTER", "SESSION"},
		"error":   {"ERROR", "SESSION", "MASTER"},
	}); err != nil {
		s.fail(err)
		return s.close()
	}

	for _, m := range modules {
		key := strings.ToUpper(m)
		if err := s.logger.AddDestination(key, fmt.Sprintf("logs/%s.log", m)); err != nil {
			s.fail(err)
			continue
		}
		if err := s.logger.AddCategory(m, []string{"MASTER", "SESSION", key}); err != nil {
			s.fail(err)
		}
		if err := s.logger.AddCategory(m+"_error", []string{"ERROR", "SESSION", "MASTER", key}); err != nil {
			s.fail(err)
		}
	}
	for _, m := range modules {
		s.colourLog(m, "!info", "Module", "!calc", m, "!done", "initialized")
		s.log("!warn", fmt.Sprintf("Module %s warning", m), m+"_error")
	}
	return s.close()
}

// runBurst logs from many goroutines while categories are added and sinks
// reopened underneath them.
func runBurst(ctx context.Context, env *runEnv) error {
	s, err := env.open(env.app.Routing)
	if err != nil {
		return err
	}
	cfg := env.app.Config
	categories := append(env.app.Routing.Categories.Names(), "all", "unknown_category")
	mem := metrics.NewMemoryCollector()
	before := mem.Snapshot()

	startCalls, startFailed := env.calls.Load(), env.failed.Load()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers + 1)

	g.Go(func() error {
		for i := 0; i < cfg.Calls; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.logger.AddCategory(fmt.Sprintf("burst_%d", i), []string{"MASTER"}); err != nil {
				return err
			}
			if i == cfg.Calls/2 {
				if err := s.logger.Reopen(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			for i := 0; i < cfg.Calls; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				category := categories[(w+i)%len(categories)]
				s.record(s.logger.LogContext(ctx, "!proc", fmt.Sprintf("worker %d call %d", w, i), category))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s.abort(err)
	}

	env.memory = memoryLine(before, mem.Snapshot())
	s.log("!done", fmt.Sprintf("Burst finished: %d calls from %d workers, %d with failures",
		env.calls.Load()-startCalls, cfg.Workers, env.failed.Load()-startFailed), "default")
	return s.close()
}
