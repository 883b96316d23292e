// Command ideaserver runs the idea-diffusion simulation manager: it
// creates one default world from environment configuration, starts its
// tick loop, and periodically archives snapshots and stats until an
// interrupt signal asks it to shut down cleanly.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/RonniRodriguez/idea-inc/internal/control"
	"github.com/RonniRodriguez/idea-inc/internal/entropy"
	"github.com/RonniRodriguez/idea-inc/internal/httpapi"
	"github.com/RonniRodriguez/idea-inc/internal/mutation"
	"github.com/RonniRodriguez/idea-inc/internal/persistence"
	"github.com/RonniRodriguez/idea-inc/internal/simmanager"
	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
	"github.com/RonniRodriguez/idea-inc/internal/simworld"
	"github.com/RonniRodriguez/idea-inc/internal/trend"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("idea diffusion simulation manager starting")

	maxConcurrentWorlds := envInt("IDEA_MAX_CONCURRENT_WORLDS", simmanager.DefaultMaxConcurrentWorlds)
	defaultPopulationSize := envInt("IDEA_DEFAULT_POPULATION_SIZE", 1000)
	simulationTickMs := envInt("IDEA_TICK_MS", 250)

	// ── Mutation provider ──────────────────────────────────────────────
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	llmClient := mutation.NewLLMClient(anthropicKey)
	var mutator mutation.Provider = mutation.Deterministic{}
	if llmClient != nil {
		slog.Info("LLM-backed mutation provider enabled (Haiku)")
		mutator = mutation.NewLLMBacked(llmClient)
	} else {
		slog.Info("ANTHROPIC_API_KEY not set — mutation uses the deterministic built-in only")
	}

	// ── World-seed entropy source (optional) ────────────────────────────
	entropyClient := entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY"))
	if entropyClient != nil {
		slog.Info("random.org entropy source enabled for world seeding")
	}

	// ── Trend signal client (optional, diagnostic only) ─────────────────
	trendClient := trend.NewClient(os.Getenv("TREND_API_KEY"))
	if trendClient != nil {
		slog.Info("trend signal client enabled (diagnostic, never feeds propagation)")
	} else {
		slog.Info("TREND_API_KEY not set — world.LastTrendSignal stays empty")
	}

	// ── Archive database (optional) ────────────────────────────────────
	dbPath := os.Getenv("IDEA_DB_PATH")
	var db *persistence.DB
	if dbPath != "" {
		os.MkdirAll("data", 0755)
		var err error
		db, err = persistence.Open(dbPath)
		if err != nil {
			slog.Error("failed to open archive database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("archive database opened", "path", dbPath)
	} else {
		slog.Info("IDEA_DB_PATH not set — running without an archive")
	}

	manager := simmanager.New(maxConcurrentWorlds, mutator, entropyClient, trendClient)
	surface := control.New(manager)

	// ── A default world, so the server has something to serve on boot ──
	w, err := surface.CreateWorld(control.CreateWorldRequest{
		Name:        "default",
		Description: "default world created at startup",
		CreatorID:   "system",
		IsPublic:    true,
		Config: simworld.Config{
			PopulationSize: defaultPopulationSize,
			NetworkType:    simworld.NetworkSmallWorld,
			NetworkDensity: 0.1,
			MutationRate:   0.05,
			DecayRate:      0.01,
			TimeStepMs:     simulationTickMs,
		},
	})
	if err != nil {
		slog.Error("failed to create default world", "error", err)
		os.Exit(1)
	}
	slog.Info("default world created", "world_id", w.ID, "population", w.PopulationSize())

	if err := manager.StartWorld(w.ID); err != nil {
		slog.Error("failed to start default world", "error", err)
		os.Exit(1)
	}

	// ── Periodic archival ───────────────────────────────────────────────
	stopArchival := make(chan struct{})
	if db != nil {
		go runArchival(db, manager, w.ID, stopArchival)
	}

	// ── HTTP control surface ─────────────────────────────────────────────
	adminKey := os.Getenv("IDEA_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("IDEA_ADMIN_KEY not set — mutating HTTP endpoints are disabled")
	}
	limiter := httpapi.NewRateLimiter(30, time.Minute)
	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(envInt("IDEA_HTTP_PORT", 8080)),
		Handler: httpapi.NewServer(surface, adminKey, limiter),
	}
	go func() {
		slog.Info("http control surface listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
		}
	}()

	// ── Signal handling ─────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	_ = httpServer.Close()
	close(stopArchival)
	manager.Shutdown()

	slog.Info("idea diffusion simulation manager stopped")
}

// runArchival periodically snapshots a world and saves its recent spread
// events and stats until stop is closed. Archival failures are logged,
// never fatal — matching the teacher's "log and continue" save policy.
func runArchival(db *persistence.DB, manager *simmanager.Manager, worldID simmodel.WorldID, stop chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	var lastArchivedStep uint64

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w, err := manager.GetWorld(worldID)
			if err != nil {
				return
			}

			snap := w.Snapshot()
			if err := db.SaveSnapshot(snap); err != nil {
				slog.Error("archive: save snapshot failed", "error", err)
			}
			if err := db.SaveStats(worldID, w.Stats()); err != nil {
				slog.Error("archive: save stats failed", "error", err)
			}

			events := w.RecentEvents(0)
			var fresh []simworld.SpreadEvent
			for _, e := range events {
				if e.Step > lastArchivedStep {
					fresh = append(fresh, e)
				}
			}
			if len(fresh) > 0 {
				if err := db.SaveEvents(worldID, fresh); err != nil {
					slog.Error("archive: save events failed", "error", err)
				}
				lastArchivedStep = snap.Step
			}
		}
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
