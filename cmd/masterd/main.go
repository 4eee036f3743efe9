package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/bitfighter-go/masterd/internal/config"
	"github.com/bitfighter-go/masterd/internal/db"
	"github.com/bitfighter-go/masterd/internal/gamestats"
	"github.com/bitfighter-go/masterd/internal/master"
	"github.com/bitfighter-go/masterd/internal/transport"
	"github.com/bitfighter-go/masterd/internal/wire"
)

const configPathEnv = "MASTERD_CONFIG"

func main() {
	testdbName := flag.String("testdb", "", "insert a fixture set of stats records against the named server and exit")
	configPath := flag.String("config", "config/masterd.yaml", "path to the YAML config file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, *configPath, *testdbName); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, testdbName string) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	slog.Info("masterd starting")

	path := configPath
	if p := os.Getenv(configPathEnv); p != "" {
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.Info("config loaded", "bind", cfg.BindAddress, "port", cfg.Port)

	// Credential and stats databases are independent; bring both up
	// concurrently instead of paying their connect+migrate latency twice.
	var credDB, statsDB *db.DB
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opened, err := db.New(gctx, cfg.CredentialDatabase.DSN())
		if err != nil {
			return fmt.Errorf("connecting to credential database: %w", err)
		}
		if err := db.RunMigrations(gctx, cfg.CredentialDatabase.DSN()); err != nil {
			opened.Close()
			return fmt.Errorf("running credential database migrations: %w", err)
		}
		credDB = opened
		return nil
	})
	g.Go(func() error {
		opened, err := db.New(gctx, cfg.StatsDatabase.DSN())
		if err != nil {
			return fmt.Errorf("connecting to stats database: %w", err)
		}
		if err := db.RunMigrations(gctx, cfg.StatsDatabase.DSN()); err != nil {
			opened.Close()
			return fmt.Errorf("running stats database migrations: %w", err)
		}
		statsDB = opened
		return nil
	})
	if err := g.Wait(); err != nil {
		if credDB != nil {
			credDB.Close()
		}
		if statsDB != nil {
			statsDB.Close()
		}
		return err
	}
	defer credDB.Close()
	defer statsDB.Close()
	slog.Info("database migrations applied")

	statsStore := db.NewStatsStore(statsDB.Pool())

	if testdbName != "" {
		return runTestDB(ctx, statsStore, testdbName)
	}

	credStore := db.NewCredentialStore(credDB.Pool())

	ln, err := transport.Listen(fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port))
	if err != nil {
		return fmt.Errorf("listening on %s:%d: %w", cfg.BindAddress, cfg.Port, err)
	}
	defer ln.Close()
	slog.Info("listening", "addr", ln.Addr())

	server := master.NewServer(cfg, master.RealClock{}, credStore, statsStore, ln)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("running server: %w", err)
	}
	return nil
}

// runTestDB inserts a representative set of fixture records — a game
// report, a level-info submission and an achievement — against
// serverName and exits, exercising StatsStore without standing up the
// dispatch loop.
func runTestDB(ctx context.Context, store *db.StatsStoreImpl, serverName string) error {
	slog.Info("running stats store self-test", "server", serverName)

	blob := gamestats.Encode(gamestats.GameStats{
		ServerName:    serverName,
		ServerVersion: 1,
		GameType:      "Bitmatch",
		LevelName:     "Fixture Level",
		IsOfficial:    true,
		PlayerCount:   2,
		DurationSec:   300,
		IsTeamGame:    false,
		TeamCount:     1,
		IsTied:        false,
		Teams: []gamestats.TeamStats{
			{
				Color:       "Neutral",
				Name:        "Neutral",
				PlayerCount: 2,
				Result:      "W",
				Players: []gamestats.PlayerStats{
					{Name: "fixture-winner", IsAuthenticated: true, Result: "W", Points: 10, Kills: 5, Deaths: 1},
					{Name: "fixture-loser", IsAuthenticated: true, Result: "L", Points: 3, Kills: 1, Deaths: 5},
				},
			},
		},
	})
	if err := store.InsertGameStats(ctx, blob); err != nil {
		return fmt.Errorf("inserting fixture game stats: %w", err)
	}

	if err := store.InsertLevelInfo(ctx, wire.SendLevelInfo{
		LevelHash:    "fixture-hash",
		LevelName:    "Fixture Level",
		Creator:      "fixture-creator",
		GameType:     "Bitmatch",
		TeamCount:    1,
		WinningScore: 10,
		DurationSec:  300,
	}); err != nil {
		return fmt.Errorf("inserting fixture level info: %w", err)
	}

	if err := store.InsertAchievement(ctx, 1, "fixture-winner", serverName, "99.99.99.99:9999"); err != nil {
		return fmt.Errorf("inserting fixture achievement: %w", err)
	}

	slog.Info("stats store self-test complete")
	return nil
}
