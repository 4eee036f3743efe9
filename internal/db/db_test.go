package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bitfighter-go/masterd/internal/gamestats"
	"github.com/bitfighter-go/masterd/internal/master"
	"github.com/bitfighter-go/masterd/internal/wire"
)

var testPool *pgxpool.Pool

// TestMain starts one PostgreSQL container and runs migrations against it
// for every test in this package; individual tests truncate the tables
// they touch for isolation instead of each paying container startup cost.
func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Fatalf("starting postgres container: %v", err)
	}
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("getting container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("getting container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	if err := RunMigrations(ctx, dsn); err != nil {
		log.Fatalf("running migrations: %v", err)
	}

	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connecting to test db: %v", err)
	}
	defer testPool.Close()

	os.Exit(m.Run())
}

func truncateAll(t *testing.T) {
	t.Helper()
	for _, table := range []string{"player_game_stats", "game_stats", "level_info", "accounts"} {
		_, err := testPool.Exec(context.Background(), "TRUNCATE "+table+" CASCADE")
		require.NoError(t, err)
	}
}

func TestCredentialStoreAutoCreatesAccountOnFirstLogin(t *testing.T) {
	truncateAll(t)
	store := NewCredentialStore(testPool)

	status, canonical, err := store.VerifyCredentials(context.Background(), "Alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, master.AuthAuthenticated, status)
	require.Equal(t, "Alice", canonical)

	status, canonical, err = store.VerifyCredentials(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, master.AuthAuthenticated, status)
	require.Equal(t, "Alice", canonical, "second login returns the canonical case the account was created with")
}

func TestCredentialStoreRejectsWrongPassword(t *testing.T) {
	truncateAll(t)
	store := NewCredentialStore(testPool)

	_, _, err := store.VerifyCredentials(context.Background(), "bob", "correct-horse")
	require.NoError(t, err)

	status, _, err := store.VerifyCredentials(context.Background(), "bob", "wrong-password")
	require.NoError(t, err)
	require.Equal(t, master.AuthWrongPassword, status)
}

func TestCredentialStoreRejectsEmptyHandle(t *testing.T) {
	truncateAll(t)
	store := NewCredentialStore(testPool)

	status, _, err := store.VerifyCredentials(context.Background(), "   ", "anything")
	require.NoError(t, err)
	require.Equal(t, master.AuthInvalidUsername, status)
}

func TestStatsStoreHighScores(t *testing.T) {
	truncateAll(t)
	store := NewStatsStore(testPool)

	blob := gamestats.Encode(gamestats.GameStats{
		ServerName:  "Alpha",
		GameType:    "Bitmatch",
		LevelName:   "Bedlam",
		PlayerCount: 2,
		Teams: []gamestats.TeamStats{
			{
				Name: "neutral",
				Players: []gamestats.PlayerStats{
					{Name: "winner", IsAuthenticated: true, Result: "W", Points: 10, Kills: 5, Deaths: 1},
					{Name: "loser", IsAuthenticated: true, Result: "L", Points: 2, Kills: 1, Deaths: 5},
				},
			},
		},
	})
	require.NoError(t, store.InsertGameStats(context.Background(), blob))

	groupNames, names, scores, err := store.HighScores(context.Background(), 5)
	require.NoError(t, err)
	require.Contains(t, groupNames, "Most Wins")
	require.Contains(t, names, "winner")
	require.NotEmpty(t, scores)
}

func TestStatsStoreInsertLevelInfoUpserts(t *testing.T) {
	truncateAll(t)
	store := NewStatsStore(testPool)

	info := wire.SendLevelInfo{LevelHash: "hash1", LevelName: "Bedlam", Creator: "watusimoto", GameType: "Bitmatch", TeamCount: 2, WinningScore: 10, DurationSec: 600}
	require.NoError(t, store.InsertLevelInfo(context.Background(), info))

	info.LevelName = "Bedlam Redux"
	require.NoError(t, store.InsertLevelInfo(context.Background(), info))

	var name string
	err := testPool.QueryRow(context.Background(), "SELECT level_name FROM level_info WHERE level_hash = $1", "hash1").Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "Bedlam Redux", name)
}
