// Package db provides the PostgreSQL-backed CredentialVerifier and
// StatsStore implementations consumed by internal/master.Context, plus the
// connection-pool and migration plumbing shared by both.
package db

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bitfighter-go/masterd/internal/master"
	"github.com/bitfighter-go/masterd/internal/model"
)

// DB wraps a pgx connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a DB handle.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (d *DB) Close() { d.pool.Close() }

// Pool returns the underlying pgx pool, from which the credential and
// stats stores are built.
func (d *DB) Pool() *pgxpool.Pool { return d.pool }

// HashPassword hashes a password with SHA-256 and returns its Base64
// encoding, for comparison against the stored password_hash column.
func HashPassword(password string) string {
	h := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(h[:])
}

// CredentialStore implements master.CredentialVerifier against the
// accounts table. A handle with no matching row auto-creates the account
// on first connect (mirroring an operator running an open master with no
// separate registration flow), matching the original's forgiving login
// behavior rather than rejecting unknown handles outright.
type CredentialStore struct {
	pool *pgxpool.Pool
}

// NewCredentialStore builds a CredentialStore over pool.
func NewCredentialStore(pool *pgxpool.Pool) *CredentialStore {
	return &CredentialStore{pool: pool}
}

// VerifyCredentials checks handle/password, auto-creating the account on
// first sight, and returns the account's canonical-cased login alongside
// the status.
func (s *CredentialStore) VerifyCredentials(ctx context.Context, handle, password string) (master.AuthStatus, string, error) {
	if strings.TrimSpace(handle) == "" {
		return master.AuthInvalidUsername, "", nil
	}

	acc, err := s.getAccount(ctx, handle)
	if err != nil {
		return master.AuthCantConnect, "", err
	}

	hash := HashPassword(password)
	if acc == nil {
		if err := s.createAccount(ctx, handle, hash); err != nil {
			return master.AuthCantConnect, "", err
		}
		return master.AuthAuthenticated, handle, nil
	}

	if acc.PasswordHash != hash {
		return master.AuthWrongPassword, acc.Login, nil
	}

	if err := s.touchLastActive(ctx, acc.Login); err != nil {
		return master.AuthCantConnect, "", err
	}
	return master.AuthAuthenticated, acc.Login, nil
}

// FetchBadgesAndGames returns the account's stored badge bitset and
// games-played counter.
func (s *CredentialStore) FetchBadgesAndGames(ctx context.Context, handle string) (uint32, int, error) {
	acc, err := s.getAccount(ctx, handle)
	if err != nil {
		return 0, 0, err
	}
	if acc == nil {
		return 0, 0, nil
	}
	return acc.Badges, acc.GamesPlayed, nil
}

func (s *CredentialStore) getAccount(ctx context.Context, login string) (*model.Account, error) {
	var acc model.Account
	err := s.pool.QueryRow(ctx,
		`SELECT login, password_hash, badges, games_played, last_ip, last_active
		 FROM accounts WHERE login_lower = $1`, strings.ToLower(login),
	).Scan(&acc.Login, &acc.PasswordHash, &acc.Badges, &acc.GamesPlayed, &acc.LastIP, &acc.LastActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", login, err)
	}
	return &acc, nil
}

func (s *CredentialStore) createAccount(ctx context.Context, login, passwordHash string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (login, login_lower, password_hash, badges, games_played, last_active)
		 VALUES ($1, $2, $3, 0, 0, $4)
		 ON CONFLICT (login_lower) DO NOTHING`,
		login, strings.ToLower(login), passwordHash, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("creating account %q: %w", login, err)
	}
	return nil
}

func (s *CredentialStore) touchLastActive(ctx context.Context, login string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE accounts SET last_active = $1 WHERE login_lower = $2`,
		time.Now(), strings.ToLower(login),
	)
	if err != nil {
		return fmt.Errorf("updating last_active for %q: %w", login, err)
	}
	return nil
}
