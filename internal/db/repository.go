package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bitfighter-go/masterd/internal/gamestats"
	"github.com/bitfighter-go/masterd/internal/wire"
)

// highScoreGroups names the five fixed leaderboards computed from
// player_game_stats. Order is the order groups are returned in.
var highScoreGroups = []string{
	"Most Wins",
	"Most Kills",
	"Highest Rating",
	"Most Games Played",
	"Best Kill/Death Ratio",
}

// StatsStoreImpl implements master.StatsStore against the stats database:
// the raw submitted blob is archived as-is, and each player's line is also
// unpacked into player_game_stats so high scores can be computed with
// plain aggregate queries instead of re-decoding blobs at read time.
type StatsStoreImpl struct {
	pool *pgxpool.Pool
}

// NewStatsStore builds a StatsStoreImpl over pool.
func NewStatsStore(pool *pgxpool.Pool) *StatsStoreImpl {
	return &StatsStoreImpl{pool: pool}
}

// InsertGameStats archives the submitted blob and fans its player lines
// out into player_game_stats for the high-score queries.
func (s *StatsStoreImpl) InsertGameStats(ctx context.Context, blob []byte) error {
	stats, err := gamestats.Decode(blob)
	if err != nil {
		return fmt.Errorf("decoding game stats blob for storage: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning game stats transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var gameID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO game_stats (server_name, server_version, game_type, level_name,
		                         is_official, player_count, duration_sec, is_team_game,
		                         is_tied, raw_blob, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		stats.ServerName, stats.ServerVersion, stats.GameType, stats.LevelName,
		stats.IsOfficial, stats.PlayerCount, stats.DurationSec, stats.IsTeamGame,
		stats.IsTied, blob, time.Now(),
	).Scan(&gameID)
	if err != nil {
		return fmt.Errorf("inserting game stats row: %w", err)
	}

	for _, team := range stats.Teams {
		for _, p := range team.Players {
			if p.IsRobot {
				continue
			}
			won := p.Result == "W"
			_, err := tx.Exec(ctx,
				`INSERT INTO player_game_stats
				 (game_id, player_name, is_authenticated, won, points, kills, deaths, suicides)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				gameID, p.Name, p.IsAuthenticated, won, p.Points, p.Kills, p.Deaths, p.Suicides,
			)
			if err != nil {
				return fmt.Errorf("inserting player game stats row: %w", err)
			}
			if p.IsAuthenticated {
				if _, err := tx.Exec(ctx,
					`UPDATE accounts SET games_played = games_played + 1 WHERE login_lower = lower($1)`,
					p.Name,
				); err != nil {
					return fmt.Errorf("incrementing games_played for %q: %w", p.Name, err)
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing game stats transaction: %w", err)
	}
	return nil
}

// InsertLevelInfo persists one level-metadata submission.
func (s *StatsStoreImpl) InsertLevelInfo(ctx context.Context, info wire.SendLevelInfo) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO level_info
		 (level_hash, level_name, creator, game_type, team_count, winning_score, duration_sec, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (level_hash) DO UPDATE SET
		   level_name = EXCLUDED.level_name,
		   creator = EXCLUDED.creator,
		   game_type = EXCLUDED.game_type,
		   team_count = EXCLUDED.team_count,
		   winning_score = EXCLUDED.winning_score,
		   duration_sec = EXCLUDED.duration_sec,
		   received_at = EXCLUDED.received_at`,
		info.LevelHash, info.LevelName, info.Creator, info.GameType,
		info.TeamCount, info.WinningScore, info.DurationSec, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("inserting level info %q: %w", info.LevelName, err)
	}
	return nil
}

// InsertAchievement persists one achievement submission, identified by the
// reporting server's name and address since the submitting server -- not
// the player -- is the authenticated party on this connection.
func (s *StatsStoreImpl) InsertAchievement(ctx context.Context, achievementID int, playerNick, serverName, address string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO achievements (achievement_id, player_nick, server_name, address, received_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		achievementID, playerNick, serverName, address, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("inserting achievement for %q: %w", playerNick, err)
	}
	return nil
}

// HighScores computes the five fixed leaderboards, each truncated to
// scoresPerGroup entries.
func (s *StatsStoreImpl) HighScores(ctx context.Context, scoresPerGroup int) ([]string, []string, []string, error) {
	queries := []string{
		`SELECT player_name, (COUNT(*) FILTER (WHERE won))::text AS score
		 FROM player_game_stats GROUP BY player_name ORDER BY COUNT(*) FILTER (WHERE won) DESC LIMIT $1`,
		`SELECT player_name, SUM(kills)::text AS score
		 FROM player_game_stats GROUP BY player_name ORDER BY SUM(kills) DESC LIMIT $1`,
		`SELECT player_name, SUM(points)::text AS score
		 FROM player_game_stats GROUP BY player_name ORDER BY SUM(points) DESC LIMIT $1`,
		`SELECT player_name, COUNT(*)::text AS score
		 FROM player_game_stats GROUP BY player_name ORDER BY COUNT(*) DESC LIMIT $1`,
		`SELECT player_name,
		        ROUND(SUM(kills)::numeric / GREATEST(SUM(deaths), 1), 2)::text AS score
		 FROM player_game_stats GROUP BY player_name
		 HAVING SUM(kills) + SUM(deaths) > 0
		 ORDER BY SUM(kills)::numeric / GREATEST(SUM(deaths), 1) DESC LIMIT $1`,
	}

	var groupNames, names, scores []string
	for i, q := range queries {
		rows, err := s.pool.Query(ctx, q, scoresPerGroup)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("running high score query %q: %w", highScoreGroups[i], err)
		}
		for rows.Next() {
			var name, score string
			if err := rows.Scan(&name, &score); err != nil {
				rows.Close()
				return nil, nil, nil, fmt.Errorf("scanning high score row for %q: %w", highScoreGroups[i], err)
			}
			groupNames = append(groupNames, highScoreGroups[i])
			names = append(names, name)
			scores = append(scores, score)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("iterating high score rows for %q: %w", highScoreGroups[i], err)
		}
	}
	return groupNames, names, scores, nil
}
