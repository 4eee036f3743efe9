// Package gamestats decodes and re-encodes the versioned game-stats blob
// that servers submit with SendStatistics. The master treats the blob as
// opaque wire traffic everywhere except here: this is the one place it
// looks inside, so it can rewrite each player's authenticated flag against
// the live client list and stamp the submitting server's identity before
// the blob is handed to storage.
//
// The record shapes mirror the original master's GameStats/TeamStats/
// PlayerStats (server/database.h): a team game has one or more teams, each
// with a roster of players and a per-player result line.
package gamestats

import (
	"fmt"

	"github.com/bitfighter-go/masterd/internal/wire"
)

const statsBlobVersion = 1

// PlayerStats is one player's line in a team's roster. Nonce identifies
// the player for the authenticated-flag rewrite; it is never persisted.
type PlayerStats struct {
	Name            string
	Nonce           uint64
	IsAuthenticated bool
	IsRobot         bool
	Result          string
	Points          int
	Kills           int
	Deaths          int
	Suicides        int
	SwitchedTeams   bool
}

// TeamStats is one team's roster and outcome.
type TeamStats struct {
	Color       string
	Name        string
	PlayerCount int
	BotCount    int
	Result      string
	Players     []PlayerStats
}

// GameStats is one complete match report. Decode reads ServerName and
// ServerVersion from the blob like every other field; the master overwrites
// them with the submitting server's values before the blob is persisted.
type GameStats struct {
	ServerName    string
	ServerVersion int

	GameType    string
	LevelName   string
	IsOfficial  bool
	PlayerCount int
	DurationSec int
	IsTeamGame  bool
	TeamCount   int
	IsTied      bool
	Teams       []TeamStats
}

// Decode parses a SendStatistics blob. An unrecognized version is rejected
// rather than guessed at.
func Decode(blob []byte) (GameStats, error) {
	r := wire.NewReader(blob)
	var g GameStats

	version, err := r.ReadUint8()
	if err != nil {
		return g, fmt.Errorf("reading stats blob version: %w", err)
	}
	if version != statsBlobVersion {
		return g, fmt.Errorf("unsupported stats blob version %d", version)
	}

	if g.ServerName, err = r.ReadString(); err != nil {
		return g, err
	}
	serverVersion, err := r.ReadInt()
	if err != nil {
		return g, err
	}
	g.ServerVersion = serverVersion

	if g.GameType, err = r.ReadString(); err != nil {
		return g, err
	}
	if g.LevelName, err = r.ReadString(); err != nil {
		return g, err
	}
	if g.IsOfficial, err = r.ReadBool(); err != nil {
		return g, err
	}
	if g.PlayerCount, err = r.ReadInt(); err != nil {
		return g, err
	}
	if g.DurationSec, err = r.ReadInt(); err != nil {
		return g, err
	}
	if g.IsTeamGame, err = r.ReadBool(); err != nil {
		return g, err
	}
	if g.TeamCount, err = r.ReadInt(); err != nil {
		return g, err
	}
	if g.IsTied, err = r.ReadBool(); err != nil {
		return g, err
	}

	teamCount, err := r.ReadUint8()
	if err != nil {
		return g, err
	}
	if teamCount > 0 {
		g.Teams = make([]TeamStats, 0, teamCount)
	}
	for i := uint8(0); i < teamCount; i++ {
		t, err := decodeTeam(r)
		if err != nil {
			return g, err
		}
		g.Teams = append(g.Teams, t)
	}
	return g, nil
}

func decodeTeam(r *wire.Reader) (TeamStats, error) {
	var t TeamStats
	var err error
	if t.Color, err = r.ReadString(); err != nil {
		return t, err
	}
	if t.Name, err = r.ReadString(); err != nil {
		return t, err
	}
	if t.PlayerCount, err = r.ReadInt(); err != nil {
		return t, err
	}
	if t.BotCount, err = r.ReadInt(); err != nil {
		return t, err
	}
	if t.Result, err = r.ReadString(); err != nil {
		return t, err
	}

	playerCount, err := r.ReadUint8()
	if err != nil {
		return t, err
	}
	t.Players = make([]PlayerStats, 0, playerCount)
	for i := uint8(0); i < playerCount; i++ {
		p, err := decodePlayer(r)
		if err != nil {
			return t, err
		}
		t.Players = append(t.Players, p)
	}
	return t, nil
}

func decodePlayer(r *wire.Reader) (PlayerStats, error) {
	var p PlayerStats
	var err error
	if p.Name, err = r.ReadString(); err != nil {
		return p, err
	}
	if p.Nonce, err = r.ReadUint64(); err != nil {
		return p, err
	}
	if p.IsAuthenticated, err = r.ReadBool(); err != nil {
		return p, err
	}
	if p.IsRobot, err = r.ReadBool(); err != nil {
		return p, err
	}
	if p.Result, err = r.ReadString(); err != nil {
		return p, err
	}
	if p.Points, err = r.ReadInt(); err != nil {
		return p, err
	}
	if p.Kills, err = r.ReadInt(); err != nil {
		return p, err
	}
	if p.Deaths, err = r.ReadInt(); err != nil {
		return p, err
	}
	if p.Suicides, err = r.ReadInt(); err != nil {
		return p, err
	}
	if p.SwitchedTeams, err = r.ReadBool(); err != nil {
		return p, err
	}
	return p, nil
}

// Encode re-serializes a GameStats, used to re-stamp the blob before it is
// persisted.
func Encode(g GameStats) []byte {
	w := &wire.Writer{}
	w.WriteUint8(statsBlobVersion)
	w.WriteString(g.ServerName)
	w.WriteInt(g.ServerVersion)
	w.WriteString(g.GameType)
	w.WriteString(g.LevelName)
	w.WriteBool(g.IsOfficial)
	w.WriteInt(g.PlayerCount)
	w.WriteInt(g.DurationSec)
	w.WriteBool(g.IsTeamGame)
	w.WriteInt(g.TeamCount)
	w.WriteBool(g.IsTied)
	w.WriteUint8(uint8(len(g.Teams)))
	for _, t := range g.Teams {
		w.WriteString(t.Color)
		w.WriteString(t.Name)
		w.WriteInt(t.PlayerCount)
		w.WriteInt(t.BotCount)
		w.WriteString(t.Result)
		w.WriteUint8(uint8(len(t.Players)))
		for _, p := range t.Players {
			w.WriteString(p.Name)
			w.WriteUint64(p.Nonce)
			w.WriteBool(p.IsAuthenticated)
			w.WriteBool(p.IsRobot)
			w.WriteString(p.Result)
			w.WriteInt(p.Points)
			w.WriteInt(p.Kills)
			w.WriteInt(p.Deaths)
			w.WriteInt(p.Suicides)
			w.WriteBool(p.SwitchedTeams)
		}
	}
	return w.Bytes()
}
