package master

import (
	"context"
	"net/netip"
	"time"

	"github.com/bitfighter-go/masterd/internal/config"
	"github.com/bitfighter-go/masterd/internal/wire"
)

func netipZero() netip.AddrPort {
	return netip.MustParseAddrPort("127.0.0.1:1")
}

// testConfig returns a Master config suitable for unit tests.
func testConfig() config.Master {
	cfg := config.Default()
	cfg.MasterName = "Test Master"
	return cfg
}

// fakeClock is a manually advanced Clock for deterministic tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1700000000, 0)} }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeOutbound records every Send/Disconnect for assertion.
type fakeOutbound struct {
	sent         []sentMessage
	disconnected []disconnected
}

type sentMessage struct {
	id  ConnID
	msg wire.Message
}

type disconnected struct {
	id     ConnID
	reason DisconnectReason
}

func (o *fakeOutbound) Send(id ConnID, msg wire.Message) {
	o.sent = append(o.sent, sentMessage{id: id, msg: msg})
}

func (o *fakeOutbound) Disconnect(id ConnID, reason DisconnectReason) {
	o.disconnected = append(o.disconnected, disconnected{id: id, reason: reason})
}

func (o *fakeOutbound) messagesTo(id ConnID) []wire.Message {
	var out []wire.Message
	for _, s := range o.sent {
		if s.id == id {
			out = append(out, s.msg)
		}
	}
	return out
}

// fakeCredentials is a scripted CredentialVerifier.
type fakeCredentials struct {
	status      AuthStatus
	canonical   string
	badges      uint32
	gamesPlayed int
	err         error
}

func (f *fakeCredentials) VerifyCredentials(ctx context.Context, handle, password string) (AuthStatus, string, error) {
	canonical := f.canonical
	if canonical == "" {
		canonical = handle
	}
	return f.status, canonical, f.err
}

func (f *fakeCredentials) FetchBadgesAndGames(ctx context.Context, handle string) (uint32, int, error) {
	return f.badges, f.gamesPlayed, f.err
}

// fakeStats is a scripted StatsStore.
type fakeStats struct {
	groupNames []string
	names      []string
	scores     []string
	err        error

	insertedStats        []byte
	insertedLevel        []wire.SendLevelInfo
	insertedAchievements []insertedAchievement
}

type insertedAchievement struct {
	achievementID int
	playerNick    string
	serverName    string
	address       string
}

func (f *fakeStats) InsertGameStats(ctx context.Context, blob []byte) error {
	f.insertedStats = blob
	return nil
}

func (f *fakeStats) InsertLevelInfo(ctx context.Context, info wire.SendLevelInfo) error {
	f.insertedLevel = append(f.insertedLevel, info)
	return nil
}

func (f *fakeStats) InsertAchievement(ctx context.Context, achievementID int, playerNick, serverName, address string) error {
	f.insertedAchievements = append(f.insertedAchievements, insertedAchievement{
		achievementID: achievementID, playerNick: playerNick, serverName: serverName, address: address,
	})
	return nil
}

func (f *fakeStats) HighScores(ctx context.Context, scoresPerGroup int) ([]string, []string, []string, error) {
	return f.groupNames, f.names, f.scores, f.err
}

// drainWorker gives the worker goroutine a moment to run and finish every
// currently enqueued task, for tests that don't want to race it. Fake
// stores used in these tests do no real I/O, so a short sleep is enough.
func drainWorker(mc *Context) {
	time.Sleep(20 * time.Millisecond)
	mc.Worker.Drain(mc)
}
