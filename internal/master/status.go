package master

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// statusRewriteInterval is REWRITE_TIME: the minimum spacing between two
// status-file writes.
const statusRewriteInterval = 5000 * time.Millisecond

// StatusEmitter rate-limits and serializes the registry into the
// configured JSON status file.
type StatusEmitter struct {
	path        string
	lastWrite   time.Time
	wroteOnce   bool
}

// NewStatusEmitter builds an emitter targeting path. An empty path
// disables emission entirely.
func NewStatusEmitter(path string) *StatusEmitter {
	return &StatusEmitter{path: path}
}

// Tick writes the status file if the registry is dirty, the rate limit
// has elapsed, and no delayed-write postponement is pending. A pending
// postponement is consumed by the tick that sees it and pushes the next
// write back by statusRewriteDelay milliseconds from that tick.
func (e *StatusEmitter) Tick(ctx *Context, now time.Time) {
	if e.path == "" {
		return
	}
	if !ctx.Registry.StatusDirty() {
		return
	}
	if ctx.needToWriteStatusDelayed {
		ctx.needToWriteStatusDelayed = false
		e.lastWrite = now.Add(statusRewriteDelay*time.Millisecond - statusRewriteInterval)
		e.wroteOnce = true
		return
	}
	if e.wroteOnce && now.Sub(e.lastWrite) < statusRewriteInterval {
		return
	}

	body := renderStatus(ctx.Registry)
	if err := writeAtomic(e.path, body); err != nil {
		slog.Error("writing status file failed", "path", e.path, "error", err)
		return
	}

	e.lastWrite = now
	e.wroteOnce = true
	ctx.Registry.ClearStatusDirty()
}

func writeAtomic(path string, body []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".status-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// renderStatus builds the status JSON object by hand: servers[] (skipping
// hidden servers), players[], authenticated[] (parallel to players,
// excluding hidden and debug clients), serverCount (listed servers only),
// playerCount (sum of each listed server's PlayerCount, not the
// authenticated-client count). Hand-rolled rather than encoding/json
// because the string-escaping rules are non-standard (HTML entities for
// &/</>, control characters dropped outright).
func renderStatus(reg *Registry) []byte {
	var b strings.Builder
	b.WriteByte('{')

	b.WriteString(`"servers":[`)
	first := true
	serverCount := 0
	playerCount := 0
	reg.IterateServers(func(c *Connection) {
		if c.IsHiddenFromList {
			return
		}
		serverCount++
		playerCount += c.PlayerCount
		if !first {
			b.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&b, `{"serverName":%s,"protocolVersion":%d,"currentLevelName":%s,"currentLevelType":%s,"playerCount":%d}`,
			jsonString(c.Name), c.CSProtocolVersion, jsonString(c.LevelName), jsonString(c.LevelType), c.PlayerCount)
	})
	b.WriteString(`],"players":[`)

	var authenticated []bool
	first = true
	reg.IterateClients(func(c *Connection) {
		if c.IsHiddenFromList || c.IsDebug {
			return
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(jsonString(c.Name))
		authenticated = append(authenticated, c.Authenticated)
	})
	b.WriteString(`],"authenticated":[`)
	for i, a := range authenticated {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatBool(a))
	}
	b.WriteString(`],"serverCount":`)
	b.WriteString(strconv.Itoa(serverCount))
	b.WriteString(`,"playerCount":`)
	b.WriteString(strconv.Itoa(playerCount))
	b.WriteByte('}')

	return []byte(b.String())
}

// jsonString escapes s per the status file's rules and wraps it in
// quotes: ", \, \b, \f, \n, \r, \t become backslash escapes; &, <, >
// become HTML entities; control characters 0x01-0x1F are dropped.
func jsonString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			if r >= 0x01 && r <= 0x1F {
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
