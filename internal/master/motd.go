package master

import (
	"strconv"

	"github.com/bitfighter-go/masterd/internal/wire"
)

// sendMOTD sends SetMOTD for the connecting client's build, at the end of
// a successful client handshake.
func sendMOTD(ctx *Context, id ConnID, clientBuild int) {
	ctx.Outbound.Send(id, wire.SetMOTD{
		MasterName: ctx.Config.MasterName,
		MOTD:       ctx.Config.MOTDFor(buildKey(clientBuild)),
	})
}

// sendUpgradeStatus tells the client whether its build lags the latest
// released build.
func sendUpgradeStatus(ctx *Context, id ConnID, clientBuild int) {
	ctx.Outbound.Send(id, wire.UpgradeStatus{
		NeedsUpgrade: ctx.Config.LatestBuildVersion > 0 && clientBuild < ctx.Config.LatestBuildVersion,
	})
}

func buildKey(clientBuild int) string {
	if clientBuild <= 0 {
		return ""
	}
	return strconv.Itoa(clientBuild)
}
