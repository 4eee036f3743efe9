package wire

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectRequestRoundTripClient(t *testing.T) {
	addr := netip.MustParseAddrPort("10.0.0.5:5000")
	msg := ConnectRequest{
		MasterProtocolVersion: 7,
		CSProtocolVersion:     40,
		ClientBuild:           123,
		Role:                  RoleClient,
		AutoDetectString:      "auto",
		Handle:                "bob ",
		Password:              "hunter2",
		IsDebug:               true,
		PlayerID:              0xdeadbeefcafebabe,
		InternalAddress:       addr,
	}

	decoded, err := Decode(Encode(msg))
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
}

func TestConnectRequestRoundTripServer(t *testing.T) {
	msg := ConnectRequest{
		MasterProtocolVersion: 6,
		CSProtocolVersion:     40,
		ClientBuild:           123,
		Role:                  RoleServer,
		ServerName:            "Alpha",
		ServerDescription:     "a test server",
		LevelName:             "L1",
		LevelType:             "CTF",
		BotCount:              1,
		PlayerCount:           3,
		MaxPlayers:            8,
		InfoFlags:             0x01,
	}

	decoded, err := Decode(Encode(msg))
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
}

func TestQueryServersResponseRoundTrip(t *testing.T) {
	msg := QueryServersResponse{
		QueryID: 42,
		Addresses: []netip.AddrPort{
			netip.MustParseAddrPort("6.7.8.9:28000"),
			netip.MustParseAddrPort("1.2.3.4:5001"),
		},
	}
	decoded, err := Decode(Encode(msg))
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
}

func TestQueryServersResponseEmptyRoundTrip(t *testing.T) {
	msg := QueryServersResponse{QueryID: 1, Addresses: nil}
	decoded, err := Decode(Encode(msg))
	require.NoError(t, err)
	got := decoded.(QueryServersResponse)
	require.Equal(t, uint32(1), got.QueryID)
	require.Empty(t, got.Addresses)
}

func TestSendHighScoresRoundTrip(t *testing.T) {
	msg := SendHighScores{
		GroupNames: []string{"Wins", "Kills"},
		Names:      []string{"Alice", "Bob"},
		Scores:     []string{"10", "20"},
	}
	decoded, err := Decode(Encode(msg))
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
}

func TestNoPayloadMessages(t *testing.T) {
	decoded, err := Decode(Encode(JoinGlobalChat{}))
	require.NoError(t, err)
	require.Equal(t, JoinGlobalChat{}, decoded)

	decoded, err = Decode(Encode(LeaveGlobalChat{}))
	require.NoError(t, err)
	require.Equal(t, LeaveGlobalChat{}, decoded)

	decoded, err = Decode(Encode(RequestHighScores{}))
	require.NoError(t, err)
	require.Equal(t, RequestHighScores{}, decoded)
}

func TestDecodeEmptyPayloadErrors(t *testing.T) {
	_, err := Decode(nil)
	require.Error(t, err)
}

func TestDecodeTruncatedPayloadErrors(t *testing.T) {
	full := Encode(SendChat{Message: "hello there"})
	_, err := Decode(full[:len(full)-2])
	require.Error(t, err)
}
