package wire

import "fmt"

// Message is any of the wire payload structs in messages.go.
type Message interface {
	Kind() Kind
	encode(w *Writer)
}

// Encode frames a Message as kind-byte + payload, with no outer length
// prefix — the transport package is responsible for the length-prefixed
// frame around this blob (see internal/transport).
func Encode(m Message) []byte {
	w := &Writer{}
	w.WriteUint8(uint8(m.Kind()))
	m.encode(w)
	return w.Bytes()
}

// Decode parses a framed payload (as produced by Encode) back into a
// Message.
func Decode(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("decoding message: empty payload")
	}
	kind := Kind(payload[0])
	r := NewReader(payload[1:])

	switch kind {
	case KindConnectRequest:
		return decodeConnectRequest(r)
	case KindQueryServers:
		return decodeQueryServers(r)
	case KindQueryServersResponse:
		return decodeQueryServersResponse(r)
	case KindRequestArrangedConnection:
		return decodeRequestArrangedConnection(r)
	case KindClientRequestedArrangedConnection:
		return decodeClientRequestedArrangedConnection(r)
	case KindAcceptArrangedConnection:
		return decodeAcceptArrangedConnection(r)
	case KindRejectArrangedConnection:
		return decodeRejectArrangedConnection(r)
	case KindArrangedConnectionAccepted:
		return decodeArrangedConnectionAccepted(r)
	case KindArrangedConnectionRejected:
		return decodeArrangedConnectionRejected(r)
	case KindUpdateServerStatus:
		return decodeUpdateServerStatus(r)
	case KindChangeServerName:
		return decodeChangeServerName(r)
	case KindServerDescriptionUpdate:
		return decodeServerDescriptionUpdate(r)
	case KindSendChat:
		return decodeSendChat(r)
	case KindRelayedChat:
		return decodeRelayedChat(r)
	case KindJoinGlobalChat:
		return JoinGlobalChat{}, nil
	case KindLeaveGlobalChat:
		return LeaveGlobalChat{}, nil
	case KindGlobalChatRoster:
		return decodeGlobalChatRoster(r)
	case KindPlayerJoinedGlobalChat:
		return decodePlayerJoinedGlobalChat(r)
	case KindPlayerLeftGlobalChat:
		return decodePlayerLeftGlobalChat(r)
	case KindSendStatistics:
		return decodeSendStatistics(r)
	case KindSendLevelInfo:
		return decodeSendLevelInfo(r)
	case KindRequestHighScores:
		return RequestHighScores{}, nil
	case KindSendHighScores:
		return decodeSendHighScores(r)
	case KindRequestAuthentication:
		return decodeRequestAuthentication(r)
	case KindSetAuthenticated:
		return decodeSetAuthenticated(r)
	case KindSetAuthenticated019:
		return decodeSetAuthenticated019(r)
	case KindSetMOTD:
		return decodeSetMOTD(r)
	case KindUpgradeStatus:
		return decodeUpgradeStatus(r)
	case KindAchievementAchieved:
		return decodeAchievementAchieved(r)
	default:
		return nil, fmt.Errorf("decoding message: unknown kind %d", kind)
	}
}

// JoinGlobalChat and LeaveGlobalChat carry no payload.
type JoinGlobalChat struct{}
type LeaveGlobalChat struct{}

func (JoinGlobalChat) Kind() Kind        { return KindJoinGlobalChat }
func (JoinGlobalChat) encode(*Writer)    {}
func (LeaveGlobalChat) Kind() Kind       { return KindLeaveGlobalChat }
func (LeaveGlobalChat) encode(*Writer)   {}
func (RequestHighScores) Kind() Kind     { return KindRequestHighScores }
func (RequestHighScores) encode(*Writer) {}

func (m GlobalChatRoster) Kind() Kind       { return KindGlobalChatRoster }
func (m GlobalChatRoster) encode(w *Writer) { w.WriteStringSlice(m.Names) }
func decodeGlobalChatRoster(r *Reader) (Message, error) {
	names, err := r.ReadStringSlice()
	return GlobalChatRoster{Names: names}, err
}

func (m PlayerJoinedGlobalChat) Kind() Kind       { return KindPlayerJoinedGlobalChat }
func (m PlayerJoinedGlobalChat) encode(w *Writer) { w.WriteString(m.Name) }
func decodePlayerJoinedGlobalChat(r *Reader) (Message, error) {
	name, err := r.ReadString()
	return PlayerJoinedGlobalChat{Name: name}, err
}

func (m PlayerLeftGlobalChat) Kind() Kind       { return KindPlayerLeftGlobalChat }
func (m PlayerLeftGlobalChat) encode(w *Writer) { w.WriteString(m.Name) }
func decodePlayerLeftGlobalChat(r *Reader) (Message, error) {
	name, err := r.ReadString()
	return PlayerLeftGlobalChat{Name: name}, err
}

func (m ConnectRequest) Kind() Kind { return KindConnectRequest }
func (m ConnectRequest) encode(w *Writer) {
	w.WriteInt(m.MasterProtocolVersion)
	w.WriteInt(m.CSProtocolVersion)
	w.WriteInt(m.ClientBuild)
	w.WriteUint8(uint8(m.Role))
	switch m.Role {
	case RoleServer:
		w.WriteString(m.ServerName)
		w.WriteString(m.ServerDescription)
		w.WriteString(m.LevelName)
		w.WriteString(m.LevelType)
		w.WriteInt(m.BotCount)
		w.WriteInt(m.PlayerCount)
		w.WriteInt(m.MaxPlayers)
		w.WriteUint32(m.InfoFlags)
	case RoleClient:
		w.WriteString(m.AutoDetectString)
		w.WriteString(m.Handle)
		w.WriteString(m.Password)
		w.WriteBool(m.IsDebug)
		w.WriteUint64(m.PlayerID)
		w.WriteAddrPort(m.InternalAddress)
	}
}

func decodeConnectRequest(r *Reader) (Message, error) {
	var m ConnectRequest
	var err error
	if m.MasterProtocolVersion, err = r.ReadInt(); err != nil {
		return nil, err
	}
	if m.CSProtocolVersion, err = r.ReadInt(); err != nil {
		return nil, err
	}
	if m.ClientBuild, err = r.ReadInt(); err != nil {
		return nil, err
	}
	role, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	m.Role = Role(role)
	switch m.Role {
	case RoleServer:
		if m.ServerName, err = r.ReadString(); err != nil {
			return nil, err
		}
		if m.ServerDescription, err = r.ReadString(); err != nil {
			return nil, err
		}
		if m.LevelName, err = r.ReadString(); err != nil {
			return nil, err
		}
		if m.LevelType, err = r.ReadString(); err != nil {
			return nil, err
		}
		if m.BotCount, err = r.ReadInt(); err != nil {
			return nil, err
		}
		if m.PlayerCount, err = r.ReadInt(); err != nil {
			return nil, err
		}
		if m.MaxPlayers, err = r.ReadInt(); err != nil {
			return nil, err
		}
		if m.InfoFlags, err = r.ReadUint32(); err != nil {
			return nil, err
		}
	case RoleClient:
		if m.AutoDetectString, err = r.ReadString(); err != nil {
			return nil, err
		}
		if m.Handle, err = r.ReadString(); err != nil {
			return nil, err
		}
		if m.Password, err = r.ReadString(); err != nil {
			return nil, err
		}
		if m.IsDebug, err = r.ReadBool(); err != nil {
			return nil, err
		}
		if m.PlayerID, err = r.ReadUint64(); err != nil {
			return nil, err
		}
		if m.InternalAddress, err = r.ReadAddrPort(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m QueryServers) Kind() Kind          { return KindQueryServers }
func (m QueryServers) encode(w *Writer)    { w.WriteUint32(m.QueryID) }
func decodeQueryServers(r *Reader) (Message, error) {
	id, err := r.ReadUint32()
	return QueryServers{QueryID: id}, err
}

func (m QueryServersResponse) Kind() Kind { return KindQueryServersResponse }
func (m QueryServersResponse) encode(w *Writer) {
	w.WriteUint32(m.QueryID)
	w.WriteAddrPortSlice(m.Addresses)
}
func decodeQueryServersResponse(r *Reader) (Message, error) {
	var m QueryServersResponse
	var err error
	if m.QueryID, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	m.Addresses, err = r.ReadAddrPortSlice()
	return m, err
}

func (m RequestArrangedConnection) Kind() Kind { return KindRequestArrangedConnection }
func (m RequestArrangedConnection) encode(w *Writer) {
	w.WriteUint64(m.RequestID)
	w.WriteAddrPort(m.RemoteAddress)
	w.WriteAddrPort(m.InternalAddress)
	w.WriteBytes(m.Params)
}
func decodeRequestArrangedConnection(r *Reader) (Message, error) {
	var m RequestArrangedConnection
	var err error
	if m.RequestID, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	if m.RemoteAddress, err = r.ReadAddrPort(); err != nil {
		return nil, err
	}
	if m.InternalAddress, err = r.ReadAddrPort(); err != nil {
		return nil, err
	}
	m.Params, err = r.ReadBytes()
	return m, err
}

func (m ClientRequestedArrangedConnection) Kind() Kind {
	return KindClientRequestedArrangedConnection
}
func (m ClientRequestedArrangedConnection) encode(w *Writer) {
	w.WriteUint64(m.HostQueryID)
	w.WriteAddrPortSlice(m.CandidateAddresses)
	w.WriteBytes(m.Params)
}
func decodeClientRequestedArrangedConnection(r *Reader) (Message, error) {
	var m ClientRequestedArrangedConnection
	var err error
	if m.HostQueryID, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	if m.CandidateAddresses, err = r.ReadAddrPortSlice(); err != nil {
		return nil, err
	}
	m.Params, err = r.ReadBytes()
	return m, err
}

func (m AcceptArrangedConnection) Kind() Kind { return KindAcceptArrangedConnection }
func (m AcceptArrangedConnection) encode(w *Writer) {
	w.WriteUint64(m.HostQueryID)
	w.WriteAddrPort(m.InternalAddress)
	w.WriteBytes(m.Data)
}
func decodeAcceptArrangedConnection(r *Reader) (Message, error) {
	var m AcceptArrangedConnection
	var err error
	if m.HostQueryID, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	if m.InternalAddress, err = r.ReadAddrPort(); err != nil {
		return nil, err
	}
	m.Data, err = r.ReadBytes()
	return m, err
}

func (m RejectArrangedConnection) Kind() Kind { return KindRejectArrangedConnection }
func (m RejectArrangedConnection) encode(w *Writer) {
	w.WriteUint64(m.HostQueryID)
	w.WriteBytes(m.Data)
}
func decodeRejectArrangedConnection(r *Reader) (Message, error) {
	var m RejectArrangedConnection
	var err error
	if m.HostQueryID, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	m.Data, err = r.ReadBytes()
	return m, err
}

func (m ArrangedConnectionAccepted) Kind() Kind { return KindArrangedConnectionAccepted }
func (m ArrangedConnectionAccepted) encode(w *Writer) {
	w.WriteUint64(m.InitiatorQueryID)
	w.WriteAddrPortSlice(m.CandidateAddresses)
	w.WriteBytes(m.Data)
}
func decodeArrangedConnectionAccepted(r *Reader) (Message, error) {
	var m ArrangedConnectionAccepted
	var err error
	if m.InitiatorQueryID, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	if m.CandidateAddresses, err = r.ReadAddrPortSlice(); err != nil {
		return nil, err
	}
	m.Data, err = r.ReadBytes()
	return m, err
}

func (m ArrangedConnectionRejected) Kind() Kind { return KindArrangedConnectionRejected }
func (m ArrangedConnectionRejected) encode(w *Writer) {
	w.WriteUint64(m.InitiatorQueryID)
	w.WriteString(m.Data)
}
func decodeArrangedConnectionRejected(r *Reader) (Message, error) {
	var m ArrangedConnectionRejected
	var err error
	if m.InitiatorQueryID, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	m.Data, err = r.ReadString()
	return m, err
}

func (m UpdateServerStatus) Kind() Kind { return KindUpdateServerStatus }
func (m UpdateServerStatus) encode(w *Writer) {
	w.WriteString(m.LevelName)
	w.WriteString(m.LevelType)
	w.WriteInt(m.BotCount)
	w.WriteInt(m.PlayerCount)
	w.WriteInt(m.MaxPlayers)
	w.WriteUint32(m.InfoFlags)
}
func decodeUpdateServerStatus(r *Reader) (Message, error) {
	var m UpdateServerStatus
	var err error
	if m.LevelName, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.LevelType, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.BotCount, err = r.ReadInt(); err != nil {
		return nil, err
	}
	if m.PlayerCount, err = r.ReadInt(); err != nil {
		return nil, err
	}
	if m.MaxPlayers, err = r.ReadInt(); err != nil {
		return nil, err
	}
	m.InfoFlags, err = r.ReadUint32()
	return m, err
}

func (m ChangeServerName) Kind() Kind       { return KindChangeServerName }
func (m ChangeServerName) encode(w *Writer) { w.WriteString(m.Name) }
func decodeChangeServerName(r *Reader) (Message, error) {
	name, err := r.ReadString()
	return ChangeServerName{Name: name}, err
}

func (m ServerDescriptionUpdate) Kind() Kind       { return KindServerDescriptionUpdate }
func (m ServerDescriptionUpdate) encode(w *Writer) { w.WriteString(m.Description) }
func decodeServerDescriptionUpdate(r *Reader) (Message, error) {
	desc, err := r.ReadString()
	return ServerDescriptionUpdate{Description: desc}, err
}

func (m SendChat) Kind() Kind       { return KindSendChat }
func (m SendChat) encode(w *Writer) { w.WriteString(m.Message) }
func decodeSendChat(r *Reader) (Message, error) {
	s, err := r.ReadString()
	return SendChat{Message: s}, err
}

func (m RelayedChat) Kind() Kind { return KindRelayedChat }
func (m RelayedChat) encode(w *Writer) {
	w.WriteString(m.Sender)
	w.WriteBool(m.IsPrivate)
	w.WriteString(m.Message)
}
func decodeRelayedChat(r *Reader) (Message, error) {
	var m RelayedChat
	var err error
	if m.Sender, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.IsPrivate, err = r.ReadBool(); err != nil {
		return nil, err
	}
	m.Message, err = r.ReadString()
	return m, err
}

func (m SendStatistics) Kind() Kind       { return KindSendStatistics }
func (m SendStatistics) encode(w *Writer) { w.WriteBytes(m.GameStats) }
func decodeSendStatistics(r *Reader) (Message, error) {
	b, err := r.ReadBytes()
	return SendStatistics{GameStats: b}, err
}

func (m SendLevelInfo) Kind() Kind { return KindSendLevelInfo }
func (m SendLevelInfo) encode(w *Writer) {
	w.WriteString(m.LevelHash)
	w.WriteString(m.LevelName)
	w.WriteString(m.Creator)
	w.WriteString(m.GameType)
	w.WriteInt(m.TeamCount)
	w.WriteInt(m.WinningScore)
	w.WriteInt(m.DurationSec)
}
func decodeSendLevelInfo(r *Reader) (Message, error) {
	var m SendLevelInfo
	var err error
	if m.LevelHash, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.LevelName, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Creator, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.GameType, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.TeamCount, err = r.ReadInt(); err != nil {
		return nil, err
	}
	if m.WinningScore, err = r.ReadInt(); err != nil {
		return nil, err
	}
	m.DurationSec, err = r.ReadInt()
	return m, err
}

func (m SendHighScores) Kind() Kind { return KindSendHighScores }
func (m SendHighScores) encode(w *Writer) {
	w.WriteStringSlice(m.GroupNames)
	w.WriteStringSlice(m.Names)
	w.WriteStringSlice(m.Scores)
}
func decodeSendHighScores(r *Reader) (Message, error) {
	var m SendHighScores
	var err error
	if m.GroupNames, err = r.ReadStringSlice(); err != nil {
		return nil, err
	}
	if m.Names, err = r.ReadStringSlice(); err != nil {
		return nil, err
	}
	m.Scores, err = r.ReadStringSlice()
	return m, err
}

func (m RequestAuthentication) Kind() Kind { return KindRequestAuthentication }
func (m RequestAuthentication) encode(w *Writer) {
	w.WriteUint64(m.Nonce)
	w.WriteString(m.Name)
}
func decodeRequestAuthentication(r *Reader) (Message, error) {
	var m RequestAuthentication
	var err error
	if m.Nonce, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	m.Name, err = r.ReadString()
	return m, err
}

func (m SetAuthenticated) Kind() Kind { return KindSetAuthenticated }
func (m SetAuthenticated) encode(w *Writer) {
	w.WriteUint64(m.Nonce)
	w.WriteString(m.Name)
	w.WriteInt(m.Status)
	w.WriteUint32(m.Badges)
}
func decodeSetAuthenticated(r *Reader) (Message, error) {
	var m SetAuthenticated
	var err error
	if m.Nonce, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	if m.Name, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Status, err = r.ReadInt(); err != nil {
		return nil, err
	}
	m.Badges, err = r.ReadUint32()
	return m, err
}

func (m SetAuthenticated019) Kind() Kind { return KindSetAuthenticated019 }
func (m SetAuthenticated019) encode(w *Writer) {
	w.WriteUint64(m.Nonce)
	w.WriteString(m.Name)
	w.WriteInt(m.Status)
	w.WriteUint32(m.Badges)
	w.WriteInt(m.GamesPlayed)
}
func decodeSetAuthenticated019(r *Reader) (Message, error) {
	var m SetAuthenticated019
	var err error
	if m.Nonce, err = r.ReadUint64(); err != nil {
		return nil, err
	}
	if m.Name, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Status, err = r.ReadInt(); err != nil {
		return nil, err
	}
	if m.Badges, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	m.GamesPlayed, err = r.ReadInt()
	return m, err
}

func (m SetMOTD) Kind() Kind { return KindSetMOTD }
func (m SetMOTD) encode(w *Writer) {
	w.WriteString(m.MasterName)
	w.WriteString(m.MOTD)
}
func decodeSetMOTD(r *Reader) (Message, error) {
	var m SetMOTD
	var err error
	if m.MasterName, err = r.ReadString(); err != nil {
		return nil, err
	}
	m.MOTD, err = r.ReadString()
	return m, err
}

func (m UpgradeStatus) Kind() Kind       { return KindUpgradeStatus }
func (m UpgradeStatus) encode(w *Writer) { w.WriteBool(m.NeedsUpgrade) }
func decodeUpgradeStatus(r *Reader) (Message, error) {
	b, err := r.ReadBool()
	return UpgradeStatus{NeedsUpgrade: b}, err
}

func (m AchievementAchieved) Kind() Kind { return KindAchievementAchieved }
func (m AchievementAchieved) encode(w *Writer) {
	w.WriteInt(m.AchievementID)
	w.WriteString(m.PlayerNick)
}
func decodeAchievementAchieved(r *Reader) (Message, error) {
	var m AchievementAchieved
	var err error
	if m.AchievementID, err = r.ReadInt(); err != nil {
		return nil, err
	}
	m.PlayerNick, err = r.ReadString()
	return m, err
}
