package model

import "time"

// Account is a registered master-server login, persisted in the
// credential database. Login preserves whatever case the account was
// created with; callers look accounts up by the lowercased form.
type Account struct {
	Login        string
	PasswordHash string
	Badges       uint32
	GamesPlayed  int
	LastIP       string
	LastActive   time.Time
}
