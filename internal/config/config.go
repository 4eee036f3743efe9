// Package config loads masterd's YAML configuration. The file is read once
// at startup; it is not re-read while the process runs, so edits to the
// MOTD, admin list, or hidden-IP list take effect only after a restart.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Master holds all configuration for the master server process.
type Master struct {
	// Identity
	MasterName string `yaml:"master_name"`

	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Protocol gating
	LatestProtocolVersion int `yaml:"latest_protocol_version"`
	LatestBuildVersion    int `yaml:"latest_build_version"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Status snapshot
	StatusFilePath string `yaml:"status_file_path"`

	// Credential and stats backends
	CredentialDatabase DatabaseConfig `yaml:"credential_database"`
	StatsDatabase      DatabaseConfig `yaml:"stats_database"`

	// Chat / directory presentation
	MOTD      map[string]string `yaml:"motd"`       // keyed by client build string, "" is default
	Admins    []string          `yaml:"admins"`     // authenticated logins with admin command access
	HiddenIPs []string          `yaml:"hidden_ips"` // clients connecting from these IPs are marked hidden from listings

	// Flood protection deltas, in milliseconds, overriding the built-in
	// defaults from internal/master/flood.go and chat.go when non-zero.
	FloodControl FloodControlConfig `yaml:"flood_control"`
}

// FloodControlConfig overrides the default per-message-kind flood-control
// intervals. Zero fields keep the package default.
type FloodControlConfig struct {
	ConnectRequestMillis int `yaml:"connect_request_millis"`
	ChatMillis           int `yaml:"chat_millis"`
	StatsMillis          int `yaml:"stats_millis"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	MaxConns          int32  `yaml:"max_conns"`
	MinConns          int32  `yaml:"min_conns"`
	MaxConnLifetime   string `yaml:"max_conn_lifetime"`
	MaxConnIdleTime   string `yaml:"max_conn_idle_time"`
	HealthCheckPeriod string `yaml:"health_check_period"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	base := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)

	var params []string
	if d.MaxConns > 0 {
		params = append(params, fmt.Sprintf("pool_max_conns=%d", d.MaxConns))
	}
	if d.MinConns > 0 {
		params = append(params, fmt.Sprintf("pool_min_conns=%d", d.MinConns))
	}
	if d.MaxConnLifetime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_lifetime=%s", d.MaxConnLifetime))
	}
	if d.MaxConnIdleTime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_idle_time=%s", d.MaxConnIdleTime))
	}
	if d.HealthCheckPeriod != "" {
		params = append(params, fmt.Sprintf("pool_health_check_period=%s", d.HealthCheckPeriod))
	}

	if len(params) > 0 {
		return base + "&" + strings.Join(params, "&")
	}
	return base
}

// Default returns a Master config with sensible defaults, matching what
// the original Bitfighter master ships in master.ini.
func Default() Master {
	return Master{
		MasterName:            "Bitfighter Master Server",
		BindAddress:           "0.0.0.0",
		Port:                  25955,
		LatestProtocolVersion: defaultMasterProtocolVersion,
		LatestBuildVersion:    0,
		LogLevel:              "info",
		StatusFilePath:        "dedicated_status.txt",
		CredentialDatabase: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "masterd",
			Password: "masterd",
			DBName:   "masterd_accounts",
			SSLMode:  "disable",
		},
		StatsDatabase: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "masterd",
			Password: "masterd",
			DBName:   "masterd_stats",
			SSLMode:  "disable",
		},
		MOTD:   map[string]string{},
		Admins: nil,
	}
}

// defaultMasterProtocolVersion mirrors MASTER_PROTOCOL_VERSION from the
// original master.cpp.
const defaultMasterProtocolVersion = 7

// Load loads master config from a YAML file. If the file doesn't exist,
// returns defaults so the process is runnable without any config present.
func Load(path string) (Master, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// IsAdmin reports whether login holds admin command privileges.
func (m Master) IsAdmin(login string) bool {
	for _, a := range m.Admins {
		if a == login {
			return true
		}
	}
	return false
}

// IsHiddenIP reports whether ip is on the configured hidden-IP list.
func (m Master) IsHiddenIP(ip string) bool {
	for _, h := range m.HiddenIPs {
		if h == ip {
			return true
		}
	}
	return false
}

// MOTDFor returns the message of the day for a given client build string,
// falling back to the "" default entry.
func (m Master) MOTDFor(build string) string {
	if msg, ok := m.MOTD[build]; ok {
		return msg
	}
	return m.MOTD[""]
}
