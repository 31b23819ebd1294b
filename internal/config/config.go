package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/log"
)

const (
	DefaultServerURL = "http://localhost:8080"
	DefaultTokenTTL  = 24 * time.Hour
	sqliteFile       = "circuits.db"
)

type Config struct {
	// Server
	DataDir    string
	ListenAddr string
	DBDriver   string
	DSN        string
	JWTSecret  string
	TokenTTL   time.Duration

	// Client
	ServerURL string
	Token     string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

var (
	dataDir    string
	listenAddr string
	dbDriver   string
	dsn        string
	jwtSecret  string
	tokenTTL   string

	serverURL string
	token     string

	logLevel  string
	logFormat string
	logFile   string
)

// LoadEnv reads .env style files into the process environment before flags
// are parsed. Missing files are ignored; variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// GetFlags returns the server flags.
func GetFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:         "data-dir",
			Usage:        "Data directory path",
			EnvVars:      []string{"CIRCUITS_DATA_DIR"},
			DefaultValue: filepath.Join(".", "data"),
			AssignTo:     &dataDir,
		},
		&cli.StringFlag{
			Name:         "addr",
			Usage:        "Server listen address",
			EnvVars:      []string{"CIRCUITS_LISTEN_ADDR"},
			DefaultValue: ":8080",
			AssignTo:     &listenAddr,
		},
		&cli.StringFlag{
			Name:         "db-driver",
			Usage:        "Database driver (sqlite or postgres)",
			EnvVars:      []string{"CIRCUITS_DB_DRIVER"},
			DefaultValue: "sqlite",
			AssignTo:     &dbDriver,
		},
		&cli.StringFlag{
			Name:     "dsn",
			Usage:    "Database connection string (defaults to <data-dir>/circuits.db for sqlite)",
			EnvVars:  []string{"CIRCUITS_DSN", "DATABASE_URL"},
			AssignTo: &dsn,
		},
		&cli.StringFlag{
			Name:     "jwt-secret",
			Usage:    "Secret used to sign login tokens",
			EnvVars:  []string{"CIRCUITS_JWT_SECRET", "JWT_SECRET"},
			AssignTo: &jwtSecret,
		},
		&cli.StringFlag{
			Name:         "token-ttl",
			Usage:        "Lifetime of issued login tokens",
			EnvVars:      []string{"CIRCUITS_TOKEN_TTL"},
			DefaultValue: DefaultTokenTTL.String(),
			AssignTo:     &tokenTTL,
		},
	}
	return append(flags, LogFlags()...)
}

// StorageFlags returns the flags needed to open the database without serving.
func StorageFlags() []cli.Flag {
	var out []cli.Flag
	for _, f := range GetFlags() {
		if sf, ok := f.(*cli.StringFlag); ok && (sf.Name == "addr" || sf.Name == "jwt-secret" || sf.Name == "token-ttl") {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ClientFlags returns the flags shared by commands that talk to a server.
func ClientFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:         "server",
			Usage:        "Server URL",
			EnvVars:      []string{"CIRCUITS_SERVER"},
			DefaultValue: DefaultServerURL,
			AssignTo:     &serverURL,
		},
		&cli.StringFlag{
			Name:     "token",
			Usage:    "Bearer token from 'circuits login'",
			EnvVars:  []string{"CIRCUITS_TOKEN"},
			AssignTo: &token,
		},
	}
	return append(flags, LogFlags()...)
}

// LogFlags returns the logging flags.
func LogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "log-level",
			Usage:        "Log level (debug, info, warn, error)",
			EnvVars:      []string{"CIRCUITS_LOG_LEVEL"},
			DefaultValue: "info",
			AssignTo:     &logLevel,
		},
		&cli.StringFlag{
			Name:         "log-format",
			Usage:        "Log format (console or json)",
			EnvVars:      []string{"CIRCUITS_LOG_FORMAT"},
			DefaultValue: "console",
			AssignTo:     &logFormat,
		},
		&cli.StringFlag{
			Name:     "log-file",
			Usage:    "Write logs to this file instead of stderr",
			EnvVars:  []string{"CIRCUITS_LOG_FILE"},
			AssignTo: &logFile,
		},
	}
}

func Load() *Config {
	ttl, err := time.ParseDuration(tokenTTL)
	if err != nil || ttl <= 0 {
		if tokenTTL != "" {
			log.Warn("Invalid token TTL, using default", "value", tokenTTL, "default", DefaultTokenTTL)
		}
		ttl = DefaultTokenTTL
	}

	url := serverURL
	if url == "" {
		url = DefaultServerURL
	}

	return &Config{
		DataDir:    dataDir,
		ListenAddr: listenAddr,
		DBDriver:   dbDriver,
		DSN:        dsn,
		JWTSecret:  jwtSecret,
		TokenTTL:   ttl,
		ServerURL:  url,
		Token:      token,
		LogLevel:   logLevel,
		LogFormat:  logFormat,
		LogFile:    logFile,
	}
}

// DatabaseDSN returns the connection string, defaulting to a file in DataDir for sqlite.
func (c *Config) DatabaseDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.DBDriver == "" || c.DBDriver == "sqlite" {
		dir := c.DataDir
		if dir == "" {
			dir = filepath.Join(".", "data")
		}
		return filepath.Join(dir, sqliteFile)
	}
	return ""
}

// IsAuthConfigured checks if a token signing secret is set
func (c *Config) IsAuthConfigured() bool {
	return c.JWTSecret != ""
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging applies the log flags. With a log file set, output is appended
// there and the returned closer must be closed on exit.
func (c *Config) SetupLogging() (io.Closer, error) {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
	if c.LogFile == "" {
		log.Configure(c.LogLevel, c.LogFormat)
		return nopCloser{}, nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	log.ConfigureWriter(c.LogLevel, c.LogFormat, f)
	return f, nil
}
