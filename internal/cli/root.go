package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/fitbuddy/internal/audio"
	"github.com/julianstephens/fitbuddy/internal/backup"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/gemini"
	"github.com/julianstephens/fitbuddy/internal/keyring"
	"github.com/julianstephens/fitbuddy/internal/ledger"
	"github.com/julianstephens/fitbuddy/internal/logger"
	"github.com/julianstephens/fitbuddy/internal/storage"
	"github.com/julianstephens/fitbuddy/internal/storage/postgres"
	"github.com/julianstephens/fitbuddy/internal/storage/sqlite"
	"github.com/julianstephens/fitbuddy/internal/utils"
	"github.com/julianstephens/fitbuddy/internal/voice"
)

// AIOptions configures the hosted model clients and the audio devices used
// by live sessions.
type AIOptions struct {
	APIKey         string        `help:"Gemini API key. Falls back to the OS keyring (see 'fitbuddy key set')." env:"FITBUDDY_API_KEY,GEMINI_API_KEY"`
	APIBaseURL     string        `help:"Gemini REST base URL." default:"${api_base_url}" env:"FITBUDDY_API_BASE_URL"`
	LiveURL        string        `help:"Gemini live websocket URL." default:"${live_url}" env:"FITBUDDY_LIVE_URL"`
	VisionModel    string        `help:"Model used to analyze meal photos." default:"${vision_model}"`
	AdviceModel    string        `help:"Model used for chat advice." default:"${advice_model}"`
	LiveModel      string        `help:"Model used for live voice sessions." default:"${live_model}"`
	Voice          string        `help:"Voice of the live assistant." default:"${voice}"`
	MicCommand     string        `help:"Command that writes raw S16_LE mono 16 kHz audio to stdout." default:"${mic_command}"`
	SpeakerCommand string        `help:"Command that plays raw S16_LE mono 24 kHz audio from stdin." default:"${speaker_command}"`
	ConnectTimeout time.Duration `help:"Limit for opening a live session." default:"${connect_timeout}"`
}

// Context carries what every command needs.
type Context struct {
	Store    storage.Provider
	AI       AIOptions
	Timezone string
	// DataDir holds the lockfile and logs.
	DataDir string
	Now     func() time.Time
}

// OpenStore picks a storage backend for location:
//   - postgres:// or postgresql:// URLs and key=value DSNs use PostgreSQL
//   - sqlite:// prefixes and .db/.sqlite files use SQLite
//   - anything else is a directory of JSON files
//
// An empty location uses the connection string saved in the OS keyring, if
// any, and otherwise the default data directory.
func OpenStore(location string) (storage.Provider, error) {
	fromKeyring := false
	if location == "" {
		if connStr, err := keyring.GetConnectionString(); err == nil {
			location = connStr
			fromKeyring = true
		} else {
			location = constants.DefaultConfigPath
		}
	}

	if postgres.IsURL(location) || strings.Contains(location, "host=") {
		// The keyring is an acceptable home for a password.
		if valid, err := postgres.ValidateConnString(location); !valid && !(fromKeyring && stderrors.Is(err, postgres.ErrEmbeddedCredentials)) {
			if stderrors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed on the command line; store it with 'fitbuddy key db-set', or use PGPASSWORD or .pgpass")
			}
			return nil, err
		}
		return postgres.New(location), nil
	}

	path, err := utils.ExpandPath(strings.TrimPrefix(location, "sqlite://"))
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(location, "sqlite://") || isSQLiteFile(path) {
		return sqlite.NewStore(path), nil
	}
	return storage.NewFileStore(path), nil
}

func isSQLiteFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// DefaultDataDir is where logs and the lockfile live for store location.
func DefaultDataDir(store storage.Provider) string {
	path := store.GetConfigPath()
	switch store.(type) {
	case *storage.FileStore:
		return path
	case *sqlite.Store:
		return filepath.Dir(path)
	}
	dir, err := utils.ExpandPath(filepath.Dir(constants.DefaultConfigFile))
	if err != nil {
		return os.TempDir()
	}
	return dir
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Location is the configured time zone used for date keys.
func (c *Context) Location() (*time.Location, error) {
	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Today is the current time in the configured time zone.
func (c *Context) Today() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	return c.now().In(loc), nil
}

// ResolveDay turns a --date argument into a date.
func (c *Context) ResolveDay(arg string) (time.Time, error) {
	today, err := c.Today()
	if err != nil {
		return time.Time{}, err
	}
	return utils.ResolveDay(arg, today)
}

// OpenLedger loads the ledger from the store.
func (c *Context) OpenLedger() (*ledger.Ledger, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	opts := []ledger.Option{ledger.WithLocation(loc)}
	if c.Now != nil {
		opts = append(opts, ledger.WithClock(c.Now))
	}
	return ledger.Open(c.Store, opts...)
}

// APIKey returns the configured key, falling back to the OS keyring. An
// empty result means no key is configured.
func (c *Context) APIKey() string {
	if key := strings.TrimSpace(c.AI.APIKey); key != "" {
		return key
	}
	key, err := keyring.GetAPIKey()
	if err != nil {
		if !stderrors.Is(err, keyring.ErrNotFound) {
			logger.Debug("Keyring lookup failed", "error", err)
		}
		return ""
	}
	return key
}

// GeminiClient builds the REST client. It fails with a configuration error
// when no API key is available.
func (c *Context) GeminiClient() (*gemini.Client, error) {
	return gemini.NewClient(gemini.Config{
		APIKey:      c.APIKey(),
		BaseURL:     c.AI.APIBaseURL,
		VisionModel: c.AI.VisionModel,
		AdviceModel: c.AI.AdviceModel,
	})
}

// VoiceSession builds a live session wired to the configured devices. A
// missing API key leaves the transport nil, so Start reports it.
func (c *Context) VoiceSession() *voice.Session {
	cfg := voice.Config{
		ConnectTimeout: c.AI.ConnectTimeout,
		NewInput: func() (audio.Input, error) {
			return audio.NewCommandMicrophone(strings.Fields(c.AI.MicCommand), constants.CaptureFrameSize), nil
		},
		NewOutput: func(ctx context.Context) (audio.Output, error) {
			return audio.OpenCommandOutput(ctx, strings.Fields(c.AI.SpeakerCommand), constants.OutputSampleRate)
		},
	}
	transport, err := gemini.NewLiveTransport(gemini.LiveConfig{
		APIKey:            c.APIKey(),
		URL:               c.AI.LiveURL,
		Model:             c.AI.LiveModel,
		VoiceName:         c.AI.Voice,
		SystemInstruction: constants.LiveSystemInstruction,
	})
	if err == nil {
		cfg.Transport = transport
	} else {
		logger.Debug("Live transport unavailable", "error", err)
	}
	return voice.NewSession(cfg)
}

// Lock takes the single-writer lock for the data location.
func (c *Context) Lock() (*storage.Lock, error) {
	lock := storage.NewLock(c.DataDir, constants.LockfileName)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	return lock, nil
}

// BackupManager returns a manager writing to the backups directory under
// DataDir.
func (c *Context) BackupManager() *backup.Manager {
	return backup.NewManager(c.Store, filepath.Join(c.DataDir, constants.BackupDirName))
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	_, err := c.BackupManager().CreateBackup()
	if err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}
