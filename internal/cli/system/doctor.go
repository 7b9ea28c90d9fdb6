package system

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/keyring"
	"github.com/julianstephens/fitbuddy/internal/migration"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/storage"
	"github.com/julianstephens/fitbuddy/internal/storage/sqlite"
	"github.com/julianstephens/fitbuddy/migrations"
)

type DoctorCmd struct{}

type diagnostic struct {
	name string
	// warn marks checks whose failure does not fail the command.
	warn bool
	// needsStore checks are skipped when storage is unreachable.
	needsStore bool
	run        func(*cli.Context) error
}

var diagnostics = []diagnostic{
	{name: "Schema version", needsStore: true, run: checkSchemaVersion},
	{name: "Ledger data", needsStore: true, run: checkLedgerData},
	{name: "Backups present", warn: true, run: checkBackupsPresent},
	{name: "API key", warn: true, run: checkAPIKey},
	{name: "OS keyring", warn: true, run: checkKeyring},
	{name: "Audio commands", warn: true, run: checkAudioCommands},
	{name: "Lockfile", warn: true, run: checkLock},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	storeReachable := false

	if err := checkStoreReachable(ctx); err != nil {
		fmt.Printf("❌ Storage reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Storage reachable: OK\n")
		storeReachable = true
	}

	for _, d := range diagnostics {
		if d.needsStore && !storeReachable {
			fmt.Printf("⊘ %s: SKIPPED (storage not reachable)\n", d.name)
			continue
		}
		err := d.run(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", d.name)
		case d.warn:
			fmt.Printf("⚠ %s: WARNING\n", d.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", d.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}

	if sqliteStore, ok := ctx.Store.(*sqlite.Store); ok {
		db := sqliteStore.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	sqliteStore, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		// File stores are schemaless; PostgreSQL validates on Load.
		return nil
	}

	db := sqliteStore.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return err
	}
	runner := migration.NewRunner(db, subFS, migration.SQLite)

	currentVersion, err := runner.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	latestVersion, err := runner.GetLatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest schema version: %w", err)
	}

	if currentVersion > latestVersion {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", currentVersion, latestVersion)
	}
	if currentVersion < latestVersion {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", currentVersion, latestVersion)
	}
	return nil
}

func checkLedgerData(ctx *cli.Context) error {
	raw, err := ctx.Store.Get(constants.DailyDataKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	var data models.DailyData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("ledger is not valid JSON (it will be reset on next open): %w", err)
	}
	var bad []string
	for key := range data {
		if _, err := time.Parse(constants.DateFormat, key); err != nil {
			bad = append(bad, key)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("found %d days with invalid date keys: %s", len(bad), strings.Join(bad, ", "))
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	backups, err := ctx.BackupManager().ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'fitbuddy backup create'")
	}
	return nil
}

func checkAPIKey(ctx *cli.Context) error {
	if ctx.APIKey() == "" {
		return fmt.Errorf("no Gemini API key configured; photo analysis, chat and live sessions are unavailable (see 'fitbuddy key set')")
	}
	return nil
}

func checkKeyring(_ *cli.Context) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkAudioCommands(ctx *cli.Context) error {
	var missing []string
	for _, command := range []string{ctx.AI.MicCommand, ctx.AI.SpeakerCommand} {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			continue
		}
		if _, err := exec.LookPath(fields[0]); err != nil {
			missing = append(missing, fields[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("audio commands not found in PATH: %s; live sessions will fail", strings.Join(missing, ", "))
	}
	return nil
}

func checkLock(ctx *cli.Context) error {
	lock := storage.NewLock(ctx.DataDir, constants.LockfileName)
	if pid, alive := lock.Owner(); alive {
		return fmt.Errorf("another fitbuddy process (pid %d) holds %s", pid, lock.Path())
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	if _, err := ctx.Location(); err != nil {
		return err
	}

	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
