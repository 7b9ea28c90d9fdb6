package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/cli/assistant"
	"github.com/julianstephens/fitbuddy/internal/cli/backups"
	"github.com/julianstephens/fitbuddy/internal/cli/days"
	"github.com/julianstephens/fitbuddy/internal/cli/meals"
	"github.com/julianstephens/fitbuddy/internal/cli/system"
	"github.com/julianstephens/fitbuddy/internal/cli/trainings"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string        `help:"Data location: a directory, a SQLite file (*.db or sqlite://path) or a PostgreSQL connection string. PostgreSQL passwords must NOT be embedded; use the OS keyring, PGPASSWORD or .pgpass instead." env:"FITBUDDY_DATA"`
	Timezone string        `help:"IANA time zone that decides where a day starts." default:"Local" env:"FITBUDDY_TZ"`
	Debug    bool          `help:"Log debug output to stderr." env:"FITBUDDY_DEBUG"`
	AI       cli.AIOptions `embed:""`

	Init    system.InitCmd   `cmd:"" help:"Initialize fitbuddy storage."`
	Doctor  system.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd    `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Serve   system.ServeCmd  `cmd:"" help:"Serve ledger tools and metrics over HTTP."`
	Inspect system.DebugCmd  `cmd:"" name:"debug" help:"Inspect stored data."`
	Key     struct {
		Set      system.KeySetCmd      `cmd:"" help:"Store the Gemini API key in the OS keyring."`
		Get      system.KeyGetCmd      `cmd:"" help:"Show the stored Gemini API key (masked)."`
		Delete   system.KeyDeleteCmd   `cmd:"" help:"Remove the Gemini API key from the OS keyring."`
		Status   system.KeyStatusCmd   `cmd:"" help:"Check the OS keyring and stored credentials."`
		DbSet    system.DBKeySetCmd    `cmd:"" name:"db-set" help:"Store a PostgreSQL connection string in the OS keyring."`
		DbGet    system.DBKeyGetCmd    `cmd:"" name:"db-get" help:"Show the stored PostgreSQL connection string (masked)."`
		DbDelete system.DBKeyDeleteCmd `cmd:"" name:"db-delete" help:"Remove the PostgreSQL connection string from the OS keyring."`
	} `cmd:"" help:"Manage credentials in the OS keyring."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage data backups."`
	Meal struct {
		Add     meals.MealAddCmd     `cmd:"" help:"Log a meal, optionally from a photo."`
		Delete  meals.MealDeleteCmd  `cmd:"" help:"Remove a meal."`
		Analyze meals.MealAnalyzeCmd `cmd:"" help:"Estimate nutrients from a meal photo without logging it."`
	} `cmd:"" help:"Manage meals."`
	Training struct {
		Add    trainings.TrainingAddCmd    `cmd:"" help:"Log a training session."`
		Delete trainings.TrainingDeleteCmd `cmd:"" help:"Remove a training session."`
	} `cmd:"" help:"Manage training sessions."`
	Weight struct {
		Set     days.WeightSetCmd     `cmd:"" help:"Record body weight for a day."`
		History days.WeightHistoryCmd `cmd:"" help:"Show recorded weights and the trend."`
	} `cmd:"" help:"Track body weight."`
	Targets struct {
		Set days.TargetsSetCmd `cmd:"" help:"Set the nutrition targets for a day."`
	} `cmd:"" help:"Manage daily targets."`
	Day  days.DayCmd       `cmd:"" help:"Show the log for a day."`
	Chat assistant.ChatCmd `cmd:"" help:"Ask the nutrition assistant a question."`
	Live assistant.LiveCmd `cmd:"" help:"Talk to the assistant by voice."`
}

// commands that run without loading the store
var storelessCommands = []string{"init", "key", "version"}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Nutrition and training log with an AI assistant"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, constants.DefaultConfigFile),
		kong.Vars{
			"version":         constants.Version,
			"api_base_url":    constants.DefaultAPIBaseURL,
			"live_url":        constants.DefaultLiveURL,
			"vision_model":    constants.DefaultVisionModel,
			"advice_model":    constants.DefaultAdviceModel,
			"live_model":      constants.DefaultLiveModel,
			"voice":           constants.DefaultVoiceName,
			"mic_command":     constants.DefaultMicCommand,
			"speaker_command": constants.DefaultSpeakerCommand,
			"connect_timeout": constants.DefaultConnectLimit.String(),
		},
	)

	store, err := cli.OpenStore(CLI.Config)
	errors.Fatal(err)

	appCtx := &cli.Context{
		Store:    store,
		AI:       CLI.AI,
		Timezone: CLI.Timezone,
		DataDir:  cli.DefaultDataDir(store),
	}

	command := ctx.Command()
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: appCtx.DataDir,
		Stderr:    strings.HasPrefix(command, "serve"),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}

	// Load the store before running the command (init handles its own setup)
	if needsStore(command) {
		errors.Fatal(store.Load())
		defer store.Close()
	}

	errors.Fatal(ctx.Run(appCtx), func() { store.Close() })
}

func needsStore(command string) bool {
	name, _, _ := strings.Cut(command, " ")
	for _, c := range storelessCommands {
		if name == c {
			return false
		}
	}
	return true
}
