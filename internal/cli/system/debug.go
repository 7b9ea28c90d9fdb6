package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/storage"
)

type DebugCmd struct {
	DBPath  DebugDBPathCmd  `cmd:"" name:"db-path" help:"Show data location."`
	Keys    DebugKeysCmd    `cmd:"" help:"List stored keys."`
	DumpKey DebugDumpKeyCmd `cmd:"" name:"dump-key" help:"Dump the raw value of a stored key."`
	DumpDay DebugDumpDayCmd `cmd:"" name:"dump-day" help:"Dump the log of one day as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return cli.PrintJSON(map[string]string{
		"path":    ctx.Store.GetConfigPath(),
		"dataDir": ctx.DataDir,
	})
}

type DebugKeysCmd struct{}

func (cmd *DebugKeysCmd) Run(ctx *cli.Context) error {
	keys, err := ctx.Store.Keys()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	return cli.PrintJSON(keys)
}

type DebugDumpKeyCmd struct {
	Key string `arg:"" help:"Storage key to dump."`
}

func (cmd *DebugDumpKeyCmd) Run(ctx *cli.Context) error {
	raw, err := ctx.Store.Get(cmd.Key)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("key not found: %s", cmd.Key)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.Key, err)
	}
	fmt.Println(string(raw))
	return nil
}

type DebugDumpDayCmd struct {
	Date string `arg:"" optional:"" help:"Day to dump (YYYY-MM-DD, 'today', 'yesterday' or an offset such as -2)."`
}

func (cmd *DebugDumpDayCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(cmd.Date)
	if err != nil {
		return err
	}
	l, err := ctx.OpenLedger()
	if err != nil {
		return err
	}
	return cli.PrintJSON(map[string]any{
		"date": l.DateKey(day),
		"log":  l.GetLog(day),
	})
}
