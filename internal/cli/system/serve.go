package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/logger"
	"github.com/julianstephens/fitbuddy/internal/server"
)

type ServeCmd struct {
	Addr            string        `help:"Listen address." default:":8085" env:"FITBUDDY_ADDR"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests on shutdown." default:"10s"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	lock, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer lock.Release()

	l, err := ctx.OpenLedger()
	if err != nil {
		return err
	}

	srv := server.New(server.Config{Address: c.Addr}, l)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info("Shutting down", "timeout", c.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
