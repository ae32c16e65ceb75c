package cli

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/molexplorer/internal/config"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
)

// NewServeCmd runs the HTTP API until interrupted.
func NewServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the explorer HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, e.g. 0.0.0.0:8080)")
	return cmd
}

// runServe serves until ctx is done, then shuts down within the configured
// timeout.
func runServe(ctx context.Context, cmd *cobra.Command, addr string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	a, err := cliCtx.App()
	if err != nil {
		return err
	}

	if addr == "" {
		addr = cliCtx.Config.Server.Addr()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := a.Server()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	cmd.Printf("Serving on http://%s\n", ln.Addr())
	cliCtx.Logger.Info("serving", logging.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := cliCtx.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultServerShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
