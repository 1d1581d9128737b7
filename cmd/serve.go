package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/selimcan/tagsense/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)
		e, closeFn, err := openEngine(cfg)
		exitOnError(err)
		defer closeFn()

		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}
		srv := server.New(cfg.Server, e)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				exitOnError(err)
			}
		case <-sigCh:
			fmt.Println("\nShutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			exitOnError(srv.Shutdown(ctx))
		}
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (0 = config default)")
	rootCmd.AddCommand(serveCmd)
}
