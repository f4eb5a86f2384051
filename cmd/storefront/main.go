// Command storefront is the terminal client for the unibolx store:
// catalog browsing, cart management, coupons, checkout and the admin
// insights view, all backed by the HTTP API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/api"
	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/session"
	"github.com/Uzal123/unibolx-ecommerce-frontend/pkg/logger"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		backendURL string
		timeout    time.Duration
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:     "storefront",
		Short:   "Interactive terminal storefront for the unibolx shop",
		Version: version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.New(logger.Options{Service: "storefront", Level: logLevel})

			client := api.New(api.Config{BaseURL: backendURL, Timeout: timeout}, log)
			app := newApp(client, session.NewStore(), log, cmd.OutOrStdout())
			return app.run(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&backendURL, "backend", getEnv("BACKEND_URL", "http://localhost:8080"), "backend base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	cmd.Flags().StringVar(&logLevel, "log-level", getEnv("LOG_LEVEL", "warn"), "log level")

	return cmd
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
