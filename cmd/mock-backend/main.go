// Command mock-backend serves the in-memory storefront API for local
// development and manual testing of the client, removing the need for the
// real backend.
//
// Usage:
//
//	mock-backend -port 8080
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/backend"
	"github.com/Uzal123/unibolx-ecommerce-frontend/pkg/logger"
)

func main() {
	port := flag.String("port", getEnv("HTTP_PORT", "8080"), "port to listen on")
	logLevel := flag.String("log-level", getEnv("LOG_LEVEL", "info"), "log level")
	flag.Parse()

	log := logger.New(logger.Options{Service: "mock-backend", Level: *logLevel})

	store := backend.New(log)
	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      otelhttp.NewHandler(store.Router(), "mock-backend"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("mock backend listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
