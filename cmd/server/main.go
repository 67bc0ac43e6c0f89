package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"notarius/internal/app"
	"notarius/internal/platform/config"
	"notarius/internal/platform/httpserver"
	"notarius/internal/platform/logger"
	"notarius/pkg/platform/secrets"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	genToken := flag.Bool("gen-operator-token", false,
		"print a fresh operator token and its bcrypt hash, then exit")
	flag.Parse()

	if *genToken {
		if err := printOperatorToken(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	srv := httpserver.New(cfg.Addr, application.Handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting notarius", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return application.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// printOperatorToken emits a token for the caller to hand out and the hash
// the server expects in NOTARIUS_OPERATOR_TOKEN_HASH.
func printOperatorToken(w io.Writer) error {
	token, err := secrets.Generate()
	if err != nil {
		return err
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "token: %s\nhash:  %s\n", token, hash)
	return nil
}
