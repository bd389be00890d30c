package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/iliyamo/provider-sync/internal/handler"
	"github.com/iliyamo/provider-sync/internal/provider"
	"github.com/iliyamo/provider-sync/internal/remote"
	"github.com/iliyamo/provider-sync/internal/router"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent and its local API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if serveAddr == "" {
			serveAddr = "127.0.0.1:" + cfg.Port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		storage, err := openStorage(cfg)
		if err != nil {
			return err
		}
		defer storage.Close()

		client := remote.NewHTTPClient(cfg.BackendURL, cfg.BackendToken, &http.Client{Timeout: cfg.RequestTimeout}).
			WithRetries(cfg.Retries, 200*time.Millisecond)
		backend := remote.NewBreakerClient(client, remote.BreakerConfig{
			FailureThreshold: uint32(cfg.BreakerFailures),
			Timeout:          cfg.BreakerTimeout,
		}, log.Default())

		store := provider.New(backend,
			provider.WithStorage(storage),
			provider.WithStorageKey(storeKey(cfg)),
			provider.WithOnline(cfg.StartOnline),
			provider.WithSeed(provider.DemoReservations(), provider.DemoSlots()),
		)
		if err := store.Open(ctx); err != nil {
			return err
		}
		log.Printf("agent: storage=%s online=%t queued=%d", cfg.Storage, store.Online(), store.QueueLen())

		// a restart while online replays whatever was left queued; the
		// drain re-fetches on success
		switch {
		case !store.Online():
		case store.QueueLen() > 0:
			if err := store.DrainIfOnline(ctx); err != nil {
				log.Printf("agent: startup drain: %v", err)
			}
		default:
			if err := store.FetchData(ctx); err != nil {
				log.Printf("agent: startup fetch: %v", err)
			}
		}

		e := echo.New()
		e.HideBanner = true
		e.Use(echomw.Recover())
		router.RegisterAgent(e, handler.NewAgentHandler(store, backend.State))

		errc := make(chan error, 1)
		go func() {
			log.Printf("agent: listening on %s (backend %s)", serveAddr, cfg.BackendURL)
			if err := e.Start(serveAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
			close(errc)
		}()

		select {
		case <-ctx.Done():
		case err := <-errc:
			if err != nil {
				return err
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("agent: shutdown: %v", err)
		}
		store.Wait()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default 127.0.0.1:AGENT_PORT)")
}
