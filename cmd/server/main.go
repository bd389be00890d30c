package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/provider-sync/internal/clock"
	"github.com/iliyamo/provider-sync/internal/config" // Internal config loader
	"github.com/iliyamo/provider-sync/internal/database"
	"github.com/iliyamo/provider-sync/internal/handler"
	"github.com/iliyamo/provider-sync/internal/provider"
	"github.com/iliyamo/provider-sync/internal/queue"
	"github.com/iliyamo/provider-sync/internal/repository"
	"github.com/iliyamo/provider-sync/internal/router" // Internal router setup
	"github.com/iliyamo/provider-sync/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	providers := repository.NewProviderRepo(db)
	slots := repository.NewSlotRepo(db)
	reservations := repository.NewReservationRepo(db)
	if cfg.SeedEmail != "" {
		if err := seed(ctx, cfg, providers, slots, reservations); err != nil {
			log.Printf("seed: %v", err)
		}
	}

	// Redis is optional: without it the provider API runs unthrottled.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Printf("rate limit disabled: redis unavailable")
	}

	var events service.Publisher = service.Discard{}
	if cfg.AMQPURL != "" {
		pub := service.NewAMQPPublisher(cfg.AMQPURL)
		defer pub.Close()
		events = pub
		go func() {
			if err := queue.StartEventConsumer(ctx, cfg.AMQPURL, queue.DefaultLogPath); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("event-consumer: %v", err)
			}
		}()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e) // Register application routes
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, providers, repository.NewTokenRepo(db)))
	router.RegisterProvider(e,
		handler.NewProviderHandler(slots, reservations, events, clock.NewSystem()),
		cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) { // Start HTTP server
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// seed makes sure the configured provider account exists and, when it owns
// no slots yet, loads the demo fixture so a fresh agent has data to sync.
func seed(ctx context.Context, cfg config.Config, providers *repository.ProviderRepo, slots *repository.SlotRepo, reservations *repository.ReservationRepo) error {
	id, err := providers.Ensure(ctx, cfg.SeedEmail, cfg.SeedPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	existing, err := slots.ListByProvider(ctx, id)
	if err != nil || len(existing) > 0 {
		return err
	}
	now := time.Now().UTC()
	for _, s := range provider.DemoSlots() {
		s.UpdatedAt = now
		if err := slots.Upsert(ctx, id, s); err != nil {
			return err
		}
	}
	for _, r := range provider.DemoReservations() {
		if err := reservations.Insert(ctx, id, r); err != nil {
			return err
		}
	}
	log.Printf("seed: demo data loaded for %s", cfg.SeedEmail)
	return nil
}
