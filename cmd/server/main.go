package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/nightclub-reservation/internal/config"
	"github.com/iliyamo/nightclub-reservation/internal/database"
	"github.com/iliyamo/nightclub-reservation/internal/handler"
	"github.com/iliyamo/nightclub-reservation/internal/middleware"
	"github.com/iliyamo/nightclub-reservation/internal/payment"
	"github.com/iliyamo/nightclub-reservation/internal/queue"
	"github.com/iliyamo/nightclub-reservation/internal/repository"
	"github.com/iliyamo/nightclub-reservation/internal/router"
	"github.com/iliyamo/nightclub-reservation/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := database.Migrate(mctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		actx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := users.EnsureAdmin(actx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		cancel()
	}

	rdb := config.NewRedisClient()
	var drafts service.DraftStore
	if rdb != nil {
		defer rdb.Close()
		drafts = repository.NewDraftRepo(rdb, cfg.Club.DraftTTL)
	} else {
		log.Printf("redis unavailable: drafts kept in memory, cache and rate limiting disabled")
		drafts = repository.NewMemoryDraftRepo(cfg.Club.DraftTTL)
	}

	var gateway payment.Gateway
	if cfg.Payment.SecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.Payment.SecretKey)
	} else {
		log.Printf("STRIPE_SECRET_KEY not set: using the stub payment gateway")
		gateway = payment.NewStubGateway()
	}

	brokerURL := queue.BrokerURL()
	publisher := queue.NewPublisher(brokerURL)
	defer publisher.Close()
	go func() {
		if err := queue.StartBookingConsumer(ctx, brokerURL); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	mesas := repository.NewMesaRepo(db)
	products := repository.NewProductRepo(db)
	vipCodes := repository.NewVipCodeRepo(db)
	reservations := repository.NewReservationRepo(db)
	guestList := repository.NewGuestListRepo(db)

	rules := service.NewRules(cfg.Club)
	resolver := service.NewAvailabilityResolver(mesas, reservations, rules)
	vip := service.NewVipValidator(vipCodes, rules)
	wizard := service.NewWizard(service.WizardDeps{
		Drafts:       drafts,
		Mesas:        mesas,
		Products:     products,
		Reservations: reservations,
		Resolver:     resolver,
		Vip:          vip,
		Rules:        rules,
		Events:       publisher,
	})
	checkout := service.NewCheckoutCoordinator(reservations, gateway, cfg.Payment, rules, publisher)
	registrar := service.NewRegistrar(guestList, rules, publisher)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(glog.INFO)
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	shared := router.Shared{
		JWTSecret: cfg.JWTSecret,
		RDB:       rdb,
		Cache:     config.LoadCacheConfig(),
		Limits:    middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb),
	}
	guestHandler := &handler.GuestListHandler{Registrar: registrar, Rules: rules}
	adminHandler := &handler.AdminHandler{
		Mesas:        mesas,
		Products:     products,
		VipCodes:     vipCodes,
		Reservations: reservations,
	}
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Redis: rdb})
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db)), shared)
	router.RegisterPublic(e, &handler.CatalogHandler{
		Mesas:    mesas,
		Products: products,
		Resolver: resolver,
		Vip:      vip,
		Rules:    rules,
	}, shared)
	router.RegisterBooking(e, &handler.WizardHandler{Wizard: wizard}, &handler.ReservationHandler{Coordinator: checkout}, guestHandler, shared)
	router.RegisterAdmin(e, adminHandler, shared)
	router.RegisterAdminReservations(e, adminHandler, guestHandler, shared)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
