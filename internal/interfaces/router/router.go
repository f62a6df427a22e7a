package router

import (
	"context"
	"fmt"

	"nftmarket-backend/internal/application/admin"
	authsvc "nftmarket-backend/internal/application/auth"
	"nftmarket-backend/internal/application/fees"
	healthsvc "nftmarket-backend/internal/application/health"
	listsvc "nftmarket-backend/internal/application/listings"
	"nftmarket-backend/internal/application/market"
	eventsvc "nftmarket-backend/internal/application/marketevents"
	offersvc "nftmarket-backend/internal/application/offers"
	"nftmarket-backend/internal/application/settlement"
	txsvc "nftmarket-backend/internal/application/transactions"
	"nftmarket-backend/internal/config"
	"nftmarket-backend/internal/infrastructure/custodian"
	"nftmarket-backend/internal/infrastructure/database"
	"nftmarket-backend/internal/infrastructure/ledger"
	adminhandler "nftmarket-backend/internal/interfaces/handlers/admin"
	authhandler "nftmarket-backend/internal/interfaces/handlers/auth"
	healthhandler "nftmarket-backend/internal/interfaces/handlers/health"
	listhandler "nftmarket-backend/internal/interfaces/handlers/listings"
	eventhandler "nftmarket-backend/internal/interfaces/handlers/marketevents"
	offerhandler "nftmarket-backend/internal/interfaces/handlers/offers"
	tradehandler "nftmarket-backend/internal/interfaces/handlers/trading"
	txhandler "nftmarket-backend/internal/interfaces/handlers/transactions"
	"nftmarket-backend/internal/middleware"
	"nftmarket-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CreateApp connects to Postgres and Redis, prepares the schema and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, fmt.Errorf("database url is not configured for env %q", cfg.Env)
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	rdb := redis.NewClient(opt)

	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}
	app, err := NewApp(cfg, db, rdb)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, db, rdb, nil
}

// NewApp wires the marketplace services over db and rdb and registers every route. The schema
// must already exist; market settings are seeded from cfg on first start.
func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.SessionWithClient(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	// Marketplace engine
	publisher := &eventsvc.RedisPublisher{Rdb: rdb, Channel: cfg.EventsChannel}
	runner := &market.Runner{DB: db, Guard: &market.Guard{}, Publisher: publisher}
	assets := &custodian.Registry{DB: db}
	funds := &ledger.Ledger{DB: db}
	feeStore := &fees.Store{DB: db}
	adminSvc := &admin.Service{Runner: runner, Fees: feeStore, Owner: cfg.MarketAdmin}
	if err := adminSvc.Bootstrap(context.Background(), fees.Policy{RatePoints: cfg.FeeRatePoints, Recipient: cfg.FeeRecipient}); err != nil {
		return nil, fmt.Errorf("bootstrap market settings: %w", err)
	}
	listingSvc := &listsvc.Service{
		Runner:    runner,
		Custodian: assets,
		Admin:     adminSvc,
		Operator:  cfg.EngineAccount,
		Mode:      cfg.ListingMode,
	}
	offerSvc := &offersvc.Service{
		Runner:      runner,
		Ledger:      funds,
		Spender:     cfg.EngineAccount,
		MaxDuration: cfg.MaxOfferDuration,
	}
	settleSvc := &settlement.Service{
		Runner:    runner,
		Custodian: assets,
		Ledger:    funds,
		Fees:      feeStore,
		Engine:    cfg.EngineAccount,
	}

	// Health (GET /, GET /reset, GET /health/json, GET /health/errors)
	collector := &healthsvc.Collector{Rdb: rdb, Market: &healthsvc.GormMarketCounter{DB: db}}
	if sqlDB, err := db.DB(); err == nil {
		collector.DB = sqlDB
	}
	hh := &healthhandler.Handlers{Rdb: rdb, Collector: collector, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	// Auth
	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	ah := &authhandler.Handlers{
		Finder:   &authsvc.GormAccountFinder{DB: db},
		Accounts: &authsvc.Service{DB: db, Operator: cfg.MarketAdmin},
		Rdb:      rdb,
		Config:   sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/register", ah.Register)
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	authed := middleware.RequireAuth()
	can := middleware.AuthorizePermission

	// Listings
	lh := &listhandler.Handlers{Service: listingSvc}
	lg := app.Group("/api/v1/listings")
	lg.Post("/create-listing", authed, can(constants.ListAssets), lh.CreateListing)
	lg.Post("/create-batch", authed, can(constants.ListAssets), lh.CreateBatch)
	lg.Put("/update-price", authed, can(constants.ListAssets), lh.UpdatePrice)
	lg.Post("/cancel-listing", authed, can(constants.ListAssets), lh.CancelListing)
	lg.Get("/get-listing/:listing_id", lh.GetListing)
	lg.Get("/by-asset/:contract/:asset_id", lh.GetByAsset)
	lg.Get("/get-active-listings", lh.GetActiveListings)

	// Offers
	oh := &offerhandler.Handlers{Service: offerSvc}
	og := app.Group("/api/v1/offers")
	og.Post("/create-offer", authed, can(constants.MakeOffers), oh.CreateOffer)
	og.Post("/cancel-offer", authed, can(constants.MakeOffers), oh.CancelOffer)
	og.Get("/get-offer/:offer_id", oh.GetOffer)
	og.Get("/by-asset/:contract/:asset_id", oh.GetByAsset)

	// Trading
	th := &tradehandler.Handlers{Service: settleSvc}
	tg := app.Group("/api/v1/trading", authed)
	tg.Post("/purchase", can(constants.Purchase), th.Purchase)
	tg.Post("/purchase-batch", can(constants.Purchase), th.PurchaseBatch)
	tg.Post("/accept-offer", can(constants.AcceptOffers), th.AcceptOffer)

	// Admin
	adh := &adminhandler.Handlers{Service: adminSvc}
	adg := app.Group("/api/v1/admin", authed)
	adg.Get("/settings", can(constants.ViewMarket), adh.Settings)
	adg.Patch("/fee-rate", can(constants.ManageMarket), adh.SetFeeRate)
	adg.Patch("/fee-recipient", can(constants.ManageMarket), adh.SetFeeRecipient)
	adg.Patch("/denominations", can(constants.ManageMarket), adh.SetDenomination)

	// Market events
	eh := &eventhandler.Handlers{Service: &eventsvc.Service{DB: db}, Recent: publisher}
	eg := app.Group("/api/v1/market-events")
	eg.Get("/get-events", eh.GetEvents)
	eg.Get("/recent", eh.GetRecent)

	// Transactions
	txh := &txhandler.Handlers{Service: &txsvc.Service{DB: db}}
	txg := app.Group("/api/v1/transactions", authed)
	txg.Get("/get-transactions", can(constants.ViewMarket), txh.GetTransactions)

	log.Info().Str("listing_mode", cfg.ListingMode).Str("engine", cfg.EngineAccount).Msg("marketplace routes registered")
	return app, nil
}
