// Package markettest wires a complete marketplace engine over an in-memory database for tests.
package markettest

import (
	"context"
	"sync"
	"testing"
	"time"

	"nftmarket-backend/internal/application/admin"
	"nftmarket-backend/internal/application/fees"
	"nftmarket-backend/internal/application/listings"
	"nftmarket-backend/internal/application/market"
	"nftmarket-backend/internal/application/marketevents"
	"nftmarket-backend/internal/application/offers"
	"nftmarket-backend/internal/application/settlement"
	"nftmarket-backend/internal/domain"
	"nftmarket-backend/internal/infrastructure/custodian"
	"nftmarket-backend/internal/infrastructure/database"
	"nftmarket-backend/internal/infrastructure/ledger"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	Admin      = "0x00000000000000000000000000000000000000ad"
	Engine     = "0x00000000000000000000000000000000000000ee"
	FeeSink    = "0x00000000000000000000000000000000000000fe"
	Alice      = "0x00000000000000000000000000000000000000a1"
	Bob        = "0x00000000000000000000000000000000000000b0"
	Carol      = "0x00000000000000000000000000000000000000c0"
	Collection = "0x0000000000000000000000000000000000000c01"
	USDC       = "0x0000000000000000000000000000000000000d01"

	// FeeRate is the rate the fixture bootstraps with: 2.5%.
	FeeRate = 250
)

// Recorder is a Publisher that keeps every published batch.
type Recorder struct {
	mu     sync.Mutex
	events []domain.MarketEvent
}

func (r *Recorder) Publish(_ context.Context, events []domain.MarketEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type Fixture struct {
	T          testing.TB
	Ctx        context.Context
	DB         *gorm.DB
	Runner     *market.Runner
	Published  *Recorder
	Custodian  *custodian.Registry
	Ledger     *ledger.Ledger
	Fees       *fees.Store
	Admin      *admin.Service
	Listings   *listings.Service
	Offers     *offers.Service
	Settlement *settlement.Service
	Events     *marketevents.Service

	mu  sync.Mutex
	now time.Time
}

type Option func(*Fixture)

// WithListingMode switches the listing registry mode.
func WithListingMode(mode string) Option {
	return func(f *Fixture) { f.Listings.Mode = mode }
}

// WithCustodian replaces the asset custodian used by the registries and the engine.
func WithCustodian(c domain.AssetCustodian) Option {
	return func(f *Fixture) {
		f.Listings.Custodian = c
		f.Settlement.Custodian = c
	}
}

func New(t testing.TB, opts ...Option) *Fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	f := &Fixture{
		T:         t,
		Ctx:       context.Background(),
		DB:        db,
		Published: &Recorder{},
		Custodian: &custodian.Registry{DB: db},
		Ledger:    &ledger.Ledger{DB: db},
		Fees:      &fees.Store{DB: db},
		Events:    &marketevents.Service{DB: db},
		now:       time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.Runner = &market.Runner{DB: db, Guard: &market.Guard{}, Publisher: f.Published}
	f.Admin = &admin.Service{Runner: f.Runner, Fees: f.Fees, Owner: Admin}
	f.Listings = &listings.Service{
		Runner:    f.Runner,
		Custodian: f.Custodian,
		Admin:     f.Admin,
		Operator:  Engine,
		Mode:      listings.ModeHolder,
	}
	f.Offers = &offers.Service{Runner: f.Runner, Ledger: f.Ledger, Spender: Engine, Clock: f.Now}
	f.Settlement = &settlement.Service{
		Runner:    f.Runner,
		Custodian: f.Custodian,
		Ledger:    f.Ledger,
		Fees:      f.Fees,
		Engine:    Engine,
		Clock:     f.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	require.NoError(t, f.Admin.Bootstrap(f.Ctx, fees.Policy{RatePoints: FeeRate, Recipient: FeeSink}))
	require.NoError(t, f.Admin.SetDenomination(f.Ctx, Admin, f.USDC(), true))
	return f
}

func (f *Fixture) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixture) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *Fixture) USDC() domain.Denomination {
	return domain.Token(USDC)
}

func Amount(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func Asset(tokenID string) domain.AssetRef {
	return domain.NewAssetRef(Collection, tokenID)
}

// MintApproved mints tokenID to owner and approves the engine as operator for the collection.
func (f *Fixture) MintApproved(tokenID, owner string) domain.AssetRef {
	f.T.Helper()
	asset := Asset(tokenID)
	require.NoError(f.T, f.Custodian.Mint(f.Ctx, asset, owner))
	require.NoError(f.T, f.Custodian.SetApprovalForAll(f.Ctx, owner, Engine, Collection, true))
	return asset
}

// Fund deposits amount of denom to account and, for tokens, lets the engine spend all of it.
func (f *Fixture) Fund(denom domain.Denomination, account string, amount int64) {
	f.T.Helper()
	require.NoError(f.T, f.Ledger.Deposit(f.Ctx, denom, account, Amount(amount)))
	if !denom.IsNative() {
		require.NoError(f.T, f.Ledger.Approve(f.Ctx, denom, account, Engine, Amount(amount)))
	}
}

func (f *Fixture) Balance(denom domain.Denomination, account string) decimal.Decimal {
	f.T.Helper()
	b, err := f.Ledger.BalanceOf(f.Ctx, denom, account)
	require.NoError(f.T, err)
	return b
}

func (f *Fixture) Owner(asset domain.AssetRef) string {
	f.T.Helper()
	owner, err := f.Custodian.OwnerOf(f.Ctx, asset)
	require.NoError(f.T, err)
	return owner
}

// List creates a listing for a freshly minted asset.
func (f *Fixture) List(tokenID, seller string, denom domain.Denomination, price int64) *domain.Listing {
	f.T.Helper()
	asset := f.MintApproved(tokenID, seller)
	l, err := f.Listings.Create(f.Ctx, listings.CreateInput{Seller: seller, Asset: asset, Denomination: denom, Price: Amount(price)})
	require.NoError(f.T, err)
	return l
}

// Offer creates an offer after funding the buyer with exactly the offered amount.
func (f *Fixture) Offer(asset domain.AssetRef, buyer string, price int64, d time.Duration) *domain.Offer {
	f.T.Helper()
	f.Fund(f.USDC(), buyer, price)
	o, err := f.Offers.Create(f.Ctx, offers.CreateInput{Buyer: buyer, Asset: asset, Denomination: f.USDC(), Price: Amount(price), Duration: d})
	require.NoError(f.T, err)
	return o
}
