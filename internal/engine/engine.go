// Package engine drives the periodic quoting cycle described in spec.md §2
// and §4.1: an overlap-guarded ticker runs risk governance, candidate
// discovery, enrichment, selection, quoting, and reconciliation (or paper
// simulation) once per interval.
//
// Unlike the teacher's engine — a goroutine-per-market orchestrator wired to
// two streaming WebSocket feeds — this driver is single-threaded within a
// cycle; the only background goroutines are the ticker loop itself and, in
// live mode, the user feed listener that folds fill notifications into the
// position ledger between cycles.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"polymarket-quoter/internal/config"
	"polymarket-quoter/internal/exchange"
	"polymarket-quoter/internal/market"
	"polymarket-quoter/internal/metrics"
	"polymarket-quoter/internal/oracle"
	"polymarket-quoter/internal/risk"
	"polymarket-quoter/internal/store"
	"polymarket-quoter/internal/strategy"
	"polymarket-quoter/pkg/types"
)

const overlapWarnSuppressWindow = 15 * time.Second

// Engine owns the cycle ticker's lifecycle and the shared, process-wide
// singletons spec.md §5 calls for: a cached venue client and a cached
// database handle, both constructed once in New and never hot-swapped.
type Engine struct {
	cfg       *config.Config
	client    *exchange.Client
	auth      *exchange.Auth
	usrFeed   *exchange.WSFeed // nil in paper mode
	positions *strategy.Positions
	store     *store.Store
	metrics   *metrics.Metrics
	cycle     *Cycle
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu              sync.Mutex
	stopped         bool
	inFlight        bool
	lastOverlapWarn time.Time
	startedAt       time.Time
	cyclesCompleted int
	lastCycleAt     time.Time
	totalOrders     int
}

// New wires every subsystem: auth/client (deriving L2 credentials if
// missing), the relational store, the risk governor, candidate discovery,
// the reconciler or paper simulator depending on cfg.Paper, the advisory
// oracle, and metrics.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	auth, err := exchange.NewAuth(*cfg)
	if err != nil {
		return nil, fmt.Errorf("init auth: %w", err)
	}

	client := exchange.NewClient(*cfg, auth, logger)

	if !auth.HasL2Credentials() {
		logger.Info("no L2 credentials configured, deriving via L1 auth")
		creds, err := client.DeriveAPIKey(context.Background())
		if err != nil {
			return nil, fmt.Errorf("derive api key: %w", err)
		}
		auth.SetCredentials(*creds)
	}

	st, err := store.Open(cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	positions := strategy.NewPositions()
	if existing, err := st.AllPositions(context.Background()); err != nil {
		logger.Error("failed to load persisted positions", "error", err)
	} else {
		for _, p := range existing {
			positions.Set(p.ConditionID, p.NetPosition)
		}
	}

	governor := risk.NewGovernor(cfg, st, logger)
	catalog := market.NewCatalog(cfg, logger)
	enricher := market.NewEnricher(cfg, logger)
	orc := oracle.New(cfg, logger)
	mtx := metrics.New()

	var reconciler *strategy.Reconciler
	var paperSim *strategy.PaperSimulator
	var usrFeed *exchange.WSFeed

	if cfg.Paper {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		paperSim = strategy.NewPaperSimulator(rng, st, logger)
	} else {
		reconciler = strategy.NewReconciler(client, st, logger)
		usrFeed = exchange.NewUserFeed(cfg.API.WSUserURL, auth, logger)
	}

	cycle := NewCycle(cfg, governor, catalog, enricher, client, reconciler, paperSim, positions, st, orc, mtx, logger)

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		cfg:       cfg,
		client:    client,
		auth:      auth,
		usrFeed:   usrFeed,
		positions: positions,
		store:     st,
		metrics:   mtx,
		cycle:     cycle,
		logger:    logger.With("component", "engine"),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start runs an immediate first cycle, then launches the periodic ticker
// loop and, in live mode, the user feed listener. Start returns once the
// first cycle completes; the ticker loop itself runs in the background.
func (e *Engine) Start() error {
	e.startedAt = time.Now()

	if _, err := e.RunCycle(context.Background()); err != nil {
		e.logger.Error("initial cycle failed", "error", err)
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.tickLoop()
	}()

	if e.usrFeed != nil {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			if err := e.usrFeed.Run(e.ctx); err != nil && e.ctx.Err() == nil {
				e.logger.Error("user feed error", "error", err)
			}
		}()

		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.listenFills()
		}()
	}

	return nil
}

// tickLoop fires RunCycle at the configured interval; an overlap is simply
// a dropped tick (spec.md §4.1), logged at most once per 15 seconds.
func (e *Engine) tickLoop() {
	ticker := time.NewTicker(e.cfg.Strategy.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.RunCycle(context.Background()); err != nil {
				e.logWarnOverlap()
			}
		}
	}
}

// RunCycle runs one cycle if none is already in flight. It is safe to call
// concurrently from the ticker loop and from the control API's run_cycle
// action; only one wins the overlap guard at a time. The cycle itself
// always runs against a context detached from Stop's cancellation, so a
// shutdown never aborts an in-flight cycle mid-stride.
func (e *Engine) RunCycle(ctx context.Context) (CycleResult, error) {
	if !e.acquireInFlight() {
		return CycleResult{}, fmt.Errorf("cycle already in progress")
	}
	defer e.releaseInFlight()

	result, err := e.cycle.Run(ctx)
	if err != nil {
		e.logger.Error("cycle run failed", "error", err)
		return result, err
	}

	e.mu.Lock()
	e.cyclesCompleted++
	e.lastCycleAt = time.Now()
	e.totalOrders += result.OrdersPlaced
	e.mu.Unlock()

	return result, nil
}

// ApplyConfigOverrides updates the running config's strategy/risk tunables
// in place, per spec.md §6's run_cycle "config as in §3" parameters: a
// zero value leaves the corresponding field unchanged. Takes effect on the
// next cycle (including one started immediately after by the caller).
func (e *Engine) ApplyConfigOverrides(orderSize float64, baseSpreadBps, maxMarkets int, maxPosition float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if orderSize > 0 {
		e.cfg.Strategy.OrderSize = orderSize
	}
	if baseSpreadBps > 0 {
		e.cfg.Strategy.BaseSpreadBps = baseSpreadBps
	}
	if maxMarkets > 0 {
		e.cfg.Strategy.MaxMarkets = maxMarkets
	}
	if maxPosition > 0 {
		e.cfg.Risk.MaxPosition = maxPosition
	}
}

func (e *Engine) acquireInFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight {
		return false
	}
	e.inFlight = true
	return true
}

func (e *Engine) releaseInFlight() {
	e.mu.Lock()
	e.inFlight = false
	e.mu.Unlock()
}

func (e *Engine) logWarnOverlap() {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()
	if now.Sub(e.lastOverlapWarn) < overlapWarnSuppressWindow {
		return
	}
	e.lastOverlapWarn = now
	e.logger.Warn("cycle overlap: previous cycle still running, dropping tick")
}

// listenFills folds live trade notifications into the position ledger
// between cycles; the next cycle's reconciler re-quotes against whatever
// the venue reports resting, so this listener only needs to keep the
// persisted position current.
func (e *Engine) listenFills() {
	for {
		select {
		case <-e.ctx.Done():
			return
		case trade, ok := <-e.usrFeed.TradeEvents():
			if !ok {
				return
			}
			e.applyTrade(trade)
		}
	}
}

func (e *Engine) applyTrade(trade types.WSTradeEvent) {
	size := parseTradeFloat(trade.Size)
	if size == 0 {
		return
	}

	delta := size
	if types.Side(trade.Side) == types.SELL {
		delta = -size
	}

	newPosition := e.positions.Apply(trade.Market, delta)
	if err := e.store.SetPosition(context.Background(), trade.Market, newPosition); err != nil {
		e.logger.Error("failed to persist position from live fill", "condition_id", trade.Market, "error", err)
	}
	e.logger.Info("live fill applied", "condition_id", trade.Market, "side", trade.Side, "size", size, "position", newPosition)
}

func parseTradeFloat(s string) float64 {
	var f float64
	_, _ = fmt.Sscanf(s, "%f", &f)
	return f
}

// Stop disables future ticks and waits for any in-flight cycle and the live
// feed listener to finish, then runs a best-effort cancel-all and closes
// shared resources. Idempotent: a second call is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	e.logger.Info("shutting down")
	e.cancel()
	e.wg.Wait()

	cancelCtx, cancelFn := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelFn()
	if _, err := e.client.CancelAll(cancelCtx); err != nil {
		e.logger.Error("best-effort cancel-all failed on shutdown", "error", err)
	}

	if e.usrFeed != nil {
		if err := e.usrFeed.Close(); err != nil {
			e.logger.Error("failed to close user feed", "error", err)
		}
	}
	if err := e.store.Close(); err != nil {
		e.logger.Error("failed to close store", "error", err)
	}

	e.logger.Info("shutdown complete")
}

// HealthSnapshot is the shape the health endpoint reports (spec.md §6).
type HealthSnapshot struct {
	Status      string        `json:"status"`
	Mode        string        `json:"mode"`
	Cycles      int           `json:"cycles"`
	LastCycle   time.Time     `json:"lastCycle"`
	TotalOrders int           `json:"totalOrders"`
	Uptime      time.Duration `json:"uptime"`
}

// Health reports the running counters the health endpoint serves.
func (e *Engine) Health() HealthSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	mode := "live"
	if e.cfg.Paper {
		mode = "paper"
	}

	return HealthSnapshot{
		Status:      "ok",
		Mode:        mode,
		Cycles:      e.cyclesCompleted,
		LastCycle:   e.lastCycleAt,
		TotalOrders: e.totalOrders,
		Uptime:      time.Since(e.startedAt),
	}
}

// Client exposes the venue client for the control API.
func (e *Engine) Client() *exchange.Client { return e.client }

// Auth exposes the auth provider for the control API's derive_creds/whoami actions.
func (e *Engine) Auth() *exchange.Auth { return e.auth }

// Store exposes the relational store for the control API's read actions.
func (e *Engine) Store() *store.Store { return e.store }

// Positions exposes the in-memory position ledger for the control API.
func (e *Engine) Positions() *strategy.Positions { return e.positions }

// Metrics exposes the Prometheus registry for the /metrics endpoint.
func (e *Engine) Metrics() *metrics.Metrics { return e.metrics }

// Config exposes the active configuration for the control API's run_cycle
// parameter overrides.
func (e *Engine) Config() *config.Config { return e.cfg }

// Catalog exposes the market catalog for the control API's get_markets action.
func (e *Engine) Catalog() *market.Catalog { return e.cycle.catalog }
