package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"polymarket-quoter/internal/engine"
	"polymarket-quoter/internal/store"
	"polymarket-quoter/pkg/types"
)

// Handlers dispatches every control API action (spec.md §6) against a
// single running Engine.
type Handlers struct {
	engine         *engine.Engine
	allowedOrigins []string
	logger         *slog.Logger
}

// NewHandlers builds a Handlers bound to one engine instance.
func NewHandlers(eng *engine.Engine, allowedOrigins []string, logger *slog.Logger) *Handlers {
	return &Handlers{
		engine:         eng,
		allowedOrigins: allowedOrigins,
		logger:         logger.With("component", "api-handlers"),
	}
}

// HandleHealth implements GET /health: a bare "OK" (spec.md §6).
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "OK")
}

// HandleRoot implements GET /: the headless health summary.
func (h *Handlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	health := h.engine.Health()
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:      health.Status,
		Mode:        health.Mode,
		Cycles:      health.Cycles,
		LastCycle:   health.LastCycle.UTC().Format(time.RFC3339),
		TotalOrders: health.TotalOrders,
		Uptime:      health.Uptime.Seconds(),
	})
}

// HandleAction implements the action-dispatch control API: a POST carries
// {action, ...params} in its body, and any other method names the action in
// the ?action= query parameter; the response shape depends on the action
// (spec.md §6).
func (h *Handlers) HandleAction(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req Request
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
			return
		}
	} else {
		req.Action = r.URL.Query().Get("action")
	}

	if req.Action == "" {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("missing action"))
		return
	}

	ctx := r.Context()

	switch req.Action {
	case "derive_creds":
		h.handleDeriveCreds(ctx, w)
	case "get_markets":
		h.handleGetMarkets(ctx, w, req)
	case "get_stats":
		h.handleGetStats(ctx, w)
	case "get_positions":
		h.handleGetPositions(ctx, w)
	case "get_pnl_history":
		h.handleGetPnLHistory(ctx, w)
	case "cancel_all":
		h.handleCancelAll(ctx, w)
	case "reset_positions":
		h.handleResetPositions(ctx, w)
	case "run_cycle":
		h.handleRunCycle(ctx, w, req)
	case "whoami":
		h.handleWhoami(ctx, w)
	default:
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown action %q", req.Action))
	}
}

func (h *Handlers) handleDeriveCreds(ctx context.Context, w http.ResponseWriter) {
	creds, err := h.engine.Client().DeriveAPIKey(ctx)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("derive creds: %w", err))
		return
	}
	prefix := creds.ApiKey
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	h.writeJSON(w, http.StatusOK, DeriveCredsResponse{APIKeyPrefix: prefix})
}

func (h *Handlers) handleGetMarkets(ctx context.Context, w http.ResponseWriter, req Request) {
	markets, err := h.engine.Catalog().Fetch(ctx)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("fetch markets: %w", err))
		return
	}
	limit := req.Limit
	if limit > 0 && limit < len(markets) {
		markets = markets[:limit]
	}
	h.writeJSON(w, http.StatusOK, markets)
}

func (h *Handlers) handleGetStats(ctx context.Context, w http.ResponseWriter) {
	positions, err := h.engine.Store().AllPositions(ctx)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("load positions: %w", err))
		return
	}

	pnl, err := h.engine.Store().TodayPnL(ctx)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("load today's pnl: %w", err))
		return
	}

	history, err := h.engine.Store().PnLHistory(ctx, 1)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("load pnl history: %w", err))
		return
	}
	var cumulative float64
	if len(history) > 0 {
		cumulative = history[0].CumulativePnL
	}

	openOrders, err := h.engine.Client().GetOpenOrders(ctx, "")
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("load open orders: %w", err))
		return
	}

	resp := StatsResponse{
		OpenOrders:     len(openOrders),
		PnL:            pnl.RealizedPnL,
		CumulativePnL:  cumulative,
		OpenPositions:  len(positions),
		Positions:      toPositionSummaries(positions),
		CircuitBreaker: pnl.CircuitBreakerTriggered,
	}
	for _, p := range positions {
		resp.TotalValue += p.NetPosition
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) handleGetPositions(ctx context.Context, w http.ResponseWriter) {
	positions, err := h.engine.Store().AllPositions(ctx)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("load positions: %w", err))
		return
	}
	h.writeJSON(w, http.StatusOK, toPositionSummaries(positions))
}

func (h *Handlers) handleGetPnLHistory(ctx context.Context, w http.ResponseWriter) {
	const maxPnLHistoryRows = 30
	history, err := h.engine.Store().PnLHistory(ctx, maxPnLHistoryRows)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("load pnl history: %w", err))
		return
	}
	h.writeJSON(w, http.StatusOK, PnLHistoryResponse{Entries: history})
}

func (h *Handlers) handleCancelAll(ctx context.Context, w http.ResponseWriter) {
	resp, err := h.engine.Client().CancelAll(ctx)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("cancel all: %w", err))
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) handleResetPositions(ctx context.Context, w http.ResponseWriter) {
	if err := h.engine.Store().ResetPositions(ctx); err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("reset positions: %w", err))
		return
	}
	h.engine.Positions().Reset()
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleRunCycle(ctx context.Context, w http.ResponseWriter, req Request) {
	h.engine.ApplyConfigOverrides(req.OrderSize, req.BaseSpreadBps, req.MaxMarkets, req.MaxPosition)

	result, err := h.engine.RunCycle(ctx)
	if err != nil {
		h.writeError(w, http.StatusConflict, err)
		return
	}
	h.writeJSON(w, http.StatusOK, RunCycleResponse{
		Logs:             result.Logs,
		OrdersPlaced:     result.OrdersPlaced,
		OrdersCancelled:  result.OrdersCancelled,
		CircuitBreaker:   result.CircuitBreaker,
		SponsoredMarkets: result.SponsoredMarkets,
		TotalMarkets:     result.TotalMarkets,
		AvgSponsor:       result.AvgSponsor,
	})
}

func (h *Handlers) handleWhoami(ctx context.Context, w http.ResponseWriter) {
	auth := h.engine.Auth()

	openOrders, err := h.engine.Client().GetOpenOrders(ctx, "")
	if err != nil {
		h.logger.Warn("whoami: open orders sample failed", "error", err)
	}

	const recentActionsLimit = 20
	recent, err := h.engine.Store().RecentTradeLog(ctx, recentActionsLimit)
	if err != nil {
		h.logger.Warn("whoami: recent trade log failed", "error", err)
	}

	h.writeJSON(w, http.StatusOK, WhoamiResponse{
		Address:       auth.Address().Hex(),
		FunderAddress: auth.FunderAddress().Hex(),
		ChainID:       auth.ChainID().Int64(),
		Geoblocked:    false,
		OpenOrders:    toOpenOrderSummaries(openOrders),
		RecentActions: recent,
	})
}

func toPositionSummaries(positions []store.Position) []PositionSummary {
	out := make([]PositionSummary, 0, len(positions))
	for _, p := range positions {
		out = append(out, PositionSummary{ConditionID: p.ConditionID, NetPosition: p.NetPosition})
	}
	return out
}

func toOpenOrderSummaries(orders []types.OpenOrder) []OpenOrderSummary {
	const sampleSize = 20
	if len(orders) > sampleSize {
		orders = orders[:sampleSize]
	}
	out := make([]OpenOrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, OpenOrderSummary{
			ID:          o.ID,
			ConditionID: o.Market,
			Side:        o.Side,
			Price:       o.Price,
			Size:        o.OriginalSize,
		})
	}
	return out
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	h.logger.Error("action failed", "status", status, "error", err)
	h.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// setCORSHeaders applies spec.md §6's "CORS headers permissive" contract,
// constrained by an optional allowlist.
func (h *Handlers) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" || isOriginAllowed(origin, h.allowedOrigins, r.Host) {
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func isOriginAllowed(origin string, allowedOrigins []string, reqHost string) bool {
	if origin == "" {
		// Non-browser clients often omit Origin; keep this path functional.
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	normalized := normalizeOrigin(originURL.Scheme, originURL.Host)
	if normalized == "" {
		return false
	}

	if len(allowedOrigins) > 0 {
		for _, allowed := range allowedOrigins {
			u, err := url.Parse(allowed)
			if err != nil {
				continue
			}
			if normalized == normalizeOrigin(u.Scheme, u.Host) {
				return true
			}
		}
		return false
	}

	host := strings.ToLower(originURL.Hostname())
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}

	reqHostname := normalizeHost(reqHost)
	return reqHostname != "" && host == reqHostname
}

func normalizeOrigin(scheme, host string) string {
	if scheme == "" || host == "" {
		return ""
	}
	return strings.ToLower(scheme) + "://" + strings.ToLower(host)
}

func normalizeHost(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(hostport)
}
