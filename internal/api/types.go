package api

import "polymarket-quoter/internal/store"

// Request is the action-dispatch envelope every control API call carries
// (spec.md §6): {action, ...params}.
type Request struct {
	Action string `json:"action"`

	Limit int `json:"limit,omitempty"` // get_markets

	// run_cycle accepts the same tunables as §3's config surface; zero
	// values mean "leave the running config's value unchanged".
	OrderSize     float64 `json:"orderSize,omitempty"`
	BaseSpreadBps int     `json:"baseSpreadBps,omitempty"`
	MaxMarkets    int     `json:"maxMarkets,omitempty"`
	MaxPosition   float64 `json:"maxPosition,omitempty"`
}

// ErrorResponse is the shape every failed action returns (spec.md §6:
// "errors return {error: string} with HTTP 4xx/5xx").
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatsResponse is the get_stats action's result.
type StatsResponse struct {
	OpenOrders     int               `json:"openOrders"`
	TotalValue     float64           `json:"totalValue"`
	PnL            float64           `json:"pnl"`
	CumulativePnL  float64           `json:"cumulativePnl"`
	OpenPositions  int               `json:"openPositions"`
	Positions      []PositionSummary `json:"positions"`
	CircuitBreaker bool              `json:"circuitBreaker"`
}

// PositionSummary is one row of get_stats/get_positions's position list.
type PositionSummary struct {
	ConditionID string  `json:"conditionId"`
	NetPosition float64 `json:"netPosition"`
}

// PnLHistoryResponse is the get_pnl_history action's result: up to 30 most
// recent daily rows with a running cumulative column (spec.md §6).
type PnLHistoryResponse struct {
	Entries []store.PnLHistoryEntry `json:"entries"`
}

// RunCycleResponse matches spec.md §6's documented run_cycle result shape
// exactly: {logs[], ordersPlaced, circuitBreaker, sponsoredMarkets,
// totalMarkets, avgSponsor}. OrdersCancelled is carried too, since the
// cycle driver already computes it; the six named fields always appear.
type RunCycleResponse struct {
	Logs             []string `json:"logs"`
	OrdersPlaced     int      `json:"ordersPlaced"`
	OrdersCancelled  int      `json:"ordersCancelled"`
	CircuitBreaker   bool     `json:"circuitBreaker"`
	SponsoredMarkets int      `json:"sponsoredMarkets"`
	TotalMarkets     int      `json:"totalMarkets"`
	AvgSponsor       float64  `json:"avgSponsor"`
}

// WhoamiResponse is the diagnostic bundle spec.md §6 describes: identity,
// a sample of open orders, and recent live actions. Geoblocked is always
// false: no geoblock probe is made.
type WhoamiResponse struct {
	Address       string                  `json:"address"`
	FunderAddress string                  `json:"funderAddress"`
	ChainID       int64                   `json:"chainId"`
	Geoblocked    bool                    `json:"geoblocked"`
	OpenOrders    []OpenOrderSummary      `json:"openOrders"`
	RecentActions []store.TradeLogEntry   `json:"recentActions"`
}

// OpenOrderSummary is whoami's open-orders sample row.
type OpenOrderSummary struct {
	ID          string `json:"id"`
	ConditionID string `json:"conditionId"`
	Side        string `json:"side"`
	Price       string `json:"price"`
	Size        string `json:"size"`
}

// HealthResponse matches spec.md §6's health endpoint: GET / returns
// {status, mode, cycles, lastCycle, totalOrders, uptime}.
type HealthResponse struct {
	Status      string  `json:"status"`
	Mode        string  `json:"mode"`
	Cycles      int     `json:"cycles"`
	LastCycle   string  `json:"lastCycle"`
	TotalOrders int     `json:"totalOrders"`
	Uptime      float64 `json:"uptime"`
}

// DeriveCredsResponse is derive_creds's truncated API-key-prefix result.
type DeriveCredsResponse struct {
	APIKeyPrefix string `json:"apiKeyPrefix"`
}
