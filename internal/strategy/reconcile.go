package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"polymarket-quoter/internal/exchange"
	"polymarket-quoter/pkg/types"
)

const reconcileToleranceBps = 0.5

// TradeLogger records one reconciliation action (placement or cancellation)
// for the trade log (spec.md §4.5/§3).
type TradeLogger interface {
	LogOrderEvent(ctx context.Context, eventType, conditionID, tokenID string, side types.Side, price, size float64, orderID string, latencyMS int64, errMsg string)
}

// Reconciler diffs a QuotePair against the venue's live resting orders for
// the same market and issues the minimal set of cancel/place calls.
type Reconciler struct {
	client *exchange.Client
	log    TradeLogger
	logger *slog.Logger
}

// NewReconciler builds a Reconciler.
func NewReconciler(client *exchange.Client, log TradeLogger, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		client: client,
		log:    log,
		logger: logger.With("component", "reconciler"),
	}
}

// ReconcileSummary counts the actions a Reconcile call took, so callers can
// report aggregate placed/cancelled counts (e.g. the run_cycle control API
// action).
type ReconcileSummary struct {
	Placed    int
	Cancelled int
}

// Reconcile reconciles both sides of one market's quote against resting.
// resting must already be filtered to this market's token ID. BUY orders
// are reconciled before SELL, per spec.md §5's ordering rule.
func (r *Reconciler) Reconcile(ctx context.Context, quote *types.QuotePair, resting []types.RestingOrderSnapshot) ReconcileSummary {
	buy := r.reconcileSide(ctx, quote.ConditionID, quote.TokenID, types.BUY, quote.Buy, filterSide(resting, types.BUY))
	sell := r.reconcileSide(ctx, quote.ConditionID, quote.TokenID, types.SELL, quote.Sell, filterSide(resting, types.SELL))
	return ReconcileSummary{
		Placed:    buy.Placed + sell.Placed,
		Cancelled: buy.Cancelled + sell.Cancelled,
	}
}

func filterSide(resting []types.RestingOrderSnapshot, side types.Side) []types.RestingOrderSnapshot {
	out := make([]types.RestingOrderSnapshot, 0, len(resting))
	for _, o := range resting {
		if o.Side == side {
			out = append(out, o)
		}
	}
	return out
}

// reconcileSide implements spec.md §4.5's per-(token,side) contract.
func (r *Reconciler) reconcileSide(ctx context.Context, conditionID, tokenID string, side types.Side, target *types.UserOrder, existing []types.RestingOrderSnapshot) ReconcileSummary {
	var summary ReconcileSummary

	if target == nil {
		// Side is paused: cancel everything, place nothing.
		for _, o := range existing {
			r.cancel(ctx, conditionID, tokenID, side, o)
			summary.Cancelled++
		}
		return summary
	}

	if len(existing) > 0 {
		first := existing[0]
		toleranceDecimal := reconcileToleranceBps / 10000.0
		if math.Abs(first.Price-target.Price) <= toleranceDecimal {
			r.logger.Info("♻️ keeping resting order", "condition_id", conditionID, "side", side, "order_id", first.ID, "price", first.Price)
		} else {
			r.cancel(ctx, conditionID, tokenID, side, first)
			summary.Cancelled++
			r.place(ctx, conditionID, target)
			summary.Placed++
		}
		for _, dup := range existing[1:] {
			r.cancel(ctx, conditionID, tokenID, side, dup)
			summary.Cancelled++
		}
		return summary
	}

	r.place(ctx, conditionID, target)
	summary.Placed++
	return summary
}

func (r *Reconciler) cancel(ctx context.Context, conditionID, tokenID string, side types.Side, order types.RestingOrderSnapshot) {
	start := time.Now()
	_, err := r.client.CancelOrders(ctx, []string{order.ID})
	latency := time.Since(start).Milliseconds()

	errMsg := ""
	if err != nil {
		errMsg = normalizeError(err)
		r.logger.Error("cancel failed", "condition_id", conditionID, "order_id", order.ID, "error", errMsg)
	}
	if r.log != nil {
		r.log.LogOrderEvent(ctx, "cancel", conditionID, tokenID, side, order.Price, order.Size, order.ID, latency, errMsg)
	}
}

func (r *Reconciler) place(ctx context.Context, conditionID string, target *types.UserOrder) {
	start := time.Now()
	resp, err := r.client.PlaceOrder(ctx, *target, false)
	latency := time.Since(start).Milliseconds()

	orderID := ""
	errMsg := ""
	if err != nil {
		errMsg = normalizeError(err)
		r.logger.Error("place failed", "condition_id", conditionID, "side", target.Side, "price", target.Price, "error", errMsg)
	} else if resp != nil {
		if resp.Success {
			orderID = resp.OrderID
		} else {
			errMsg = resp.ErrorMsg
		}
	}

	if r.log != nil {
		r.log.LogOrderEvent(ctx, "place", conditionID, target.TokenID, target.Side, target.Price, target.Size, orderID, latency, errMsg)
	}
}

// normalizeError converts any error into the stable, human-readable string
// the trade log stores (spec.md §9's single error normalizer).
func normalizeError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}
