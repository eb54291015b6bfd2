package live

import (
	"context"
	"fmt"
	"strconv"

	"github.com/keel-lab/keel-trading/internal/journal"
	"github.com/keel-lab/keel-trading/internal/logger"
	tradingprovider "github.com/keel-lab/keel-trading/internal/trading/provider"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// paperQuantityPrecision is the decimal precision amount-sized paper fills
// are rounded to.
const paperQuantityPrecision = 8

// ExecutionGateway turns order requests into journal rows. Paper deployments
// fill immediately at the latest close inside a single journal transaction;
// live deployments submit to the trading provider and record the order as
// placed. Every Execute call appends exactly one execution log entry,
// whether it succeeded or not.
type ExecutionGateway struct {
	journal  *journal.Journal
	provider tradingprovider.TradingProvider
	logger   *logger.Logger
}

// NewExecutionGateway builds a gateway. provider may be nil when every
// deployment runs in paper mode; live execution without one fails.
func NewExecutionGateway(journal *journal.Journal, provider tradingprovider.TradingProvider, logger *logger.Logger) *ExecutionGateway {
	return &ExecutionGateway{
		journal:  journal,
		provider: provider,
		logger:   logger,
	}
}

// Execute applies one order request for the deployment. currentPrice is the
// close of the bar that produced the signal; paper fills happen at it and
// amount-sized entries are converted to shares with it.
func (g *ExecutionGateway) Execute(ctx context.Context, deployment types.Deployment, req types.OrderRequest, currentPrice float64) (types.ExecutionResult, error) {
	if err := req.Validate(); err != nil {
		g.appendLog(deployment.ID, req.Signal, fmt.Sprintf("%s %s %s: %v", deployment.Mode, req.Side, req.Symbol, err), false)
		return types.ExecutionResult{}, err
	}

	if deployment.Mode == types.DeploymentModeLive {
		return g.executeLive(ctx, deployment, req)
	}
	return g.executePaper(deployment, req, currentPrice)
}

func (g *ExecutionGateway) executePaper(deployment types.Deployment, req types.OrderRequest, currentPrice float64) (types.ExecutionResult, error) {
	quantity, err := paperQuantity(req, currentPrice)
	if err != nil {
		g.appendLog(deployment.ID, req.Signal, fmt.Sprintf("paper %s %s: %v", req.Side, req.Symbol, err), false)
		return types.ExecutionResult{}, err
	}

	order := types.Order{
		ID:           req.ID,
		DeploymentID: deployment.ID,
		Symbol:       req.Symbol,
		Side:         req.Side,
		OrderType:    req.OrderType,
		Quantity:     optional.Some(quantity),
		Amount:       req.Amount,
		Status:       types.OrderStatusFilled,
		FillPrice:    optional.Some(currentPrice),
		Paper:        true,
		Signal:       req.Signal,
	}

	if err := g.journal.RecordFill(order); err != nil {
		g.appendLog(deployment.ID, req.Signal, fmt.Sprintf("paper %s %s: %v", req.Side, req.Symbol, err), false)
		return types.ExecutionResult{}, err
	}

	message := fmt.Sprintf("paper %s %s: filled %s @ %s",
		req.Side, req.Symbol, formatFloat(quantity), formatFloat(currentPrice))
	g.appendLog(deployment.ID, req.Signal, message, true)

	g.logger.Info("paper order filled",
		zap.String("deployment_id", deployment.ID),
		zap.String("order_id", order.ID),
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.Float64("quantity", quantity),
		zap.Float64("fill_price", currentPrice),
	)

	return types.ExecutionResult{Order: order, Filled: true, Message: message}, nil
}

func (g *ExecutionGateway) executeLive(ctx context.Context, deployment types.Deployment, req types.OrderRequest) (types.ExecutionResult, error) {
	if g.provider == nil {
		err := errors.New(errors.ErrCodeInvalidConfiguration, "live execution requires a trading provider")
		g.appendLog(deployment.ID, req.Signal, fmt.Sprintf("live %s %s: %v", req.Side, req.Symbol, err), false)
		return types.ExecutionResult{}, err
	}

	placed, err := g.provider.PlaceOrder(ctx, deployment.AccountID, req)
	if err != nil {
		g.appendLog(deployment.ID, req.Signal, fmt.Sprintf("live %s %s: %v", req.Side, req.Symbol, err), false)
		return types.ExecutionResult{}, err
	}

	order := types.Order{
		ID:               req.ID,
		DeploymentID:     deployment.ID,
		Symbol:           req.Symbol,
		Side:             req.Side,
		OrderType:        req.OrderType,
		Quantity:         req.Quantity,
		Amount:           req.Amount,
		Status:           types.OrderStatusPlaced,
		Paper:            false,
		BrokerageOrderID: optional.Some(placed.BrokerageOrderID),
		Signal:           req.Signal,
	}

	if err := g.journal.RecordPlacedOrder(order); err != nil {
		// The venue accepted the order but the journal lost it. The order id
		// is the idempotency key, so a replay cannot double-fill, but the
		// row must be restored by hand.
		g.logger.Error("placed order not journaled",
			zap.String("deployment_id", deployment.ID),
			zap.String("order_id", order.ID),
			zap.String("brokerage_order_id", placed.BrokerageOrderID),
			zap.Error(err),
		)
		g.appendLog(deployment.ID, req.Signal, fmt.Sprintf("live %s %s: %v", req.Side, req.Symbol, err), false)
		return types.ExecutionResult{}, err
	}

	message := fmt.Sprintf("live %s %s: placed, brokerage order %s",
		req.Side, req.Symbol, placed.BrokerageOrderID)
	g.appendLog(deployment.ID, req.Signal, message, true)

	g.logger.Info("live order placed",
		zap.String("deployment_id", deployment.ID),
		zap.String("order_id", order.ID),
		zap.String("brokerage_order_id", placed.BrokerageOrderID),
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
	)

	return types.ExecutionResult{Order: order, Filled: false, Message: message}, nil
}

// paperQuantity resolves the share count of a paper fill. Requests sized by
// amount are converted at the current price.
func paperQuantity(req types.OrderRequest, currentPrice float64) (float64, error) {
	if req.Quantity.IsSome() {
		return req.Quantity.Unwrap(), nil
	}

	if currentPrice <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter,
			"cannot size %s by amount at price %s", req.Symbol, formatFloat(currentPrice))
	}

	quantity := decimal.NewFromFloat(req.Amount.Unwrap()).
		Div(decimal.NewFromFloat(currentPrice)).
		Round(paperQuantityPrecision)
	if quantity.Sign() <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidOrder,
			"amount %s is too small to buy %s at %s",
			formatFloat(req.Amount.Unwrap()), req.Symbol, formatFloat(currentPrice))
	}

	return quantity.InexactFloat64(), nil
}

// appendLog writes the cycle's audit entry. A journal failure here must not
// mask the execution outcome, so it is only logged.
func (g *ExecutionGateway) appendLog(deploymentID string, signal types.SignalType, message string, success bool) {
	entry := types.ExecutionLogEntry{
		DeploymentID: deploymentID,
		Signal:       signal,
		Message:      message,
		Success:      success,
	}
	if err := g.journal.AppendExecutionLog(entry); err != nil {
		g.logger.Error("failed to append execution log entry",
			zap.String("deployment_id", deploymentID),
			zap.Error(err),
		)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
