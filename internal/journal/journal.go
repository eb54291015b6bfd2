package journal

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// defaultListLimit bounds reverse-chronological reads when the caller does
// not ask for a specific page size.
const defaultListLimit = 50

// Journal is the durable store of deployments, orders, positions and the
// execution log, backed by a single DuckDB database. All ledger keys are
// scoped by deployment id, so callers never need cross-deployment locking;
// a paper fill writes its Order row and Position mutation in one
// transaction.
type Journal struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewJournal opens (or creates) the journal database at path. An empty path
// opens an in-memory database, which tests use.
func NewJournal(path string, logger *logger.Logger) (*Journal, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		logger.Error("Failed to open journal database", zap.String("path", path), zap.Error(err))

		return nil, errors.Wrapf(errors.ErrCodeJournalInitFailed, err, "failed to open journal database at %s", path)
	}

	return &Journal{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the journal tables.
func (j *Journal) Initialize() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS deployments (
			id VARCHAR PRIMARY KEY,
			strategy VARCHAR NOT NULL,
			symbol VARCHAR NOT NULL,
			mode VARCHAR NOT NULL,
			status VARCHAR NOT NULL,
			account_id VARCHAR,
			venue VARCHAR,
			position_size DOUBLE NOT NULL,
			size_mode VARCHAR NOT NULL,
			order_type VARCHAR NOT NULL,
			strategy_config VARCHAR,
			created_at TIMESTAMP NOT NULL,
			last_run_at TIMESTAMP,
			last_error VARCHAR
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to create deployments table", err)
	}

	_, err = j.db.Exec(`
		CREATE TABLE IF NOT EXISTS positions (
			deployment_id VARCHAR NOT NULL,
			symbol VARCHAR NOT NULL,
			quantity DOUBLE NOT NULL,
			average_price DOUBLE NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (deployment_id, symbol)
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to create positions table", err)
	}

	_, err = j.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			id VARCHAR PRIMARY KEY,
			deployment_id VARCHAR NOT NULL,
			symbol VARCHAR NOT NULL,
			side VARCHAR NOT NULL,
			order_type VARCHAR NOT NULL,
			quantity DOUBLE,
			amount DOUBLE,
			status VARCHAR NOT NULL,
			fill_price DOUBLE,
			paper BOOLEAN NOT NULL,
			brokerage_order_id VARCHAR,
			signal VARCHAR,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to create orders table", err)
	}

	// Orders are read back per deployment in reverse-chronological order.
	_, err = j.db.Exec(`CREATE INDEX IF NOT EXISTS idx_orders_deployment ON orders (deployment_id)`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to create orders index", err)
	}

	_, err = j.db.Exec(`
		CREATE TABLE IF NOT EXISTS execution_log (
			id VARCHAR PRIMARY KEY,
			deployment_id VARCHAR NOT NULL,
			signal VARCHAR NOT NULL,
			message VARCHAR NOT NULL,
			success BOOLEAN NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to create execution_log table", err)
	}

	_, err = j.db.Exec(`CREATE INDEX IF NOT EXISTS idx_execution_log_deployment ON execution_log (deployment_id)`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to create execution_log index", err)
	}

	return nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if err := j.db.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to close journal database", err)
	}

	return nil
}

// CreateDeployment persists a new deployment row. Status defaults to active
// and created_at to now when unset.
func (j *Journal) CreateDeployment(deployment types.Deployment) error {
	if err := deployment.Validate(); err != nil {
		return err
	}

	if deployment.Status == "" {
		deployment.Status = types.DeploymentStatusActive
	}

	if deployment.CreatedAt.IsZero() {
		deployment.CreatedAt = time.Now().UTC()
	}

	insertQuery := j.sq.
		Insert("deployments").
		Columns(
			"id", "strategy", "symbol", "mode", "status", "account_id", "venue",
			"position_size", "size_mode", "order_type", "strategy_config",
			"created_at", "last_run_at", "last_error",
		).
		Values(
			deployment.ID, deployment.Strategy, deployment.Symbol, deployment.Mode,
			deployment.Status, nullableString(deployment.AccountID), nullableString(deployment.Venue),
			deployment.PositionSize, deployment.SizeMode, deployment.OrderType,
			nullableString(deployment.StrategyConfig), deployment.CreatedAt,
			timeOrNil(deployment.LastRunAt), stringOrNil(deployment.LastError),
		).
		RunWith(j.db)

	if _, err := insertQuery.Exec(); err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to insert deployment %s", deployment.ID)
	}

	return nil
}

// GetDeployment loads one deployment by id.
func (j *Journal) GetDeployment(id string) (types.Deployment, error) {
	row := j.sq.
		Select(deploymentColumns()...).
		From("deployments").
		Where(squirrel.Eq{"id": id}).
		RunWith(j.db).
		QueryRow()

	deployment, err := scanDeployment(row)
	if err == sql.ErrNoRows {
		return types.Deployment{}, errors.Newf(errors.ErrCodeDeploymentNotFound, "deployment %s not found", id)
	}

	if err != nil {
		return types.Deployment{}, errors.Wrapf(errors.ErrCodeJournalQueryFailed, err, "failed to load deployment %s", id)
	}

	return deployment, nil
}

// ListDeployments returns all deployments, newest first.
func (j *Journal) ListDeployments() ([]types.Deployment, error) {
	rows, err := j.sq.
		Select(deploymentColumns()...).
		From("deployments").
		OrderBy("created_at DESC").
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to list deployments", err)
	}
	defer rows.Close()

	var deployments []types.Deployment

	for rows.Next() {
		deployment, err := scanDeployment(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to scan deployment", err)
		}

		deployments = append(deployments, deployment)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to list deployments", err)
	}

	return deployments, nil
}

// UpdateDeploymentStatus sets a deployment's status and last error message.
func (j *Journal) UpdateDeploymentStatus(id string, status types.DeploymentStatus, lastError optional.Option[string]) error {
	result, err := j.sq.
		Update("deployments").
		Set("status", status).
		Set("last_error", stringOrNil(lastError)).
		Where(squirrel.Eq{"id": id}).
		RunWith(j.db).
		Exec()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to update status of deployment %s", id)
	}

	return requireRow(result, id)
}

// TouchDeploymentRun records the time a deployment's cycle last completed.
func (j *Journal) TouchDeploymentRun(id string, at time.Time) error {
	result, err := j.sq.
		Update("deployments").
		Set("last_run_at", at.UTC()).
		Where(squirrel.Eq{"id": id}).
		RunWith(j.db).
		Exec()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to update last run of deployment %s", id)
	}

	return requireRow(result, id)
}

// RecordFill persists one filled order and its position effect as a single
// transaction. A buy recomputes the weighted-average cost; a sell reduces
// the quantity and removes the row when it reaches zero, so a zero-quantity
// position is never persisted.
func (j *Journal) RecordFill(order types.Order) error {
	if order.Quantity.IsNone() || order.FillPrice.IsNone() {
		return errors.New(errors.ErrCodeInvalidOrder, "a fill requires both a quantity and a fill price")
	}

	order.Status = types.OrderStatusFilled
	fillQty := decimal.NewFromFloat(order.Quantity.Unwrap())
	fillPrice := decimal.NewFromFloat(order.FillPrice.Unwrap())
	now := time.Now().UTC()

	tx, err := j.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to begin fill transaction", err)
	}

	held, exists, err := j.positionForUpdate(tx, order.DeploymentID, order.Symbol)
	if err != nil {
		tx.Rollback()

		return err
	}

	switch order.Side {
	case types.SideBuy:
		heldQty := decimal.NewFromFloat(held.Quantity)
		heldCost := heldQty.Mul(decimal.NewFromFloat(held.AveragePrice))
		newQty := heldQty.Add(fillQty)
		newAvg := heldCost.Add(fillQty.Mul(fillPrice)).Div(newQty).Round(8)

		if exists {
			err = j.updatePosition(tx, order.DeploymentID, order.Symbol, newQty.InexactFloat64(), newAvg.InexactFloat64(), now)
		} else {
			err = j.insertPosition(tx, order.DeploymentID, order.Symbol, newQty.InexactFloat64(), newAvg.InexactFloat64(), now)
		}

	case types.SideSell:
		if !exists {
			tx.Rollback()

			return errors.Newf(errors.ErrCodePositionNotFound, "no position to sell for deployment %s symbol %s", order.DeploymentID, order.Symbol)
		}

		remaining := decimal.NewFromFloat(held.Quantity).Sub(fillQty)

		switch remaining.Sign() {
		case -1:
			tx.Rollback()

			return errors.Newf(errors.ErrCodeInvalidOrder, "sell quantity %s exceeds held quantity %v", fillQty, held.Quantity)
		case 0:
			err = j.deletePosition(tx, order.DeploymentID, order.Symbol)
		default:
			err = j.updatePosition(tx, order.DeploymentID, order.Symbol, remaining.InexactFloat64(), held.AveragePrice, now)
		}

	default:
		tx.Rollback()

		return errors.Newf(errors.ErrCodeInvalidOrder, "unknown order side %q", order.Side)
	}

	if err != nil {
		tx.Rollback()

		return err
	}

	if err := j.insertOrder(tx, order, now); err != nil {
		tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to commit fill for order %s", order.ID)
	}

	return nil
}

// RecordPlacedOrder persists a live order that was accepted by the venue but
// not yet confirmed filled. Position mutation is deferred to status
// reconciliation.
func (j *Journal) RecordPlacedOrder(order types.Order) error {
	order.Status = types.OrderStatusPlaced

	if err := j.insertOrder(j.db, order, time.Now().UTC()); err != nil {
		return err
	}

	return nil
}

// UpdateOrderStatus moves a placed order to a terminal status, exactly once.
func (j *Journal) UpdateOrderStatus(orderID string, status types.OrderStatus, fillPrice optional.Option[float64]) error {
	if status == types.OrderStatusPlaced {
		return errors.New(errors.ErrCodeInvalidParameter, "placed is not a terminal order status")
	}

	result, err := j.sq.
		Update("orders").
		Set("status", status).
		Set("fill_price", floatOrNil(fillPrice)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": orderID, "status": types.OrderStatusPlaced}).
		RunWith(j.db).
		Exec()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to update status of order %s", orderID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to update status of order %s", orderID)
	}

	if affected == 0 {
		if _, err := j.GetOrder(orderID); err != nil {
			return err
		}

		return errors.Newf(errors.ErrCodeJournalWriteFailed, "order %s is already in a terminal status", orderID)
	}

	return nil
}

// GetOrder loads one order by id.
func (j *Journal) GetOrder(orderID string) (types.Order, error) {
	row := j.sq.
		Select(orderColumns()...).
		From("orders").
		Where(squirrel.Eq{"id": orderID}).
		RunWith(j.db).
		QueryRow()

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return types.Order{}, errors.Newf(errors.ErrCodeOrderNotFound, "order %s not found", orderID)
	}

	if err != nil {
		return types.Order{}, errors.Wrapf(errors.ErrCodeJournalQueryFailed, err, "failed to load order %s", orderID)
	}

	return order, nil
}

// ListOrders returns a deployment's orders, newest first. A non-positive
// limit falls back to the default page size.
func (j *Journal) ListOrders(deploymentID string, limit int) ([]types.Order, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := j.sq.
		Select(orderColumns()...).
		From("orders").
		Where(squirrel.Eq{"deployment_id": deploymentID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeJournalQueryFailed, err, "failed to list orders for deployment %s", deploymentID)
	}
	defer rows.Close()

	var orders []types.Order

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to scan order", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeJournalQueryFailed, err, "failed to list orders for deployment %s", deploymentID)
	}

	return orders, nil
}

// GetPosition returns the current holding for a (deployment, symbol), or
// None when no position is held.
func (j *Journal) GetPosition(deploymentID string, symbol string) (optional.Option[types.Position], error) {
	position, exists, err := j.positionForUpdate(j.db, deploymentID, symbol)
	if err != nil {
		return optional.None[types.Position](), err
	}

	if !exists {
		return optional.None[types.Position](), nil
	}

	return optional.Some(position), nil
}

// OpenPositions returns every held position across all deployments.
func (j *Journal) OpenPositions() ([]types.Position, error) {
	rows, err := j.sq.
		Select("deployment_id", "symbol", "quantity", "average_price", "updated_at").
		From("positions").
		OrderBy("deployment_id ASC", "symbol ASC").
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to list positions", err)
	}
	defer rows.Close()

	var positions []types.Position

	for rows.Next() {
		var position types.Position

		err := rows.Scan(&position.DeploymentID, &position.Symbol, &position.Quantity, &position.AveragePrice, &position.UpdatedAt)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to scan position", err)
		}

		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to list positions", err)
	}

	return positions, nil
}

// AppendExecutionLog appends one audit record. Entries are never mutated or
// deleted.
func (j *Journal) AppendExecutionLog(entry types.ExecutionLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	insertQuery := j.sq.
		Insert("execution_log").
		Columns("id", "deployment_id", "signal", "message", "success", "created_at").
		Values(entry.ID, entry.DeploymentID, entry.Signal, entry.Message, entry.Success, entry.CreatedAt).
		RunWith(j.db)

	if _, err := insertQuery.Exec(); err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to append execution log for deployment %s", entry.DeploymentID)
	}

	return nil
}

// ExecutionLog returns a deployment's audit records, newest first.
func (j *Journal) ExecutionLog(deploymentID string, limit int) ([]types.ExecutionLogEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := j.sq.
		Select("id", "deployment_id", "signal", "message", "success", "created_at").
		From("execution_log").
		Where(squirrel.Eq{"deployment_id": deploymentID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeJournalQueryFailed, err, "failed to read execution log for deployment %s", deploymentID)
	}
	defer rows.Close()

	var entries []types.ExecutionLogEntry

	for rows.Next() {
		var entry types.ExecutionLogEntry

		var signal string

		err := rows.Scan(&entry.ID, &entry.DeploymentID, &signal, &entry.Message, &entry.Success, &entry.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to scan execution log entry", err)
		}

		entry.Signal = types.SignalType(signal)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeJournalQueryFailed, err, "failed to read execution log for deployment %s", deploymentID)
	}

	return entries, nil
}

// RecentExecutionLog returns the newest entries across all deployments,
// newest first. The dashboard uses this for its activity view.
func (j *Journal) RecentExecutionLog(limit int) ([]types.ExecutionLogEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := j.sq.
		Select("id", "deployment_id", "signal", "message", "success", "created_at").
		From("execution_log").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		RunWith(j.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to read recent execution log", err)
	}
	defer rows.Close()

	var entries []types.ExecutionLogEntry

	for rows.Next() {
		var entry types.ExecutionLogEntry

		var signal string

		err := rows.Scan(&entry.ID, &entry.DeploymentID, &signal, &entry.Message, &entry.Success, &entry.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to scan execution log entry", err)
		}

		entry.Signal = types.SignalType(signal)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to read recent execution log", err)
	}

	return entries, nil
}

// positionForUpdate reads one position row through the given runner, which
// is the open transaction during a fill.
func (j *Journal) positionForUpdate(runner squirrel.BaseRunner, deploymentID string, symbol string) (types.Position, bool, error) {
	row := j.sq.
		Select("deployment_id", "symbol", "quantity", "average_price", "updated_at").
		From("positions").
		Where(squirrel.Eq{"deployment_id": deploymentID, "symbol": symbol}).
		RunWith(runner).
		QueryRow()

	var position types.Position

	err := row.Scan(&position.DeploymentID, &position.Symbol, &position.Quantity, &position.AveragePrice, &position.UpdatedAt)
	if err == sql.ErrNoRows {
		return types.Position{}, false, nil
	}

	if err != nil {
		return types.Position{}, false, errors.Wrapf(errors.ErrCodeJournalQueryFailed, err, "failed to load position for deployment %s symbol %s", deploymentID, symbol)
	}

	return position, true, nil
}

func (j *Journal) insertPosition(runner squirrel.BaseRunner, deploymentID string, symbol string, quantity float64, averagePrice float64, at time.Time) error {
	_, err := j.sq.
		Insert("positions").
		Columns("deployment_id", "symbol", "quantity", "average_price", "updated_at").
		Values(deploymentID, symbol, quantity, averagePrice, at).
		RunWith(runner).
		Exec()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to insert position for deployment %s symbol %s", deploymentID, symbol)
	}

	return nil
}

func (j *Journal) updatePosition(runner squirrel.BaseRunner, deploymentID string, symbol string, quantity float64, averagePrice float64, at time.Time) error {
	_, err := j.sq.
		Update("positions").
		Set("quantity", quantity).
		Set("average_price", averagePrice).
		Set("updated_at", at).
		Where(squirrel.Eq{"deployment_id": deploymentID, "symbol": symbol}).
		RunWith(runner).
		Exec()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to update position for deployment %s symbol %s", deploymentID, symbol)
	}

	return nil
}

func (j *Journal) deletePosition(runner squirrel.BaseRunner, deploymentID string, symbol string) error {
	_, err := j.sq.
		Delete("positions").
		Where(squirrel.Eq{"deployment_id": deploymentID, "symbol": symbol}).
		RunWith(runner).
		Exec()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to delete position for deployment %s symbol %s", deploymentID, symbol)
	}

	return nil
}

func (j *Journal) insertOrder(runner squirrel.BaseRunner, order types.Order, now time.Time) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}

	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	_, err := j.sq.
		Insert("orders").
		Columns(
			"id", "deployment_id", "symbol", "side", "order_type", "quantity",
			"amount", "status", "fill_price", "paper", "brokerage_order_id",
			"signal", "created_at", "updated_at",
		).
		Values(
			order.ID, order.DeploymentID, order.Symbol, order.Side, order.OrderType,
			floatOrNil(order.Quantity), floatOrNil(order.Amount), order.Status,
			floatOrNil(order.FillPrice), order.Paper, stringOrNil(order.BrokerageOrderID),
			order.Signal, order.CreatedAt, order.UpdatedAt,
		).
		RunWith(runner).
		Exec()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to insert order %s", order.ID)
	}

	return nil
}

func deploymentColumns() []string {
	return []string{
		"id", "strategy", "symbol", "mode", "status", "account_id", "venue",
		"position_size", "size_mode", "order_type", "strategy_config",
		"created_at", "last_run_at", "last_error",
	}
}

func scanDeployment(row squirrel.RowScanner) (types.Deployment, error) {
	var (
		deployment     types.Deployment
		mode           string
		status         string
		sizeMode       string
		orderType      string
		accountID      sql.NullString
		venue          sql.NullString
		strategyConfig sql.NullString
		lastRunAt      sql.NullTime
		lastError      sql.NullString
	)

	err := row.Scan(
		&deployment.ID, &deployment.Strategy, &deployment.Symbol, &mode, &status,
		&accountID, &venue, &deployment.PositionSize, &sizeMode, &orderType,
		&strategyConfig, &deployment.CreatedAt, &lastRunAt, &lastError,
	)
	if err != nil {
		return types.Deployment{}, err
	}

	deployment.Mode = types.DeploymentMode(mode)
	deployment.Status = types.DeploymentStatus(status)
	deployment.SizeMode = types.SizeMode(sizeMode)
	deployment.OrderType = types.OrderType(orderType)
	deployment.AccountID = accountID.String
	deployment.Venue = venue.String
	deployment.StrategyConfig = strategyConfig.String

	if lastRunAt.Valid {
		deployment.LastRunAt = optional.Some(lastRunAt.Time)
	}

	if lastError.Valid {
		deployment.LastError = optional.Some(lastError.String)
	}

	return deployment, nil
}

func orderColumns() []string {
	return []string{
		"id", "deployment_id", "symbol", "side", "order_type", "quantity",
		"amount", "status", "fill_price", "paper", "brokerage_order_id",
		"signal", "created_at", "updated_at",
	}
}

func scanOrder(row squirrel.RowScanner) (types.Order, error) {
	var (
		order            types.Order
		side             string
		orderType        string
		status           string
		signal           string
		quantity         sql.NullFloat64
		amount           sql.NullFloat64
		fillPrice        sql.NullFloat64
		brokerageOrderID sql.NullString
	)

	err := row.Scan(
		&order.ID, &order.DeploymentID, &order.Symbol, &side, &orderType,
		&quantity, &amount, &status, &fillPrice, &order.Paper,
		&brokerageOrderID, &signal, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return types.Order{}, err
	}

	order.Side = types.Side(side)
	order.OrderType = types.OrderType(orderType)
	order.Status = types.OrderStatus(status)
	order.Signal = types.SignalType(signal)

	if quantity.Valid {
		order.Quantity = optional.Some(quantity.Float64)
	}

	if amount.Valid {
		order.Amount = optional.Some(amount.Float64)
	}

	if fillPrice.Valid {
		order.FillPrice = optional.Some(fillPrice.Float64)
	}

	if brokerageOrderID.Valid {
		order.BrokerageOrderID = optional.Some(brokerageOrderID.String)
	}

	return order, nil
}

func requireRow(result sql.Result, deploymentID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to update deployment %s", deploymentID)
	}

	if affected == 0 {
		return errors.Newf(errors.ErrCodeDeploymentNotFound, "deployment %s not found", deploymentID)
	}

	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}

	return s
}

func stringOrNil(opt optional.Option[string]) any {
	if opt.IsNone() {
		return nil
	}

	return opt.Unwrap()
}

func timeOrNil(opt optional.Option[time.Time]) any {
	if opt.IsNone() {
		return nil
	}

	return opt.Unwrap()
}

func floatOrNil(opt optional.Option[float64]) any {
	if opt.IsNone() {
		return nil
	}

	return opt.Unwrap()
}
