package live

import (
	"context"
	"fmt"
	"time"

	"github.com/keel-lab/keel-trading/internal/journal"
	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/keel-lab/keel-trading/internal/strategy"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/keel-lab/keel-trading/pkg/marketdata/provider"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

// Supervisor drives the evaluation loop of one deployment: fetch the bar
// window, evaluate the signal, decide on an order, execute it, sleep, repeat.
// A failed cycle moves the deployment to the error status and the loop keeps
// going; the next successful cycle moves it back to active. The loop only
// ends when its context is cancelled, which persists the stopped status.
type Supervisor struct {
	config     DeploymentConfig
	deployment types.Deployment
	strategy   strategy.Strategy
	data       provider.Provider
	evaluator  *SignalEvaluator
	gateway    *ExecutionGateway
	journal    *journal.Journal
	logger     *logger.Logger

	// clock returns the cycle's reference time. Swappable for tests.
	clock func() time.Time
}

// NewSupervisor wires one deployment to its strategy, data source and
// execution gateway. The strategy instance is initialized here with the
// deployment's strategy config and must not be shared across supervisors.
func NewSupervisor(config DeploymentConfig, strat strategy.Strategy, data provider.Provider, evaluator *SignalEvaluator, gateway *ExecutionGateway, journal *journal.Journal, logger *logger.Logger) (*Supervisor, error) {
	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if strat == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "supervisor requires a strategy")
	}

	if data == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "supervisor requires a market data provider")
	}

	if err := strat.Initialize(config.StrategyConfig); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategyConfigError, err,
			"initializing strategy %s for deployment %s", config.Strategy, config.ID)
	}

	return &Supervisor{
		config:     config,
		deployment: config.Deployment(),
		strategy:   strat,
		data:       data,
		evaluator:  evaluator,
		gateway:    gateway,
		journal:    journal,
		logger:     logger,
		clock:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// ID returns the deployment id this supervisor drives.
func (s *Supervisor) ID() string {
	return s.deployment.ID
}

// Deployment returns the deployment row this supervisor runs.
func (s *Supervisor) Deployment() types.Deployment {
	return s.deployment
}

// Run executes evaluation cycles until ctx is cancelled. The first cycle
// runs immediately; each later one after the configured interval.
// Cancellation is honored at cycle boundaries, never mid-cycle, and always
// persists the stopped status before returning.
func (s *Supervisor) Run(ctx context.Context) {
	s.logger.Info("deployment loop started",
		zap.String("deployment_id", s.deployment.ID),
		zap.String("strategy", s.deployment.Strategy),
		zap.String("symbol", s.deployment.Symbol),
		zap.String("mode", string(s.deployment.Mode)),
		zap.Duration("interval", s.config.Interval),
	)

	defer func() {
		if err := s.journal.UpdateDeploymentStatus(s.deployment.ID, types.DeploymentStatusStopped, optional.None[string]()); err != nil {
			s.logger.Error("failed to persist stopped status",
				zap.String("deployment_id", s.deployment.ID),
				zap.Error(err),
			)
		}

		s.logger.Info("deployment loop stopped",
			zap.String("deployment_id", s.deployment.ID),
		)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.cycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.config.Interval):
		}
	}
}

// cycle runs one evaluation. Failures are recorded on the deployment row and
// in the execution log but never abort the loop.
func (s *Supervisor) cycle(ctx context.Context) {
	now := s.clock()
	start := now.Add(-time.Duration(s.config.LookbackBars) * s.config.BarInterval.Duration())

	bars, err := s.data.FetchBars(ctx, s.deployment.Symbol, start, now, s.config.BarInterval)
	if err != nil {
		s.recordCycleFailure(err, now)
		return
	}

	if len(bars) == 0 {
		s.recordCycleFailure(errors.Newf(errors.ErrCodeNoDataFound,
			"no %s bars for %s between %s and %s",
			s.config.BarInterval, s.deployment.Symbol,
			start.Format(time.RFC3339), now.Format(time.RFC3339)), now)

		return
	}

	position, err := s.journal.GetPosition(s.deployment.ID, s.deployment.Symbol)
	if err != nil {
		s.recordCycleFailure(err, now)
		return
	}

	signal, err := s.evaluator.Evaluate(ctx, s.strategy, s.deployment.Symbol, bars, s.config.MinBars, position.IsSome())
	if err != nil {
		s.recordCycleFailure(err, now)
		return
	}

	lastClose := bars[len(bars)-1].Close

	req, actionable := Decide(signal, position, s.deployment, lastClose)
	if !actionable {
		s.appendEntry(signal, fmt.Sprintf("signal %s: no action", signal), true)
		s.markCycleSuccess(now)

		return
	}

	if _, err := s.gateway.Execute(ctx, s.deployment, req, lastClose); err != nil {
		// The gateway already appended the failure entry.
		s.markCycleFailure(err, now)
		return
	}

	s.markCycleSuccess(now)
}

// recordCycleFailure handles errors raised before execution was attempted,
// where no log entry exists yet.
func (s *Supervisor) recordCycleFailure(cause error, at time.Time) {
	s.appendEntry(types.SignalTypeHold, cause.Error(), false)
	s.markCycleFailure(cause, at)
}

func (s *Supervisor) markCycleSuccess(at time.Time) {
	if err := s.journal.UpdateDeploymentStatus(s.deployment.ID, types.DeploymentStatusActive, optional.None[string]()); err != nil {
		s.logger.Error("failed to update deployment status",
			zap.String("deployment_id", s.deployment.ID),
			zap.Error(err),
		)
	}

	s.touchRun(at)
}

func (s *Supervisor) markCycleFailure(cause error, at time.Time) {
	s.logger.Warn("evaluation cycle failed",
		zap.String("deployment_id", s.deployment.ID),
		zap.String("symbol", s.deployment.Symbol),
		zap.Error(cause),
	)

	if err := s.journal.UpdateDeploymentStatus(s.deployment.ID, types.DeploymentStatusError, optional.Some(cause.Error())); err != nil {
		s.logger.Error("failed to update deployment status",
			zap.String("deployment_id", s.deployment.ID),
			zap.Error(err),
		)
	}

	s.touchRun(at)
}

func (s *Supervisor) touchRun(at time.Time) {
	if err := s.journal.TouchDeploymentRun(s.deployment.ID, at); err != nil {
		s.logger.Error("failed to record deployment run time",
			zap.String("deployment_id", s.deployment.ID),
			zap.Error(err),
		)
	}
}

func (s *Supervisor) appendEntry(signal types.SignalType, message string, success bool) {
	entry := types.ExecutionLogEntry{
		DeploymentID: s.deployment.ID,
		Signal:       signal,
		Message:      message,
		Success:      success,
	}
	if err := s.journal.AppendExecutionLog(entry); err != nil {
		s.logger.Error("failed to append execution log entry",
			zap.String("deployment_id", s.deployment.ID),
			zap.Error(err),
		)
	}
}
