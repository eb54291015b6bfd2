package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/keel-lab/keel-trading/internal/backtest"
	"github.com/keel-lab/keel-trading/internal/journal"
	"github.com/keel-lab/keel-trading/internal/logger"
	tradingprovider "github.com/keel-lab/keel-trading/internal/trading/provider"
	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/keel-lab/keel-trading/pkg/marketdata/provider"
	"github.com/keel-lab/keel-trading/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
)

// stubDataProvider serves a scripted bar window and records the requested
// fetch parameters.
type stubDataProvider struct {
	mu           sync.Mutex
	bars         []types.MarketData
	err          error
	calls        int
	lastStart    time.Time
	lastEnd      time.Time
	lastInterval types.Interval
}

func (p *stubDataProvider) ConfigWriter(w writer.MarketDataWriter) {}

func (p *stubDataProvider) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, interval types.Interval, onProgress provider.OnDownloadProgress) (string, error) {
	return "", nil
}

func (p *stubDataProvider) FetchBars(ctx context.Context, symbol string, start time.Time, end time.Time, interval types.Interval) ([]types.MarketData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	p.lastStart = start
	p.lastEnd = end
	p.lastInterval = interval

	return p.bars, p.err
}

func (p *stubDataProvider) set(bars []types.MarketData, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bars = bars
	p.err = err
}

func (p *stubDataProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.calls
}

func supervisorConfig(id string) DeploymentConfig {
	return DeploymentConfig{
		ID:           id,
		Strategy:     "sma_crossover",
		Symbol:       "AAPL",
		Mode:         types.DeploymentModePaper,
		PositionSize: 1000,
		SizeMode:     types.SizeModeAmount,
		OrderType:    types.OrderTypeMarket,
		Interval:     time.Hour,
		LookbackBars: 30,
		MinBars:      20,
		BarInterval:  types.Interval1h,
	}
}

type SupervisorTestSuite struct {
	suite.Suite

	journal *journal.Journal
	logger  *logger.Logger
}

func TestSupervisorSuite(t *testing.T) {
	suite.Run(t, new(SupervisorTestSuite))
}

func (suite *SupervisorTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.logger = log
}

func (suite *SupervisorTestSuite) SetupTest() {
	store, err := journal.NewJournal("", suite.logger)
	suite.Require().NoError(err)
	suite.Require().NoError(store.Initialize())
	suite.journal = store
}

func (suite *SupervisorTestSuite) TearDownTest() {
	suite.NoError(suite.journal.Close())
}

// newSupervisor wires a supervisor against the suite journal and creates its
// deployment row, as the registry would.
func (suite *SupervisorTestSuite) newSupervisor(config DeploymentConfig, runner backtest.Runner, data provider.Provider, trading tradingprovider.TradingProvider) *Supervisor {
	evaluator := NewSignalEvaluator(runner, suite.logger)
	gateway := NewExecutionGateway(suite.journal, trading, suite.logger)

	supervisor, err := NewSupervisor(config, &holdStrategy{}, data, evaluator, gateway, suite.journal, suite.logger)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.journal.CreateDeployment(supervisor.Deployment()))

	return supervisor
}

func (suite *SupervisorTestSuite) deployment(id string) types.Deployment {
	deployment, err := suite.journal.GetDeployment(id)
	suite.Require().NoError(err)

	return deployment
}

func (suite *SupervisorTestSuite) TestCycleBuySignalOpensPosition() {
	data := &stubDataProvider{bars: makeBars(25)}
	runner := &stubRunner{result: backtest.Result{Symbol: "AAPL", Trades: []types.Trade{openTrade()}}}
	supervisor := suite.newSupervisor(supervisorConfig("dep-1"), runner, data, nil)

	supervisor.cycle(context.Background())

	position, err := suite.journal.GetPosition("dep-1", "AAPL")
	suite.Require().NoError(err)
	suite.Require().True(position.IsSome())

	deployment := suite.deployment("dep-1")
	suite.Equal(types.DeploymentStatusActive, deployment.Status)
	suite.True(deployment.LastError.IsNone())
	suite.True(deployment.LastRunAt.IsSome())

	entries, err := suite.journal.ExecutionLog("dep-1", 0)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.True(entries[0].Success)
	suite.Contains(entries[0].Message, "filled")
}

func (suite *SupervisorTestSuite) TestCycleRequestsLookbackWindow() {
	data := &stubDataProvider{bars: makeBars(25)}
	runner := &stubRunner{}
	supervisor := suite.newSupervisor(supervisorConfig("dep-1"), runner, data, nil)

	supervisor.cycle(context.Background())

	suite.Equal(types.Interval1h, data.lastInterval)
	suite.Equal(30*time.Hour, data.lastEnd.Sub(data.lastStart))
}

func (suite *SupervisorTestSuite) TestCycleHoldAppendsNoActionEntry() {
	data := &stubDataProvider{bars: makeBars(25)}
	runner := &stubRunner{result: backtest.Result{Symbol: "AAPL"}}
	supervisor := suite.newSupervisor(supervisorConfig("dep-1"), runner, data, nil)

	supervisor.cycle(context.Background())

	entries, err := suite.journal.ExecutionLog("dep-1", 0)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.True(entries[0].Success)
	suite.Equal(types.SignalTypeHold, entries[0].Signal)
	suite.Contains(entries[0].Message, "no action")

	suite.Equal(types.DeploymentStatusActive, suite.deployment("dep-1").Status)
}

func (suite *SupervisorTestSuite) TestCycleFetchErrorMarksErrorAndRecovers() {
	data := &stubDataProvider{}
	data.set(nil, errors.New(errors.ErrCodeMarketDataFetchFailed, "polygon unreachable"))

	runner := &stubRunner{result: backtest.Result{Symbol: "AAPL"}}
	supervisor := suite.newSupervisor(supervisorConfig("dep-1"), runner, data, nil)

	supervisor.cycle(context.Background())

	deployment := suite.deployment("dep-1")
	suite.Equal(types.DeploymentStatusError, deployment.Status)
	suite.Require().True(deployment.LastError.IsSome())
	suite.Contains(deployment.LastError.Unwrap(), "polygon unreachable")
	suite.True(deployment.LastRunAt.IsSome())

	entries, err := suite.journal.ExecutionLog("dep-1", 0)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.False(entries[0].Success)

	// The next successful cycle moves the deployment back to active.
	data.set(makeBars(25), nil)
	supervisor.cycle(context.Background())

	deployment = suite.deployment("dep-1")
	suite.Equal(types.DeploymentStatusActive, deployment.Status)
	suite.True(deployment.LastError.IsNone())
}

func (suite *SupervisorTestSuite) TestCycleEmptyWindowIsNoData() {
	data := &stubDataProvider{bars: []types.MarketData{}}
	runner := &stubRunner{}
	supervisor := suite.newSupervisor(supervisorConfig("dep-1"), runner, data, nil)

	supervisor.cycle(context.Background())

	deployment := suite.deployment("dep-1")
	suite.Equal(types.DeploymentStatusError, deployment.Status)
	suite.Require().True(deployment.LastError.IsSome())
	suite.Contains(deployment.LastError.Unwrap(), "no 1h bars")

	suite.Zero(runner.calls)
}

func (suite *SupervisorTestSuite) TestCycleInsufficientDataMarksError() {
	data := &stubDataProvider{bars: makeBars(10)}
	runner := &stubRunner{}
	supervisor := suite.newSupervisor(supervisorConfig("dep-1"), runner, data, nil)

	supervisor.cycle(context.Background())

	deployment := suite.deployment("dep-1")
	suite.Equal(types.DeploymentStatusError, deployment.Status)
	suite.Zero(runner.calls)

	entries, err := suite.journal.ExecutionLog("dep-1", 0)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.False(entries[0].Success)
}

func (suite *SupervisorTestSuite) TestCycleExecutionFailureWritesOneEntry() {
	config := supervisorConfig("dep-1")
	config.Mode = types.DeploymentModeLive
	config.Venue = "brokerage"
	config.AccountID = "acc-1"

	data := &stubDataProvider{bars: makeBars(25)}
	runner := &stubRunner{result: backtest.Result{Symbol: "AAPL", Trades: []types.Trade{openTrade()}}}
	trading := &stubTradingProvider{err: errors.New(errors.ErrCodeMaxRetriesExceeded, "gave up after 3 attempts")}
	supervisor := suite.newSupervisor(config, runner, data, trading)

	supervisor.cycle(context.Background())

	deployment := suite.deployment("dep-1")
	suite.Equal(types.DeploymentStatusError, deployment.Status)
	suite.Require().True(deployment.LastError.IsSome())
	suite.Contains(deployment.LastError.Unwrap(), "gave up")

	// The gateway writes the failure entry; the supervisor must not add a
	// second one.
	entries, err := suite.journal.ExecutionLog("dep-1", 0)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.False(entries[0].Success)
}

func (suite *SupervisorTestSuite) TestCycleSellSignalClosesPosition() {
	data := &stubDataProvider{bars: makeBars(25)}
	buyRunner := &stubRunner{result: backtest.Result{Symbol: "AAPL", Trades: []types.Trade{openTrade()}}}
	supervisor := suite.newSupervisor(supervisorConfig("dep-1"), buyRunner, data, nil)

	supervisor.cycle(context.Background())

	position, err := suite.journal.GetPosition("dep-1", "AAPL")
	suite.Require().NoError(err)
	suite.Require().True(position.IsSome())

	// Swap in an evaluator whose runner now reports a closed round trip.
	sellRunner := &stubRunner{result: backtest.Result{Symbol: "AAPL", Trades: []types.Trade{closedTrade()}}}
	supervisor.evaluator = NewSignalEvaluator(sellRunner, suite.logger)

	supervisor.cycle(context.Background())

	position, err = suite.journal.GetPosition("dep-1", "AAPL")
	suite.Require().NoError(err)
	suite.True(position.IsNone())
}

func (suite *SupervisorTestSuite) TestRunStopsDuringSleep() {
	data := &stubDataProvider{bars: makeBars(25)}
	runner := &stubRunner{result: backtest.Result{Symbol: "AAPL"}}
	supervisor := suite.newSupervisor(supervisorConfig("dep-1"), runner, data, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		supervisor.Run(ctx)
	}()

	// Wait for the first cycle, then cancel while the loop sleeps.
	suite.Eventually(func() bool {
		return data.callCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		suite.FailNow("supervisor did not stop")
	}

	suite.Equal(1, data.callCount())
	suite.Equal(types.DeploymentStatusStopped, suite.deployment("dep-1").Status)
}

func (suite *SupervisorTestSuite) TestRunWithCancelledContextStopsImmediately() {
	data := &stubDataProvider{bars: makeBars(25)}
	runner := &stubRunner{}
	supervisor := suite.newSupervisor(supervisorConfig("dep-1"), runner, data, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	supervisor.Run(ctx)

	suite.Zero(data.callCount())
	suite.Equal(types.DeploymentStatusStopped, suite.deployment("dep-1").Status)
}

func (suite *SupervisorTestSuite) TestNewSupervisorRejectsBadConfig() {
	config := supervisorConfig("dep-1")
	config.Mode = types.DeploymentModeLive
	config.Venue = ""

	evaluator := NewSignalEvaluator(&stubRunner{}, suite.logger)
	gateway := NewExecutionGateway(suite.journal, nil, suite.logger)

	_, err := NewSupervisor(config, &holdStrategy{}, &stubDataProvider{}, evaluator, gateway, suite.journal, suite.logger)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *SupervisorTestSuite) TestNewSupervisorRequiresCollaborators() {
	config := supervisorConfig("dep-1")
	evaluator := NewSignalEvaluator(&stubRunner{}, suite.logger)
	gateway := NewExecutionGateway(suite.journal, nil, suite.logger)

	_, err := NewSupervisor(config, nil, &stubDataProvider{}, evaluator, gateway, suite.journal, suite.logger)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = NewSupervisor(config, &holdStrategy{}, nil, evaluator, gateway, suite.journal, suite.logger)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}
