package live_test

import (
	"context"
	"strings"
	"time"

	"github.com/keel-lab/keel-trading/e2e/trading/mockserver"
	"github.com/keel-lab/keel-trading/internal/types"
)

// A paper deployment should buy on the scripted signal, hold exactly one
// position, and close it again on the sell signal, all inside the journal.
func (s *LiveLoopE2ETestSuite) TestPaperRoundTrip() {
	id := s.deploy(s.paperConfig("e2e-paper"), nil)

	s.waitStatus(id, types.DeploymentStatusActive)

	s.script.Set(types.SignalTypeBuy)
	s.waitPosition(id, true)

	position, err := s.journal.GetPosition(id, e2eSymbol)
	s.Require().NoError(err)
	lastClose := s.bars[len(s.bars)-1].Close
	s.InDelta(1000/lastClose, position.Unwrap().Quantity, 1e-6)

	orders, err := s.journal.ListOrders(id, 0)
	s.Require().NoError(err)
	s.Require().NotEmpty(orders)
	s.Equal(types.OrderStatusFilled, orders[0].Status)
	s.True(orders[0].Paper)
	s.Equal(types.SideBuy, orders[0].Side)

	s.script.Set(types.SignalTypeSell)
	s.waitPosition(id, false)

	orders, err = s.journal.ListOrders(id, 0)
	s.Require().NoError(err)
	s.Require().GreaterOrEqual(len(orders), 2)
	s.Equal(types.SideSell, orders[0].Side)
	s.Equal(types.OrderStatusFilled, orders[0].Status)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Require().NoError(s.registry.Stop(ctx, id))

	deployment, err := s.journal.GetDeployment(id)
	s.Require().NoError(err)
	s.Equal(types.DeploymentStatusStopped, deployment.Status)
}

// A live deployment must hand the order to the brokerage under the journal
// order id and record it as placed, leaving the position untouched until
// reconciliation confirms the fill.
func (s *LiveLoopE2ETestSuite) TestLivePlacesOrderAtBrokerage() {
	id := s.deploy(s.liveConfig("e2e-live"), s.brokerageProvider())

	s.script.Set(types.SignalTypeBuy)
	s.Require().Eventually(func() bool {
		return len(s.server.Orders()) >= 1
	}, waitFor, tick, "no order reached the brokerage")
	s.script.Set(types.SignalTypeHold)

	orders, err := s.journal.ListOrders(id, 0)
	s.Require().NoError(err)
	s.Require().NotEmpty(orders)

	oldest := orders[len(orders)-1]
	s.Equal(types.OrderStatusPlaced, oldest.Status)
	s.False(oldest.Paper)
	s.Require().True(oldest.BrokerageOrderID.IsSome())

	brokerageOrder, ok := s.server.OrderByClientID(oldest.ID)
	s.Require().True(ok, "brokerage never saw order %s", oldest.ID)
	s.Equal(oldest.BrokerageOrderID.Unwrap(), brokerageOrder.BrokerageOrderID)
	s.Equal(e2eAccountID, brokerageOrder.AccountID)
	s.Equal(mockserver.OrderStatusFilled, brokerageOrder.Status)

	position, err := s.journal.GetPosition(id, e2eSymbol)
	s.Require().NoError(err)
	s.True(position.IsNone(), "live fills must wait for reconciliation")

	s.waitStatus(id, types.DeploymentStatusActive)
}

// Revoking the server-side token must not surface as a deployment error:
// the client refreshes once and resends.
func (s *LiveLoopE2ETestSuite) TestTokenRefreshAfterRevocation() {
	id := s.deploy(s.liveConfig("e2e-refresh"), s.brokerageProvider())

	s.script.Set(types.SignalTypeBuy)
	s.Require().Eventually(func() bool {
		return len(s.server.Orders()) >= 1
	}, waitFor, tick)
	s.script.Set(types.SignalTypeHold)

	// Let any in-flight cycle drain before capturing the baselines.
	time.Sleep(2 * time.Second)

	tokensBefore := s.server.TokenRequests()
	ordersBefore := len(s.server.Orders())

	s.server.RevokeTokens()
	s.script.Set(types.SignalTypeBuy)

	s.Require().Eventually(func() bool {
		return len(s.server.Orders()) > ordersBefore
	}, waitFor, tick, "no order placed after token revocation")
	s.script.Set(types.SignalTypeHold)

	s.Equal(tokensBefore+1, s.server.TokenRequests())
	s.waitStatus(id, types.DeploymentStatusActive)
}

// Exhausting the retry budget marks the deployment as erroring with the
// cause, and the next clean cycle recovers it to active.
func (s *LiveLoopE2ETestSuite) TestRateLimitExhaustionAndRecovery() {
	id := s.deploy(s.liveConfig("e2e-retry"), s.brokerageProvider())

	s.waitStatus(id, types.DeploymentStatusActive)

	s.server.RateLimitNext(3)
	s.script.Set(types.SignalTypeBuy)

	s.Require().Eventually(func() bool {
		deployment, err := s.journal.GetDeployment(id)
		return err == nil &&
			deployment.Status == types.DeploymentStatusError &&
			deployment.LastError.IsSome() &&
			strings.Contains(deployment.LastError.Unwrap(), "after 3 attempts")
	}, waitFor, tick, "deployment never recorded the retry exhaustion")

	s.Equal(3, s.server.RateLimited())

	// The burst is spent, so the following cycle recovers on its own.
	s.waitStatus(id, types.DeploymentStatusActive)
	s.Require().Eventually(func() bool {
		return len(s.server.Orders()) >= 1
	}, waitFor, tick)
	s.script.Set(types.SignalTypeHold)

	deployment, err := s.journal.GetDeployment(id)
	s.Require().NoError(err)
	s.True(deployment.LastError.IsNone(), "recovery must clear last_error")

	entries, err := s.journal.ExecutionLog(id, 0)
	s.Require().NoError(err)

	failures := 0
	for _, entry := range entries {
		if !entry.Success {
			failures++
		}
	}
	s.Equal(1, failures, "one failed cycle must log exactly one failure entry")
}

// Orders rejected by the venue (not rate limits) fail the cycle without
// retries and without leaving journal state behind.
func (s *LiveLoopE2ETestSuite) TestVenueRejectionMarksError() {
	id := s.deploy(s.liveConfig("e2e-reject"), s.brokerageProvider())

	s.waitStatus(id, types.DeploymentStatusActive)

	s.server.FailOrdersNext(1)
	s.script.Set(types.SignalTypeBuy)

	s.Require().Eventually(func() bool {
		deployment, err := s.journal.GetDeployment(id)
		return err == nil &&
			deployment.Status == types.DeploymentStatusError &&
			deployment.LastError.IsSome() &&
			strings.Contains(deployment.LastError.Unwrap(), "status 500")
	}, waitFor, tick, "deployment never recorded the venue rejection")

	// The next submission goes through and recovers the deployment.
	s.waitStatus(id, types.DeploymentStatusActive)
	s.Require().Eventually(func() bool {
		return len(s.server.Orders()) >= 1
	}, waitFor, tick)
	s.script.Set(types.SignalTypeHold)

	// The rejected attempt must not leave an order row behind.
	orders, err := s.journal.ListOrders(id, 0)
	s.Require().NoError(err)
	s.Require().NotEmpty(orders)
	for _, order := range orders {
		s.Equal(types.OrderStatusPlaced, order.Status)
	}
}

// ListAccounts through the venue provider reads the account book the mock
// server was seeded with.
func (s *LiveLoopE2ETestSuite) TestListAccountsThroughVenue() {
	accounts, err := s.brokerageProvider().ListAccounts(context.Background())
	s.Require().NoError(err)
	s.Require().Len(accounts, 1)
	s.Equal(e2eAccountID, accounts[0].ID)
	s.Equal("USD", accounts[0].Currency)
	s.InDelta(1000000.0, accounts[0].Cash, 1e-9)
}

// StopAll stops every running deployment and persists their final status.
func (s *LiveLoopE2ETestSuite) TestStopAllStopsEveryDeployment() {
	paperID := s.deploy(s.paperConfig("e2e-stop-a"), nil)
	liveID := s.deploy(s.liveConfig("e2e-stop-b"), s.brokerageProvider())

	s.ElementsMatch([]string{paperID, liveID}, s.registry.Running())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Require().NoError(s.registry.StopAll(ctx))

	s.Empty(s.registry.Running())

	for _, id := range []string{paperID, liveID} {
		deployment, err := s.journal.GetDeployment(id)
		s.Require().NoError(err)
		s.Equal(types.DeploymentStatusStopped, deployment.Status)
	}
}
