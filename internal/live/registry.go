package live

import (
	"context"
	"sort"
	"sync"

	"github.com/keel-lab/keel-trading/internal/journal"
	"github.com/keel-lab/keel-trading/internal/logger"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"go.uber.org/zap"
)

// runningDeployment is the handle of one supervisor goroutine. done closes
// after the loop has exited and the registry entry has been removed.
type runningDeployment struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// SupervisorRegistry owns every running deployment loop. All lifecycle state
// lives behind its mutex; there is no other record of what is running.
type SupervisorRegistry struct {
	mu      sync.Mutex
	running map[string]*runningDeployment
	journal *journal.Journal
	logger  *logger.Logger
}

func NewSupervisorRegistry(journal *journal.Journal, logger *logger.Logger) *SupervisorRegistry {
	return &SupervisorRegistry{
		running: make(map[string]*runningDeployment),
		journal: journal,
		logger:  logger,
	}
}

// Deploy persists the deployment row and starts its loop in a goroutine,
// returning the deployment id. Deploying an id that is already running is an
// error. The loop runs under a child of ctx, so cancelling ctx stops every
// deployment started from it.
func (r *SupervisorRegistry) Deploy(ctx context.Context, supervisor *Supervisor) (string, error) {
	id := supervisor.ID()

	r.mu.Lock()
	if _, exists := r.running[id]; exists {
		r.mu.Unlock()
		return "", errors.Newf(errors.ErrCodeDeploymentRunning, "deployment %s is already running", id)
	}

	if err := r.journal.CreateDeployment(supervisor.Deployment()); err != nil {
		r.mu.Unlock()
		return "", err
	}

	runCtx, cancel := context.WithCancel(ctx)
	handle := &runningDeployment{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.running[id] = handle
	r.mu.Unlock()

	r.logger.Info("deployment registered",
		zap.String("deployment_id", id),
		zap.String("strategy", supervisor.Deployment().Strategy),
		zap.String("symbol", supervisor.Deployment().Symbol),
	)

	go func() {
		defer close(handle.done)
		defer r.remove(id)

		supervisor.Run(runCtx)
	}()

	return id, nil
}

// Stop cancels the deployment's loop and waits for it to exit. ctx bounds
// the wait; the loop finishes its current cycle before observing the cancel.
func (r *SupervisorRegistry) Stop(ctx context.Context, id string) error {
	r.mu.Lock()
	handle, exists := r.running[id]
	r.mu.Unlock()

	if !exists {
		return errors.Newf(errors.ErrCodeDeploymentNotRunning, "deployment %s is not running", id)
	}

	handle.cancel()

	select {
	case <-handle.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopAll stops every running deployment. Loops that exited between the
// snapshot and the stop are skipped.
func (r *SupervisorRegistry) StopAll(ctx context.Context) error {
	for _, id := range r.Running() {
		err := r.Stop(ctx, id)
		if err == nil || errors.HasCode(err, errors.ErrCodeDeploymentNotRunning) {
			continue
		}

		return err
	}

	return nil
}

// Running returns the ids of the running deployments in sorted order.
func (r *SupervisorRegistry) Running() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.running))
	for id := range r.running {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// IsRunning reports whether the deployment's loop is still alive.
func (r *SupervisorRegistry) IsRunning(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.running[id]

	return exists
}

func (r *SupervisorRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.running, id)
}
