package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkusuma/courtview/domain/entities"
	"github.com/mkusuma/courtview/domain/repositories"
)

// ErrClosed is returned when operating on a controller after Close.
var ErrClosed = errors.New("stream controller is closed")

// resultsFetchTimeout bounds the single results fetch triggered by a
// complete event.
const resultsFetchTimeout = 30 * time.Second

// Controller maintains a consistent, monotonically-growing view of one
// case's live simulation. It subscribes to the per-case event stream,
// folds incoming events into a SimulationSession, and reconciles the
// live view with the authoritative results fetch on completion.
//
// Events are consumed by a single goroutine, so folding is sequential.
// After Close returns, no further session mutation occurs, even when
// in-flight events or fetches resolve later.
type Controller struct {
	caseID  string
	backend repositories.SimulationBackend
	source  repositories.StreamSource
	logger  *zap.Logger

	// onUpdate receives a session copy after every state change.
	onUpdate func(entities.SimulationSession)

	mu      sync.Mutex
	session *entities.SimulationSession
	sub     repositories.Subscription
	opened  bool
	closed  bool
	done    chan struct{}
}

// NewController creates a controller for one case. onUpdate may be nil.
func NewController(
	caseID string,
	backend repositories.SimulationBackend,
	source repositories.StreamSource,
	onUpdate func(entities.SimulationSession),
	logger *zap.Logger,
) *Controller {
	return &Controller{
		caseID:   caseID,
		backend:  backend,
		source:   source,
		onUpdate: onUpdate,
		logger:   logger,
		session:  entities.NewSimulationSession(caseID),
		done:     make(chan struct{}),
	}
}

// Open establishes the subscription and runs the initial status check:
// an already completed simulation fetches final results immediately,
// otherwise the session moves to Running and live events are consumed
// until completion, error, or Close. Open is idempotent; calling it
// again while open is a no-op.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.opened {
		c.mu.Unlock()
		return nil
	}
	c.opened = true
	c.mu.Unlock()

	sub, err := c.source.Subscribe(ctx, c.caseID)
	if err != nil {
		c.fail(fmt.Sprintf("subscription failed: %v", err))
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.Close()
		return ErrClosed
	}
	c.sub = sub
	c.mu.Unlock()

	status, err := c.backend.Status(ctx, c.caseID)
	if err != nil {
		c.logger.Error("Initial status check failed",
			zap.String("caseID", c.caseID),
			zap.Error(err))
		c.fail(fmt.Sprintf("status check failed: %v", err))
		sub.Close()
		return err
	}

	if status.Completed {
		err := c.fetchCompletion(ctx)
		sub.Close()
		return err
	}

	c.apply(func(s *entities.SimulationSession) error {
		if status.Progress > 0 {
			s.Progress = status.Progress
			s.Step = status.Step
		}
		return s.Run()
	})

	go c.consume(sub)
	return nil
}

// Close releases the subscription and fences all further session
// mutation. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sub := c.sub
	c.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	close(c.done)
	c.logger.Info("Stream controller closed", zap.String("caseID", c.caseID))
}

// Done is closed when the controller is closed.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() entities.SimulationSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Snapshot()
}

// DownloadReport fetches the report artifact for the case. Failures are
// returned to the caller and never alter session state.
func (c *Controller) DownloadReport(ctx context.Context) (*repositories.Report, error) {
	report, err := c.backend.Report(ctx, c.caseID)
	if err != nil {
		return nil, fmt.Errorf("report download for case %s: %w", c.caseID, err)
	}
	return report, nil
}

// consume is the single event loop for the subscription. It exits when
// the event channel closes, whether by Close or by transport failure.
func (c *Controller) consume(sub repositories.Subscription) {
	for frame := range sub.Events() {
		event, err := ParseEvent(frame)
		if err != nil {
			// Malformed frames are logged and skipped, never fatal.
			c.logger.Warn("Dropping malformed stream event",
				zap.String("caseID", c.caseID),
				zap.Error(err))
			continue
		}

		c.handleEvent(event)

		c.mu.Lock()
		terminal := c.session.Phase.Terminal()
		c.mu.Unlock()
		if terminal {
			sub.Close()
			return
		}
	}

	// Transport loss is not distinguished from an application error:
	// both land in Errored.
	if err := sub.Err(); err != nil {
		c.logger.Error("Stream connection lost",
			zap.String("caseID", c.caseID),
			zap.Error(err))
		c.fail(fmt.Sprintf("connection lost: %v", err))
	}
}

func (c *Controller) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeEvidenceProgress, EventTypeSimulationProgress:
		c.apply(func(s *entities.SimulationSession) error {
			return s.ApplyProgress(event.Progress.Progress, event.Progress.Step)
		})

	case EventTypeThinking:
		c.apply(func(s *entities.SimulationSession) error {
			return s.ApplyThinking(event.Thinking.Role, event.Thinking.Message)
		})

	case EventTypeTurn:
		c.apply(func(s *entities.SimulationSession) error {
			return s.AppendTurn(*event.Turn)
		})

	case EventTypeError:
		c.fail(event.Error.Message)

	case EventTypeComplete:
		// Single fetch attempt, per contract. Completed is entered only
		// once the session holds the authoritative server list.
		ctx, cancel := context.WithTimeout(context.Background(), resultsFetchTimeout)
		defer cancel()
		if err := c.fetchCompletion(ctx); err != nil {
			c.logger.Error("Results fetch on completion failed",
				zap.String("caseID", c.caseID),
				zap.Error(err))
		}
	}
}

// fetchCompletion fetches the authoritative results and moves the
// session to Completed, replacing the live-accumulated turn list.
func (c *Controller) fetchCompletion(ctx context.Context) error {
	results, err := c.backend.Results(ctx, c.caseID)
	if err != nil {
		c.fail(fmt.Sprintf("results fetch failed: %v", err))
		return err
	}

	c.apply(func(s *entities.SimulationSession) error {
		return s.Complete(results.Turns, results.SimulationText)
	})
	return nil
}

// apply runs a mutation against the session unless the controller has
// been closed, then notifies the observer with a copy.
func (c *Controller) apply(mutate func(*entities.SimulationSession) error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if err := mutate(c.session); err != nil {
		c.mu.Unlock()
		c.logger.Warn("Dropping event for terminal session",
			zap.String("caseID", c.caseID),
			zap.Error(err))
		return
	}
	snapshot := c.session.Snapshot()
	c.mu.Unlock()

	if c.onUpdate != nil {
		c.onUpdate(snapshot)
	}
}

func (c *Controller) fail(message string) {
	c.apply(func(s *entities.SimulationSession) error {
		s.Fail(message)
		return nil
	})
}
