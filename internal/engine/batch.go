package engine

import (
	"context"
	"sync"

	"github.com/hiregate/hiregate/internal/models"
	"golang.org/x/sync/errgroup"
)

// EventType identifies a batch progress event.
type EventType string

const (
	EventBatchStart         EventType = "batch_start"
	EventBatchComplete      EventType = "batch_complete"
	EventEvaluationStart    EventType = "evaluation_start"
	EventEvaluationComplete EventType = "evaluation_complete"
)

// ProgressEvent is a progress update emitted during batch evaluation.
type ProgressEvent struct {
	Type        EventType
	Index       int
	Total       int
	InterviewID string
	Decision    string
	Err         error
}

// ProgressListener receives progress updates. Listeners are invoked
// serially; they must not block for long.
type ProgressListener func(event ProgressEvent)

// BatchItem is the outcome of one input in a batch. Exactly one of Result
// and Err is set.
type BatchItem struct {
	Index       int
	InterviewID string
	Result      *models.EvaluationResult
	Err         error
}

// DefaultBatchWorkers bounds batch concurrency when the caller passes
// workers <= 0.
const DefaultBatchWorkers = 4

// EvaluateBatch evaluates many interviews concurrently. Evaluations share no
// mutable state, so they run one-per-goroutine with no coordination beyond
// the worker limit. Results are returned in input order regardless of
// completion order; per-interview failures are recorded on their item and do
// not stop the batch. The returned error is non-nil only when ctx is
// cancelled.
func (e *Engine) EvaluateBatch(ctx context.Context, inputs []models.EvaluationInput, workers int, listeners ...ProgressListener) ([]BatchItem, error) {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	var mu sync.Mutex
	notify := func(event ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		for _, l := range listeners {
			l(event)
		}
	}

	notify(ProgressEvent{Type: EventBatchStart, Total: len(inputs)})

	items := make([]BatchItem, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			notify(ProgressEvent{
				Type:        EventEvaluationStart,
				Index:       i,
				Total:       len(inputs),
				InterviewID: input.InterviewID,
			})

			result, err := e.Evaluate(gctx, input)
			items[i] = BatchItem{
				Index:       i,
				InterviewID: input.InterviewID,
				Result:      result,
				Err:         err,
			}

			event := ProgressEvent{
				Type:        EventEvaluationComplete,
				Index:       i,
				Total:       len(inputs),
				InterviewID: input.InterviewID,
				Err:         err,
			}
			if result != nil {
				event.Decision = result.Decision
			}
			notify(event)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return items, err
	}

	notify(ProgressEvent{Type: EventBatchComplete, Total: len(inputs)})
	return items, nil
}
