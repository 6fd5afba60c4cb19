package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuya-takeyama/atm-sync/pkg/logger"
	"github.com/yuya-takeyama/atm-sync/pkg/planner"
	"github.com/yuya-takeyama/atm-sync/pkg/transport"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownAction is returned for a plan item the executor cannot perform.
var ErrUnknownAction = errors.New("unknown action")

type Executor struct {
	transport   transport.Transport
	logger      logger.Logger
	concurrency int
	dryRun      bool
}

type Option func(*Executor)

// WithConcurrency sets how many uploads may run at once. Values below 2 keep
// the uploads strictly sequential.
func WithConcurrency(n int) Option {
	return func(e *Executor) {
		e.concurrency = n
	}
}

// WithDryRun makes the executor log each planned upload without performing it.
func WithDryRun(dryRun bool) Option {
	return func(e *Executor) {
		e.dryRun = dryRun
	}
}

func NewExecutor(t transport.Transport, log logger.Logger, opts ...Option) *Executor {
	if log == nil {
		log = &logger.NullLogger{}
	}
	e := &Executor{
		transport:   t,
		logger:      log,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.concurrency < 1 {
		e.concurrency = 1
	}
	return e
}

type Result struct {
	Item  planner.Item
	Error error
}

// Execute uploads items and stops at the first failure. Items that were
// never attempted have no entry in the returned results.
func (e *Executor) Execute(ctx context.Context, items []planner.Item) ([]Result, error) {
	if e.concurrency == 1 || len(items) < 2 {
		return e.executeSequential(ctx, items)
	}
	return e.executeParallel(ctx, items)
}

func (e *Executor) executeSequential(ctx context.Context, items []planner.Item) ([]Result, error) {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		err := e.executeItem(ctx, item)
		results = append(results, Result{Item: item, Error: err})
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (e *Executor) executeParallel(ctx context.Context, items []planner.Item) ([]Result, error) {
	attempted := make([]bool, len(items))
	results := make([]Result, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := e.executeItem(gctx, item)
			attempted[i] = true
			results[i] = Result{Item: item, Error: err}
			return err
		})
	}

	err := g.Wait()

	done := make([]Result, 0, len(items))
	for i := range items {
		if attempted[i] {
			done = append(done, results[i])
		}
	}
	return done, err
}

func (e *Executor) executeItem(ctx context.Context, item planner.Item) error {
	if item.Action != planner.ActionUpload {
		return fmt.Errorf("%s: %w %q", item.ID, ErrUnknownAction, item.Action)
	}

	e.logger.Upload(item.LocalPath, item.RemotePath)
	if e.dryRun {
		return nil
	}
	if err := e.transport.Upload(ctx, item.LocalPath, item.RemotePath); err != nil {
		e.logger.Error("upload", item.RemotePath, err)
		return fmt.Errorf("upload %s: %w", item.ID, err)
	}
	return nil
}
