// Package bulk runs one operation over many identifiers and reports each
// identifier's outcome without letting any single failure abort the batch.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/redact"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoIDs is returned when Run is given no identifiers.
	ErrNoIDs = errors.New("no identifiers provided")

	// ErrTooManyIDs is returned when Run is given more identifiers than allowed.
	ErrTooManyIDs = errors.New("too many identifiers")

	// ErrNotFound is returned by an Op when the identifier matches nothing.
	ErrNotFound = errors.New("not found")
)

// DefaultNotFoundMessage is reported for identifiers whose Op returned ErrNotFound.
const DefaultNotFoundMessage = "Not found"

// Op acts on a single identifier. Returning an error wrapping ErrNotFound
// reports the identifier as missing.
type Op func(ctx context.Context, id string) error

// Failure is the outcome of an identifier whose Op failed.
type Failure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Result lists identifiers that succeeded and those that failed. Both lists
// are in completion order, which is unspecified.
type Result struct {
	Deleted []string  `json:"deleted"`
	Failed  []Failure `json:"failed"`
}

// Config controls an Aggregator.
type Config struct {
	// MaxIDs caps how many identifiers one Run accepts. Zero means no cap.
	MaxIDs int

	// Concurrency caps how many Ops run at once. Zero means all at once.
	Concurrency int

	// NotFoundMessage replaces the error text for ErrNotFound failures.
	NotFoundMessage string
}

// Aggregator fans an Op out over identifiers and settles every attempt.
type Aggregator struct {
	config Config
}

// NewAggregator creates an Aggregator.
func NewAggregator(config Config) *Aggregator {
	if config.NotFoundMessage == "" {
		config.NotFoundMessage = DefaultNotFoundMessage
	}
	return &Aggregator{config: config}
}

// Run calls op for every id concurrently and waits for all of them. A failing
// op never cancels or delays the others; every outcome lands in the Result.
// The only errors returned are ErrNoIDs and ErrTooManyIDs, both detected
// before op is called.
func (a *Aggregator) Run(ctx context.Context, ids []string, op Op) (*Result, error) {
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}
	if a.config.MaxIDs > 0 && len(ids) > a.config.MaxIDs {
		return nil, fmt.Errorf("%w: got %d, limit is %d", ErrTooManyIDs, len(ids), a.config.MaxIDs)
	}

	log := logger.FromContext(ctx)
	result := &Result{
		Deleted: make([]string, 0, len(ids)),
		Failed:  make([]Failure, 0),
	}
	var mu sync.Mutex

	// Outcomes are reported through result; the group only joins and bounds concurrency.
	var g errgroup.Group
	if a.config.Concurrency > 0 {
		g.SetLimit(a.config.Concurrency)
	}

	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := a.call(ctx, id, op)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				result.Deleted = append(result.Deleted, id)
				return nil
			}

			msg := redact.Error(err)
			if errors.Is(err, ErrNotFound) {
				msg = a.config.NotFoundMessage
			} else {
				log.Warn("bulk item failed", slog.String("id", id), slog.String("error", msg))
			}
			result.Failed = append(result.Failed, Failure{ID: id, Error: msg})
			return nil
		})
	}
	_ = g.Wait()

	log.Debug("bulk run completed",
		slog.Int("requested", len(ids)),
		slog.Int("succeeded", len(result.Deleted)),
		slog.Int("failed", len(result.Failed)))

	return result, nil
}

// call runs op and turns a panic into a failure for that identifier alone.
func (a *Aggregator) call(ctx context.Context, id string, op Op) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("operation panicked: %v", p)
		}
	}()
	return op(ctx, id)
}
