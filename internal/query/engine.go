package query

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"golang.org/x/sync/errgroup"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// FindOptions tells a Finder which slice of the filtered set to return.
type FindOptions struct {
	Sort   []SortField
	Limit  int
	Offset int
}

// Finder is the read side of a task store.
type Finder interface {
	Find(ctx context.Context, f Filter, opts FindOptions) ([]domain.Task, error)
	Count(ctx context.Context, f Filter) (int, error)
}

// Options controls a single listing.
type Options struct {
	Sort  string
	Page  int
	Limit int
}

// Page is one page of a filtered, sorted listing.
type Page struct {
	Items      []domain.Task
	TotalCount int
	Page       int
	TotalPages int
}

// EngineConfig holds the pagination policy of an Engine.
type EngineConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultEngineConfig returns an EngineConfig with the standard limits.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{DefaultLimit: DefaultLimit, MaxLimit: MaxLimit}
}

// Engine runs filtered, sorted, paginated task listings.
type Engine struct {
	finder Finder
	config EngineConfig
}

// NewEngine creates an Engine reading from finder. Zero config values fall
// back to the defaults.
func NewEngine(finder Finder, config EngineConfig) *Engine {
	if config.DefaultLimit < 1 {
		config.DefaultLimit = DefaultLimit
	}
	if config.MaxLimit < 1 {
		config.MaxLimit = MaxLimit
	}
	if config.DefaultLimit > config.MaxLimit {
		config.DefaultLimit = config.MaxLimit
	}
	return &Engine{finder: finder, config: config}
}

// Run counts and fetches the requested page concurrently. The two reads are
// not transactionally consistent: a write landing between them can make
// TotalPages disagree slightly with Items.
func (e *Engine) Run(ctx context.Context, f Filter, opts Options) (*Page, error) {
	page, limit := e.normalize(opts.Page, opts.Limit)
	findOpts := FindOptions{
		Sort:   ParseSort(opts.Sort),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	log := logger.FromContext(ctx)
	log.Debug("running task query",
		slog.Int("page", page),
		slog.Int("limit", limit),
		slog.String("sort", opts.Sort))

	var (
		items []domain.Task
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := e.finder.Count(gctx, f)
		if err != nil {
			return fmt.Errorf("failed to count tasks: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		found, err := e.finder.Find(gctx, f, findOpts)
		if err != nil {
			return fmt.Errorf("failed to find tasks: %w", err)
		}
		items = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if items == nil {
		items = []domain.Task{}
	}

	return &Page{
		Items:      items,
		TotalCount: total,
		Page:       page,
		TotalPages: TotalPages(total, limit),
	}, nil
}

// normalize coerces page and limit into range: values below 1 become the
// defaults and limits above the maximum are clamped.
func (e *Engine) normalize(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = e.config.DefaultLimit
	}
	if limit > e.config.MaxLimit {
		limit = e.config.MaxLimit
	}
	return page, limit
}

// TotalPages returns ceil(total/limit).
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// ParseInt reads a positive query-string integer, returning 0 when raw is
// empty, malformed or not positive so the engine applies its default.
func ParseInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0
	}
	return n
}
