// Package bulk retrieves batches of remote student records under a chosen
// concurrency policy.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/enrollments-service/internal/models"
)

// Strategy names accepted by Parse.
const (
	NameSequential = "sequential"
	NameUnbounded  = "unbounded"
	NameBounded    = "bounded"
)

// MaxRows is the largest batch a single bulk fetch may request.
const MaxRows = 1000

// ErrUnknownStrategy is returned by Parse for an unrecognised name.
var ErrUnknownStrategy = errors.New("unknown bulk fetch strategy")

// FetchFunc fetches the record stored at one row index.
type FetchFunc func(ctx context.Context, row int) (models.StudentRecord, error)

// Strategy fetches every row in rows and returns the records. Strategies
// differ only in how many fetches they keep in flight; the set of records
// returned for the same rows is identical. The first failure cancels the
// outstanding fetches and is returned.
type Strategy interface {
	Name() string
	// Limit reports the in-flight ceiling, 0 meaning no ceiling.
	Limit() int
	Fetch(ctx context.Context, rows []int, fetch FetchFunc) ([]models.StudentRecord, error)
}

// Parse resolves a strategy by name. poolSize only applies to bounded.
func Parse(name string, poolSize int) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameBounded:
		return NewBounded(poolSize), nil
	case NameSequential:
		return Sequential{}, nil
	case NameUnbounded:
		return Unbounded{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Rows returns the row indexes 1..n.
func Rows(n int) []int {
	if n < 0 {
		n = 0
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i + 1
	}
	return rows
}

// Sequential issues one fetch at a time in row order.
type Sequential struct{}

func (Sequential) Name() string { return NameSequential }

func (Sequential) Limit() int { return 1 }

func (Sequential) Fetch(ctx context.Context, rows []int, fetch FetchFunc) ([]models.StudentRecord, error) {
	out := make([]models.StudentRecord, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := fetch(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Unbounded issues every fetch at once. Records come back in completion order.
type Unbounded struct{}

func (Unbounded) Name() string { return NameUnbounded }

func (Unbounded) Limit() int { return 0 }

func (Unbounded) Fetch(ctx context.Context, rows []int, fetch FetchFunc) ([]models.StudentRecord, error) {
	return fanOut(ctx, rows, fetch, -1)
}

// Bounded keeps at most N fetches in flight.
type Bounded struct {
	N int
}

// NewBounded returns a bounded strategy. n <= 0 selects runtime.NumCPU().
func NewBounded(n int) Bounded {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return Bounded{N: n}
}

func (b Bounded) Name() string { return NameBounded }

func (b Bounded) Limit() int { return b.N }

func (b Bounded) Fetch(ctx context.Context, rows []int, fetch FetchFunc) ([]models.StudentRecord, error) {
	n := b.N
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return fanOut(ctx, rows, fetch, n)
}

// fanOut runs fetch for every row on an errgroup. limit < 0 means no limit.
func fanOut(ctx context.Context, rows []int, fetch FetchFunc, limit int) ([]models.StudentRecord, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	out := make([]models.StudentRecord, 0, len(rows))

	for _, row := range rows {
		if gctx.Err() != nil {
			break
		}
		row := row
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := fetch(gctx, row)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, rec)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
