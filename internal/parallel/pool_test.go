package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gitrdm/gokancp/pkg/cp"
	"github.com/gitrdm/gokancp/pkg/search"
	"github.com/gitrdm/gokancp/pkg/state"
)

func TestWorkerPool_RunsTasks(t *testing.T) {
	pool := NewWorkerPool(3)
	var n atomic.Int32
	for i := 0; i < 20; i++ {
		if err := pool.Submit(context.Background(), func() { n.Add(1) }); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	pool.Shutdown()
	if got := n.Load(); got != 20 {
		t.Fatalf("ran %d tasks, want 20", got)
	}
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Shutdown()
	pool.Shutdown()
	if err := pool.Submit(context.Background(), func() {}); !errors.Is(err, ErrPoolShutdown) {
		t.Fatalf("err = %v, want ErrPoolShutdown", err)
	}
}

func TestWorkerPool_ShutdownDuringSubmit(t *testing.T) {
	for round := 0; round < 50; round++ {
		pool := NewWorkerPool(2)
		var accepted, ran atomic.Int32
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					err := pool.Submit(context.Background(), func() { ran.Add(1) })
					switch {
					case err == nil:
						accepted.Add(1)
					case errors.Is(err, ErrPoolShutdown):
						return
					default:
						t.Errorf("Submit: %v", err)
						return
					}
				}
			}()
		}
		pool.Shutdown()
		wg.Wait()
		if a, r := accepted.Load(), ran.Load(); a != r {
			t.Fatalf("round %d: accepted %d tasks, ran %d", round, a, r)
		}
	}
}

func TestWorkerPool_DefaultWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Shutdown()
	if pool.Workers() <= 0 {
		t.Fatalf("Workers() = %d", pool.Workers())
	}
}

func queensJob(n int, backend string) Job {
	return Job{
		Name: backend,
		Run: func(ctx context.Context) (search.Statistics, error) {
			b, err := state.ParseBackend(backend)
			if err != nil {
				return search.Statistics{}, err
			}
			s := cp.NewSolver(cp.WithBackend(b))
			q, err := cp.NewIntVars(s, n, 0, n-1)
			if err != nil {
				return search.Statistics{}, err
			}
			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					for _, c := range []int{0, j - i, i - j} {
						if err := s.Post(cp.NewNotEqual(q[i], q[j], c)); err != nil {
							return search.Statistics{}, err
						}
					}
				}
			}
			return search.New(s.StateManager(), search.FirstFail(q...)).Solve(ctx, nil)
		},
	}
}

func TestRunAll(t *testing.T) {
	jobs := []Job{queensJob(6, "trail"), queensJob(6, "copy"), queensJob(8, "trail"), queensJob(8, "copy")}
	results := RunAll(context.Background(), 2, jobs)
	want := []int{4, 4, 92, 92}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("job %d: %v", i, r.Err)
		}
		if r.Name != jobs[i].Name || r.Stats.Solutions != want[i] || !r.Stats.Completed {
			t.Errorf("job %d: %s %v, want %d solutions", i, r.Name, r.Stats, want[i])
		}
	}
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := RunAll(ctx, 1, []Job{queensJob(6, "trail")})
	if len(results) != 1 || !errors.Is(results[0].Err, context.Canceled) {
		t.Fatalf("results = %+v", results)
	}
}

func TestRunAll_Empty(t *testing.T) {
	if got := RunAll(context.Background(), 4, nil); len(got) != 0 {
		t.Fatalf("len = %d", len(got))
	}
}
