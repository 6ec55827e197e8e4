package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/foodlens/internal/model"
	"github.com/ppiankov/foodlens/internal/score"
)

// safetyResult carries one scored ingredient list
type safetyResult struct {
	analysis model.SafetyAnalysis
	err      error
}

func (r *safetyResult) GetError() error { return r.err }

// safetyJob scores one ingredient list, optionally holding the worker first
type safetyJob struct {
	ingredients []string
	analyzer    *score.SafetyAnalyzer
	hold        time.Duration
	onStart     func()
	onDone      func()
}

func (j *safetyJob) Execute(ctx context.Context) Result {
	if j.onStart != nil {
		j.onStart()
	}
	if j.onDone != nil {
		defer j.onDone()
	}
	if j.hold > 0 {
		select {
		case <-time.After(j.hold):
		case <-ctx.Done():
			return &safetyResult{err: ctx.Err()}
		}
	}
	if len(j.ingredients) == 0 {
		return &safetyResult{err: errors.New("no ingredients")}
	}
	return &safetyResult{analysis: j.analyzer.Analyze(j.ingredients)}
}

func TestNewPool_WorkerCount(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{5, 5},
		{1, 1},
		{0, 1},
		{-3, 1},
	}

	for _, tt := range tests {
		if got := NewPool(tt.in).workers; got != tt.want {
			t.Errorf("NewPool(%d).workers = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPool_ScoresEveryList(t *testing.T) {
	analyzer := score.NewSafetyAnalyzer(nil)
	pool := NewPool(3)
	pool.Start()

	lists := [][]string{
		{"water", "sugar"},
		{"msg", "salt"},
		{"sodium nitrite", "pork"},
		{"aspartame"},
		{"palm oil", "cocoa", "hazelnuts", "milk powder"},
	}
	for _, ingredients := range lists {
		pool.Submit(&safetyJob{ingredients: ingredients, analyzer: analyzer})
	}

	results := pool.Wait()
	if len(results) != len(lists) {
		t.Fatalf("expected %d results, got %d", len(lists), len(results))
	}

	// Completion order is arbitrary; compare the multiset of scores
	scores := map[int]int{}
	for _, r := range results {
		if r.GetError() != nil {
			t.Fatalf("unexpected error: %v", r.GetError())
		}
		scores[r.(*safetyResult).analysis.SafetyScore]++
	}
	want := map[int]int{100: 1, 88: 1, 75: 1, 50: 1, 94: 1}
	for s, n := range want {
		if scores[s] != n {
			t.Errorf("score %d: got %d results, want %d (all: %v)", s, scores[s], n, scores)
		}
	}
}

func TestPool_RespectsWorkerLimit(t *testing.T) {
	const workers = 4
	pool := NewPool(workers)
	pool.Start()

	var current, peak, completed int32
	analyzer := score.NewSafetyAnalyzer(nil)

	for i := 0; i < 24; i++ {
		pool.Submit(&safetyJob{
			ingredients: []string{"tbhq"},
			analyzer:    analyzer,
			hold:        5 * time.Millisecond,
			onStart: func() {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
			},
			onDone: func() {
				atomic.AddInt32(&current, -1)
				atomic.AddInt32(&completed, 1)
			},
		})
	}

	pool.Wait()

	if got := atomic.LoadInt32(&completed); got != 24 {
		t.Errorf("expected 24 completed jobs, got %d", got)
	}
	if got := atomic.LoadInt32(&peak); got > workers {
		t.Errorf("peak concurrency %d exceeded %d workers", got, workers)
	}
}

func TestPool_ErrorsAreCollected(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	analyzer := score.NewSafetyAnalyzer(nil)
	pool.Submit(&safetyJob{analyzer: analyzer})
	pool.Submit(&safetyJob{ingredients: []string{"water"}, analyzer: analyzer})

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed job, got %d", failed)
	}
}

func TestPool_WaitWithoutStart(t *testing.T) {
	pool := NewPool(2)
	if results := pool.Wait(); results != nil {
		t.Errorf("expected nil results from an unstarted pool, got %v", results)
	}
}

func TestResultCollector_ReturnsCopy(t *testing.T) {
	c := NewResultCollector()
	c.Add(&safetyResult{})
	c.Add(&safetyResult{err: errors.New("boom")})

	res := c.Results()
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}

	res[0] = nil
	if c.Results()[0] == nil {
		t.Error("mutating the returned slice changed the collector")
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Shutdown()

	done := make(chan struct{})
	go func() {
		pool.Submit(&safetyJob{ingredients: []string{"water"}})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_ShutdownCancelsInFlight(t *testing.T) {
	pool := NewPool(1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(&safetyJob{
		ingredients: []string{"water"},
		hold:        time.Minute,
		onStart:     func() { close(started) },
	})
	<-started

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		for range pool.results {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not cancel the held job")
	}
}

func TestPoolWithContext_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPoolWithContext(ctx, 2)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(&safetyJob{
		ingredients: []string{"water"},
		hold:        time.Minute,
		onStart:     func() { close(started) },
	})
	<-started
	cancel()

	done := make(chan []Result, 1)
	go func() { done <- pool.Wait() }()

	select {
	case results := <-done:
		// The held job either reports cancellation or is dropped with its worker
		for _, r := range results {
			if !errors.Is(r.GetError(), context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", r.GetError())
			}
		}
	case <-time.After(time.Second):
		t.Fatal("Wait blocked after parent cancellation")
	}
}
