package executor

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/yuya-takeyama/atm-sync/pkg/planner"
)

func items(ids ...string) []planner.Item {
	out := make([]planner.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, planner.Item{
			Action:     planner.ActionUpload,
			ID:         id,
			LocalPath:  "/src/" + id,
			RemotePath: "/dest/" + id,
			Size:       1,
		})
	}
	return out
}

func TestExecuteSequential(t *testing.T) {
	tr := &mockTransport{}
	log := &mockLogger{}
	e := NewExecutor(tr, log)

	results, err := e.Execute(context.Background(), items("a.txt", "b.txt", "c.txt"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	want := []string{"/dest/a.txt", "/dest/b.txt", "/dest/c.txt"}
	if !reflect.DeepEqual(tr.uploads, want) {
		t.Errorf("uploads = %v, want %v", tr.uploads, want)
	}
	if !reflect.DeepEqual(log.uploadCalls, want) {
		t.Errorf("logged uploads = %v, want %v", log.uploadCalls, want)
	}
}

func TestExecuteSequentialStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("connection reset")
	tr := &mockTransport{
		uploadFunc: func(ctx context.Context, localPath, remotePath string) error {
			if remotePath == "/dest/b.txt" {
				return boom
			}
			return nil
		},
	}
	log := &mockLogger{}
	e := NewExecutor(tr, log)

	results, err := e.Execute(context.Background(), items("a.txt", "b.txt", "c.txt"))
	if !errors.Is(err, boom) {
		t.Fatalf("Execute() error = %v, want %v", err, boom)
	}
	if len(results) != 2 || results[1].Error == nil {
		t.Errorf("results = %+v, want a.txt ok and b.txt failed", results)
	}

	want := []string{"/dest/a.txt", "/dest/b.txt"}
	if !reflect.DeepEqual(tr.uploads, want) {
		t.Errorf("uploads = %v, want %v (c.txt must not be attempted)", tr.uploads, want)
	}
	if len(log.errorCalls) != 1 {
		t.Errorf("expected 1 error log, got %v", log.errorCalls)
	}
}

func TestExecuteParallel(t *testing.T) {
	tr := &mockTransport{}
	e := NewExecutor(tr, nil, WithConcurrency(4))

	ids := []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt", "f.txt"}
	results, err := e.Execute(context.Background(), items(ids...))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(results) != len(ids) {
		t.Fatalf("expected %d results, got %d", len(ids), len(results))
	}

	got := append([]string(nil), tr.uploads...)
	sort.Strings(got)
	want := []string{"/dest/a.txt", "/dest/b.txt", "/dest/c.txt", "/dest/d.txt", "/dest/e.txt", "/dest/f.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("uploads = %v, want %v", got, want)
	}
}

func TestExecuteParallelReportsFailure(t *testing.T) {
	boom := errors.New("access denied")
	tr := &mockTransport{
		uploadFunc: func(ctx context.Context, localPath, remotePath string) error {
			if remotePath == "/dest/c.txt" {
				return boom
			}
			return nil
		},
	}
	e := NewExecutor(tr, nil, WithConcurrency(2))

	_, err := e.Execute(context.Background(), items("a.txt", "b.txt", "c.txt", "d.txt"))
	if !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want %v", err, boom)
	}
}

func TestExecuteDryRun(t *testing.T) {
	tr := &mockTransport{}
	log := &mockLogger{}
	e := NewExecutor(tr, log, WithDryRun(true))

	results, err := e.Execute(context.Background(), items("a.txt", "b.txt"))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	if len(tr.uploads) != 0 {
		t.Errorf("dry run uploaded %v", tr.uploads)
	}
	if len(log.uploadCalls) != 2 {
		t.Errorf("dry run should still log planned uploads, got %v", log.uploadCalls)
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	tr := &mockTransport{}
	e := NewExecutor(tr, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Execute(ctx, items("a.txt"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if len(tr.uploads) != 0 {
		t.Errorf("uploads = %v, want none", tr.uploads)
	}
}

func TestExecuteRejectsUnknownAction(t *testing.T) {
	tr := &mockTransport{}
	e := NewExecutor(tr, &mockLogger{})

	bad := items("a.txt")
	bad[0].Action = planner.Action("delete")

	_, err := e.Execute(context.Background(), bad)
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("Execute() error = %v, want ErrUnknownAction", err)
	}
	if len(tr.uploads) != 0 {
		t.Errorf("uploads = %v, want none", tr.uploads)
	}
}
