package summary

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"booktrack/internal/service"
	"booktrack/internal/testutil"
)

func newFake() *testutil.FakeService {
	fake := testutil.NewFakeService()
	fake.AddBook("b1", "Dune", "Frank Herbert", service.StatusReading)
	fake.AddBook("b2", "Emma", "Jane Austen", service.StatusCompleted)
	return fake
}

func TestToggle_OpenThenClose(t *testing.T) {
	fake := newFake()
	c := New(fake)

	text, visible, err := c.Toggle(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if !visible || text == "" {
		t.Errorf("expected visible summary, got %q %v", text, visible)
	}
	if _, ok := c.Get("b1"); !ok {
		t.Error("expected summary cached")
	}

	text, visible, err = c.Toggle(context.Background(), "b1")
	if err != nil || visible || text != "" {
		t.Errorf("expected hidden summary, got %q %v %v", text, visible, err)
	}
	if fake.SummaryCalls != 1 {
		t.Errorf("expected 1 fetch, got %d", fake.SummaryCalls)
	}
	if _, ok := c.Get("b1"); ok {
		t.Error("expected summary dropped")
	}
}

func TestToggle_FailureNotCached(t *testing.T) {
	fake := newFake()
	fake.FetchSummaryErr = service.NewHTTPError(http.StatusInternalServerError, service.ErrorBody{
		Detail:    "Failed to generate summary",
		HasDetail: true,
	})
	c := New(fake)

	_, visible, err := c.Toggle(context.Background(), "b1")
	if service.StatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
	if visible || len(c.Visible()) != 0 {
		t.Error("expected no cached entry after failure")
	}

	fake.FetchSummaryErr = nil
	_, visible, err = c.Toggle(context.Background(), "b1")
	if err != nil || !visible {
		t.Errorf("expected retry to fetch, got visible=%v err=%v", visible, err)
	}
	if fake.SummaryCalls != 2 {
		t.Errorf("expected 2 fetches, got %d", fake.SummaryCalls)
	}
}

func TestVisibleAndForget(t *testing.T) {
	c := New(newFake())
	for _, id := range []string{"b2", "b1"} {
		if _, _, err := c.Toggle(context.Background(), id); err != nil {
			t.Fatalf("Toggle(%s) returned error: %v", id, err)
		}
	}
	if got := fmt.Sprint(c.Visible()); got != "[b1 b2]" {
		t.Errorf("expected [b1 b2], got %s", got)
	}

	c.Forget("b1", "unknown")
	if got := fmt.Sprint(c.Visible()); got != "[b2]" {
		t.Errorf("expected [b2], got %s", got)
	}
	if c.Hide("b1") {
		t.Error("expected Hide of a forgotten id to report false")
	}
	if !c.Hide("b2") {
		t.Error("expected Hide to report true")
	}
}

type blockingFetcher struct {
	calls   int32
	started chan struct{}
	once    sync.Once
	release chan struct{}
}

func (f *blockingFetcher) FetchSummary(ctx context.Context, id string) (service.Summary, error) {
	atomic.AddInt32(&f.calls, 1)
	f.once.Do(func() { close(f.started) })
	<-f.release
	return service.Summary{BookID: id, Summary: "text"}, nil
}

func TestFetch_ConcurrentCallersShareResult(t *testing.T) {
	f := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	c := New(f)

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := c.fetch(context.Background(), "b1")
			if err == nil && s.Summary != "text" {
				err = fmt.Errorf("unexpected summary %q", s.Summary)
			}
			errs <- err
		}()
	}
	<-f.started
	time.Sleep(20 * time.Millisecond)
	close(f.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
	if n := atomic.LoadInt32(&f.calls); n >= callers {
		t.Errorf("expected shared fetches, got %d calls for %d callers", n, callers)
	}
	if got := fmt.Sprint(c.Visible()); got != "[b1]" {
		t.Errorf("expected [b1], got %s", got)
	}
}
