package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/memory"
	"github.com/corray333/gamesbakery/internal/metrics"
	"github.com/corray333/gamesbakery/internal/service/models/outbox"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type recordingPublisher struct {
	fail bool
	sent []outbox.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg outbox.Message) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func seed(t *testing.T, repo *memory.OutboxRepository, n int) {
	t.Helper()
	past := time.Now().Add(-time.Minute)
	for i := 0; i < n; i++ {
		msg := outbox.New("orders", "order.created", []byte(`{}`), 3, past)
		if err := repo.Insert(context.Background(), msg); err != nil {
			t.Fatal(err)
		}
	}
}

func TestProcessMessages_DeliversAndDeletes(t *testing.T) {
	store := memory.NewStore()
	seed(t, store.Outbox(), 3)
	pub := &recordingPublisher{}
	m := metrics.New(prometheus.NewRegistry())

	w := NewWorker(store.Outbox(), pub, m.Outbox)

	if n := w.ProcessMessages(context.Background()); n != 3 {
		t.Errorf("delivered %d, want 3", n)
	}
	if len(pub.sent) != 3 {
		t.Errorf("published %d, want 3", len(pub.sent))
	}
	if left := len(store.Outbox().Messages()); left != 0 {
		t.Errorf("%d messages left in outbox", left)
	}
	if got := testutil.ToFloat64(m.Outbox.Published); got != 3 {
		t.Errorf("published metric = %v, want 3", got)
	}
}

func TestProcessMessages_SchedulesRetry(t *testing.T) {
	store := memory.NewStore()
	seed(t, store.Outbox(), 1)
	pub := &recordingPublisher{fail: true}

	w := NewWorker(store.Outbox(), pub, nil)
	fixed := time.Now()
	w.now = func() time.Time { return fixed }

	if n := w.ProcessMessages(context.Background()); n != 0 {
		t.Errorf("delivered %d, want 0", n)
	}

	msgs := store.Outbox().Messages()
	if len(msgs) != 1 {
		t.Fatalf("outbox has %d messages, want 1", len(msgs))
	}
	msg := msgs[0]
	if msg.RetryCount != 1 || msg.LastError != "broker unavailable" {
		t.Errorf("unexpected retry state %+v", msg)
	}
	if !msg.NextRetryAt.Equal(fixed.Add(w.retryInterval)) {
		t.Errorf("next retry at %v, want %v", msg.NextRetryAt, fixed.Add(w.retryInterval))
	}

	// not due yet
	pub.fail = false
	if n := w.ProcessMessages(context.Background()); n != 0 {
		t.Errorf("message relayed before its retry time")
	}
}

func TestProcessMessages_GivesUpAfterMaxRetries(t *testing.T) {
	store := memory.NewStore()
	msg := outbox.New("orders", "order.overdue", []byte(`{}`), 1, time.Now().Add(-time.Minute))
	if err := store.Outbox().Insert(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	pub := &recordingPublisher{fail: true}

	w := NewWorker(store.Outbox(), pub, nil)
	w.ProcessMessages(context.Background())

	msgs := store.Outbox().Messages()
	if len(msgs) != 1 || !msgs[0].Exhausted() {
		t.Fatalf("expected one exhausted message, got %+v", msgs)
	}

	w.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	pub.fail = false
	if n := w.ProcessMessages(context.Background()); n != 0 || len(pub.sent) != 0 {
		t.Errorf("exhausted message was relayed again")
	}
}

func TestBackoff(t *testing.T) {
	w := &Worker{retryInterval: 30 * time.Second}

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 2 * time.Minute},
		{20, maxBackoff},
	}
	for _, tt := range tests {
		if got := w.backoff(tt.retry); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}

func TestStop_IsIdempotent(t *testing.T) {
	store := memory.NewStore()
	w := NewWorker(store.Outbox(), &recordingPublisher{}, nil)

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	w.Stop()
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
