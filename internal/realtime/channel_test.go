package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"go.uber.org/zap"
)

type fakeSubscription struct {
	changes chan billingdomain.Change

	mu     sync.Mutex
	closed bool
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{changes: make(chan billingdomain.Change, 16)}
}

func (s *fakeSubscription) Changes() <-chan billingdomain.Change { return s.changes }

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.changes)
	}
	return nil
}

func (s *fakeSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeFeed struct {
	mu         sync.Mutex
	err        error
	subscribes int
	subs       []*fakeSubscription
}

func (f *fakeFeed) Subscribe(_ context.Context, _ string) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	if f.err != nil {
		return nil, f.err
	}
	sub := newFakeSubscription()
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeFeed) subscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribes
}

type recordingApplier struct {
	mu      sync.Mutex
	applied []billingdomain.Change
	err     error
}

func (a *recordingApplier) ApplyChange(change billingdomain.Change) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.applied = append(a.applied, change)
	return nil
}

func (a *recordingApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestEnableIsIdempotent(t *testing.T) {
	feed := &fakeFeed{}
	channel := NewChannel(billingdomain.TableInvoices, feed, &recordingApplier{}, zap.NewNop())

	if err := channel.Enable(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := channel.Enable(context.Background()); err != nil {
		t.Fatalf("second enable: %v", err)
	}

	if got := feed.subscribeCount(); got != 1 {
		t.Fatalf("expected a single subscription, got %d", got)
	}
	if !channel.Active() {
		t.Fatal("expected channel active")
	}
}

func TestEnableFailureLeavesChannelInactive(t *testing.T) {
	feed := &fakeFeed{err: errors.New("feed unreachable")}
	channel := NewChannel(billingdomain.TableInvoices, feed, &recordingApplier{}, zap.NewNop())

	if err := channel.Enable(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if channel.Active() {
		t.Fatal("failed enable must not mark the channel active")
	}

	// A later enable retries the subscription.
	feed.mu.Lock()
	feed.err = nil
	feed.mu.Unlock()
	if err := channel.Enable(context.Background()); err != nil {
		t.Fatalf("retry enable: %v", err)
	}
	if !channel.Active() {
		t.Fatal("expected channel active after retry")
	}
}

func TestChangesFlowToApplier(t *testing.T) {
	feed := &fakeFeed{}
	applier := &recordingApplier{}
	channel := NewChannel(billingdomain.TableInvoices, feed, applier, zap.NewNop())

	if err := channel.Enable(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}

	feed.subs[0].changes <- billingdomain.Change{
		Table: billingdomain.TableInvoices,
		Type:  billingdomain.ChangeInsert,
		New:   []byte(`{"id":1}`),
	}
	waitFor(t, func() bool { return applier.count() == 1 })
}

func TestDisableClosesSubscriptionAndAllowsReEnable(t *testing.T) {
	feed := &fakeFeed{}
	channel := NewChannel(billingdomain.TablePayments, feed, &recordingApplier{}, zap.NewNop())

	if err := channel.Enable(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}
	channel.Disable()
	if channel.Active() {
		t.Fatal("expected inactive after disable")
	}
	if !feed.subs[0].isClosed() {
		t.Fatal("expected subscription closed")
	}

	// Disable on an inactive channel is a no-op.
	channel.Disable()

	if err := channel.Enable(context.Background()); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	if got := feed.subscribeCount(); got != 2 {
		t.Fatalf("expected a fresh subscription on re-enable, got %d", got)
	}
}

func TestStreamEndMarksChannelInactive(t *testing.T) {
	feed := &fakeFeed{}
	channel := NewChannel(billingdomain.TableSubscriptions, feed, &recordingApplier{}, zap.NewNop())

	if err := channel.Enable(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}

	feed.subs[0].Close()
	waitFor(t, func() bool { return !channel.Active() })
}

func TestManagerCoversEveryTable(t *testing.T) {
	feed := &fakeFeed{}
	manager := NewManager(feed, &recordingApplier{}, zap.NewNop())

	if err := manager.EnableAll(context.Background()); err != nil {
		t.Fatalf("enable all: %v", err)
	}
	status := manager.Status()
	for _, table := range []string{
		billingdomain.TablePaymentMethods,
		billingdomain.TableInvoices,
		billingdomain.TablePayments,
		billingdomain.TableSubscriptions,
	} {
		if !status[table] {
			t.Fatalf("expected %s active", table)
		}
	}

	manager.DisableAll()
	for table, active := range manager.Status() {
		if active {
			t.Fatalf("expected %s inactive after disable", table)
		}
	}
}
