package events_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/frahmantamala/feedback-management/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

// syncBuffer is written from handler goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ = Describe("EventBus", func() {
	var (
		out *syncBuffer
		bus *events.EventBus
	)

	BeforeEach(func() {
		out = &syncBuffer{}
		bus = events.NewEventBus(slog.New(slog.NewJSONHandler(out, nil)))
	})

	It("should deliver to every subscriber of the type", func() {
		var hits atomic.Int32
		count := func(context.Context, events.Event) error {
			hits.Add(1)
			return nil
		}
		bus.Subscribe(events.EventTypeFeedbackSubmitted, count)
		bus.Subscribe(events.EventTypeFeedbackSubmitted, count)
		bus.Subscribe(events.EventTypeEmployeeRegistered, count)

		target := int64(2)
		bus.Publish(context.Background(), events.NewFeedbackSubmittedEvent(1, 3, &target, 4))
		bus.Wait()
		Expect(hits.Load()).To(Equal(int32(2)))
	})

	It("should survive failing and panicking handlers", func() {
		bus.Subscribe(events.EventTypeEmployeeRegistered, func(context.Context, events.Event) error {
			return errors.New("smtp down")
		})
		bus.Subscribe(events.EventTypeEmployeeRegistered, func(context.Context, events.Event) error {
			panic("nil map")
		})

		Expect(func() {
			bus.Publish(context.Background(), events.NewEmployeeRegisteredEvent(1, 1, "alice", "EMP0001"))
			bus.Wait()
		}).NotTo(Panic())
		Expect(out.String()).To(ContainSubstring("smtp down"))
		Expect(out.String()).To(ContainSubstring("event handler panicked"))
	})

	It("should detach handlers from the publisher's cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		var sawErr atomic.Value
		bus.Subscribe(events.EventTypeEmployeeRegistered, func(ctx context.Context, _ events.Event) error {
			sawErr.Store(ctx.Err() == nil)
			return nil
		})
		cancel()
		bus.Publish(ctx, events.NewEmployeeRegisteredEvent(1, 1, "alice", "EMP0001"))
		bus.Wait()
		Expect(sawErr.Load()).To(Equal(true))
	})

	It("should write audit lines", func() {
		events.RegisterAuditHandlers(bus, slog.New(slog.NewJSONHandler(out, nil)))
		bus.Publish(context.Background(), events.NewEmployeeRegisteredEvent(5, 6, "bob", "EMP0006"))
		bus.Wait()
		Expect(out.String()).To(ContainSubstring(`"component":"audit"`))
		Expect(out.String()).To(ContainSubstring(`"event_type":"employee.registered"`))
		Expect(out.String()).To(ContainSubstring("EMP0006"))
	})
})

var _ = Describe("FeedbackSubmittedEvent", func() {
	It("should omit an absent target from the payload", func() {
		e := events.NewFeedbackSubmittedEvent(1, 2, nil, 3)
		Expect(e.EventID()).NotTo(BeEmpty())
		Expect(e.Payload()).NotTo(HaveKey("target_employee_id"))
		Expect(e.Payload()).To(HaveKeyWithValue("answer_count", 3))
	})
})
