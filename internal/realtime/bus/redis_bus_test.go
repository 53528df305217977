package bus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
	"github.com/yungbote/derivedconcept-backend/internal/realtime"
)

func waitSubscribed(t *testing.T, mr *miniredis.Miniredis, channel string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for mr.PubSubNumSub(channel)[channel] == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for subscriber on %s", channel)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRedisBusSubscribeFiltersEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBus(logger.Nop(), RedisOptions{Addr: mr.Addr(), Channel: "test-events"})
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan realtime.Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- b.Subscribe(ctx, []string{realtime.EventCalculationScheduled}, func(m realtime.Event) { got <- m })
	}()
	waitSubscribed(t, mr, b.Channel())

	skipped := realtime.Event{Channel: realtime.ChannelCalculations, Event: realtime.EventJobRecordCompleted}
	sent := realtime.Event{
		Channel: realtime.ChannelCalculations,
		Event:   realtime.EventCalculationScheduled,
		Data:    map[string]any{"pending": 2},
	}
	for _, ev := range []realtime.Event{skipped, sent} {
		if err := b.Publish(ctx, ev); err != nil {
			t.Fatalf("Publish %s: %v", ev.Event, err)
		}
	}
	// Garbage on the channel is dropped, not fatal.
	mr.Publish(b.Channel(), "not json")

	select {
	case m := <-got:
		if m.Event != realtime.EventCalculationScheduled || m.Channel != realtime.ChannelCalculations {
			t.Fatalf("event: got %+v", m)
		}
		data, ok := m.Data.(map[string]any)
		if !ok || data["pending"] != float64(2) {
			t.Fatalf("data: got %#v", m.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Subscribe did not return after cancel")
	}
	if len(got) != 0 {
		t.Fatalf("filtered events leaked: %d", len(got))
	}
}

func TestRedisBusSubscribeRequiresHandler(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBus(logger.Nop(), RedisOptions{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisBus: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	if b.Channel() != DefaultRedisChannel {
		t.Fatalf("Channel: want %s got %s", DefaultRedisChannel, b.Channel())
	}
	if err := b.Subscribe(context.Background(), nil, nil); err == nil {
		t.Fatalf("Subscribe: expected error without handler")
	}
}

func TestNewRedisBusRequiresAddr(t *testing.T) {
	if _, err := NewRedisBus(logger.Nop(), RedisOptions{}); err == nil {
		t.Fatalf("NewRedisBus: expected error without address")
	}
}

func TestDecodeEvent(t *testing.T) {
	if _, err := decodeEvent(`{"channel":"calculations"}`); err == nil {
		t.Fatalf("decodeEvent: expected error for nameless event")
	}
	ev, err := decodeEvent(`{"channel":"calculations","event":"job_record.failed","data":{"job_record_id":3}}`)
	if err != nil || ev.Event != realtime.EventJobRecordFailed {
		t.Fatalf("decodeEvent: err=%v ev=%+v", err, ev)
	}
	if eventSet([]string{" ", ""}) != nil {
		t.Fatalf("eventSet: blank names must mean all events")
	}
}
