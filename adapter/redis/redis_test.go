package redis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/mouguu/reddit-crawler/adapter"
)

func testEvent() *adapter.CrawlCompletedEvent {
	return &adapter.CrawlCompletedEvent{
		EventType:       "crawl_completed",
		RunID:           "run-001",
		Target:          "golang",
		Profile:         "full",
		Scraped:         9,
		Skipped:         2,
		Errored:         1,
		CandidatesFound: 12,
		DurationMs:      1500,
		Timestamp:       "2026-08-23T12:00:00Z",
	}
}

// asyncReceive starts a goroutine that reads one message from the
// subscriber and sends it to the returned channel. Must be called
// BEFORE Publish to avoid deadlocking miniredis's synchronous pub/sub
// delivery.
func asyncReceive(sub *miniredis.Subscriber) <-chan miniredis.PubsubMessage {
	ch := make(chan miniredis.PubsubMessage, 1)
	go func() {
		ch <- <-sub.Messages()
	}()
	return ch
}

func waitMessage(t *testing.T, ch <-chan miniredis.PubsubMessage) miniredis.PubsubMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pub/sub message")
		return miniredis.PubsubMessage{} // unreachable
	}
}

func TestPublish_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr(), Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe(DefaultChannel)
	msgCh := asyncReceive(sub)

	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg := waitMessage(t, msgCh)
	var received adapter.CrawlCompletedEvent
	if err := json.Unmarshal([]byte(msg.Message), &received); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if received.RunID != "run-001" || received.Target != "golang" {
		t.Errorf("event = %+v", received)
	}
}

func TestPublish_CustomChannel(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(Config{URL: "redis://" + mr.Addr(), Channel: "crawls", Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe("crawls")
	msgCh := asyncReceive(sub)

	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if msg := waitMessage(t, msgCh); msg.Channel != "crawls" {
		t.Errorf("channel = %q", msg.Channel)
	}
}

func TestPublish_FailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	a, err := New(Config{URL: "redis://" + addr, Retries: 0, Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	if err := a.Publish(t.Context(), testEvent()); err == nil {
		t.Fatal("expected a publish error against a closed server")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected an error for empty URL")
	}
	if _, err := New(Config{URL: "not-a-url"}); err == nil {
		t.Error("expected an error for invalid URL")
	}
	if _, err := New(Config{URL: "redis://localhost:6379", Retries: -1}); err == nil {
		t.Error("expected an error for negative retries")
	}
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(Config{URL: "redis://localhost:6379"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	if a.config.Channel != DefaultChannel {
		t.Errorf("channel = %q, want default", a.config.Channel)
	}
	if a.config.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want default", a.config.Timeout)
	}
}
