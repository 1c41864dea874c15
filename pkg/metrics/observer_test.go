package metrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestMemoryObserverCounts(t *testing.T) {
	obs := NewMemoryObserver()
	obs.RecordEvent(Event{Name: EventFrameSent, Time: time.Now(), Value: 3200})
	obs.RecordEvent(Event{Name: EventFrameSent, Time: time.Now(), Value: 3200})
	obs.RecordEvent(Event{Name: EventEOFSent, Time: time.Now()})

	if got := obs.CountByName(EventFrameSent); got != 2 {
		t.Fatalf("expected 2 frame events, got %d", got)
	}
	if got := len(obs.Events()); got != 3 {
		t.Fatalf("expected 3 events total, got %d", got)
	}
}

func TestJSONLObserverWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	obs := NewJSONLObserver(&buf)
	obs.RecordEvent(Event{Name: EventSessionComplete, Time: time.Now(), Value: 4})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if record["name"] != EventSessionComplete || record["value"] != float64(4) {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestAsyncObserverDelivers(t *testing.T) {
	mem := NewMemoryObserver()
	async := NewAsyncObserver(mem, 8)
	async.RecordEvent(Event{Name: EventSessionConnect, Time: time.Now()})
	async.Close()

	deadline := time.After(time.Second)
	for mem.CountByName(EventSessionConnect) == 0 {
		select {
		case <-deadline:
			t.Fatalf("event never delivered")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if async.Dropped() != 0 {
		t.Fatalf("expected no drops, got %d", async.Dropped())
	}
}

func TestAsyncObserverRecordAfterClose(t *testing.T) {
	mem := NewMemoryObserver()
	async := NewAsyncObserver(mem, 8)
	async.Close()
	async.Close()

	// Must be a silent no-op, never a send on the closed channel.
	async.RecordEvent(Event{Name: EventFrameSent, Time: time.Now()})

	if n := mem.CountByName(EventFrameSent); n != 0 {
		t.Fatalf("expected no delivery after close, got %d", n)
	}
}
