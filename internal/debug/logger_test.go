package debug

import (
	"testing"
	"time"
)

func TestLogDropsDisabledComponent(t *testing.T) {
	l := NewLogger(100)
	defer l.Shutdown()

	l.SetComponentEnabled(ComponentMixer, false)
	l.SetMinLevel(LogLevelTrace)
	l.Log(ComponentMixer, LogLevelError, NoFields, "should be dropped")

	waitDrained(l)
	if got := len(l.GetEntries()); got != 0 {
		t.Fatalf("expected 0 entries for a disabled component, got %d", got)
	}
}

func TestLogDropsBelowMinLevel(t *testing.T) {
	l := NewLogger(100)
	defer l.Shutdown()

	l.SetComponentEnabled(ComponentMML, true)
	l.SetMinLevel(LogLevelWarning)
	l.Log(ComponentMML, LogLevelDebug, NoFields, "too quiet")

	waitDrained(l)
	if got := len(l.GetEntries()); got != 0 {
		t.Fatalf("expected 0 entries below min level, got %d", got)
	}
}

func TestLogTickThrottlesPerSlot(t *testing.T) {
	l := NewLogger(1000)
	defer l.Shutdown()

	l.SetComponentEnabled(ComponentMixer, true)
	l.SetMinLevel(LogLevelTrace)
	l.SetThrottleInterval(10)

	for tick := int64(0); tick < 30; tick++ {
		l.LogTick(ComponentMixer, LogLevelTrace, 0, tick, "sample %d", tick)
	}
	waitDrained(l)

	entries := l.GetEntries()
	if got := len(entries); got != 3 {
		t.Fatalf("expected 3 admitted ticks across 30 samples at interval 10, got %d", got)
	}
	for _, e := range entries {
		if e.Fields.Slot != 0 {
			t.Fatalf("expected slot 0, got %d", e.Fields.Slot)
		}
	}
}

func TestLogTickIndependentPerSlot(t *testing.T) {
	l := NewLogger(1000)
	defer l.Shutdown()

	l.SetComponentEnabled(ComponentMixer, true)
	l.SetMinLevel(LogLevelTrace)
	l.SetThrottleInterval(1000)

	l.LogTick(ComponentMixer, LogLevelTrace, 0, 0, "slot 0 first")
	l.LogTick(ComponentMixer, LogLevelTrace, 1, 0, "slot 1 first")
	waitDrained(l)

	if got := len(l.GetEntries()); got != 2 {
		t.Fatalf("expected independent throttling per slot, got %d entries", got)
	}
}

func TestFormatIncludesFieldsWhenSet(t *testing.T) {
	e := LogEntry{Component: ComponentVoice, Level: LogLevelDebug, Message: "note on", Fields: TickFields(2, 512)}
	if got := e.Format(); got == "" {
		t.Fatalf("expected a non-empty formatted line")
	}

	plain := LogEntry{Component: ComponentVoice, Level: LogLevelDebug, Message: "note on", Fields: NoFields}
	if plain.Format() == e.Format() {
		t.Fatalf("expected slot/sample context to change the formatted output")
	}
}

// waitDrained gives the background drain goroutine a moment to move
// entries from the channel into the ring buffer before a test reads
// them back.
func waitDrained(l *Logger) {
	time.Sleep(10 * time.Millisecond)
}
