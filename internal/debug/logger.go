// Package debug is the synthesis engine's diagnostic logger: a
// ring-buffered, component-filtered log sink with built-in throttling
// for the per-sample-tick trace lines the mixer and voice hot path can
// otherwise emit tens of thousands of times a second.
package debug

import (
	"fmt"
	"sync"
	"time"
)

// throttleKey identifies one (component, voice slot) pair for sample-
// tick throttling. Two different slots logging the same component are
// throttled independently, since a burst on one voice shouldn't
// suppress the next voice's first log line.
type throttleKey struct {
	component Component
	slot      int
}

// Logger is the centralized diagnostic sink for the synthesis engine.
type Logger struct {
	entries    []LogEntry
	entriesMu  sync.RWMutex
	maxEntries int
	writeIndex int
	entryCount int

	componentEnabled map[Component]bool
	componentMu      sync.RWMutex

	minLevel LogLevel
	levelMu  sync.RWMutex

	// Sample-tick throttling: LogTick only admits one entry per
	// throttleEvery samples for a given (component, slot) pair. Without
	// this, tracing the mixer's hot path at 32kHz would fill the
	// circular buffer within a couple of milliseconds of playback.
	throttleMu     sync.Mutex
	lastLoggedTick map[throttleKey]int64
	throttleEvery  int64

	logChan  chan LogEntry
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// defaultThrottleEvery admits roughly one tick-scoped trace line per
// (component, slot) pair every 1024 samples — at a 32kHz sample rate,
// about 31 lines/second per voice, dense enough to see activity
// without flooding the buffer.
const defaultThrottleEvery = 1024

// NewLogger creates a new logger instance with the given ring-buffer
// capacity (entries, not bytes).
func NewLogger(maxEntries int) *Logger {
	if maxEntries < 100 {
		maxEntries = 100 // minimum buffer size
	}

	logger := &Logger{
		entries:          make([]LogEntry, maxEntries),
		maxEntries:       maxEntries,
		componentEnabled: make(map[Component]bool),
		minLevel:         LogLevelInfo,
		lastLoggedTick:   make(map[throttleKey]int64),
		throttleEvery:    defaultThrottleEvery,
		logChan:          make(chan LogEntry, 1000),
		shutdown:         make(chan struct{}),
	}

	// Logging is opt-in per component; everything starts disabled.
	for _, c := range []Component{
		ComponentWaveform, ComponentEnvelope, ComponentVoice, ComponentMixer,
		ComponentSequencer, ComponentMML, ComponentFIFO, ComponentSystem,
	} {
		logger.componentEnabled[c] = false
	}

	logger.wg.Add(1)
	go logger.processLogs()

	return logger
}

// processLogs drains the log channel into the circular buffer on a
// background goroutine, so Log/Logf never block the sample-tick
// caller on buffer contention.
func (l *Logger) processLogs() {
	defer l.wg.Done()

	for {
		select {
		case entry := <-l.logChan:
			l.addEntry(entry)
		case <-l.shutdown:
			for {
				select {
				case entry := <-l.logChan:
					l.addEntry(entry)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) addEntry(entry LogEntry) {
	l.entriesMu.Lock()
	defer l.entriesMu.Unlock()

	l.entries[l.writeIndex] = entry
	l.writeIndex = (l.writeIndex + 1) % l.maxEntries
	if l.entryCount < l.maxEntries {
		l.entryCount++
	}
}

// Log logs a message with the specified component, level and
// structured fields. Entries for a disabled component, or more verbose
// than the logger's minimum level (e.g. Debug when the minimum is
// Warning), are dropped before they ever reach the channel.
func (l *Logger) Log(component Component, level LogLevel, fields Fields, message string) {
	l.componentMu.RLock()
	enabled := l.componentEnabled[component]
	l.componentMu.RUnlock()
	if !enabled {
		return
	}

	l.levelMu.RLock()
	minLevel := l.minLevel
	l.levelMu.RUnlock()
	if level > minLevel {
		return
	}

	entry := newEntry(component, level, message, fields)

	select {
	case l.logChan <- entry:
	default:
		// Channel full: drop rather than block the sample-tick caller.
	}
}

// Logf logs a formatted message with structured fields.
func (l *Logger) Logf(component Component, level LogLevel, fields Fields, format string, args ...interface{}) {
	l.Log(component, level, fields, fmt.Sprintf(format, args...))
}

// LogTick logs a sample-tick-scoped trace line for one voice slot, but
// only once every throttleEvery samples for that (component, slot)
// pair (see SetThrottleInterval). Intended for the mixer/voice hot
// path, where logging every sample would otherwise be indistinguishable
// from not rate-limiting at all.
func (l *Logger) LogTick(component Component, level LogLevel, slot int, sample int64, format string, args ...interface{}) {
	if !l.admitTick(component, slot, sample) {
		return
	}
	l.Logf(component, level, TickFields(slot, sample), format, args...)
}

func (l *Logger) admitTick(component Component, slot int, sample int64) bool {
	key := throttleKey{component: component, slot: slot}

	l.throttleMu.Lock()
	defer l.throttleMu.Unlock()

	last, seen := l.lastLoggedTick[key]
	if seen && sample-last < l.throttleEvery {
		return false
	}
	l.lastLoggedTick[key] = sample
	return true
}

// SetThrottleInterval changes how many samples must elapse between
// LogTick admissions for the same (component, slot) pair. Values below
// 1 disable throttling entirely (every tick is admitted).
func (l *Logger) SetThrottleInterval(samples int64) {
	if samples < 1 {
		samples = 1
	}
	l.throttleMu.Lock()
	l.throttleEvery = samples
	l.throttleMu.Unlock()
}

func newEntry(component Component, level LogLevel, message string, fields Fields) LogEntry {
	return LogEntry{
		Component: component,
		Level:     level,
		Message:   message,
		Fields:    fields,
		Timestamp: time.Now(),
	}
}

// Convenience wrappers, one pair per subsystem, each defaulting to
// NoFields — callers on the configuration/parse path (not the sample
// hot path) have no slot or sample-tick context to attach.

func (l *Logger) LogWaveform(level LogLevel, message string) {
	l.Log(ComponentWaveform, level, NoFields, message)
}

func (l *Logger) LogEnvelope(level LogLevel, message string) {
	l.Log(ComponentEnvelope, level, NoFields, message)
}

func (l *Logger) LogVoice(level LogLevel, message string) {
	l.Log(ComponentVoice, level, NoFields, message)
}

func (l *Logger) LogMixer(level LogLevel, message string) {
	l.Log(ComponentMixer, level, NoFields, message)
}

func (l *Logger) LogSequencer(level LogLevel, message string) {
	l.Log(ComponentSequencer, level, NoFields, message)
}

func (l *Logger) LogMML(level LogLevel, message string) {
	l.Log(ComponentMML, level, NoFields, message)
}

func (l *Logger) LogFIFO(level LogLevel, message string) {
	l.Log(ComponentFIFO, level, NoFields, message)
}

func (l *Logger) LogSystem(level LogLevel, message string) {
	l.Log(ComponentSystem, level, NoFields, message)
}

func (l *Logger) LogWaveformf(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentWaveform, level, NoFields, format, args...)
}

func (l *Logger) LogEnvelopef(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentEnvelope, level, NoFields, format, args...)
}

func (l *Logger) LogVoicef(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentVoice, level, NoFields, format, args...)
}

func (l *Logger) LogMixerf(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentMixer, level, NoFields, format, args...)
}

func (l *Logger) LogSequencerf(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentSequencer, level, NoFields, format, args...)
}

func (l *Logger) LogMMLf(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentMML, level, NoFields, format, args...)
}

func (l *Logger) LogFIFOf(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentFIFO, level, NoFields, format, args...)
}

func (l *Logger) LogSystemf(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentSystem, level, NoFields, format, args...)
}

// GetEntries returns a copy of all log entries, oldest first.
func (l *Logger) GetEntries() []LogEntry {
	l.entriesMu.RLock()
	defer l.entriesMu.RUnlock()

	if l.entryCount == 0 {
		return []LogEntry{}
	}

	entries := make([]LogEntry, l.entryCount)
	if l.entryCount < l.maxEntries {
		copy(entries, l.entries[:l.entryCount])
	} else {
		for i := 0; i < l.entryCount; i++ {
			idx := (l.writeIndex + i) % l.maxEntries
			entries[i] = l.entries[idx]
		}
	}
	return entries
}

// GetRecentEntries returns the most recent count entries.
func (l *Logger) GetRecentEntries(count int) []LogEntry {
	all := l.GetEntries()
	if count >= len(all) {
		return all
	}
	return all[len(all)-count:]
}

// Clear empties the log buffer.
func (l *Logger) Clear() {
	l.entriesMu.Lock()
	defer l.entriesMu.Unlock()
	l.entryCount = 0
	l.writeIndex = 0
}

// SetComponentEnabled enables or disables logging for a component.
func (l *Logger) SetComponentEnabled(component Component, enabled bool) {
	l.componentMu.Lock()
	defer l.componentMu.Unlock()
	l.componentEnabled[component] = enabled
}

// IsComponentEnabled reports whether a component is currently enabled.
func (l *Logger) IsComponentEnabled(component Component) bool {
	l.componentMu.RLock()
	defer l.componentMu.RUnlock()
	return l.componentEnabled[component]
}

// SetMinLevel sets the minimum log level that will be admitted.
func (l *Logger) SetMinLevel(level LogLevel) {
	l.levelMu.Lock()
	defer l.levelMu.Unlock()
	l.minLevel = level
}

// GetMinLevel returns the current minimum log level.
func (l *Logger) GetMinLevel() LogLevel {
	l.levelMu.RLock()
	defer l.levelMu.RUnlock()
	return l.minLevel
}

// Shutdown stops the background drain goroutine and waits for any
// queued entries to be flushed into the buffer.
func (l *Logger) Shutdown() {
	close(l.shutdown)
	l.wg.Wait()
}
