package debug

import (
	"fmt"
	"time"
)

// LogLevel represents the severity level of a log entry.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelNone:
		return "NONE"
	case LogLevelError:
		return "ERROR"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Component identifies the synthesis subsystem that generated a log
// entry.
type Component string

const (
	ComponentWaveform  Component = "Waveform"
	ComponentEnvelope  Component = "Envelope"
	ComponentVoice     Component = "Voice"
	ComponentMixer     Component = "Mixer"
	ComponentSequencer Component = "Sequencer"
	ComponentMML       Component = "MML"
	ComponentFIFO      Component = "FIFO"
	ComponentSystem    Component = "System"
)

// NoSlot and NoSample mark a Fields value as carrying no voice-slot or
// sample-tick context, respectively. Slot indices and sample ticks are
// never negative in this domain, so -1 is an unambiguous "unset".
const (
	NoSlot   = -1
	NoSample = -1
)

// Fields carries the structured context a synthesis log line actually
// has: which voice slot it concerns and at what point on the sample
// clock, rather than a freeform bag of interface{} values. Most call
// sites in this package are on the per-sample hot path, so the two
// fields that matter for correlating a burst of trace output are the
// slot index and the sample tick, not arbitrary key/value pairs.
type Fields struct {
	Slot   int
	Sample int64
}

// NoFields is the zero-context value for log lines that concern
// neither a specific voice slot nor a specific sample tick (parse
// errors, configuration, stream I/O).
var NoFields = Fields{Slot: NoSlot, Sample: NoSample}

// SlotFields scopes a log line to a voice slot with no particular
// sample tick.
func SlotFields(slot int) Fields {
	return Fields{Slot: slot, Sample: NoSample}
}

// TickFields scopes a log line to a voice slot at a specific sample
// tick.
func TickFields(slot int, sample int64) Fields {
	return Fields{Slot: slot, Sample: sample}
}

// LogEntry represents a single log entry.
type LogEntry struct {
	Timestamp time.Time
	Component Component
	Level     LogLevel
	Message   string
	Fields    Fields
}

// Format renders the log entry as a single line, appending slot/
// sample context only when the entry actually carries it.
func (e *LogEntry) Format() string {
	timestamp := e.Timestamp.Format("15:04:05.000")
	base := fmt.Sprintf("[%s] [%s] %s: %s", timestamp, e.Component, e.Level, e.Message)

	switch {
	case e.Fields.Slot != NoSlot && e.Fields.Sample != NoSample:
		return fmt.Sprintf("%s (slot=%d sample=%d)", base, e.Fields.Slot, e.Fields.Sample)
	case e.Fields.Slot != NoSlot:
		return fmt.Sprintf("%s (slot=%d)", base, e.Fields.Slot)
	case e.Fields.Sample != NoSample:
		return fmt.Sprintf("%s (sample=%d)", base, e.Fields.Sample)
	default:
		return base
	}
}
