package act

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// LogTag is the level of an ACT log line.
type LogTag string

const (
	TagInfo    LogTag = "INFO"
	TagWarning LogTag = "WARNING"
	TagError   LogTag = "ERROR"
	TagSuccess LogTag = "SUCCESS"
)

// LogSink receives every message written through a Logger.
type LogSink func(tag LogTag, message string)

// Logger is the leveled log handed to providers and steps. Scoped loggers
// prefix their messages with the originating action, group or step name.
type Logger struct {
	sink LogSink
}

// NewLogger creates a Logger writing to sink. A nil sink discards messages.
func NewLogger(sink LogSink) *Logger {
	if sink == nil {
		sink = func(LogTag, string) {}
	}
	return &Logger{sink: sink}
}

// Scoped returns a Logger that prefixes every message with "[prefix] ".
func (l *Logger) Scoped(prefix string) *Logger {
	return NewLogger(func(tag LogTag, message string) {
		l.sink(tag, fmt.Sprintf("[%s] %s", prefix, message))
	})
}

// LogMessage writes a message with an explicit tag.
func (l *Logger) LogMessage(tag LogTag, message string) { l.sink(tag, message) }

func (l *Logger) Info(message string)    { l.sink(TagInfo, message) }
func (l *Logger) Warning(message string) { l.sink(TagWarning, message) }
func (l *Logger) Error(message string)   { l.sink(TagError, message) }
func (l *Logger) Success(message string) { l.sink(TagSuccess, message) }

// RuntimeError logs an unexpected fault.
func (l *Logger) RuntimeError(err error) {
	if err == nil {
		return
	}
	l.sink(TagError, "Runtime error: "+err.Error())
}

// ZapSink forwards ACT log lines to a zap logger. SUCCESS has no zap level
// and is written at Info with an act.tag field.
func ZapSink(logger *zap.Logger) LogSink {
	return func(tag LogTag, message string) {
		field := zap.String("act.tag", string(tag))
		switch tag {
		case TagWarning:
			logger.Warn(message, field)
		case TagError:
			logger.Error(message, field)
		default:
			logger.Info(message, field)
		}
	}
}

// MultiSink fans a message out to several sinks in order.
func MultiSink(sinks ...LogSink) LogSink {
	return func(tag LogTag, message string) {
		for _, s := range sinks {
			if s != nil {
				s(tag, message)
			}
		}
	}
}

// LogEntry is a captured log line.
type LogEntry struct {
	Tag     LogTag `json:"tag"`
	Message string `json:"message"`
}

// Recorder captures log lines so they can be returned to a caller.
type Recorder struct {
	mu      sync.Mutex
	entries []LogEntry
}

// Sink returns the LogSink that appends to the recorder.
func (r *Recorder) Sink() LogSink {
	return func(tag LogTag, message string) {
		r.mu.Lock()
		r.entries = append(r.entries, LogEntry{Tag: tag, Message: message})
		r.mu.Unlock()
	}
}

// Entries returns a copy of the recorded lines.
func (r *Recorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Messages returns the recorded lines carrying tag.
func (r *Recorder) Messages(tag LogTag) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Tag == tag {
			out = append(out, e.Message)
		}
	}
	return out
}
