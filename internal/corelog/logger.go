// Package corelog provides the logging capability every component in this
// module takes as an explicit parameter rather than reaching for as a
// package-level global (spec.md §9 design note: pass a HostSink capability
// into each workspace). Grounded on the teacher's log/log.go wrapper and
// on crossplane-runtime's logging.Logger idiom of a small leveled
// interface over a structured backend -- here, github.com/sirupsen/logrus,
// taken from the crossplane go.mod in the retrieval pack.
package corelog

import (
	"io"
	"io/ioutil"

	"github.com/sirupsen/logrus"
)

// Logger is a thin leveled wrapper around a logrus.Entry. It carries
// structured fields added by With, the way a request-scoped logger
// accumulates context as it's threaded deeper into a call stack.
type Logger struct {
	entry *logrus.Entry
}

// New returns a Logger that writes structured text lines to w.
func New(w io.Writer) *Logger {
	l := logrus.New()
	l.Out = w
	return &Logger{entry: logrus.NewEntry(l)}
}

// NewNop returns a Logger that discards everything, for tests and
// callers that don't want log output.
func NewNop() *Logger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return &Logger{entry: logrus.NewEntry(l)}
}

// With returns a derived Logger carrying an additional structured field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
