// Package logger bridges third-party logger interfaces onto log/slog.
package logger

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/robfig/cron/v3"
)

// Cron adapts slog to cron.Logger.
type Cron struct {
	log *slog.Logger
}

var _ cron.Logger = Cron{}

// NewCron returns a cron logger tagged with the scheduler component.
func NewCron(log *slog.Logger) Cron {
	if log == nil {
		log = slog.Default()
	}
	return Cron{log: log.With("component", "cron")}
}

// Info logs routine scheduler messages at debug level; cron is chatty.
func (c Cron) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

func (c Cron) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}

// Badger adapts slog to badger.Logger.
type Badger struct {
	log *slog.Logger
}

var _ badger.Logger = Badger{}

// NewBadger returns a badger logger tagged with the storage component.
func NewBadger(log *slog.Logger) Badger {
	if log == nil {
		log = slog.Default()
	}
	return Badger{log: log.With("component", "badger")}
}

func (b Badger) Errorf(format string, args ...interface{}) {
	b.log.Error(fmt.Sprintf(format, args...))
}

func (b Badger) Warningf(format string, args ...interface{}) {
	b.log.Warn(fmt.Sprintf(format, args...))
}

func (b Badger) Infof(format string, args ...interface{}) {
	b.log.Debug(fmt.Sprintf(format, args...))
}

func (b Badger) Debugf(format string, args ...interface{}) {
	b.log.Debug(fmt.Sprintf(format, args...))
}
