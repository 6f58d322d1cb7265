// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package log is the process-wide logger used by the packet-filter packages.
// It wraps a seelog logger behind package level functions.
package log

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cihub/seelog"
)

var (
	logger *FilterLogger

	// Lines logged before SetupLogger is called are kept here and replayed
	// once the logger exists. Config loading logs before the logger is set up.
	logsBuffer           = []func(){}
	bufferLogsBeforeInit = true
	bufferMutex          sync.Mutex
	defaultStackDepth    = 3
)

// FilterLogger wraps a seelog logger with a level check
type FilterLogger struct {
	inner seelog.LoggerInterface
	level seelog.LogLevel
	l     sync.RWMutex
}

// SetupLogger configures the logger singleton with a seelog logger
func SetupLogger(l seelog.LoggerInterface, level string) {
	lvl, ok := seelog.LogLevelFromString(strings.ToLower(level))
	if !ok {
		lvl = seelog.InfoLvl
	}
	logger = &FilterLogger{
		inner: l,
		level: lvl,
	}

	// exported helpers add two frames between the caller and seelog
	logger.inner.SetAdditionalStackDepth(defaultStackDepth) //nolint:errcheck

	bufferMutex.Lock()
	defer bufferMutex.Unlock()
	bufferLogsBeforeInit = false
	for _, logLine := range logsBuffer {
		logLine()
	}
	logsBuffer = []func(){}
}

func addLogToBuffer(logHandle func()) {
	bufferMutex.Lock()
	defer bufferMutex.Unlock()

	logsBuffer = append(logsBuffer, logHandle)
}

func (fl *FilterLogger) shouldLog(level seelog.LogLevel) bool {
	fl.l.RLock()
	defer fl.l.RUnlock()

	return level >= fl.level
}

func (fl *FilterLogger) write(level seelog.LogLevel, s string) error {
	fl.l.Lock()
	defer fl.l.Unlock()

	switch level {
	case seelog.TraceLvl:
		fl.inner.Trace(s)
	case seelog.DebugLvl:
		fl.inner.Debug(s)
	case seelog.InfoLvl:
		fl.inner.Info(s)
	case seelog.WarnLvl:
		return fl.inner.Warn(s)
	case seelog.ErrorLvl:
		return fl.inner.Error(s)
	case seelog.CriticalLvl:
		return fl.inner.Critical(s)
	}
	return nil
}

func ready() bool {
	return logger != nil && logger.inner != nil
}

func logMessage(level seelog.LogLevel, bufferFunc func(), msg func() string) {
	if ready() && logger.shouldLog(level) {
		logger.write(level, msg()) //nolint:errcheck
	} else if bufferLogsBeforeInit && !ready() {
		addLogToBuffer(bufferFunc)
	}
}

func logMessageWithError(level seelog.LogLevel, bufferFunc func(), msg func() string) error {
	s := msg()
	if ready() && logger.shouldLog(level) {
		if err := logger.write(level, s); err != nil {
			return err
		}
	} else if bufferLogsBeforeInit && !ready() {
		addLogToBuffer(bufferFunc)
	}
	return errors.New(s)
}

// Tracef logs with format at the trace level
func Tracef(format string, params ...interface{}) {
	logMessage(seelog.TraceLvl, func() { Tracef(format, params...) }, func() string { return fmt.Sprintf(format, params...) })
}

// Debugf logs with format at the debug level
func Debugf(format string, params ...interface{}) {
	logMessage(seelog.DebugLvl, func() { Debugf(format, params...) }, func() string { return fmt.Sprintf(format, params...) })
}

// Infof logs with format at the info level
func Infof(format string, params ...interface{}) {
	logMessage(seelog.InfoLvl, func() { Infof(format, params...) }, func() string { return fmt.Sprintf(format, params...) })
}

// Warnf logs with format at the warn level and returns an error containing the formatted log message
func Warnf(format string, params ...interface{}) error {
	return logMessageWithError(seelog.WarnLvl, func() { Warnf(format, params...) }, func() string { return fmt.Sprintf(format, params...) })
}

// Flush flushes the underlying inner log
func Flush() {
	if ready() {
		logger.inner.Flush()
	}
}
