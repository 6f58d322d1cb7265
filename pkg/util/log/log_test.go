// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package log

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/cihub/seelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger(t *testing.T, level string) (*bytes.Buffer, *bufio.Writer) {
	t.Helper()

	var b bytes.Buffer
	w := bufio.NewWriter(&b)
	l, err := seelog.LoggerFromWriterWithMinLevelAndFormat(w, seelog.TraceLvl, "[%LEVEL] %Msg\n")
	require.NoError(t, err)
	SetupLogger(l, level)
	return &b, w
}

func TestLevelFiltering(t *testing.T) {
	b, w := setupTestLogger(t, "info")

	Debugf("hidden %d", 1)
	Infof("frame %d sorted", 3)
	err := Warnf("column %s unknown", "foo")
	w.Flush()

	assert.EqualError(t, err, "column foo unknown")
	logs := b.String()
	assert.NotContains(t, logs, "hidden")
	assert.Contains(t, logs, "[INFO] frame 3 sorted")
	assert.Contains(t, logs, "[WARN] column foo unknown")
}

func TestSetupLoggerLevel(t *testing.T) {
	b, w := setupTestLogger(t, "DEBUG")
	assert.Equal(t, seelog.LogLevel(seelog.DebugLvl), logger.level)

	Tracef("first")
	Debugf("second %d", 2)
	w.Flush()
	assert.NotContains(t, b.String(), "first")
	assert.Contains(t, b.String(), "[DEBUG] second 2")

	setupTestLogger(t, "verbose")
	assert.Equal(t, seelog.LogLevel(seelog.InfoLvl), logger.level)
}

func TestWarnfBeforeSetup(t *testing.T) {
	logger = nil
	bufferLogsBeforeInit = true
	logsBuffer = []func(){}

	err := Warnf("frame %d: truncated", 4)
	assert.EqualError(t, err, "frame 4: truncated")
	assert.Len(t, logsBuffer, 1)

	b, w := setupTestLogger(t, "info")
	w.Flush()
	assert.Contains(t, b.String(), "[WARN] frame 4: truncated")
}

func TestBufferBeforeSetup(t *testing.T) {
	logger = nil
	bufferLogsBeforeInit = true
	logsBuffer = []func(){}

	Infof("buffered %s", "line")
	assert.Len(t, logsBuffer, 1)

	b, w := setupTestLogger(t, "info")
	w.Flush()

	assert.Empty(t, logsBuffer)
	assert.Equal(t, 1, strings.Count(b.String(), "buffered line"))
}
