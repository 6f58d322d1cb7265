// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/packet-filter/pkg/column"
	"github.com/DataDog/packet-filter/pkg/timestamp"
	"github.com/DataDog/packet-filter/pkg/util/log"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "packet-filter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	s, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, &Settings{
		LogLevel:      "info",
		TimeFormat:    timestamp.Relative,
		TimePrecision: timestamp.PrecAuto,
		SortColumn:    column.Number,
		WOWWPort:      8085,
	}, s)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log_level: DEBUG
time_format: ad
time_precision: ms
sort_column: cumulative_bytes
woww:
  tcp_port: 3724
statsd_addr: 127.0.0.1:8125
`)
	s, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, timestamp.AbsoluteWithYMD, s.TimeFormat)
	assert.Equal(t, timestamp.PrecFixedMSec, s.TimePrecision)
	assert.Equal(t, column.CumulativeBytes, s.SortColumn)
	assert.Equal(t, uint16(3724), s.WOWWPort)
	assert.Equal(t, "127.0.0.1:8125", s.StatsdAddr)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PKTFILTER_TIME_FORMAT", "delta")
	t.Setenv("PKTFILTER_WOWW_TCP_PORT", "9000")

	path := writeConfig(t, "time_format: u\n")
	s, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, timestamp.Delta, s.TimeFormat)
	assert.Equal(t, uint16(9000), s.WOWWPort)
}

func TestOverrides(t *testing.T) {
	t.Setenv("PKTFILTER_SORT_COLUMN", "abs_time")

	path := writeConfig(t, "log_level: warn\n")
	s, err := Load(path, map[string]interface{}{KeyLogLevel: "trace", KeySortColumn: "packet_length"})
	require.NoError(t, err)
	assert.Equal(t, "trace", s.LogLevel)
	assert.Equal(t, column.PacketLength, s.SortColumn)
}

func TestInvalidSettings(t *testing.T) {
	v := New()
	v.Set(KeyLogLevel, "chatty")
	v.Set(KeyTimeFormat, "x")
	v.Set(KeyTimePrecision, "fs")
	v.Set(KeySortColumn, "info")
	v.Set(KeyWOWWPort, 70000)

	_, err := FromViper(v)
	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	assert.Len(t, merr.Errors, 5)

	v = New()
	v.Set(KeySortColumn, "nope")
	_, err = FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown column `nope`")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	defer timestamp.SetType(timestamp.GetType())
	defer timestamp.SetPrecision(timestamp.GetPrecision())

	s := &Settings{TimeFormat: timestamp.Epoch, TimePrecision: timestamp.PrecFixedUSec}
	s.Apply()
	assert.Equal(t, timestamp.Epoch, timestamp.GetType())
	assert.Equal(t, timestamp.PrecFixedUSec, timestamp.GetPrecision())
}

func TestStatsdClient(t *testing.T) {
	client, err := (&Settings{}).StatsdClient()
	require.NoError(t, err)
	assert.IsType(t, &statsd.NoOpClient{}, client)
}

func TestBuildLoggerConfig(t *testing.T) {
	console := buildLoggerConfig("WARN", "")
	assert.Contains(t, console, `minlevel="warn"`)
	assert.NotContains(t, console, "rollingfile")

	file := buildLoggerConfig("info", "/var/log/framesort.log")
	assert.Contains(t, file, `<rollingfile type="size" filename="/var/log/framesort.log" maxsize="10485760" maxrolls="1" />`)
	assert.True(t, strings.HasSuffix(file, "</seelog>"))
}

func TestSetupLogger(t *testing.T) {
	s := &Settings{LogLevel: "debug"}
	require.NoError(t, s.SetupLogger())

	path := filepath.Join(t.TempDir(), "out.log")
	s = &Settings{LogLevel: "debug", LogFile: path}
	require.NoError(t, s.SetupLogger())
	log.Infof("frames sorted by %s", "number")
	log.Flush()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "| PKTFILTER | INFO | (")
	assert.Contains(t, string(content), "| frames sorted by number")
}
