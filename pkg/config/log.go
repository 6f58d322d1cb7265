// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package config

import (
	"fmt"
	"strings"

	"github.com/cihub/seelog"

	"github.com/DataDog/packet-filter/pkg/util/log"
)

const logFileMaxSize = 10 * 1024 * 1024         // 10MB
const logDateFormat = "2006-01-02 15:04:05 MST" // see time.Format for format syntax

// buildLoggerConfig returns the seelog configuration writing to stderr and,
// when logFile is set, to a rolling file
func buildLoggerConfig(logLevel, logFile string) string {
	configTemplate := `<seelog minlevel="%s">
    <outputs formatid="common">
        <console />`
	if logFile != "" {
		configTemplate += `<rollingfile type="size" filename="%s" maxsize="%d" maxrolls="1" />`
	}
	configTemplate += `</outputs>
    <formats>
        <format id="common" format="%%Date(%s) | PKTFILTER | %%LEVEL | (%%RelFile:%%Line in %%FuncShort) | %%Msg%%n"/>
    </formats>
</seelog>`

	if logFile != "" {
		return fmt.Sprintf(configTemplate, strings.ToLower(logLevel), logFile, logFileMaxSize, logDateFormat)
	}
	return fmt.Sprintf(configTemplate, strings.ToLower(logLevel), logDateFormat)
}

// SetupLogger sets up the default logger from the settings
func (s *Settings) SetupLogger() error {
	logger, err := seelog.LoggerFromConfigAsString(buildLoggerConfig(s.LogLevel, s.LogFile))
	if err != nil {
		return err
	}
	log.SetupLogger(logger, s.LogLevel)
	return nil
}
