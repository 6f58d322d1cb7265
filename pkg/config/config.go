// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package config reads the settings of the packet filter tools from a YAML
// file and PKTFILTER_ environment variables
package config

import (
	"fmt"
	"strings"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/DataDog/viper"
	"github.com/cihub/seelog"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/DataDog/packet-filter/pkg/column"
	"github.com/DataDog/packet-filter/pkg/dissect/woww"
	"github.com/DataDog/packet-filter/pkg/timestamp"
	"github.com/DataDog/packet-filter/pkg/util/log"
)

// EnvPrefix prefixes the environment variables overriding the settings
const EnvPrefix = "PKTFILTER"

// Setting names
const (
	KeyLogLevel      = "log_level"
	KeyLogFile       = "log_file"
	KeyTimeFormat    = "time_format"
	KeyTimePrecision = "time_precision"
	KeySortColumn    = "sort_column"
	KeyWOWWPort      = "woww.tcp_port"
	KeyStatsdAddr    = "statsd_addr"
)

// Settings are the validated settings
type Settings struct {
	LogLevel      string
	LogFile       string
	TimeFormat    timestamp.Type
	TimePrecision timestamp.Precision
	SortColumn    column.ID
	WOWWPort      uint16
	StatsdAddr    string
}

// New returns a viper instance with the defaults set and bound to the
// environment
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyTimeFormat, "r")
	v.SetDefault(KeyTimePrecision, "auto")
	v.SetDefault(KeySortColumn, column.Number.String())
	v.SetDefault(KeyWOWWPort, woww.DefaultPort)
	v.SetDefault(KeyStatsdAddr, "")
	return v
}

// Load reads the settings file at path, if any, applies the overrides given
// on the command line and validates the result
func Load(path string, overrides map[string]interface{}) (*Settings, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "unable to load config file %s", path)
		}
		log.Debugf("settings loaded from %s", path)
	}
	for key, value := range overrides {
		v.Set(key, value)
	}
	return FromViper(v)
}

// FromViper validates the settings held by v. Every invalid setting is
// reported.
func FromViper(v *viper.Viper) (*Settings, error) {
	var (
		s    = &Settings{LogFile: v.GetString(KeyLogFile), StatsdAddr: v.GetString(KeyStatsdAddr)}
		errs *multierror.Error
		err  error
	)

	s.LogLevel = strings.ToLower(v.GetString(KeyLogLevel))
	if _, ok := seelog.LogLevelFromString(s.LogLevel); !ok {
		errs = multierror.Append(errs, fmt.Errorf("%s: unknown log level `%s`", KeyLogLevel, s.LogLevel))
	}

	if s.TimeFormat, err = timestamp.ParseType(v.GetString(KeyTimeFormat)); err != nil {
		errs = multierror.Append(errs, errors.Wrap(err, KeyTimeFormat))
	}
	if s.TimePrecision, err = timestamp.ParsePrecision(v.GetString(KeyTimePrecision)); err != nil {
		errs = multierror.Append(errs, errors.Wrap(err, KeyTimePrecision))
	}

	if s.SortColumn, err = column.Parse(v.GetString(KeySortColumn)); err != nil {
		errs = multierror.Append(errs, errors.Wrap(err, KeySortColumn))
	} else if !s.SortColumn.IsFrameSortable() {
		errs = multierror.Append(errs, fmt.Errorf("%s: column `%s` cannot be sorted on", KeySortColumn, s.SortColumn))
	}

	port := v.GetInt(KeyWOWWPort)
	if port <= 0 || port > 0xFFFF {
		errs = multierror.Append(errs, fmt.Errorf("%s: invalid port %d", KeyWOWWPort, port))
	}
	s.WOWWPort = uint16(port)

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply makes the time display settings current
func (s *Settings) Apply() {
	timestamp.SetType(s.TimeFormat)
	timestamp.SetPrecision(s.TimePrecision)
}

// StatsdClient returns a client sending to the configured address, or a
// client sending nothing when none is set
func (s *Settings) StatsdClient() (statsd.ClientInterface, error) {
	if s.StatsdAddr == "" {
		return &statsd.NoOpClient{}, nil
	}
	client, err := statsd.New(s.StatsdAddr)
	if err != nil {
		return nil, errors.Wrap(err, "creating statsd client")
	}
	return client, nil
}
