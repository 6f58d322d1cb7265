// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package command holds the top-level framesort command
package command

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DataDog/packet-filter/pkg/config"
)

// Version is set at build time
var Version = "0.1.0-devel"

// GlobalParams contains the values of framesort-global Cobra flags.
//
// A pointer to this type is passed to SubcommandFactory's, but its contents
// are not valid until Cobra calls the subcommand's Run or RunE function.
type GlobalParams struct {
	// ConfFilePath holds the path to the settings file
	ConfFilePath string

	// LogLevel overrides the log level of the settings file
	LogLevel string

	// NoColor is a flag to disable color output
	NoColor bool
}

// Settings loads the settings file with the global flags and the given
// overrides applied
func (g *GlobalParams) Settings(overrides map[string]interface{}) (*config.Settings, error) {
	if overrides == nil {
		overrides = map[string]interface{}{}
	}
	if g.LogLevel != "" {
		overrides[config.KeyLogLevel] = g.LogLevel
	}
	return config.Load(g.ConfFilePath, overrides)
}

// SubcommandFactory returns a sub-command factory
type SubcommandFactory func(globalParams *GlobalParams) []*cobra.Command

// MakeCommand makes the top-level Cobra command for this command.
func MakeCommand(subcommandFactories []SubcommandFactory) *cobra.Command {
	var globalParams GlobalParams

	framesortCmd := &cobra.Command{
		Use:   "framesort [command]",
		Short: "Dissect, filter and order the frames of a capture.",
		Long: `
framesort reads a pcap capture or a YAML capture description, dissects the
frames, hides those not matching the display filter and prints the others
ordered by a packet list column.`,
		SilenceUsage: true,
	}

	framesortCmd.PersistentFlags().StringVarP(&globalParams.ConfFilePath, "cfgpath", "c", "", "path to the settings file")
	framesortCmd.PersistentFlags().StringVarP(&globalParams.LogLevel, "log-level", "l", "", "override the log level of the settings file")
	framesortCmd.PersistentFlags().BoolVarP(&globalParams.NoColor, "no-color", "n", false, "disable color output")

	framesortCmd.PersistentPreRun = func(*cobra.Command, []string) {
		if globalParams.NoColor {
			color.NoColor = true
		}
	}
	for _, factory := range subcommandFactories {
		for _, subcmd := range factory(&globalParams) {
			framesortCmd.AddCommand(subcmd)
		}
	}

	return framesortCmd
}
