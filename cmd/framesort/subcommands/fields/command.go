// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package fields implements 'framesort fields', listing what filters can
// test
package fields

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DataDog/packet-filter/cmd/framesort/command"
	"github.com/DataDog/packet-filter/pkg/dissect"
	"github.com/DataDog/packet-filter/pkg/ingest"
)

// Commands returns a slice of subcommands for the 'framesort' command.
func Commands(globalParams *command.GlobalParams) []*cobra.Command {
	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "List the protocols and fields usable with --exists and --eq",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := globalParams.Settings(nil)
			if err != nil {
				return err
			}
			reg, _, err := ingest.Dissectors(settings.WOWWPort)
			if err != nil {
				return err
			}
			printFields(cmd.OutOrStdout(), reg)
			return nil
		},
	}
	return []*cobra.Command{fieldsCmd}
}

// printFields prints one line per protocol, P, and per field, F, with the
// tab separated name, abbreviation and type
func printFields(out io.Writer, reg *dissect.Registry) {
	for _, f := range reg.Fields() {
		if f.Type == dissect.FTProtocol {
			fmt.Fprintf(out, "%s\t%s\t%s\n", color.GreenString("P"), f.Name, f.Abbrev)
			continue
		}
		fmt.Fprintf(out, "F\t%s\t%s\t%s\t%s\t%s\n", f.Name, f.Abbrev, f.Type, f.Protocol.Filter, f.Blurb)
	}
}
