// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package sort implements 'framesort sort'
package sort

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/DataDog/packet-filter/cmd/framesort/command"
	"github.com/DataDog/packet-filter/pkg/config"
	"github.com/DataDog/packet-filter/pkg/dfilter/match"
	"github.com/DataDog/packet-filter/pkg/frame"
	"github.com/DataDog/packet-filter/pkg/ingest"
	"github.com/DataDog/packet-filter/pkg/timestamp"
	"github.com/DataDog/packet-filter/pkg/util/log"
)

// cliParams are the command-line arguments for this subcommand
type cliParams struct {
	*command.GlobalParams

	column     string
	timeFormat string
	precision  string
	refs       []uint
	yaml       bool
	exists     []string
	equals     []string
	file       string
}

// Commands returns a slice of subcommands for the 'framesort' command.
func Commands(globalParams *command.GlobalParams) []*cobra.Command {
	cliParams := &cliParams{GlobalParams: globalParams}

	sortCmd := &cobra.Command{
		Use:   "sort [flags] <capture>",
		Short: "Print the frames of a capture ordered by a column",
		Long: `Dissect every frame of a capture, hide the frames not matching the filter
given with --exists and --eq, and print the others ordered by --column.
Time reference frames set with --ref are always shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliParams.file = args[0]
			return run(cmd.Context(), cliParams, cmd.OutOrStdout())
		},
	}

	sortCmd.Flags().StringVarP(&cliParams.column, "column", "k", "", "column to order the frames by, defaults to the sort_column setting")
	sortCmd.Flags().StringVarP(&cliParams.timeFormat, "time-format", "t", "", "time display format (r, a, ad, adoy, d, dd, e, u, ud, udoy)")
	sortCmd.Flags().StringVarP(&cliParams.precision, "time-precision", "p", "", "time precision (auto, s, ds, cs, ms, us, ns)")
	sortCmd.Flags().UintSliceVar(&cliParams.refs, "ref", nil, "number of a frame to use as time reference, can be repeated")
	sortCmd.Flags().BoolVar(&cliParams.yaml, "yaml", false, "read a YAML capture description instead of a pcap file")
	sortCmd.Flags().StringArrayVar(&cliParams.exists, "exists", nil, "only show frames having this field or protocol, can be repeated")
	sortCmd.Flags().StringArrayVar(&cliParams.equals, "eq", nil, "only show frames where field=value, or field=v1,v2 for a set, can be repeated")

	return []*cobra.Command{sortCmd}
}

func (p *cliParams) overrides() map[string]interface{} {
	overrides := map[string]interface{}{}
	if p.column != "" {
		overrides[config.KeySortColumn] = p.column
	}
	if p.timeFormat != "" {
		overrides[config.KeyTimeFormat] = p.timeFormat
	}
	if p.precision != "" {
		overrides[config.KeyTimePrecision] = p.precision
	}
	return overrides
}

func run(ctx context.Context, params *cliParams, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := params.Settings(params.overrides())
	if err != nil {
		return err
	}
	if err := settings.SetupLogger(); err != nil {
		return errors.Wrap(err, "setting up the logger")
	}
	defer log.Flush()
	settings.Apply()

	stats, err := settings.StatsdClient()
	if err != nil {
		return err
	}
	defer stats.Close()

	reg, dispatcher, err := ingest.Dissectors(settings.WOWWPort)
	if err != nil {
		return err
	}

	var filter *match.Filter
	root, err := match.Build(reg, params.exists, params.equals)
	if err != nil {
		return errors.Wrap(err, "invalid filter")
	}
	if root != nil {
		// Compile frees root when it fails
		if filter, err = match.Compile(root); err != nil {
			return errors.Wrap(err, "invalid filter")
		}
		defer filter.Release()
		log.Debugf("display filter:\n%s", filter)
	}

	var src ingest.Source
	if params.yaml {
		src, err = ingest.OpenYAML(params.file)
	} else {
		src, err = ingest.OpenPcap(params.file)
	}
	if err != nil {
		return err
	}
	defer src.Close()

	capture := ingest.NewCapture(dispatcher, stats, "capture:"+filepath.Base(params.file))
	defer capture.Frames().Destroy()
	if err := capture.Read(ctx, src); err != nil {
		return err
	}

	for _, num := range params.refs {
		if err := capture.Frames().SetRefTime(uint32(num), true); err != nil {
			return err
		}
	}
	capture.Rescan(filter)

	records, err := capture.Frames().Sorted(settings.SortColumn)
	if err != nil {
		return err
	}
	printFrames(out, capture, records, settings)
	return nil
}

func printFrames(out io.Writer, capture *ingest.Capture, records []*frame.Record, settings *config.Settings) {
	ref := color.New(color.FgYellow)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"No.", "Time (" + settings.TimeFormat.String() + ")", "Length", "Bytes", "Protocol", "Info"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetColumnSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range records {
		ts := frame.FormatTime(capture.Frames(), r, timestamp.GetType(), timestamp.GetPrecision())
		if r.IsRefTime() {
			ts = ref.Sprint("*REF*")
		}
		sum := capture.Summary(r.Num)
		table.Append([]string{
			strconv.FormatUint(uint64(r.Num), 10),
			ts,
			strconv.FormatUint(uint64(r.PktLen), 10),
			strconv.FormatUint(uint64(r.CumBytes), 10),
			sum.Protocol,
			sum.Info,
		})
	}
	table.Render()

	var total uint64
	for _, r := range capture.Frames().Records() {
		total += uint64(r.PktLen)
	}
	fmt.Fprintf(out, "%s displayed, %s total (%s), sorted by %s, %s elapsed\n",
		color.GreenString("%d", capture.Frames().Displayed()),
		color.CyanString("%d", capture.Frames().Len()),
		humanize.Bytes(total),
		settings.SortColumn,
		capture.Frames().Elapsed().Format(timestamp.GetPrecision().Digits(9)),
	)
}
