// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package subcommands holds the subcommands for the framesort command
package subcommands

import (
	"github.com/DataDog/packet-filter/cmd/framesort/command"
	"github.com/DataDog/packet-filter/cmd/framesort/subcommands/fields"
	"github.com/DataDog/packet-filter/cmd/framesort/subcommands/sort"
	"github.com/DataDog/packet-filter/cmd/framesort/subcommands/version"
)

// FramesortSubcommands returns all subcommands for the framesort command
func FramesortSubcommands() []command.SubcommandFactory {
	return []command.SubcommandFactory{
		sort.Commands,
		fields.Commands,
		version.Commands,
	}
}
