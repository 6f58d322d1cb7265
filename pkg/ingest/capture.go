// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package ingest

import (
	"context"
	"io"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/pkg/errors"

	"github.com/DataDog/packet-filter/pkg/column"
	"github.com/DataDog/packet-filter/pkg/dfilter/match"
	"github.com/DataDog/packet-filter/pkg/dissect"
	"github.com/DataDog/packet-filter/pkg/dissect/tcp"
	"github.com/DataDog/packet-filter/pkg/dissect/woww"
	"github.com/DataDog/packet-filter/pkg/frame"
	"github.com/DataDog/packet-filter/pkg/util/log"
)

// Metrics sent while reading and dissecting captures
const (
	MetricFramesRead      = "packet_filter.ingest.frames_read"
	MetricBytesRead       = "packet_filter.ingest.bytes_read"
	MetricDecodeErrors    = "packet_filter.ingest.decode_errors"
	MetricFramesDisplayed = "packet_filter.ingest.frames_displayed"
)

// Summary is what the dissectors found in a frame
type Summary struct {
	Protocol string
	Info     string
}

// Dissectors registers the TCP dispatcher and the WOWW dissector, handed the
// segments of wowwPort
func Dissectors(wowwPort uint16) (*dissect.Registry, *tcp.TCP, error) {
	reg := dissect.NewRegistry()
	dispatcher, err := tcp.New(reg)
	if err != nil {
		return nil, nil, err
	}
	d, err := woww.Register(reg, wowwPort)
	if err != nil {
		return nil, nil, err
	}
	d.Handoff(dispatcher.PortTable())
	return reg, dispatcher, nil
}

// Capture is a capture being read: the frame table, the frame bytes and
// what the dissectors made of them
type Capture struct {
	frames    *frame.Sequence
	data      [][]byte
	summaries []Summary

	tcp   *tcp.TCP
	stats statsd.ClientInterface
	tags  []string
}

// NewCapture returns an empty capture dissected by the given TCP
// dispatcher. stats may be nil.
func NewCapture(dispatcher *tcp.TCP, stats statsd.ClientInterface, tags ...string) *Capture {
	if stats == nil {
		stats = &statsd.NoOpClient{}
	}
	return &Capture{
		frames: frame.NewSequence(),
		tcp:    dispatcher,
		stats:  stats,
		tags:   tags,
	}
}

// Frames returns the frame table
func (c *Capture) Frames() *frame.Sequence {
	return c.frames
}

// Summary returns what the dissectors found in a frame during the last
// rescan
func (c *Capture) Summary(num uint32) Summary {
	if num == 0 || int(num) > len(c.summaries) {
		return Summary{}
	}
	return c.summaries[num-1]
}

// Read appends every record of src to the capture
func (c *Capture) Read(ctx context.Context, src Source) error {
	var read, bytes int64
	defer func() {
		_ = c.stats.Count(MetricFramesRead, read, c.tags, 1)
		_ = c.stats.Count(MetricBytesRead, bytes, c.tags, 1)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		r := c.frames.Append(&p.Record, p.Offset)
		c.data = append(c.data, p.Data)
		c.summaries = append(c.summaries, Summary{})
		read++
		bytes += int64(r.PktLen)
	}
	log.Infof("read %d frames, %d bytes", read, bytes)
	return nil
}

// Rescan dissects every frame again and recomputes the frame references.
// Frames that do not pass filter are hidden, a nil filter shows them all.
func (c *Capture) Rescan(filter *match.Filter) {
	var decodeErrors int64
	c.frames.Rescan(func(r *frame.Record) bool {
		var tree *dissect.Tree
		if filter != nil {
			tree = dissect.NewTree()
		}
		sum, err := c.dissect(r, tree)
		if err != nil {
			decodeErrors++
			_ = log.Warnf("frame %d: %v", r.Num, err)
		}
		c.summaries[r.Num-1] = sum
		return filter == nil || filter.Match(tree)
	})

	_ = c.stats.Count(MetricDecodeErrors, decodeErrors, c.tags, 1)
	_ = c.stats.Gauge(MetricFramesDisplayed, float64(c.frames.Displayed()), c.tags, 1)
}

func (c *Capture) dissect(r *frame.Record, tree *dissect.Tree) (Summary, error) {
	r.SubNum++
	data := c.data[r.Num-1]
	if r.Kind != frame.KindPacket || len(data) == 0 || c.tcp == nil {
		return Summary{Protocol: r.Kind.String()}, nil
	}

	pinfo := &dissect.PacketInfo{Num: r.Num, Frame: r}
	_, err := c.tcp.Dissect(data, pinfo, tree)
	sum := Summary{
		Protocol: pinfo.Columns.Get(column.Protocol),
		Info:     pinfo.Columns.Get(column.Info),
	}
	if err != nil {
		return sum, errors.Wrap(err, "dissecting")
	}
	return sum, nil
}
