// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package sort

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/packet-filter/cmd/framesort/command"
)

func tcpFrame(t *testing.T, srcPort, dstPort uint16, payload []byte) []byte {
	t.Helper()
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IP{10, 0, 0, 1},
		DstIP:    net.IP{10, 0, 0, 2},
	}
	tcp := &layers.TCP{SrcPort: layers.TCPPort(srcPort), DstPort: layers.TCPPort(dstPort), PSH: true, ACK: true}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true},
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
			DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
			EthernetType: layers.EthernetTypeIPv4,
		},
		ip, tcp, gopacket.Payload(payload),
	))
	return buf.Bytes()
}

// writeCapture writes a YAML capture of a WOWW session interleaved with
// some HTTP traffic. Frame 3 was captured before frame 2.
func writeCapture(t *testing.T) string {
	t.Helper()
	frames := []struct {
		time string
		data []byte
	}{
		{"1.0", tcpFrame(t, 8085, 50000, []byte{0x00, 0x06, 0xEC, 0x01, 0xDE, 0xAD, 0xBE, 0xEF})},
		{"3.0", tcpFrame(t, 50000, 8085, []byte{0x00, 0x08, 0xED, 0x01, 0x00, 0x00, 0x01, 0x02, 0x03, 0x04})},
		{"2.0", tcpFrame(t, 1234, 80, []byte("GET / HTTP/1.1\r\n\r\n"))},
		{"6.0", tcpFrame(t, 8085, 50000, []byte{0x9F, 0x31, 0x07, 0xE2, 0x55, 0x10})},
	}

	var doc strings.Builder
	doc.WriteString("frames:\n")
	for _, f := range frames {
		fmt.Fprintf(&doc, "  - time: %q\n    len: %d\n    data: %s\n", f.time, len(f.data), hex.EncodeToString(f.data))
	}
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc.String()), 0o600))
	return path
}

func runSort(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PKTFILTER_LOG_LEVEL", "warn")

	cmd := command.MakeCommand([]command.SubcommandFactory{Commands})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"sort", "--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// frameNumbers returns the frame numbers of the printed rows, in order
func frameNumbers(t *testing.T, out string) []int {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)

	var nums []int
	for _, line := range lines[1 : len(lines)-1] {
		num, err := strconv.Atoi(strings.Fields(line)[0])
		require.NoError(t, err, line)
		nums = append(nums, num)
	}
	return nums
}

func TestSort(t *testing.T) {
	path := writeCapture(t)

	tests := []struct {
		name     string
		args     []string
		expected []int
		footer   string
	}{
		{
			name:     "capture order",
			args:     []string{"--yaml", path},
			expected: []int{1, 2, 3, 4},
			footer:   "4 displayed, 4 total (258 B), sorted by number",
		},
		{
			name:     "absolute time",
			args:     []string{"--yaml", "-k", "abs_time", path},
			expected: []int{1, 3, 2, 4},
			footer:   "4 displayed, 4 total (258 B), sorted by abs_time",
		},
		{
			name:     "packet length",
			args:     []string{"--yaml", "-k", "packet_length", path},
			expected: []int{4, 1, 2, 3},
		},
		{
			name:     "protocol filter",
			args:     []string{"--yaml", "--exists", "woww", path},
			expected: []int{1, 2, 4},
			footer:   "3 displayed, 4 total",
		},
		{
			name:     "opcode filter",
			args:     []string{"--yaml", "--eq", "woww.opcode=0x1ed", path},
			expected: []int{2},
		},
		{
			name:     "reference frames are always shown",
			args:     []string{"--yaml", "--eq", "woww.opcode=0x1ed", "--ref", "3", "-k", "abs_time", path},
			expected: []int{3, 2},
			footer:   "2 displayed, 4 total",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := runSort(t, test.args...)
			require.NoError(t, err, out)
			assert.Equal(t, test.expected, frameNumbers(t, out))
			assert.Contains(t, out, test.footer)
		})
	}
}

func TestSortColumns(t *testing.T) {
	path := writeCapture(t)

	out, err := runSort(t, "--yaml", "--ref", "3", "-t", "e", "-p", "ms", path)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "Time (epoch)")
	assert.Contains(t, lines[1], "1.000")
	assert.Contains(t, lines[1], "SMSG_AUTH_CHALLENGE")
	assert.Contains(t, lines[2], "CMSG_AUTH_SESSION")
	assert.Contains(t, lines[3], "*REF*")
	assert.Contains(t, lines[3], "1234 → 80")
	assert.Contains(t, lines[4], "Encrypted Header")
}

func TestSortErrors(t *testing.T) {
	path := writeCapture(t)

	for name, args := range map[string][]string{
		"unsortable column": {"--yaml", "-k", "info", path},
		"unknown field":     {"--yaml", "--eq", "woww.nope=1", path},
		"unknown frame":     {"--yaml", "--ref", "9", path},
		"not a pcap":        {path},
		"missing file":      {"--yaml", filepath.Join(t.TempDir(), "missing.yaml")},
		"no file":           {"--yaml"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := runSort(t, args...)
			assert.Error(t, err)
		})
	}
}
