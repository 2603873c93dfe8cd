// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"net"
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/stretchr/testify/require"
)

func buildTCPPacket(t *testing.T, srcIP, dstIP string, srcPort, dstPort uint16, payload []byte) gopacket.Packet {
	t.Helper()

	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.ParseIP(srcIP).To4(),
		DstIP:    net.ParseIP(dstIP).To4(),
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     1,
		Window:  65535,
	}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts,
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
			DstMAC:       net.HardwareAddr{5, 4, 3, 2, 1, 0},
			EthernetType: layers.EthernetTypeIPv4,
		},
		ip, tcp, gopacket.Payload(payload),
	))

	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func TestTupleFor(t *testing.T) {
	packet := buildTCPPacket(t, "10.0.0.1", "10.0.0.2", 44321, 443, []byte("hi"))
	tcp := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)

	tup, ok := tupleFor(packet, tcp)
	require.True(t, ok)
	require.Equal(t, tuple{"10.0.0.1", "10.0.0.2", 44321, 443}, tup)
}

func TestDescribeTuple(t *testing.T) {
	tup := tuple{srcIP: "10.0.0.1", dstIP: "10.0.0.2", srcPort: 1234, dstPort: 443}
	require.Equal(t, "10.0.0.1:1234 -> 10.0.0.2:443", describeTuple(tup))
}
