// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command prereadsim replays a pcap capture through the preread core,
// one TCP four-tuple at a time, and prints the fingerprinting result
// for every connection it recognizes as TLS or legacy SSLv2. It
// exercises Controller.Handle against real captured byte streams
// instead of synthetic test vectors.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dreadl0ck/ja3"
	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcap"

	"grimm.is/prereadtls/internal/hostproxy"
	"grimm.is/prereadtls/internal/logging"
	"grimm.is/prereadtls/internal/metrics"
	"grimm.is/prereadtls/internal/preread"
)

func main() {
	pcapPath := flag.String("pcap", "", "path to a pcap/pcapng capture file")
	crosscheck := flag.Bool("crosscheck", false, "additionally compute the classic JA3 hash via dreadl0ck/ja3 for comparison")
	quiet := flag.Bool("quiet", false, "suppress per-connection progress, print only the final summary")
	debug := flag.Bool("debug", false, "log a debug line for every declined/truncated ClientHello, mirroring Config.Debug")
	flag.Parse()

	if *pcapPath == "" {
		fmt.Fprintln(os.Stderr, "usage: prereadsim -pcap capture.pcap [-crosscheck] [-quiet] [-debug]")
		os.Exit(2)
	}

	if err := run(*pcapPath, *crosscheck, *quiet, *debug); err != nil {
		log.Fatalf("prereadsim: %v", err)
	}
}

// flow is a per-TCP-connection accumulator: the host-side buffer plus
// the Controller driving preread.Context for that connection.
type flow struct {
	session    *hostproxy.Session
	controller *preread.Controller
	done       bool
	lastResult preread.Result
}

type tuple struct {
	srcIP, dstIP     string
	srcPort, dstPort uint16
}

func run(path string, crosscheck, quiet, debug bool) error {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return fmt.Errorf("open pcap: %w", err)
	}
	defer handle.Close()

	flows := make(map[tuple]*flow)
	m := metrics.NewMetrics()
	logger := logging.New(os.Stderr, "prereadsim: ", debug)

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range source.Packets() {
		tcpLayer := packet.Layer(layers.LayerTypeTCP)
		if tcpLayer == nil {
			continue
		}
		tcp := tcpLayer.(*layers.TCP)
		if len(tcp.Payload) == 0 {
			continue
		}

		t, ok := tupleFor(packet, tcp)
		if !ok {
			continue
		}

		f, exists := flows[t]
		if !exists {
			f = &flow{
				session:    hostproxy.NewSession("default"),
				controller: preread.NewController(),
			}
			f.controller.Logger = logger
			flows[t] = f
		}
		if f.done {
			continue
		}

		f.session.Append(tcp.Payload)

		start := time.Now()
		res, herr := f.controller.Handle(f.session.Bytes())
		m.Observe(res, herr, f.controller.Context(), time.Since(start).Seconds())
		f.lastResult = res

		switch res {
		case preread.Again:
			continue
		case preread.Declined:
			f.done = true
		case preread.Error:
			f.done = true
			if !quiet {
				fmt.Printf("%s ERROR %v\n", describeTuple(t), herr)
			}
			continue
		case preread.OK:
			f.done = true
		}

		if res != preread.OK {
			if !quiet && res == preread.Declined {
				fmt.Printf("%s DECLINED %v\n", describeTuple(t), herr)
			}
			continue
		}

		if !quiet {
			printResult(t, f.controller.Context())
		}
		if crosscheck {
			printCrosscheck(t, packet)
		}
	}

	var matched, declined, errored, pending int
	for _, f := range flows {
		switch f.lastResult {
		case preread.OK:
			matched++
		case preread.Declined:
			declined++
		case preread.Error:
			errored++
		case preread.Again:
			pending++
		}
	}

	fmt.Printf("\nflows=%d ok=%d declined=%d error=%d still-pending=%d\n",
		len(flows), matched, declined, errored, pending)
	return nil
}

func tupleFor(packet gopacket.Packet, tcp *layers.TCP) (tuple, bool) {
	if ipv4 := packet.Layer(layers.LayerTypeIPv4); ipv4 != nil {
		ip := ipv4.(*layers.IPv4)
		return tuple{ip.SrcIP.String(), ip.DstIP.String(), uint16(tcp.SrcPort), uint16(tcp.DstPort)}, true
	}
	if ipv6 := packet.Layer(layers.LayerTypeIPv6); ipv6 != nil {
		ip := ipv6.(*layers.IPv6)
		return tuple{ip.SrcIP.String(), ip.DstIP.String(), uint16(tcp.SrcPort), uint16(tcp.DstPort)}, true
	}
	return tuple{}, false
}

func describeTuple(t tuple) string {
	return fmt.Sprintf("%s:%d -> %s:%d", t.srcIP, t.srcPort, t.dstIP, t.dstPort)
}

func printResult(t tuple, c *preread.Context) {
	proto, _ := c.Protocol()
	sni, sniOK := c.ServerName()
	alpn, alpnOK := c.ALPNProtocols()
	ja3n, ja3nOK := c.JA3N()
	hash, _ := c.JA3NHash()

	fmt.Printf("%s OK protocol=%s", describeTuple(t), proto)
	if sniOK {
		fmt.Printf(" sni=%s", sni)
	}
	if alpnOK {
		fmt.Printf(" alpn=%s", alpn)
	}
	if ja3nOK {
		fmt.Printf(" ja3n=%s ja3n_hash=%s", ja3n, hash)
	}
	fmt.Println()
}

// printCrosscheck computes the classic JA3 (unsorted extensions, no
// GREASE filtering) hash via dreadl0ck/ja3 so the two fingerprints can
// be compared by hand; they are expected to differ whenever the
// ClientHello's extensions are not already in ascending order or
// carries GREASE values, per the JA3 vs. JA3N grammar difference.
func printCrosscheck(t tuple, packet gopacket.Packet) {
	digest := ja3.DigestPacket(packet)
	hash := hex.EncodeToString(digest[:])
	if hash == "d41d8cd98f00b204e9800998ecf8427e" {
		return // no ClientHello in this packet; empty-input MD5
	}
	fmt.Printf("%s ja3=%s\n", describeTuple(t), hash)
}
