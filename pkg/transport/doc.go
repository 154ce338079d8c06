// Package transport provides raw Ethernet frame I/O for AVDECC.
//
// A Transport sends and receives complete Ethernet frames carrying
// EtherType 0x22F0 on one network interface. Three providers exist:
//
//   - pcap: libpcap via gopacket/pcap (requires cgo)
//   - afpacket: Linux AF_PACKET TPACKET_V3 ring via gopacket/afpacket
//   - virtual: an in-memory segment (Bus) shared by several transports,
//     used by tests and for running controllers without hardware
//
// # Receiving
//
// Start launches exactly one receive goroutine. Each frame is handed to
// Receiver.OnFrame on that goroutine; the slice is only valid for the
// duration of the call. A fatal receive failure is reported once through
// Receiver.OnTransportError, after which no more frames are delivered.
//
// # Filtering
//
// The pcap provider installs the textual filter "ether proto 0x22f0 or
// (vlan and ether proto 0x22f0)". The afpacket provider assembles the same
// filter with golang.org/x/net/bpf and attaches it to the socket, so the
// kernel drops unrelated traffic before it reaches user space.
package transport
