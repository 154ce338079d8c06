package transport

import (
	"golang.org/x/net/bpf"

	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// PcapFilter is the libpcap expression selecting AVDECC frames.
const PcapFilter = "ether proto 0x22f0 or (vlan and ether proto 0x22f0)"

const etherTypeVlan = 0x8100

// avdeccFilter accepts untagged and single-tagged 0x22F0 frames and returns
// at most snapLen bytes of them.
func avdeccFilter(snapLen uint32) []bpf.Instruction {
	return []bpf.Instruction{
		bpf.LoadAbsolute{Off: 12, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(wire.EtherType), SkipTrue: 3},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: etherTypeVlan, SkipFalse: 3},
		bpf.LoadAbsolute{Off: 16, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(wire.EtherType), SkipFalse: 1},
		bpf.RetConstant{Val: snapLen},
		bpf.RetConstant{Val: 0},
	}
}

// AssembleFilter returns the kernel form of the AVDECC frame filter.
func AssembleFilter(snapLen uint32) ([]bpf.RawInstruction, error) {
	return bpf.Assemble(avdeccFilter(snapLen))
}
