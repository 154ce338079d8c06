package interactive

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

func parseEntityID(s string) (uid.ID, error) {
	id, err := uid.Parse(s)
	if err != nil {
		return uid.Null, err
	}
	if !id.IsValid() {
		return uid.Null, fmt.Errorf("invalid entity ID: %s", s)
	}
	return id, nil
}

// entityArg parses a command whose only argument is an entity ID.
func entityArg(args []string) (uid.ID, error) {
	if len(args) != 1 {
		return uid.Null, fmt.Errorf("expected one entity ID")
	}
	return parseEntityID(args[0])
}

// parseStream parses "<entity-id> <stream-index>".
func parseStream(args []string) (entity.StreamIdentification, error) {
	if len(args) != 2 {
		return entity.StreamIdentification{}, fmt.Errorf("expected <entity-id> <stream-index>")
	}
	id, err := parseEntityID(args[0])
	if err != nil {
		return entity.StreamIdentification{}, err
	}
	index, err := strconv.ParseUint(args[1], 0, 16)
	if err != nil {
		return entity.StreamIdentification{}, fmt.Errorf("invalid stream index %q: %w", args[1], err)
	}
	return entity.StreamIdentification{EntityID: id, StreamIndex: uint16(index)}, nil
}

// parseStreamPair parses "<talker> <index> <listener> <index>".
func parseStreamPair(args []string) (talker, listener entity.StreamIdentification, err error) {
	if len(args) != 4 {
		return talker, listener, fmt.Errorf("expected <talker> <index> <listener> <index>")
	}
	if talker, err = parseStream(args[:2]); err != nil {
		return talker, listener, err
	}
	listener, err = parseStream(args[2:])
	return talker, listener, err
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func cmpID(a, b uid.ID) int {
	return cmp.Compare(a.Value(), b.Value())
}

// roles describes the advertised entity roles.
func roles(c entity.CommonInformation) string {
	var r []string
	if c.TalkerCapabilities.Test(wire.TalkerCapabilityImplemented) {
		r = append(r, fmt.Sprintf("talker (%d sources)", c.TalkerStreamSources))
	}
	if c.ListenerCapabilities.Test(wire.ListenerCapabilityImplemented) {
		r = append(r, fmt.Sprintf("listener (%d sinks)", c.ListenerStreamSinks))
	}
	if c.ControllerCapabilities.Test(wire.ControllerCapabilityImplemented) {
		r = append(r, "controller")
	}
	if len(r) == 0 {
		return "none"
	}
	return strings.Join(r, ", ")
}
