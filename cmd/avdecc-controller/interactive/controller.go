// Package interactive provides the interactive command-line interface
// for the AVDECC controller.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/avb-tools/avdecc-go/pkg/acmp"
	"github.com/avb-tools/avdecc-go/pkg/aecp"
	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/protocol"
	"github.com/avb-tools/avdecc-go/pkg/status"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

// Controller handles interactive mode for avdecc-controller.
type Controller struct {
	pi           *protocol.Interface
	controllerID uid.ID
	timeout      time.Duration
	rl           *readline.Instance
	out          io.Writer
}

// New creates the interactive shell. timeout bounds how long a command
// waits for its result.
func New(timeout time.Duration) (*Controller, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "avdecc> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Controller{timeout: timeout, rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
func (c *Controller) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that coordinates with the readline prompt. Use
// it for log output.
func (c *Controller) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Close releases the terminal.
func (c *Controller) Close() error {
	return c.rl.Close()
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("list"),
	readline.PcItem("discover"),
	readline.PcItem("acquire"),
	readline.PcItem("release"),
	readline.PcItem("lock"),
	readline.PcItem("unlock"),
	readline.PcItem("identify", readline.PcItem("on"), readline.PcItem("off")),
	readline.PcItem("connect"),
	readline.PcItem("disconnect"),
	readline.PcItem("rxstate"),
	readline.PcItem("txstate"),
	readline.PcItem("connections"),
	readline.PcItem("milan"),
	readline.PcItem("forget"),
	readline.PcItem("quit"),
)

// Run starts the interactive command loop for controller entity
// controllerID registered on pi.
func (c *Controller) Run(ctx context.Context, cancel context.CancelFunc, pi *protocol.Interface, controllerID uid.ID) {
	c.pi = pi
	c.controllerID = controllerID

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if !c.Execute(ctx, input) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns false when the shell should
// exit.
func (c *Controller) Execute(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		c.printHelp()
	case "list", "ls":
		c.cmdList()
	case "discover":
		err = c.cmdDiscover(args)
	case "acquire":
		err = c.cmdAcquire(ctx, args, false)
	case "release":
		err = c.cmdAcquire(ctx, args, true)
	case "lock":
		err = c.cmdLock(ctx, args, false)
	case "unlock":
		err = c.cmdLock(ctx, args, true)
	case "identify":
		err = c.cmdIdentify(ctx, args)
	case "connect":
		err = c.cmdConnect(ctx, args, true)
	case "disconnect":
		err = c.cmdConnect(ctx, args, false)
	case "rxstate":
		err = c.cmdRxState(ctx, args)
	case "txstate":
		err = c.cmdTxState(ctx, args)
	case "connections":
		c.cmdConnections()
	case "milan":
		err = c.cmdMilan(ctx, args)
	case "forget":
		err = c.cmdForget(args)
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
	return true
}

func (c *Controller) printHelp() {
	fmt.Fprintln(c.out, `
AVDECC Controller Commands:
  Discovery:
    list                                   - List discovered entities
    discover [entity-id]                   - Send ENTITY_DISCOVER
    forget <entity-id>                     - Drop an entity until it advertises again

  Enumeration & Control:
    acquire <entity-id>                    - Acquire an entity
    release <entity-id>                    - Release an acquired entity
    lock <entity-id>                       - Lock an entity
    unlock <entity-id>                     - Unlock an entity
    identify <entity-id> on|off            - Toggle identification
    milan <entity-id>                      - Query Milan information

  Connection Management:
    connect <talker> <index> <listener> <index>    - Connect a stream
    disconnect <talker> <index> <listener> <index> - Disconnect a stream
    rxstate <listener> <index>             - Query a listener stream
    txstate <talker> <index>               - Query a talker stream
    connections                            - Show tracked listener states

  General:
    help                                   - Show this help
    quit                                   - Exit controller

  Entity IDs are hex, e.g. 0x001b92fffe01b930`)
}

func (c *Controller) cmdList() {
	entities := c.pi.DiscoveredEntities()
	if len(entities) == 0 {
		fmt.Fprintln(c.out, "No entities discovered")
		return
	}
	slices.SortFunc(entities, func(a, b entity.Entity) int {
		return cmpID(a.ID(), b.ID())
	})

	fmt.Fprintf(c.out, "\nDiscovered Entities (%d):\n", len(entities))
	fmt.Fprintln(c.out, "-------------------------------------------")
	for _, e := range entities {
		fmt.Fprintf(c.out, "  ID: %s\n", e.ID())
		fmt.Fprintf(c.out, "      Model: %s\n", e.Common.EntityModelID)
		fmt.Fprintf(c.out, "      Role: %s\n", roles(e.Common))
		for _, info := range e.Interfaces {
			fmt.Fprintf(c.out, "      Interface %d: %s (available index %d)\n",
				info.InterfaceIndex, info.MacAddress, info.AvailableIndex)
		}
	}
}

func (c *Controller) cmdDiscover(args []string) error {
	if len(args) == 0 {
		if err := c.pi.DiscoverRemoteEntities(); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Discovery sent")
		return nil
	}
	id, err := parseEntityID(args[0])
	if err != nil {
		return err
	}
	if err := c.pi.DiscoverRemoteEntity(id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Discovery sent to %s\n", id)
	return nil
}

func (c *Controller) cmdForget(args []string) error {
	id, err := entityArg(args)
	if err != nil {
		return err
	}
	if err := c.pi.ForgetRemoteEntity(id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Forgot %s\n", id)
	return nil
}

func (c *Controller) cmdAcquire(ctx context.Context, args []string, release bool) error {
	id, err := entityArg(args)
	if err != nil {
		return err
	}
	cmd := aecp.AcquireEntity(c.controllerID, id, 0, wire.DescriptorEntity, 0)
	if release {
		cmd = aecp.ReleaseEntity(c.controllerID, id)
	}
	return c.ownership(ctx, cmd)
}

func (c *Controller) cmdLock(ctx context.Context, args []string, unlock bool) error {
	id, err := entityArg(args)
	if err != nil {
		return err
	}
	cmd := aecp.LockEntity(c.controllerID, id, 0, wire.DescriptorEntity, 0)
	if unlock {
		cmd = aecp.UnlockEntity(c.controllerID, id)
	}
	return c.ownership(ctx, cmd)
}

// ownership sends an ACQUIRE_ENTITY or LOCK_ENTITY command and prints the
// owning controller.
func (c *Controller) ownership(ctx context.Context, cmd *wire.AemAecpdu) error {
	resp, st := c.aem(ctx, cmd)
	fmt.Fprintf(c.out, "%s: %s\n", cmd.CommandType, st)

	aem, ok := resp.(*wire.AemAecpdu)
	if !ok || aem == nil {
		return nil
	}
	if info, err := aecp.ParseOwnership(aem); err == nil && info.Owner.IsValid() {
		fmt.Fprintf(c.out, "  Owner: %s\n", info.Owner)
	}
	return nil
}

func (c *Controller) cmdIdentify(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: identify <entity-id> on|off")
	}
	id, err := parseEntityID(args[0])
	if err != nil {
		return err
	}
	on, err := parseOnOff(args[1])
	if err != nil {
		return err
	}

	e, ok := c.pi.DiscoveredEntity(id)
	if !ok {
		return fmt.Errorf("%w: %s", status.ErrUnknownRemoteEntity, id)
	}
	if e.Common.IdentifyControlIndex == nil {
		return fmt.Errorf("entity %s does not advertise an identify control", id)
	}

	_, st := c.aem(ctx, aecp.Identify(c.controllerID, id, *e.Common.IdentifyControlIndex, on))
	fmt.Fprintf(c.out, "SET_CONTROL: %s\n", st)
	return nil
}

func (c *Controller) cmdMilan(ctx context.Context, args []string) error {
	id, err := entityArg(args)
	if err != nil {
		return err
	}
	resp, err := c.await(ctx, func(done aecp.ResultHandler) error {
		return c.pi.SendAecpCommand(aecp.GetMilanInfo(c.controllerID, id), done)
	})
	st := status.MvuStatusFromResult(resp, err)
	if st != status.MvuSuccess {
		fmt.Fprintf(c.out, "GET_MILAN_INFO: %s\n", st)
		return nil
	}
	mvu, ok := resp.(*wire.MvuAecpdu)
	if !ok {
		return fmt.Errorf("unexpected response %T", resp)
	}
	info, err := aecp.ParseMilanInfo(mvu)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Milan: %s\n", info)
	return nil
}

func (c *Controller) cmdConnect(ctx context.Context, args []string, connect bool) error {
	talker, listener, err := parseStreamPair(args)
	if err != nil {
		return err
	}
	cmd := acmp.DisconnectStream(c.controllerID, talker, listener)
	if connect {
		cmd = acmp.ConnectStream(c.controllerID, talker, listener, wire.ConnectionFlags{})
	}
	resp, st := c.acmpCommand(ctx, cmd)
	fmt.Fprintf(c.out, "%s: %s\n", cmd.MessageType, st)
	if resp != nil && st == status.ControlSuccess {
		c.printStream(resp)
	}
	return nil
}

func (c *Controller) cmdRxState(ctx context.Context, args []string) error {
	listener, err := parseStream(args)
	if err != nil {
		return err
	}
	resp, st := c.acmpCommand(ctx, acmp.GetListenerStreamState(c.controllerID, listener))
	fmt.Fprintf(c.out, "GET_RX_STATE: %s\n", st)
	if resp != nil && st == status.ControlSuccess {
		c.printStream(resp)
	}
	return nil
}

func (c *Controller) cmdTxState(ctx context.Context, args []string) error {
	talker, err := parseStream(args)
	if err != nil {
		return err
	}
	resp, st := c.acmpCommand(ctx, acmp.GetTalkerStreamState(c.controllerID, talker))
	fmt.Fprintf(c.out, "GET_TX_STATE: %s\n", st)
	if resp != nil && st == status.ControlSuccess {
		fmt.Fprintf(c.out, "  Stream ID: %s\n", resp.StreamID)
		fmt.Fprintf(c.out, "  Destination: %s (VLAN %d)\n", resp.StreamDestAddress, resp.StreamVlanID)
		fmt.Fprintf(c.out, "  Listeners: %d\n", resp.ConnectionCount)
	}
	return nil
}

func (c *Controller) cmdConnections() {
	states := c.pi.ListenerConnectionStates()
	if len(states) == 0 {
		fmt.Fprintln(c.out, "No connected listener streams")
		return
	}
	listeners := make([]entity.StreamIdentification, 0, len(states))
	for l := range states {
		listeners = append(listeners, l)
	}
	slices.SortFunc(listeners, func(a, b entity.StreamIdentification) int {
		if n := cmpID(a.EntityID, b.EntityID); n != 0 {
			return n
		}
		return int(a.StreamIndex) - int(b.StreamIndex)
	})
	for _, l := range listeners {
		fmt.Fprintf(c.out, "  %s: %s\n", l, states[l])
	}
}

func (c *Controller) printStream(resp *wire.Acmpdu) {
	fmt.Fprintf(c.out, "  Talker: %s\n", acmp.Talker(resp))
	fmt.Fprintf(c.out, "  Listener: %s\n", acmp.Listener(resp))
	fmt.Fprintf(c.out, "  Connections: %d\n", resp.ConnectionCount)
	if !resp.Flags.Empty() {
		fmt.Fprintf(c.out, "  Flags: %s\n", resp.Flags)
	}
}

// aem sends an AEM command and waits for its status.
func (c *Controller) aem(ctx context.Context, cmd *wire.AemAecpdu) (wire.Aecpdu, status.AemCommandStatus) {
	resp, err := c.await(ctx, func(done aecp.ResultHandler) error {
		return c.pi.SendAecpCommand(cmd, done)
	})
	return resp, status.AemStatusFromResult(resp, err)
}

// await sends an AECP command through send and blocks until its result,
// the command timeout or ctx cancellation.
func (c *Controller) await(ctx context.Context, send func(aecp.ResultHandler) error) (wire.Aecpdu, error) {
	type result struct {
		resp wire.Aecpdu
		err  error
	}
	done := make(chan result, 1)
	if err := send(func(resp wire.Aecpdu, err error) {
		done <- result{resp, err}
	}); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", status.ErrTimeout, ctx.Err())
	}
}

// acmpCommand sends an ACMP command and waits for its status.
func (c *Controller) acmpCommand(ctx context.Context, cmd *wire.Acmpdu) (*wire.Acmpdu, status.ControlStatus) {
	type result struct {
		resp *wire.Acmpdu
		err  error
	}
	done := make(chan result, 1)
	if err := c.pi.SendAcmpCommand(cmd, func(resp *wire.Acmpdu, err error) {
		done <- result{resp, err}
	}); err != nil {
		return nil, status.ControlStatusFromResult(nil, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case r := <-done:
		return r.resp, status.ControlStatusFromResult(r.resp, r.err)
	case <-ctx.Done():
		return nil, status.ControlStatusFromResult(nil, status.ErrTimeout)
	}
}
