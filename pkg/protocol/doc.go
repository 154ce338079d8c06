// Package protocol multiplexes one network interface among the ADP, AECP
// and ACMP state machines and the local entities registered on it.
//
// An Interface owns its transport. Frames received by the transport are
// decoded and handed to exactly one state machine; requests from callers
// are encoded and sent through the same transport.
//
// # Threading
//
// State machine mutation happens under a reentrant lock. Notifications and
// command completions are never invoked with the lock held: they are
// queued on the executor and run one at a time, so an observer may call
// back into the Interface.
//
//	pi, err := protocol.New(tr, protocol.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer pi.Shutdown(context.Background())
//
//	sub := pi.Subscribe(myObserver)
//	defer sub.Close()
//
// # Shutdown
//
// Shutdown departs advertised entities, waits for in-flight commands,
// fails whatever is left, drains the executor and closes the transport.
// No callback fires once it has returned.
package protocol
