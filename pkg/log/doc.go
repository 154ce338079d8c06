// Package log provides structured protocol tracing for AVDECC.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at three layers (transport, wire, engine). It is
// separate from operational logging (slog): a protocol trace is a complete
// machine-readable record of what crossed the wire and how the state
// machines reacted.
//
// # Basic Usage
//
// Applications configure tracing by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/avdecc/controller.alog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: Raw Ethernet frames (FrameEvent)
//   - Wire: Decoded ADP, AECP and ACMP messages (PduEvent)
//   - Engine: Entity, advertising and connection state changes
//     (StateChangeEvent) and command statistics (StatisticEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with the .alog extension.
// The avdecc-log CLI tool provides viewing, filtering, and export.
package log
