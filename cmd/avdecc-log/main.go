// Command avdecc-log is a tool for viewing and analyzing AVDECC protocol
// trace files.
//
// Trace files are written by the protocol interface when avdecc-controller
// runs with the -protocol-log flag.
//
// Usage:
//
//	avdecc-log <command> [flags] <file.alog>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSON or CSV format
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	avdecc-log view controller.alog
//
//	# View only AECP messages about one entity
//	avdecc-log view --protocol aecp --entity-id 0x001B92FFFE000001 controller.alog
//
//	# View only engine statistics (retries, timeouts, response times)
//	avdecc-log view --category statistic controller.alog
//
//	# Export to CSV
//	avdecc-log export --format csv -o trace.csv controller.alog
//
//	# Filter a time window and save to new file
//	avdecc-log filter --time-start 2026-01-02T10:00:00Z -o window.alog controller.alog
//
//	# Show statistics
//	avdecc-log stats controller.alog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/avb-tools/avdecc-go/cmd/avdecc-log/commands"
)

const usage = `avdecc-log - AVDECC Protocol Trace Analyzer

Usage:
  avdecc-log <command> [flags] <file.alog>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSON or CSV format
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file

Use "avdecc-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "view":
		err = runView(args)
	case "export":
		err = runExport(args)
	case "filter":
		err = runFilter(args)
	case "stats":
		err = runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newFlagSet(name, summary, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "avdecc-log %s - %s\n\nUsage:\n  avdecc-log %s\n\nFlags:\n", name, summary, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// logPath returns the single positional trace file argument.
func logPath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) error {
	fs := newFlagSet("view", "View trace file in human-readable format", "view [flags] <file.alog>")

	layer := fs.String("layer", "", "Filter by layer (transport, wire, engine)")
	direction := fs.String("direction", "", "Filter by direction (in, out, internal)")
	category := fs.String("category", "", "Filter by category (message, state, error, statistic)")
	protocol := fs.String("protocol", "", "Filter by protocol (adp, aecp, acmp)")
	entityID := fs.String("entity-id", "", "Filter by entity ID")

	if err := fs.Parse(args); err != nil {
		return err
	}
	path := logPath(fs)

	var filter commands.ViewFilter
	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			return err
		}
		filter.Layer = &l
	}
	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			return err
		}
		filter.Direction = &d
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			return err
		}
		filter.Category = &c
	}
	if *protocol != "" {
		st, err := commands.ParseSubtypeFlag(*protocol)
		if err != nil {
			return err
		}
		filter.Subtype = &st
	}
	if *entityID != "" {
		id, err := commands.ParseEntityFlag(*entityID)
		if err != nil {
			return err
		}
		filter.EntityID = id
	}

	return commands.RunView(path, filter, os.Stdout)
}

func runExport(args []string) error {
	fs := newFlagSet("export", "Export trace file to JSON or CSV format", "export [flags] <file.alog>")

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	return commands.RunExport(logPath(fs), *format, *output)
}

func runFilter(args []string) error {
	fs := newFlagSet("filter", "Filter trace file and write to new file", "filter [flags] <file.alog>")

	output := fs.String("o", "", "Output file (required)")
	sessionID := fs.String("session-id", "", "Filter by session ID")
	entityID := fs.String("entity-id", "", "Filter by entity ID")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, engine)")
	direction := fs.String("direction", "", "Filter by direction (in, out, internal)")
	category := fs.String("category", "", "Filter by category (message, state, error, statistic)")
	protocol := fs.String("protocol", "", "Filter by protocol (adp, aecp, acmp)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	path := logPath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		SessionID: *sessionID,
		EntityID:  *entityID,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Layer:     *layer,
		Direction: *direction,
		Category:  *category,
		Protocol:  *protocol,
	}
	return commands.RunFilter(path, opts, os.Stdout)
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `avdecc-log stats - Show statistics about the trace file

Usage:
  avdecc-log stats <file.alog>

`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	return commands.RunStats(logPath(fs), os.Stdout)
}
