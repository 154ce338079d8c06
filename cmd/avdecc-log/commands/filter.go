package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/avb-tools/avdecc-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output    string
	SessionID string
	EntityID  string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
	Protocol  string
}

// buildFilter converts command line options into a log.Filter.
func buildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{SessionID: opts.SessionID}

	if opts.EntityID != "" {
		id, err := ParseEntityFlag(opts.EntityID)
		if err != nil {
			return filter, err
		}
		filter.EntityID = id
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	if opts.Layer != "" {
		l, err := ParseLayerFlag(opts.Layer)
		if err != nil {
			return filter, err
		}
		filter.Layer = &l
	}
	if opts.Direction != "" {
		d, err := ParseDirectionFlag(opts.Direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if opts.Category != "" {
		c, err := ParseCategoryFlag(opts.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	if opts.Protocol != "" {
		st, err := ParseSubtypeFlag(opts.Protocol)
		if err != nil {
			return filter, err
		}
		filter.Subtype = &st
	}
	return filter, nil
}

// RunFilter filters the log file and writes matching events to a new
// file. It reports the number of events written to w.
func RunFilter(path string, opts FilterOptions, w io.Writer) error {
	filter, err := buildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}

	count := 0
	for event, err := range reader.Events() {
		if err != nil {
			_ = logger.Close()
			return fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}
	if err := logger.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Output, err)
	}
	if dropped := logger.Dropped(); dropped > 0 {
		return fmt.Errorf("%d events could not be written to %s", dropped, opts.Output)
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, opts.Output)
	return nil
}
