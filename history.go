package main

import (
	"fmt"
	"io"
	"time"

	"github.com/vipnode/taskrpc/internal/pretty"
	"github.com/vipnode/taskrpc/record"
)

func runHistory(options Options, out io.Writer) error {
	store, err := openTranscript(options)
	if err != nil {
		return ErrExplain{err, `Failed to open the transcript. Is another taskrpc process using the same --datadir?`}
	}
	defer store.Close()

	if options.History.Clear {
		if err := store.Clear(); err != nil {
			return err
		}
		logger.Info("Transcript cleared.")
		return nil
	}

	entries, err := store.Entries(options.History.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		logger.Warning("Transcript is empty. Run a command with --record to fill it.")
		return nil
	}
	for _, entry := range entries {
		printEntry(out, entry)
	}
	return nil
}

func printEntry(out io.Writer, entry record.Entry) {
	arrow := "<-"
	if entry.Direction == record.Sent {
		arrow = "->"
	}
	fmt.Fprintf(out, "%5d %s %s %s %s\n",
		entry.Seq,
		entry.Time.Format(time.RFC3339),
		pretty.Abbrev(entry.Label, 32, 31),
		arrow,
		entry.Message,
	)
}
