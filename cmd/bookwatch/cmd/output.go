package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	apiclient "github.com/donaldgifford/bookwatch/internal/api/client"
	"github.com/donaldgifford/bookwatch/internal/notify"
	"github.com/donaldgifford/bookwatch/internal/watch"
	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func formatPrice(p float64) string {
	return notify.FormatPrice(p)
}

func printFollowedTable(items []domain.FollowedItem) error {
	return writeFollowedTable(os.Stdout, items)
}

func writeFollowedTable(w io.Writer, items []domain.FollowedItem) error {
	tw := newTabWriter(w)
	tw.writef("BOOK ID\tTITLE\tAUTHOR\tPRICE\n")
	for i := range items {
		tw.writef("%s\t%s\t%s\t%s\n",
			items[i].ID,
			truncate(items[i].Title, 40),
			truncate(items[i].Author, 24),
			formatPrice(items[i].Price),
		)
	}
	return tw.finish()
}

func printFeedTable(entries []apiclient.FeedEntry) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("\tOBSERVED\tBOOK ID\tTITLE\tOLD\tNEW\n")
	for i := range entries {
		e := &entries[i]
		marker := ""
		if e.Recent {
			marker = "*"
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			marker,
			e.ObservedAt.Local().Format(timeLayout),
			e.ItemID,
			truncate(e.Title, 40),
			formatPrice(e.OldPrice),
			formatPrice(e.NewPrice),
		)
	}
	return tw.finish()
}

func printEntriesTable(entries []notify.Entry) error {
	return writeEntriesTable(os.Stdout, entries)
}

func writeEntriesTable(w io.Writer, entries []notify.Entry) error {
	tw := newTabWriter(w)
	tw.writef("OBSERVED\tBOOK ID\tMESSAGE\n")
	for i := range entries {
		tw.writef("%s\t%s\t%s\n",
			entries[i].ObservedAt.Local().Format(timeLayout),
			entries[i].ItemID,
			entries[i].Message,
		)
	}
	return tw.finish()
}

func printSessionDetail(st *watch.Status) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("User:\t%s\n", st.UID)
	tw.writef("Active:\t%v\n", st.Active)
	tw.writef("Tracked prices:\t%d\n", st.LedgerSize)
	tw.writef("Snapshots:\t%d\n", st.Snapshots)
	tw.writef("Changes:\t%d\n", st.Events)
	if !st.LastSnapshot.IsZero() {
		tw.writef("Last snapshot:\t%s\n", st.LastSnapshot.Local().Format(timeLayout))
	}
	if st.Error != "" {
		tw.writef("Error:\t%s\n", st.Error)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
