package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// FormatDuration renders d as [hh:]mm:ss, dropping the hour field when zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	s := total % 60
	total /= 60
	m := total % 60
	h := total / 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// WriteTimerTable prints timers as an aligned id/description/duration table.
// Active timers show their live progress.
func WriteTimerTable(w io.Writer, timers []Timer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDESCRIPTION\tDURATION\tSTATUS")
	for _, t := range timers {
		elapsed := t.Progress
		if !t.IsActive && t.Duration != nil {
			elapsed = *t.Duration
		}
		status := "stopped"
		if t.IsActive {
			status = "active"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Description, FormatDuration(time.Duration(elapsed)*time.Millisecond), status)
	}
	return tw.Flush()
}
