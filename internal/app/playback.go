package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tphakala/voicenote-go/internal/notestore"
	"github.com/tphakala/voicenote-go/internal/player"
)

// PlayNote plays one stored note to completion, printing transport position
// while it runs. Returns when playback finishes or ctx is cancelled.
func (a *App) PlayNote(ctx context.Context, id string, output io.Writer) error {
	note, err := a.Store.Get(ctx, id)
	if err != nil {
		return err
	}

	p := player.New(a.Device, a.Resolver, a.Notifier, a.PlayerMetrics, note)
	defer p.Unload()

	if err := p.PlayPause(ctx); err != nil {
		return err
	}

	fmt.Fprintf(output, "Playing %q (%s)\n", note.Title, notestore.FormatDuration(note.DurationSeconds))

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			state := p.State()
			fmt.Fprintf(output, "\r  %s / %s",
				notestore.FormatDuration(int(p.Position())),
				notestore.FormatDuration(int(p.Duration())))
			// The player returns to ready at position zero once playback
			// reaches its natural end
			if state == player.StateReady && p.Position() == 0 {
				fmt.Fprintln(output)
				return nil
			}
			if state == player.StateIdle {
				fmt.Fprintln(output)
				return nil
			}
		}
	}
}

// DeleteNote removes one note from the store. The removed flag reports
// whether the note existed.
func (a *App) DeleteNote(ctx context.Context, id string) (bool, error) {
	return a.Store.Delete(ctx, id)
}
