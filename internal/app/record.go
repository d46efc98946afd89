package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/voicenote-go/internal/conf"
	"github.com/tphakala/voicenote-go/internal/notestore"
	"github.com/tphakala/voicenote-go/internal/player"
)

// RunRecording captures a new voice note and saves it to the store. Recording
// runs until input delivers a line (Enter), ctx is cancelled, or maxDuration
// elapses when non-zero. A non-empty title overrides the generated one. The
// saved note is returned.
func (a *App) RunRecording(ctx context.Context, input io.Reader, output io.Writer, title string, maxDuration time.Duration) (notestore.Note, error) {
	recorder := player.NewRecorder(a.Device, a.Resolver, a.Notifier, a.PlayerMetrics)
	preset := conf.PresetFor(a.Settings.Audio.HighQuality)

	if err := recorder.StartRecording(ctx, preset); err != nil {
		return notestore.Note{}, err
	}

	fmt.Fprintln(output, "Recording... press Enter to stop.")

	var recordCtx context.Context
	var stop context.CancelFunc
	if maxDuration > 0 {
		recordCtx, stop = context.WithTimeout(ctx, maxDuration)
	} else {
		recordCtx, stop = context.WithCancel(ctx)
	}
	defer stop()

	g, waitCtx := errgroup.WithContext(recordCtx)

	// Stop on the first line of input
	g.Go(func() error {
		lines := make(chan struct{})
		go func() {
			scanner := bufio.NewScanner(input)
			if scanner.Scan() {
				close(lines)
			}
		}()
		select {
		case <-lines:
			stop()
		case <-waitCtx.Done():
		}
		return nil
	})

	// Live elapsed time display
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-waitCtx.Done():
				return nil
			case <-ticker.C:
				fmt.Fprintf(output, "\r  %s", notestore.FormatDuration(recorder.RecordingDuration()))
			}
		}
	})

	_ = g.Wait()
	fmt.Fprintln(output)

	// Stop against the parent context so cancellation still finalizes the clip
	note, err := recorder.StopRecording(ctx)
	if err != nil {
		return notestore.Note{}, err
	}
	if title != "" {
		note.Title = title
	}

	saved, err := a.Store.Save(ctx, note)
	if err != nil {
		return notestore.Note{}, err
	}

	getLogger().Info("voice note recorded", "note_id", saved.ID, "duration_s", saved.DurationSeconds)
	return saved, nil
}
