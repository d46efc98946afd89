package record

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/voicenote-go/internal/app"
	"github.com/tphakala/voicenote-go/internal/conf"
	"github.com/tphakala/voicenote-go/internal/notestore"
)

// Command creates the record command for capturing a new voice note.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		title       string
		maxDuration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a new voice note",
		Long:  "Capture audio from the microphone until Enter is pressed, then save it as a voice note.",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(settings)
			if err != nil {
				return err
			}
			defer application.Close()

			note, err := application.RunRecording(cmd.Context(), os.Stdin, cmd.OutOrStdout(), title, maxDuration)
			if err != nil {
				application.DrainNotifications(cmd.Context(), func(format string, args ...any) {
					fmt.Fprintf(cmd.ErrOrStderr(), format, args...)
				})
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %q (%s) as %s\n",
				note.Title, notestore.FormatDuration(note.DurationSeconds), note.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Title for the new note, default is date based")
	cmd.Flags().DurationVar(&maxDuration, "max-duration", 0, "Stop recording automatically after this duration")

	return cmd
}
