package play

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/voicenote-go/internal/app"
	"github.com/tphakala/voicenote-go/internal/conf"
)

// Command creates the play command for playing back one stored voice note.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [note-id]",
		Short: "Play a stored voice note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(settings)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.PlayNote(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}

	return cmd
}
