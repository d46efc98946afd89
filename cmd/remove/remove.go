package remove

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/voicenote-go/internal/app"
	"github.com/tphakala/voicenote-go/internal/conf"
)

// Command creates the delete command for removing a stored voice note.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [note-id]",
		Short: "Delete a stored voice note",
		Long:  "Remove a voice note from the store, releasing its playable handles and audio clip.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(settings)
			if err != nil {
				return err
			}
			defer application.Close()

			removed, err := application.DeleteNote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "No note with ID %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %s\n", args[0])
			return nil
		},
	}

	return cmd
}
