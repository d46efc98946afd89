package list

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tphakala/voicenote-go/internal/app"
	"github.com/tphakala/voicenote-go/internal/conf"
	"github.com/tphakala/voicenote-go/internal/mediaref"
	"github.com/tphakala/voicenote-go/internal/notestore"
)

// Command creates the list command for printing the stored voice notes.
func Command(settings *conf.Settings) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored voice notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(settings)
			if err != nil {
				return err
			}
			defer application.Close()

			var notes []notestore.Note
			if search != "" {
				notes, err = application.Store.Search(cmd.Context(), search)
			} else {
				notes, err = application.Store.Load(cmd.Context())
			}
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Title", "Created", "Duration", "Audio"})
			for _, note := range notes {
				audio := "payload"
				if note.Audio().Kind == mediaref.KindFilePath {
					audio = "file"
				}
				t.AppendRow(table.Row{
					note.ID,
					note.Title,
					note.CreatedAt.Format("2006-01-02 15:04"),
					notestore.FormatDuration(note.DurationSeconds),
					audio,
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only list notes whose title contains this text")

	return cmd
}
