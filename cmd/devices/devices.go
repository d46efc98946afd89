package devices

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tphakala/voicenote-go/internal/audiocore"
	"github.com/tphakala/voicenote-go/internal/conf"
)

// Command creates the devices command for listing audio capture devices.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := audiocore.ListCaptureDevices(settings.Debug)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "Name", "ID", "Default"})
			for _, info := range infos {
				def := ""
				if info.IsDefault {
					def = "yes"
				}
				t.AppendRow(table.Row{info.Index, info.Name, info.ID, def})
			}
			t.Render()
			return nil
		},
	}

	return cmd
}
