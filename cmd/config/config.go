package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/voicenote-go/internal/conf"
)

// Command creates the config command for viewing and persisting settings.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and change application settings",
	}

	cmd.AddCommand(showCommand(settings), setCommand(settings))

	return cmd
}

func showCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			quality := "reduced"
			if settings.Audio.HighQuality {
				quality = "high"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "quality:       %s\n", quality)
			fmt.Fprintf(out, "source:        %s\n", settings.Audio.Source)
			fmt.Fprintf(out, "export path:   %s\n", settings.Audio.Export.Path)
			fmt.Fprintf(out, "embed payload: %t\n", settings.Audio.EmbedPayload)
			fmt.Fprintf(out, "database:      %s\n", settings.Storage.SQLite.Path)
			return nil
		},
	}
}

func setCommand(settings *conf.Settings) *cobra.Command {
	var (
		highQuality  bool
		source       string
		embedPayload bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings and write them to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("high-quality") {
				settings.Audio.HighQuality = highQuality
			}
			if cmd.Flags().Changed("source") {
				settings.Audio.Source = source
			}
			if cmd.Flags().Changed("embed-payload") {
				settings.Audio.EmbedPayload = embedPayload
			}

			if err := conf.Save(settings); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings saved")
			return nil
		},
	}

	cmd.Flags().BoolVar(&highQuality, "high-quality", true, "Use the high quality capture preset")
	cmd.Flags().StringVar(&source, "source", "", "Audio capture device name or ID")
	cmd.Flags().BoolVar(&embedPayload, "embed-payload", false, "Embed audio bytes in the database instead of keeping clip files")

	return cmd
}
