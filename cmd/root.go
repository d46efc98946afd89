package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/voicenote-go/cmd/account"
	"github.com/tphakala/voicenote-go/cmd/config"
	"github.com/tphakala/voicenote-go/cmd/devices"
	"github.com/tphakala/voicenote-go/cmd/list"
	"github.com/tphakala/voicenote-go/cmd/play"
	"github.com/tphakala/voicenote-go/cmd/record"
	"github.com/tphakala/voicenote-go/cmd/remove"
	"github.com/tphakala/voicenote-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voicenote",
		Short: "VoiceNote-Go CLI",
		Long:  "Record, manage and play back voice notes from the command line.",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	subcommands := []*cobra.Command{
		record.Command(settings),
		list.Command(settings),
		play.Command(settings),
		remove.Command(settings),
		devices.Command(settings),
		account.Command(settings),
		config.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Audio.Source, "source", viper.GetString("audio.source"), "Audio capture device name or ID, empty for system default")
	rootCmd.PersistentFlags().BoolVar(&settings.Audio.HighQuality, "high-quality", viper.GetBool("audio.highquality"), "Use the high quality capture preset")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
