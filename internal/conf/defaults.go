// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "VoiceNote-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "voicenote.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", "Sunday")

	viper.SetDefault("audio.source", "")
	viper.SetDefault("audio.highquality", true)
	viper.SetDefault("audio.export.path", "clips/")
	viper.SetDefault("audio.embedpayload", false)

	viper.SetDefault("storage.sqlite.enabled", true)
	viper.SetDefault("storage.sqlite.path", "voicenote.db")

	viper.SetDefault("account.sessionpath", "session.yaml")
}
