package conf

import "github.com/spf13/viper"

// setDefaultConfig populates viper with every setting's default value before
// the config file is read, so a freshly-created config.yaml and an
// already-existing-but-partial one both resolve to a complete Settings.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.directory", "logs")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")

	viper.SetDefault("http.listenaddress", ":8080")
	viper.SetDefault("http.metricspath", "/metrics")

	viper.SetDefault("store.path", "backline.db")

	viper.SetDefault("audio.preferredoutputdevice", "")
	viper.SetDefault("audio.buffersizeframes", DefaultBufferSizeFrames)
	viper.SetDefault("audio.sampleratehz", DefaultCanonicalSampleRate)
	viper.SetDefault("audio.theme", "dark")
	viper.SetDefault("audio.cachebytebudget", 0)

	viper.SetDefault("import.watchdirectory", "")

	viper.SetDefault("workers.decodepoolsize", 4)
}
