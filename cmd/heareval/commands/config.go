package commands

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Workdir  string         `mapstructure:"workdir"`
	Workers  int            `mapstructure:"workers"`
	Format   string         `mapstructure:"format"`
	Output   string         `mapstructure:"output"`
	ValidPct int            `mapstructure:"valid_pct"`
	TestPct  int            `mapstructure:"test_pct"`
	Corpus   CorpusConfig   `mapstructure:"corpus"`
	Download DownloadConfig `mapstructure:"download"`
	Embed    EmbedConfig    `mapstructure:"embed"`
}

type CorpusConfig struct {
	Name         string   `mapstructure:"name"`
	Version      string   `mapstructure:"version"`
	URL          string   `mapstructure:"url"`
	URLs         []string `mapstructure:"urls"`
	Outfile      string   `mapstructure:"outfile"`
	ManifestFile string   `mapstructure:"manifest_file"`
}

type DownloadConfig struct {
	MaxRetries    int     `mapstructure:"max_retries"`
	BackoffMillis int     `mapstructure:"backoff_millis"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

type EmbedConfig struct {
	HopSize       int    `mapstructure:"hop_size"`
	CacheDir      string `mapstructure:"cache_dir"`
	CacheTTLHours int    `mapstructure:"cache_ttl_hours"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".heareval")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
