package ocrcompare

import "github.com/spf13/viper"

type PipelineSettings struct {
	Engines       []string `mapstructure:"engines"`
	Languages     []string `mapstructure:"languages"`
	PaddleURL     string   `mapstructure:"paddle_url"`
	FFmpegPath    string   `mapstructure:"ffmpeg_path"`
	GapSeconds    float64  `mapstructure:"gap_seconds"`
	MinConfidence float64  `mapstructure:"min_confidence"`
	Conversion    string   `mapstructure:"conversion"`
	Keywords      []string `mapstructure:"keywords"`
	RouteDir      string   `mapstructure:"route_dir"`
	OutputDir     string   `mapstructure:"output_dir"`
	Debug         bool     `mapstructure:"debug"`
}

type DatabaseSettings struct {
	Path string `mapstructure:"path"`
}

type Config struct {
	Pipeline PipelineSettings `mapstructure:"pipeline"`
	Database DatabaseSettings `mapstructure:"database"`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}
