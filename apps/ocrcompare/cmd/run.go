package ocrcompare

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/evany413/OCR-compare/metadata"
	processor "github.com/evany413/OCR-compare/processors"
)

var runCmd = &cobra.Command{
	Use:  "run input_file",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := pipelineConfigFromFlags(cmd)
		cobra.CheckErr(err)

		p, err := processor.NewPipeline(*cfg)
		cobra.CheckErr(err)
		defer p.Close()

		result, err := p.ProcessFile(cmd.Context(), args[0])
		cobra.CheckErr(err)
		// Pretty print the result as json
		o, _ := json.MarshalIndent(result, "", "  ")
		cmd.Println(string(o))
	},
}

func init() {
	addPipelineFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("engine", nil, "OCR engines to run (tesseract, paddle)")
	cmd.Flags().StringSlice("languages", nil, "tesseract languages (e.g. eng, chi_sim)")
	cmd.Flags().String("paddle-url", "", "PaddleOCR serving endpoint")
	cmd.Flags().String("ffmpeg-path", "", "path to the ffmpeg binary (default: look up on PATH)")
	cmd.Flags().Float64("gap", 0, "seconds between extracted frames")
	cmd.Flags().Float64("min-confidence", 0, "confidence threshold for recognized text")
	cmd.Flags().String("convert", "", "OpenCC conversion to apply (e.g. s2t, t2s)")
	cmd.Flags().String("output-dir", "", "directory for result files (default: next to the video)")
	cmd.Flags().String("db", "", "path to the results database")
	cmd.Flags().Bool("debug", false, "keep extracted frames after processing")
}

func pipelineConfigFromFlags(cmd *cobra.Command) (*processor.PipelineConfig, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	cfg := processor.PipelineConfig{
		Engines:       config.Pipeline.Engines,
		Languages:     config.Pipeline.Languages,
		PaddleURL:     config.Pipeline.PaddleURL,
		FFmpegPath:    config.Pipeline.FFmpegPath,
		GapSeconds:    config.Pipeline.GapSeconds,
		MinConfidence: config.Pipeline.MinConfidence,
		Conversion:    config.Pipeline.Conversion,
		Keywords:      config.Pipeline.Keywords,
		RouteDir:      config.Pipeline.RouteDir,
		OutputDir:     config.Pipeline.OutputDir,
		DatabasePath:  config.Database.Path,
		Debug:         config.Pipeline.Debug,
	}

	if v, _ := cmd.Flags().GetStringSlice("engine"); len(v) > 0 {
		cfg.Engines = v
	}
	if v, _ := cmd.Flags().GetStringSlice("languages"); len(v) > 0 {
		cfg.Languages = v
	}
	if v, _ := cmd.Flags().GetString("paddle-url"); v != "" {
		cfg.PaddleURL = v
	}
	if v, _ := cmd.Flags().GetString("ffmpeg-path"); v != "" {
		cfg.FFmpegPath = v
	}
	if v, _ := cmd.Flags().GetFloat64("gap"); v > 0 {
		cfg.GapSeconds = v
	}
	if v, _ := cmd.Flags().GetFloat64("min-confidence"); v > 0 {
		cfg.MinConfidence = v
	}
	if v, _ := cmd.Flags().GetString("convert"); v != "" {
		cfg.Conversion = v
	}
	if v, _ := cmd.Flags().GetString("output-dir"); v != "" {
		cfg.OutputDir = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DatabasePath = v
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = metadata.DefaultDatabasePath
	}
	if v, _ := cmd.Flags().GetBool("debug"); v {
		cfg.Debug = true
	}

	return &cfg, nil
}
