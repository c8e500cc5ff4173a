package ocrcompare

import (
	"encoding/json"

	"github.com/spf13/cobra"

	processor "github.com/evany413/OCR-compare/processors"
)

var batchCmd = &cobra.Command{
	Use:  "batch input_dir",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := pipelineConfigFromFlags(cmd)
		cobra.CheckErr(err)

		if v, _ := cmd.Flags().GetStringSlice("keywords"); len(v) > 0 {
			cfg.Keywords = v
		}
		if v, _ := cmd.Flags().GetString("route-dir"); v != "" {
			cfg.RouteDir = v
		}

		p, err := processor.NewPipeline(*cfg)
		cobra.CheckErr(err)
		defer p.Close()

		results, err := p.ProcessDir(cmd.Context(), args[0])
		cobra.CheckErr(err)
		// Pretty print the results as json
		o, _ := json.MarshalIndent(results, "", "  ")
		cmd.Println(string(o))
	},
}

func init() {
	addPipelineFlags(batchCmd)
	batchCmd.Flags().StringSlice("keywords", nil, "keywords for routing processed videos")
	batchCmd.Flags().String("route-dir", "", "root directory for keyword folders (default: the video's directory)")

	rootCmd.AddCommand(batchCmd)
}
