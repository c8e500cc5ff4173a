package ocrcompare

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/evany413/OCR-compare/metadata"
)

var searchCmd = &cobra.Command{
	Use:  "search query",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, err := LoadConfig()
		cobra.CheckErr(err)

		dbPath := config.Database.Path
		if v, _ := cmd.Flags().GetString("db"); v != "" {
			dbPath = v
		}
		if dbPath == "" {
			dbPath = metadata.DefaultDatabasePath
		}

		db, err := metadata.OpenDatabase(dbPath)
		cobra.CheckErr(err)
		defer db.Close()

		results, err := db.Search(cmd.Context(), args[0])
		cobra.CheckErr(err)
		if len(results) == 0 {
			results = []metadata.SearchResult{}
		}
		o, _ := json.MarshalIndent(results, "", "  ")
		cmd.Println(string(o))
	},
}

func init() {
	searchCmd.Flags().String("db", "", "path to the results database")

	rootCmd.AddCommand(searchCmd)
}
