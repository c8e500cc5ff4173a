package ocrcompare

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineConfigFromFlags(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{}
	addPipelineFlags(cmd)

	require.NoError(t, cmd.Flags().Set("engine", "tesseract,paddle"))
	require.NoError(t, cmd.Flags().Set("languages", "eng,chi_sim"))
	require.NoError(t, cmd.Flags().Set("ffmpeg-path", "/opt/ffmpeg/bin/ffmpeg"))
	require.NoError(t, cmd.Flags().Set("gap", "10"))
	require.NoError(t, cmd.Flags().Set("min-confidence", "0.9"))
	require.NoError(t, cmd.Flags().Set("convert", "s2t"))
	require.NoError(t, cmd.Flags().Set("db", "results.db"))
	require.NoError(t, cmd.Flags().Set("debug", "true"))

	cfg, err := pipelineConfigFromFlags(cmd)
	require.NoError(t, err)

	assert.Equal(t, []string{"tesseract", "paddle"}, cfg.Engines)
	assert.Equal(t, []string{"eng", "chi_sim"}, cfg.Languages)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, 10.0, cfg.GapSeconds)
	assert.Equal(t, 0.9, cfg.MinConfidence)
	assert.Equal(t, "s2t", cfg.Conversion)
	assert.Equal(t, "results.db", cfg.DatabasePath)
	assert.True(t, cfg.Debug)
}

func TestBatchFlags(t *testing.T) {
	assert.NotNil(t, batchCmd.Flags().Lookup("keywords"))
	assert.NotNil(t, batchCmd.Flags().Lookup("route-dir"))
	assert.NotNil(t, runCmd.Flags().Lookup("languages"))
	assert.NotNil(t, runCmd.Flags().Lookup("ffmpeg-path"))
}
