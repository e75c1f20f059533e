package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avredact/compositor"
	"github.com/xaionaro-go/avredact/config"
)

func newTestFlagSet() (*pflag.FlagSet, *configFlags) {
	fs := pflag.NewFlagSet("avredact", pflag.ContinueOnError)
	return fs, addConfigFlags(fs)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
blur_radius: 15
feather_radius: 7
batch_size: 4
mode: colored-mask
`), 0o644))

	t.Run("no-file-no-flags", func(t *testing.T) {
		fs, cf := newTestFlagSet()
		require.NoError(t, fs.Parse(nil))
		cfg, err := loadConfig(fs, cf, "")
		require.NoError(t, err)
		require.Equal(t, config.Default(), cfg)
	})

	t.Run("file-only", func(t *testing.T) {
		fs, cf := newTestFlagSet()
		require.NoError(t, fs.Parse(nil))
		cfg, err := loadConfig(fs, cf, path)
		require.NoError(t, err)
		require.Equal(t, 15, cfg.BlurRadius)
		require.Equal(t, 7, cfg.FeatherRadius)
		require.Equal(t, 4, cfg.BatchSize)
		require.Equal(t, compositor.ModeColoredMask, cfg.Mode)
	})

	t.Run("explicit-flag-overrides-file", func(t *testing.T) {
		fs, cf := newTestFlagSet()
		require.NoError(t, fs.Parse([]string{"--feather=2", "--plates=false"}))
		cfg, err := loadConfig(fs, cf, path)
		require.NoError(t, err)

		require.Equal(t, 2, cfg.FeatherRadius)
		require.False(t, cfg.IncludePlates)
		// the flag defaults must not mask the file
		require.Equal(t, 15, cfg.BlurRadius)
		require.Equal(t, 4, cfg.BatchSize)
		require.Equal(t, compositor.ModeColoredMask, cfg.Mode)
		require.Equal(t, config.Default().ConfidenceThreshold, cfg.ConfidenceThreshold)
	})

	t.Run("invalid-flag-value", func(t *testing.T) {
		fs, cf := newTestFlagSet()
		require.NoError(t, fs.Parse([]string{"--roi=0.5"}))
		_, err := loadConfig(fs, cf, path)
		require.ErrorIs(t, err, config.ErrInvalid)
	})

	t.Run("missing-file", func(t *testing.T) {
		fs, cf := newTestFlagSet()
		require.NoError(t, fs.Parse(nil))
		_, err := loadConfig(fs, cf, filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}
