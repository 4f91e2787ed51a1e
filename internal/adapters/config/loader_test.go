package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/crosscheck/internal/adapters/config"
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), domain.DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeConfig(t, `
version: "1"
ecosystem:
  exclude: ["*solana*", "anchor-*", "*solana*"]
includeYanked: true
mode: compare
workers: 4
filter: serde
timeout: 30s
paths:
  index: crates.io-index
  regressions: cases
`)
	ctrl := gomock.NewController(t)
	cfg, err := config.NewLoader(mocks.NewMockLogger(ctrl)).Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"*solana*", "anchor-*"}, cfg.Ecosystem.Exclude)
	assert.True(t, cfg.IncludeYanked)
	assert.Equal(t, domain.ModeCompare, cfg.Mode)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "serde", cfg.Filter)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "crates.io-index", cfg.IndexDir)
	assert.Equal(t, "cases", cfg.RegressionDir)
	assert.Equal(t, domain.DefaultReportPath, cfg.ReportPath)
	assert.Equal(t, domain.DefaultLockStorePath, cfg.LockStorePath)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any())

	cfg, err := config.NewLoader(log).Load(filepath.Join(t.TempDir(), domain.DefaultConfigFile))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"malformed yaml", "mode: [", domain.ErrConfigParseFailed},
		{"unknown mode", "mode: fastest", domain.ErrInvalidMode},
		{"negative workers", "workers: -1", domain.ErrConfigParseFailed},
		{"bad timeout", "timeout: soon", domain.ErrConfigParseFailed},
		{"bad pattern", "ecosystem:\n  exclude: [\"[\"]", domain.ErrInvalidPattern},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestFilter(t *testing.T) {
	cfg := domain.DefaultConfig()
	f := config.Filter(cfg)
	require.NotNil(t, f.Package)
	assert.False(t, f.Package("solana-program"))
	assert.True(t, f.Package("serde"))
	assert.False(t, f.Release(&domain.Release{Yanked: true}))

	cfg.Ecosystem.IncludeAll = true
	cfg.IncludeYanked = true
	f = config.Filter(cfg)
	assert.Nil(t, f.Package)
	assert.Nil(t, f.Release)
}
