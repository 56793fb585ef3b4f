package main

import (
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Stuuu223/myquanttool/internal/config"
	"github.com/Stuuu223/myquanttool/internal/domain/classify"
	"github.com/Stuuu223/myquanttool/internal/metrics"
	"github.com/Stuuu223/myquanttool/internal/providers"
	"github.com/Stuuu223/myquanttool/internal/scan/pipeline"
	"github.com/Stuuu223/myquanttool/internal/store"
	"github.com/Stuuu223/myquanttool/internal/store/cached"
	"github.com/Stuuu223/myquanttool/internal/store/filestore"
)

// env variable names understood by the CLI.
const (
	envRedisAddr     = "MYQUANT_REDIS_ADDR"
	envRedisPassword = "MYQUANT_REDIS_PASSWORD"
	envPostgresDSN   = "MYQUANT_POSTGRES_DSN"
	envLLMBaseURL    = "MYQUANT_LLM_BASE_URL"
	envLLMAPIKey     = "MYQUANT_LLM_API_KEY"
	envLLMModel      = "MYQUANT_LLM_MODEL"
)

// buildSnapshotStore opens the file store, wrapped in the redis cache when
// MYQUANT_REDIS_ADDR is set.
func buildSnapshotStore(cmd *cobra.Command) (store.SnapshotStore, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	fs, err := filestore.New(dataDir)
	if err != nil {
		return nil, err
	}
	addr := os.Getenv(envRedisAddr)
	if addr == "" {
		return fs, nil
	}
	rdb := cached.NewClient(addr, os.Getenv(envRedisPassword), 0)
	return cached.New(fs, rdb, time.Hour), nil
}

// buildClassifier loads configuration from --config or the defaults.
func buildClassifier(cmd *cobra.Command) (*classify.Classifier, error) {
	loader := config.NewLoader()
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		if err := loader.LoadFromFile(path); err != nil {
			return nil, err
		}
	} else if err := loader.LoadDefault(); err != nil {
		return nil, err
	}
	cfg, err := loader.Config()
	if err != nil {
		return nil, err
	}
	return classify.New(*cfg), nil
}

// buildScanner assembles a full scanner over live providers.
func buildScanner(cmd *cobra.Command, reg *metrics.Registry) (*pipeline.Scanner, error) {
	st, err := buildSnapshotStore(cmd)
	if err != nil {
		return nil, err
	}
	classifier, err := buildClassifier(cmd)
	if err != nil {
		return nil, err
	}

	em := providers.NewEastmoney(providers.DefaultEastmoneyConfig())
	var commentary providers.CommentaryProvider = providers.NoCommentary{}
	if base := os.Getenv(envLLMBaseURL); base != "" {
		commentary = providers.NewLLMCommentary(providers.LLMConfig{
			BaseURL: base,
			APIKey:  os.Getenv(envLLMAPIKey),
			Model:   os.Getenv(envLLMModel),
		})
	}

	return pipeline.NewScanner(st, em, em, em, classifier, pipeline.Options{
		Commentary: commentary,
		Metrics:    reg,
	}), nil
}

// newMetrics creates and registers the metric set on a fresh registry.
func newMetrics() (*metrics.Registry, *prometheus.Registry, error) {
	promReg := prometheus.NewRegistry()
	reg := metrics.NewRegistry()
	if err := reg.Register(promReg); err != nil {
		return nil, nil, err
	}
	return reg, promReg, nil
}

// parseUniverse splits a comma-separated code list.
func parseUniverse(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
