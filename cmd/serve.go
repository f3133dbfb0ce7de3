package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chris-regnier/reflectctl/internal/config"
	"github.com/chris-regnier/reflectctl/internal/index"
	"github.com/chris-regnier/reflectctl/internal/index/chroma"
	"github.com/chris-regnier/reflectctl/internal/index/meili"
	"github.com/chris-regnier/reflectctl/internal/index/sqlite"
	"github.com/chris-regnier/reflectctl/internal/llm"
	"github.com/chris-regnier/reflectctl/internal/logging"
	"github.com/chris-regnier/reflectctl/internal/metrics"
	"github.com/chris-regnier/reflectctl/internal/server"
	"github.com/chris-regnier/reflectctl/internal/service"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prompt and reflection service",
	Long: `Serve the HTTP API used by the terminal UI and the CLI: daily prompts,
monthly reflections, entry indexing and health. Generation uses the OpenAI API
when OPENAI_API_KEY is set and falls back to local text otherwise.`,
	Example: `  OPENAI_API_KEY=sk-... reflectctl serve
  reflectctl serve --port 9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(logging.Options{Level: appConfig.Log.Level, Production: true})
		if err != nil {
			return err
		}
		logger = log

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		collector := metrics.NewCollector()
		svc, closeIndex, err := newService(appConfig, collector)
		if err != nil {
			return err
		}
		defer closeIndex()

		port := appConfig.Server.Port
		if servePort != 0 {
			port = servePort
		}
		srv := server.New(svc,
			server.WithMetrics(collector),
			server.WithLogger(logger),
			server.WithAllowedOrigins(appConfig.Server.AllowedOrigins...),
		)
		return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
	},
}

// newService wires the generator, the optional retrieval index and metrics.
// The returned func closes the index.
func newService(cfg *config.Config, collector *metrics.Collector) (*service.Service, func(), error) {
	ai := llm.NewOpenAI(llm.Config{
		APIKey:     cfg.OpenAI.APIKey,
		Model:      cfg.OpenAI.Model,
		EmbedModel: cfg.OpenAI.EmbedModel,
		BaseURL:    cfg.OpenAI.BaseURL,
		Timeout:    cfg.OpenAI.Timeout,
	}, logger)

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithModel(ai.Model(), ai.KeySet()),
	}
	if collector != nil {
		opts = append(opts, service.WithMetrics(collector))
	}

	idx, err := openIndex(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeIndex := func() {}
	if idx != nil {
		opts = append(opts, service.WithRetriever(index.NewRetriever(idx, ai)))
		closeIndex = func() {
			if err := idx.Close(); err != nil {
				logger.Warn("closing index", zap.Error(err))
			}
		}
	}
	return service.New(ai, opts...), closeIndex, nil
}

// openIndex opens the configured retrieval index. The "none" backend returns nil.
func openIndex(cfg *config.Config) (index.Index, error) {
	switch cfg.Index.Backend {
	case "chroma", "":
		return chroma.New(chroma.Options{URL: cfg.Index.ChromaURL, Collection: cfg.Index.Collection}), nil
	case "meili":
		return meili.New(meili.Options{
			URL:        cfg.Index.MeiliURL,
			APIKey:     cfg.Index.MeiliKey,
			IndexUID:   cfg.Index.MeiliIndex,
			Dimensions: cfg.Index.Dimensions,
		}, logger), nil
	case "sqlite":
		idx, err := sqlite.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite index: %w", err)
		}
		return idx, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown index backend: %s", cfg.Index.Backend)
	}
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config, 8787)")
	rootCmd.AddCommand(serveCmd)
}
