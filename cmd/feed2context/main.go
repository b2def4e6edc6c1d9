package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/muratcankoylan/feed2context/pkg/browser"
	"github.com/muratcankoylan/feed2context/pkg/config"
	"github.com/muratcankoylan/feed2context/pkg/extract"
	"github.com/muratcankoylan/feed2context/pkg/llm"
	"github.com/muratcankoylan/feed2context/pkg/pipeline"
	"github.com/muratcankoylan/feed2context/pkg/report"
	"github.com/muratcankoylan/feed2context/pkg/research"
	"github.com/muratcankoylan/feed2context/pkg/server"
)

type options struct {
	configPath   string
	addrX        string
	addrLinkedIn string
	reportsPath  string
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to YAML config (or FEED2CONTEXT_CONFIG)")
	flag.StringVar(&opts.addrX, "addr-x", "", "Listen address for the X listener (overrides config)")
	flag.StringVar(&opts.addrLinkedIn, "addr-linkedin", "", "Listen address for the LinkedIn listener (overrides config)")
	flag.StringVar(&opts.reportsPath, "data", "", "Reports JSONL path (overrides config)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	logCfg := zap.NewProductionConfig()
	if *verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, opts); err != nil {
		logger.Error("feed2context exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.addrX != "" {
		cfg.Server.ListenX = opts.addrX
	}
	if opts.addrLinkedIn != "" {
		cfg.Server.ListenLinkedIn = opts.addrLinkedIn
	}
	if opts.reportsPath != "" {
		cfg.Store.Path = opts.reportsPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := llm.NewProvider(ctx, llm.Config{APIKey: cfg.Models.APIKey}, logger)
	if err != nil {
		return err
	}

	apiKey := cfg.Models.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	agentModel, err := gemini.NewModel(ctx, cfg.Models.Browser, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("create browser agent model (%s): %w", cfg.Models.Browser, err)
	}

	store, err := report.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	manager := browser.NewManager(browser.Config{
		Headless:       cfg.Browser.Headless,
		Bin:            cfg.Browser.Bin,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		NavTimeout:     cfg.Browser.NavTimeout(),
		StableWait:     cfg.Browser.StableWait(),
	}, logger)
	defer manager.Close()

	openSession := func(ctx context.Context, url string) (extract.PageSession, error) {
		return manager.Open(ctx, url)
	}

	pipe := pipeline.New(pipeline.Deps{
		BrowserExtractor: extract.NewBrowserExtractor(openSession, agentModel, logger),
		RemoteExtractor:  extract.NewRemoteExtractor(provider, cfg.Models.Extract, logger),
		Builder:          research.NewBuilder(provider, cfg.Models.Query, logger),
		Researcher:       research.NewResearcher(provider, cfg.Models.Research, logger),
		Store:            store,
		Logger:           logger,
	})

	srv := server.New(pipe, store, cfg.Server.TriggerTimeout(), logger)
	handler := srv.Handler()

	listeners := []*http.Server{
		{Addr: cfg.Server.ListenX, Handler: handler},
		{Addr: cfg.Server.ListenLinkedIn, Handler: handler},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ls := range listeners {
		g.Go(func() error {
			logger.Info("listening", zap.String("addr", ls.Addr))
			if err := ls.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", ls.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, ls := range listeners {
			_ = ls.Shutdown(shutdownCtx)
		}
		return nil
	})

	logger.Info("feed2context ready",
		zap.String("reports", cfg.Store.Path),
		zap.String("extract_model", cfg.Models.Extract),
		zap.String("research_model", cfg.Models.Research))

	return g.Wait()
}
