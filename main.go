package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Popoeson/e-library/ai"
	"github.com/Popoeson/e-library/api"
	"github.com/Popoeson/e-library/config"
	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/plugin"
	"github.com/Popoeson/e-library/plugin/catalog"
	"github.com/Popoeson/e-library/service"
	"github.com/Popoeson/e-library/util"
	"github.com/Popoeson/e-library/util/cache"
	jsonutil "github.com/Popoeson/e-library/util/json"
	"github.com/Popoeson/e-library/util/pool"
)

// app 进程内共享的组件
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *plugin.Registry
	assistant *ai.Client
	search    *service.SearchService
	workers   *pool.WorkerPool
	closers   []func()
}

// close 按创建的逆序释放资源
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.logger.Sync()
}

var rootCmd = &cobra.Command{
	Use:   "e-library",
	Short: "Federated academic search service",
	Long: `e-library fans a research query out to web engines, book catalogs, archives,
journal indexes and open educational resources, merges and deduplicates the
results, ranks them with an LLM and groups them by category.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return startServer(cmd.Context(), a)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one search and print the JSON response",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		limit, _ := cmd.Flags().GetInt("limit")
		preferPdf, _ := cmd.Flags().GetBool("prefer-pdf")

		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		resp, err := a.search.Search(cmd.Context(), model.SearchRequest{
			Query:     strings.Join(args, " "),
			Subject:   subject,
			Limit:     limit,
			PreferPdf: preferPdf,
		})
		if err != nil {
			return err
		}

		data, err := jsonutil.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered providers by lane",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		byLane := a.registry.ByLane()
		for _, lane := range model.Categories {
			fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", lane)
			for _, name := range byLane[lane] {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./elibrary.yaml)")

	searchCmd.Flags().String("subject", "", "subject hint for rewriting and summary")
	searchCmd.Flags().Int("limit", 0, "results per provider (0 uses DEFAULT_LIMIT)")
	searchCmd.Flags().Bool("prefer-pdf", false, "bias the web lane towards PDF documents")

	rootCmd.AddCommand(serveCmd, searchCmd, providersCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 无子命令时默认启动服务
	if len(os.Args) == 1 {
		rootCmd.SetArgs([]string{"serve"})
	}
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// initApp 初始化应用程序
func initApp(ctx context.Context) (*app, error) {
	configFile, _ := rootCmd.PersistentFlags().GetString("config")
	if err := config.Init(configFile); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := config.AppConfig

	logger, err := util.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}

	// 初始化HTTP客户端
	client := util.InitHTTPClient(cfg.ProxyURL, cfg.PluginTimeout)

	store := initCache(ctx, a)

	a.registry = catalog.Build(cfg, client, store, logger)
	cfg.UpdateDefaultConcurrency(a.registry.Len())

	a.assistant, err = ai.NewClient(ai.Config{
		BaseURL:   cfg.LLMBaseURL,
		APIKey:    cfg.LLMAPIKey,
		Model:     cfg.LLMModel,
		Timeout:   cfg.LLMTimeout,
		BatchSize: cfg.RankBatchSize,
		Shuffle:   cfg.RankShuffle,
	}, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init llm client: %w", err)
	}
	if !a.assistant.Enabled() {
		logger.Warn("LLM_API_KEY not set, rewrite, ranking and summary fall back to defaults")
	}

	a.workers, err = pool.NewWorkerPool(cfg.DefaultConcurrency)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init worker pool: %w", err)
	}
	a.closers = append(a.closers, a.workers.Release)

	a.search = service.NewSearchService(a.registry, a.assistant, a.workers, logger, service.Options{
		DefaultLimit:    cfg.DefaultLimit,
		MaxLimit:        cfg.MaxLimit,
		ProviderTimeout: cfg.PluginTimeout,
		Deadline:        cfg.SearchDeadline,
		MinScore:        cfg.RelevanceMinScore,
	})
	return a, nil
}

// initCache 按配置创建数据源结果缓存，Redis不可用时退回内存缓存
func initCache(ctx context.Context, a *app) cache.Store {
	cfg := a.cfg
	if !cfg.CacheEnabled {
		return nil
	}

	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCacheFromAddr(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			a.closers = append(a.closers, func() { rc.Close() })
			return rc
		}
		a.logger.Warn("redis unavailable, using in-memory cache",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	mc := cache.NewMemoryCache(cfg.CacheMaxItems, cfg.CacheMaxSizeMB)
	cleanupCtx, cancel := context.WithCancel(context.Background())
	mc.StartCleanupTask(cleanupCtx, time.Minute)
	a.closers = append(a.closers, cancel)
	return mc
}

// startServer 启动Web服务器，收到信号后优雅退出
func startServer(ctx context.Context, a *app) error {
	cfg := a.cfg
	handler := api.NewHandler(a.search, a.assistant.Enabled(), a.logger)
	router := api.SetupRouter(handler, cfg, a.logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	printServiceInfo(a)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

// proxyLabel 返回代理协议的显示名，如SOCKS5、HTTP
func proxyLabel(proxyURL string) string {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return "HTTP"
	}
	switch parsed.Scheme {
	case "socks5", "socks5h", "https":
		return strings.ToUpper(parsed.Scheme)
	default:
		return "HTTP"
	}
}

// printServiceInfo 打印服务信息
func printServiceInfo(a *app) {
	cfg := a.cfg
	fmt.Printf("服务器启动在 http://localhost:%s\n", cfg.Port)

	// 输出代理信息
	if cfg.UseProxy {
		fmt.Printf("使用%s代理: %s\n", proxyLabel(cfg.ProxyURL), cfg.ProxyURL)
	} else {
		fmt.Println("未使用代理")
	}

	// 输出缓存信息
	switch {
	case !cfg.CacheEnabled:
		fmt.Println("缓存已禁用")
	case cfg.RedisAddr != "":
		fmt.Printf("缓存已启用: Redis=%s, TTL=%s\n", cfg.RedisAddr, cfg.CacheTTL)
	default:
		fmt.Printf("缓存已启用: 内存, 最大条目=%d, TTL=%s\n", cfg.CacheMaxItems, cfg.CacheTTL)
	}

	// 输出压缩信息
	if cfg.EnableCompression {
		fmt.Printf("响应压缩已启用: 最小压缩大小=%d字节\n", cfg.MinSizeToCompress)
	} else {
		fmt.Println("响应压缩已禁用")
	}

	fmt.Printf("LLM: 启用=%v, 模型=%s\n", a.assistant.Enabled(), cfg.LLMModel)
	fmt.Printf("检索: 单源超时=%s, 截止时间=%s, 并发=%d\n", cfg.PluginTimeout, cfg.SearchDeadline, cfg.DefaultConcurrency)

	// 输出插件信息
	byLane := a.registry.ByLane()
	fmt.Println("已加载数据源:")
	for _, lane := range model.Categories {
		for _, name := range byLane[lane] {
			fmt.Printf("  - %s (%s)\n", name, lane)
		}
	}
}
