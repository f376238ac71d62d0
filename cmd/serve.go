package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/mindharmony/mindharmony/internal/advisory"
	"github.com/mindharmony/mindharmony/internal/llm"
	"github.com/mindharmony/mindharmony/internal/proxy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the advisory proxy server",
	Long: "Serve POST /v1/advisory backed by the LLM provider configured in the environment,\n" +
		"so clients with advisory.provider=http can share one credential.",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Proxy.Addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		var client advisory.Client = advisory.Unconfigured{}
		provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo())
		if err != nil {
			slog.Warn("LLM provider not configured, proxy will answer not_configured", "error", err)
			fmt.Fprintln(cmd.ErrOrStderr(), "LLM provider not configured:", err)
		} else {
			lc := advisory.DefaultLLMConfig()
			lc.MaxTokens = cfg.Advisory.MaxTokens
			client = advisory.NewLLMClient(provider, lc)
		}

		cache, closeCache := newProxyCache(ctx, cfg.Proxy.RedisAddr)
		defer closeCache()

		fmt.Fprintf(cmd.OutOrStdout(), "advisory proxy listening on %s\n", addr)
		return proxy.ListenAndServe(ctx, addr, proxy.NewServer(client, cache, cfg.Proxy.CacheTTL).Router())
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides proxy.addr)")
}

// newProxyCache connects to Redis when addr is set and reachable, and falls
// back to an in-process cache otherwise.
func newProxyCache(ctx context.Context, addr string) (proxy.Cache, func()) {
	if addr == "" {
		return proxy.NewMemoryCache(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable, using in-memory cache", "addr", addr, "error", err)
		_ = rdb.Close()
		return proxy.NewMemoryCache(), func() {}
	}
	slog.Info("advisory cache using redis", "addr", addr)
	return proxy.NewRedisCache(rdb), func() { _ = rdb.Close() }
}
