// Command mcp-dev-server runs a small MCP server for trying out the
// mistral-chat tool loop. It serves "echo", "get_time" and "color_swatch"
// (an image result) over stdio or streamable HTTP.
//
//	mcp-dev-server -stdio
//	mcp-dev-server -addr :8080   # serves /mcp and /healthz
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/mistral-bridge/pkg/observability"
)

func main() {
	stdio := flag.Bool("stdio", false, "serve on stdin/stdout")
	addr := flag.String("addr", envOrDefault("MCP_DEV_ADDR", ":8080"), "HTTP listen address")
	flag.Parse()

	// stdout belongs to the protocol in stdio mode.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := newServer(time.Now)

	var err error
	if *stdio {
		err = server.Run(ctx, &mcp.StdioTransport{})
	} else {
		err = serveHTTP(ctx, server, *addr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("mcp-dev-server failed", "error", err)
		os.Exit(1)
	}
}

func serveHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})

	handler := observability.Chain(
		observability.RequestID(),
		observability.Recovery(),
		observability.Logging(slog.Default()),
	)(mux)

	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("mcp-dev-server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
