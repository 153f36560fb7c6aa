// Package http はHTTPサーバーの生成と起動・停止を提供します。
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ServerConfig はHTTPサーバーの設定です。
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer はタイムアウトを設定したhttp.Serverを作成します。
//
// 注意:
//   - http.Serverのゼロ値にはタイムアウトがないため、常にこの関数で生成すること
//   - ReadHeaderTimeoutはReadTimeoutと同じ値を使用（Slowloris対策）
func NewServer(cfg ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Run はctxがキャンセルされるまでサーバーを起動し、キャンセル後はgraceful shutdownします。
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
