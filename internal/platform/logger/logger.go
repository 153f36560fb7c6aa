// Package logger はアプリケーション全体で使用するslogロガーを生成します。
package logger

import (
	"io"
	"log/slog"
)

// New はformat（"json"または"text"）とlevelに従ってロガーを生成します。
// 未知のformatはJSONとして扱います。
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
