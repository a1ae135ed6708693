package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"alchemy/types"
)

// ParseLevel 解析日志级别
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return 0, fmt.Errorf("%w: 日志级别 %q", types.ErrInvalidArgument, level)
	}
	return l, nil
}

// NewLogger 创建日志，写入 w，为空时写入 stderr
// format 为 text 或 json，"error" 键统一为 "err"
func NewLogger(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("%w: 日志格式 %q", types.ErrInvalidArgument, format)
}

// NewNop 不输出任何内容的日志
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
