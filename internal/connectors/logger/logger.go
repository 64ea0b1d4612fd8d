package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"

	"github.com/piratenetwork/zsign/internal/env"
)

const redacted = "[redacted]"

// secretKeys are attribute keys whose values never reach the log.
var secretKeys = map[string]struct{}{
	"password":      {},
	"rpc_password":  {},
	"authorization": {},
}

func New(cfg *env.AppConfig) (*slog.Logger, *sentry.Client, error) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter builds the application logger. Outside the local env errors
// are also sent to Sentry when a DSN is configured.
func NewWithWriter(cfg *env.AppConfig, w io.Writer) (*slog.Logger, *sentry.Client, error) {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.LogLevel),
		ReplaceAttr: redact,
	}

	var slogHandler slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.LogFormat == "json" {
		slogHandler = slog.NewJSONHandler(w, opts)
	}

	attrs := []slog.Attr{slog.String("app", cfg.Name), slog.String("env", cfg.Env)}

	if cfg.Env == `local` || cfg.SentryDSN == "" {
		return slog.New(slogHandler.WithAttrs(attrs)), nil, nil
	}

	hub := sentry.CurrentHub()
	client, sentryErr := sentry.NewClient(sentry.ClientOptions{
		Dsn:           cfg.SentryDSN,
		EnableTracing: false,
		Environment:   cfg.Env,
		ServerName:    cfg.Source,
	})
	if sentryErr != nil {
		return nil, nil, sentryErr
	}

	hub.BindClient(client)
	return slog.New(
		slogmulti.Fanout(
			slogHandler,
			slogsentry.Option{
				Level: slog.LevelError,
				Hub:   hub,
			}.NewSentryHandler(),
		).WithAttrs(attrs),
	), client, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := secretKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}

	return a
}
