package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a1ishm/staticd/pkg/middleware"
	"github.com/a1ishm/staticd/pkg/request"
	"github.com/a1ishm/staticd/pkg/server"
)

var (
	ip           = flag.String("ip", "127.0.0.1", "IP address to listen on")
	port         = flag.String("port", "8080", "port number")
	static       = flag.String("static", "./static", "path to the static root directory")
	requireAuth  = flag.Bool("require-auth", false, "reject requests without an Authorization header")
	jwtSecret    = flag.String("jwt-secret", os.Getenv("STATICD_JWT_SECRET"), "HS256 secret; when set, requests need a valid bearer token")
	fallback     = flag.String("fallback", "no-content", "response for unrouted paths: no-content or welcome")
	readTimeout  = flag.Duration("read-timeout", 0, "read deadline per connection, 0 for none")
	writeTimeout = flag.Duration("write-timeout", 0, "write deadline per connection, 0 for none")
	logFormat    = flag.String("log-format", "text", "log format: text or json")
	logLevel     = flag.String("log-level", "info", "log level: debug, info, warn or error")
)

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch *logFormat {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", *logFormat)
}

func options(logger *slog.Logger) ([]server.Option, error) {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithReadTimeout(*readTimeout),
		server.WithWriteTimeout(*writeTimeout),
	}

	switch *fallback {
	case "no-content":
		opts = append(opts, server.WithFallback(request.NoContentFallback))
	case "welcome":
		opts = append(opts, server.WithFallback(request.WelcomeFallback))
	default:
		return nil, fmt.Errorf("unknown fallback %q", *fallback)
	}

	if *requireAuth {
		opts = append(opts, server.WithMiddleware(middleware.BasicAuthPresence{}))
	}
	if *jwtSecret != "" {
		opts = append(opts, server.WithMiddleware(middleware.BearerJWT([]byte(*jwtSecret))))
	}
	return opts, nil
}

func run() error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	opts, err := options(logger)
	if err != nil {
		return err
	}

	srv := server.NewServer(opts...)
	if err := srv.Initialize(*ip, *port, *static); err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	err = srv.Serve(ctx)
	logger.Info("server exited", "uptime", time.Since(start).Round(time.Second))
	return err
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
