package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"

	config "github.com/hanpama/gqltrace/internal/config"
	eventbus "github.com/hanpama/gqltrace/internal/eventbus"
	events "github.com/hanpama/gqltrace/internal/events"
	executor "github.com/hanpama/gqltrace/internal/executor"
	fixture "github.com/hanpama/gqltrace/internal/fixture"
	instrument "github.com/hanpama/gqltrace/internal/instrument"
	otel "github.com/hanpama/gqltrace/internal/otel"
	reqid "github.com/hanpama/gqltrace/internal/reqid"
	server "github.com/hanpama/gqltrace/internal/server"
)

const version = "0.1.0"

type serveConfig struct {
	*rootConfig

	listen          string
	schemaPath      string
	dataPath        string
	timeout         time.Duration
	pretty          bool
	maxBodyBytes    int64
	cors            []string
	metadataHeaders []string
	introspection   bool

	otlpEndpoint string
	otlpProtocol string
	otlpInsecure bool
	otlpHeaders  []string
	serviceName  string

	trace config.Trace
}

func (cfg *serveConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{LongName: "listen", Value: ffval.NewValueDefault(&cfg.listen, "localhost:8080"), Usage: "HTTP listen address", Placeholder: "ADDR"})
	fs.AddFlag(ff.FlagConfig{ShortName: 's', LongName: "schema", Value: ffval.NewValue(&cfg.schemaPath), Usage: "GraphQL SDL file (required)", Placeholder: "FILE"})
	fs.AddFlag(ff.FlagConfig{ShortName: 'd', LongName: "data", Value: ffval.NewValue(&cfg.dataPath), Usage: "YAML fixture with the root value, deferred and failing fields", Placeholder: "FILE"})
	fs.AddFlag(ff.FlagConfig{LongName: "timeout", Value: ffval.NewValueDefault(&cfg.timeout, 10*time.Second), Usage: "per-request timeout"})
	fs.AddFlag(ff.FlagConfig{LongName: "pretty", Value: ffval.NewValue(&cfg.pretty), Usage: "indent JSON responses", NoDefault: true})
	fs.AddFlag(ff.FlagConfig{LongName: "max-body-bytes", Value: ffval.NewValueDefault(&cfg.maxBodyBytes, 1<<20), Usage: "request body limit, 0 for none"})
	fs.AddFlag(ff.FlagConfig{LongName: "cors", Value: ffval.NewUniqueList(&cfg.cors), Usage: "allowed CORS origin (repeatable)", Placeholder: "ORIGIN"})
	fs.AddFlag(ff.FlagConfig{LongName: "metadata-header", Value: ffval.NewUniqueList(&cfg.metadataHeaders), Usage: "HTTP header forwarded to resolver gRPC metadata (repeatable)", Placeholder: "NAME"})
	fs.AddFlag(ff.FlagConfig{LongName: "introspection", Value: ffval.NewValueDefault(&cfg.introspection, true), Usage: "serve __schema and __type"})

	fs.AddFlag(ff.FlagConfig{LongName: "otlp-endpoint", Value: ffval.NewValue(&cfg.otlpEndpoint), Usage: "OTLP collector host:port; spans are not exported when empty", Placeholder: "ADDR"})
	fs.AddFlag(ff.FlagConfig{LongName: "otlp-protocol", Value: ffval.NewEnum(&cfg.otlpProtocol, otel.ProtocolGRPC, otel.ProtocolHTTP), Usage: "OTLP protocol: grpc, http"})
	fs.AddFlag(ff.FlagConfig{LongName: "otlp-insecure", Value: ffval.NewValue(&cfg.otlpInsecure), Usage: "disable TLS to the collector", NoDefault: true})
	fs.AddFlag(ff.FlagConfig{LongName: "otlp-header", Value: ffval.NewList(&cfg.otlpHeaders), Usage: "KEY=VALUE header sent to the collector (repeatable)", Placeholder: "KV"})
	fs.AddFlag(ff.FlagConfig{LongName: "service-name", Value: ffval.NewValueDefault(&cfg.serviceName, "gqltrace"), Usage: "service.name resource attribute"})

	def := config.DefaultTrace()
	fs.AddFlag(ff.FlagConfig{LongName: "trace-enabled", Value: ffval.NewValueDefault(&cfg.trace.Enabled, def.Enabled), Usage: "record GraphQL spans"})
	fs.AddFlag(ff.FlagConfig{LongName: "trace-allow-values", Value: ffval.NewValue(&cfg.trace.AllowValues), Usage: "keep literal values in source excerpts", NoDefault: true})
	fs.AddFlag(ff.FlagConfig{LongName: "trace-depth", Value: ffval.NewValueDefault(&cfg.trace.Depth, def.Depth), Usage: "deepest field level with its own span, -1 for unlimited"})
	fs.AddFlag(ff.FlagConfig{LongName: "trace-merge-items", Value: ffval.NewValue(&cfg.trace.MergeItems), Usage: "one span for all items of a list field", NoDefault: true})
	fs.AddFlag(ff.FlagConfig{LongName: "trace-ignore-trivial", Value: ffval.NewValue(&cfg.trace.IgnoreTrivial), Usage: "no spans for fields read from their parent value", NoDefault: true})
	fs.AddFlag(ff.FlagConfig{LongName: "trace-ignore-resolve", Value: ffval.NewValue(&cfg.trace.IgnoreResolve), Usage: "no resolve spans at all", NoDefault: true})
}

func (cfg *serveConfig) Exec(ctx context.Context, args []string) error {
	logger := cfg.logger

	sch, err := loadSchema(cfg.schemaPath)
	if err != nil {
		return err
	}
	var root any
	if cfg.dataPath != "" {
		fx, err := fixture.LoadFile(cfg.dataPath)
		if err != nil {
			return err
		}
		if err := fx.Attach(sch); err != nil {
			return err
		}
		root = fx.RootValue()
		logger.Debug("fixture loaded", "path", cfg.dataPath, "deferred", len(fx.Deferred), "errors", len(fx.Errors))
	}

	headers, err := parseHeaders(cfg.otlpHeaders)
	if err != nil {
		return err
	}
	shutdown, err := otel.Setup(ctx, otel.Config{
		Endpoint:    cfg.otlpEndpoint,
		Protocol:    cfg.otlpProtocol,
		Insecure:    cfg.otlpInsecure,
		Headers:     headers,
		ServiceName: cfg.serviceName,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown", "err", err)
		}
	}()

	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)
	defer otel.Subscribe()()
	defer subscribeLogger(logger)()

	live := config.NewLive(cfg.trace.Instrument())
	inst := instrument.New(instrument.WithConfig(live.Get))

	opts := []server.Option{
		server.WithTimeout(cfg.timeout),
		server.WithMaxBodyBytes(cfg.maxBodyBytes),
		server.WithIntrospection(cfg.introspection),
		server.WithInstrumentation(inst),
		server.WithRootValue(root),
	}
	if cfg.pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(cfg.cors) > 0 {
		opts = append(opts, server.WithCORS(cfg.cors...))
	}
	if len(cfg.metadataHeaders) > 0 {
		opts = append(opts, server.WithMetadataHeaders(cfg.metadataHeaders...))
	}
	handler, err := server.New(executor.NewDefaultRuntime(sch), sch, opts...)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", handler)
	httpServer := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ln, err := net.Listen("tcp", cfg.listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	var g run.Group
	{
		g.Add(func() error {
			logger.Info("serving", "addr", ln.Addr().String(), "schema", cfg.schemaPath)
			if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(ctx)
		})
	}
	if cfg.configPath != "" {
		hup := make(chan os.Signal, 1)
		done := make(chan struct{})
		g.Add(func() error {
			signal.Notify(hup, syscall.SIGHUP)
			for {
				select {
				case <-hup:
					cfg.reloadTrace(live)
				case <-done:
					return nil
				}
			}
		}, func(error) {
			signal.Stop(hup)
			close(done)
		})
	}
	{
		g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	}
	return g.Run()
}

// reloadTrace re-reads the [trace] table of the config file. Keys absent
// from the file keep their current value.
func (cfg *serveConfig) reloadTrace(live *config.Live) {
	next, err := config.ReadTrace(cfg.configPath, cfg.trace)
	if err != nil {
		cfg.logger.Error("reload trace config", "path", cfg.configPath, "err", err)
		return
	}
	cfg.trace = next
	live.Set(next.Instrument())
	cfg.logger.Info("trace config reloaded", "enabled", next.Enabled, "depth", next.Depth, "merge_items", next.MergeItems)
}

func parseHeaders(kvs []string) (map[string]string, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --otlp-header %q, want KEY=VALUE", kv)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// subscribeLogger logs request lifecycle events.
func subscribeLogger(logger *slog.Logger) (unsubscribe func()) {
	stopHTTP := eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		logger.Debug("http request",
			"request_id", requestID(ctx),
			"method", e.Request.Method,
			"path", e.Request.URL.Path,
			"status", e.Status,
			"duration", e.Duration,
		)
	})
	stopGraphQL := eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		level := slog.LevelInfo
		if len(e.Errors) > 0 {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "graphql operation",
			"request_id", requestID(ctx),
			"operation", e.OperationName,
			"type", e.OperationType,
			"errors", len(e.Errors),
			"duration", e.Duration,
		)
	})
	return func() {
		stopHTTP()
		stopGraphQL()
	}
}

func requestID(ctx context.Context) string {
	if id, ok := reqid.FromContext(ctx); ok {
		return id.String()
	}
	return ""
}
