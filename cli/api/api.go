// Package api assembles the HTTP server of the contact book.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/goccy/go-json"

	"github.com/oaiiae/contactbook/contacts"
	"github.com/oaiiae/contactbook/datastores"
	"github.com/oaiiae/contactbook/handlers"
	"github.com/oaiiae/contactbook/router"
)

type ServerOptions struct {
	Host              string        `short:"H" doc:"host to listen on"                      default:""`
	Port              string        `short:"p" doc:"port to listen on"                      default:"8888"`
	ReadHeaderTimeout time.Duration `          doc:"time allowed to read request headers"   default:"15s"`
	IdleTimeout       time.Duration `          doc:"time keep-alive connections may idle"   default:"2m"`
	ShutdownTimeout   time.Duration `          doc:"time allowed to drain requests on stop" default:"1m"`
}

// NewServer returns a server for handler. Its error log goes to logger.
func NewServer(options *ServerOptions, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(options.Host, options.Port),
		Handler:           handler,
		ReadHeaderTimeout: options.ReadHeaderTimeout,
		IdleTimeout:       options.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

// Shutdown stops srv, waiting for active requests at most options.ShutdownTimeout.
func Shutdown(srv *http.Server, options *ServerOptions, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), options.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	if err != nil {
		logger.Warn("could not shutdown the server", "err", err)
	}
}

type RouterOptions struct {
	EndpointsPrefix string `doc:"mount endpoints at a prefix" default:"/api/v1"`
}

// BuildInfo describes the running binary.
type BuildInfo struct {
	Title    string
	Version  string
	Revision string
	Created  string
}

func NewRouter(
	options *RouterOptions,
	build *BuildInfo,
	store datastores.ContactsStore,
	logger *slog.Logger,
) http.Handler {
	buildinfoMetric := joinQuote("build_info{goversion=", runtime.Version(),
		",title=", build.Title,
		",version=", build.Version,
		",revision=", build.Revision,
		",created=", build.Created,
		"} 1\n")
	metriks := metrics.NewSet()
	return router.New(build.Title, build.Version,
		readiness(store, logger),
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, buildinfoMetric)
			metriks.WritePrometheus(w)
			metrics.WriteProcessMetrics(w)
		},
		router.OptUseMiddleware(
			ctxlog{}.loggerMiddleware(logger),
			meterRequests(metriks),
			ctxlog{}.recoverMiddleware(logger),
		),
		router.OptGroup(options.EndpointsPrefix,
			router.OptGroup("/contacts", router.OptAutoRegister(&handlers.Contacts{
				Service:      contacts.New(store),
				ErrorHandler: ctxlog{}.errorHandler(logger, metriks),
			})),
		),
	)
}

// readiness returns a handler that responds with [http.StatusServiceUnavailable]
// while the store cannot be reached.
func readiness(store datastores.ContactsStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.Ping(r.Context())
		if err != nil {
			logger.LogAttrs(r.Context(), slog.LevelWarn, "store is not ready", slog.Any("err", err))
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	}
}

// ctxlog is the [context.Context] key of the request [slog.Logger].
type ctxlog struct{}

func (key ctxlog) logger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	logger, ok := ctx.Value(key).(*slog.Logger)
	if !ok {
		return fallback
	}
	return logger
}

// loggerMiddleware stores a request logger in the [context.Context] and logs
// the request once it is done, at error level for 5XX statuses.
func (key ctxlog) loggerMiddleware(parent *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		logger := parent.With(
			slog.String("x-request-id", ctx.Header("X-Request-Id")),
			slog.String("op", op.OperationID),
		)
		if id := ctx.Param("id"); id != "" {
			logger = logger.With(slog.String("contact", id))
		}

		start := time.Now()
		next(huma.WithValue(ctx, key, logger))

		level := slog.LevelInfo
		if ctx.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(context.Background(), level,
			joinSpace(op.Method, op.Path, ctx.Version().Proto),
			slog.String("from", ctx.RemoteAddr()),
			slog.String("ua", ctx.Header("User-Agent")),
			slog.Int("status", ctx.Status()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}

// recoverMiddleware turns a panic into a [http.StatusInternalServerError] problem response.
func (key ctxlog) recoverMiddleware(fallback *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			key.logger(ctx.Context(), fallback).LogAttrs(context.Background(), slog.LevelError,
				"panic occurred", slog.Any("recovered", v))

			ctx.SetHeader("Content-Type", "application/problem+json")
			ctx.SetStatus(http.StatusInternalServerError)
			_ = json.NewEncoder(ctx.BodyWriter()).Encode(
				huma.NewError(http.StatusInternalServerError, "unexpected failure in "+ctx.Operation().OperationID))
		}()
		next(ctx)
	}
}

// errorHandler logs the errors of the contacts operations with the request
// logger and counts store failures per operation.
func (key ctxlog) errorHandler(fallback *slog.Logger, set *metrics.Set) func(context.Context, error) {
	return func(ctx context.Context, err error) {
		level := slog.LevelError
		attrs := []slog.Attr{slog.Any("err", err)}

		var (
			opErr     *contacts.OperationError
			statusErr huma.StatusError
		)
		switch {
		case errors.As(err, &opErr):
			attrs = []slog.Attr{
				slog.String("failed", opErr.Op),
				slog.Any("err", opErr.Err),
				slog.Int("status", http.StatusInternalServerError),
			}
			set.GetOrCreateCounter(joinQuote("contacts_store_failures_total{op=", opErr.Op, "}")).Inc()
		case errors.Is(err, datastores.ErrInvalidContent):
			level = slog.LevelWarn
			attrs = append(attrs, slog.Int("status", http.StatusUnprocessableEntity))
		case errors.As(err, &statusErr):
			if statusErr.GetStatus() < http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			attrs = append(attrs, slog.Int("status", statusErr.GetStatus()))
		}

		key.logger(ctx, fallback).LogAttrs(context.Background(), level, "error occurred", attrs...)
	}
}

func meterRequests(set *metrics.Set) func(huma.Context, func(huma.Context)) {
	buckets := metrics.ExponentialBuckets(1e-3, 5, 6) //nolint: mnd // 1ms to 3s

	return func(ctx huma.Context, next func(huma.Context)) {
		op, start := ctx.Operation(), time.Now()
		next(ctx)

		labels := joinQuote("{method=", op.Method, ",path=", op.Path, ",status=", strconv.Itoa(ctx.Status()), "}")
		set.GetOrCreateCounter("http_requests_total" + labels).Inc()
		set.GetOrCreatePrometheusHistogramExt("http_request_duration_seconds"+labels, buckets).UpdateDuration(start)
	}
}

// joinQuote is [strings.Join] with " as separator.
func joinQuote(elems ...string) string { return strings.Join(elems, `"`) }

// joinSpace is [strings.Join] with space as separator.
func joinSpace(elems ...string) string { return strings.Join(elems, ` `) }
