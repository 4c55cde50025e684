package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
	"github.com/stellar/go-stellar-sdk/support/http/mutil"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/monitor"
	"github.com/72mo2c/pero-system-sub002/internal/requestctx"
	"github.com/72mo2c/pero-system-sub002/internal/serve/httperror"
	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

// RecoverHandler is a middleware that recovers from panics and logs the error.
func RecoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", r)
			}

			// No need to recover when the client has disconnected:
			if errors.Is(err, http.ErrAbortHandler) {
				panic(err)
			}

			ctx := req.Context()
			log.Ctx(ctx).WithStack(err).Error(err)
			httperror.InternalError(ctx, "", err, nil).Render(rw)
		}()

		next.ServeHTTP(rw, req)
	})
}

// MetricsRequestHandler is a middleware that monitors http requests, and export the data
// to the metrics server
func MetricsRequestHandler(monitorService monitor.MonitorServiceInterface) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			mw := middleware.NewWrapResponseWriter(rw, req.ProtoMajor)
			then := time.Now()
			next.ServeHTTP(mw, req)

			duration := time.Since(then)

			labels := monitor.HTTPRequestLabels{
				Status: fmt.Sprintf("%d", mw.Status()),
				Route:  utils.GetRoutePattern(req),
				Method: req.Method,
			}

			err := monitorService.MonitorHttpRequestDuration(duration, labels)
			if err != nil {
				log.Ctx(req.Context()).Errorf("Error trying to monitor request time: %s", err)
			}
		})
	}
}

func CorsMiddleware(corsAllowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		cors := cors.New(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedHeaders: []string{"Authorization", "Content-Type", OperatorTokenHeader},
			AllowedMethods: []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
		})

		return cors.Handler(next)
	}
}

// RateLimitMiddleware limits every client IP to requestLimit requests per window.
func RateLimitMiddleware(requestLimit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(rw http.ResponseWriter, req *http.Request) {
			log.Ctx(req.Context()).Warnf("rate limit exceeded for %s", req.RemoteAddr)
			httperror.TooManyRequests("").Render(rw)
		}),
	)
}

// MaxBodySize rejects request bodies larger than maxBytes.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			req.Body = http.MaxBytesReader(rw, req.Body, maxBytes)
			next.ServeHTTP(rw, req)
		})
	}
}

// LoggingMiddleware is a middleware that logs requests to the logger.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		mw := mutil.WrapWriter(rw)

		reqCtx := req.Context()
		logCtx := log.Set(reqCtx, log.Ctx(reqCtx).WithFields(log.F{
			"method": req.Method,
			"path":   req.URL.String(),
			"req":    middleware.GetReqID(reqCtx),
		}))
		req = req.WithContext(logCtx)

		logRequestStart(req)
		started := time.Now()

		next.ServeHTTP(mw, req)
		ended := time.Since(started)
		logRequestEnd(req, mw, ended)
	})
}

func logRequestStart(req *http.Request) {
	l := log.Ctx(req.Context()).WithFields(
		log.F{
			"subsys":    "http",
			"ip":        req.RemoteAddr,
			"host":      req.Host,
			"useragent": req.Header.Get("User-Agent"),
		},
	)

	l.Info("starting request")
}

func logRequestEnd(req *http.Request, mw mutil.WriterProxy, duration time.Duration) {
	l := log.Ctx(req.Context()).WithFields(log.F{
		"subsys":   "http",
		"status":   mw.Status(),
		"bytes":    mw.BytesWritten(),
		"duration": duration,
	})
	if routeContext := chi.RouteContext(req.Context()); routeContext != nil {
		l = l.WithField("route", routeContext.RoutePattern())
	}

	l.Info("finished request")
}

// BasicAuthMiddleware authenticates the admin account. The account becomes the operator of the request unless a
// later middleware identifies a more specific one.
func BasicAuthMiddleware(adminAccount, adminApiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			if adminAccount == "" || adminApiKey == "" {
				httperror.InternalError(ctx, "Admin account and API key are not set", nil, nil).Render(rw)
				return
			}

			accountUserName, apiKey, ok := req.BasicAuth()
			if !ok {
				httperror.Unauthorized("", nil, nil).Render(rw)
				return
			}

			// Using constant time comparison to avoid timing attacks
			if accountUserName != adminAccount || subtle.ConstantTimeCompare([]byte(apiKey), []byte(adminApiKey)) != 1 {
				httperror.Unauthorized("", nil, nil).Render(rw)
				return
			}

			ctx = requestctx.SetOperatorIDInContext(ctx, adminAccount)
			ctx = log.Set(ctx, log.Ctx(ctx).WithField("operator_id", adminAccount))
			next.ServeHTTP(rw, req.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(header)
}
