/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains the HTTP logging hooks: a chi-compatible middleware for the local
API server and an http.RoundTripper for the outbound client. Both record method,
URI, status and latency, and choose the level from the response status. Client IPs
are anonymized before they are logged.
*/
package logx

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the per-call identifier from the client to the server.
const RequestIDHeader = "X-Request-Id"

// anonymizeIP anonymizes the given IP address string.
// For IPv4, it zeros out the last octet; for IPv6, it keeps only the /64 prefix.
func anonymizeIP(ipStr string) string {
	host, _, err := net.SplitHostPort(ipStr)
	if err == nil {
		ipStr = host
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "unknown_ip"
	}

	if ip.IsLoopback() {
		return "127.0.0.1"
	}

	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}

	return ip.Mask(net.CIDRMask(64, 128)).String()
}

// eventForStatus picks Error for 5xx, Warn for 4xx and the given default otherwise.
func eventForStatus(logger *zerolog.Logger, status int, ok func() *zerolog.Event) *zerolog.Event {
	switch {
	case status >= 500:
		return logger.Error()
	case status >= 400:
		return logger.Warn()
	default:
		return ok()
	}
}

// RequestLogger returns an HTTP middleware that logs every request served by the local API.
// It creates a request-scoped logger and injects it into the request context.
func RequestLogger() func(next http.Handler) http.Handler {
	baseLogger := *Logger()

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := baseLogger.With().
				Str("component", "http").
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_ip", anonymizeIP(r.RemoteAddr)).
				Str("request_method", r.Method).
				Str("request_uri", r.RequestURI).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))

			t1 := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			eventForStatus(&logger, status, logger.Info).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(t1)).
				Msg("Request completed")
		}

		return http.HandlerFunc(fn)
	}
}

// loggingTransport logs each outbound call made through it.
type loggingTransport struct {
	next   http.RoundTripper
	logger zerolog.Logger
}

// Transport wraps next (http.DefaultTransport when nil) with outbound request logging.
// Successful calls are logged at Debug so the polling loop stays quiet at Info.
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, logger: Component("http-client")}
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	logger := t.logger.With().
		Str("request_id", r.Header.Get(RequestIDHeader)).
		Str("request_method", r.Method).
		Str("request_url", r.URL.String()).
		Logger()

	t1 := time.Now()
	res, err := t.next.RoundTrip(r)
	if err != nil {
		logger.Warn().Err(err).Dur("latency", time.Since(t1)).Msg("Request failed without response")
		return nil, err
	}

	eventForStatus(&logger, res.StatusCode, logger.Debug).
		Int("status", res.StatusCode).
		Dur("latency", time.Since(t1)).
		Msg("Request completed")

	return res, nil
}
