package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger of the HTTP layer; silent until SetLogger.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// default request log level, read once; info unless MYSTERYD_HTTP_LOG says otherwise
var defaultLogLevel = func() LogLevel {
	if v, ok := os.LookupEnv("MYSTERYD_HTTP_LOG"); ok {
		return parseLevel(v)
	}
	return LevelInfo
}()

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// reqLog is the per-request logging handle of a generation endpoint.
type reqLog struct {
	r     *http.Request
	lvl   LogLevel
	start time.Time
}

func startLog(r *http.Request, op string) reqLog {
	l := reqLog{r: r, lvl: requestLogLevel(r), start: time.Now()}
	if l.lvl >= LevelInfo {
		l.event(zlog.Info()).Str("op", op).Msg("request start")
	}
	return l
}

func (l reqLog) event(e *zerolog.Event) *zerolog.Event {
	e = e.Str("path", l.r.URL.Path)
	if rid := middleware.GetReqID(l.r.Context()); rid != "" {
		e = e.Str("request_id", rid)
	}
	return e
}

// end logs the outcome. Failures are logged from LevelError, successes from LevelInfo.
func (l reqLog) end(status int, err error) {
	switch {
	case err != nil && l.lvl >= LevelError:
		l.event(zlog.Warn()).Int("status", status).Dur("dur", time.Since(l.start)).Err(err).Msg("request end")
	case err == nil && l.lvl >= LevelInfo:
		l.event(zlog.Info()).Int("status", status).Dur("dur", time.Since(l.start)).Msg("request end")
	}
}

// text logs generated text at debug level.
func (l reqLog) text(s string) {
	if l.lvl >= LevelDebug {
		l.event(zlog.Debug()).Str("text", s).Msg("generated")
	}
}
