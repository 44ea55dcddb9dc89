package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand LogType = "CMD"
	TypeDB      LogType = "DB"
	TypeSystem  LogType = "SYS"
	TypeGame    LogType = "GAME"
	TypeSession LogType = "SESS"
	TypeError   LogType = "ERR"
)

var typeByAttr = map[string]LogType{
	"cmd":     TypeCommand,
	"db":      TypeDB,
	"sys":     TypeSystem,
	"game":    TypeGame,
	"session": TypeSession,
	"error":   TypeError,
}

// Attributes rendered inline by the handler rather than as key=value pairs.
var internalAttrs = map[string]bool{
	"type":           true,
	"name":           true,
	"user_name":      true,
	"status":         true,
	"took":           true,
	"error":          true,
	"error_location": true,
}

// Gateway chatter from disgo that is never worth printing.
var skippedMessages = []string{
	"locking buckets",
	"unlocking buckets",
	"gateway event",
	"cleaning up bucket",
	"cleaned up rate limit buckets",
	"binary message received",
	"received gateway message",
	"opening gateway connection",
	"locking gateway rate limiter",
	"unlocking gateway rate limiter",
	"sending gateway command",
	"new request",
	"new response",
	"locking rest bucket",
	"unlocking rest bucket",
	"rate limit response headers",
	"sending heartbeat",
}

type CustomHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	color  bool
	attrs  []slog.Attr
	groups []string
}

// NewHandler returns a colored handler writing to stdout at debug level.
func NewHandler() *CustomHandler {
	return NewHandlerWithWriter(os.Stdout, slog.LevelDebug, true)
}

func NewHandlerWithWriter(out io.Writer, level slog.Leveler, color bool) *CustomHandler {
	return &CustomHandler{
		mu:    &sync.Mutex{},
		out:   out,
		level: level,
		color: color,
	}
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	msg := strings.ToLower(r.Message)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return nil
		}
	}

	found := h.collect(&r)

	levelColor, levelText := colorGreen, "INFO"
	switch {
	case r.Level >= slog.LevelError:
		levelColor, levelText = colorRed, "ERROR"
	case r.Level >= slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	case r.Level < slog.LevelInfo:
		levelColor, levelText = colorPurple, "DEBUG"
	}

	logType := TypeSystem
	if t, ok := typeByAttr[found["type"]]; ok {
		logType = t
	}

	message := r.Message
	if r.Level >= slog.LevelError {
		location := found["error_location"]
		if location == "" {
			location = callerLocation()
		}
		if location != "" {
			message = fmt.Sprintf("%s (%s)", message, location)
		}
		if details := found["error"]; details != "" {
			message = fmt.Sprintf("%s: %s", message, details)
		}
	}
	if name := found["name"]; name != "" {
		if user := found["user_name"]; user != "" {
			message = fmt.Sprintf("%s [%s by %s]", message, name, user)
		} else {
			message = fmt.Sprintf("%s [%s]", message, name)
		}
	}
	if status := found["status"]; status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}
	if took := found["took"]; took != "" {
		message = fmt.Sprintf("%s (took %s)", message, took)
	}

	var extra strings.Builder
	prefix := strings.Join(h.groups, ".")
	if prefix != "" {
		prefix += "."
	}
	writeAttr := func(a slog.Attr) {
		if internalAttrs[a.Key] {
			return
		}
		fmt.Fprintf(&extra, " %s%s=%v", prefix, a.Key, a.Value)
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var line string
	if h.color {
		line = fmt.Sprintf("%s[WaifuGrab] [%s] [%s%s%s] [%s%s%s] %s%s%s\n",
			colorWhite, ts.Format("15:04:05"),
			levelColor, levelText, colorWhite,
			colorCyan, logType, colorWhite,
			message, extra.String(), colorReset)
	} else {
		line = fmt.Sprintf("[WaifuGrab] [%s] [%s] [%s] %s%s\n",
			ts.Format("15:04:05"), levelText, logType, message, extra.String())
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line)
	return err
}

// collect resolves the inline attributes, record values taking precedence over handler ones.
func (h *CustomHandler) collect(r *slog.Record) map[string]string {
	found := make(map[string]string, len(internalAttrs))
	for _, a := range h.attrs {
		if internalAttrs[a.Key] {
			found[a.Key] = attrString(a)
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if internalAttrs[a.Key] {
			found[a.Key] = attrString(a)
		}
		return true
	})
	return found
}

func attrString(a slog.Attr) string {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindDuration {
		return v.Duration().Round(time.Millisecond).String()
	}
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok && err != nil {
			return err.Error()
		}
	}
	return v.String()
}

// callerLocation walks past slog and this package to the logging call site.
func callerLocation() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "log/slog") && !strings.Contains(f.File, "waifubot/logger") {
			return fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
		}
		if !more {
			return ""
		}
	}
}
