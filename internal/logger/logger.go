package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DEBUG = iota
	INFO
	WARNING
	ERROR
)

// ANSI color codes
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"

	ColorRed     = "\033[31m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorBlue    = "\033[34m"
	ColorMagenta = "\033[35m"
	ColorCyan    = "\033[36m"
	ColorWhite   = "\033[37m"
	ColorGray    = "\033[90m"
)

// component color mapping for consistent visual organization
var componentColors = map[string]string{
	"TIP":      ColorBlue,
	"FEED":     ColorCyan,
	"SIM":      ColorGreen,
	"BACKEND":  ColorMagenta,
	"COMPARE":  ColorYellow,
	"SYSTEM":   ColorWhite,
	"ERROR":    ColorRed,
	"METRICS":  ColorGray,
	"DISPATCH": ColorGreen,
}

var (
	mu           sync.RWMutex
	base         zerolog.Logger
	currentLevel = DEBUG
	enableColors = true
	jsonOutput   = false
	out          io.Writer = os.Stdout
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	rebuild()
}

// rebuild must be called with mu held for writing (or during init).
func rebuild() {
	if jsonOutput {
		base = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	w := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !enableColors,
		TimeFormat: "2006/01/02 15:04:05.000000",
		FormatLevel: func(i interface{}) string {
			return colorLevel(fmt.Sprint(i))
		},
	}
	base = zerolog.New(w).With().Timestamp().Logger()
}

func SetLogLevel(level string) error {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(level) {
	case "debug":
		currentLevel = DEBUG
	case "info":
		currentLevel = INFO
	case "warning", "warn":
		currentLevel = WARNING
	case "error":
		currentLevel = ERROR
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}
	return nil
}

func SetColorsEnabled(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	enableColors = enabled
	rebuild()
}

// SetJSONOutput switches between console lines and one JSON object per line.
func SetJSONOutput(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonOutput = enabled
	rebuild()
}

// SetOutput redirects all levels to w; nil restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
	rebuild()
}

func getComponentColor(component string) string {
	if !enableColors {
		return ""
	}

	comp := strings.ToUpper(component)
	for category, color := range componentColors {
		if strings.Contains(comp, category) {
			return color
		}
	}
	return ColorGray
}

func formatComponent(component string) string {
	if component == "" {
		return ""
	}

	color := getComponentColor(component)
	reset := ""
	if enableColors {
		reset = ColorReset
	}

	// format: [COMPONENT]
	return fmt.Sprintf("%s[%s]%s ", color, strings.ToUpper(component), reset)
}

func colorLevel(level string) string {
	label := strings.ToUpper(level)
	if label == "WARN" {
		label = "WARNING"
	}
	if !enableColors {
		return label
	}
	switch label {
	case "DEBUG":
		return ColorGray + label + ColorReset
	case "INFO":
		return ColorGreen + label + ColorReset
	case "WARNING":
		return ColorYellow + ColorBold + label + ColorReset
	case "ERROR":
		return ColorRed + ColorBold + label + ColorReset
	}
	return label
}

func enabled(level int) bool {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel <= level
}

func event(level int, component string) *zerolog.Event {
	mu.RLock()
	l := base
	mu.RUnlock()

	var e *zerolog.Event
	switch level {
	case DEBUG:
		e = l.Debug()
	case INFO:
		e = l.Info()
	case WARNING:
		e = l.Warn()
	default:
		e = l.Error()
	}
	if component != "" {
		e = e.Str("component", strings.ToLower(component))
	}
	return e
}

func logWithLevel(level int, component, format string, v ...interface{}) {
	if !enabled(level) {
		return
	}
	message := fmt.Sprintf(format, v...)
	mu.RLock()
	structured := jsonOutput
	prefix := formatComponent(component)
	mu.RUnlock()
	if structured {
		event(level, component).Msg(message)
		return
	}
	// the console writer prints fields after the message, so the component
	// is rendered in front of it instead
	event(level, "").Msg(prefix + message)
}

// Event returns a structured info-level event for component, or nil when
// info logging is disabled. zerolog events are nil-safe.
func Event(component string) *zerolog.Event {
	if !enabled(INFO) {
		return nil
	}
	return event(INFO, component)
}

// Writer returns an io.Writer that logs each write as one line at warning
// level, for libraries that expect a plain writer.
func Writer(component string) io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		logWithLevel(WARNING, component, "%s", strings.TrimRight(string(p), "\n"))
		return len(p), nil
	})
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func Debug(format string, v ...interface{}) {
	logWithLevel(DEBUG, "", format, v...)
}

func Info(format string, v ...interface{}) {
	logWithLevel(INFO, "", format, v...)
}

func Warning(format string, v ...interface{}) {
	logWithLevel(WARNING, "", format, v...)
}

func Error(format string, v ...interface{}) {
	logWithLevel(ERROR, "", format, v...)
}

func DebugComponent(component, format string, v ...interface{}) {
	logWithLevel(DEBUG, component, format, v...)
}

func InfoComponent(component, format string, v ...interface{}) {
	logWithLevel(INFO, component, format, v...)
}

func WarningComponent(component, format string, v ...interface{}) {
	logWithLevel(WARNING, component, format, v...)
}

func ErrorComponent(component, format string, v ...interface{}) {
	logWithLevel(ERROR, component, format, v...)
}
