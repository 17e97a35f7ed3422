package jsonlog

import (
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
)

// Level is the severity of a log entry. Entries below a Logger's minimum
// level are dropped.
type Level int8

const (
	LevelInfo Level = iota
	LevelError
	LevelFatal
	LevelOff
)

var levels = [...]struct {
	name string
	zl   zerolog.Level
}{
	LevelInfo:  {"INFO", zerolog.InfoLevel},
	LevelError: {"ERROR", zerolog.ErrorLevel},
	LevelFatal: {"FATAL", zerolog.FatalLevel},
	LevelOff:   {"", zerolog.Disabled},
}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levels) {
		return ""
	}
	return levels[l].name
}

func (l Level) zerolog() zerolog.Level {
	if l < 0 || int(l) >= len(levels) {
		return zerolog.Disabled
	}
	return levels[l].zl
}

// ParseLevel maps a case-insensitive level name ("info", "error", "fatal",
// "off") to a Level. Unknown names fall back to LevelInfo.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "OFF" {
		return LevelOff
	}
	for l, lv := range levels {
		if lv.name != "" && lv.name == name {
			return Level(l)
		}
	}
	return LevelInfo
}

// Logger writes one JSON object per entry at or above a minimum severity.
// zerolog serializes concurrent writes to the underlying writer for us.
type Logger struct {
	zl       zerolog.Logger
	minLevel Level
	exit     func(int)
}

// NewLogger returns a Logger writing entries of minLevel or higher to out.
func NewLogger(out io.Writer, minLevel Level) *Logger {
	zl := zerolog.New(zerolog.SyncWriter(out)).
		Level(minLevel.zerolog()).
		With().
		Timestamp().
		Logger()

	return &Logger{
		zl:       zl,
		minLevel: minLevel,
		exit:     os.Exit,
	}
}

// PrintInfo writes message and properties with LevelInfo severity.
func (l *Logger) PrintInfo(message string, properties map[string]string) {
	l.print(LevelInfo, message, properties)
}

// PrintError writes err and properties with LevelError severity.
func (l *Logger) PrintError(err error, properties map[string]string) {
	l.print(LevelError, err.Error(), properties)
}

// PrintFatal writes err and properties with LevelFatal severity and then
// terminates the process.
func (l *Logger) PrintFatal(err error, properties map[string]string) {
	l.print(LevelFatal, err.Error(), properties)
	l.exit(1)
}

func (l *Logger) print(level Level, message string, properties map[string]string) {
	if level < l.minLevel || l.minLevel == LevelOff {
		return
	}

	event := l.zl.WithLevel(level.zerolog())
	if event == nil {
		return
	}

	if len(properties) > 0 {
		dict := zerolog.Dict()
		for k, v := range properties {
			dict = dict.Str(k, v)
		}
		event = event.Dict("properties", dict)
	}

	if level >= LevelError {
		event = event.Str("trace", string(debug.Stack()))
	}

	event.Msg(message)
}

// Write lets the logger stand in as an io.Writer, e.g. for http.Server.ErrorLog.
// Every line written this way is logged at LevelError.
func (l *Logger) Write(message []byte) (n int, err error) {
	l.print(LevelError, strings.TrimRight(string(message), "\n"), nil)
	return len(message), nil
}
