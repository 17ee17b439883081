package logger

import (
	"log/slog"
	"os"
	"sync"
)

var (
	once sync.Once
	log  *slog.Logger
)

func std() *slog.Logger {
	once.Do(func() {
		if log == nil {
			log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
	})
	return log
}

// Init replaces the default logger. Safe to skip; the first log call
// falls back to a JSON handler on stdout.
func Init(l *slog.Logger) {
	log = l
}

func Info(msg string, args ...any) {
	std().Info(msg, normalize(args)...)
}

func Warn(msg string, args ...any) {
	std().Warn(msg, normalize(args)...)
}

func Error(msg string, args ...any) {
	std().Error(msg, normalize(args)...)
}

func Debug(msg string, args ...any) {
	std().Debug(msg, normalize(args)...)
}

// normalize lets call sites pass a bare error as the only argument.
func normalize(args []any) []any {
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			return []any{"error", err}
		}
	}
	return args
}
