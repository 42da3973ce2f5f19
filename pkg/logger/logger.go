// Package logger logging estructurado del proceso sobre zerolog. El logger se
// construye una sola vez en el arranque y viaja por inyección a cada
// componente; el logger global de la librería no se toca.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config parámetros de construcción. Env decide el formato de salida
// (development escribe consola legible, cualquier otro valor JSON por línea)
// y Level el umbral mínimo de los eventos.
type Config struct {
	Env   string
	Level string // trace, debug, info, warn, error
}

// Logger envoltura fina sobre zerolog.Logger.
type Logger struct {
	zl zerolog.Logger
}

// New construye el logger del proceso escribiendo a stdout.
func New(cfg Config) *Logger {
	return newWithWriter(cfg, os.Stdout)
}

func newWithWriter(cfg Config, out io.Writer) *Logger {
	var w = out
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: out}
	}
	zl := zerolog.New(w).Level(levelFor(cfg.Level)).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// levelFor un nivel desconocido o vacío cae a info.
func levelFor(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Debug, Info, Warn, Error y Fatal abren un evento en el nivel
// correspondiente; Fatal termina el proceso tras emitirlo.
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }
