package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New 建立 root logger, 同時設為 zerolog/log 全域 logger
func New(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "pizzabot").Logger()
	log.Logger = logger
	return logger
}

func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
