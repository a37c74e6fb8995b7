package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func InitLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Str("service", "kodbank").Logger()
}
