package callback

import (
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// ConsoleLogger builds a zap logger suited for test runs: development
// encoding when stderr is a terminal, production JSON otherwise. The
// library itself defaults to a no-op logger; this is a convenience for
// wiring WithLogger and WithRouterLogger.
func ConsoleLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	var cfg zap.Config
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = level
	return cfg.Build()
}
