package xlcap

import (
	"io"
	"log/slog"

	"github.com/javajack/xlcap/config"
	"github.com/javajack/xlcap/workbook"
)

// Options holds configuration for the Generator.
type Options struct {
	config   *config.Config
	strict   *bool
	logger   *slog.Logger
	preWrite func(*LayoutMap, workbook.Writer) error
}

func defaultOptions() *Options {
	return &Options{
		config: config.Default(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures the Generator.
type Option func(*Options)

// WithConfig sets the configuration (default: config.Default()).
func WithConfig(cfg *config.Config) Option {
	return func(o *Options) {
		if cfg != nil {
			o.config = cfg
		}
	}
}

// WithStrictMode overrides the strict setting of the configuration. A strict run
// fails on any duplicate layout registration instead of keeping the last one.
func WithStrictMode(strict bool) Option {
	return func(o *Options) { o.strict = &strict }
}

// WithLogger sets the logger for generation progress (default: discard).
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPreWrite sets a callback executed after every cell is written and before the
// workbook is serialized.
func WithPreWrite(fn func(*LayoutMap, workbook.Writer) error) Option {
	return func(o *Options) { o.preWrite = fn }
}

func (o *Options) isStrict() bool {
	if o.strict != nil {
		return *o.strict
	}
	return o.config.Strict
}
