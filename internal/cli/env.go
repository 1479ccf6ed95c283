package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"fincal/internal/backend"
	"fincal/internal/config"
	"fincal/internal/core"
	"fincal/internal/ledger"
	"fincal/internal/log"
	"fincal/internal/report"
	"fincal/internal/storage"
)

// Env is the state shared by the commands of one invocation. The store is
// opened on first use.
type Env struct {
	Config *config.Config
	Logger *log.Logger
	Out    io.Writer
	Err    io.Writer
	Now    func() time.Time

	// Plain prints Markdown as is instead of styling it for the terminal.
	Plain bool
	// Width wraps terminal output. Zero means 80 columns.
	Width int

	// Backend replaces the configured backend when set.
	Backend storage.Backend

	store   *ledger.Store
	reports *report.Service
	cleanup backend.CleanupFunc
}

// NewEnv returns an environment writing to stdout and stderr.
func NewEnv(cfg *config.Config, logger *log.Logger) *Env {
	if logger == nil {
		logger = log.Nop()
	}
	return &Env{
		Config: cfg,
		Logger: logger.WithComponent(log.ComponentCLI),
		Out:    os.Stdout,
		Err:    os.Stderr,
		Now:    time.Now,
	}
}

func (e *Env) today() core.Date { return core.DateOf(e.Now()) }

// Store opens and loads the ledger once.
func (e *Env) Store(ctx context.Context) (*ledger.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	opts := []ledger.Option{ledger.WithClock(e.Now)}
	if e.Backend != nil {
		key := ledger.DefaultKey
		if e.Config != nil && e.Config.StorageKey != "" {
			key = e.Config.StorageKey
		}
		store := ledger.New(e.Backend, append(opts, ledger.WithKey(key), ledger.WithLogger(e.Logger))...)
		if _, err := store.Load(ctx); err != nil {
			return nil, fmt.Errorf("load ledger: %w", err)
		}
		e.store = store
		return store, nil
	}
	if e.Config == nil {
		return nil, errors.New("no configuration")
	}
	store, cleanup, err := OpenStore(ctx, e.Config, e.Logger, opts...)
	if err != nil {
		return nil, err
	}
	e.store, e.cleanup = store, cleanup
	return store, nil
}

// Reports returns the report service over the opened store.
func (e *Env) Reports(ctx context.Context) (*report.Service, error) {
	if e.reports != nil {
		return e.reports, nil
	}
	store, err := e.Store(ctx)
	if err != nil {
		return nil, err
	}
	e.reports = report.NewService(store, report.WithLogger(e.Logger), report.WithClock(e.Now))
	return e.reports, nil
}

// Markdown returns a renderer using the ledger currency.
func (e *Env) Markdown(ctx context.Context) (report.Markdown, error) {
	store, err := e.Store(ctx)
	if err != nil {
		return report.Markdown{}, err
	}
	return report.NewMarkdown(store.Settings().Currency), nil
}

// Print writes md to Out, styled for the terminal unless Plain is set.
func (e *Env) Print(md string) error {
	if e.Plain {
		_, err := io.WriteString(e.Out, md)
		return err
	}
	dark := true
	if e.store != nil {
		dark = e.store.Settings().DarkMode
	}
	width := e.Width
	if width <= 0 {
		width = 80
	}
	out, err := report.Terminal(md, dark, width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(e.Out, out)
	return err
}

// Close releases the backend opened by Store.
func (e *Env) Close() error {
	if e.cleanup == nil {
		return nil
	}
	err := e.cleanup()
	e.cleanup = nil
	return err
}
