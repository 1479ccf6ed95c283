// Package worker runs the background jobs of the ledger.
package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"fincal/internal/amqp"
	"fincal/internal/core"
	"fincal/internal/exchange"
	"fincal/internal/ledger"
	"fincal/internal/log"
)

const (
	backupPrefix     = "backup-"
	backupExt        = ".json"
	backupTimeLayout = "20060102-150405.000"

	DefaultKeep     = 10
	DefaultDebounce = 5 * time.Second
)

// Source produces the document to back up.
type Source interface {
	Snapshot(ctx context.Context) (core.Export, error)
}

type storeSource struct {
	store *ledger.Store
}

// FromStore reloads store before every snapshot so a worker process sees
// changes made by other processes sharing the backend.
func FromStore(store *ledger.Store) Source {
	return storeSource{store: store}
}

func (s storeSource) Snapshot(ctx context.Context) (core.Export, error) {
	if _, err := s.store.Load(ctx); err != nil {
		return core.Export{}, err
	}
	return s.store.ExportDocument(), nil
}

// BackupWorker writes timestamped exports into a directory and keeps only
// the newest ones.
type BackupWorker struct {
	src      Source
	dir      string
	keep     int
	debounce time.Duration
	logger   *log.Logger
	now      func() time.Time

	pending chan struct{}
}

func NewBackupWorker(src Source, dir string, keep int, logger *log.Logger) *BackupWorker {
	if keep <= 0 {
		keep = DefaultKeep
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &BackupWorker{
		src:      src,
		dir:      dir,
		keep:     keep,
		debounce: DefaultDebounce,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
		pending:  make(chan struct{}, 1),
	}
}

// HandleChange schedules a backup. Bursts of changes collapse into one.
func (w *BackupWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.logger.DebugContext(ctx, "change received", log.FieldEvent, string(msg.Event))
	select {
	case w.pending <- struct{}{}:
	default:
	}
	return nil
}

// Run takes a backup at start, then on every tick of interval and after
// each debounced burst of changes, until ctx is done.
func (w *BackupWorker) Run(ctx context.Context, interval time.Duration) error {
	w.backupAndLog(ctx, "startup")

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var (
		timer   *time.Timer
		settled <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-tick:
			w.backupAndLog(ctx, "interval")
		case <-w.pending:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			settled = timer.C
		case <-settled:
			settled = nil
			w.backupAndLog(ctx, "change")
		}
	}
}

func (w *BackupWorker) backupAndLog(ctx context.Context, reason string) {
	path, err := w.Backup(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "backup failed", "reason", reason, log.FieldError, err)
		return
	}
	w.logger.InfoContext(ctx, "backup written", "reason", reason, log.FieldFile, path)
}

// Backup writes one export and prunes old ones. It returns the new file path.
func (w *BackupWorker) Backup(ctx context.Context) (string, error) {
	snap, err := w.src.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := backupPrefix + w.now().UTC().Format(backupTimeLayout) + backupExt
	path := filepath.Join(w.dir, name)

	tmp, err := os.CreateTemp(w.dir, ".backup-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := exchange.EncodeJSON(tmp, snap); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename backup: %w", err)
	}

	removed, err := w.prune()
	if err != nil {
		w.logger.WarnContext(ctx, "prune failed", log.FieldError, err)
	} else if removed > 0 {
		w.logger.DebugContext(ctx, "pruned old backups", log.FieldCount, removed)
	}
	return path, nil
}

// Backups lists backup files, newest first.
func (w *BackupWorker) Backups() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, backupPrefix) && strings.HasSuffix(n, backupExt) {
			names = append(names, n)
		}
	}
	// the timestamp layout sorts lexically
	slices.Sort(names)
	slices.Reverse(names)
	return names, nil
}

func (w *BackupWorker) prune() (int, error) {
	names, err := w.Backups()
	if err != nil || len(names) <= w.keep {
		return 0, err
	}
	removed := 0
	for _, n := range names[w.keep:] {
		if err := os.Remove(filepath.Join(w.dir, n)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", n, err)
		}
		removed++
	}
	return removed, nil
}
