package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fincal/internal/core"
	"fincal/internal/exchange"
	"fincal/internal/ledger"
	"fincal/internal/log"
	"fincal/internal/worker"

	"github.com/google/subcommands"
)

type exportCmd struct {
	format string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the ledger as json or csv" }
func (*exportCmd) Usage() string {
	return `fincal export [-format json|csv] [-o <file or directory>]

  Writes the whole document as JSON, or the operations as CSV. When -o is a
  directory the file is named financial-calendar-<dd-mm-yy>.<format>.
  Without -o the export goes to stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "json", "Export format: json or csv.")
	f.StringVar(&c.output, "o", "", "Output file or directory.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	format := strings.ToLower(c.format)
	if format != "json" && format != "csv" {
		return env.usage("format must be json or csv, got %q", c.format)
	}
	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpExport, err)
	}

	var buf bytes.Buffer
	if format == "json" {
		err = exchange.EncodeJSON(&buf, store.ExportDocument())
	} else {
		err = exchange.EncodeCSV(&buf, store.Operations(ledger.Filter{}))
	}
	if err != nil {
		return env.fail(ctx, log.OpExport, err)
	}

	if c.output == "" {
		if _, err := buf.WriteTo(env.Out); err != nil {
			return env.fail(ctx, log.OpExport, err)
		}
		return subcommands.ExitSuccess
	}
	path := c.output
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, exchange.FileName(env.Now(), format))
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return env.fail(ctx, log.OpExport, err)
	}
	fmt.Fprintf(env.Out, "exported to %s\n", path)
	return subcommands.ExitSuccess
}

type importCmd struct {
	mode string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a json export" }
func (*importCmd) Usage() string {
	return `fincal import [-mode replace|merge] <file>

  Replace swaps the whole ledger for the file contents. Merge keeps the
  current data, adds operations with unknown ids and unions the categories.
  Use - to read from stdin.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mode, "mode", string(ledger.ImportReplace), "Import mode: replace or merge.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	if f.NArg() != 1 {
		return env.usage("import takes one file")
	}
	mode, err := ledger.ParseImportMode(c.mode)
	if err != nil {
		return env.fail(ctx, log.OpImport, err)
	}
	raw, err := readInput(f.Arg(0))
	if err != nil {
		return env.fail(ctx, log.OpImport, err)
	}
	exp, err := exchange.Decode(bytes.NewReader(raw))
	if err != nil {
		return env.fail(ctx, log.OpImport, err)
	}
	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpImport, err)
	}
	res, err := store.ImportDocument(ctx, exp.Document(), mode)
	if err != nil {
		return env.fail(ctx, log.OpImport, err)
	}
	printImport(env.Out, res)
	return subcommands.ExitSuccess
}

type backupCmd struct {
	dir  string
	info bool
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "write a timestamped backup" }
func (*backupCmd) Usage() string {
	return `fincal backup [-dir <directory>] [-info]

  Writes backup-<timestamp>.json into the backup directory and prunes the
  oldest files beyond BACKUP_KEEP. With -info prints the backup summary
  instead.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "Backup directory, defaults to BACKUP_DIR.")
	f.BoolVar(&c.info, "info", false, "Print the last backup time and data size.")
}

func (c *backupCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpBackup, err)
	}

	if c.info {
		info, err := store.BackupInfo(ctx)
		if err != nil {
			return env.fail(ctx, log.OpBackup, err)
		}
		last := "never"
		if info.LastBackup != nil {
			last = info.LastBackup.Local().Format("02.01.06 15:04")
		}
		fmt.Fprintf(env.Out, "last backup: %s\ndata size: %d bytes\noperations: %d\nincome categories: %d\nexpense categories: %d\n",
			last, info.DataSize, info.OperationsCount,
			info.CategoriesCount[core.Income.String()], info.CategoriesCount[core.Expense.String()])
		return subcommands.ExitSuccess
	}

	dir, keep := c.dir, worker.DefaultKeep
	if env.Config != nil {
		if dir == "" {
			dir = env.Config.BackupDir
		}
		keep = env.Config.BackupKeep
	}
	if dir == "" {
		return env.usage("no backup directory, pass -dir or set BACKUP_DIR")
	}
	if _, err := store.CreateBackup(ctx); err != nil {
		return env.fail(ctx, log.OpBackup, err)
	}
	path, err := worker.NewBackupWorker(worker.FromStore(store), dir, keep, env.Logger).Backup(ctx)
	if err != nil {
		return env.fail(ctx, log.OpBackup, err)
	}
	fmt.Fprintf(env.Out, "backup written to %s\n", path)
	return subcommands.ExitSuccess
}

type restoreCmd struct{}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "replace the ledger with a backup" }
func (*restoreCmd) Usage() string {
	return `fincal restore <file>

  Accepts a backup file written by fincal backup, a JSON export, or a backup
  downloaded from the HTTP API. The current data is replaced.
`
}
func (*restoreCmd) SetFlags(*flag.FlagSet) {}

func (*restoreCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	if f.NArg() != 1 {
		return env.usage("restore takes one file")
	}
	raw, err := readInput(f.Arg(0))
	if err != nil {
		return env.fail(ctx, log.OpImport, err)
	}
	// API backups wrap the export in a data field.
	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && len(wrapped.Data) > 0 {
		raw = wrapped.Data
	}
	exp, err := exchange.Decode(bytes.NewReader(raw))
	if err != nil {
		return env.fail(ctx, log.OpImport, err)
	}
	store, err := env.Store(ctx)
	if err != nil {
		return env.fail(ctx, log.OpImport, err)
	}
	res, err := store.RestoreBackup(ctx, ledger.Backup{Data: exp})
	if err != nil {
		return env.fail(ctx, log.OpImport, err)
	}
	printImport(env.Out, res)
	return subcommands.ExitSuccess
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func printImport(w io.Writer, res ledger.ImportResult) {
	fmt.Fprintf(w, "%s: %d operation(s) imported, %d added, %d skipped\n", res.Mode, res.Imported, res.Added, res.Skipped)
}
