// Command limbo inspects SQLite database files without SQLite.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/thisismiller/limbo"
	"github.com/thisismiller/limbo/conf"
	"github.com/thisismiller/limbo/logger"
	"github.com/thisismiller/limbo/ondisk"
)

var stdout io.Writer = os.Stdout

type Globals struct {
	Config   string `name:"config" short:"c" help:"Path to an ini config file" type:"path"`
	LogLevel string `name:"log-level" help:"Override the configured log level (debug, info, warn, error)"`
}

// CLI defines the command-line interface for limbo.
type CLI struct {
	Globals

	Header HeaderCmd `cmd:"" help:"Print the database header"`
	Page   PageCmd   `cmd:"" help:"Decode one b-tree page"`
	Dump   DumpCmd   `cmd:"" help:"Print the records of every table leaf page"`
}

// open loads the config, sets up logging and opens the database at path.
func (g *Globals) open(path string) (*limbo.DB, error) {
	cfg, err := conf.Load(g.Config)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if g.LogLevel != "" {
		level = g.LogLevel
	}
	if err := logger.Init(logger.LogConfig{Level: level, File: cfg.LogFile}); err != nil {
		return nil, errors.Wrap(err, "init logging")
	}
	db, err := limbo.Open(path, limbo.Options{PoolFrames: cfg.PoolFrames})
	if err != nil {
		return nil, err
	}
	logger.Infof("opened %s: %d pages of %d bytes", path, db.PageCount(), db.Header().PageSizeBytes())
	return db, nil
}

type HeaderCmd struct {
	Path string `arg:"" help:"Database file (.xz snapshots are decompressed)" type:"existingfile"`
}

func (c *HeaderCmd) Run(g *Globals) error {
	db, err := g.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	printHeader(stdout, db.Header())
	if err := db.Header().Validate(); err != nil {
		logger.Warnf("%s: header validation failed: %v", c.Path, err)
		fmt.Fprintf(stdout, "%-22s %v\n", "validation", err)
	}
	return nil
}

func printHeader(w io.Writer, h *ondisk.DatabaseHeader) {
	rows := []struct {
		name  string
		value interface{}
	}{
		{"page size", h.PageSizeBytes()},
		{"write version", h.WriteVersion},
		{"read version", h.ReadVersion},
		{"reserved space", h.ReservedSpace},
		{"usable size", h.UsableSize()},
		{"change counter", h.ChangeCounter},
		{"database size", h.DatabaseSize},
		{"freelist trunk", h.FreelistTrunk},
		{"freelist count", h.FreelistCount},
		{"schema cookie", h.SchemaCookie},
		{"schema format", h.SchemaFormat},
		{"default cache size", h.DefaultCacheSize},
		{"largest root page", h.LargestRootPage},
		{"text encoding", ondisk.TextEncoding(h.TextEncoding)},
		{"user version", h.UserVersion},
		{"incremental vacuum", h.IncrementalVacuum},
		{"application id", h.ApplicationID},
		{"version valid for", h.VersionValidFor},
		{"sqlite version", h.VersionNumber},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-22s %v\n", r.name, r.value)
	}
}

type PageCmd struct {
	Path   string `arg:"" help:"Database file (.xz snapshots are decompressed)" type:"existingfile"`
	PageNo int    `arg:"" name:"page" help:"Page number, starting at 1"`
}

func (c *PageCmd) Run(g *Globals) error {
	db, err := g.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	page, err := db.ReadPage(c.PageNo)
	if err != nil {
		return errors.WithMessagef(err, "page %d", c.PageNo)
	}
	digest, err := db.PageDigest(c.PageNo)
	if err != nil {
		return err
	}
	printPage(stdout, c.PageNo, page)
	fmt.Fprintf(stdout, "blake3 %s\n", digest)
	return nil
}

func printPage(w io.Writer, pageNo int, page *ondisk.BTreePage) {
	h := page.Header
	fmt.Fprintf(w, "page %d: %s, %d cells, content at %d, %d fragmented bytes\n",
		pageNo, h.Type, h.CellCount, h.CellContentArea, h.FragmentedFreeBytes)
	if h.RightMostPointer != nil {
		fmt.Fprintf(w, "right-most pointer %d\n", *h.RightMostPointer)
	}
	for i, c := range page.Cells {
		switch c := c.(type) {
		case *ondisk.TableLeafCell:
			fmt.Fprintf(w, "  [%d] @%d rowid=%d %s\n", i, page.CellPointers[i], c.Rowid, formatRecord(c.Record))
		default:
			fmt.Fprintf(w, "  [%d] @%d %T\n", i, page.CellPointers[i], c)
		}
	}
}

func formatRecord(r ondisk.Record) string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = ondisk.FormatValue(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type DumpCmd struct {
	Path string `arg:"" help:"Database file (.xz snapshots are decompressed)" type:"existingfile"`
}

func (c *DumpCmd) Run(g *Globals) error {
	db, err := g.open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	return dump(stdout, db)
}

// dump prints every table leaf page. Pages that fail to decode are logged
// and skipped.
func dump(w io.Writer, db *limbo.DB) error {
	var failed int
	for n := 1; n <= db.PageCount(); n++ {
		h, err := db.ReadPageHeader(n)
		if err != nil {
			// overflow and freelist pages have no b-tree header
			logger.WithFields(logrus.Fields{"page": n}).Debugf("not a b-tree page: %v", err)
			continue
		}
		if h.Type != ondisk.PageTypeTableLeaf {
			continue
		}
		page, err := db.ReadPage(n)
		if err != nil {
			failed++
			logger.Errorf("skipping page %d: %v", n, err)
			continue
		}
		fmt.Fprintf(w, "page %d\n", n)
		for _, cell := range page.Cells {
			if leaf, ok := cell.(*ondisk.TableLeafCell); ok {
				fmt.Fprintf(w, "  %d %s\n", leaf.Rowid, formatRecord(leaf.Record))
			}
		}
	}
	if failed > 0 {
		return errors.Errorf("%d pages could not be decoded", failed)
	}
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("limbo"),
		kong.Description("Read SQLite database files page by page"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
