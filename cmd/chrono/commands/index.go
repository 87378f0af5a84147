package commands

import (
	"context"
	"database/sql"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/display"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/index"
	"github.com/teranos/chrono/logger"
	"github.com/teranos/chrono/timeline"
)

// IndexCmd (re)indexes chronology files into the timeline index
var IndexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Index chronology files for cross-chronology queries",
	Long: `Load chronology files and store their records, with axis positions,
in the SQLite timeline index (index.path).

Paths may be files or directories; directories are searched recursively
for *.chrono files. Without paths the storage directory is indexed.

Examples:
  chrono index
  chrono index ./site ./annals/ussher.chrono
  chrono index --list`,
	RunE: runIndex,
}

// BetweenCmd queries the timeline index
var BetweenCmd = &cobra.Command{
	Use:   "between <from> <to>",
	Short: "List indexed records overlapping a span of the time axis",
	Long: `List every indexed record, from every chronology, whose span overlaps
[from, to]. The bounds are axis values unless --calendar is given, in which
case they are dates in that calendar.

Examples:
  chrono between -4003 -2000
  chrono between "5000 BP" "4000 BP" -c "Before Present"`,
	Args: cobra.ExactArgs(2),
	RunE: runBetween,
}

// WatchCmd keeps the timeline index in step with chronology files
var WatchCmd = &cobra.Command{
	Use:   "watch [dir...]",
	Short: "Reindex chronology files as they change",
	Long: `Watch directories (default: the storage directory) and reindex each
chronology file shortly after it is saved. Deleted files leave the index.
Stops on interrupt.`,
	RunE: runWatch,
}

var (
	indexList       bool
	betweenCalendar string
	watchDebounce   time.Duration
)

func init() {
	IndexCmd.Flags().BoolVarP(&indexList, "list", "l", false, "List indexed chronologies without reindexing")
	BetweenCmd.Flags().StringVarP(&betweenCalendar, "calendar", "c", "", "Read the bounds as dates in this calendar")
	WatchCmd.Flags().DurationVar(&watchDebounce, "debounce", index.DefaultDebounce, "Quiet period before a changed file is reindexed")
}

func openIndex(e *env) (*sql.DB, *index.Store, error) {
	db, err := index.OpenWithMigrations(e.cfg.Index.Path, logger.ComponentLogger("index"))
	if err != nil {
		return nil, nil, err
	}
	return db, index.NewStore(db, nil), nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	db, store, err := openIndex(e)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	if !indexList {
		if len(args) == 0 {
			args = []string{e.cfg.Storage.Dir}
		}
		files, err := chronologyFiles(args)
		if err != nil {
			return err
		}
		total, failed := 0, 0
		for _, path := range files {
			n, err := indexFile(ctx, store, path, e.opts)
			if err != nil {
				failed++
				display.Warning(cmd.ErrOrStderr(), "%s: %v", path, err)
				continue
			}
			total += n
		}
		if !display.ShouldOutputJSON(cmd) {
			display.Success(cmd.ErrOrStderr(), "Indexed %d records from %d files", total, len(files)-failed)
		}
	}

	sums, err := store.Chronologies(ctx)
	if err != nil {
		return err
	}
	return display.Render(cmd, sums, func(w io.Writer) error { return display.Summaries(w, sums) })
}

func indexFile(ctx context.Context, store *index.Store, path string, opts chronology.Options) (int, error) {
	c, err := chronology.Load(path, opts)
	if err != nil {
		return 0, err
	}
	return store.Reindex(ctx, c)
}

// chronologyFiles expands directories into the chronology files below them.
func chronologyFiles(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.WrapPersistence(err, "index %s", root)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path != root && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasPrefix(name, ".") && filepath.Ext(name) == chronology.FileExtension {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WrapPersistence(err, "walk %s", root)
		}
	}
	return files, nil
}

func runBetween(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	bounds := make([]timeline.Value, 2)
	for i, s := range args {
		if betweenCalendar == "" {
			bounds[i], err = timeline.Parse(s)
		} else {
			codec, cerr := e.codec(betweenCalendar)
			if cerr != nil {
				return cerr
			}
			bounds[i], err = codec.Encode(s)
		}
		if err != nil {
			return err
		}
	}

	db, store, err := openIndex(e)
	if err != nil {
		return err
	}
	defer db.Close()

	hits, err := store.Between(cmd.Context(), bounds[0], bounds[1])
	if err != nil {
		return err
	}
	return display.Render(cmd, hits, func(w io.Writer) error { return display.Hits(w, hits) })
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	db, store, err := openIndex(e)
	if err != nil {
		return err
	}
	defer db.Close()

	w, err := index.NewWatcher(store, e.opts, nil)
	if err != nil {
		return err
	}
	w.SetDebounce(watchDebounce)
	out := cmd.ErrOrStderr()
	w.OnIndexed(func(path string, n int, err error) {
		if err != nil {
			display.Warning(out, "%s: %v", path, err)
			return
		}
		display.Success(out, "%s: %d records", path, n)
	})

	if len(args) == 0 {
		args = []string{e.cfg.Storage.Dir}
	}
	for _, dir := range args {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	display.Success(out, "Watching %s (Ctrl+C to stop)", strings.Join(args, ", "))
	return w.Run(cmd.Context())
}
