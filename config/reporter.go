package config

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	fixzip "github.com/hidez8891/zip"
	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"remtorpx/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{entries: make(map[string]entry), file: f}, nil
}

type entryKind int

const (
	// file is read when report is finalized
	kindFile entryKind = iota
	// data is kept in memory
	kindData
	// snapshot of the file taken when it was stored
	kindCopy
)

func (k entryKind) String() string {
	switch k {
	case kindFile:
		return "file"
	case kindData:
		return "data"
	case kindCopy:
		return "copy"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

type entry struct {
	kind   entryKind
	origin string
	path   string
	stamp  time.Time
	data   []byte
}

// Report accumulates stylesheets, parsed trees, logs and configuration to be
// packed into a single archive for troubleshooting.
// NOTE: presently not to be used concurrently!
type Report struct {
	entries map[string]entry
	// lazily created directory for snapshots
	copies string
	file   *os.File
}

// Close finalizes debug report. Calling it on nil report is a no-op, which
// means no report has been requested.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}

	err := multierr.Combine(r.finalize(), r.file.Close())
	if r.copies != "" {
		if e := os.RemoveAll(r.copies); e != nil {
			err = multierr.Append(err, fmt.Errorf("unable to remove temporary copies: %w", e))
		}
	}
	return err
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers path to the file to be put in the final archive later.
// Files absent at that time are ignored.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if old, exists := r.entries[name]; exists && old.origin != path {
		panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, old.origin, path))
	}

	e := entry{kind: kindFile, origin: path, path: path}
	if p, err := filepath.Abs(path); err == nil {
		e.path = p
	}
	r.entries[name] = e
}

// StoreData saves binary data to be put in the final archive later as a file
// under requested name. Names are versioned when necessary, so the same name
// could be used multiple times.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	e := entry{kind: kindData, data: data, stamp: time.Now()}
	r.entries[r.versioned(name, e.stamp)] = e
}

// StoreCopy takes a snapshot of the regular file, so later modifications (in
// place conversion for example) do not affect the report.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("unable to copy %s: not a regular file", path)
	}

	if r.copies == "" {
		if r.copies, err = os.MkdirTemp("", misc.GetAppName()+"-r-"); err != nil {
			return err
		}
	}

	e := entry{kind: kindCopy, origin: path, stamp: info.ModTime()}
	e.path = filepath.Join(r.copies, strconv.Itoa(len(r.entries))+filepath.Ext(path))
	if err := snapshot(path, e.path); err != nil {
		return fmt.Errorf("unable to copy %s: %w", path, err)
	}
	r.entries[r.versioned(name, time.Now())] = e
	return nil
}

func (r *Report) versioned(name string, stamp time.Time) string {
	if _, exists := r.entries[name]; exists {
		return fmt.Sprintf("%s-%d", name, stamp.UnixNano())
	}
	return name
}

func snapshot(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	_, err = io.Copy(out, in)
	return err
}

// finalize writes MANIFEST followed by all stored entries in the same order.
func (r *Report) finalize() error {
	arc := fixzip.NewWriter(r.file)

	names := slices.SortedFunc(maps.Keys(r.entries), compareNatural)
	if err := writeEntry(arc, "MANIFEST", time.Now(), bytes.NewReader(manifest(names, r.entries))); err != nil {
		return multierr.Append(err, arc.Close())
	}

	for _, name := range names {
		if err := r.writeStored(arc, name); err != nil {
			return multierr.Append(err, arc.Close())
		}
	}
	return arc.Close()
}

func (r *Report) writeStored(arc *fixzip.Writer, name string) error {
	e := r.entries[name]
	if e.kind == kindData {
		return writeEntry(arc, name, e.stamp, bytes.NewReader(e.data))
	}

	info, err := os.Stat(e.path)
	if err != nil || !info.Mode().IsRegular() {
		// absent, directories, links and such
		return nil
	}
	f, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer f.Close()

	stamp := info.ModTime()
	if e.kind == kindCopy {
		stamp = e.stamp
	}
	return writeEntry(arc, name, stamp, f)
}

// so "file-2.css" goes before "file-10.css"
func compareNatural(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	default:
		return 0
	}
}

func manifest(names []string, entries map[string]entry) []byte {
	now := time.Now()

	var buf bytes.Buffer
	for _, name := range names {
		e := entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(&buf, "%s\t%s\t%s\t%s\n", stamp.UTC().Format(time.UnixDate), name, e.kind, e.origin)
	}
	return buf.Bytes()
}

func writeEntry(arc *fixzip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := arc.CreateHeader(&fixzip.FileHeader{Name: name, Method: fixzip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
