package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"remtorpx/archive"
	"remtorpx/css"
	"remtorpx/state"
	"remtorpx/transform"
)

// StdioName is used instead of source path to read stylesheet from standard
// input and write result to standard output.
const StdioName = "-"

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}

	env.NoDirs, env.Overwrite, env.Repack = cmd.Bool("nodirs"), cmd.Bool("overwrite"), cmd.Bool("repack")
	if p := cmd.String("platform"); len(p) > 0 {
		env.Platform = p
	}

	// processor validates rewriting configuration, fail early before touching any files
	if _, err := env.Processor(); err != nil {
		return err
	}

	if src == StdioName {
		if cmd.Args().Len() > 1 {
			log.Warn("Mailformed command line, destination is ignored when reading standard input", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
		}
		return processStream(ctx, os.Stdin, os.Stdout, log)
	}

	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst),
		zap.String("from", env.Cfg.Rewrite.SourceUnit), zap.String("to", env.Cfg.Rewrite.TargetUnit))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := processArchive(ctx, head, tail, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if env.Cfg.Files.HasExtension(head) && len(tail) == 0 {
			// stylesheet cannot have tail
			if err := processFile(ctx, head, filepath.Base(head), dst, log); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as stylesheet (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding stylesheets and archives and
// processes them.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	env := state.EnvFromContext(ctx)

	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		if !env.Cfg.Files.HasExtension(path) {
			log.Debug("Skipping file, not recognized as stylesheet or archive", zap.String("file", path))
			return nil
		}

		count++

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processFile(ctx, path, src, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds stylesheets under
// "pathIn" and processes them. When repacking is requested archive is
// rewritten as a whole instead.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Repack {
		return repackArchive(ctx, path, pathIn, pathOut, dst, log)
	}

	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	err = archive.Walk(path, pathIn, func(archive string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !env.Cfg.Files.HasExtension(f.FileHeader.Name) {
			log.Debug("Skipping file, not recognized as stylesheet", zap.String("archive", archive), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		pathInArchive := f.FileHeader.Name
		if cp := env.CodePage; cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}
		if err := processStyle(ctx, r, filepath.Join(pathOut, filepath.FromSlash(pathInArchive)), dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

func processFile(ctx context.Context, path, src, dst string, log *zap.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// output may replace the source, keep it as it was
	if err := state.EnvFromContext(ctx).Rpt.StoreCopy("sources/"+filepath.ToSlash(src), path); err != nil {
		log.Warn("Unable to store source in report", zap.String("file", path), zap.Error(err))
	}
	return processStyle(ctx, file, src, dst, log)
}

// processStyle processes single stylesheet. "src" is part of the source path
// (always including file name) relative to the original path. When actual file
// was specified it will be just base file name without a path. When looking
// inside archive or directory it will be relative path inside archive or
// directory (including base file name). "dst" is the destination directory
// where the converted file should be written.
func processStyle(ctx context.Context, r io.Reader, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Debug("Conversion starting", zap.String("from", src))
	defer func(start time.Time) {
		// one broken stylesheet must not stop processing of the rest
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		}
	}(time.Now())

	data, res, err := convertStylesheet(ctx, r, src, log)
	if err != nil {
		return err
	}

	// Determine output file name and path based on input and configuration.
	outputName = buildOutputPath(src, dst, env)
	if err := prepareOutput(outputName, env.Overwrite, log); err != nil {
		return err
	}
	if err := os.WriteFile(outputName, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	logResult(log, src, outputName, res)

	// Store conversion result for debugging
	env.Rpt.Store("results/"+filepath.ToSlash(src), outputName)
	return nil
}

// processStream converts single stylesheet from r to w.
func processStream(ctx context.Context, r io.Reader, w io.Writer, log *zap.Logger) error {
	data, res, err := convertStylesheet(ctx, r, StdioName, log)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	logResult(log, StdioName, StdioName, res)
	return nil
}

// convertStylesheet reads, parses and transforms stylesheet returning
// resulting text.
func convertStylesheet(ctx context.Context, r io.Reader, src string, log *zap.Logger) ([]byte, transform.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, transform.Result{}, err
	}
	env := state.EnvFromContext(ctx)

	p, err := env.Processor()
	if err != nil {
		return nil, transform.Result{}, err
	}

	data, enc, err := decodeStylesheet(r)
	if err != nil {
		return nil, transform.Result{}, fmt.Errorf("unable to read stylesheet (%s): %w", src, err)
	}
	if len(enc) > 0 {
		log.Debug("Stylesheet decoded", zap.String("file", src), zap.String("encoding", enc))
	}

	root, err := css.NewParser(log).Parse(data, src)
	if err != nil {
		return nil, transform.Result{}, fmt.Errorf("unable to parse stylesheet (%s): %w", src, err)
	}

	res := p.Process(root)
	if env.Rpt != nil {
		env.Rpt.StoreData("trees/"+filepath.ToSlash(src)+".txt", []byte(css.Dump(root)))
	}

	buf := new(bytes.Buffer)
	if _, err := root.WriteTo(buf); err != nil {
		return nil, transform.Result{}, err
	}
	return buf.Bytes(), res, nil
}

// prepareOutput makes sure output file could be written.
func prepareOutput(outputName string, overwrite bool, log *zap.Logger) error {
	if _, err := os.Stat(outputName); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

func logResult(log *zap.Logger, src, dst string, res transform.Result) {
	if res.Disabled {
		log.Info("Conversion disabled by stylesheet", zap.String("from", src), zap.String("to", dst))
		return
	}
	log.Info("Conversion completed", zap.String("from", src), zap.String("to", dst),
		zap.Int("rewritten", res.Rewritten), zap.Int("inserted", res.Inserted),
		zap.Int("media", res.Media), zap.Int("removed", res.Removed))
}
