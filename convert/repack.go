package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"remtorpx/archive"
	"remtorpx/state"
)

// repackArchive writes a copy of the archive where stylesheets under "pathIn"
// are converted. Everything else is copied as is without recompression.
func repackArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	outputName := buildOutputPath(filepath.Join(pathOut, filepath.Base(path)), dst, env)
	if err := prepareOutput(outputName, env.Overwrite, log); err != nil {
		return err
	}

	log.Info("Repacking archive", zap.String("from", path), zap.String("to", outputName))
	defer func(start time.Time) {
		if rerr == nil {
			log.Info("Repacking completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	r, err := fixzip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", path, err)
	}
	defer r.Close()

	// output may replace source archive, build it aside first
	out, err := os.CreateTemp(filepath.Dir(outputName), "."+filepath.Base(outputName)+".*")
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", outputName, err)
	}
	defer func() {
		if rerr != nil {
			out.Close()
			os.Remove(out.Name())
		}
	}()

	w := fixzip.NewWriter(out)

	converted := 0
	for _, file := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !archive.IsSafePath(file.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", file.Name)
		}

		if file.FileInfo().IsDir() || !strings.HasPrefix(file.Name, pathIn) || !env.Cfg.Files.HasExtension(file.Name) {
			if err := copyEntry(w, file); err != nil {
				return fmt.Errorf("unable to write target file (%s): %w", outputName, err)
			}
			continue
		}

		data, err := convertEntry(ctx, file, log)
		if err != nil {
			log.Error("Unable to convert file in archive, keeping original",
				zap.String("archive", path), zap.String("file", file.Name), zap.Error(err))
			if err := copyEntry(w, file); err != nil {
				return fmt.Errorf("unable to write target file (%s): %w", outputName, err)
			}
			continue
		}

		fw, err := w.CreateHeader(&fixzip.FileHeader{
			Name:     file.Name,
			Comment:  file.Comment,
			Method:   fixzip.Deflate,
			Modified: file.Modified,
		})
		if err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", outputName, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", outputName, err)
		}
		converted++
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("unable to finalize target file (%s): %w", outputName, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("unable to finalize target file (%s): %w", outputName, err)
	}
	if err := os.Rename(out.Name(), outputName); err != nil {
		return fmt.Errorf("unable to replace target file (%s): %w", outputName, err)
	}

	log.Debug("Archive stylesheets converted", zap.String("archive", path), zap.Int("count", converted))
	env.Rpt.Store("results/"+filepath.ToSlash(filepath.Join(pathOut, filepath.Base(path))), outputName)
	return nil
}

func copyEntry(w *fixzip.Writer, file *fixzip.File) error {
	// unset data descriptor flag.
	file.Flags &= ^fixzip.FlagDataDescriptor
	return w.CopyFile(file)
}

func convertEntry(ctx context.Context, file *fixzip.File, log *zap.Logger) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, _, err := convertStylesheet(ctx, rc, file.Name, log)
	return data, err
}
