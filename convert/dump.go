package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"remtorpx/css"
	"remtorpx/state"
)

// DumpTree prints parsed stylesheet tree, after processing unless raw view is
// requested.
func DumpTree(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("dumptree")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if p := cmd.String("platform"); len(p) > 0 {
		env.Platform = p
	}

	var r io.Reader = os.Stdin
	if src != StdioName {
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("unable to open stylesheet: %w", err)
		}
		defer f.Close()
		r = f
	}

	return dumpTree(ctx, r, os.Stdout, src, cmd.Bool("raw"), log)
}

func dumpTree(ctx context.Context, r io.Reader, w io.Writer, src string, raw bool, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	data, _, err := decodeStylesheet(r)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet (%s): %w", src, err)
	}

	root, err := css.NewParser(log).Parse(data, src)
	if err != nil {
		return fmt.Errorf("unable to parse stylesheet (%s): %w", src, err)
	}

	if !raw {
		p, err := env.Processor()
		if err != nil {
			return err
		}
		res := p.Process(root)
		log.Debug("Stylesheet processed", zap.String("file", src), zap.Any("result", res))
	}

	_, err = io.WriteString(w, css.Dump(root))
	return err
}
