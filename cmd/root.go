// Package cmd implements the pzxtools command-line surface: one tool per
// tape format conversion, all producing or consuming the PZX pulse-
// stream container.
package cmd

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raxoft/pzxtools/storage"
)

var rootCmd = &cobra.Command{
	Use:   "pzxtools",
	Short: "Convert ZX Spectrum tape images to and from the PZX pulse-stream format",
	Long: `pzxtools converts between ZX Spectrum tape image formats (TAP, TZX, CSW),
the PZX pulse-stream container, its human-readable text dump, and WAV audio.`,
}

// Execute runs the selected subcommand, returning any fatal error it
// produced.
func Execute() error {
	return rootCmd.Execute()
}

// openInput opens name for reading, or stdin when name is empty.
func openInput(name string) (io.ReadCloser, error) {
	if name == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "opening input file")
	}
	return f, nil
}

// openOutput opens name for writing, or stdout when name is empty or "-".
func openOutput(name string) (io.WriteCloser, error) {
	if name == "" || name == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, errors.Wrap(err, "creating output file")
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// readInput reads args[0] (if present) fully, or stdin otherwise.
func readInput(args []string) ([]byte, error) {
	var name string
	if len(args) > 0 {
		name = args[0]
	}
	f, err := openInput(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := storage.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "reading input file")
	}
	return buf.Bytes(), nil
}
