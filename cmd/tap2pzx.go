package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raxoft/pzxtools/pzx"
	"github.com/raxoft/pzxtools/spectrum/tap"
	"github.com/raxoft/pzxtools/tape"
)

var (
	tap2pzxOutput string
	tap2pzxPause  uint32
)

const maxPauseMs = 10 * 60 * 1000

var tap2pzxCmd = &cobra.Command{
	Use:                   "tap2pzx [FILE]",
	Short:                 "Convert a ZX Spectrum TAP file to PZX",
	Long:                  `Render a TAP tape image (concatenated, length-prefixed ROM-loader blocks) to PZX.`,
	Args:                  cobra.MaximumNArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args)
		if err != nil {
			return err
		}

		out, err := openOutput(tap2pzxOutput)
		if err != nil {
			return err
		}
		defer out.Close()

		if tap2pzxPause > maxPauseMs {
			return errors.Errorf("pause of %dms exceeds the 10 minute limit", tap2pzxPause)
		}

		w := pzx.Open(out)
		opts := tap.Options{}
		if tap2pzxPause > 0 {
			opts.PauseCycles = tap2pzxPause * tape.MillisecondCycles
		}
		if err := tap.Render(w, data, opts); err != nil {
			return errors.Wrap(err, "tap2pzx: rendering TAP")
		}
		return w.Close()
	},
}

func init() {
	tap2pzxCmd.Flags().StringVarP(&tap2pzxOutput, "output", "o", "", "write output to given file instead of standard output")
	tap2pzxCmd.Flags().Uint32VarP(&tap2pzxPause, "pause", "p", 0, "inter-block pause in milliseconds")
	rootCmd.AddCommand(tap2pzxCmd)
}
