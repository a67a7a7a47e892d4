package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raxoft/pzxtools/pzx"
	"github.com/raxoft/pzxtools/spectrum/tzx"
)

var tzx2pzxOutput string

var tzx2pzxCmd = &cobra.Command{
	Use:                   "tzx2pzx [FILE]",
	Short:                 "Convert a ZX Spectrum TZX file to PZX",
	Long:                  `Render a TZX tape image (self-describing blocks, including control flow) to PZX.`,
	Args:                  cobra.MaximumNArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args)
		if err != nil {
			return err
		}

		out, err := openOutput(tzx2pzxOutput)
		if err != nil {
			return err
		}
		defer out.Close()

		w := pzx.Open(out)
		if err := tzx.Render(w, data); err != nil {
			return errors.Wrap(err, "tzx2pzx: rendering TZX")
		}
		return w.Close()
	},
}

func init() {
	tzx2pzxCmd.Flags().StringVarP(&tzx2pzxOutput, "output", "o", "", "write output to given file instead of standard output")
	rootCmd.AddCommand(tzx2pzxCmd)
}
