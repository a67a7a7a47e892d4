package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raxoft/pzxtools/pzx"
	"github.com/raxoft/pzxtools/spectrum/csw"
)

var csw2pzxOutput string

var csw2pzxCmd = &cobra.Command{
	Use:                   "csw2pzx [FILE]",
	Short:                 "Convert a Compressed Square Wave file to PZX",
	Long:                  `Render a CSW (raw or DEFLATE-compressed square wave) file to PZX.`,
	Args:                  cobra.MaximumNArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args)
		if err != nil {
			return err
		}

		out, err := openOutput(csw2pzxOutput)
		if err != nil {
			return err
		}
		defer out.Close()

		w := pzx.Open(out)
		if _, err := csw.Render(w, data); err != nil {
			return errors.Wrap(err, "csw2pzx: rendering CSW")
		}
		return w.Close()
	},
}

func init() {
	csw2pzxCmd.Flags().StringVarP(&csw2pzxOutput, "output", "o", "", "write output to given file instead of standard output")
	rootCmd.AddCommand(csw2pzxCmd)
}
