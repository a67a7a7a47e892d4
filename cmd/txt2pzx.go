package cmd

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raxoft/pzxtools/pzx"
	"github.com/raxoft/pzxtools/spectrum/pzxtxt"
)

var (
	txt2pzxOutput   string
	txt2pzxPreserve bool
)

var txt2pzxCmd = &cobra.Command{
	Use:                   "txt2pzx [FILE]",
	Short:                 "Convert a PZX text dump back to binary PZX",
	Long:                  `Parse the line-oriented PZX text dump produced by pzx2txt and replay it as binary PZX.`,
	Args:                  cobra.MaximumNArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args)
		if err != nil {
			return err
		}

		out, err := openOutput(txt2pzxOutput)
		if err != nil {
			return err
		}
		defer out.Close()

		w := pzx.Open(out)
		opts := pzxtxt.ParseOptions{PreservePulses: txt2pzxPreserve}
		if err := pzxtxt.Parse(w, bytes.NewReader(data), opts); err != nil {
			return errors.Wrap(err, "txt2pzx: parsing text dump")
		}
		return w.Close()
	},
}

func init() {
	txt2pzxCmd.Flags().StringVarP(&txt2pzxOutput, "output", "o", "", "write output to given file instead of standard output")
	txt2pzxCmd.Flags().BoolVarP(&txt2pzxPreserve, "preserve-pulses", "p", false, "store pulse sequences exactly as specified")
	rootCmd.AddCommand(txt2pzxCmd)
}
