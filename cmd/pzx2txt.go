package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raxoft/pzxtools/spectrum/pzxtxt"
)

var (
	pzx2txtOutput   string
	pzx2txtPulses   bool
	pzx2txtAscii    bool
	pzx2txtHeaders  bool
	pzx2txtSkipData bool
	pzx2txtExpand   bool
	pzx2txtAnnotate bool
)

var pzx2txtCmd = &cobra.Command{
	Use:                   "pzx2txt [FILE]",
	Short:                 "Convert binary PZX to a readable text dump",
	Long:                  `Render a PZX binary stream as the line-oriented PZX text dump.`,
	Args:                  cobra.MaximumNArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args)
		if err != nil {
			return err
		}

		out, err := openOutput(pzx2txtOutput)
		if err != nil {
			return err
		}
		defer out.Close()

		opts := pzxtxt.DumpOptions{
			DumpPulses:     pzx2txtPulses,
			DumpAscii:      pzx2txtAscii,
			DumpHeaders:    pzx2txtHeaders,
			SkipData:       pzx2txtSkipData,
			ExpandPulses:   pzx2txtExpand,
			AnnotatePulses: pzx2txtAnnotate,
		}
		if err := pzxtxt.Dump(out, data, opts); err != nil {
			return errors.Wrap(err, "pzx2txt: dumping PZX")
		}
		return nil
	},
}

func init() {
	pzx2txtCmd.Flags().StringVarP(&pzx2txtOutput, "output", "o", "", "write output to given file instead of standard output")
	pzx2txtCmd.Flags().BoolVarP(&pzx2txtPulses, "pulses", "p", false, "dump bytes in data blocks as pulses")
	pzx2txtCmd.Flags().BoolVarP(&pzx2txtAscii, "ascii", "a", false, "dump bytes in data blocks as ASCII characters when possible")
	pzx2txtCmd.Flags().BoolVarP(&pzx2txtHeaders, "headers", "x", false, "dump bytes in data blocks as headers when possible")
	pzx2txtCmd.Flags().BoolVarP(&pzx2txtSkipData, "skip-data", "d", false, "don't dump content of data blocks")
	pzx2txtCmd.Flags().BoolVarP(&pzx2txtExpand, "expand", "e", false, "expand pulses, dumping each one on a separate line")
	pzx2txtCmd.Flags().BoolVarP(&pzx2txtAnnotate, "level", "l", false, "print initial level of each pulse dumped")
	rootCmd.AddCommand(pzx2txtCmd)
}
