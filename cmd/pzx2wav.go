package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raxoft/pzxtools/wav"
)

const cyclesPerSecond = 3_500_000

var (
	pzx2wavOutput     string
	pzx2wavSampleRate uint32
)

var pzx2wavCmd = &cobra.Command{
	Use:                   "pzx2wav [FILE]",
	Short:                 "Render binary PZX to an 8-bit PCM mono WAV file",
	Long:                  `Decode a PZX pulse train and render it as 8-bit PCM mono WAV audio.`,
	Args:                  cobra.MaximumNArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args)
		if err != nil {
			return err
		}

		out, err := openOutput(pzx2wavOutput)
		if err != nil {
			return err
		}
		defer out.Close()

		if pzx2wavSampleRate == 0 {
			return errors.New("sample rate must be nonzero")
		}

		w := wav.Open(out, pzx2wavSampleRate, cyclesPerSecond)
		if err := wav.Render(w, data); err != nil {
			return errors.Wrap(err, "pzx2wav: rendering PZX")
		}
		return w.Close()
	},
}

func init() {
	pzx2wavCmd.Flags().StringVarP(&pzx2wavOutput, "output", "o", "", "write output to given file instead of standard output")
	pzx2wavCmd.Flags().Uint32VarP(&pzx2wavSampleRate, "sample-rate", "s", 44100, "WAV sample rate in Hz")
	rootCmd.AddCommand(pzx2wavCmd)
}
