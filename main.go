// Command pzxtools converts ZX Spectrum tape images between TAP, TZX,
// CSW, PZX, its text dump, and WAV.
package main

import (
	"github.com/raxoft/pzxtools/cmd"
	"github.com/raxoft/pzxtools/logging"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logging.Fatal("%v", err)
	}
}
