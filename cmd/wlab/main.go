// Command wlab compiles wlang sources to native object files.
package main

import (
	"os"

	"github.com/wlab-lang/wlab/cmd/wlab/cmd"
)

func main() {
	os.Exit(cmd.Main())
}
