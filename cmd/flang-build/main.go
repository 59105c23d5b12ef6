// Command flang-build configures, builds and installs libpgmath and flang.
package main

import (
	"os"

	"github.com/flang-compiler/flang-build/cmd/flang-build/internal"
)

func main() {
	os.Exit(internal.Execute())
}
