package internal

import (
	"fmt"

	"github.com/flang-compiler/flang-build/internal/platform"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Show the detected host settings",
	Long:  `Host prints the detected platform together with the CMake generator and toolchain file a build would use.`,
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runHost,
}

func init() {
	rootCmd.AddCommand(hostCmd)
}

func runHost(cmd *cobra.Command, args []string) error {
	l, err := layout()
	if err != nil {
		return err
	}
	h := platform.Detect()
	toolchain, ok := platform.ToolchainFile(h, l.ToolchainDir, platform.DirLister)
	if !ok {
		toolchain = "(none, looked for " + platform.ToolchainName(h) + ")"
	}

	w := cmd.OutOrStdout()
	row := func(key, value string) {
		fmt.Fprintf(w, "%s %s\n", color.Bold.Sprintf("%-10s", key+":"), value)
	}
	row("os", h.OS)
	row("machine", h.Machine)
	row("generator", platform.Generator(h))
	row("toolchain", toolchain)
	row("flang", l.FlangDir)
	row("libpgmath", l.LibpgmathDir)
	return nil
}
