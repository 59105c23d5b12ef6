package internal

import (
	"fmt"
	"os"

	"github.com/flang-compiler/flang-build/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [install-prefix]",
	Short: "Write a defaults file",
	Long: `Init writes a defaults file holding the default build settings, so that
later runs need no flags. The file goes to --config, or to the script
directory when --config is not given.`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

func defaultFile(prefix string) *config.File {
	return &config.File{
		BuildDir:      config.DefaultBuildDir,
		BuildType:     config.DefaultBuildType,
		CMakeParams:   []string{},
		InstallPrefix: prefix,
		Target:        string(config.DefaultTarget),
		Jobs:          config.DefaultJobs,
		CMake:         config.DefaultCMake,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	l, err := layout()
	if err != nil {
		return err
	}
	path, _ := configPath(l)

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	var prefix string
	if len(args) == 1 {
		prefix = args[0]
	}
	data, err := yaml.Marshal(defaultFile(prefix))
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
