package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tenantctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Long: `Print the configuration after defaults, the configuration file and
TENANTCTL_* environment variables have been applied. The client secret is redacted.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default configuration file path",
	Args:  cobra.NoArgs,
	Annotations: map[string]string{
		annotationNoConfig: "true",
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		cmd.Println(path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if loadedConfig == nil {
		return errors.New("configuration not loaded")
	}
	if loadedConfig.File != "" {
		cmd.Printf("# %s\n", loadedConfig.File)
	}
	out, err := config.Render(loadedConfig)
	if err != nil {
		return err
	}
	cmd.Print(string(out))
	return nil
}
