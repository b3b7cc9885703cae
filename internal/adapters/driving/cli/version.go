package cli

import "github.com/spf13/cobra"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tenantctl version",
	Args:  cobra.NoArgs,
	Annotations: map[string]string{
		annotationNoConfig: "true",
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("tenantctl %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
