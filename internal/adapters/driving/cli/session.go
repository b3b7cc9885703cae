package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	sessionview "github.com/custodia-labs/tenantctl/internal/adapters/driving/tui/views/session"
	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driving"
	"github.com/custodia-labs/tenantctl/internal/logger"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Sign in to a tenant and summarise what it contains",
	Long: `Sign in to a Microsoft 365 tenant, read every directory and mail collection
and print a summary. The session is closed before the command exits.

Collections that cannot be read are reported as fallback and left empty.

Examples:
  # Sign in with the browser and pick the tenant at sign-in
  tenantctl connect

  # Sign in to a specific tenant with a device code
  tenantctl connect --tenant contoso.com --auth-method device-code`,
	Args: cobra.NoArgs,
	RunE: runConnect,
}

var listCmd = &cobra.Command{
	Use:   "list [collection]",
	Short: "Sign in to a tenant and list one collection",
	Long: `Sign in to a Microsoft 365 tenant and print every object of one collection.

Collections: ` + strings.Join(collectionNames(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: collectionNames(),
	RunE:      runList,
}

// Flags for connect and list.
var (
	tenantHint string
	authMethod string
)

func init() {
	for _, cmd := range []*cobra.Command{connectCmd, listCmd} {
		cmd.Flags().StringVar(&tenantHint, "tenant", "",
			"tenant domain or id to sign in to (defaults to auth.tenant)")
		cmd.Flags().StringVar(&authMethod, "auth-method", "",
			"sign-in method: interactive, device-code, client-secret or azure-cli (defaults to auth.method)")
	}
	rootCmd.AddCommand(connectCmd, listCmd)
}

func runConnect(cmd *cobra.Command, _ []string) error {
	state, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer closeSession(cmd)

	printConnection(cmd, state)
	if result, ok := sessionManager.LastDiscovery(); ok {
		cmd.Println()
		printDiscovery(cmd, result)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	c, ok := domain.ParseCollection(args[0])
	if !ok {
		return fmt.Errorf("unknown collection %q (want one of %s)", args[0], strings.Join(collectionNames(), ", "))
	}

	if _, err := openSession(cmd); err != nil {
		return err
	}
	defer closeSession(cmd)

	if result, ok := sessionManager.LastDiscovery(); ok && result.Sources[c] != domain.DataSourceLive {
		cmd.PrintErrf("Warning: %s could not be read from the tenant (%s).\n", c, result.Sources[c])
	}

	rows := sessionview.Rows(sessionManager.Cache(), c)
	if len(rows) == 0 {
		cmd.Printf("No %s.\n", c)
		return nil
	}
	for _, r := range rows {
		cmd.Println(r)
	}
	return nil
}

// openSession connects using the command's flags and the loaded configuration.
func openSession(cmd *cobra.Command) (domain.ConnectionState, error) {
	if sessionManager == nil {
		return domain.ConnectionState{}, errors.New("session manager not configured")
	}
	if promptFactory == nil {
		return domain.ConnectionState{}, errors.New("credential prompt not configured")
	}

	hint := tenantHint
	if hint == "" && loadedConfig != nil {
		hint = loadedConfig.Auth.Tenant
	}

	prompt, err := promptFactory(authMethod, hint, func(message string) {
		cmd.PrintErrln(message)
	})
	if err != nil {
		return domain.ConnectionState{}, err
	}

	state, err := sessionManager.Connect(cmd.Context(), driving.ConnectRequest{Prompt: prompt, TenantHint: hint})
	if err != nil {
		return state, friendly(err)
	}
	return state, nil
}

// closeSession ends the session even when the command's context was cancelled.
func closeSession(cmd *cobra.Command) {
	if err := sessionManager.Close(context.WithoutCancel(cmd.Context())); err != nil {
		logger.Warn("session: close: %v", err)
	}
}

func printConnection(cmd *cobra.Command, state domain.ConnectionState) {
	name := state.TenantName
	if name == "" {
		name = state.TenantID
	}
	if state.DefaultDomain != "" {
		name += " (" + state.DefaultDomain + ")"
	}
	cmd.Printf("Connected to %s\n", name)
	cmd.Printf("  Tenant ID:    %s\n", state.TenantID)
	cmd.Printf("  Signed in as: %s\n", state.Principal)
	cmd.Printf("  Directory:    %s\n", connected(state.DirectoryConnected))
	cmd.Printf("  Mail:         %s\n", connected(state.MailConnected))
}

func printDiscovery(cmd *cobra.Command, result domain.DiscoveryResult) {
	cmd.Println("Collections:")
	for _, c := range domain.AllCollections() {
		cmd.Printf("  %-22s %6d  %s\n", c, result.Counts[c], result.Sources[c])
	}
	cmd.Printf("  %-22s %6d  %s\n", "total", result.Total(), result.DataSource)
	if len(result.Warnings) > 0 {
		cmd.Println()
		cmd.Println("Warnings:")
		for _, w := range result.Warnings {
			cmd.Printf("  - %s\n", w)
		}
	}
}

func connected(ok bool) string {
	if ok {
		return "connected"
	}
	return "not connected"
}

func collectionNames() []string {
	all := domain.AllCollections()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = string(c)
	}
	return names
}
