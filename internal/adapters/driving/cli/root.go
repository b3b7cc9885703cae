package cli

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tenantctl/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tenantctl/internal/config"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driving"
	"github.com/custodia-labs/tenantctl/internal/logger"
)

// annotationNoConfig marks commands that run without loading configuration.
const annotationNoConfig = "tenantctl/no-config"

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	// configPath overrides the default configuration file.
	configPath string

	// Services holds injected service implementations for CLI commands.
	sessionManager driving.SessionManager
	promptFactory  PromptFactory
	metricsHandler http.Handler

	// loadedConfig is the configuration read before the command ran.
	loadedConfig *config.Config

	serviceBuilder ServiceBuilder
)

// PromptFactory creates a credential prompt for a sign-in method that signs in to
// tenant. Empty method and tenant use the configured ones. deviceCode receives
// device code sign-in instructions.
type PromptFactory func(method, tenant string, deviceCode func(message string)) (driven.CredentialPrompt, error)

// Services holds configuration for CLI commands.
type Services struct {
	Session driving.SessionManager
	Prompts PromptFactory
	// Metrics serves the Prometheus registry. Optional.
	Metrics http.Handler
}

// ServiceBuilder creates the services once configuration has been loaded.
type ServiceBuilder func(cfg *config.Config) (*Services, error)

// SetServices injects service implementations for CLI commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	sessionManager = s.Session
	promptFactory = s.Prompts
	metricsHandler = s.Metrics
}

// SetServiceBuilder registers the function that creates services from configuration.
// It is not called when services were injected with SetServices.
func SetServiceBuilder(b ServiceBuilder) {
	serviceBuilder = b
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "tenantctl",
	Short: "Inspect Microsoft 365 tenants from the terminal",
	Long: `tenantctl signs in to a Microsoft 365 tenant as an administrator and reads its
directory and mail configuration: domains, users, groups, licenses, sites,
shared mailboxes, distribution lists and mail-enabled security groups.

Only one tenant is connected at a time. Switching tenants clears everything
read from the previous one.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.SetOut(os.Stdout)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (default ~/.tenantctl/config.toml)")

	// Load configuration and build services before any command executes
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Annotations[annotationNoConfig] == "true" {
			logger.SetVerbose(verbose)
			return nil
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := logger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
			return err
		}
		if verbose {
			logger.SetVerbose(true)
		}
		loadedConfig = cfg
		if cfg.File != "" {
			logger.Debug("config: loaded %s", cfg.File)
		}

		if sessionManager != nil || serviceBuilder == nil {
			return nil
		}
		s, err := serviceBuilder(cfg)
		if err != nil {
			return err
		}
		SetServices(s)
		return nil
	}
}

// userError presents a session error in operator terms while keeping the cause
// available to errors.Is.
type userError struct {
	err error
}

func (e *userError) Error() string { return messages.Describe(e.err) }

func (e *userError) Unwrap() error { return e.err }

// friendly wraps err for display. The full error is logged at debug level.
func friendly(err error) error {
	if err == nil {
		return nil
	}
	var ue *userError
	if errors.As(err, &ue) {
		return err
	}
	logger.Debug("%v", err)
	return &userError{err: err}
}
