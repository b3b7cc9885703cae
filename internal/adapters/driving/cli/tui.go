package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/tenantctl/internal/adapters/driving/tui"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
	"github.com/custodia-labs/tenantctl/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Connect to and switch between tenants interactively",
	Long: `Open the interactive session view. Connect to a tenant, browse its cached
collections, refresh them and switch to another tenant without leaving the program.

Log output is discarded while the view is open unless --log-file is set.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

// Flags for tui.
var (
	tuiAuthMethod string
	metricsAddr   string
	logFile       string
)

func init() {
	tuiCmd.Flags().StringVar(&tuiAuthMethod, "auth-method", "",
		"sign-in method: interactive, device-code, client-secret or azure-cli (defaults to auth.method)")
	tuiCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")
	tuiCmd.Flags().StringVar(&logFile, "log-file", "", "append log output to this file")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if sessionManager == nil {
		return errors.New("session manager not configured")
	}
	if !isTerminal(cmd.OutOrStdout()) {
		return errors.New("tui requires an interactive terminal; use connect or list instead")
	}

	restore, err := redirectLogs(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer restore()

	if metricsAddr != "" {
		addr, stop, err := serveMetrics(metricsAddr, metricsHandler)
		if err != nil {
			return err
		}
		defer stop()
		logger.Info("metrics: serving on http://%s/metrics", addr)
	}

	opts := tui.Options{Session: sessionManager}
	if promptFactory != nil {
		opts.Prompts = func(tenant string, deviceCode func(string)) (driven.CredentialPrompt, error) {
			return promptFactory(tuiAuthMethod, tenant, deviceCode)
		}
	}
	runErr := tui.Run(cmd.Context(), opts)
	closeSession(cmd)
	return runErr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// redirectLogs sends log output to --log-file, or discards it, until restore is called.
func redirectLogs(stderr io.Writer) (restore func(), err error) {
	if logFile == "" {
		logger.SetOutput(io.Discard)
		return func() { logger.SetOutput(stderr) }, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(f)
	return func() {
		logger.SetOutput(stderr)
		_ = f.Close()
	}, nil
}

// serveMetrics serves handler at /metrics on addr. It returns the bound address.
func serveMetrics(addr string, handler http.Handler) (string, func(), error) {
	if handler == nil {
		return "", nil, errors.New("metrics not configured")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics: %v", err)
		}
	}()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return ln.Addr().String(), stop, nil
}
