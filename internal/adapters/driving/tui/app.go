// Package tui runs the interactive tenant session terminal UI.
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/tenantctl/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tenantctl/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tenantctl/internal/adapters/driving/tui/views/session"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driving"
)

// PromptFactory creates a credential prompt that signs in to tenant. An empty
// tenant uses the configured one. deviceCode receives device code sign-in instructions.
type PromptFactory func(tenant string, deviceCode func(message string)) (driven.CredentialPrompt, error)

// Options configures Run.
type Options struct {
	Session driving.SessionManager
	Prompts PromptFactory
	// ProgramOptions are passed to tea.NewProgram, after the alternate screen option.
	ProgramOptions []tea.ProgramOption
}

// Run starts the TUI and blocks until the operator quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Session == nil {
		return fmt.Errorf("tui: no session manager")
	}

	var program *tea.Program
	prompt := func(tenant string) (driven.CredentialPrompt, error) {
		if opts.Prompts == nil {
			return nil, fmt.Errorf("tui: no credential prompt configured")
		}
		return opts.Prompts(tenant, func(message string) {
			program.Send(messages.DeviceCode{Message: message})
		})
	}

	view := session.NewView(ctx, styles.DefaultStyles(), opts.Session, prompt)
	programOpts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts.ProgramOptions...)
	program = tea.NewProgram(view, programOpts...)

	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
