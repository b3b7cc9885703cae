// Package styles holds the lipgloss styles shared by the TUI views.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
)

// Palette colours.
const (
	colourAccent  = lipgloss.Color("63")
	colourMuted   = lipgloss.Color("245")
	colourOK      = lipgloss.Color("42")
	colourWarn    = lipgloss.Color("214")
	colourError   = lipgloss.Color("196")
	colourSubtle  = lipgloss.Color("238")
	colourInverse = lipgloss.Color("230")
)

// Styles groups the styles of one theme.
type Styles struct {
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Help      lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Panel     lipgloss.Style

	states  map[domain.SessionState]lipgloss.Style
	sources map[domain.DataSource]lipgloss.Style
}

// DefaultStyles returns the default theme.
func DefaultStyles() *Styles {
	badge := lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(colourInverse)
	return &Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(colourAccent),
		Label:     lipgloss.NewStyle().Foreground(colourMuted).Width(14),
		Value:     lipgloss.NewStyle(),
		Muted:     lipgloss.NewStyle().Foreground(colourMuted),
		Error:     lipgloss.NewStyle().Foreground(colourError),
		Warning:   lipgloss.NewStyle().Foreground(colourWarn),
		Help:      lipgloss.NewStyle().Foreground(colourMuted).MarginTop(1),
		Tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(colourMuted),
		ActiveTab: lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true).Foreground(colourAccent),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colourSubtle).
			Padding(0, 1),
		states: map[domain.SessionState]lipgloss.Style{
			domain.StateDisconnected:  badge.Background(colourSubtle),
			domain.StateConnecting:    badge.Background(colourWarn),
			domain.StateConnected:     badge.Background(colourOK),
			domain.StateDisconnecting: badge.Background(colourWarn),
		},
		sources: map[domain.DataSource]lipgloss.Style{
			domain.DataSourceLive:     lipgloss.NewStyle().Foreground(colourOK),
			domain.DataSourcePartial:  lipgloss.NewStyle().Foreground(colourWarn),
			domain.DataSourceFallback: lipgloss.NewStyle().Foreground(colourError),
		},
	}
}

// State renders a session state badge.
func (s *Styles) State(state domain.SessionState) string {
	style, ok := s.states[state]
	if !ok {
		style = s.Muted
	}
	return style.Render(state.String())
}

// Source renders a data source tag.
func (s *Styles) Source(source domain.DataSource) string {
	style, ok := s.sources[source]
	if !ok {
		style = s.Muted
	}
	return style.Render(string(source))
}
