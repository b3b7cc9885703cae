// Package session implements the tenant session view: connect, browse the
// cached collections, refresh and switch tenants.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/tenantctl/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tenantctl/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driving"
)

const defaultRows = 15

// PromptFunc creates the credential prompt for a connect attempt to tenant.
type PromptFunc func(tenant string) (driven.CredentialPrompt, error)

// View is the tenant session view.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	session driving.SessionManager
	prompt  PromptFunc

	spinner spinner.Model
	tenant  textinput.Model
	editing bool

	// pending names the operation in flight, empty when idle.
	pending string
	cancel  context.CancelFunc

	selected   int
	deviceCode string
	status     string
	err        error
	height     int
}

// NewView creates the session view. ctx bounds every operation the view starts.
func NewView(ctx context.Context, s *styles.Styles, session driving.SessionManager, prompt PromptFunc) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	ti := textinput.New()
	ti.Placeholder = "contoso.com"
	ti.Prompt = "Tenant: "
	ti.CharLimit = 253

	return &View{
		ctx:     ctx,
		styles:  s,
		session: session,
		prompt:  prompt,
		spinner: sp,
		tenant:  ti,
	}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (v *View) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		if v.pending == "" {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.DeviceCode:
		v.deviceCode = msg.Message
		return v, nil

	case messages.Connected:
		v.finish()
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.selected = 0
		v.status = fmt.Sprintf("Connected to %s.", tenantLabel(msg.State))
		return v, nil

	case messages.Switched:
		v.finish()
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.selected = 0
		v.status = "Disconnected. Press c to connect to another tenant."
		return v, nil

	case messages.Discovered:
		v.finish()
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.status = fmt.Sprintf("Refreshed %d objects (%s).", msg.Result.Total(), msg.Result.DataSource)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		if v.pending != "" {
			v.cancel()
			v.status = "Cancelling..."
			return v, nil
		}
		return v, tea.Quit
	}

	if v.editing {
		return v.handleTenantInput(msg)
	}

	switch key {
	case "q":
		if v.cancel != nil {
			v.cancel()
		}
		return v, tea.Quit
	case "c", "s", "r":
		if v.pending != "" {
			v.fail(domain.ErrBusy)
			return v, nil
		}
	}

	switch key {
	case "c":
		if v.session.GetState().State != domain.StateDisconnected {
			v.fail(fmt.Errorf("%w: already connected", domain.ErrInvalidState))
			return v, nil
		}
		v.editing = true
		v.err = nil
		v.tenant.Reset()
		return v, v.tenant.Focus()
	case "s":
		return v, v.start("Switching tenant", func(ctx context.Context) tea.Msg {
			return messages.Switched{Err: v.session.SwitchTenant(ctx)}
		})
	case "r":
		return v, v.start("Refreshing tenant data", func(ctx context.Context) tea.Msg {
			result, err := v.session.DiscoverTenantData(ctx)
			return messages.Discovered{Result: result, Err: err}
		})
	case "tab", "right", "l":
		v.selected = (v.selected + 1) % len(domain.AllCollections())
	case "shift+tab", "left", "h":
		n := len(domain.AllCollections())
		v.selected = (v.selected + n - 1) % n
	}
	return v, nil
}

func (v *View) handleTenantInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.editing = false
		v.tenant.Blur()
		return v, nil
	case "enter":
		v.editing = false
		v.tenant.Blur()
		return v, v.connect(strings.TrimSpace(v.tenant.Value()))
	}
	var cmd tea.Cmd
	v.tenant, cmd = v.tenant.Update(msg)
	return v, cmd
}

func (v *View) connect(hint string) tea.Cmd {
	if v.prompt == nil {
		v.fail(errors.New("no credential prompt configured"))
		return nil
	}
	prompt, err := v.prompt(hint)
	if err != nil {
		v.fail(err)
		return nil
	}
	return v.start("Signing in", func(ctx context.Context) tea.Msg {
		state, err := v.session.Connect(ctx, driving.ConnectRequest{Prompt: prompt, TenantHint: hint})
		return messages.Connected{State: state, Err: err}
	})
}

// start runs op in the background under a cancellable context.
func (v *View) start(label string, op func(ctx context.Context) tea.Msg) tea.Cmd {
	ctx, cancel := context.WithCancel(v.ctx)
	v.pending = label
	v.cancel = cancel
	v.err = nil
	v.status = ""
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		return op(ctx)
	})
}

func (v *View) finish() {
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = nil
	v.pending = ""
	v.deviceCode = ""
}

func (v *View) fail(err error) {
	v.err = err
	v.status = ""
}

// View implements tea.Model.
func (v *View) View() string {
	s := v.styles
	snap := v.session.Snapshot()
	state := snap.State

	var b strings.Builder
	b.WriteString(s.Title.Render("tenantctl") + "  " + s.State(state.State) + "\n\n")
	b.WriteString(v.renderConnection(snap) + "\n")

	if state.State == domain.StateConnected {
		b.WriteString(v.renderTabs(snap.Cache) + "\n")
		b.WriteString(v.renderRows(snap.Cache) + "\n")
	}

	switch {
	case v.editing:
		b.WriteString("\n" + v.tenant.View() + "\n")
		b.WriteString(s.Muted.Render("Enter a tenant domain or id, or leave blank for the account's home tenant.") + "\n")
	case v.pending != "":
		b.WriteString("\n" + v.spinner.View() + " " + v.pending + "... " + s.Muted.Render("(ctrl+c to cancel)") + "\n")
	}
	if v.deviceCode != "" {
		b.WriteString("\n" + s.Warning.Render(v.deviceCode) + "\n")
	}
	if v.err != nil {
		b.WriteString("\n" + s.Error.Render(messages.Describe(v.err)) + "\n")
	} else if v.status != "" {
		b.WriteString("\n" + v.status + "\n")
	}

	b.WriteString(s.Help.Render(v.help(state)))
	return b.String()
}

func (v *View) renderConnection(snap driving.SessionSnapshot) string {
	s := v.styles
	state := snap.State
	field := func(label, value string) string {
		return s.Label.Render(label) + s.Value.Render(value)
	}

	if !state.IsConnected() {
		return s.Panel.Render(s.Muted.Render("No tenant connected."))
	}

	lines := []string{
		field("Tenant", tenantLabel(state)),
		field("Tenant ID", state.TenantID),
		field("Signed in as", state.Principal),
		field("Directory", yesNo(state.DirectoryConnected)),
		field("Mail", yesNo(state.MailConnected)),
	}
	if result := snap.Discovery; result != nil {
		lines = append(lines,
			s.Label.Render("Data")+s.Source(result.DataSource),
			field("Discovered", result.StartedAt.Format(time.Kitchen)+" in "+result.Duration.Round(time.Millisecond).String()),
		)
		for _, w := range result.Warnings {
			lines = append(lines, s.Warning.Render(w))
		}
	}
	return s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (v *View) renderTabs(cache driving.TenantCacheView) string {
	tabs := make([]string, 0, len(domain.AllCollections()))
	for i, c := range domain.AllCollections() {
		label := fmt.Sprintf("%s (%d)", c, cache.Count(c))
		if i == v.selected {
			tabs = append(tabs, v.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, v.styles.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (v *View) renderRows(cache driving.TenantCacheView) string {
	c := domain.AllCollections()[v.selected]
	rows := Rows(cache, c)
	if len(rows) == 0 {
		return v.styles.Muted.Render("  nothing cached")
	}

	limit := defaultRows
	if v.height > 0 {
		limit = max(v.height-20, 5)
	}
	var b strings.Builder
	for i, r := range rows {
		if i == limit {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  ... %d more", len(rows)-limit)))
			break
		}
		b.WriteString("  " + r + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v *View) help(state domain.ConnectionState) string {
	switch {
	case v.editing:
		return "enter connect • esc back"
	case v.pending != "":
		return "ctrl+c cancel • q quit"
	case state.State == domain.StateConnected:
		return "tab next • shift+tab prev • r refresh • s switch tenant • q quit"
	default:
		return "c connect • q quit"
	}
}

// Rows renders one line per cached object of a collection.
func Rows(cache driving.TenantCacheView, c domain.Collection) []string {
	var rows []string
	switch c {
	case domain.CollectionDomains:
		for _, d := range cache.Domains() {
			var tags []string
			if d.IsDefault {
				tags = append(tags, "default")
			}
			if d.IsInitial {
				tags = append(tags, "initial")
			}
			if !d.Verified {
				tags = append(tags, "unverified")
			}
			rows = append(rows, withTags(d.Name, tags))
		}
	case domain.CollectionUsers:
		for _, u := range cache.Users() {
			var tags []string
			if !u.AccountEnabled {
				tags = append(tags, "disabled")
			}
			if strings.EqualFold(u.UserType, "Guest") {
				tags = append(tags, "guest")
			}
			rows = append(rows, withTags(u.DisplayName+"  "+u.UserPrincipalName, tags))
		}
	case domain.CollectionGroups:
		for _, g := range cache.Groups() {
			rows = append(rows, withTags(g.DisplayName, []string{groupKind(g)}))
		}
	case domain.CollectionSharedMailboxes:
		for _, m := range cache.SharedMailboxes() {
			rows = append(rows, mailRow(m.DisplayName, m.PrimarySmtpAddress))
		}
	case domain.CollectionDistributionLists:
		for _, d := range cache.DistributionLists() {
			rows = append(rows, mailRow(d.DisplayName, d.PrimarySmtpAddress))
		}
	case domain.CollectionMailSecurityGroups:
		for _, g := range cache.MailSecurityGroups() {
			rows = append(rows, mailRow(g.DisplayName, g.PrimarySmtpAddress))
		}
	case domain.CollectionLicenseSkus:
		for _, l := range cache.LicenseSkus() {
			rows = append(rows, fmt.Sprintf("%s  %d/%d assigned", l.SkuPartNumber, l.Consumed, l.Enabled))
		}
	case domain.CollectionSites:
		for _, site := range cache.Sites() {
			rows = append(rows, site.DisplayName+"  "+site.WebURL)
		}
	}
	return rows
}

func groupKind(g domain.Group) string {
	switch {
	case g.Unified:
		return "microsoft 365"
	case g.SecurityEnabled && g.MailEnabled:
		return "mail-enabled security"
	case g.SecurityEnabled:
		return "security"
	default:
		return "distribution"
	}
}

func mailRow(name, smtp string) string {
	if smtp == "" {
		return name
	}
	return name + "  <" + smtp + ">"
}

func withTags(s string, tags []string) string {
	if len(tags) == 0 {
		return s
	}
	return s + " (" + strings.Join(tags, ", ") + ")"
}

func tenantLabel(state domain.ConnectionState) string {
	switch {
	case state.TenantName != "" && state.DefaultDomain != "":
		return state.TenantName + " (" + state.DefaultDomain + ")"
	case state.TenantName != "":
		return state.TenantName
	case state.DefaultDomain != "":
		return state.DefaultDomain
	default:
		return state.TenantID
	}
}

func yesNo(b bool) string {
	if b {
		return "connected"
	}
	return "not connected"
}
