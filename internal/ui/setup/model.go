package setup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/issue-updater/internal/keys"
	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/theme"
	"github.com/nhle/issue-updater/internal/ui"
)

// Mode represents the current state of the setup wizard.
type Mode int

const (
	ModeForm       Mode = iota // Editing the configuration
	ModeValidating             // Testing the connection
	ModeResult                 // Showing the connection test result
)

// Tester checks that the tracker settings can open a session.
type Tester func(ctx context.Context, tracker model.TrackerConfig) error

// testResultMsg carries the result of a connection test.
type testResultMsg struct {
	err error
}

// values holds the form fields huh binds to. It lives behind a pointer so
// that copies of Model keep editing the same fields.
type values struct {
	url           string
	transport     string
	username      string
	password      string
	storePassword bool

	query         string
	transition    string
	comment       string
	fixedVersions string
	resetVersions bool

	failOnQuery bool
	failOnEmpty bool
}

// Model is the Bubble Tea model for the interactive init wizard.
type Model struct {
	mode    Mode
	cfg     *model.Config
	vals    *values
	form    *huh.Form
	spinner spinner.Model
	help    help.Model
	keys    *keys.KeyMap
	test    Tester

	testErr error
	saved   bool

	width, height int
}

// New creates a wizard prefilled from cfg. test is run after the form is
// completed and may be retried from the result view.
func New(cfg *model.Config, test Tester, k *keys.KeyMap) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		mode:    ModeForm,
		cfg:     cfg,
		vals:    valuesFrom(cfg),
		spinner: sp,
		help:    help.New(),
		keys:    k,
		test:    test,
		width:   80,
		height:  24,
	}
	m.form = m.buildForm()
	return m
}

func valuesFrom(cfg *model.Config) *values {
	return &values{
		url:           cfg.Tracker.URL,
		transport:     cfg.Tracker.Transport,
		username:      cfg.Tracker.Username,
		password:      cfg.Tracker.Password,
		storePassword: true,
		query:         cfg.Update.Query,
		transition:    cfg.Update.Transition,
		comment:       cfg.Update.Comment,
		fixedVersions: cfg.Update.FixedVersions,
		resetVersions: cfg.Update.ResetFixedVersions,
		failOnQuery:   cfg.Policy.FailOnQueryError,
		failOnEmpty:   cfg.Policy.FailOnEmptyResult,
	}
}

// Result returns the edited configuration, whether the password should be
// stored in the keyring, and whether the user chose to save.
func (m Model) Result() (*model.Config, bool, bool) {
	return m.cfg, m.vals.storePassword, m.saved
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.form = m.form.WithWidth(m.formWidth())
		return m, nil

	case testResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.testErr = msg.err
		m.mode = ModeResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeForm:
		return m.updateForm(msg)
	case ModeValidating:
		if key.Matches(msg, m.keys.Back) {
			return m.edit()
		}
		return m, nil
	case ModeResult:
		return m.handleResultKeys(msg)
	}
	return m, nil
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		m.saved = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Retry):
		return m.startTest()
	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Back):
		return m.edit()
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.apply()
		return m.startTest()
	case huh.StateAborted:
		return m, tea.Quit
	}
	return m, cmd
}

// edit returns to a fresh form prefilled with the current values.
func (m Model) edit() (tea.Model, tea.Cmd) {
	m.mode = ModeForm
	m.testErr = nil
	m.form = m.buildForm()
	return m, m.form.Init()
}

func (m Model) startTest() (tea.Model, tea.Cmd) {
	m.mode = ModeValidating
	m.testErr = nil
	return m, tea.Batch(m.spinner.Tick, m.testConnection())
}

// apply copies the form values into the configuration.
func (m *Model) apply() {
	v := m.vals
	m.cfg.Tracker.URL = strings.TrimSpace(v.url)
	m.cfg.Tracker.Transport = v.transport
	m.cfg.Tracker.Username = strings.TrimSpace(v.username)
	m.cfg.Tracker.Password = v.password

	m.cfg.Update.Query = strings.TrimSpace(v.query)
	m.cfg.Update.Transition = strings.TrimSpace(v.transition)
	m.cfg.Update.Comment = v.comment
	m.cfg.Update.FixedVersions = strings.TrimSpace(v.fixedVersions)
	m.cfg.Update.ResetFixedVersions = v.resetVersions

	m.cfg.Policy.FailOnQueryError = v.failOnQuery
	m.cfg.Policy.FailOnEmptyResult = v.failOnEmpty
}

func (m Model) testConnection() tea.Cmd {
	test := m.test
	tracker := m.cfg.Tracker
	return func() tea.Msg {
		if test == nil {
			return testResultMsg{err: errors.New("no connection tester configured")}
		}
		timeout := time.Duration(tracker.TimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return testResultMsg{err: test(ctx, tracker)}
	}
}

func (m *Model) buildForm() *huh.Form {
	v := m.vals
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Jira URL").
				Description("Root URL of the Jira server").
				Placeholder("https://jira.example.com").
				Value(&v.url).
				Validate(validateURL),
			huh.NewSelect[string]().
				Title("Transport").
				Options(
					huh.NewOption("REST (/rest/api/2)", model.TransportREST),
					huh.NewOption("SOAP (/rpc/soap/jirasoapservice-v2)", model.TransportSOAP),
				).
				Value(&v.transport),
			huh.NewInput().
				Title("Username").
				Description("Leave empty to authenticate REST calls with a bearer token").
				Value(&v.username),
			huh.NewInput().
				Title("Password or API token").
				EchoMode(huh.EchoModePassword).
				Value(&v.password),
			huh.NewConfirm().
				Title("Store the password in the system keyring?").
				Value(&v.storePassword),
		).Title("Connection"),
		huh.NewGroup(
			huh.NewInput().
				Title("JQL query").
				Description("Issues to update; $NAME is replaced with build variables").
				Placeholder("project=PROJ AND fixVersion=$RELEASE").
				Value(&v.query).
				Validate(validateRequired("Query")),
			huh.NewInput().
				Title("Workflow action").
				Placeholder("Resolve Issue").
				Value(&v.transition),
			huh.NewText().
				Title("Comment").
				Value(&v.comment),
			huh.NewInput().
				Title("Fixed versions").
				Description("Comma-separated version names").
				Value(&v.fixedVersions),
			huh.NewConfirm().
				Title("Replace existing fixed versions?").
				Value(&v.resetVersions),
		).Title("Update"),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Fail the build when the query fails?").
				Value(&v.failOnQuery),
			huh.NewConfirm().
				Title("Fail the build when no issues match?").
				Value(&v.failOnEmpty),
		).Title("Policy"),
	).WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	return w
}

// View implements tea.Model.
func (m Model) View() string {
	l := ui.NewLayout(m.width, m.height)
	header := l.RenderHeader("issue-updater setup", m.modeLabel())

	var content, hints string
	switch m.mode {
	case ModeForm:
		content = m.form.View()
		hints = "tab next | shift+tab back | ctrl+c quit"
	case ModeValidating:
		content = fmt.Sprintf("%s Testing connection to %s...", m.spinner.View(), m.cfg.Tracker.URL)
		hints = "esc back"
	case ModeResult:
		content = m.viewResult()
		hints = m.help.View(m.keys)
	}

	body := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(l.ContentHeight()).
		Render(content)

	return l.RenderWithFrame(header, body, l.RenderStatusBar(hints))
}

func (m Model) modeLabel() string {
	switch m.mode {
	case ModeValidating:
		return "testing"
	case ModeResult:
		return "review"
	default:
		return "editing"
	}
}

func (m Model) viewResult() string {
	var b strings.Builder
	if m.testErr != nil {
		b.WriteString(theme.ResultStyle(string(model.ResultFailed)).Render("Connection failed"))
		b.WriteString("\n\n")
		b.WriteString(m.testErr.Error())
		b.WriteString("\n\n")
		b.WriteString(theme.HelpStyle.Render("The configuration can still be saved."))
	} else {
		b.WriteString(theme.ResultStyle(string(model.ResultOK)).Render("Connection successful"))
	}

	for _, f := range m.cfg.Validate(false) {
		b.WriteString("\n")
		b.WriteString(theme.ResultStyle(findingResult(f.Level)).Render(string(f.Level)))
		b.WriteString(" ")
		b.WriteString(f.Field + ": " + f.Message)
	}
	return b.String()
}

func findingResult(level model.FindingLevel) string {
	if level == model.LevelError {
		return string(model.ResultFailed)
	}
	return string(model.ResultSkipped)
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if msg := model.CheckURL(s); msg != "" {
		return errors.New(msg)
	}
	return nil
}
