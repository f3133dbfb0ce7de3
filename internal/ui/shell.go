package ui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chris-regnier/reflectctl/internal/analyzer"
	"github.com/chris-regnier/reflectctl/internal/app"
	"github.com/chris-regnier/reflectctl/internal/editor"
	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/insights"
	"github.com/chris-regnier/reflectctl/internal/journal"
)

type tab int

const (
	tabWrite tab = iota
	tabTrend
	tabInsights
	tabMonth
	tabSettings
)

var tabNames = []string{"Write", "Trend", "Insights", "Month", "Settings"}

const (
	maxEntryLength = 5000
	fetchTimeout   = 90 * time.Second
	recentInTrend  = 5
)

// TUIConfig holds configuration needed by the TUI.
type TUIConfig struct {
	Editor   string // resolved editor command
	MaxWidth int    // maximum viewport width (0 = no limit)
	Theme    Theme  // resolved theme
}

type editorDoneMsg struct {
	text string
	err  error
}

// shellModel renders app.State and turns the effects of app.Reduce into commands.
type shellModel struct {
	backend Backend
	cfg     TUIConfig
	state   app.State

	tab       tab
	password  textinput.Model
	compose   textarea.Model
	goals     textinput.Model
	tags      map[string]bool
	tagCursor int
	spinner   spinner.Model
	notice    string

	width  int
	height int
	ready  bool
}

func newShellModel(backend Backend, cfg TUIConfig) shellModel {
	pw := textinput.New()
	pw.Placeholder = "passphrase"
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.Focus()

	ta := textarea.New()
	ta.Placeholder = "How was today?"
	ta.CharLimit = maxEntryLength
	ta.ShowLineNumbers = false
	ta.SetHeight(6)

	gi := textinput.New()
	gi.Placeholder = "sleep better, move more"

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Theme.AccentStyle()

	return shellModel{
		backend:  backend,
		cfg:      cfg,
		state:    app.Initial(),
		password: pw,
		compose:  ta,
		goals:    gi,
		tags:     map[string]bool{},
		spinner:  sp,
	}
}

func (m shellModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case app.Event:
		return m.dispatch(msg)

	case editorDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Editor failed: %v", msg.err)
			return m, nil
		}
		if msg.text != "" {
			m.compose.SetValue(msg.text)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.state.Loading.Prompt && !m.state.Loading.Reflection {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		cw := m.contentWidth()
		m.compose.SetWidth(max(cw-2, 10))
		m.goals.Width = max(cw-4, 10)
		m.password.Width = max(min(cw-4, 40), 10)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state.Locked {
			return m.updateLocked(msg)
		}
		return m.updateUnlocked(msg)
	}
	return m, nil
}

func (m shellModel) updateLocked(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() != "enter" {
		var cmd tea.Cmd
		m.password, cmd = m.password.Update(msg)
		return m, cmd
	}
	pass := m.password.Value()
	if utf8.RuneCountInString(pass) < journal.MinPassphraseLen {
		m.notice = fmt.Sprintf("Passphrase must be at least %d characters.", journal.MinPassphraseLen)
		return m, nil
	}
	m.notice = "Unlocking..."
	b := m.backend
	return m, func() tea.Msg {
		entries, goals, err := b.Unlock(context.Background(), pass)
		if err != nil {
			return app.UnlockFailed{Err: err}
		}
		return app.Unlocked{Entries: entries, Goals: goals}
	}
}

func (m shellModel) updateUnlocked(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return m.switchTab((m.tab + 1) % tab(len(tabNames)))
	case "shift+tab":
		return m.switchTab((m.tab + tab(len(tabNames)) - 1) % tab(len(tabNames)))
	case "ctrl+l":
		return m.dispatch(app.Locked{})
	case "ctrl+g":
		return m.dispatch(app.RAGToggled{})
	}

	switch m.tab {
	case tabWrite:
		return m.updateWrite(msg)
	case tabInsights:
		if msg.String() == "r" {
			return m.dispatch(app.PromptRequested{})
		}
	case tabMonth:
		if msg.String() == "r" {
			return m.dispatch(app.ReflectionRequested{})
		}
	case tabSettings:
		return m.updateSettings(msg)
	}
	return m, nil
}

func (m shellModel) updateWrite(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		return m.submit()
	case "ctrl+o":
		return m.openEditor()
	case "ctrl+n":
		m.tagCursor = (m.tagCursor + 1) % len(analyzer.QuickTags)
		return m, nil
	case "ctrl+p":
		m.tagCursor = (m.tagCursor + len(analyzer.QuickTags) - 1) % len(analyzer.QuickTags)
		return m, nil
	case "ctrl+t":
		t := analyzer.QuickTags[m.tagCursor]
		m.tags[t] = !m.tags[t]
		return m, nil
	}
	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m shellModel) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.notice = "Goals saved."
		return m.dispatch(app.GoalsSaved{Goals: entry.ParseGoals(m.goals.Value())})
	case "ctrl+d":
		seeded, err := insights.SeedDemo(m.state.Entries, m.backend.Now())
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = "Added demo entries."
		return m.dispatch(app.Seeded{Entries: seeded})
	}
	var cmd tea.Cmd
	m.goals, cmd = m.goals.Update(msg)
	return m, cmd
}

func (m shellModel) switchTab(t tab) (tea.Model, tea.Cmd) {
	m.tab = t
	m.notice = ""
	m.compose.Blur()
	m.goals.Blur()
	switch t {
	case tabWrite:
		m.compose.Focus()
		return m, textarea.Blink
	case tabSettings:
		m.goals.SetValue(strings.Join(m.state.Goals, ", "))
		m.goals.CursorEnd()
		m.goals.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

// submit analyzes the compose box and submits it as today's entry.
func (m shellModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.compose.Value())
	if text == "" {
		m.notice = "Write something first."
		return m, nil
	}
	var tags []string
	for _, t := range analyzer.QuickTags {
		if m.tags[t] {
			tags = append(tags, t)
		}
	}
	e := analyzer.AnalyzeEntry(entry.Today(m.backend.Now()), text, tags)
	id, err := entry.NewID()
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}
	e.ID = id

	next, cmd := m.dispatch(app.EntrySubmitted{Entry: e})
	nm := next.(shellModel)
	if nm.state.Err == "" {
		nm.compose.Reset()
		nm.tags = map[string]bool{}
		nm.notice = fmt.Sprintf("Saved entry (mood %+.2f).", entry.Score(e))
	}
	return nm, cmd
}

func (m shellModel) openEditor() (tea.Model, tea.Cmd) {
	d, err := editor.NewDraft(m.compose.Value())
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}
	c, err := d.Command(editor.ResolveEditor(m.cfg.Editor))
	if err != nil {
		d.Remove()
		m.notice = err.Error()
		return m, nil
	}
	return m, tea.ExecProcess(c, func(err error) tea.Msg {
		defer d.Remove()
		if err != nil {
			return editorDoneMsg{err: err}
		}
		text, err := d.Read()
		return editorDoneMsg{text: text, err: err}
	})
}

// dispatch runs ev through the reducer and performs the resulting effects.
// Storage effects run in order before any fetch is started.
func (m shellModel) dispatch(ev app.Event) (tea.Model, tea.Cmd) {
	wasLocked := m.state.Locked
	var effects []app.Effect
	m.state, effects = app.Reduce(m.state, ev)
	if wasLocked {
		switch ev.(type) {
		case app.Unlocked:
			m.password.Reset()
			m.password.Blur()
			m.notice = ""
			m.tab = tabWrite
			m.compose.Focus()
		case app.UnlockFailed:
			m.notice = ""
		}
	}

	var cmds []tea.Cmd
	fetching := false
	for _, fx := range effects {
		switch fx := fx.(type) {
		case app.PersistEntries:
			if err := m.backend.Persist(context.Background(), fx.Entries); err != nil {
				// Nothing was stored, so the rest of this batch is dropped.
				return m.dispatch(app.PersistFailed{Err: err, Previous: fx.Previous})
			}
		case app.SaveGoals:
			if err := m.backend.SaveGoals(context.Background(), fx.Goals); err != nil {
				m.state, _ = app.Reduce(m.state, app.EffectFailed{Err: err})
			}
		case app.WipeSecret:
			m.backend.Lock()
			m.password.Reset()
			m.password.Focus()
			m.compose.Reset()
			m.compose.Blur()
			m.goals.Reset()
			m.goals.Blur()
			m.tags = map[string]bool{}
			m.tab = tabWrite
			m.notice = "Journal locked."
		case app.FetchPrompt:
			fetching = true
			cmds = append(cmds, fetchPrompt(m.backend, fx))
		case app.FetchReflection:
			fetching = true
			cmds = append(cmds, fetchReflection(m.backend, fx))
		case app.IndexEntry:
			cmds = append(cmds, indexEntry(m.backend, fx))
		}
	}
	if fetching {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func fetchPrompt(b Backend, fx app.FetchPrompt) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		resp := b.Prompt(ctx, fx.Goals, fx.Entries, fx.RAG)
		return app.PromptLoaded{Token: fx.Token, Prompt: resp.Prompt, Source: resp.Source}
	}
}

func fetchReflection(b Backend, fx app.FetchReflection) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		resp := b.Reflection(ctx, fx.Goals, fx.Entries, fx.RAG)
		return app.ReflectionLoaded{Token: fx.Token, Reflection: resp.Reflection, Source: resp.Source}
	}
}

// indexEntry sends the entry to the retrieval index. Failures are ignored.
func indexEntry(b Backend, fx app.IndexEntry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		_ = b.IndexEntry(ctx, fx.Entry)
		return nil
	}
}

// contentWidth returns the effective content width, respecting MaxWidth.
func (m shellModel) contentWidth() int {
	if m.cfg.MaxWidth > 0 && m.width > m.cfg.MaxWidth {
		return m.cfg.MaxWidth
	}
	return m.width
}

func (m shellModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	cw := m.contentWidth()
	th := m.cfg.Theme

	var sections []string
	if m.state.Locked {
		sections = append(sections,
			th.HeaderStyle().Width(cw).Render("reflectctl"),
			th.ViewPaneStyle().Width(cw).Render("Enter your passphrase to unlock the journal."),
			"",
			m.password.View(),
		)
	} else {
		sections = append(sections, m.tabBar(), "", m.body(cw))
	}

	if m.state.Err != "" {
		sections = append(sections, "", th.DangerStyle().Width(cw).Render(m.state.Err))
	}
	if m.notice != "" {
		sections = append(sections, "", th.AccentStyle().Width(cw).Render(m.notice))
	}
	sections = append(sections, "", th.HelpStyle().Width(cw).Render(m.helpLine()))
	return th.PaintScreen(strings.Join(sections, "\n"), m.width, m.height, cw)
}

func (m shellModel) tabBar() string {
	labels := make([]string, len(tabNames))
	for i, name := range tabNames {
		labels[i] = m.cfg.Theme.TabStyle(tab(i) == m.tab).Render(name)
	}
	rag := "rag off"
	if m.state.RAG {
		rag = "rag on"
	}
	return strings.Join(labels, " ") + "  " + m.cfg.Theme.HelpStyle().Render(rag)
}

func (m shellModel) helpLine() string {
	if m.state.Locked {
		return "enter unlock • ctrl+c quit"
	}
	global := "tab switch • ctrl+g rag • ctrl+l lock • ctrl+c quit"
	switch m.tab {
	case tabWrite:
		return "ctrl+s save • ctrl+o editor • ctrl+n/p choose tag • ctrl+t toggle tag • " + global
	case tabInsights:
		return "r new prompt • " + global
	case tabMonth:
		return "r refresh • " + global
	case tabSettings:
		return "enter save goals • ctrl+d add demo entries • " + global
	}
	return global
}

func (m shellModel) body(cw int) string {
	switch m.tab {
	case tabWrite:
		return m.writeView(cw)
	case tabTrend:
		return m.trendView(cw)
	case tabInsights:
		return m.insightsView(cw)
	case tabMonth:
		return m.monthView(cw)
	case tabSettings:
		return m.settingsView(cw)
	}
	return ""
}

func (m shellModel) writeView(cw int) string {
	th := m.cfg.Theme
	labels := make([]string, len(analyzer.QuickTags))
	for i, t := range analyzer.QuickTags {
		label := t
		if m.tags[t] {
			label = "#" + t
		}
		style := th.HelpStyle()
		if m.tags[t] {
			style = th.AccentStyle()
		}
		if i == m.tagCursor {
			style = style.Underline(true)
		}
		labels[i] = style.Render(label)
	}
	return strings.Join([]string{
		th.HeaderStyle().Render("Today, " + entry.Today(m.backend.Now())),
		m.compose.View(),
		th.ViewPaneStyle().Width(cw).Render(strings.Join(labels, " ")),
	}, "\n")
}

func (m shellModel) trendView(cw int) string {
	th := m.cfg.Theme
	entries := m.state.Entries
	if len(entries) == 0 {
		return th.ViewPaneStyle().Width(cw).Render("No entries yet. Write your first one on the Write tab.")
	}
	points := insights.Trend(entries)
	lines := []string{
		th.HeaderStyle().Render(fmt.Sprintf("Mood trend (%d entries)", len(entries))),
		th.AccentStyle().Render(entry.Clip(insights.Sparkline(points), max(cw, 1))),
		th.HelpStyle().Render(fmt.Sprintf("%s … %s", points[0].Date, points[len(points)-1].Date)),
		"",
		th.HeaderStyle().Render("Recent"),
	}
	start := max(len(entries)-recentInTrend, 0)
	for i := len(entries) - 1; i >= start; i-- {
		e := entries[i]
		lines = append(lines, th.ViewPaneStyle().Render(fmt.Sprintf("%s  %+.2f  %s", e.Date, entry.Score(e), e.Preview(max(cw-20, 10)))))
	}
	return strings.Join(lines, "\n")
}

func (m shellModel) insightsView(cw int) string {
	th := m.cfg.Theme
	now := m.backend.Now()
	week := insights.SummarizeWeek(m.state.Entries, now)
	today, streak := insights.Streak(m.state.Entries, now)

	lines := []string{
		th.HeaderStyle().Render("This week"),
		th.ViewPaneStyle().Width(cw).Render(week.Summary),
	}
	if today {
		lines = append(lines, th.HelpStyle().Render(fmt.Sprintf("Streak: %d day(s)", streak)))
	} else {
		lines = append(lines, th.HelpStyle().Render("No entry today yet."))
	}

	lines = append(lines, "", th.HeaderStyle().Render("Today's prompt")+" "+th.SourceBadge(m.state.PromptSource))
	switch {
	case m.state.Loading.Prompt:
		lines = append(lines, m.spinner.View()+" Generating a prompt...")
	case m.state.Prompt != "":
		lines = append(lines, th.ViewPaneStyle().Width(cw).Render(m.state.Prompt))
	}
	return strings.Join(lines, "\n")
}

func (m shellModel) monthView(cw int) string {
	th := m.cfg.Theme
	if m.state.Loading.Reflection {
		return m.spinner.View() + " Reflecting on this month..."
	}
	if m.state.Reflection == nil {
		return th.HelpStyle().Render("Press r to generate this month's reflection.")
	}
	rendered := RenderMarkdownWithStyle(ReflectionMarkdown(*m.state.Reflection), cw, th.MarkdownStyle)
	return strings.TrimRight(rendered, "\n") + "\n" + th.SourceBadge(m.state.ReflectionSource)
}

func (m shellModel) settingsView(cw int) string {
	th := m.cfg.Theme
	current := "none"
	if len(m.state.Goals) > 0 {
		current = strings.Join(m.state.Goals, ", ")
	}
	return strings.Join([]string{
		th.HeaderStyle().Render("Goals (comma separated)"),
		m.goals.View(),
		th.HelpStyle().Width(cw).Render("Current: " + current),
	}, "\n")
}

// RunTUI launches the journal shell. The journal is locked again on exit.
func RunTUI(backend Backend, cfg TUIConfig) error {
	defer backend.Lock()
	p := tea.NewProgram(newShellModel(backend, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
