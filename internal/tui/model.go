// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/newstype/internal/articles"
	"github.com/verte-zerg/newstype/internal/credential"
	"github.com/verte-zerg/newstype/internal/model"
	statsPkg "github.com/verte-zerg/newstype/internal/stats"
	"github.com/verte-zerg/newstype/internal/store"
	"github.com/verte-zerg/newstype/internal/typing"
)

const (
	metricsInterval     = 500 * time.Millisecond
	defaultFetchTimeout = 15 * time.Second
)

type charStat struct {
	correct      int
	incorrect    int
	latencySumMs int64
	latencyCount int64
}

// Options wires the model to its collaborators. Store and Credentials may
// be nil, in which case sessions and keys are kept in memory only.
type Options struct {
	Controller   *articles.Controller
	Store        *store.Store
	Credentials  *credential.Store
	Clock        typing.Clock
	Streak       int
	WeakKeys     map[rune]struct{}
	FetchTimeout time.Duration
}

type fetchDoneMsg struct {
	pending *articles.Pending
	err     error
}

type metricsTickMsg struct {
	gen uint64
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	ctrl         *articles.Controller
	store        *store.Store
	creds        *credential.Store
	clock        typing.Clock
	streak       int
	weakKeys     map[rune]struct{}
	fetchTimeout time.Duration

	width  int
	height int

	session    *typing.Session
	articleKey string
	article    model.Article

	prompt      textinput.Model
	promptOpen  bool
	promptError string
	spinner     spinner.Model

	metricsGen uint64
	scroll     scroller

	prevCorrectAt time.Time
	charStats     map[rune]*charStat
	saved         bool

	lastWPM float64
	lastAcc float64
	hasLast bool
	totals  statsPkg.Totals
}

var (
	typedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = currentWordStyle.Copy().Underline(true)
	errorCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E1E1E")).Background(lipgloss.Color("#FF4D4F"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	bannerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tabStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Padding(0, 1)
	activeTabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E1E1E")).Background(lipgloss.Color("#C89A3A")).Padding(0, 1)
	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#C89A3A")).Padding(1, 2)

	keyStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Padding(0, 1)
	keyWeakStyle     = keyStyle.Copy().Foreground(lipgloss.Color("#D4A5FF"))
	keyExpectedStyle = keyStyle.Copy().Foreground(lipgloss.Color("#1E1E1E")).Background(lipgloss.Color("#C89A3A"))
	keyPressedStyle  = keyStyle.Copy().Foreground(lipgloss.Color("#1E1E1E")).Background(lipgloss.Color("#F0F0F0"))
	keyWrongStyle    = keyStyle.Copy().Foreground(lipgloss.Color("#1E1E1E")).Background(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs a typing TUI model.
func NewModel(opts Options) *Model {
	clock := opts.Clock
	if clock == nil {
		clock = typing.SystemClock{}
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	input := textinput.New()
	input.Placeholder = "World News API key"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctrl:         opts.Controller,
		store:        opts.Store,
		creds:        opts.Credentials,
		clock:        clock,
		streak:       opts.Streak,
		weakKeys:     opts.WeakKeys,
		fetchTimeout: timeout,
		session:      typing.NewSession("", clock),
		prompt:       input,
		spinner:      sp,
		charStats:    map[rune]*charStat{},
	}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	cmds = append(cmds, m.track(m.ctrl.BeginFetch(true)))
	cmds = append(cmds, m.syncPrompt())
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prompt.Width = min(48, max(msg.Width-10, 10))
		m.scroll.jump(m.scrollTarget())
		return m, nil
	case fetchDoneMsg:
		force := msg.pending != nil && msg.pending.Reset() && msg.pending.Category() == m.ctrl.Category()
		m.syncArticle(force)
		return m, m.syncPrompt()
	case metricsTickMsg:
		if msg.gen != m.metricsGen || m.session.State().Status() != typing.InProgress {
			return m, nil
		}
		return m, m.metricsTick()
	case scrollFrameMsg:
		return m, m.scroll.step(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.promptOpen {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	default:
		return m, nil
	}
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		if !m.ctrl.CloseCredentialPrompt() {
			return m, tea.Quit
		}
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		return m, m.submitCredential()
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) submitCredential() tea.Cmd {
	key := strings.TrimSpace(m.prompt.Value())
	if m.creds != nil {
		saved, err := m.creds.Save(context.Background(), key)
		if errors.Is(err, credential.ErrEmpty) {
			m.promptError = "Please enter an API key."
			return nil
		}
		if err != nil {
			logErrf("failed to save API key: %v\n", err)
		}
		key = saved
	}
	if key == "" {
		m.promptError = "Please enter an API key."
		return nil
	}
	m.ctrl.SetCredential(key)
	m.closePrompt()
	return m.track(m.ctrl.Refresh())
}

func (m *Model) closePrompt() {
	m.promptOpen = false
	m.promptError = ""
	m.prompt.Reset()
	m.prompt.Blur()
}

// syncPrompt mirrors the controller's prompt state into the text input.
func (m *Model) syncPrompt() tea.Cmd {
	open, _ := m.ctrl.CredentialPrompt()
	if open == m.promptOpen {
		return nil
	}
	if !open {
		m.closePrompt()
		return nil
	}
	m.promptOpen = true
	m.promptError = ""
	m.prompt.Reset()
	return m.prompt.Focus()
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab:
		return m, m.selectCategory(1)
	case tea.KeyShiftTab:
		return m, m.selectCategory(-1)
	case tea.KeyCtrlO:
		return m, m.nextCountry()
	case tea.KeyCtrlN:
		if m.ctrl.Loading() || m.ctrl.QuotaExhausted() {
			return m, nil
		}
		cmd := m.track(m.ctrl.Advance())
		m.syncArticle(false)
		return m, tea.Batch(cmd, m.syncPrompt())
	case tea.KeyCtrlR:
		if m.ctrl.Loading() || m.ctrl.QuotaExhausted() {
			return m, nil
		}
		return m, tea.Batch(m.track(m.ctrl.Refresh()), m.syncPrompt())
	case tea.KeyCtrlL:
		m.restart()
		return m, nil
	case tea.KeyCtrlK:
		m.ctrl.OpenCredentialPrompt()
		return m, m.syncPrompt()
	case tea.KeyEnter:
		return m, m.press(typing.EnterKey())
	case tea.KeyBackspace, tea.KeyDelete:
		return m, m.press(typing.BackspaceKey())
	case tea.KeySpace:
		return m, m.press(typing.RuneKey(' '))
	case tea.KeyRunes:
		if msg.Alt {
			return m, nil
		}
		var cmds []tea.Cmd
		for _, r := range msg.Runes {
			cmds = append(cmds, m.press(typing.RuneKey(r)))
		}
		return m, tea.Batch(cmds...)
	default:
		return m, nil
	}
}

func (m *Model) selectCategory(delta int) tea.Cmd {
	current := m.ctrl.Category()
	idx := 0
	for i, c := range model.Categories {
		if c == current {
			idx = i
			break
		}
	}
	n := len(model.Categories)
	next := model.Categories[((idx+delta)%n+n)%n]
	cmd := m.track(m.ctrl.SelectCategory(next))
	m.syncArticle(false)
	return tea.Batch(cmd, m.syncPrompt())
}

func (m *Model) nextCountry() tea.Cmd {
	current := m.ctrl.Country()
	idx := 0
	for i, c := range model.Countries {
		if c.Code == current {
			idx = i
			break
		}
	}
	next := model.Countries[(idx+1)%len(model.Countries)]
	cmd := m.track(m.ctrl.SelectCountry(next.Code))
	m.syncArticle(false)
	return tea.Batch(cmd, m.syncPrompt())
}

// track turns a started fetch into a command. Errors that only change
// controller state (prompt, banner) are already visible through it.
func (m *Model) track(p *articles.Pending, err error) tea.Cmd {
	if err != nil {
		switch articles.Classify(err) {
		case articles.KindInFlight, articles.KindCredentialMissing, articles.KindQuotaExceeded:
		default:
			logErrf("fetch not started: %v\n", err)
		}
	}
	if p == nil {
		return nil
	}
	return m.runFetch(p)
}

func (m *Model) runFetch(p *articles.Pending) tea.Cmd {
	ctrl := m.ctrl
	timeout := m.fetchTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fetchDoneMsg{pending: p, err: ctrl.Run(ctx, p)}
	}
}

// syncArticle loads the controller's current article into the session when
// it changed, or unconditionally when force is set. Article text arrives
// already prepared by the fetcher.
func (m *Model) syncArticle(force bool) {
	a, ok := m.ctrl.Current()
	key := ""
	if ok {
		key = m.ctrl.Category() + "/" + strconv.Itoa(m.ctrl.Index()) + "/" + string(a.ID)
	}
	if key == m.articleKey && !force {
		return
	}
	m.articleKey = key
	m.article = a
	m.session.SetText(a.Text)
	m.resetSession()
}

func (m *Model) restart() {
	m.session.Reset()
	m.resetSession()
}

func (m *Model) resetSession() {
	m.metricsGen++
	m.prevCorrectAt = time.Time{}
	m.charStats = map[rune]*charStat{}
	m.saved = false
	m.scroll.jump(0)
}

func (m *Model) press(k typing.Key) tea.Cmd {
	before := m.session.State()
	expected, hasExpected := m.session.Expected()
	m.session.Press(k)
	after := m.session.State()

	var cmds []tea.Cmd
	if hasExpected {
		m.updateStats(expected, before, after)
	}
	if before.Status() == typing.NotStarted && after.Status() == typing.InProgress {
		m.metricsGen++
		cmds = append(cmds, m.metricsTick())
	}
	if after.Finished() && !m.saved {
		m.finishSession()
	}
	cmds = append(cmds, m.followCursor())
	return tea.Batch(cmds...)
}

func (m *Model) metricsTick() tea.Cmd {
	gen := m.metricsGen
	return tea.Tick(metricsInterval, func(time.Time) tea.Msg {
		return metricsTickMsg{gen: gen}
	})
}

func (m *Model) updateStats(expected rune, before, after typing.State) {
	if expected == ' ' || expected == '\n' {
		return
	}
	switch {
	case after.Index > before.Index:
		entry := m.charEntry(expected)
		entry.correct++
		now := m.clock.Now()
		if !m.prevCorrectAt.IsZero() {
			entry.latencySumMs += now.Sub(m.prevCorrectAt).Milliseconds()
			entry.latencyCount++
		}
		m.prevCorrectAt = now
	case after.Errors > before.Errors:
		m.charEntry(expected).incorrect++
	}
}

func (m *Model) charEntry(expected rune) *charStat {
	entry, ok := m.charStats[expected]
	if !ok {
		entry = &charStat{}
		m.charStats[expected] = entry
	}
	return entry
}

func (m *Model) finishSession() {
	m.saved = true
	st := m.session.State()
	if m.article.IsPlaceholder() || st.StartedAt.IsZero() {
		return
	}
	stats := model.SessionStats{
		StartedAt:  st.StartedAt,
		EndedAt:    st.EndedAt,
		Category:   m.ctrl.Category(),
		Country:    m.ctrl.Country(),
		ArticleID:  string(m.article.ID),
		ArticleURL: m.article.URL,
		Chars:      st.Index,
		Errors:     st.Errors,
		WPM:        m.session.WPM(),
		Accuracy:   m.session.Accuracy(),
		DurationMs: st.EndedAt.Sub(st.StartedAt).Milliseconds(),
	}

	charStats := make([]model.CharStats, 0, len(m.charStats))
	for ch, entry := range m.charStats {
		charStats = append(charStats, model.CharStats{
			Char:         string(ch),
			Correct:      entry.correct,
			Incorrect:    entry.incorrect,
			LatencySumMs: entry.latencySumMs,
			LatencyCount: entry.latencyCount,
		})
	}

	if m.store != nil {
		if _, err := m.store.InsertSession(context.Background(), stats, charStats); err != nil {
			logErrf("failed to save session: %v\n", err)
		}
	}
	wpm, _, acc := statsPkg.SessionMetrics(stats.Chars, stats.Errors, stats.DurationMs)
	m.lastWPM = wpm
	m.lastAcc = acc
	m.hasLast = true
	m.totals.Add(stats)
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	m.lastWPM, _, m.lastAcc = statsPkg.SessionMetrics(last.Chars, last.Errors, last.DurationMs)
	m.hasLast = true
	m.totals = statsPkg.Sum(sessions)
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	return max(int(float64(m.width)*0.70), 1)
}

// textHeight is the number of text rows left after the header, keyboard
// and footer.
func (m *Model) textHeight() int {
	if m.height == 0 {
		return 0
	}
	return max(m.height-16, 3)
}

func (m *Model) wrappedText() [][]styledRune {
	return wrapStyledRunes(buildStyledRunes(m.session.Target(), m.session.State()), m.contentWidth())
}

func (m *Model) scrollTarget() int {
	lines := m.wrappedText()
	return centerTarget(cursorLine(lines, m.session.State().Index), len(lines), m.textHeight())
}

func (m *Model) followCursor() tea.Cmd {
	if m.textHeight() == 0 {
		return nil
	}
	return m.scroll.scrollTo(m.scrollTarget(), m.clock.Now())
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.promptOpen {
		return m.place(m.renderPrompt())
	}
	sections := []string{m.renderTabs(), m.renderStatus()}
	if banner := m.ctrl.Banner(); banner != "" {
		sections = append(sections, bannerStyle.Render(banner))
	}
	sections = append(sections, "", m.renderText(), "")
	if m.session.State().Finished() {
		sections = append(sections, m.renderCompletion())
	} else {
		sections = append(sections, newKeyboardView(m.session, m.weakKeys).render())
	}
	sections = append(sections, "", m.renderFooter(), footerStyle.Render(helpLine))
	return m.place(lipgloss.JoinVertical(lipgloss.Center, sections...))
}

const helpLine = "tab category · ctrl+o country · ctrl+n next · ctrl+r refresh · ctrl+l restart · ctrl+k key · esc quit"

func (m *Model) place(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderTabs() string {
	current := m.ctrl.Category()
	tabs := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		style := tabStyle
		if c == current {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(c))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderStatus() string {
	segments := []string{}
	if c, ok := model.LookupCountry(m.ctrl.Country()); ok {
		segments = append(segments, c.Name)
	}
	if m.streak > 0 {
		unit := "days"
		if m.streak == 1 {
			unit = "day"
		}
		segments = append(segments, fmt.Sprintf("streak %d %s", m.streak, unit))
	}
	segments = append(segments, renderQuota(m.ctrl.Quota()))
	if m.ctrl.Loading() {
		segments = append(segments, m.spinner.View()+" loading")
	} else if n := m.ctrl.Count(); n > 0 {
		segments = append(segments, fmt.Sprintf("article %d/%d", m.ctrl.Index()+1, n))
	}
	line := footerStyle.Render(strings.Join(segments, "  "))
	if m.article.URL != "" {
		line += "\n" + footerStyle.Render(m.article.URL)
	}
	return line
}

func renderQuota(q *model.Quota) string {
	if q == nil {
		return "quota unknown"
	}
	if q.Exhausted() {
		return "quota exhausted"
	}
	return fmt.Sprintf("quota %.0f left", q.Remaining)
}

func (m *Model) renderText() string {
	if len(m.session.Target()) == 0 {
		if m.ctrl.Loading() {
			return m.spinner.View() + " Loading news..."
		}
		return pendingStyle.Render("No article loaded.")
	}
	lines := renderLines(m.wrappedText())
	height := m.textHeight()
	if height > 0 && len(lines) > height {
		top := min(max(m.scroll.line(), 0), len(lines)-height)
		lines = lines[top : top+height]
	}
	width := m.contentWidth()
	if width == 0 {
		return strings.Join(lines, "\n")
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderCompletion() string {
	st := m.session.State()
	seconds := st.EndedAt.Sub(st.StartedAt).Seconds()
	body := fmt.Sprintf("%s\n\nWPM %d · Accuracy %d%% · Errors %d · %.1fs\n\nctrl+n next article · ctrl+l try again",
		titleStyle.Render("Finished"), m.session.WPM(), m.session.Accuracy(), st.Errors, seconds)
	return panelStyle.Render(body)
}

func (m *Model) renderPrompt() string {
	_, upstream := m.ctrl.CredentialPrompt()
	lines := []string{titleStyle.Render("World News API key"), ""}
	if upstream != "" {
		lines = append(lines, bannerStyle.Render(upstream), "")
	}
	lines = append(lines, "Enter your API key to load news.", "", m.prompt.View())
	if m.promptError != "" {
		lines = append(lines, "", bannerStyle.Render(m.promptError))
	}
	lines = append(lines, "", footerStyle.Render("enter save · esc cancel"))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("WPM %d", m.session.WPM()),
		fmt.Sprintf("Accuracy %d%%", m.session.Accuracy()),
		fmt.Sprintf("Progress %d%%", int(m.session.Progress())),
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %.1f%%", m.lastWPM, m.lastAcc*100))
	}
	if m.totals.Sessions > 0 {
		wpm, acc := m.totals.Metrics()
		segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", wpm, acc*100))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
