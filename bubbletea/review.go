// Package bubbletea provides the terminal review view for AI suggestions
// using the Bubble Tea framework.
package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/redline"
	rltheme "github.com/fwojciec/redline/lipgloss"
	"github.com/fwojciec/redline/session"
)

// Reviewer is the editing session driven by the review view.
type Reviewer interface {
	State() redline.State
	Session() redline.Session
	Compose(prompt string) error
	Submit(ctx context.Context) error
	Retry(ctx context.Context) error

	Accept(id string) error
	Reject(id string) error
	AcceptAll() error
	RejectAll() error
	Undo() error
	Redo() error

	CanSave() (bool, string)
	Save(ctx context.Context) error

	Content() string
	Render() string
	Markers() []redline.Marker
	Counts() redline.Counts
}

// Compile-time interface verification.
var _ Reviewer = (*session.Controller)(nil)

// promptHeight is the number of text rows in the prompt input.
const promptHeight = 3

// roundMsg reports a finished suggestion request.
type roundMsg struct{ err error }

// savedMsg reports a finished save.
type savedMsg struct{ err error }

// ReviewModel is the Bubble Tea model for reviewing suggested edits.
type ReviewModel struct {
	reviewer  Reviewer
	ctx       context.Context
	clipboard redline.Clipboard
	detector  redline.LanguageDetector
	tokenizer redline.Tokenizer

	initialPrompt string

	// Pending hunks as currently rendered
	markers  []redline.Marker
	hunkRows map[string]int
	selected int // Index into markers, -1 when nothing is pending

	// UI state
	viewport   viewport.Model
	prompt     textarea.Model
	spinner    spinner.Model
	help       help.Model
	keymap     KeyMap
	styles     redline.Styles
	renderer   *lipgloss.Renderer
	width      int
	height     int
	ready      bool
	prompting  bool
	loading    bool
	status     string
	pendingKey string
}

// ReviewOption configures a ReviewModel.
type ReviewOption func(*ReviewModel)

// WithRenderer sets a custom lipgloss renderer for the model.
func WithRenderer(r *lipgloss.Renderer) ReviewOption {
	return func(m *ReviewModel) {
		m.renderer = r
	}
}

// WithTheme sets the theme for the model.
func WithTheme(t redline.Theme) ReviewOption {
	return func(m *ReviewModel) {
		m.styles = t.Styles()
	}
}

// WithLanguageDetector sets the detector for fenced code blocks.
func WithLanguageDetector(d redline.LanguageDetector) ReviewOption {
	return func(m *ReviewModel) {
		m.detector = d
	}
}

// WithTokenizer sets the tokenizer for syntax highlighting.
func WithTokenizer(t redline.Tokenizer) ReviewOption {
	return func(m *ReviewModel) {
		m.tokenizer = t
	}
}

// WithClipboard sets the clipboard used by the copy key.
func WithClipboard(c redline.Clipboard) ReviewOption {
	return func(m *ReviewModel) {
		m.clipboard = c
	}
}

// WithContext sets the context passed to suggestion requests and saves.
func WithContext(ctx context.Context) ReviewOption {
	return func(m *ReviewModel) {
		m.ctx = ctx
	}
}

// WithInitialPrompt submits prompt as soon as the view starts.
func WithInitialPrompt(prompt string) ReviewOption {
	return func(m *ReviewModel) {
		m.initialPrompt = prompt
	}
}

// NewReviewModel creates a ReviewModel over r.
func NewReviewModel(r Reviewer, opts ...ReviewOption) ReviewModel {
	m := ReviewModel{
		reviewer: r,
		ctx:      context.Background(),
		selected: -1,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
		keymap:   DefaultKeyMap(),
		styles:   rltheme.DefaultTheme().Styles(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.loading = strings.TrimSpace(m.initialPrompt) != ""
	return m
}

// Init implements tea.Model.
func (m ReviewModel) Init() tea.Cmd {
	if !m.loading {
		return nil
	}
	r, ctx, prompt := m.reviewer, m.ctx, m.initialPrompt
	submit := func() tea.Msg {
		if err := r.Compose(prompt); err != nil {
			return roundMsg{err: err}
		}
		return roundMsg{err: r.Submit(ctx)}
	}
	return tea.Batch(submit, m.spinner.Tick)
}

// Update implements tea.Model.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, 1)
			m.ready = true
		}
		m.layout()
		m.refresh()
		return m, nil

	case roundMsg:
		m.loading = false
		m.refresh()
		if msg.err != nil {
			m.status = "request failed: " + msg.err.Error()
			return m, nil
		}
		m.status = m.roundSummary()
		m.scrollToSelected()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "saved"
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.prompting {
			return m.handlePromptKeys(msg)
		}
		return m.handleReviewKeys(msg)
	}

	if m.prompting {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ReviewModel) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle multi-key sequences (gg for go to top)
	if m.pendingKey == "g" && key.Matches(msg, m.keymap.GotoTop) {
		m.viewport.GotoTop()
		m.pendingKey = ""
		return m, nil
	}
	if key.Matches(msg, m.keymap.GotoTop) {
		m.pendingKey = "g"
		return m, nil
	}
	m.pendingKey = ""

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.GotoBottom):
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keymap.HalfPageUp):
		m.viewport.HalfPageUp()
	case key.Matches(msg, m.keymap.HalfPageDown):
		m.viewport.HalfPageDown()
	case key.Matches(msg, m.keymap.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keymap.Down):
		m.viewport.ScrollDown(1)

	case key.Matches(msg, m.keymap.NextHunk):
		if m.selected < len(m.markers)-1 {
			m.selected++
			m.refresh()
			m.scrollToSelected()
		}
	case key.Matches(msg, m.keymap.PrevHunk):
		if m.selected > 0 {
			m.selected--
			m.refresh()
			m.scrollToSelected()
		}

	case key.Matches(msg, m.keymap.Accept):
		m.decideSelected(m.reviewer.Accept)
	case key.Matches(msg, m.keymap.Reject):
		m.decideSelected(m.reviewer.Reject)
	case key.Matches(msg, m.keymap.AcceptAll):
		m.decide(m.reviewer.AcceptAll)
	case key.Matches(msg, m.keymap.RejectAll):
		m.decide(m.reviewer.RejectAll)
	case key.Matches(msg, m.keymap.Undo):
		m.decide(m.reviewer.Undo)
	case key.Matches(msg, m.keymap.Redo):
		m.decide(m.reviewer.Redo)

	case key.Matches(msg, m.keymap.Prompt):
		return m.openPrompt()
	case key.Matches(msg, m.keymap.Retry):
		return m.retry()
	case key.Matches(msg, m.keymap.Copy):
		m.copyDocument()
	case key.Matches(msg, m.keymap.Save):
		return m.save()
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
	}
	return m, nil
}

func (m ReviewModel) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Cancel):
		m.prompting = false
		m.layout()
		return m, nil
	case key.Matches(msg, m.keymap.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m ReviewModel) openPrompt() (tea.Model, tea.Cmd) {
	if m.loading {
		m.status = redline.ErrRequestInFlight.Error()
		return m, nil
	}
	ta := textarea.New()
	ta.Placeholder = "Describe the edits you want..."
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.SetWidth(m.width)
	ta.SetHeight(promptHeight)
	ta.Focus()
	m.prompt = ta
	m.prompting = true
	m.status = ""
	m.layout()
	return m, textarea.Blink
}

func (m ReviewModel) submit() (tea.Model, tea.Cmd) {
	if err := m.reviewer.Compose(m.prompt.Value()); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.prompting = false
	m.loading = true
	m.status = ""
	m.layout()
	r, ctx := m.reviewer, m.ctx
	return m, tea.Batch(func() tea.Msg {
		return roundMsg{err: r.Submit(ctx)}
	}, m.spinner.Tick)
}

func (m ReviewModel) retry() (tea.Model, tea.Cmd) {
	if m.loading || m.reviewer.State() != redline.StateError {
		return m, nil
	}
	m.loading = true
	m.status = ""
	r, ctx := m.reviewer, m.ctx
	return m, tea.Batch(func() tea.Msg {
		return roundMsg{err: r.Retry(ctx)}
	}, m.spinner.Tick)
}

func (m ReviewModel) save() (tea.Model, tea.Cmd) {
	if ok, reason := m.reviewer.CanSave(); !ok {
		m.status = reason
		return m, nil
	}
	r, ctx := m.reviewer, m.ctx
	return m, func() tea.Msg {
		return savedMsg{err: r.Save(ctx)}
	}
}

func (m *ReviewModel) copyDocument() {
	if m.clipboard == nil {
		m.status = "no clipboard available"
		return
	}
	if err := m.clipboard.Copy(m.reviewer.Content()); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = "copied document"
}

// decideSelected applies fn to the selected hunk.
func (m *ReviewModel) decideSelected(fn func(id string) error) {
	if m.selected < 0 || m.selected >= len(m.markers) {
		m.status = "no suggestion selected"
		return
	}
	m.decide(func() error { return fn(m.markers[m.selected].HunkID) })
}

func (m *ReviewModel) decide(fn func() error) {
	if err := fn(); err != nil {
		m.status = describe(err)
		return
	}
	m.status = ""
	m.refresh()
	m.scrollToSelected()
}

// describe turns a decision error into a status line.
func describe(err error) string {
	switch {
	case errors.Is(err, redline.ErrHistoryConflict):
		return "cannot undo: the document changed since that decision"
	default:
		return err.Error()
	}
}

// layout sizes the viewport around the prompt, status bar and help.
func (m *ReviewModel) layout() {
	if !m.ready {
		return
	}
	m.help.Width = m.width
	reserved := 1 + lipgloss.Height(m.helpView())
	if m.prompting {
		reserved += promptHeight
		m.prompt.SetWidth(m.width)
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-reserved)
}

// refresh re-renders the document and keeps the selection in range.
func (m *ReviewModel) refresh() {
	if !m.ready {
		return
	}
	m.markers = m.reviewer.Markers()
	switch {
	case len(m.markers) == 0:
		m.selected = -1
	case m.selected < 0:
		m.selected = 0
	case m.selected >= len(m.markers):
		m.selected = len(m.markers) - 1
	}

	doc := renderDocument(renderConfig{
		markup:    m.reviewer.Render(),
		markers:   m.markers,
		selected:  m.selectedID(),
		styles:    m.styles,
		renderer:  m.renderer,
		width:     m.width,
		detector:  m.detector,
		tokenizer: m.tokenizer,
	})
	m.hunkRows = doc.hunkRows
	m.viewport.SetContent(doc.content)
}

func (m ReviewModel) selectedID() string {
	if m.selected < 0 || m.selected >= len(m.markers) {
		return ""
	}
	return m.markers[m.selected].HunkID
}

// scrollToSelected brings the selected hunk into view.
func (m *ReviewModel) scrollToSelected() {
	row, ok := m.hunkRows[m.selectedID()]
	if !ok {
		return
	}
	if row < m.viewport.YOffset || row >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(max(0, row-m.viewport.Height/3))
	}
}

func (m ReviewModel) roundSummary() string {
	s := m.reviewer.Session()
	unresolved := 0
	for _, h := range s.Hunks {
		if h.Status == redline.Unresolved {
			unresolved++
		}
	}
	summary := fmt.Sprintf("%d suggestions", len(s.Hunks)-unresolved)
	if unresolved > 0 {
		summary += fmt.Sprintf(", %d could not be placed", unresolved)
	}
	if len(s.Warnings) > 0 {
		summary += fmt.Sprintf(", %d markup warnings", len(s.Warnings))
	}
	return summary
}

// View implements tea.Model.
func (m ReviewModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	parts := []string{m.viewport.View()}
	if m.prompting {
		parts = append(parts, styleFromColorPair(m.styles.PromptArea, m.renderer).Render(m.prompt.View()))
	}
	parts = append(parts, m.statusBarView(), m.helpView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m ReviewModel) helpView() string {
	if m.prompting {
		return m.help.View(promptKeys{submit: m.keymap.Submit, cancel: m.keymap.Cancel})
	}
	return m.help.View(m.keymap)
}

// statusBarView renders the suggestion position, counts and session state.
func (m ReviewModel) statusBarView() string {
	barStyle := styleFromColorPair(m.styles.StatusBar, m.renderer)
	warnStyle := styleFromColorPair(redline.ColorPair{
		Foreground: m.styles.SaveBlock.Foreground,
		Background: m.styles.StatusBar.Background,
	}, m.renderer)
	sep := barStyle.Render(" │ ")

	var items []string
	if len(m.markers) == 0 {
		items = append(items, barStyle.Render("no suggestions"))
	} else {
		width := digitWidth(len(m.markers))
		items = append(items, barStyle.Render(fmt.Sprintf("suggestion %*d/%-*d", width, m.selected+1, width, len(m.markers))))
		c := m.reviewer.Counts()
		items = append(items, barStyle.Render(fmt.Sprintf("+%d -%d", c.Insertions, c.Deletions)))
	}

	s := m.reviewer.Session()
	if s.Round > 0 {
		items = append(items, barStyle.Render(fmt.Sprintf("round %d", s.Round)))
	}
	switch {
	case m.loading:
		items = append(items, barStyle.Render(m.spinner.View()+" thinking"))
	case s.State == redline.StateError:
		items = append(items, warnStyle.Render("request failed, t to retry"))
	}
	if ok, reason := m.reviewer.CanSave(); !ok {
		items = append(items, warnStyle.Render(reason))
	}
	if m.status != "" {
		items = append(items, barStyle.Render(m.status))
	}

	content := barStyle.Render(" ") + strings.Join(items, sep)
	if w := lipgloss.Width(content); w < m.width {
		content += barStyle.Render(strings.Repeat(" ", m.width-w))
	}
	return content
}

// digitWidth returns the number of digits needed to display n.
func digitWidth(n int) int {
	return len(fmt.Sprint(n))
}
