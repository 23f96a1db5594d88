package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/palimpsest/internal/reader"
	"github.com/papapumpkin/palimpsest/internal/story"
	"github.com/papapumpkin/palimpsest/internal/ui"
)

// maxMessages bounds the message log shown under the links.
const maxMessages = 3

// AppModel is the root BubbleTea model of the reader.
type AppModel struct {
	Session   *reader.Session
	Keys      KeyMap
	Content   viewport.Model
	Spinner   spinner.Model
	StatusBar StatusBar
	Footer    Footer
	Width     int
	Height    int
	Start     string // node the reader begins at
	Cursor    int    // selected link
	Raw       bool   // show markup instead of styled text
	Loading   bool
	Messages  []string

	// StoryDir and Changes enable hot reload when set.
	StoryDir string
	Changes  <-chan story.Change

	ctx    context.Context
	cancel context.CancelFunc // cancels the computation in flight
}

// NewAppModel creates a reader model that starts at start, or at the
// story's start node when start is empty.
func NewAppModel(ctx context.Context, sess *reader.Session, start string) AppModel {
	if start == "" {
		start = sess.Story().Start()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleLoading
	m := AppModel{
		Session: sess,
		Keys:    DefaultKeyMap(),
		Content: viewport.New(80, 20),
		Spinner: s,
		Start:   start,
		ctx:     ctx,
	}
	m.Footer.Bindings = ReaderFooterBindings(m.Keys)
	m.StatusBar.Story = sess.Story().Manifest.Story.Name
	return m
}

// Init starts at the opening node and begins watching for story changes.
func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.Spinner.Tick, func() tea.Msg { return navigateMsg{id: m.Start} }}
	if m.Changes != nil {
		cmds = append(cmds, waitForChange(m.Changes))
	}
	return tea.Batch(cmds...)
}

// navigateMsg asks the model to visit a node from within Update.
type navigateMsg struct{ id string }

// Update handles all messages.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.StatusBar.Width = msg.Width
		m.Footer.Width = msg.Width
		m.layout()
		m.setContent()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case navigateMsg:
		return m.navigate(msg.id)

	case MsgComputed:
		if m.Session.Commit(msg.Result) {
			m.Loading = false
			m.show(m.Session.Current())
		}

	case MsgNodeState:
		m.Loading = false
		if msg.Err != nil {
			m.addMessage(styleError.Render("error: ") + msg.Err.Error())
		}
		m.show(msg.State)

	case MsgStoryChanged:
		return m, tea.Batch(m.reload(msg.Change), waitForChange(m.Changes))

	case MsgStoryReloaded:
		if msg.Err != nil {
			m.addMessage(styleError.Render("reload failed: ") + msg.Err.Error())
			break
		}
		m.StatusBar.Story = m.Session.Story().Manifest.Story.Name
		m.addMessage("story reloaded")
		m.show(msg.State)
	}
	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	links := m.links()
	switch {
	case key.Matches(msg, m.Keys.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < len(links)-1 {
			m.Cursor++
		}
	case key.Matches(msg, m.Keys.Follow):
		if m.Cursor < len(links) {
			return m.navigate(links[m.Cursor])
		}
	case key.Matches(msg, m.Keys.Engage):
		return m, m.engage()
	case key.Matches(msg, m.Keys.Raw):
		m.Raw = !m.Raw
		m.setContent()
	case key.Matches(msg, m.Keys.Refresh):
		return m, m.sessionCmd(m.Session.Refresh)
	case key.Matches(msg, m.Keys.Retry):
		return m, m.sessionCmd(m.Session.Retry)
	case key.Matches(msg, m.Keys.ScrollUp), key.Matches(msg, m.Keys.ScrollDn):
		var cmd tea.Cmd
		m.Content, cmd = m.Content.Update(msg)
		return m, cmd
	}
	return m, nil
}

// navigate records the visit and computes the node off the update loop.
// A computation still running for the previous node is cancelled and its
// result will be discarded at commit.
func (m AppModel) navigate(id string) (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	t, err := m.Session.Begin(m.ctx, id)
	if err != nil {
		m.addMessage(styleError.Render("error: ") + err.Error())
		return m, nil
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.Loading = true
	m.Cursor = 0
	m.StatusBar.Node = m.Session.Current()
	sess := m.Session
	return m, func() tea.Msg {
		return MsgComputed{Result: sess.Compute(ctx, t)}
	}
}

func (m AppModel) engage() tea.Cmd {
	n := m.Session.Current().Node
	if n == nil || len(n.Attractors) == 0 {
		return nil
	}
	sess, ctx := m.Session, m.ctx
	attractors := n.Attractors
	return func() tea.Msg {
		var ns reader.NodeState
		var err error
		for _, a := range attractors {
			if ns, err = sess.Engage(ctx, a); err != nil {
				break
			}
		}
		return MsgNodeState{State: ns, Err: err}
	}
}

func (m AppModel) sessionCmd(op func(context.Context) (reader.NodeState, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		ns, err := op(ctx)
		return MsgNodeState{State: ns, Err: err}
	}
}

func (m AppModel) reload(c story.Change) tea.Cmd {
	sess, ctx, dir := m.Session, m.ctx, m.StoryDir
	return func() tea.Msg {
		st, err := story.Load(dir)
		if err != nil {
			return MsgStoryReloaded{Err: fmt.Errorf("%s: %w", c.File, err)}
		}
		ns, err := sess.ReplaceStory(ctx, st)
		if err != nil {
			return MsgStoryReloaded{Err: err}
		}
		return MsgStoryReloaded{State: ns}
	}
}

// waitForChange blocks on the watcher channel. It returns nil once the
// channel is closed.
func waitForChange(ch <-chan story.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return MsgStoryChanged{Change: c}
	}
}

func (m *AppModel) show(ns reader.NodeState) {
	m.StatusBar.Node = ns
	m.StatusBar.JourneyLen = m.Session.State().Len()
	if m.Cursor >= len(m.links()) {
		m.Cursor = 0
	}
	m.layout()
	m.setContent()
}

func (m *AppModel) addMessage(s string) {
	m.Messages = append(m.Messages, s)
	if len(m.Messages) > maxMessages {
		m.Messages = m.Messages[len(m.Messages)-maxMessages:]
	}
}

// links returns the outgoing links of the committed node.
func (m AppModel) links() []string {
	if n := m.Session.Current().Node; n != nil {
		return n.Links
	}
	return nil
}

// layout sizes the content viewport to the space left by the chrome.
func (m *AppModel) layout() {
	if m.Width == 0 {
		return
	}
	chrome := 2 + 2 + len(m.links()) + len(m.Messages) // bars, gaps, links, messages
	h := m.Height - chrome
	if h < 3 {
		h = 3
	}
	m.Content.Width = m.Width
	m.Content.Height = h
}

func (m *AppModel) setContent() {
	ns := m.Session.Current()
	body := ns.CurrentContent
	if !m.Raw {
		body = ui.RenderMarkup(body)
	}
	if ns.Notice != "" {
		body = strings.TrimRight(body, "\n") + "\n\n" + styleNotice.Render(ns.Notice)
	}
	w := m.Width - 2
	if w < 20 {
		w = 20
	}
	m.Content.SetContent(lipgloss.NewStyle().Width(w).Render(body))
	m.Content.GotoTop()
}

// View renders the status bar, content, links and footer.
func (m AppModel) View() string {
	var b strings.Builder
	b.WriteString(m.StatusBar.View())
	b.WriteString("\n")
	if m.Loading {
		b.WriteString(m.Spinner.View() + styleLoading.Render(" transcribing…"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.Content.View())
		b.WriteString("\n")
	}
	b.WriteString(m.linksView())
	for _, msg := range m.Messages {
		b.WriteString(styleNotice.Render(msg))
		b.WriteString("\n")
	}
	b.WriteString(m.Footer.View())
	return b.String()
}

func (m AppModel) linksView() string {
	n := m.Session.Current().Node
	if n == nil {
		return ""
	}
	var b strings.Builder
	label := "links"
	if len(n.Attractors) > 0 {
		label += "  " + styleAttractor.Render("◆ "+strings.Join(n.Attractors, " ◆ "))
	}
	b.WriteString(styleSectionLabel.Render(label))
	b.WriteString("\n")
	for i, id := range n.Links {
		title := id
		if target, ok := m.Session.Story().Node(id); ok && target.Title != "" {
			title = target.Title
		}
		if i == m.Cursor {
			b.WriteString(styleLinkSelected.Render(selectionIndicator + " " + title))
		} else {
			b.WriteString(styleLinkNormal.Render("  " + title))
		}
		b.WriteString("\n")
	}
	return b.String()
}
