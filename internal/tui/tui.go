// Package tui provides the Bubble Tea host for a synchronized transcript:
// the segment list follows the player clock, fields are edited inline, and
// the transcript can be exported without leaving the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/tsync/internal/engine"
	"github.com/fakeyudi/tsync/internal/export"
	"github.com/fakeyudi/tsync/internal/transcript"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	translationStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244")).
				Italic(true)

	// Segment under the playhead
	activeRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	// Row the keyboard cursor is on
	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	editLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// seekStep is the distance moved by the left and right keys, in seconds.
const seekStep = 10

// ── Key bindings ─────────────────

type keyMap struct {
	Up, Down      key.Binding
	Seek          key.Binding
	Play          key.Binding
	Back, Forward key.Binding
	EditStart     key.Binding
	EditEnd       key.Binding
	EditText      key.Binding
	EditTrans     key.Binding
	Export        key.Binding
	Quit          key.Binding

	// Active while a field is open.
	Accept key.Binding
	Cancel key.Binding
	Blur   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "select")),
		Down:      key.NewBinding(key.WithKeys("down", "j")),
		Seek:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "seek")),
		Play:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Back:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "±10s")),
		Forward:   key.NewBinding(key.WithKeys("right", "l")),
		EditStart: key.NewBinding(key.WithKeys("s"), key.WithHelp("s/e", "edit times")),
		EditEnd:   key.NewBinding(key.WithKeys("e")),
		EditText:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t/T", "edit text")),
		EditTrans: key.NewBinding(key.WithKeys("T")),
		Export:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Accept:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Blur:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "leave field")),
	}
}

func helpLine(bindings ...key.Binding) string {
	var parts []string
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return "  " + strings.Join(parts, "  ")
}

// ── Messages ────────────────────

// loadMsg asks the model to load the configured video.
type loadMsg struct{}

// ── Model ────────────────────

// Options configure a Model.
type Options struct {
	URL      string
	Timeline transcript.Timeline
	Sink     export.Sink
	Format   export.Format
}

// Model is the root Bubble Tea model. The engine is owned by the model and
// only touched from Update.
type Model struct {
	eng    *engine.Engine
	opts   Options
	keys   keyMap
	vp     viewport.Model
	input  textinput.Model
	cursor int
	info   string
	flash  error // last error not recorded by the engine
	width  int
	height int
	ready  bool
	// first rendered line of each segment, for scrolling
	rowLine []int
}

// New returns a model driving eng. The video is loaded by Init.
func New(eng *engine.Engine, opts Options) Model {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 0
	return Model{
		eng:   eng,
		opts:  opts,
		keys:  defaultKeys(),
		input: in,
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return loadMsg{} }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewport()
		return m, nil

	case loadMsg:
		if err := m.eng.LoadVideo(m.opts.URL, m.opts.Timeline); err == nil {
			m.info = fmt.Sprintf("loaded %d segments", m.eng.Store().Len())
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if _, editing := m.eng.Cursor(); editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}

	// Player events, ticks and reloads go to the engine.
	before, _ := m.eng.Active()
	cmd := m.eng.Update(msg)
	if after, _ := m.eng.Active(); after != before {
		m.refresh()
		m.follow(after)
	} else if _, ok := msg.(engine.TimelineReloadedMsg); ok {
		m.refresh()
	}
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	m.info = ""
	m.flash = nil
	var err error
	switch {
	case key.Matches(msg, k.Quit):
		m.eng.Destroy()
		return m, tea.Quit
	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.follow(m.cursor)
	case key.Matches(msg, k.Down):
		if m.cursor < m.eng.Store().Len()-1 {
			m.cursor++
		}
		m.follow(m.cursor)
	case key.Matches(msg, k.Seek):
		err = m.eng.SeekToSegment(m.cursor)
	case key.Matches(msg, k.Play):
		_, err = m.eng.TogglePlay()
	case key.Matches(msg, k.Back):
		err = m.eng.SeekBy(-seekStep)
	case key.Matches(msg, k.Forward):
		err = m.eng.SeekBy(seekStep)
	case key.Matches(msg, k.EditStart):
		return m.beginEdit(transcript.StartTime)
	case key.Matches(msg, k.EditEnd):
		return m.beginEdit(transcript.EndTime)
	case key.Matches(msg, k.EditText):
		return m.beginEdit(transcript.Text)
	case key.Matches(msg, k.EditTrans):
		return m.beginEdit(transcript.Translation)
	case key.Matches(msg, k.Export):
		m.export()
	default:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}
	if err != nil {
		m.showErr(err)
	}
	m.refresh()
	return m, nil
}

func (m Model) beginEdit(field transcript.Field) (tea.Model, tea.Cmd) {
	m.eng.ClearErr()
	m.flash = nil
	if err := m.eng.BeginEdit(m.cursor, field); err != nil {
		m.showErr(err)
		m.refresh()
		return m, nil
	}
	m.input.SetValue(m.eng.Draft())
	m.input.CursorEnd()
	cmd := m.input.Focus()
	m.refresh()
	return m, cmd
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Accept):
		m.finish(m.eng.AcceptEdit())
		return m, nil
	case key.Matches(msg, k.Blur):
		m.finish(m.eng.BlurEdit())
		return m, nil
	case key.Matches(msg, k.Cancel):
		m.eng.CancelEdit()
		m.input.Blur()
		m.refresh()
		return m, nil
	case msg.String() == "ctrl+c":
		m.eng.BlurEdit()
		m.eng.Destroy()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.eng.TypeEdit(m.input.Value())
	return m, cmd
}

func (m *Model) finish(err error) {
	m.input.Blur()
	m.input.SetValue("")
	if err == nil {
		m.info = "saved"
	}
	m.refresh()
}

func (m *Model) export() {
	sink := m.opts.Sink
	if sink == nil {
		sink = &export.FileSink{Dir: "."}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	dest, err := m.eng.Export(ctx, sink, m.opts.Format)
	if err != nil {
		m.showErr(err)
		return
	}
	m.info = "exported to " + dest
}

func (m *Model) showErr(err error) {
	if err != m.eng.Err() {
		m.flash = err
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  tsync  " + m.eng.VideoID())
	clock := clockStyle.Width(m.width).Render(m.clockLine())
	content := m.vp.View()

	var lines []string
	lines = append(lines, title, clock, content)
	if c, ok := m.eng.Cursor(); ok {
		label := editLabelStyle.Render(fmt.Sprintf("  #%d %s: ", m.segmentID(c.Index), c.Field))
		lines = append(lines, label+m.input.View())
	}
	lines = append(lines, m.message(), m.statusBar())
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) clockLine() string {
	pb := m.eng.Playback()
	codec := m.eng.Codec()
	state := m.eng.SamplerState().String()
	if pb.IsSampling {
		state = "playing"
	}
	line := fmt.Sprintf("%s %s / %s", state, codec.Format(pb.CurrentTime), codec.Format(pb.Duration))
	if idx, ok := m.eng.Active(); ok {
		line += fmt.Sprintf("   segment %d of %d", idx+1, m.eng.Store().Len())
	}
	return line
}

func (m Model) message() string {
	switch {
	case m.flash != nil:
		return errorStyle.Render("  " + engine.UserMessage(m.flash))
	case m.eng.Err() != nil:
		return errorStyle.Render("  " + engine.UserMessage(m.eng.Err()))
	case m.info != "":
		return infoStyle.Render("  " + m.info)
	}
	return ""
}

func (m Model) statusBar() string {
	k := m.keys
	if _, editing := m.eng.Cursor(); editing {
		return statusBarStyle.Width(m.width).Render(helpLine(k.Accept, k.Blur, k.Cancel))
	}
	return statusBarStyle.Width(m.width).Render(helpLine(k.Up, k.Seek, k.Play, k.Back, k.EditStart, k.EditText, k.Export, k.Quit))
}

// ── Viewport management ───────────────

func (m *Model) initViewport() {
	// title, clock, editor, message and status bar take one row each
	h := m.height - 5
	if h < 1 {
		h = 1
	}
	m.vp = viewport.New(m.width, h)
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.vp.SetContent(m.renderSegments())
}

// follow scrolls so the segment at index is visible.
func (m *Model) follow(index int) {
	if index < 0 || index >= len(m.rowLine) {
		return
	}
	line := m.rowLine[index]
	switch {
	case line < m.vp.YOffset:
		m.vp.SetYOffset(line)
	case line >= m.vp.YOffset+m.vp.Height-1:
		m.vp.SetYOffset(line - m.vp.Height + 2)
	}
}

func (m *Model) segmentID(index int) int {
	seg, _ := m.eng.Store().At(index)
	return seg.ID
}

func (m *Model) renderSegments() string {
	store := m.eng.Store()
	codec := store.Codec()
	active, _ := m.eng.Active()
	m.rowLine = m.rowLine[:0]

	var sb strings.Builder
	line := 0
	if store.Len() == 0 {
		sb.WriteString(dimStyle.Render("  (no segments)") + "\n")
		return sb.String()
	}
	for i, seg := range store.All() {
		m.rowLine = append(m.rowLine, line)
		bounds := fmt.Sprintf("[%s - %s]", codec.Format(seg.Start), codec.Format(seg.End))
		dur := dimStyle.Render(fmt.Sprintf("(%s)", codec.Format(seg.Duration())))
		row := fmt.Sprintf("  %3d  %s  %s  %s", seg.ID, timeStyle.Render(bounds), seg.Payload.Text(), dur)
		switch {
		case i == active:
			row = activeRowStyle.Width(m.width - 2).Render(row)
		case i == m.cursor:
			row = selectedRowStyle.Width(m.width - 2).Render(row)
		}
		sb.WriteString(row + "\n")
		line++
		if tr, ok := seg.Payload.Translation(); ok {
			sb.WriteString("       " + translationStyle.Render(tr) + "\n")
			line++
		}
	}
	return sb.String()
}

// Relay forwards messages to a program attached after construction, so the
// engine's Send can be wired before the program exists. Messages sent before
// Attach are dropped.
type Relay struct {
	mu sync.Mutex
	p  *tea.Program
}

// Send forwards msg to the attached program.
func (r *Relay) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Attach sets the program messages are forwarded to.
func (r *Relay) Attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

// Run starts the TUI for m and releases the player when it exits.
func Run(m Model, relay *Relay) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	if relay != nil {
		relay.Attach(p)
	}
	_, err := p.Run()
	if relay != nil {
		relay.Attach(nil)
	}
	m.eng.Destroy()
	return err
}
