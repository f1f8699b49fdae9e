// Package viewer is a terminal UI that tails the bridge's event stream.
package viewer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"github.com/Tap30/ripple-ui-go/internal/bridge"
)

const reconnectDelay = 2 * time.Second

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	compStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	eventStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	scopeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type (
	connectedMsg struct{ conn *websocket.Conn }
	recordMsg    struct{ record bridge.Record }
	streamErrMsg struct{ err error }
	reconnectMsg struct{}
)

// Model is the bubbletea model of the viewer.
type Model struct {
	url     string
	history int
	dialer  *websocket.Dialer

	conn     *websocket.Conn
	records  []bridge.Record
	received int
	err      error
	width    int
}

// New creates a viewer for the websocket at url showing the last history records.
func New(url string, history int) Model {
	if history <= 0 {
		history = 20
	}
	return Model{
		url:     url,
		history: history,
		dialer:  websocket.DefaultDialer,
	}
}

// Init dials the stream.
func (m Model) Init() tea.Cmd {
	return m.dial()
}

// Update handles stream and key messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.conn != nil {
				m.conn.Close()
			}
			return m, tea.Quit
		case "c":
			m.records = nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case connectedMsg:
		m.conn = msg.conn
		m.err = nil
		return m, listen(m.conn)

	case recordMsg:
		m.records = append(m.records, msg.record)
		if len(m.records) > m.history {
			m.records = m.records[len(m.records)-m.history:]
		}
		m.received++
		return m, listen(m.conn)

	case streamErrMsg:
		if m.conn != nil {
			m.conn.Close()
			m.conn = nil
		}
		m.err = msg.err
		return m, tea.Tick(reconnectDelay, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		return m, m.dial()
	}
	return m, nil
}

// View renders the header, the last records and a status line.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("ripple live events"))
	sb.WriteString("\n\n")

	if len(m.records) == 0 {
		sb.WriteString(statusStyle.Render("waiting for events..."))
		sb.WriteString("\n")
	}
	line := lipgloss.NewStyle()
	if m.width > 0 {
		line = line.MaxWidth(m.width)
	}
	for _, r := range m.records {
		sb.WriteString(line.Render(FormatRecord(r)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case m.err != nil:
		sb.WriteString(errorStyle.Render(fmt.Sprintf("disconnected from %s: %v (retrying)", m.url, m.err)))
	case m.conn == nil:
		sb.WriteString(statusStyle.Render("connecting to " + m.url))
	default:
		sb.WriteString(statusStyle.Render(fmt.Sprintf("connected to %s, %d received", m.url, m.received)))
	}
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render("q: quit  c: clear"))
	return sb.String()
}

// FormatRecord renders r as "time  componentType#id  eventType  view/section".
func FormatRecord(r bridge.Record) string {
	e := r.Event
	component := e.ComponentType
	if e.ComponentID != "" {
		component += "#" + e.ComponentID
	}

	var where string
	if e.Context != nil {
		switch {
		case e.Context.View != "" && e.Context.Section != "":
			where = e.Context.View + "/" + e.Context.Section
		case e.Context.View != "":
			where = e.Context.View
		default:
			where = e.Context.Section
		}
	}

	return fmt.Sprintf("%s  %s  %s  %s",
		timeStyle.Render(time.UnixMilli(e.Timestamp).Format("15:04:05.000")),
		compStyle.Render(fmt.Sprintf("%-24s", component)),
		eventStyle.Render(fmt.Sprintf("%-8s", e.EventType)),
		scopeStyle.Render(where))
}

func (m Model) dial() tea.Cmd {
	url, dialer := m.url, m.dialer
	return func() tea.Msg {
		conn, _, err := dialer.Dial(url, nil)
		if err != nil {
			return streamErrMsg{err: err}
		}
		return connectedMsg{conn: conn}
	}
}

func listen(conn *websocket.Conn) tea.Cmd {
	return func() tea.Msg {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return streamErrMsg{err: err}
		}
		var r bridge.Record
		if err := json.Unmarshal(data, &r); err != nil {
			return streamErrMsg{err: fmt.Errorf("decode record: %w", err)}
		}
		return recordMsg{record: r}
	}
}

// Run starts the viewer in the terminal and blocks until the user quits.
func Run(url string, history int) error {
	_, err := tea.NewProgram(New(url, history), tea.WithAltScreen()).Run()
	return err
}
