package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ndelorme/barberq/internal/config"
	"github.com/ndelorme/barberq/internal/queue"
	"github.com/ndelorme/barberq/internal/queueapi"
	"github.com/ndelorme/barberq/internal/session"
	"github.com/ndelorme/barberq/internal/state"
)

// tickMsg drives the once-a-second redraw and store re-read.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// actionDoneMsg reports the outcome of one backend mutation for one entry.
type actionDoneMsg struct {
	id   queueapi.ID
	kind queue.ActionKind
	err  error
}

// barberModel is the Bubble Tea model for the barber's queue board.
//
// Board and ledger mutations happen only inside Update; the poller never
// touches them. Backend-authoritative moves are applied to the board only
// after the corresponding actionDoneMsg confirms the request succeeded.
type barberModel struct {
	ctx    context.Context
	client queueapi.Backend
	store  *state.Store
	cfg    config.Config
	theme  Theme

	board  *queue.Board
	ledger *queue.Ledger

	snap       state.Snapshot
	lastLoaded time.Time

	summary *queue.Summary
	notice  string

	activeBucket int
	cursor       [4]int

	width  int
	height int
}

func newBarberModel(opts BarberOptions) barberModel {
	return barberModel{
		ctx:    opts.Context,
		client: opts.Client,
		store:  opts.Store,
		cfg:    opts.Config,
		theme:  GetTheme(opts.ThemeName),
		board:  queue.NewBoard(),
		ledger: queue.NewLedger(),
	}
}

// Init implements tea.Model.
func (m barberModel) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m barberModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.snap = m.store.Snapshot()
		if m.snap.LastError == nil && !m.snap.LastUpdated.Equal(m.lastLoaded) {
			m.board.Load(m.snap.Entries)
			m.lastLoaded = m.snap.LastUpdated
			m.clampCursors()
		}
		return m, tickCmd()

	case actionDoneMsg:
		m.ledger.Finish(msg.id, msg.err)
		if msg.err == nil {
			m.applyConfirmed(msg.id, msg.kind)
		}
		return m, nil
	}

	return m, nil
}

// applyConfirmed performs the board mutation for an acknowledged action. A
// mutation refused because a poll already moved the entry is dropped; the
// next refresh reconciles the board anyway.
func (m *barberModel) applyConfirmed(id queueapi.ID, kind queue.ActionKind) {
	switch kind {
	case queue.ActionMarkArrived:
		_ = m.board.MarkArrived(id)
	case queue.ActionStartSession:
		_ = m.board.Start(id)
	case queue.ActionEndSession:
		if summary, err := m.board.End(id); err == nil {
			m.summary = &summary
		}
	case queue.ActionCancelClient:
		_ = m.board.Cancel(id)
	}
	m.clampCursors()
}

func (m barberModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.summary = nil
		m.notice = ""
		if entry, ok := m.selected(); ok {
			m.ledger.ClearErr(entry.ID)
		}
		return m, nil

	case "left", "h":
		if m.activeBucket > 0 {
			m.activeBucket--
		}
		return m, nil

	case "right", "l", "tab":
		if m.activeBucket < len(queue.Buckets())-1 {
			m.activeBucket++
		} else if msg.String() == "tab" {
			m.activeBucket = 0
		}
		return m, nil

	case "up", "k":
		if m.cursor[m.activeBucket] > 0 {
			m.cursor[m.activeBucket]--
		}
		return m, nil

	case "down", "j":
		if n := len(m.board.Entries(queue.Buckets()[m.activeBucket])); m.cursor[m.activeBucket] < n-1 {
			m.cursor[m.activeBucket]++
		}
		return m, nil

	case "a":
		return m.beginMove(queue.ActionMarkArrived, queue.BucketOnWay)

	case "s":
		if m.board.Clock().Active() {
			m.notice = "a session is already active"
			return m, nil
		}
		return m.beginMove(queue.ActionStartSession, queue.BucketOnSite)

	case "e":
		return m.beginEnd()

	case "x":
		return m.beginCancel()

	case "r":
		return m.beginMove(queue.ActionResendInvite, queue.BucketInvited)

	case " ", "space":
		return m.togglePause()

	case "R":
		return m.resetTimer()

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, nil
	}

	return m, nil
}

// beginMove claims the selected entry for an action that requires it to sit
// in a specific bucket, then issues the backend request.
func (m barberModel) beginMove(kind queue.ActionKind, from queue.Bucket) (tea.Model, tea.Cmd) {
	entry, ok := m.selected()
	if !ok {
		return m, nil
	}
	if entry.Bucket != from {
		m.notice = fmt.Sprintf("%s needs a %s entry", kind, from)
		return m, nil
	}
	if !m.ledger.Begin(entry.ID, kind) {
		return m, nil
	}
	m.notice = ""
	return m, m.actionCmd(entry, kind)
}

func (m barberModel) beginEnd() (tea.Model, tea.Cmd) {
	entry, ok := m.board.InSession()
	if !ok {
		m.notice = "no session in progress"
		return m, nil
	}
	if !m.ledger.Begin(entry.ID, queue.ActionEndSession) {
		return m, nil
	}
	m.notice = ""
	return m, m.actionCmd(entry, queue.ActionEndSession)
}

func (m barberModel) beginCancel() (tea.Model, tea.Cmd) {
	entry, ok := m.selected()
	if !ok {
		return m, nil
	}
	if !m.ledger.Begin(entry.ID, queue.ActionCancelClient) {
		return m, nil
	}
	m.notice = ""
	return m, m.actionCmd(entry, queue.ActionCancelClient)
}

// togglePause flips the session clock locally first; pause state is owned by
// this client, the backend call is a best-effort mirror.
func (m barberModel) togglePause() (tea.Model, tea.Cmd) {
	entry, ok := m.board.InSession()
	if !ok {
		return m, nil
	}
	clock := m.board.Clock()
	if !clock.Active() {
		return m, nil
	}
	// Claim the entry before touching the clock so a refused claim leaves
	// local and backend state in agreement.
	if !m.ledger.Begin(entry.ID, queue.ActionTogglePause) {
		return m, nil
	}
	var err error
	var paused bool
	switch clock.State() {
	case session.StateRunning:
		err = clock.Pause()
		paused = true
	default:
		err = clock.Resume()
	}
	if err != nil {
		m.ledger.Finish(entry.ID, nil)
		return m, nil
	}
	id := entry.ID
	return m, func() tea.Msg {
		return actionDoneMsg{id: id, kind: queue.ActionTogglePause, err: m.client.TogglePause(m.ctx, id, paused)}
	}
}

// resetTimer re-anchors the clock locally and mirrors it to the backend. The
// session keeps running; the entry stays in its bucket.
func (m barberModel) resetTimer() (tea.Model, tea.Cmd) {
	entry, ok := m.board.InSession()
	if !ok {
		return m, nil
	}
	if !m.ledger.Begin(entry.ID, queue.ActionResetTimer) {
		return m, nil
	}
	if err := m.board.Clock().Reset(); err != nil {
		m.ledger.Finish(entry.ID, nil)
		return m, nil
	}
	id := entry.ID
	return m, func() tea.Msg {
		return actionDoneMsg{id: id, kind: queue.ActionResetTimer, err: m.client.ResetTimer(m.ctx, id)}
	}
}

func (m barberModel) actionCmd(entry queue.Entry, kind queue.ActionKind) tea.Cmd {
	id := entry.ID
	price := entry.ServicePrice
	return func() tea.Msg {
		var err error
		switch kind {
		case queue.ActionMarkArrived:
			err = m.client.MarkArrived(m.ctx, id)
		case queue.ActionStartSession:
			err = m.client.StartSession(m.ctx, id, m.cfg.BarberID)
		case queue.ActionEndSession:
			err = m.client.FinishSession(m.ctx, id, price)
		case queue.ActionCancelClient:
			err = m.client.CancelEntry(m.ctx, id)
		case queue.ActionResendInvite:
			err = m.client.ResendInvite(m.ctx, id)
		default:
			err = fmt.Errorf("unhandled action %s", kind)
		}
		return actionDoneMsg{id: id, kind: kind, err: err}
	}
}

func (m barberModel) selected() (queue.Entry, bool) {
	entries := m.board.Entries(queue.Buckets()[m.activeBucket])
	idx := m.cursor[m.activeBucket]
	if idx < 0 || idx >= len(entries) {
		return queue.Entry{}, false
	}
	return entries[idx], true
}

func (m *barberModel) clampCursors() {
	for i, bucket := range queue.Buckets() {
		n := len(m.board.Entries(bucket))
		if m.cursor[i] >= n {
			m.cursor[i] = n - 1
		}
		if m.cursor[i] < 0 {
			m.cursor[i] = 0
		}
	}
}

// View implements tea.Model.
func (m barberModel) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderBoard())
	b.WriteString("\n")
	b.WriteString(m.renderTimer())
	if m.summary != nil {
		b.WriteString("\n")
		b.WriteString(m.renderSummary())
	}
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	return b.String()
}

func (m barberModel) renderHeader() string {
	styles := m.theme.Styles()

	parts := []string{styles.Logo.Render("barberq")}
	if m.snap.IsOffline() {
		parts = append(parts, styles.DangerText.Render("● OFFLINE"))
	} else {
		parts = append(parts, styles.SuccessText.Render("● ON"))
	}
	parts = append(parts,
		styles.MutedText.Render("Queue:")+" "+styles.Text.Render(fmt.Sprintf("%d", m.board.Len())))
	if m.snap.HasInfo {
		// Info counts queued clients not yet on the board.
		if waiting := m.snap.Info.TotalInQueue - m.board.Len(); waiting > 0 {
			parts = append(parts,
				styles.MutedText.Render("Waiting:")+" "+styles.Text.Render(fmt.Sprintf("%d", waiting)))
		}
		if avg := m.snap.Info.AvgServiceTimeMinutes; avg > 0 {
			parts = append(parts,
				styles.MutedText.Render("Avg:")+" "+styles.Text.Render(fmt.Sprintf("%dm", avg)))
		}
	}
	if !m.snap.LastUpdated.IsZero() {
		parts = append(parts, styles.MutedText.Render(m.snap.LastUpdated.Format("15:04:05")))
	}
	if m.snap.LastError != nil {
		parts = append(parts,
			styles.DangerText.Render("ERROR")+" "+styles.DangerText.Render(truncate(m.snap.LastError.Error(), 60)))
	}
	if m.notice != "" {
		parts = append(parts, styles.WarningText.Render(m.notice))
	}

	return styles.Header.Width(max(m.width, 0)).Render(strings.Join(parts, "  "))
}

func (m barberModel) renderBoard() string {
	styles := m.theme.Styles()
	colWidth := 26

	titles := map[queue.Bucket]string{
		queue.BucketInvited:   "Invited",
		queue.BucketOnWay:     "On Way",
		queue.BucketOnSite:    "On Site",
		queue.BucketInSession: "In Session",
	}

	columnStyle := lipgloss.NewStyle().Width(colWidth).Padding(0, 1)
	cardStyle := lipgloss.NewStyle().Width(colWidth - 2).Padding(0, 1)

	rendered := make([]string, 0, len(queue.Buckets()))
	for i, bucket := range queue.Buckets() {
		entries := m.board.Entries(bucket)

		headerColor := m.theme.Accent
		if bucket == queue.BucketInSession {
			headerColor = m.theme.Success
		}
		headerStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(headerColor)).
			Width(colWidth).
			Align(lipgloss.Center).
			BorderBottom(true).
			BorderStyle(lipgloss.NormalBorder())
		header := headerStyle.Render(fmt.Sprintf("%s (%d)", titles[bucket], len(entries)))

		var cards strings.Builder
		for j, entry := range entries {
			card := cardStyle.Render(m.renderCard(entry, styles))
			if i == m.activeBucket && j == m.cursor[i] {
				card = styles.Selected.Render(card)
			}
			cards.WriteString(card)
			cards.WriteString("\n")
		}

		rendered = append(rendered, columnStyle.Render(header+"\n"+cards.String()))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m barberModel) renderCard(entry queue.Entry, styles Styles) string {
	name := entry.ClientName
	if entry.Trusted {
		name += " ★"
	}
	if entry.Regular {
		name += " ♥"
	}

	lines := []string{name}
	if entry.Service != "" {
		service := entry.Service
		if entry.ServicePrice > 0 {
			service += fmt.Sprintf(" · %d", entry.ServicePrice)
		}
		lines = append(lines, styles.MutedText.Render(service))
	}
	if entry.Bucket == queue.BucketOnSite && !entry.EnteredBucketAt.IsZero() {
		waiting := time.Since(entry.EnteredBucketAt)
		lines = append(lines, styles.FaintText.Render("waiting "+session.FormatElapsed(waiting)))
	}
	if kind, ok := m.ledger.Pending(entry.ID); ok {
		lines = append(lines, styles.InfoText.Render(fmt.Sprintf("… %s", kind)))
	} else if kind, err := m.ledger.Err(entry.ID); err != nil {
		lines = append(lines, styles.DangerText.Render(fmt.Sprintf("! %s failed", kind)))
	}

	return strings.Join(lines, "\n")
}

func (m barberModel) renderTimer() string {
	styles := m.theme.Styles()
	clock := m.board.Clock()

	entry, ok := m.board.InSession()
	if !ok || !clock.Active() {
		return styles.FaintText.Render("  no session in progress")
	}

	elapsed := session.FormatElapsed(clock.Elapsed())
	label := styles.SuccessText.Render(elapsed)
	stateNote := ""
	if clock.State() == session.StatePaused {
		label = styles.WarningText.Render(elapsed)
		stateNote = styles.WarningText.Render("  PAUSED")
	}

	return "  " + styles.MutedText.Render("Session:") + " " +
		styles.Text.Render(entry.ClientName) + "  " + label + stateNote
}

func (m barberModel) renderSummary() string {
	styles := m.theme.Styles()
	return "  " + styles.SuccessText.Render("Done:") + " " +
		styles.Text.Render(m.summary.ClientName) + "  " +
		styles.MutedText.Render("duration "+session.FormatElapsed(m.summary.Duration))
}

func (m barberModel) renderCommandBar() string {
	styles := m.theme.Styles()

	type cmd struct{ key, desc string }
	commands := []cmd{
		{"j/k", "Navigate"},
		{"h/l", "Bucket"},
		{"a", "Arrived"},
		{"s", "Start"},
		{"e", "End"},
		{"Space", "Pause"},
		{"R", "Reset"},
		{"r", "Resend"},
		{"x", "Cancel"},
		{"T", m.theme.Name},
		{"q", "Quit"},
	}

	segments := make([]string, 0, len(commands))
	for _, c := range commands {
		segments = append(segments, styles.AccentText.Render(c.key)+":"+styles.MutedText.Render(c.desc))
	}
	return styles.Footer.Width(max(m.width, 0)).Render(strings.Join(segments, "  "))
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
