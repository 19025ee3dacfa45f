package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ndelorme/barberq/internal/booking"
	"github.com/ndelorme/barberq/internal/config"
	"github.com/ndelorme/barberq/internal/queue"
	"github.com/ndelorme/barberq/internal/queueapi"
)

// bookingActionMsg reports the outcome of one backend mutation on the
// client's booking. The sequence was claimed before the request went out, so
// applying it through the lifecycle is race-safe against the poller.
type bookingActionMsg struct {
	seq       uint64
	kind      queue.ActionKind
	snap      queueapi.QueueSnapshot
	threshold int
	err       error
}

// clientModel is the Bubble Tea model for the client's queue-position view.
type clientModel struct {
	ctx    context.Context
	client queueapi.Backend
	lc     *booking.Lifecycle
	cfg    config.Config
	theme  Theme

	view     booking.View
	editor   booking.ThresholdEditor
	progress progress.Model

	busy   bool
	notice string

	width  int
	height int
}

func newClientModel(opts ClientOptions) clientModel {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 40
	return clientModel{
		ctx:      opts.Context,
		client:   opts.Client,
		lc:       opts.Lifecycle,
		cfg:      opts.Config,
		theme:    GetTheme(opts.ThemeName),
		view:     opts.Lifecycle.View(),
		progress: bar,
	}
}

// Init implements tea.Model.
func (m clientModel) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m clientModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if w := msg.Width - 20; w > 10 && w < 60 {
			m.progress.Width = w
		}

	case tickMsg:
		m.view = m.lc.View()
		// Nothing to show once the grace window passed without a booking
		// ever appearing. Completed and cancelled bookings keep their final
		// screen until the user quits.
		if m.view.ShouldLeave() && m.view.Phase == booking.PhaseNone {
			return m, tea.Quit
		}
		return m, tickCmd()

	case bookingActionMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = fmt.Sprintf("%s failed: %v", msg.kind, msg.err)
			return m, nil
		}
		m.notice = ""
		switch msg.kind {
		case queue.ActionCreateBooking:
			m.lc.ApplySnapshot(msg.seq, msg.snap, true)
		case queue.ActionConfirmOnWay:
			m.lc.ApplyConfirmed(msg.seq)
		case queue.ActionCancelBooking:
			m.lc.ApplyCancelled(msg.seq)
		case queue.ActionSaveThreshold:
			m.lc.ApplyThreshold(msg.seq, msg.threshold)
		}
		m.view = m.lc.View()
		return m, nil
	}

	return m, nil
}

func (m clientModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editor.Editing() {
		return m.handleEditKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "b":
		return m.beginBook()

	case "o":
		return m.beginConfirm()

	case "c":
		return m.beginCancel()

	case "t":
		if m.view.HasBooking {
			m.editor.Begin(m.view.Snapshot.NotificationThreshold)
		}
		return m, nil

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, nil
	}

	return m, nil
}

func (m clientModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "esc":
		m.editor.Discard()
		return m, nil

	case "up", "k", "+", "=":
		m.editor.Adjust(1)
		return m, nil

	case "down", "j", "-":
		m.editor.Adjust(-1)
		return m, nil

	case "enter":
		// Keep the edit open while another request is in flight so the
		// buffered value is not lost.
		if m.busy {
			return m, nil
		}
		value, ok := m.editor.Commit()
		if !ok || !m.view.HasBooking {
			return m, nil
		}
		m.busy = true
		seq := m.lc.NextSeq()
		entryID := m.view.Snapshot.EntryID
		return m, func() tea.Msg {
			err := m.client.UpdateNotificationThreshold(m.ctx, entryID, value)
			return bookingActionMsg{seq: seq, kind: queue.ActionSaveThreshold, threshold: value, err: err}
		}

	default:
		if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
			m.editor.Set(int(key[0] - '0'))
		}
		return m, nil
	}
}

func (m clientModel) beginBook() (tea.Model, tea.Cmd) {
	if m.busy || m.view.HasBooking {
		return m, nil
	}
	if m.cfg.SalonID == "" || m.cfg.BarberID == "" {
		m.notice = "set salon_id and barber_id in config to book"
		return m, nil
	}
	m.busy = true
	seq := m.lc.NextSeq()
	return m, func() tea.Msg {
		snap, err := m.client.CreateBooking(m.ctx, m.cfg.SalonID, m.cfg.BarberID, m.cfg.ClientID)
		return bookingActionMsg{seq: seq, kind: queue.ActionCreateBooking, snap: snap, err: err}
	}
}

func (m clientModel) beginConfirm() (tea.Model, tea.Cmd) {
	if m.busy || !m.view.HasBooking || m.view.Snapshot.Status != queueapi.StatusInvited {
		return m, nil
	}
	m.busy = true
	seq := m.lc.NextSeq()
	entryID := m.view.Snapshot.EntryID
	return m, func() tea.Msg {
		err := m.client.ConfirmBooking(m.ctx, entryID)
		return bookingActionMsg{seq: seq, kind: queue.ActionConfirmOnWay, err: err}
	}
}

func (m clientModel) beginCancel() (tea.Model, tea.Cmd) {
	if m.busy || !m.view.HasBooking {
		return m, nil
	}
	m.busy = true
	seq := m.lc.NextSeq()
	entryID := m.view.Snapshot.EntryID
	return m, func() tea.Msg {
		err := m.client.CancelBooking(m.ctx, entryID)
		return bookingActionMsg{seq: seq, kind: queue.ActionCancelBooking, err: err}
	}
}

// View implements tea.Model.
func (m clientModel) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	return b.String()
}

func (m clientModel) renderHeader() string {
	styles := m.theme.Styles()

	parts := []string{styles.Logo.Render("barberq")}
	if m.view.IsOffline() {
		parts = append(parts, styles.DangerText.Render("● OFFLINE"))
	}
	if !m.view.LastUpdated.IsZero() {
		parts = append(parts, styles.MutedText.Render(m.view.LastUpdated.Format("15:04:05")))
	}
	if m.view.LastError != nil {
		parts = append(parts, styles.DangerText.Render(truncate(m.view.LastError.Error(), 60)))
	}
	if m.busy {
		parts = append(parts, styles.InfoText.Render("…"))
	}
	if m.notice != "" {
		parts = append(parts, styles.WarningText.Render(truncate(m.notice, 60)))
	}

	return styles.Header.Width(max(m.width, 0)).Render(strings.Join(parts, "  "))
}

func (m clientModel) renderBody() string {
	styles := m.theme.Styles()

	switch m.view.Phase {
	case booking.PhaseDone:
		return "  " + styles.SuccessText.Render("Service complete.") + "\n" +
			"  " + styles.MutedText.Render("See you next time.")

	case booking.PhaseCancelled:
		return "  " + styles.WarningText.Render("Booking cancelled.")

	case booking.PhaseActive:
		return m.renderActive(styles)

	default:
		if !m.view.Settled {
			return "  " + styles.MutedText.Render("Checking for an active booking...")
		}
		return "  " + styles.MutedText.Render("No active booking.")
	}
}

func (m clientModel) renderActive(styles Styles) string {
	snap := m.view.Snapshot
	var lines []string

	lines = append(lines, "  "+styles.MutedText.Render("Status:")+" "+m.statusLabel(snap.Status, styles))

	// Position 0 is the no-queue-context sentinel; suppress the phantom
	// queue rather than rendering "#0 of 1".
	if snap.Position >= 1 {
		lines = append(lines,
			"  "+styles.Text.Render(fmt.Sprintf("You are #%d of %d in the queue", snap.Position, snap.TotalInQueue)))
		lines = append(lines, "  "+m.progress.ViewAs(m.view.ProgressRatio()))
		if wait := m.view.EstimatedWaitMinutes(); wait > 0 {
			lines = append(lines, "  "+styles.MutedText.Render(fmt.Sprintf("Estimated wait: ~%d min", wait)))
		} else {
			lines = append(lines, "  "+styles.SuccessText.Render("You're next!"))
		}
	}

	lines = append(lines, "  "+m.renderThresholdLine(styles))

	if feed := m.renderNotifications(styles); feed != "" {
		lines = append(lines, "", feed)
	}

	return strings.Join(lines, "\n")
}

func (m clientModel) statusLabel(status queueapi.Status, styles Styles) string {
	switch status {
	case queueapi.StatusInvited:
		return styles.WarningText.Render("invited · your turn is coming up")
	case queueapi.StatusOnWay:
		return styles.InfoText.Render("on the way")
	case queueapi.StatusOnSite:
		return styles.InfoText.Render("at the salon")
	case queueapi.StatusInSession:
		return styles.SuccessText.Render("in the chair")
	default:
		return styles.Text.Render(string(status))
	}
}

func (m clientModel) renderThresholdLine(styles Styles) string {
	if m.editor.Editing() {
		return styles.AccentText.Render(fmt.Sprintf("Notify me at position: %d", m.editor.Value())) +
			styles.MutedText.Render("  (↑/↓ adjust, Enter save, Esc cancel)")
	}
	threshold := m.view.Snapshot.NotificationThreshold
	if threshold <= 0 {
		return styles.FaintText.Render("Notify me at position: off")
	}
	return styles.MutedText.Render(fmt.Sprintf("Notify me at position: %d", threshold))
}

func (m clientModel) renderNotifications(styles Styles) string {
	items := m.view.Notifications
	if len(items) == 0 {
		return ""
	}
	const maxShown = 5
	if len(items) > maxShown {
		items = items[:maxShown]
	}

	lines := []string{"  " + styles.MutedText.Render("Notifications")}
	for _, n := range items {
		marker := styles.AccentText.Render("•")
		if n.Read {
			marker = styles.FaintText.Render("•")
		}
		stamp := ""
		if t := n.ParsedCreatedAt(); !t.IsZero() {
			stamp = styles.FaintText.Render(" " + t.Format("15:04"))
		}
		lines = append(lines, "  "+marker+" "+styles.Text.Render(truncate(n.Message, 70))+stamp)
	}
	return strings.Join(lines, "\n")
}

func (m clientModel) renderCommandBar() string {
	styles := m.theme.Styles()

	type cmd struct{ key, desc string }
	var commands []cmd

	switch {
	case m.editor.Editing():
		commands = []cmd{{"↑/↓", "Adjust"}, {"Enter", "Save"}, {"Esc", "Cancel"}}
	case m.view.Phase == booking.PhaseActive:
		commands = []cmd{{"c", "Cancel booking"}, {"t", "Threshold"}}
		if m.view.Snapshot.Status == queueapi.StatusInvited {
			commands = append([]cmd{{"o", "On my way"}}, commands...)
		}
	default:
		commands = []cmd{{"b", "Book"}}
	}
	commands = append(commands, cmd{"T", m.theme.Name}, cmd{"q", "Quit"})

	segments := make([]string, 0, len(commands))
	for _, c := range commands {
		segments = append(segments, styles.AccentText.Render(c.key)+":"+styles.MutedText.Render(c.desc))
	}
	return styles.Footer.Width(max(m.width, 0)).Render(strings.Join(segments, "  "))
}
