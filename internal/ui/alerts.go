package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"stockdeck/pkg/stockdeck"
)

// Messages.
type alertsLoadedMsg struct {
	indices []stockdeck.Index
	alerts  []stockdeck.Alert
	err     error
}

type alertCreatedMsg struct {
	alert *stockdeck.Alert
	err   error
}

type alertDeletedMsg struct {
	id  string
	err error
}

// Form fields.
const (
	fieldSymbol = iota
	fieldThreshold
	fieldDirection
	fieldCount
)

// alertsModel manages the price alert list and the creation form. Deletes
// are confirmed server-side before the row disappears; a failed create
// leaves the form populated.
type alertsModel struct {
	api *stockdeck.Client
	log *slog.Logger

	indices []stockdeck.Index
	alerts  []stockdeck.Alert
	loading bool
	loadErr string

	formOpen   bool
	fieldIdx   int
	symbolIdx  int
	threshold  textinput.Model
	direction  string
	formErr    string
	submitting bool

	cursor     int
	deletingID string
	actionErr  string
}

func newAlertsModel(api *stockdeck.Client, log *slog.Logger) alertsModel {
	threshold := textinput.New()
	threshold.Placeholder = "threshold price"
	threshold.CharLimit = 16
	return alertsModel{
		api:       api,
		log:       log,
		symbolIdx: -1,
		threshold: threshold,
		direction: stockdeck.DirectionAbove,
	}
}

// editing reports whether the form is capturing keystrokes.
func (m alertsModel) editing() bool {
	return m.formOpen
}

// mount fetches the indices and the stored alerts in parallel; they are
// unrelated reads, so one round trip covers both.
func (m alertsModel) mount() (alertsModel, tea.Cmd) {
	m.loading = true
	m.loadErr = ""
	api := m.api
	return m, func() tea.Msg {
		var (
			indices []stockdeck.Index
			alerts  []stockdeck.Alert
		)
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			var err error
			indices, err = api.ListIndices(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			alerts, err = api.ListAlerts(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return alertsLoadedMsg{err: err}
		}
		return alertsLoadedMsg{indices: indices, alerts: alerts}
	}
}

func (m alertsModel) update(msg tea.Msg) (alertsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case alertsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.log.Error("loading alerts view", "error", msg.err)
			m.loadErr = "alerts unavailable"
			return m, nil
		}
		m.indices = msg.indices
		m.alerts = msg.alerts
		if m.cursor >= len(m.alerts) {
			m.cursor = 0
		}
		return m, nil

	case alertCreatedMsg:
		m.submitting = false
		if msg.err != nil {
			// Leave the form populated for correction.
			m.log.Error("creating alert", "error", msg.err)
			m.formErr = msg.err.Error()
			return m, nil
		}
		// Existing order preserved, new record appended.
		m.alerts = append(m.alerts, *msg.alert)
		m.resetForm()
		return m, nil

	case alertDeletedMsg:
		m.deletingID = ""
		if msg.err != nil {
			// The row stays until the server confirms.
			m.log.Error("deleting alert", "id", msg.id, "error", msg.err)
			m.actionErr = "delete failed: " + msg.err.Error()
			return m, nil
		}
		kept := make([]stockdeck.Alert, 0, len(m.alerts))
		for _, al := range m.alerts {
			if al.ID != msg.id {
				kept = append(kept, al)
			}
		}
		m.alerts = kept
		if m.cursor >= len(m.alerts) && m.cursor > 0 {
			m.cursor = len(m.alerts) - 1
		}
		m.actionErr = ""
		return m, nil

	case tea.KeyMsg:
		if m.formOpen {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m alertsModel) updateList(msg tea.KeyMsg) (alertsModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.alerts)-1 {
			m.cursor++
		}
	case "n":
		m.formOpen = true
		m.fieldIdx = fieldSymbol
		m.formErr = ""
	case "x", "delete":
		if m.deletingID != "" || m.cursor >= len(m.alerts) {
			return m, nil
		}
		id := m.alerts[m.cursor].ID
		m.deletingID = id
		m.actionErr = ""
		api := m.api
		return m, func() tea.Msg {
			err := api.DeleteAlert(context.Background(), id)
			return alertDeletedMsg{id: id, err: err}
		}
	}
	return m, nil
}

func (m alertsModel) updateForm(msg tea.KeyMsg) (alertsModel, tea.Cmd) {
	// The form is locked while a create is in flight.
	if m.submitting {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.formOpen = false
		m.threshold.Blur()
		return m, nil
	case "up":
		m.fieldIdx = (m.fieldIdx + fieldCount - 1) % fieldCount
		return m.syncFocus(), nil
	case "down":
		m.fieldIdx = (m.fieldIdx + 1) % fieldCount
		return m.syncFocus(), nil
	case "enter":
		return m.submit()
	case "left", "right":
		switch m.fieldIdx {
		case fieldSymbol:
			if len(m.indices) == 0 {
				return m, nil
			}
			delta := 1
			if msg.String() == "left" {
				delta = len(m.indices) - 1
			}
			if m.symbolIdx < 0 {
				m.symbolIdx = 0
			} else {
				m.symbolIdx = (m.symbolIdx + delta) % len(m.indices)
			}
			return m, nil
		case fieldDirection:
			if m.direction == stockdeck.DirectionAbove {
				m.direction = stockdeck.DirectionBelow
			} else {
				m.direction = stockdeck.DirectionAbove
			}
			return m, nil
		}
	}

	if m.fieldIdx == fieldThreshold {
		var cmd tea.Cmd
		m.threshold, cmd = m.threshold.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m alertsModel) syncFocus() alertsModel {
	if m.fieldIdx == fieldThreshold {
		m.threshold.Focus()
	} else {
		m.threshold.Blur()
	}
	return m
}

// submit validates locally and issues the create. Invalid input never
// reaches the network.
func (m alertsModel) submit() (alertsModel, tea.Cmd) {
	if m.symbolIdx < 0 || m.symbolIdx >= len(m.indices) {
		m.formErr = "select an index"
		return m, nil
	}
	raw := strings.TrimSpace(m.threshold.Value())
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil || threshold < 0 {
		m.formErr = "threshold must be a non-negative number"
		return m, nil
	}
	if m.direction != stockdeck.DirectionAbove && m.direction != stockdeck.DirectionBelow {
		m.formErr = "direction must be above or below"
		return m, nil
	}

	spec := stockdeck.AlertSpec{
		Symbol:    m.indices[m.symbolIdx].Symbol,
		Threshold: threshold,
		Direction: m.direction,
	}
	m.submitting = true
	m.formErr = ""
	api := m.api
	return m, func() tea.Msg {
		alert, err := api.CreateAlert(context.Background(), spec)
		return alertCreatedMsg{alert: alert, err: err}
	}
}

func (m *alertsModel) resetForm() {
	m.symbolIdx = -1
	m.threshold.SetValue("")
	m.direction = stockdeck.DirectionAbove
	m.fieldIdx = fieldSymbol
	m.formErr = ""
	m.threshold.Blur()
}

func (m alertsModel) indexName(symbol string) string {
	for _, idx := range m.indices {
		if idx.Symbol == symbol {
			return idx.Name
		}
	}
	return symbol
}

func (m alertsModel) view(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Price Alerts"))
	b.WriteString("\n\n")

	if m.formOpen {
		b.WriteString(m.renderForm())
		b.WriteString("\n")
	}

	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("  loading..."))
		b.WriteString("\n")
	case m.loadErr != "":
		b.WriteString(errStyle.Render("  " + m.loadErr))
		b.WriteString("\n")
	case len(m.alerts) == 0:
		b.WriteString(dimStyle.Render("  no alerts set up yet (n to create one)"))
		b.WriteString("\n")
	default:
		for i, al := range m.alerts {
			hl := !m.formOpen && i == m.cursor
			line := fmt.Sprintf("  %-8s price %s %s",
				al.Symbol, al.Direction, FormatPrice(al.Threshold))
			b.WriteString(hlStyle(symbolStyle, hl).Render(line))
			b.WriteString("\n")
			detail := fmt.Sprintf("           %s · created %s",
				m.indexName(al.Symbol), FormatTime(al.CreatedAt))
			b.WriteString(hlStyle(dimStyle, hl).Render(detail))
			b.WriteString("\n")
		}
	}

	if m.actionErr != "" {
		b.WriteString(errStyle.Render("  " + m.actionErr))
		b.WriteString("\n")
	}
	if !m.formOpen {
		b.WriteString(dimStyle.Render("\n  n new alert  x delete selected"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m alertsModel) renderForm() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("  New Alert"))
	b.WriteString("\n")

	symbol := "(select an index)"
	if m.symbolIdx >= 0 && m.symbolIdx < len(m.indices) {
		idx := m.indices[m.symbolIdx]
		symbol = fmt.Sprintf("%s (%s)", idx.Name, idx.Symbol)
	}
	row := func(field int, label, value string) {
		marker := "  "
		if m.fieldIdx == field {
			marker = "> "
		}
		b.WriteString(fmt.Sprintf("  %s%s %s\n", marker,
			labelStyle.Render(fmt.Sprintf("%-10s", label)), value))
	}
	row(fieldSymbol, "Index", symbol)
	row(fieldThreshold, "Threshold", m.threshold.View())
	row(fieldDirection, "Direction", m.direction)

	switch {
	case m.submitting:
		b.WriteString(dimStyle.Render("  creating..."))
	case m.formErr != "":
		b.WriteString(errStyle.Render("  " + m.formErr))
	default:
		b.WriteString(dimStyle.Render("  enter to create  esc to cancel  left/right to change values"))
	}
	b.WriteString("\n")
	return b.String()
}
