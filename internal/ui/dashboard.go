package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"stockdeck/pkg/stockdeck"
)

// Messages.
type dashIndicesMsg struct {
	indices []stockdeck.Index
	err     error
}

type snapshotMsg struct {
	seq    int
	symbol string
	quote  *stockdeck.Quote
	err    error
}

// dashboardModel lists the indices and shows a quote snapshot for the
// selected one. Snapshots are fetched fresh on every selection; a fetch
// result is committed only when its sequence number still matches the
// latest selection.
type dashboardModel struct {
	api *stockdeck.Client
	log *slog.Logger

	spin       spinner.Model
	indices    []stockdeck.Index
	indicesErr string
	loading    bool

	cursor       int
	selected     string
	quote        *stockdeck.Quote
	quoteLoading bool
	quoteNote    string
	fetchSeq     int
}

func newDashboardModel(api *stockdeck.Client, log *slog.Logger) dashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return dashboardModel{api: api, log: log, spin: sp}
}

func (m dashboardModel) mount() (dashboardModel, tea.Cmd) {
	m.loading = true
	m.indicesErr = ""
	api := m.api
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		indices, err := api.ListIndices(context.Background())
		return dashIndicesMsg{indices: indices, err: err}
	})
}

func (m dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashIndicesMsg:
		m.loading = false
		if msg.err != nil {
			m.log.Error("fetching indices", "error", msg.err)
			m.indicesErr = "indices unavailable"
			return m, nil
		}
		m.indices = msg.indices
		if m.cursor >= len(m.indices) {
			m.cursor = 0
		}
		return m, nil

	case snapshotMsg:
		if msg.seq != m.fetchSeq {
			// Superseded by a newer selection.
			return m, nil
		}
		m.quoteLoading = false
		if msg.err != nil {
			m.log.Error("fetching snapshot", "symbol", msg.symbol, "error", msg.err)
			if errors.Is(msg.err, stockdeck.ErrNotFound) {
				m.quote = nil
				m.quoteNote = "no data for " + msg.symbol
			} else {
				// Keep whatever was on screen.
				m.quoteNote = "quote unavailable"
			}
			return m, nil
		}
		m.quote = msg.quote
		m.quoteNote = ""
		return m, nil

	case spinner.TickMsg:
		if m.loading || m.quoteLoading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.indices)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(m.indices) {
				return m.selectIndex(m.indices[m.cursor].Symbol)
			}
		}
		return m, nil
	}
	return m, nil
}

// selectIndex issues a snapshot fetch for the symbol. The sequence bump
// invalidates any fetch still in flight for an earlier selection.
func (m dashboardModel) selectIndex(symbol string) (dashboardModel, tea.Cmd) {
	m.selected = symbol
	m.fetchSeq++
	m.quoteLoading = true
	m.quoteNote = ""
	seq := m.fetchSeq
	api := m.api
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		quote, err := api.GetSnapshot(context.Background(), symbol)
		return snapshotMsg{seq: seq, symbol: symbol, quote: quote, err: err}
	})
}

func (m dashboardModel) view(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Market Indices"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("  " + m.spin.View() + " loading indices..."))
		b.WriteString("\n")
	case m.indicesErr != "":
		b.WriteString(errStyle.Render("  " + m.indicesErr))
		b.WriteString("\n")
	case len(m.indices) == 0:
		b.WriteString(dimStyle.Render("  (no indices)"))
		b.WriteString("\n")
	default:
		for i, idx := range m.indices {
			hl := i == m.cursor
			marker := "  "
			if idx.Symbol == m.selected {
				marker = "> "
			}
			line := fmt.Sprintf("%s%-8s %s", marker, idx.Symbol, idx.Name)
			style := symbolStyle
			if hl {
				style = symbolHlStyle
			}
			b.WriteString(hlStyle(style, hl).Render(line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderSnapshot())
	return b.String()
}

func (m dashboardModel) renderSnapshot() string {
	if m.selected == "" {
		return dimStyle.Render("  select an index and press enter for a quote")
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("  Snapshot ") + symbolStyle.Render(m.selected))
	b.WriteString("\n")

	if m.quoteLoading {
		b.WriteString(dimStyle.Render("  " + m.spin.View() + " loading..."))
		return b.String()
	}
	if m.quoteNote != "" {
		b.WriteString(errStyle.Render("  " + m.quoteNote))
		if m.quote == nil {
			return b.String()
		}
		b.WriteString("\n")
	}
	if m.quote == nil {
		b.WriteString(dimStyle.Render("  no data"))
		return b.String()
	}

	q := m.quote
	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-11s", label)),
			valueStyle.Render(value)))
	}
	row("Current", FormatPrice(q.Current))
	row("High", FormatPrice(q.High))
	row("Low", FormatPrice(q.Low))
	row("Open", FormatPrice(q.Open))
	row("Prev Close", FormatPrice(q.PrevClose))

	changeStyle := gainStyle
	if q.Change < 0 {
		changeStyle = lossStyle
	}
	b.WriteString(fmt.Sprintf("  %s %s\n",
		labelStyle.Render(fmt.Sprintf("%-11s", "Change")),
		changeStyle.Render(FormatChange(q.Change, q.ChangePercent))))
	return b.String()
}
