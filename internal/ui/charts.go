package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"stockdeck/pkg/stockdeck"
)

// chartWindows are the selectable look-back windows in days.
var chartWindows = []int{7, 30, 90, 180, 365}

// Messages.
type chartIndicesMsg struct {
	indices []stockdeck.Index
	err     error
}

type historicalMsg struct {
	seq    int
	symbol string
	days   int
	series *stockdeck.HistoricalSeries
	err    error
}

// chartsModel plots the historical close series for the selected index.
// Both changing the index and changing the window bump the fetch sequence;
// only the response matching the latest sequence is ever displayed, so a
// burst of rapid selection changes settles on the last one requested.
type chartsModel struct {
	api *stockdeck.Client
	log *slog.Logger
	now func() time.Time

	spin           spinner.Model
	indices        []stockdeck.Index
	indicesErr     string
	loadingIndices bool

	cursor    int
	selected  stockdeck.Index
	windowIdx int

	series     *stockdeck.HistoricalSeries
	seriesDays int
	loading    bool
	note       string
	fetchSeq   int
}

func newChartsModel(api *stockdeck.Client, log *slog.Logger) chartsModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return chartsModel{
		api:       api,
		log:       log,
		now:       time.Now,
		spin:      sp,
		windowIdx: 1, // 30 days
	}
}

func (m chartsModel) mount() (chartsModel, tea.Cmd) {
	m.loadingIndices = true
	m.indicesErr = ""
	api := m.api
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		indices, err := api.ListIndices(context.Background())
		return chartIndicesMsg{indices: indices, err: err}
	})
}

func (m chartsModel) update(msg tea.Msg) (chartsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case chartIndicesMsg:
		m.loadingIndices = false
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

	case historicalMsg:
		if msg.seq != m.fetchSeq {
			// A newer selection superseded this fetch; drop it.
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.log.Error("fetching historical data", "symbol", msg.symbol, "days", msg.days, "error", msg.err)
			m.note = "historical data unavailable"
			return m, nil
		}
		if !msg.series.OK() {
			// Never plot a non-OK series.
			m.series = nil
			m.note = fmt.Sprintf("no data for %s over %d days", msg.symbol, msg.days)
			return m, nil
		}
		m.series = msg.series
		m.seriesDays = msg.days
		m.note = ""
		return m, nil

	case spinner.TickMsg:
		if m.loading || m.loadingIndices {
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
				m.selected = m.indices[m.cursor]
				return m.fetchSeries()
			}
		case "d", "right":
			m.windowIdx = (m.windowIdx + 1) % len(chartWindows)
			if m.selected.Symbol != "" {
				return m.fetchSeries()
			}
		case "D", "left":
			m.windowIdx = (m.windowIdx + len(chartWindows) - 1) % len(chartWindows)
			if m.selected.Symbol != "" {
				return m.fetchSeries()
			}
		}
		return m, nil
	}
	return m, nil
}

// fetchSeries issues a historical fetch for the current selection and
// window. The window is read here, not at key-press time, so the request
// always reflects the latest choice.
func (m chartsModel) fetchSeries() (chartsModel, tea.Cmd) {
	m.fetchSeq++
	m.loading = true
	m.note = ""
	seq := m.fetchSeq
	symbol := m.selected.Symbol
	days := chartWindows[m.windowIdx]
	api := m.api
	to := m.now().Unix()
	from := to - int64(days)*24*60*60
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		series, err := api.GetHistorical(context.Background(), symbol, from, to)
		return historicalMsg{seq: seq, symbol: symbol, days: days, series: series, err: err}
	})
}

func (m chartsModel) view(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Price Charts"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("   window: %d days (d to cycle)", chartWindows[m.windowIdx])))
	b.WriteString("\n\n")

	switch {
	case m.loadingIndices:
		b.WriteString(dimStyle.Render("  " + m.spin.View() + " loading indices..."))
		b.WriteString("\n")
	case m.indicesErr != "":
		b.WriteString(errStyle.Render("  " + m.indicesErr))
		b.WriteString("\n")
	default:
		for i, idx := range m.indices {
			hl := i == m.cursor
			marker := "  "
			if idx.Symbol == m.selected.Symbol {
				marker = "> "
			}
			style := symbolStyle
			if hl {
				style = symbolHlStyle
			}
			b.WriteString(hlStyle(style, hl).Render(fmt.Sprintf("%s%-8s %s", marker, idx.Symbol, idx.Name)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderChart(width))
	return b.String()
}

func (m chartsModel) renderChart(width int) string {
	if m.selected.Symbol == "" {
		return dimStyle.Render("  select an index to view its chart")
	}
	if m.loading {
		return dimStyle.Render("  " + m.spin.View() + " loading chart...")
	}
	if m.note != "" {
		return dimStyle.Render("  " + m.note)
	}
	if m.series == nil || len(m.series.Closes) == 0 {
		return dimStyle.Render("  no chart data")
	}

	plotWidth := width - 12
	if plotWidth < 20 {
		plotWidth = 20
	}
	caption := fmt.Sprintf("%s (%s) - last %d days", m.selected.Name, m.selected.Symbol, m.seriesDays)
	graph := asciigraph.Plot(m.series.Closes,
		asciigraph.Height(12),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)

	lo, hi := m.series.Closes[0], m.series.Closes[0]
	for _, c := range m.series.Closes {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	last := m.series.Closes[len(m.series.Closes)-1]
	legend := fmt.Sprintf("low %s   high %s   last %s",
		FormatPrice(lo), FormatPrice(hi), FormatPrice(last))

	return graph + "\n" + dimStyle.Render("  "+legend)
}
