package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"stockdeck/pkg/stockdeck"
)

type statsMsg struct {
	stats *stockdeck.UsageStats
	err   error
}

// Demo trend series shown alongside the live totals; the usage endpoint
// only reports aggregates, so the trend is illustrative.
var statsTimeframes = []struct {
	name   string
	labels []string
	values []int
}{
	{
		name:   "hourly",
		labels: []string{"00", "02", "04", "06", "08", "10", "12", "14", "16", "18", "20", "22"},
		values: []int{12, 19, 8, 15, 22, 17, 25, 12, 19, 8, 15, 22},
	},
	{
		name:   "daily",
		labels: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		values: []int{85, 92, 78, 95, 88, 102, 115},
	},
	{
		name:   "weekly",
		labels: []string{"W1", "W2", "W3", "W4", "W5"},
		values: []int{520, 580, 610, 550, 590},
	},
}

type statsModel struct {
	api *stockdeck.Client
	log *slog.Logger

	stats    *stockdeck.UsageStats
	loading  bool
	errMsg   string
	frameIdx int
}

func newStatsModel(api *stockdeck.Client, log *slog.Logger) statsModel {
	return statsModel{api: api, log: log}
}

func (m statsModel) mount() (statsModel, tea.Cmd) {
	m.loading = true
	m.errMsg = ""
	api := m.api
	return m, func() tea.Msg {
		stats, err := api.GetStats(context.Background())
		return statsMsg{stats: stats, err: err}
	}
}

func (m statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsMsg:
		m.loading = false
		if msg.err != nil {
			m.log.Error("loading usage stats", "error", msg.err)
			m.errMsg = "failed to load statistics"
			return m, nil
		}
		m.stats = msg.stats
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "t" {
			m.frameIdx = (m.frameIdx + 1) % len(statsTimeframes)
		}
	}
	return m, nil
}

func (m statsModel) view(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("API Usage"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("  loading..."))
		b.WriteString("\n")
		return b.String()
	case m.errMsg != "":
		b.WriteString(errStyle.Render("  " + m.errMsg))
		b.WriteString("\n")
		return b.String()
	case m.stats == nil:
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %s %s\n",
		labelStyle.Render("Total requests"), valueStyle.Render(FormatInt(m.stats.Requests))))
	b.WriteString(fmt.Sprintf("  %s %s\n",
		labelStyle.Render("Avg per day   "), valueStyle.Render(FormatInt(m.stats.Requests/30))))
	b.WriteString(fmt.Sprintf("  %s %s\n",
		labelStyle.Render("Last updated  "), valueStyle.Render(FormatTime(m.stats.LastUpdated))))

	frame := statsTimeframes[m.frameIdx]
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("  Request trend (%s)", frame.name)))
	b.WriteString("\n")
	b.WriteString(renderBars(frame.labels, frame.values, width))
	b.WriteString(dimStyle.Render("\n  t switch timeframe"))
	b.WriteString("\n")
	return b.String()
}

// renderBars draws one horizontal bar per sample, scaled to the largest
// value in the series.
func renderBars(labels []string, values []int, width int) string {
	maxVal := 0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		return ""
	}
	barWidth := width - 16
	if barWidth < 10 {
		barWidth = 30
	}
	if barWidth > 60 {
		barWidth = 60
	}
	var b strings.Builder
	for i, v := range values {
		n := v * barWidth / maxVal
		if n < 1 {
			n = 1
		}
		b.WriteString(fmt.Sprintf("  %-4s %s %s\n",
			labels[i], barStyle.Render(strings.Repeat("█", n)), dimStyle.Render(FormatInt(v))))
	}
	return b.String()
}
