package ui

import (
	"io"
	"log/slog"
	"testing"

	"stockdeck/pkg/stockdeck"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDashboardStaleSnapshotDiscarded(t *testing.T) {
	m := newDashboardModel(nil, testLogger())
	m.indices = []stockdeck.Index{{Symbol: "SPX", Name: "S&P 500"}, {Symbol: "NDX", Name: "NASDAQ 100"}}

	m, _ = m.selectIndex("SPX")
	firstSeq := m.fetchSeq
	m, _ = m.selectIndex("NDX")
	secondSeq := m.fetchSeq
	if firstSeq == secondSeq {
		t.Fatal("sequence did not advance between selections")
	}

	// The first fetch lands after the second selection; it must be dropped.
	m, _ = m.update(snapshotMsg{seq: firstSeq, symbol: "SPX", quote: &stockdeck.Quote{Current: 4000}})
	if m.quote != nil {
		t.Fatalf("stale snapshot was committed: %+v", m.quote)
	}
	if !m.quoteLoading {
		t.Error("stale snapshot cleared the loading state")
	}

	m, _ = m.update(snapshotMsg{seq: secondSeq, symbol: "NDX", quote: &stockdeck.Quote{Current: 15000}})
	if m.quote == nil || m.quote.Current != 15000 {
		t.Fatalf("latest snapshot not committed, got %+v", m.quote)
	}
	if m.quoteLoading {
		t.Error("loading state still set after latest snapshot landed")
	}
}

func TestDashboardNotFoundClearsQuote(t *testing.T) {
	m := newDashboardModel(nil, testLogger())
	m, _ = m.selectIndex("SPX")
	m, _ = m.update(snapshotMsg{seq: m.fetchSeq, symbol: "SPX", quote: &stockdeck.Quote{Current: 4000}})
	if m.quote == nil {
		t.Fatal("snapshot not committed")
	}

	m, _ = m.selectIndex("XXX")
	m, _ = m.update(snapshotMsg{seq: m.fetchSeq, symbol: "XXX", err: stockdeck.ErrNotFound})
	if m.quote != nil {
		t.Errorf("quote kept after not-found response: %+v", m.quote)
	}
	if m.quoteNote == "" {
		t.Error("no note shown for a symbol without data")
	}
}

func TestDashboardErrorKeepsPriorQuote(t *testing.T) {
	m := newDashboardModel(nil, testLogger())
	m, _ = m.selectIndex("SPX")
	m, _ = m.update(snapshotMsg{seq: m.fetchSeq, symbol: "SPX", quote: &stockdeck.Quote{Current: 4000}})

	m, _ = m.selectIndex("SPX")
	m, _ = m.update(snapshotMsg{seq: m.fetchSeq, symbol: "SPX", err: &stockdeck.APIError{Status: 500, Message: "boom"}})
	if m.quote == nil || m.quote.Current != 4000 {
		t.Errorf("prior quote not kept through a transient error, got %+v", m.quote)
	}
	if m.quoteNote == "" {
		t.Error("no note shown for a failed refresh")
	}
}
