package stockdeck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newTestClient(srvURL string, tokens TokenSource) *Client {
	return NewClient(ClientOpts{BaseURL: srvURL, Tokens: tokens})
}

func TestListIndicesSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indices" {
			t.Errorf("path = %s, want /indices", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok-123")
		}
		json.NewEncoder(w).Encode([]Index{
			{Symbol: "SPX", Name: "S&P 500"},
			{Symbol: "NDX", Name: "Nasdaq 100"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, staticTokens("tok-123"))
	indices, err := c.ListIndices(context.Background())
	if err != nil {
		t.Fatalf("ListIndices returned error: %v", err)
	}
	if len(indices) != 2 {
		t.Fatalf("got %d indices, want 2", len(indices))
	}
	if indices[0].Symbol != "SPX" {
		t.Errorf("indices[0].Symbol = %q, want SPX", indices[0].Symbol)
	}
}

func TestAnonymousRequestHasNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want no header without a token", got)
		}
		json.NewEncoder(w).Encode([]Index{})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, staticTokens(""))
	if _, err := c.ListIndices(context.Background()); err != nil {
		t.Fatalf("ListIndices returned error: %v", err)
	}
}

func TestGetSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indices/SPX" {
			t.Errorf("path = %s, want /indices/SPX", r.URL.Path)
		}
		w.Write([]byte(`{"c":5000.25,"h":5020.5,"l":4980.0,"o":4990.0,"pc":4995.5,"d":4.75,"dp":0.095}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, staticTokens("tok"))
	q, err := c.GetSnapshot(context.Background(), "SPX")
	if err != nil {
		t.Fatalf("GetSnapshot returned error: %v", err)
	}
	if q.Current != 5000.25 {
		t.Errorf("Current = %v, want 5000.25", q.Current)
	}
	if q.PrevClose != 4995.5 {
		t.Errorf("PrevClose = %v, want 4995.5", q.PrevClose)
	}
	if q.ChangePercent != 0.095 {
		t.Errorf("ChangePercent = %v, want 0.095", q.ChangePercent)
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"unknown symbol"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, staticTokens("tok"))
	_, err := c.GetSnapshot(context.Background(), "NOPE")
	if err == nil {
		t.Fatal("GetSnapshot should fail for an unknown symbol")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error %v should wrap ErrNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v should carry an *APIError", err)
	}
	if apiErr.Message != "unknown symbol" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "unknown symbol")
	}
}

func TestGetHistorical(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indices/SPX/historical" {
			t.Errorf("path = %s, want /indices/SPX/historical", r.URL.Path)
		}
		if got := r.URL.Query().Get("from"); got != "1700000000" {
			t.Errorf("from = %q, want 1700000000", got)
		}
		if got := r.URL.Query().Get("to"); got != "1700604800" {
			t.Errorf("to = %q, want 1700604800", got)
		}
		w.Write([]byte(`{"s":"ok","t":[1700000000,1700086400],"c":[4990.0,5000.25]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, staticTokens("tok"))
	series, err := c.GetHistorical(context.Background(), "SPX", 1700000000, 1700604800)
	if err != nil {
		t.Fatalf("GetHistorical returned error: %v", err)
	}
	if !series.OK() {
		t.Errorf("Status = %q, want ok", series.Status)
	}
	if len(series.Timestamps) != 2 || len(series.Closes) != 2 {
		t.Fatalf("got %d timestamps / %d closes, want 2 / 2", len(series.Timestamps), len(series.Closes))
	}
	if series.Closes[1] != 5000.25 {
		t.Errorf("Closes[1] = %v, want 5000.25", series.Closes[1])
	}
}

func TestGetHistoricalNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"no_data","t":[],"c":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, staticTokens("tok"))
	series, err := c.GetHistorical(context.Background(), "SPX", 1, 2)
	if err != nil {
		t.Fatalf("GetHistorical returned error: %v", err)
	}
	if series.OK() {
		t.Error("a no_data series must not report OK")
	}
}

func TestCreateAlert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		var spec AlertSpec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if spec.Symbol != "SPX" || spec.Threshold != 100.5 || spec.Direction != DirectionAbove {
			t.Errorf("spec = %+v, want SPX/100.5/above", spec)
		}
		json.NewEncoder(w).Encode(Alert{
			ID:        "a1",
			Symbol:    spec.Symbol,
			Threshold: spec.Threshold,
			Direction: spec.Direction,
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, staticTokens("tok"))
	alert, err := c.CreateAlert(context.Background(), AlertSpec{Symbol: "SPX", Threshold: 100.5, Direction: DirectionAbove})
	if err != nil {
		t.Fatalf("CreateAlert returned error: %v", err)
	}
	if alert.ID != "a1" {
		t.Errorf("ID = %q, want a1 (server-assigned)", alert.ID)
	}
	if alert.Threshold != 100.5 {
		t.Errorf("Threshold = %v, want 100.5", alert.Threshold)
	}
}

func TestDeleteAlert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		if r.URL.Path != "/alerts/a1" {
			t.Errorf("path = %s, want /alerts/a1", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, staticTokens("tok"))
	if err := c.DeleteAlert(context.Background(), "a1"); err != nil {
		t.Fatalf("DeleteAlert returned error: %v", err)
	}
}

func TestDeleteAlertUnknownIDFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such alert"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, staticTokens("tok"))
	err := c.DeleteAlert(context.Background(), "missing")
	if err == nil {
		t.Fatal("deleting an unknown id should surface an error")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error %v should wrap ErrNotFound", err)
	}
}

func TestGetStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			t.Errorf("path = %s, want /stats", r.URL.Path)
		}
		w.Write([]byte(`{"requests":4321,"lastUpdated":"2026-08-30T12:00:00Z"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, staticTokens("tok"))
	stats, err := c.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats returned error: %v", err)
	}
	if stats.Requests != 4321 {
		t.Errorf("Requests = %d, want 4321", stats.Requests)
	}
	want := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if !stats.LastUpdated.Equal(want) {
		t.Errorf("LastUpdated = %v, want %v", stats.LastUpdated, want)
	}
}

func TestServerErrorDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"upstream feed unavailable"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, staticTokens("tok"))
	_, err := c.ListIndices(context.Background())
	if err == nil {
		t.Fatal("expected error on 500")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v should carry an *APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", apiErr.Status)
	}
	if apiErr.Message != "upstream feed unavailable" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "upstream feed unavailable")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("a 500 must not map to ErrNotFound")
	}
}
