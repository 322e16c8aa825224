package fundamentus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const resultPage = `<html><body>
<table id="resultado">
<thead><tr><th>Papel</th><th>Cotação</th><th>P/L</th><th>P/VP</th></tr></thead>
<tbody>
<tr><td>PETR4</td><td>30,50</td><td>3,20</td><td>1,10</td></tr>
<tr><td>VALE3</td><td>61,75</td><td>5,80</td><td>1,45</td></tr>
<tr><td>petr4</td><td>30,50</td><td>3,20</td><td>1,10</td></tr>
<tr><td>WEGE3</td><td>38,00</td><td>28,00</td><td>7,50</td></tr>
</tbody>
</table>
</body></html>`

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchBatchParsesTable(t *testing.T) {
	srv := serve(t, resultPage)
	src := New(srv.URL, "test-agent", 5*time.Second, nil)

	batch, err := src.FetchBatch(context.Background())
	if err != nil {
		t.Fatalf("FetchBatch returned error: %v", err)
	}
	// Repeated petr4 row is dropped; table order preserved.
	want := []string{"PETR4", "VALE3", "WEGE3"}
	if len(batch.Entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(batch.Entries), len(want))
	}
	for i, sym := range want {
		if batch.Entries[i].Symbol != sym {
			t.Errorf("entry %d symbol = %s, want %s", i, batch.Entries[i].Symbol, sym)
		}
	}

	e := batch.Entries[0]
	if got := e.Values["Cotação"]; got != "30,50" {
		t.Errorf("Cotação = %q", got)
	}
	if got := e.Values["P/VP"]; got != "1,10" {
		t.Errorf("P/VP = %q", got)
	}
	if len(e.Labels) != 3 {
		t.Errorf("labels = %v", e.Labels)
	}
}

func TestFetchBatchUniverseFilter(t *testing.T) {
	srv := serve(t, resultPage)
	src := New(srv.URL, "test-agent", 5*time.Second, []string{"wege3"})

	batch, err := src.FetchBatch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Entries) != 1 || batch.Entries[0].Symbol != "WEGE3" {
		t.Errorf("entries = %+v", batch.Entries)
	}
}

func TestFetchBatchRowWidthMismatch(t *testing.T) {
	srv := serve(t, `<table id="resultado">
<thead><tr><th>Papel</th><th>Cotação</th></tr></thead>
<tbody><tr><td>PETR4</td><td>30,50</td><td>extra</td></tr></tbody>
</table>`)
	src := New(srv.URL, "test-agent", 5*time.Second, nil)

	if _, err := src.FetchBatch(context.Background()); err == nil {
		t.Fatal("expected width mismatch error")
	}
}

func TestFetchBatchMissingTable(t *testing.T) {
	srv := serve(t, `<html><body><p>maintenance</p></body></html>`)
	src := New(srv.URL, "test-agent", 5*time.Second, nil)

	if _, err := src.FetchBatch(context.Background()); err == nil {
		t.Fatal("expected missing-table error")
	}
}

func TestFetchBatchCancelledContext(t *testing.T) {
	srv := serve(t, resultPage)
	src := New(srv.URL, "test-agent", 5*time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.FetchBatch(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
