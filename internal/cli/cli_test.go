package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/payout-harvest/internal/harvest"
)

func payoutServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/p/1":
			w.Write([]byte(`<table><thead><tr><th>Name</th><th>Payout</th></tr></thead>
				<tbody><tr><td>Jane</td><td>$1,200</td></tr></tbody></table>`))
		case "/p/2":
			w.Write([]byte(`<div class="divTable"><div class="divTableBody">
				<div class="divTableRow"><div class="divTableCell">Name</div><div class="divTableCell">Payout</div></div>
				<div class="divTableRow"><div class="divTableCell">Omar</div><div class="divTableCell">$300</div></div>
				</div></div>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRunCommand_StaticEngine(t *testing.T) {
	server := payoutServer(t)
	out := filepath.Join(t.TempDir(), "payouts.csv")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{
		"run", "-q",
		"--engine", "static",
		"--base-url", server.URL + "/p/{page}",
		"--start", "1", "--end", "2",
		"-o", out,
	})

	if err := Execute(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "Name,Payout\nJane,\"$1,200\"\nOmar,$300\n"
	if string(got) != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
	if activeApp != nil {
		t.Error("application should be closed after Execute")
	}
}

func TestInspectCommand_Markdown(t *testing.T) {
	server := payoutServer(t)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{
		"inspect", "2", "-q",
		"--engine", "static",
		"--base-url", server.URL + "/p/{page}",
		"--style", "markdown",
	})

	if err := Execute(context.Background()); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	got := stdout.String()
	for _, want := range []string{"| Name | Payout |", "| Omar | $300 |"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	s := harvest.Summary{
		RunID:         "abc123",
		PagesVisited:  3,
		PagesWithData: 2,
		PagesSkipped:  0,
		RowsWritten:   40,
		StoppedAt:     3,
		Schema:        []string{"Date", "Name"},
		Elapsed:       1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	printSummary(&buf, s, "out.csv", errors.New("boom"))
	got := buf.String()

	for _, want := range []string{"stopped at page 3", "abc123", "40", "Date, Name", "out.csv"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}
