package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockReport = `<html><body>
<p class="sansserif">Travel times as of 8:45 A.M., Monday, October 3, 2011.</p>
<table>
	<tr><th>Road</th><th>Route</th><th>Distance</th><th>Average</th><th>Current</th><th>HOV</th></tr>
	<tr><td><img alt="SR 520"></td><td>Redmond to Seattle</td><td>14.8</td><td>19</td>
		<td><font color="#FF0000">34</font></td><td><font color="#006600">18</font></td></tr>
</table></body></html>`

// mockHTMLServer creates a test server that serves a fixed HTML response
func mockHTMLServer(html string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, html)
	}))
}

func TestRunAndLatestCommands(t *testing.T) {
	server := mockHTMLServer(mockReport)
	defer server.Close()

	dbPath := filepath.Join(t.TempDir(), "cli.db")

	app := newApp()
	err := app.RunContext(context.Background(), []string{"traveltimes", "run", "--url", server.URL, "--db", dbPath})
	require.NoError(t, err)

	var out bytes.Buffer
	app = newApp()
	app.Writer = &out
	err = app.RunContext(context.Background(), []string{"traveltimes", "latest", "--db", dbPath})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Travel times as of 2011-10-03 08:45 PDT")
	assert.Contains(t, out.String(), "[SR 520] Redmond to Seattle: 14.8 mi, avg 19 min, now 34 min (Bad), HOV 18 min (Good)")
}

func TestRunCommandMalformedReport(t *testing.T) {
	server := mockHTMLServer(`<p class="sansserif">Travel times as of 8:45 A.M., Monday, October 3, 2011.</p>
	<table><tr><th>Route</th></tr><tr><td>Via Express Lanes</td><td>1</td><td>1</td><td>1</td><td>1</td></tr></table>`)
	defer server.Close()

	err := newApp().RunContext(context.Background(), []string{
		"traveltimes", "run", "--url", server.URL, "--db", filepath.Join(t.TempDir(), "bad.db"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed report row 1")
}
