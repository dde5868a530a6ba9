package trading212

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL, "key", "secret", zerolog.Nop(),
		WithPolling(0, time.Millisecond, 5))
	return c, srv
}

func TestRequestExport(t *testing.T) {
	var gotBody exportRequest
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v0/history/exports", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"reportId":42}`)
	}))

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	jobID, err := c.RequestExport(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(42), jobID)

	assert.Equal(t, "2024-03-01T00:00:00Z", gotBody.TimeFrom)
	assert.Equal(t, "2024-03-31T00:00:00Z", gotBody.TimeTo)
	assert.True(t, gotBody.DataIncluded.IncludeTransactions)
	assert.True(t, gotBody.DataIncluded.IncludeOrders)
	assert.True(t, gotBody.DataIncluded.IncludeDividends)
}

func TestRequestExportErrorTaxonomy(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{400, ErrBadRequest},
		{401, ErrUnauthorized},
		{403, ErrForbidden},
		{404, ErrNotFound},
		{429, ErrRateLimited},
	}
	for _, tt := range tests {
		c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		_, err := c.RequestExport(context.Background(), time.Now().Add(-time.Hour), time.Now())
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(ErrUnauthorized))
	assert.True(t, IsAuthError(fmt.Errorf("wrap: %w", ErrForbidden)))
	assert.False(t, IsAuthError(ErrRateLimited))
}

func TestAwaitExportPollsUntilFinished(t *testing.T) {
	polls := 0
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		status := "Processing"
		link := ""
		if polls >= 3 {
			status = "Finished"
			link = "https://exports.example.com/report-42.csv"
		}
		fmt.Fprintf(w, `[{"reportId":42,"status":%q,"downloadLink":%q}]`, status, link)
	}))

	url, err := c.AwaitExport(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "https://exports.example.com/report-42.csv", url)
	assert.Equal(t, 3, polls)
}

func TestAwaitExportTimesOut(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"reportId":42,"status":"Queued"}]`)
	}))

	_, err := c.AwaitExport(context.Background(), 42)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAwaitExportFailedJob(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"reportId":42,"status":"Failed"}]`)
	}))

	_, err := c.AwaitExport(context.Background(), 42)
	assert.ErrorIs(t, err, ErrExportFailed)
}

func TestAwaitExportUnknownJob(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"reportId":7,"status":"Finished","downloadLink":"x"}]`)
	}))

	_, err := c.AwaitExport(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownloadAndParseNoAuthHeader(t *testing.T) {
	csv := "Action,Time,Total,Currency (Total),ID\nDeposit,2024-03-01 08:00:03,100.00,EUR,EOF1\n"
	c, srv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "presigned download must not carry auth")
		fmt.Fprint(w, csv)
	}))

	records, err := c.DownloadAndParse(context.Background(), srv.URL+"/report.csv")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Deposit", records[0].Action)
}

func TestDownloadAndParseBadStatus(t *testing.T) {
	c, srv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.DownloadAndParse(context.Background(), srv.URL+"/report.csv")
	assert.ErrorIs(t, err, ErrDownloadFailed)
}

func TestFetchTransactions(t *testing.T) {
	csv := "Action,Time,Total,Currency (Total),ID\nDeposit,2024-03-01 08:00:03,100.00,EUR,EOF1\nWithdrawal,2024-03-02 09:00:00,-40.00,EUR,EOF2\n"

	mux := http.NewServeMux()
	var downloadURL string
	mux.HandleFunc("POST /api/v0/history/exports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"reportId":9}`)
	})
	mux.HandleFunc("GET /api/v0/history/exports", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"reportId":9,"status":"Finished","downloadLink":%q}]`, downloadURL)
	})
	mux.HandleFunc("GET /report.csv", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, csv)
	})

	c, srv := testClient(t, mux)
	downloadURL = srv.URL + "/report.csv"

	records, err := c.FetchTransactions(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "EOF2", records[1].ID)
}

func TestAwaitExportHonorsContext(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"reportId":42,"status":"Queued"}]`)
	}))
	c.pollInterval = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.AwaitExport(ctx, 42)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchAccountInfoAndCash(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v0/equity/account/info", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":20123,"currencyCode":"EUR"}`)
	})
	mux.HandleFunc("GET /api/v0/equity/account/cash", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"free":150.25,"invested":849.10,"total":999.35}`)
	})
	c, _ := testClient(t, mux)

	info, err := c.FetchAccountInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(20123), info.ID)
	assert.Equal(t, "EUR", info.CurrencyCode)

	cash, err := c.FetchAccountCash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "150.25", cash.Free.StringFixed(2))
	assert.Equal(t, "849.10", cash.Invested.StringFixed(2))
}
