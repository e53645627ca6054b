package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sadopc/askfin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithHTTPClient(srv.Client()))
}

func TestAskSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ask", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))

		var req askRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "transactions over $500", req.Query)

		io.WriteString(w, `{"status":"success","sql":"SELECT * FROM tx WHERE amount>500","data":[{"amount":"750.5","date":"2024-01-05"}]}`)
	})

	res, err := c.Ask(context.Background(), "transactions over $500")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM tx WHERE amount>500", res.GeneratedQuery)
	assert.Equal(t, []string{"amount", "date"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, model.String("750.5"), res.Rows[0]["amount"])
	assert.Equal(t, model.String("2024-01-05"), res.Rows[0]["date"])
}

func TestAskStatusFlagError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"error","message":"Failed after 3 attempts"}`)
	})

	_, err := c.Ask(context.Background(), "q")
	var se *model.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Failed after 3 attempts", se.Message)
}

func TestAskStatusFlagErrorWithoutMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"error"}`)
	})

	_, err := c.Ask(context.Background(), "q")
	assert.Equal(t, "An unknown error occurred.", model.Message(err))
}

func TestAskHTTPErrorUsesDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"no such column: amt"}`)
	})

	_, err := c.Ask(context.Background(), "q")
	var se *model.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, "no such column: amt", se.Message)
}

func TestAskHTTPErrorStructuredDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":[{"msg":"field required"}]}`)
	})

	_, err := c.Ask(context.Background(), "q")
	assert.Equal(t, "field required", model.Message(err))
}

func TestAskHTTPErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Ask(context.Background(), "q")
	var se *model.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "An error occurred", se.Message)
}

func TestAskTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url)
	_, err := c.Ask(context.Background(), "q")
	var te *model.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "failed to connect to the server", model.Message(err))
}

func TestAskTimeoutIsTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	c = New(c.BaseURL(), WithTimeout(20*time.Millisecond))

	_, err := c.Ask(context.Background(), "q")
	var te *model.TransportError
	assert.ErrorAs(t, err, &te)
}

func TestDashboard(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dashboard", r.URL.Path)
		io.WriteString(w, `{"summary":{"total_volume":1000,"total_count":4,"avg_amount":250},
			"by_category":[{"name":"Food","value":600},{"name":"Travel","value":400}],
			"daily_trend":[{"date":"2024-01-01","amount":1000}]}`)
	})

	d, err := c.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), d.Summary.TotalCount)
	assert.Len(t, d.ByCategory, 2)
	assert.Len(t, d.DailyTrend, 1)
}

func TestDashboardFailureIsTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"db down"}`)
	})

	_, err := c.Dashboard(context.Background())
	var te *model.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "failed to load dashboard data", model.Message(err))
}

func TestListReportsKeepsOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":2,"name":"b","query":"q2","created_at":"2024-02-01"},
			{"id":9,"name":"a","query":"q1","created_at":"2024-03-01"}]`)
	})

	reports, err := c.ListReports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, int64(2), reports[0].ID)
	assert.Equal(t, int64(9), reports[1].ID)
}

func TestCreateReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req createReportRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Big Spenders", req.Name)
		assert.Equal(t, "show transactions over 500", req.Query)
		io.WriteString(w, `{"id":1,"name":"Big Spenders","query":"show transactions over 500","created_at":"2024-03-01T09:00:00"}`)
	})

	r, err := c.CreateReport(context.Background(), "Big Spenders", "show transactions over 500")
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.ID)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestDeleteReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/reports/1":
			io.WriteString(w, `{"message":"Report deleted"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"detail":"Report not found"}`)
		}
	})

	require.NoError(t, c.DeleteReport(context.Background(), 1))

	err := c.DeleteReport(context.Background(), 2)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestDeleteReportServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.DeleteReport(context.Background(), 1)
	var te *model.TransportError
	assert.ErrorAs(t, err, &te)
	assert.False(t, errors.Is(err, model.ErrNotFound))
}
