package pagetitle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"annotations/pkg/apperror"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://example.com/article"

func setupHTTPMock(t *testing.T, f *Fetcher) {
	t.Helper()
	httpmock.ActivateNonDefault(f.Client)
	t.Cleanup(httpmock.DeactivateAndReset)
}

func TestFetchTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"simple", `<html><head><title>  Hello World </title></head><body></body></html>`, "Hello World"},
		{"entities", `<html><head><title>Tom &amp; Jerry</title></head></html>`, "Tom & Jerry"},
		{"first_wins", `<html><head><title>First</title><title>Second</title></head></html>`, "First"},
		{"svg_title_ignored", `<html><body><svg><title>icon</title></svg></body></html>`, FallbackTitle},
		{"blank_title", `<html><head><title>   </title></head></html>`, FallbackTitle},
		{"missing", `<html><head></head><body><h1>No title here</h1></body></html>`, FallbackTitle},
		{"empty_document", ``, FallbackTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher(time.Second)
			setupHTTPMock(t, f)
			httpmock.RegisterResponder(http.MethodGet, pageURL, httpmock.NewStringResponder(http.StatusOK, tt.body))

			title, err := f.FetchTitle(context.Background(), pageURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, title)
			assert.Equal(t, 1, httpmock.GetTotalCallCount(), "exactly one request, no retries")
		})
	}
}

func TestFetchTitleRequiresURL(t *testing.T) {
	f := NewFetcher(time.Second)

	_, err := f.FetchTitle(context.Background(), "  ")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestFetchTitleNetworkError(t *testing.T) {
	f := NewFetcher(time.Second)
	setupHTTPMock(t, f)
	httpmock.RegisterResponder(http.MethodGet, pageURL, httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := f.FetchTitle(context.Background(), pageURL)
	require.Error(t, err)
	assert.Equal(t, apperror.KindFetch, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestFetchTitleHTTPError(t *testing.T) {
	f := NewFetcher(time.Second)
	setupHTTPMock(t, f)
	httpmock.RegisterResponder(http.MethodGet, pageURL, httpmock.NewStringResponder(http.StatusNotFound, "<title>Not Found</title>"))

	_, err := f.FetchTitle(context.Background(), pageURL)
	require.Error(t, err)
	assert.Equal(t, apperror.KindFetch, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestFetchTitleInvalidURL(t *testing.T) {
	f := NewFetcher(time.Second)

	_, err := f.FetchTitle(context.Background(), "://not a url")
	require.Error(t, err)
	assert.Equal(t, apperror.KindFetch, apperror.KindOf(err))
}

func TestFetchTitleTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	f := NewFetcher(50 * time.Millisecond)
	start := time.Now()
	_, err := f.FetchTitle(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, apperror.KindFetch, apperror.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewFetcherDefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewFetcher(0).Client.Timeout)
}

func TestGetPageTitleHandler(t *testing.T) {
	f := NewFetcher(time.Second)
	setupHTTPMock(t, f)
	httpmock.RegisterResponder(http.MethodGet, pageURL, httpmock.NewStringResponder(http.StatusOK, "<title>Docs</title>"))
	h := NewHandler(f)

	rec := httptest.NewRecorder()
	h.GetPageTitle(rec, httptest.NewRequest(http.MethodGet, "/api/page-title?context="+pageURL, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Docs", body["title"])
}

func TestGetPageTitleHandlerErrors(t *testing.T) {
	f := NewFetcher(time.Second)
	setupHTTPMock(t, f)
	httpmock.RegisterResponder(http.MethodGet, pageURL, httpmock.NewErrorResponder(errors.New("dns failure")))
	h := NewHandler(f)

	rec := httptest.NewRecorder()
	h.GetPageTitle(rec, httptest.NewRequest(http.MethodGet, "/api/page-title", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"URL is required"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.GetPageTitle(rec, httptest.NewRequest(http.MethodGet, "/api/page-title?url="+pageURL, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "dns failure")

	rec = httptest.NewRecorder()
	h.GetPageTitle(rec, httptest.NewRequest(http.MethodPost, "/api/page-title", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
