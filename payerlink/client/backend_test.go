package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelianware/payerlink/payerlink/fhir"
	"github.com/aurelianware/payerlink/payerlink/models"
)

func TestFetchResources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Patient", r.URL.Path)
		assert.Equal(t, "MBR123", r.URL.Query().Get("member"))
		assert.Equal(t, "2026-01-01T00:00:00Z", r.URL.Query().Get("from"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Write([]byte(`{"resourceType":"Patient","id":"MBR123"}` + "\n\n" +
			`{"resourceType":"Patient","id":"MBR456"}` + "\n"))
	}))
	defer server.Close()

	backend := NewHTTPBackend(server.URL)
	window := models.DateRange{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	resources, err := backend.FetchResources(context.Background(), "MBR123", "Patient", window)
	require.NoError(t, err)
	require.Len(t, resources, 2)

	patient, ok := resources[0].(*fhir.Patient)
	require.True(t, ok)
	assert.Equal(t, "MBR123", patient.ID)
}

func TestFetchResources_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	backend := NewHTTPBackend(server.URL)
	_, err := backend.FetchResources(context.Background(), "MBR123", "Patient", models.DateRange{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchResources_MalformedStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"no-type"}` + "\n"))
	}))
	defer server.Close()

	backend := NewHTTPBackend(server.URL)
	_, err := backend.FetchResources(context.Background(), "MBR123", "Patient", models.DateRange{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestFetchResources_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"resourceType":"Coverage","id":"cov-1"}` + "\n"))
	}))
	defer server.Close()

	backend := NewHTTPBackend(server.URL)
	backend.httpClient.RetryWaitMin = time.Millisecond
	backend.httpClient.RetryWaitMax = 5 * time.Millisecond
	resources, err := backend.FetchResources(context.Background(), "MBR123", "Coverage", models.DateRange{})
	require.NoError(t, err)
	assert.Len(t, resources, 1)
	assert.Equal(t, 2, attempts)
}
