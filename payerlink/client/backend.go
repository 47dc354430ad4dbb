// Package client fetches member resources from the system of record. The
// exchange coordinator is its only consumer; it never writes back.
package client

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/aurelianware/payerlink/conf"
	"github.com/aurelianware/payerlink/log"
	"github.com/aurelianware/payerlink/payerlink/fhir"
	"github.com/aurelianware/payerlink/payerlink/models"
	"github.com/aurelianware/payerlink/payerlink/utils"
)

// Backend is the read side of the system of record.
type Backend interface {
	// FetchResources returns the member's resources of one type within the
	// date window. A zero window boundary is open.
	FetchResources(ctx context.Context, memberID, resourceType string, window models.DateRange) ([]fhir.Resource, error)
}

// HTTPBackend queries a record-stream HTTP endpoint. Transient failures
// retry with the client's backoff before surfacing.
type HTTPBackend struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// NewHTTPBackend builds a backend client for the given base URL. Timeout
// and retry limits come from PLX_BACKEND_TIMEOUT_MS and
// PLX_BACKEND_RETRIES.
func NewHTTPBackend(baseURL string) *HTTPBackend {
	client := retryablehttp.NewClient()
	client.RetryMax = utils.GetEnvInt("PLX_BACKEND_RETRIES", 3)
	client.Logger = nil
	client.HTTPClient.Timeout = time.Duration(utils.GetEnvInt("PLX_BACKEND_TIMEOUT_MS", 5000)) * time.Millisecond
	return &HTTPBackend{baseURL: baseURL, httpClient: client}
}

// NewHTTPBackendFromEnv builds the backend client from PLX_BACKEND_URL.
func NewHTTPBackendFromEnv() (*HTTPBackend, error) {
	baseURL := conf.GetEnv("PLX_BACKEND_URL")
	if baseURL == "" {
		return nil, errors.New("PLX_BACKEND_URL is not set")
	}
	return NewHTTPBackend(baseURL), nil
}

func (b *HTTPBackend) FetchResources(ctx context.Context, memberID, resourceType string, window models.DateRange) ([]fhir.Resource, error) {
	params := url.Values{}
	params.Set("member", memberID)
	params.Set("_format", "application/fhir+ndjson")
	if !window.Start.IsZero() {
		params.Set("from", window.Start.Format(time.RFC3339))
	}
	if !window.End.IsZero() {
		params.Set("to", window.End.Format(time.RFC3339))
	}

	req, err := retryablehttp.NewRequest("GET", fmt.Sprintf("%s/%s", b.baseURL, resourceType), nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not build backend request")
	}
	req = req.WithContext(ctx)
	req.URL.RawQuery = params.Encode()
	req.Header.Set("X-Request-ID", uuid.NewRandom().String())
	req.Header.Set("Accept", "application/fhir+ndjson")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "backend request for %s failed", resourceType)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Backend.Errorf("Backend returned %d for %s query", resp.StatusCode, resourceType)
		return nil, errors.Errorf("backend returned status %d for %s", resp.StatusCode, resourceType)
	}

	var resources []fhir.Resource
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		resource, err := fhir.UnmarshalResource(line)
		if err != nil {
			return nil, errors.Wrapf(err, "backend stream for %s is malformed", resourceType)
		}
		resources = append(resources, resource)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "could not read backend stream for %s", resourceType)
	}

	log.Backend.Infof("Fetched %d %s resources for member", len(resources), resourceType)
	return resources, nil
}
