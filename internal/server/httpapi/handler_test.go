package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/secureclip/internal/cryptox"
	"github.com/dmitrijs2005/secureclip/internal/envelope"
	"github.com/dmitrijs2005/secureclip/internal/logging"
	"github.com/dmitrijs2005/secureclip/internal/relay"
	"github.com/dmitrijs2005/secureclip/internal/server/config"
	"github.com/dmitrijs2005/secureclip/internal/server/store"
)

func newTestServer(t *testing.T, mutate func(cfg *config.Config)) (*Server, *httptest.Server) {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	// High budget so unrelated tests never trip the limiter.
	cfg.RateLimitRequests = 1000
	if mutate != nil {
		mutate(cfg)
	}

	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })

	s := NewServer(cfg, st, logging.NewDefault())
	t.Cleanup(func() { s.limiter.stop() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestStoreFetchRoundTrip(t *testing.T) {
	_, ts := newTestServer(t, nil)

	code := "123456"
	secret := []byte("correct horse battery staple")

	key := cryptox.DeriveKey(code)
	iv, ct, err := cryptox.Encrypt(secret, key)
	require.NoError(t, err)

	resp := postJSON(t, ts.URL+"/store", relay.StoreRequest{
		Code:    code,
		Payload: envelope.Encode(iv, ct),
		Meta:    relay.Metadata{Type: relay.TypeText},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[relay.StoreResponse](t, resp).Success)

	resp, err = http.Get(ts.URL + "/fetch/" + code)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeBody[relay.FetchResponse](t, resp)
	assert.Equal(t, relay.TypeText, fetched.Meta.Type)

	gotIV, gotCT, err := envelope.Decode(fetched.Payload)
	require.NoError(t, err)
	plaintext, err := cryptox.Decrypt(gotIV, gotCT, key)
	require.NoError(t, err)
	assert.Equal(t, secret, plaintext)

	// Single delivery: the record is gone.
	resp, err = http.Get(ts.URL + "/fetch/" + code)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPeekThenConsume(t *testing.T) {
	_, ts := newTestServer(t, nil)

	code := "654321"
	resp := postJSON(t, ts.URL+"/store", relay.StoreRequest{
		Code:    code,
		Payload: "opaque",
		Meta:    relay.Metadata{Type: relay.TypeFile, Name: "notes.pdf", Mime: "application/pdf"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Peek is repeatable and never consumes.
	for i := 0; i < 2; i++ {
		resp, err := http.Get(ts.URL + "/peek/" + code)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		peeked := decodeBody[relay.PeekResponse](t, resp)
		assert.True(t, peeked.Ready)
		assert.Equal(t, "notes.pdf", peeked.Meta.Name)
	}

	resp = postJSON(t, ts.URL+"/consume", relay.ConsumeRequest{Code: code})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeBody[relay.FetchResponse](t, resp)
	assert.Equal(t, "opaque", fetched.Payload)

	resp, err := http.Get(ts.URL + "/peek/" + code)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStoreValidation(t *testing.T) {
	_, ts := newTestServer(t, nil)

	tests := []struct {
		name string
		req  relay.StoreRequest
	}{
		{"bad code", relay.StoreRequest{Code: "12345", Payload: "x", Meta: relay.Metadata{Type: relay.TypeText}}},
		{"alpha code", relay.StoreRequest{Code: "12345a", Payload: "x", Meta: relay.Metadata{Type: relay.TypeText}}},
		{"empty payload", relay.StoreRequest{Code: "123456", Meta: relay.Metadata{Type: relay.TypeText}}},
		{"unknown type", relay.StoreRequest{Code: "123456", Payload: "x", Meta: relay.Metadata{Type: "blob"}}},
		{"file without name", relay.StoreRequest{Code: "123456", Payload: "x", Meta: relay.Metadata{Type: relay.TypeFile}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/store", tt.req)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestStorePayloadTooLarge(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.Config) {
		cfg.MaxEnvelopeBytes = 64
	})

	resp := postJSON(t, ts.URL+"/store", relay.StoreRequest{
		Code:    "123456",
		Payload: string(bytes.Repeat([]byte("a"), 65)),
		Meta:    relay.Metadata{Type: relay.TypeText},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	// Nothing was stored.
	resp, err := http.Get(ts.URL + "/fetch/123456")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRetrieveInvalidCodeLooksExpired(t *testing.T) {
	_, ts := newTestServer(t, nil)

	for _, path := range []string{"/fetch/abc", "/peek/0000000"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		body := decodeBody[relay.ErrorResponse](t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "expired or invalid", body.Error)
	}
}

func TestConsumeMalformedBody(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/consume", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[relay.HealthResponse](t, resp).OK)
}

func TestConcurrentFetchSingleDelivery(t *testing.T) {
	_, ts := newTestServer(t, nil)

	code := "111222"
	resp := postJSON(t, ts.URL+"/store", relay.StoreRequest{
		Code:    code,
		Payload: "once",
		Meta:    relay.Metadata{Type: relay.TypeText},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	const workers = 20
	var wg sync.WaitGroup
	statuses := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Get(ts.URL + "/fetch/" + code)
			if err != nil {
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	delivered := 0
	for status := range statuses {
		if status == http.StatusOK {
			delivered++
		}
	}
	assert.Equal(t, 1, delivered)
}

func TestStoreOverwritesSameCode(t *testing.T) {
	_, ts := newTestServer(t, nil)

	code := "777777"
	for i := 0; i < 2; i++ {
		resp := postJSON(t, ts.URL+"/store", relay.StoreRequest{
			Code:    code,
			Payload: fmt.Sprintf("payload-%d", i),
			Meta:    relay.Metadata{Type: relay.TypeText},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/fetch/" + code)
	require.NoError(t, err)
	fetched := decodeBody[relay.FetchResponse](t, resp)
	assert.Equal(t, "payload-1", fetched.Payload)
}

func TestRateLimitOnStore(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimitRequests = 2
		cfg.RateLimitWindow = time.Minute
	})

	req := relay.StoreRequest{Code: "123456", Payload: "x", Meta: relay.Metadata{Type: relay.TypeText}}

	for i := 0; i < 2; i++ {
		resp := postJSON(t, ts.URL+"/store", req)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := postJSON(t, ts.URL+"/store", req)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Retrieval stays open by default even when the sender budget is spent.
	resp, err := http.Get(ts.URL + "/fetch/123456")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimitCoversRetrievalWhenEnabled(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimitRequests = 1
		cfg.RateLimitWindow = time.Minute
		cfg.LimitRetrieval = true
	})

	resp, err := http.Get(ts.URL + "/peek/123456")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/peek/123456")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
