package esewa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/yuzvak/storefront/internal/domain/errors"
	"github.com/yuzvak/storefront/internal/domain/payment"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

func newTestClient(serverURL string) *Client {
	return NewClient(Config{
		FormURL:      "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
		VerifyURL:    serverURL + "/epay/transrec",
		MerchantCode: "EPAYTEST",
		Timeout:      time.Second,
	}, logger.Discard())
}

var req = payment.VerificationRequest{OrderID: "accessorize-me-1", Amount: "1450", RefID: "0001TS9"}

func TestClient_VerifySuccess(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/epay/transrec", r.URL.Path)
		got = r.URL.Query()
		w.Write([]byte("<?xml version=\"1.0\"?>\n<response>\n<response_code>Success</response_code>\n</response>"))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Verify(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, result.Status)
	assert.Equal(t, "1450", got.Get("amt"))
	assert.Equal(t, "EPAYTEST", got.Get("scd"))
	assert.Equal(t, "accessorize-me-1", got.Get("pid"))
	assert.Equal(t, "0001TS9", got.Get("rid"))
}

func TestClient_VerifyFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<response><response_code>failure</response_code></response>"))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Verify(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, result.Status)
}

func TestClient_VerifyBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<response_code>Success</response_code>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Verify(context.Background(), req)

	assert.ErrorIs(t, err, domainErrors.ErrUnexpectedGatewayResponse)
}

func TestClient_VerifyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := newTestClient(base).Verify(context.Background(), req)

	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
}

func TestClient_VerifyTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(Config{VerifyURL: srv.URL, MerchantCode: "EPAYTEST", Timeout: 50 * time.Millisecond}, logger.Discard())

	_, err := client.Verify(context.Background(), req)

	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
}

func TestClient_Accessors(t *testing.T) {
	c := newTestClient("http://example.invalid")

	assert.Equal(t, "EPAYTEST", c.MerchantCode())
	assert.Equal(t, "https://rc-epay.esewa.com.np/api/epay/main/v2/form", c.FormURL())
}
