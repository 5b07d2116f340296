package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzvak/storefront/internal/application/commands"
	"github.com/yuzvak/storefront/internal/domain/catalog"
	"github.com/yuzvak/storefront/internal/domain/payment"
	"github.com/yuzvak/storefront/internal/infrastructure/gateway/esewa"
	"github.com/yuzvak/storefront/internal/infrastructure/http/handlers"
	"github.com/yuzvak/storefront/internal/infrastructure/http/session"
	"github.com/yuzvak/storefront/internal/pkg/clock"
	"github.com/yuzvak/storefront/internal/pkg/generator"
	"github.com/yuzvak/storefront/internal/pkg/logger"
)

const testSecret = "8gBm/:&EnhH.1/q"

// gatewayStub answers the transaction lookup according to mode:
// "success", "failed" or "down" (connection dropped).
type gatewayStub struct {
	mode    atomic.Value
	lastAmt atomic.Value
	srv     *httptest.Server
}

func newGatewayStub(t *testing.T) *gatewayStub {
	t.Helper()
	g := &gatewayStub{}
	g.mode.Store("success")
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.lastAmt.Store(r.URL.Query().Get("amt"))
		switch g.mode.Load().(string) {
		case "success":
			w.Write([]byte("<response><response_code>Success</response_code></response>"))
		case "failed":
			w.Write([]byte("<response><response_code>failure</response_code></response>"))
		default:
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
				}
			}
		}
	}))
	t.Cleanup(g.srv.Close)
	return g
}

type testApp struct {
	srv     *httptest.Server
	client  *http.Client
	gateway *gatewayStub
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := logger.Discard()
	products := catalog.Default()
	gw := newGatewayStub(t)

	client := esewa.NewClient(esewa.Config{
		FormURL:      "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
		VerifyURL:    gw.srv.URL + "/epay/transrec",
		MerchantCode: "EPAYTEST",
		Timeout:      time.Second,
	}, log)
	signer := payment.NewSigner(testSecret)

	checkout := commands.NewCheckoutHandler(products, client, nil, signer,
		generator.NewTransactionIDGenerator("accessorize-me", clock.NewRealClock()),
		commands.CheckoutSettings{
			Charges:    payment.Charges{Delivery: decimal.NewFromInt(100), Tax: decimal.Zero, Service: decimal.Zero},
			SuccessURL: "http://localhost:5000/payment/success",
			FailureURL: "http://localhost:5000/payment/failure",
		}, log)
	verify := commands.NewVerifyPaymentHandler(client, nil, nil, nil, log)
	returns := commands.NewPaymentReturnHandler(signer, verify, log)

	sessions := handlers.NewCartSessions(session.CookieConfig{Name: "cart", MaxAge: time.Hour}, products, 99, log)
	s := NewServer(":0", Handlers{
		Catalog:  handlers.NewCatalogHandler(products),
		Cart:     handlers.NewCartHandler(sessions, log),
		Checkout: handlers.NewCheckoutHandler(sessions, checkout, log),
		Payment:  handlers.NewPaymentHandler(sessions, verify, returns, log),
		Health:   handlers.NewHealthHandler(nil, nil, log),
	}, log)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{srv: ts, client: &http.Client{Jar: jar}, gateway: gw}
}

func (a *testApp) do(t *testing.T, method, path, body string, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

type cartEnvelope struct {
	Message string `json:"message"`
	Data    struct {
		Lines []struct {
			ID       int `json:"id"`
			Quantity int `json:"quantity"`
		} `json:"lines"`
		Total     json.Number `json:"total"`
		ItemCount int         `json:"item_count"`
	} `json:"data"`
}

func decodeCart(t *testing.T, data []byte) cartEnvelope {
	t.Helper()
	var env cartEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestRoutes_Products(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"name":"Charm Beads","price":1`)

	resp, _ = app.do(t, http.MethodGet, "/products/2", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.do(t, http.MethodGet, "/products/77", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = app.do(t, http.MethodGet, "/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutes_CartLifecycle(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodPost, "/cart/items", `{"product_id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Elegant Gold Necklace has been added to your cart!", decodeCart(t, body).Message)

	app.do(t, http.MethodPost, "/cart/items", `{"product_id":1}`)
	app.do(t, http.MethodPost, "/cart/items", `{"product_id":2}`)

	_, body = app.do(t, http.MethodGet, "/cart", "")
	cart := decodeCart(t, body)
	assert.Equal(t, 3, cart.Data.ItemCount)
	assert.Equal(t, "1350", cart.Data.Total.String())

	_, body = app.do(t, http.MethodPut, "/cart/items/1", `{"quantity":0}`)
	cart = decodeCart(t, body)
	require.Len(t, cart.Data.Lines, 1)
	assert.Equal(t, 2, cart.Data.Lines[0].ID)

	resp, _ = app.do(t, http.MethodPut, "/cart/items/2", `{"quantity":1000}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = app.do(t, http.MethodDelete, "/cart/items/2", "")
	assert.Equal(t, 0, decodeCart(t, body).Data.ItemCount)

	app.do(t, http.MethodPost, "/cart/items", `{"product_id":5}`)
	_, body = app.do(t, http.MethodDelete, "/cart", "")
	assert.Equal(t, 0, decodeCart(t, body).Data.ItemCount)

	_, body = app.do(t, http.MethodGet, "/cart", "")
	assert.Empty(t, decodeCart(t, body).Data.Lines)
}

func TestRoutes_AddUnknownProductIsSilent(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodPost, "/cart/items", `{"product_id":999}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart := decodeCart(t, body)
	assert.Empty(t, cart.Message)
	assert.Equal(t, 0, cart.Data.ItemCount)
}

func TestRoutes_CorruptCartCookieStartsEmpty(t *testing.T) {
	app := newTestApp(t)
	u, _ := url.Parse(app.srv.URL)
	app.client.Jar.SetCookies(u, []*http.Cookie{{Name: "cart", Value: "bm90LWpzb24"}})

	resp, body := app.do(t, http.MethodGet, "/cart", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decodeCart(t, body).Data.ItemCount)
}

func TestRoutes_CheckoutEmptyCart(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodPost, "/checkout", "")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Cannot proceed with an empty cart")
}

func TestRoutes_CheckoutJSON(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/cart/items", `{"product_id":1}`)
	app.do(t, http.MethodPost, "/cart/items", `{"product_id":1}`)
	app.do(t, http.MethodPost, "/cart/items", `{"product_id":2}`)

	resp, body := app.do(t, http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env struct {
		Data commands.CheckoutResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "1350", env.Data.Subtotal)
	assert.Equal(t, "100", env.Data.DeliveryCharge)
	assert.Equal(t, "1450", env.Data.Total)
	assert.True(t, strings.HasPrefix(env.Data.TransactionID, "accessorize-me-"))
	assert.Len(t, env.Data.Fields, 11)

	message := "total_amount=1450,transaction_uuid=" + env.Data.TransactionID + ",product_code=EPAYTEST"
	assert.True(t, payment.NewSigner(testSecret).Verify(message, env.Data.Fields[10].Value))
}

func TestRoutes_CheckoutHTML(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/cart/items", `{"product_id":4}`)

	resp, body := app.do(t, http.MethodPost, "/checkout", "", "Accept", "text/html,application/xhtml+xml")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	page := string(body)
	assert.Contains(t, page, `action="https://rc-epay.esewa.com.np/api/epay/main/v2/form"`)
	assert.Contains(t, page, `name="total_amount" value="101"`)
	assert.Contains(t, page, `name="signed_field_names" value="total_amount,transaction_uuid,product_code"`)
	assert.Contains(t, page, "document.forms[0].submit()")
}

func TestRoutes_VerifyPaymentSuccessClearsCart(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/cart/items", `{"product_id":3}`)

	resp, body := app.do(t, http.MethodPost, "/verify-payment", `{"oid":"accessorize-me-1","amt":"720","refId":"0001TS9"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"success"}`, string(body))

	_, body = app.do(t, http.MethodGet, "/cart", "")
	assert.Equal(t, 0, decodeCart(t, body).Data.ItemCount)
}

func TestRoutes_VerifyPaymentNumericAmount(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodPost, "/verify-payment", `{"oid":"accessorize-me-1","amt":1450.0,"refId":"0001TS9"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"success"}`, string(body))
	assert.Equal(t, "1450.0", app.gateway.lastAmt.Load())
}

func TestRoutes_VerifyPaymentFailedKeepsCart(t *testing.T) {
	app := newTestApp(t)
	app.gateway.mode.Store("failed")
	app.do(t, http.MethodPost, "/cart/items", `{"product_id":3}`)

	resp, body := app.do(t, http.MethodPost, "/verify-payment", `{"oid":"o","amt":"720","refId":"r"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"failed"}`, string(body))

	_, body = app.do(t, http.MethodGet, "/cart", "")
	assert.Equal(t, 1, decodeCart(t, body).Data.ItemCount)
}

func TestRoutes_VerifyPaymentErrorThenKeepsServing(t *testing.T) {
	app := newTestApp(t)
	app.gateway.mode.Store("down")

	resp, body := app.do(t, http.MethodPost, "/verify-payment", `{"oid":"o","amt":"1","refId":"r"}`)

	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var result payment.VerificationResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, payment.StatusError, result.Status)
	assert.NotEmpty(t, result.Message)

	app.gateway.mode.Store("success")
	resp, body = app.do(t, http.MethodPost, "/verify-payment", `{"oid":"o","amt":"1","refId":"r"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"success"}`, string(body))
}

func TestRoutes_VerifyPaymentValidation(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodPost, "/verify-payment", `{"oid":"o"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"error"`)

	resp, _ = app.do(t, http.MethodPost, "/verify-payment", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutes_PaymentReturn(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/cart/items", `{"product_id":6}`)

	resp, body := app.do(t, http.MethodGet, "/payment/failure?oid=accessorize-me-5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"order_id":"accessorize-me-5"`)

	_, cartBody := app.do(t, http.MethodGet, "/cart", "")
	assert.Equal(t, 1, decodeCart(t, cartBody).Data.ItemCount)

	resp, body = app.do(t, http.MethodGet, "/payment/success?oid=accessorize-me-5&amt=500&refId=000AB", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"success"`)
	assert.Contains(t, string(body), `"ref_id":"000AB"`)

	_, cartBody = app.do(t, http.MethodGet, "/cart", "")
	assert.Equal(t, 0, decodeCart(t, cartBody).Data.ItemCount)

	resp, _ = app.do(t, http.MethodGet, "/payment/success?oid=accessorize-me-5", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	resp, body := app.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"database":"DISABLED"`)
	assert.Contains(t, string(body), `"app":"UP"`)

	app.do(t, http.MethodGet, "/products", "")
	resp, body = app.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.do(t, http.MethodGet, "/checkout", "")

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
