package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropkickfish/barq-client/internal/httpclient"
	"github.com/dropkickfish/barq-client/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGatewayPay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bar/pay", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))

		var body map[string]map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1805), body["payment"]["amount"])
		assert.Equal(t, "tok_1", body["payment"]["source"])
		assert.Contains(t, body["payment"], "statementDescriptor")
		items, _ := body["order"]["items"].([]any)
		assert.Len(t, items, 2)

		w.Write([]byte(`{"status":"paid","orderId":"A17","orderStatus":"QUEUED"}`))
	}))
	defer srv.Close()

	c, err := httpclient.New(srv.URL + "/bar")
	require.NoError(t, err)
	order := sampleOrder()
	req := payment.Request{
		Payment: payment.Charge{Amount: 1805, Currency: "eur", Source: "tok_1"},
		Order:   payment.OrderPayload{Items: order.Items},
	}

	resp, err := payment.NewHTTPGateway(c).Pay(context.Background(), req, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status)
	assert.Equal(t, "A17", resp.OrderID)
}

func TestHTTPGatewayServerErrorIsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"card_declined"}`, http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c, err := httpclient.New(srv.URL)
	require.NoError(t, err)
	_, err = payment.NewHTTPGateway(c).Pay(context.Background(), payment.Request{}, "k")
	assert.ErrorIs(t, err, payment.ErrBackendRejection)
}

func TestCardTokenizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "pk_test", user)
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("card[number]") == "4000000000000002" {
			w.WriteHeader(http.StatusPaymentRequired)
			w.Write([]byte(`{"error":{"message":"Your card was declined.","code":"card_declined"}}`))
			return
		}
		assert.Equal(t, "12", r.PostForm.Get("card[exp_month]"))
		assert.Equal(t, "10115", r.PostForm.Get("card[address_zip]"))
		w.Write([]byte(`{"id":"tok_abc"}`))
	}))
	defer srv.Close()

	tz := payment.NewCardTokenizer(srv.URL+"/v1/tokens", "pk_test", srv.Client())

	tok, err := tz.Tokenize(context.Background(), payment.CardInput{
		Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123", PostalCode: "10115",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", tok)

	_, err = tz.Tokenize(context.Background(), payment.CardInput{Number: "4000000000000002", ExpMonth: 12})
	assert.ErrorIs(t, err, payment.ErrTokenization)
	assert.Contains(t, err.Error(), "declined")
}

func TestCardTokenizerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := payment.NewCardTokenizer(url, "pk", nil).Tokenize(context.Background(), payment.CardInput{})
	assert.ErrorIs(t, err, httpclient.ErrNetwork)
}
