package phonepe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePaymentSignsAndDecodes(t *testing.T) {
	var gotXVerify string
	var gotPayload PayRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotXVerify = r.Header.Get("X-VERIFY")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var envelope struct {
			Request string `json:"request"`
		}
		require.NoError(t, json.Unmarshal(body, &envelope))

		raw, err := base64.StdEncoding.DecodeString(envelope.Request)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &gotPayload))

		// Header must be the signature over the exact base64 payload sent.
		assert.Equal(t, SignRequest(envelope.Request, "salt-key", "1"), gotXVerify)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"code": "PAYMENT_INITIATED",
			"data": {
				"merchantTransactionId": "TXN_abc_1",
				"instrumentResponse": {"redirectInfo": {"url": "https://pay.example/redirect"}}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "MERCHANT1", "salt-key", "1")
	result, err := client.CreatePayment(context.Background(), PayRequest{
		MerchantTransactionID: "TXN_abc_1",
		MerchantUserID:        "user_7",
		Amount:                150000,
		RedirectURL:           "https://club.example/api/payments/callback",
		RedirectMode:          "POST",
		CallbackURL:           "https://club.example/api/payments/callback",
		PaymentInstrument:     PaymentInstrument{Type: "PAY_PAGE"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example/redirect", result.RedirectURL)
	assert.Equal(t, "MERCHANT1", gotPayload.MerchantID, "merchant id is filled in from the client")
	assert.Equal(t, int64(150000), gotPayload.Amount)
	assert.NotEmpty(t, gotXVerify)
}

func TestCreatePaymentRejectedByGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "code": "BAD_REQUEST", "message": "amount invalid"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "MERCHANT1", "salt-key", "1")
	_, err := client.CreatePayment(context.Background(), PayRequest{Amount: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_REQUEST")
}

func TestCreatePaymentNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "MERCHANT1", "salt-key", "1")
	_, err := client.CreatePayment(context.Background(), PayRequest{Amount: 100})
	require.Error(t, err)
}

func TestDecodeCallback(t *testing.T) {
	raw := `{"success":true,"code":"PAYMENT_SUCCESS","data":{"merchantTransactionId":"TXN_x_1","amount":5000,"state":"COMPLETED"}}`
	envelope, err := DecodeCallback(base64.StdEncoding.EncodeToString([]byte(raw)))
	require.NoError(t, err)

	assert.True(t, envelope.Success)
	assert.Equal(t, CodePaymentSuccess, envelope.Code)
	assert.Equal(t, "TXN_x_1", envelope.Data.MerchantTransactionID)
	assert.Equal(t, int64(5000), envelope.Data.Amount)
}

func TestDecodeCallbackBadInput(t *testing.T) {
	_, err := DecodeCallback("not-base64!!!")
	assert.Error(t, err)

	_, err = DecodeCallback(base64.StdEncoding.EncodeToString([]byte("not json")))
	assert.Error(t, err)
}
