package lnbits

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// WalletDetails is the response of GET /api/v1/wallet. Balance is reported
// in millisatoshis.
type WalletDetails struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	User        string `json:"user"`
	BalanceMsat int64  `json:"balance"`
	AdminKey    string `json:"adminkey,omitempty"`
	InvoiceKey  string `json:"inkey,omitempty"`
}

// WalletBalance is the balance subset of the wallet details.
type WalletBalance struct {
	BalanceMsat int64 `json:"balance_msat"`
	BalanceSat  int64 `json:"balance_sat"`
}

// Payment is one record of the wallet's payment history. A negative amount
// is an outgoing payment.
type Payment struct {
	PaymentHash string `json:"payment_hash"`
	Bolt11      string `json:"bolt11,omitempty"`
	AmountMsat  int64  `json:"amount"`
	FeeMsat     int64  `json:"fee"`
	Memo        string `json:"memo,omitempty"`
	Time        int64  `json:"time"`
	Status      string `json:"status,omitempty"`
	Pending     bool   `json:"pending"`
}

// Direction reports "outgoing" or "incoming" based on the amount sign.
func (p Payment) Direction() string {
	if p.AmountMsat < 0 {
		return "outgoing"
	}
	return "incoming"
}

// PaymentsFilter holds pagination parameters forwarded as query parameters.
// The result is one point-in-time snapshot, not an internally iterated feed.
type PaymentsFilter struct {
	Limit  int
	Offset int
}

// CreateInvoiceParams are the caller-supplied invoice fields.
type CreateInvoiceParams struct {
	AmountSats      int64
	Memo            string
	DescriptionHash string
	ExpirySeconds   int
}

// Invoice is the result of creating an invoice.
type Invoice struct {
	PaymentHash string `json:"payment_hash"`
	Bolt11      string `json:"bolt11"`
	CheckingID  string `json:"checking_id,omitempty"`
	AmountSats  int64  `json:"amount_sats"`
	Memo        string `json:"memo,omitempty"`
	QRCodeURL   string `json:"qr_code_url,omitempty"`
}

// PaymentResult is the outcome of a payment submission.
type PaymentResult struct {
	PaymentHash string `json:"payment_hash"`
	CheckingID  string `json:"checking_id,omitempty"`
	Status      string `json:"status"`
}

// PaymentStatus is the response of GET /api/v1/payments/{hash}.
type PaymentStatus struct {
	Paid     bool    `json:"paid"`
	Preimage string  `json:"preimage,omitempty"`
	Details  Payment `json:"details"`
}

// DecodedInvoice is the response of POST /api/v1/payments/decode.
type DecodedInvoice struct {
	PaymentHash        string `json:"payment_hash"`
	AmountMsat         int64  `json:"amount_msat"`
	Description        string `json:"description,omitempty"`
	DescriptionHash    string `json:"description_hash,omitempty"`
	Payee              string `json:"payee,omitempty"`
	Date               int64  `json:"date"`
	ExpirySeconds      int64  `json:"expiry"`
	MinFinalCLTVExpiry int    `json:"min_final_cltv_expiry,omitempty"`
}

// CheckConnection verifies the wallet endpoint is reachable with the bound
// credentials.
func (c *Client) CheckConnection(ctx context.Context) error {
	return c.do(ctx, requestOpts{method: http.MethodGet, path: "/api/v1/wallet"}, nil)
}

// GetWalletDetails fetches wallet id, name, and balance.
func (c *Client) GetWalletDetails(ctx context.Context) (*WalletDetails, error) {
	var out WalletDetails
	if err := c.do(ctx, requestOpts{method: http.MethodGet, path: "/api/v1/wallet"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWalletBalance reports the wallet balance from the wallet details.
func (c *Client) GetWalletBalance(ctx context.Context) (*WalletBalance, error) {
	details, err := c.GetWalletDetails(ctx)
	if err != nil {
		return nil, err
	}
	return &WalletBalance{
		BalanceMsat: details.BalanceMsat,
		BalanceSat:  details.BalanceMsat / 1000,
	}, nil
}

// GetPayments fetches a snapshot of the payment history. Pagination
// parameters from the filter are forwarded as query parameters.
func (c *Client) GetPayments(ctx context.Context, filter PaymentsFilter) ([]Payment, error) {
	q := url.Values{}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	var out []Payment
	if err := c.do(ctx, requestOpts{method: http.MethodGet, path: "/api/v1/payments", query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// invoiceResponse tolerates both field names LNbits has used for the
// payment request.
type invoiceResponse struct {
	PaymentHash    string `json:"payment_hash"`
	Bolt11         string `json:"bolt11"`
	PaymentRequest string `json:"payment_request"`
	CheckingID     string `json:"checking_id"`
	Status         string `json:"status"`
}

func (r invoiceResponse) bolt11() string {
	if r.Bolt11 != "" {
		return r.Bolt11
	}
	return r.PaymentRequest
}

// CreateInvoice creates a new incoming invoice for the given amount in sats.
func (c *Client) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*Invoice, error) {
	body := map[string]any{
		"out":      false,
		"amount":   params.AmountSats,
		"unit":     "sat",
		"memo":     params.Memo,
		"internal": false,
	}
	if params.DescriptionHash != "" {
		body["description_hash"] = params.DescriptionHash
	}
	if params.ExpirySeconds > 0 {
		body["expiry"] = params.ExpirySeconds
	}

	var resp invoiceResponse
	if err := c.do(ctx, requestOpts{method: http.MethodPost, path: "/api/v1/payments", body: body}, &resp); err != nil {
		return nil, err
	}
	return &Invoice{
		PaymentHash: resp.PaymentHash,
		Bolt11:      resp.bolt11(),
		CheckingID:  resp.CheckingID,
		AmountSats:  params.AmountSats,
		Memo:        params.Memo,
		QRCodeURL:   c.QRCodeURL(resp.bolt11()),
	}, nil
}

// PayInvoice submits an outgoing payment for a BOLT11 invoice. The request
// is issued at most once: if the response is lost after sending, the call
// fails with ErrAmbiguousPayment so the caller can check payment status
// instead of risking a double payment.
func (c *Client) PayInvoice(ctx context.Context, bolt11 string) (*PaymentResult, error) {
	if bolt11 == "" {
		return nil, &APIError{Message: "bolt11 invoice is required", Err: ErrValidation}
	}
	body := map[string]any{"out": true, "bolt11": bolt11}

	var resp invoiceResponse
	if err := c.do(ctx, requestOpts{method: http.MethodPost, path: "/api/v1/payments", body: body, payment: true}, &resp); err != nil {
		return nil, err
	}
	status := resp.Status
	if status == "" {
		status = "pending"
	}
	return &PaymentResult{
		PaymentHash: resp.PaymentHash,
		CheckingID:  resp.CheckingID,
		Status:      status,
	}, nil
}

// GetPaymentStatus fetches the status of a payment by its hash.
func (c *Client) GetPaymentStatus(ctx context.Context, paymentHash string) (*PaymentStatus, error) {
	if paymentHash == "" {
		return nil, &APIError{Message: "payment_hash is required", Err: ErrValidation}
	}
	var out PaymentStatus
	if err := c.do(ctx, requestOpts{method: http.MethodGet, path: "/api/v1/payments/" + url.PathEscape(paymentHash)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecodeInvoice decodes a BOLT11 invoice via the wallet service's decode
// endpoint.
func (c *Client) DecodeInvoice(ctx context.Context, bolt11 string) (*DecodedInvoice, error) {
	if bolt11 == "" {
		return nil, &APIError{Message: "bolt11 invoice is required", Err: ErrValidation}
	}
	var out DecodedInvoice
	if err := c.do(ctx, requestOpts{method: http.MethodPost, path: "/api/v1/payments/decode", body: map[string]string{"data": bolt11}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QRCodeURL returns the wallet service's QR image URL for the given data.
func (c *Client) QRCodeURL(data string) string {
	if data == "" {
		return ""
	}
	return c.cfg.BaseURL + "/api/v1/qrcode/" + url.PathEscape(data)
}
