package lnbits

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var lightningAddressRe = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// lnurlPayParams is the LNURL-pay metadata served from the address's
// well-known endpoint. Amounts are in millisatoshis.
type lnurlPayParams struct {
	Callback    string `json:"callback"`
	MinSendable int64  `json:"minSendable"`
	MaxSendable int64  `json:"maxSendable"`
	Metadata    string `json:"metadata"`
}

// PayLightningAddress pays a user@domain Lightning address: resolve the
// address's well-known LNURL-pay metadata, fetch a BOLT11 invoice from the
// callback, then pay that invoice.
//
// Resolution and callback failures happen before any payment is submitted —
// they surface ErrAddressResolution and are safe to retry. The payment
// submission itself follows the PayInvoice ambiguity rule and is never
// auto-retried.
func (c *Client) PayLightningAddress(ctx context.Context, address string, amountSats int64, comment string) (*PaymentResult, error) {
	if amountSats <= 0 {
		return nil, &APIError{Message: "amount_sats must be positive", Err: ErrValidation}
	}
	params, err := c.resolveLightningAddress(ctx, address)
	if err != nil {
		return nil, err
	}

	amountMsat := amountSats * 1000
	if amountMsat < params.MinSendable || amountMsat > params.MaxSendable {
		return nil, &APIError{
			Message: fmt.Sprintf("amount %d msat outside sendable range [%d, %d] for %s",
				amountMsat, params.MinSendable, params.MaxSendable, address),
			Err: ErrAddressResolution,
		}
	}

	bolt11, err := c.requestLNURLInvoice(ctx, params.Callback, amountMsat, comment)
	if err != nil {
		return nil, err
	}
	return c.PayInvoice(ctx, bolt11)
}

// resolveLightningAddress fetches https://{domain}/.well-known/lnurlp/{user}.
func (c *Client) resolveLightningAddress(ctx context.Context, address string) (*lnurlPayParams, error) {
	if !lightningAddressRe.MatchString(address) {
		return nil, &APIError{
			Message: fmt.Sprintf("invalid lightning address format: %s", address),
			Err:     ErrAddressResolution,
		}
	}
	user, domain, _ := strings.Cut(address, "@")

	wellKnown := fmt.Sprintf("%s://%s/.well-known/lnurlp/%s", c.lnurlScheme, domain, url.PathEscape(user))
	var params lnurlPayParams
	if err := c.fetchJSON(ctx, wellKnown, &params); err != nil {
		return nil, &APIError{
			Message: fmt.Sprintf("failed to resolve lightning address %s: %v", address, err),
			Err:     ErrAddressResolution,
		}
	}
	if params.Callback == "" || params.MinSendable <= 0 || params.MaxSendable <= 0 {
		return nil, &APIError{
			Message: fmt.Sprintf("invalid LNURL-pay response for %s", address),
			Err:     ErrAddressResolution,
		}
	}
	return &params, nil
}

// requestLNURLInvoice fetches a BOLT11 invoice from an LNURL-pay callback.
func (c *Client) requestLNURLInvoice(ctx context.Context, callback string, amountMsat int64, comment string) (string, error) {
	u, err := url.Parse(callback)
	if err != nil {
		return "", &APIError{Message: "invalid LNURL-pay callback URL", Err: ErrAddressResolution}
	}
	q := u.Query()
	q.Set("amount", strconv.FormatInt(amountMsat, 10))
	if comment != "" {
		q.Set("comment", comment)
	}
	u.RawQuery = q.Encode()

	var resp struct {
		PR     string `json:"pr"`
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := c.fetchJSON(ctx, u.String(), &resp); err != nil {
		return "", &APIError{Message: "LNURL-pay callback failed: " + err.Error(), Err: ErrAddressResolution}
	}
	if resp.Reason != "" {
		return "", &APIError{Message: "LNURL-pay callback error: " + resp.Reason, Err: ErrAddressResolution}
	}
	if resp.PR == "" {
		return "", &APIError{Message: "no invoice in LNURL-pay response", Err: ErrAddressResolution}
	}
	return resp.PR, nil
}

// fetchJSON issues an unauthenticated GET against a third-party URL. These
// requests never carry wallet credentials and are not counted against the
// wallet-service rate budget.
func (c *Client) fetchJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
