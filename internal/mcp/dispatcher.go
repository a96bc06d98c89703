package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/lnbits/lnbits-mcp-server/internal/config"
	"github.com/lnbits/lnbits-mcp-server/internal/lnbits"
	"github.com/lnbits/lnbits-mcp-server/internal/session"
)

// Dispatcher resolves tool calls to a session's API client and shapes
// results and failures for the RPC boundary. It logs only the operation
// name and session id — never credentials or auth headers.
type Dispatcher struct {
	Store *session.Store
}

// Dispatch executes the named tool with the given arguments. The optional
// session_id argument is extracted before operation arguments are read.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	sessionID := argString(args, "session_id")
	delete(args, "session_id")

	log.Printf("tool call: %s session=%s", name, displayID(sessionID))

	switch name {
	case "create_session":
		id := d.Store.Create(nil)
		return map[string]any{
			"session_id": id,
			"message":    "Include this session_id in subsequent tool calls for credential isolation.",
		}, nil

	case "get_session_info":
		sess, err := d.Store.Resolve(sessionID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"session":        sess.Info(),
			"total_sessions": d.Store.Count(),
		}, nil

	case "destroy_session":
		if sessionID == "" {
			return nil, fmt.Errorf("%w: session_id is required", lnbits.ErrValidation)
		}
		return map[string]any{"destroyed": d.Store.Destroy(sessionID)}, nil

	case "configure_lnbits":
		return d.configure(sessionID, args)

	case "get_lnbits_configuration":
		sess, err := d.Store.Resolve(sessionID)
		if err != nil {
			return nil, err
		}
		out := map[string]any{"configured": sess.Configured()}
		if cfg := sess.Config(); cfg != nil {
			out["config"] = cfg.Redacted()
		}
		return out, nil

	case "test_lnbits_configuration":
		client, err := d.resolveClient(sessionID)
		if err != nil {
			return nil, err
		}
		details, err := client.GetWalletDetails(ctx)
		if err != nil {
			// Report the failure as a test outcome rather than an error result.
			return map[string]any{"success": false, "message": err.Error()}, nil
		}
		return map[string]any{
			"success": true,
			"wallet":  map[string]any{"id": details.ID, "name": details.Name, "balance_msat": details.BalanceMsat},
		}, nil

	case "check_connection":
		client, err := d.resolveClient(sessionID)
		if err != nil {
			return nil, err
		}
		if err := client.CheckConnection(ctx); err != nil {
			return map[string]any{"connected": false, "message": err.Error()}, nil
		}
		return map[string]any{"connected": true}, nil

	case "get_wallet_details":
		client, err := d.resolveClient(sessionID)
		if err != nil {
			return nil, err
		}
		details, err := client.GetWalletDetails(ctx)
		if err != nil {
			return nil, err
		}
		// Key material from the wallet response is reduced to presence flags.
		return map[string]any{
			"id":              details.ID,
			"name":            details.Name,
			"balance_msat":    details.BalanceMsat,
			"has_admin_key":   details.AdminKey != "",
			"has_invoice_key": details.InvoiceKey != "",
		}, nil

	case "get_wallet_balance":
		client, err := d.resolveClient(sessionID)
		if err != nil {
			return nil, err
		}
		return client.GetWalletBalance(ctx)

	case "get_payments":
		client, err := d.resolveClient(sessionID)
		if err != nil {
			return nil, err
		}
		filter := lnbits.PaymentsFilter{Limit: 10}
		if n, ok := argInt(args, "limit"); ok {
			filter.Limit = n
		}
		if n, ok := argInt(args, "offset"); ok {
			filter.Offset = n
		}
		payments, err := client.GetPayments(ctx, filter)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(payments))
		for _, p := range payments {
			out = append(out, map[string]any{
				"payment_hash": p.PaymentHash,
				"bolt11":       p.Bolt11,
				"amount_msat":  p.AmountMsat,
				"fee_msat":     p.FeeMsat,
				"memo":         p.Memo,
				"time":         p.Time,
				"status":       p.Status,
				"pending":      p.Pending,
				"type":         p.Direction(),
			})
		}
		return map[string]any{"payments": out, "count": len(out)}, nil

	case "create_invoice":
		client, err := d.resolveClient(sessionID)
		if err != nil {
			return nil, err
		}
		amount, ok := argInt64(args, "amount")
		if !ok || amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be a positive integer", lnbits.ErrValidation)
		}
		params := lnbits.CreateInvoiceParams{
			AmountSats:      amount,
			Memo:            argString(args, "memo"),
			DescriptionHash: argString(args, "description_hash"),
		}
		if n, ok := argInt(args, "expiry"); ok {
			params.ExpirySeconds = n
		}
		return client.CreateInvoice(ctx, params)

	case "pay_invoice":
		client, err := d.resolveClient(sessionID)
		if err != nil {
			return nil, err
		}
		return client.PayInvoice(ctx, argString(args, "bolt11"))

	case "pay_lightning_address":
		client, err := d.resolveClient(sessionID)
		if err != nil {
			return nil, err
		}
		amount, ok := argInt64(args, "amount_sats")
		if !ok {
			return nil, fmt.Errorf("%w: amount_sats must be an integer", lnbits.ErrValidation)
		}
		return client.PayLightningAddress(ctx, argString(args, "lightning_address"), amount, argString(args, "comment"))

	case "get_payment_status":
		client, err := d.resolveClient(sessionID)
		if err != nil {
			return nil, err
		}
		return client.GetPaymentStatus(ctx, argString(args, "payment_hash"))

	case "decode_invoice":
		client, err := d.resolveClient(sessionID)
		if err != nil {
			return nil, err
		}
		return client.DecodeInvoice(ctx, argString(args, "bolt11"))

	default:
		return nil, fmt.Errorf("%w: unknown tool %q", lnbits.ErrValidation, name)
	}
}

func (d *Dispatcher) configure(sessionID string, args map[string]any) (any, error) {
	raw := config.RawValues{
		URL:         argString(args, "lnbits_url"),
		AuthMethod:  argString(args, "auth_method"),
		APIKey:      argString(args, "api_key"),
		BearerToken: argString(args, "bearer_token"),
		OAuth2Token: argString(args, "oauth2_token"),
	}
	if n, ok := argInt(args, "timeout"); ok {
		raw.TimeoutSeconds = &n
	}
	if n, ok := argInt(args, "max_retries"); ok {
		raw.MaxRetries = &n
	}
	if n, ok := argInt(args, "rate_limit_per_minute"); ok {
		raw.RateLimitPerMinute = &n
	}

	sess, err := d.Store.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	if err := d.Store.Configure(sess.ID(), raw); err != nil {
		return nil, err
	}
	cfg := sess.Config()
	return map[string]any{
		"success":    true,
		"session_id": sess.ID(),
		"config":     cfg.Redacted(),
	}, nil
}

func (d *Dispatcher) resolveClient(sessionID string) (*lnbits.Client, error) {
	sess, err := d.Store.Resolve(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Client()
}

// ErrorKind returns the stable kind tag for a dispatch failure.
func ErrorKind(err error) string {
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		return "ConfigError/" + string(cfgErr.Kind)
	}
	for _, sentinel := range []error{
		session.ErrNotFound,
		session.ErrNotConfigured,
		lnbits.ErrAmbiguousPayment,
		lnbits.ErrAddressResolution,
		lnbits.ErrRateLimited,
		lnbits.ErrAuthentication,
		lnbits.ErrNotFound,
		lnbits.ErrValidation,
		lnbits.ErrService,
		lnbits.ErrNetwork,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "InternalError"
}

func displayID(id string) string {
	if id == "" {
		return "(implicit)"
	}
	return id
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// argInt reads an integer argument; JSON numbers arrive as float64.
func argInt(args map[string]any, key string) (int, bool) {
	n, ok := argInt64(args, key)
	return int(n), ok
}

func argInt64(args map[string]any, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}
