package mcp

import "encoding/json"

// ToolDef describes one callable tool: its wire name, description, and JSON
// schema for arguments. Every schema accepts an optional session_id string
// so remote callers can pin their isolated session.
type ToolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Catalog returns the full tool list in registration order.
func Catalog() []ToolDef {
	return catalog
}

var catalog = []ToolDef{
	{
		Name:        "create_session",
		Description: "Create a new isolated session for credential configuration. Returns the session_id to include in subsequent tool calls.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`),
	},
	{
		Name:        "get_session_info",
		Description: "Get metadata about the current session: creation time, last access, and whether it has been configured.",
		InputSchema: sessionOnlySchema,
	},
	{
		Name:        "destroy_session",
		Description: "Destroy a session immediately, releasing its credentials.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{
			"session_id":{"type":"string","description":"Session to destroy"}
		},"required":["session_id"],"additionalProperties":false}`),
	},
	{
		Name:        "configure_lnbits",
		Description: "Configure the LNbits connection for this session. Provide lnbits_url plus exactly one of api_key, bearer_token, or oauth2_token matching auth_method. The configuration is isolated to this session.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{
			"session_id":{"type":"string"},
			"lnbits_url":{"type":"string","description":"Base URL of the LNbits instance, e.g. https://demo.lnbits.com"},
			"api_key":{"type":"string","description":"API key for api_key_header or api_key_query auth"},
			"bearer_token":{"type":"string","description":"Bearer token for http_bearer auth"},
			"oauth2_token":{"type":"string","description":"OAuth2 token for oauth2 auth"},
			"auth_method":{"type":"string","enum":["api_key_header","api_key_query","http_bearer","oauth2"],"default":"api_key_header"},
			"timeout":{"type":"integer","minimum":1,"maximum":300,"description":"Request timeout in seconds"},
			"max_retries":{"type":"integer","minimum":0,"maximum":10},
			"rate_limit_per_minute":{"type":"integer","minimum":1,"maximum":1000}
		},"required":["lnbits_url"],"additionalProperties":false}`),
	},
	{
		Name:        "get_lnbits_configuration",
		Description: "Get the session's current LNbits configuration with secrets masked.",
		InputSchema: sessionOnlySchema,
	},
	{
		Name:        "test_lnbits_configuration",
		Description: "Test the session's LNbits configuration by fetching wallet details.",
		InputSchema: sessionOnlySchema,
	},
	{
		Name:        "check_connection",
		Description: "Check connectivity to the configured LNbits instance.",
		InputSchema: sessionOnlySchema,
	},
	{
		Name:        "get_wallet_details",
		Description: "Get wallet details including id, name, and balance.",
		InputSchema: sessionOnlySchema,
	},
	{
		Name:        "get_wallet_balance",
		Description: "Get the current wallet balance in millisatoshis and satoshis.",
		InputSchema: sessionOnlySchema,
	},
	{
		Name:        "get_payments",
		Description: "Get a snapshot of the wallet's payment history.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{
			"session_id":{"type":"string"},
			"limit":{"type":"integer","default":10,"minimum":1,"maximum":100},
			"offset":{"type":"integer","minimum":0}
		},"additionalProperties":false}`),
	},
	{
		Name:        "create_invoice",
		Description: "Create a new Lightning invoice.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{
			"session_id":{"type":"string"},
			"amount":{"type":"integer","minimum":1,"description":"Invoice amount in satoshis"},
			"memo":{"type":"string"},
			"description_hash":{"type":"string"},
			"expiry":{"type":"integer","minimum":60,"maximum":86400,"description":"Invoice expiry in seconds"}
		},"required":["amount"],"additionalProperties":false}`),
	},
	{
		Name:        "pay_invoice",
		Description: "Pay a BOLT11 Lightning invoice. Never auto-retried: if the outcome is ambiguous, check payment status before trying again.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{
			"session_id":{"type":"string"},
			"bolt11":{"type":"string","description":"BOLT11 invoice string to pay"}
		},"required":["bolt11"],"additionalProperties":false}`),
	},
	{
		Name:        "pay_lightning_address",
		Description: "Pay a Lightning address (user@domain). Address resolution failures are safe to retry; the payment itself is never auto-retried.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{
			"session_id":{"type":"string"},
			"lightning_address":{"type":"string","pattern":"^[^@]+@[^@]+\\.[^@]+$"},
			"amount_sats":{"type":"integer","minimum":1},
			"comment":{"type":"string"}
		},"required":["lightning_address","amount_sats"],"additionalProperties":false}`),
	},
	{
		Name:        "get_payment_status",
		Description: "Get payment status by payment hash.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{
			"session_id":{"type":"string"},
			"payment_hash":{"type":"string"}
		},"required":["payment_hash"],"additionalProperties":false}`),
	},
	{
		Name:        "decode_invoice",
		Description: "Decode a BOLT11 Lightning invoice to inspect amount, description, and expiry.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{
			"session_id":{"type":"string"},
			"bolt11":{"type":"string"}
		},"required":["bolt11"],"additionalProperties":false}`),
	},
}

var sessionOnlySchema = json.RawMessage(`{"type":"object","properties":{
	"session_id":{"type":"string","description":"Optional session identifier; omitted means the implicit session"}
},"additionalProperties":false}`)
