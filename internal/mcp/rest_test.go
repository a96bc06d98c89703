package mcp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnbits/lnbits-mcp-server/internal/session"
)

func newRESTServer(t *testing.T, opts session.Options) *httptest.Server {
	t.Helper()
	d := newTestDispatcher(t, opts)
	srv := httptest.NewServer((&RESTHandler{Dispatcher: d}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestRESTListTools(t *testing.T) {
	srv := newRESTServer(t, session.Options{})

	resp, err := http.Get(srv.URL + "/tools/list")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Tools []struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			InputSchema json.RawMessage `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.Tools, len(Catalog()))

	names := make(map[string]bool)
	for _, tool := range out.Tools {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description)
		assert.True(t, json.Valid(tool.InputSchema), "schema for %s must be valid JSON", tool.Name)
	}
	for _, want := range []string{"configure_lnbits", "pay_invoice", "get_wallet_balance", "create_session"} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func callREST(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/tools/call", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestRESTCallTool(t *testing.T) {
	srv := newRESTServer(t, session.Options{AutoCreate: true})

	resp, out := callREST(t, srv, `{"name":"create_session"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := out["result"].(map[string]any)
	assert.NotEmpty(t, result["session_id"])
}

func TestRESTCallToolErrors(t *testing.T) {
	srv := newRESTServer(t, session.Options{})

	resp, out := callREST(t, srv, `{"name":"get_wallet_balance"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "dispatch failures are payload errors, not transport errors")
	errObj := out["error"].(map[string]any)
	assert.Equal(t, "NotConfiguredError", errObj["kind"])

	resp, out = callREST(t, srv, `{"name":"no_such_tool"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	errObj = out["error"].(map[string]any)
	assert.Equal(t, "ValidationError", errObj["kind"])

	resp, out = callREST(t, srv, `{"arguments":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errObj = out["error"].(map[string]any)
	assert.Equal(t, "ValidationError", errObj["kind"])

	resp, out = callREST(t, srv, `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotNil(t, out["error"])
}
