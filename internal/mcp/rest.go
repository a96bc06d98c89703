package mcp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RESTHandler provides plain-HTTP wrappers around the tool catalog for
// clients that do not speak the MCP wire protocol. Responses carry either a
// result value or a structured {kind, message} error.
type RESTHandler struct {
	Dispatcher *Dispatcher
}

// Handler returns an http.Handler with routes for the REST API.
func (h *RESTHandler) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/tools/list", h.ListTools)
	r.Post("/tools/call", h.CallTool)
	return r
}

// ListTools handles GET /mcp-rest/tools/list.
func (h *RESTHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	type toolResponse struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		InputSchema json.RawMessage `json:"inputSchema"`
	}

	tools := Catalog()
	resp := struct {
		Tools []toolResponse `json:"tools"`
	}{
		Tools: make([]toolResponse, 0, len(tools)),
	}
	for _, t := range tools {
		resp.Tools = append(resp.Tools, toolResponse{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// CallTool handles POST /mcp-rest/tools/call.
func (h *RESTHandler) CallTool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "ValidationError", "tool name is required")
		return
	}

	result, err := h.Dispatcher.Dispatch(r.Context(), req.Name, req.Arguments)
	if err != nil {
		writeError(w, http.StatusOK, ErrorKind(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"kind": kind, "message": message},
	})
}
