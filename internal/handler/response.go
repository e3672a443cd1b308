package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Wire envelopes are fixed by the consuming clients: failures are
// {"err": <message>} with status 500, unsupported methods are
// {"error": "Method Not Allowed"} with status 405. Do not change these
// shapes without updating the clients.

type errorEnvelope struct {
	Err string `json:"err"`
}

type methodNotAllowedEnvelope struct {
	Error string `json:"error"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondError(w http.ResponseWriter, err error) {
	RespondJSON(w, http.StatusInternalServerError, errorEnvelope{Err: err.Error()})
}

func RespondMethodNotAllowed(w http.ResponseWriter) {
	RespondJSON(w, http.StatusMethodNotAllowed, methodNotAllowedEnvelope{Error: "Method Not Allowed"})
}
