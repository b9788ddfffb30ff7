package server

import (
	"encoding/json"
	"net/http"
)

// errorResp is the body of every non-2xx JSON response.
type errorResp struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResp{Detail: detail})
}
