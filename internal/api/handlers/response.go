package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/dom/timetrack/internal/logging"
)

type MessageResponse struct {
	Msg string `json:"msg"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Msg: msg})
}

// writeInternal logs err against the request and returns a bare 500.
func writeInternal(w http.ResponseWriter, r *http.Request, err error, what string) {
	logging.FromContext(r.Context()).WithError(err).Error(what)
	writeMsg(w, http.StatusInternalServerError, "internal server error")
}

func isJSONBody(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// wantsJSON is true for API style callers: a JSON body, a JSON Accept header
// or the header-based session the CLI uses.
func wantsJSON(r *http.Request) bool {
	if isJSONBody(r) {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.Header.Get("sessionid") != ""
}
