package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/leslieo2/go-status-board/internal/constants"
)

// ErrorBody is the JSON body of every error the board answers with
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// WriteError writes an ErrorBody with the given HTTP status
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: errCode, Message: message, Code: status})
}
