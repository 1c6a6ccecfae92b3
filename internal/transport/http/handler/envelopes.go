package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/agribiz-identity/internal/application/session"
	"github.com/agribiz-identity/internal/domain"
	"github.com/agribiz-identity/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps responses that carry a freshly issued session.
type AuthEnvelope struct {
	Token     string           `json:"token,omitempty"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
	User      *domain.UserInfo `json:"user,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// UsersPageEnvelope wraps cursor-paginated user list responses.
type UsersPageEnvelope struct {
	Data       []domain.UserInfo `json:"data"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func toAuthEnvelope(res *session.Result, msg string) AuthEnvelope {
	expires := res.ExpiresAt
	user := res.User
	return AuthEnvelope{Token: res.Token, ExpiresAt: &expires, User: &user, Message: msg}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// decodeValid decodes the JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the handler may continue.
func decodeValid(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}
