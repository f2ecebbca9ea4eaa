package registrar

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
)

// usernamePattern is the accepted unix account name shape. Anything else
// would end up quoted into useradd.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

type registerResponse struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

const formPage = `<!DOCTYPE html>
<html>
<head><title>Account Registration</title></head>
<body>
<div style="text-align:center">
  <h1>Self-service registration</h1>
  <form method="POST" action="/register">
    <p><span>Username:</span> <input type="text" name="username" placeholder="defaults to your id"/></p>
    <p><span>Password:</span> <input type="password" name="password"/></p>
    <p><span>Confirm password:</span> <input type="password" name="confirm_password"/></p>
    <p><span>Id:</span> <input type="text" name="id"/></p>
    <p><span>Name:</span> <input type="text" name="name"/></p>
    <p><input type="submit" value="Register"/></p>
  </form>
</div>
</body>
</html>
`

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(formPage))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respond(w, r, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if err := r.ParseForm(); err != nil {
		s.respond(w, r, http.StatusBadRequest, "malformed form")
		return
	}

	id := r.PostFormValue("id")
	name := r.PostFormValue("name")
	username := r.PostFormValue("username")
	if username == "" {
		username = id
	}
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm_password")

	// validate before touching the account files or running anything
	if username == "" || !usernamePattern.MatchString(username) {
		s.reject(w, r, http.StatusBadRequest, "username contains invalid characters")
		return
	}
	if password == "" {
		s.reject(w, r, http.StatusBadRequest, "password must not be empty")
		return
	}
	if password != confirm {
		s.reject(w, r, http.StatusBadRequest, "passwords do not match")
		return
	}

	invited, err := s.store.Invited()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	processed, err := s.store.Processed()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	invitedName, ok := invited[id]
	if !ok {
		s.reject(w, r, http.StatusForbidden, "id is not on the invitation list")
		return
	}
	if _, done := processed[id]; done {
		s.reject(w, r, http.StatusConflict, "id is already registered")
		return
	}
	if name != invitedName {
		s.reject(w, r, http.StatusForbidden, "id and name do not match")
		return
	}

	if err := s.accounts.Create(r.Context(), username, password); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.RecordProcessed(id, username); err != nil {
		s.fail(w, r, err)
		return
	}

	registrationsTotal.WithLabelValues("success").Inc()
	s.logger.Info("registration succeeded",
		slog.String("id", id), slog.String("username", username))
	s.respond(w, r, http.StatusOK, "registration complete")
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request, status int, msg string) {
	registrationsTotal.WithLabelValues("rejected").Inc()
	s.logger.Info("registration rejected",
		slog.Int("status", status), slog.String("reason", msg))
	s.respond(w, r, status, msg)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	registrationsTotal.WithLabelValues("error").Inc()
	s.logger.Error("registration failed", slog.String("error", err.Error()))
	s.respond(w, r, http.StatusInternalServerError,
		"registration failed, please retry or contact the administrator")
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, msg string) {
	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(registerResponse{
		OK:        status == http.StatusOK,
		Message:   msg,
		RequestID: requestID,
	}); err != nil {
		s.logger.Error("encoding response failed", slog.String("error", err.Error()))
	}
}
