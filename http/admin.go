package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/annweb/mailroom"
	"github.com/annweb/mailroom/export"
	"github.com/annweb/mailroom/pkg/hash"
)

const adminCookie = "admin_token"

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) error {
	if s.Admin.Signer == nil || s.Admin.PasswordHash == "" {
		return mailroom.Errorf(mailroom.ErrForbidden, "Admin access is not configured.")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username != s.Admin.Username || !hash.CheckPassword(s.Admin.PasswordHash, password) {
		return mailroom.Errorf(mailroom.ErrUnauthorized, "Invalid username or password.")
	}

	token, err := s.Admin.Signer.Sign(username)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     adminCookie,
		Value:    token,
		Path:     "/admin",
		HttpOnly: true,
		Secure:   s.UseTLS(),
		SameSite: http.SameSiteStrictMode,
	})

	hlog.FromRequest(r).Info().Str("username", username).Msg("operator logged in")
	writeJSONResponse(w, http.StatusOK, &loginResponse{Success: true, Token: token})
	return nil
}

// requireAdmin accepts a session token from the Authorization header or the admin cookie.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deny := s.Error(func(w http.ResponseWriter, r *http.Request) error {
			return mailroom.Errorf(mailroom.ErrUnauthorized, "Authentication required.")
		})

		if s.Admin.Signer == nil {
			deny(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			if c, err := r.Cookie(adminCookie); err == nil {
				token = c.Value
			}
		}

		claims, err := s.Admin.Signer.Parse(token)
		if err != nil || claims.Username != s.Admin.Username {
			deny(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) exportSubscribersCSVHandler(w http.ResponseWriter, r *http.Request) error {
	ids, err := queryIDs(r)
	if err != nil {
		return err
	}

	var (
		subscribers []mailroom.Subscriber
		kind        export.Kind
		write       = export.SubscribersCSV
	)
	switch {
	case len(ids) > 0:
		kind = export.SelectedEmails
		subscribers, err = s.SubscriberService.FindByIDs(r.Context(), ids)
	case r.URL.Query().Get("scope") == "active":
		kind = export.ActiveEmails
		write = export.ActiveCSV
		subscribers, err = s.SubscriberService.FindActive(r.Context())
	default:
		kind = export.AllSubscribers
		subscribers, err = s.SubscriberService.FindAll(r.Context())
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := write(&buf, subscribers); err != nil {
		return err
	}

	hlog.FromRequest(r).Info().Str("export", string(kind)).Int("rows", len(subscribers)).Msg("exported subscribers")
	return attachment(w, "text/csv", export.Filename(kind, "csv", time.Now()), &buf)
}

func (s *Server) exportSubscribersTXTHandler(w http.ResponseWriter, r *http.Request) error {
	ids, err := queryIDs(r)
	if err != nil {
		return err
	}

	var subscribers []mailroom.Subscriber
	if len(ids) > 0 {
		subscribers, err = s.SubscriberService.FindByIDs(r.Context(), ids)
	} else {
		subscribers, err = s.SubscriberService.FindActive(r.Context())
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.EmailsTXT(&buf, subscribers); err != nil {
		return err
	}

	return attachment(w, "text/plain", export.Filename(export.SelectedEmails, "txt", time.Now()), &buf)
}

func (s *Server) exportContactsHandler(w http.ResponseWriter, r *http.Request) error {
	ids, err := queryIDs(r)
	if err != nil {
		return err
	}

	var messages []mailroom.ContactMessage
	if len(ids) > 0 {
		messages, err = s.ContactService.FindByIDs(r.Context(), ids)
	} else {
		messages, err = s.ContactService.FindAll(r.Context())
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.ContactsCSV(&buf, messages); err != nil {
		return err
	}

	return attachment(w, "text/csv", export.Filename(export.ContactMessages, "csv", time.Now()), &buf)
}

type markReadResponse struct {
	Success bool `json:"success"`
	Updated int  `json:"updated"`
}

func (s *Server) markReadHandler(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		return &mailroom.Error{Code: mailroom.ErrInvalid, Message: "Invalid form data", Err: err}
	}

	ids, err := parseIDs(r.PostForm["id"])
	if err != nil {
		return err
	}

	read := true
	if v := r.PostFormValue("read"); v != "" {
		if read, err = strconv.ParseBool(v); err != nil {
			return mailroom.Errorf(mailroom.ErrInvalid, "Invalid read flag %q.", v)
		}
	}

	n, err := s.Contacts.MarkRead(r.Context(), ids, read)
	if err != nil {
		return err
	}

	writeJSONResponse(w, http.StatusOK, &markReadResponse{Success: true, Updated: n})
	return nil
}

func attachment(w http.ResponseWriter, contentType, filename string, buf *bytes.Buffer) error {
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}

func queryIDs(r *http.Request) ([]int, error) {
	return parseIDs(r.URL.Query()["id"])
}

func parseIDs(values []string) ([]int, error) {
	ids := make([]int, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil || id <= 0 {
				return nil, mailroom.Errorf(mailroom.ErrInvalid, "Invalid id %q.", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
