package http

import (
	"net/http"

	"github.com/annweb/mailroom"
	"github.com/annweb/mailroom/contact"
)

func (s *Server) contactHandler(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		return &mailroom.Error{Code: mailroom.ErrInvalid, Message: "Invalid form data", Err: err}
	}

	_, err := s.Contacts.Submit(r.Context(), mailroom.ContactForm{
		FullName: r.PostFormValue("full_name"),
		Phone:    r.PostFormValue("phone"),
		Email:    r.PostFormValue("email"),
		Message:  r.PostFormValue("message"),
	})
	if err != nil {
		return err
	}

	writeJSONResponse(w, http.StatusOK, &mailroom.SubscriptionResponse{
		Success: true,
		Message: contact.SubmittedMessage,
	})
	return nil
}
