package http

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/annweb/mailroom"
)

func (s *Server) subscribeHandler(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		return &mailroom.Error{Code: mailroom.ErrInvalid, Message: "Invalid form data", Err: err}
	}

	req := mailroom.SubscribeRequest{
		Email:  r.FormValue("email"),
		Source: r.PostFormValue("source"),
	}
	if _, ok := r.PostForm["source"]; !ok {
		req.Source = r.Referer()
	}

	resp, err := s.Subscriptions.Subscribe(r.Context(), req, s.siteURL(r))
	if err != nil {
		return err
	}

	hlog.FromRequest(r).Info().Str("email", mailroom.NormalizeEmail(req.Email)).Msg(resp.Message)
	writeJSONResponse(w, http.StatusOK, resp)
	return nil
}
