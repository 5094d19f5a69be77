package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/annweb/mailroom/subscription"
)

// unsubscribeHandler always answers in plain text; failures never say why.
func (s *Server) unsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.Subscriptions.Unsubscribe(r.Context(), token); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(subscription.UnsubscribeFailedMessage))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(subscription.UnsubscribedMessage))
}
