package http

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/annweb/mailroom"
	"github.com/annweb/mailroom/worker"
)

type batchResponse struct {
	Index int    `json:"index"`
	Size  int    `json:"size"`
	Error string `json:"error,omitempty"`
}

type sendResponse struct {
	Success bool            `json:"success"`
	Queued  bool            `json:"queued"`
	Total   int             `json:"total"`
	Sent    int             `json:"sent"`
	Batches []batchResponse `json:"batches,omitempty"`
}

func (s *Server) composerHandler(w http.ResponseWriter, r *http.Request) error {
	active, err := s.SubscriberService.CountActive(r.Context())
	if err != nil {
		return err
	}

	return s.pages.render(w, composerPage, &pageData{
		Path:      r.URL.Path,
		Site:      s.SiteName,
		Active:    active,
		BatchSize: s.BatchSize,
	})
}

func (s *Server) sendNewsletterHandler(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		return &mailroom.Error{Code: mailroom.ErrInvalid, Message: "Invalid form data", Err: err}
	}

	job := &mailroom.DispatchJob{
		Newsletter: mailroom.Newsletter{
			Subject:      r.PostFormValue("subject"),
			Text:         r.PostFormValue("message"),
			HTMLTemplate: r.PostFormValue("html"),
		},
	}
	if job.Subject == "" || job.Text == "" {
		return mailroom.Errorf(mailroom.ErrInvalid, "Subject and message are required.")
	}

	ids, err := parseIDs(r.PostForm["id"])
	if err != nil {
		return err
	}

	total, err := s.recipients(r, ids, job)
	if err != nil {
		return err
	}
	if total == 0 {
		return mailroom.Errorf(mailroom.ErrInvalid, "No active subscribers")
	}

	logger := hlog.FromRequest(r)

	if s.QueueService != nil {
		if err := worker.Enqueue(r.Context(), s.QueueService, s.Topic, job); err != nil {
			return err
		}
		logger.Info().Str("subject", job.Subject).Int("total", total).Msg("newsletter queued")
		writeJSONResponse(w, http.StatusAccepted, &sendResponse{Success: true, Queued: true, Total: total})
		return nil
	}

	var report *mailroom.DispatchReport
	if len(job.Recipients) > 0 {
		report, err = s.Dispatcher.SendTo(r.Context(), &job.Newsletter, job.Recipients)
	} else {
		report, err = s.Dispatcher.Send(r.Context(), &job.Newsletter)
	}
	if err != nil {
		return err
	}

	resp := &sendResponse{
		Success: report.Failed() == 0,
		Total:   report.Total,
		Sent:    report.Sent(),
		Batches: make([]batchResponse, 0, len(report.Batches)),
	}
	for _, b := range report.Batches {
		br := batchResponse{Index: b.Index, Size: b.Size}
		if b.Err != nil {
			br.Error = b.Err.Error()
		}
		resp.Batches = append(resp.Batches, br)
	}

	logger.Info().Str("subject", job.Subject).Int("total", resp.Total).Int("sent", resp.Sent).Msg("newsletter sent")
	writeJSONResponse(w, http.StatusOK, resp)
	return nil
}

// recipients fills job.Recipients with the selected active subscribers, or
// leaves it empty for a send to everyone, and returns the recipient count.
func (s *Server) recipients(r *http.Request, ids []int, job *mailroom.DispatchJob) (int, error) {
	if len(ids) == 0 {
		return s.SubscriberService.CountActive(r.Context())
	}

	selected, err := s.SubscriberService.FindByIDs(r.Context(), ids)
	if err != nil {
		return 0, err
	}

	active := make([]mailroom.Subscriber, 0, len(selected))
	for _, sub := range selected {
		if sub.Active {
			active = append(active, sub)
		}
	}
	job.Recipients = mailroom.Emails(active)
	return len(job.Recipients), nil
}
