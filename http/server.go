package http

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/annweb/mailroom"
	"github.com/annweb/mailroom/contact"
	"github.com/annweb/mailroom/metrics"
	"github.com/annweb/mailroom/pkg/jwt"
	"github.com/annweb/mailroom/subscription"
	"github.com/annweb/mailroom/worker"
)

const (
	shutdownTimeout = 5 * time.Second
	maxFormSize     = 1 << 20
)

// Server represents HTTP server
type Server struct {
	ln     net.Listener
	server *http.Server
	router *mux.Router
	pages  *pages
	log    zerolog.Logger

	Addr      string
	Domain    string
	BaseURL   string
	SiteName  string
	BatchSize int

	Subscriptions     *subscription.Service
	Contacts          *contact.Service
	SubscriberService mailroom.SubscriberService
	ContactService    mailroom.ContactService

	// Dispatcher sends newsletters synchronously when QueueService is nil.
	Dispatcher   worker.Sender
	QueueService mailroom.QueueService
	Topic        string

	Admin struct {
		Username     string
		PasswordHash string
		Signer       *jwt.Signer
	}

	Metrics *metrics.Metrics
}

// NewServer create new HTTP server
func NewServer(config *mailroom.Config, logger zerolog.Logger, m *metrics.Metrics) (*Server, error) {
	p, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		server:  &http.Server{ReadHeaderTimeout: 10 * time.Second},
		router:  mux.NewRouter().StrictSlash(true),
		pages:   p,
		log:     logger.With().Str("component", "http").Logger(),

		Addr:      config.HTTP.Addr,
		Domain:    config.HTTP.Domain,
		BaseURL:   strings.TrimRight(config.HTTP.BaseURL, "/"),
		SiteName:  config.Newsletter.Product.Name,
		BatchSize: config.Newsletter.BatchSize,
		Topic:     config.Queue.Topic,
		Metrics:   m,
	}
	s.Admin.Username = config.Admin.Username
	s.Admin.PasswordHash = config.Admin.PasswordHash
	if config.Admin.JWTSecret != "" {
		s.Admin.Signer = jwt.NewSigner(config.Admin.JWTSecret, config.Admin.TokenTTL)
	}

	s.router.Use(hlog.NewHandler(logger))
	s.router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("")
	}))
	s.router.Use(hlog.UserAgentHandler("user_agent"))
	s.router.Use(hlog.RefererHandler("referer"))
	s.router.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	s.router.Use(m.Middleware)

	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})
	s.router.Use(sentryHandler.Handle)

	s.server.Handler = http.HandlerFunc(s.serveHTTP)

	s.router.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)
	if m != nil {
		s.router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	s.router.HandleFunc("/subscribe", s.Error(s.subscribeHandler)).Methods(http.MethodPost)
	s.router.HandleFunc("/contact", s.Error(s.contactHandler)).Methods(http.MethodPost)
	s.router.HandleFunc("/unsubscribe/{token}", s.unsubscribeHandler).Methods(http.MethodGet)

	s.router.HandleFunc("/admin/login", s.Error(s.loginHandler)).Methods(http.MethodPost)
	adminRouter := s.router.PathPrefix("/admin").Subrouter()
	adminRouter.Use(s.requireAdmin)
	adminRouter.HandleFunc("/subscribers/export.csv", s.Error(s.exportSubscribersCSVHandler)).Methods(http.MethodGet)
	adminRouter.HandleFunc("/subscribers/export.txt", s.Error(s.exportSubscribersTXTHandler)).Methods(http.MethodGet)
	adminRouter.HandleFunc("/contacts/export.csv", s.Error(s.exportContactsHandler)).Methods(http.MethodGet)
	adminRouter.HandleFunc("/contacts/read", s.Error(s.markReadHandler)).Methods(http.MethodPost)
	adminRouter.HandleFunc("/newsletter", s.Error(s.composerHandler)).Methods(http.MethodGet)
	adminRouter.HandleFunc("/newsletter/send", s.Error(s.sendNewsletterHandler)).Methods(http.MethodPost)

	s.router.HandleFunc("/", s.Error(s.pageHandler("index"))).Methods(http.MethodGet)
	for _, name := range pageNames {
		s.router.HandleFunc("/"+name, s.Error(s.pageHandler(name))).Methods(http.MethodGet)
	}

	return s, nil
}

// Scheme returns scheme
func (s *Server) Scheme() string {
	if s.UseTLS() {
		return "https"
	}
	return "http"
}

// UseTLS checks if server use TLS or not
func (s *Server) UseTLS() bool {
	return s.Domain != ""
}

// Port returns server port
func (s *Server) Port() int {
	if s.ln == nil {
		return 0
	}
	return s.ln.Addr().(*net.TCPAddr).Port
}

// URL returns server URL
func (s *Server) URL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}

	scheme, port := s.Scheme(), s.Port()

	domain := "localhost"
	if s.Domain != "" {
		domain = s.Domain
	}

	if port == 80 || port == 443 || flag.Lookup("test.v") != nil {
		return fmt.Sprintf("%s://%s", scheme, domain)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, domain, s.Port())
}

// siteURL returns the public base URL used in email links: the configured one,
// or the scheme and host the request came in on.
func (s *Server) siteURL(r *http.Request) string {
	if s.BaseURL != "" {
		return s.BaseURL
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Open opens a connection to HTTP server
func (s *Server) Open() (err error) {
	s.ln, err = net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Errorf("failed to listen to port %s: %v", s.Addr, err)
	}

	go func() {
		if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("server stopped")
		}
	}()

	s.log.Info().Str("addr", s.ln.Addr().String()).Str("url", s.URL()).Msg("listening")
	return nil
}

// Close shutdowns HTTP server
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
