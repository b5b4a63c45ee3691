package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"github.com/ziadkadry99/pkweb/internal/oauth"
	"github.com/ziadkadry99/pkweb/internal/pkapi"
	"github.com/ziadkadry99/pkweb/internal/session"
	"github.com/ziadkadry99/pkweb/internal/view"
)

func (s *Server) page(r *http.Request) *PageData {
	d := &PageData{LoginURL: s.loginURL}
	if sess := session.FromContext(r.Context()); sess != nil {
		d.LoggedIn = sess.HasToken(r.Context())
	}
	return d
}

// renderPage buffers the page so a template error never leaves a partial
// response behind.
func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data *PageData) {
	var buf bytes.Buffer
	if err := s.render.Page(&buf, name, data); err != nil {
		s.logger.Error("rendering page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	d := s.page(r)
	d.CSRF = csrf.TemplateField(r)
	s.renderPage(w, http.StatusOK, "home", d)
}

// handleToken stores a pasted PluralKit token once the API accepts it.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d := s.page(r)
	d.CSRF = csrf.TemplateField(r)

	token := strings.TrimSpace(r.PostFormValue("token"))
	if token == "" {
		d.Error = "Enter a token."
		s.renderPage(w, http.StatusBadRequest, "home", d)
		return
	}

	if _, err := s.api.OwnSystem(ctx, token); err != nil {
		if pkapi.IsUnauthorized(err) {
			d.Error = "That token was not accepted."
			s.renderPage(w, http.StatusUnauthorized, "home", d)
			return
		}
		d.Error = "Couldn't reach PluralKit. Try again later."
		s.renderPage(w, http.StatusBadGateway, "home", d)
		return
	}

	sess := session.FromContext(ctx)
	if err := sess.SetToken(ctx, token); err != nil {
		s.logger.Error("storing token", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := session.FromContext(r.Context()).Clear(r.Context()); err != nil {
		s.logger.Error("clearing session", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogin resolves the OAuth redirect. The loading indicator is
// flushed before the code exchange starts; the rest of the document
// navigates home or shows the failure.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d := s.page(r)
	d.Title = "Logging in"
	d.Target = oauth.HomePath

	resolver := oauth.NewResolver(s.exchanger, session.FromContext(ctx), s.logger)
	started := false
	resolver.OnTransition = func(st oauth.State) {
		if st != oauth.Exchanging {
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if err := s.render.Fragment(w, "login", "start", d); err != nil {
			s.logger.Error("rendering login", zap.Error(err))
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		started = true
	}

	target, err := resolver.Resolve(ctx, r.URL.Query())
	if err != nil {
		d.Error = loginError(err)
		if !started {
			status := http.StatusForbidden
			if errors.Is(err, oauth.ErrNoCode) {
				status = http.StatusBadRequest
			}
			s.renderPage(w, status, "login", d)
			return
		}
		if rerr := s.render.Fragment(w, "login", "failed", d); rerr != nil {
			s.logger.Error("rendering login", zap.Error(rerr))
		}
		return
	}

	d.Target = target
	if err := s.render.Fragment(w, "login", "done", d); err != nil {
		s.logger.Error("rendering login", zap.Error(err))
	}
}

func loginError(err error) string {
	if errors.Is(err, oauth.ErrNoCode) {
		return "Discord did not send an authorization code."
	}
	var xerr *oauth.ExchangeError
	if errors.As(err, &xerr) && xerr.Err == nil {
		return "Discord refused the login: " + xerr.Reason
	}
	return "Couldn't complete the login with Discord."
}

// handleSystem serves the live system view, or the full render when the
// static query parameter is set.
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d := s.page(r)

	if r.URL.Query().Get("static") == "" {
		d.System = &SystemData{ID: id, State: view.Loading.String()}
		s.renderPage(w, http.StatusOK, "shell", d)
		return
	}

	snap := s.loader.LoadSync(r.Context(), id)
	status := http.StatusOK
	if snap.State == view.Failed {
		if pkapi.IsNotFound(snap.Err) {
			s.handleNotFound(w, r)
			return
		}
		status = http.StatusBadGateway
	}
	d.System = NewSystemData(id, "", snap)
	if snap.State == view.Loaded {
		d.Title = SystemName(snap.System)
	}
	s.renderPage(w, status, "system", d)
}

// handleMe sends a logged-in user to their own system page.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	token, err := sess.Token(ctx)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sys, err := s.api.OwnSystem(ctx, token)
	if err != nil {
		if pkapi.IsUnauthorized(err) {
			if cerr := sess.Clear(ctx); cerr != nil {
				s.logger.Warn("clearing rejected token", zap.Error(cerr))
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		d := s.page(r)
		d.System = NewSystemData("", "", view.Snapshot{State: view.Failed, Err: err})
		s.renderPage(w, http.StatusBadGateway, "system", d)
		return
	}
	http.Redirect(w, r, "/system/"+url.PathEscape(sys.ID), http.StatusSeeOther)
}

// handleNotFound renders the not-found page at once and sends the
// browser home after the configured delay.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	d := s.page(r)
	d.Title = "Not found"
	d.Delay = DelaySeconds(s.cfg.Server.NotFoundDelay)
	s.renderPage(w, http.StatusNotFound, "notfound", d)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "*") != "style.css" {
		s.handleNotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write([]byte(styleCSS))
}

// systemResponse is the JSON body of GET /api/systems/{id}.
type systemResponse struct {
	System  *pkapi.System  `json:"system"`
	Members []pkapi.Member `json:"members"`
}

func (s *Server) handleAPISystem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap := s.loader.LoadSync(r.Context(), id)
	if r.Context().Err() != nil {
		// middleware.Timeout answers 504 once the deadline has passed.
		return
	}
	if snap.State == view.Failed {
		status := http.StatusBadGateway
		if pkapi.IsNotFound(snap.Err) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": snap.Err.Error()})
		return
	}

	sys := *snap.System
	sys.Members = nil
	writeJSON(w, http.StatusOK, systemResponse{System: &sys, Members: snap.Members})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
