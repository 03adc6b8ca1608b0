// Package handler serves the navigation guard over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/jobvyne/navguard/internal/guard"
	"github.com/jobvyne/navguard/internal/logger"
	"github.com/jobvyne/navguard/internal/requester"
	"github.com/jobvyne/navguard/internal/route"
	"github.com/jobvyne/navguard/internal/social"
	"github.com/jobvyne/navguard/internal/store"
	"github.com/jobvyne/navguard/internal/utils"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	api       *requester.HTTPRequester
	guard     *guard.Guard
	social    *social.Service
	employers *store.EmployerStore
	origins   []string
}

type Params struct {
	fx.In

	API       *requester.HTTPRequester
	Guard     *guard.Guard
	Social    *social.Service
	Employers *store.EmployerStore
	Server    *config.ServerConfig
}

// NewHandler creates a new HTTP handler.
func NewHandler(p Params) *Handler {
	h := &Handler{
		api:       p.API,
		guard:     p.Guard,
		social:    p.Social,
		employers: p.Employers,
	}
	if p.Server != nil {
		h.origins = p.Server.AllowOrigins
	}
	return h
}

// CreateHTTPHandler builds the mux with the middleware stack.
func (h *Handler) CreateHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("POST /navigate", RequireJSON(h.HandleNavigate))
	mux.HandleFunc("GET /oauth/{provider}/url", h.HandleOAuthURL)
	mux.HandleFunc("GET /employers/{id}/jobs", h.HandleEmployerJobs)

	if len(h.origins) > 0 {
		logger.Info("CORS enabled", zap.Strings("origins", h.origins))
	}
	return WithRequestID(CORSWithOrigins(h.origins)(mux))
}

// HandleHealth handles GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, map[string]string{
		"status":  "ok",
		"version": config.GetVersionInfo(),
	})
}

// NavigateRequest is the body of POST /navigate. Query entries are added to
// those already present in Path.
type NavigateRequest struct {
	Path        string            `json:"path"`
	Query       map[string]string `json:"query,omitempty"`
	KnownDeploy string            `json:"known_deploy,omitempty"`
}

// NavigateResponse is the outcome of one navigation.
type NavigateResponse struct {
	Outcome  guard.Kind     `json:"outcome"`
	Location route.Location `json:"location"`
	URL      string         `json:"url"`
	CanEdit  bool           `json:"can_edit"`
	Reload   bool           `json:"reload"`
	DeployTS string         `json:"deploy_ts,omitempty"`
}

func targetURL(req NavigateRequest) (string, error) {
	u, err := url.Parse(req.Path)
	if err != nil {
		return "", err
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.RequestURI(), nil
}

// HandleNavigate handles POST /navigate. The caller's cookies are forwarded
// to the API so the guard sees the caller's session.
func (h *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		utils.WriteError(w, "invalid_request", "body must be a JSON object", http.StatusBadRequest)
		return
	}
	if req.Path == "" || req.Path[0] != '/' {
		utils.WriteError(w, "invalid_request", "path must be an absolute client path", http.StatusBadRequest)
		return
	}
	raw, err := targetURL(req)
	if err != nil {
		utils.WriteError(w, "invalid_request", "path is not a valid URL", http.StatusBadRequest)
		return
	}

	visitor := h.guard.ForVisitor(h.api.WithCookies(r.Cookies()), req.KnownDeploy)
	out, err := visitor.Navigate(r.Context(), raw)
	if err != nil {
		logger.Error("navigation failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", raw),
			zap.Error(err),
		)
		utils.WriteError(w, "navigation_failed", "navigation could not be resolved", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, NavigateResponse{
		Outcome:  out.Kind,
		Location: out.Location,
		URL:      out.Location.URL(),
		CanEdit:  out.Meta.CanEdit,
		Reload:   out.Reload,
		DeployTS: out.DeployTS,
	})
}

// HandleOAuthURL handles GET /oauth/{provider}/url
func (h *Handler) HandleOAuthURL(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	q := r.URL.Query()

	redirect := social.Redirect{Page: q.Get("redirectPage")}
	if raw := q.Get("userTypeBit"); raw != "" {
		bit, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteError(w, "invalid_request", "userTypeBit must be an integer", http.StatusBadRequest)
			return
		}
		redirect.UserTypeBit = &bit
	}
	if raw := q.Get("isLogin"); raw != "" {
		isLogin, err := strconv.ParseBool(raw)
		if err != nil {
			utils.WriteError(w, "invalid_request", "isLogin must be a boolean", http.StatusBadRequest)
			return
		}
		redirect.IsLogin = &isLogin
	}
	for k, vs := range q {
		if k == "redirectPage" || k == "userTypeBit" || k == "isLogin" || len(vs) == 0 {
			continue
		}
		if redirect.Params == nil {
			redirect.Params = make(map[string]string)
		}
		redirect.Params[k] = vs[0]
	}

	authURL, err := h.social.AuthURL(r.Context(), provider, redirect)
	if errors.Is(err, social.ErrUnknownProvider) {
		utils.WriteError(w, "unknown_provider", err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Warn("oauth url failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("provider", provider),
			zap.Error(err),
		)
		utils.WriteError(w, "oauth_unavailable", "sign-in is not available for this provider", http.StatusBadGateway)
		return
	}
	utils.WriteJSON(w, map[string]string{"url": authURL})
}

// EmployerJobsResponse is the job list of an employer with its locations.
type EmployerJobsResponse struct {
	Jobs      []store.Record      `json:"jobs"`
	Locations *store.JobLocations `json:"locations,omitempty"`
}

// HandleEmployerJobs handles GET /employers/{id}/jobs. Jobs are public job
// board data and are fetched with the service's own API session.
func (h *Handler) HandleEmployerJobs(w http.ResponseWriter, r *http.Request) {
	employerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || employerID <= 0 {
		utils.WriteError(w, "invalid_request", "employer id must be a positive integer", http.StatusBadRequest)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	if err := h.employers.SetEmployerJobs(r.Context(), employerID, force); err != nil {
		status := http.StatusBadGateway
		if requester.IsStatus(err, http.StatusNotFound) {
			status = http.StatusNotFound
		}
		logger.Warn("employer jobs unavailable",
			zap.String("request_id", RequestID(r.Context())),
			zap.Int64("employer_id", employerID),
			zap.Error(err),
		)
		utils.WriteError(w, "jobs_unavailable", "employer jobs could not be loaded", status)
		return
	}

	jobs := h.employers.GetEmployerJobs(r.Context(), employerID)
	if jobs == nil {
		jobs = []store.Record{}
	}
	utils.WriteJSON(w, EmployerJobsResponse{
		Jobs:      jobs,
		Locations: h.employers.GetJobLocations(r.Context(), employerID),
	})
}
