package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"deployer/internal/deployerr"
	"deployer/internal/project"
	"deployer/internal/repoconfig"
	"deployer/internal/security"
)

const (
	MaxPayloadBytes = 1_000_000 // 1 MB
)

// pushEvent holds the fields of a GitHub push payload the server reads.
type pushEvent struct {
	Ref   string `json:"ref"`
	After string `json:"after"`
}

// HandleHealth handles health check requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":        "ok",
		"projects":      s.Registry.List(),
		"project_count": s.Registry.Count(),
	}

	s.respondJSON(w, http.StatusOK, response)
}

// HandlePlan reports what the given branch of a project would deploy.
func (s *Server) HandlePlan(w http.ResponseWriter, r *http.Request) {
	proj, ok := s.lookupProject(w, r)
	if !ok {
		return
	}

	branch := chi.URLParam(r, "*")
	if err := security.ValidateBranchName(branch); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Invalid branch name: %v", err)})
		return
	}

	cfg, ok := s.loadRepoConfig(w, proj)
	if !ok {
		return
	}

	b, found := cfg.LookupBranch(branch)
	if !found {
		s.respondJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown branch"})
		return
	}

	s.respondJSON(w, http.StatusOK, NewPlan(proj.Name, branch, b))
}

// HandleWebhook handles GitHub push webhooks by answering with the plan for
// the pushed branch.
func (s *Server) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	proj, ok := s.lookupProject(w, r)
	if !ok {
		return
	}

	// Check payload size (ContentLength can be -1 if not set, so check for both > 0 and > max)
	if r.ContentLength > MaxPayloadBytes {
		s.respondJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Payload too large"})
		return
	}

	// Check content type
	if r.Header.Get("Content-Type") != "application/json" {
		s.respondJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "Invalid content type"})
		return
	}

	// Check event type
	if r.Header.Get("X-GitHub-Event") != "push" {
		s.respondJSON(w, http.StatusOK, map[string]string{"message": "Ignoring non-push event"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxPayloadBytes))
	if err != nil {
		s.Logger.Error().Err(err).Str("project", proj.Name).Msg("Failed to read request body")
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read payload"})
		return
	}

	if !VerifySignature(body, r.Header.Get("X-Hub-Signature-256"), proj.Secret) {
		s.Logger.Warn().Str("project", proj.Name).Msg("Rejected webhook with invalid signature")
		s.respondJSON(w, http.StatusForbidden, map[string]string{"error": "Invalid signature"})
		return
	}

	var event pushEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.Logger.Error().Err(err).Str("project", proj.Name).Msg("Failed to parse JSON payload")
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload"})
		return
	}

	if event.Ref == "" {
		s.respondJSON(w, http.StatusOK, map[string]string{"message": "Missing payload, skipping"})
		return
	}

	branch, isBranch := proj.BranchFromRef(event.Ref)
	if !isBranch {
		s.respondJSON(w, http.StatusOK, map[string]string{"message": "Not a branch push, skipping"})
		return
	}
	if err := security.ValidateBranchName(branch); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Invalid branch name: %v", err)})
		return
	}

	cfg, ok := s.loadRepoConfig(w, proj)
	if !ok {
		return
	}

	b, found := cfg.LookupBranch(branch)
	if !found {
		s.respondJSON(w, http.StatusOK, map[string]string{"message": "No deployment configured for branch, skipping"})
		return
	}

	s.Logger.Info().
		Str("project", proj.Name).
		Str("branch", branch).
		Str("commit", event.After).
		Str("method", b.Method().String()).
		Msg("Resolved deployment plan for push")
	s.respondJSON(w, http.StatusOK, NewPlan(proj.Name, branch, b))
}

// lookupProject resolves the projectName URL parameter, writing the error
// response itself when the project cannot be served.
func (s *Server) lookupProject(w http.ResponseWriter, r *http.Request) (*project.Project, bool) {
	projectName := chi.URLParam(r, "projectName")

	// Validate project name for security
	if err := security.ValidateProjectName(projectName); err != nil {
		s.Logger.Warn().Str("project", projectName).Err(err).Msg("Invalid project name in request")
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Invalid project name: %v", err)})
		return nil, false
	}

	proj, err := s.Registry.Get(projectName)
	if errors.Is(err, project.ErrUnknownProject) {
		s.Logger.Warn().Err(err).Msg("Request for unknown project")
		s.respondJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown project"})
		return nil, false
	}
	if err != nil {
		s.Logger.Error().Err(err).Str("project", projectName).Msg("Failed to look up project")
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return nil, false
	}
	return proj, true
}

// loadRepoConfig reads the project's configuration from disk, reporting a
// configuration that does not resolve as 422 with the offending subject.
func (s *Server) loadRepoConfig(w http.ResponseWriter, proj *project.Project) (*repoconfig.RepoConfig, bool) {
	cfg, err := proj.LoadRepoConfig()
	if err == nil {
		return cfg, true
	}

	var cfgErr *deployerr.Error
	if !errors.As(err, &cfgErr) {
		s.Logger.Error().Err(err).Str("project", proj.Name).Msg("Failed to load deployer configuration")
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load configuration"})
		return nil, false
	}

	s.Logger.Error().
		Err(err).
		Str("project", proj.Name).
		Str("project_root", proj.Path).
		Str("kind", cfgErr.Kind.String()).
		Str("subject", cfgErr.Subject).
		Msg("Invalid deployer configuration")
	s.respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
		"error":   cfgErr.Desc,
		"subject": cfgErr.Subject,
	})
	return nil, false
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
