package flags

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/humanyze/flagkit/pkg/feature"
)

// Router returns the administrative HTTP surface for managing flags and
// overrides. Mount it behind whatever authentication the host application
// uses for admin traffic.
//
//	r := chi.NewRouter()
//	r.Mount("/admin/feature-flags", svc.Router())
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/", s.handleListFlags)
	r.Post("/", s.handleCreateFlag)

	r.Route("/{key}", func(r chi.Router) {
		r.Get("/", s.handleGetFlag)
		r.Patch("/", s.handleUpdateFlag)
		r.Delete("/", s.handleDeleteFlag)

		r.Route("/overrides", func(r chi.Router) {
			r.Delete("/", s.handleDeleteOverridesForFlag)
			r.Get("/{userID}", s.handleGetOverride)
			r.Put("/{userID}", s.handleSetOverride)
			r.Delete("/{userID}", s.handleDeleteOverride)
		})
	})

	return r
}

func (s *Service) handleListFlags(w http.ResponseWriter, r *http.Request) {
	list, err := s.ListFlags(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if list == nil {
		list = []*feature.Flag{}
	}
	renderJSON(w, http.StatusOK, map[string]any{"flags": list})
}

func (s *Service) handleCreateFlag(w http.ResponseWriter, r *http.Request) {
	var req createFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderJSONError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	flag, err := req.toFlag()
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	created, err := s.CreateFlag(r.Context(), flag)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, created)
}

func (s *Service) handleGetFlag(w http.ResponseWriter, r *http.Request) {
	flag, err := s.GetFlag(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, flag)
}

func (s *Service) handleUpdateFlag(w http.ResponseWriter, r *http.Request) {
	var req updateFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, feature.ErrInvalidTier) {
			s.renderError(w, r, err)
			return
		}
		renderJSONError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	updated, err := s.UpdateFlag(r.Context(), chi.URLParam(r, "key"), req.patch)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, updated)
}

func (s *Service) handleDeleteFlag(w http.ResponseWriter, r *http.Request) {
	if err := s.DeleteFlag(r.Context(), chi.URLParam(r, "key")); err != nil {
		s.renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleGetOverride(w http.ResponseWriter, r *http.Request) {
	o, err := s.GetOverride(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "userID"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, o)
}

func (s *Service) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		renderJSONError(w, http.StatusBadRequest, "bad_request", "body must contain an \"enabled\" boolean")
		return
	}

	o, err := s.SetOverride(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "userID"), *req.Enabled)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, o)
}

func (s *Service) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	if err := s.DeleteOverride(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "userID")); err != nil {
		s.renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleDeleteOverridesForFlag(w http.ResponseWriter, r *http.Request) {
	n, err := s.DeleteOverridesForFlag(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// renderError maps domain errors onto HTTP statuses. Unexpected errors are
// logged and collapsed to a generic 500 so internals never leak to admins.
func (s *Service) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, feature.ErrDuplicateKey):
		renderJSONError(w, http.StatusConflict, "duplicate_key", err.Error())
	case errors.Is(err, feature.ErrFlagNotFound), errors.Is(err, feature.ErrOverrideNotFound):
		renderJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, feature.ErrInvalidFlag), errors.Is(err, feature.ErrInvalidTier):
		renderJSONError(w, http.StatusUnprocessableEntity, "invalid_flag", err.Error())
	default:
		s.log.ErrorContext(r.Context(), "flag admin request failed",
			slog.String("path", r.URL.Path), slog.Any("error", err))
		renderJSONError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
