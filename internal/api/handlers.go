// File: internal/api/handlers.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/inspect"
	"github.com/xkilldash9x/stylelens/internal/profile"
)

// inlineProfileName labels a profile sent in the request body without a name.
const inlineProfileName = "inline"

// Handlers serves the inspection and profile endpoints.
type Handlers struct {
	log          *zap.Logger
	store        *profile.Store
	inspector    inspect.Service
	maxBodyBytes int64
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(logger *zap.Logger, store *profile.Store, inspector inspect.Service, maxBodyBytes int64) *Handlers {
	return &Handlers{
		log:          logger.Named("api_handlers"),
		store:        store,
		inspector:    inspector,
		maxBodyBytes: maxBodyBytes,
	}
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HandleHealthCheck)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", h.HandleListProfiles)
			r.Post("/reload", h.HandleReloadProfiles)
			r.Put("/active", h.HandleSelectProfile)
			r.Delete("/active", h.HandleClearProfile)
			r.Get("/{name}", h.HandleGetProfile)
		})
		r.Post("/validate", h.HandleValidate)
		r.Post("/alignment", h.HandleAlignment)
		r.Post("/spacing", h.HandleSpacing)
		r.Post("/inspect", h.HandleInspect)
	})
}

// HandleHealthCheck confirms the server is responsive.
func (h *Handlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) profilesState() ProfilesResponse {
	state := h.store.Snapshot()
	names := state.Names
	if names == nil {
		names = []string{}
	}
	return ProfilesResponse{Profiles: names, Active: state.Active}
}

// HandleListProfiles returns the profile names and the active selection.
func (h *Handlers) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	h.respondWithSuccess(w, http.StatusOK, h.profilesState())
}

// HandleGetProfile returns one profile's expected properties.
func (h *Handlers) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(chi.URLParam(r, "name"))
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, p)
}

// HandleReloadProfiles re-reads the backing profile file.
func (h *Handlers) HandleReloadProfiles(w http.ResponseWriter, r *http.Request) {
	if h.store.Path() == "" {
		h.respondWithError(w, http.StatusConflict, "Profiles are not backed by a file.")
		return
	}
	if err := h.store.Reload(); err != nil {
		h.respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.respondWithSuccess(w, http.StatusOK, h.profilesState())
}

// HandleSelectProfile activates a profile.
func (h *Handlers) HandleSelectProfile(w http.ResponseWriter, r *http.Request) {
	var req SelectProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.respondWithError(w, http.StatusBadRequest, "Profile name is required.")
		return
	}
	if err := h.store.Select(req.Name); err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.log.Info("Profile selected.", zap.String("profile", req.Name))
	h.respondWithSuccess(w, http.StatusOK, h.profilesState())
}

// HandleClearProfile deselects the active profile.
func (h *Handlers) HandleClearProfile(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	h.respondWithSuccess(w, http.StatusOK, h.profilesState())
}

// HandleValidate compares each element's styles against a profile.
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.resolveProfile(req)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	validations, err := h.inspector.ValidateStyles(req.Elements, p)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, ValidateResponse{Profile: p.Name, Validations: validations})
}

// HandleAlignment reports per-axis offsets from the first element.
func (h *Handlers) HandleAlignment(w http.ResponseWriter, r *http.Request) {
	var req SnapshotsRequest
	if !h.decode(w, r, &req) {
		return
	}
	report, err := h.inspector.Alignment(req.Elements)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, report)
}

// HandleSpacing classifies consecutive element pairs.
func (h *Handlers) HandleSpacing(w http.ResponseWriter, r *http.Request) {
	var req SnapshotsRequest
	if !h.decode(w, r, &req) {
		return
	}
	report, err := h.inspector.Spacing(req.Elements)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, report)
}

// HandleInspect runs the requested analyses and returns a full report. A missing profile
// skips validation instead of failing.
func (h *Handlers) HandleInspect(w http.ResponseWriter, r *http.Request) {
	var req InspectRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.resolveProfile(req.ValidateRequest)
	if err != nil && !errors.Is(err, inspect.ErrNoProfile) {
		h.respondWithErr(w, err)
		return
	}
	sections := inspect.AllSections()
	if req.Sections != nil {
		sections = inspect.Sections{
			Validate:  req.Sections.Validate,
			Alignment: req.Sections.Alignment,
			Spacing:   req.Sections.Spacing,
		}
	}
	report, err := h.inspector.Inspect(inspect.Request{
		Snapshots: req.Elements,
		Profile:   p,
		Source:    req.Source,
		Sections:  sections,
	})
	if err != nil {
		h.respondWithErr(w, err)
		return
	}
	h.respondWithSuccess(w, http.StatusOK, report)
}

// resolveProfile picks the inline profile, the named one, or the active one.
func (h *Handlers) resolveProfile(req ValidateRequest) (*schemas.ExpectedProfile, error) {
	if req.Expected != nil {
		if req.Expected.Name == "" {
			req.Expected.Name = inlineProfileName
		}
		return req.Expected, nil
	}
	if req.Profile != "" {
		return h.store.Get(req.Profile)
	}
	if p, ok := h.store.Active(); ok {
		return p, nil
	}
	return nil, inspect.ErrNoProfile
}

// decode reads a JSON body into v, answering 400 on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	if err := json.ConfigCompatibleWithStandardLibrary.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes.", tooLarge.Limit))
			return false
		}
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, profile.ErrProfileNotFound), errors.Is(err, profile.ErrNoProfiles):
		return http.StatusNotFound
	case errors.Is(err, inspect.ErrNoElements), errors.Is(err, inspect.ErrNoProfile),
		errors.Is(err, inspect.ErrTooFewElements):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *Handlers) respondWithErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed.", zap.Error(err))
		h.respondWithError(w, status, "Internal error.")
		return
	}
	h.respondWithError(w, status, err.Error())
}

// respondWithError sends a standardized JSON error response.
func (h *Handlers) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	h.respond(w, statusCode, Response{Status: "error", Error: message})
}

// respondWithSuccess sends a standardized JSON success response.
func (h *Handlers) respondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	h.respond(w, statusCode, Response{Status: "success", Data: data})
}

func (h *Handlers) respond(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}
