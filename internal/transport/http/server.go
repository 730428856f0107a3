// Package http implements the HTTP transport layer for the service.
// It handles incoming requests, decodes them, calls the appropriate service
// methods, and encodes the responses.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hemolink/bloodbank-service/internal/apperrors"
	"github.com/hemolink/bloodbank-service/internal/service"
	"github.com/hemolink/bloodbank-service/internal/validation"
	"github.com/hemolink/bloodbank-service/pkg/api"
	"github.com/hemolink/bloodbank-service/pkg/logger/sl"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the dependencies for the HTTP server, including the logger
// and service interfaces.
type Server struct {
	log                 *slog.Logger
	organizerService    service.OrganizerService
	pouchService        service.PouchService
	transferService     service.TransferService
	eligibilityService  service.EligibilityService
	availabilityService service.AvailabilityService
}

// NewServer creates a new instance of the HTTP server.
func NewServer(
	log *slog.Logger,
	os service.OrganizerService,
	ps service.PouchService,
	ts service.TransferService,
	es service.EligibilityService,
	as service.AvailabilityService,
) *Server {
	return &Server{
		log:                 log,
		organizerService:    os,
		pouchService:        ps,
		transferService:     ts,
		eligibilityService:  es,
		availabilityService: as,
	}
}

// Routes sets up the router with all middleware and API endpoints.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/organizers", func(r chi.Router) {
		r.Post("/", s.handleCreateOrganizer)
		r.Get("/", s.handleListOrganizers)
		r.Get("/rank", s.handleRankOrganizers)
		r.Get("/{organizerID}", s.handleGetOrganizer)
	})

	mux.Route("/pouches", func(r chi.Router) {
		r.Post("/", s.handleRegisterPouch)
		r.Get("/eligible", s.handleEligiblePouches)
		r.Get("/{pouchID}", s.handleGetPouch)
		r.Post("/{pouchID}/use", s.handleUsePouch)
		r.Post("/{pouchID}/waste", s.handleWastePouch)
	})

	mux.Get("/availability", s.handleAvailability)

	mux.Route("/transfers", func(r chi.Router) {
		r.Post("/", s.handleCreateTransfer)
		r.Get("/", s.handleListTransfers)
		r.Get("/{transferID}", s.handleGetTransfer)
		r.Post("/{transferID}/approve", s.handleApproveTransfer)
		r.Post("/{transferID}/reject", s.handleRejectTransfer)
		r.Post("/{transferID}/cancel", s.handleCancelTransfer)
		r.Post("/{transferID}/complete", s.handleCompleteTransfer)
	})

	return mux
}

func (s *Server) handleCreateOrganizer(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleCreateOrganizer"

	var req createOrganizerRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	org, err := s.organizerService.CreateOrganizer(r.Context(), req.OrganizerName, req.OrganizerType)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]*api.Organizer{"organizer": org})
}

func (s *Server) handleGetOrganizer(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleGetOrganizer"

	org, err := s.organizerService.GetOrganizer(r.Context(), chi.URLParam(r, "organizerID"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*api.Organizer{"organizer": org})
}

func (s *Server) handleListOrganizers(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleListOrganizers"

	orgs, err := s.organizerService.ListOrganizers(r.Context(), r.URL.Query().Get("organizer_type"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]api.Organizer{"organizers": orgs})
}

func (s *Server) handleRankOrganizers(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleRankOrganizers"

	query := r.URL.Query()

	var candidateIDs []string
	if raw := query.Get("candidate_ids"); raw != "" {
		candidateIDs = strings.Split(raw, ",")
	}

	resp, err := s.eligibilityService.RankOrganizers(r.Context(),
		query.Get("blood_type"), query.Get("blood_group"), candidateIDs)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterPouch(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleRegisterPouch"

	var req registerPouchRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	pouch, err := s.pouchService.RegisterPouch(r.Context(), service.RegisterPouchParams{
		PouchCode:   req.PouchCode,
		BloodType:   req.BloodType,
		BloodGroup:  req.BloodGroup,
		DonorID:     req.DonorID,
		OrganizerID: req.OrganizerID,
		DonatedAt:   req.DonatedAt,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]*api.BloodPouch{"pouch": pouch})
}

func (s *Server) handleGetPouch(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleGetPouch"

	pouch, err := s.pouchService.GetPouch(r.Context(), chi.URLParam(r, "pouchID"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*api.BloodPouch{"pouch": pouch})
}

func (s *Server) handleUsePouch(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleUsePouch"

	var req usePouchRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	pouch, err := s.pouchService.UsePouch(r.Context(), chi.URLParam(r, "pouchID"), req.UsedBy)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*api.BloodPouch{"pouch": pouch})
}

func (s *Server) handleWastePouch(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleWastePouch"

	var req wastePouchRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	pouch, err := s.pouchService.WastePouch(r.Context(), chi.URLParam(r, "pouchID"), req.Message)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*api.BloodPouch{"pouch": pouch})
}

func (s *Server) handleEligiblePouches(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleEligiblePouches"

	query := r.URL.Query()

	resp, err := s.eligibilityService.FindEligiblePouches(r.Context(),
		query.Get("organizer_id"), query.Get("blood_type"), query.Get("blood_group"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, resp)
}

// handleAvailability reports the eligible-unit count for one organizer and
// criteria. With a "requested" query parameter it also returns the clamped
// unit count a transfer of that size would get.
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleAvailability"

	query := r.URL.Query()

	resp, err := s.availabilityService.AvailableUnits(r.Context(),
		query.Get("organizer_id"), query.Get("blood_type"), query.Get("blood_group"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	if raw := query.Get("requested"); raw != "" {
		requested, err := strconv.Atoi(raw)
		if err != nil || requested < 0 {
			s.handleServiceError(w, r, op, fmt.Errorf("%w: requested must be a non-negative integer", apperrors.ErrInvalidRequest))
			return
		}

		clamp := service.ClampRequestedUnits(requested, resp.AvailableUnits)
		resp.Clamp = &clamp
	}

	s.respond(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleCreateTransfer"

	var req createTransferRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	transfer, err := s.transferService.CreateTransfer(r.Context(),
		req.FromOrganizerID, req.ToOrganizerID, req.BloodType, req.BloodGroup, req.NoOfUnits, req.Purpose)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]*api.TransferRequest{"transfer": transfer})
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleGetTransfer"

	transfer, err := s.transferService.GetTransfer(r.Context(), chi.URLParam(r, "transferID"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*api.TransferRequest{"transfer": transfer})
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleListTransfers"

	query := r.URL.Query()

	direction := query.Get("direction")
	if direction != "incoming" && direction != "outgoing" {
		s.handleServiceError(w, r, op, fmt.Errorf("%w: direction must be 'incoming' or 'outgoing'", apperrors.ErrInvalidRequest))
		return
	}

	resp, err := s.transferService.ListTransfers(r.Context(), query.Get("organizer_id"), direction == "incoming")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, resp)
}

func (s *Server) handleApproveTransfer(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleApproveTransfer"

	var req approveTransferRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	transfer, err := s.transferService.Approve(r.Context(), chi.URLParam(r, "transferID"), req.PouchIDs, req.StatusMessage)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*api.TransferRequest{"transfer": transfer})
}

func (s *Server) handleRejectTransfer(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleRejectTransfer"

	var req rejectTransferRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	transfer, err := s.transferService.Reject(r.Context(), chi.URLParam(r, "transferID"), req.Reason)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*api.TransferRequest{"transfer": transfer})
}

func (s *Server) handleCancelTransfer(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleCancelTransfer"

	var req cancelTransferRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	transfer, err := s.transferService.Cancel(r.Context(), chi.URLParam(r, "transferID"), req.OrganizerID, req.Reason)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*api.TransferRequest{"transfer": transfer})
}

func (s *Server) handleCompleteTransfer(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.handleCompleteTransfer"

	var req completeTransferRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	transfer, err := s.transferService.Complete(r.Context(), chi.URLParam(r, "transferID"), req.TransferDate, req.Notes)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*api.TransferRequest{"transfer": transfer})
}

// respond is a helper function to encode data to JSON and write it to the
// response. It centralizes setting the Content-Type header and writing the
// status code.
func (s *Server) respond(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("failed to encode response", sl.Err(err))
		}
	}
}

// respondError is a convenience wrapper around respond for sending simple
// error messages.
func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, map[string]string{"error": message})
}

// respondAPIError formats and sends a structured error response with a
// machine-readable code.
func (s *Server) respondAPIError(w http.ResponseWriter, code int, apiCode api.ErrorResponseErrorCode, message string) {
	errResp := api.ErrorResponse{
		Error: struct {
			Code    api.ErrorResponseErrorCode `json:"code"`
			Message string                     `json:"message"`
		}{
			Code:    apiCode,
			Message: message,
		},
	}
	s.respond(w, code, errResp)
}

// decodeAndValidate is a helper that deserializes a JSON request body into a
// struct and then runs validation checks on it.
func (s *Server) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := s.decode(r.Body, v); err != nil {
		return err
	}

	if err := validation.ValidateStruct(v); err != nil {
		return err
	}

	return nil
}

// decode is a helper function to decode a JSON request body.
func (s *Server) decode(body io.ReadCloser, v interface{}) error {
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err)
	}

	return nil
}

// handleServiceError provides centralized error handling for all HTTP
// handlers. It logs the internal error and maps it to a user-friendly HTTP
// response.
func (s *Server) handleServiceError(w http.ResponseWriter, _ *http.Request, op string, err error) {
	log := s.log.With(slog.String("op", op))
	log.Error("service error occurred", sl.Err(err))

	var (
		orgExistsErr    *apperrors.OrganizerAlreadyExistsError
		pouchExistsErr  *apperrors.PouchAlreadyExistsError
		criteriaErr     *apperrors.InvalidCriteriaError
		overAllocErr    *apperrors.OverAllocationError
		notEligibleErr  *apperrors.PouchNoLongerEligibleError
		badTransitionEr *apperrors.InvalidTransitionError
		validationErr   *validation.ValidationError
	)

	switch {
	case errors.As(err, &validationErr):
		wrappedErr := fmt.Errorf("%w: %s", apperrors.ErrValidation, validationErr.Error())
		s.respondError(w, http.StatusBadRequest, wrappedErr.Error())
	case errors.Is(err, apperrors.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, "invalid request body")
	case errors.As(err, &criteriaErr):
		s.respondAPIError(w, http.StatusBadRequest, api.INVALIDCRITERIA, criteriaErr.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		s.respondAPIError(w, http.StatusNotFound, api.NOTFOUND, "resource not found")
	case errors.As(err, &orgExistsErr):
		s.respondAPIError(w, http.StatusConflict, api.ORGANIZEREXISTS, orgExistsErr.Error())
	case errors.As(err, &pouchExistsErr):
		s.respondAPIError(w, http.StatusConflict, api.POUCHEXISTS, pouchExistsErr.Error())
	case errors.As(err, &overAllocErr):
		s.respondAPIError(w, http.StatusConflict, api.OVERALLOCATION, overAllocErr.Error())
	case errors.As(err, &notEligibleErr):
		s.respondAPIError(w, http.StatusConflict, api.POUCHNOTELIGIBLE, notEligibleErr.Error())
	case errors.As(err, &badTransitionEr):
		s.respondAPIError(w, http.StatusConflict, api.INVALIDTRANSITION, badTransitionEr.Error())
	case errors.Is(err, apperrors.ErrNotRequester):
		s.respondAPIError(w, http.StatusConflict, api.NOTREQUESTER, apperrors.ErrNotRequester.Error())
	case errors.Is(err, apperrors.ErrPouchConsumed):
		s.respondAPIError(w, http.StatusConflict, api.POUCHCONSUMED, apperrors.ErrPouchConsumed.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
