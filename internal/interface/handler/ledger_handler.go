package handler

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/infrastructure/auth"
	"flightsurety-ledger/internal/usecase"
	"flightsurety-ledger/pkg/ledgererr"
	"flightsurety-ledger/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// LedgerHandler exposes ledger operations over HTTP
type LedgerHandler struct {
	ledger   *usecase.Ledger
	validate *validator.Validate
	logger   logger.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledger *usecase.Ledger, logger logger.Logger) *LedgerHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &LedgerHandler{
		ledger:   ledger,
		validate: validate,
		logger:   logger,
	}
}

// caller returns the authenticated identity, or the zero identity for
// anonymous requests
func caller(r *http.Request) entity.Identity {
	id, _ := auth.CallerFrom(r.Context())
	return id
}

func identityParam(r *http.Request, name string) entity.Identity {
	return entity.ParseIdentity(chi.URLParam(r, name))
}

func (h *LedgerHandler) flightKeyParam(w http.ResponseWriter, r *http.Request) (entity.FlightKey, bool) {
	key, err := entity.ParseFlightKey(chi.URLParam(r, "key"))
	if err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: string(ledgererr.KindValidation)})
		return "", false
	}
	return key, true
}

// GetOperational handles GET /v1/operational
func (h *LedgerHandler) GetOperational(w http.ResponseWriter, r *http.Request) {
	operational, err := h.ledger.IsOperational(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"operational": operational})
}

// SetOperational handles PUT /v1/operational
func (h *LedgerHandler) SetOperational(w http.ResponseWriter, r *http.Request) {
	var req SetOperationalRequest
	if !h.decode(w, r, &req) {
		return
	}

	applied, err := h.ledger.SetOperationalStatus(r.Context(), caller(r), *req.Operational)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}

// GetCaller handles GET /v1/callers/{identity}
func (h *LedgerHandler) GetCaller(w http.ResponseWriter, r *http.Request) {
	id := identityParam(r, "identity")
	authorized, err := h.ledger.IsAuthorized(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"identity": id, "authorized": authorized})
}

// Authorize handles PUT /v1/callers/{identity}
func (h *LedgerHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Authorize(r.Context(), caller(r), identityParam(r, "identity")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deauthorize handles DELETE /v1/callers/{identity}
func (h *LedgerHandler) Deauthorize(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Deauthorize(r.Context(), caller(r), identityParam(r, "identity")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterAirline handles POST /v1/airlines
func (h *LedgerHandler) RegisterAirline(w http.ResponseWriter, r *http.Request) {
	var req RegisterAirlineRequest
	if !h.decode(w, r, &req) {
		return
	}

	ok, err := h.ledger.RegisterAirline(r.Context(), caller(r), req.Name, entity.ParseIdentity(req.Identity))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]bool{"registered": ok})
}

// ListAirlines handles GET /v1/airlines
func (h *LedgerHandler) ListAirlines(w http.ResponseWriter, r *http.Request) {
	ids, err := h.ledger.ListRegisteredAirlines(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if ids == nil {
		ids = []entity.Identity{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"airlines": ids})
}

// GetAirline handles GET /v1/airlines/{identity}
func (h *LedgerHandler) GetAirline(w http.ResponseWriter, r *http.Request) {
	airline, err := h.ledger.GetAirline(r.Context(), identityParam(r, "identity"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAirlineResponse(airline))
}

// GetMembership handles GET /v1/airlines/{identity}/membership
func (h *LedgerHandler) GetMembership(w http.ResponseWriter, r *http.Request) {
	ok, err := h.ledger.IsAirline(r.Context(), caller(r), identityParam(r, "identity"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"airline": ok})
}

// MarkAirlinePaid handles POST /v1/airlines/{identity}/payment
func (h *LedgerHandler) MarkAirlinePaid(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.MarkAirlinePaid(r.Context(), caller(r), identityParam(r, "identity")); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"paid": true})
}

// RegisterFlight handles POST /v1/flights
func (h *LedgerHandler) RegisterFlight(w http.ResponseWriter, r *http.Request) {
	var req RegisterFlightRequest
	if !h.decode(w, r, &req) {
		return
	}

	key, err := h.ledger.RegisterFlight(r.Context(), caller(r), usecase.FlightRegistration{
		Airline:       entity.ParseIdentity(req.Airline),
		Designator:    req.Designator,
		Origin:        req.Origin,
		Destination:   req.Destination,
		ScheduledTime: req.ScheduledTime,
		Key:           entity.FlightKey(req.FlightKey),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]entity.FlightKey{"flightKey": key})
}

// ListFlights handles GET /v1/flights
func (h *LedgerHandler) ListFlights(w http.ResponseWriter, r *http.Request) {
	keys, err := h.ledger.ListFlights(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if keys == nil {
		keys = []entity.FlightKey{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"flights": keys})
}

// GetFlight handles GET /v1/flights/{key}
func (h *LedgerHandler) GetFlight(w http.ResponseWriter, r *http.Request) {
	key, ok := h.flightKeyParam(w, r)
	if !ok {
		return
	}

	flight, err := h.ledger.GetFlight(r.Context(), key)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toFlightResponse(flight))
}

// BuyInsurance handles POST /v1/flights/{key}/policies
func (h *LedgerHandler) BuyInsurance(w http.ResponseWriter, r *http.Request) {
	key, ok := h.flightKeyParam(w, r)
	if !ok {
		return
	}
	var req BuyInsuranceRequest
	if !h.decode(w, r, &req) {
		return
	}

	passenger := entity.ParseIdentity(req.Passenger)
	if err := h.ledger.BuyInsurance(r.Context(), caller(r), key, passenger, req.Amount, req.Multiplier); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, PolicyResponse{
		FlightKey:  key,
		Passenger:  passenger,
		Insured:    true,
		Amount:     req.Amount,
		Multiplier: req.Multiplier,
	})
}

// GetPolicy handles GET /v1/flights/{key}/policies/{passenger}
func (h *LedgerHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	key, ok := h.flightKeyParam(w, r)
	if !ok {
		return
	}
	passenger := identityParam(r, "passenger")

	policy, err := h.ledger.GetPolicy(r.Context(), key, passenger)
	if ledgererr.Is(err, ledgererr.KindNotFound) {
		respondJSON(w, http.StatusOK, PolicyResponse{FlightKey: key, Passenger: passenger})
		return
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, PolicyResponse{
		FlightKey:  key,
		Passenger:  passenger,
		Insured:    true,
		Amount:     policy.Amount,
		Multiplier: policy.Multiplier,
		Credited:   policy.Credited,
	})
}

// ProcessFlightStatus handles POST /v1/flight-status
func (h *LedgerHandler) ProcessFlightStatus(w http.ResponseWriter, r *http.Request) {
	var req FlightStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	report := usecase.StatusReport{
		Airline:       entity.ParseIdentity(req.Airline),
		Designator:    req.Designator,
		ScheduledTime: req.ScheduledTime,
		Status:        entity.StatusCode(req.StatusCode),
	}
	if err := h.ledger.ProcessFlightStatus(r.Context(), caller(r), report); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]entity.FlightKey{
		"flightKey": entity.NewFlightKey(report.Airline, report.Designator, report.ScheduledTime),
	})
}

// GetPending handles GET /v1/balances/{passenger}
func (h *LedgerHandler) GetPending(w http.ResponseWriter, r *http.Request) {
	passenger := identityParam(r, "passenger")
	pending, err := h.ledger.GetPending(r.Context(), passenger)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"passenger": passenger, "pending": pending})
}

// Withdraw handles POST /v1/balances/{passenger}/withdrawal
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	passenger := identityParam(r, "passenger")
	amount, err := h.ledger.Withdraw(r.Context(), caller(r), passenger)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"passenger": passenger, "amount": amount})
}

// Fund handles POST /v1/fund
func (h *LedgerHandler) Fund(w http.ResponseWriter, r *http.Request) {
	var req FundRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.ledger.Fund(r.Context(), caller(r), req.Amount); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ListEvents handles GET /v1/events?limit=N
func (h *LedgerHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.ledger.ListEvents(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if events == nil {
		events = []entity.Event{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// Register mounts the ledger routes. Reads are public, mutations need a
// bearer token and Fund accepts either.
func (h *LedgerHandler) Register(r chi.Router, mw *auth.Middleware) {
	r.Get("/operational", h.GetOperational)
	r.Get("/callers/{identity}", h.GetCaller)
	r.Get("/airlines", h.ListAirlines)
	r.Get("/airlines/{identity}", h.GetAirline)
	r.Get("/flights", h.ListFlights)
	r.Get("/flights/{key}", h.GetFlight)
	r.Get("/flights/{key}/policies/{passenger}", h.GetPolicy)
	r.Get("/balances/{passenger}", h.GetPending)
	r.Get("/events", h.ListEvents)

	r.With(mw.Optional).Post("/fund", h.Fund)

	r.Group(func(r chi.Router) {
		r.Use(mw.Require)
		r.Put("/operational", h.SetOperational)
		r.Put("/callers/{identity}", h.Authorize)
		r.Delete("/callers/{identity}", h.Deauthorize)
		r.Post("/airlines", h.RegisterAirline)
		r.Get("/airlines/{identity}/membership", h.GetMembership)
		r.Post("/airlines/{identity}/payment", h.MarkAirlinePaid)
		r.Post("/flights", h.RegisterFlight)
		r.Post("/flights/{key}/policies", h.BuyInsurance)
		r.Post("/flight-status", h.ProcessFlightStatus)
		r.Post("/balances/{passenger}/withdrawal", h.Withdraw)
	})
}
