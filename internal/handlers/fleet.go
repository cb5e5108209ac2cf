package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-ledger/internal/fleet"
	"github.com/ukydev/fleet-ledger/internal/models"
)

// rawValue accepts either a JSON string or a bare JSON number and keeps its
// text, so numeric validation happens in the fleet service.
type rawValue string

func (r *rawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = rawValue(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	*r = rawValue(data)
	return nil
}

// VehicleRequest is the body of a vehicle registration.
type VehicleRequest struct {
	Kind     string   `json:"kind"`
	Plate    string   `json:"plate"`
	Brand    string   `json:"brand"`
	Model    string   `json:"model"`
	Year     rawValue `json:"year"`
	Odometer rawValue `json:"odometer"`
}

// VehicleUpdateRequest is the body of a vehicle update.
type VehicleUpdateRequest struct {
	Brand string   `json:"brand"`
	Model string   `json:"model"`
	Year  rawValue `json:"year"`
}

// DriverRequest is the body of a driver registration.
type DriverRequest struct {
	Name            string `json:"name"`
	PersonID        string `json:"person_id"`
	LicenseID       string `json:"license_id"`
	LicenseCategory string `json:"license_category"`
}

// TripRequest is the body of a trip.
type TripRequest struct {
	PersonID    string   `json:"person_id"`
	Plate       string   `json:"plate"`
	Destination string   `json:"destination"`
	Distance    rawValue `json:"distance"`
}

// MaintenanceRequest is the body of a maintenance start.
type MaintenanceRequest struct {
	Date        string   `json:"date"`
	Kind        string   `json:"kind"`
	BaseCost    rawValue `json:"base_cost"`
	Description string   `json:"description"`
}

// FuelRequest is the body of a fill-up.
type FuelRequest struct {
	Date       string   `json:"date"`
	FuelType   string   `json:"fuel_type"`
	Liters     rawValue `json:"liters"`
	AmountPaid rawValue `json:"amount_paid"`
}

// FleetHandler exposes fleet operations over HTTP.
type FleetHandler struct {
	service *fleet.Service
	log     logrus.FieldLogger
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(service *fleet.Service, logger logrus.FieldLogger) *FleetHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FleetHandler{service: service, log: logger}
}

// Routes registers the fleet endpoints on mux.
func (h *FleetHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("GET /api/vehicles", h.ListVehicles)
	mux.HandleFunc("POST /api/vehicles", h.RegisterVehicle)
	mux.HandleFunc("GET /api/vehicles/{plate}", h.GetVehicle)
	mux.HandleFunc("PUT /api/vehicles/{plate}", h.UpdateVehicle)
	mux.HandleFunc("POST /api/vehicles/{plate}/maintenance", h.StartMaintenance)
	mux.HandleFunc("POST /api/vehicles/{plate}/maintenance/finish", h.FinishMaintenance)
	mux.HandleFunc("POST /api/vehicles/{plate}/fuel", h.RecordFuel)

	mux.HandleFunc("GET /api/drivers", h.ListDrivers)
	mux.HandleFunc("POST /api/drivers", h.RegisterDriver)
	mux.HandleFunc("GET /api/drivers/{person_id}", h.GetDriver)

	mux.HandleFunc("GET /api/trips", h.ListTrips)
	mux.HandleFunc("POST /api/trips", h.RecordTrip)

	mux.HandleFunc("GET /api/reports/maintenance-costs", h.MaintenanceCostReport)
	mux.HandleFunc("GET /api/reports/fuel-efficiency", h.FuelEfficiencyReport)
}

// Health reports that the server is up.
func (h *FleetHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RegisterVehicle handles vehicle registration
func (h *FleetHandler) RegisterVehicle(w http.ResponseWriter, r *http.Request) {
	var req VehicleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vehicle, err := h.service.RegisterVehicle(r.Context(), fleet.VehicleInput{
		Kind:     req.Kind,
		Plate:    req.Plate,
		Brand:    req.Brand,
		Model:    req.Model,
		Year:     string(req.Year),
		Odometer: string(req.Odometer),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle.Record())
}

// ListVehicles returns the fleet in registration order.
func (h *FleetHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.service.ListVehicles(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	records := make([]models.VehicleRecord, 0, len(vehicles))
	for _, v := range vehicles {
		records = append(records, v.Record())
	}
	writeJSON(w, http.StatusOK, records)
}

// GetVehicle returns one vehicle by plate.
func (h *FleetHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.service.FindVehicle(r.Context(), r.PathValue("plate"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle.Record())
}

// UpdateVehicle changes brand, model or year of a vehicle.
func (h *FleetHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var req VehicleUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vehicle, err := h.service.UpdateVehicle(r.Context(), r.PathValue("plate"), req.Brand, req.Model, string(req.Year))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle.Record())
}

// StartMaintenance puts a vehicle into maintenance.
func (h *FleetHandler) StartMaintenance(w http.ResponseWriter, r *http.Request) {
	var req MaintenanceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	maintenance, err := h.service.StartMaintenance(r.Context(), r.PathValue("plate"), req.Date, req.Kind, string(req.BaseCost), req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, maintenance)
}

// FinishMaintenance returns a vehicle to service.
func (h *FleetHandler) FinishMaintenance(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.service.FinishMaintenance(r.Context(), r.PathValue("plate"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicle.Record())
}

// RecordFuel registers a fill-up.
func (h *FleetHandler) RecordFuel(w http.ResponseWriter, r *http.Request) {
	var req FuelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.service.RecordFuel(r.Context(), r.PathValue("plate"), req.Date, req.FuelType, string(req.Liters), string(req.AmountPaid))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// RegisterDriver handles driver registration
func (h *FleetHandler) RegisterDriver(w http.ResponseWriter, r *http.Request) {
	var req DriverRequest
	if !decodeBody(w, r, &req) {
		return
	}
	driver, err := h.service.RegisterDriver(r.Context(), fleet.DriverInput{
		Name:            req.Name,
		PersonID:        req.PersonID,
		LicenseID:       req.LicenseID,
		LicenseCategory: req.LicenseCategory,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, driver.Record())
}

// ListDrivers returns every driver.
func (h *FleetHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.service.ListDrivers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	records := make([]models.DriverRecord, 0, len(drivers))
	for _, d := range drivers {
		records = append(records, d.Record())
	}
	writeJSON(w, http.StatusOK, records)
}

// GetDriver returns one driver by person id.
func (h *FleetHandler) GetDriver(w http.ResponseWriter, r *http.Request) {
	driver, err := h.service.FindDriver(r.Context(), r.PathValue("person_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, driver.Record())
}

// RecordTrip allocates and logs a trip.
func (h *FleetHandler) RecordTrip(w http.ResponseWriter, r *http.Request) {
	var req TripRequest
	if !decodeBody(w, r, &req) {
		return
	}
	record, err := h.service.RecordTrip(r.Context(), req.PersonID, req.Plate, req.Destination, string(req.Distance))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// ListTrips returns the trip log.
func (h *FleetHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.service.ListTrips(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

// MaintenanceCostReport returns total maintenance cost per vehicle.
func (h *FleetHandler) MaintenanceCostReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.MaintenanceCostReport(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// FuelEfficiencyReport returns the fuel efficiency ranking.
func (h *FleetHandler) FuelEfficiencyReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.FuelEfficiencyReport(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// statusFor maps fleet errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, models.ErrAllocationInvalid), errors.Is(err, models.ErrMaintenanceInvalid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *FleetHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.log.WithError(err).Error("Fleet operation failed")
		message = "Internal server error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
