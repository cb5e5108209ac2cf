package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/fleet"
	"github.com/ukydev/fleet-ledger/internal/models"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	logger, _ := test.NewNullLogger()
	service := fleet.NewService(db.NewFileStore(t.TempDir(), logger), nil, logger)
	mux := http.NewServeMux()
	NewFleetHandler(service, logger).Routes(mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestRawValue_UnmarshalJSON(t *testing.T) {
	var req TripRequest
	require.NoError(t, json.Unmarshal([]byte(`{"distance": 12.5}`), &req))
	assert.Equal(t, rawValue("12.5"), req.Distance)

	require.NoError(t, json.Unmarshal([]byte(`{"distance": "far"}`), &req))
	assert.Equal(t, rawValue("far"), req.Distance)

	require.NoError(t, json.Unmarshal([]byte(`{"distance": null}`), &req))
	assert.Equal(t, rawValue(""), req.Distance)
}

func TestFleetHandler_Health(t *testing.T) {
	w := do(t, newTestMux(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFleetHandler_TripFlow(t *testing.T) {
	mux := newTestMux(t)

	w := do(t, mux, http.MethodPost, "/api/vehicles", `{"kind":"Carro","plate":"CAR-01","brand":"Ford","model":"Ka","year":2022,"odometer":"5000"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, mux, http.MethodPost, "/api/drivers", `{"name":"Maria","person_id":"999","license_id":"CNH999","license_category":"b"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, mux, http.MethodPost, "/api/trips", `{"person_id":"999","plate":"car-01","destination":"Praia","distance":100}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec models.TripRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rec))
	assert.Equal(t, 5100.0, rec.OdometerAfter)

	w = do(t, mux, http.MethodGet, "/api/vehicles/CAR-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	var vehicle models.VehicleRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&vehicle))
	assert.Equal(t, 5100.0, vehicle.Odometer)
	require.NotNil(t, vehicle.EntryOdometer)
	assert.Equal(t, 5000.0, *vehicle.EntryOdometer)

	w = do(t, mux, http.MethodGet, "/api/trips", "")
	require.Equal(t, http.StatusOK, w.Code)
	var trips []models.TripRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&trips))
	assert.Len(t, trips, 1)
}

func TestFleetHandler_ErrorStatuses(t *testing.T) {
	mux := newTestMux(t)

	do(t, mux, http.MethodPost, "/api/vehicles", `{"kind":"Caminhão","plate":"CAM-01","year":2020,"odometer":10000}`)
	do(t, mux, http.MethodPost, "/api/drivers", `{"name":"Pedro","person_id":"111","license_id":"CNH111","license_category":"B"}`)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		expected int
	}{
		{"invalid json", http.MethodPost, "/api/vehicles", `{bad json`, http.StatusBadRequest},
		{"non-numeric year", http.MethodPost, "/api/vehicles", `{"kind":"Carro","plate":"X","year":"abc","odometer":0}`, http.StatusBadRequest},
		{"duplicate plate", http.MethodPost, "/api/vehicles", `{"kind":"Carro","plate":"cam-01","year":2020,"odometer":0}`, http.StatusConflict},
		{"duplicate driver", http.MethodPost, "/api/drivers", `{"name":"P","person_id":"111","license_category":"C"}`, http.StatusConflict},
		{"unknown vehicle", http.MethodGet, "/api/vehicles/NOPE", "", http.StatusNotFound},
		{"unknown driver", http.MethodGet, "/api/drivers/000", "", http.StatusNotFound},
		{"incompatible license", http.MethodPost, "/api/trips", `{"person_id":"111","plate":"CAM-01","destination":"Entrega","distance":500}`, http.StatusUnprocessableEntity},
		{"finish without maintenance", http.MethodPost, "/api/vehicles/CAM-01/maintenance/finish", "", http.StatusUnprocessableEntity},
		{"method not allowed", http.MethodDelete, "/api/vehicles", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, mux, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expected, w.Code, w.Body.String())
		})
	}
}

func TestFleetHandler_MaintenanceAndReports(t *testing.T) {
	mux := newTestMux(t)

	do(t, mux, http.MethodPost, "/api/vehicles", `{"kind":"Moto","plate":"MTO-01","year":2021,"odometer":2000}`)

	w := do(t, mux, http.MethodPost, "/api/vehicles/MTO-01/maintenance", `{"date":"01/01/2025","kind":"Corretiva","base_cost":100,"description":"Pneu furado"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var m models.Maintenance
	require.NoError(t, json.NewDecoder(w.Body).Decode(&m))
	assert.Equal(t, 120.0, m.FinalCost)

	w = do(t, mux, http.MethodPost, "/api/vehicles/MTO-01/maintenance", `{"date":"02/01/2025","kind":"Preventiva","base_cost":10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, mux, http.MethodPost, "/api/vehicles/MTO-01/maintenance/finish", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, mux, http.MethodPost, "/api/vehicles/MTO-01/fuel", `{"date":"03/01/2025","fuel_type":"Gasolina","liters":"10","amount_paid":60}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, mux, http.MethodGet, "/api/reports/maintenance-costs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var costs []fleet.CostLine
	require.NoError(t, json.NewDecoder(w.Body).Decode(&costs))
	require.Len(t, costs, 1)
	assert.Equal(t, 120.0, costs[0].TotalCost)
	assert.Equal(t, 1, costs[0].MaintenanceCount)

	w = do(t, mux, http.MethodGet, "/api/reports/fuel-efficiency", "")
	require.Equal(t, http.StatusOK, w.Code)
	var efficiency []fleet.EfficiencyLine
	require.NoError(t, json.NewDecoder(w.Body).Decode(&efficiency))
	require.Len(t, efficiency, 1)
	assert.Equal(t, 10.0, efficiency[0].TotalLiters)
	assert.Equal(t, 0.0, efficiency[0].Efficiency)

	w = do(t, mux, http.MethodPut, "/api/vehicles/MTO-01", `{"model":"Titan","year":"2022"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.VehicleRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, "Titan", updated.Model)
	assert.Equal(t, 2022, updated.Year)
}

func TestFleetHandler_EmptyCollections(t *testing.T) {
	mux := newTestMux(t)

	for _, path := range []string{"/api/vehicles", "/api/drivers", "/api/trips", "/api/reports/maintenance-costs", "/api/reports/fuel-efficiency"} {
		w := do(t, mux, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, "[]", w.Body.String(), path)
	}
}
