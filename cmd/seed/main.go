package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Vehicle is the registration payload sent to the fleet API.
type Vehicle struct {
	Kind     string  `json:"kind"`
	Plate    string  `json:"plate"`
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Year     int     `json:"year"`
	Odometer float64 `json:"odometer"`
}

// Driver is the registration payload for a driver.
type Driver struct {
	Name            string `json:"name"`
	PersonID        string `json:"person_id"`
	LicenseID       string `json:"license_id"`
	LicenseCategory string `json:"license_category"`
}

// Trip is the payload for a trip allocation.
type Trip struct {
	PersonID    string  `json:"person_id"`
	Plate       string  `json:"plate"`
	Destination string  `json:"destination"`
	Distance    float64 `json:"distance"`
}

// Fuel is the payload for a fill-up.
type Fuel struct {
	Date       string  `json:"date"`
	FuelType   string  `json:"fuel_type"`
	Liters     float64 `json:"liters"`
	AmountPaid float64 `json:"amount_paid"`
}

var kinds = []string{"Carro", "Moto", "Caminhão"}

var brands = map[string][]string{
	"Carro":    {"Ford", "Chevrolet", "Toyota", "Honda", "Fiat"},
	"Moto":     {"Honda", "Yamaha", "Suzuki"},
	"Caminhão": {"Volvo", "Scania", "Mercedes-Benz"},
}

var models = map[string][]string{
	"Carro":    {"Ka", "Onix", "Corolla", "Civic", "Argo"},
	"Moto":     {"CG 160", "Factor", "Yes"},
	"Caminhão": {"FH 540", "R 450", "Actros"},
}

// categories keeps every seeded driver allowed to drive the vehicle it is paired with.
var categories = map[string]string{
	"Carro":    "B",
	"Moto":     "A",
	"Caminhão": "D",
}

var names = []string{"Ana", "Bruno", "Carla", "Diego", "Elisa", "Fábio", "Gabriela", "Hugo"}

var destinations = []string{"Centro", "Aeroporto", "Porto", "Distrito Industrial", "Praia", "Rodoviária"}

// seedResult counts what the API accepted.
type seedResult struct {
	Vehicles    int
	Drivers     int
	Trips       int
	FuelEntries int
}

type seeder struct {
	apiURL string
	client *http.Client
	rng    *rand.Rand
	now    time.Time
}

func (s *seeder) postJSON(path string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, s.apiURL+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, body.Error)
	}
	return nil
}

func (s *seeder) pick(values []string) string {
	return values[s.rng.Intn(len(values))]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *seeder) createVehicle(i int) (Vehicle, error) {
	kind := s.pick(kinds)
	vehicle := Vehicle{
		Kind:     kind,
		Plate:    fmt.Sprintf("SIM-%03d", i+1),
		Brand:    s.pick(brands[kind]),
		Model:    s.pick(models[kind]),
		Year:     2015 + s.rng.Intn(10),
		Odometer: float64(s.rng.Intn(80000)),
	}
	if err := s.postJSON("/vehicles", vehicle); err != nil {
		return Vehicle{}, err
	}
	log.WithFields(log.Fields{
		"plate": vehicle.Plate,
		"kind":  vehicle.Kind,
		"brand": vehicle.Brand,
		"model": vehicle.Model,
	}).Info("Created vehicle")
	return vehicle, nil
}

func (s *seeder) createDriver(i int, vehicle Vehicle) (Driver, error) {
	driver := Driver{
		Name:            fmt.Sprintf("%s %d", s.pick(names), i+1),
		PersonID:        fmt.Sprintf("%011d", 10000000000+i),
		LicenseID:       fmt.Sprintf("CNH%06d", i+1),
		LicenseCategory: categories[vehicle.Kind],
	}
	if err := s.postJSON("/drivers", driver); err != nil {
		return Driver{}, err
	}
	log.WithFields(log.Fields{
		"person_id": driver.PersonID,
		"category":  driver.LicenseCategory,
	}).Info("Created driver")
	return driver, nil
}

func (s *seeder) run(fleetSize, tripsPerVehicle int) seedResult {
	var result seedResult
	for i := 0; i < fleetSize; i++ {
		vehicle, err := s.createVehicle(i)
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		result.Vehicles++

		driver, err := s.createDriver(i, vehicle)
		if err != nil {
			log.WithError(err).Error("Failed to create driver")
			continue
		}
		result.Drivers++

		for j := 0; j < tripsPerVehicle; j++ {
			trip := Trip{
				PersonID:    driver.PersonID,
				Plate:       vehicle.Plate,
				Destination: s.pick(destinations),
				Distance:    round2(10 + s.rng.Float64()*490),
			}
			if err := s.postJSON("/trips", trip); err != nil {
				log.WithError(err).WithField("plate", vehicle.Plate).Warn("Trip rejected")
				continue
			}
			result.Trips++

			liters := round2(trip.Distance / (8 + s.rng.Float64()*8))
			fuel := Fuel{
				Date:       s.now.AddDate(0, 0, j).Format("02/01/2006"),
				FuelType:   "Gasolina",
				Liters:     liters,
				AmountPaid: round2(liters * 6.1),
			}
			if err := s.postJSON("/vehicles/"+vehicle.Plate+"/fuel", fuel); err != nil {
				log.WithError(err).WithField("plate", vehicle.Plate).Warn("Fill-up rejected")
				continue
			}
			result.FuelEntries++
		}
	}
	return result
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func main() {
	fleetSize := envInt("FLEET_SIZE", 10)
	tripsPerVehicle := envInt("SEED_TRIPS", 3)

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"trips":      tripsPerVehicle,
		"api_url":    apiURL,
	}).Info("Seeding fleet")

	s := &seeder{
		apiURL: apiURL,
		client: &http.Client{Timeout: 10 * time.Second},
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now(),
	}
	result := s.run(fleetSize, tripsPerVehicle)

	log.WithFields(log.Fields{
		"vehicles":     result.Vehicles,
		"drivers":      result.Drivers,
		"trips":        result.Trips,
		"fuel_entries": result.FuelEntries,
	}).Info("Seeding completed")
	if result.Vehicles == 0 {
		log.Error("No vehicles created. Ensure the API is reachable.")
		os.Exit(1)
	}
}
