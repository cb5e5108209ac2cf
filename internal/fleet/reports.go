package fleet

import (
	"sort"

	"github.com/ukydev/fleet-ledger/internal/models"
)

// CostLine is one row of the maintenance cost report.
type CostLine struct {
	Plate            string             `json:"plate"`
	Kind             models.VehicleKind `json:"kind"`
	Brand            string             `json:"brand"`
	Model            string             `json:"model"`
	TotalCost        float64            `json:"total_cost"`
	MaintenanceCount int                `json:"maintenance_count"`
}

// EfficiencyLine is one row of the fuel efficiency report.
type EfficiencyLine struct {
	Plate           string             `json:"plate"`
	Kind            models.VehicleKind `json:"kind"`
	Brand           string             `json:"brand"`
	Model           string             `json:"model"`
	TotalLiters     float64            `json:"total_liters"`
	TotalSpent      float64            `json:"total_spent"`
	DistanceCovered float64            `json:"distance_covered"`
	Efficiency      float64            `json:"efficiency"` // km per liter
}

// CostReport sums the final cost of every maintenance per vehicle, in the
// order of the input collection.
func CostReport(vehicles []*models.Vehicle) []CostLine {
	lines := make([]CostLine, 0, len(vehicles))
	for _, v := range vehicles {
		history := v.MaintenanceHistory()
		total := 0.0
		for _, m := range history {
			total += m.FinalCost
		}
		lines = append(lines, CostLine{
			Plate:            v.Plate,
			Kind:             v.Kind,
			Brand:            v.Brand,
			Model:            v.Model,
			TotalCost:        total,
			MaintenanceCount: len(history),
		})
	}
	return lines
}

// EfficiencyReport ranks vehicles by distance covered since registration
// per liter of fuel, best first. Vehicles with no fuel or no distance
// score zero. Ties keep their input order.
func EfficiencyReport(vehicles []*models.Vehicle) []EfficiencyLine {
	lines := make([]EfficiencyLine, 0, len(vehicles))
	for _, v := range vehicles {
		liters, spent := 0.0, 0.0
		for _, f := range v.FuelHistory() {
			liters += f.Liters
			spent += f.AmountPaid
		}
		distance := v.Odometer() - v.EntryOdometer()
		efficiency := 0.0
		if liters > 0 && distance > 0 {
			efficiency = distance / liters
		}
		lines = append(lines, EfficiencyLine{
			Plate:           v.Plate,
			Kind:            v.Kind,
			Brand:           v.Brand,
			Model:           v.Model,
			TotalLiters:     liters,
			TotalSpent:      spent,
			DistanceCovered: distance,
			Efficiency:      efficiency,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Efficiency > lines[j].Efficiency
	})
	return lines
}
