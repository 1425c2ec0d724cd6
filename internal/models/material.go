// internal/models/material.go
package models

import "fmt"

// Material is a single raw-material requirement inside a BOM estimate.
type Material struct {
	Name string  `json:"name"`
	Qty  float64 `json:"qty"`
	Unit string  `json:"unit"`
}

func (m Material) String() string {
	return fmt.Sprintf("%s: %g %s", m.Name, m.Qty, m.Unit)
}

// MaterialCost is the cost-source record for one material.
type MaterialCost struct {
	Name        string  `json:"name"`
	Unit        string  `json:"unit"`
	UnitCost    float64 `json:"unit_cost"`
	Currency    string  `json:"currency"`
	LastUpdated string  `json:"last_updated"`
}

// MaterialLine is a priced material row in a quote. LineCost is computed
// once during cost resolution and never recomputed afterwards.
type MaterialLine struct {
	Name     string  `json:"name"`
	Qty      float64 `json:"qty"`
	Unit     string  `json:"unit"`
	UnitCost float64 `json:"unit_cost"`
	LineCost float64 `json:"line_cost"`
}
