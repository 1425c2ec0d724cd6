// internal/models/bom.go
package models

// BOMEstimate is the bill-of-materials for a job, with material quantities
// and labor hours already scaled by the requested quantity.
type BOMEstimate struct {
	JobType    string     `json:"job_type"`
	Quantity   int        `json:"quantity"`
	Materials  []Material `json:"materials"`
	LaborHours float64    `json:"labor_hours"`
}

// MaterialNames returns the names of all materials in BOM order.
func (e *BOMEstimate) MaterialNames() []string {
	names := make([]string, 0, len(e.Materials))
	for _, m := range e.Materials {
		names = append(names, m.Name)
	}
	return names
}
