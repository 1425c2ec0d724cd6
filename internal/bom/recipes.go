// internal/bom/recipes.go
package bom

import (
	"sort"
	"strings"

	"github.com/liduanken/bakery-quotation-agent/internal/models"
)

// recipe is a per-unit bill of materials. Quantities here are for a single
// item and get scaled by the requested quantity during fallback resolution.
type recipe struct {
	Materials  []models.Material
	LaborHours float64
}

// fallbackRecipes is the static substitute for the estimation service.
var fallbackRecipes = map[string]recipe{
	"cupcakes": {
		Materials: []models.Material{
			{Name: "flour", Qty: 0.5, Unit: "kg"},
			{Name: "sugar", Qty: 0.3, Unit: "kg"},
			{Name: "eggs", Qty: 6, Unit: "each"},
			{Name: "butter", Qty: 0.2, Unit: "kg"},
			{Name: "milk", Qty: 0.2, Unit: "L"},
		},
		LaborHours: 1.5,
	},
	"cake": {
		Materials: []models.Material{
			{Name: "flour", Qty: 1.0, Unit: "kg"},
			{Name: "sugar", Qty: 0.8, Unit: "kg"},
			{Name: "eggs", Qty: 8, Unit: "each"},
			{Name: "butter", Qty: 0.5, Unit: "kg"},
			{Name: "milk", Qty: 0.4, Unit: "L"},
		},
		LaborHours: 3.0,
	},
	"pastry_box": {
		Materials: []models.Material{
			{Name: "flour", Qty: 0.8, Unit: "kg"},
			{Name: "sugar", Qty: 0.4, Unit: "kg"},
			{Name: "butter", Qty: 0.4, Unit: "kg"},
			{Name: "eggs", Qty: 4, Unit: "each"},
		},
		LaborHours: 2.0,
	},
}

// KnownJobTypes returns the fallback job types in sorted order.
func KnownJobTypes() []string {
	types := make([]string, 0, len(fallbackRecipes))
	for k := range fallbackRecipes {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// lookupRecipe finds the recipe for a normalized job type. Word-separated
// spellings match their joined catalog key, so "cup_cakes" resolves to the
// "cupcakes" recipe.
func lookupRecipe(jobType string) (recipe, string, bool) {
	if r, ok := fallbackRecipes[jobType]; ok {
		return r, jobType, true
	}
	collapsed := strings.ReplaceAll(jobType, "_", "")
	for key, r := range fallbackRecipes {
		if strings.ReplaceAll(key, "_", "") == collapsed {
			return r, key, true
		}
	}
	return recipe{}, "", false
}

// scaleRecipe multiplies the per-unit recipe by the requested quantity.
func scaleRecipe(jobType string, r recipe, quantity int) *models.BOMEstimate {
	q := float64(quantity)
	materials := make([]models.Material, 0, len(r.Materials))
	for _, m := range r.Materials {
		materials = append(materials, models.Material{
			Name: m.Name,
			Qty:  m.Qty * q,
			Unit: m.Unit,
		})
	}
	return &models.BOMEstimate{
		JobType:    jobType,
		Quantity:   quantity,
		Materials:  materials,
		LaborHours: r.LaborHours * q,
	}
}
