package repository

import (
	"fmt"
	"math/rand"

	"risewith9-sales-api/internal/model"
)

// GenerateUnits builds the initial inventory: every home on every floor of
// every tower. Odd homes are 3BHK, even homes 4BHK. Statuses are scattered
// for demo variety using the provided source; pass a seeded source for
// reproducible inventories.
func GenerateUnits(towers []string, floors, homes int, rng *rand.Rand) []model.Unit {
	units := make([]model.Unit, 0, len(towers)*floors*homes)
	for _, tower := range towers {
		for floor := 1; floor <= floors; floor++ {
			for home := 1; home <= homes; home++ {
				u := model.Unit{
					ID:     fmt.Sprintf("%s-%d-%d", tower, floor, home),
					Tower:  tower,
					Floor:  floor,
					Number: fmt.Sprintf("Home %d", home),
					Status: model.StatusAvailable,
				}
				if home%2 == 0 {
					u.Type = "4BHK"
					u.Sqft = 2400
					u.Price = "$620,000"
				} else {
					u.Type = "3BHK"
					u.Sqft = 1850
					u.Price = "$450,000"
				}
				if rng != nil {
					switch v := rng.Float64(); {
					case v > 0.8:
						u.Status = model.StatusSold
					case v > 0.7:
						u.Status = model.StatusLocked
					case v > 0.6:
						u.Status = model.StatusReserved
					}
				}
				units = append(units, u)
			}
		}
	}
	return units
}
