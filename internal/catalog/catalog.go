// Package catalog holds the static activity emission lookup table. Each
// entry fixes the kg CO2 estimate an activity contributes at the moment it
// is logged.
package catalog

import "github.com/tshegofatsoseane/footprint-logger-fullstack/internal/domain"

// Entry is one selectable activity with its display text and emission
// factor in kg CO2.
type Entry struct {
	Text  string  `json:"text"`
	CO2Kg float64 `json:"co2"`
}

var table = map[domain.Category]map[string]Entry{
	domain.CategoryTransport: {
		"Personal car (Petro/diesel)": {Text: "Personal car (Petro/diesel)", CO2Kg: 0.15},
		"taxi or uber/Bolt":           {Text: "Taxi or Uber/Bolt", CO2Kg: 0.18},
		"airplane flight":             {Text: "Airplane flight", CO2Kg: 0.25},
		"Scooter":                     {Text: "Scooter", CO2Kg: 0.07},
		"Electric cars":               {Text: "Electric cars", CO2Kg: 0.10},
	},
	domain.CategoryFood: {
		"Beef":                             {Text: "Beef", CO2Kg: 27},
		"Chicken":                          {Text: "Chicken", CO2Kg: 6},
		"cheese":                           {Text: "Cheese", CO2Kg: 10},
		"Eggs":                             {Text: "Eggs", CO2Kg: 4.5},
		"Cold drink(coca-cola, sprite etc)": {Text: "Cold drink (Coca-Cola, Sprite etc)", CO2Kg: 0.3},
	},
	domain.CategoryEnergy: {
		"TV/computer":     {Text: "TV/Computer", CO2Kg: 0.05},
		"washing machine": {Text: "Washing machine", CO2Kg: 1.8},
		"house Lights":    {Text: "House lights", CO2Kg: 0.01},
		"Fridge":          {Text: "Fridge", CO2Kg: 0.5},
		"heater":          {Text: "Heater", CO2Kg: 8},
		"gas heater":      {Text: "Gas heater", CO2Kg: 1},
		"charging phone":  {Text: "Charging phone", CO2Kg: 0.01},
	},
}

// Lookup resolves an activity key within a category.
func Lookup(category domain.Category, activityKey string) (Entry, bool) {
	entries, ok := table[category]
	if !ok {
		return Entry{}, false
	}
	entry, ok := entries[activityKey]
	return entry, ok
}

// All returns the full table for the categories endpoint.
func All() map[domain.Category]map[string]Entry {
	return table
}
