package shopping

import (
	"sort"
	"strconv"
	"strings"

	"weekly-meal-planner/internal/recipe"
)

// Entry is one aggregated shopping-list line before persistence: all
// ingredient rows sharing a normalized (name, unit) key merged together.
type Entry struct {
	Name        string
	Quantity    string
	Unit        string
	RecipeIDs   []string
	RecipeNames []string
}

type contributor struct {
	id   string
	name string
}

type group struct {
	name         string
	unit         string
	sum          float64
	contributors []contributor
	seenRecipes  map[string]bool
}

// Aggregate merges ingredient lines into one entry per distinct
// (lowercased trimmed name, lowercased trimmed unit) pair. Same name with
// different units stays split: this is grouping, not unit conversion.
//
// Quantities are summed as floats; a quantity that does not parse (e.g.
// "qb") contributes zero but still creates or joins its group, so purely
// descriptive lines survive as zero-quantity entries. Display name and unit
// keep the casing of the first line encountered. Contributing recipes are
// deduplicated and sorted by recipe ID so repeated runs over an unchanged
// plan produce identical output.
func Aggregate(lines []recipe.IngredientLine) []Entry {
	groups := make(map[string]*group)
	var order []string

	for _, line := range lines {
		key := strings.ToLower(strings.TrimSpace(line.Name)) + "|" + strings.ToLower(strings.TrimSpace(line.Unit))

		g, ok := groups[key]
		if !ok {
			g = &group{
				name:        line.Name,
				unit:        line.Unit,
				seenRecipes: make(map[string]bool),
			}
			groups[key] = g
			order = append(order, key)
		}

		if qty, err := strconv.ParseFloat(strings.TrimSpace(line.Quantity), 64); err == nil {
			g.sum += qty
		}

		if !g.seenRecipes[line.RecipeID] {
			g.seenRecipes[line.RecipeID] = true
			g.contributors = append(g.contributors, contributor{id: line.RecipeID, name: line.RecipeName})
		}
	}

	entries := make([]Entry, 0, len(order))
	for _, key := range order {
		g := groups[key]
		sort.Slice(g.contributors, func(i, j int) bool {
			return g.contributors[i].id < g.contributors[j].id
		})

		entry := Entry{
			Name:     g.name,
			Quantity: strconv.FormatFloat(g.sum, 'f', -1, 64),
			Unit:     g.unit,
		}
		for _, c := range g.contributors {
			entry.RecipeIDs = append(entry.RecipeIDs, c.id)
			entry.RecipeNames = append(entry.RecipeNames, c.name)
		}
		entries = append(entries, entry)
	}
	return entries
}
