// Package domain defines the core types and interfaces for the voice assistant.
// All other packages depend on domain; domain depends on nothing.
package domain

import "strings"

// Recipe is a retrieval record: everything the assistant knows about a dish
// independently of the language model. Instructions are kept in source order.
type Recipe struct {
	ID           string
	Title        string
	Description  string
	Region       string
	Ingredients  []Ingredient
	Instructions []string
	Tags         []string
}

// RecipeSummary is a lightweight view of a recipe for listings and search hits.
type RecipeSummary struct {
	ID          string
	Title       string
	Description string
	Similarity  float64 // relevance of a search hit, 0 when listed
	Tags        []string
}

// Ingredient is one line of a recipe's ingredient list. Quantity stays a
// string because source data mixes numerals and fractions ("1/2", "2-3").
type Ingredient struct {
	Name     string
	Quantity string
	Unit     string
}

// Line renders the ingredient the way it is spoken: "2 cups flour",
// falling back to the bare name when no quantity is known.
func (i Ingredient) Line() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{i.Quantity, i.Unit, i.Name} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IngredientLines renders all ingredients in narration order.
func (r *Recipe) IngredientLines() []string {
	lines := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if line := ing.Line(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Empty reports whether the record carries nothing worth narrating.
func (r *Recipe) Empty() bool {
	return r == nil || (len(r.Ingredients) == 0 && len(r.Instructions) == 0)
}
