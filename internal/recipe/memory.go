// Package recipe provides recipe source implementations.
package recipe

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
)

// Compile-time interface check.
var _ domain.RecipeSource = (*MemorySource)(nil)

// MemorySource holds the recipe corpus in memory. Safe for concurrent reads.
type MemorySource struct {
	mu      sync.RWMutex
	recipes map[string]*domain.Recipe
	log     *logger.Logger
}

// NewMemorySource creates a recipe source preloaded with built-in recipes.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := &MemorySource{
		recipes: make(map[string]*domain.Recipe),
		log:     log,
	}
	src.seed()
	return src
}

// List returns summaries of all available recipes, sorted by title.
func (s *MemorySource) List(ctx context.Context) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("listing all recipes, count=%d", len(s.recipes))

	out := make([]domain.RecipeSummary, 0, len(s.recipes))
	for _, r := range s.recipes {
		out = append(out, domain.RecipeSummary{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Tags:        r.Tags,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// Get returns a recipe by ID.
func (s *MemorySource) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		s.log.Debug("recipe not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// maxResults caps how many matches Search returns; more than a handful
// is useless when the list is read aloud.
const maxResults = 5

// Search scores every recipe against the spoken query and returns the
// matches ordered by similarity, best first.
func (s *MemorySource) Search(ctx context.Context, query string) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := queryTerms(query)
	s.log.Debug("searching recipes for terms: %v", terms)

	var out []domain.RecipeSummary
	for _, r := range s.recipes {
		score := similarity(r, terms)
		if score <= 0 {
			continue
		}
		out = append(out, domain.RecipeSummary{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Similarity:  score,
			Tags:        r.Tags,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Title < out[j].Title
	})
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

// stopwords are filler words from spoken queries ("find me a paneer
// curry") that carry no signal.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "i": true, "me": true, "my": true,
	"to": true, "for": true, "of": true, "some": true, "something": true,
	"want": true, "would": true, "like": true, "find": true, "search": true,
	"look": true, "looking": true, "make": true, "cook": true, "recipe": true,
	"how": true, "do": true, "please": true, "can": true, "we": true,
	"with": true, "without": true, "and": true,
}

func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?'\"")
		if f == "" || stopwords[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// similarity is the fraction of query terms found in the recipe's title,
// description, region, tags, or ingredient names. A full-phrase title hit
// scores 1.
func similarity(r *domain.Recipe, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}

	title := strings.ToLower(r.Title)
	if strings.Contains(title, strings.Join(terms, " ")) {
		return 1
	}

	var hay strings.Builder
	hay.WriteString(title)
	hay.WriteString(" ")
	hay.WriteString(strings.ToLower(r.Description))
	hay.WriteString(" ")
	hay.WriteString(strings.ToLower(r.Region))
	for _, t := range r.Tags {
		hay.WriteString(" ")
		hay.WriteString(strings.ToLower(t))
	}
	for _, ing := range r.Ingredients {
		hay.WriteString(" ")
		hay.WriteString(strings.ToLower(ing.Name))
	}
	text := hay.String()

	matched := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// seed populates the source with built-in recipes.
func (s *MemorySource) seed() {
	recipes := []*domain.Recipe{
		s.masalaDosa(),
		s.vegetableBiryani(),
		s.paneerButterMasala(),
		s.lemonRice(),
		s.masalaChai(),
	}
	for _, r := range recipes {
		s.recipes[r.ID] = r
	}
	s.log.Debug("seeded %d recipes", len(recipes))
}

func (s *MemorySource) masalaDosa() *domain.Recipe {
	return &domain.Recipe{
		ID:          "masala-dosa",
		Title:       "Masala Dosa",
		Description: "Crisp fermented rice crepes wrapped around a spiced potato filling.",
		Region:      "South Indian",
		Tags:        []string{"breakfast", "vegetarian", "fermented", "crispy"},
		Ingredients: []domain.Ingredient{
			{Name: "rice", Quantity: "2", Unit: "cups"},
			{Name: "urad dal", Quantity: "1/2", Unit: "cup"},
			{Name: "fenugreek seeds", Quantity: "1/4", Unit: "teaspoon"},
			{Name: "potatoes", Quantity: "4", Unit: ""},
			{Name: "onion", Quantity: "1", Unit: ""},
			{Name: "green chillies", Quantity: "2", Unit: ""},
			{Name: "mustard seeds", Quantity: "1/2", Unit: "teaspoon"},
			{Name: "turmeric powder", Quantity: "1/4", Unit: "teaspoon"},
			{Name: "oil", Quantity: "3", Unit: "tablespoons"},
			{Name: "salt", Quantity: "", Unit: ""},
		},
		Instructions: []string{
			"Wash the rice and urad dal, then soak them separately with the fenugreek seeds for six hours.",
			"Grind both into a smooth batter, combine, and let the batter ferment overnight in a warm spot.",
			"Boil the potatoes until tender, then peel and roughly mash them.",
			"Heat a tablespoon of oil and splutter the mustard seeds, then fry the sliced onion, green chillies, and turmeric until soft.",
			"Fold the mashed potatoes and salt into the pan and cook the filling for two minutes.",
			"Heat a flat pan, pour a ladle of batter, and spread it in circles into a thin crepe.",
			"Drizzle oil around the edges and cook until the underside turns golden and crisp.",
			"Place a spoonful of filling in the middle, fold the dosa over, and serve hot with chutney.",
		},
	}
}

func (s *MemorySource) vegetableBiryani() *domain.Recipe {
	return &domain.Recipe{
		ID:          "vegetable-biryani",
		Title:       "Vegetable Biryani",
		Description: "Fragrant basmati rice layered with spiced vegetables and saffron.",
		Region:      "Hyderabadi",
		Tags:        []string{"rice", "main course", "vegetarian", "festive"},
		Ingredients: []domain.Ingredient{
			{Name: "basmati rice", Quantity: "2", Unit: "cups"},
			{Name: "mixed vegetables", Quantity: "2", Unit: "cups"},
			{Name: "onions", Quantity: "2", Unit: ""},
			{Name: "yogurt", Quantity: "1/2", Unit: "cup"},
			{Name: "biryani masala", Quantity: "2", Unit: "tablespoons"},
			{Name: "ginger garlic paste", Quantity: "1", Unit: "tablespoon"},
			{Name: "saffron", Quantity: "1", Unit: "pinch"},
			{Name: "warm milk", Quantity: "1/4", Unit: "cup"},
			{Name: "ghee", Quantity: "3", Unit: "tablespoons"},
			{Name: "salt", Quantity: "", Unit: ""},
		},
		Instructions: []string{
			"Soak the basmati rice for thirty minutes, then cook it until just three-quarters done and drain.",
			"Soak the saffron in the warm milk and set it aside.",
			"Fry the sliced onions in ghee until deep golden, and set half aside for layering.",
			"Add the ginger garlic paste and vegetables to the pan and cook for five minutes.",
			"Stir in the yogurt, biryani masala, and salt, and simmer until the vegetables are coated in a thick gravy.",
			"Layer the rice over the vegetables, scatter the reserved onions, and pour the saffron milk on top.",
			"Cover with a tight lid and cook on the lowest heat for twenty minutes so the layers steam together.",
			"Rest for ten minutes, then fluff gently from the sides before serving.",
		},
	}
}

func (s *MemorySource) paneerButterMasala() *domain.Recipe {
	return &domain.Recipe{
		ID:          "paneer-butter-masala",
		Title:       "Paneer Butter Masala",
		Description: "Soft paneer cubes simmered in a silky tomato and butter gravy.",
		Region:      "North Indian",
		Tags:        []string{"curry", "vegetarian", "dinner", "creamy"},
		Ingredients: []domain.Ingredient{
			{Name: "paneer", Quantity: "250", Unit: "grams"},
			{Name: "tomatoes", Quantity: "4", Unit: ""},
			{Name: "onion", Quantity: "1", Unit: ""},
			{Name: "butter", Quantity: "2", Unit: "tablespoons"},
			{Name: "cream", Quantity: "1/4", Unit: "cup"},
			{Name: "ginger garlic paste", Quantity: "1", Unit: "tablespoon"},
			{Name: "garam masala", Quantity: "1", Unit: "teaspoon"},
			{Name: "red chilli powder", Quantity: "1", Unit: "teaspoon"},
			{Name: "kasuri methi", Quantity: "1", Unit: "teaspoon"},
			{Name: "salt", Quantity: "", Unit: ""},
		},
		Instructions: []string{
			"Saute the chopped onion in a tablespoon of butter until translucent, then add the ginger garlic paste.",
			"Add the chopped tomatoes and cook until they collapse into a soft mash.",
			"Cool the mixture slightly and blend it into a smooth puree.",
			"Return the puree to the pan with the remaining butter, chilli powder, and salt, and simmer for five minutes.",
			"Stir in the cream and crushed kasuri methi, then slide in the paneer cubes.",
			"Simmer gently for three minutes, finish with garam masala, and serve with naan or rice.",
		},
	}
}

func (s *MemorySource) lemonRice() *domain.Recipe {
	return &domain.Recipe{
		ID:          "lemon-rice",
		Title:       "Lemon Rice",
		Description: "Bright, tangy rice tempered with mustard seeds, curry leaves, and peanuts.",
		Region:      "South Indian",
		Tags:        []string{"rice", "quick", "lunch", "tangy"},
		Ingredients: []domain.Ingredient{
			{Name: "cooked rice", Quantity: "2", Unit: "cups"},
			{Name: "lemons", Quantity: "2", Unit: ""},
			{Name: "peanuts", Quantity: "1/4", Unit: "cup"},
			{Name: "mustard seeds", Quantity: "1", Unit: "teaspoon"},
			{Name: "curry leaves", Quantity: "10", Unit: ""},
			{Name: "green chillies", Quantity: "2", Unit: ""},
			{Name: "turmeric powder", Quantity: "1/2", Unit: "teaspoon"},
			{Name: "oil", Quantity: "2", Unit: "tablespoons"},
			{Name: "salt", Quantity: "", Unit: ""},
		},
		Instructions: []string{
			"Heat the oil and fry the peanuts until golden, then lift them out and set aside.",
			"Splutter the mustard seeds in the same oil, then add the curry leaves and slit green chillies.",
			"Turn the heat low and stir in the turmeric so it blooms without burning.",
			"Add the cooked rice, salt, and peanuts, and toss until every grain is coated yellow.",
			"Take the pan off the heat, squeeze in the lemon juice, mix, and serve warm.",
		},
	}
}

func (s *MemorySource) masalaChai() *domain.Recipe {
	return &domain.Recipe{
		ID:          "masala-chai",
		Title:       "Masala Chai",
		Description: "Strong spiced milk tea brewed with ginger and whole spices.",
		Region:      "North Indian",
		Tags:        []string{"drink", "quick", "spiced", "breakfast"},
		Ingredients: []domain.Ingredient{
			{Name: "water", Quantity: "1", Unit: "cup"},
			{Name: "milk", Quantity: "1", Unit: "cup"},
			{Name: "black tea leaves", Quantity: "2", Unit: "teaspoons"},
			{Name: "fresh ginger", Quantity: "1", Unit: "inch"},
			{Name: "cardamom pods", Quantity: "2", Unit: ""},
			{Name: "sugar", Quantity: "2", Unit: "teaspoons"},
		},
		Instructions: []string{
			"Crush the ginger and cardamom pods together into a coarse paste.",
			"Boil the water with the crushed spices for two minutes.",
			"Add the tea leaves and let them steep for a minute until the water turns deep amber.",
			"Pour in the milk and sugar and bring the chai to a rolling boil, letting it rise once.",
			"Strain into cups and serve steaming hot.",
		},
	}
}
