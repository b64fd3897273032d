package service

import (
	"context"
	"sort"
	"strings"

	"github.com/dom/shared-lists/internal/repository"
)

const (
	maxSuggestions       = 8
	defaultSuggestions   = 10
	existingItemsToMatch = 20
)

var commonGroceryItems = []string{
	"Milk", "Bread", "Eggs", "Butter", "Cheese", "Yogurt", "Chicken", "Beef", "Pork", "Fish", "Salmon",
	"Apples", "Bananas", "Oranges", "Strawberries", "Blueberries", "Grapes", "Tomatoes", "Carrots", "Onions",
	"Potatoes", "Bell peppers", "Broccoli", "Spinach", "Lettuce", "Cucumbers", "Mushrooms", "Garlic", "Ginger",
	"Rice", "Pasta", "Cereal", "Oats", "Flour", "Sugar", "Salt", "Pepper", "Olive oil", "Vegetable oil",
	"Vinegar", "Soy sauce", "Ketchup", "Mayonnaise", "Mustard", "Honey", "Jam", "Peanut butter", "Nuts",
	"Coffee", "Tea", "Orange juice", "Water", "Soda", "Beer", "Wine", "Ice cream", "Chocolate", "Cookies",
	"Crackers", "Chips", "Pretzels", "Popcorn", "Frozen pizza", "Frozen vegetables", "Canned beans",
	"Canned tomatoes", "Canned soup", "Toilet paper", "Paper towels", "Dish soap", "Laundry detergent",
	"Shampoo", "Conditioner", "Toothpaste", "Deodorant", "Soap", "Tissues",
}

type ItemService struct {
	itemRepo repository.ItemRepository
}

func NewItemService(itemRepo repository.ItemRepository) *ItemService {
	return &ItemService{itemRepo: itemRepo}
}

// Suggestions completes an item name. Names already used on lists rank with
// the built-in catalogue; prefix matches sort before substring matches.
func (s *ItemService) Suggestions(ctx context.Context, query string) ([]string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		out := make([]string, defaultSuggestions)
		copy(out, commonGroceryItems[:defaultSuggestions])
		return out, nil
	}

	existing, err := s.itemRepo.SearchNames(ctx, q, existingItemsToMatch)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var candidates []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			candidates = append(candidates, name)
		}
	}
	for _, name := range existing {
		add(name)
	}
	for _, name := range commonGroceryItems {
		if strings.Contains(strings.ToLower(name), q) {
			add(name)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := strings.ToLower(candidates[i]), strings.ToLower(candidates[j])
		ap, bp := strings.HasPrefix(a, q), strings.HasPrefix(b, q)
		if ap != bp {
			return ap
		}
		return a < b
	})

	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	return candidates, nil
}
