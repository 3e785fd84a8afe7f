package constants

import (
	"strings"
)

// ItemCategory is the coarse bucket assigned to an invoice line item.
type ItemCategory string

const (
	CategoryProduce    ItemCategory = "Produce"
	CategoryMeat       ItemCategory = "Meat"
	CategoryDairy      ItemCategory = "Dairy"
	CategoryBeverages  ItemCategory = "Beverages"
	CategoryPaperGoods ItemCategory = "PaperGoods"
	CategoryCleaning   ItemCategory = "Cleaning"
	CategoryEquipment  ItemCategory = "Equipment"
	CategoryServices   ItemCategory = "Services"
	CategoryOther      ItemCategory = "Other"
)

var allCategories = []ItemCategory{
	CategoryProduce,
	CategoryMeat,
	CategoryDairy,
	CategoryBeverages,
	CategoryPaperGoods,
	CategoryCleaning,
	CategoryEquipment,
	CategoryServices,
	CategoryOther,
}

func CategoriesAsStrings() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// keyword order matters: the first category whose keyword appears wins
var categoryKeywords = []struct {
	cat      ItemCategory
	keywords []string
}{
	{CategoryMeat, []string{"beef", "chicken", "pork", "turkey", "bacon", "sausage", "steak", "ham", "lamb"}},
	{CategoryDairy, []string{"milk", "cheese", "butter", "cream", "yogurt", "eggs"}},
	{CategoryProduce, []string{"lettuce", "tomato", "onion", "potato", "apple", "banana", "lemon", "lime", "produce", "pepper", "carrot"}},
	{CategoryBeverages, []string{"coffee", "tea", "juice", "soda", "water", "beer", "wine", "cola"}},
	{CategoryPaperGoods, []string{"napkin", "towel", "cup", "plate", "paper", "foil", "wrap", "bag", "container"}},
	{CategoryCleaning, []string{"soap", "detergent", "bleach", "sanitizer", "cleaner", "degreaser", "glove"}},
	{CategoryEquipment, []string{"fryer", "oven", "mixer", "blender", "equipment", "pan", "knife", "printer"}},
	{CategoryServices, []string{"service", "labor", "repair", "installation", "delivery fee", "consulting", "subscription", "hours"}},
}

// Canonicalize maps a free-form category name onto a known category.
func Canonicalize(input string) (ItemCategory, bool) {
	if input == "" {
		return CategoryOther, false
	}
	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]ItemCategory{
		"beverage":    CategoryBeverages,
		"drinks":      CategoryBeverages,
		"disposables": CategoryPaperGoods,
		"janitorial":  CategoryCleaning,
		"chemicals":   CategoryCleaning,
		"smallwares":  CategoryEquipment,
		"labor":       CategoryServices,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}
	return CategoryOther, false
}

// CategorizeItem guesses a category from a line item description.
func CategorizeItem(description string) ItemCategory {
	d := strings.ToLower(description)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(d, kw) {
				return entry.cat
			}
		}
	}
	return CategoryOther
}
