// Package model defines domain entities for the application.
package model

import "time"

// Category is the closed set of expense categories.
type Category string

const (
	CategoryFood          Category = "FOOD"
	CategoryTransport     Category = "TRANSPORT"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryHousing       Category = "HOUSING"
	CategoryShopping      Category = "SHOPPING"
	CategoryHealth        Category = "HEALTH"
	CategoryUtilities     Category = "UTILITIES"
	CategoryOther         Category = "OTHER"
)

var categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryEntertainment,
	CategoryHousing,
	CategoryShopping,
	CategoryHealth,
	CategoryUtilities,
	CategoryOther,
}

// Categories returns every valid category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// IsValid reports whether c is a member of the category set.
func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts raw input to a Category.
// Matching is exact; "food" is not FOOD.
func ParseCategory(raw string) (Category, bool) {
	c := Category(raw)
	if !c.IsValid() {
		return "", false
	}
	return c, true
}

// Expense is a single spending record owned by one user.
// Amount is stored in minor currency units (cents).
type Expense struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Amount      int64     `json:"amount"`
	Date        time.Time `json:"date"`
	Category    Category  `json:"category"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the expense.
func (e *Expense) Clone() *Expense {
	cp := *e
	if e.Description != nil {
		d := *e.Description
		cp.Description = &d
	}
	return &cp
}
