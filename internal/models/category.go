package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownCategory   = errors.New("unknown category")
	ErrUnknownImportance = errors.New("unknown importance")
)

// Category is the fixed classification of a transaction's purpose.
type Category string

const (
	CategoryEssential     Category = "essential"
	CategorySavings       Category = "savings"
	CategoryEducation     Category = "education"
	CategoryHealthcare    Category = "healthcare"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryTransport     Category = "transport"
	CategoryMisc          Category = "misc"
)

// AllCategories returns every category in declaration order
func AllCategories() []Category {
	return []Category{
		CategoryEssential,
		CategorySavings,
		CategoryEducation,
		CategoryHealthcare,
		CategoryEntertainment,
		CategoryShopping,
		CategoryTransport,
		CategoryMisc,
	}
}

// ParseCategory converts a label into a Category. Unknown labels are an error,
// never a default bucket.
func ParseCategory(label string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(label)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, label)
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case CategoryEssential, CategorySavings, CategoryEducation, CategoryHealthcare,
		CategoryEntertainment, CategoryShopping, CategoryTransport, CategoryMisc:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Value implements driver.Valuer
func (c Category) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
	}
	return string(c), nil
}

// Scan implements sql.Scanner
func (c *Category) Scan(value interface{}) error {
	label, err := scanLabel(value)
	if err != nil {
		return err
	}
	parsed, err := ParseCategory(label)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseCategory(label)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Importance is the tier indicating how necessary a transaction was.
type Importance string

const (
	ImportanceNecessary Importance = "necessary"
	ImportanceImportant Importance = "important"
	ImportanceOptional  Importance = "optional"
	ImportanceWasteful  Importance = "wasteful"
)

// AllImportances returns every importance tier from most to least necessary
func AllImportances() []Importance {
	return []Importance{
		ImportanceNecessary,
		ImportanceImportant,
		ImportanceOptional,
		ImportanceWasteful,
	}
}

// ParseImportance converts a label into an Importance, failing on unknown labels.
func ParseImportance(label string) (Importance, error) {
	i := Importance(strings.ToLower(strings.TrimSpace(label)))
	if !i.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownImportance, label)
	}
	return i, nil
}

func (i Importance) Valid() bool {
	switch i {
	case ImportanceNecessary, ImportanceImportant, ImportanceOptional, ImportanceWasteful:
		return true
	}
	return false
}

func (i Importance) String() string {
	return string(i)
}

// Value implements driver.Valuer
func (i Importance) Value() (driver.Value, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownImportance, string(i))
	}
	return string(i), nil
}

// Scan implements sql.Scanner
func (i *Importance) Scan(value interface{}) error {
	label, err := scanLabel(value)
	if err != nil {
		return err
	}
	parsed, err := ParseImportance(label)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i *Importance) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseImportance(label)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func scanLabel(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("cannot scan %T into enum label", value)
	}
}
