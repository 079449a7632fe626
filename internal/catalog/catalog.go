// Package catalog holds the immutable option lists both roulettes draw from,
// together with the card templates that advertise them.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Category is a food roulette entry.
type Category struct {
	Label   string `yaml:"label"`
	Keyword string `yaml:"keyword"`
	// Any marks the "no preference" sentinel which searches with the default keyword.
	Any bool `yaml:"any"`
}

// Action is a drinking game entry with optional rule text.
type Action struct {
	Name string `yaml:"name"`
	Rule string `yaml:"rule"`
}

// CardTemplate declares the content of an interactive card.
type CardTemplate struct {
	AltText  string `yaml:"alt_text"`
	Title    string `yaml:"title"`
	Body     string `yaml:"body"`
	ImageURL string `yaml:"image_url"`
	Color    string `yaml:"color"`
	Button   string `yaml:"button"`
}

type foodSection struct {
	DefaultKeyword string       `yaml:"default_keyword"`
	Categories     []Category   `yaml:"categories"`
	Card           CardTemplate `yaml:"card"`
}

type drinkSection struct {
	Actions []Action     `yaml:"actions"`
	Card    CardTemplate `yaml:"card"`
}

type document struct {
	Food  foodSection  `yaml:"food"`
	Drink drinkSection `yaml:"drink"`
}

// Catalog is loaded once at startup and never mutated, so it is safe for concurrent use.
type Catalog struct {
	defaultKeyword string
	categories     []Category
	byLabel        map[string]Category
	actions        []Action
	byName         map[string]Action
	foodCard       CardTemplate
	drinkCard      CardTemplate
}

// ErrEmptyCatalog is returned when a game has nothing to pick from.
var ErrEmptyCatalog = errors.New("catalog: no options")

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalog from path, or returns the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	c := &Catalog{
		defaultKeyword: strings.TrimSpace(doc.Food.DefaultKeyword),
		byLabel:        make(map[string]Category, len(doc.Food.Categories)),
		byName:         make(map[string]Action, len(doc.Drink.Actions)),
		foodCard:       doc.Food.Card,
		drinkCard:      doc.Drink.Card,
	}
	if c.defaultKeyword == "" {
		return nil, fmt.Errorf("catalog: food.default_keyword is required")
	}
	if len(doc.Food.Categories) == 0 {
		return nil, fmt.Errorf("catalog: food: %w", ErrEmptyCatalog)
	}
	if len(doc.Drink.Actions) == 0 {
		return nil, fmt.Errorf("catalog: drink: %w", ErrEmptyCatalog)
	}

	for i, cat := range doc.Food.Categories {
		cat.Label = strings.TrimSpace(cat.Label)
		cat.Keyword = strings.TrimSpace(cat.Keyword)
		if cat.Label == "" {
			return nil, fmt.Errorf("catalog: food.categories[%d]: empty label", i)
		}
		if !cat.Any && cat.Keyword == "" {
			cat.Keyword = cat.Label
		}
		if _, dup := c.byLabel[cat.Label]; dup {
			return nil, fmt.Errorf("catalog: duplicate category %q", cat.Label)
		}
		c.byLabel[cat.Label] = cat
		c.categories = append(c.categories, cat)
	}
	for i, act := range doc.Drink.Actions {
		act.Name = strings.TrimSpace(act.Name)
		act.Rule = strings.TrimSpace(act.Rule)
		if act.Name == "" {
			return nil, fmt.Errorf("catalog: drink.actions[%d]: empty name", i)
		}
		if _, dup := c.byName[act.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate action %q", act.Name)
		}
		c.byName[act.Name] = act
		c.actions = append(c.actions, act)
	}
	return c, nil
}

// Categories returns a copy of the food categories in catalog order.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Actions returns a copy of the drinking game actions in catalog order.
func (c *Catalog) Actions() []Action {
	return append([]Action(nil), c.actions...)
}

// DefaultKeyword is searched when no category (or the sentinel) was chosen.
func (c *Catalog) DefaultKeyword() string { return c.defaultKeyword }

// FoodCard returns the template advertising the food roulette.
func (c *Catalog) FoodCard() CardTemplate { return c.foodCard }

// DrinkCard returns the template advertising the drinking game.
func (c *Catalog) DrinkCard() CardTemplate { return c.drinkCard }

// Rule returns the rule text of an action, empty when it has none.
func (c *Catalog) Rule(name string) string {
	return c.byName[name].Rule
}

// Keyword resolves a stored category label to the search keyword.
// Unknown labels and the sentinel resolve to the default keyword.
func (c *Catalog) Keyword(label string) string {
	cat, ok := c.byLabel[label]
	if !ok || cat.Any || cat.Keyword == "" {
		return c.defaultKeyword
	}
	return cat.Keyword
}

// PickCategory draws a category uniformly; intn must return a value in [0, n).
func (c *Catalog) PickCategory(intn func(n int) int) Category {
	return c.categories[intn(len(c.categories))]
}

// PickAction draws a drinking game action uniformly; intn must return a value in [0, n).
func (c *Catalog) PickAction(intn func(n int) int) Action {
	return c.actions[intn(len(c.actions))]
}
