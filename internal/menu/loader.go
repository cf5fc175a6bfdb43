package menu

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"allersim/internal/logging"
)

const defaultCacheSize = 16

// Loader reads scenario menu files and memoizes the parsed result per path.
// Concurrent loads of the same scenario collapse into one read; a failed
// load degrades to the fallback menu so safety checks never run against an
// absent menu.
type Loader struct {
	cache  *lru.Cache[string, *Menu]
	group  singleflight.Group
	logger logging.Logger
}

// NewLoader constructs a Loader. A nil logger is replaced with the
// component default.
func NewLoader(logger logging.Logger) *Loader {
	cache, _ := lru.New[string, *Menu](defaultCacheSize)
	if logging.IsNil(logger) {
		logger = logging.NewComponentLogger("MenuLoader")
	}
	return &Loader{cache: cache, logger: logger}
}

// Load returns the menu for a scenario path, from cache when possible. On
// read or parse failure it logs and returns the fallback menu; the error is
// never surfaced mid-session.
func (l *Loader) Load(path string) *SafetyIndex {
	if m, ok := l.cache.Get(path); ok {
		return NewSafetyIndex(m)
	}

	v, err, _ := l.group.Do(path, func() (any, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("menu: read %s: %w", path, err)
		}
		m, err := Parse(data)
		if err != nil {
			return nil, err
		}
		l.cache.Add(path, m)
		return m, nil
	})
	if err != nil {
		l.logger.Error("menu load failed, using fallback menu: %v", err)
		return NewSafetyIndex(Fallback())
	}

	l.logger.Info("menu loaded: %s", path)
	return NewSafetyIndex(v.(*Menu))
}

// Fallback returns the hardcoded minimal menu used when a scenario menu
// cannot be loaded: one allergen-free item, so every safety query has
// something real to answer against.
func Fallback() *Menu {
	return &Menu{
		RestaurantName: "The Corner Bistro",
		Sections: []Section{
			{
				Name: "Mains",
				Items: []Item{
					{
						ID:               "fallback-1",
						Name:             "Garden Salad",
						Description:      "Mixed leaves, cucumber, tomato, olive oil dressing",
						Price:            8.50,
						Allergens:        []string{},
						HiddenAllergens:  []string{},
						ModifiableToSafe: Modifiable,
						SuggestedQuestions: []string{
							"Is the dressing made in-house?",
						},
					},
				},
			},
		},
	}
}
