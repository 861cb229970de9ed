package combo

import (
	"context"
	"errors"

	"github.com/yanqian/nutriforecast/internal/domain/nutrition"
)

// ErrNotFound is returned when a combo ID is unknown.
var ErrNotFound = errors.New("combo not found")

// Repository persists the shared combo catalogue.
type Repository interface {
	Create(ctx context.Context, c Combo) (Combo, error)
	Get(ctx context.Context, id string) (Combo, error)
	List(ctx context.Context, filter ListFilter) ([]Combo, error)
	// Nearest orders combos by Euclidean distance between their macro ratios and target.
	Nearest(ctx context.Context, target nutrition.MacroRatios, limit int) ([]Recommendation, error)
}
