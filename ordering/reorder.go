package ordering

import (
	"context"
	"fmt"
	"sort"

	"github.com/akinalp/lectern/models"
)

// OwnedPositionUpdater sets one entity's position, but only when the entity
// is owned by ownerID. It reports whether a row was changed.
type OwnedPositionUpdater interface {
	UpdatePositionOwned(ctx context.Context, ownerID, id string, position int) (bool, error)
}

// Reorder applies positions one entity at a time. Entities that are
// missing or owned by someone else are skipped, not reported as errors.
//
// The batch is not atomic: when an update fails, the ones before it stay
// applied. Applying the same map twice leaves the same final state.
func Reorder(
	ctx context.Context,
	updater OwnedPositionUpdater,
	ownerID string,
	positions models.ReorderRequest,
) (models.ReorderResult, error) {
	var result models.ReorderResult

	ids := make([]string, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		updated, err := updater.UpdatePositionOwned(ctx, ownerID, id, positions[id])
		if err != nil {
			return result, fmt.Errorf("failed to update position of %s: %w", id, err)
		}
		if updated {
			result.Updated++
		} else {
			result.Skipped++
		}
	}

	return result, nil
}
