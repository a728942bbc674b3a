// Package visibility decides whether a viewer may see a status in a
// personal timeline.
package visibility

import (
	"context"
	"errors"
	"slices"

	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
)

// Oracle reports true when status must be hidden from viewerID.
type Oracle interface {
	Filtered(ctx context.Context, status *model.Status, viewerID int64) (bool, error)
}

type RelationOracle struct {
	filters repository.FilterRepository
	rels    repository.RelationshipRepository
}

func NewOracle(filters repository.FilterRepository, rels repository.RelationshipRepository) *RelationOracle {
	return &RelationOracle{filters: filters, rels: rels}
}

// Filtered expects status with Account, Mentions and Reblog.Account loaded.
func (o *RelationOracle) Filtered(ctx context.Context, status *model.Status, viewerID int64) (bool, error) {
	if status.AccountID == viewerID {
		return false, nil
	}
	proper := status.Proper()

	authors := []int64{status.AccountID}
	if proper.AccountID != status.AccountID {
		authors = append(authors, proper.AccountID)
	}
	for _, a := range authors {
		if a == viewerID {
			continue
		}
		blocked, err := o.filters.Blocking(ctx, viewerID, a)
		if err != nil || blocked {
			return blocked, err
		}
		muted, err := o.filters.Muting(ctx, viewerID, a)
		if err != nil || muted {
			return muted, err
		}
	}
	if proper.Account != nil {
		blocked, err := o.filters.DomainBlocking(ctx, viewerID, proper.Account.Domain)
		if err != nil || blocked {
			return blocked, err
		}
	}

	if proper.AccountID == viewerID {
		return false, nil
	}
	switch proper.Visibility {
	case model.VisibilityPrivate:
		following, err := o.rels.FindFollow(ctx, viewerID, proper.AccountID)
		if errors.Is(err, repository.ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return following == nil, nil
	case model.VisibilityLimited, model.VisibilityDirect:
		return !slices.Contains(proper.MentionedAccountIDs(), viewerID), nil
	}
	return false, nil
}
