package backend

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/models"
)

// ack is the acknowledgement document returned by mutations.
type ack struct {
	InsertedID    json.RawMessage `json:"insertedId"`
	MatchedCount  *int64          `json:"matchedCount"`
	ModifiedCount *int64          `json:"modifiedCount"`
	DeletedCount  *int64          `json:"deletedCount"`
}

func (a ack) insertedID(op string) (string, error) {
	id, err := models.DecodeID(a.InsertedID)
	if err != nil || id == "" {
		return "", failure.Newf(failure.ErrPersistRejected, "%s: store did not acknowledge the insert", op)
	}
	return id, nil
}

func (a ack) updated(op string) error {
	switch {
	case a.MatchedCount != nil && *a.MatchedCount == 0:
		return failure.Newf(failure.ErrNotFound, "%s: record no longer exists", op)
	case a.MatchedCount != nil || a.ModifiedCount != nil:
		return nil
	default:
		return failure.Newf(failure.ErrPersistRejected, "%s: store did not acknowledge the update", op)
	}
}

func (a ack) deleted(op string) error {
	switch {
	case a.DeletedCount == nil:
		return failure.Newf(failure.ErrPersistRejected, "%s: store did not acknowledge the delete", op)
	case *a.DeletedCount == 1:
		return nil
	case *a.DeletedCount == 0:
		return failure.Newf(failure.ErrNotFound, "%s: record no longer exists", op)
	default:
		return failure.New(failure.ErrPersistRejected, fmt.Sprintf("%s: store deleted %d records", op, *a.DeletedCount))
	}
}
