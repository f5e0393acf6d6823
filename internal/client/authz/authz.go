// Package authz decides whether a principal may mutate a record.
//
// The same predicate gates both the presentation (which commands are
// offered) and the last step before a mutating network call.
package authz

import (
	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/models"
)

// Owned is any record with an owning principal email.
type Owned interface {
	Owner() string
}

// CanMutate reports whether p owns r. A missing principal, a missing record
// or an empty email never match.
func CanMutate(p *models.Principal, r Owned) bool {
	if p == nil || r == nil || p.Email == "" {
		return false
	}
	return p.Email == r.Owner()
}

// Authorize is CanMutate as an error: nil when allowed, otherwise an
// AccessDenied failure.
func Authorize(p *models.Principal, r Owned) error {
	if !CanMutate(p, r) {
		return failure.New(failure.ErrAccessDenied, "only the owner can modify this record")
	}
	return nil
}
