package access

import (
	"fmt"
	"slices"

	"github.com/evidentia/grounder/core"
)

// Filter is the enumerated row-level predicate applied to every index read.
// It is a value type: construction is pure, and a Filter is safe to share
// across concurrent sub-query pipelines without locking.
type Filter struct {
	// Admin permits every chunk regardless of ownership.
	Admin bool
	// UserID matches chunk owners and direct shares.
	UserID string
	// UserEmail matches direct shares recorded by email.
	UserEmail string
	// GroupIDs match chunks shared with any of the caller's groups.
	GroupIDs []string
}

// Build turns a caller identity into a Filter.
// Pure and total: it never errors. Admin contexts yield the match-everything
// filter; everything else yields the owner/public/shared/group disjunction.
func Build(ctx core.AccessContext) Filter {
	if ctx.IsAdmin {
		return Filter{Admin: true}
	}

	return Filter{
		UserID:    ctx.UserID,
		UserEmail: ctx.UserEmail,
		GroupIDs:  slices.Clone(ctx.GroupIDs),
	}
}

// Validate checks that the filter carries a usable identity.
// A non-admin filter without a user ID has no defined access scope; backends
// must reject it with ErrInvalidFilter instead of searching unfiltered.
func (f Filter) Validate() error {
	if f.Admin {
		return nil
	}
	if f.UserID == "" {
		return fmt.Errorf("%w: non-admin filter without user ID", core.ErrInvalidFilter)
	}
	return nil
}

// Matches reports whether the caller may see the chunk.
func (f Filter) Matches(chunk *core.Chunk) bool {
	if chunk == nil {
		return false
	}
	if f.Admin {
		return true
	}

	meta := chunk.Metadata

	// Owner match
	if meta.OwnerID != "" && meta.OwnerID == f.UserID {
		return true
	}

	// Public documents are visible to everyone
	if meta.IsPublic {
		return true
	}

	// Direct share, by user ID or email
	if slices.Contains(meta.SharedWith, f.UserID) {
		return true
	}
	if f.UserEmail != "" && slices.Contains(meta.SharedWith, f.UserEmail) {
		return true
	}

	// Group share
	for _, group := range f.GroupIDs {
		if slices.Contains(meta.GroupIDs, group) {
			return true
		}
	}

	return false
}
