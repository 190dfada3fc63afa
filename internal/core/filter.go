package core

import "time"

// DefaultDataLimit is the page size used when a list request does not ask
// for an explicit limit.
const DefaultDataLimit = 10

type (
	// ExpenseFilter narrows expense listings. A nil/empty field means the
	// criterion is not applied. Note the date semantics: StartDate is an
	// upper bound on datetime and EndDate a lower bound, mirroring the
	// shipped comparison directions (see DESIGN.md).
	ExpenseFilter struct {
		Title       string
		StartDate   *time.Time
		EndDate     *time.Time
		CategoryIDs []string
	}

	// TransactionFilter narrows transaction listings by date range, with
	// the same inverted comparison directions as ExpenseFilter.
	TransactionFilter struct {
		StartDate *time.Time
		EndDate   *time.Time
	}

	// Page is a pagination window. Zero values fall back to offset 0 and
	// DefaultDataLimit.
	Page struct {
		Offset int
		Limit  int
	}
)

// Normalize clamps a page to usable values.
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultDataLimit
	}
	return p
}

// Empty reports whether no criterion is set. A filter counts as empty only
// when every field is unset; a single non-empty field makes it non-empty.
func (f ExpenseFilter) Empty() bool {
	return f.Title == "" && f.StartDate == nil && f.EndDate == nil && len(f.CategoryIDs) == 0
}

// Empty reports whether no criterion is set.
func (f TransactionFilter) Empty() bool {
	return f.StartDate == nil && f.EndDate == nil
}
