// Package lending owns the borrow/return/approve lifecycle of a book.
package lending

import "time"

// State is the lending state of a book, derived from its in-flight
// BorrowRecord rather than scattered booleans.
type State int

const (
	// StateAvailable means no borrow cycle is in flight.
	StateAvailable State = iota
	// StateBorrowed means an active record exists with returned=false.
	StateBorrowed
	// StatePendingApproval means the borrower returned the book and the
	// owner has not approved yet.
	StatePendingApproval
)

func (s State) String() string {
	switch s {
	case StateBorrowed:
		return "borrowed"
	case StatePendingApproval:
		return "pending-approval"
	default:
		return "available"
	}
}

// BorrowRecord is the durable record of one lending cycle. Records are never
// deleted; a closed cycle stays behind as the audit trail.
type BorrowRecord struct {
	ID             int64
	BookID         int64
	BorrowerID     int64
	Returned       bool
	ReturnApproved bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StateOf derives the book state from its in-flight record, if any.
func StateOf(open *BorrowRecord) State {
	switch {
	case open == nil:
		return StateAvailable
	case open.Returned:
		return StatePendingApproval
	default:
		return StateBorrowed
	}
}

// Book is the slice of book state the lending core consults.
type Book struct {
	ID        int64
	OwnerID   int64
	Shareable bool
	Archived  bool
}

// BorrowedBook is a listing row joining a borrow record with its book.
type BorrowedBook struct {
	RecordID       int64   `json:"id"`
	BookID         int64   `json:"bookId"`
	Title          string  `json:"title"`
	AuthorName     string  `json:"authorName"`
	ISBN           string  `json:"isbn"`
	Rate           float64 `json:"rate"`
	Returned       bool    `json:"returned"`
	ReturnApproved bool    `json:"returnApproved"`
}
