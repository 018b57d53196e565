package lending

import (
	"github.com/hypermedia-labs/trillas/internal/shared"
)

// Policy is the pure predicate set gating lending operations. Every failure
// maps to a distinct forbidden reason; Conflict and NotFound stay with the
// orchestrator, which knows the ledger.

// Borrowable reports whether the book is eligible for lending at all.
func Borrowable(book *Book) bool {
	return !book.Archived && book.Shareable
}

// CheckBorrow validates the policy side of a borrow attempt. Ledger
// occupancy is checked separately by the orchestrator.
func CheckBorrow(book *Book, actor shared.Identity) error {
	if !Borrowable(book) {
		return shared.Forbidden("the requested book cannot be borrowed since it is archived or not shareable")
	}
	if actor.UserID == book.OwnerID {
		return shared.Forbidden("you cannot borrow your own book")
	}
	return nil
}

// CheckReturn validates the policy side of a return attempt.
func CheckReturn(book *Book, actor shared.Identity) error {
	if !Borrowable(book) {
		return shared.Forbidden("the requested book cannot be returned since it is archived or not shareable")
	}
	if actor.UserID == book.OwnerID {
		return shared.Forbidden("you cannot return your own book")
	}
	return nil
}

// CheckApprove validates the policy side of a return approval. Only the
// owner may approve.
func CheckApprove(book *Book, actor shared.Identity) error {
	if !Borrowable(book) {
		return shared.Forbidden("the requested book cannot be approved since it is archived or not shareable")
	}
	if actor.UserID != book.OwnerID {
		return shared.Forbidden("only the owner can approve a book return")
	}
	return nil
}

// CheckToggle validates shareable/archived toggles; both are owner-only.
func CheckToggle(book *Book, actor shared.Identity) error {
	if actor.UserID != book.OwnerID {
		return shared.Forbidden("you cannot update a book you do not own")
	}
	return nil
}
