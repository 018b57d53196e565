package lending

import "context"

// Repository is the lending ledger plus the book-state reads the orchestrator
// needs under the same transaction. Implementations surface shared.ErrNotFound
// for absent rows and shared.ErrConflict when the one-open-record-per-book
// constraint trips.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	// FindBookForUpdate loads the lending view of a book, locking its row
	// when running inside a transaction.
	FindBookForUpdate(ctx context.Context, bookID int64) (*Book, error)
	// FindActiveRecord returns the in-flight record for a book, meaning the
	// one not yet return-approved.
	FindActiveRecord(ctx context.Context, bookID int64) (*BorrowRecord, error)

	Insert(ctx context.Context, record BorrowRecord) (int64, error)
	MarkReturned(ctx context.Context, recordID int64) error
	MarkApproved(ctx context.Context, recordID int64) error

	ListBorrowedByUser(ctx context.Context, userID int64, page, size int) ([]BorrowedBook, int, error)
	ListReturnedToOwner(ctx context.Context, ownerID int64, page, size int) ([]BorrowedBook, int, error)
}
