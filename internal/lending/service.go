package lending

import (
	"context"
	"errors"

	"github.com/hypermedia-labs/trillas/internal/shared"
)

// Service is the lending orchestrator. Each transition runs inside a
// transaction with the book row locked, so the read-decide-write sequence is
// atomic against concurrent calls on the same book.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Borrow moves a book from Available to Borrowed for the actor and returns
// the new record id. A book already in a borrow cycle fails with
// shared.ErrConflict.
func (s *Service) Borrow(ctx context.Context, bookID int64, actor shared.Identity) (int64, error) {
	var recordID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, r Repository) error {
		book, err := r.FindBookForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		if err := CheckBorrow(book, actor); err != nil {
			return err
		}

		switch _, err := r.FindActiveRecord(ctx, bookID); {
		case err == nil:
			return shared.ErrConflict
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}

		recordID, err = r.Insert(ctx, BorrowRecord{BookID: bookID, BorrowerID: actor.UserID})
		return err
	})
	return recordID, err
}

// Return moves a book from Borrowed to PendingApproval. Only the holder of
// the active record may return; anything else is shared.ErrNotFound.
func (s *Service) Return(ctx context.Context, bookID int64, actor shared.Identity) (int64, error) {
	var recordID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, r Repository) error {
		book, err := r.FindBookForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		if err := CheckReturn(book, actor); err != nil {
			return err
		}

		rec, err := r.FindActiveRecord(ctx, bookID)
		if err != nil {
			return err
		}
		if StateOf(rec) != StateBorrowed || rec.BorrowerID != actor.UserID {
			return shared.ErrNotFound
		}

		recordID = rec.ID
		return r.MarkReturned(ctx, rec.ID)
	})
	return recordID, err
}

// Approve closes a PendingApproval cycle, making the book available for a
// new borrow. Only the owner may approve.
func (s *Service) Approve(ctx context.Context, bookID int64, actor shared.Identity) (int64, error) {
	var recordID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, r Repository) error {
		book, err := r.FindBookForUpdate(ctx, bookID)
		if err != nil {
			return err
		}
		if err := CheckApprove(book, actor); err != nil {
			return err
		}

		rec, err := r.FindActiveRecord(ctx, bookID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if StateOf(rec) != StatePendingApproval {
			return shared.ErrNotFound
		}

		recordID = rec.ID
		return r.MarkApproved(ctx, rec.ID)
	})
	return recordID, err
}

// StateFor reports the current lending state of a book.
func (s *Service) StateFor(ctx context.Context, bookID int64) (State, error) {
	rec, err := s.repo.FindActiveRecord(ctx, bookID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return StateAvailable, nil
		}
		return StateAvailable, err
	}
	return StateOf(rec), nil
}

// ListBorrowed pages through the actor's borrow history.
func (s *Service) ListBorrowed(ctx context.Context, actor shared.Identity, page, size int) ([]BorrowedBook, shared.Pagination, error) {
	p := shared.NewPagination(page, size, 0)
	list, total, err := s.repo.ListBorrowedByUser(ctx, actor.UserID, p.Page, p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ListReturned pages through returned cycles awaiting or past approval on
// the actor's own books.
func (s *Service) ListReturned(ctx context.Context, actor shared.Identity, page, size int) ([]BorrowedBook, shared.Pagination, error) {
	p := shared.NewPagination(page, size, 0)
	list, total, err := s.repo.ListReturnedToOwner(ctx, actor.UserID, p.Page, p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(p.Page, p.PerPage, total), nil
}
