package lending

import (
	"context"
	"errors"
	"testing"

	"github.com/hypermedia-labs/trillas/internal/shared"
)

type fakeRepo struct {
	books   map[int64]*Book
	records map[int64]*BorrowRecord
	nextID  int64
}

func newFakeRepo(books ...*Book) *fakeRepo {
	f := &fakeRepo{
		books:   make(map[int64]*Book),
		records: make(map[int64]*BorrowRecord),
	}
	for _, b := range books {
		f.books[b.ID] = b
	}
	return f
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) FindBookForUpdate(ctx context.Context, bookID int64) (*Book, error) {
	b, ok := f.books[bookID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeRepo) FindActiveRecord(ctx context.Context, bookID int64) (*BorrowRecord, error) {
	for _, r := range f.records {
		if r.BookID == bookID && !r.ReturnApproved {
			copied := *r
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeRepo) Insert(ctx context.Context, record BorrowRecord) (int64, error) {
	for _, r := range f.records {
		if r.BookID == record.BookID && !r.ReturnApproved {
			return 0, shared.ErrConflict
		}
	}
	f.nextID++
	record.ID = f.nextID
	f.records[record.ID] = &record
	return record.ID, nil
}

func (f *fakeRepo) MarkReturned(ctx context.Context, recordID int64) error {
	r, ok := f.records[recordID]
	if !ok || r.Returned {
		return shared.ErrNotFound
	}
	r.Returned = true
	return nil
}

func (f *fakeRepo) MarkApproved(ctx context.Context, recordID int64) error {
	r, ok := f.records[recordID]
	if !ok || !r.Returned || r.ReturnApproved {
		return shared.ErrNotFound
	}
	r.ReturnApproved = true
	return nil
}

func (f *fakeRepo) ListBorrowedByUser(ctx context.Context, userID int64, page, size int) ([]BorrowedBook, int, error) {
	var out []BorrowedBook
	for _, r := range f.records {
		if r.BorrowerID == userID {
			out = append(out, BorrowedBook{RecordID: r.ID, BookID: r.BookID, Returned: r.Returned, ReturnApproved: r.ReturnApproved})
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListReturnedToOwner(ctx context.Context, ownerID int64, page, size int) ([]BorrowedBook, int, error) {
	var out []BorrowedBook
	for _, r := range f.records {
		b, ok := f.books[r.BookID]
		if ok && b.OwnerID == ownerID && r.Returned {
			out = append(out, BorrowedBook{RecordID: r.ID, BookID: r.BookID, Returned: r.Returned, ReturnApproved: r.ReturnApproved})
		}
	}
	return out, len(out), nil
}

var (
	owner    = shared.Identity{UserID: 1, Email: "owner@test.local"}
	borrower = shared.Identity{UserID: 2, Email: "borrower@test.local"}
	other    = shared.Identity{UserID: 3, Email: "other@test.local"}
)

func shareableBook() *Book {
	return &Book{ID: 10, OwnerID: owner.UserID, Shareable: true}
}

func TestBorrowHappyPath(t *testing.T) {
	repo := newFakeRepo(shareableBook())
	svc := NewService(repo)

	recordID, err := svc.Borrow(context.Background(), 10, borrower)
	if err != nil {
		t.Fatalf("Borrow() error = %v", err)
	}
	if recordID == 0 {
		t.Fatal("expected a record id")
	}

	state, err := svc.StateFor(context.Background(), 10)
	if err != nil {
		t.Fatalf("StateFor() error = %v", err)
	}
	if state != StateBorrowed {
		t.Fatalf("expected state borrowed, got %v", state)
	}
}

func TestBorrowOwnBookForbidden(t *testing.T) {
	svc := NewService(newFakeRepo(shareableBook()))

	_, err := svc.Borrow(context.Background(), 10, owner)
	if !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestBorrowNotBorrowable(t *testing.T) {
	cases := []struct {
		name string
		book *Book
	}{
		{"archived", &Book{ID: 10, OwnerID: owner.UserID, Shareable: true, Archived: true}},
		{"not shareable", &Book{ID: 10, OwnerID: owner.UserID, Shareable: false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(newFakeRepo(tc.book))
			_, err := svc.Borrow(context.Background(), 10, borrower)
			if !errors.Is(err, shared.ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestBorrowUnknownBook(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Borrow(context.Background(), 404, borrower)
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBorrowWhileBorrowedConflicts(t *testing.T) {
	repo := newFakeRepo(shareableBook())
	svc := NewService(repo)

	if _, err := svc.Borrow(context.Background(), 10, borrower); err != nil {
		t.Fatalf("Borrow() error = %v", err)
	}
	_, err := svc.Borrow(context.Background(), 10, other)
	if !errors.Is(err, shared.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestBorrowWhilePendingApprovalConflicts(t *testing.T) {
	repo := newFakeRepo(shareableBook())
	svc := NewService(repo)

	if _, err := svc.Borrow(context.Background(), 10, borrower); err != nil {
		t.Fatalf("Borrow() error = %v", err)
	}
	if _, err := svc.Return(context.Background(), 10, borrower); err != nil {
		t.Fatalf("Return() error = %v", err)
	}

	// The cycle is still open until the owner approves.
	_, err := svc.Borrow(context.Background(), 10, other)
	if !errors.Is(err, shared.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestReturnByNonBorrower(t *testing.T) {
	repo := newFakeRepo(shareableBook())
	svc := NewService(repo)

	if _, err := svc.Borrow(context.Background(), 10, borrower); err != nil {
		t.Fatalf("Borrow() error = %v", err)
	}
	_, err := svc.Return(context.Background(), 10, other)
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReturnWithoutActiveBorrow(t *testing.T) {
	svc := NewService(newFakeRepo(shareableBook()))

	_, err := svc.Return(context.Background(), 10, borrower)
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReturnTwice(t *testing.T) {
	repo := newFakeRepo(shareableBook())
	svc := NewService(repo)

	if _, err := svc.Borrow(context.Background(), 10, borrower); err != nil {
		t.Fatalf("Borrow() error = %v", err)
	}
	if _, err := svc.Return(context.Background(), 10, borrower); err != nil {
		t.Fatalf("Return() error = %v", err)
	}
	_, err := svc.Return(context.Background(), 10, borrower)
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second return, got %v", err)
	}
}

func TestApproveByNonOwnerForbidden(t *testing.T) {
	repo := newFakeRepo(shareableBook())
	svc := NewService(repo)

	if _, err := svc.Borrow(context.Background(), 10, borrower); err != nil {
		t.Fatalf("Borrow() error = %v", err)
	}
	if _, err := svc.Return(context.Background(), 10, borrower); err != nil {
		t.Fatalf("Return() error = %v", err)
	}
	_, err := svc.Approve(context.Background(), 10, borrower)
	if !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestApproveWithoutPendingReturn(t *testing.T) {
	repo := newFakeRepo(shareableBook())
	svc := NewService(repo)

	if _, err := svc.Borrow(context.Background(), 10, borrower); err != nil {
		t.Fatalf("Borrow() error = %v", err)
	}

	// Still borrowed, nothing to approve yet.
	_, err := svc.Approve(context.Background(), 10, owner)
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFullCycleReleasesBook(t *testing.T) {
	repo := newFakeRepo(shareableBook())
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Borrow(ctx, 10, borrower); err != nil {
		t.Fatalf("Borrow() error = %v", err)
	}
	if _, err := svc.Return(ctx, 10, borrower); err != nil {
		t.Fatalf("Return() error = %v", err)
	}
	if _, err := svc.Approve(ctx, 10, owner); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	state, err := svc.StateFor(ctx, 10)
	if err != nil {
		t.Fatalf("StateFor() error = %v", err)
	}
	if state != StateAvailable {
		t.Fatalf("expected the book to be available again, got %v", state)
	}

	// A fresh borrow cycle may begin, leaving the closed record behind.
	if _, err := svc.Borrow(ctx, 10, other); err != nil {
		t.Fatalf("Borrow() after full cycle error = %v", err)
	}
	if len(repo.records) != 2 {
		t.Fatalf("expected the closed record to remain, got %d records", len(repo.records))
	}
}

func TestStateOf(t *testing.T) {
	cases := []struct {
		name string
		rec  *BorrowRecord
		want State
	}{
		{"no record", nil, StateAvailable},
		{"active", &BorrowRecord{}, StateBorrowed},
		{"returned", &BorrowRecord{Returned: true}, StatePendingApproval},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StateOf(tc.rec); got != tc.want {
				t.Fatalf("StateOf() = %v, want %v", got, tc.want)
			}
		})
	}
}
