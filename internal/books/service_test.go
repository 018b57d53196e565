package books

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hypermedia-labs/trillas/internal/shared"
)

type fakeRepo struct {
	books     map[int64]*Book
	feedback  map[int64][]float64
	noteReads int
	nextID    int64
}

func newFakeBooksRepo(books ...*Book) *fakeRepo {
	f := &fakeRepo{
		books:    make(map[int64]*Book),
		feedback: make(map[int64][]float64),
	}
	for _, b := range books {
		f.books[b.ID] = b
		if b.ID > f.nextID {
			f.nextID = b.ID
		}
	}
	return f
}

func (f *fakeRepo) Create(ctx context.Context, book Book) (int64, error) {
	f.nextID++
	book.ID = f.nextID
	f.books[book.ID] = &book
	return book.ID, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id int64) (*Book, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeRepo) ListDisplayable(ctx context.Context, viewerID int64, page, size int) ([]Book, int, error) {
	var out []Book
	for _, b := range f.books {
		if b.Shareable && !b.Archived && b.OwnerID != viewerID {
			out = append(out, *b)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListByOwner(ctx context.Context, ownerID int64, page, size int) ([]Book, int, error) {
	var out []Book
	for _, b := range f.books {
		if b.OwnerID == ownerID {
			out = append(out, *b)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) SetShareable(ctx context.Context, id int64, shareable bool) error {
	b, ok := f.books[id]
	if !ok {
		return shared.ErrNotFound
	}
	b.Shareable = shareable
	return nil
}

func (f *fakeRepo) SetArchived(ctx context.Context, id int64, archived bool) error {
	b, ok := f.books[id]
	if !ok {
		return shared.ErrNotFound
	}
	b.Archived = archived
	return nil
}

func (f *fakeRepo) InsertFeedback(ctx context.Context, fb Feedback) (int64, error) {
	f.nextID++
	f.feedback[fb.BookID] = append(f.feedback[fb.BookID], fb.Note)
	return f.nextID, nil
}

func (f *fakeRepo) ListFeedbackNotes(ctx context.Context, bookID int64) ([]float64, error) {
	f.noteReads++
	return f.feedback[bookID], nil
}

var (
	owner  = shared.Identity{UserID: 1, Email: "owner@test.local"}
	reader = shared.Identity{UserID: 2, Email: "reader@test.local"}
)

func testCache(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestRate(t *testing.T) {
	cases := []struct {
		name  string
		notes []float64
		want  float64
	}{
		{"no feedback", nil, 0.0},
		{"whole mean", []float64{3, 4, 5}, 4.0},
		{"rounded to one decimal", []float64{3, 4}, 3.5},
		{"rounds up", []float64{4, 4, 5}, 4.3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Rate(tc.notes); got != tc.want {
				t.Fatalf("Rate(%v) = %v, want %v", tc.notes, got, tc.want)
			}
		})
	}
}

func TestServiceRateCachesResult(t *testing.T) {
	repo := newFakeBooksRepo(&Book{ID: 10, OwnerID: owner.UserID, Shareable: true})
	repo.feedback[10] = []float64{3, 4, 5}
	svc := NewService(repo, testCache(t))
	ctx := context.Background()

	got, err := svc.Rate(ctx, 10)
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if got != 4.0 {
		t.Fatalf("Rate() = %v, want 4.0", got)
	}

	// The second read must be served from the cache.
	if _, err := svc.Rate(ctx, 10); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if repo.noteReads != 1 {
		t.Fatalf("expected one feedback read, got %d", repo.noteReads)
	}
}

func TestGetServesCachedRating(t *testing.T) {
	repo := newFakeBooksRepo(&Book{ID: 10, OwnerID: owner.UserID, Shareable: true})
	repo.feedback[10] = []float64{3, 4, 5}
	svc := NewService(repo, testCache(t))
	ctx := context.Background()

	book, err := svc.Get(ctx, 10)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if book.Rate != 4.0 {
		t.Fatalf("Get() rate = %v, want 4.0", book.Rate)
	}

	// A second detail read hits the cache, not the feedback table.
	if _, err := svc.Get(ctx, 10); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if repo.noteReads != 1 {
		t.Fatalf("expected one feedback read, got %d", repo.noteReads)
	}
}

func TestServiceRateWithoutCache(t *testing.T) {
	repo := newFakeBooksRepo(&Book{ID: 10, OwnerID: owner.UserID, Shareable: true})
	svc := NewService(repo, nil)

	got, err := svc.Rate(context.Background(), 10)
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if got != 0.0 {
		t.Fatalf("Rate() = %v, want 0.0 without feedback", got)
	}
}

func TestAddFeedbackInvalidatesCache(t *testing.T) {
	repo := newFakeBooksRepo(&Book{ID: 10, OwnerID: owner.UserID, Shareable: true})
	repo.feedback[10] = []float64{3}
	svc := NewService(repo, testCache(t))
	ctx := context.Background()

	if _, err := svc.Rate(ctx, 10); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}

	if _, err := svc.AddFeedback(ctx, FeedbackParams{BookID: 10, Note: 5, Comment: "great"}, reader); err != nil {
		t.Fatalf("AddFeedback() error = %v", err)
	}

	got, err := svc.Rate(ctx, 10)
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if got != 4.0 {
		t.Fatalf("Rate() after new feedback = %v, want 4.0", got)
	}
}

func TestAddFeedbackPolicy(t *testing.T) {
	cases := []struct {
		name  string
		book  *Book
		actor shared.Identity
	}{
		{"own book", &Book{ID: 10, OwnerID: owner.UserID, Shareable: true}, owner},
		{"archived", &Book{ID: 10, OwnerID: owner.UserID, Shareable: true, Archived: true}, reader},
		{"not shareable", &Book{ID: 10, OwnerID: owner.UserID}, reader},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(newFakeBooksRepo(tc.book), nil)
			_, err := svc.AddFeedback(context.Background(), FeedbackParams{BookID: 10, Note: 4}, tc.actor)
			if !errors.Is(err, shared.ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestToggleShareableOwnerOnly(t *testing.T) {
	repo := newFakeBooksRepo(&Book{ID: 10, OwnerID: owner.UserID, Shareable: true})
	svc := NewService(repo, nil)
	ctx := context.Background()

	if _, err := svc.ToggleShareable(ctx, 10, reader); !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}

	if _, err := svc.ToggleShareable(ctx, 10, owner); err != nil {
		t.Fatalf("ToggleShareable() error = %v", err)
	}
	book, _ := repo.FindByID(ctx, 10)
	if book.Shareable {
		t.Fatal("expected shareable to be flipped off")
	}
}

func TestToggleArchivedOwnerOnly(t *testing.T) {
	repo := newFakeBooksRepo(&Book{ID: 10, OwnerID: owner.UserID})
	svc := NewService(repo, nil)
	ctx := context.Background()

	if _, err := svc.ToggleArchived(ctx, 10, reader); !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}

	if _, err := svc.ToggleArchived(ctx, 10, owner); err != nil {
		t.Fatalf("ToggleArchived() error = %v", err)
	}
	book, _ := repo.FindByID(ctx, 10)
	if !book.Archived {
		t.Fatal("expected archived to be flipped on")
	}
}

func TestListDisplayableExcludesOwnBooks(t *testing.T) {
	repo := newFakeBooksRepo(
		&Book{ID: 10, OwnerID: owner.UserID, Shareable: true},
		&Book{ID: 11, OwnerID: reader.UserID, Shareable: true},
		&Book{ID: 12, OwnerID: owner.UserID, Shareable: true, Archived: true},
	)
	svc := NewService(repo, nil)

	list, page, err := svc.ListDisplayable(context.Background(), reader, 0, 10)
	if err != nil {
		t.Fatalf("ListDisplayable() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != 10 {
		t.Fatalf("expected only book 10, got %v", list)
	}
	if page.Total != 1 {
		t.Fatalf("expected total 1, got %d", page.Total)
	}
}
