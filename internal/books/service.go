package books

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/hypermedia-labs/trillas/internal/lending"
	"github.com/hypermedia-labs/trillas/internal/shared"
)

const rateCacheTTL = 10 * time.Minute

// Service handles book business logic. Ratings are cached in Redis; the
// cache is a read optimization only and every miss falls through to the
// feedback table.
type Service struct {
	repo   Repository
	cache  *redis.Client
	flight singleflight.Group
}

// NewService builds a Service instance. cache may be nil, which disables
// rating caching.
func NewService(repo Repository, cache *redis.Client) *Service {
	return &Service{repo: repo, cache: cache}
}

// CreateParams carries validated book input.
type CreateParams struct {
	Title      string
	AuthorName string
	ISBN       string
	Synopsis   string
	Shareable  bool
}

// Create stores a new book owned by the actor and returns its id.
func (s *Service) Create(ctx context.Context, params CreateParams, actor shared.Identity) (int64, error) {
	return s.repo.Create(ctx, Book{
		Title:      params.Title,
		AuthorName: params.AuthorName,
		ISBN:       params.ISBN,
		Synopsis:   params.Synopsis,
		OwnerID:    actor.UserID,
		Shareable:  params.Shareable,
	})
}

// Get fetches a single book. The rating on the detail read comes from Rate,
// so it shares the cache and its invalidation with feedback writes.
func (s *Service) Get(ctx context.Context, id int64) (*Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rate, err := s.Rate(ctx, id)
	if err != nil {
		return nil, err
	}
	book.Rate = rate
	return book, nil
}

// ListDisplayable pages through books the actor can browse for borrowing.
func (s *Service) ListDisplayable(ctx context.Context, actor shared.Identity, page, size int) ([]Book, shared.Pagination, error) {
	p := shared.NewPagination(page, size, 0)
	list, total, err := s.repo.ListDisplayable(ctx, actor.UserID, p.Page, p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ListByOwner pages through the actor's own books.
func (s *Service) ListByOwner(ctx context.Context, actor shared.Identity, page, size int) ([]Book, shared.Pagination, error) {
	p := shared.NewPagination(page, size, 0)
	list, total, err := s.repo.ListByOwner(ctx, actor.UserID, p.Page, p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ToggleShareable flips the shareable flag; owner-only.
func (s *Service) ToggleShareable(ctx context.Context, id int64, actor shared.Identity) (int64, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := lending.CheckToggle(lendingView(book), actor); err != nil {
		return 0, err
	}
	if err := s.repo.SetShareable(ctx, id, !book.Shareable); err != nil {
		return 0, err
	}
	return id, nil
}

// ToggleArchived flips the archived flag; owner-only.
func (s *Service) ToggleArchived(ctx context.Context, id int64, actor shared.Identity) (int64, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := lending.CheckToggle(lendingView(book), actor); err != nil {
		return 0, err
	}
	if err := s.repo.SetArchived(ctx, id, !book.Archived); err != nil {
		return 0, err
	}
	return id, nil
}

// FeedbackParams carries validated feedback input.
type FeedbackParams struct {
	BookID  int64
	Note    float64
	Comment string
}

// AddFeedback records a note on a borrowable book not owned by the actor and
// invalidates the cached rating.
func (s *Service) AddFeedback(ctx context.Context, params FeedbackParams, actor shared.Identity) (int64, error) {
	book, err := s.repo.FindByID(ctx, params.BookID)
	if err != nil {
		return 0, err
	}
	if !lending.Borrowable(lendingView(book)) {
		return 0, shared.Forbidden("you cannot give feedback on an archived or not shareable book")
	}
	if book.OwnerID == actor.UserID {
		return 0, shared.Forbidden("you cannot give feedback on your own book")
	}

	id, err := s.repo.InsertFeedback(ctx, Feedback{
		BookID:  params.BookID,
		UserID:  actor.UserID,
		Note:    params.Note,
		Comment: params.Comment,
	})
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, rateCacheKey(params.BookID)).Err()
	}
	return id, nil
}

// Rate returns the aggregate rating for a book: mean note rounded to one
// decimal, 0.0 without feedback. Reads are cached and deduplicated.
func (s *Service) Rate(ctx context.Context, bookID int64) (float64, error) {
	if s.cache != nil {
		// Cache errors fall through to the feedback table.
		if cached, err := s.cache.Get(ctx, rateCacheKey(bookID)).Float64(); err == nil {
			return cached, nil
		}
	}

	v, err, _ := s.flight.Do(rateCacheKey(bookID), func() (any, error) {
		notes, err := s.repo.ListFeedbackNotes(ctx, bookID)
		if err != nil {
			return 0.0, err
		}
		rate := Rate(notes)
		if s.cache != nil {
			_ = s.cache.Set(ctx, rateCacheKey(bookID), strconv.FormatFloat(rate, 'f', 1, 64), rateCacheTTL).Err()
		}
		return rate, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func rateCacheKey(bookID int64) string {
	return fmt.Sprintf("books:rate:%d", bookID)
}

func lendingView(book *Book) *lending.Book {
	return &lending.Book{
		ID:        book.ID,
		OwnerID:   book.OwnerID,
		Shareable: book.Shareable,
		Archived:  book.Archived,
	}
}
