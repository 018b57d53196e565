package books

import "context"

// Repository defines persistence operations for books and feedback.
type Repository interface {
	Create(ctx context.Context, book Book) (int64, error)
	FindByID(ctx context.Context, id int64) (*Book, error)
	// ListDisplayable pages through borrowable books owned by other users.
	ListDisplayable(ctx context.Context, viewerID int64, page, size int) ([]Book, int, error)
	ListByOwner(ctx context.Context, ownerID int64, page, size int) ([]Book, int, error)
	SetShareable(ctx context.Context, id int64, shareable bool) error
	SetArchived(ctx context.Context, id int64, archived bool) error

	InsertFeedback(ctx context.Context, fb Feedback) (int64, error)
	ListFeedbackNotes(ctx context.Context, bookID int64) ([]float64, error)
}
