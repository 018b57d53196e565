package books

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hypermedia-labs/trillas/internal/shared"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectBook = `
	SELECT b.id, b.title, b.author_name, b.isbn, b.synopsis,
	       b.owner_id, u.first_name || ' ' || u.last_name AS owner_name,
	       b.shareable, b.archived,
	       COALESCE(ROUND(AVG(f.note)::numeric, 1), 0)::float8 AS rate,
	       b.created_at, b.updated_at
	FROM books b
	JOIN users u ON u.id = b.owner_id
	LEFT JOIN feedback f ON f.book_id = b.id`

// Create inserts a book owned by book.OwnerID.
func (r *PGRepository) Create(ctx context.Context, book Book) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO books (title, author_name, isbn, synopsis, owner_id, shareable, archived)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING id`,
		book.Title, book.AuthorName, book.ISBN, book.Synopsis, book.OwnerID, book.Shareable,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindByID fetches a book with its owner name and rating aggregate.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Book, error) {
	row := r.pool.QueryRow(ctx, selectBook+` WHERE b.id = $1 GROUP BY b.id, u.id`, id)
	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return book, nil
}

// ListDisplayable pages through borrowable books owned by other users,
// newest first.
func (r *PGRepository) ListDisplayable(ctx context.Context, viewerID int64, page, size int) ([]Book, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM books b
		WHERE NOT b.archived AND b.shareable AND b.owner_id <> $1`, viewerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, selectBook+`
		WHERE NOT b.archived AND b.shareable AND b.owner_id <> $1
		GROUP BY b.id, u.id
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`,
		viewerID, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := scanBooks(rows)
	return list, total, err
}

// ListByOwner pages through the owner's own books, newest first.
func (r *PGRepository) ListByOwner(ctx context.Context, ownerID int64, page, size int) ([]Book, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM books WHERE owner_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, selectBook+`
		WHERE b.owner_id = $1
		GROUP BY b.id, u.id
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`,
		ownerID, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := scanBooks(rows)
	return list, total, err
}

// SetShareable updates the shareable flag.
func (r *PGRepository) SetShareable(ctx context.Context, id int64, shareable bool) error {
	return r.setFlag(ctx, `UPDATE books SET shareable = $2, updated_at = now() WHERE id = $1`, id, shareable)
}

// SetArchived updates the archived flag.
func (r *PGRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	return r.setFlag(ctx, `UPDATE books SET archived = $2, updated_at = now() WHERE id = $1`, id, archived)
}

func (r *PGRepository) setFlag(ctx context.Context, query string, id int64, value bool) error {
	tag, err := r.pool.Exec(ctx, query, id, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// InsertFeedback appends a feedback row.
func (r *PGRepository) InsertFeedback(ctx context.Context, fb Feedback) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO feedback (book_id, user_id, note, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		fb.BookID, fb.UserID, fb.Note, fb.Comment,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListFeedbackNotes returns all notes for a book.
func (r *PGRepository) ListFeedbackNotes(ctx context.Context, bookID int64) ([]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT note FROM feedback WHERE book_id = $1`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []float64
	for rows.Next() {
		var n float64
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func scanBook(row pgx.Row) (*Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.AuthorName, &b.ISBN, &b.Synopsis,
		&b.OwnerID, &b.OwnerName, &b.Shareable, &b.Archived, &b.Rate,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBooks(rows pgx.Rows) ([]Book, error) {
	var list []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

var _ Repository = (*PGRepository)(nil)
