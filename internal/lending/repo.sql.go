package lending

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hypermedia-labs/trillas/internal/platform/db"
	"github.com/hypermedia-labs/trillas/internal/shared"
)

const uniqueViolation = "23505"

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db   dbtx
	pool *pgxpool.Pool
	inTx bool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool, pool: pool}
}

// WithTx runs fn with a transaction-scoped repository.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{db: tx, pool: r.pool, inTx: true})
	})
}

// FindBookForUpdate loads the lending view of a book. Inside a transaction
// the book row is locked so check-then-act sequences on one book serialize.
func (r *PGRepository) FindBookForUpdate(ctx context.Context, bookID int64) (*Book, error) {
	query := `SELECT id, owner_id, shareable, archived FROM books WHERE id = $1`
	if r.inTx {
		query += ` FOR UPDATE`
	}
	var b Book
	err := r.db.QueryRow(ctx, query, bookID).Scan(&b.ID, &b.OwnerID, &b.Shareable, &b.Archived)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FindActiveRecord returns the record of the in-flight borrow cycle.
func (r *PGRepository) FindActiveRecord(ctx context.Context, bookID int64) (*BorrowRecord, error) {
	var rec BorrowRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, book_id, borrower_id, returned, return_approved, created_at, updated_at
		FROM borrow_records
		WHERE book_id = $1 AND NOT return_approved`,
		bookID,
	).Scan(&rec.ID, &rec.BookID, &rec.BorrowerID, &rec.Returned, &rec.ReturnApproved, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Insert appends a new borrow record. The partial unique index on open
// records turns a lost race into shared.ErrConflict at commit time.
func (r *PGRepository) Insert(ctx context.Context, record BorrowRecord) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO borrow_records (book_id, borrower_id, returned, return_approved)
		VALUES ($1, $2, FALSE, FALSE)
		RETURNING id`,
		record.BookID, record.BorrowerID,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, shared.ErrConflict
		}
		return 0, err
	}
	return id, nil
}

// MarkReturned flips returned on an active record.
func (r *PGRepository) MarkReturned(ctx context.Context, recordID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE borrow_records SET returned = TRUE, updated_at = now()
		WHERE id = $1 AND NOT returned`,
		recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkApproved closes a pending-approval record.
func (r *PGRepository) MarkApproved(ctx context.Context, recordID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE borrow_records SET return_approved = TRUE, updated_at = now()
		WHERE id = $1 AND returned AND NOT return_approved`,
		recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const selectBorrowedBook = `
	SELECT r.id, b.id, b.title, b.author_name, b.isbn,
	       COALESCE(ROUND(AVG(f.note)::numeric, 1), 0)::float8 AS rate,
	       r.returned, r.return_approved
	FROM borrow_records r
	JOIN books b ON b.id = r.book_id
	LEFT JOIN feedback f ON f.book_id = b.id`

// ListBorrowedByUser lists the caller's borrow history, newest first.
func (r *PGRepository) ListBorrowedByUser(ctx context.Context, userID int64, page, size int) ([]BorrowedBook, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM borrow_records WHERE borrower_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, selectBorrowedBook+`
		WHERE r.borrower_id = $1
		GROUP BY r.id, b.id
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := scanBorrowedBooks(rows)
	return list, total, err
}

// ListReturnedToOwner lists returned-and-pending cycles on the owner's books.
func (r *PGRepository) ListReturnedToOwner(ctx context.Context, ownerID int64, page, size int) ([]BorrowedBook, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM borrow_records r JOIN books b ON b.id = r.book_id
		WHERE b.owner_id = $1 AND r.returned`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, selectBorrowedBook+`
		WHERE b.owner_id = $1 AND r.returned
		GROUP BY r.id, b.id
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`,
		ownerID, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := scanBorrowedBooks(rows)
	return list, total, err
}

func scanBorrowedBooks(rows pgx.Rows) ([]BorrowedBook, error) {
	var list []BorrowedBook
	for rows.Next() {
		var bb BorrowedBook
		if err := rows.Scan(&bb.RecordID, &bb.BookID, &bb.Title, &bb.AuthorName, &bb.ISBN,
			&bb.Rate, &bb.Returned, &bb.ReturnApproved); err != nil {
			return nil, err
		}
		list = append(list, bb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

var _ Repository = (*PGRepository)(nil)
