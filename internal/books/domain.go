package books

import (
	"math"
	"time"
)

// Book is a lendable title owned by exactly one user. Lending rights follow
// ownership; a book is borrowable iff it is shareable and not archived.
type Book struct {
	ID         int64
	Title      string
	AuthorName string
	ISBN       string
	Synopsis   string
	OwnerID    int64
	OwnerName  string
	Shareable  bool
	Archived   bool
	Rate       float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Feedback is a reader note attached to a book. Its note feeds the book
// rating aggregate.
type Feedback struct {
	ID        int64
	BookID    int64
	UserID    int64
	Note      float64
	Comment   string
	CreatedAt time.Time
}

// Rate computes the aggregate rating for a set of feedback notes: the mean
// rounded to one decimal, or 0.0 when no feedback exists.
func Rate(notes []float64) float64 {
	if len(notes) == 0 {
		return 0.0
	}
	var sum float64
	for _, n := range notes {
		sum += n
	}
	mean := sum / float64(len(notes))
	return math.Round(mean*10) / 10
}
