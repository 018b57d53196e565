package books

import "time"

type bookRequest struct {
	Title      string `json:"title" validate:"required"`
	AuthorName string `json:"authorName" validate:"required"`
	ISBN       string `json:"isbn" validate:"required"`
	Synopsis   string `json:"synopsis" validate:"required"`
	Shareable  bool   `json:"shareable"`
}

type feedbackRequest struct {
	Note    float64 `json:"note" validate:"required,gte=0,lte=5"`
	Comment string  `json:"comment" validate:"required"`
}

// BookResponse is the wire shape of a book.
type BookResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	AuthorName string    `json:"authorName"`
	ISBN       string    `json:"isbn"`
	Synopsis   string    `json:"synopsis"`
	Owner      string    `json:"owner"`
	Shareable  bool      `json:"shareable"`
	Archived   bool      `json:"archived"`
	Rate       float64   `json:"rate"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toResponse(b Book) BookResponse {
	return BookResponse{
		ID:         b.ID,
		Title:      b.Title,
		AuthorName: b.AuthorName,
		ISBN:       b.ISBN,
		Synopsis:   b.Synopsis,
		Owner:      b.OwnerName,
		Shareable:  b.Shareable,
		Archived:   b.Archived,
		Rate:       b.Rate,
		CreatedAt:  b.CreatedAt,
	}
}

func toResponses(list []Book) []BookResponse {
	out := make([]BookResponse, len(list))
	for i, b := range list {
		out[i] = toResponse(b)
	}
	return out
}
