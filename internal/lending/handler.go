package lending

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hypermedia-labs/trillas/internal/platform/httpx"
	"github.com/hypermedia-labs/trillas/internal/shared"
)

// Handler wires HTTP endpoints for borrow/return/approve and the borrow
// listings. It expects an authenticated identity in the request context.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers lending routes on the provided router. Paths mirror
// the book resource so they are mounted under /books.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/borrow/{book-id}", h.handleBorrow)
	r.Patch("/borrow/return/{book-id}", h.handleReturn)
	r.Patch("/borrow/return/approved/{book-id}", h.handleApprove)
	r.Get("/borrowed", h.handleListBorrowed)
	r.Get("/returned", h.handleListReturned)
}

type mutation func(r *http.Request, bookID int64, actor shared.Identity) (int64, error)

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op string, fn mutation) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	bookID, err := strconv.ParseInt(chi.URLParam(r, "book-id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid book id")
		return
	}

	recordID, err := fn(r, bookID, actor)
	if err != nil {
		h.logger.Info(op,
			slog.Int64("book_id", bookID),
			slog.Int64("user_id", actor.UserID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, recordID)
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "borrow book", func(r *http.Request, bookID int64, actor shared.Identity) (int64, error) {
		return h.service.Borrow(r.Context(), bookID, actor)
	})
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "return book", func(r *http.Request, bookID int64, actor shared.Identity) (int64, error) {
		return h.service.Return(r.Context(), bookID, actor)
	})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "approve return", func(r *http.Request, bookID int64, actor shared.Identity) (int64, error) {
		return h.service.Approve(r.Context(), bookID, actor)
	})
}

func (h *Handler) handleListBorrowed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListBorrowed)
}

func (h *Handler) handleListReturned(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListReturned)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, actor shared.Identity, page, size int) ([]BorrowedBook, shared.Pagination, error),
) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	page, size := pageParams(r)
	list, p, err := fn(r.Context(), actor, page, size)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(list, p))
}

func pageParams(r *http.Request) (int, int) {
	page, size := 0, 10
	if v := r.URL.Query().Get("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			page = parsed
		}
	}
	if v := r.URL.Query().Get("size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			size = parsed
		}
	}
	return page, size
}
