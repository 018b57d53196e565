package lending

import (
	"errors"
	"testing"

	"github.com/hypermedia-labs/trillas/internal/shared"
)

func TestBorrowable(t *testing.T) {
	cases := []struct {
		name string
		book Book
		want bool
	}{
		{"shareable", Book{Shareable: true}, true},
		{"not shareable", Book{}, false},
		{"archived", Book{Shareable: true, Archived: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Borrowable(&tc.book); got != tc.want {
				t.Fatalf("Borrowable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCheckToggleOwnerOnly(t *testing.T) {
	book := &Book{ID: 10, OwnerID: owner.UserID, Shareable: true}

	if err := CheckToggle(book, owner); err != nil {
		t.Fatalf("expected owner toggle to pass, got %v", err)
	}
	err := CheckToggle(book, borrower)
	if !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCheckApproveOwnerOnly(t *testing.T) {
	book := &Book{ID: 10, OwnerID: owner.UserID, Shareable: true}

	if err := CheckApprove(book, owner); err != nil {
		t.Fatalf("expected owner approval to pass, got %v", err)
	}
	err := CheckApprove(book, other)
	if !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
