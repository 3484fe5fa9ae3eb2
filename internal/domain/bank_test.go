package domain

import (
	"errors"
	"testing"
)

func TestBankNameResolvesKnownCodes(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{code: 1, want: "SSOK Bank"},
		{code: 4, want: "Shinhan Bank"},
		{code: 10, want: "Toss Bank"},
	}

	for _, tt := range tests {
		got, err := BankName(tt.code)
		if err != nil {
			t.Fatalf("unexpected error for code %d: %v", tt.code, err)
		}
		if got != tt.want {
			t.Fatalf("expected %q for code %d, got %q", tt.want, tt.code, got)
		}
	}
}

func TestBankNameRejectsUnknownCode(t *testing.T) {
	for _, code := range []int{0, 11, 99, -1} {
		if _, err := BankName(code); !errors.Is(err, ErrInvalidBankCode) {
			t.Fatalf("expected ErrInvalidBankCode for code %d, got %v", code, err)
		}
		if ValidBankCode(code) {
			t.Fatalf("expected code %d to be invalid", code)
		}
	}
}

func TestValidBankCodeCoversClosedRange(t *testing.T) {
	for code := 1; code <= 10; code++ {
		if !ValidBankCode(code) {
			t.Fatalf("expected code %d to be valid", code)
		}
	}
}
