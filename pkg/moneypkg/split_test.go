package moneypkg_test

import (
	"errors"
	"testing"

	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
	"github.com/go-petr/receipt-ledger/pkg/randompkg"
	"github.com/google/go-cmp/cmp"
)

func TestPlugSplit(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		total moneypkg.Amount
		parts int
		want  []moneypkg.Amount
	}{
		{name: "100/3", total: 100, parts: 3, want: []moneypkg.Amount{34, 33, 33}},
		{name: "10000/3", total: 10000, parts: 3, want: []moneypkg.Amount{3334, 3333, 3333}},
		{name: "101/7", total: 101, parts: 7, want: []moneypkg.Amount{17, 14, 14, 14, 14, 14, 14}},
		{name: "Single", total: 999, parts: 1, want: []moneypkg.Amount{999}},
		{name: "LessThanParts", total: 2, parts: 5, want: []moneypkg.Amount{2, 0, 0, 0, 0}},
		{name: "Zero", total: 0, parts: 2, want: []moneypkg.Amount{0, 0}},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := moneypkg.PlugSplit(tc.total, tc.parts)
			if err != nil {
				t.Fatalf("PlugSplit(%d, %d) returned error: %v", tc.total, tc.parts, err)
			}

			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("PlugSplit(%d, %d) mismatch (-want +got):\n%s", tc.total, tc.parts, diff)
			}
		})
	}
}

func TestPlugSplitInvalidParts(t *testing.T) {
	t.Parallel()

	for _, parts := range []int{0, -1} {
		got, err := moneypkg.PlugSplit(100, parts)
		if !errors.Is(err, moneypkg.ErrInvalidParts) {
			t.Errorf("PlugSplit(100, %d) returned error %v, want %v", parts, err, moneypkg.ErrInvalidParts)
		}

		if got != nil {
			t.Errorf("PlugSplit(100, %d) = %v, want nil", parts, got)
		}
	}
}

func TestPlugSplitSumsToTotal(t *testing.T) {
	t.Parallel()

	for i := 0; i < 500; i++ {
		total := moneypkg.Amount(randompkg.Intn(10_000_000))
		parts := int(randompkg.Intn(50)) + 1

		shares, err := moneypkg.PlugSplit(total, parts)
		if err != nil {
			t.Fatalf("PlugSplit(%d, %d) returned error: %v", total, parts, err)
		}

		if len(shares) != parts {
			t.Fatalf("len(PlugSplit(%d, %d)) = %d, want %d", total, parts, len(shares), parts)
		}

		sum, err := moneypkg.Add(shares...)
		if err != nil {
			t.Fatalf("Add(%v) returned error: %v", shares, err)
		}

		if sum != total {
			t.Fatalf("sum(PlugSplit(%d, %d)) = %d, want %d", total, parts, sum, total)
		}

		base := total / moneypkg.Amount(parts)
		remainder := total % moneypkg.Amount(parts)

		for j, s := range shares {
			if s != base && s != base+remainder {
				t.Fatalf("PlugSplit(%d, %d)[%d] = %d, want %d or %d", total, parts, j, s, base, base+remainder)
			}
		}
	}
}
