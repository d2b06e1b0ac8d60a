package moneypkg

import "errors"

// ErrInvalidParts indicates a non-positive number of split parts.
var ErrInvalidParts = errors.New("parts must be greater than zero")

// PlugSplit divides total into parts integer shares that sum exactly to total.
//
// Every share gets floor(total/parts) and the remainder is plugged into the
// first share, so the result is always [base+remainder, base, ..., base].
func PlugSplit(total Amount, parts int) ([]Amount, error) {
	if parts <= 0 {
		return nil, ErrInvalidParts
	}

	if !total.Valid() {
		return nil, ErrInvalidAmount
	}

	n := Amount(parts)
	base := total / n
	remainder := total % n

	shares := make([]Amount, parts)
	for i := range shares {
		shares[i] = base
	}

	shares[0] += remainder

	return shares, nil
}
