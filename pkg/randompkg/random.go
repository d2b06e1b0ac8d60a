// Package randompkg provides functionality for generating random application items in tests.
package randompkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/go-petr/receipt-ledger/pkg/moneypkg"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// Intn is a shortcut for generating a random integer between 0 and max using crypto/rand.
func Intn(max int) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}

	return nBig.Int64()
}

// IntBetween generates a random integer between min and max.
func IntBetween(min, max int) int64 {
	return int64(min) + Intn(max-min+1)
}

// String generates a random string of length n.
func String(n int) string {
	var sb strings.Builder

	k := len(alphabet)

	for i := 0; i < n; i++ {
		c := alphabet[Intn(k)]

		_ = sb.WriteByte(c) // The returned err is always nil.
	}

	return sb.String()
}

// Username generates a random username.
func Username() string {
	return String(6)
}

// ClientID generates a random tenant identifier.
func ClientID() string {
	return "client-" + String(8)
}

var accountRoots = []string{"Assets", "Liabilities", "Expenses", "Income", "Equity"}

// AccountPath generates a random hierarchical account path like "Expenses:abcdef".
func AccountPath() string {
	root := accountRoots[Intn(len(accountRoots))]
	return fmt.Sprintf("%s:%s", root, String(6))
}

// MoneyAmountBetween generates a random amount of minor units between min and max.
func MoneyAmountBetween(min, max int) moneypkg.Amount {
	return moneypkg.Amount(IntBetween(min, max))
}
