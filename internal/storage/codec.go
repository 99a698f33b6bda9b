package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Amounts and balances are stored as TEXT so decimal values round-trip
// exactly; REAL columns would lose the bit-for-bit reversibility the ledger
// depends on.

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed stored amount %q: %w", s, err)
	}
	return d, nil
}

func parseNullAmount(ns sql.NullString) (decimal.Decimal, error) {
	if !ns.Valid || ns.String == "" {
		return decimal.Zero, nil
	}
	return parseAmount(ns.String)
}

func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}

func parseDateKey(s string) (time.Time, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed stored date %q: %w", s, err)
	}
	return t, nil
}

func parseNullDate(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	return parseDateKey(ns.String)
}

// nullable converts an optional string field to its stored form.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
