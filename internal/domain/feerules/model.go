package feerules

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MemberCategory drives fee tier and hour-restriction applicability.
type MemberCategory string

// Member categories
const (
	CategoryNormal     MemberCategory = "normal"
	CategoryDiak       MemberCategory = "diak"       // student
	CategoryVersenyzoi MemberCategory = "versenyzoi" // competitor
	CategoryPalyaberlo MemberCategory = "palyaberlo" // court renter, non-member
)

// ValidCategories contains all valid category values.
var ValidCategories = []MemberCategory{CategoryNormal, CategoryDiak, CategoryVersenyzoi, CategoryPalyaberlo}

// IsValid reports whether c is a known category.
func (c MemberCategory) IsValid() bool {
	for _, v := range ValidCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Rules is the global, admin-mutable rate table. All amounts are whole forints.
type Rules struct {
	BaseRateFt                        int64 `json:"baseRateFt"`
	NonMemberPeakRateFt               int64 `json:"nonMemberPeakRateFt"`
	NonMemberOffpeakRateFt            int64 `json:"nonMemberOffpeakRateFt"`
	DiakOffpeakDiscountPct            int64 `json:"diakOffpeakDiscountPct"`
	CoachingRateFt                    int64 `json:"coachingRateFt"`
	VersenyzoiFreeOffpeakHoursPerWeek int64 `json:"versenyzoiFreeOffpeakHoursPerWeek"`
	LightingFeeFt                     int64 `json:"lightingFeeFt"`
	MufuvesFeeFt                      int64 `json:"mufuvesFeeFt"`
	DebtLockoutFt                     int64 `json:"debtLockoutFt"`
	LateCancelMinutes                 int64 `json:"lateCancelMinutes"`
}

// Defaults returns the rate table used until an admin saves one.
func Defaults() Rules {
	return Rules{
		BaseRateFt:                        1000,
		NonMemberPeakRateFt:               5000,
		NonMemberOffpeakRateFt:            4000,
		DiakOffpeakDiscountPct:            50,
		CoachingRateFt:                    1000,
		VersenyzoiFreeOffpeakHoursPerWeek: 6,
		LightingFeeFt:                     0,
		MufuvesFeeFt:                      0,
		DebtLockoutFt:                     5000,
		LateCancelMinutes:                 20,
	}
}

// Normalize clamps every field into its valid domain: amounts and counters to
// >= 0, the student discount to [0,100]. Invalid input is never rejected.
// POST: returned Rules satisfy every invariant of the rate table
func (r Rules) Normalize() Rules {
	return Rules{
		BaseRateFt:                        atLeastZero(r.BaseRateFt),
		NonMemberPeakRateFt:               atLeastZero(r.NonMemberPeakRateFt),
		NonMemberOffpeakRateFt:            atLeastZero(r.NonMemberOffpeakRateFt),
		DiakOffpeakDiscountPct:            ClampPct(r.DiakOffpeakDiscountPct),
		CoachingRateFt:                    atLeastZero(r.CoachingRateFt),
		VersenyzoiFreeOffpeakHoursPerWeek: atLeastZero(r.VersenyzoiFreeOffpeakHoursPerWeek),
		LightingFeeFt:                     atLeastZero(r.LightingFeeFt),
		MufuvesFeeFt:                      atLeastZero(r.MufuvesFeeFt),
		DebtLockoutFt:                     atLeastZero(r.DebtLockoutFt),
		LateCancelMinutes:                 atLeastZero(r.LateCancelMinutes),
	}
}

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

// ParseAmount reads an admin-entered rate as a whole number. Fractions round
// half away from zero; blank or non-numeric text reads as 0, the minimum of
// every field. Normalize still applies the per-field bounds.
func ParseAmount(text string) int64 {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	d = d.Round(0)
	switch {
	case d.GreaterThan(maxAmount):
		return math.MaxInt64
	case d.LessThan(minAmount):
		return math.MinInt64
	}
	return d.IntPart()
}

// ClampPct clamps a percentage to [0,100].
func ClampPct(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func atLeastZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
