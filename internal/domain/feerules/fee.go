package feerules

import "github.com/shopspring/decimal"

// FeeInput is the context of a single fee computation.
type FeeInput struct {
	Rules    Rules
	Category MemberCategory
	IsPeak   bool
	// IsCoaching overrides the member category.
	IsCoaching bool
	// FreeHoursUsedThisWeek counts off-peak, non-coaching active bookings
	// the member already holds in the booking's week.
	FreeHoursUsedThisWeek int
	HasLighting           bool
	IsMufuves             bool
}

// Fee is the itemised price of one booked hour.
type Fee struct {
	CourtFeeFt    int64 `json:"courtFeeFt"`
	LightingFeeFt int64 `json:"lightingFeeFt"`
	MufuvesFeeFt  int64 `json:"mufuvesFeeFt"`
	TotalFeeFt    int64 `json:"totalFeeFt"`
}

var hundred = decimal.NewFromInt(100)

// Calculate resolves the court fee tier and sums the optional surcharges.
// Tiers are evaluated in order, first match wins: coaching, non-member,
// student off-peak discount, competitor off-peak free quota, base rate.
// INVARIANT: pure; every returned amount is >= 0
func Calculate(in FeeInput) Fee {
	rules := in.Rules.Normalize()
	courtFee := rules.BaseRateFt

	switch {
	case in.IsCoaching:
		courtFee = rules.CoachingRateFt
	case in.Category == CategoryPalyaberlo:
		if in.IsPeak {
			courtFee = rules.NonMemberPeakRateFt
		} else {
			courtFee = rules.NonMemberOffpeakRateFt
		}
	case in.Category == CategoryDiak && !in.IsPeak:
		pct := decimal.NewFromInt(100 - ClampPct(rules.DiakOffpeakDiscountPct))
		courtFee = decimal.NewFromInt(rules.BaseRateFt).Mul(pct).Div(hundred).Round(0).IntPart()
	case in.Category == CategoryVersenyzoi && !in.IsPeak &&
		int64(in.FreeHoursUsedThisWeek) < rules.VersenyzoiFreeOffpeakHoursPerWeek:
		courtFee = 0
	}

	fee := Fee{CourtFeeFt: courtFee}
	if in.HasLighting {
		fee.LightingFeeFt = rules.LightingFeeFt
	}
	if in.IsMufuves {
		fee.MufuvesFeeFt = rules.MufuvesFeeFt
	}

	total := decimal.NewFromInt(fee.CourtFeeFt).
		Add(decimal.NewFromInt(fee.LightingFeeFt)).
		Add(decimal.NewFromInt(fee.MufuvesFeeFt)).
		Round(0)
	if total.IsNegative() {
		total = decimal.Zero
	}
	fee.TotalFeeFt = total.IntPart()
	return fee
}
