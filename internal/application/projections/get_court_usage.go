package projections

import (
	"context"
	"fmt"
	"strings"

	domainBooking "teniszklub/internal/domain/booking"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/nonmember"
)

// GetCourtUsageResult carries the rules page as markdown.
type GetCourtUsageResult struct {
	Markdown     string                 `json:"markdown"`
	FeeRules     feerules.Rules         `json:"feeRules"`
	AllowedHours nonmember.AllowedHours `json:"nonMemberAllowedHours"`
}

// GetCourtUsageDeps holds dependencies for GetCourtUsage.
type GetCourtUsageDeps struct {
	Rules RulesStore
}

// QueryGetCourtUsage writes the public court usage rules from the current
// rate table and court renter hours.
// POST: Markdown reflects the stored tables at call time
func QueryGetCourtUsage(ctx context.Context, deps GetCourtUsageDeps) (GetCourtUsageResult, error) {
	rules, err := deps.Rules.FeeRules(ctx)
	if err != nil {
		return GetCourtUsageResult{}, err
	}
	hours, err := deps.Rules.AllowedHours(ctx)
	if err != nil {
		return GetCourtUsageResult{}, err
	}
	return GetCourtUsageResult{
		Markdown:     CourtUsageMarkdown(rules, hours),
		FeeRules:     rules,
		AllowedHours: hours,
	}, nil
}

// CourtUsageMarkdown renders the rules document.
func CourtUsageMarkdown(rules feerules.Rules, hours nonmember.AllowedHours) string {
	var b strings.Builder
	b.WriteString("# Court usage rules\n\n")

	b.WriteString("## Hourly rates\n\n")
	b.WriteString("| Player | Off-peak | Peak |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| Member | %d Ft | %d Ft |\n", rules.BaseRateFt, rules.BaseRateFt)
	student := feerules.Calculate(feerules.FeeInput{Rules: rules, Category: feerules.CategoryDiak})
	fmt.Fprintf(&b, "| Student | %d Ft (%d%% off) | %d Ft |\n", student.CourtFeeFt, rules.DiakOffpeakDiscountPct, rules.BaseRateFt)
	fmt.Fprintf(&b, "| Competitor | free for %d hours a week, then %d Ft | %d Ft |\n",
		rules.VersenyzoiFreeOffpeakHoursPerWeek, rules.BaseRateFt, rules.BaseRateFt)
	fmt.Fprintf(&b, "| Court renter | %d Ft | %d Ft |\n", rules.NonMemberOffpeakRateFt, rules.NonMemberPeakRateFt)
	fmt.Fprintf(&b, "| Coaching | %d Ft | %d Ft |\n\n", rules.CoachingRateFt, rules.CoachingRateFt)

	fmt.Fprintf(&b, "Peak time is %s. Every booking lasts one hour.\n\n", peakWindow())
	if rules.LightingFeeFt > 0 {
		fmt.Fprintf(&b, "Floodlit courts add %d Ft per hour.\n", rules.LightingFeeFt)
	}
	if rules.MufuvesFeeFt > 0 {
		fmt.Fprintf(&b, "Artificial turf courts add %d Ft per hour.\n", rules.MufuvesFeeFt)
	}
	if rules.LightingFeeFt > 0 || rules.MufuvesFeeFt > 0 {
		b.WriteString("\n")
	}

	b.WriteString("## Court renter hours\n\n")
	for _, day := range nonmember.Weekdays {
		fmt.Fprintf(&b, "- **%s**: %s\n", titleCase(string(day)), describeRanges(hours[day]))
	}
	b.WriteString("\n")

	b.WriteString("## Cancellation\n\n")
	fmt.Fprintf(&b, "Bookings can be cancelled free of charge until %d minutes before the start. "+
		"Later cancellations are recorded as late.\n\n", rules.LateCancelMinutes)

	b.WriteString("## Outstanding balance\n\n")
	fmt.Fprintf(&b, "New bookings are blocked once your debt reaches %d Ft.\n", rules.DebtLockoutFt)
	return b.String()
}

func peakWindow() string {
	peak := domainBooking.PeakHours
	if len(peak) == 0 {
		return "not defined"
	}
	return fmt.Sprintf("%02d:00-%02d:00", peak[0], peak[len(peak)-1]+1)
}

func describeRanges(ranges []nonmember.HourRange) string {
	if len(ranges) == 0 {
		return "no restriction"
	}
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = fmt.Sprintf("%02d:00-%02d:00", r.Start, r.End)
	}
	return strings.Join(parts, ", ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
