package web

import (
	"net/http"
	"net/url"
	"time"

	memberStore "teniszklub/internal/adapters/storage/member"
	"teniszklub/internal/application/orchestrators"
	"teniszklub/internal/application/projections"
	"teniszklub/internal/domain/booking"
	"teniszklub/internal/domain/feerules"
)

// Grid rows shown on the booking page, first and last bookable start hour.
const (
	gridFirstHour = 7
	gridLastHour  = 20
	// gridDayLinks is how many days the date picker offers.
	gridDayLinks = 14
)

type createBookingRequest struct {
	Date                  string           `json:"date"`
	CourtID               string           `json:"courtId"`
	Hour                  int              `json:"hour"`
	GameType              booking.GameType `json:"gameType"`
	IsCoaching            bool             `json:"isCoaching"`
	OpponentIDs           []string         `json:"opponentIds"`
	TimezoneOffsetMinutes *int             `json:"timezoneOffsetMinutes"`
}

func (req *createBookingRequest) fromForm(form url.Values) error {
	hour, err := formInt(form, "hour")
	if err != nil {
		return err
	}
	offset, err := formOptionalInt(form, "timezoneOffsetMinutes")
	if err != nil {
		return err
	}
	req.Date = form.Get("date")
	req.CourtID = form.Get("courtId")
	req.Hour = hour
	req.GameType = booking.GameType(form.Get("gameType"))
	req.IsCoaching = formBool(form, "isCoaching")
	req.OpponentIDs = formStrings(form, "opponentIds")
	req.TimezoneOffsetMinutes = offset
	return nil
}

type opponentsRequest struct {
	GameType    booking.GameType `json:"gameType"`
	OpponentIDs []string         `json:"opponentIds"`
}

func (req *opponentsRequest) fromForm(form url.Values) error {
	req.GameType = booking.GameType(form.Get("gameType"))
	req.OpponentIDs = formStrings(form, "opponentIds")
	return nil
}

type cancelRequest struct {
	BookingIDs []string `json:"bookingIds"`
}

func (req *cancelRequest) fromForm(form url.Values) error {
	req.BookingIDs = formStrings(form, "bookingIds")
	return nil
}

// bookingResponse is a booking as returned to JSON clients after a change.
type bookingResponse struct {
	ID         string                     `json:"id"`
	CourtID    string                     `json:"courtId"`
	CourtName  string                     `json:"courtName,omitempty"`
	StartsAt   time.Time                  `json:"startsAt"`
	EndsAt     time.Time                  `json:"endsAt"`
	GameType   booking.GameType           `json:"gameType"`
	IsPeak     bool                       `json:"isPeak"`
	IsCoaching bool                       `json:"isCoaching"`
	BookerName string                     `json:"bookerName"`
	Opponents  []orchestrators.PlayerName `json:"opponents"`
	Fee        *feerules.Fee              `json:"fee,omitempty"`
}

func newBookingResponse(b booking.Booking, bookerName string, opponents []orchestrators.PlayerName) bookingResponse {
	return bookingResponse{
		ID:         b.ID,
		CourtID:    b.CourtID,
		StartsAt:   b.StartsAt,
		EndsAt:     b.EndsAt,
		GameType:   b.GameType,
		IsPeak:     b.IsPeak,
		IsCoaching: b.IsCoaching,
		BookerName: bookerName,
		Opponents:  opponents,
	}
}

// gridCell is one court-hour of the booking grid page.
type gridCell struct {
	CourtID   string
	CourtName string
	Hour      int
	Booking   *projections.GridBooking
	Closed    bool
	Past      bool
	Peak      bool
}

// Free reports whether the cell can be booked.
func (c gridCell) Free() bool {
	return c.Booking == nil && !c.Closed && !c.Past
}

type gridRow struct {
	Hour  int
	Cells []gridCell
}

func bookingGridDeps() projections.GetBookingGridDeps {
	return projections.GetBookingGridDeps{
		Members:  stores.MemberStore,
		Courts:   stores.CourtStore,
		Closures: stores.ClosureStore,
		Bookings: stores.BookingStore,
		Ledger:   stores.LedgerStore,
		Rules:    stores.SettingsStore,
		Location: clubLocation,
	}
}

// handleBookingGrid renders the court grid (GET /bookings)
// PRE: User must be authenticated
// POST: JSON clients get the whole 60-day grid; browsers get one day, ?date=YYYY-MM-DD
func handleBookingGrid(w http.ResponseWriter, r *http.Request) {
	bookingGridPage(w, r, http.StatusOK, "")
}

func bookingGridPage(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	now := timeNow()
	grid, err := projections.QueryGetBookingGrid(r.Context(), projections.GetBookingGridQuery{
		UserID: actorFrom(r).ID,
		Now:    now,
	}, bookingGridDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, status, grid)
		return
	}

	today := now.In(clubLocation).Format(booking.DateLayout)
	day := r.URL.Query().Get("date")
	if _, err := booking.ParseDate(day); err != nil || day < today {
		day = today
	}

	data := pageData(r, errMsg)
	data["Grid"] = grid
	data["Day"] = day
	data["Days"] = dayLinks(now, gridDayLinks)
	data["Rows"] = gridRows(grid, day, now)
	data["Categories"] = feerules.ValidCategories
	renderTemplateStatus(w, r, status, "bookings.html", data)
}

// dayLinks lists n consecutive dates from today in the club zone.
func dayLinks(now time.Time, n int) []string {
	local := now.In(clubLocation)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	days := make([]string, n)
	for i := range days {
		days[i] = start.AddDate(0, 0, i).Format(booking.DateLayout)
	}
	return days
}

// gridRows lays the day's bookings and closures over courts and hours.
func gridRows(grid projections.GetBookingGridResult, day string, now time.Time) []gridRow {
	type slot struct {
		court string
		hour  int
	}
	taken := make(map[slot]*projections.GridBooking)
	for i := range grid.Bookings {
		b := &grid.Bookings[i]
		local := b.StartsAt.In(clubLocation)
		if local.Format(booking.DateLayout) == day {
			taken[slot{b.CourtID, local.Hour()}] = b
		}
	}

	var rows []gridRow
	for hour := gridFirstHour; hour <= gridLastHour; hour++ {
		startsAt, err := booking.StartsAt(day, hour, clubLocation)
		past := err != nil || !startsAt.After(now)
		row := gridRow{Hour: hour}
		for _, c := range grid.Courts {
			cell := gridCell{
				CourtID:   c.ID,
				CourtName: c.Name,
				Hour:      hour,
				Booking:   taken[slot{c.ID, hour}],
				Past:      past,
				Peak:      booking.IsPeakHour(hour),
			}
			for _, cl := range grid.Closures {
				if cl.CourtID == c.ID && cl.Blocks(day, hour) {
					cell.Closed = true
					break
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

// handleCreateBooking books a court hour (POST /bookings)
// PRE: User must be authenticated
// POST: Booking, players and any charge are committed together
func handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	err := decodeBody(r, &req)
	var result orchestrators.CreateBookingResult
	if err == nil {
		result, err = orchestrators.ExecuteCreateBooking(r.Context(), orchestrators.CreateBookingInput{
			Actor:                 actorFrom(r),
			Date:                  req.Date,
			CourtID:               req.CourtID,
			Hour:                  req.Hour,
			GameType:              req.GameType,
			IsCoaching:            req.IsCoaching,
			OpponentIDs:           req.OpponentIDs,
			TimezoneOffsetMinutes: req.TimezoneOffsetMinutes,
		}, orchestrators.CreateBookingDeps{
			Members:    stores.MemberStore,
			Courts:     stores.CourtStore,
			Closures:   stores.ClosureStore,
			Bookings:   stores.BookingStore,
			Ledger:     stores.LedgerStore,
			Rules:      stores.SettingsStore,
			Locker:     quotaLocker,
			Mailer:     emailSender,
			Location:   clubLocation,
			Now:        timeNow,
			GenerateID: generateID,
		})
	}
	if err != nil {
		if wantsJSON(r) {
			writeJSONError(w, err)
			return
		}
		bookingGridPage(w, r, errorStatus(err), errorMessage(err))
		return
	}

	if wantsJSON(r) {
		resp := newBookingResponse(result.Booking, result.BookerName, result.Opponents)
		resp.CourtName = result.CourtName
		resp.Fee = &result.Fee
		writeJSON(w, http.StatusCreated, resp)
		return
	}
	http.Redirect(w, r, "/bookings?notice=booked&date="+url.QueryEscape(req.Date), http.StatusSeeOther)
}

// handleUpdateOpponents replaces the players of an own booking (POST /bookings/{id}/opponents)
// PRE: User must be authenticated and own the booking
// POST: Game type and opponents replaced; no fee change
func handleUpdateOpponents(w http.ResponseWriter, r *http.Request) {
	var req opponentsRequest
	err := decodeBody(r, &req)
	var result orchestrators.UpdateBookingOpponentsResult
	if err == nil {
		result, err = orchestrators.ExecuteUpdateBookingOpponents(r.Context(), orchestrators.UpdateBookingOpponentsInput{
			Actor:       actorFrom(r),
			BookingID:   r.PathValue("id"),
			GameType:    req.GameType,
			OpponentIDs: req.OpponentIDs,
		}, orchestrators.UpdateBookingOpponentsDeps{
			Members:  stores.MemberStore,
			Bookings: stores.BookingStore,
		})
	}
	if err != nil {
		if wantsJSON(r) {
			writeJSONError(w, err)
			return
		}
		myBookingsPage(w, r, errorStatus(err), errorMessage(err))
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, newBookingResponse(result.Booking, result.BookerName, result.Opponents))
		return
	}
	redirectWithNotice(w, r, "/my-bookings", "updated")
}

// handleMyBookings lists upcoming own bookings (GET /my-bookings)
// PRE: User must be authenticated
func handleMyBookings(w http.ResponseWriter, r *http.Request) {
	myBookingsPage(w, r, http.StatusOK, "")
}

func myBookingsPage(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	actor := actorFrom(r)
	result, err := projections.QueryGetMyBookings(r.Context(), projections.GetMyBookingsQuery{
		UserID: actor.ID,
		Now:    timeNow(),
	}, projections.GetMyBookingsDeps{
		Members:  stores.MemberStore,
		Courts:   stores.CourtStore,
		Bookings: stores.BookingStore,
		Rules:    stores.SettingsStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, status, result)
		return
	}

	others, err := stores.MemberStore.List(r.Context(), memberStore.ListFilter{ExcludeID: actor.ID})
	if err != nil {
		internalError(w, err)
		return
	}
	options := make([]projections.MemberOption, len(others))
	for i := range others {
		options[i] = projections.MemberOption{ID: others[i].ID, Name: others[i].DisplayName(), Category: others[i].Category}
	}
	data := pageData(r, errMsg)
	data["Result"] = result
	data["Members"] = options
	renderTemplateStatus(w, r, status, "my_bookings.html", data)
}

// handleCancelBookings cancels selected own bookings (POST /my-bookings/cancel)
// PRE: User must be authenticated
// POST: Own active bookings among the ids are cancelled; late ones are flagged
func handleCancelBookings(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	err := decodeBody(r, &req)
	var result orchestrators.CancelBookingsResult
	if err == nil {
		result, err = orchestrators.ExecuteCancelBookings(r.Context(), orchestrators.CancelBookingsInput{
			Actor:      actorFrom(r),
			BookingIDs: req.BookingIDs,
		}, orchestrators.CancelBookingsDeps{
			Members:  stores.MemberStore,
			Courts:   stores.CourtStore,
			Bookings: stores.BookingStore,
			Rules:    stores.SettingsStore,
			Mailer:   emailSender,
			Location: clubLocation,
			Now:      timeNow,
		})
	}
	if err != nil {
		if wantsJSON(r) {
			writeJSONError(w, err)
			return
		}
		myBookingsPage(w, r, errorStatus(err), errorMessage(err))
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, result)
		return
	}
	redirectWithNotice(w, r, "/my-bookings", "cancelled")
}

// handleFinance shows the user's balances (GET /finance)
// PRE: User must be authenticated
func handleFinance(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetFinanceDashboard(r.Context(), projections.GetFinanceDashboardQuery{
		UserID: actorFrom(r).ID,
	}, projections.GetFinanceDashboardDeps{Ledger: stores.LedgerStore})
	if err != nil {
		internalError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, result)
		return
	}
	data := pageData(r, "")
	data["Result"] = result
	renderTemplate(w, r, "finance.html", data)
}

// handleCourtUsage renders the public rules page from the current tables (GET /court-usage)
func handleCourtUsage(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetCourtUsage(r.Context(), projections.GetCourtUsageDeps{Rules: stores.SettingsStore})
	if err != nil {
		internalError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, result)
		return
	}
	data := pageData(r, "")
	data["Markdown"] = result.Markdown
	renderTemplate(w, r, "court_usage.html", data)
}
