package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// BookingConfirmation is the data shown in a booking confirmation mail.
type BookingConfirmation struct {
	MemberName string
	CourtName  string
	StartsAt   time.Time // in club local time
	GameType   string
	Opponents  []string
	TotalFeeFt int64
	Deadline   time.Time // free cancellation until
}

// CancelledBooking is one line of a cancellation summary.
type CancelledBooking struct {
	CourtName string
	StartsAt  time.Time
	Late      bool
}

// CancellationSummary is the data shown after a member cancels bookings.
type CancellationSummary struct {
	MemberName string
	Bookings   []CancelledBooking
}

var funcs = template.FuncMap{
	"when": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(`<p>Hello {{.MemberName}},</p>
<p>Your booking is confirmed: <strong>{{.CourtName}}</strong>, {{when .StartsAt}} ({{.GameType}}).</p>
{{if .Opponents}}<p>Players: {{range $i, $o := .Opponents}}{{if $i}}, {{end}}{{$o}}{{end}}</p>{{end}}
<p>Fee: {{.TotalFeeFt}} Ft</p>
<p>Free cancellation until {{when .Deadline}}.</p>`))

var cancellationTmpl = template.Must(template.New("cancellation").Funcs(funcs).Parse(`<p>Hello {{.MemberName}},</p>
<p>The following bookings were cancelled:</p>
<ul>{{range .Bookings}}<li>{{.CourtName}}, {{when .StartsAt}}{{if .Late}} <strong>(late cancellation)</strong>{{end}}</li>{{end}}</ul>`))

// ConfirmationRequest builds the mail sent after a booking is created.
func ConfirmationRequest(to string, data BookingConfirmation) (SendRequest, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return SendRequest{}, fmt.Errorf("render booking confirmation: %w", err)
	}
	return SendRequest{
		To:      []string{to},
		Subject: fmt.Sprintf("Booking confirmed: %s %s", data.CourtName, data.StartsAt.Format("2006-01-02 15:04")),
		HTML:    buf.String(),
	}, nil
}

// CancellationRequest builds the mail summarizing cancelled bookings.
func CancellationRequest(to string, data CancellationSummary) (SendRequest, error) {
	var buf bytes.Buffer
	if err := cancellationTmpl.Execute(&buf, data); err != nil {
		return SendRequest{}, fmt.Errorf("render cancellation summary: %w", err)
	}
	subject := "Booking cancelled"
	if len(data.Bookings) > 1 {
		subject = fmt.Sprintf("%d bookings cancelled", len(data.Bookings))
	}
	return SendRequest{
		To:      []string{to},
		Subject: subject,
		HTML:    buf.String(),
	}, nil
}
