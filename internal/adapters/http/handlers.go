package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"teniszklub/internal/adapters/http/middleware"
	"teniszklub/internal/application/orchestrators"
	"teniszklub/internal/domain/member"
)

//go:embed templates/*.html
var templateFS embed.FS

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// notices are the fixed confirmations a redirect may ask a page to show.
var notices = map[string]string{
	"booked":    "Booking saved.",
	"updated":   "Players updated.",
	"cancelled": "Cancellation saved.",
	"saved":     "Changes saved.",
	"deleted":   "Deleted.",
	"welcome":   "Registration complete, welcome!",
}

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// formDecoder is a request body that can also be filled from an HTML form.
type formDecoder interface {
	fromForm(form url.Values) error
}

// errBadRequest is shown when a body cannot be parsed at all.
var errBadRequest = errors.New("The request could not be read.")

// decodeBody fills v from a JSON body or from a submitted form.
func decodeBody(r *http.Request, v formDecoder) error {
	if isJSONBody(r) {
		if err := strictDecode(r, v); err != nil {
			return errBadRequest
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return errBadRequest
	}
	return v.fromForm(r.PostForm)
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// wantsJSON reports whether the client should get JSON back: either it sent
// JSON or it asked for it.
func wantsJSON(r *http.Request) bool {
	return isJSONBody(r) || strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("internal_error", "event", "json_encode_failed", "error", err)
	}
}

// statusForKind maps an action failure to its HTTP status.
func statusForKind(kind orchestrators.ErrorKind) int {
	switch kind {
	case orchestrators.KindValidation:
		return http.StatusBadRequest
	case orchestrators.KindPolicy:
		return http.StatusUnprocessableEntity
	case orchestrators.KindConflict:
		return http.StatusConflict
	case orchestrators.KindAuthorization:
		return http.StatusForbidden
	case orchestrators.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the user-safe text of err. Anything that is not an
// action error is logged and replaced by a generic message.
func errorMessage(err error) string {
	var ae *orchestrators.ActionError
	if errors.As(err, &ae) {
		return ae.Message
	}
	if errors.Is(err, errBadRequest) {
		return errBadRequest.Error()
	}
	slog.Error("internal_error", "error", err.Error())
	return orchestrators.MsgSaveFailed
}

// errorStatus is statusForKind for any error, treating unreadable bodies as 400.
func errorStatus(err error) int {
	if errors.Is(err, errBadRequest) {
		return http.StatusBadRequest
	}
	return statusForKind(orchestrators.KindOf(err))
}

// writeJSONError answers a JSON client with {"error": ..., "kind": ...}.
func writeJSONError(w http.ResponseWriter, err error) {
	kind := orchestrators.KindOf(err)
	if errors.Is(err, errBadRequest) {
		kind = orchestrators.KindValidation
	}
	writeJSON(w, errorStatus(err), map[string]string{
		"error": errorMessage(err),
		"kind":  string(kind),
	})
}

// actorFrom resolves the signed-in user; the zero Actor when signed out.
func actorFrom(r *http.Request) orchestrators.Actor {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		return orchestrators.Actor{}
	}
	return orchestrators.Actor{ID: sess.UserID, Role: sess.Role}
}

// redirectWithNotice sends a browser back to path with a confirmation key.
func redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	http.Redirect(w, r, path+"?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

// pageData starts the data map of a page with its flash messages.
func pageData(r *http.Request, errMsg string) map[string]any {
	return map[string]any{
		"Error":  errMsg,
		"Notice": notices[r.URL.Query().Get("notice")],
	}
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	email := ""
	if ok {
		email = sess.Email
	}

	funcMap := template.FuncMap{
		"currentEmail":   func() string { return email },
		"isLoggedIn":     func() bool { return ok },
		"isAdmin":        func() bool { return ok && sess.Role == member.RoleAdmin },
		"csrfToken":      func() string { return csrf.Token(r) },
		"csrfField":      func() template.HTML { return csrf.TemplateField(r) },
		"renderMarkdown": renderMarkdown,
		"ft":             formatFt,
		"date":           func(t time.Time) string { return t.In(clubLocation).Format("2006-01-02") },
		"clock":          func(t time.Time) string { return t.In(clubLocation).Format("2006-01-02 15:04") },
		"hourLabel":      func(h int) string { return strconv.Itoa(h) + ":00" },
		"listURL":        func(path, query string) template.URL { return template.URL(path + "?" + query) },
		"optHour": func(h *int) string {
			if h == nil {
				return ""
			}
			return strconv.Itoa(*h) + ":00"
		},
		"join": strings.Join,
		"list": func(items ...string) []string { return items },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS,
		"templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// formatFt renders an amount in forints with space-grouped thousands.
func formatFt(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	b.WriteString(" Ft")
	return b.String()
}

// formInt parses a required integer form field.
func formInt(form url.Values, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(form.Get(key)))
	if err != nil {
		return 0, errBadRequest
	}
	return n, nil
}

// formOptionalInt parses an integer form field, nil when left empty.
func formOptionalInt(form url.Values, key string) (*int, error) {
	if strings.TrimSpace(form.Get(key)) == "" {
		return nil, nil
	}
	n, err := formInt(form, key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// formBool reads a checkbox.
func formBool(form url.Values, key string) bool {
	switch form.Get(key) {
	case "on", "true", "1":
		return true
	}
	return false
}

// formStrings collects a repeated field, dropping blanks.
func formStrings(form url.Values, key string) []string {
	var out []string
	for _, v := range form[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
