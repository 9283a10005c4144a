package browser_test

import (
	"fmt"
	"testing"

	"github.com/playwright-community/playwright-go"
)

// TestSmoke_NavigationCrawl verifies all major routes load without errors
func TestSmoke_NavigationCrawl(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)

	routes := []struct {
		path       string
		signedIn   bool
		wantStatus int
	}{
		{path: "/login", wantStatus: 200},
		{path: "/register", wantStatus: 200},
		{path: "/court-usage", wantStatus: 200},

		{path: "/bookings", signedIn: true, wantStatus: 200},
		{path: "/my-bookings", signedIn: true, wantStatus: 200},
		{path: "/finance", signedIn: true, wantStatus: 200},
		{path: "/admin/members", signedIn: true, wantStatus: 200},
		{path: "/admin/payments", signedIn: true, wantStatus: 200},
		{path: "/admin/fees", signedIn: true, wantStatus: 200},
		{path: "/admin/courts", signedIn: true, wantStatus: 200},
		{path: "/admin/closures", signedIn: true, wantStatus: 200},
		{path: "/admin/audit", signedIn: true, wantStatus: 200},
	}

	for _, route := range routes {
		t.Run(fmt.Sprintf("%s_signed_in_%v", route.path, route.signedIn), func(t *testing.T) {
			page := app.newPage(t)
			if route.signedIn {
				app.loginAdmin(t, page)
			}

			resp, err := page.Goto(app.BaseURL + route.path)
			if err != nil {
				t.Errorf("failed to navigate to %s: %v", route.path, err)
				return
			}
			if resp.Status() != route.wantStatus {
				t.Errorf("%s: got status %d, want %d", route.path, resp.Status(), route.wantStatus)
			}
		})
	}
}

// TestSmoke_NoConsoleErrors verifies pages load without CSP or script errors
func TestSmoke_NoConsoleErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)
	page := app.newPage(t)

	var errors []string
	page.On("console", func(msg playwright.ConsoleMessage) {
		if msg.Type() == "error" {
			errors = append(errors, msg.Text())
		}
	})

	app.loginAdmin(t, page)
	for _, path := range []string{"/bookings", "/court-usage", "/admin/fees"} {
		page.Goto(app.BaseURL + path)
		page.WaitForTimeout(500)
	}

	if len(errors) > 0 {
		t.Errorf("console errors found: %v", errors)
	}
}
