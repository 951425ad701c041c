package domain

import (
	"encoding/json"
	"strings"
)

// Page is a frontend screen the assistant can navigate to.
type Page int

const (
	PageNone Page = iota
	PageDashboard
	PageShopping
	PageStorage
	PageMeals
	PageCalendar
	PageCamera
)

// String returns the page identifier the frontend routes on.
func (p Page) String() string {
	switch p {
	case PageDashboard:
		return "dashboard"
	case PageShopping:
		return "shopping"
	case PageStorage:
		return "storage"
	case PageMeals:
		return "meals"
	case PageCalendar:
		return "calendar"
	case PageCamera:
		return "camera"
	default:
		return "none"
	}
}

var pageNames = map[string]Page{
	"dashboard": PageDashboard,
	"shopping":  PageShopping,
	"storage":   PageStorage,
	"meals":     PageMeals,
	"calendar":  PageCalendar,
	"camera":    PageCamera,
	"none":      PageNone,
}

// PageFromString converts a page identifier to a Page.
// Returns PageNone for unrecognized names.
func PageFromString(name string) Page {
	if p, ok := pageNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return PageNone
}

// MarshalJSON encodes the page as its identifier.
func (p Page) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts a page identifier.
func (p *Page) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = PageFromString(s)
	return nil
}
