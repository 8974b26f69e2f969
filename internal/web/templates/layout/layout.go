// Package layout holds the page shell shared by every HTML page.
package layout

// PageData is common data for all pages
type PageData struct {
	Title string
}
