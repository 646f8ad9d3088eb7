// Package web embeds the HTML views.
package web

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"flea/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses every view. Template names are the file names.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
}

// CurrentUser is the signed-in visitor as seen by the layout.
type CurrentUser struct {
	Authenticated bool
	ID            uuid.UUID
	Username      string
	Name          string
	ProfilePic    string
	IsAdmin       bool
	IsModerator   bool
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"price": func(d decimal.Decimal) string { return "$ " + d.StringFixed(2) },
		"priceInput": func(d decimal.Decimal) string {
			if d.IsZero() {
				return ""
			}
			return d.StringFixed(2)
		},
		"date":     func(t time.Time) string { return t.Local().Format("02/01/2006") },
		"datetime": func(t time.Time) string { return t.Local().Format("02/01/2006 15:04") },
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
		"contains": func(list []string, s string) bool {
			for _, v := range list {
				if strings.EqualFold(v, s) {
					return true
				}
			}
			return false
		},
		"statusBadge": func(s model.ProductStatus) string {
			if s == model.StatusSold {
				return "secondary"
			}
			return "success"
		},
		"flashClass": func(kind string) string {
			switch kind {
			case "success":
				return "success"
			case "error":
				return "danger"
			}
			return "info"
		},
	}
}
