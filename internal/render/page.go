package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/leslieo2/go-status-board/internal/constants"
)

//go:embed templates/page.html.tmpl
var pageTmpl string

// pageData is the data of the status page template
type pageData struct {
	Title        string
	ServiceRowID string
	StatusRowID  string
	ServiceRow   template.HTML
	StatusRow    template.HTML
	RenderedAt   string
}

// Page renders the status page around a document's mount points.
type Page struct {
	title string
	tpl   *template.Template
}

// NewPage parses the page template.
func NewPage(title string) (*Page, error) {
	tpl, err := template.New("page").Parse(pageTmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return &Page{title: title, tpl: tpl}, nil
}

// Write renders the page with the current content of doc.
func (p *Page) Write(w io.Writer, doc *Document) error {
	rows := doc.Inners(constants.MountServiceRow, constants.MountStatusRow)
	data := pageData{
		Title:        p.title,
		ServiceRowID: constants.MountServiceRow,
		StatusRowID:  constants.MountStatusRow,
		// row markup is built from escaped cells
		ServiceRow: template.HTML(rows[0]), // #nosec G203
		StatusRow:  template.HTML(rows[1]), // #nosec G203
		RenderedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return p.tpl.Execute(w, data)
}
