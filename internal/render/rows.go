package render

import (
	"html"
	"strings"

	"github.com/leslieo2/go-status-board/internal/status"
)

// Row labels and indicator markup.
const (
	ServiceLabel = "Service"
	StatusLabel  = "Status"

	upCell        = `<td><div class="alert alert-success">Up</div></td>`
	downCellOpen  = `<td><div class="alert alert-danger">Down: `
	errorCellOpen = `<td><div class="alert alert-warning">Unavailable: `
	alertClose    = `</div></td>`
)

// Rows turns a status response into the inner markup of the service row
// and the status row. Both rows start with their label cell and then carry
// one cell per service, in response order.
func Rows(resp status.Response) (serviceRow, statusRow string) {
	var services, stats strings.Builder
	services.WriteString(cell(ServiceLabel))
	stats.WriteString(cell(StatusLabel))

	for _, e := range resp {
		services.WriteString(cell(e.Name))
		if e.Status.Up {
			stats.WriteString(upCell)
		} else {
			stats.WriteString(downCellOpen)
			stats.WriteString(html.EscapeString(e.Status.FailureReason))
			stats.WriteString(alertClose)
		}
	}

	return services.String(), stats.String()
}

// ErrorRows is what the board shows when the status endpoint could not be read.
func ErrorRows(err error) (serviceRow, statusRow string) {
	return cell(ServiceLabel), cell(StatusLabel) + errorCellOpen + html.EscapeString(err.Error()) + alertClose
}

func cell(text string) string {
	return "<td>" + html.EscapeString(text) + "</td>"
}
