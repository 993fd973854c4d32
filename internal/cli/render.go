package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vrsandeep/contentsync-go/internal/models"
)

const (
	columnWidthID     = 38
	columnWidthType   = 22
	columnWidthStatus = 12
	previewWidth      = 60
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func statusColor(s models.JobStatus) lipgloss.Color {
	switch s {
	case models.JobStatusQueued:
		return lipgloss.Color("8")
	case models.JobStatusPending:
		return lipgloss.Color("11")
	case models.JobStatusProcessing:
		return lipgloss.Color("12")
	case models.JobStatusCompleted:
		return lipgloss.Color("10")
	case models.JobStatusFailed:
		return lipgloss.Color("9")
	}
	return lipgloss.Color("7")
}

func statusText(c *models.Content) string {
	if c.JobStatus == nil {
		return "-"
	}
	return string(*c.JobStatus)
}

func renderStatus(c *models.Content) string {
	style := lipgloss.NewStyle().Width(columnWidthStatus)
	if c.JobStatus != nil {
		style = style.Foreground(statusColor(*c.JobStatus))
	}
	return style.Render(statusText(c))
}

func renderTable(w io.Writer, items []*models.Content, p models.Pagination) {
	idStyle := lipgloss.NewStyle().Width(columnWidthID)
	typeStyle := lipgloss.NewStyle().Width(columnWidthType)

	fmt.Fprintln(w, headerStyle.Render(
		idStyle.Render("ID")+typeStyle.Render("TYPE")+lipgloss.NewStyle().Width(columnWidthStatus).Render("STATUS")+"TOPIC"))
	for _, c := range items {
		fmt.Fprintln(w, idStyle.Render(c.ID)+typeStyle.Render(string(c.ContentType))+renderStatus(c)+c.Topic)
	}
	if len(items) == 0 {
		fmt.Fprintln(w, faintStyle.Render("No content yet."))
	}
	fmt.Fprintln(w, faintStyle.Render(fmt.Sprintf("Page %d of %d (%d total)", p.Page, p.TotalPages, p.Total)))
}

func renderContent(w io.Writer, c *models.Content) {
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("ID:"), c.ID)
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Topic:"), c.Topic)
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Type:"), c.ContentType)
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Status:"), renderStatus(c))
	if jobID := c.JobIDValue(); jobID != "" {
		fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Job:"), jobID)
	}
	if c.HasContent() {
		fmt.Fprintf(w, "\n%s\n", *c.Content)
	}
}

func renderTransition(w io.Writer, c *models.Content) {
	line := fmt.Sprintf("%s %s", c.ID, renderStatus(c))
	if c.GeneratedContent != nil && *c.GeneratedContent != "" {
		line += " " + faintStyle.Render(preview(*c.GeneratedContent))
	}
	fmt.Fprintln(w, strings.TrimRight(line, " "))
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= previewWidth {
		return s
	}
	return s[:previewWidth-3] + "..."
}
