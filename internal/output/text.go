package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/texbld/texbld-manager/internal/models"
)

// Printer writes colored human output. Colors are dropped automatically when
// the writer is not a terminal.
type Printer struct {
	w io.Writer

	errLabel   lipgloss.Style
	warnLabel  lipgloss.Style
	progLabel  lipgloss.Style
	doneLabel  lipgloss.Style
	heading    lipgloss.Style
	current    lipgloss.Style
	label      lipgloss.Style
	dim        lipgloss.Style
	inProgress bool
}

// NewPrinter returns a Printer bound to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:         w,
		errLabel:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warnLabel: r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		progLabel: r.NewStyle().Foreground(lipgloss.Color("3")),
		doneLabel: r.NewStyle().Foreground(lipgloss.Color("2")),
		heading:   r.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		current:   r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		label:     r.NewStyle().Bold(true),
		dim:       r.NewStyle().Faint(true),
	}
}

// Progress starts a step line: "Progress <msg> ". Done or Error finishes it.
func (p *Printer) Progress(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s ", p.progLabel.Render("Progress"), fmt.Sprintf(format, args...))
	p.inProgress = true
}

// Done finishes the pending step line.
func (p *Printer) Done() {
	fmt.Fprintln(p.w, p.doneLabel.Render("Done"))
	p.inProgress = false
}

// Error prints "Error: <msg>" and, for recoverable errors, a hint line.
func (p *Printer) Error(err error) {
	p.breakLine()
	fmt.Fprintf(p.w, "%s %s\n", p.errLabel.Render("Error:"), err.Error())

	var re models.RecoverableError
	if errors.As(err, &re) && re.SuggestedAction() != "" {
		fmt.Fprintf(p.w, "%s %s\n", p.dim.Render("hint:"), re.SuggestedAction())
	}
}

// Warn prints "Warning: <msg>".
func (p *Printer) Warn(format string, args ...any) {
	p.breakLine()
	fmt.Fprintf(p.w, "%s %s\n", p.warnLabel.Render("Warning:"), fmt.Sprintf(format, args...))
}

// Line prints an unstyled line.
func (p *Printer) Line(format string, args ...any) {
	p.breakLine()
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Heading prints a section title.
func (p *Printer) Heading(title string) {
	p.breakLine()
	fmt.Fprintln(p.w, p.heading.Render(title))
}

// Builds prints one row per build under title. The current build is marked
// with "*"; an empty list prints "(none)".
func (p *Printer) Builds(title string, builds []*models.Build) {
	p.Heading(title)
	if len(builds) == 0 {
		fmt.Fprintf(p.w, "  %s\n", p.dim.Render("(none)"))
		return
	}
	for _, b := range builds {
		fmt.Fprintln(p.w, p.BuildRow(b))
	}
}

// BuildRow formats a single build: marker, label, last-used time.
func (p *Printer) BuildRow(b *models.Build) string {
	marker := " "
	label := p.label.Render(b.Label())
	if b.Current {
		marker = p.current.Render("*")
		label = p.current.Render(b.Label())
	}

	used := "never used"
	if b.UsedAt != nil {
		used = "used " + b.UsedAt.Local().Format("2006-01-02 15:04:05")
	}

	var sb strings.Builder
	sb.WriteString(" ")
	sb.WriteString(marker)
	sb.WriteString(" ")
	sb.WriteString(label)
	sb.WriteString("  ")
	sb.WriteString(p.dim.Render(used))
	return sb.String()
}

func (p *Printer) breakLine() {
	if p.inProgress {
		fmt.Fprintln(p.w)
		p.inProgress = false
	}
}
