package tui

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/estimator/internal/lead"
	"github.com/fyrsmithlabs/estimator/internal/session"
)

var fieldLabels = [fieldCount]string{"Name", "Email", "Zip", "Phone"}

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.view.Screen {
	case session.ScreenHome:
		body = m.renderHome()
	case session.ScreenCategory:
		body = m.renderCategory()
	case session.ScreenForm:
		body = m.renderForm()
	case session.ScreenResults:
		body = m.renderResults()
	default:
		body = m.renderError()
	}

	if m.busy {
		body += "\n" + dimStyle.Render("Working...")
	}
	if m.err != nil {
		body += "\n" + errorStyle.Render("⚠ "+m.err.Error())
	}
	return containerStyle.Render(body)
}

func (m Model) renderHome() string {
	var b strings.Builder
	title := "Estimate Calculator"
	if m.home != nil && m.home.Headline != "" {
		title = m.home.Headline
	}
	b.WriteString(headerStyle.Render(title) + "\n")

	switch {
	case m.home == nil && m.err == nil:
		b.WriteString("\n" + dimStyle.Render("Loading categories...") + "\n")
	case m.home != nil:
		if m.home.HelpText != "" {
			b.WriteString(dimStyle.Render(m.home.HelpText) + "\n")
		}
		b.WriteString(sectionStyle.Render("┃ Choose a project") + "\n")
		for i, c := range m.home.Categories {
			b.WriteString(m.row(i == m.cursor, false, c.Title) + "\n")
		}
	}

	b.WriteString("\n" + footer("↑/↓", "move", "enter", "open", "r", "reload", "q", "quit"))
	return b.String()
}

func (m Model) renderCategory() string {
	c := m.view.Category
	var b strings.Builder
	b.WriteString(headerStyle.Render(c.Title) + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Question %d of %d", c.QuestionIndex+1, c.QuestionCount)) + "\n")

	b.WriteString(sectionStyle.Render("┃ "+c.Question.Text) + "\n")
	if c.Question.HelpText != "" {
		b.WriteString(dimStyle.Render(c.Question.HelpText) + "\n")
	}
	for i, o := range c.Question.Options {
		selected := c.Selected != nil && *c.Selected == i
		b.WriteString(m.row(i == m.cursor, selected, o.ShortDescription) + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + warningStyle.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + footer("enter", "select", "n", "next", "p", "previous", "b", "back", "r", "restart", "q", "quit"))
	return b.String()
}

func (m Model) renderForm() string {
	var b strings.Builder
	headline := "Where should we send your estimate?"
	if c := m.view.Category; c != nil && c.FormFields.Headline != "" {
		headline = c.FormFields.Headline
	}
	b.WriteString(headerStyle.Render(headline) + "\n")
	if c := m.view.Category; c != nil && c.FormFields.Description != "" {
		b.WriteString(dimStyle.Render(c.FormFields.Description) + "\n")
	}
	b.WriteString("\n")

	for i, in := range m.inputs {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-6s", fieldLabels[i])) + " " + in.View() + "\n")
		if msg, ok := m.fieldErrs[fieldKeys[i]]; ok {
			b.WriteString("       " + errorStyle.Render(msg) + "\n")
		}
	}

	if c := m.view.Category; c != nil && c.FormFields.FooterText != "" {
		b.WriteString("\n" + dimStyle.Render(c.FormFields.FooterText) + "\n")
	}
	b.WriteString("\n" + footer("tab", "next field", "enter", "submit", "esc", "back", "ctrl+c", "quit"))
	return b.String()
}

func (m Model) renderResults() string {
	var b strings.Builder
	headline := "Your Estimate"
	if r := m.view.Results; r != nil && r.Headline != "" {
		headline = r.Headline
	}
	b.WriteString(headerStyle.Render(headline) + "\n")
	if r := m.view.Results; r != nil && r.Description != "" {
		b.WriteString(dimStyle.Render(r.Description) + "\n")
	}

	if est := m.view.Estimate; est != nil {
		b.WriteString(sectionStyle.Render("┃ "+est.CategoryTitle) + "\n")
		for _, li := range est.LineItems {
			b.WriteString(labelStyle.Render("  "+li.Question+": ") +
				valueStyle.Render(li.Label) + "  " +
				dimStyle.Render(m.formatter.Range(li.Min, li.Max)) + "\n")
		}
		b.WriteString(labelStyle.Render("  Estimate Total: ") +
			valueStyle.Render(m.formatter.Range(est.Min, est.Max)) + "\n")
	}

	b.WriteString("\n" + m.renderSubmission() + "\n")

	if r := m.view.Results; r != nil {
		if r.Disclaimer != "" {
			b.WriteString("\n" + dimStyle.Render(r.Disclaimer) + "\n")
		}
		if r.FooterText != "" {
			b.WriteString(dimStyle.Render(r.FooterText) + "\n")
		}
	}

	pairs := []string{"r", "restart", "q", "quit"}
	if s := m.view.Submission; s != nil && s.State == lead.Failed {
		pairs = append([]string{"t", "try again"}, pairs...)
	}
	b.WriteString("\n" + footer(pairs...))
	return b.String()
}

func (m Model) renderSubmission() string {
	s := m.view.Submission
	if s == nil {
		return ""
	}
	switch s.State {
	case lead.Completed:
		to := ""
		if c := m.view.Contact; c != nil {
			to = " to " + c.Email
		}
		return selectedStyle.Render("✓ Your estimate has been sent" + to + ".")
	case lead.Failed:
		return errorStyle.Render(fmt.Sprintf("✗ We couldn't finish sending your estimate (%s). Press t to try again.", s.FailedStep))
	default:
		return dimStyle.Render("Sending your estimate...")
	}
}

func (m Model) renderError() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Something went wrong") + "\n\n")
	msg := m.view.Error
	if msg == "" {
		msg = "An unexpected error occurred."
	}
	b.WriteString(errorStyle.Render("⚠ "+msg) + "\n")

	pairs := []string{"b", "back", "r", "restart", "q", "quit"}
	if m.view.Submission != nil {
		pairs = append([]string{"t", "try again"}, pairs...)
	}
	b.WriteString("\n" + footer(pairs...))
	return b.String()
}

// row renders a list entry with the cursor marker and selection box.
func (m Model) row(cursor, selected bool, text string) string {
	marker := "  "
	if cursor {
		marker = "> "
	}
	if m.view.Screen != session.ScreenCategory {
		if cursor {
			return selectedStyle.Render(marker + text)
		}
		return marker + text
	}
	box := "[ ] "
	if selected {
		box = "[x] "
		return selectedStyle.Render(marker + box + text)
	}
	return marker + box + text
}
