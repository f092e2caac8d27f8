package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"exam-drill-service/internal/app"
	"exam-drill-service/internal/domain"
)

type styles struct {
	header      lipgloss.Style
	prompt      lipgloss.Style
	selected    lipgloss.Style
	option      lipgloss.Style
	explanation lipgloss.Style
	overlay     lipgloss.Style
	notice      lipgloss.Style
	dim         lipgloss.Style
	pass        lipgloss.Style
	fail        lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{
			header: plain.Bold(true), prompt: plain, selected: plain.Bold(true), option: plain,
			explanation: plain, overlay: plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
			notice: plain, dim: plain, pass: plain.Bold(true), fail: plain.Bold(true),
		}
	}
	return styles{
		header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		prompt:      lipgloss.NewStyle().Bold(true),
		selected:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		option:      lipgloss.NewStyle(),
		explanation: lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
		overlay:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1),
		notice:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		pass:        lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		fail:        lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

// FormatClock renders seconds as mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func renderHeader(st styles, v app.SessionView, bar progress.Model) string {
	ratio := 0.0
	if v.Total > 0 {
		ratio = float64(v.AnsweredCount) / float64(v.Total)
	}
	line := fmt.Sprintf("Question %d/%d   %s   answered %d/%d", v.Index+1, v.Total, FormatClock(v.SecondsRemaining), v.AnsweredCount, v.Total)
	if v.WrongCount > 0 {
		line += fmt.Sprintf("   missed %dx before", v.WrongCount)
	}
	return lipgloss.JoinVertical(lipgloss.Left, st.header.Render(line), bar.ViewAs(ratio))
}

func renderQuestion(st styles, v app.SessionView) string {
	var b strings.Builder
	b.WriteString(st.prompt.Render(v.Prompt))
	b.WriteString("\n")
	if v.MultiSelect {
		b.WriteString(st.dim.Render(fmt.Sprintf("Select %d (%d selected)", v.RequiredSelections, v.SelectedCount)))
		b.WriteString("\n")
	}
	if v.Defective {
		b.WriteString(st.notice.Render("This question has no usable options and is counted as correct."))
		b.WriteString("\n")
	}
	for _, opt := range v.Options {
		marker := "[ ]"
		style := st.option
		if opt.Label != "" && strings.Contains(v.Answer, opt.Label) {
			marker = "[x]"
			style = st.selected
		}
		b.WriteString(style.Render(fmt.Sprintf("%s %s. %s", marker, opt.Label, opt.Text)))
		b.WriteString("\n")
	}
	return b.String()
}

func explanationText(v app.SessionView) string {
	text := v.Question.Explanation
	if v.Display.ShowOriginal && v.Question.OriginalExplanation != "" {
		text = v.Question.OriginalExplanation
	}
	return fmt.Sprintf("Answer: %s\n%s", v.Question.CorrectAnswer, text)
}

func renderResult(st styles, res domain.GradeResult) string {
	verdict := st.fail.Render("FAIL")
	if res.IsPass {
		verdict = st.pass.Render("PASS")
	}
	lines := []string{
		st.header.Render("Result"),
		fmt.Sprintf("Score %d (pass mark %d)  %s", res.Score, res.PassMark, verdict),
		fmt.Sprintf("Correct %d of %d graded (%d total)", res.CorrectCount, res.GradedQuestions, res.TotalQuestions),
		fmt.Sprintf("Unanswered %d   time taken %s", res.Unanswered, FormatClock(res.TimeTakenSeconds)),
		"",
		st.dim.Render("Press q to quit."),
	}
	return strings.Join(lines, "\n")
}
