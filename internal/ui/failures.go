package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"tso/internal/domain"
	"tso/internal/storage"
)

// maxOutputLines caps the stdout and stderr shown for a failure
const maxOutputLines = 40

// FailureViewer displays the failed records of a journal in an
// interactive TUI
type FailureViewer struct {
	storage storage.Storage
}

// NewFailureViewer creates a FailureViewer. Resolved marks are saved to st.
func NewFailureViewer(st storage.Storage) *FailureViewer {
	return &FailureViewer{storage: st}
}

// View displays the failures of j
func (fv *FailureViewer) View(j *domain.Journal) error {
	failures := j.Failures()
	if len(failures) == 0 {
		color.Green("✓ No test failures found!")
		return nil
	}

	app := tview.NewApplication()
	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	updateListItem := func(index int) {
		if index < 0 || index >= list.GetItemCount() {
			return
		}
		list.SetItemText(index, listItemText(j.Records[failures[index]], index), "")
	}

	for i, rec := range failures {
		list.AddItem(listItemText(j.Records[rec], i), "", 0, nil)
	}

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)
	footerView := tview.NewTextView().
		SetDynamicColors(true)

	updateHeader := func() {
		headerView.SetText(headerText(j, failures))
	}
	updateHeader()

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index >= 0 && index < len(failures) {
			rec := j.Records[failures[index]]
			statsView.SetText(formatFailureStats(rec.Event, index+1))
			detailsView.SetText(formatFailureDetails(rec.Event))
		}
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp, tcell.KeyDown:
			return event
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'r' || event.Rune() == 'R' {
				index := list.GetCurrentItem()
				if index >= 0 && index < len(failures) {
					rec := &j.Records[failures[index]]
					rec.Resolved = !rec.Resolved
					updateListItem(index)
					updateHeader()
					updateDetails()
					footerView.SetText("")
					if err := fv.storage.Save(j); err != nil {
						footerView.SetText(fmt.Sprintf("[red]could not save: %v[white]", err))
					}
				}
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		updateDetails()
	})
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true).
		AddItem(footerView, 1, 0, false)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func headerText(j *domain.Journal, failures []int) string {
	unresolved := 0
	for _, i := range failures {
		if !j.Records[i].Resolved {
			unresolved++
		}
	}
	return fmt.Sprintf(" Test Failures (%d total, %d unresolved) | Use ↑↓ to navigate, [yellow]R[white] to mark resolved, → to view details, ← to go back, Ctrl+C to exit ", len(failures), unresolved)
}

func listItemText(rec domain.Record, index int) string {
	name := rec.Event.TestPath().String()
	if name == "" {
		name = fmt.Sprintf("Test %d", index+1)
	}
	if rec.Resolved {
		return fmt.Sprintf("[gray]✓ [yellow]%d.[gray] %s[white]", index+1, name)
	}
	return fmt.Sprintf("[yellow]%d.[white] %s", index+1, name)
}

// formatFailureDetails formats a failed event using tview color tags
func formatFailureDetails(ev *domain.CaseEvent) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "[red]✗ Test: %s[white]\n\n", ev.TestPath())
	fmt.Fprintf(w, "[cyan]File: %s[white]\n", ev.TestPath().File())
	fmt.Fprintf(w, "[cyan]Duration: %.2fs[white]\n\n", ev.Duration().Seconds())

	if stderr := strings.TrimSpace(ev.Stderr()); stderr != "" {
		fmt.Fprintf(w, "[yellow]Stderr:[white]\n%s\n\n", truncateLines(tview.Escape(stderr), maxOutputLines))
	}
	if stdout := strings.TrimSpace(ev.Stdout()); stdout != "" {
		fmt.Fprintf(w, "[yellow]Stdout:[white]\n%s\n", truncateLines(tview.Escape(stdout), maxOutputLines))
	}

	w.Flush()
	return builder.String()
}

// formatFailureStats formats the stats header for a failure
func formatFailureStats(ev *domain.CaseEvent, number int) string {
	path := ev.TestPath()
	file := path.File()
	if file == "" {
		file = "Unknown path"
	}

	testCase := ""
	if len(path) > 1 {
		testCase = path[len(path)-1].Name
	}
	if testCase == "" {
		testCase = fmt.Sprintf("Test %d", number)
	}

	return fmt.Sprintf("[cyan]path:[white] [yellow]%s[white]::[yellow]%s[white]\n", file, testCase)
}

// truncateLines keeps the last max lines of s, where tracebacks end
func truncateLines(s string, max int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	dropped := len(lines) - max
	return fmt.Sprintf("[gray]... %d earlier lines[white]\n", dropped) + strings.Join(lines[dropped:], "\n")
}
