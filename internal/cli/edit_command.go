package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"imgseo/internal/batch"
	"imgseo/internal/model"
	"imgseo/internal/profile"
)

type editMode int

const (
	editModeBrowse editMode = iota
	editModeForm
	editModeDeleteConfirm
	editModeRun
)

// Action rows rendered after the work items in the browse list.
const (
	editActionAddImage = iota
	editActionDefaults
	editActionPolicy
	editActionStartRun
	editActionCount
)

var editActionLabels = [editActionCount]string{
	"[+] Add Image",
	"Batch Defaults",
	"Output Policy",
	"Start Run",
}

type editModel struct {
	profilePath string
	prof        profile.Profile
	cursor      int
	width       int
	height      int
	mode        editMode
	form        *editForm

	confirmDeleteIndex int
	statusMessage      string
	fatalErr           error

	// run monitor state
	runner   *batch.Runner
	ch       *batch.Channel
	cancel   context.CancelFunc
	bar      progress.Model
	pct      float64
	done     int
	total    int
	logTail  []string
	summary  *batch.Summary
	canceled bool
}

type editSavedMsg struct {
	message string
	err     error
}

type editTickMsg struct{}

var (
	editTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	editMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	editErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	editOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	editPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	editSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

func runEdit(args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	profilePath := fs.String("profile", DefaultProfilePath, "profile JSON path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("edit requires an interactive terminal (TTY)")
	}

	path := strings.TrimSpace(*profilePath)
	prof, err := loadOrInitProfile(path)
	if err != nil {
		return err
	}

	m := editModel{
		profilePath: path,
		prof:        prof,
		mode:        editModeBrowse,
		runner:      &batch.Runner{},
		bar:         progress.New(progress.WithDefaultGradient()),
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("edit requires an interactive terminal (TTY)")
		}
		return err
	}
	if fm, ok := finalModel.(editModel); ok {
		return fm.fatalErr
	}
	return nil
}

func loadOrInitProfile(path string) (profile.Profile, error) {
	p, err := profile.Load(path)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return profile.New(), nil
	}
	return profile.Profile{}, err
}

func (m editModel) Init() tea.Cmd {
	return nil
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = clampInt(m.width-10, 20, 80)
		if m.form != nil {
			m.form.resizeInput(m.width)
		}
		return m, nil
	case editSavedMsg:
		if msg.err != nil {
			if m.form != nil {
				m.form.Error = msg.err.Error()
				m.form.Saving = false
			} else {
				m.statusMessage = "error: " + msg.err.Error()
			}
			return m, nil
		}
		m.mode = editModeBrowse
		m.form = nil
		m.statusMessage = msg.message
		return m, nil
	case editTickMsg:
		return m.updateRunTick()
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.mode {
	case editModeBrowse:
		return m.updateBrowse(keyMsg)
	case editModeForm:
		return m.updateForm(keyMsg)
	case editModeDeleteConfirm:
		return m.updateDeleteConfirm(keyMsg)
	case editModeRun:
		return m.updateRunKeys(keyMsg)
	default:
		return m, nil
	}
}

func (m editModel) totalBrowseRows() int {
	return len(m.prof.Items) + editActionCount
}

func (m editModel) selectedActionIndex() int {
	if m.cursor < len(m.prof.Items) {
		return -1
	}
	return m.cursor - len(m.prof.Items)
}

func (m editModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	total := m.totalBrowseRows()
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < total-1 {
			m.cursor++
		}
		return m, nil
	case "n":
		m.mode = editModeForm
		m.form = newItemForm(nil, m.width)
		m.statusMessage = ""
		return m, nil
	case "s":
		return m.startRun()
	case "d":
		if m.cursor >= len(m.prof.Items) {
			m.statusMessage = "select a work item to remove"
			return m, nil
		}
		m.mode = editModeDeleteConfirm
		m.confirmDeleteIndex = m.cursor
		return m, nil
	case "enter", "e":
		switch m.selectedActionIndex() {
		case editActionAddImage:
			m.mode = editModeForm
			m.form = newItemForm(nil, m.width)
			m.statusMessage = ""
			return m, nil
		case editActionDefaults:
			m.mode = editModeForm
			m.form = newDefaultsForm(m.prof.Defaults, m.width)
			m.statusMessage = ""
			return m, nil
		case editActionPolicy:
			m.mode = editModeForm
			m.form = newPolicyForm(m.prof, m.width)
			m.statusMessage = ""
			return m, nil
		case editActionStartRun:
			return m.startRun()
		}
		if len(m.prof.Items) == 0 {
			m.statusMessage = "no work items yet; press n to add one"
			return m, nil
		}
		item := m.prof.Items[m.cursor]
		m.mode = editModeForm
		m.form = newItemForm(&item, m.width)
		m.statusMessage = ""
		return m, nil
	}
	return m, nil
}

func (m editModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.mode = editModeBrowse
		return m, nil
	}
	if m.form.Saving {
		return m, nil
	}

	key := strings.ToLower(msg.String())
	switch key {
	case "ctrl+c", "esc":
		m.mode = editModeBrowse
		m.form = nil
		m.statusMessage = "edit cancelled"
		return m, nil
	case "up", "shift+tab":
		m.form.commitInput()
		if m.form.Index > 0 {
			m.form.Index--
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case "down", "tab":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 {
			m.form.Index++
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case " ", "space", "left", "right", "h", "l":
		if m.form.currentField().Kind == editFieldBool {
			m.form.toggleBoolField()
			return m, nil
		}
	case "y":
		if m.form.currentField().Kind == editFieldBool {
			m.form.setBoolField(true)
			return m, nil
		}
	case "n":
		if m.form.currentField().Kind == editFieldBool {
			m.form.setBoolField(false)
			return m, nil
		}
	case "enter", "ctrl+s":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 && key != "ctrl+s" {
			m.form.Index++
			m.form.loadFieldIntoInput()
			return m, nil
		}
		prof, message, err := m.form.apply(m.prof)
		if err != nil {
			m.form.Error = err.Error()
			return m, nil
		}
		m.form.Error = ""
		m.form.Saving = true
		m.prof = prof
		return m, saveProfileCmd(m.profilePath, prof, message)
	}

	if m.form.currentField().Kind == editFieldBool {
		return m, nil
	}
	var cmd tea.Cmd
	m.form.Input, cmd = m.form.Input.Update(msg)
	m.form.Fields[m.form.Index].Value = m.form.Input.Value()
	return m, cmd
}

func (m editModel) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "n":
		m.mode = editModeBrowse
		m.statusMessage = "remove cancelled"
		return m, nil
	case "y", "enter":
		idx := m.confirmDeleteIndex
		if idx < 0 || idx >= len(m.prof.Items) {
			m.mode = editModeBrowse
			return m, nil
		}
		removed := m.prof.Items[idx].SourcePath
		m.prof.Items = append(m.prof.Items[:idx], m.prof.Items[idx+1:]...)
		if m.cursor >= m.totalBrowseRows() {
			m.cursor = m.totalBrowseRows() - 1
		}
		m.mode = editModeBrowse
		return m, saveProfileCmd(m.profilePath, m.prof, "removed: "+removed)
	}
	return m, nil
}

func (m editModel) startRun() (tea.Model, tea.Cmd) {
	if err := profile.Validate(m.prof); err != nil {
		m.statusMessage = "error: " + err.Error()
		return m, nil
	}
	if m.runner.Active() {
		m.statusMessage = "error: " + batch.ErrRunActive.Error()
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := batch.NewChannel()
	if err := m.runner.Start(ctx, batch.Options{
		Items:       m.prof.Items,
		Defaults:    m.prof.Defaults,
		Config:      m.prof.Config,
		OutputDir:   m.prof.OutputDir,
		ExiftoolBin: m.prof.ExiftoolBin,
	}, ch); err != nil {
		cancel()
		m.statusMessage = "error: " + err.Error()
		return m, nil
	}

	m.mode = editModeRun
	m.ch = ch
	m.cancel = cancel
	m.pct = 0
	m.done = 0
	m.total = len(m.prof.Items)
	m.logTail = nil
	m.summary = nil
	m.canceled = false
	m.statusMessage = ""
	return m, editTickCmd()
}

func (m editModel) updateRunTick() (tea.Model, tea.Cmd) {
	if m.mode != editModeRun || m.ch == nil {
		return m, nil
	}
	for _, msg := range m.ch.Drain() {
		switch v := msg.(type) {
		case batch.LogMsg:
			m.logTail = append(m.logTail, v.Line)
			if len(m.logTail) > 200 {
				m.logTail = m.logTail[len(m.logTail)-200:]
			}
		case batch.ProgressMsg:
			m.done = v.Done
			m.total = v.Total
			if v.Total > 0 {
				m.pct = float64(v.Done) / float64(v.Total)
			}
		case batch.DoneMsg:
			sum := v.Summary
			m.summary = &sum
			m.pct = 1
		}
	}
	if m.summary != nil {
		return m, nil
	}
	return m, editTickCmd()
}

func (m editModel) updateRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "x":
		if m.summary == nil && m.cancel != nil {
			m.cancel()
			m.canceled = true
			m.statusMessage = "cancel requested; finishing current item"
		}
		return m, nil
	case "q", "esc", "enter":
		if m.summary == nil {
			m.statusMessage = "run in progress; x cancels"
			return m, nil
		}
		if m.cancel != nil {
			m.cancel()
		}
		m.mode = editModeBrowse
		m.ch = nil
		m.statusMessage = fmt.Sprintf("run finished: ok=%d failed=%d", m.summary.Succeeded, m.summary.Failed)
		return m, nil
	}
	return m, nil
}

func (m editModel) View() string {
	if m.fatalErr != nil {
		return editErrorStyle.Render("fatal: " + m.fatalErr.Error())
	}
	if m.width <= 0 {
		m.width = 100
	}
	if m.height <= 0 {
		m.height = 30
	}

	switch m.mode {
	case editModeForm:
		return m.viewForm()
	case editModeDeleteConfirm:
		return m.viewDeleteConfirm()
	case editModeRun:
		return m.viewRun()
	default:
		return m.viewBrowse()
	}
}

func (m editModel) viewBrowse() string {
	header := editTitleStyle.Render("imgseo edit") + "\n" +
		editMutedStyle.Render("up/down: move | enter/e: edit | n: add image | d: remove | s: start run | q: quit")

	leftW := m.width
	rightW := 0
	wide := m.width >= 90
	if wide {
		leftW = clampInt(m.width/2, 34, 56)
		rightW = m.width - leftW - 1
	}

	list := m.renderListPanel(leftW)
	var body string
	if wide {
		details := m.renderDetailsPanel(rightW)
		body = lipgloss.JoinHorizontal(lipgloss.Top, list, details)
	} else {
		details := m.renderDetailsPanel(m.width)
		body = lipgloss.JoinVertical(lipgloss.Left, list, details)
	}
	status := m.renderStatusLine(m.width)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

func (m editModel) renderListPanel(width int) string {
	total := m.totalBrowseRows()
	maxRows := clampInt(m.height-12, 4, 20)
	start, end := listWindow(total, m.cursor, maxRows)

	lines := make([]string, 0, maxRows+3)
	if len(m.prof.Items) == 0 {
		lines = append(lines, editMutedStyle.Render("Work list is empty."))
	}
	if start > 0 {
		lines = append(lines, editMutedStyle.Render("..."))
	}
	for i := start; i < end; i++ {
		line := ""
		if i < len(m.prof.Items) {
			it := m.prof.Items[i]
			mark := " "
			if it.FinalNameOverride != "" || it.Overrides != (model.MetadataOverrides{}) {
				mark = "*"
			}
			line = fmt.Sprintf("[%s] %s", mark, it.SourcePath)
		} else {
			line = editActionLabels[i-len(m.prof.Items)]
		}
		line = truncateRunes(line, maxInt(width-6, 10))
		if i == m.cursor {
			line = editSelStyle.Width(maxInt(width-4, 6)).Render(line)
		}
		lines = append(lines, line)
	}
	if end < total {
		lines = append(lines, editMutedStyle.Render("..."))
	}

	return editPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m editModel) renderDetailsPanel(width int) string {
	var lines []string
	switch m.selectedActionIndex() {
	case editActionAddImage:
		lines = []string{"Add Image", "", "Press Enter to add a source file to the work list."}
	case editActionDefaults:
		d := m.prof.Defaults
		lines = []string{
			"Batch Defaults", "",
			kv("author", defaultIfEmpty(d.Author, "(unset)")),
			kv("title", defaultIfEmpty(d.Title, "(unset)")),
			kv("alt_text", defaultIfEmpty(d.AltText, "(unset)")),
			kv("description", defaultIfEmpty(d.Description, "(unset)")),
			kv("keywords", defaultIfEmpty(d.Keywords, "(unset)")),
			kv("copyright", defaultIfEmpty(d.Copyright, "(unset)")),
			kv("license", defaultIfEmpty(d.LicenseURL, "(unset)")),
			kv("gps", gpsSummary(d)),
		}
	case editActionPolicy:
		c := m.prof.Config
		lines = []string{
			"Output Policy", "",
			kv("output_dir", m.prof.OutputDir),
			kv("exiftool", m.prof.ExiftoolBin),
			kv("jpg_quality", fmt.Sprintf("%d", c.JPEGQuality)),
			kv("webp_quality", fmt.Sprintf("%d", c.WEBPQuality)),
			kv("max_width", fmt.Sprintf("%d", c.MaxWidth)),
			kv("max_height", fmt.Sprintf("%d", c.MaxHeight)),
			kv("convert_to_jpeg", yesNo(c.ConvertToJPEG)),
			kv("make_webp", yesNo(c.MakeWebp)),
			kv("flatten_white", yesNo(c.FlattenWhite)),
			kv("strip_metadata", yesNo(c.StripMetadata)),
			kv("force_dpi96", yesNo(c.ForceDPI96)),
			kv("overwrite", yesNo(c.Overwrite)),
			kv("rename_after_meta", yesNo(c.RenameAfterMeta)),
			kv("delete_source", yesNo(c.DeleteSource)),
		}
	case editActionStartRun:
		lines = []string{
			"Start Run", "",
			fmt.Sprintf("%d work item(s) -> %s", len(m.prof.Items), m.prof.OutputDir),
			"",
			"Press Enter to start. One run at a time.",
		}
	default:
		if len(m.prof.Items) == 0 {
			lines = []string{"No work items", "", "Press n to add the first image."}
			break
		}
		it := m.prof.Items[m.cursor]
		lines = []string{
			"Work Item", "",
			kv("source", it.SourcePath),
			kv("final_name", defaultIfEmpty(it.FinalNameOverride, "(source stem)")),
			kv("title", defaultIfEmpty(it.Overrides.Title, "(batch default)")),
			kv("alt_text", defaultIfEmpty(it.Overrides.AltText, "(batch default)")),
			kv("description", defaultIfEmpty(it.Overrides.Description, "(batch default)")),
			kv("keywords", defaultIfEmpty(it.Overrides.Keywords, "(batch default)")),
		}
	}

	for i := range lines {
		lines[i] = wrapOrTrim(lines[i], maxInt(width-6, 12))
	}
	return editPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m editModel) renderStatusLine(width int) string {
	msg := strings.TrimSpace(m.statusMessage)
	if msg == "" {
		msg = "Tip: * marks items with per-item overrides."
	}
	style := editMutedStyle
	switch {
	case strings.HasPrefix(strings.ToLower(msg), "error:"):
		style = editErrorStyle
	case strings.HasPrefix(strings.ToLower(msg), "saved"),
		strings.HasPrefix(strings.ToLower(msg), "removed"),
		strings.HasPrefix(strings.ToLower(msg), "run finished"):
		style = editOKStyle
	}
	return style.Width(width).Render(truncateRunes(msg, maxInt(width-2, 10)))
}

func (m editModel) viewForm() string {
	if m.form == nil {
		return ""
	}
	header := editTitleStyle.Render(m.form.Title)
	hints := editMutedStyle.Render("tab/up/down: move | space/y/n: toggle | enter: next/save | ctrl+s: save | esc: cancel")

	lines := make([]string, 0, len(m.form.Fields)+6)
	for i, f := range m.form.Fields {
		prefix := "  "
		if i == m.form.Index {
			prefix = "> "
		}
		display := strings.TrimSpace(f.Value)
		if f.Kind == editFieldBool {
			v, _ := parseBool(display)
			display = yesNo(v)
		}
		if display == "" {
			display = editMutedStyle.Render("(empty)")
		}
		lines = append(lines, wrapOrTrim(fmt.Sprintf("%s%s: %s", prefix, f.Label, display), maxInt(m.width-6, 20)))
	}

	curr := m.form.currentField()
	inputLabel := fmt.Sprintf("\n%s\n", curr.Label)
	inputHelp := ""
	if strings.TrimSpace(curr.Help) != "" {
		inputHelp = editMutedStyle.Render(curr.Help) + "\n"
	}
	status := ""
	if m.form.Saving {
		status = editMutedStyle.Render("\nSaving...")
	}
	if strings.TrimSpace(m.form.Error) != "" {
		status = "\n" + editErrorStyle.Render(m.form.Error)
	}

	panel := editPanelStyle.Width(maxInt(m.width, 40)).Render(
		strings.Join(lines, "\n") + inputLabel + inputHelp + m.form.Input.View() + status)
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel)
}

func (m editModel) viewDeleteConfirm() string {
	name := ""
	if m.confirmDeleteIndex >= 0 && m.confirmDeleteIndex < len(m.prof.Items) {
		name = m.prof.Items[m.confirmDeleteIndex].SourcePath
	}
	text := fmt.Sprintf(
		"Remove '%s' from the work list?\n\nThe source file stays on disk.\n\nPress y or Enter to confirm, n or Esc to cancel.",
		name,
	)
	boxW := clampInt(m.width-8, 36, 80)
	boxH := clampInt(m.height-6, 8, 12)
	panel := editPanelStyle.Width(boxW).Height(boxH).Render(text)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

func (m editModel) viewRun() string {
	header := editTitleStyle.Render("imgseo run")
	hint := "x: cancel after current item"
	if m.summary != nil {
		hint = "q/enter: back to work list"
	}
	hints := editMutedStyle.Render(hint)

	counter := fmt.Sprintf("processed %d/%d", m.done, m.total)
	if m.canceled && m.summary == nil {
		counter += "  (canceling)"
	}
	bar := m.bar.ViewAs(m.pct)

	tailRows := clampInt(m.height-12, 4, 24)
	tail := m.logTail
	if len(tail) > tailRows {
		tail = tail[len(tail)-tailRows:]
	}
	logLines := make([]string, 0, len(tail))
	for _, l := range tail {
		logLines = append(logLines, wrapOrTrim(l, maxInt(m.width-6, 20)))
	}
	logPanel := editPanelStyle.Width(maxInt(m.width-2, 40)).Render(strings.Join(logLines, "\n"))

	footer := ""
	if m.summary != nil {
		footer = editOKStyle.Render(fmt.Sprintf("done: ok=%d failed=%d", m.summary.Succeeded, m.summary.Failed))
		if m.summary.Canceled {
			footer = editErrorStyle.Render(fmt.Sprintf("canceled: ok=%d failed=%d, %d not started",
				m.summary.Succeeded, m.summary.Failed, m.summary.Total-m.summary.Processed))
		}
	} else if strings.TrimSpace(m.statusMessage) != "" {
		footer = editMutedStyle.Render(m.statusMessage)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, hints, counter, bar, logPanel, footer)
}

func editTickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return editTickMsg{}
	})
}

func saveProfileCmd(path string, p profile.Profile, message string) tea.Cmd {
	return func() tea.Msg {
		if err := profile.Save(path, p); err != nil {
			return editSavedMsg{err: err}
		}
		return editSavedMsg{message: message}
	}
}

func gpsSummary(d model.BatchDefaults) string {
	if strings.TrimSpace(d.GPSLatitude) == "" || strings.TrimSpace(d.GPSLongitude) == "" {
		return "(unset)"
	}
	s := d.GPSLatitude + ", " + d.GPSLongitude
	if strings.TrimSpace(d.GPSAltitude) != "" {
		s += " @ " + d.GPSAltitude + "m"
	}
	return s
}
