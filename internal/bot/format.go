package bot

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"project-planner/internal/api"
	"project-planner/internal/service"
	"project-planner/internal/store"
)

const (
	cbProjectPrefix = "project:"
	cbPickPrefix    = "pick:"
	cbMovePrefix    = "move:"

	maxTitleLen = 48
)

const helpText = "<b>Планировщик проектов</b>\n\n" +
	"/projects — список проектов\n" +
	"/project &lt;id&gt; — категории и задачи проекта\n" +
	"/move &lt;задача&gt; &lt;категория&gt; — перенести задачу в другую категорию\n" +
	"/newproject &lt;название&gt; — новый проект\n" +
	"/newcategory &lt;проект&gt; &lt;название&gt; — новая категория\n" +
	"/newtask &lt;проект&gt; &lt;категория&gt; &lt;название&gt; — новая задача\n\n" +
	"Под карточкой проекта есть кнопки для переноса задач."

type callbackKind int

const (
	cbProject callbackKind = iota + 1
	cbPick
	cbMove
)

type callbackAction struct {
	kind       callbackKind
	projectID  string
	taskID     string
	categoryID string
}

func parseCallback(data string) (callbackAction, error) {
	switch {
	case strings.HasPrefix(data, cbProjectPrefix):
		id := strings.TrimPrefix(data, cbProjectPrefix)
		if !isID(id) {
			return callbackAction{}, fmt.Errorf("bad project callback %q", data)
		}
		return callbackAction{kind: cbProject, projectID: id}, nil
	case strings.HasPrefix(data, cbPickPrefix):
		id := strings.TrimPrefix(data, cbPickPrefix)
		if !isID(id) {
			return callbackAction{}, fmt.Errorf("bad pick callback %q", data)
		}
		return callbackAction{kind: cbPick, taskID: id}, nil
	case strings.HasPrefix(data, cbMovePrefix):
		parts := strings.Split(strings.TrimPrefix(data, cbMovePrefix), ":")
		if len(parts) != 2 || !isID(parts[0]) || !isID(parts[1]) {
			return callbackAction{}, fmt.Errorf("bad move callback %q", data)
		}
		return callbackAction{kind: cbMove, taskID: parts[0], categoryID: parts[1]}, nil
	}
	return callbackAction{}, fmt.Errorf("unknown callback %q", data)
}

func parseMoveArgs(args []string) (taskID, categoryID string, err error) {
	if len(args) != 2 {
		return "", "", errors.New("Формат: /move <задача> <категория>")
	}
	if !isID(args[0]) || !isID(args[1]) {
		return "", "", errors.New("ID задачи и категории должны быть числами.")
	}
	return args[0], args[1], nil
}

func isID(s string) bool {
	n, err := strconv.ParseUint(s, 10, 64)
	return err == nil && n > 0
}

func formatProjectList(list []api.ProjectSummary) string {
	if len(list) == 0 {
		return "Проектов пока нет. Создай первый: /newproject &lt;название&gt;"
	}
	var sb strings.Builder
	sb.WriteString("<b>Проекты</b>\n")
	for _, p := range list {
		fmt.Fprintf(&sb, "\n• <b>#%s</b> %s", p.ID, escape(normalizeTitle(p.Name)))
	}
	return sb.String()
}

// formatProject groups the cached tasks under their categories in the
// server's category order.
func formatProject(cur *store.CurrentProject) string {
	if cur == nil {
		return "Проект не выбран. Открой его через /project &lt;id&gt;."
	}

	byCategory := make(map[string][]store.Task, len(cur.Categories))
	for _, t := range sortedTasks(cur) {
		byCategory[t.CategoryID] = append(byCategory[t.CategoryID], t)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📁 <b>%s</b> (#%s)\n", escape(cur.Name), cur.ID)
	if len(cur.Categories) == 0 {
		sb.WriteString("\nКатегорий пока нет.")
		return sb.String()
	}
	for _, c := range cur.Categories {
		fmt.Fprintf(&sb, "\n<b>%s</b> (#%s)\n", escape(c.Name), c.ID)
		tasks := byCategory[c.ID]
		if len(tasks) == 0 {
			sb.WriteString("  — пусто\n")
			continue
		}
		for _, t := range tasks {
			fmt.Fprintf(&sb, "  • #%s %s\n", t.ID, escape(normalizeTitle(t.Name)))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func projectKeyboard(list []api.ProjectSummary) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(list) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list))
	for _, p := range list {
		label := fmt.Sprintf("📁 #%s %s", p.ID, shortTitle(p.Name))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbProjectPrefix+p.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// taskKeyboard offers one move button per task, two per row.
func taskKeyboard(cur *store.CurrentProject) (tgbotapi.InlineKeyboardMarkup, bool) {
	if cur == nil || len(cur.Tasks) == 0 || len(cur.Categories) < 2 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	var (
		rows [][]tgbotapi.InlineKeyboardButton
		row  []tgbotapi.InlineKeyboardButton
	)
	for _, t := range sortedTasks(cur) {
		label := fmt.Sprintf("↔️ #%s %s", t.ID, shortTitle(t.Name))
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbPickPrefix+t.ID))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// moveKeyboard lists every category of the project except the task's own.
func moveKeyboard(cur *store.CurrentProject, task store.Task) (tgbotapi.InlineKeyboardMarkup, bool) {
	if cur == nil {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(cur.Categories))
	for _, c := range cur.Categories {
		if c.ID == task.CategoryID {
			continue
		}
		data := fmt.Sprintf("%s%s:%s", cbMovePrefix, task.ID, c.ID)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➡️ "+shortTitle(c.Name), data),
		))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func currentTask(cur *store.CurrentProject, taskID string) (store.Task, bool) {
	if cur == nil {
		return store.Task{}, false
	}
	t, ok := cur.Tasks[taskID]
	return t, ok
}

// sortedTasks orders tasks by numeric id, i.e. creation order.
func sortedTasks(cur *store.CurrentProject) []store.Task {
	tasks := make([]store.Task, 0, len(cur.Tasks))
	for _, t := range cur.Tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		a, errA := strconv.ParseUint(tasks[i].ID, 10, 64)
		b, errB := strconv.ParseUint(tasks[j].ID, 10, 64)
		if errA != nil || errB != nil {
			return tasks[i].ID < tasks[j].ID
		}
		return a < b
	})
	return tasks
}

func userError(err error) string {
	var notFound *service.NotFoundError
	var invalid *service.ValidationError
	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("🔍 Ничего не найдено по ID %s.", escape(notFound.ID))
	case errors.As(err, &invalid):
		return "⚠️ " + escape(invalid.Message)
	default:
		return "Не получилось выполнить запрос, попробуй позже."
	}
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

func shortTitle(title string) string {
	runes := []rune(normalizeTitle(title))
	if len(runes) <= maxTitleLen {
		return string(runes)
	}
	return string(runes[:maxTitleLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
