package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"project-planner/internal/api"
	"project-planner/internal/config"
	"project-planner/internal/metrics"
	"project-planner/internal/store"
)

// Backend is what the bot reads and writes through: an in-process
// *api.Service or an *api.HTTPClient pointed at a running server.
type Backend interface {
	store.Client
	CreateProject(ctx context.Context, name string) (*api.ProjectSummary, error)
	CreateCategory(ctx context.Context, projectID, name string) (*api.Category, error)
	CreateTask(ctx context.Context, projectID, categoryID, name string) (*api.Task, error)
}

// session is the per-chat view: its own cache and rate limiter.
type session struct {
	store   *store.Store
	limiter *rate.Limiter
}

// Bot aggregates Telegram API with the planner service.
type Bot struct {
	tg       *tgbotapi.BotAPI
	svc      Backend
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	limit    rate.Limit
	burst    int
	sessions map[int64]*session
	mu       sync.Mutex
}

func New(token string, svc Backend, cfg *config.Config, log logrus.FieldLogger, m *metrics.Metrics) (*Bot, error) {
	tg, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.WithField("account", tg.Self.UserName).Info("bot authorized")

	return &Bot{
		tg:       tg,
		svc:      svc,
		log:      log,
		metrics:  m,
		limit:    rate.Limit(cfg.BotRatePerSecond),
		burst:    cfg.BotRateBurst,
		sessions: make(map[int64]*session),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.tg.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.tg.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.WithError(err).Warn("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.WithError(err).Warn("handle message")
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	sess := b.session(msg.Chat.ID)
	if !sess.limiter.Allow() {
		return b.sendText(msg.Chat.ID, "⏳ Слишком много запросов. Подожди немного и повтори.")
	}

	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "Я понимаю только команды. Набери /help для списка.")
	}

	b.log.WithFields(logrus.Fields{
		"chat_id": msg.Chat.ID,
		"command": msg.Command(),
	}).Info("command")
	if b.metrics != nil {
		b.metrics.BotCommands.WithLabelValues(msg.Command()).Inc()
	}
	return b.handleCommand(ctx, sess, msg)
}

func (b *Bot) handleCommand(ctx context.Context, sess *session, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		return b.sendText(chatID, helpText)
	case "projects":
		return b.showProjects(ctx, sess, chatID)
	case "project":
		if len(args) != 1 {
			return b.sendText(chatID, "Укажи ID проекта: /project 1")
		}
		return b.showProject(ctx, sess, chatID, args[0])
	case "move":
		taskID, categoryID, err := parseMoveArgs(args)
		if err != nil {
			return b.sendText(chatID, escape(err.Error()))
		}
		return b.moveTask(ctx, sess, chatID, taskID, categoryID)
	case "newproject":
		return b.createProject(ctx, sess, chatID, strings.Join(args, " "))
	case "newcategory":
		if len(args) < 2 {
			return b.sendText(chatID, "Формат: /newcategory &lt;проект&gt; &lt;название&gt;")
		}
		return b.createCategory(ctx, sess, chatID, args[0], strings.Join(args[1:], " "))
	case "newtask":
		if len(args) < 3 {
			return b.sendText(chatID, "Формат: /newtask &lt;проект&gt; &lt;категория&gt; &lt;название&gt;")
		}
		return b.createTask(ctx, sess, chatID, args[0], args[1], strings.Join(args[2:], " "))
	default:
		return b.sendText(chatID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) showProjects(ctx context.Context, sess *session, chatID int64) error {
	if err := sess.store.LoadProjects(ctx); err != nil {
		return b.sendText(chatID, userError(err))
	}
	list := sess.store.State().Projects
	msg := tgbotapi.NewMessage(chatID, formatProjectList(list))
	msg.ParseMode = tgbotapi.ModeHTML
	if kb, ok := projectKeyboard(list); ok {
		msg.ReplyMarkup = kb
	}
	_, err := b.tg.Send(msg)
	return err
}

func (b *Bot) showProject(ctx context.Context, sess *session, chatID int64, projectID string) error {
	if err := sess.store.LoadProject(ctx, projectID); err != nil {
		return b.sendText(chatID, userError(err))
	}
	return b.sendCurrent(chatID, sess.store.State().Current)
}

// moveTask reassigns through the chat's store; the shown project is
// patched, not reloaded.
func (b *Bot) moveTask(ctx context.Context, sess *session, chatID int64, taskID, categoryID string) error {
	if err := sess.store.ReassignTask(ctx, taskID, categoryID); err != nil {
		return b.sendText(chatID, userError(err))
	}
	cur := sess.store.State().Current
	if cur == nil {
		return b.sendText(chatID, fmt.Sprintf("✅ Задача #%s перенесена.", escape(taskID)))
	}
	if _, ok := cur.Tasks[taskID]; !ok {
		return b.sendText(chatID, fmt.Sprintf("✅ Задача #%s перенесена.", escape(taskID)))
	}
	return b.sendCurrent(chatID, cur)
}

func (b *Bot) createProject(ctx context.Context, sess *session, chatID int64, name string) error {
	project, err := b.svc.CreateProject(ctx, name)
	if err != nil {
		return b.sendText(chatID, userError(err))
	}
	b.log.WithField("project_id", project.ID).Info("project created")
	return b.sendText(chatID, fmt.Sprintf("✅ Проект <b>#%s</b> %s создан.", project.ID, escape(project.Name)))
}

func (b *Bot) createCategory(ctx context.Context, sess *session, chatID int64, projectID, name string) error {
	category, err := b.svc.CreateCategory(ctx, projectID, name)
	if err != nil {
		return b.sendText(chatID, userError(err))
	}
	b.log.WithFields(logrus.Fields{"category_id": category.ID, "project_id": projectID}).Info("category created")
	return b.refreshAfterCreate(ctx, sess, chatID, projectID,
		fmt.Sprintf("✅ Категория <b>#%s</b> %s создана.", category.ID, escape(category.Name)))
}

func (b *Bot) createTask(ctx context.Context, sess *session, chatID int64, projectID, categoryID, name string) error {
	task, err := b.svc.CreateTask(ctx, projectID, categoryID, name)
	if err != nil {
		return b.sendText(chatID, userError(err))
	}
	b.log.WithFields(logrus.Fields{"task_id": task.ID, "project_id": projectID}).Info("task created")
	return b.refreshAfterCreate(ctx, sess, chatID, projectID,
		fmt.Sprintf("✅ Задача <b>#%s</b> %s сохранена.", task.ID, escape(task.Name)))
}

// refreshAfterCreate reloads the cached project when the new entity
// belongs to it; creation has no patch rule.
func (b *Bot) refreshAfterCreate(ctx context.Context, sess *session, chatID int64, projectID, text string) error {
	if err := b.sendText(chatID, text); err != nil {
		return err
	}
	cur := sess.store.State().Current
	if cur == nil || cur.ID != projectID {
		return nil
	}
	return b.showProject(ctx, sess, chatID, projectID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.tg.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Warn("callback ack")
	}

	chatID := cb.Message.Chat.ID
	sess := b.session(chatID)
	action, err := parseCallback(cb.Data)
	if err != nil {
		return nil
	}

	switch action.kind {
	case cbProject:
		return b.showProject(ctx, sess, chatID, action.projectID)
	case cbPick:
		cur := sess.store.State().Current
		task, ok := currentTask(cur, action.taskID)
		if !ok {
			return b.sendText(chatID, "Проект устарел. Открой его заново через /project.")
		}
		kb, ok := moveKeyboard(cur, task)
		if !ok {
			return b.sendText(chatID, "В проекте нет другой категории для этой задачи.")
		}
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Куда перенести «%s» (#%s)?", escape(normalizeTitle(task.Name)), task.ID))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = kb
		_, err := b.tg.Send(msg)
		return err
	case cbMove:
		return b.moveTask(ctx, sess, chatID, action.taskID, action.categoryID)
	}
	return nil
}

func (b *Bot) session(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	sess, ok := b.sessions[chatID]
	if !ok {
		sess = &session{
			store:   store.New(b.svc, store.WithLogger(b.log.WithField("chat_id", chatID))),
			limiter: rate.NewLimiter(b.limit, b.burst),
		}
		b.sessions[chatID] = sess
	}
	return sess
}

func (b *Bot) sendCurrent(chatID int64, cur *store.CurrentProject) error {
	msg := tgbotapi.NewMessage(chatID, formatProject(cur))
	msg.ParseMode = tgbotapi.ModeHTML
	if kb, ok := taskKeyboard(cur); ok {
		msg.ReplyMarkup = kb
	}
	_, err := b.tg.Send(msg)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.tg.Send(msg)
	return err
}
