package handler

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/telebot.v4"

	"voicefx-bot/internal/config"
	"voicefx-bot/internal/effects"
	"voicefx-bot/internal/pipeline"
	"voicefx-bot/internal/session"
	"voicefx-bot/internal/textstats"
	"voicefx-bot/internal/transform"
)

// User-visible messages. Per-job failures all collapse into one generic
// reply; internals never leak to chat.
const (
	msgSelectEffectFirst = "🎙 Select an effect first, then send your voice message. Use /effects to pick one."
	msgProcessing        = "🎵 Processing your voice message..."
	msgTransformFailed   = "❌ Something went wrong while processing your voice message. Please try again."
	msgEffectSelected    = "✅ Effect selected: %s. Now send me a voice message."
)

// chatAPI is the subset of the bot client the voice handler uses for the
// transient processing notice.
type chatAPI interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
	Delete(msg telebot.Editable) error
}

// Bot represents the Telegram bot with all dependencies
type Bot struct {
	config   *config.Config
	tgBot    *telebot.Bot
	api      chatAPI
	sessions session.Store
	jobs     *pipeline.Pipeline
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewBot creates a new bot instance
func NewBot(cfg *config.Config, sessions session.Store) (*Bot, error) {
	ctx, cancel := context.WithCancel(context.Background())

	return &Bot{
		config:   cfg,
		sessions: sessions,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// SetTelegramBot sets the Telegram bot instance and wires the transform
// pipeline to it.
func (b *Bot) SetTelegramBot(tgBot *telebot.Bot) error {
	b.tgBot = tgBot
	b.api = tgBot

	transformer, err := newTransformer(b.config)
	if err != nil {
		return err
	}

	jobs, err := pipeline.New(
		b.config.Transform.TempDir,
		&telegramFetcher{bot: tgBot},
		transformer,
		&telegramDeliverer{bot: tgBot},
		b.sessions,
	)
	if err != nil {
		return err
	}
	b.jobs = jobs
	return nil
}

// newTransformer selects the transform backend from configuration.
func newTransformer(cfg *config.Config) (transform.Transformer, error) {
	switch cfg.Transform.Backend {
	case "ffmpeg":
		return transform.NewFFmpegTransformer(cfg.Transform.FFmpegPath), nil
	case "remote":
		return transform.NewRemoteTransformer(
			cfg.Transform.MediaBaseURL,
			cfg.Transform.MediaCloudName,
			cfg.Transform.MediaAPIKey,
			cfg.Transform.MediaAPISecret,
			cfg.Transform.Timeout,
		), nil
	default:
		return nil, fmt.Errorf("unknown transform backend: %s", cfg.Transform.Backend)
	}
}

// Start registers all update handlers.
func (b *Bot) Start() {
	if b.tgBot == nil {
		log.Error("Telegram bot not set")
		return
	}

	// Static commands
	b.tgBot.Handle("/start", b.handleStart)
	b.tgBot.Handle("/help", b.handleHelp)
	b.tgBot.Handle("/effects", b.handleEffectsMenu)

	// One command and one inline-keyboard button per effect
	for _, spec := range effects.All() {
		spec := spec
		b.tgBot.Handle("/"+commandName(spec.Effect), func(c telebot.Context) error {
			return b.selectEffect(c, spec.Effect)
		})

		btn := telebot.Btn{Unique: buttonUnique(spec.Effect)}
		b.tgBot.Handle(&btn, func(c telebot.Context) error {
			return b.handleEffectButton(c, spec)
		})
	}

	// Free text, voice attachments, inline mode
	b.tgBot.Handle(telebot.OnText, b.handleText)
	b.tgBot.Handle(telebot.OnVoice, b.handleVoice)
	b.tgBot.Handle(telebot.OnQuery, b.handleInlineQuery)
	b.tgBot.Handle(telebot.OnInlineResult, b.handleChosenInlineResult)
}

// Stop drains in-flight transform jobs, then releases the bot context.
func (b *Bot) Stop() {
	if b.jobs != nil {
		b.jobs.Drain()
	}
	b.cancel()
}

// commandName converts an effect name to a Telegram command, which cannot
// contain hyphens.
func commandName(e effects.Effect) string {
	return strings.ReplaceAll(string(e), "-", "_")
}

// buttonUnique is the stable callback identifier for an effect button.
func buttonUnique(e effects.Effect) string {
	return "fx_" + commandName(e)
}

// resolveReplyTarget picks the chat the transformed voice message is
// delivered to: the user for private and inline surfaces, the group chat
// otherwise.
func resolveReplyTarget(chat *telebot.Chat, sender *telebot.User) int64 {
	if chat == nil {
		// Inline surface, no originating chat: deliver to the user's
		// private chat.
		return sender.ID
	}
	switch chat.Type {
	case telebot.ChatPrivate:
		return sender.ID
	case telebot.ChatGroup, telebot.ChatSuperGroup:
		return chat.ID
	default:
		return sender.ID
	}
}

// handleStart handles the /start command
func (b *Bot) handleStart(c telebot.Context) error {
	message := fmt.Sprintf(`👋 Hi %s!

I apply audio effects to voice messages.

1. Pick an effect with /effects, an effect command, or via @%s in any chat
2. Send me a voice message
3. I send it back with the effect applied

Plain text messages get a word count instead.

Use /help for the full command list.`, c.Sender().FirstName, b.tgBot.Me.Username)

	return c.Send(message)
}

// handleHelp handles the /help command
func (b *Bot) handleHelp(c telebot.Context) error {
	var sb strings.Builder
	sb.WriteString("📚 Voice Effects Bot\n\n")
	sb.WriteString("Core commands:\n")
	sb.WriteString("• /start - show the welcome message\n")
	sb.WriteString("• /help - show this help\n")
	sb.WriteString("• /effects - pick an effect from a keyboard\n\n")
	sb.WriteString("Effect commands:\n")
	for _, spec := range effects.All() {
		sb.WriteString(fmt.Sprintf("• /%s - %s\n", commandName(spec.Effect), lowerFirst(spec.Description)))
	}
	sb.WriteString("\nAfter picking an effect, send a voice message and I will process it.\n")
	sb.WriteString("Only one effect is pending at a time; picking a new one replaces it.")

	return c.Send(sb.String())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// handleEffectsMenu sends the inline keyboard of offerable effects.
func (b *Bot) handleEffectsMenu(c telebot.Context) error {
	markup := b.effectsMarkup()
	return c.Send("🎛 Pick an effect:", markup)
}

// effectsMarkup lays the effect buttons out two per row.
func (b *Bot) effectsMarkup() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}

	all := effects.All()
	rows := make([]telebot.Row, 0, (len(all)+1)/2)
	for i := 0; i < len(all); i += 2 {
		buttons := []telebot.Btn{
			markup.Data(all[i].Title, buttonUnique(all[i].Effect), string(all[i].Effect)),
		}
		if i+1 < len(all) {
			buttons = append(buttons, markup.Data(all[i+1].Title, buttonUnique(all[i+1].Effect), string(all[i+1].Effect)))
		}
		rows = append(rows, markup.Row(buttons...))
	}
	markup.Inline(rows...)
	return markup
}

// handleEffectButton handles a press on one of the effect buttons.
func (b *Bot) handleEffectButton(c telebot.Context, spec effects.Spec) error {
	b.storeSelection(c.Sender(), c.Chat(), spec.Effect)

	// Toast plus an edit of the menu message to confirm the choice.
	if err := c.Respond(&telebot.CallbackResponse{Text: spec.Title}); err != nil {
		log.Warnf("Failed to answer callback: %v", err)
	}
	return c.Edit(fmt.Sprintf(msgEffectSelected, spec.Title))
}

// selectEffect handles a per-effect slash command.
func (b *Bot) selectEffect(c telebot.Context, effect effects.Effect) error {
	b.storeSelection(c.Sender(), c.Chat(), effect)

	spec, _ := effects.Lookup(effect)
	return c.Send(fmt.Sprintf(msgEffectSelected, spec.Title))
}

// storeSelection overwrites the user's session with the chosen effect.
// Write failures are logged and swallowed; the in-memory flow continues.
func (b *Bot) storeSelection(sender *telebot.User, chat *telebot.Chat, effect effects.Effect) {
	s := session.Session{
		PendingEffect: effect,
		ReplyTarget:   resolveReplyTarget(chat, sender),
	}
	if err := b.sessions.Set(sender.ID, s); err != nil {
		log.Warnf("Failed to persist session for user %d: %v", sender.ID, err)
	}
}

// handleText replies to plain text with word statistics.
func (b *Bot) handleText(c telebot.Context) error {
	stats := textstats.Count(c.Text(), 0)
	if stats.Total == 1 {
		return c.Send("Your message contains 1 word.")
	}
	return c.Send(fmt.Sprintf("Your message contains %d words (%d unique).", stats.Total, stats.Unique))
}

// handleVoice runs one transform job for a voice attachment.
func (b *Bot) handleVoice(c telebot.Context) error {
	userID := c.Sender().ID
	sess := b.sessions.Get(userID)

	if sess.PendingEffect == effects.None {
		return c.Send(msgSelectEffectFirst)
	}

	target := sess.ReplyTarget
	if target == 0 {
		target = resolveReplyTarget(c.Chat(), c.Sender())
	}

	processingMsg, err := b.api.Send(c.Chat(), msgProcessing)
	if err != nil {
		log.Warnf("Failed to send processing notice: %v", err)
	}

	job := pipeline.Job{
		UserID:      userID,
		SourceRef:   c.Message().Voice.FileID,
		Effect:      sess.PendingEffect,
		ReplyTarget: target,
	}

	runErr := b.jobs.Run(b.ctx, job)

	if processingMsg != nil {
		if err := b.api.Delete(processingMsg); err != nil {
			log.Warnf("Failed to delete processing notice: %v", err)
		}
	}

	if runErr != nil {
		log.Errorf("Transform job failed: user=%d effect=%s: %v", userID, job.Effect, runErr)
		return c.Send(msgTransformFailed)
	}
	return nil
}

// handleInlineQuery answers with the static list of offerable effects,
// optionally narrowed by the query text.
func (b *Bot) handleInlineQuery(c telebot.Context) error {
	query := strings.ToLower(strings.TrimSpace(c.Query().Text))

	results := make(telebot.Results, 0, len(effects.All()))
	for _, spec := range effects.All() {
		if query != "" && !strings.Contains(strings.ToLower(spec.Title), query) &&
			!strings.Contains(string(spec.Effect), query) {
			continue
		}
		result := &telebot.ArticleResult{
			Title:       spec.Title,
			Description: spec.Description,
			Text:        fmt.Sprintf("🎵 %s selected. Send the bot a voice message to apply it.", spec.Title),
		}
		result.SetResultID(string(spec.Effect))
		results = append(results, result)
	}

	return c.Answer(&telebot.QueryResponse{
		Results:   results,
		CacheTime: 60,
	})
}

// handleChosenInlineResult records the effect picked from the inline menu.
// The inline surface has no originating chat, so the result is delivered to
// the user's private chat.
func (b *Bot) handleChosenInlineResult(c telebot.Context) error {
	chosen := c.InlineResult()
	if chosen == nil || chosen.Sender == nil {
		return nil
	}

	effect, ok := effects.Parse(chosen.ResultID)
	if !ok || effect == effects.None {
		log.Warnf("Ignoring unknown inline result id %q", chosen.ResultID)
		return nil
	}

	b.storeSelection(chosen.Sender, nil, effect)
	return nil
}
