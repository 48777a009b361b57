// Package telegram exposes the planner over a Telegram webhook bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"weekly-meal-planner/internal/clipper"
	"weekly-meal-planner/internal/config"
	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/recipe"
	"weekly-meal-planner/internal/shopping"
	"weekly-meal-planner/internal/suggest"
	"weekly-meal-planner/internal/week"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram API around the planning, shopping and clipping
// services. Each Telegram account maps to its own user ID, so every command
// only ever touches that account's data.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	recipes  *recipe.Repository
	plans    *planner.Service
	shopping *shopping.Service
	items    *shopping.Repository
	clipper  *clipper.Clipper
	suggest  *suggest.Service
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	recipes *recipe.Repository,
	plans *planner.Service,
	shoppingSvc *shopping.Service,
	items *shopping.Repository,
	clip *clipper.Clipper,
	suggestSvc *suggest.Service,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:      bot,
		cfg:      cfg,
		recipes:  recipes,
		plans:    plans,
		shopping: shoppingSvc,
		items:    items,
		clipper:  clip,
		suggest:  suggestSvc,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.CallbackQuery != nil {
		if b.isAllowed(update.CallbackQuery.From.ID) {
			b.handleCallbackQuery(update.CallbackQuery)
		}
		return
	}

	if update.Message == nil {
		return
	}

	if !b.isAllowed(update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) isAllowed(userID int64) bool {
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if userID == id {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	userID := fmt.Sprintf("%d", msg.From.ID)
	text := strings.TrimSpace(msg.Text)

	// URLs go to the clipper, everything else is a command.
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipRequest(ctx, userID, msg.Chat.ID, text)
		return
	}

	cmd, args, _ := strings.Cut(text, " ")
	switch cmd {
	case "/week":
		b.handleWeek(ctx, userID, msg.Chat.ID, args)
	case "/list":
		b.handleList(ctx, userID, msg.Chat.ID)
	case "/generate":
		b.handleGenerate(ctx, userID, msg.Chat.ID)
	case "/suggest":
		b.handleSuggest(ctx, userID, msg.Chat.ID, args)
	case "/start", "/help":
		b.sendMarkdown(msg.Chat.ID, helpText)
	default:
		b.sendMarkdown(msg.Chat.ID, "Unknown command. Send /help for the list.")
	}
}

const helpText = `🍽 *Weekly Meal Planner*

/week - show this week's meal plan
/week next - show next week's plan
/list - show the shopping list with purchase toggles
/generate - rebuild the shopping list from this week's plan
/suggest <recipe name> - AI ingredient suggestions
Send a recipe URL to clip it into your collection.`

// targetWeek resolves "next" (or any leading shift count) relative to now.
func targetWeek(args string) time.Time {
	start := week.CurrentWeekStart(time.Now())
	if strings.TrimSpace(args) == "next" {
		return week.ShiftWeek(start, 1)
	}
	return start
}

func (b *Bot) handleWeek(ctx context.Context, userID string, chatID int64, args string) {
	weekStart := targetWeek(args)

	plan, err := b.plans.Get(ctx, userID, weekStart)
	if err != nil {
		b.sendError(chatID, "loading plan", err)
		return
	}
	if plan == nil || plan.Grid.AssignedCount() == 0 {
		b.sendMarkdown(chatID, fmt.Sprintf("🗓 No meals planned for the week of *%s* yet.", week.Key(weekStart)))
		return
	}

	names, err := b.recipeNames(ctx, userID, plan.Grid.RecipeIDsInUse())
	if err != nil {
		b.sendError(chatID, "loading recipes", err)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Week of %s*\n\n", week.Key(weekStart)))
	for day := planner.Monday; day < planner.DayCount; day++ {
		var meals []string
		for meal := planner.Breakfast; meal < planner.MealCount; meal++ {
			id := plan.Grid.RecipeID(day, meal)
			if id == "" {
				continue
			}
			name := names[id]
			if name == "" {
				name = id
			}
			meals = append(meals, fmt.Sprintf("%s: %s", meal, name))
		}
		if len(meals) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("*%s*\n", day))
		for _, m := range meals {
			sb.WriteString(fmt.Sprintf("  • %s\n", m))
		}
	}
	b.sendMarkdown(chatID, sb.String())
}

func (b *Bot) recipeNames(ctx context.Context, userID string, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		rec, err := b.recipes.Get(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			names[id] = rec.Name
		}
	}
	return names, nil
}

func (b *Bot) handleGenerate(ctx context.Context, userID string, chatID int64) {
	weekStart := week.CurrentWeekStart(time.Now())

	items, err := b.shopping.Regenerate(ctx, userID, weekStart)
	if err != nil {
		switch {
		case errors.Is(err, shopping.ErrNoMealPlan):
			b.sendMarkdown(chatID, "🗓 No meal plan for this week. Assign some recipes first.")
		case errors.Is(err, shopping.ErrEmptyPlan):
			b.sendMarkdown(chatID, "🗓 This week's plan is empty. Assign some recipes first.")
		default:
			b.sendError(chatID, "generating shopping list", err)
		}
		return
	}

	b.sendMarkdown(chatID, fmt.Sprintf("🛒 Shopping list rebuilt: *%d items*. Send /list to see it.", len(items)))
}

func (b *Bot) handleList(ctx context.Context, userID string, chatID int64) {
	weekStart := week.CurrentWeekStart(time.Now())

	list, err := b.items.ListWeek(ctx, userID, weekStart)
	if err != nil {
		b.sendError(chatID, "loading shopping list", err)
		return
	}
	if len(list.NotPurchased)+len(list.Purchased) == 0 {
		b.sendMarkdown(chatID, "🛒 The shopping list is empty. Send /generate to build it from this week's plan.")
		return
	}

	text, keyboard := formatShoppingList(list)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send shopping list: %v", err)
	}
}

// formatShoppingList renders the list text plus one toggle button per active
// item. Callback data stays under Telegram's 64 byte cap: "t|" + a UUID.
func formatShoppingList(list *shopping.WeekList) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range list.NotPurchased {
		sb.WriteString(fmt.Sprintf("⬜ %s\n", formatItemLine(item)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬜ "+item.IngredientName, "t|"+item.ID),
		))
	}
	for _, item := range list.Purchased {
		sb.WriteString(fmt.Sprintf("✅ ~%s~\n", formatItemLine(item)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ "+item.IngredientName, "t|"+item.ID),
		))
	}

	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatItemLine(item shopping.Item) string {
	line := item.IngredientName
	if item.Quantity != "" {
		line += " " + item.Quantity
		if item.Unit != "" {
			line += " " + item.Unit
		}
	}
	return line
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userID := fmt.Sprintf("%d", query.From.ID)

	action, itemID, ok := strings.Cut(query.Data, "|")
	if !ok || action != "t" {
		return
	}

	// Answer callback to remove spinner
	b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	if err := b.items.TogglePurchased(ctx, userID, itemID); err != nil {
		log.Printf("Error toggling item %s: %v", itemID, err)
		return
	}

	list, err := b.items.ListWeek(ctx, userID, week.CurrentWeekStart(time.Now()))
	if err != nil {
		log.Printf("Error reloading shopping list: %v", err)
		return
	}

	text, keyboard := formatShoppingList(list)
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	edit.ParseMode = "Markdown"
	edit.ReplyMarkup = &keyboard
	b.api.Send(edit)
}

func (b *Bot) handleClipRequest(ctx context.Context, userID string, chatID int64, url string) {
	statusText := "✂️ *Clipping recipe...*"
	replyMsg := tgbotapi.NewMessage(chatID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	recipeID, err := b.clipper.ClipURL(ctx, userID, url)
	var finalText string
	if err != nil {
		log.Printf("Error clipping recipe: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Error clipping recipe:*\n```\n%v\n```", safeErr)
	} else {
		rec, getErr := b.recipes.Get(ctx, userID, recipeID)
		name := recipeID
		if getErr == nil && rec != nil {
			name = rec.Name
		}
		finalText = fmt.Sprintf("✅ *Recipe Saved!*\n\n*Name:* %s", name)
	}
	edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) handleSuggest(ctx context.Context, userID string, chatID int64, recipeName string) {
	recipeName = strings.TrimSpace(recipeName)
	if recipeName == "" {
		b.sendMarkdown(chatID, "Usage: /suggest <recipe name>")
		return
	}

	statusText := "🧑‍🍳 *Thinking...*"
	replyMsg := tgbotapi.NewMessage(chatID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	candidates, err := b.suggest.Suggest(ctx, recipeName, "")
	var finalText string
	if err != nil {
		log.Printf("Error suggesting ingredients for user %s: %v", userID, err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Error suggesting ingredients:*\n```\n%v\n```", safeErr)
	} else {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("💡 *Suggested ingredients for %s*\n\n", recipeName))
		for _, c := range candidates {
			sb.WriteString(fmt.Sprintf("• %s", c.Name))
			if c.Quantity != "" {
				sb.WriteString(fmt.Sprintf(": %s %s", c.Quantity, c.Unit))
			} else if c.Unit != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", c.Unit))
			}
			sb.WriteString("\n")
		}
		finalText = sb.String()
	}
	edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func (b *Bot) sendError(chatID int64, action string, err error) {
	log.Printf("Error %s: %v", action, err)
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.sendMarkdown(chatID, fmt.Sprintf("❌ *Error %s:*\n```\n%v\n```", action, safeErr))
}
