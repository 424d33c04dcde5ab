package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Chia213/bookfinder-ai-discord-bot/internal/books"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/insights"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/llm"
)

const helpText = `📚 BookFinder AI

/findbook <description> — find books by title, author, theme or vague memory
/recommend <mood or topic> — personalized recommendations based on your history
/myhistory — your recent searches and taste profile
/cleardata — erase everything logged about you
/help — this message

You can also just type what you are looking for.`

const tryAgainText = "😕 Something went wrong while searching. Please try again in a moment."

const narratorPrompt = `You are a knowledgeable librarian who helps users find books they might enjoy.
Based on the user's query and the books found, create a helpful, conversational response that:
1. Mentions the books found
2. Provides brief context about each book's content, themes, or significance
3. Explains why these books might match what the user is looking for

Keep your response concise and focused on the books' relevance to the query.`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.sendMessage(msg.Chat.ID, helpText)
	case "findbook":
		b.handleFindBook(ctx, msg, strings.TrimSpace(msg.CommandArguments()))
	case "recommend":
		b.handleRecommend(ctx, msg, strings.TrimSpace(msg.CommandArguments()))
	case "myhistory":
		b.handleMyHistory(msg)
	case "analytics":
		b.handleAnalytics(msg)
	case "cleardata":
		b.handleClearData(msg)
	default:
		b.sendMessage(msg.Chat.ID, helpText)
	}
}

func (b *Bot) handleFindBook(ctx context.Context, msg *tgbotapi.Message, text string) {
	if text == "" {
		b.sendMessage(msg.Chat.ID, "Tell me what to look for, e.g. /findbook a mystery set in a lighthouse")
		return
	}
	b.runSearch(ctx, msg, text, insights.CommandFindBook)
}

func (b *Bot) handleRecommend(ctx context.Context, msg *tgbotapi.Message, text string) {
	userID := userIDString(msg.From.ID)
	profile := b.insights.UserPreferences(userID)
	if text == "" {
		if len(profile.Genres) == 0 {
			b.sendMessage(msg.Chat.ID, "I don't know your taste yet. Try /recommend with a mood or topic, or search with /findbook first.")
			return
		}
		text = strings.Join(profile.Genres, " ")
	}
	b.runSearch(ctx, msg, text, insights.CommandRecommend)
}

// runSearch is the shared findbook/recommend pipeline: normalize, search,
// narrate, reply, log. The interaction is logged after the narration step
// so the record reflects the outcome, not the intent.
func (b *Bot) runSearch(ctx context.Context, msg *tgbotapi.Message, text, command string) {
	ctx, cancel := b.commandContext(ctx)
	defer cancel()

	userID := userIDString(msg.From.ID)

	res := b.normalizer.Normalize(ctx, text)
	if res.Rejected() {
		b.sendMessage(msg.Chat.ID, res.Rejection)
		b.insights.LogInteraction(userID, text, nil, command, res.Rejection)
		return
	}

	found, err := b.catalog.Search(ctx, res.Params)
	if err != nil {
		log.Printf("book search failed for %q: %v", text, err)
		b.sendMessage(msg.Chat.ID, tryAgainText)
		b.insights.LogInteraction(userID, text, nil, command, "")
		return
	}

	var profileHint string
	if command == insights.CommandRecommend {
		if p := b.insights.UserPreferences(userID); len(p.Genres) > 0 || len(p.Authors) > 0 {
			profileHint = fmt.Sprintf("The user historically enjoys genres [%s] and authors [%s]; weave that into why these books fit.",
				strings.Join(p.Genres, ", "), strings.Join(p.Authors, ", "))
		}
	}

	narration := b.narrate(ctx, text, found, profileHint)
	reply := narration
	if list := formatBookList(found); list != "" {
		reply += "\n\n" + list
	}
	b.sendMessage(msg.Chat.ID, reply)
	b.insights.LogInteraction(userID, text, found, command, narration)
}

// narrate asks the model to present the results. Model failure degrades to
// a plain listing; the user always gets an answer.
func (b *Bot) narrate(ctx context.Context, userQuery string, found []books.Book, profileHint string) string {
	if len(found) == 0 {
		return fmt.Sprintf("I couldn't find any books matching %q. You might want to try different keywords or check the spelling.", userQuery)
	}

	type bookData struct {
		Title         string `json:"title"`
		Author        string `json:"author"`
		Description   string `json:"description"`
		PublishedDate string `json:"publishedDate"`
		Categories    string `json:"categories"`
	}
	var data []bookData
	for i, bk := range found {
		if i == 3 {
			break
		}
		data = append(data, bookData{
			Title:         bk.Title,
			Author:        strings.Join(bk.Authors, ", "),
			Description:   bk.Description,
			PublishedDate: bk.PublishedDate,
			Categories:    strings.Join(bk.Categories, ", "),
		})
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fallbackNarration(userQuery, found)
	}

	prompt := fmt.Sprintf("User query: %q\nBooks found: %s", userQuery, payload)
	if profileHint != "" {
		prompt += "\n" + profileHint
	}
	resp, err := b.llmClient.Generate(ctx, []llm.Message{
		{Role: "system", Content: narratorPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		if err != nil {
			log.Printf("narration failed: %v", err)
		}
		return fallbackNarration(userQuery, found)
	}
	return resp.Content
}

func fallbackNarration(userQuery string, found []books.Book) string {
	var titles []string
	for i, bk := range found {
		if i == 3 {
			break
		}
		titles = append(titles, bk.Title)
	}
	return fmt.Sprintf("Found %d books matching %q: %s", len(found), userQuery, strings.Join(titles, ", "))
}

func formatBookList(found []books.Book) string {
	var lines []string
	for i, bk := range found {
		if i == 3 {
			break
		}
		line := fmt.Sprintf("• %s — %s", bk.Title, strings.Join(bk.Authors, ", "))
		if bk.PreviewLink != "" {
			line += "\n  " + bk.PreviewLink
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) handleMyHistory(msg *tgbotapi.Message) {
	userID := userIDString(msg.From.ID)
	history := b.insights.UserHistory(userID, 10)
	if len(history) == 0 {
		b.sendMessage(msg.Chat.ID, "You haven't made any searches yet! Try /findbook or /recommend to get started.")
		return
	}
	profile := b.insights.UserPreferences(userID)

	var sb strings.Builder
	sb.WriteString("📚 Your search history\n\n")
	start := 0
	if len(history) > 5 {
		start = len(history) - 5
	}
	for _, rec := range history[start:] {
		q := rec.Query
		if r := []rune(q); len(r) > 50 {
			q = string(r[:50]) + "…"
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s (%d books)\n",
			rec.Timestamp.Format("01/02 15:04"), rec.Command, q, rec.BooksFound))
	}
	if len(profile.Genres) > 0 {
		sb.WriteString("\n📖 Favorite genres: " + strings.Join(profile.Genres, ", "))
	}
	if len(profile.Authors) > 0 {
		sb.WriteString("\n✍️ Authors you've discovered: " + strings.Join(profile.Authors, ", "))
	}
	sb.WriteString(fmt.Sprintf("\n\nTotal interactions: %d", profile.TotalInteractions))
	b.sendMessage(msg.Chat.ID, sb.String())
}

func (b *Bot) handleAnalytics(msg *tgbotapi.Message) {
	if b.adminUserID == 0 || msg.From.ID != b.adminUserID {
		b.sendMessage(msg.Chat.ID, "This command is only available to the bot admin.")
		return
	}
	b.sendMessage(msg.Chat.ID, b.insights.Analytics().Summary())
}

func (b *Bot) handleClearData(msg *tgbotapi.Message) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Yes, delete everything", clearDataConfirm),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", clearDataCancel),
		),
	)
	out := tgbotapi.NewMessage(msg.Chat.ID,
		"Are you sure you want to clear your search history?\n\nThis deletes all your previous searches and resets personalization. This action cannot be undone.")
	out.ReplyMarkup = kb
	if _, err := b.s.Send(out); err != nil {
		log.Printf("failed to send confirmation: %v", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	switch cb.Data {
	case clearDataConfirm:
		n, err := b.insights.DeleteUserData(userIDString(cb.From.ID))
		if err != nil {
			log.Printf("failed to delete data for user %d: %v", cb.From.ID, err)
			b.sendMessage(cb.Message.Chat.ID, "😕 Couldn't clear your history right now. Please try again later.")
			return
		}
		b.sendMessage(cb.Message.Chat.ID,
			fmt.Sprintf("✅ Your search history has been cleared. Deleted %d interactions.\n\nFuture searches will start building a new preference profile.", n))
	case clearDataCancel:
		b.sendMessage(cb.Message.Chat.ID, "Cancelled. Your history is untouched.")
	}
}
