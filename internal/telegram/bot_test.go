package telegram

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Chia213/bookfinder-ai-discord-bot/internal/books"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/insights"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/llm"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/query"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/storage"
)

type fakeSender struct{ sent []string }

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	sw := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, sw.Text)
	return tgbotapi.Message{}, nil
}

type fakeLLM struct {
	resp llm.Response
	err  error
}

func (f fakeLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	return f.resp, f.err
}

type fakeCatalog struct {
	books []books.Book
	err   error
}

func (f fakeCatalog) Search(ctx context.Context, p books.Params) ([]books.Book, error) {
	return f.books, f.err
}

type fakeNormalizer struct{ res query.Result }

func (f fakeNormalizer) Normalize(ctx context.Context, text string) query.Result { return f.res }

func newTestInsights(t *testing.T) *insights.Service {
	t.Helper()
	fl, err := storage.NewFileLog(filepath.Join(t.TempDir(), "interactions.jsonl"))
	if err != nil {
		t.Fatalf("init log: %v", err)
	}
	return insights.New(fl)
}

func userMessage(userID, chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
}

func TestFindBook_HappyPathNarratesAndLogs(t *testing.T) {
	fs := &fakeSender{}
	ins := newTestInsights(t)
	b := &Bot{
		s:          fs,
		llmClient:  fakeLLM{resp: llm.Response{Content: "You might enjoy Eragon."}},
		normalizer: fakeNormalizer{res: query.Result{Params: books.Params{GeneralQuery: "dragons"}}},
		catalog:    fakeCatalog{books: []books.Book{{Title: "Eragon", Authors: []string{"Christopher Paolini"}, Categories: []string{"Fantasy"}}}},
		insights:   ins,
	}

	b.handleFindBook(context.Background(), userMessage(42, 100, "/findbook dragons"), "dragons")

	if len(fs.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fs.sent))
	}
	if !strings.Contains(fs.sent[0], "You might enjoy Eragon.") {
		t.Fatalf("narration missing: %q", fs.sent[0])
	}
	if !strings.Contains(fs.sent[0], "Eragon — Christopher Paolini") {
		t.Fatalf("book list missing: %q", fs.sent[0])
	}

	hist := ins.UserHistory("42", 10)
	if len(hist) != 1 {
		t.Fatalf("interaction not logged: %+v", hist)
	}
	if hist[0].Command != insights.CommandFindBook || hist[0].BooksFound != 1 {
		t.Fatalf("bad record: %+v", hist[0])
	}
}

func TestFindBook_RejectionIsSentAndLoggedWithZeroBooks(t *testing.T) {
	fs := &fakeSender{}
	ins := newTestInsights(t)
	rejection := "I can't predict future bestsellers or read your mind."
	b := &Bot{
		s:          fs,
		llmClient:  fakeLLM{},
		normalizer: fakeNormalizer{res: query.Result{Rejection: rejection}},
		catalog:    fakeCatalog{},
		insights:   ins,
	}

	b.handleFindBook(context.Background(), userMessage(42, 100, ""), "the #1 bestseller in 2030")

	if len(fs.sent) != 1 || fs.sent[0] != rejection {
		t.Fatalf("rejection should go to the user verbatim: %+v", fs.sent)
	}
	hist := ins.UserHistory("42", 10)
	if len(hist) != 1 || hist[0].BooksFound != 0 {
		t.Fatalf("rejection must be logged as zero-book interaction: %+v", hist)
	}
}

func TestFindBook_CatalogFailureIsFriendly(t *testing.T) {
	fs := &fakeSender{}
	ins := newTestInsights(t)
	b := &Bot{
		s:          fs,
		llmClient:  fakeLLM{},
		normalizer: fakeNormalizer{res: query.Result{Params: books.Params{GeneralQuery: "x"}}},
		catalog:    fakeCatalog{err: errors.New("503 backend unavailable")},
		insights:   ins,
	}

	b.handleFindBook(context.Background(), userMessage(42, 100, ""), "x")

	if len(fs.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fs.sent))
	}
	if strings.Contains(fs.sent[0], "503") {
		t.Fatalf("raw error leaked to user: %q", fs.sent[0])
	}
	if fs.sent[0] != tryAgainText {
		t.Fatalf("want friendly message, got %q", fs.sent[0])
	}
}

func TestNarrate_ModelFailureFallsBackToPlainList(t *testing.T) {
	b := &Bot{llmClient: fakeLLM{err: errors.New("quota")}}
	out := b.narrate(context.Background(), "dragons", []books.Book{{Title: "Eragon"}, {Title: "The Hobbit"}}, "")
	if !strings.Contains(out, "Found 2 books") || !strings.Contains(out, "Eragon") {
		t.Fatalf("fallback narration wrong: %q", out)
	}
}

func TestNarrate_NoResults(t *testing.T) {
	b := &Bot{llmClient: fakeLLM{}}
	out := b.narrate(context.Background(), "qqq", nil, "")
	if !strings.Contains(out, "couldn't find any books") {
		t.Fatalf("empty-result message wrong: %q", out)
	}
}

func TestClearData_ConfirmationFlow(t *testing.T) {
	fs := &fakeSender{}
	ins := newTestInsights(t)
	ins.LogInteraction("42", "dragons", nil, insights.CommandFindBook, "")
	b := &Bot{s: fs, insights: ins}

	b.handleClearData(userMessage(42, 100, "/cleardata"))
	if len(fs.sent) != 1 || !strings.Contains(fs.sent[0], "cannot be undone") {
		t.Fatalf("confirmation prompt missing: %+v", fs.sent)
	}

	cb := &tgbotapi.CallbackQuery{
		From:    &tgbotapi.User{ID: 42},
		Data:    clearDataConfirm,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}},
	}
	b.handleCallback(context.Background(), cb)
	if len(fs.sent) != 2 || !strings.Contains(fs.sent[1], "Deleted 1 interactions") {
		t.Fatalf("deletion report missing: %+v", fs.sent)
	}
	if got := ins.UserHistory("42", 10); len(got) != 0 {
		t.Fatalf("history should be gone: %+v", got)
	}

	// confirming again deletes nothing and still succeeds
	b.handleCallback(context.Background(), cb)
	if !strings.Contains(fs.sent[2], "Deleted 0 interactions") {
		t.Fatalf("second confirm should report zero: %+v", fs.sent)
	}
}

func TestClearData_Cancel(t *testing.T) {
	fs := &fakeSender{}
	ins := newTestInsights(t)
	ins.LogInteraction("42", "dragons", nil, insights.CommandFindBook, "")
	b := &Bot{s: fs, insights: ins}

	cb := &tgbotapi.CallbackQuery{
		From:    &tgbotapi.User{ID: 42},
		Data:    clearDataCancel,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}},
	}
	b.handleCallback(context.Background(), cb)
	if len(fs.sent) != 1 || !strings.Contains(fs.sent[0], "untouched") {
		t.Fatalf("cancel message missing: %+v", fs.sent)
	}
	if got := ins.UserHistory("42", 10); len(got) != 1 {
		t.Fatalf("cancel must not delete: %+v", got)
	}
}

func TestAnalytics_AdminOnly(t *testing.T) {
	fs := &fakeSender{}
	ins := newTestInsights(t)
	ins.LogInteraction("42", "q", nil, insights.CommandFindBook, "")
	b := &Bot{s: fs, insights: ins, adminUserID: 999}

	b.handleAnalytics(userMessage(42, 100, "/analytics"))
	if !strings.Contains(fs.sent[0], "only available to the bot admin") {
		t.Fatalf("non-admin should be denied: %+v", fs.sent)
	}

	b.handleAnalytics(userMessage(999, 200, "/analytics"))
	if !strings.Contains(fs.sent[1], "Total interactions: 1") {
		t.Fatalf("admin should see the snapshot: %+v", fs.sent)
	}
}

func TestMyHistory_EmptyAndPopulated(t *testing.T) {
	fs := &fakeSender{}
	ins := newTestInsights(t)
	b := &Bot{s: fs, insights: ins}

	b.handleMyHistory(userMessage(42, 100, "/myhistory"))
	if !strings.Contains(fs.sent[0], "haven't made any searches yet") {
		t.Fatalf("empty history message missing: %+v", fs.sent)
	}

	ins.LogInteraction("42", "dragons", []books.Book{
		{Title: "Eragon", Authors: []string{"Christopher Paolini"}, Categories: []string{"Fantasy"}},
	}, insights.CommandFindBook, "narration")
	b.handleMyHistory(userMessage(42, 100, "/myhistory"))
	out := fs.sent[1]
	if !strings.Contains(out, "dragons") || !strings.Contains(out, "Fantasy") {
		t.Fatalf("history summary incomplete: %q", out)
	}
}
