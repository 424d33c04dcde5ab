package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/Chia213/bookfinder-ai-discord-bot/internal/books"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/config"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/insights"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/llm"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/query"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/scheduler"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/storage"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	ctx := context.Background()

	fileLog, err := storage.NewFileLog(cfg.LogFilePath)
	if err != nil {
		log.Fatalf("failed to init interaction log: %v", err)
	}
	ins := insights.New(fileLog)

	factory := &llm.Factory{
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
	llmClient, err := factory.CreateClient(cfg.LLMProvider, cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	google, err := books.NewGoogleSource(ctx, cfg.GoogleBooksAPIKey, cfg.GoogleBooksBaseURL)
	if err != nil {
		log.Fatalf("failed to init google books: %v", err)
	}
	openLibrary := books.NewOpenLibrarySource(cfg.OpenLibraryBaseURL, cfg.RequestTimeout)
	catalog := books.NewClient(google, openLibrary)

	normalizer := query.NewNormalizer(llmClient)

	bot, err := telegram.New(
		cfg.TelegramBotToken,
		llmClient,
		normalizer,
		catalog,
		ins,
		cfg.AdminUserID,
		cfg.MessageParseMode,
		cfg.RequestTimeout,
	)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	if cfg.AdminUserID != 0 && cfg.DigestCron != "" {
		sched := scheduler.New(cfg.DigestCron)
		sched.SetDigestFunction(func(ctx context.Context) error {
			return bot.SendToUser(cfg.AdminUserID, ins.Analytics().Summary())
		})
		if err := sched.Start(); err != nil {
			log.Printf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	bot.Start(ctx)
}
