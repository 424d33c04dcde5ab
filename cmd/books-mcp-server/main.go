package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Chia213/bookfinder-ai-discord-bot/internal/books"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/insights"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/storage"
)

// SearchBooksParams mirrors the structured search parameters of the bot.
type SearchBooksParams struct {
	Title        string `json:"title,omitempty" mcp:"book title or partial title"`
	Author       string `json:"author,omitempty" mcp:"author name"`
	Genre        string `json:"genre,omitempty" mcp:"genre or category"`
	GeneralQuery string `json:"general_query,omitempty" mcp:"free-text query"`
}

type UserHistoryParams struct {
	UserID string `json:"user_id" mcp:"user identifier"`
	Limit  int    `json:"limit,omitempty" mcp:"maximum entries to return (default: 10)"`
}

type UserPreferencesParams struct {
	UserID string `json:"user_id" mcp:"user identifier"`
}

type AnalyticsParams struct{}

type DeleteUserDataParams struct {
	UserID string `json:"user_id" mcp:"user identifier whose records are erased; irreversible"`
}

type bookFinderServer struct {
	catalog  *books.Client
	insights *insights.Service
}

func textResult(v any) (*mcp.CallToolResultFor[any], error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

func errorResult(format string, args ...any) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}

func (s *bookFinderServer) SearchBooks(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[SearchBooksParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	found, err := s.catalog.Search(ctx, books.Params{
		Title:        args.Title,
		Author:       args.Author,
		Genre:        args.Genre,
		GeneralQuery: args.GeneralQuery,
	})
	if err != nil {
		return errorResult("search failed: %v", err), nil
	}
	return textResult(found)
}

func (s *bookFinderServer) GetUserHistory(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[UserHistoryParams]) (*mcp.CallToolResultFor[any], error) {
	limit := params.Arguments.Limit
	if limit <= 0 {
		limit = 10
	}
	return textResult(s.insights.UserHistory(params.Arguments.UserID, limit))
}

func (s *bookFinderServer) GetUserPreferences(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[UserPreferencesParams]) (*mcp.CallToolResultFor[any], error) {
	return textResult(s.insights.UserPreferences(params.Arguments.UserID))
}

func (s *bookFinderServer) GetAnalytics(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[AnalyticsParams]) (*mcp.CallToolResultFor[any], error) {
	return textResult(s.insights.Analytics())
}

func (s *bookFinderServer) DeleteUserData(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[DeleteUserDataParams]) (*mcp.CallToolResultFor[any], error) {
	if params.Arguments.UserID == "" {
		return errorResult("user_id is required"), nil
	}
	n, err := s.insights.DeleteUserData(params.Arguments.UserID)
	if err != nil {
		return errorResult("deletion failed: %v", err), nil
	}
	return textResult(map[string]int{"deleted": n})
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	logPath := os.Getenv("LOG_FILE_PATH")
	if logPath == "" {
		logPath = "data/interactions.jsonl"
	}
	fileLog, err := storage.NewFileLog(logPath)
	if err != nil {
		log.Fatalf("failed to init interaction log: %v", err)
	}

	ctx := context.Background()
	google, err := books.NewGoogleSource(ctx, os.Getenv("GOOGLE_BOOKS_API_KEY"), os.Getenv("GOOGLE_BOOKS_BASE_URL"))
	if err != nil {
		log.Fatalf("failed to init google books: %v", err)
	}
	openLibrary := books.NewOpenLibrarySource(os.Getenv("OPEN_LIBRARY_BASE_URL"), 30*time.Second)

	bfs := &bookFinderServer{
		catalog:  books.NewClient(google, openLibrary),
		insights: insights.New(fileLog),
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "bookfinder-mcp",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_books",
		Description: "Searches the book catalogs (Google Books with Open Library fallback) using structured parameters",
	}, bfs.SearchBooks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_user_history",
		Description: "Returns a user's recent search interactions from the log",
	}, bfs.GetUserHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_user_preferences",
		Description: "Returns a user's derived genre/author preference profile",
	}, bfs.GetUserPreferences)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_analytics",
		Description: "Returns system-wide usage analytics",
	}, bfs.GetAnalytics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_user_data",
		Description: "Irreversibly deletes all logged interactions for a user",
	}, bfs.DeleteUserData)

	log.Printf("starting BookFinder MCP server on stdin/stdout")
	if err := server.Run(context.Background(), mcp.NewStdioTransport()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
