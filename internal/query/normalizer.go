package query

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/Chia213/bookfinder-ai-discord-bot/internal/books"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/llm"
)

const parserPrompt = `You are a helpful AI assistant that extracts search parameters from user queries about books.

IMPORTANT RULES:
1. If the query asks for books by people you don't know (like "my neighbor"/"min granne", "my friend"/"min vän", "my teacher"/"min lärare"), respond in the same language as the query:
   - English: {"error": "I don't have information about books written by people in your personal life. Please provide the author's full name if you know it."}
   - Swedish: {"error": "Jag har ingen information om böcker skrivna av personer i ditt privatliv. Ange författarens fullständiga namn om du vet det."}

2. If the query asks for impossible information (like future bestsellers, books based on personal mood without context), respond in the same language:
   - English: {"error": "I can't predict future bestsellers or read your mind. Please be more specific about genres, authors, or themes you're interested in."}
   - Swedish: {"error": "Jag kan inte förutsäga framtida bestsellers eller läsa dina tankar. Var mer specifik om genrer, författare eller teman du är intresserad av."}

3. If the query is too vague or nonsensical, respond in the same language:
   - English: {"error": "I need more specific information to help you find books. Try mentioning a genre, author, or theme you're interested in."}
   - Swedish: {"error": "Jag behöver mer specifik information för att hjälpa dig hitta böcker. Försök nämna en genre, författare eller tema du är intresserad av."}

For valid queries (in any language), extract the following information if present:
- title: Book title or partial title
- author: Author name (only if it's a real, known author)
- genre: Genre or category
- general_query: Always include the original user query

Respond with a single valid JSON object and nothing else, no markdown fences. Example:
{"title": "samurai", "genre": "historical fiction", "general_query": "samurai books"}

If you cannot extract specific fields but the query is valid, return:
{"general_query": "user's original query here"}`

// Result is either a rejection (the query was classified unanswerable,
// Rejection holds a user-facing localized message) or search parameters
// with GeneralQuery always populated.
type Result struct {
	Rejection string
	Params    books.Params
}

func (r Result) Rejected() bool { return r.Rejection != "" }

// Normalizer turns a free-text book request into structured search
// parameters via a language-model call.
type Normalizer struct {
	llm llm.Client
}

func NewNormalizer(client llm.Client) *Normalizer {
	return &Normalizer{llm: client}
}

// Normalize never returns an error: when the model is unreachable or its
// output does not parse, it degrades to the verbatim input as a general
// query so downstream search always has something to run.
func (n *Normalizer) Normalize(ctx context.Context, text string) Result {
	fallback := Result{Params: books.Params{GeneralQuery: text}}

	resp, err := n.llm.Generate(ctx, []llm.Message{
		{Role: "system", Content: parserPrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		log.Printf("query normalization failed, degrading to general query: %v", err)
		return fallback
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		log.Printf("query normalization returned empty content for %q", text)
		return fallback
	}

	var parsed struct {
		Error        string `json:"error"`
		Title        string `json:"title"`
		Author       string `json:"author"`
		Genre        string `json:"genre"`
		GeneralQuery string `json:"general_query"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		log.Printf("query normalization returned unparseable content: %q", content)
		return fallback
	}
	if parsed.Error != "" {
		return Result{Rejection: parsed.Error}
	}
	p := books.Params{
		Title:        parsed.Title,
		Author:       parsed.Author,
		Genre:        parsed.Genre,
		GeneralQuery: parsed.GeneralQuery,
	}
	if p.GeneralQuery == "" {
		p.GeneralQuery = text
	}
	return Result{Params: p}
}
