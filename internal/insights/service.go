package insights

import (
	"log"
	"time"

	"github.com/Chia213/bookfinder-ai-discord-bot/internal/books"
	"github.com/Chia213/bookfinder-ai-discord-bot/internal/storage"
)

// Command tags written to the interaction log. Unknown tags still count
// toward totals but get no per-command breakdown.
const (
	CommandFindBook  = "findbook"
	CommandRecommend = "recommend"
)

const (
	loggedBooksMax    = 3
	excerptRunesMax   = 200
	preferenceWindow  = 20
	topRanked         = 5
	recentQueriesKept = 5
)

// Service derives per-user and system-wide summaries from the interaction
// log. Every read recomputes from the current log contents; nothing is
// cached.
type Service struct {
	rec storage.Recorder
}

func New(rec storage.Recorder) *Service {
	return &Service{rec: rec}
}

// LogInteraction appends one record for a completed or failed command.
// It is best-effort: an I/O failure is logged and swallowed so telemetry
// can never fail the user-facing command.
func (s *Service) LogInteraction(userID, query string, found []books.Book, command, aiResponse string) {
	rec := storage.Record{
		Timestamp:  time.Now().UTC(),
		UserID:     userID,
		Query:      query,
		Command:    command,
		BooksFound: len(found),
		Books:      []storage.BookSummary{},
	}
	for i, b := range found {
		if i == loggedBooksMax {
			break
		}
		rec.Books = append(rec.Books, storage.BookSummary{
			Title:      b.Title,
			Authors:    b.Authors,
			Categories: b.Categories,
		})
	}
	rec.AIResponse = truncateRunes(aiResponse, excerptRunesMax)
	if err := s.rec.Append(rec); err != nil {
		log.Printf("failed to log interaction for user %s: %v", userID, err)
	}
}

// UserHistory returns the user's last limit records in append order.
// Read failures degrade to an empty history.
func (s *Service) UserHistory(userID string, limit int) []storage.Record {
	recs, err := s.rec.LoadAll()
	if err != nil {
		log.Printf("failed to read interaction log: %v", err)
		return nil
	}
	var mine []storage.Record
	for _, r := range recs {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	if limit > 0 && len(mine) > limit {
		mine = mine[len(mine)-limit:]
	}
	return mine
}

// DeleteUserData removes every record for the user from the log and
// returns how many were removed. Unparseable lines survive untouched.
// Irreversible; callers own the confirmation step.
func (s *Service) DeleteUserData(userID string) (int, error) {
	n, err := s.rec.RewriteExcluding(func(r storage.Record) bool {
		return r.UserID == userID
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("deleted %d interactions for user %s", n, userID)
	}
	return n, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
