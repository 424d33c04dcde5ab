package insights

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Snapshot is a system-wide usage summary recomputed on demand.
// LastActivity is nil when the log is empty or missing, so the JSON
// shape has no last_activity key until something happened.
type Snapshot struct {
	TotalInteractions int            `json:"total_interactions"`
	UniqueUsers       int            `json:"unique_users"`
	CommandUses       map[string]int `json:"command_uses"`
	LastActivity      *time.Time     `json:"last_activity,omitempty"`
}

// Analytics scans the whole log once. Records with unrecognized command
// tags count toward the total but not toward the per-command breakdown.
func (s *Service) Analytics() Snapshot {
	snap := Snapshot{CommandUses: map[string]int{
		CommandFindBook:  0,
		CommandRecommend: 0,
	}}
	recs, err := s.rec.LoadAll()
	if err != nil {
		log.Printf("failed to read interaction log: %v", err)
		return snap
	}
	users := make(map[string]bool)
	for _, rec := range recs {
		snap.TotalInteractions++
		users[rec.UserID] = true
		if _, known := snap.CommandUses[rec.Command]; known {
			snap.CommandUses[rec.Command]++
		}
		ts := rec.Timestamp
		snap.LastActivity = &ts
	}
	snap.UniqueUsers = len(users)
	return snap
}

// Summary renders the snapshot as a short plain-text report, used by the
// admin command and the scheduled digest.
func (s Snapshot) Summary() string {
	var b strings.Builder
	b.WriteString("📊 BookFinder usage\n\n")
	b.WriteString(fmt.Sprintf("Total interactions: %d\n", s.TotalInteractions))
	b.WriteString(fmt.Sprintf("Unique users: %d\n", s.UniqueUsers))
	b.WriteString(fmt.Sprintf("Find book: %d\n", s.CommandUses[CommandFindBook]))
	b.WriteString(fmt.Sprintf("Recommendations: %d\n", s.CommandUses[CommandRecommend]))
	if s.LastActivity != nil {
		b.WriteString(fmt.Sprintf("Last activity: %s\n", s.LastActivity.Format(time.RFC3339)))
	}
	return b.String()
}
