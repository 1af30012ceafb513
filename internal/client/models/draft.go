package models

import (
	"fmt"
	"time"
)

// DraftSnapshot is a full, serializable copy of the editable fields of one
// in-progress entry plus the save timestamp. Each autosave is a complete
// replace; a snapshot is never partially written.
type DraftSnapshot struct {
	Entry   JournalEntry `json:"entry"`
	SavedAt time.Time    `json:"saved_at"`
}

// DraftKey builds the draft-store key for one editing session. The key is
// scoped to (entry id, session start) so two surfaces editing the same entry
// never collide on a draft.
func DraftKey(entryID string, sessionStart time.Time) string {
	if entryID == "" {
		entryID = "new"
	}
	return fmt.Sprintf("draft:%s:%d", entryID, sessionStart.UnixNano())
}
