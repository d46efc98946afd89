// model.go this code defines the data model for the voice note collection
package notestore

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/tphakala/voicenote-go/internal/mediaref"
)

// Note represents a single persisted voice recording.
type Note struct {
	ID              string    `gorm:"primaryKey"`
	Title           string    `gorm:"index:idx_notes_title"`
	CreatedAt       time.Time `gorm:"index:idx_notes_created"`
	DurationSeconds int

	// Flattened audio reference; only mediaref interprets the kind.
	RefKind    string
	RefPath    string
	RefPayload []byte `gorm:"type:blob"`
}

// Audio reconstructs the tagged audio reference from the stored columns.
func (n Note) Audio() mediaref.AudioReference {
	switch mediaref.Kind(n.RefKind) {
	case mediaref.KindFilePath:
		return mediaref.NewFilePath(n.RefPath)
	case mediaref.KindEncodedPayload:
		return mediaref.NewEncodedPayload(n.RefPayload)
	default:
		return mediaref.AudioReference{}
	}
}

// SetAudio flattens the tagged audio reference into the stored columns.
func (n *Note) SetAudio(ref mediaref.AudioReference) {
	n.RefKind = string(ref.Kind)
	n.RefPath = ref.Path
	n.RefPayload = ref.Payload
}

// Normalize applies documented defaults for fields older records may lack:
// duration defaults to 0, title to a generated placeholder.
func (n *Note) Normalize() {
	if n.Title == "" {
		n.Title = DefaultTitle(n.CreatedAt)
	}
	if n.DurationSeconds < 0 {
		n.DurationSeconds = 0
	}
}

// DefaultTitle returns the placeholder title for a note created at t.
func DefaultTitle(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return fmt.Sprintf("Voice Note %s", t.Format("2006-01-02"))
}

// FormatDuration renders a duration in seconds as m:ss for display.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

var (
	idMutex sync.Mutex
	lastID  int64
)

// NewNoteID returns a time-derived identifier, unique within this process.
// Identifiers are epoch milliseconds; a collision within the same
// millisecond bumps the value so ids stay strictly monotonic.
func NewNoteID() string {
	idMutex.Lock()
	defer idMutex.Unlock()

	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return strconv.FormatInt(id, 10)
}
