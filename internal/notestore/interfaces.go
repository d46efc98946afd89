// interfaces.go: this code defines the interface for the durable note storage
package notestore

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tphakala/voicenote-go/internal/conf"
)

// Interface abstracts the underlying database implementation and defines the
// operations the note store needs from durable storage.
type Interface interface {
	Open() error
	Save(note *Note) error
	Delete(id string) error
	Get(id string) (Note, error)
	GetAllNotes() ([]Note, error)
	SearchNotes(query string) ([]Note, error)
	Close() error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new backend instance based on the provided configuration.
func New(settings *conf.Settings) (Interface, error) {
	switch {
	case settings.Storage.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}, nil
	default:
		return nil, fmt.Errorf("no durable storage backend enabled in configuration")
	}
}

// Save inserts a new note record into the database.
func (ds *DataStore) Save(note *Note) error {
	if ds.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	if err := ds.DB.Create(note).Error; err != nil {
		return fmt.Errorf("saving note: %w", err)
	}
	return nil
}

// Get retrieves a note by its ID from the database.
func (ds *DataStore) Get(id string) (Note, error) {
	var note Note
	if err := ds.DB.Where("id = ?", id).First(&note).Error; err != nil {
		return Note{}, fmt.Errorf("getting note with ID %s: %w", id, err)
	}
	note.Normalize()
	return note, nil
}

// Delete removes a note from the database.
func (ds *DataStore) Delete(id string) error {
	result := ds.DB.Where("id = ?", id).Delete(&Note{})
	if result.Error != nil {
		return fmt.Errorf("deleting note with ID %s: %w", id, result.Error)
	}
	return nil
}

// GetAllNotes retrieves the full collection in insertion order.
func (ds *DataStore) GetAllNotes() ([]Note, error) {
	var notes []Note
	if err := ds.DB.Order("created_at ASC, id ASC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("getting all notes: %w", err)
	}
	for i := range notes {
		notes[i].Normalize()
	}
	return notes, nil
}

// SearchNotes returns notes whose title contains the query, in insertion order.
func (ds *DataStore) SearchNotes(query string) ([]Note, error) {
	var notes []Note
	err := ds.DB.Where("title LIKE ?", "%"+query+"%").
		Order("created_at ASC, id ASC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}
	for i := range notes {
		notes[i].Normalize()
	}
	return notes, nil
}

// performAutoMigration runs gorm automigration for the note schema.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Note{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}
	if debug {
		getLogger().Debug("database initialized", "type", dbType, "path", connectionInfo)
	}
	return nil
}
