package journal

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NoteFields carries note attributes for create and partial update. Nil
// pointers mean "not supplied" and leave the stored value untouched.
type NoteFields struct {
	Title   *string
	Content *string
}

// Notes is the owner-scoped repository for journal notes.
type Notes struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewNotes constructs the notes repository.
func NewNotes(cfg ServiceConfig) (*Notes, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	return &Notes{db: cfg.Database, clock: cfg.Clock, logger: cfg.Logger}, nil
}

// Create persists a new note for the owner. Title and content are required;
// the creation timestamp is server-assigned and immutable.
func (n *Notes) Create(ctx context.Context, ownerID uint, fields NoteFields) (Note, error) {
	missing := make([]string, 0, 2)
	if fields.Title == nil || *fields.Title == "" {
		missing = append(missing, "title")
	}
	if fields.Content == nil || *fields.Content == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return Note{}, missingFieldsError(missing)
	}

	note := Note{
		Title:     *fields.Title,
		Content:   *fields.Content,
		CreatedAt: n.clock().UTC(),
		UserID:    ownerID,
	}
	if err := n.db.WithContext(ctx).Create(&note).Error; err != nil {
		return Note{}, err
	}
	return note, nil
}

// List returns the owner's notes, optionally narrowed to a day or month of
// their creation timestamp, ordered ascending by creation time.
func (n *Notes) List(ctx context.Context, ownerID uint, filter ListFilter) ([]Note, error) {
	return listOwned[Note](ctx, n.db, ownerID, filter, "created_at")
}

// Get returns one note by id within the owner's scope.
func (n *Notes) Get(ctx context.Context, ownerID, noteID uint) (Note, error) {
	return takeOwned[Note](ctx, n.db, ownerID, "id = ?", noteID)
}

// Update overwrites only the supplied fields and returns the stored note.
func (n *Notes) Update(ctx context.Context, ownerID, noteID uint, fields NoteFields) (Note, error) {
	var updated Note
	err := n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		note, err := takeOwned[Note](ctx, tx, ownerID, "id = ?", noteID)
		if err != nil {
			return err
		}
		if fields.Title != nil {
			note.Title = *fields.Title
		}
		if fields.Content != nil {
			note.Content = *fields.Content
		}
		if err := tx.Save(&note).Error; err != nil {
			return err
		}
		updated = note
		return nil
	})
	if err != nil {
		return Note{}, err
	}
	return updated, nil
}

// Delete removes the note within the owner's scope.
func (n *Notes) Delete(ctx context.Context, ownerID, noteID uint) error {
	return n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		note, err := takeOwned[Note](ctx, tx, ownerID, "id = ?", noteID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&note).Error; err != nil {
			return err
		}
		return nil
	})
}
