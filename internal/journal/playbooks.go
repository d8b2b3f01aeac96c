package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const playbookIDPrefix = "pb_"

// NewPlaybookID generates the public opaque identifier for a playbook:
// the fixed tag followed by the first eight hex characters of a random
// UUID. Generated once at creation and never regenerated.
func NewPlaybookID() string {
	return playbookIDPrefix + uuid.NewString()[:8]
}

// PlaybookFields carries playbook attributes for create and partial
// update. Nil pointers and nil slices mean "not supplied".
type PlaybookFields struct {
	Title         *string
	EntryModel    *string
	TradeModel    *string
	SetupGrade    *string
	Confluences   []string
	Rules         []string
	Confirmations []string
	Invalidations []string
	Roadmap       []string
	Tags          []string
}

// PlaybooksConfig extends the shared service configuration with the
// external-id generator, injectable for tests.
type PlaybooksConfig struct {
	ServiceConfig
	NewID func() string
}

// Playbooks is the owner-scoped repository for strategy playbooks, keyed
// externally by the opaque playbook id rather than the storage key.
type Playbooks struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
	newID  func() string
}

// NewPlaybooks constructs the playbooks repository.
func NewPlaybooks(cfg PlaybooksConfig) (*Playbooks, error) {
	base, err := cfg.ServiceConfig.normalized()
	if err != nil {
		return nil, err
	}
	newID := cfg.NewID
	if newID == nil {
		newID = NewPlaybookID
	}
	return &Playbooks{db: base.Database, clock: base.Clock, logger: base.Logger, newID: newID}, nil
}

// Create persists a new playbook and assigns its external identifier.
func (p *Playbooks) Create(ctx context.Context, ownerID uint, fields PlaybookFields) (Playbook, error) {
	missing := make([]string, 0, 4)
	if fields.Title == nil || *fields.Title == "" {
		missing = append(missing, "title")
	}
	if fields.EntryModel == nil || *fields.EntryModel == "" {
		missing = append(missing, "entry_model")
	}
	if fields.TradeModel == nil || *fields.TradeModel == "" {
		missing = append(missing, "trade_model")
	}
	if fields.SetupGrade == nil || *fields.SetupGrade == "" {
		missing = append(missing, "setup_grade")
	}
	if len(missing) > 0 {
		return Playbook{}, missingFieldsError(missing)
	}

	now := p.clock().UTC()
	playbook := Playbook{
		PlaybookID:    p.newID(),
		Title:         *fields.Title,
		EntryModel:    *fields.EntryModel,
		TradeModel:    *fields.TradeModel,
		SetupGrade:    *fields.SetupGrade,
		Confluences:   jsonList(fields.Confluences),
		Rules:         jsonList(fields.Rules),
		Confirmations: jsonList(fields.Confirmations),
		Invalidations: jsonList(fields.Invalidations),
		Roadmap:       jsonList(fields.Roadmap),
		Tags:          jsonList(fields.Tags),
		CreatedAt:     now,
		UpdatedAt:     now,
		UserID:        ownerID,
	}
	if err := p.db.WithContext(ctx).Create(&playbook).Error; err != nil {
		return Playbook{}, err
	}
	return playbook, nil
}

// List returns the owner's playbooks ordered by creation time. Playbook
// listings take no date filters; the calendar views only group notes and
// trades.
func (p *Playbooks) List(ctx context.Context, ownerID uint) ([]Playbook, error) {
	return listOwned[Playbook](ctx, p.db, ownerID, ListFilter{}, "created_at")
}

// Get returns one playbook by its external identifier within the owner's
// scope.
func (p *Playbooks) Get(ctx context.Context, ownerID uint, playbookID string) (Playbook, error) {
	return takeOwned[Playbook](ctx, p.db, ownerID, "playbook_id = ?", playbookID)
}

// Update overwrites only the supplied fields and refreshes the updated
// timestamp. The external identifier is never regenerated.
func (p *Playbooks) Update(ctx context.Context, ownerID uint, playbookID string, fields PlaybookFields) (Playbook, error) {
	var updated Playbook
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		playbook, err := takeOwned[Playbook](ctx, tx, ownerID, "playbook_id = ?", playbookID)
		if err != nil {
			return err
		}

		if fields.Title != nil {
			playbook.Title = *fields.Title
		}
		if fields.EntryModel != nil {
			playbook.EntryModel = *fields.EntryModel
		}
		if fields.TradeModel != nil {
			playbook.TradeModel = *fields.TradeModel
		}
		if fields.SetupGrade != nil {
			playbook.SetupGrade = *fields.SetupGrade
		}
		if fields.Confluences != nil {
			playbook.Confluences = jsonList(fields.Confluences)
		}
		if fields.Rules != nil {
			playbook.Rules = jsonList(fields.Rules)
		}
		if fields.Confirmations != nil {
			playbook.Confirmations = jsonList(fields.Confirmations)
		}
		if fields.Invalidations != nil {
			playbook.Invalidations = jsonList(fields.Invalidations)
		}
		if fields.Roadmap != nil {
			playbook.Roadmap = jsonList(fields.Roadmap)
		}
		if fields.Tags != nil {
			playbook.Tags = jsonList(fields.Tags)
		}
		playbook.UpdatedAt = p.clock().UTC()

		if err := tx.Save(&playbook).Error; err != nil {
			return err
		}
		updated = playbook
		return nil
	})
	if err != nil {
		return Playbook{}, err
	}
	return updated, nil
}

// Delete removes the playbook addressed by its external identifier.
func (p *Playbooks) Delete(ctx context.Context, ownerID uint, playbookID string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		playbook, err := takeOwned[Playbook](ctx, tx, ownerID, "playbook_id = ?", playbookID)
		if err != nil {
			return err
		}
		return tx.Delete(&playbook).Error
	})
}
