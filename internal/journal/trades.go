package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FileStore abstracts the attachment directory. The repository only needs
// to place new screenshots and retire replaced or deleted ones; serving
// bytes stays with the API layer, which must authorize through
// FindByScreenshot first.
type FileStore interface {
	Store(data []byte, originalName string) (string, error)
	Remove(storedName string) error
}

// Upload carries a raw screenshot part from a multipart request.
type Upload struct {
	Data []byte
	Name string
}

// TradeFields carries trade attributes for create and partial update. Nil
// pointers (and a nil Confluences slice) mean "not supplied".
type TradeFields struct {
	Ticker        *string
	Result        *string
	TotalPnl      *decimal.Decimal
	EntryDatetime *time.Time
	ExitDatetime  *time.Time
	RiskReward    *float64
	Position      *string
	StoplossPips  *int
	TradeRange    *int
	ResultType    *string
	EntryModel    *string
	TradeModel    *string
	SetupType     *string
	Confluences   []string
	TradeNote     *string
	Roadmap       *string
}

// TradesConfig extends the shared service configuration with the
// attachment store used for screenshot lifecycle coupling.
type TradesConfig struct {
	ServiceConfig
	Files FileStore
}

// Trades is the owner-scoped repository for trade records, coordinating
// the screenshot attachment lifecycle with the file store.
type Trades struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
	files  FileStore
}

// NewTrades constructs the trades repository.
func NewTrades(cfg TradesConfig) (*Trades, error) {
	base, err := cfg.ServiceConfig.normalized()
	if err != nil {
		return nil, err
	}
	if cfg.Files == nil {
		return nil, fmt.Errorf("journal: file store is required")
	}
	return &Trades{db: base.Database, clock: base.Clock, logger: base.Logger, files: cfg.Files}, nil
}

// Create persists a new trade, optionally adopting a screenshot. The file
// is written before the row commits; if the commit then fails the file is
// left behind as accepted drift.
func (t *Trades) Create(ctx context.Context, ownerID uint, fields TradeFields, screenshot *Upload) (Trade, error) {
	if err := requireTradeFields(fields); err != nil {
		return Trade{}, err
	}

	trade := Trade{
		Ticker:        *fields.Ticker,
		Result:        *fields.Result,
		TotalPnl:      *fields.TotalPnl,
		EntryDatetime: fields.EntryDatetime.UTC(),
		ExitDatetime:  fields.ExitDatetime.UTC(),
		RiskReward:    *fields.RiskReward,
		Position:      *fields.Position,
		StoplossPips:  *fields.StoplossPips,
		TradeRange:    *fields.TradeRange,
		ResultType:    *fields.ResultType,
		EntryModel:    *fields.EntryModel,
		TradeModel:    *fields.TradeModel,
		SetupType:     *fields.SetupType,
		Confluences:   jsonList(fields.Confluences),
		UserID:        ownerID,
	}
	if fields.TradeNote != nil {
		trade.TradeNote = *fields.TradeNote
	}
	if fields.Roadmap != nil {
		trade.Roadmap = *fields.Roadmap
	}

	if screenshot != nil {
		storedName, err := t.files.Store(screenshot.Data, screenshot.Name)
		if err != nil {
			return Trade{}, err
		}
		trade.ScreenshotFilename = &storedName
	}

	if err := t.db.WithContext(ctx).Create(&trade).Error; err != nil {
		return Trade{}, err
	}
	return trade, nil
}

// List returns the owner's trades, optionally narrowed to a day or month
// of their entry timestamp, ordered ascending by entry time.
func (t *Trades) List(ctx context.Context, ownerID uint, filter ListFilter) ([]Trade, error) {
	return listOwned[Trade](ctx, t.db, ownerID, filter, "entry_datetime")
}

// Get returns one trade by id within the owner's scope.
func (t *Trades) Get(ctx context.Context, ownerID, tradeID uint) (Trade, error) {
	return takeOwned[Trade](ctx, t.db, ownerID, "id = ?", tradeID)
}

// Update overwrites only the supplied fields. A new screenshot is stored
// first, then the row commits with the new reference, then the replaced
// file is retired; a removal failure other than "already absent" is
// surfaced as a storage failure since it leaks the uploads directory.
func (t *Trades) Update(ctx context.Context, ownerID, tradeID uint, fields TradeFields, screenshot *Upload) (Trade, error) {
	var retiredName string
	var updated Trade

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trade, err := takeOwned[Trade](ctx, tx, ownerID, "id = ?", tradeID)
		if err != nil {
			return err
		}

		applyTradeFields(&trade, fields)

		if screenshot != nil {
			storedName, err := t.files.Store(screenshot.Data, screenshot.Name)
			if err != nil {
				return err
			}
			if trade.ScreenshotFilename != nil {
				retiredName = *trade.ScreenshotFilename
			}
			trade.ScreenshotFilename = &storedName
		}

		if err := tx.Save(&trade).Error; err != nil {
			return err
		}
		updated = trade
		return nil
	})
	if err != nil {
		return Trade{}, err
	}

	if retiredName != "" {
		if err := t.files.Remove(retiredName); err != nil {
			t.logger.Error("replaced screenshot not removed",
				zap.Uint("trade_id", tradeID),
				zap.String("filename", retiredName),
				zap.Error(err))
			return updated, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
	}
	return updated, nil
}

// Delete removes the trade and its screenshot. The file is retired inside
// the transaction so a removal failure keeps the record; a file that is
// already absent on disk is tolerated.
func (t *Trades) Delete(ctx context.Context, ownerID, tradeID uint) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trade, err := takeOwned[Trade](ctx, tx, ownerID, "id = ?", tradeID)
		if err != nil {
			return err
		}
		if trade.ScreenshotFilename != nil {
			if err := t.files.Remove(*trade.ScreenshotFilename); err != nil {
				t.logger.Error("screenshot cleanup failed on delete",
					zap.Uint("trade_id", tradeID),
					zap.String("filename", *trade.ScreenshotFilename),
					zap.Error(err))
				return fmt.Errorf("%w: %v", ErrStorageFailure, err)
			}
		}
		return tx.Delete(&trade).Error
	})
}

// FindByScreenshot returns the owner's trade referencing the stored file
// name. It backs the authorization check in front of screenshot serving.
func (t *Trades) FindByScreenshot(ctx context.Context, ownerID uint, storedName string) (Trade, error) {
	return takeOwned[Trade](ctx, t.db, ownerID, "screenshot_filename = ?", storedName)
}

func requireTradeFields(fields TradeFields) error {
	missing := make([]string, 0)
	if fields.Ticker == nil {
		missing = append(missing, "ticker")
	}
	if fields.Result == nil {
		missing = append(missing, "result")
	}
	if fields.TotalPnl == nil {
		missing = append(missing, "total_pnl")
	}
	if fields.EntryDatetime == nil {
		missing = append(missing, "entry_datetime")
	}
	if fields.ExitDatetime == nil {
		missing = append(missing, "exit_datetime")
	}
	if fields.RiskReward == nil {
		missing = append(missing, "risk_reward")
	}
	if fields.Position == nil {
		missing = append(missing, "position")
	}
	if fields.StoplossPips == nil {
		missing = append(missing, "stoploss_pips")
	}
	if fields.TradeRange == nil {
		missing = append(missing, "range")
	}
	if fields.ResultType == nil {
		missing = append(missing, "result_type")
	}
	if fields.EntryModel == nil {
		missing = append(missing, "entry_model")
	}
	if fields.TradeModel == nil {
		missing = append(missing, "trade_model")
	}
	if fields.SetupType == nil {
		missing = append(missing, "setup_type")
	}
	if fields.Confluences == nil {
		missing = append(missing, "confluences")
	}
	if len(missing) > 0 {
		return missingFieldsError(missing)
	}
	return nil
}

func applyTradeFields(trade *Trade, fields TradeFields) {
	if fields.Ticker != nil {
		trade.Ticker = *fields.Ticker
	}
	if fields.Result != nil {
		trade.Result = *fields.Result
	}
	if fields.TotalPnl != nil {
		trade.TotalPnl = *fields.TotalPnl
	}
	if fields.EntryDatetime != nil {
		trade.EntryDatetime = fields.EntryDatetime.UTC()
	}
	if fields.ExitDatetime != nil {
		trade.ExitDatetime = fields.ExitDatetime.UTC()
	}
	if fields.RiskReward != nil {
		trade.RiskReward = *fields.RiskReward
	}
	if fields.Position != nil {
		trade.Position = *fields.Position
	}
	if fields.StoplossPips != nil {
		trade.StoplossPips = *fields.StoplossPips
	}
	if fields.TradeRange != nil {
		trade.TradeRange = *fields.TradeRange
	}
	if fields.ResultType != nil {
		trade.ResultType = *fields.ResultType
	}
	if fields.EntryModel != nil {
		trade.EntryModel = *fields.EntryModel
	}
	if fields.TradeModel != nil {
		trade.TradeModel = *fields.TradeModel
	}
	if fields.SetupType != nil {
		trade.SetupType = *fields.SetupType
	}
	if fields.Confluences != nil {
		trade.Confluences = jsonList(fields.Confluences)
	}
	if fields.TradeNote != nil {
		trade.TradeNote = *fields.TradeNote
	}
	if fields.Roadmap != nil {
		trade.Roadmap = *fields.Roadmap
	}
}
