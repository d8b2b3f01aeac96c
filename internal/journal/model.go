package journal

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Note is a free-form journal entry. CreatedAt is server-assigned and
// immutable; it is also the timestamp the date/month list filters target.
type Note struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	Title     string    `gorm:"column:title;size:100;not null"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_notes_user_created,priority:2"`
	UserID    uint      `gorm:"column:user_id;not null;index:idx_notes_user_created,priority:1"`
}

// TableName provides the explicit table binding for GORM.
func (Note) TableName() string {
	return "notes"
}

// Trade is a recorded execution. EntryDatetime is the business timestamp
// the date/month list filters target. ScreenshotFilename, when set, names
// exactly one file in the attachment store owned by this record alone.
type Trade struct {
	ID                 uint            `gorm:"column:id;primaryKey"`
	Ticker             string          `gorm:"column:ticker;size:20;not null"`
	Result             string          `gorm:"column:result;size:20;not null"`
	TotalPnl           decimal.Decimal `gorm:"column:total_pnl;type:decimal(20,8);not null"`
	EntryDatetime      time.Time       `gorm:"column:entry_datetime;not null;index:idx_trades_user_entry,priority:2"`
	ExitDatetime       time.Time       `gorm:"column:exit_datetime;not null"`
	RiskReward         float64         `gorm:"column:risk_reward;not null"`
	Position           string          `gorm:"column:position;size:10;not null"`
	StoplossPips       int             `gorm:"column:stoploss_pips;not null"`
	TradeRange         int             `gorm:"column:trade_range;not null"`
	ResultType         string          `gorm:"column:result_type;size:50;not null"`
	EntryModel         string          `gorm:"column:entry_model;size:50;not null"`
	TradeModel         string          `gorm:"column:trade_model;size:50;not null"`
	SetupType          string          `gorm:"column:setup_type;size:50;not null"`
	Confluences        datatypes.JSON  `gorm:"column:confluences"`
	TradeNote          string          `gorm:"column:trade_note;type:text"`
	Roadmap            string          `gorm:"column:roadmap;type:text"`
	ScreenshotFilename *string         `gorm:"column:screenshot_filename;size:255"`
	UserID             uint            `gorm:"column:user_id;not null;index:idx_trades_user_entry,priority:1"`
}

// TableName provides the explicit table binding for GORM.
func (Trade) TableName() string {
	return "trades"
}

// Playbook is a reusable strategy template. PlaybookID is the public
// opaque identifier: generated once at creation, globally unique, and the
// only key external callers ever see.
type Playbook struct {
	ID            uint           `gorm:"column:id;primaryKey"`
	PlaybookID    string         `gorm:"column:playbook_id;size:50;not null;uniqueIndex"`
	Title         string         `gorm:"column:title;size:100;not null"`
	EntryModel    string         `gorm:"column:entry_model;size:50;not null"`
	TradeModel    string         `gorm:"column:trade_model;size:50;not null"`
	SetupGrade    string         `gorm:"column:setup_grade;size:10;not null"`
	Confluences   datatypes.JSON `gorm:"column:confluences"`
	Rules         datatypes.JSON `gorm:"column:rules"`
	Confirmations datatypes.JSON `gorm:"column:confirmations"`
	Invalidations datatypes.JSON `gorm:"column:invalidations"`
	Roadmap       datatypes.JSON `gorm:"column:roadmap"`
	Tags          datatypes.JSON `gorm:"column:tags"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null;autoUpdateTime:false"`
	UserID        uint           `gorm:"column:user_id;not null;index"`
}

// TableName provides the explicit table binding for GORM.
func (Playbook) TableName() string {
	return "playbooks"
}

// jsonList encodes a string slice into a JSON column value.
func jsonList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(encoded)
}

// ListFromJSON decodes a JSON column value back into a string slice.
func ListFromJSON(value datatypes.JSON) []string {
	if len(value) == 0 {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal(value, &values); err != nil {
		return []string{}
	}
	return values
}
