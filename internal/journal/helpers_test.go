package journal

import (
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&Note{}, &Trade{}, &Playbook{}))
	return db
}

// fakeFileStore records attachment operations and can be made to fail.
type fakeFileStore struct {
	stored    []string
	removed   []string
	storeErr  error
	removeErr error
	sequence  int
}

func (f *fakeFileStore) Store(data []byte, originalName string) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	f.sequence++
	name := fmt.Sprintf("stored-%d_%s", f.sequence, originalName)
	f.stored = append(f.stored, name)
	return name, nil
}

func (f *fakeFileStore) Remove(storedName string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, storedName)
	return nil
}

func strPtr(value string) *string {
	return &value
}

func intPtr(value int) *int {
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}

func timePtr(value time.Time) *time.Time {
	return &value
}

func decimalPtr(value string) *decimal.Decimal {
	parsed := decimal.RequireFromString(value)
	return &parsed
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

// completeTradeFields returns a valid field set for creating a trade.
func completeTradeFields(t *testing.T, entry string) TradeFields {
	t.Helper()
	return TradeFields{
		Ticker:        strPtr("AAPL"),
		Result:        strPtr("win"),
		TotalPnl:      decimalPtr("142.50"),
		EntryDatetime: timePtr(mustParseTime(t, entry)),
		ExitDatetime:  timePtr(mustParseTime(t, entry).Add(2 * time.Hour)),
		RiskReward:    floatPtr(2.5),
		Position:      strPtr("long"),
		StoplossPips:  intPtr(15),
		TradeRange:    intPtr(40),
		ResultType:    strPtr("target"),
		EntryModel:    strPtr("breaker"),
		TradeModel:    strPtr("continuation"),
		SetupType:     strPtr("breakout"),
		Confluences:   []string{"Breakout"},
	}
}

func requireValidation(t *testing.T, err error, fields ...string) {
	t.Helper()
	var validation *ValidationError
	require.True(t, errors.As(err, &validation), "expected ValidationError, got %v", err)
	for _, field := range fields {
		require.Contains(t, validation.Fields, field)
	}
}
