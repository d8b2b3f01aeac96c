package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestTrades(t *testing.T, files FileStore) *Trades {
	t.Helper()
	trades, err := NewTrades(TradesConfig{
		ServiceConfig: ServiceConfig{Database: newTestDB(t)},
		Files:         files,
	})
	require.NoError(t, err)
	return trades
}

func TestTradesCreateWithScreenshot(t *testing.T) {
	files := &fakeFileStore{}
	trades := newTestTrades(t, files)

	trade, err := trades.Create(context.Background(), 1,
		completeTradeFields(t, "2024-07-22T10:00:00Z"),
		&Upload{Data: []byte("png-bytes"), Name: "chart.png"})
	require.NoError(t, err)
	require.NotNil(t, trade.ScreenshotFilename)
	require.Equal(t, files.stored[0], *trade.ScreenshotFilename)
	require.Equal(t, []string{"Breakout"}, ListFromJSON(trade.Confluences))
	require.True(t, trade.TotalPnl.Equal(decimal.RequireFromString("142.50")))
}

func TestTradesCreateWithoutScreenshot(t *testing.T) {
	files := &fakeFileStore{}
	trades := newTestTrades(t, files)

	trade, err := trades.Create(context.Background(), 1, completeTradeFields(t, "2024-07-22T10:00:00Z"), nil)
	require.NoError(t, err)
	require.Nil(t, trade.ScreenshotFilename)
	require.Empty(t, files.stored)
}

func TestTradesCreateReportsMissingFields(t *testing.T) {
	trades := newTestTrades(t, &fakeFileStore{})

	_, err := trades.Create(context.Background(), 1, TradeFields{Ticker: strPtr("AAPL")}, nil)
	requireValidation(t, err, "result", "total_pnl", "entry_datetime", "confluences")
}

func TestTradesCreateRejectsBadUpload(t *testing.T) {
	storeFailure := errors.New("disallowed")
	trades := newTestTrades(t, &fakeFileStore{storeErr: storeFailure})

	_, err := trades.Create(context.Background(), 1,
		completeTradeFields(t, "2024-07-22T10:00:00Z"),
		&Upload{Data: []byte("x"), Name: "chart.bmp"})
	require.ErrorIs(t, err, storeFailure)
}

func TestTradesListFiltersOnEntryTime(t *testing.T) {
	trades := newTestTrades(t, &fakeFileStore{})

	for _, entry := range []string{
		"2024-07-22T10:00:00Z",
		"2024-07-23T10:00:00Z",
		"2024-08-01T10:00:00Z",
	} {
		_, err := trades.Create(context.Background(), 1, completeTradeFields(t, entry), nil)
		require.NoError(t, err)
	}

	month, err := trades.List(context.Background(), 1, ListFilter{Month: "2024-07"})
	require.NoError(t, err)
	require.Len(t, month, 2)
	require.True(t, month[0].EntryDatetime.Before(month[1].EntryDatetime))

	day, err := trades.List(context.Background(), 1, ListFilter{Date: "2024-07-22"})
	require.NoError(t, err)
	require.Len(t, day, 1)

	_, err = trades.List(context.Background(), 1, ListFilter{Month: "July"})
	requireValidation(t, err, "month")
}

func TestTradesPartialUpdatePreservesOmittedFields(t *testing.T) {
	trades := newTestTrades(t, &fakeFileStore{})

	created, err := trades.Create(context.Background(), 1, completeTradeFields(t, "2024-07-22T10:00:00Z"), nil)
	require.NoError(t, err)

	updated, err := trades.Update(context.Background(), 1, created.ID, TradeFields{
		Result:   strPtr("loss"),
		TotalPnl: decimalPtr("-50"),
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "loss", updated.Result)
	require.True(t, updated.TotalPnl.Equal(decimal.RequireFromString("-50")))
	require.Equal(t, "AAPL", updated.Ticker)
	require.Equal(t, []string{"Breakout"}, ListFromJSON(updated.Confluences))
	require.True(t, updated.EntryDatetime.Equal(created.EntryDatetime))
}

func TestTradesUpdateReplacesScreenshot(t *testing.T) {
	files := &fakeFileStore{}
	trades := newTestTrades(t, files)

	created, err := trades.Create(context.Background(), 1,
		completeTradeFields(t, "2024-07-22T10:00:00Z"),
		&Upload{Data: []byte("old"), Name: "old.png"})
	require.NoError(t, err)
	oldName := *created.ScreenshotFilename

	updated, err := trades.Update(context.Background(), 1, created.ID, TradeFields{}, &Upload{
		Data: []byte("new"),
		Name: "new.png",
	})
	require.NoError(t, err)
	require.NotEqual(t, oldName, *updated.ScreenshotFilename)
	require.Equal(t, []string{oldName}, files.removed)
}

func TestTradesUpdateSurfacesRemovalFailure(t *testing.T) {
	files := &fakeFileStore{}
	trades := newTestTrades(t, files)

	created, err := trades.Create(context.Background(), 1,
		completeTradeFields(t, "2024-07-22T10:00:00Z"),
		&Upload{Data: []byte("old"), Name: "old.png"})
	require.NoError(t, err)

	files.removeErr = errors.New("permission denied")
	_, err = trades.Update(context.Background(), 1, created.ID, TradeFields{}, &Upload{
		Data: []byte("new"),
		Name: "new.png",
	})
	require.ErrorIs(t, err, ErrStorageFailure)

	// The new reference is already committed; only the old file leaked.
	stored, err := trades.Get(context.Background(), 1, created.ID)
	require.NoError(t, err)
	require.Equal(t, files.stored[1], *stored.ScreenshotFilename)
}

func TestTradesDeleteRemovesScreenshot(t *testing.T) {
	files := &fakeFileStore{}
	trades := newTestTrades(t, files)

	created, err := trades.Create(context.Background(), 1,
		completeTradeFields(t, "2024-07-22T10:00:00Z"),
		&Upload{Data: []byte("png"), Name: "chart.png"})
	require.NoError(t, err)

	require.NoError(t, trades.Delete(context.Background(), 1, created.ID))
	require.Equal(t, []string{*created.ScreenshotFilename}, files.removed)

	_, err = trades.Get(context.Background(), 1, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTradesDeleteKeepsRecordWhenCleanupFails(t *testing.T) {
	files := &fakeFileStore{}
	trades := newTestTrades(t, files)

	created, err := trades.Create(context.Background(), 1,
		completeTradeFields(t, "2024-07-22T10:00:00Z"),
		&Upload{Data: []byte("png"), Name: "chart.png"})
	require.NoError(t, err)

	files.removeErr = errors.New("io failure")
	require.ErrorIs(t, trades.Delete(context.Background(), 1, created.ID), ErrStorageFailure)

	_, err = trades.Get(context.Background(), 1, created.ID)
	require.NoError(t, err)
}

func TestTradesOwnershipOpacity(t *testing.T) {
	trades := newTestTrades(t, &fakeFileStore{})

	created, err := trades.Create(context.Background(), 1, completeTradeFields(t, "2024-07-22T10:00:00Z"), nil)
	require.NoError(t, err)

	_, otherUser := trades.Get(context.Background(), 2, created.ID)
	_, missing := trades.Get(context.Background(), 1, created.ID+100)
	require.ErrorIs(t, otherUser, ErrNotFound)
	require.ErrorIs(t, missing, ErrNotFound)

	require.ErrorIs(t, trades.Delete(context.Background(), 2, created.ID), ErrNotFound)
}

func TestTradesFindByScreenshotIsOwnerScoped(t *testing.T) {
	files := &fakeFileStore{}
	trades := newTestTrades(t, files)

	created, err := trades.Create(context.Background(), 1,
		completeTradeFields(t, "2024-07-22T10:00:00Z"),
		&Upload{Data: []byte("png"), Name: "chart.png"})
	require.NoError(t, err)
	storedName := *created.ScreenshotFilename

	found, err := trades.FindByScreenshot(context.Background(), 1, storedName)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = trades.FindByScreenshot(context.Background(), 2, storedName)
	require.ErrorIs(t, err, ErrNotFound)
}
