package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tradenotehq/tradenote/backend/internal/journal"
)

type tradeResponse struct {
	ID                 uint            `json:"id"`
	Ticker             string          `json:"ticker"`
	Result             string          `json:"result"`
	TotalPnl           decimal.Decimal `json:"total_pnl"`
	EntryDatetime      string          `json:"entry_datetime"`
	ExitDatetime       string          `json:"exit_datetime"`
	RiskReward         float64         `json:"risk_reward"`
	Position           string          `json:"position"`
	StoplossPips       int             `json:"stoploss_pips"`
	TradeRange         int             `json:"trade_range"`
	ResultType         string          `json:"result_type"`
	EntryModel         string          `json:"entry_model"`
	TradeModel         string          `json:"trade_model"`
	SetupType          string          `json:"setup_type"`
	Confluences        []string        `json:"confluences"`
	TradeNote          string          `json:"trade_note"`
	Roadmap            string          `json:"roadmap"`
	ScreenshotFilename *string         `json:"screenshot_filename"`
}

func tradeToResponse(trade journal.Trade) tradeResponse {
	return tradeResponse{
		ID:                 trade.ID,
		Ticker:             trade.Ticker,
		Result:             trade.Result,
		TotalPnl:           trade.TotalPnl,
		EntryDatetime:      trade.EntryDatetime.UTC().Format(time.RFC3339),
		ExitDatetime:       trade.ExitDatetime.UTC().Format(time.RFC3339),
		RiskReward:         trade.RiskReward,
		Position:           trade.Position,
		StoplossPips:       trade.StoplossPips,
		TradeRange:         trade.TradeRange,
		ResultType:         trade.ResultType,
		EntryModel:         trade.EntryModel,
		TradeModel:         trade.TradeModel,
		SetupType:          trade.SetupType,
		Confluences:        journal.ListFromJSON(trade.Confluences),
		TradeNote:          trade.TradeNote,
		Roadmap:            trade.Roadmap,
		ScreenshotFilename: trade.ScreenshotFilename,
	}
}

// tradeFieldsFromForm translates the multipart scalar fields into partial
// trade fields. Absent keys stay nil so updates never clear an omitted
// field; malformed values surface as validation errors.
func tradeFieldsFromForm(c *gin.Context) (journal.TradeFields, error) {
	fields := journal.TradeFields{}

	if value, ok := c.GetPostForm("ticker"); ok {
		fields.Ticker = &value
	}
	if value, ok := c.GetPostForm("result"); ok {
		fields.Result = &value
	}
	if value, ok := c.GetPostForm("total_pnl"); ok {
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return fields, journal.NewValidationError("Invalid value for total_pnl", "total_pnl")
		}
		fields.TotalPnl = &parsed
	}
	if value, ok := c.GetPostForm("entry_datetime"); ok {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fields, journal.NewValidationError("Invalid value for entry_datetime", "entry_datetime")
		}
		fields.EntryDatetime = &parsed
	}
	if value, ok := c.GetPostForm("exit_datetime"); ok {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fields, journal.NewValidationError("Invalid value for exit_datetime", "exit_datetime")
		}
		fields.ExitDatetime = &parsed
	}
	if value, ok := c.GetPostForm("risk_reward"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fields, journal.NewValidationError("Invalid value for risk_reward", "risk_reward")
		}
		fields.RiskReward = &parsed
	}
	if value, ok := c.GetPostForm("position"); ok {
		fields.Position = &value
	}
	if value, ok := c.GetPostForm("stoploss_pips"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fields, journal.NewValidationError("Invalid value for stoploss_pips", "stoploss_pips")
		}
		fields.StoplossPips = &parsed
	}
	if value, ok := c.GetPostForm("range"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fields, journal.NewValidationError("Invalid value for range", "range")
		}
		fields.TradeRange = &parsed
	}
	if value, ok := c.GetPostForm("result_type"); ok {
		fields.ResultType = &value
	}
	if value, ok := c.GetPostForm("entry_model"); ok {
		fields.EntryModel = &value
	}
	if value, ok := c.GetPostForm("trade_model"); ok {
		fields.TradeModel = &value
	}
	if value, ok := c.GetPostForm("setup_type"); ok {
		fields.SetupType = &value
	}
	if value, ok := c.GetPostForm("confluences"); ok {
		var confluences []string
		if err := json.Unmarshal([]byte(value), &confluences); err != nil {
			return fields, journal.NewValidationError("Invalid value for confluences, expected a JSON list", "confluences")
		}
		if confluences == nil {
			confluences = []string{}
		}
		fields.Confluences = confluences
	}
	if value, ok := c.GetPostForm("trade_note"); ok {
		fields.TradeNote = &value
	}
	if value, ok := c.GetPostForm("roadmap"); ok {
		fields.Roadmap = &value
	}

	return fields, nil
}

// screenshotFromForm reads the optional screenshot part. A missing part
// returns nil without error.
func screenshotFromForm(c *gin.Context) (*journal.Upload, error) {
	fileHeader, err := c.FormFile("screenshot")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, journal.NewValidationError("Invalid screenshot upload", "screenshot")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, journal.NewValidationError("Invalid screenshot upload", "screenshot")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, journal.NewValidationError("Invalid screenshot upload", "screenshot")
	}
	return &journal.Upload{Data: data, Name: fileHeader.Filename}, nil
}

func (h *httpHandler) handleCreateTrade(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	fields, err := tradeFieldsFromForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	screenshot, err := screenshotFromForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	trade, err := h.trades.Create(c.Request.Context(), userID, fields, screenshot)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Trade created!", "trade": tradeToResponse(trade)})
}

func (h *httpHandler) handleListTrades(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	trades, err := h.trades.List(c.Request.Context(), userID, listFilterFromQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	payload := make([]tradeResponse, 0, len(trades))
	for _, trade := range trades {
		payload = append(payload, tradeToResponse(trade))
	}
	c.JSON(http.StatusOK, gin.H{"trades": payload})
}

func (h *httpHandler) handleGetTrade(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	tradeID, ok := pathID(c)
	if !ok {
		return
	}

	trade, err := h.trades.Get(c.Request.Context(), userID, tradeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tradeToResponse(trade))
}

func (h *httpHandler) handleUpdateTrade(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	tradeID, ok := pathID(c)
	if !ok {
		return
	}

	fields, err := tradeFieldsFromForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	screenshot, err := screenshotFromForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if _, err := h.trades.Update(c.Request.Context(), userID, tradeID, fields, screenshot); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trade updated!"})
}

func (h *httpHandler) handleDeleteTrade(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	tradeID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.trades.Delete(c.Request.Context(), userID, tradeID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trade deleted!"})
}

// handleGetScreenshot serves attachment bytes only after confirming the
// caller owns the referencing trade. The attachment manager itself never
// decides access.
func (h *httpHandler) handleGetScreenshot(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	filename := c.Param("filename")

	if _, err := h.trades.FindByScreenshot(c.Request.Context(), userID, filename); err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized to access this screenshot or screenshot not found"})
			return
		}
		h.respondError(c, err)
		return
	}

	data, err := h.attachments.Open(filename)
	if err != nil {
		if isMissingFile(err) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not found!"})
			return
		}
		h.respondError(c, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}
