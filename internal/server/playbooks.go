package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tradenotehq/tradenote/backend/internal/journal"
)

type playbookPayload struct {
	Title         *string  `json:"title"`
	EntryModel    *string  `json:"entry_model"`
	TradeModel    *string  `json:"trade_model"`
	SetupGrade    *string  `json:"setup_grade"`
	Confluences   []string `json:"confluences"`
	Rules         []string `json:"rules"`
	Confirmations []string `json:"confirmations"`
	Invalidations []string `json:"invalidations"`
	Roadmap       []string `json:"roadmap"`
	Tags          []string `json:"tags"`
}

func (p playbookPayload) toFields() journal.PlaybookFields {
	return journal.PlaybookFields{
		Title:         p.Title,
		EntryModel:    p.EntryModel,
		TradeModel:    p.TradeModel,
		SetupGrade:    p.SetupGrade,
		Confluences:   p.Confluences,
		Rules:         p.Rules,
		Confirmations: p.Confirmations,
		Invalidations: p.Invalidations,
		Roadmap:       p.Roadmap,
		Tags:          p.Tags,
	}
}

// playbookSummary is the listing projection: headline fields only, no
// semi-structured lists.
type playbookSummary struct {
	PlaybookID string `json:"playbook_id"`
	Title      string `json:"title"`
	EntryModel string `json:"entry_model"`
	TradeModel string `json:"trade_model"`
	SetupGrade string `json:"setup_grade"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type playbookDetail struct {
	playbookSummary
	Confluences   []string `json:"confluences"`
	Rules         []string `json:"rules"`
	Confirmations []string `json:"confirmations"`
	Invalidations []string `json:"invalidations"`
	Roadmap       []string `json:"roadmap"`
	Tags          []string `json:"tags"`
}

func playbookToSummary(playbook journal.Playbook) playbookSummary {
	return playbookSummary{
		PlaybookID: playbook.PlaybookID,
		Title:      playbook.Title,
		EntryModel: playbook.EntryModel,
		TradeModel: playbook.TradeModel,
		SetupGrade: playbook.SetupGrade,
		CreatedAt:  playbook.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  playbook.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func playbookToDetail(playbook journal.Playbook) playbookDetail {
	return playbookDetail{
		playbookSummary: playbookToSummary(playbook),
		Confluences:     journal.ListFromJSON(playbook.Confluences),
		Rules:           journal.ListFromJSON(playbook.Rules),
		Confirmations:   journal.ListFromJSON(playbook.Confirmations),
		Invalidations:   journal.ListFromJSON(playbook.Invalidations),
		Roadmap:         journal.ListFromJSON(playbook.Roadmap),
		Tags:            journal.ListFromJSON(playbook.Tags),
	}
}

func (h *httpHandler) handleCreatePlaybook(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var request playbookPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	playbook, err := h.playbooks.Create(c.Request.Context(), userID, request.toFields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Playbook created!", "playbook_id": playbook.PlaybookID})
}

func (h *httpHandler) handleListPlaybooks(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	playbooks, err := h.playbooks.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	payload := make([]playbookSummary, 0, len(playbooks))
	for _, playbook := range playbooks {
		payload = append(payload, playbookToSummary(playbook))
	}
	c.JSON(http.StatusOK, gin.H{"playbooks": payload})
}

func (h *httpHandler) handleGetPlaybook(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	playbook, err := h.playbooks.Get(c.Request.Context(), userID, c.Param("playbook_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playbookToDetail(playbook))
}

func (h *httpHandler) handleUpdatePlaybook(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var request playbookPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if _, err := h.playbooks.Update(c.Request.Context(), userID, c.Param("playbook_id"), request.toFields()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Playbook updated!"})
}

func (h *httpHandler) handleDeletePlaybook(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	if err := h.playbooks.Delete(c.Request.Context(), userID, c.Param("playbook_id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Playbook deleted!"})
}
