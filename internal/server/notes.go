package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tradenotehq/tradenote/backend/internal/journal"
)

type notePayload struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type noteResponse struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func noteToResponse(note journal.Note) noteResponse {
	return noteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// pathID parses the numeric record id from the route. A non-numeric id
// can never name an existing record, so it reads as not found rather
// than as a validation failure.
func pathID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found!"})
		return 0, false
	}
	return uint(value), true
}

func listFilterFromQuery(c *gin.Context) journal.ListFilter {
	return journal.ListFilter{
		Date:  c.Query("date"),
		Month: c.Query("month"),
	}
}

func (h *httpHandler) handleCreateNote(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var request notePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	note, err := h.notes.Create(c.Request.Context(), userID, journal.NoteFields{
		Title:   request.Title,
		Content: request.Content,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Note created!", "note": noteToResponse(note)})
}

func (h *httpHandler) handleListNotes(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	notes, err := h.notes.List(c.Request.Context(), userID, listFilterFromQuery(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	payload := make([]noteResponse, 0, len(notes))
	for _, note := range notes {
		payload = append(payload, noteToResponse(note))
	}
	c.JSON(http.StatusOK, gin.H{"notes": payload})
}

func (h *httpHandler) handleGetNote(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	noteID, ok := pathID(c)
	if !ok {
		return
	}

	note, err := h.notes.Get(c.Request.Context(), userID, noteID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, noteToResponse(note))
}

func (h *httpHandler) handleUpdateNote(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	noteID, ok := pathID(c)
	if !ok {
		return
	}

	var request notePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if _, err := h.notes.Update(c.Request.Context(), userID, noteID, journal.NoteFields{
		Title:   request.Title,
		Content: request.Content,
	}); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note updated!"})
}

func (h *httpHandler) handleDeleteNote(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	noteID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.notes.Delete(c.Request.Context(), userID, noteID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note deleted!"})
}
