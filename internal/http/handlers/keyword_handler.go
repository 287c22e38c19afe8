package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/slotwatch/go-alert-backend/internal/services"
)

// KeywordRequest is the JSON payload for adding a keyword.
type KeywordRequest struct {
	Keyword string `json:"keyword" binding:"required,min=1"`
}

// KeywordsResponse lists the active keyword set.
type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
}

// KeywordMutationResponse confirms an add or remove. Changed is false when
// the operation was a no-op (duplicate add, missing remove).
type KeywordMutationResponse struct {
	Success bool   `json:"success"`
	Changed bool   `json:"changed"`
	Keyword string `json:"keyword"`
}

// ListKeywords returns the keywords currently being matched.
func (h *Handlers) ListKeywords(c *gin.Context) {
	ok(c, http.StatusOK, KeywordsResponse{Keywords: h.kwSvc.List(c.Request.Context())})
}

// AddKeyword adds a keyword to the runtime set and notifies connected
// dashboards when the set changed.
func (h *Handlers) AddKeyword(c *gin.Context) {
	var req KeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "keyword required")
		return
	}

	changed, err := h.kwSvc.Add(c.Request.Context(), req.Keyword)
	if err != nil {
		switch err {
		case services.ErrEmptyKeyword:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "keyword required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeKeywordFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, KeywordMutationResponse{Success: true, Changed: changed, Keyword: strings.TrimSpace(req.Keyword)})
}

// RemoveKeyword removes a keyword from the runtime set.
func (h *Handlers) RemoveKeyword(c *gin.Context) {
	word := strings.TrimSpace(c.Param("word"))

	changed, err := h.kwSvc.Remove(c.Request.Context(), word)
	if err != nil {
		switch err {
		case services.ErrEmptyKeyword:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "keyword required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeKeywordFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, KeywordMutationResponse{Success: true, Changed: changed, Keyword: word})
}
