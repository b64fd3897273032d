package handlers

import (
	"net/http"

	"github.com/dom/shared-lists/internal/service"
	"go.uber.org/zap"
)

type ItemHandler struct {
	itemService *service.ItemService
	logger      *zap.Logger
}

func NewItemHandler(itemService *service.ItemService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{itemService: itemService, logger: logger}
}

func (h *ItemHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.itemService.Suggestions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("item suggestions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, suggestions)
}
