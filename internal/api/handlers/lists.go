package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/dom/shared-lists/internal/service"
	"go.uber.org/zap"
)

type ListHandler struct {
	listService *service.ListService
	logger      *zap.Logger
}

func NewListHandler(listService *service.ListService, logger *zap.Logger) *ListHandler {
	return &ListHandler{listService: listService, logger: logger}
}

type CreateListRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type UpdateListRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CreateItemRequest struct {
	Name     string  `json:"name"`
	Quantity *int    `json:"quantity"`
	Unit     *string `json:"unit"`
	Notes    *string `json:"notes"`
}

type UpdateItemRequest struct {
	Name      *string `json:"name"`
	Quantity  *int    `json:"quantity"`
	Unit      *string `json:"unit"`
	Completed *bool   `json:"completed"`
	Notes     *string `json:"notes"`
}

// writeServiceError maps mutation-layer errors onto HTTP statuses.
func (h *ListHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrListNotFound):
		writeError(w, http.StatusNotFound, "Shopping list not found")
	case errors.Is(err, service.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "Item not found")
	case domain.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("list operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *ListHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	lists, err := h.listService.GetAll(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid list ID")
		return
	}

	list, err := h.listService.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateListRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	list, err := h.listService.Create(r.Context(), service.CreateListInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, list)
}

func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid list ID")
		return
	}

	var req UpdateListRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	list, err := h.listService.Update(r.Context(), id, domain.ListPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid list ID")
		return
	}

	if err := h.listService.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := uintParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid list ID")
		return
	}

	var req CreateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.listService.AddItem(r.Context(), listID, service.CreateItemInput{
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Notes:    req.Notes,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}

func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := uintParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid list ID")
		return
	}
	itemID, ok := uintParam(r, "itemId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req UpdateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.listService.UpdateItem(r.Context(), listID, itemID, domain.ItemPatch{
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Completed: req.Completed,
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

func (h *ListHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := uintParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid list ID")
		return
	}
	itemID, ok := uintParam(r, "itemId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := h.listService.RemoveItem(r.Context(), listID, itemID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
