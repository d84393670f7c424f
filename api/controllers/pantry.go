package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/angelmondragon/pantrypal-backend/api/middleware"
	"github.com/angelmondragon/pantrypal-backend/api/responses"
	"github.com/angelmondragon/pantrypal-backend/api/validators"
	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
)

const itemIDParam = "itemID"

// looseText accepts a JSON string, number or boolean and keeps its text form.
// Form fields arrive as free text and the engine coerces them.
type looseText string

func (l *looseText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = looseText(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch typed := v.(type) {
	case float64:
		*l = looseText(strconv.FormatFloat(typed, 'f', -1, 64))
	case bool:
		*l = looseText(strconv.FormatBool(typed))
	default:
		return fmt.Errorf("unsupported value %s", string(data))
	}
	return nil
}

type pantryItemRequest struct {
	Name       string    `json:"name" validate:"max=512"`
	Quantity   looseText `json:"quantity"`
	Expiration string    `json:"expiration" validate:"omitempty,isodate"`
}

type pantryItemsResponse struct {
	Items []pantry.ItemDTO `json:"items"`
}

func writeItems(w http.ResponseWriter, status int, items []pantry.ItemDTO) {
	if items == nil {
		items = []pantry.ItemDTO{}
	}
	responses.WriteSuccessStatus(w, status, pantryItemsResponse{Items: items})
}

func requestScope(r *http.Request) (pantry.Scope, error) {
	scope, ok := middleware.ScopeFromContext(r.Context())
	if !ok {
		return pantry.Scope{}, pkgerrors.New(pkgerrors.CodeInternal, "pantry scope not resolved")
	}
	return scope, nil
}

// PantryList returns every item in the caller's pantry.
func PantryList(svc pantry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.List(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeItems(w, http.StatusOK, items)
	}
}

// PantryAdd merges the submitted item into the pantry.
func PantryAdd(svc pantry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pantryItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Add(r.Context(), scope, pantry.AddInput{
			Name:       body.Name,
			Quantity:   string(body.Quantity),
			Expiration: body.Expiration,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeItems(w, http.StatusCreated, items)
	}
}

// PantryDecrement removes one unit of the item, deleting it at zero.
func PantryDecrement(svc pantry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, itemIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.Remove(r.Context(), scope, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeItems(w, http.StatusOK, items)
	}
}

// PantryEdit overwrites an item's fields.
func PantryEdit(svc pantry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, itemIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pantryItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Edit(r.Context(), scope, id, pantry.EditInput{
			Name:       body.Name,
			Quantity:   string(body.Quantity),
			Expiration: body.Expiration,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeItems(w, http.StatusOK, items)
	}
}

// PantryDelete drops the item regardless of quantity.
func PantryDelete(svc pantry.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, itemIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.Delete(r.Context(), scope, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeItems(w, http.StatusOK, items)
	}
}
