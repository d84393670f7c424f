package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/pantrypal-backend/api/responses"
	"github.com/angelmondragon/pantrypal-backend/api/validators"
	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
	"github.com/angelmondragon/pantrypal-backend/internal/recipes"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
)

const (
	maxRecipeBodyBytes = 64 << 10
	maxRecipeItemLen   = 120

	msgInvalidItems    = "Invalid items array"
	msgGenerationError = "Error generating recipe"
)

type recipeSuggestionResponse struct {
	Recipe string `json:"recipe"`
}

type recipeErrorResponse struct {
	Error string `json:"error"`
}

// RecipeSuggestions serves the plain {items} -> {recipe} contract used by the
// pantry front end. Its error bodies are bare strings, not the API envelope.
func RecipeSuggestions(svc recipes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, ok := decodeRecipeItems(r.Body)
		if !ok {
			responses.WriteJSON(w, http.StatusBadRequest, recipeErrorResponse{Error: msgInvalidItems})
			return
		}

		recipe, err := svc.Suggest(r.Context(), items)
		if err != nil {
			if logg != nil {
				logg.Error(r.Context(), "recipe.suggest.failed", err)
			}
			responses.WriteJSON(w, http.StatusInternalServerError, recipeErrorResponse{Error: msgGenerationError})
			return
		}

		responses.WriteJSON(w, http.StatusOK, recipeSuggestionResponse{Recipe: recipe})
	}
}

// decodeRecipeItems accepts {"items": [...]} where entries are strings or
// scalars. Anything else, including an empty list, is rejected.
func decodeRecipeItems(body io.Reader) ([]string, bool) {
	if body == nil {
		return nil, false
	}
	var payload struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.NewDecoder(io.LimitReader(body, maxRecipeBodyBytes)).Decode(&payload); err != nil {
		return nil, false
	}
	raw := bytes.TrimSpace(payload.Items)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}

	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, false
	}

	items := make([]string, 0, len(values))
	for _, v := range values {
		switch typed := v.(type) {
		case string:
			if s := validators.SanitizeString(typed, maxRecipeItemLen); s != "" {
				items = append(items, s)
			}
		case float64, bool:
			items = append(items, fmt.Sprint(typed))
		}
	}
	if len(items) == 0 {
		return nil, false
	}
	return items, true
}

// PantryRecipe suggests a recipe from the distinct item names in the caller's pantry.
func PantryRecipe(pantrySvc pantry.Service, recipeSvc recipes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := requestScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		names, err := pantrySvc.Names(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recipe, err := recipeSvc.Suggest(r.Context(), names)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"recipe": strings.TrimSpace(recipe),
			"items":  names,
		})
	}
}
