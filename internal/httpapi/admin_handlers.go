package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"insight_gateway/internal/middleware"
	"insight_gateway/internal/settings"
	"insight_gateway/internal/utils"
)

type providerUpdateRequest struct {
	Provider string `json:"provider"`
}

type flagUpdateRequest struct {
	Flag  string `json:"flag"`
	Value *bool  `json:"value"`
}

func (deps *Dependencies) handleAdminProvider(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		current := deps.Settings.LoadSettings(r.Context())
		utils.RespondWithJSON(w, http.StatusOK, map[string]any{
			"activeProvider": current.ActiveProvider,
			"lastUpdated":    current.LastUpdated,
			"updatedBy":      current.UpdatedBy,
		})

	case http.MethodPost:
		var req providerUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		if req.Provider == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "Provider field is required")
			return
		}

		kind := settings.ProviderKind(req.Provider)
		if !kind.Valid() {
			utils.RespondWithError(w, http.StatusBadRequest,
				`Invalid provider type. Must be either "gemini" or "groq"`)
			return
		}

		updatedBy, _ := middleware.GetAdminEmail(r.Context())
		if updatedBy == "" {
			updatedBy = "unknown"
		}

		// Preserve feature flags: the provider switch and flags share a record
		current := deps.Settings.LoadSettings(r.Context())
		current.ActiveProvider = kind
		current.LastUpdated = time.Now().UTC()
		current.UpdatedBy = updatedBy

		if err := deps.Settings.SaveSettings(r.Context(), current); err != nil {
			deps.Logger.Error("provider update failed", "error", err)
			utils.RespondWithError(w, http.StatusInternalServerError,
				"Failed to save provider settings. Please try again.")
			return
		}

		utils.RespondWithJSON(w, http.StatusOK, map[string]any{
			"success":        true,
			"activeProvider": kind,
			"message":        fmt.Sprintf("Provider successfully updated to %s", kind),
		})

	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (deps *Dependencies) handleAdminFeatures(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		utils.RespondWithJSON(w, http.StatusOK, map[string]any{
			"flags": deps.Flags.GetFlags(r.Context()),
		})

	case http.MethodPost:
		var req flagUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		if req.Flag == "" || req.Value == nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Flag name and boolean value are required")
			return
		}

		if err := deps.Flags.UpdateFlag(r.Context(), req.Flag, *req.Value); err != nil {
			if errors.Is(err, settings.ErrUnknownFlag) {
				utils.RespondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
			deps.Logger.Error("flag update failed", "error", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update feature flag")
			return
		}

		utils.RespondWithJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("Feature flag %q updated to %t", req.Flag, *req.Value),
		})

	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (deps *Dependencies) handleAdminMonitoring(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		hours := queryInt(r, "hours", 24)
		stats := deps.Monitoring.GetStats(r.Context(), hours)
		utils.RespondWithJSON(w, http.StatusOK, map[string]any{"stats": stats})

	case http.MethodDelete:
		days := queryInt(r, "days", 30)
		deps.Monitoring.Cleanup(r.Context(), days)
		utils.RespondWithJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Cleanup completed",
		})

	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func queryInt(r *http.Request, name string, defaultValue int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}
