package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"insight_gateway/internal/llm"
	"insight_gateway/internal/services"
	"insight_gateway/internal/utils"
)

type insightsRequest struct {
	Stats  json.RawMessage `json:"stats"`
	UserID string          `json:"userId"`
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type chatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type extractRequest struct {
	CSVData  string `json:"csvData"`
	FileName string `json:"fileName"`
	UserID   string `json:"userId"`
}

func (deps *Dependencies) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req insightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if len(req.Stats) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Stats field is required")
		return
	}

	result, err := deps.AI.GenerateStructuredInsight(r.Context(), string(req.Stats), req.UserID)
	if err != nil {
		deps.respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (deps *Dependencies) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Message == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Message is required")
		return
	}

	response, err := deps.AI.GenerateChatResponse(r.Context(), req.Message, req.UserID)
	if err != nil {
		deps.respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": chatMessage{
			Role:      "assistant",
			Content:   response,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		"success": true,
	})
}

func (deps *Dependencies) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.CSVData == "" || req.FileName == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "csvData and fileName are required")
		return
	}

	result, err := deps.AI.ExtractDataInsights(r.Context(), req.CSVData, req.FileName, req.UserID)
	if err != nil {
		deps.respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (deps *Dependencies) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrFeatureDisabled):
		// A switched-off feature is a temporary condition, not an
		// authorization failure
		utils.RespondWithError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, llm.ErrEmptyPrompt), errors.Is(err, llm.ErrPromptTooLong):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		deps.Logger.Error("request failed", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
