// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/reviewatlas/reviewatlas/internal/logging"
)

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *APIError   `json:"error,omitempty"`
}

// APIError carries a machine-readable code next to the human message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, &APIResponse{
		Status: "error",
		Error:  &APIError{Code: code, Message: message},
	})
}
