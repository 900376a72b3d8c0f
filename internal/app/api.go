package app

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stephankoppes/book-nest/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// deleteAccountHandler verifies the bearer token against the identity
// service and deletes the account it belongs to. Responses leak no
// internal detail.
func (a *App) deleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "No valid authorization header"})
		return
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	user, err := a.admin.UserFromToken(r.Context(), token)
	if err != nil || user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid session"})
		return
	}

	if err := a.admin.DeleteUser(r.Context(), user.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete user account"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Account successfully deleted"})
}

// scannedShelf is the fixed result of the shelf-scan stub; a real
// recognition pipeline would replace it.
var scannedShelf = []domain.ScanResult{
	{BookTitle: "The Diary of a CEO", Author: "Steven Bartlett"},
	{BookTitle: "Invisible Women", Author: "Caroline Criado Perez"},
	{BookTitle: "Where Good Ideas Come From", Author: "Steven Johnson"},
	{BookTitle: "The Narrows", Author: "Michael Connelly"},
	{BookTitle: "The Drop", Author: "Michael Connelly"},
	{BookTitle: "The Black Ice", Author: "Michael Connelly"},
	{BookTitle: "Emotional Entelligence", Author: "Daniel Goleman"},
	{BookTitle: "How to Read a Book", Author: "Mortimer J. Adler"},
	{BookTitle: "The Unfair Advantage", Author: "Ash Ali"},
	{BookTitle: "The Collingridge Dilemma", Author: "Jared Cohen"},
}

// scanShelfHandler accepts a base64 shelf photo and returns the fixed
// recognition result regardless of its content.
func (a *App) scanShelfHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Base64 string `json:"base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	writeJSON(w, http.StatusOK, map[string][]domain.ScanResult{"bookArray": scannedShelf})
}
