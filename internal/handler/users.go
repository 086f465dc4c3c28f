package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"platewatch/internal/dto"
	"platewatch/internal/logger"
	"platewatch/internal/middleware"
	"platewatch/internal/model"
	"platewatch/internal/repository"
	"platewatch/internal/service/auth"
)

// SessionEnder logs a user out everywhere.
type SessionEnder interface {
	EndSessions(userID int64) error
}

// ListUsersHandler returns every account.
func ListUsersHandler(users repository.UserRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := users.GetAll()
		if err != nil {
			internalError(w, r, logger, "Error querying users: %v", err)
			return
		}
		writeJSON(w, logger, http.StatusOK, all)
	}
}

// CreateUserHandler adds an account. username, email and password are
// required; role defaults to operator.
func CreateUserHandler(users repository.UserRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.UserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if isBlank(req.Username) || isBlank(req.Email) || req.Password == nil || *req.Password == "" {
			writeError(w, logger, http.StatusBadRequest, "Username, email and password are required")
			return
		}

		u := &model.User{Role: model.RoleOperator, IsActive: true}
		if !applyUserRequest(w, r, users, logger, u, req) {
			return
		}

		if _, err := users.Insert(u); err != nil {
			internalError(w, r, logger, "Error creating user %s: %v", u.Username, err)
			return
		}
		logger.Info("User %s (%s) created by %s", u.Username, u.Role, currentUsername(r))
		writeJSON(w, logger, http.StatusCreated, u)
	}
}

// GetUserHandler returns one account.
func GetUserHandler(users repository.UserRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := loadUser(w, r, users, logger)
		if !ok {
			return
		}
		writeJSON(w, logger, http.StatusOK, u)
	}
}

// UpdateUserHandler applies the fields present in the body. Users cannot
// edit their own account here. A new password or deactivation ends the
// user's sessions.
func UpdateUserHandler(users repository.UserRepository, sessions SessionEnder, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := loadUser(w, r, users, logger)
		if !ok {
			return
		}
		if isSelf(r, u) {
			writeError(w, logger, http.StatusBadRequest, "You cannot edit your own account")
			return
		}

		var req dto.UserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		oldHash := u.PasswordHash
		if !applyUserRequest(w, r, users, logger, u, req) {
			return
		}
		if err := users.Update(u); err != nil {
			internalError(w, r, logger, "Error updating user %d: %v", u.ID, err)
			return
		}
		if u.PasswordHash != oldHash || !u.IsActive {
			endSessions(r, sessions, logger, u)
		}
		logger.Info("User %s updated by %s", u.Username, currentUsername(r))
		writeJSON(w, logger, http.StatusOK, u)
	}
}

// DeleteUserHandler removes an account. Users cannot delete themselves.
func DeleteUserHandler(users repository.UserRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := loadUser(w, r, users, logger)
		if !ok {
			return
		}
		if isSelf(r, u) {
			writeError(w, logger, http.StatusBadRequest, "You cannot delete your own account")
			return
		}
		if err := users.Delete(u.ID); err != nil {
			internalError(w, r, logger, "Error deleting user %d: %v", u.ID, err)
			return
		}
		logger.Info("User %s deleted by %s", u.Username, currentUsername(r))
		writeJSON(w, logger, http.StatusOK, dto.StatusResponse{Status: "success"})
	}
}

// ToggleUserHandler flips an account between active and inactive. Users
// cannot deactivate themselves.
func ToggleUserHandler(users repository.UserRepository, sessions SessionEnder, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := loadUser(w, r, users, logger)
		if !ok {
			return
		}
		if isSelf(r, u) {
			writeError(w, logger, http.StatusBadRequest, "You cannot change your own status")
			return
		}

		u.IsActive = !u.IsActive
		if err := users.Update(u); err != nil {
			internalError(w, r, logger, "Error toggling user %d: %v", u.ID, err)
			return
		}
		if !u.IsActive {
			endSessions(r, sessions, logger, u)
		}
		logger.Info("User %s active: %t", u.Username, u.IsActive)
		writeJSON(w, logger, http.StatusOK, dto.StatusResponse{Status: "success"})
	}
}

// applyUserRequest validates req against the other accounts and copies it
// onto u. It writes the error response itself and reports false on failure.
func applyUserRequest(w http.ResponseWriter, r *http.Request, users repository.UserRepository, logger *logger.Logger, u *model.User, req dto.UserRequest) bool {
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			writeError(w, logger, http.StatusBadRequest, "Username is required")
			return false
		}
		other, err := users.GetByUsername(name)
		if err != nil {
			internalError(w, r, logger, "Error looking up user %s: %v", name, err)
			return false
		}
		if other != nil && other.ID != u.ID {
			writeError(w, logger, http.StatusBadRequest, "This username is already taken")
			return false
		}
		u.Username = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			writeError(w, logger, http.StatusBadRequest, "Email is required")
			return false
		}
		other, err := users.GetByEmail(email)
		if err != nil {
			internalError(w, r, logger, "Error looking up email %s: %v", email, err)
			return false
		}
		if other != nil && other.ID != u.ID {
			writeError(w, logger, http.StatusBadRequest, "This email is already registered")
			return false
		}
		u.Email = email
	}
	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			writeError(w, logger, http.StatusBadRequest, "Unknown role")
			return false
		}
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			internalError(w, r, logger, "Error hashing password of %s: %v", u.Username, err)
			return false
		}
		u.PasswordHash = hash
	}
	return true
}

func endSessions(r *http.Request, sessions SessionEnder, logger *logger.Logger, u *model.User) {
	if err := sessions.EndSessions(u.ID); err != nil {
		logger.Warning("[%s] Failed to end sessions of %s: %v", middleware.RequestID(r.Context()), u.Username, err)
	}
}

func loadUser(w http.ResponseWriter, r *http.Request, users repository.UserRepository, logger *logger.Logger) (*model.User, bool) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	u, err := users.GetByID(id)
	if err != nil {
		internalError(w, r, logger, "Error loading user %d: %v", id, err)
		return nil, false
	}
	if u == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return u, true
}

func isSelf(r *http.Request, u *model.User) bool {
	current := middleware.CurrentUser(r.Context())
	return current != nil && current.ID == u.ID
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
