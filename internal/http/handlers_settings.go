package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cashflow/internal/users"
)

const maxAvatarBytes = 5 << 20

type settingsPage struct {
	User       users.User
	Flash      string
	Categories []string
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories error", "error", err)
	}

	s.render(w, r, "settings.html", settingsPage{
		User:       user,
		Flash:      s.sessions.takeFlash(sessionToken(r)),
		Categories: cats,
	})
}

// handleProfileUpdate saves display name, gender, and an optional avatar
// image uploaded as multipart form data.
func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		slog.ErrorContext(r.Context(), "Parse profile form error", "error", err)
		s.flashAndBack(w, r, "Invalid form data")
		return
	}

	profile := users.Profile{
		Name:   sanitizeInput(r.Form.Get("name")),
		Gender: sanitizeInput(r.Form.Get("gender")),
	}

	if file, header, err := r.FormFile("avatar"); err == nil {
		defer file.Close()
		avatarPath, err := s.saveAvatar(user.Username, header.Filename, file)
		if err != nil {
			slog.ErrorContext(r.Context(), "Avatar upload error", "error", err, "username", user.Username)
			s.flashAndBack(w, r, "Could not save avatar")
			return
		}
		profile.Avatar = avatarPath
	}

	if err := s.users.UpdateProfile(user.Username, profile); err != nil {
		slog.ErrorContext(r.Context(), "Profile update error", "error", err, "username", user.Username)
		s.flashAndBack(w, r, "Could not update profile")
		return
	}

	slog.InfoContext(r.Context(), "Profile updated", "username", user.Username)
	s.flashAndBack(w, r, "Profile updated")
}

// saveAvatar writes the uploaded image under the upload directory with a
// sanitized, user-scoped name and returns its serving path.
func (s *Server) saveAvatar(username, original string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(original))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	name := fmt.Sprintf("%s_%d%s", username, time.Now().Unix(), ext)
	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, maxAvatarBytes)); err != nil {
		return "", fmt.Errorf("write avatar file: %w", err)
	}
	return "/uploads/" + name, nil
}

// handleUpload serves files from the upload directory. Path traversal is
// blocked by stripping the name down to its base.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("file"))
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.uploadDir, name))
}

func (s *Server) handlePINChange(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.flashAndBack(w, r, "Invalid form data")
		return
	}

	oldPIN := sanitizeInput(r.Form.Get("old_pin"))
	newPIN := sanitizeInput(r.Form.Get("new_pin"))

	if err := s.users.ChangePIN(user.Username, oldPIN, newPIN); err != nil {
		if errors.Is(err, users.ErrWrongPIN) {
			s.flashAndBack(w, r, "Current PIN is wrong")
			return
		}
		slog.ErrorContext(r.Context(), "PIN change error", "error", err, "username", user.Username)
		s.flashAndBack(w, r, "Could not change PIN")
		return
	}

	slog.InfoContext(r.Context(), "PIN changed", "username", user.Username)
	s.flashAndBack(w, r, "PIN changed")
}

func (s *Server) handleCategoryAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.flashAndBack(w, r, "Invalid form data")
		return
	}
	name := sanitizeInput(r.Form.Get("name"))
	if name == "" {
		s.flashAndBack(w, r, "Category name cannot be empty")
		return
	}
	if err := s.ledger.AddCategory(r.Context(), name); err != nil {
		slog.ErrorContext(r.Context(), "Add category error", "error", err, "name", name)
		s.flashAndBack(w, r, "Could not add category")
		return
	}
	s.flashAndBack(w, r, "Category added")
}

func (s *Server) handleCategoryRename(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.flashAndBack(w, r, "Invalid form data")
		return
	}
	oldName := sanitizeInput(r.Form.Get("old_name"))
	newName := sanitizeInput(r.Form.Get("new_name"))
	if oldName == "" || newName == "" {
		s.flashAndBack(w, r, "Category names cannot be empty")
		return
	}
	if err := s.ledger.RenameCategory(r.Context(), oldName, newName); err != nil {
		slog.ErrorContext(r.Context(), "Rename category error", "error", err, "old", oldName, "new", newName)
		s.flashAndBack(w, r, "Could not rename category")
		return
	}
	s.flashAndBack(w, r, "Category renamed")
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(r.PathValue("name"))
	if err != nil || name == "" {
		s.flashAndBack(w, r, "Invalid category name")
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), name); err != nil {
		slog.ErrorContext(r.Context(), "Delete category error", "error", err, "name", name)
		s.flashAndBack(w, r, "Could not delete category")
		return
	}
	s.flashAndBack(w, r, "Category deleted")
}
