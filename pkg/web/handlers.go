package web

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/deskhand/deskhand/pkg/vault"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("json encode failed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_, err := os.Stat(s.vault.Root)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"vault_exists": err == nil,
		"work_zone":    string(s.zone),
		"capabilities": s.caps,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	folders := map[string]int{}
	for _, f := range []string{
		vault.FolderNeedsAction,
		vault.FolderPendingApproval,
		vault.FolderApproved,
		vault.FolderRejected,
		vault.FolderDone,
		vault.FolderQuarantine,
	} {
		folders[f] = s.vault.Count(f)
	}
	toProcess := folders[vault.FolderNeedsAction] + folders[vault.FolderApproved] + folders[vault.FolderRejected]
	status := "idle"
	if toProcess > 0 {
		status = "active"
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":           status,
		"items_to_process": toProcess,
		"folders":          folders,
		"work_zone":        string(s.zone),
	})
}

// planView is the JSON shape of one listed artifact.
type planView struct {
	Name       string  `json:"name"`
	Folder     string  `json:"folder"`
	Type       string  `json:"type,omitempty"`
	Source     string  `json:"source,omitempty"`
	Action     string  `json:"action,omitempty"`
	Priority   string  `json:"priority,omitempty"`
	Confidence float64 `json:"confidence"`
	Created    string  `json:"created,omitempty"`
}

func (s *Server) listViews(folder string) ([]planView, error) {
	handles, err := s.vault.List(folder)
	if err != nil {
		return nil, err
	}
	views := make([]planView, 0, len(handles))
	for _, h := range handles {
		header, _, err := s.vault.Read(h)
		if err != nil {
			continue
		}
		views = append(views, planView{
			Name:       h.Name,
			Folder:     h.Folder,
			Type:       header.Type,
			Source:     header.Source,
			Action:     header.Action,
			Priority:   string(header.Priority),
			Confidence: header.Confidence,
			Created:    header.Created,
		})
	}
	return views, nil
}

func (s *Server) handlePending(w http.ResponseWriter, _ *http.Request) {
	views, err := s.listViews(vault.FolderPendingApproval)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleActivity(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.journal.Recent(25))
}

func (s *Server) handleTasks(w http.ResponseWriter, _ *http.Request) {
	needs, err := s.listViews(vault.FolderNeedsAction)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	pending, err := s.listViews(vault.FolderPendingApproval)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, append(needs, pending...))
}

// handleDecision moves a pending plan to Approved or Rejected and
// redirects back to the dashboard. Only zones with approval capability
// may decide.
func (s *Server) handleDecision(destFolder, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.caps.ApproveReject {
			http.Error(w, "zone cannot approve or reject", http.StatusForbidden)
			return
		}
		name := r.PathValue("path")
		h := vault.Handle{Folder: vault.FolderPendingApproval, Name: name}
		if !s.vault.Exists(h.Folder, h.Name) {
			http.NotFound(w, r)
			return
		}
		if _, err := s.vault.Move(h, destFolder); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if err := s.journal.Append("web", action, name, "by:dashboard"); err != nil {
			s.logger.Warn().Err(err).Msg("journal append failed")
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	folder := r.PathValue("folder")
	name := r.PathValue("name")
	if !allowedFolders[folder] {
		http.NotFound(w, r)
		return
	}
	h := vault.Handle{Folder: folder, Name: name}
	header, body, err := s.vault.Read(h)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.render(w, "view", viewData{Handle: h, Header: header, Body: body})
}

var allowedFolders = map[string]bool{
	vault.FolderNeedsAction:     true,
	vault.FolderPendingApproval: true,
	vault.FolderApproved:        true,
	vault.FolderRejected:        true,
	vault.FolderDone:            true,
	vault.FolderQuarantine:      true,
}
