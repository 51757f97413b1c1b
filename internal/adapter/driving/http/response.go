package httphandler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// ValidationResponse is returned when a request body fails validation.
type ValidationResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

// StatusResponse is the body of the health endpoint.
type StatusResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

// RepoResponse is the JSON representation of a repository record.
type RepoResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	URL             string  `json:"url"`
	Branch          string  `json:"branch"`
	ComposeFolder   *string `json:"compose_folder"`
	CredentialsName *string `json:"credentials_name"`
	IndexedAt       *string `json:"indexed_at"`
	UpdatedAt       *string `json:"updated_at"`
}

// RepoRequest is the JSON body of the create and update endpoints.
type RepoRequest struct {
	Name            string  `json:"name"`
	URL             string  `json:"url"`
	Branch          string  `json:"branch"`
	ComposeFolder   *string `json:"compose_folder"`
	CredentialsName *string `json:"credentials_name"`
}

// normalize trims every field, turns blank optionals into null and defaults
// the branch.
func (r *RepoRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.URL = strings.TrimSpace(r.URL)
	r.Branch = strings.TrimSpace(r.Branch)
	if r.Branch == "" {
		r.Branch = model.DefaultBranch
	}
	r.ComposeFolder = trimOptional(r.ComposeFolder)
	r.CredentialsName = trimOptional(r.CredentialsName)
}

func (r RepoRequest) toModel(id string) model.Repository {
	return model.Repository{
		ID:              id,
		Name:            r.Name,
		URL:             r.URL,
		Branch:          r.Branch,
		ComposeFolder:   r.ComposeFolder,
		CredentialsName: r.CredentialsName,
	}
}

// CredentialRequest is the JSON body of the save credential endpoint.
type CredentialRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// missing lists a message for every required field that is absent.
func (r CredentialRequest) missing() []string {
	var details []string
	if strings.TrimSpace(r.Name) == "" {
		details = append(details, "Name is required")
	}
	if strings.TrimSpace(r.Username) == "" {
		details = append(details, "username is required")
	}
	if r.Password == "" && r.Token == "" {
		details = append(details, "Password or token is required")
	}
	return details
}

func (r CredentialRequest) toModel() model.Credential {
	return model.Credential{
		Name:     strings.TrimSpace(r.Name),
		Username: strings.TrimSpace(r.Username),
		Password: r.Password,
		Token:    r.Token,
	}
}

// CredentialResponse is the JSON representation of a credential. Secrets are
// never serialized.
type CredentialResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

// IndexEntryResponse is the JSON representation of an index entry.
type IndexEntryResponse struct {
	RepoID      string `json:"repo_id"`
	ComposePath string `json:"compose_path"`
	Content     string `json:"content"`
	IndexedAt   string `json:"indexed_at"`
	UpdatedAt   string `json:"updated_at"`
}

// IndexOutcomeResponse reports what indexing did with one repository.
type IndexOutcomeResponse struct {
	RepoID      string `json:"repo_id"`
	Name        string `json:"name"`
	ComposePath string `json:"compose_path"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
}

// RescanResponse is the body of the rescan endpoint.
type RescanResponse struct {
	Force   bool                   `json:"force"`
	Results []IndexOutcomeResponse `json:"results"`
}

func toIndexEntryResponse(e model.IndexEntry) IndexEntryResponse {
	return IndexEntryResponse{
		RepoID:      e.RepoID,
		ComposePath: e.ComposePath,
		Content:     e.Content,
		IndexedAt:   e.IndexedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toIndexOutcomeResponse(o model.IndexOutcome) IndexOutcomeResponse {
	return IndexOutcomeResponse{
		RepoID:      o.RepoID,
		Name:        o.Name,
		ComposePath: o.ComposePath,
		Status:      string(o.Status),
		Detail:      o.Detail,
	}
}

// toRepoResponse converts a domain Repository to its JSON response representation.
func toRepoResponse(repo model.Repository) RepoResponse {
	return RepoResponse{
		ID:              repo.ID,
		Name:            repo.Name,
		URL:             repo.URL,
		Branch:          repo.Branch,
		ComposeFolder:   repo.ComposeFolder,
		CredentialsName: repo.CredentialsName,
		IndexedAt:       formatOptionalTime(repo.IndexedAt),
		UpdatedAt:       formatOptionalTime(repo.UpdatedAt),
	}
}

// toCredentialResponse converts a domain Credential to its JSON representation.
func toCredentialResponse(c model.Credential) CredentialResponse {
	return CredentialResponse{
		ID:        c.ID,
		Name:      c.Name,
		Username:  c.Username,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
