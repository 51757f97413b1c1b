package indexer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
)

// repoDTO is the wire form of a repository record.
type repoDTO struct {
	ID              flexID    `json:"id"`
	Name            string    `json:"name"`
	URL             string    `json:"url"`
	Branch          string    `json:"branch"`
	ComposeFolder   *string   `json:"compose_folder"`
	CredentialsName *string   `json:"credentials_name"`
	IndexedAt       *flexTime `json:"indexed_at"`
	UpdatedAt       *flexTime `json:"updated_at"`

	present model.FieldSet
}

// wireFields maps the JSON keys of a record to the fields they carry.
var wireFields = map[string]model.Field{
	"name":             model.FieldName,
	"url":              model.FieldURL,
	"branch":           model.FieldBranch,
	"compose_folder":   model.FieldComposeFolder,
	"credentials_name": model.FieldCredentialsName,
	"indexed_at":       model.FieldIndexedAt,
	"updated_at":       model.FieldUpdatedAt,
}

// UnmarshalJSON decodes the record and remembers which keys were present so
// an explicit null can be told apart from an omitted field.
func (d *repoDTO) UnmarshalJSON(b []byte) error {
	type plain repoDTO
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return err
	}

	*d = repoDTO(p)
	d.present = 0
	for key, f := range wireFields {
		if _, ok := keys[key]; ok {
			d.present = d.present.With(f)
		}
	}
	return nil
}

func (d repoDTO) toModel() model.Repository {
	return model.Repository{
		ID:              string(d.ID),
		Name:            d.Name,
		URL:             d.URL,
		Branch:          d.Branch,
		ComposeFolder:   d.ComposeFolder,
		CredentialsName: d.CredentialsName,
		IndexedAt:       d.IndexedAt.ptr(),
		UpdatedAt:       d.UpdatedAt.ptr(),
		Returned:        d.present,
	}
}

// draftDTO is the request body of create and update. Empty optional fields
// are sent as null.
type draftDTO struct {
	Name            string  `json:"name"`
	URL             string  `json:"url"`
	Branch          string  `json:"branch"`
	ComposeFolder   *string `json:"compose_folder"`
	CredentialsName *string `json:"credentials_name"`
}

func newDraftDTO(d model.Draft) draftDTO {
	r := d.Apply(model.Repository{})
	return draftDTO{
		Name:            strings.TrimSpace(r.Name),
		URL:             strings.TrimSpace(r.URL),
		Branch:          strings.TrimSpace(r.Branch),
		ComposeFolder:   r.ComposeFolder,
		CredentialsName: r.CredentialsName,
	}
}

type credentialDTO struct {
	Name string `json:"name"`
}

func decodeRepoList(body []byte) ([]repoDTO, error) {
	var dtos []repoDTO
	if err := decodeListOrEnvelope(body, "repos", &dtos); err != nil {
		return nil, err
	}
	return dtos, nil
}

// decodeListOrEnvelope decodes body into out, accepting either a bare JSON
// array or an object carrying the array under key.
func decodeListOrEnvelope(body []byte, key string, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	raw, ok := env[key]
	if !ok {
		return fmt.Errorf("response has neither an array nor a %q field", key)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// flexID accepts both string and numeric ids.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = flexID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = flexID(n.String())
	return nil
}

// flexTime parses the ISO-8601 variants indexers emit. Values without a zone
// are taken as UTC.
type flexTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *flexTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
