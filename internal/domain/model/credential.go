package model

import "time"

// Credential is a named secret the indexer uses to reach private repositories.
// Repositories refer to it by Name only; Password and Token are plaintext at the
// domain boundary and are encrypted by the store.
type Credential struct {
	ID        string
	Name      string
	Username  string
	Password  string
	Token     string
	CreatedAt time.Time
}

// HasSecret reports whether either a password or a token is present.
func (c Credential) HasSecret() bool {
	return c.Password != "" || c.Token != ""
}
