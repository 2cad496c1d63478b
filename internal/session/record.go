// Package session keeps the admin dashboard's view of who is signed in.
//
// A Manager combines a Store holding the persisted Record with an Authenticator
// that talks to the marketplace API. Snapshots taken from a Manager always carry
// the token and user together or neither of them.
package session

import (
	"github.com/cellar-market/wine-marketplace/internal/domain"
)

// Record is the persisted pair of bearer token and cached admin profile.
type Record struct {
	Token string           `json:"adminToken"`
	User  domain.AdminUser `json:"adminUser"`
}

// Complete reports whether both halves of the record are present.
func (r *Record) Complete() bool {
	return r != nil && r.Token != "" && r.User.ID != ""
}

// State is the verification state of a Manager.
type State int

const (
	StateUnverified State = iota
	StateVerifying
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUnverified:
		return "UNVERIFIED"
	case StateVerifying:
		return "VERIFYING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	}
	return "UNKNOWN"
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a consistent copy of a Manager's state.
type Snapshot struct {
	User            *domain.AdminUser `json:"user"`
	Token           string            `json:"-"`
	IsLoading       bool              `json:"isLoading"`
	IsAuthenticated bool              `json:"isAuthenticated"`
	State           State             `json:"state"`
}

func newSnapshot(state State, rec *Record) Snapshot {
	snap := Snapshot{
		State:     state,
		IsLoading: state == StateUnverified || state == StateVerifying,
	}
	if rec.Complete() {
		user := rec.User
		snap.User = &user
		snap.Token = rec.Token
		snap.IsAuthenticated = state == StateAuthenticated
	}
	return snap
}
