package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	authed := newSnapshot(StateAuthenticated, &Record{Token: "t", User: adminRecord().User})

	tests := []struct {
		name string
		snap Snapshot
		path string
		want Decision
	}{
		{"unverified waits", newSnapshot(StateUnverified, nil), "/", DecisionLoading},
		{"verifying waits", newSnapshot(StateVerifying, nil), "/orders", DecisionLoading},
		{"verifying waits on login page", newSnapshot(StateVerifying, nil), "/login", DecisionLoading},
		{"reverifying keeps waiting", newSnapshot(StateVerifying, &Record{Token: "t", User: adminRecord().User}), "/", DecisionLoading},
		{"anonymous redirected", newSnapshot(StateUnauthenticated, nil), "/", DecisionRedirect},
		{"anonymous deep link redirected", newSnapshot(StateUnauthenticated, nil), "/refunds/42", DecisionRedirect},
		{"login page exempt", newSnapshot(StateUnauthenticated, nil), "/login", DecisionRender},
		{"login page with trailing slash exempt", newSnapshot(StateUnauthenticated, nil), "/login/", DecisionRender},
		{"admin renders", authed, "/", DecisionRender},
		{"admin renders login page", authed, "/login", DecisionRender},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.snap, tt.path, "/login")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Decide(tt.snap, tt.path, "/login"), "repeat renders decide the same")
		})
	}
}

func TestSnapshot_PairsTokenAndUser(t *testing.T) {
	snap := newSnapshot(StateAuthenticated, &Record{Token: "only-token"})
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Token)
	assert.False(t, snap.IsAuthenticated)

	snap = newSnapshot(StateAuthenticated, &Record{Token: "t", User: adminRecord().User})
	assert.NotNil(t, snap.User)
	assert.Equal(t, "t", snap.Token)
	assert.True(t, snap.IsAuthenticated)
	assert.False(t, snap.IsLoading)
}
