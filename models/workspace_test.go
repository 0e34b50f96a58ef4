package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvitationIsExpired(t *testing.T) {
	fresh := Invitation{ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, fresh.IsExpired())

	stale := Invitation{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, stale.IsExpired())

	justIssued := Invitation{ExpiresAt: time.Now().Add(InvitationTTL)}
	assert.False(t, justIssued.IsExpired())
}
