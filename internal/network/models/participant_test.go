package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
)

func TestNewParticipant(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("starts unlinked at entry tier", func(t *testing.T) {
		p, err := NewParticipant(domain.NewParticipantID(), "ABCDEFGH", "a@example.com", "A", now)
		require.NoError(t, err)
		assert.True(t, p.IsRoot())
		assert.False(t, p.HasPlan())
		assert.Equal(t, domain.TierEntry, p.Tier)
		assert.True(t, p.Stats.LifetimeSales.IsZero())
	})

	t.Run("rejects a nil id", func(t *testing.T) {
		_, err := NewParticipant(domain.ParticipantID{}, "ABCDEFGH", "", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects a malformed code", func(t *testing.T) {
		_, err := NewParticipant(domain.NewParticipantID(), "abc", "", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestCanLinkTo(t *testing.T) {
	now := time.Now()
	p, err := NewParticipant(domain.NewParticipantID(), "ABCDEFGH", "", "", now)
	require.NoError(t, err)

	assert.True(t, dErrors.HasCode(p.CanLinkTo(p.ID), dErrors.CodeCycle))

	parent := domain.NewParticipantID()
	require.NoError(t, p.CanLinkTo(parent))
	p.ApplyLink(parent, now)
	assert.Equal(t, parent, *p.UplineID)
	assert.True(t, dErrors.HasCode(p.CanLinkTo(domain.NewParticipantID()), dErrors.CodeAlreadyLinked))
}

func TestCloneIsDeep(t *testing.T) {
	p, err := NewParticipant(domain.NewParticipantID(), "ABCDEFGH", "", "", time.Now())
	require.NoError(t, err)
	p.ApplyLink(domain.NewParticipantID(), time.Now())

	c := p.Clone()
	*c.UplineID = domain.NewParticipantID()
	assert.NotEqual(t, *c.UplineID, *p.UplineID)
}

func TestReferralCode(t *testing.T) {
	seen := make(map[ReferralCode]bool)
	for range 200 {
		code, err := NewReferralCode()
		require.NoError(t, err)
		require.True(t, code.Valid(), code)
		assert.NotContains(t, string(code), "0")
		assert.NotContains(t, string(code), "O")
		assert.NotContains(t, string(code), "I")
		assert.NotContains(t, string(code), "L")
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)

	assert.Equal(t, ReferralCode("ABCDEFGH"), NormalizeReferralCode("  abcdefgh "))
	assert.False(t, ReferralCode("ABCDEFG").Valid())
	assert.False(t, ReferralCode("ABCDEFG1").Valid())
}

func TestRegisterRequest(t *testing.T) {
	req := &RegisterRequest{Email: "  Jane.Doe+team@Example.com ", ReferralCode: " abcdefgh"}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "jane.doe+team@example.com", req.Email)
	assert.Equal(t, "Jane Doe", req.DisplayName)
	assert.Equal(t, "ABCDEFGH", req.ReferralCode)

	bad := &RegisterRequest{Email: "not-an-email"}
	bad.Normalize()
	err := bad.Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Equal(t, "email", dErrors.DetailsOf(err)["rule"])
}
