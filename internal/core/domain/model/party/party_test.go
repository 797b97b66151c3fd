package party_test

import (
	"testing"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/party"
	"custody/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParty(t *testing.T) {
	t.Run("should create middleman", func(t *testing.T) {
		id := kernel.NewUUID()

		p, err := party.NewParty(id, "  Hub North ", kernel.RoleMiddleman)

		require.NoError(t, err)
		require.NoError(t, p.Validate())
		assert.True(t, p.ID().IsEqual(id))
		assert.Equal(t, "Hub North", p.Name())
		assert.True(t, p.CanCarry())
	})

	t.Run("only middlemen can carry", func(t *testing.T) {
		p, err := party.NewParty(kernel.NewUUID(), "Shop", kernel.RoleSeller)

		require.NoError(t, err)
		assert.False(t, p.CanCarry())
	})

	t.Run("should fail with blank name and unknown role", func(t *testing.T) {
		_, err := party.NewParty(kernel.NewUUID(), " ", kernel.RoleUnknown)

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var p party.Party
		assert.ErrorIs(t, p.Validate(), party.ErrPartyIsNotConstructed)
	})
}
