package order_test

import (
	"testing"
	"time"

	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/order"
	"custody/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parties struct {
	seller      kernel.UUID
	buyer       kernel.UUID
	coordinator kernel.UUID
	middleman   kernel.UUID
}

func newParties() parties {
	return parties{
		seller:      kernel.NewUUID(),
		buyer:       kernel.NewUUID(),
		coordinator: kernel.NewUUID(),
		middleman:   kernel.NewUUID(),
	}
}

func newPendingOrder(t *testing.T, p parties) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), 1, p.buyer, p.seller, p.coordinator)
	require.NoError(t, err)
	return o
}

func newAcceptedOrder(t *testing.T, p parties) *order.Order {
	t.Helper()
	o := newPendingOrder(t, p)
	require.NoError(t, o.BuildTrack([]kernel.UUID{p.middleman}))
	return o
}

func flags(o *order.Order) [][2]bool {
	var out [][2]bool
	for _, h := range o.Track() {
		out = append(out, [2]bool{h.Received(), h.Given()})
	}
	return out
}

func TestNewOrder(t *testing.T) {
	p := newParties()

	t.Run("should create pending order held by seller", func(t *testing.T) {
		id := kernel.NewUUID()
		o, err := order.NewOrder(id, kernel.NewUUID(), 3, p.buyer, p.seller, p.coordinator)

		require.NoError(t, err)
		require.NoError(t, o.Validate())
		assert.True(t, o.ID().IsEqual(id))
		assert.Equal(t, 3, o.Quantity())
		assert.Equal(t, order.Pending, o.WorkflowStatus())
		assert.Equal(t, order.InTransit, o.DeliveryStatus())
		assert.True(t, o.CurrentHolder().IsEqual(p.seller))
		assert.Empty(t, o.Track())
		assert.Equal(t, -1, o.Frontier())
		assert.Equal(t, int64(0), o.Revision())
	})

	t.Run("should fail with zero quantity", func(t *testing.T) {
		o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), 0, p.buyer, p.seller, p.coordinator)

		require.Error(t, err)
		assert.Nil(t, o)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), "0 is not greater than 0")
	})

	t.Run("should fail when buyer is the seller", func(t *testing.T) {
		o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), 1, p.seller, p.seller, p.coordinator)

		require.Error(t, err)
		assert.Nil(t, o)
		assert.Contains(t, err.Error(), "buyer and seller must be different parties")
	})

	t.Run("should join multiple validation errors", func(t *testing.T) {
		var invalid kernel.UUID

		o, err := order.NewOrder(invalid, kernel.NewUUID(), -1, p.buyer, p.seller, p.coordinator)

		require.Error(t, err)
		assert.Nil(t, o)
		assert.Contains(t, err.Error(), "UUID must be created")
		assert.Contains(t, err.Error(), "-1 is not greater than 0")
	})

	t.Run("zero value order is not constructed", func(t *testing.T) {
		var o order.Order
		assert.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
	})
}

func TestOrder_BuildTrack(t *testing.T) {
	t.Run("seller middleman buyer track has expected flags", func(t *testing.T) {
		p := newParties()
		o := newPendingOrder(t, p)

		err := o.BuildTrack([]kernel.UUID{p.middleman})

		require.NoError(t, err)
		assert.Equal(t, order.Accepted, o.WorkflowStatus())
		assert.Equal(t, []kernel.UUID{p.seller, p.middleman, p.buyer}, o.Owners())
		assert.Equal(t, [][2]bool{{true, false}, {false, false}, {false, true}}, flags(o))
		assert.True(t, o.CurrentHolder().IsEqual(p.seller))
		assert.Equal(t, 0, o.Frontier())
	})

	t.Run("track length is intermediaries plus two", func(t *testing.T) {
		p := newParties()
		o := newPendingOrder(t, p)
		mids := []kernel.UUID{kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID()}

		require.NoError(t, o.BuildTrack(mids))

		assert.Len(t, o.Track(), len(mids)+2)
	})

	t.Run("empty intermediaries gives seller to buyer track", func(t *testing.T) {
		p := newParties()
		o := newPendingOrder(t, p)

		require.NoError(t, o.BuildTrack(nil))

		assert.Equal(t, []kernel.UUID{p.seller, p.buyer}, o.Owners())
	})

	t.Run("second build is a conflict", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)

		err := o.BuildTrack([]kernel.UUID{kernel.NewUUID()})

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrConflict)
		assert.Len(t, o.Track(), 3)
	})

	t.Run("duplicate intermediary is rejected", func(t *testing.T) {
		p := newParties()
		o := newPendingOrder(t, p)

		err := o.BuildTrack([]kernel.UUID{p.middleman, p.middleman})

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, order.Pending, o.WorkflowStatus())
		assert.Empty(t, o.Track())
	})

	t.Run("seller or buyer as intermediary is rejected", func(t *testing.T) {
		p := newParties()
		o := newPendingOrder(t, p)

		assert.ErrorIs(t, o.BuildTrack([]kernel.UUID{p.seller}), errs.ErrValueIsInvalid)
		assert.ErrorIs(t, o.BuildTrack([]kernel.UUID{p.buyer}), errs.ErrValueIsInvalid)
	})

	t.Run("returned track is a copy", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)

		track := o.Track()
		track[0] = order.Hop{}

		assert.True(t, o.Track()[0].Owner().IsEqual(p.seller))
	})
}

func TestOrder_Advance(t *testing.T) {
	t.Run("walks seller middleman buyer to delivery", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)

		transfer, err := o.Advance()
		require.NoError(t, err)
		assert.Equal(t, 0, transfer.From)
		assert.Equal(t, 1, transfer.To)
		assert.True(t, transfer.FromOwner.IsEqual(p.seller))
		assert.True(t, transfer.ToOwner.IsEqual(p.middleman))
		assert.False(t, transfer.Delivered)
		assert.Equal(t, [][2]bool{{true, true}, {true, false}, {false, true}}, flags(o))
		assert.True(t, o.CurrentHolder().IsEqual(p.middleman))
		assert.Equal(t, order.InTransit, o.DeliveryStatus())

		transfer, err = o.Advance()
		require.NoError(t, err)
		assert.True(t, transfer.Delivered)
		assert.Equal(t, [][2]bool{{true, true}, {true, true}, {true, true}}, flags(o))
		assert.True(t, o.CurrentHolder().IsEqual(p.buyer))
		assert.Equal(t, order.Delivered, o.DeliveryStatus())
		assert.True(t, o.IsDelivered())
	})

	t.Run("holder at last hop gets terminal state", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)
		_, _ = o.Advance()
		_, _ = o.Advance()

		_, err := o.Advance()

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrTerminalState)
	})

	t.Run("pending order cannot advance", func(t *testing.T) {
		o := newPendingOrder(t, newParties())

		_, err := o.Advance()

		assert.ErrorIs(t, err, errs.ErrTerminalState)
	})

	t.Run("delivery drops the live transfer code", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)
		now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		_, _ = o.Advance()
		_, err := o.IssueTransferCode(p.middleman, "123456", now)
		require.NoError(t, err)

		_, err = o.Advance()
		require.NoError(t, err)

		_, ok := o.TransferCode()
		assert.False(t, ok)
	})
}

func TestOrder_TransferCode(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("issue targets the hop after the requester", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)

		code, err := o.IssueTransferCode(p.middleman, "123456", now)

		require.NoError(t, err)
		assert.Equal(t, 2, code.TargetHop())
		assert.False(t, code.IsVerified())
		assert.Equal(t, now.Add(order.TransferCodeTTL), code.ExpiresAt())
	})

	t.Run("non participant is forbidden", func(t *testing.T) {
		o := newAcceptedOrder(t, newParties())

		_, err := o.IssueTransferCode(kernel.NewUUID(), "123456", now)

		assert.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("buyer cannot issue a code", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)

		_, err := o.IssueTransferCode(p.buyer, "123456", now)

		assert.ErrorIs(t, err, errs.ErrTerminalState)
	})

	t.Run("new code replaces the old one", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)
		_, _ = o.IssueTransferCode(p.seller, "111111", now)
		_, _ = o.IssueTransferCode(p.seller, "222222", now)

		assert.ErrorIs(t, o.VerifyTransferCode("111111", now), errs.ErrConflict)
		assert.NoError(t, o.VerifyTransferCode("222222", now))
	})

	t.Run("verify without a code is a conflict", func(t *testing.T) {
		o := newAcceptedOrder(t, newParties())

		assert.ErrorIs(t, o.VerifyTransferCode("123456", now), errs.ErrConflict)
	})

	t.Run("mismatch is a conflict and keeps the code", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)
		_, _ = o.IssueTransferCode(p.seller, "123456", now)

		err := o.VerifyTransferCode("654321", now)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match")
		code, ok := o.TransferCode()
		require.True(t, ok)
		assert.False(t, code.IsVerified())
	})

	t.Run("code is valid at exactly the ttl and expired after", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)
		_, _ = o.IssueTransferCode(p.seller, "123456", now)

		err := o.VerifyTransferCode("123456", now.Add(order.TransferCodeTTL+time.Second))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")

		require.NoError(t, o.VerifyTransferCode("123456", now.Add(order.TransferCodeTTL)))
	})

	t.Run("verification is idempotent and does not move custody", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)
		_, _ = o.IssueTransferCode(p.seller, "123456", now)

		require.NoError(t, o.VerifyTransferCode("123456", now))
		require.NoError(t, o.VerifyTransferCode("123456", now.Add(time.Minute)))

		assert.True(t, o.CurrentHolder().IsEqual(p.seller))
		code, _ := o.TransferCode()
		assert.True(t, code.IsVerified())
	})

	t.Run("consume requires a verified code for the next hop", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)

		assert.ErrorIs(t, o.ConsumeTransferCode(), errs.ErrConflict)

		_, _ = o.IssueTransferCode(p.seller, "123456", now)
		assert.ErrorIs(t, o.ConsumeTransferCode(), errs.ErrConflict)

		require.NoError(t, o.VerifyTransferCode("123456", now))
		require.NoError(t, o.ConsumeTransferCode())

		_, ok := o.TransferCode()
		assert.False(t, ok)
	})

	t.Run("code for a later hop cannot be consumed early", func(t *testing.T) {
		p := newParties()
		o := newAcceptedOrder(t, p)
		_, _ = o.IssueTransferCode(p.middleman, "123456", now)
		require.NoError(t, o.VerifyTransferCode("123456", now))

		err := o.ConsumeTransferCode()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "code authorises hop 2, next hop is 1")
	})
}

func TestRestoreOrder(t *testing.T) {
	p := newParties()

	t.Run("round trips through snapshot", func(t *testing.T) {
		o := newAcceptedOrder(t, p)
		_, _ = o.Advance()
		_, _ = o.IssueTransferCode(p.middleman, "123456", time.Now())
		require.NoError(t, o.RecordAnchor("bafy-anchor"))
		o.MarkCommitted()

		restored, err := order.RestoreOrder(o.Snapshot())

		require.NoError(t, err)
		assert.Equal(t, o.Snapshot(), restored.Snapshot())
		assert.Equal(t, int64(1), restored.Revision())
		assert.Equal(t, "bafy-anchor", restored.AnchorID())
	})

	t.Run("holder must own exactly one hop", func(t *testing.T) {
		s := newAcceptedOrder(t, p).Snapshot()
		s.CurrentHolder = kernel.NewUUID()

		_, err := order.RestoreOrder(s)

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("pending order must not carry a track", func(t *testing.T) {
		s := newAcceptedOrder(t, p).Snapshot()
		s.Workflow = order.Pending

		_, err := order.RestoreOrder(s)

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestOrder_Visibility(t *testing.T) {
	p := newParties()
	o := newAcceptedOrder(t, p)

	assert.True(t, o.IsVisibleTo(p.seller))
	assert.True(t, o.IsVisibleTo(p.buyer))
	assert.True(t, o.IsVisibleTo(p.coordinator))
	assert.True(t, o.IsVisibleTo(p.middleman))
	assert.False(t, o.IsVisibleTo(kernel.NewUUID()))
	assert.True(t, o.IsParticipant(p.middleman))
	assert.False(t, o.IsParticipant(p.coordinator))
}
