package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The seeded clearing agent is the token owner (ownerMSP).

func TestOrderTransferOpensBackingHold(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}
	fund(t, ctx, aliceMSP, "10")

	ok, err := contract.OrderTransfer(ctx.as(aliceMSP), "ct1", bobMSP, "6")
	require.NoError(t, err)
	require.True(t, ok)

	order, err := contract.RetrieveClearableTransferData(ctx, "ct1")
	require.NoError(t, err)
	require.Equal(t, aliceMSP, order.Issuer)
	require.Equal(t, aliceMSP, order.Origin)
	require.Equal(t, bobMSP, order.Target)
	require.Equal(t, "6", order.Value)
	require.Equal(t, statusOrdered, order.Status)

	hold, err := contract.RetrieveHoldData(ctx, "ct1")
	require.NoError(t, err)
	require.Equal(t, ownerMSP, hold.Notary)
	require.Equal(t, "0", hold.Expiration)
	requireBalance(t, ctx, aliceMSP, "4")
	requireHeld(t, ctx, aliceMSP, "6")
}

func TestOrderTransferDuplicateAndInsufficient(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}
	fund(t, ctx, aliceMSP, "10")

	_, err := contract.OrderTransfer(ctx.as(aliceMSP), "ct1", bobMSP, "6")
	require.NoError(t, err)

	_, err = contract.OrderTransfer(ctx.as(aliceMSP), "ct1", bobMSP, "1")
	requireKind(t, err, ErrDuplicateOperation)

	_, err = contract.OrderTransfer(ctx.as(aliceMSP), "ct2", bobMSP, "5")
	requireKind(t, err, ErrInsufficientFunds)
}

func TestClearableTransferHappyPath(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}
	fund(t, ctx, aliceMSP, "10")

	_, err := contract.OrderTransfer(ctx.as(aliceMSP), "ct1", bobMSP, "6")
	require.NoError(t, err)

	// Cannot execute straight from Ordered.
	ok, err := contract.ExecuteClearableTransfer(ctx.as(ownerMSP), "ct1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = contract.ProcessClearableTransfer(ctx.as(bobMSP), "ct1")
	require.NoError(t, err)
	require.True(t, ok)

	// Only the clearing agent executes.
	ok, err = contract.ExecuteClearableTransfer(ctx.as(bobMSP), "ct1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = contract.ExecuteClearableTransfer(ctx.as(ownerMSP), "ct1")
	require.NoError(t, err)
	require.True(t, ok)

	order, err := contract.RetrieveClearableTransferData(ctx, "ct1")
	require.NoError(t, err)
	require.Equal(t, statusExecuted, order.Status)

	hold, err := contract.RetrieveHoldData(ctx, "ct1")
	require.NoError(t, err)
	require.Equal(t, HoldExecuted, hold.Status)

	requireBalance(t, ctx, aliceMSP, "4")
	requireBalance(t, ctx, bobMSP, "6")
	requireHeld(t, ctx, aliceMSP, "0")
	requireTotalHeld(t, ctx, "0")
}

func TestRejectClearableTransferReleasesHold(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}
	fund(t, ctx, aliceMSP, "10")

	_, err := contract.OrderTransfer(ctx.as(aliceMSP), "ct1", bobMSP, "6")
	require.NoError(t, err)

	// Only the clearing agent can reject.
	ok, err := contract.RejectClearableTransfer(ctx.as(bobMSP), "ct1", "suspicious")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = contract.RejectClearableTransfer(ctx.as(ownerMSP), "ct1", "suspicious")
	require.NoError(t, err)
	require.True(t, ok)

	order, err := contract.RetrieveClearableTransferData(ctx, "ct1")
	require.NoError(t, err)
	require.Equal(t, statusRejected, order.Status)
	require.Equal(t, "suspicious", order.Reason)

	requireBalance(t, ctx, aliceMSP, "10")
	requireHeld(t, ctx, aliceMSP, "0")
	requireTotalHeld(t, ctx, "0")
}

func TestCancelTransferOnlyIssuerFromOrdered(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}
	fund(t, ctx, aliceMSP, "10")

	_, err := contract.OrderTransfer(ctx.as(aliceMSP), "ct1", bobMSP, "6")
	require.NoError(t, err)

	ok, err := contract.CancelTransfer(ctx.as(bobMSP), "ct1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = contract.CancelTransfer(ctx.as(aliceMSP), "ct1")
	require.NoError(t, err)
	require.True(t, ok)

	order, err := contract.RetrieveClearableTransferData(ctx, "ct1")
	require.NoError(t, err)
	require.Equal(t, statusCancelled, order.Status)
	requireBalance(t, ctx, aliceMSP, "10")

	// Once cancelled the order is terminal.
	ok, err = contract.ProcessClearableTransfer(ctx.as(aliceMSP), "ct1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCancelTransferAfterProcessingRefused(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}
	fund(t, ctx, aliceMSP, "10")

	_, err := contract.OrderTransfer(ctx.as(aliceMSP), "ct1", bobMSP, "6")
	require.NoError(t, err)
	_, err = contract.ProcessClearableTransfer(ctx.as(ownerMSP), "ct1")
	require.NoError(t, err)

	ok, err := contract.CancelTransfer(ctx.as(aliceMSP), "ct1")
	require.NoError(t, err)
	require.False(t, ok)
	requireHeld(t, ctx, aliceMSP, "6")
}

func TestOrderTransferFromRequiresDelegation(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}
	fund(t, ctx, aliceMSP, "10")

	// Without a delegation the order is refused softly, nothing moves.
	ok, err := contract.OrderTransferFrom(ctx.as(bobMSP), "ct1", aliceMSP, bobMSP, "6")
	require.NoError(t, err)
	require.False(t, ok)
	requireBalance(t, ctx, aliceMSP, "10")

	ok, err = contract.AuthorizeClearableTransferOperator(ctx.as(aliceMSP), bobMSP)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = contract.OrderTransferFrom(ctx.as(bobMSP), "ct1", aliceMSP, bobMSP, "6")
	require.NoError(t, err)
	require.True(t, ok)

	order, err := contract.RetrieveClearableTransferData(ctx, "ct1")
	require.NoError(t, err)
	require.Equal(t, bobMSP, order.Issuer)
	require.Equal(t, aliceMSP, order.Origin)
}
