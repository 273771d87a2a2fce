package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransfer(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}

	// Seeded ledger: totalSupply 30, owner balance 12.
	require.NoError(t, contract.Transfer(ctx.as(ownerMSP), aliceMSP, "5"))

	requireBalance(t, ctx, ownerMSP, "7")
	requireBalance(t, ctx, aliceMSP, "5")
}

func TestTransferFailures(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}

	err := contract.Transfer(ctx.as(ownerMSP), aliceMSP, "0")
	requireKind(t, err, ErrInvalidAmount)

	err = contract.Transfer(ctx.as(ownerMSP), aliceMSP, "-3")
	requireKind(t, err, ErrInvalidAmount)

	err = contract.Transfer(ctx.as(ownerMSP), aliceMSP, "not-a-number")
	requireKind(t, err, ErrInvalidAmount)

	err = contract.Transfer(ctx.as(ownerMSP), "bad account", "1")
	requireKind(t, err, ErrInvalidAccount)

	err = contract.Transfer(ctx.as(ownerMSP), aliceMSP, "13")
	requireKind(t, err, ErrInsufficientFunds)

	// Nothing moved on any of the failures.
	requireBalance(t, ctx, ownerMSP, "12")
	requireBalance(t, ctx, aliceMSP, "0")
}

func TestTransferDecimalAmounts(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}

	require.NoError(t, contract.Transfer(ctx.as(ownerMSP), aliceMSP, "0.25"))
	requireBalance(t, ctx, ownerMSP, "11.75")
	requireBalance(t, ctx, aliceMSP, "0.25")
}

func TestApproveAndAllowance(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}

	allowance, err := contract.Allowance(ctx, ownerMSP, aliceMSP)
	require.NoError(t, err)
	require.Equal(t, "0", allowance)

	require.NoError(t, contract.Approve(ctx.as(ownerMSP), aliceMSP, "4"))
	// Approve overwrites, it does not accumulate.
	require.NoError(t, contract.Approve(ctx.as(ownerMSP), aliceMSP, "6"))

	allowance, err = contract.Allowance(ctx, ownerMSP, aliceMSP)
	require.NoError(t, err)
	require.Equal(t, "6", allowance)
}

func TestTransferFrom(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}

	require.NoError(t, contract.Approve(ctx.as(ownerMSP), aliceMSP, "6"))
	require.NoError(t, contract.TransferFrom(ctx.as(aliceMSP), ownerMSP, "4"))

	requireBalance(t, ctx, ownerMSP, "8")
	requireBalance(t, ctx, aliceMSP, "4")

	allowance, err := contract.Allowance(ctx, ownerMSP, aliceMSP)
	require.NoError(t, err)
	require.Equal(t, "2", allowance)

	err = contract.TransferFrom(ctx.as(aliceMSP), ownerMSP, "3")
	requireKind(t, err, ErrInsufficientAllowance)
}

func TestTransferFromInsufficientBalance(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}

	require.NoError(t, contract.Approve(ctx.as(ownerMSP), aliceMSP, "20"))
	err := contract.TransferFrom(ctx.as(aliceMSP), ownerMSP, "15")
	requireKind(t, err, ErrInsufficientFunds)

	requireBalance(t, ctx, ownerMSP, "12")
	allowance, err := contract.Allowance(ctx, ownerMSP, aliceMSP)
	require.NoError(t, err)
	require.Equal(t, "20", allowance)
}

func TestGetBalanceOfDefaultsToZero(t *testing.T) {
	ctx := newTestContext(t)
	requireBalance(t, ctx, "NeverSeenMSP", "0")
}
