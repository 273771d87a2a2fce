package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitLedgerSeedsConfiguration(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}

	name, err := contract.GetTokenName(ctx)
	require.NoError(t, err)
	require.Equal(t, "testToken", name)

	symbol, err := contract.GetTokenSymbol(ctx)
	require.NoError(t, err)
	require.Equal(t, "TSTT", symbol)

	owner, err := contract.GetTokenOwner(ctx)
	require.NoError(t, err)
	require.Equal(t, ownerMSP, owner)

	supply, err := contract.GetTotalSupply(ctx)
	require.NoError(t, err)
	require.Equal(t, "30", supply)

	agent, err := contract.GetClearingAgent(ctx)
	require.NoError(t, err)
	require.Equal(t, ownerMSP, agent)

	requireBalance(t, ctx, ownerMSP, "12")
}

func TestUpdateClearingAgent(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}

	err := contract.UpdateClearingAgent(ctx.as(aliceMSP), "AgentMSP")
	requireKind(t, err, ErrUnauthorized)

	require.NoError(t, contract.UpdateClearingAgent(ctx.as(ownerMSP), "AgentMSP"))
	agent, err := contract.GetClearingAgent(ctx)
	require.NoError(t, err)
	require.Equal(t, "AgentMSP", agent)
}

func TestUpdateClearingAgentRejectsReservedAccount(t *testing.T) {
	ctx := newTestContext(t)
	contract := &TokenContract{}

	err := contract.UpdateClearingAgent(ctx, "totalSupply")
	requireKind(t, err, ErrInvalidAccount)
}
