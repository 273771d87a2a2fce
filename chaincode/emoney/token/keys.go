package token

// World-state key layout. The patterns are shared with the deployed Node.js
// chaincodes, so they must not change: account balances live under the bare
// account id, hold records and fund orders under the bare operation id, and
// the remaining record types disambiguate with a fixed suffix.

const (
	ownerKey         = "owner"
	nameKey          = "name"
	symbolKey        = "symbol"
	totalSupplyKey   = "totalSupply"
	clearingAgentKey = "clearingAgent"
	totalHoldKey     = "totalHoldValue"
)

func balanceKey(account string) string {
	return account
}

func allowanceKey(owner, spender string) string {
	return owner + "-" + spender
}

func holdKey(operationID string) string {
	return operationID
}

func clearableKey(operationID string) string {
	return operationID + "Clear"
}

func payoutKey(operationID string) string {
	return operationID + "Payout"
}

func heldValueKey(account string) string {
	return account + "HoldValue"
}

// suspenseAccount is the synthetic per-wallet account that parks payout funds
// between hold execution and the final burn.
func suspenseAccount(wallet string) string {
	return "Suspense" + wallet
}
