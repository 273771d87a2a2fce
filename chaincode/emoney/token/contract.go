package token

import (
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/shopspring/decimal"
)

// TokenContract implements an e-money token over the Fabric world state:
// a fungible balance ledger with allowances, a hold (escrow) engine, and the
// clearable-transfer, fund and payout workflows built on top of it. Each
// workflow engine composes the balance ledger and the hold engine; there is
// no inheritance chain between the token flavours.
type TokenContract struct {
	contractapi.Contract
}

// Order workflow statuses shared by clearable transfers, fund orders and
// payout orders.
const (
	statusOrdered         = "Ordered"
	statusInProcess       = "InProcess"
	statusExecuted        = "Executed"
	statusCancelled       = "Cancelled"
	statusRejected        = "Rejected"
	statusFundsInSuspense = "FundsInSuspense"
)

// InitLedger seeds the token configuration: the invoking MSP becomes the
// token owner and the initial clearing agent, with the same sample figures
// the Node.js chaincodes ship with.
func (c *TokenContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	ownerID, err := caller(ctx)
	if err != nil {
		return err
	}

	log.Printf("initializing ledger, token owner %s", ownerID)

	if err := putString(ctx, balanceKey(ownerID), "12"); err != nil {
		return err
	}
	if err := putString(ctx, ownerKey, ownerID); err != nil {
		return err
	}
	if err := putString(ctx, nameKey, "testToken"); err != nil {
		return err
	}
	if err := putString(ctx, symbolKey, "TSTT"); err != nil {
		return err
	}
	if err := putString(ctx, totalSupplyKey, "30"); err != nil {
		return err
	}
	return putString(ctx, clearingAgentKey, ownerID)
}

func (c *TokenContract) GetTokenName(ctx contractapi.TransactionContextInterface) (string, error) {
	return getString(ctx, nameKey)
}

func (c *TokenContract) GetTokenSymbol(ctx contractapi.TransactionContextInterface) (string, error) {
	return getString(ctx, symbolKey)
}

func (c *TokenContract) GetTokenOwner(ctx contractapi.TransactionContextInterface) (string, error) {
	return getString(ctx, ownerKey)
}

func (c *TokenContract) GetTotalSupply(ctx contractapi.TransactionContextInterface) (string, error) {
	supply, err := getDecimal(ctx, totalSupplyKey)
	if err != nil {
		return "", err
	}
	return supply.String(), nil
}

// GetClearingAgent returns the MSP acting as notary for clearable transfers
// and payouts.
func (c *TokenContract) GetClearingAgent(ctx contractapi.TransactionContextInterface) (string, error) {
	return getString(ctx, clearingAgentKey)
}

// UpdateClearingAgent designates a new clearing agent. Only the token owner
// may call it.
func (c *TokenContract) UpdateClearingAgent(ctx contractapi.TransactionContextInterface, agent string) error {
	if err := checkAccount(agent); err != nil {
		return err
	}
	actor, err := caller(ctx)
	if err != nil {
		return err
	}
	owner, err := getString(ctx, ownerKey)
	if err != nil {
		return err
	}
	if actor != owner {
		return errorf(ErrUnauthorized, "only the token owner can update the clearing agent")
	}
	return putString(ctx, clearingAgentKey, agent)
}

func adjustTotalSupply(ctx contractapi.TransactionContextInterface, delta decimal.Decimal) error {
	supply, err := getDecimal(ctx, totalSupplyKey)
	if err != nil {
		return err
	}
	return putDecimal(ctx, totalSupplyKey, supply.Add(delta))
}
