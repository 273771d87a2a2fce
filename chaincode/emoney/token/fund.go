package token

import (
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/shopspring/decimal"
)

// FundOrder requests external funding of a wallet. No hold backs it: value
// appears on the ledger only when the order is executed, so the total supply
// grows by the order value at that point.
type FundOrder struct {
	Orderer      string `json:"orderer"`
	WalletToFund string `json:"walletToFund"`
	Value        string `json:"value"`
	Instructions string `json:"instructions"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
}

// OrderFund requests funding of the caller's own wallet.
func (c *TokenContract) OrderFund(ctx contractapi.TransactionContextInterface, operationID, value, instructions string) (bool, error) {
	orderer, err := caller(ctx)
	if err != nil {
		return false, err
	}
	if err := doOrderFund(ctx, operationID, orderer, orderer, value, instructions); err != nil {
		return false, err
	}
	return true, nil
}

// OrderFundFrom requests funding of another wallet; the caller needs a fund
// delegation from that wallet.
func (c *TokenContract) OrderFundFrom(ctx contractapi.TransactionContextInterface, operationID, walletToFund, value, instructions string) (bool, error) {
	if err := checkAccount(walletToFund); err != nil {
		return false, err
	}
	orderer, err := caller(ctx)
	if err != nil {
		return false, err
	}
	authorized, err := hasCapability(ctx, capFund, walletToFund, orderer)
	if err != nil {
		return false, err
	}
	if !authorized {
		log.Printf("%s is unauthorized to order funds for %s", orderer, walletToFund)
		return false, nil
	}
	if err := doOrderFund(ctx, operationID, orderer, walletToFund, value, instructions); err != nil {
		return false, err
	}
	return true, nil
}

func doOrderFund(ctx contractapi.TransactionContextInterface, operationID, orderer, walletToFund, value, instructions string) error {
	amount, err := parseAmount(value)
	if err != nil {
		return err
	}
	if instructions == "" {
		return errorf(ErrInvalidArgument, "funding instructions must not be empty")
	}
	// Fund orders share the bare operation-id key space with holds, so an id
	// used by either workflow is burned for both.
	inUse, err := stateExists(ctx, operationID)
	if err != nil {
		return err
	}
	if inUse {
		return errorf(ErrDuplicateOperation, "operation id %s already in use", operationID)
	}
	order := FundOrder{
		Orderer:      orderer,
		WalletToFund: walletToFund,
		Value:        amount.String(),
		Instructions: instructions,
		Status:       statusOrdered,
	}
	return putJSON(ctx, operationID, &order)
}

// getFundOrder loads the record under the bare operation-id key and reports
// whether it actually is a fund order. Holds live under the same key, and a
// hold's JSON decodes into FundOrder with an empty orderer, so the lifecycle
// operations must not mistake one for the other.
func getFundOrder(ctx contractapi.TransactionContextInterface, operationID string, order *FundOrder) (bool, error) {
	found, err := getJSON(ctx, operationID, order)
	if err != nil || !found {
		return found, err
	}
	if order.Orderer == "" || order.WalletToFund == "" {
		return false, nil
	}
	return true, nil
}

// ProcessFund moves an Ordered fund order to InProcess.
func (c *TokenContract) ProcessFund(ctx contractapi.TransactionContextInterface, operationID string) (bool, error) {
	var order FundOrder
	found, err := getFundOrder(ctx, operationID, &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no fund order for %s", operationID)
		return false, nil
	}
	if order.Status != statusOrdered {
		log.Printf("fund order %s has status %s, can only process from %s", operationID, order.Status, statusOrdered)
		return false, nil
	}
	order.Status = statusInProcess
	if err := putJSON(ctx, operationID, &order); err != nil {
		return false, err
	}
	return true, nil
}

// ExecuteFund settles an InProcess fund order: the wallet is credited and the
// total supply grows by the order value.
func (c *TokenContract) ExecuteFund(ctx contractapi.TransactionContextInterface, operationID string) (bool, error) {
	var order FundOrder
	found, err := getFundOrder(ctx, operationID, &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no fund order for %s", operationID)
		return false, nil
	}
	if order.Status != statusInProcess {
		log.Printf("fund order %s has status %s, can only execute from %s", operationID, order.Status, statusInProcess)
		return false, nil
	}
	amount, err := decimal.NewFromString(order.Value)
	if err != nil {
		return false, errorf(ErrInvalidState, "fund order %s holds non-numeric value %q", operationID, order.Value)
	}
	if err := credit(ctx, order.WalletToFund, amount); err != nil {
		return false, err
	}
	if err := adjustTotalSupply(ctx, amount); err != nil {
		return false, err
	}
	order.Status = statusExecuted
	if err := putJSON(ctx, operationID, &order); err != nil {
		return false, err
	}
	return true, nil
}

// RejectFund refuses a fund order that is still Ordered or InProcess,
// recording the reason.
func (c *TokenContract) RejectFund(ctx contractapi.TransactionContextInterface, operationID, reason string) (bool, error) {
	var order FundOrder
	found, err := getFundOrder(ctx, operationID, &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no fund order for %s", operationID)
		return false, nil
	}
	if order.Status != statusOrdered && order.Status != statusInProcess {
		log.Printf("fund order %s has status %s, can only reject from %s or %s", operationID, order.Status, statusOrdered, statusInProcess)
		return false, nil
	}
	order.Status = statusRejected
	order.Reason = reason
	if err := putJSON(ctx, operationID, &order); err != nil {
		return false, err
	}
	return true, nil
}

// CancelFund lets the orderer or the funded wallet withdraw an Ordered order.
func (c *TokenContract) CancelFund(ctx contractapi.TransactionContextInterface, operationID string) (bool, error) {
	actor, err := caller(ctx)
	if err != nil {
		return false, err
	}
	var order FundOrder
	found, err := getFundOrder(ctx, operationID, &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no fund order for %s", operationID)
		return false, nil
	}
	if actor != order.Orderer && actor != order.WalletToFund {
		log.Printf("%s is unauthorized to cancel fund order %s", actor, operationID)
		return false, nil
	}
	if order.Status != statusOrdered {
		log.Printf("fund order %s has status %s, can only cancel from %s", operationID, order.Status, statusOrdered)
		return false, nil
	}
	order.Status = statusCancelled
	if err := putJSON(ctx, operationID, &order); err != nil {
		return false, err
	}
	return true, nil
}

// RetrieveFundData returns a fund order. Only the token owner and the orderer
// may read it, since the instructions can carry off-chain account details.
func (c *TokenContract) RetrieveFundData(ctx contractapi.TransactionContextInterface, operationID string) (*FundOrder, error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	owner, err := getString(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	var order FundOrder
	found, err := getFundOrder(ctx, operationID, &order)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errorf(ErrNotFound, "no fund order for %s", operationID)
	}
	if actor != owner && actor != order.Orderer {
		return nil, errorf(ErrUnauthorized, "%s is unauthorized to read fund order %s", actor, operationID)
	}
	return &order, nil
}

func (c *TokenContract) AuthorizeFundOperator(ctx contractapi.TransactionContextInterface, orderer string) (bool, error) {
	if err := authorizeOperator(ctx, capFund, orderer); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TokenContract) RevokeFundOperator(ctx contractapi.TransactionContextInterface, orderer string) (bool, error) {
	if err := revokeOperator(ctx, capFund, orderer); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TokenContract) IsFundOperatorFor(ctx contractapi.TransactionContextInterface, walletOwner, orderer string) (string, error) {
	if err := checkAccount(walletOwner); err != nil {
		return "", err
	}
	if err := checkAccount(orderer); err != nil {
		return "", err
	}
	return operatorFlag(ctx, capFund, walletOwner, orderer)
}
