package token

import (
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/shopspring/decimal"
)

// PayoutOrder routes wallet funds out of the ledger: the order opens a hold
// towards the wallet's suspense account, hold execution parks the funds
// there, and the final step burns them.
type PayoutOrder struct {
	Issuer            string `json:"issuer"`
	WalletToBePaidOut string `json:"walletToBePaidOut"`
	Value             string `json:"value"`
	Instructions      string `json:"instructions"`
	Status            string `json:"status"`
	Reason            string `json:"reason,omitempty"`
}

// OrderPayout requests a payout of the caller's own wallet.
func (c *TokenContract) OrderPayout(ctx contractapi.TransactionContextInterface, operationID, value, instructions string) (bool, error) {
	issuer, err := caller(ctx)
	if err != nil {
		return false, err
	}
	if err := doOrderPayout(ctx, operationID, issuer, issuer, value, instructions); err != nil {
		return false, err
	}
	return true, nil
}

// OrderPayoutFrom requests a payout of another wallet; the caller needs a
// payout delegation from that wallet.
func (c *TokenContract) OrderPayoutFrom(ctx contractapi.TransactionContextInterface, operationID, walletToBePaidOut, value, instructions string) (bool, error) {
	if err := checkAccount(walletToBePaidOut); err != nil {
		return false, err
	}
	issuer, err := caller(ctx)
	if err != nil {
		return false, err
	}
	authorized, err := hasCapability(ctx, capPayout, walletToBePaidOut, issuer)
	if err != nil {
		return false, err
	}
	if !authorized {
		log.Printf("%s is unauthorized to order payouts for %s", issuer, walletToBePaidOut)
		return false, nil
	}
	if err := doOrderPayout(ctx, operationID, issuer, walletToBePaidOut, value, instructions); err != nil {
		return false, err
	}
	return true, nil
}

func doOrderPayout(ctx contractapi.TransactionContextInterface, operationID, issuer, wallet, value, instructions string) error {
	amount, err := parseAmount(value)
	if err != nil {
		return err
	}
	if instructions == "" {
		return errorf(ErrInvalidArgument, "payout instructions must not be empty")
	}
	inUse, err := stateExists(ctx, payoutKey(operationID))
	if err != nil {
		return err
	}
	if inUse {
		return errorf(ErrDuplicateOperation, "operation id %s already in use for payout order", operationID)
	}
	agent, err := getString(ctx, clearingAgentKey)
	if err != nil {
		return err
	}
	if agent == "" {
		return errorf(ErrInvalidState, "no clearing agent configured")
	}
	if err := doHold(ctx, operationID, issuer, wallet, suspenseAccount(wallet), agent, "0", amount); err != nil {
		return err
	}
	order := PayoutOrder{
		Issuer:            issuer,
		WalletToBePaidOut: wallet,
		Value:             amount.String(),
		Instructions:      instructions,
		Status:            statusOrdered,
	}
	return putJSON(ctx, payoutKey(operationID), &order)
}

// ProcessPayout moves an Ordered payout to InProcess. Only the token owner
// may take a payout into processing.
func (c *TokenContract) ProcessPayout(ctx contractapi.TransactionContextInterface, operationID string) (bool, error) {
	actor, err := caller(ctx)
	if err != nil {
		return false, err
	}
	var order PayoutOrder
	found, err := getJSON(ctx, payoutKey(operationID), &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no payout order for %s", operationID)
		return false, nil
	}
	if order.Status != statusOrdered {
		log.Printf("payout order %s has status %s, can only process from %s", operationID, order.Status, statusOrdered)
		return false, nil
	}
	owner, err := getString(ctx, ownerKey)
	if err != nil {
		return false, err
	}
	if actor != owner {
		log.Printf("only the token owner can process payout order %s", operationID)
		return false, nil
	}
	order.Status = statusInProcess
	if err := putJSON(ctx, payoutKey(operationID), &order); err != nil {
		return false, err
	}
	return true, nil
}

// PutFundsInSuspenseInPayout executes the backing hold, moving the payout
// value into the wallet's suspense account. The hold's notary check means
// only the clearing agent can drive this transition.
func (c *TokenContract) PutFundsInSuspenseInPayout(ctx contractapi.TransactionContextInterface, operationID string) (bool, error) {
	actor, err := caller(ctx)
	if err != nil {
		return false, err
	}
	var order PayoutOrder
	found, err := getJSON(ctx, payoutKey(operationID), &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no payout order for %s", operationID)
		return false, nil
	}
	if order.Status != statusInProcess {
		log.Printf("payout order %s has status %s, can only suspend from %s", operationID, order.Status, statusInProcess)
		return false, nil
	}
	amount, err := decimal.NewFromString(order.Value)
	if err != nil {
		return false, errorf(ErrInvalidState, "payout order %s holds non-numeric value %q", operationID, order.Value)
	}
	executed, err := executeHold(ctx, operationID, amount, actor)
	if err != nil || !executed {
		return false, err
	}
	order.Status = statusFundsInSuspense
	if err := putJSON(ctx, payoutKey(operationID), &order); err != nil {
		return false, err
	}
	return true, nil
}

// ExecutePayout burns the suspense balance, completing the payout.
func (c *TokenContract) ExecutePayout(ctx contractapi.TransactionContextInterface, operationID string) (bool, error) {
	var order PayoutOrder
	found, err := getJSON(ctx, payoutKey(operationID), &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no payout order for %s", operationID)
		return false, nil
	}
	if order.Status != statusFundsInSuspense {
		log.Printf("payout order %s has status %s, can only execute from %s", operationID, order.Status, statusFundsInSuspense)
		return false, nil
	}
	amount, err := decimal.NewFromString(order.Value)
	if err != nil {
		return false, errorf(ErrInvalidState, "payout order %s holds non-numeric value %q", operationID, order.Value)
	}
	if err := burn(ctx, suspenseAccount(order.WalletToBePaidOut), amount); err != nil {
		return false, err
	}
	order.Status = statusExecuted
	if err := putJSON(ctx, payoutKey(operationID), &order); err != nil {
		return false, err
	}
	return true, nil
}

// RejectPayout lets the clearing agent refuse a payout whose funds are not
// yet in suspense, releasing the backing hold and recording the reason.
func (c *TokenContract) RejectPayout(ctx contractapi.TransactionContextInterface, operationID, reason string) (bool, error) {
	actor, err := caller(ctx)
	if err != nil {
		return false, err
	}
	agent, err := getString(ctx, clearingAgentKey)
	if err != nil {
		return false, err
	}
	if actor != agent {
		log.Printf("only the clearing agent can reject payout order %s", operationID)
		return false, nil
	}
	var order PayoutOrder
	found, err := getJSON(ctx, payoutKey(operationID), &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no payout order for %s", operationID)
		return false, nil
	}
	released, err := releaseHoldForOrder(ctx, operationID)
	if err != nil || !released {
		return false, err
	}
	order.Reason = reason
	order.Status = statusRejected
	if err := putJSON(ctx, payoutKey(operationID), &order); err != nil {
		return false, err
	}
	return true, nil
}

// CancelPayout lets the issuer withdraw an Ordered payout, releasing the
// backing hold and recording the reason.
func (c *TokenContract) CancelPayout(ctx contractapi.TransactionContextInterface, operationID, reason string) (bool, error) {
	actor, err := caller(ctx)
	if err != nil {
		return false, err
	}
	var order PayoutOrder
	found, err := getJSON(ctx, payoutKey(operationID), &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no payout order for %s", operationID)
		return false, nil
	}
	if order.Status != statusOrdered {
		log.Printf("payout order %s has status %s, can only cancel from %s", operationID, order.Status, statusOrdered)
		return false, nil
	}
	if actor != order.Issuer {
		log.Printf("only the issuer can cancel payout order %s", operationID)
		return false, nil
	}
	released, err := releaseHoldForOrder(ctx, operationID)
	if err != nil || !released {
		return false, err
	}
	order.Status = statusCancelled
	order.Reason = reason
	if err := putJSON(ctx, payoutKey(operationID), &order); err != nil {
		return false, err
	}
	return true, nil
}

// RetrievePayoutData returns the payout order for an operation id.
func (c *TokenContract) RetrievePayoutData(ctx contractapi.TransactionContextInterface, operationID string) (*PayoutOrder, error) {
	var order PayoutOrder
	found, err := getJSON(ctx, payoutKey(operationID), &order)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errorf(ErrNotFound, "no payout order for %s", operationID)
	}
	return &order, nil
}

func (c *TokenContract) AuthorizePayoutOperator(ctx contractapi.TransactionContextInterface, orderer string) (bool, error) {
	if err := authorizeOperator(ctx, capPayout, orderer); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TokenContract) RevokePayoutOperator(ctx contractapi.TransactionContextInterface, orderer string) (bool, error) {
	if err := revokeOperator(ctx, capPayout, orderer); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TokenContract) IsPayoutOperatorFor(ctx contractapi.TransactionContextInterface, walletOwner, orderer string) (string, error) {
	if err := checkAccount(walletOwner); err != nil {
		return "", err
	}
	if err := checkAccount(orderer); err != nil {
		return "", err
	}
	return operatorFlag(ctx, capPayout, walletOwner, orderer)
}
