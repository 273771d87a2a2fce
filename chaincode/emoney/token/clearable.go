package token

import (
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/shopspring/decimal"
)

// ClearableTransfer is the workflow overlay of a transfer routed through the
// clearing agent: the custody itself lives in a hold under the same operation
// id, the order record tracks the clearing decision.
type ClearableTransfer struct {
	Issuer string `json:"issuer"`
	Origin string `json:"origin"`
	Target string `json:"target"`
	Value  string `json:"value"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// OrderTransfer opens a clearable transfer from the caller to the receiver,
// backed by a hold notarized by the clearing agent.
func (c *TokenContract) OrderTransfer(ctx contractapi.TransactionContextInterface, operationID, to, value string) (bool, error) {
	if err := checkAccount(to); err != nil {
		return false, err
	}
	amount, err := parseAmount(value)
	if err != nil {
		return false, err
	}
	issuer, err := caller(ctx)
	if err != nil {
		return false, err
	}
	if err := doOrderTransfer(ctx, operationID, issuer, issuer, to, amount); err != nil {
		return false, err
	}
	return true, nil
}

// OrderTransferFrom opens a clearable transfer on behalf of `from`; the
// caller needs a clearable-transfer delegation from that account.
func (c *TokenContract) OrderTransferFrom(ctx contractapi.TransactionContextInterface, operationID, from, to, value string) (bool, error) {
	if err := checkAccount(from); err != nil {
		return false, err
	}
	if err := checkAccount(to); err != nil {
		return false, err
	}
	amount, err := parseAmount(value)
	if err != nil {
		return false, err
	}
	issuer, err := caller(ctx)
	if err != nil {
		return false, err
	}
	authorized, err := hasCapability(ctx, capClearTransfer, from, issuer)
	if err != nil {
		return false, err
	}
	if !authorized {
		log.Printf("%s is unauthorized to order transfers on behalf of %s", issuer, from)
		return false, nil
	}
	if err := doOrderTransfer(ctx, operationID, issuer, from, to, amount); err != nil {
		return false, err
	}
	return true, nil
}

func doOrderTransfer(ctx contractapi.TransactionContextInterface, operationID, issuer, from, to string, amount decimal.Decimal) error {
	inUse, err := stateExists(ctx, clearableKey(operationID))
	if err != nil {
		return err
	}
	if inUse {
		return errorf(ErrDuplicateOperation, "operation id %s already in use for clearable transfer", operationID)
	}
	agent, err := getString(ctx, clearingAgentKey)
	if err != nil {
		return err
	}
	if agent == "" {
		return errorf(ErrInvalidState, "no clearing agent configured")
	}
	if err := doHold(ctx, operationID, issuer, from, to, agent, "0", amount); err != nil {
		return err
	}
	order := ClearableTransfer{
		Issuer: issuer,
		Origin: from,
		Target: to,
		Value:  amount.String(),
		Status: statusOrdered,
	}
	return putJSON(ctx, clearableKey(operationID), &order)
}

// ProcessClearableTransfer moves an Ordered transfer to InProcess. Anyone may
// flag the order as being worked on; the privileged transitions come later.
func (c *TokenContract) ProcessClearableTransfer(ctx contractapi.TransactionContextInterface, operationID string) (bool, error) {
	var order ClearableTransfer
	found, err := getJSON(ctx, clearableKey(operationID), &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no clearable transfer request for %s", operationID)
		return false, nil
	}
	if order.Status != statusOrdered {
		log.Printf("clearable transfer %s has status %s, can only process from %s", operationID, order.Status, statusOrdered)
		return false, nil
	}
	order.Status = statusInProcess
	if err := putJSON(ctx, clearableKey(operationID), &order); err != nil {
		return false, err
	}
	return true, nil
}

// ExecuteClearableTransfer settles an InProcess transfer: the clearing agent
// executes the backing hold for the full order value.
func (c *TokenContract) ExecuteClearableTransfer(ctx contractapi.TransactionContextInterface, operationID string) (bool, error) {
	actor, err := caller(ctx)
	if err != nil {
		return false, err
	}
	agent, err := getString(ctx, clearingAgentKey)
	if err != nil {
		return false, err
	}
	if actor != agent {
		log.Printf("only the clearing agent can execute clearable transfer %s", operationID)
		return false, nil
	}
	var order ClearableTransfer
	found, err := getJSON(ctx, clearableKey(operationID), &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no clearable transfer request for %s", operationID)
		return false, nil
	}
	if order.Status != statusInProcess {
		log.Printf("clearable transfer %s has status %s, can only execute from %s", operationID, order.Status, statusInProcess)
		return false, nil
	}
	amount, err := decimal.NewFromString(order.Value)
	if err != nil {
		return false, errorf(ErrInvalidState, "clearable transfer %s holds non-numeric value %q", operationID, order.Value)
	}
	executed, err := executeHold(ctx, operationID, amount, actor)
	if err != nil || !executed {
		return false, err
	}
	order.Status = statusExecuted
	if err := putJSON(ctx, clearableKey(operationID), &order); err != nil {
		return false, err
	}
	return true, nil
}

// RejectClearableTransfer lets the clearing agent refuse the transfer,
// releasing the backing hold and recording the reason.
func (c *TokenContract) RejectClearableTransfer(ctx contractapi.TransactionContextInterface, operationID, reason string) (bool, error) {
	actor, err := caller(ctx)
	if err != nil {
		return false, err
	}
	agent, err := getString(ctx, clearingAgentKey)
	if err != nil {
		return false, err
	}
	if actor != agent {
		log.Printf("only the clearing agent can reject clearable transfer %s", operationID)
		return false, nil
	}
	var order ClearableTransfer
	found, err := getJSON(ctx, clearableKey(operationID), &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no clearable transfer request for %s", operationID)
		return false, nil
	}
	released, err := releaseHoldForOrder(ctx, operationID)
	if err != nil || !released {
		return false, err
	}
	order.Reason = reason
	order.Status = statusRejected
	if err := putJSON(ctx, clearableKey(operationID), &order); err != nil {
		return false, err
	}
	return true, nil
}

// CancelTransfer lets the issuer withdraw an Ordered transfer, releasing the
// backing hold.
func (c *TokenContract) CancelTransfer(ctx contractapi.TransactionContextInterface, operationID string) (bool, error) {
	actor, err := caller(ctx)
	if err != nil {
		return false, err
	}
	var order ClearableTransfer
	found, err := getJSON(ctx, clearableKey(operationID), &order)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no clearable transfer request for %s", operationID)
		return false, nil
	}
	if order.Status != statusOrdered {
		log.Printf("clearable transfer %s has status %s, can only cancel from %s", operationID, order.Status, statusOrdered)
		return false, nil
	}
	if actor != order.Issuer {
		log.Printf("only the issuer can cancel clearable transfer %s", operationID)
		return false, nil
	}
	released, err := releaseHoldForOrder(ctx, operationID)
	if err != nil || !released {
		return false, err
	}
	order.Status = statusCancelled
	if err := putJSON(ctx, clearableKey(operationID), &order); err != nil {
		return false, err
	}
	return true, nil
}

// RetrieveClearableTransferData returns the order record for an operation id.
func (c *TokenContract) RetrieveClearableTransferData(ctx contractapi.TransactionContextInterface, operationID string) (*ClearableTransfer, error) {
	var order ClearableTransfer
	found, err := getJSON(ctx, clearableKey(operationID), &order)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errorf(ErrNotFound, "no clearable transfer request for %s", operationID)
	}
	return &order, nil
}

func (c *TokenContract) AuthorizeClearableTransferOperator(ctx contractapi.TransactionContextInterface, operator string) (bool, error) {
	if err := authorizeOperator(ctx, capClearTransfer, operator); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TokenContract) RevokeClearableTransferOperator(ctx contractapi.TransactionContextInterface, operator string) (bool, error) {
	if err := revokeOperator(ctx, capClearTransfer, operator); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TokenContract) IsClearableTransferOperatorFor(ctx contractapi.TransactionContextInterface, operator, from string) (string, error) {
	if err := checkAccount(operator); err != nil {
		return "", err
	}
	if err := checkAccount(from); err != nil {
		return "", err
	}
	return operatorFlag(ctx, capClearTransfer, from, operator)
}
