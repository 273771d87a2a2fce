package token

import (
	"encoding/json"
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/shopspring/decimal"
)

// Hold is an escrow reservation: value debited from the origin's spendable
// balance, kept aside until the notary executes it towards the target or
// someone entitled releases it back. Records are never deleted; terminal
// statuses remain as the audit trail of the operation.
type Hold struct {
	Issuer     string `json:"issuer"`
	Origin     string `json:"origin"`
	Target     string `json:"target"`
	Notary     string `json:"notary"`
	Expiration string `json:"expiration"` // epoch seconds, "0" = never expires
	Value      string `json:"value"`      // remaining held value
	Status     string `json:"status"`
}

const (
	HoldOrdered              = "Ordered"
	HoldExecuted             = "Executed"
	HoldReleasedByPayee      = "ReleasedByPayee"
	HoldReleasedByNotary     = "ReleasedByNotary"
	HoldReleasedOnExpiration = "ReleasedOnExpiration"
)

type holdEvent struct {
	OperationID string `json:"operationId"`
	Origin      string `json:"origin"`
	Target      string `json:"target"`
	Value       string `json:"value"`
	Status      string `json:"status"`
}

// Hold escrows value from the caller towards `to`, releasable or executable
// by the notary. timeToExpiration is an absolute epoch-seconds instant, "0"
// for a hold that never expires.
func (c *TokenContract) Hold(ctx contractapi.TransactionContextInterface, operationID, to, notary, value, timeToExpiration string) (bool, error) {
	if err := checkAccount(to); err != nil {
		return false, err
	}
	if err := checkAccount(notary); err != nil {
		return false, err
	}
	amount, err := parseAmount(value)
	if err != nil {
		return false, err
	}
	expiration, err := c.checkExpiration(ctx, timeToExpiration)
	if err != nil {
		return false, err
	}
	issuer, err := caller(ctx)
	if err != nil {
		return false, err
	}
	if err := doHold(ctx, operationID, issuer, issuer, to, notary, expiration, amount); err != nil {
		return false, err
	}
	return true, nil
}

// HoldFrom escrows value from `from`, requiring a hold delegation from that
// account to the caller.
func (c *TokenContract) HoldFrom(ctx contractapi.TransactionContextInterface, operationID, from, to, notary, value, timeToExpiration string) (bool, error) {
	if err := checkAccount(from); err != nil {
		return false, err
	}
	if err := checkAccount(to); err != nil {
		return false, err
	}
	if err := checkAccount(notary); err != nil {
		return false, err
	}
	amount, err := parseAmount(value)
	if err != nil {
		return false, err
	}
	expiration, err := c.checkExpiration(ctx, timeToExpiration)
	if err != nil {
		return false, err
	}
	issuer, err := caller(ctx)
	if err != nil {
		return false, err
	}
	authorized, err := hasCapability(ctx, capHold, from, issuer)
	if err != nil {
		return false, err
	}
	if !authorized {
		return false, errorf(ErrUnauthorized, "%s is unauthorized to hold on behalf of %s", issuer, from)
	}
	if err := doHold(ctx, operationID, issuer, from, to, notary, expiration, amount); err != nil {
		return false, err
	}
	return true, nil
}

// checkExpiration validates an expiration argument: zero, or a future instant.
func (c *TokenContract) checkExpiration(ctx contractapi.TransactionContextInterface, value string) (string, error) {
	exp, err := parseExpiration(value)
	if err != nil {
		return "", err
	}
	if exp == 0 {
		return "0", nil
	}
	now, err := txTime(ctx)
	if err != nil {
		return "", err
	}
	if exp <= now.Unix() {
		return "", errorf(ErrInvalidArgument, "expiration %d is not in the future", exp)
	}
	return value, nil
}

// doHold performs the escrow itself: debit the origin, grow the per-account
// and global hold aggregates, persist the record as Ordered. Shared by the
// public entry points and the clearable-transfer and payout workflows.
func doHold(ctx contractapi.TransactionContextInterface, operationID, issuer, origin, target, notary, expiration string, amount decimal.Decimal) error {
	inUse, err := stateExists(ctx, holdKey(operationID))
	if err != nil {
		return err
	}
	if inUse {
		return errorf(ErrDuplicateOperation, "operation id %s already in use", operationID)
	}

	originBalance, err := getDecimal(ctx, balanceKey(origin))
	if err != nil {
		return err
	}
	if amount.GreaterThan(originBalance) {
		return errorf(ErrInsufficientFunds, "%s holds %s, cannot hold %s", origin, originBalance, amount)
	}
	originHeld, err := getDecimal(ctx, heldValueKey(origin))
	if err != nil {
		return err
	}
	totalHeld, err := getDecimal(ctx, totalHoldKey)
	if err != nil {
		return err
	}

	hold := Hold{
		Issuer:     issuer,
		Origin:     origin,
		Target:     target,
		Notary:     notary,
		Expiration: expiration,
		Value:      amount.String(),
		Status:     HoldOrdered,
	}
	if err := putDecimal(ctx, balanceKey(origin), originBalance.Sub(amount)); err != nil {
		return err
	}
	if err := putDecimal(ctx, heldValueKey(origin), originHeld.Add(amount)); err != nil {
		return err
	}
	if err := putDecimal(ctx, totalHoldKey, totalHeld.Add(amount)); err != nil {
		return err
	}
	if err := putJSON(ctx, holdKey(operationID), &hold); err != nil {
		return err
	}

	payload, _ := json.Marshal(holdEvent{OperationID: operationID, Origin: origin, Target: target, Value: amount.String(), Status: HoldOrdered})
	return ctx.GetStub().SetEvent("HoldOrdered", payload)
}

// ExecuteHold lets the notary move up to the remaining held value to the
// target. The hold is terminal afterwards even when only part of the value
// was executed, mirroring the behaviour of the deployed chaincodes.
func (c *TokenContract) ExecuteHold(ctx contractapi.TransactionContextInterface, operationID, value string) (bool, error) {
	amount, err := parseAmount(value)
	if err != nil {
		return false, err
	}
	actor, err := caller(ctx)
	if err != nil {
		return false, err
	}
	return executeHold(ctx, operationID, amount, actor)
}

func executeHold(ctx contractapi.TransactionContextInterface, operationID string, amount decimal.Decimal, actor string) (bool, error) {
	var hold Hold
	found, err := getJSON(ctx, holdKey(operationID), &hold)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no hold request for %s", operationID)
		return false, nil
	}
	if actor != hold.Notary {
		log.Printf("only the notary can execute hold %s", operationID)
		return false, nil
	}
	if hold.Status != HoldOrdered {
		log.Printf("hold %s has status %s, can only execute from %s", operationID, hold.Status, HoldOrdered)
		return false, nil
	}
	expired, err := holdExpired(ctx, &hold)
	if err != nil {
		return false, err
	}
	if expired {
		log.Printf("hold %s expired", operationID)
		return false, nil
	}

	remaining, err := decimal.NewFromString(hold.Value)
	if err != nil {
		return false, errorf(ErrInvalidState, "hold %s holds non-numeric value %q", operationID, hold.Value)
	}
	if amount.GreaterThan(remaining) {
		return false, errorf(ErrInsufficientFunds, "hold %s retains %s, cannot execute %s", operationID, remaining, amount)
	}

	originHeld, err := getDecimal(ctx, heldValueKey(hold.Origin))
	if err != nil {
		return false, err
	}
	totalHeld, err := getDecimal(ctx, totalHoldKey)
	if err != nil {
		return false, err
	}

	if err := credit(ctx, hold.Target, amount); err != nil {
		return false, err
	}
	if err := putDecimal(ctx, heldValueKey(hold.Origin), originHeld.Sub(amount)); err != nil {
		return false, err
	}
	if err := putDecimal(ctx, totalHoldKey, totalHeld.Sub(amount)); err != nil {
		return false, err
	}
	hold.Value = remaining.Sub(amount).String()
	hold.Status = HoldExecuted
	if err := putJSON(ctx, holdKey(operationID), &hold); err != nil {
		return false, err
	}

	payload, _ := json.Marshal(holdEvent{OperationID: operationID, Origin: hold.Origin, Target: hold.Target, Value: amount.String(), Status: HoldExecuted})
	if err := ctx.GetStub().SetEvent("HoldExecuted", payload); err != nil {
		return false, err
	}
	return true, nil
}

// ReleaseHold returns the full remaining value of an Ordered hold to its
// origin. The target and the notary may release at any time; once the hold
// has expired anyone may, and the expiration takes precedence when picking
// the terminal status.
func (c *TokenContract) ReleaseHold(ctx contractapi.TransactionContextInterface, operationID string) (bool, error) {
	actor, err := caller(ctx)
	if err != nil {
		return false, err
	}
	var hold Hold
	found, err := getJSON(ctx, holdKey(operationID), &hold)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no hold request for %s", operationID)
		return false, nil
	}
	if hold.Status != HoldOrdered {
		log.Printf("hold %s has status %s, can only release from %s", operationID, hold.Status, HoldOrdered)
		return false, nil
	}
	expired, err := holdExpired(ctx, &hold)
	if err != nil {
		return false, err
	}

	var status string
	switch {
	case expired:
		status = HoldReleasedOnExpiration
	case actor == hold.Target:
		status = HoldReleasedByPayee
	case actor == hold.Notary:
		status = HoldReleasedByNotary
	default:
		log.Printf("%s is unauthorized to release hold %s", actor, operationID)
		return false, nil
	}
	if err := releaseHold(ctx, operationID, &hold, status); err != nil {
		return false, err
	}
	return true, nil
}

// releaseHoldForOrder releases the hold backing a workflow order without the
// public caller check; the workflow has already authorized the transition.
// The terminal status is ReleasedByNotary since workflow holds are notarized
// by the clearing agent and released under its authority.
func releaseHoldForOrder(ctx contractapi.TransactionContextInterface, operationID string) (bool, error) {
	var hold Hold
	found, err := getJSON(ctx, holdKey(operationID), &hold)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no hold request for %s", operationID)
		return false, nil
	}
	if hold.Status != HoldOrdered {
		log.Printf("hold %s has status %s, can only release from %s", operationID, hold.Status, HoldOrdered)
		return false, nil
	}
	if err := releaseHold(ctx, operationID, &hold, HoldReleasedByNotary); err != nil {
		return false, err
	}
	return true, nil
}

// releaseHold reverses the escrow: the full remaining value goes back to the
// origin and both hold aggregates shrink by the same amount.
func releaseHold(ctx contractapi.TransactionContextInterface, operationID string, hold *Hold, status string) error {
	remaining, err := decimal.NewFromString(hold.Value)
	if err != nil {
		return errorf(ErrInvalidState, "hold %s holds non-numeric value %q", operationID, hold.Value)
	}
	originHeld, err := getDecimal(ctx, heldValueKey(hold.Origin))
	if err != nil {
		return err
	}
	totalHeld, err := getDecimal(ctx, totalHoldKey)
	if err != nil {
		return err
	}

	if err := credit(ctx, hold.Origin, remaining); err != nil {
		return err
	}
	if err := putDecimal(ctx, heldValueKey(hold.Origin), originHeld.Sub(remaining)); err != nil {
		return err
	}
	if err := putDecimal(ctx, totalHoldKey, totalHeld.Sub(remaining)); err != nil {
		return err
	}
	hold.Status = status
	if err := putJSON(ctx, holdKey(operationID), hold); err != nil {
		return err
	}

	payload, _ := json.Marshal(holdEvent{OperationID: operationID, Origin: hold.Origin, Target: hold.Target, Value: remaining.String(), Status: status})
	return ctx.GetStub().SetEvent("HoldReleased", payload)
}

// RenewHold extends the expiration of an unexpired Ordered hold. Only the
// origin or the notary may renew.
func (c *TokenContract) RenewHold(ctx contractapi.TransactionContextInterface, operationID, timeToExpiration string) (bool, error) {
	expiration, err := c.checkExpiration(ctx, timeToExpiration)
	if err != nil {
		return false, err
	}
	actor, err := caller(ctx)
	if err != nil {
		return false, err
	}
	var hold Hold
	found, err := getJSON(ctx, holdKey(operationID), &hold)
	if err != nil {
		return false, err
	}
	if !found {
		log.Printf("no hold request for %s", operationID)
		return false, nil
	}
	if actor != hold.Notary && actor != hold.Origin {
		log.Printf("only the notary or origin can renew hold %s", operationID)
		return false, nil
	}
	if hold.Status != HoldOrdered {
		log.Printf("hold %s has status %s, can only renew from %s", operationID, hold.Status, HoldOrdered)
		return false, nil
	}
	expired, err := holdExpired(ctx, &hold)
	if err != nil {
		return false, err
	}
	if expired {
		log.Printf("hold %s expired", operationID)
		return false, nil
	}
	hold.Expiration = expiration
	if err := putJSON(ctx, holdKey(operationID), &hold); err != nil {
		return false, err
	}
	return true, nil
}

// RetrieveHoldData returns the hold record for an operation id.
func (c *TokenContract) RetrieveHoldData(ctx contractapi.TransactionContextInterface, operationID string) (*Hold, error) {
	var hold Hold
	found, err := getJSON(ctx, holdKey(operationID), &hold)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errorf(ErrNotFound, "no hold request for %s", operationID)
	}
	return &hold, nil
}

// BalanceOnHold returns the aggregate value currently held from an account.
func (c *TokenContract) BalanceOnHold(ctx contractapi.TransactionContextInterface, account string) (string, error) {
	if err := checkAccount(account); err != nil {
		return "", err
	}
	held, err := getDecimal(ctx, heldValueKey(account))
	if err != nil {
		return "", err
	}
	return held.String(), nil
}

// NetBalanceOf returns spendable plus held value for an account.
func (c *TokenContract) NetBalanceOf(ctx contractapi.TransactionContextInterface, account string) (string, error) {
	if err := checkAccount(account); err != nil {
		return "", err
	}
	balance, err := getDecimal(ctx, balanceKey(account))
	if err != nil {
		return "", err
	}
	held, err := getDecimal(ctx, heldValueKey(account))
	if err != nil {
		return "", err
	}
	return balance.Add(held).String(), nil
}

// TotalSupplyOnHold returns the global held-value aggregate.
func (c *TokenContract) TotalSupplyOnHold(ctx contractapi.TransactionContextInterface) (string, error) {
	held, err := getDecimal(ctx, totalHoldKey)
	if err != nil {
		return "", err
	}
	return held.String(), nil
}

func holdExpired(ctx contractapi.TransactionContextInterface, hold *Hold) (bool, error) {
	exp, err := parseExpiration(hold.Expiration)
	if err != nil {
		return false, err
	}
	if exp == 0 {
		return false, nil
	}
	now, err := txTime(ctx)
	if err != nil {
		return false, err
	}
	return now.Unix() > exp, nil
}

func (c *TokenContract) AuthorizeHoldOperator(ctx contractapi.TransactionContextInterface, operator string) (bool, error) {
	if err := authorizeOperator(ctx, capHold, operator); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TokenContract) RevokeHoldOperator(ctx contractapi.TransactionContextInterface, operator string) (bool, error) {
	if err := revokeOperator(ctx, capHold, operator); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TokenContract) IsHoldOperatorFor(ctx contractapi.TransactionContextInterface, operator, from string) (string, error) {
	if err := checkAccount(operator); err != nil {
		return "", err
	}
	if err := checkAccount(from); err != nil {
		return "", err
	}
	return operatorFlag(ctx, capHold, from, operator)
}
