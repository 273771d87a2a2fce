package token

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// capability scopes an operator delegation to one workflow.
type capability int

const (
	capHold capability = iota
	capClearTransfer
	capFund
	capPayout
)

func (c capability) String() string {
	switch c {
	case capHold:
		return "hold"
	case capClearTransfer:
		return "clearable transfer"
	case capFund:
		return "fund"
	case capPayout:
		return "payout"
	}
	return "unknown"
}

// flagKey builds the delegation flag key for (owner, operator). The layouts
// differ per capability for compatibility with the deployed chaincodes.
func (c capability) flagKey(owner, operator string) string {
	switch c {
	case capHold:
		return operator + "MayHold" + owner
	case capClearTransfer:
		return operator + "MayClearTransfer" + owner
	case capFund:
		return owner + "Fund" + operator
	case capPayout:
		return owner + "Payout" + operator
	}
	return ""
}

// authorizeOperator grants the capability from the caller to the operator.
// Granting a flag that is already "true" is a hard failure.
func authorizeOperator(ctx contractapi.TransactionContextInterface, cap capability, operator string) error {
	if err := checkAccount(operator); err != nil {
		return err
	}
	owner, err := caller(ctx)
	if err != nil {
		return err
	}
	key := cap.flagKey(owner, operator)
	flag, err := getString(ctx, key)
	if err != nil {
		return err
	}
	if flag == "true" {
		return errorf(ErrAlreadySet, "%s is already authorized to %s for %s", operator, cap, owner)
	}
	return putString(ctx, key, "true")
}

// revokeOperator withdraws the capability. Revoking a flag that is already
// "false" is a hard failure; a never-set flag may be revoked.
func revokeOperator(ctx contractapi.TransactionContextInterface, cap capability, operator string) error {
	if err := checkAccount(operator); err != nil {
		return err
	}
	owner, err := caller(ctx)
	if err != nil {
		return err
	}
	key := cap.flagKey(owner, operator)
	flag, err := getString(ctx, key)
	if err != nil {
		return err
	}
	if flag == "false" {
		return errorf(ErrAlreadyUnset, "%s is already unauthorized to %s for %s", operator, cap, owner)
	}
	return putString(ctx, key, "false")
}

// operatorFlag returns the raw stored flag. A flag that was never set, or
// holds anything other than "true"/"false", is a hard failure.
func operatorFlag(ctx contractapi.TransactionContextInterface, cap capability, owner, operator string) (string, error) {
	flag, err := getString(ctx, cap.flagKey(owner, operator))
	if err != nil {
		return "", err
	}
	if flag != "true" && flag != "false" {
		return "", errorf(ErrNotFound, "no %s delegation flag for (%s, %s)", cap, owner, operator)
	}
	return flag, nil
}

// hasCapability is the lenient check the workflows use: an unset flag counts
// as false.
func hasCapability(ctx contractapi.TransactionContextInterface, cap capability, owner, operator string) (bool, error) {
	flag, err := getString(ctx, cap.flagKey(owner, operator))
	if err != nil {
		return false, err
	}
	return flag == "true", nil
}
