package token

import (
	"encoding/json"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/shopspring/decimal"
)

// transferEvent is emitted on every balance movement between two accounts.
type transferEvent struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

// GetBalanceOf returns the spendable balance of an account, "0" if the
// account has never been credited.
func (c *TokenContract) GetBalanceOf(ctx contractapi.TransactionContextInterface, account string) (string, error) {
	if err := checkAccount(account); err != nil {
		return "", err
	}
	balance, err := getDecimal(ctx, balanceKey(account))
	if err != nil {
		return "", err
	}
	return balance.String(), nil
}

// Transfer moves value from the caller to the receiver.
func (c *TokenContract) Transfer(ctx contractapi.TransactionContextInterface, to string, value string) error {
	if err := checkAccount(to); err != nil {
		return err
	}
	amount, err := parseAmount(value)
	if err != nil {
		return err
	}
	sender, err := caller(ctx)
	if err != nil {
		return err
	}

	senderBalance, err := getDecimal(ctx, balanceKey(sender))
	if err != nil {
		return err
	}
	receiverBalance, err := getDecimal(ctx, balanceKey(to))
	if err != nil {
		return err
	}
	if amount.GreaterThan(senderBalance) {
		return errorf(ErrInsufficientFunds, "%s holds %s, cannot transfer %s", sender, senderBalance, amount)
	}

	if err := putDecimal(ctx, balanceKey(sender), senderBalance.Sub(amount)); err != nil {
		return err
	}
	if err := putDecimal(ctx, balanceKey(to), receiverBalance.Add(amount)); err != nil {
		return err
	}

	payload, _ := json.Marshal(transferEvent{From: sender, To: to, Value: amount.String()})
	return ctx.GetStub().SetEvent("Transfer", payload)
}

// Approve overwrites the allowance granted by the caller to the spender.
func (c *TokenContract) Approve(ctx contractapi.TransactionContextInterface, spender string, value string) error {
	if err := checkAccount(spender); err != nil {
		return err
	}
	amount, err := parseAmount(value)
	if err != nil {
		return err
	}
	owner, err := caller(ctx)
	if err != nil {
		return err
	}
	return putDecimal(ctx, allowanceKey(owner, spender), amount)
}

// Allowance returns the remaining amount the spender may draw from the owner.
func (c *TokenContract) Allowance(ctx contractapi.TransactionContextInterface, owner, spender string) (string, error) {
	if err := checkAccount(owner); err != nil {
		return "", err
	}
	if err := checkAccount(spender); err != nil {
		return "", err
	}
	value, err := getDecimal(ctx, allowanceKey(owner, spender))
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// TransferFrom moves value from the owner to the caller, consuming the
// caller's allowance.
func (c *TokenContract) TransferFrom(ctx contractapi.TransactionContextInterface, owner string, value string) error {
	if err := checkAccount(owner); err != nil {
		return err
	}
	amount, err := parseAmount(value)
	if err != nil {
		return err
	}
	spender, err := caller(ctx)
	if err != nil {
		return err
	}

	allowance, err := getDecimal(ctx, allowanceKey(owner, spender))
	if err != nil {
		return err
	}
	if amount.GreaterThan(allowance) {
		return errorf(ErrInsufficientAllowance, "%s may spend %s on behalf of %s, requested %s", spender, allowance, owner, amount)
	}

	ownerBalance, err := getDecimal(ctx, balanceKey(owner))
	if err != nil {
		return err
	}
	if amount.GreaterThan(ownerBalance) {
		return errorf(ErrInsufficientFunds, "%s holds %s, cannot transfer %s", owner, ownerBalance, amount)
	}
	spenderBalance, err := getDecimal(ctx, balanceKey(spender))
	if err != nil {
		return err
	}

	if err := putDecimal(ctx, balanceKey(owner), ownerBalance.Sub(amount)); err != nil {
		return err
	}
	if err := putDecimal(ctx, balanceKey(spender), spenderBalance.Add(amount)); err != nil {
		return err
	}
	if err := putDecimal(ctx, allowanceKey(owner, spender), allowance.Sub(amount)); err != nil {
		return err
	}

	payload, _ := json.Marshal(transferEvent{From: owner, To: spender, Value: amount.String()})
	return ctx.GetStub().SetEvent("Transfer", payload)
}

// burn removes value from an account and shrinks the total supply by the same
// amount. Internal: only the payout workflow burns, from suspense accounts.
func burn(ctx contractapi.TransactionContextInterface, account string, amount decimal.Decimal) error {
	balance, err := getDecimal(ctx, balanceKey(account))
	if err != nil {
		return err
	}
	if amount.GreaterThan(balance) {
		return errorf(ErrInsufficientFunds, "%s holds %s, cannot burn %s", account, balance, amount)
	}
	if err := putDecimal(ctx, balanceKey(account), balance.Sub(amount)); err != nil {
		return err
	}
	return adjustTotalSupply(ctx, amount.Neg())
}

// credit adds value to an account balance.
func credit(ctx contractapi.TransactionContextInterface, account string, amount decimal.Decimal) error {
	balance, err := getDecimal(ctx, balanceKey(account))
	if err != nil {
		return err
	}
	return putDecimal(ctx, balanceKey(account), balance.Add(amount))
}
