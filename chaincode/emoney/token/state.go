package token

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/shopspring/decimal"
)

// Typed accessors over the world state. Numbers are persisted as plain
// decimal strings and delegation flags as "true"/"false", matching the
// value encoding of the deployed chaincodes.

func caller(ctx contractapi.TransactionContextInterface) (string, error) {
	id, err := ctx.GetClientIdentity().GetMSPID()
	if err != nil {
		return "", errorf(ErrInvalidAccount, "resolving caller identity: %v", err)
	}
	return id, nil
}

// checkAccount rejects identifiers that would corrupt the flat key space:
// empty ids, whitespace, dashes (the allowance separator) and the global
// configuration singletons.
func checkAccount(account string) error {
	if account == "" || strings.ContainsAny(account, " \t\r\n-") {
		return errorf(ErrInvalidAccount, "malformed account id %q", account)
	}
	switch account {
	case ownerKey, nameKey, symbolKey, totalSupplyKey, clearingAgentKey, totalHoldKey:
		return errorf(ErrInvalidAccount, "account id %q is reserved", account)
	}
	return nil
}

// parseAmount parses a strictly positive decimal amount.
func parseAmount(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errorf(ErrInvalidAmount, "malformed amount %q", value)
	}
	if !d.IsPositive() {
		return decimal.Zero, errorf(ErrInvalidAmount, "amount must be greater than zero, got %s", d)
	}
	return d, nil
}

func getDecimal(ctx contractapi.TransactionContextInterface, key string) (decimal.Decimal, error) {
	raw, err := ctx.GetStub().GetState(key)
	if err != nil {
		return decimal.Zero, errorf(ErrNotFound, "reading %s: %v", key, err)
	}
	if len(raw) == 0 {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero, errorf(ErrInvalidAmount, "state %s holds non-numeric value %q", key, raw)
	}
	return d, nil
}

func putDecimal(ctx contractapi.TransactionContextInterface, key string, d decimal.Decimal) error {
	return ctx.GetStub().PutState(key, []byte(d.String()))
}

func getString(ctx contractapi.TransactionContextInterface, key string) (string, error) {
	raw, err := ctx.GetStub().GetState(key)
	if err != nil {
		return "", errorf(ErrNotFound, "reading %s: %v", key, err)
	}
	return string(raw), nil
}

func putString(ctx contractapi.TransactionContextInterface, key, value string) error {
	return ctx.GetStub().PutState(key, []byte(value))
}

// getJSON unmarshals the record under key into v. The second return is false
// when the key is absent.
func getJSON(ctx contractapi.TransactionContextInterface, key string, v interface{}) (bool, error) {
	raw, err := ctx.GetStub().GetState(key)
	if err != nil {
		return false, errorf(ErrNotFound, "reading %s: %v", key, err)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errorf(ErrInvalidState, "corrupt record under %s: %v", key, err)
	}
	return true, nil
}

func putJSON(ctx contractapi.TransactionContextInterface, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errorf(ErrInvalidState, "marshalling record for %s: %v", key, err)
	}
	return ctx.GetStub().PutState(key, raw)
}

func stateExists(ctx contractapi.TransactionContextInterface, key string) (bool, error) {
	raw, err := ctx.GetStub().GetState(key)
	if err != nil {
		return false, errorf(ErrNotFound, "reading %s: %v", key, err)
	}
	return len(raw) > 0, nil
}

// txTime returns the transaction timestamp so expiry decisions are identical
// on every endorsing peer.
func txTime(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, errorf(ErrInvalidState, "transaction timestamp unavailable: %v", err)
	}
	return time.Unix(ts.GetSeconds(), int64(ts.GetNanos())), nil
}

// parseExpiration validates an epoch-seconds expiration where "0" means the
// hold never expires.
func parseExpiration(value string) (int64, error) {
	exp, err := strconv.ParseInt(value, 10, 64)
	if err != nil || exp < 0 {
		return 0, errorf(ErrInvalidArgument, "malformed expiration %q", value)
	}
	return exp, nil
}
