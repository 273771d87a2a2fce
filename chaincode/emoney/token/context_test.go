package token

import (
	"crypto/x509"
	"testing"
	"time"

	"github.com/golang/protobuf/ptypes"
	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testIdentity satisfies cid.ClientIdentity with a fixed MSP id.
type testIdentity struct {
	mspID string
}

func (i *testIdentity) GetID() (string, error)       { return i.mspID, nil }
func (i *testIdentity) GetMSPID() (string, error)    { return i.mspID, nil }
func (i *testIdentity) GetX509Certificate() (*x509.Certificate, error) {
	return nil, nil
}
func (i *testIdentity) GetAttributeValue(string) (string, bool, error) { return "", false, nil }
func (i *testIdentity) AssertAttributeValue(string, string) error      { return nil }

// testContext wires a shimtest MockStub and a switchable caller identity into
// the contractapi transaction context.
type testContext struct {
	stub     *shimtest.MockStub
	identity *testIdentity
}

func (c *testContext) GetStub() shim.ChaincodeStubInterface { return c.stub }
func (c *testContext) GetClientIdentity() cid.ClientIdentity { return c.identity }

// as switches the caller for subsequent invocations.
func (c *testContext) as(mspID string) *testContext {
	c.identity.mspID = mspID
	return c
}

// at pins the transaction timestamp.
func (c *testContext) at(t *testing.T, instant time.Time) *testContext {
	ts, err := ptypes.TimestampProto(instant)
	require.NoError(t, err)
	c.stub.TxTimestamp = ts
	return c
}

const (
	ownerMSP  = "CentralMSP"
	aliceMSP  = "AliceMSP"
	bobMSP    = "BobMSP"
	notaryMSP = "NotaryMSP"
)

// newTestContext returns a context with an open mock transaction, a pinned
// timestamp and a ledger initialized by ownerMSP (owner balance 12, total
// supply 30, clearing agent = owner).
func newTestContext(t *testing.T) *testContext {
	t.Helper()
	stub := shimtest.NewMockStub("emoney", nil)
	stub.MockTransactionStart("tx1")
	ctx := &testContext{stub: stub, identity: &testIdentity{mspID: ownerMSP}}
	ctx.at(t, time.Unix(1700000000, 0))

	contract := &TokenContract{}
	require.NoError(t, contract.InitLedger(ctx))
	return ctx
}

// fund credits an account directly, bypassing the workflows, so tests can set
// up balances. The total supply is grown to keep the ledger consistent.
func fund(t *testing.T, ctx *testContext, account, value string) {
	t.Helper()
	amount, err := decimal.NewFromString(value)
	require.NoError(t, err)
	balance, err := getDecimal(ctx, balanceKey(account))
	require.NoError(t, err)
	require.NoError(t, putDecimal(ctx, balanceKey(account), balance.Add(amount)))
	require.NoError(t, adjustTotalSupply(ctx, amount))
}

func requireBalance(t *testing.T, ctx *testContext, account, want string) {
	t.Helper()
	contract := &TokenContract{}
	got, err := contract.GetBalanceOf(ctx, account)
	require.NoError(t, err)
	require.Equal(t, want, got, "balance of %s", account)
}

func requireHeld(t *testing.T, ctx *testContext, account, want string) {
	t.Helper()
	contract := &TokenContract{}
	got, err := contract.BalanceOnHold(ctx, account)
	require.NoError(t, err)
	require.Equal(t, want, got, "held value of %s", account)
}

func requireTotalHeld(t *testing.T, ctx *testContext, want string) {
	t.Helper()
	contract := &TokenContract{}
	got, err := contract.TotalSupplyOnHold(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got, "total hold value")
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error was: %v", err)
}
