package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config for E2E tests - assumes the gateway and a Fabric network are
// running locally.
const (
	GatewayURL = "http://localhost:8080"
	jwtSecret  = "super-secret-key-change-me"
)

func TestTransferAndHoldFlow(t *testing.T) {
	// Skip if not in integration mode
	// t.Skip("Skipping E2E test without a running network")

	// 1. Plain transfer
	post(t, "/transfers", map[string]string{
		"to":    "Org2MSP",
		"value": "5",
	})

	// 2. Open a hold with a notary and let the notary execute it
	opID := fmt.Sprintf("hold-%d", time.Now().Unix())
	post(t, "/holds", map[string]string{
		"operation_id": opID,
		"to":           "Org2MSP",
		"notary":       "NotaryMSP",
		"value":        "3",
		"expiration":   "0",
	})
	post(t, "/holds/"+opID+"/execute", map[string]string{"value": "3"})

	// 3. Verify the net balance moved
	get(t, "/balances/Org2MSP/net")
}

func TestFundAndPayoutFlow(t *testing.T) {
	// t.Skip("Skipping E2E test without a running network")

	fundID := fmt.Sprintf("fund-%d", time.Now().Unix())
	post(t, "/fund-orders", map[string]string{
		"operation_id": fundID,
		"value":        "100",
		"instructions": "SEPA from IBAN GR99 1234",
	})
	post(t, "/fund-orders/"+fundID+"/process", map[string]string{})
	post(t, "/fund-orders/"+fundID+"/execute", map[string]string{})

	payoutID := fmt.Sprintf("payout-%d", time.Now().Unix())
	post(t, "/payout-orders", map[string]string{
		"operation_id": payoutID,
		"value":        "40",
		"instructions": "SEPA to IBAN GR99 1234",
	})
	post(t, "/payout-orders/"+payoutID+"/process", map[string]string{})
	post(t, "/payout-orders/"+payoutID+"/suspense", map[string]string{})
	post(t, "/payout-orders/"+payoutID+"/execute", map[string]string{})

	get(t, "/token")
}

func post(t *testing.T, path string, payload map[string]string) {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, GatewayURL+path, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearerToken(t))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Logf("Failed to POST %s: %v", path, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Logf("POST %s failed with status: %d", path, resp.StatusCode)
	}
}

func get(t *testing.T, path string) {
	req, err := http.NewRequest(http.MethodGet, GatewayURL+path, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken(t))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Logf("Failed to GET %s: %v", path, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Logf("GET %s failed with status: %d", path, resp.StatusCode)
	}
}

func bearerToken(t *testing.T) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "e2e",
		"role": "operator",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}
