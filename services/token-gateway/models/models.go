package models

import "time"

// Operation is one row of the gateway's operations journal. The journal
// mirrors what was submitted to the ledger so that back-office queries do
// not need to hit the peers.
type Operation struct {
	OperationID string    `json:"operation_id"`
	Kind        string    `json:"kind"`
	Account     string    `json:"account"`
	Counterpart string    `json:"counterpart,omitempty"`
	Value       string    `json:"value"`
	Status      string    `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TransferRequest struct {
	To    string `json:"to"`
	Value string `json:"value"`
}

type ApproveRequest struct {
	Spender string `json:"spender"`
	Value   string `json:"value"`
}

type TransferFromRequest struct {
	Owner string `json:"owner"`
	Value string `json:"value"`
}

type HoldRequest struct {
	OperationID string `json:"operation_id,omitempty"`
	To          string `json:"to"`
	Notary      string `json:"notary"`
	Value       string `json:"value"`
	Expiration  string `json:"expiration"`
}

type ExecuteHoldRequest struct {
	Value string `json:"value"`
}

type RenewHoldRequest struct {
	Expiration string `json:"expiration"`
}

type ClearableTransferRequest struct {
	OperationID string `json:"operation_id,omitempty"`
	To          string `json:"to"`
	Value       string `json:"value"`
}

type FundOrderRequest struct {
	OperationID  string `json:"operation_id,omitempty"`
	Value        string `json:"value"`
	Instructions string `json:"instructions"`
}

type PayoutOrderRequest struct {
	OperationID  string `json:"operation_id,omitempty"`
	Value        string `json:"value"`
	Instructions string `json:"instructions"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type OperatorRequest struct {
	Operator string `json:"operator"`
}
