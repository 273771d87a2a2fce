package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/nikospd/fabric-tokens-cc/pkg/common"
	"github.com/nikospd/fabric-tokens-cc/pkg/common/api"
	"github.com/nikospd/fabric-tokens-cc/pkg/common/db"
	"github.com/nikospd/fabric-tokens-cc/pkg/common/migrations"
	"github.com/nikospd/fabric-tokens-cc/pkg/fabricclient"
	"github.com/nikospd/fabric-tokens-cc/services/token-gateway/models"
)

// Service is the REST facade over the emoney chaincode. Every submitted
// operation is journaled in Postgres so reads do not need to hit the peers.
type Service struct {
	fabric *fabricclient.Client
	db     *sql.DB
}

func (s *Service) recordOperation(opID, kind, account, counterpart, value string) {
	_, err := s.db.Exec(`
		INSERT INTO gateway_db.operations (operation_id, kind, account, counterpart, value, status)
		VALUES ($1, $2, $3, $4, $5, 'Pending')`,
		opID, kind, account, counterpart, value)
	if err != nil {
		log.Printf("failed to journal operation %s: %v", opID, err)
	}
}

func (s *Service) markOperation(opID, status, detail string) {
	_, err := s.db.Exec(`
		UPDATE gateway_db.operations
		SET status = $1, detail = $2, updated_at = CURRENT_TIMESTAMP
		WHERE operation_id = $3`,
		status, detail, opID)
	if err != nil {
		log.Printf("failed to update operation %s: %v", opID, err)
	}
}

// submit sends a chaincode transaction and translates its result. Refusals
// come back as the string "false" with no error; transactions that return a
// bare error yield an empty payload on success.
func (s *Service) submit(w http.ResponseWriter, opID, fn string, args ...string) {
	result, err := s.fabric.SubmitTransaction(fn, args...)
	if err != nil {
		log.Printf("%s failed for %s: %v", fn, opID, err)
		if opID != "" {
			s.markOperation(opID, "Failed", err.Error())
		}
		api.WriteError(w, http.StatusUnprocessableEntity, "LEDGER_REJECTED", err.Error(), opID)
		return
	}
	accepted := string(result) != "false"
	if opID != "" {
		if accepted {
			s.markOperation(opID, "Confirmed", "")
		} else {
			s.markOperation(opID, "Refused", fn+" refused by ledger")
		}
	}
	if !accepted {
		api.WriteError(w, http.StatusConflict, "LEDGER_REFUSED", fn+" refused by ledger", opID)
		return
	}
	api.WriteSuccess(w, http.StatusOK, api.OperationResponse{OperationID: opID, Accepted: true})
}

// evaluate runs a read-only chaincode query and relays the raw JSON payload.
func (s *Service) evaluate(w http.ResponseWriter, fn string, args ...string) {
	result, err := s.fabric.EvaluateTransaction(fn, args...)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", "")
		return false
	}
	return true
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *Service) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if !decode(w, r, &req) {
		return
	}
	opID := uuid.NewString()
	s.recordOperation(opID, "transfer", "", req.To, req.Value)
	s.submit(w, opID, "Transfer", req.To, req.Value)
}

func (s *Service) TransferFromHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TransferFromRequest
	if !decode(w, r, &req) {
		return
	}
	opID := uuid.NewString()
	s.recordOperation(opID, "transferFrom", req.Owner, "", req.Value)
	s.submit(w, opID, "TransferFrom", req.Owner, req.Value)
}

func (s *Service) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ApproveRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, "", "Approve", req.Spender, req.Value)
}

func (s *Service) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	s.evaluate(w, "GetBalanceOf", mux.Vars(r)["account"])
}

func (s *Service) NetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	s.evaluate(w, "NetBalanceOf", mux.Vars(r)["account"])
}

func (s *Service) HeldBalanceHandler(w http.ResponseWriter, r *http.Request) {
	s.evaluate(w, "BalanceOnHold", mux.Vars(r)["account"])
}

func (s *Service) AllowanceHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.evaluate(w, "Allowance", vars["owner"], vars["spender"])
}

func (s *Service) HoldHandler(w http.ResponseWriter, r *http.Request) {
	var req models.HoldRequest
	if !decode(w, r, &req) {
		return
	}
	opID := orNewID(req.OperationID)
	s.recordOperation(opID, "hold", "", req.To, req.Value)
	s.submit(w, opID, "Hold", opID, req.To, req.Notary, req.Value, req.Expiration)
}

func (s *Service) ExecuteHoldHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ExecuteHoldRequest
	if !decode(w, r, &req) {
		return
	}
	opID := mux.Vars(r)["id"]
	s.submit(w, opID, "ExecuteHold", opID, req.Value)
}

func (s *Service) ReleaseHoldHandler(w http.ResponseWriter, r *http.Request) {
	opID := mux.Vars(r)["id"]
	s.submit(w, opID, "ReleaseHold", opID)
}

func (s *Service) RenewHoldHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RenewHoldRequest
	if !decode(w, r, &req) {
		return
	}
	opID := mux.Vars(r)["id"]
	s.submit(w, opID, "RenewHold", opID, req.Expiration)
}

func (s *Service) GetHoldHandler(w http.ResponseWriter, r *http.Request) {
	s.evaluate(w, "RetrieveHoldData", mux.Vars(r)["id"])
}

func (s *Service) OrderTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ClearableTransferRequest
	if !decode(w, r, &req) {
		return
	}
	opID := orNewID(req.OperationID)
	s.recordOperation(opID, "clearable", "", req.To, req.Value)
	s.submit(w, opID, "OrderTransfer", opID, req.To, req.Value)
}

func (s *Service) ClearableActionHandler(fn string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opID := mux.Vars(r)["id"]
		if fn == "RejectClearableTransfer" {
			var req models.ReasonRequest
			if !decode(w, r, &req) {
				return
			}
			s.submit(w, opID, fn, opID, req.Reason)
			return
		}
		s.submit(w, opID, fn, opID)
	}
}

func (s *Service) GetClearableHandler(w http.ResponseWriter, r *http.Request) {
	s.evaluate(w, "RetrieveClearableTransferData", mux.Vars(r)["id"])
}

func (s *Service) OrderFundHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FundOrderRequest
	if !decode(w, r, &req) {
		return
	}
	opID := orNewID(req.OperationID)
	s.recordOperation(opID, "fund", "", "", req.Value)
	s.submit(w, opID, "OrderFund", opID, req.Value, req.Instructions)
}

func (s *Service) FundActionHandler(fn string, withReason bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opID := mux.Vars(r)["id"]
		if withReason {
			var req models.ReasonRequest
			if !decode(w, r, &req) {
				return
			}
			s.submit(w, opID, fn, opID, req.Reason)
			return
		}
		s.submit(w, opID, fn, opID)
	}
}

func (s *Service) GetFundHandler(w http.ResponseWriter, r *http.Request) {
	s.evaluate(w, "RetrieveFundData", mux.Vars(r)["id"])
}

func (s *Service) OrderPayoutHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PayoutOrderRequest
	if !decode(w, r, &req) {
		return
	}
	opID := orNewID(req.OperationID)
	s.recordOperation(opID, "payout", "", "", req.Value)
	s.submit(w, opID, "OrderPayout", opID, req.Value, req.Instructions)
}

func (s *Service) GetPayoutHandler(w http.ResponseWriter, r *http.Request) {
	s.evaluate(w, "RetrievePayoutData", mux.Vars(r)["id"])
}

func (s *Service) TokenInfoHandler(w http.ResponseWriter, r *http.Request) {
	name, err := s.fabric.EvaluateTransaction("GetTokenName")
	if err != nil {
		api.WriteError(w, http.StatusBadGateway, "LEDGER_UNAVAILABLE", err.Error(), "")
		return
	}
	symbol, _ := s.fabric.EvaluateTransaction("GetTokenSymbol")
	supply, _ := s.fabric.EvaluateTransaction("GetTotalSupply")
	held, _ := s.fabric.EvaluateTransaction("TotalSupplyOnHold")
	api.WriteSuccess(w, http.StatusOK, map[string]string{
		"name":                 string(name),
		"symbol":               string(symbol),
		"total_supply":         string(supply),
		"total_supply_on_hold": string(held),
	})
}

func (s *Service) OperationsHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(`
		SELECT operation_id, kind, account, COALESCE(counterpart, ''), value, status, COALESCE(detail, ''), created_at, updated_at
		FROM gateway_db.operations ORDER BY created_at DESC LIMIT 50`)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "failed to fetch operations", "")
		return
	}
	defer rows.Close()

	var history []models.Operation
	for rows.Next() {
		var op models.Operation
		if err := rows.Scan(&op.OperationID, &op.Kind, &op.Account, &op.Counterpart, &op.Value, &op.Status, &op.Detail, &op.CreatedAt, &op.UpdatedAt); err == nil {
			history = append(history, op)
		}
	}
	api.WriteSuccess(w, http.StatusOK, history)
}

func main() {
	cfg := common.LoadConfig()

	database, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	if err := migrations.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	fabric, err := fabricclient.NewClient(
		cfg.FabricConfig,
		cfg.Channel,
		cfg.Chaincode,
		cfg.MSP,
		cfg.CertPath,
		cfg.KeyPath,
	)
	if err != nil {
		log.Fatalf("Failed to connect to Fabric: %v", err)
	}
	defer fabric.Close()

	svc := &Service{fabric: fabric, db: database}

	r := mux.NewRouter()
	r.Use(common.AuthMiddleware(cfg.JWTSecret))

	r.HandleFunc("/token", svc.TokenInfoHandler).Methods("GET")
	r.HandleFunc("/operations", svc.OperationsHandler).Methods("GET")

	r.HandleFunc("/transfers", svc.TransferHandler).Methods("POST")
	r.HandleFunc("/transfers/from", svc.TransferFromHandler).Methods("POST")
	r.HandleFunc("/approvals", svc.ApproveHandler).Methods("POST")
	r.HandleFunc("/balances/{account}", svc.BalanceHandler).Methods("GET")
	r.HandleFunc("/balances/{account}/net", svc.NetBalanceHandler).Methods("GET")
	r.HandleFunc("/balances/{account}/held", svc.HeldBalanceHandler).Methods("GET")
	r.HandleFunc("/allowances/{owner}/{spender}", svc.AllowanceHandler).Methods("GET")

	r.HandleFunc("/holds", svc.HoldHandler).Methods("POST")
	r.HandleFunc("/holds/{id}", svc.GetHoldHandler).Methods("GET")
	r.HandleFunc("/holds/{id}/execute", svc.ExecuteHoldHandler).Methods("POST")
	r.HandleFunc("/holds/{id}/release", svc.ReleaseHoldHandler).Methods("POST")
	r.HandleFunc("/holds/{id}/renew", svc.RenewHoldHandler).Methods("POST")

	r.HandleFunc("/clearables", svc.OrderTransferHandler).Methods("POST")
	r.HandleFunc("/clearables/{id}", svc.GetClearableHandler).Methods("GET")
	r.HandleFunc("/clearables/{id}/process", svc.ClearableActionHandler("ProcessClearableTransfer")).Methods("POST")
	r.HandleFunc("/clearables/{id}/execute", svc.ClearableActionHandler("ExecuteClearableTransfer")).Methods("POST")
	r.HandleFunc("/clearables/{id}/reject", svc.ClearableActionHandler("RejectClearableTransfer")).Methods("POST")
	r.HandleFunc("/clearables/{id}/cancel", svc.ClearableActionHandler("CancelTransfer")).Methods("POST")

	r.HandleFunc("/fund-orders", svc.OrderFundHandler).Methods("POST")
	r.HandleFunc("/fund-orders/{id}", svc.GetFundHandler).Methods("GET")
	r.HandleFunc("/fund-orders/{id}/process", svc.FundActionHandler("ProcessFund", false)).Methods("POST")
	r.HandleFunc("/fund-orders/{id}/execute", svc.FundActionHandler("ExecuteFund", false)).Methods("POST")
	r.HandleFunc("/fund-orders/{id}/reject", svc.FundActionHandler("RejectFund", true)).Methods("POST")
	r.HandleFunc("/fund-orders/{id}/cancel", svc.FundActionHandler("CancelFund", false)).Methods("POST")

	r.HandleFunc("/payout-orders", svc.OrderPayoutHandler).Methods("POST")
	r.HandleFunc("/payout-orders/{id}", svc.GetPayoutHandler).Methods("GET")
	r.HandleFunc("/payout-orders/{id}/process", svc.FundActionHandler("ProcessPayout", false)).Methods("POST")
	r.HandleFunc("/payout-orders/{id}/suspense", svc.FundActionHandler("PutFundsInSuspenseInPayout", false)).Methods("POST")
	r.HandleFunc("/payout-orders/{id}/execute", svc.FundActionHandler("ExecutePayout", false)).Methods("POST")
	r.HandleFunc("/payout-orders/{id}/reject", svc.FundActionHandler("RejectPayout", true)).Methods("POST")
	r.HandleFunc("/payout-orders/{id}/cancel", svc.FundActionHandler("CancelPayout", true)).Methods("POST")

	log.Printf("Token Gateway running on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
