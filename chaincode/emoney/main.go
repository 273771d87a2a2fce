package main

import (
	"log"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/nikospd/fabric-tokens-cc/chaincode/emoney/token"
)

func main() {
	tokenChaincode, err := contractapi.NewChaincode(&token.TokenContract{})
	if err != nil {
		log.Panicf("Error creating e-money chaincode: %v", err)
	}

	if err := tokenChaincode.Start(); err != nil {
		log.Panicf("Error starting e-money chaincode: %v", err)
	}
}
