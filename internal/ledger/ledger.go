// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

// Package ledger invokes chaincode transactions on the ledger network.
//
// Contract and Transaction are the narrow capability the rest of the
// service needs from the Fabric gateway SDK; Gateway is its only
// production implementation.
package ledger

// Contract is a handle to a deployed chaincode.
type Contract interface {
	// CreateTransaction creates a new transaction context for the named
	// chaincode function.
	CreateTransaction(name string) (Transaction, error)
}

// Transaction is a single invocation of a chaincode function.
type Transaction interface {
	// Submit endorses the transaction and sends it for ordering,
	// returning the chaincode response.
	Submit(args ...string) ([]byte, error)
	// Evaluate runs the transaction on a peer without recording it.
	Evaluate(args ...string) ([]byte, error)
}
