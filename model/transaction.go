// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// TransactionIDLength is the length of the identifier the ledger embeds
// in the response to a submitted transaction.
const TransactionIDLength = 36

// TransactionRequest is the body of a request to create a transaction.
//
// The fields are not validated; they are handed to the ledger as opaque
// positional arguments.
type TransactionRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Status string `json:"status"`
}

// Args returns the request fields in the order the write function expects them.
func (r *TransactionRequest) Args() []string {
	return []string{r.From, r.To, r.Amount, r.Status}
}

// TransactionRecord is a transaction as read back from the ledger. Any
// field may be missing when the ledger output could not be parsed.
type TransactionRecord struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Status    string `json:"status,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// IsEmpty reports whether no field of the record is populated.
func (r TransactionRecord) IsEmpty() bool {
	return r == TransactionRecord{}
}

// QueryResponse is returned by GET /api/transactions/{id}.
type QueryResponse struct {
	Response    string            `json:"response"`
	Result      TransactionRecord `json:"result"`
	Unparseable bool              `json:"unparseable,omitempty"`
}

// SubmitResponse is returned by POST /api/transactions.
type SubmitResponse struct {
	Response    string `json:"response"`
	ID          string `json:"id,omitempty"`
	Unparseable bool   `json:"unparseable,omitempty"`
}

func NewTransactionRequestFromReader(reader io.Reader) (*TransactionRequest, error) {
	var request TransactionRequest
	err := json.NewDecoder(reader).Decode(&request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode transaction request")
	}
	return &request, nil
}

func NewQueryResponseFromReader(reader io.Reader) (*QueryResponse, error) {
	var response QueryResponse
	err := json.NewDecoder(reader).Decode(&response)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode query response")
	}
	return &response, nil
}

func NewSubmitResponseFromReader(reader io.Reader) (*SubmitResponse, error) {
	var response SubmitResponse
	err := json.NewDecoder(reader).Decode(&response)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode submit response")
	}
	return &response, nil
}
