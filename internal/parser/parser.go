// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

// Package parser extracts structured values from the raw text returned by
// the transaction chaincode.
//
// The chaincode does not return a contractual format, so these functions
// scan for fixed markers rather than decode. Callers depend on the Parser
// interface so the scraping can be swapped out once the chaincode returns
// structured payloads.
package parser

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/mattermost/ledgergw/model"
)

const (
	// statusMarker precedes the +-delimited details of a transaction. It
	// matches both `"status":` and the unquoted-key form.
	statusMarker = `status":`
	// detailsTerminator ends the details window.
	detailsTerminator = "}"
	// detailsSeparator splits the details window into fields.
	detailsSeparator = "+"
	// detailsCutset is trimmed from both ends of the details window.
	detailsCutset = "\"{ \t\r\n"
	// idMarker precedes the transaction ID in a submit response.
	idMarker = "id:"

	recordFields = 5
)

// Parser turns raw ledger output into API values.
type Parser interface {
	ParseQueryResult(raw string) (model.TransactionRecord, error)
	ParseSubmittedID(raw string) (string, error)
}

// TextParser is the marker-scanning Parser.
type TextParser struct{}

// NewTextParser returns a Parser backed by ParseQueryResult and ParseSubmittedID.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// ParseQueryResult implements Parser.
func (TextParser) ParseQueryResult(raw string) (model.TransactionRecord, error) {
	return ParseQueryResult(raw)
}

// ParseSubmittedID implements Parser.
func (TextParser) ParseSubmittedID(raw string) (string, error) {
	return ParseSubmittedID(raw)
}

// ParseQueryResult extracts the transaction record from the output of the
// read function.
//
// If the status marker is missing, or the details window is not closed,
// the record is empty. If the window holds fewer than five fields, the
// fields present are assigned. Both cases also return a parse error.
func ParseQueryResult(raw string) (model.TransactionRecord, error) {
	var record model.TransactionRecord

	markerIndex := strings.Index(raw, statusMarker)
	if markerIndex < 0 {
		return record, parseError("parse query result", "status marker not found")
	}

	details := raw[markerIndex+len(statusMarker):]
	endIndex := strings.Index(details, detailsTerminator)
	if endIndex < 0 {
		return record, parseError("parse query result", "status details are not terminated")
	}
	details = strings.Trim(details[:endIndex], detailsCutset)

	fields := strings.Split(details, detailsSeparator)
	targets := []*string{&record.From, &record.To, &record.Amount, &record.Status, &record.Timestamp}
	for i := 0; i < len(fields) && i < len(targets); i++ {
		*targets[i] = fields[i]
	}

	if len(fields) < recordFields {
		return record, parseError("parse query result",
			"expected %d status fields, found %d", recordFields, len(fields))
	}

	return record, nil
}

// ParseSubmittedID extracts the transaction ID from the output of the
// write function: the TransactionIDLength characters following the ID
// marker and any whitespace after it.
func ParseSubmittedID(raw string) (string, error) {
	markerIndex := strings.Index(raw, idMarker)
	if markerIndex < 0 {
		return "", parseError("parse submitted id", "id marker not found")
	}

	rest := strings.TrimLeft(raw[markerIndex+len(idMarker):], " \t")
	if len(rest) < model.TransactionIDLength {
		return "", parseError("parse submitted id",
			"expected %d id characters, found %d", model.TransactionIDLength, len(rest))
	}

	return rest[:model.TransactionIDLength], nil
}

func parseError(op, format string, args ...interface{}) error {
	return model.NewLedgerError(model.ErrorKindParse, op, errors.Errorf(format, args...))
}
