// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mattermost/ledgergw/model"
)

func handleGetTransaction(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	transactionID := vars["id"]
	c.Logger = c.Logger.WithField("transaction", transactionID)

	raw, err := c.Ledger.Query(r.Context(), transactionID)
	if err != nil {
		c.Logger.WithError(err).Error("failed to query transaction")
		outputError(c, w, err)
		return
	}

	response := model.QueryResponse{Response: raw}
	response.Result, err = c.Parser.ParseQueryResult(raw)
	if err != nil {
		c.Logger.WithError(err).Warn("ledger returned an unparseable transaction")
		response.Unparseable = true
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, response)
}

func handleCreateTransaction(c *Context, w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	request, err := model.NewTransactionRequestFromReader(r.Body)
	if err != nil {
		c.Logger.WithError(err).Error("failed to unmarshal JSON from request")
		outputError(c, w, model.NewLedgerError(model.ErrorKindParse, "decode request", err))
		return
	}

	var submission *model.Submission
	if c.Store != nil {
		submission = model.NewSubmission(request)
		c.Logger = c.Logger.WithField("submission", submission.ID)
	}

	raw, err := c.Ledger.Submit(r.Context(), request)
	if err != nil {
		c.Logger.WithError(err).Error("failed to submit transaction")
		if submission != nil {
			submission.Error = err.Error()
			journal(c, submission)
		}
		outputError(c, w, err)
		return
	}

	response := model.SubmitResponse{Response: raw}
	response.ID, err = c.Parser.ParseSubmittedID(raw)
	if err != nil {
		c.Logger.WithError(err).Warn("ledger response carries no transaction ID")
		response.Unparseable = true
	}

	if submission != nil {
		submission.TransactionID = response.ID
		submission.Response = raw
		journal(c, submission)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, response)

	c.Logger.Debugf("Submitted transaction %s", response.ID)
}

// journal records the submission. The ledger has already been written to
// by the time this runs, so a failure here is logged and not returned.
func journal(c *Context, submission *model.Submission) {
	err := c.Store.CreateSubmission(submission)
	if err != nil {
		c.Logger.WithError(err).Error("failed to journal the submission")
	}
}
