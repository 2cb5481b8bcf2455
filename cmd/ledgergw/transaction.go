// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mattermost/ledgergw/model"
)

const (
	serverFlag        = "server"
	transactionIDFlag = "id"
	submissionIDFlag  = "submission"
	fromFlag          = "from"
	toFlag            = "to"
	amountFlag        = "amount"
	statusFlag        = "status"

	defaultServer = "http://localhost:8082"
)

func init() {
	transactionCmd.PersistentFlags().String(serverFlag, defaultServer, "The ledger gateway to communicate with")

	getTransactionCmd.Flags().String(transactionIDFlag, "", "ID of the transaction to read")
	getTransactionCmd.MarkFlagRequired(transactionIDFlag)

	createTransactionCmd.Flags().String(fromFlag, "", "Sending account")
	createTransactionCmd.Flags().String(toFlag, "", "Receiving account")
	createTransactionCmd.Flags().String(amountFlag, "", "Amount transferred")
	createTransactionCmd.Flags().String(statusFlag, "", "Status recorded with the transaction")

	transactionCmd.AddCommand(getTransactionCmd)
	transactionCmd.AddCommand(createTransactionCmd)

	submissionCmd.PersistentFlags().String(serverFlag, defaultServer, "The ledger gateway to communicate with")
	getSubmissionCmd.Flags().String(submissionIDFlag, "", "ID of the submission to fetch")
	getSubmissionCmd.MarkFlagRequired(submissionIDFlag)

	submissionCmd.AddCommand(getSubmissionCmd)
	submissionCmd.AddCommand(listSubmissionsCmd)
}

var transactionCmd = &cobra.Command{
	Use:   "transaction",
	Short: "Read and write transactions through the ledger gateway",
}

var getTransactionCmd = &cobra.Command{
	Use:   "get",
	Short: "Read a transaction from the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		server, _ := cmd.Flags().GetString(serverFlag)
		transactionID, _ := cmd.Flags().GetString(transactionIDFlag)

		response, err := model.NewClient(server).GetTransaction(transactionID)
		if err != nil {
			return err
		}

		return printJSON(response)
	},
}

var createTransactionCmd = &cobra.Command{
	Use:   "create",
	Short: "Submit a transaction to the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		server, _ := cmd.Flags().GetString(serverFlag)

		request := &model.TransactionRequest{}
		request.From, _ = cmd.Flags().GetString(fromFlag)
		request.To, _ = cmd.Flags().GetString(toFlag)
		request.Amount, _ = cmd.Flags().GetString(amountFlag)
		request.Status, _ = cmd.Flags().GetString(statusFlag)

		response, err := model.NewClient(server).CreateTransaction(request)
		if err != nil {
			return err
		}

		return printJSON(response)
	},
}

var submissionCmd = &cobra.Command{
	Use:   "submission",
	Short: "Inspect the submission journal of the ledger gateway",
}

var getSubmissionCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch a journalled submission by ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		server, _ := cmd.Flags().GetString(serverFlag)
		submissionID, _ := cmd.Flags().GetString(submissionIDFlag)

		status, err := model.NewClient(server).GetSubmission(submissionID)
		if err != nil {
			return err
		}
		if status == nil {
			return errors.Errorf("submission %s not found", submissionID)
		}

		return printJSON(status)
	},
}

var listSubmissionsCmd = &cobra.Command{
	Use:   "list",
	Short: "List journalled submissions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		server, _ := cmd.Flags().GetString(serverFlag)

		statuses, err := model.NewClient(server).GetSubmissions()
		if err != nil {
			return err
		}

		if len(statuses) == 0 {
			fmt.Println("No submissions found")
			return nil
		}

		return printJSON(statuses)
	},
}
