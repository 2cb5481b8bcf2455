// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package ledger

import (
	"context"
	"testing"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/multi"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/status"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	grpcCodes "google.golang.org/grpc/codes"

	"github.com/mattermost/ledgergw/model"
)

func TestClassify(t *testing.T) {
	var testCases = []struct {
		testName string
		err      error
		kind     model.ErrorKind
	}{
		{
			"mvcc conflict from the event service",
			status.New(status.EventServerStatus, int32(pb.TxValidationCode_MVCC_READ_CONFLICT), "invalid", nil),
			model.ErrorKindConflict,
		},
		{
			"phantom read from the endorser client",
			errors.Wrap(status.New(status.EndorserClientStatus, int32(pb.TxValidationCode_PHANTOM_READ_CONFLICT), "invalid", nil), "Failed to submit"),
			model.ErrorKindConflict,
		},
		{
			"conflict only in the message",
			errors.New("transaction 1234 failed with code MVCC_READ_CONFLICT"),
			model.ErrorKindConflict,
		},
		{
			"sdk timeout",
			errors.Wrap(status.New(status.ClientStatus, status.Timeout.ToInt32(), "request timed out", nil), "Failed to submit"),
			model.ErrorKindTimeout,
		},
		{
			"grpc deadline",
			status.New(status.GRPCTransportStatus, int32(grpcCodes.DeadlineExceeded), "deadline", nil),
			model.ErrorKindTimeout,
		},
		{
			"context deadline",
			errors.Wrap(context.DeadlineExceeded, "transaction did not complete"),
			model.ErrorKindTimeout,
		},
		{
			"grpc unavailable",
			status.New(status.GRPCTransportStatus, int32(grpcCodes.Unavailable), "unavailable", nil),
			model.ErrorKindConnection,
		},
		{
			"connection failed",
			status.New(status.EndorserClientStatus, status.ConnectionFailed.ToInt32(), "dial failed", nil),
			model.ErrorKindConnection,
		},
		{
			"multiple errors carrying a conflict",
			multi.Errors{
				errors.New("something else"),
				status.New(status.EventServerStatus, int32(pb.TxValidationCode_MVCC_READ_CONFLICT), "invalid", nil),
			},
			model.ErrorKindConflict,
		},
		{
			"chaincode error",
			status.New(status.ChaincodeStatus, 500, "no such transaction", nil),
			model.ErrorKindUnknown,
		},
		{
			"plain error",
			errors.New("boom"),
			model.ErrorKindUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			ledgerErr := classify("submit", tc.err)
			assert.Equal(t, tc.kind, ledgerErr.Kind)
			assert.Equal(t, "submit", ledgerErr.Op)
			assert.Equal(t, tc.err, ledgerErr.Err)
		})
	}
}

func TestClassifyKeepsLedgerErrors(t *testing.T) {
	original := model.NewLedgerError(model.ErrorKindConflict, "submit", errors.New("conflict"))
	assert.Same(t, original, classify("query", errors.Wrap(original, "wrapped")))
	assert.Nil(t, classify("query", nil))
}
