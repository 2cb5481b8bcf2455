// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package ledger

import (
	"context"
	"strings"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/status"
	"github.com/pkg/errors"
	grpcCodes "google.golang.org/grpc/codes"

	"github.com/mattermost/ledgergw/model"
)

var conflictCodes = []int32{
	int32(pb.TxValidationCode_MVCC_READ_CONFLICT),
	int32(pb.TxValidationCode_PHANTOM_READ_CONFLICT),
}

// conflictRetryableCodes are the statuses the SDK reports for optimistic
// concurrency conflicts.
var conflictRetryableCodes = map[status.Group][]status.Code{
	status.EndorserClientStatus: {
		status.Code(pb.TxValidationCode_MVCC_READ_CONFLICT),
		status.Code(pb.TxValidationCode_PHANTOM_READ_CONFLICT),
	},
	status.EventServerStatus: {
		status.Code(pb.TxValidationCode_MVCC_READ_CONFLICT),
		status.Code(pb.TxValidationCode_PHANTOM_READ_CONFLICT),
	},
}

// classify converts an error returned by the SDK into a LedgerError.
func classify(op string, err error) *model.LedgerError {
	if err == nil {
		return nil
	}

	var ledgerErr *model.LedgerError
	if errors.As(err, &ledgerErr) {
		return ledgerErr
	}

	return model.NewLedgerError(kindOf(err), op, err)
}

func kindOf(err error) model.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return model.ErrorKindTimeout
	}

	if s, ok := status.FromError(err); ok {
		if kind := kindFromStatus(s); kind != model.ErrorKindUnknown {
			return kind
		}
	}

	// Validation codes are sometimes only reported in the message, e.g.
	// when the commit handler flattens the event status.
	message := err.Error()
	for _, code := range conflictCodes {
		if strings.Contains(message, pb.TxValidationCode_name[code]) {
			return model.ErrorKindConflict
		}
	}

	return model.ErrorKindUnknown
}

func kindFromStatus(s *status.Status) model.ErrorKind {
	switch s.Group {
	case status.EndorserClientStatus, status.EventServerStatus:
		for _, code := range conflictCodes {
			if s.Code == code {
				return model.ErrorKindConflict
			}
		}
	}

	switch s.Group {
	case status.GRPCTransportStatus:
		switch grpcCodes.Code(s.Code) {
		case grpcCodes.DeadlineExceeded:
			return model.ErrorKindTimeout
		case grpcCodes.Unavailable:
			return model.ErrorKindConnection
		}
	case status.ClientStatus, status.EndorserClientStatus, status.OrdererClientStatus:
		switch status.Code(s.Code) {
		case status.Timeout:
			return model.ErrorKindTimeout
		case status.ConnectionFailed, status.NoPeersFound:
			return model.ErrorKindConnection
		case status.MultipleErrors:
			return kindFromDetails(s.Details)
		}
	}

	return model.ErrorKindUnknown
}

// kindFromDetails returns the first known kind among the errors carried
// in a multiple-errors status.
func kindFromDetails(details []interface{}) model.ErrorKind {
	for _, detail := range details {
		err, ok := detail.(error)
		if !ok {
			continue
		}
		if kind := kindOf(err); kind != model.ErrorKindUnknown {
			return kind
		}
	}
	return model.ErrorKindUnknown
}
