// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package supervisor

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/mattermost/ledgergw/internal/metrics"
	mock_supervisor "github.com/mattermost/ledgergw/internal/mocks/supervisor"
	"github.com/mattermost/ledgergw/internal/parser"
	"github.com/mattermost/ledgergw/internal/testlib"
	"github.com/mattermost/ledgergw/model"
)

const confirmedMetricName = "ledgergw_submissions_confirmed_total"

func confirmedMetric(value int) *strings.Reader {
	return strings.NewReader(fmt.Sprintf(`
# HELP ledgergw_submissions_confirmed_total Journalled submissions confirmed by reading them back from the ledger.
# TYPE ledgergw_submissions_confirmed_total counter
ledgergw_submissions_confirmed_total %d
`, value))
}

func TestConfirmationSupervise(t *testing.T) {
	t.Run("confirm visible submissions", func(t *testing.T) {
		mockController := gomock.NewController(t)
		store := mock_supervisor.NewMockStore(mockController)
		ledger := mock_supervisor.NewMockLedger(mockController)
		registry := prometheus.NewRegistry()
		m := metrics.New(registry)

		supervisor := NewConfirmationSupervisor(store, ledger, parser.NewTextParser(), m, testlib.MakeLogger(t), time.Minute)

		store.EXPECT().
			GetUnconfirmedSubmissions(uint64(DefaultBatchSize)).
			Return([]*model.Submission{
				{ID: "s1", TransactionID: "t1"},
				{ID: "s2", TransactionID: "t2"},
				{ID: "s3", TransactionID: "t3"},
			}, nil).
			Times(1)

		ledger.EXPECT().Query(gomock.Any(), "t1").Return(`status":A+B+100+OK+2023-01-01}`, nil).Times(1)
		ledger.EXPECT().Query(gomock.Any(), "t2").Return("not found", nil).Times(1)
		ledger.EXPECT().Query(gomock.Any(), "t3").Return("", errors.New("peer unavailable")).Times(1)

		store.EXPECT().ConfirmSubmission("s1", "OK").Return(nil).Times(1)

		supervisor.Supervise()

		assert.NoError(t, testutil.GatherAndCompare(registry, confirmedMetric(1), confirmedMetricName))
	})

	t.Run("database failure skips the pass", func(t *testing.T) {
		mockController := gomock.NewController(t)
		store := mock_supervisor.NewMockStore(mockController)
		ledger := mock_supervisor.NewMockLedger(mockController)

		supervisor := NewConfirmationSupervisor(store, ledger, parser.NewTextParser(), nil, testlib.MakeLogger(t), time.Minute)

		store.EXPECT().
			GetUnconfirmedSubmissions(gomock.Any()).
			Return(nil, errors.New("problem talking to database")).
			Times(1)

		supervisor.Supervise()
	})

	t.Run("confirm failure is not counted", func(t *testing.T) {
		mockController := gomock.NewController(t)
		store := mock_supervisor.NewMockStore(mockController)
		ledger := mock_supervisor.NewMockLedger(mockController)
		registry := prometheus.NewRegistry()
		m := metrics.New(registry)

		supervisor := NewConfirmationSupervisor(store, ledger, parser.NewTextParser(), m, testlib.MakeLogger(t), time.Minute)

		store.EXPECT().
			GetUnconfirmedSubmissions(gomock.Any()).
			Return([]*model.Submission{{ID: "s1", TransactionID: "t1"}}, nil).
			Times(1)
		ledger.EXPECT().Query(gomock.Any(), "t1").Return(`"status":A+B+1+NEW+t}`, nil).Times(1)
		store.EXPECT().ConfirmSubmission("s1", "NEW").Return(errors.New("write failed")).Times(1)

		supervisor.Supervise()

		assert.NoError(t, testutil.GatherAndCompare(registry, confirmedMetric(0), confirmedMetricName))
	})
}

func TestConfirmationStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	mockController := gomock.NewController(t)
	store := mock_supervisor.NewMockStore(mockController)
	ledger := mock_supervisor.NewMockLedger(mockController)

	supervisor := NewConfirmationSupervisor(store, ledger, parser.NewTextParser(), nil, testlib.MakeLogger(t), 10*time.Millisecond)

	passes := make(chan struct{}, 10)
	store.EXPECT().
		GetUnconfirmedSubmissions(gomock.Any()).
		DoAndReturn(func(limit uint64) ([]*model.Submission, error) {
			select {
			case passes <- struct{}{}:
			default:
			}
			return nil, nil
		}).
		MinTimes(1)

	supervisor.Start()

	select {
	case <-passes:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not run")
	}

	supervisor.Stop()
}
