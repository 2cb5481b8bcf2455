// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package ledger

import (
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	gwconfig "github.com/mattermost/ledgergw/internal/config"
	"github.com/mattermost/ledgergw/model"
)

const profileType = "yaml"

// Gateway is a connection to the ledger network holding the single
// contract handle shared by every request.
type Gateway struct {
	gw       *gateway.Gateway
	network  *gateway.Network
	contract *gateway.Contract
	logger   logrus.FieldLogger
}

// Connect opens the wallet, connects to the network described by cfg
// with the configured identity, and resolves the channel and contract.
//
// A timeout greater than zero becomes the SDK's default timeout for
// transactions. Wallet problems are config-load errors; everything after
// that is a connection error.
func Connect(cfg *gwconfig.Config, timeout time.Duration, logger logrus.FieldLogger) (*Gateway, error) {
	logger = logger.WithFields(logrus.Fields{
		"channel":  cfg.Channel(),
		"contract": cfg.Contract(),
		"identity": cfg.Identity(),
	})

	wallet, err := gateway.NewFileSystemWallet(cfg.WalletPath())
	if err != nil {
		return nil, model.NewLedgerError(model.ErrorKindConfigLoad, "open wallet",
			errors.Wrapf(err, "failed to open wallet %q", cfg.WalletPath()))
	}
	if !wallet.Exists(cfg.Identity()) {
		return nil, model.NewLedgerError(model.ErrorKindConfigLoad, "open wallet",
			errors.Errorf("wallet %q has no identity %q", cfg.WalletPath(), cfg.Identity()))
	}

	options := []gateway.Option{}
	if timeout > 0 {
		options = append(options, gateway.WithTimeout(timeout))
	}

	gw, err := gateway.Connect(
		gateway.WithConfig(config.FromRaw(cfg.Profile(), profileType)),
		gateway.WithIdentity(wallet, cfg.Identity()),
		options...,
	)
	if err != nil {
		return nil, model.NewLedgerError(model.ErrorKindConnection, "connect",
			errors.Wrap(err, "failed to connect to gateway"))
	}

	network, err := gw.GetNetwork(cfg.Channel())
	if err != nil {
		gw.Close()
		return nil, model.NewLedgerError(model.ErrorKindConnection, "get network",
			errors.Wrapf(err, "failed to get network %q", cfg.Channel()))
	}

	logger.Info("Connected to ledger network")

	return &Gateway{
		gw:       gw,
		network:  network,
		contract: network.GetContract(cfg.Contract()),
		logger:   logger,
	}, nil
}

// Contract returns the shared contract handle.
func (g *Gateway) Contract() Contract {
	return &fabricContract{contract: g.contract}
}

// Close releases the connection to the network.
func (g *Gateway) Close() {
	g.gw.Close()
	g.logger.Info("Closed ledger gateway")
}

type fabricContract struct {
	contract *gateway.Contract
}

func (c *fabricContract) CreateTransaction(name string) (Transaction, error) {
	txn, err := c.contract.CreateTransaction(name)
	if err != nil {
		return nil, err
	}
	return txn, nil
}
