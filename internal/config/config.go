// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

// Package config loads the static description of the ledger network the
// gateway connects to.
package config

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/mattermost/ledgergw/model"
)

// Defaults matching the network the service was first deployed against.
const (
	DefaultProfilePath = "profiles/dev-connection.yaml"
	DefaultWalletPath  = "user-wallet"
	DefaultIdentity    = "Admin@budget.com"
	DefaultChannel     = "airlinechannel"
	DefaultContract    = "erc20"
)

// Options are the raw inputs to Load.
type Options struct {
	ProfilePath string
	WalletPath  string
	Identity    string
	Channel     string
	Contract    string
}

// Config is a validated connection configuration. It is immutable once
// loaded; use the accessors to read it.
type Config struct {
	profilePath string
	profile     []byte
	walletPath  string
	identity    string
	channel     string
	contract    string
}

// connectionProfile is the part of a Fabric connection profile that is
// checked before handing the raw profile to the SDK.
type connectionProfile struct {
	Name          string                 `yaml:"name"`
	Version       string                 `yaml:"version"`
	Client        map[string]interface{} `yaml:"client"`
	Channels      map[string]interface{} `yaml:"channels"`
	Organizations map[string]interface{} `yaml:"organizations"`
	Peers         map[string]interface{} `yaml:"peers"`
}

// Load reads and validates the connection profile and wallet location.
// Every failure is a config-load LedgerError.
func Load(options Options) (*Config, error) {
	if options.ProfilePath == "" {
		return nil, loadError(errors.New("connection profile path must not be empty"))
	}
	if options.WalletPath == "" {
		return nil, loadError(errors.New("wallet path must not be empty"))
	}
	if options.Identity == "" {
		return nil, loadError(errors.New("identity must not be empty"))
	}
	if options.Channel == "" {
		return nil, loadError(errors.New("channel must not be empty"))
	}
	if options.Contract == "" {
		return nil, loadError(errors.New("contract must not be empty"))
	}

	profilePath := filepath.Clean(options.ProfilePath)
	raw, err := ioutil.ReadFile(profilePath)
	if err != nil {
		return nil, loadError(errors.Wrapf(err, "failed to read connection profile %q", profilePath))
	}

	var profile connectionProfile
	err = yaml.Unmarshal(raw, &profile)
	if err != nil {
		return nil, loadError(errors.Wrapf(err, "failed to parse connection profile %q", profilePath))
	}
	if len(profile.Peers) == 0 {
		return nil, loadError(errors.Errorf("connection profile %q defines no peers", profilePath))
	}
	if len(profile.Channels) > 0 {
		if _, ok := profile.Channels[options.Channel]; !ok {
			return nil, loadError(errors.Errorf("connection profile %q does not define channel %q", profilePath, options.Channel))
		}
	}

	walletPath := filepath.Clean(options.WalletPath)
	info, err := os.Stat(walletPath)
	if err != nil {
		return nil, loadError(errors.Wrapf(err, "failed to open wallet %q", walletPath))
	}
	if !info.IsDir() {
		return nil, loadError(errors.Errorf("wallet %q is not a directory", walletPath))
	}

	return &Config{
		profilePath: profilePath,
		profile:     raw,
		walletPath:  walletPath,
		identity:    options.Identity,
		channel:     options.Channel,
		contract:    options.Contract,
	}, nil
}

// ProfilePath is the cleaned path the profile was read from.
func (c *Config) ProfilePath() string { return c.profilePath }

// Profile returns a copy of the raw connection profile.
func (c *Config) Profile() []byte {
	profile := make([]byte, len(c.profile))
	copy(profile, c.profile)
	return profile
}

// WalletPath is the directory of the file system wallet.
func (c *Config) WalletPath() string { return c.walletPath }

// Identity is the wallet label used to connect.
func (c *Config) Identity() string { return c.identity }

// Channel is the network (channel) name.
func (c *Config) Channel() string { return c.channel }

// Contract is the chaincode ID.
func (c *Config) Contract() string { return c.contract }

func loadError(err error) error {
	return model.NewLedgerError(model.ErrorKindConfigLoad, "load config", err)
}
