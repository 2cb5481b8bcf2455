// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/ledgergw/model"
)

const testProfile = `
name: "budget-dev"
version: "1.0"
client:
  organization: budget
channels:
  airlinechannel:
    peers:
      budget-peer1.budget.com: {}
organizations:
  budget:
    mspid: BudgetMSP
    peers:
      - budget-peer1.budget.com
peers:
  budget-peer1.budget.com:
    url: grpc://localhost:7051
`

func writeTestFiles(t *testing.T, profile string) (profilePath, walletPath string) {
	dir, err := ioutil.TempDir("", "ledgergw-config")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	profilePath = filepath.Join(dir, "connection.yaml")
	require.NoError(t, ioutil.WriteFile(profilePath, []byte(profile), 0600))

	walletPath = filepath.Join(dir, "wallet")
	require.NoError(t, os.Mkdir(walletPath, 0700))

	return profilePath, walletPath
}

func validOptions(profilePath, walletPath string) Options {
	return Options{
		ProfilePath: profilePath,
		WalletPath:  walletPath,
		Identity:    DefaultIdentity,
		Channel:     DefaultChannel,
		Contract:    DefaultContract,
	}
}

func TestLoad(t *testing.T) {
	profilePath, walletPath := writeTestFiles(t, testProfile)

	cfg, err := Load(validOptions(profilePath, walletPath))
	require.NoError(t, err)
	assert.Equal(t, profilePath, cfg.ProfilePath())
	assert.Equal(t, walletPath, cfg.WalletPath())
	assert.Equal(t, DefaultIdentity, cfg.Identity())
	assert.Equal(t, DefaultChannel, cfg.Channel())
	assert.Equal(t, DefaultContract, cfg.Contract())
	assert.Equal(t, testProfile, string(cfg.Profile()))

	t.Run("profile copy is detached", func(t *testing.T) {
		profile := cfg.Profile()
		profile[0] = 'X'
		assert.Equal(t, testProfile, string(cfg.Profile()))
	})
}

func TestLoadErrors(t *testing.T) {
	profilePath, walletPath := writeTestFiles(t, testProfile)
	badYAMLPath, _ := writeTestFiles(t, "peers: [unterminated")
	noPeersPath, _ := writeTestFiles(t, "name: empty\n")

	var testCases = []struct {
		testName string
		mutate   func(o *Options)
	}{
		{"no profile path", func(o *Options) { o.ProfilePath = "" }},
		{"no wallet path", func(o *Options) { o.WalletPath = "" }},
		{"no identity", func(o *Options) { o.Identity = "" }},
		{"no channel", func(o *Options) { o.Channel = "" }},
		{"no contract", func(o *Options) { o.Contract = "" }},
		{"missing profile", func(o *Options) { o.ProfilePath = profilePath + ".missing" }},
		{"invalid yaml", func(o *Options) { o.ProfilePath = badYAMLPath }},
		{"no peers", func(o *Options) { o.ProfilePath = noPeersPath }},
		{"unknown channel", func(o *Options) { o.Channel = "otherchannel" }},
		{"missing wallet", func(o *Options) { o.WalletPath = walletPath + ".missing" }},
		{"wallet is a file", func(o *Options) { o.WalletPath = profilePath }},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			options := validOptions(profilePath, walletPath)
			tc.mutate(&options)

			cfg, err := Load(options)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Equal(t, model.ErrorKindConfigLoad, model.KindOf(err))
		})
	}
}
