// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"crypto/ecdsa"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/api/types"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/thor"
)

// Config is the yaml file handed to --config.
type Config struct {
	Genesis  node.Genesis  `yaml:"genesis"`
	Oracle   *OracleConfig `yaml:"oracle"`
	Scenario Scenario      `yaml:"scenario"`
}

type OracleConfig struct {
	// Key is the hex private key of the oracle, the key file in the data dir is used when empty.
	Key string `yaml:"key"`
}

// PrivateKey parses Key, nil when unset.
func (c *OracleConfig) PrivateKey() (*ecdsa.PrivateKey, error) {
	if c == nil || c.Key == "" {
		return nil, nil
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.Key, "0x"))
	if err != nil {
		return nil, errors.WithMessage(err, "oracle key")
	}
	return key, nil
}

// Scenario is a scripted sequence of ledger calls replayed by the run command.
type Scenario struct {
	Start   uint64   `yaml:"start"`
	Actions []Action `yaml:"actions"`
}

// Action is one ledger call. Op selects the call, the other fields are its arguments.
type Action struct {
	Op     string       `yaml:"op"`
	Caller thor.Address `yaml:"caller"`
	// Elapse advances the clock before the call.
	Elapse uint64 `yaml:"elapse"`

	Rules    []types.Rule            `yaml:"rules"`
	Rule     uint64                  `yaml:"rule"`
	Active   bool                    `yaml:"active"`
	Stake    uint64                  `yaml:"stake"`
	Referrer thor.Address            `yaml:"referrer"`
	IDs      []*math.HexOrDecimal256 `yaml:"ids"`
	Value    *math.HexOrDecimal256   `yaml:"value"`
	Withdraw bool                    `yaml:"withdraw"`
	Break    bool                    `yaml:"break"`
	Assets   types.Bundle            `yaml:"assets"`
	Key      *types.Asset            `yaml:"key"`
	Request  uint64                  `yaml:"request"`
	Word     *math.HexOrDecimal256   `yaml:"word"`

	// Expect is the revert code the call must fail with.
	Expect string `yaml:"expect"`
}

func parseConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, err
	}
	for i, a := range cfg.Scenario.Actions {
		if _, ok := actions[a.Op]; !ok {
			return nil, errors.Errorf("scenario action %d: unknown op %q", i, a.Op)
		}
	}
	return &cfg, nil
}

func loadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config file required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := parseConfig(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "parse config [%v]", path)
	}
	return cfg, nil
}
