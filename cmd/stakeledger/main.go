// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/api"
	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/oracle"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "stakeledger",
		Usage:     "Rule driven multi asset staking ledger",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			persistFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiEventsLimitFlag,
			enableAPILogsFlag,
			apiSlowQueriesThresholdFlag,
			pprofFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			oracleFlag,
		},
		Action: serveAction,
		Commands: []cli.Command{
			{
				Name:  "run",
				Usage: "replay the scenario of the config file and print the report",
				Flags: []cli.Flag{
					configFlag,
					expectFlag,
					progressFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: runAction,
			},
			{
				Name:  "oracle-key",
				Usage: "print the address of the oracle key, generating the key if absent",
				Flags: []cli.Flag{
					dataDirFlag,
				},
				Action: oracleKeyAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	var (
		mainDB    *lvldb.LevelDB
		eventDB   *eventdb.EventDB
		cacheSize int
		dataDir   = "Memory"
	)
	if ctx.Bool(persistFlag.Name) {
		dataDir = makeDataDir(ctx)
		mainDB, cacheSize = openMainDB(ctx, dataDir)
		eventDB = openEventDB(dataDir)
	} else {
		if mainDB, err = lvldb.NewMem(); err != nil {
			return err
		}
		if eventDB, err = eventdb.NewMem(); err != nil {
			return err
		}
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	n, err := node.New(mainDB, &cfg.Genesis, eventDB, node.Options{CacheSize: cacheSize})
	if err != nil {
		return errors.WithMessage(err, "initialize ledger")
	}
	defer func() { logger.Info("closing ledger..."); n.Close() }()

	go checkClockOffset()

	handler, closeSubs := api.New(n, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableReqLogger:      ctx.Bool(enableAPILogsFlag.Name),
		SlowQueriesThreshold: time.Duration(ctx.Int(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
	})
	defer closeSubs()

	exitCtx := handleExitSignal()
	group, groupCtx := errgroup.WithContext(exitCtx)

	apiURL, apiSrv, apiListener, err := startAPIServer(ctx, handler)
	if err != nil {
		return err
	}
	group.Go(func() error {
		if err := apiSrv.Serve(apiListener); err != nil && err != http.ErrServerClosed {
			return errors.WithMessage(err, "API server")
		}
		return nil
	})
	servers := []*http.Server{apiSrv}

	metricsURL := "Disabled"
	if ctx.Bool(enableMetricsFlag.Name) {
		url, srv, listener, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		metricsURL = url
		servers = append(servers, srv)
		group.Go(func() error {
			if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
				return errors.WithMessage(err, "metrics server")
			}
			return nil
		})
	}

	oracleAddr := "Disabled"
	if ctx.Bool(oracleFlag.Name) || cfg.Oracle != nil {
		key, err := cfg.Oracle.PrivateKey()
		if err != nil {
			return err
		}
		if key == nil {
			if key, err = loadKey(filepath.Join(makeDataDir(ctx), "oracle.key")); err != nil {
				return errors.WithMessage(err, "load or generate oracle key")
			}
		}
		o := oracle.New(key)
		oracleAddr = o.Address().String()
		group.Go(func() error {
			o.Run(groupCtx, n.Ledger(), n, func() *xenv.Environment {
				return n.NewEnv(o.Address(), new(big.Int))
			})
			return nil
		})
	}

	fmt.Printf(`Starting %v
    Admin        [ %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
    Oracle       [ %v ]
`, "stakeledger "+fullVersion(), cfg.Genesis.Admin, dataDir, apiURL, metricsURL, oracleAddr)

	group.Go(func() error {
		<-groupCtx.Done()
		for _, srv := range servers {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = srv.Shutdown(shutdownCtx)
			cancel()
		}
		return nil
	})
	return group.Wait()
}

func runAction(ctx *cli.Context) error {
	initLogger(ctx)
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	report, err := runScenario(cfg, ctx.Bool(progressFlag.Name))
	if err != nil {
		return err
	}

	if path := ctx.String(expectFlag.Name); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var expected Report
		if err := json.Unmarshal(data, &expected); err != nil {
			return errors.WithMessagef(err, "decode expected report [%v]", path)
		}
		if diff := compareReports(&expected, report); diff != "" {
			fmt.Println(diff)
			return errors.New("report mismatch")
		}
		fmt.Println("report matches")
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// compareReports returns the unified diff of the two reports, empty when equal.
func compareReports(expected, actual *Report) string {
	e, _ := json.Marshal(expected)
	a, _ := json.Marshal(actual)
	if string(e) == string(a) {
		return ""
	}
	return jsonDiff(expected, actual)
}

func oracleKeyAction(ctx *cli.Context) error {
	key, err := loadKey(filepath.Join(makeDataDir(ctx), "oracle.key"))
	if err != nil {
		return err
	}
	fmt.Println(thor.Address(crypto.PubkeyToAddress(key.PublicKey)))
	return nil
}
