// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/emberchain/ember/blockchain"
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/genesis"
	"github.com/emberchain/ember/kv"
	"github.com/emberchain/ember/logdb"
)

var (
	version   string
	gitCommit string
	release   = "dev"
	log       = log15.New()
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-commit%s", release, version, gitCommit)
	app.Name = "Ember"
	app.Usage = "in-memory Ethereum-compatible chain for test & dev"
	app.Flags = []cli.Flag{
		cli.Uint64Flag{
			Name:  "block-time",
			Usage: "seconds between blocks, 0 mines per transaction",
		},
		cli.StringFlag{
			Name:  "balance",
			Value: "100",
			Usage: "ether allocated to each development account",
		},
		cli.Uint64Flag{
			Name:  "gas-limit",
			Value: ember.InitialGasLimit,
			Usage: "block gas limit",
		},
		cli.StringFlag{
			Name:  "gas-price",
			Value: ember.DefaultGasPrice.String(),
			Usage: "minimum gas price in wei",
		},
		cli.BoolFlag{
			Name:  "legacy-instamine",
			Usage: "transaction submission returns after the tx is mined",
		},
		cli.BoolFlag{
			Name:  "vm-errors",
			Usage: "surface vm errors on submission",
		},
		cli.IntFlag{
			Name:  "verbosity",
			Value: int(log15.LvlInfo),
			Usage: "log verbosity (0-9)",
		},
	}
	app.Action = run
	return app
}

func run(ctx *cli.Context) error {
	initLog(log15.Lvl(ctx.Int("verbosity")))

	balance, ok := new(big.Int).SetString(ctx.String("balance"), 10)
	if !ok {
		return errors.New("bad argument: balance")
	}
	balance.Mul(balance, ember.Ether)

	gasPrice, ok := new(big.Int).SetString(ctx.String("gas-price"), 10)
	if !ok {
		return errors.New("bad argument: gas-price")
	}

	options := blockchain.DefaultOptions()
	options.BlockTime = ctx.Uint64("block-time")
	options.BlockGasLimit = ctx.Uint64("gas-limit")
	options.GasPrice = gasPrice
	options.LegacyInstamine = ctx.Bool("legacy-instamine")
	options.VMErrorsOnRPCResponse = ctx.Bool("vm-errors")
	if err := options.Validate(); err != nil {
		return err
	}

	db, err := kv.NewMem()
	if err != nil {
		return errors.Wrap(err, "open kv store")
	}

	ldb, err := logdb.NewMem()
	if err != nil {
		return errors.Wrap(err, "open log index")
	}
	defer ldb.Close()

	launchTime := uint64(time.Now().Unix())
	gb := genesis.NewDevnet(launchTime, options.BlockGasLimit, balance)

	bc, err := blockchain.New(db, ldb, gb, nil, options)
	if err != nil {
		return errors.Wrap(err, "set up chain")
	}
	if err := bc.Start(); err != nil {
		return err
	}

	log.Info("chain is up",
		"genesis", bc.Repository().GenesisBlock().Header().Hash(),
		"blockTime", options.BlockTime)
	for _, a := range genesis.DevAccounts() {
		log.Info("dev account", "address", a.Address, "balance(wei)", balance)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	<-quit
	log.Info("got interrupt, cleaning up......")

	return bc.Stop()
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLog(lvl log15.Lvl) {
	log15.Root().SetHandler(log15.LvlFilterHandler(lvl, log15.StderrHandler))
}
