// Copyright (c) 2020-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattermost/ledgergw/internal/api"
	"github.com/mattermost/ledgergw/internal/config"
	"github.com/mattermost/ledgergw/internal/ledger"
	"github.com/mattermost/ledgergw/internal/metrics"
	"github.com/mattermost/ledgergw/internal/parser"
	"github.com/mattermost/ledgergw/internal/store"
	"github.com/mattermost/ledgergw/internal/supervisor"
)

const (
	portFlag             = "port"
	listenFlag           = "listen"
	profileFlag          = "profile"
	walletFlag           = "wallet"
	identityFlag         = "identity"
	channelFlag          = "channel"
	contractFlag         = "contract"
	queryFunctionFlag    = "query-function"
	submitFunctionFlag   = "submit-function"
	submitQueriesFlag    = "submit-queries"
	timeoutFlag          = "timeout"
	conflictRetriesFlag  = "conflict-retries"
	serializeSubmitsFlag = "serialize-submits"
	databaseFlag         = "database"
	confirmIntervalFlag  = "confirm-interval"
	debugFlag            = "debug"
	configFlag           = "config"

	envPrefix   = "LEDGERGW"
	defaultPort = "8082"
)

func init() {
	serverCmd.PersistentFlags().String(portFlag, defaultPort, "Port to listen on when --listen is not set. Also read from PORT.")
	serverCmd.PersistentFlags().String(listenFlag, "", "Local interface and port to listen on, overriding --port")
	serverCmd.PersistentFlags().String(profileFlag, config.DefaultProfilePath, "Path to the Fabric connection profile")
	serverCmd.PersistentFlags().String(walletFlag, config.DefaultWalletPath, "Directory of the file system wallet")
	serverCmd.PersistentFlags().String(identityFlag, config.DefaultIdentity, "Wallet label of the identity to connect as")
	serverCmd.PersistentFlags().String(channelFlag, config.DefaultChannel, "Channel the contract is deployed on")
	serverCmd.PersistentFlags().String(contractFlag, config.DefaultContract, "Name of the contract to invoke")
	serverCmd.PersistentFlags().String(queryFunctionFlag, ledger.DefaultQueryFunction, "Contract function reading a transaction")
	serverCmd.PersistentFlags().String(submitFunctionFlag, ledger.DefaultSubmitFunction, "Contract function writing a transaction")
	serverCmd.PersistentFlags().Bool(submitQueriesFlag, false, "Submit reads for ordering instead of evaluating them on a peer")
	serverCmd.PersistentFlags().Duration(timeoutFlag, ledger.DefaultTimeout, "Upper bound on each ledger call")
	serverCmd.PersistentFlags().Int(conflictRetriesFlag, 0, "Times a submit is retried after an MVCC conflict")
	serverCmd.PersistentFlags().Bool(serializeSubmitsFlag, false, "Allow only one submit in flight at a time")
	serverCmd.PersistentFlags().String(databaseFlag, "", "Postgres DSN of the submission journal. Journalling is disabled when empty.")
	serverCmd.PersistentFlags().Duration(confirmIntervalFlag, time.Minute, "Interval between confirmation passes over the journal")
	serverCmd.PersistentFlags().Bool(debugFlag, false, "Whether to output debug logs")
	serverCmd.PersistentFlags().String(configFlag, "", "Optional YAML file supplying any of the server flags")

	// The root command runs the server too.
	rootCmd.Flags().AddFlagSet(serverCmd.PersistentFlags())
}

// newViper binds the command flags to LEDGERGW_ environment variables and
// the optional config file. Flags set on the command line take precedence.
func newViper(command *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	err := v.BindEnv(portFlag, "PORT", envPrefix+"_PORT")
	if err != nil {
		return nil, errors.Wrap(err, "failed to bind PORT")
	}

	err = v.BindPFlags(command.Flags())
	if err != nil {
		return nil, errors.Wrap(err, "failed to bind flags")
	}

	configFile := v.GetString(configFlag)
	if configFile != "" {
		v.SetConfigFile(configFile)
		err = v.ReadInConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	return v, nil
}

func listenAddress(v *viper.Viper) string {
	listen := v.GetString(listenFlag)
	if listen != "" {
		return listen
	}
	return fmt.Sprintf(":%s", v.GetString(portFlag))
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the ledger gateway server.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true

		v, err := newViper(command)
		if err != nil {
			return err
		}

		debug := v.GetBool(debugFlag)
		if debug {
			logger.SetLevel(logrus.DebugLevel)
		}

		cfg, err := config.Load(config.Options{
			ProfilePath: v.GetString(profileFlag),
			WalletPath:  v.GetString(walletFlag),
			Identity:    v.GetString(identityFlag),
			Channel:     v.GetString(channelFlag),
			Contract:    v.GetString(contractFlag),
		})
		if err != nil {
			return err
		}

		listen := listenAddress(v)
		timeout := v.GetDuration(timeoutFlag)

		logger.WithFields(logrus.Fields{
			"listen":   listen,
			"profile":  cfg.ProfilePath(),
			"identity": cfg.Identity(),
			"channel":  cfg.Channel(),
			"contract": cfg.Contract(),
			"timeout":  timeout,
			"debug":    debug,
		}).Info("Starting ledger gateway")

		gateway, err := ledger.Connect(cfg, timeout, logger)
		if err != nil {
			return errors.Wrap(err, "failed to connect to the ledger")
		}
		defer gateway.Close()

		ledgerMetrics := metrics.New(prometheus.DefaultRegisterer)

		orchestrator := ledger.NewOrchestrator(gateway.Contract(), ledger.OrchestratorOptions{
			QueryFunction:    v.GetString(queryFunctionFlag),
			SubmitFunction:   v.GetString(submitFunctionFlag),
			SubmitQueries:    v.GetBool(submitQueriesFlag),
			Timeout:          timeout,
			ConflictRetries:  v.GetInt(conflictRetriesFlag),
			SerializeSubmits: v.GetBool(serializeSubmitsFlag),
		}, ledgerMetrics, logger)

		textParser := parser.NewTextParser()
		apiContext := &api.Context{
			Ledger: orchestrator,
			Parser: textParser,
			Logger: logger,
		}

		database := v.GetString(databaseFlag)
		if database != "" {
			sqlStore, err := store.New(database, logger)
			if err != nil {
				return err
			}
			defer sqlStore.Close()

			err = sqlStore.Migrate()
			if err != nil {
				return errors.Wrap(err, "failed to migrate the submission journal")
			}
			apiContext.Store = sqlStore

			confirmationSupervisor := supervisor.NewConfirmationSupervisor(
				sqlStore, orchestrator, textParser, ledgerMetrics, logger, v.GetDuration(confirmIntervalFlag))
			confirmationSupervisor.Start()
			defer confirmationSupervisor.Stop()
		} else {
			logger.Info("No database configured; submissions will not be journalled")
		}

		router := mux.NewRouter()
		api.Register(router, apiContext)
		router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

		cors := handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)

		srv := &http.Server{
			Addr:           listen,
			Handler:        cors(router),
			ReadTimeout:    timeout + 30*time.Second,
			WriteTimeout:   timeout + 30*time.Second,
			IdleTimeout:    time.Second * 180,
			MaxHeaderBytes: 1 << 20,
		}

		go func() {
			logger.WithField("addr", srv.Addr).Info("Listening")
			err := srv.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("Failed to listen and serve")
			}
		}()

		c := make(chan os.Signal, 1)
		// We'll accept graceful shutdowns when quit via:
		//  - SIGINT (Ctrl+C)
		//  - SIGTERM (Kubernetes pod rolling termination)
		// SIGKILL and SIGQUIT will not be caught.
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		sig := <-c
		logger.WithField("shutdown-signal", sig.String()).Info("Shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}
