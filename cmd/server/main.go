package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/f-sync/followqueue/internal/actionqueue"
	"github.com/f-sync/followqueue/internal/config"
	"github.com/f-sync/followqueue/internal/navigator"
	"github.com/f-sync/followqueue/internal/server"
	"github.com/f-sync/followqueue/internal/store"
)

const (
	commandUse                  = "server"
	commandShortDescription     = "Serve the follow queue report and API over HTTP"
	flagHostDescription         = "Host interface for the HTTP server"
	flagPortDescription         = "Port for the HTTP server"
	flagStoreDriverDescription  = "State store driver: sqlite, json or memory"
	flagStorePathDescription    = "State store location"
	flagBatchSizeDescription    = "Default number of profiles per batch"
	flagConfigDescription       = "Path to a config file"
	flagEnvFileName             = "env-file"
	flagEnvFileDescription      = "Path to a .env file"
	shutdownTimeout             = 5 * time.Second
	errMessageLoggerCreate      = "create logger"
	errMessageStoreOpen         = "open state store"
	errMessageListenAndServe    = "listen and serve"
	errMessageShutdown          = "shutdown"
	logMessageStartingServer    = "starting HTTP server"
	logMessageServerStopped     = "server stopped"
	logMessageListenError       = "server listen failure"
	logMessageShutdownRequested = "shutdown requested"
	logFieldAddress             = "address"
	logFieldStoreDriver         = "store_driver"
	logFieldStorePath           = "store_path"
)

func main() {
	cobra.CheckErr(newServerCommand().Execute())
}

func newServerCommand() *cobra.Command {
	configurationViper := config.NewViper()
	command := &cobra.Command{
		Use:   commandUse,
		Short: commandShortDescription,
		RunE: func(command *cobra.Command, _ []string) error {
			return runServerCommand(command, configurationViper)
		},
	}

	command.Flags().String(config.KeyHost, config.DefaultHost, flagHostDescription)
	command.Flags().Int(config.KeyPort, config.DefaultPort, flagPortDescription)
	command.Flags().String(config.KeyStoreDriver, config.DefaultStoreDriver, flagStoreDriverDescription)
	command.Flags().String(config.KeyStorePath, config.DefaultStorePath(), flagStorePathDescription)
	command.Flags().Int(config.KeyBatchSize, actionqueue.DefaultBatchSize, flagBatchSizeDescription)
	command.Flags().String(config.KeyConfigFile, "", flagConfigDescription)
	command.Flags().String(flagEnvFileName, "", flagEnvFileDescription)

	for _, key := range []string{config.KeyHost, config.KeyPort, config.KeyStoreDriver, config.KeyStorePath, config.KeyBatchSize} {
		cobra.CheckErr(config.BindFlag(configurationViper, command, key))
	}

	return command
}

func runServerCommand(command *cobra.Command, configurationViper *viper.Viper) error {
	envFilePath, _ := command.Flags().GetString(flagEnvFileName)
	if err := config.LoadEnvFile(envFilePath); err != nil {
		return err
	}
	configFilePath, _ := command.Flags().GetString(config.KeyConfigFile)
	if err := config.ReadConfigFile(configurationViper, configFilePath); err != nil {
		return err
	}
	configuration, err := config.FromViper(configurationViper)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("%s: %w", errMessageLoggerCreate, err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	stateStore, err := store.Open(configuration.Store)
	if err != nil {
		return fmt.Errorf("%s: %w", errMessageStoreOpen, err)
	}
	defer stateStore.Close()

	workflow := actionqueue.NewWorkflow(actionqueue.WorkflowConfig{
		Store:     stateStore,
		Navigator: navigator.Discard{},
		Logger:    logger,
		BatchSize: configuration.BatchSize,
	})
	router, err := server.NewRouter(server.RouterConfig{
		Workflow: workflow,
		Network:  configuration.Network,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	address := configuration.Address()
	logger.Info(logMessageStartingServer,
		zap.String(logFieldAddress, address),
		zap.String(logFieldStoreDriver, configuration.Store.Driver),
		zap.String(logFieldStorePath, configuration.Store.Path),
	)

	signalContext, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	httpServer := &http.Server{Addr: address, Handler: router}
	serverGroup, groupContext := errgroup.WithContext(signalContext)
	serverGroup.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(logMessageListenError, zap.Error(err))
			return fmt.Errorf("%s: %w", errMessageListenAndServe, err)
		}
		return nil
	})
	serverGroup.Go(func() error {
		<-groupContext.Done()
		logger.Info(logMessageShutdownRequested)
		shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownContext); err != nil {
			return fmt.Errorf("%s: %w", errMessageShutdown, err)
		}
		return nil
	})
	if err := serverGroup.Wait(); err != nil {
		return err
	}

	logger.Info(logMessageServerStopped)
	return nil
}
