package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chowkart/chowkart/internal/api"
	"github.com/chowkart/chowkart/internal/fulfillment"
	"github.com/chowkart/chowkart/internal/models"
	"github.com/chowkart/chowkart/internal/repositories"
	"github.com/chowkart/chowkart/internal/repositories/memory"
	"github.com/chowkart/chowkart/internal/repositories/postgres"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "chowkart",
	Short: "Order fulfillment service for the chowkart food-delivery marketplace",
	Long:  `chowkart runs the fulfillment core of the marketplace: the order status state machine, delivery-partner assignment and verification, fee computation and delivery stats, exposed over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		if err := serve(cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.Flags().String("http-addr", ":8080", "HTTP listen address")
	rootCmd.Flags().String("storage", "postgres", "Storage backend: postgres or memory")
	rootCmd.Flags().Bool("kafka-enabled", false, "Enable Kafka status-event output")
	rootCmd.Flags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	rootCmd.Flags().Float64("base-delivery-fee", 25.0, "Flat delivery fee in rupees")
	rootCmd.Flags().Float64("base-partner-share", 20.0, "Partner share of the flat fee")
	rootCmd.Flags().Float64("per-km-surcharge", 5.0, "Surcharge per km beyond the included distance")
	rootCmd.Flags().Float64("included-distance-km", 5.0, "Distance covered by the flat fee")
	rootCmd.Flags().Bool("archive-enabled", false, "Enable delivered-order parquet archival")
	rootCmd.Flags().String("archive-bucket", "", "S3 bucket for archives (empty writes locally)")
	rootCmd.Flags().String("archive-region", "ap-south-1", "S3 region for archives")

	viper.BindPFlags(rootCmd.Flags())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func serve(cfg *models.Config) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	service, cleanup, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := api.NewHandler(service, logger)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewRouter(handler, logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("Listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

type stores struct {
	orders   repositories.OrderRepository
	partners repositories.DeliveryPartnerRepository
	vendors  repositories.VendorRepository
}

// buildStores opens the configured storage backend.
func buildStores(cfg *models.Config) (*stores, func(), error) {
	switch cfg.Storage {
	case "memory":
		store := memory.NewStore()
		return &stores{
			orders:   store.Orders(),
			partners: store.Partners(),
			vendors:  store.Vendors(),
		}, func() {}, nil
	case "postgres", "":
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &stores{
			orders:   postgres.NewOrderRepository(pool),
			partners: postgres.NewDeliveryPartnerRepository(pool),
			vendors:  postgres.NewVendorRepository(pool),
		}, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage)
	}
}

// buildService assembles the fulfillment service from config: postgres
// or in-memory repositories, Kafka or console event output.
func buildService(cfg *models.Config, logger *logrus.Logger) (*fulfillment.Service, func(), error) {
	st, cleanup, err := buildStores(cfg)
	if err != nil {
		return nil, nil, err
	}

	var emitter fulfillment.OutputDestination
	if cfg.KafkaEnabled {
		kafka, err := fulfillment.NewKafkaOutput(strings.Split(cfg.KafkaBrokerList, ","))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to Kafka: %w", err)
		}
		emitter = kafka
	} else {
		emitter = &fulfillment.ConsoleOutput{}
	}

	service := fulfillment.NewService(st.orders, st.partners, st.vendors, emitter, cfg, logger)
	return service, func() {
		service.Close()
		cleanup()
	}, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
