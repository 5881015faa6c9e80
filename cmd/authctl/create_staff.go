package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/aquarium-api/internal/auth"
	"github.com/spec-kit/aquarium-api/internal/config"
	"github.com/spec-kit/aquarium-api/internal/domain"
	"github.com/spec-kit/aquarium-api/internal/events"
	"github.com/spec-kit/aquarium-api/internal/observability"
	"github.com/spec-kit/aquarium-api/internal/persistence"
	"github.com/spec-kit/aquarium-api/internal/service"
)

const defaultCreateStaffTimeout = 30 * time.Second

type createStaffConfig struct {
	username  string
	staffType string
	profile   domain.Profile
	timeout   time.Duration
}

// NewCreateStaffCmd creates the create-staff subcommand.
func NewCreateStaffCmd() *cobra.Command {
	cfg := &createStaffConfig{}

	cmd := &cobra.Command{
		Use:   "create-staff",
		Short: "Create a staff account in the configured credential store",
		Long: `Creates a staff principal with the password read from stdin. Use it to
bootstrap the first administrator; later staff can be registered over the API.
Configuration is read from the same environment as the API server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCreateStaff(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.username, "username", "", "staff username (required)")
	cmd.Flags().StringVar(&cfg.staffType, "staff-type", "Manager", "staff role, e.g. Manager or Aquarist")
	cmd.Flags().StringVar(&cfg.profile.ExternalID, "staff-id", "", "external staff identifier")
	cmd.Flags().StringVar(&cfg.profile.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&cfg.profile.LastName, "last-name", "", "last name")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultCreateStaffTimeout, "timeout for store operations")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func runCreateStaff(cmd *cobra.Command, cfg *createStaffConfig) error {
	password, err := readPassword(cmd.InOrStdin())
	if err != nil {
		return err
	}

	appCfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}
	if appCfg.Store.Backend == config.StoreBackendMemory {
		return oops.Code("CONFIG_INVALID").Errorf("create-staff needs a persistent credential store, got %q", appCfg.Store.Backend)
	}

	logger, err := observability.NewLogger(appCfg.Logger)
	if err != nil {
		return oops.Code("LOGGER_FAILED").With("operation", "init logger").Wrap(err)
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.With(zap.String("service", "authctl"))

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	store, err := persistence.OpenCredentialStore(ctx, appCfg, logger)
	if err != nil {
		return oops.Code("STORE_CONNECT_FAILED").With("backend", appCfg.Store.Backend).Wrap(err)
	}
	defer store.Close()

	tokens, err := auth.NewTokenManager(appCfg.Auth.JWTSecret, auth.WithIssuer(appCfg.App.Name))
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "init token manager").Wrap(err)
	}

	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger).RegisterHandlers()

	authService, err := service.NewAuthService(service.AuthDependencies{
		Credentials: store.Repository,
		Hasher:      auth.NewBcryptHasher(appCfg.Auth.BcryptCost),
		Tokens:      tokens,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	if err != nil {
		return oops.Code("SERVICE_INIT_FAILED").Wrap(err)
	}

	profile, err := authService.Register(ctx, service.Registration{
		Kind:        domain.PrincipalKindStaff,
		PrincipalID: cfg.username,
		Password:    password,
		Role:        cfg.staffType,
		Profile:     cfg.profile,
	})
	if errors.Is(err, auth.ErrDuplicatePrincipal) {
		return oops.Code("STAFF_EXISTS").With("username", cfg.username).Errorf("staff %q already exists", cfg.username)
	}
	if err != nil {
		return oops.Code("CREATE_STAFF_FAILED").With("username", cfg.username).Wrap(err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "created staff %s (%s)\n", profile.PrincipalID, profile.Role)
	return err
}
