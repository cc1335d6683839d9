// Package app provides application-level wiring and dependency injection
// for the governance hub.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"govhub/internal/config"
	"govhub/internal/db/repository"
	"govhub/internal/domain"
	"govhub/internal/scheduler"
	"govhub/internal/service/approval"
	"govhub/internal/service/audit"
	"govhub/internal/service/authz"
	"govhub/internal/service/identity"
	"govhub/internal/service/resource"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, collaborator registries, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB

	Catalogs *config.CatalogFile

	// Handlers resolves resource-type handler keys from the catalog
	// config. FlowHandlers binds approval-flow ids to their handler sets;
	// the built-in resource-update flow is wired internally.
	Handlers     domain.ResourceTypeHandlerRegistry
	FlowHandlers map[string]domain.ApprovalFlowHandler

	Plugins domain.NotificationPluginRegistry
	Logger  *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Users     *identity.UserService
	Groups    *identity.GroupService
	Resources *resource.Service
	Approvals *approval.Workflow
	Audits    *audit.NotificationService

	CatalogRepo *repository.CatalogRepo
	UserRepo    *repository.UserRepo
	Scheduler   *scheduler.CronProvider
}

// New wires repositories, collaborators, and services from the provided
// deps, registers catalog configurations, and restores persisted audit
// schedules onto the in-process scheduler.
func New(ctx context.Context, deps Deps) (*App, error) {
	logger := deps.Logger

	// === Repositories ===
	userRepo := repository.NewUserRepo(deps.WriteDB)
	groupRepo := repository.NewGroupRepo(deps.WriteDB)
	catalogRepo := repository.NewCatalogRepo(deps.WriteDB)
	recordRepo := repository.NewResourceRecordRepo(deps.WriteDB)
	requestRepo := repository.NewApprovalRequestRepo(deps.WriteDB)

	// === Scheduler, fed back into the audit dispatcher ===
	dispatcher := audit.NewDispatcher(catalogRepo, deps.Plugins, logger)
	cronProvider := scheduler.NewCronProvider(dispatcher.HandleSchedulerEvent, logger.With("component", "scheduler"))

	// === Permission evaluation ===
	checkers := authz.NewCheckers(userRepo, groupRepo, recordRepo)
	evaluator := authz.NewEvaluator(checkers, recordRepo)
	resolver := resource.NewResolver(recordRepo)

	// === Catalog configuration ===
	systemFlow := approval.NewSystemFlow(catalogRepo, recordRepo, resolver, evaluator)
	for _, spec := range deps.Catalogs.Catalogs {
		types, err := spec.ResolveResourceTypes(deps.Handlers)
		if err != nil {
			return nil, err
		}
		flows, err := spec.ResolveApprovalFlows(deps.FlowHandlers)
		if err != nil {
			return nil, err
		}
		flows = append(flows, systemFlow.Config())
		catalogRepo.SetConfig(spec.ID, types, flows)
		if err := catalogRepo.Ensure(ctx, &domain.Catalog{
			ID:          spec.ID,
			Name:        spec.Name,
			Description: spec.Description,
		}); err != nil {
			return nil, fmt.Errorf("ensure catalog %s: %w", spec.ID, err)
		}
	}

	// === Services ===
	workflow := approval.NewWorkflow(catalogRepo, requestRepo, recordRepo, groupRepo,
		deps.Plugins, cronProvider, logger.With("component", "approval"))
	resourceSvc := resource.NewService(catalogRepo, recordRepo, resolver, evaluator,
		workflow, cronProvider, deps.Plugins, logger.With("component", "resource"))
	auditSvc := audit.NewNotificationService(catalogRepo, recordRepo, userRepo, resolver,
		evaluator, cronProvider, deps.Plugins, logger.With("component", "audit"))
	userSvc := identity.NewUserService(userRepo)
	groupSvc := identity.NewGroupService(groupRepo, userRepo, evaluator, deps.Plugins,
		logger.With("component", "identity"))

	a := &App{
		Users:       userSvc,
		Groups:      groupSvc,
		Resources:   resourceSvc,
		Approvals:   workflow,
		Audits:      auditSvc,
		CatalogRepo: catalogRepo,
		UserRepo:    userRepo,
		Scheduler:   cronProvider,
	}

	if err := a.restoreAuditSchedules(ctx, recordRepo); err != nil {
		logger.Warn("restore audit schedules failed", "error", err)
	}

	return a, nil
}
