package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/log"

	cmdUtils "github.com/72mo2c/pero-system-sub002/cmd/utils"
	"github.com/72mo2c/pero-system-sub002/db"
	"github.com/72mo2c/pero-system-sub002/internal/activitylog"
	"github.com/72mo2c/pero-system-sub002/internal/data"
	"github.com/72mo2c/pero-system-sub002/internal/lifecycle"
	"github.com/72mo2c/pero-system-sub002/internal/monitor"
	"github.com/72mo2c/pero-system-sub002/internal/provisioning"
	"github.com/72mo2c/pero-system-sub002/internal/tenant"
	"github.com/72mo2c/pero-system-sub002/internal/utils"
)

const (
	defaultCLIActor = "cli"
	dateLayout      = "2006-01-02"
)

// TenantDependencies are the services the tenants commands run against.
type TenantDependencies struct {
	Registry         tenant.ManagerInterface
	LifecycleManager lifecycle.ManagerInterface
	Close            func()
}

type TenantDependenciesFactory func(ctx context.Context, globalOptions cmdUtils.GlobalOptionsType) (*TenantDependencies, error)

// NewTenantDependencies wires the tenant registry and the lifecycle manager the same way the API server does.
func NewTenantDependencies(ctx context.Context, globalOptions cmdUtils.GlobalOptionsType) (*TenantDependencies, error) {
	monitorService := &monitor.MonitorService{}
	err := monitorService.Start(monitor.MetricOptions{MetricType: monitor.MetricTypePrometheus, Environment: globalOptions.Environment})
	if err != nil {
		return nil, fmt.Errorf("starting monitor service: %w", err)
	}

	registryPool, err := db.OpenDBConnectionPoolWithMetrics(globalOptions.DatabaseURL, db.DefaultDBPoolConfig, monitorService)
	if err != nil {
		return nil, fmt.Errorf("connecting to the registry database: %w", err)
	}

	provider, err := tenant.NewMultiTenantDataSourceRouter(tenant.DataSourceRouterOptions{
		MainDBConnectionPool: registryPool,
		TenantDatabasePrefix: globalOptions.TenantDatabasePrefix,
	})
	if err != nil {
		_ = registryPool.Close()
		return nil, fmt.Errorf("creating tenant data source router: %w", err)
	}

	closeFn := func() {
		if closeErr := provider.Close(); closeErr != nil {
			log.Ctx(ctx).Errorf("closing tenant database connections: %v", closeErr)
		}
		if closeErr := registryPool.Close(); closeErr != nil {
			log.Ctx(ctx).Errorf("closing registry database connection: %v", closeErr)
		}
	}

	deps, err := newTenantDependencies(registryPool, provider, monitorService, globalOptions.TenantDatabasePrefix)
	if err != nil {
		closeFn()
		return nil, err
	}
	deps.Close = closeFn

	return deps, nil
}

func newTenantDependencies(registryPool db.DBConnectionPool, provider tenant.ConnectionProvider, monitorService monitor.MonitorServiceInterface, prefix string) (*TenantDependencies, error) {
	registry := tenant.NewManager(tenant.WithDatabase(registryPool), tenant.WithTenantDatabasePrefix(prefix))

	activityLogger, err := activitylog.NewLogger(registryPool, monitorService)
	if err != nil {
		return nil, fmt.Errorf("creating activity logger: %w", err)
	}

	executor, err := provisioning.NewManager(provisioning.ManagerOptions{
		ConnectionProvider:   provider,
		MonitorService:       monitorService,
		TenantDatabasePrefix: prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("creating provisioning executor: %w", err)
	}

	lifecycleManager, err := lifecycle.NewManager(lifecycle.ManagerOptions{
		Registry:       registry,
		Executor:       executor,
		ActivityLogger: activityLogger,
		MonitorService: monitorService,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tenant lifecycle manager: %w", err)
	}

	return &TenantDependencies{Registry: registry, LifecycleManager: lifecycleManager}, nil
}

type ConfirmerInterface interface {
	Confirm(label string) (bool, error)
}

// PromptConfirmer asks for a yes/no answer on the terminal.
type PromptConfirmer struct{}

var _ ConfirmerInterface = (*PromptConfirmer)(nil)

func (p *PromptConfirmer) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	res, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("reading confirmation: %w", err)
	}

	return strings.EqualFold(res, "y"), nil
}

type TenantsCommand struct{}

// Command returns the `tenants` command, which runs the tenant lifecycle operations from a terminal. Every change
// is recorded in the activity log under the --actor name.
func (c *TenantsCommand) Command(newDependencies TenantDependenciesFactory, confirmer ConfirmerInterface) *cobra.Command {
	var actor string
	var deps *TenantDependencies

	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Tenant lifecycle commands",
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if deps != nil && deps.Close != nil {
				deps.Close()
			}
		},
		RunE: cmdUtils.CallHelpCommand,
	}
	// Subcommands have no hooks of their own, so this one runs with the leaf command.
	cmd.PersistentPreRunE = func(leaf *cobra.Command, args []string) error {
		cmdUtils.PropagatePersistentPreRun(cmd, args)

		actor = strings.TrimSpace(actor)
		if actor == "" {
			return fmt.Errorf("actor cannot be empty")
		}

		if leaf == cmd {
			return nil
		}

		var err error
		deps, err = newDependencies(leaf.Context(), globalOptions)
		if err != nil {
			return fmt.Errorf("setting up tenant dependencies: %w", err)
		}
		return nil
	}
	cmd.PersistentFlags().StringVar(&actor, "actor", defaultCLIActor, "The operator name recorded in the activity log")

	getDeps := func() *TenantDependencies { return deps }

	cmd.AddCommand(c.listCmd(getDeps))
	cmd.AddCommand(c.addCmd(getDeps, &actor))
	cmd.AddCommand(c.idCmd(getDeps, "approve", "Approve a pending tenant and provision its database", func(ctx context.Context, d *TenantDependencies, id int64) (*tenant.Tenant, error) {
		result, err := d.LifecycleManager.ApproveTenant(ctx, actor, id)
		if result == nil {
			return nil, err
		}
		warnIfDegraded(ctx, result)
		return result.Tenant, err
	}))
	cmd.AddCommand(c.idCmd(getDeps, "toggle", "Suspend an active tenant or reactivate a suspended one", func(ctx context.Context, d *TenantDependencies, id int64) (*tenant.Tenant, error) {
		return d.LifecycleManager.ToggleActive(ctx, actor, id)
	}))
	cmd.AddCommand(c.idCmd(getDeps, "cancel", "Cancel the subscription of a tenant. Its database is kept.", func(ctx context.Context, d *TenantDependencies, id int64) (*tenant.Tenant, error) {
		return d.LifecycleManager.CancelTenant(ctx, actor, id)
	}))
	cmd.AddCommand(c.idCmd(getDeps, "delete", "Remove a tenant from the registry. Its database is kept and reported as orphaned.", func(ctx context.Context, d *TenantDependencies, id int64) (*tenant.Tenant, error) {
		return d.LifecycleManager.DeleteTenant(ctx, actor, id)
	}))
	cmd.AddCommand(c.extendCmd(getDeps, &actor))
	cmd.AddCommand(c.orphanedDatabasesCmd(getDeps))
	cmd.AddCommand(c.purgeDatabaseCmd(getDeps, &actor, confirmer))

	return cmd
}

// resolveTenantID accepts either the numeric id or the tenant ID.
func resolveTenantID(ctx context.Context, registry tenant.ManagerInterface, ref string) (int64, error) {
	t, err := registry.GetTenantByIDOrTenantID(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("getting tenant %s: %w", ref, err)
	}
	return t.ID, nil
}

func (c *TenantsCommand) idCmd(getDeps func() *TenantDependencies, use, short string, action func(ctx context.Context, d *TenantDependencies, id int64) (*tenant.Tenant, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id|tenant-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d := getDeps()

			id, err := resolveTenantID(ctx, d.Registry, args[0])
			if err != nil {
				return err
			}

			t, err := action(ctx, d, id)
			if t != nil {
				printTenants(cmd.OutOrStdout(), []tenant.Tenant{*t})
			}
			if err != nil {
				return fmt.Errorf("running %s on tenant %s: %w", use, args[0], err)
			}
			return nil
		},
	}
}

func (c *TenantsCommand) extendCmd(getDeps func() *TenantDependencies, actor *string) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "extend <id|tenant-id>",
		Short: "Extend the subscription of a tenant by a number of days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < tenant.MinExtensionDays || days > tenant.MaxExtensionDays {
				return fmt.Errorf("days must be between %d and %d", tenant.MinExtensionDays, tenant.MaxExtensionDays)
			}

			ctx := cmd.Context()
			d := getDeps()

			id, err := resolveTenantID(ctx, d.Registry, args[0])
			if err != nil {
				return err
			}

			t, err := d.LifecycleManager.ExtendSubscription(ctx, *actor, id, days)
			if err != nil {
				return fmt.Errorf("extending subscription of tenant %s: %w", args[0], err)
			}

			printTenants(cmd.OutOrStdout(), []tenant.Tenant{*t})
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Number of days to add to the subscription")

	return cmd
}

func (c *TenantsCommand) addCmd(getDeps func() *TenantDependencies, actor *string) *cobra.Command {
	var ti tenant.TenantInsert
	var companyNameEN, phone, address, city, plan, start, end string
	var approve bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new tenant, optionally approving it right away",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ti.CompanyNameEN = utils.NilIfEmpty(companyNameEN)
			ti.Phone = utils.NilIfEmpty(phone)
			ti.Address = utils.NilIfEmpty(address)
			ti.City = utils.NilIfEmpty(city)
			ti.SubscriptionPlan = tenant.SubscriptionPlan(plan)

			var err error
			if ti.SubscriptionStart, err = parseOptionalDate("start", start); err != nil {
				return err
			}
			if ti.SubscriptionEnd, err = parseOptionalDate("end", end); err != nil {
				return err
			}

			ctx := cmd.Context()
			result, err := getDeps().LifecycleManager.SubmitTenant(ctx, *actor, &ti, approve)
			if result != nil {
				warnIfDegraded(ctx, result)
				printTenants(cmd.OutOrStdout(), []tenant.Tenant{*result.Tenant})
			}
			if err != nil {
				var validationErr *tenant.ValidationError
				if errors.As(err, &validationErr) {
					for field, msg := range validationErr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
					}
				}
				return fmt.Errorf("registering tenant: %w", err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&ti.TenantID, "tenant-id", "", "Unique tenant ID, also used to name the tenant database (required)")
	flags.StringVar(&ti.CompanyName, "company-name", "", "Company name (required)")
	flags.StringVar(&companyNameEN, "company-name-en", "", "Company name in English")
	flags.StringVar(&ti.ContactPerson, "contact-person", "", "Name of the contact person (required)")
	flags.StringVar(&ti.Email, "contact-email", "", "Email of the contact person (required)")
	flags.StringVar(&phone, "phone", "", "Phone number in E.164 format")
	flags.StringVar(&address, "address", "", "Postal address")
	flags.StringVar(&city, "city", "", "City")
	flags.StringVar(&plan, "plan", string(tenant.TrialPlan), fmt.Sprintf("Subscription plan. Options: %v", tenant.PlanNames()))
	flags.StringVar(&start, "start", "", "First day of the subscription (YYYY-MM-DD). Defaults to today.")
	flags.StringVar(&end, "end", "", "Last day of the subscription (YYYY-MM-DD). Defaults to the plan duration.")
	flags.BoolVar(&approve, "approve", false, "Approve the tenant and provision its database right away")

	return cmd
}

// warnIfDegraded reports a tenant that was saved but whose database could not be provisioned.
func warnIfDegraded(ctx context.Context, result *lifecycle.ApprovalResult) {
	if !result.Degraded {
		return
	}
	log.Ctx(ctx).Warnf("Tenant %s is %s because its database could not be provisioned: %s. Approve it again to retry.",
		result.Tenant.TenantID, result.Tenant.Status, result.FailureSummary())
}

func parseOptionalDate(name, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid %s date %q, expected YYYY-MM-DD", name, value)
	}
	return &date, nil
}

func (c *TenantsCommand) listCmd(getDeps func() *TenantDependencies) *cobra.Command {
	var query, status, plan string
	var expired bool
	var page, pageLimit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			qp := &tenant.QueryParams{
				Query:     query,
				Page:      page,
				PageLimit: pageLimit,
				SortBy:    data.SortFieldCreatedAt,
				SortOrder: data.SortOrderDESC,
				Filters:   map[tenant.FilterKey]interface{}{},
			}

			if status != "" {
				parsed, err := tenant.ParseTenantStatus(status)
				if err != nil {
					return err
				}
				qp.Filters[tenant.FilterKeyStatus] = parsed
			}
			if plan != "" {
				p := tenant.SubscriptionPlan(utils.TrimAndLower(plan))
				if !p.IsValid() {
					return fmt.Errorf("invalid subscription plan %q", plan)
				}
				qp.Filters[tenant.FilterKeyPlan] = p
			}
			if expired {
				qp.Filters[tenant.FilterKeyExpired] = true
			}

			tenantsPage, err := getDeps().Registry.SearchTenants(cmd.Context(), qp)
			if err != nil {
				return fmt.Errorf("listing tenants: %w", err)
			}

			printTenants(cmd.OutOrStdout(), tenantsPage.Tenants)
			fmt.Fprintf(cmd.OutOrStdout(), "\npage %d of %d, %d tenants\n", tenantsPage.Page, tenantsPage.TotalPages(), tenantsPage.Total)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&query, "query", "", "Search the tenant ID, company names, contact person and email")
	flags.StringVar(&status, "status", "", fmt.Sprintf("Only list tenants with this status. Options: %v", tenant.TenantStatuses()))
	flags.StringVar(&plan, "plan", "", "Only list tenants with this subscription plan")
	flags.BoolVar(&expired, "expired", false, "Only list tenants whose subscription ended")
	flags.IntVar(&page, "page", data.DefaultPage, "Page number")
	flags.IntVar(&pageLimit, "page-limit", data.DefaultPageLimit, "Tenants per page")

	return cmd
}

func (c *TenantsCommand) orphanedDatabasesCmd(getDeps func() *TenantDependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "orphaned-databases",
		Short: "List the tenant databases that no registered tenant points to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := getDeps().Registry.ListOrphanedDatabases(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing orphaned databases: %w", err)
			}

			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No orphaned databases.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (c *TenantsCommand) purgeDatabaseCmd(getDeps func() *TenantDependencies, actor *string, confirmer ConfirmerInterface) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge-database <database-name>",
		Short: "Drop an orphaned tenant database. This cannot be undone.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			if !yes {
				confirmed, err := confirmer.Confirm(fmt.Sprintf("Drop database %s and all of its data", name))
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Purge cancelled.")
					return nil
				}
			}

			if err := getDeps().LifecycleManager.PurgeTenantDatabase(ctx, *actor, name); err != nil {
				return fmt.Errorf("purging database %s: %w", name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database %s was dropped.\n", name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

func printTenants(out io.Writer, tenants []tenant.Tenant) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTENANT ID\tCOMPANY\tPLAN\tSTATUS\tSUBSCRIPTION END\tDATABASE")
	for _, t := range tenants {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.TenantID, t.CompanyName, t.SubscriptionPlan, t.Status, t.SubscriptionEnd.Format(dateLayout), databaseColumn(t))
	}
	_ = w.Flush()
}

func databaseColumn(t tenant.Tenant) string {
	if t.IsProvisioned() {
		return t.DatabaseName
	}
	if t.ProvisioningError != nil {
		return "failed: " + *t.ProvisioningError
	}
	return "-"
}
