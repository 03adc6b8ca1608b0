package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/jobvyne/navguard/internal/guard"
	"github.com/jobvyne/navguard/internal/logger"
	"github.com/jobvyne/navguard/internal/permission"
	"github.com/jobvyne/navguard/internal/requester"
	"github.com/jobvyne/navguard/internal/route"
	"github.com/jobvyne/navguard/internal/server"
	"github.com/jobvyne/navguard/internal/social"
	"github.com/jobvyne/navguard/internal/store"
	"github.com/jobvyne/navguard/internal/usertype"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	Execute()
}

const startTimeout = 15 * time.Second

var (
	cookies     []string
	knownDeploy string
	asJSON      bool

	redirectPage string
	userTypeBit  int
	isLogin      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "navguard",
	Short: "Route guard for the JobVyne client",
	Long: `navguard decides where a JobVyne visitor may go. It checks the visitor's session,
role and page permissions against the JobVyne API and returns either the requested
page or the redirect the client has to follow.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the navigation HTTP service",
	RunE:  runServe,
}

var navigateCmd = &cobra.Command{
	Use:   "navigate <path>",
	Short: "Resolve one navigation and print the outcome",
	Args:  cobra.ExactArgs(1),
	RunE:  runNavigate,
}

var oauthURLCmd = &cobra.Command{
	Use:   "oauth-url <provider>",
	Short: "Print the consent URL of a social sign-in provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runOAuthURL,
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table with its page permissions",
	RunE:  runRoutes,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")

	navigateCmd.Flags().StringArrayVar(&cookies, "cookie", nil, "Cookie to send to the API as name=value (repeatable)")
	navigateCmd.Flags().StringVar(&knownDeploy, "known-deploy", "", "Deploy timestamp the client was loaded with")
	navigateCmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")

	oauthURLCmd.Flags().StringVar(&redirectPage, "redirect-page", "", "Client path to open after sign-in")
	oauthURLCmd.Flags().IntVar(&userTypeBit, "user-type-bit", 0, "Role bit the visitor signs in as")
	oauthURLCmd.Flags().BoolVar(&isLogin, "login", false, "Sign in to an existing account")

	rootCmd.AddCommand(serveCmd, navigateCmd, oauthURLCmd, routesCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var srv *server.Server
	app := fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.GetLogger()}
		}),
		config.Module,
		requester.Module,
		store.Module,
		guard.Module,
		server.Module,
		fx.Populate(&srv),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	serveErr := srv.Start(ctx)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), startTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("stop: %w", err)
	}
	return serveErr
}

func parseCookies(raw []string) ([]*http.Cookie, error) {
	out := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		name, value, ok := strings.Cut(c, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("cookie %q is not name=value", c)
		}
		out = append(out, &http.Cookie{Name: name, Value: value})
	}
	return out, nil
}

func runNavigate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	jar, err := parseCookies(cookies)
	if err != nil {
		return err
	}

	routes, err := guard.LoadRoutes(cfg)
	if err != nil {
		return err
	}
	pages, err := guard.LoadPages(cfg)
	if err != nil {
		return err
	}
	api := requester.NewHTTPRequester(requester.HTTPRequesterParams{
		APIConfig:   &cfg.API,
		AuthManager: requester.NewSessionAuthManager(&cfg.API, jar),
	})
	tracker := guard.NewPageViewTracker(cfg.Server.PageViewTimeout)
	g, err := guard.New(guard.Deps{API: api, Pages: pages, Routes: routes, Tracker: tracker})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out, err := g.ForVisitor(api, knownDeploy).Navigate(ctx, args[0])
	if err != nil {
		return err
	}
	if err := tracker.Flush(ctx); err != nil {
		pterm.Warning.Println("page view not sent:", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return pterm.DefaultTable.WithData(pterm.TableData{
		{"Outcome", out.Kind.String()},
		{"Location", out.Location.URL()},
		{"Route", out.Location.Name},
		{"Can edit", strconv.FormatBool(out.Meta.CanEdit)},
		{"Reload", strconv.FormatBool(out.Reload)},
		{"Reason", out.Reason},
	}).Render()
}

func runOAuthURL(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	api := requester.NewHTTPRequester(requester.HTTPRequesterParams{APIConfig: &cfg.API})
	svc := social.NewService(api, &cfg.OAuth)

	redirect := social.Redirect{Page: redirectPage}
	if cmd.Flags().Changed("user-type-bit") {
		redirect.UserTypeBit = &userTypeBit
	}
	if cmd.Flags().Changed("login") {
		redirect.IsLogin = &isLogin
	}
	authURL, err := svc.AuthURL(cmd.Context(), args[0], redirect)
	if err != nil {
		return err
	}
	fmt.Println(authURL)
	return nil
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	routes, err := guard.LoadRoutes(cfg)
	if err != nil {
		return err
	}
	pages, err := guard.LoadPages(cfg)
	if err != nil {
		return err
	}

	data := pterm.TableData{{"Name", "Path", "Access", "Roles", "Email", "View", "Edit"}}
	for _, r := range routes.Routes() {
		data = append(data, routeRow(r, pages))
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("%s routes, %s permission pages.",
		pterm.LightGreen(len(routes.Routes())),
		pterm.White(len(pages.Pages())))
	return nil
}

func routeRow(r route.Route, pages *permission.Table) []string {
	access := "signed in"
	if r.Meta.IsNoAuth {
		access = "public"
	}
	if r.Meta.TrackRoute {
		access += ", tracked"
	}
	roles := "-"
	if names := usertype.Names(r.Meta.UserTypeBits, usertype.None); len(names) > 0 {
		roles = strings.Join(names, " | ")
	}

	email, view, edit := "-", "-", "-"
	if p, err := pages.Page(r.PageKey()); err == nil {
		email = p.EmailCheck.String()
		view = permission.Describe(p.View)
		edit = permission.Describe(p.Edit)
	}
	return []string{r.Name, r.Path, access, roles, email, view, edit}
}
