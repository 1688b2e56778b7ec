// @title Raffle Payments API
// @version 1.0
// @description Raffle ticket checkout with BTCPay invoices, webhook reconciliation and winner drawing.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rafflepay/config"
	_ "rafflepay/docs"
	"rafflepay/internal/adapters/auth"
	delivery "rafflepay/internal/delivery/http"
	"rafflepay/internal/delivery/http/controllers"
	"rafflepay/internal/domain"
)

const shutdownTimeout = 15 * time.Second

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rafflepay",
		Short:         "Raffle ticket sales paid through BTCPay Server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(drawCmd())
	rootCmd.AddCommand(tokenCmd())
	return rootCmd
}

// withApp loads config, wires the services and closes storage when fn returns.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close storage", "err", err)
		}
	}()
	return fn(ctx, a)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the pending-ticket scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, serve)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	if a.cfg.JWTSecret == "" {
		a.logger.Warn("JWT_SECRET is empty, every bearer token will be rejected")
	}
	handler := delivery.NewRouter(delivery.RouterConfig{
		Logger:         a.logger,
		Verifier:       auth.NewJWTVerifier(a.cfg.JWTSecret),
		AllowedOrigins: a.cfg.AllowedOrigins,
		Raffles:        controllers.NewRaffleController(a.logger, a.raffles),
		Tickets:        controllers.NewTicketController(a.logger, a.raffles),
		Webhooks:       controllers.NewWebhookController(a.logger, a.reconciler),
		Live:           controllers.NewLiveController(a.logger, a.raffles, a.hub, a.cfg.AllowedOrigins),
	})
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http server listening", "addr", srv.Addr, "env", a.cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one reconciliation pass over pending tickets and due raffles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				report, err := a.scheduler.RunOnce(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func drawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "draw <raffleID>",
		Short: "Close a raffle and draw its winner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				result, err := a.raffles.EndRaffle(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		admin    bool
		ttl      time.Duration
		emailTo  string
		username string
	)
	cmd := &cobra.Command{
		Use:   "token <userID>",
		Short: "Issue an access token; with --email also record the user's contact for winner mail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := args[0]
			roles := []string{domain.RoleBuyer}
			if admin {
				roles = append(roles, domain.RoleAdmin)
			}
			if emailTo != "" {
				err := withApp(cmd, func(ctx context.Context, a *app) error {
					return a.store.UpsertUser(ctx, domain.NewUser(userID, emailTo, username))
				})
				if err != nil {
					return fmt.Errorf("save user: %w", err)
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return issueToken(cmd.OutOrStdout(), cfg.JWTSecret, userID, emailTo, roles, ttl)
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&emailTo, "email", "", "contact email stored for the user")
	cmd.Flags().StringVar(&username, "username", "", "display name stored for the user")
	return cmd
}

func issueToken(w io.Writer, secret, userID, email string, roles []string, ttl time.Duration) error {
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	token, err := auth.NewJWTIssuer(secret).Issue(userID, email, roles, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
