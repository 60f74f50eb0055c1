package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Simplici0/printquote/internal/config"
	"github.com/Simplici0/printquote/internal/migrations"
	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/quoting"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, appOptions{migrateInDev: true, seed: true})
			if err != nil {
				return err
			}
			defer a.Close()

			srv := &server{svc: a.svc, logger: a.logger, uploadDir: a.cfg.UploadDir}
			return listenAndServe(ctx, ":"+a.cfg.Port, srv)
		},
	}
}

func listenAndServe(ctx context.Context, addr string, s *server) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return httpServer.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), appOptions{migrate: true})
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := migrations.Version(a.database)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default pricing config and material catalog if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), appOptions{seed: true})
			if err != nil {
				return err
			}
			return a.Close()
		},
	}
}

func newQuoteCmd() *cobra.Command {
	var (
		material string
		volume   float64
		quantity int
		post     float64
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a part with the current pricing config without storing a quote",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := pricing.ParseMaterialKey(material)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			cfg, err := a.svc.CurrentConfig(cmd.Context())
			if err != nil {
				return err
			}

			breakdown, err := pricing.Price(cfg, pricing.PriceInput{
				Material:              key,
				VolumeMM3:             volume,
				Quantity:              quantity,
				PostProcessingMinutes: post,
			})
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), struct {
				ConfigVersion string            `json:"config_version"`
				Breakdown     pricing.Breakdown `json:"breakdown"`
			}{cfg.Version, breakdown})
		},
	}

	cmd.Flags().StringVarP(&material, "material", "m", string(pricing.PLA), "material family")
	cmd.Flags().Float64Var(&volume, "volume", 0, "part volume in mm3")
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "number of parts")
	cmd.Flags().Float64Var(&post, "post-minutes", 0, "post-processing minutes per part")
	_ = cmd.MarkFlagRequired("volume")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and propose pricing configs",
	}

	var at string
	currentCmd := &cobra.Command{
		Use:   "current",
		Short: "Print the pricing config quotes are priced with",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			var cfg pricing.Config
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				cfg, err = a.svc.ConfigAsOf(cmd.Context(), t)
				if err != nil {
					return err
				}
			} else {
				cfg, err = a.svc.CurrentConfig(cmd.Context())
				if err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), toConfigResponse(cfg))
		},
	}
	currentCmd.Flags().StringVar(&at, "at", "", "RFC3339 instant to resolve the config for")

	var file string
	proposeCmd := &cobra.Command{
		Use:   "propose",
		Short: "Append a pricing config read from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := config.LoadPricingFile(file)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			cfg, err := a.svc.ProposeConfig(cmd.Context(), quoting.ProposeConfigInput{
				Version:       pf.Version,
				EffectiveFrom: pf.EffectiveFrom,
				Parameters:    pf.Parameters,
				CreatedBy:     pf.CreatedBy,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toConfigResponse(cfg))
		},
	}
	proposeCmd.Flags().StringVarP(&file, "file", "f", "", "pricing YAML file")
	_ = proposeCmd.MarkFlagRequired("file")

	cmd.AddCommand(currentCmd, proposeCmd)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
