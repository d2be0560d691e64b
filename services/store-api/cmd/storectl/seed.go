package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"superfoods-store/services/store-api/internal/repo"
	"superfoods-store/services/store-api/internal/service"
)

//go:embed products.json
var defaultProducts []byte

func parseSeed(b []byte) ([]service.ProductFields, error) {
	var out []service.ProductFields
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return out, nil
}

func newSeedProductsCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-products",
		Short: "Insert the starter catalog, skipping products that already exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw := defaultProducts
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				raw = b
			}
			seed, err := parseSeed(raw)
			if err != nil {
				return err
			}

			catalog := &service.CatalogService{
				Products: &repo.ProductsPG{DB: a.pool, Outbox: &repo.OutboxPG{}},
			}
			created, skipped := 0, 0
			for _, f := range seed {
				p, err := catalog.Create(cmd.Context(), f)
				if errors.Is(err, service.ErrProductExists) {
					skipped++
					continue
				}
				if err != nil {
					return fmt.Errorf("seed product: %w", err)
				}
				created++
				a.log.Info().Str("product_id", p.ID).Str("slug", p.Slug).Msg("product seeded")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d created, %d already present\n", created, skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON array of products (defaults to the built-in catalog)")
	return cmd
}
