// Command pidctl is a command-line client for the pid engine's three
// operations, wired against the same config/storage construction the
// pidgend daemon uses.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vesaakerman/easy-pid-generator/internal/config"
	"github.com/vesaakerman/easy-pid-generator/internal/pid"
	"github.com/vesaakerman/easy-pid-generator/internal/storage"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

var kindFlag string

var rootCmd = &cobra.Command{
	Use:   "pidctl",
	Short: "Mint and inspect DOI/URN persistent identifiers",
	Long: `pidctl talks directly to the pid engine's storage backend
(PID_DB_DRIVER / PID_DB_DSN) to initialize seeds, mint identifiers,
and check whether an identifier has already been minted.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&kindFlag, "kind", "doi", "identifier kind: doi or urn")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(mintCmd)
	rootCmd.AddCommand(existsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveKind() (pid.Kind, error) {
	kind := pid.Kind(kindFlag)
	switch kindFlag {
	case "doi":
		kind = pid.KindDOI
	case "urn":
		kind = pid.KindURN
	default:
		return "", fmt.Errorf("unknown kind %q, want doi or urn", kindFlag)
	}
	return kind, nil
}

func buildGenerator() (*pid.Generator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var store pid.Store
	switch cfg.DatabaseDriver {
	case "postgres":
		pg, err := storage.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := storage.Migrate(context.Background(), pg.DB()); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		store = pg
	default:
		return nil, fmt.Errorf("pidctl requires PID_DB_DRIVER=postgres; the memory backend does not persist across invocations")
	}

	encoderCfg := pid.EncoderConfig{
		DOIPrefix:    cfg.DOIPrefix,
		DOINamespace: cfg.DOINamespace,
		URNNamespace: cfg.URNNamespace,
	}
	return pid.NewGenerator(store, encoderCfg, nowUTC, cfg.Timezone), nil
}

var initCmd = &cobra.Command{
	Use:   "init <seed>",
	Short: "Initialize the seed for a kind (one-time)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := resolveKind()
		if err != nil {
			return err
		}
		var seed uint64
		if _, err := fmt.Sscanf(args[0], "%d", &seed); err != nil {
			return fmt.Errorf("invalid seed %q: %w", args[0], err)
		}
		g, err := buildGenerator()
		if err != nil {
			return err
		}
		if err := g.Initialize(context.Background(), kind, seed); err != nil {
			return err
		}
		fmt.Printf("initialized %s with seed %d\n", kind, seed)
		return nil
	},
}

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint the next identifier for a kind",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := resolveKind()
		if err != nil {
			return err
		}
		g, err := buildGenerator()
		if err != nil {
			return err
		}
		minted, err := g.Generate(context.Background(), kind)
		if err != nil {
			return err
		}
		fmt.Println(minted.Identifier)
		return nil
	},
}

var existsCmd = &cobra.Command{
	Use:   "exists <identifier>",
	Short: "Check whether an identifier has already been minted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := resolveKind()
		if err != nil {
			return err
		}
		g, err := buildGenerator()
		if err != nil {
			return err
		}
		found, err := g.Exists(context.Background(), kind, args[0])
		if err != nil {
			return err
		}
		if found {
			fmt.Println("exists")
		} else {
			fmt.Println("not found")
			os.Exit(1)
		}
		return nil
	},
}
