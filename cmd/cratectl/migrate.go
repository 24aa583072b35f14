package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"cratetrack/config"
	"cratetrack/internal/pkg/database"
	"cratetrack/migrations"
)

var migrateCommands = []struct {
	use   string
	short string
}{
	{"up", "Aplica todas as migrações pendentes"},
	{"down", "Desfaz a última migração"},
	{"redo", "Desfaz e reaplica a última migração"},
	{"reset", "Desfaz todas as migrações"},
	{"status", "Mostra o estado de cada migração"},
	{"version", "Mostra a versão atual do banco"},
}

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrações do banco PostgreSQL",
		Long: `Executa as migrações goose contra DATABASE_URL.

Por padrão usa as migrações embutidas no binário; --dir aponta para um diretório no disco.

Exemplos:
  cratectl migrate up
  cratectl migrate status
  cratectl migrate up --dir ./migrations`,
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "diretório com as migrações (vazio usa as embutidas)")

	for _, mc := range migrateCommands {
		command := mc.use
		cmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: mc.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigration(cmd.Context(), command, dir)
			},
		})
	}

	return cmd
}

func runMigration(ctx context.Context, command, dir string) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	db, err := database.NewPostgresDB(cfg.DatabaseURL, cfg.DBTimeout)
	if err != nil {
		return fmt.Errorf("goose: falha ao conectar ao banco: %w", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if dir == "" {
		goose.SetBaseFS(migrations.FS)
		dir = "."
	} else {
		goose.SetBaseFS(nil)
	}

	if err := goose.RunContext(ctx, command, db, dir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	color.Green("✓ goose %s concluído", command)
	return nil
}
