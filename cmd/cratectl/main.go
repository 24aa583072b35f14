package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Usando apenas as variáveis do ambiente.")
	}

	rootCmd := &cobra.Command{
		Use:   "cratectl",
		Short: "Ferramentas administrativas do CrateTrack",
		Long: `cratectl reúne as tarefas operacionais do CrateTrack:
migrações do banco (goose) e emissão de tokens para dispositivos e integrações.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
