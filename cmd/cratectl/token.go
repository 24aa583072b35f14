package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cratetrack/config"
	"cratetrack/internal/domain"
	"cratetrack/internal/pkg/token"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emissão de tokens JWT",
	}
	cmd.AddCommand(tokenIssueCmd())
	return cmd
}

func tokenIssueCmd() *cobra.Command {
	var (
		tenantID string
		userID   string
		role     string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Emite um token para um tenant",
		Long: `Emite um JWT assinado com JWT_SECRET_KEY, útil para leitores NFC e integrações
que não fazem login com email e senha.

Exemplos:
  cratectl token issue --tenant armazem-sul --role operator
  cratectl token issue --tenant armazem-sul --user leitor-07 --role operator --ttl 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" {
				return fmt.Errorf("--tenant é obrigatório")
			}
			if !domain.UserRole(role).Valid() {
				return fmt.Errorf("role inválida: %q (use admin, operator ou viewer)", role)
			}
			if userID == "" {
				userID = uuid.NewString()
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.TokenExpiry
			}

			tok, err := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry).GenerateTokenWithExpiry(userID, tenantID, role, ttl)
			if err != nil {
				return err
			}

			bold := color.New(color.Bold).SprintFunc()
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s  %s %s  %s %s  %s %s\n",
				bold("tenant:"), tenantID, bold("user:"), userID, bold("role:"), color.CyanString(role), bold("expira em:"), ttl)
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant do token")
	cmd.Flags().StringVar(&userID, "user", "", "ID do usuário (padrão: UUID aleatório)")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "role: admin, operator ou viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "validade do token (padrão: JWT_EXPIRY_MIN)")

	return cmd
}
