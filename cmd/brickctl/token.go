package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/annel0/brick-sandbox/internal/auth"
	"github.com/annel0/brick-sandbox/internal/config"
	"github.com/spf13/cobra"
)

var (
	tokenRole    string
	tokenSubject string
	tokenSecret  string
	tokenTTL     time.Duration
	newSecret    bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Выпустить токен для REST API",
	Long: `Подписывает HS256-токен секретом server.auth_secret из конфигурации
(или --secret). С --new-secret печатает новый случайный секрет.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if newSecret {
			secret, err := auth.GenerateSecureSecret()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, secret)
			return nil
		}

		role, err := auth.ParseRole(tokenRole)
		if err != nil {
			return err
		}

		secret := tokenSecret
		if secret == "" {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			secret = cfg.Server.AuthSecret
		}
		if secret == "" {
			return errors.New("no secret: set server.auth_secret or pass --secret")
		}

		issuer, err := auth.NewTokenIssuer(secret, tokenTTL)
		if err != nil {
			return err
		}

		token, err := issuer.Issue(tokenSubject, role)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(auth.RoleBuilder), "роль: builder или viewer")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "brickctl", "subject токена")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "base64 секрет (по умолчанию из конфигурации)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTTL, "срок жизни токена")
	tokenCmd.Flags().BoolVar(&newSecret, "new-secret", false, "сгенерировать новый секрет")
	rootCmd.AddCommand(tokenCmd)
}
