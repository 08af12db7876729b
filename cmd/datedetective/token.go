package main

import (
	"fmt"

	"github.com/jonathan/datedetective/internal/config"
	"github.com/jonathan/datedetective/internal/server"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <client>",
	Short: "Issue a bearer token for the REST API",
	Long:  "Sign a JWT for the named client with JWT_SECRET. The server accepts it while JWT_SECRET is unchanged and the token has not expired.",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	token, err := server.NewJWTService(jwtConfig).GenerateToken(args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
