// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

// Command tokengen mints operator tokens for a server running with
// AUTH_MODE=jwt.
//
//	JWT_SECRET=... tokengen --subject alice --ttl 12h
//
// The token is printed on stdout; use it as "Authorization: Bearer <token>"
// on POST /rag/upload, DELETE /rag/documents and DELETE /rag/memory.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/bhashasutra/internal/auth"
	"github.com/tomtom215/bhashasutra/internal/config"
)

type options struct {
	subject string
	role    string
	ttl     time.Duration
	secret  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "tokengen",
		Short: "Mint a Bhashasutra operator token",
		Long: `Mint an HS256 token accepted by the upload and delete routes.

The signing secret comes from --secret, or else from the server
configuration (JWT_SECRET, config.yaml).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.subject, "subject", "s", "operator", "token subject (sub claim)")
	cmd.Flags().StringVar(&opts.role, "role", auth.RoleOperator, "role claim")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "token lifetime; 0 uses security.session_timeout")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "signing secret; overrides JWT_SECRET")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	security, err := securityConfig(opts.secret)
	if err != nil {
		return err
	}

	manager, err := auth.NewJWTManager(security)
	if err != nil {
		return err
	}
	token, err := manager.GenerateToken(opts.subject, opts.role, opts.ttl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

func securityConfig(secret string) (*config.SecurityConfig, error) {
	if secret != "" {
		return &config.SecurityConfig{JWTSecret: secret}, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg.Security, nil
}
