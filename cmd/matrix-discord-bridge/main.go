// Copyright 2024-2026 Aiku AI
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command matrix-discord-bridge relays chat messages between one Matrix
// room and one Discord channel, in both directions. Matrix senders appear
// on Discord through a webhook with their own name and avatar; Discord
// senders appear on Matrix as messages from the bridge account carrying
// their identity in the body.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.mau.fi/util/exzerolog"

	"github.com/aiku/matrix-discord-bridge/pkg/bridge"
	"github.com/aiku/matrix-discord-bridge/pkg/discord"
	"github.com/aiku/matrix-discord-bridge/pkg/matrix"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "matrix-discord-bridge",
		Usage:   "Relay messages between a Matrix room and a Discord channel",
		Version: fmt.Sprintf("0.1.0 (%s, %s, %s)", Tag, Commit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
				Value:   "config.yaml",
			},
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:  "example-config",
				Usage: "Print an example config file and exit",
				Action: func(_ *cli.Context) error {
					fmt.Print(bridge.ExampleConfig)
					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	cfg, err := bridge.LoadConfig(cliCtx.String("config"))
	if err != nil {
		return err
	}
	log, err := cfg.Logging.Compile()
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	exzerolog.SetupDefaults(log)

	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := matrix.NewCredentialStore(cfg.CredentialsPath)
	creds, err := store.Load()
	if err != nil {
		return err
	}
	if creds == nil {
		// First start: interactive password login, performed exactly once.
		log.Info().Msg("No stored session found, logging in to Matrix")
		creds, err = matrix.Login(ctx, cfg.Matrix.HomeserverURL, cfg.Matrix.User, cfg.Matrix.Password, cfg.Matrix.DeviceName)
		if err != nil {
			log.Error().Err(err).Msg("Matrix login failed")
			return err
		}
		if err := store.Save(creds); err != nil {
			return err
		}
		log.Info().Str("user_id", creds.UserID.String()).Msg("Logged in, session persisted")
	}

	matrixClient, err := matrix.NewClient(cfg.Matrix, creds, *log)
	if err != nil {
		return err
	}
	discordClient, err := discord.NewClient(cfg.Discord, *log)
	if err != nil {
		return err
	}

	engine := bridge.NewEngine(cfg, matrixClient, discordClient, *log)
	if err := engine.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Bridge terminated")
		return err
	}
	log.Info().Msg("Bridge shut down")
	return nil
}
