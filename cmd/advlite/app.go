package main

import (
	"fmt"

	"github.com/murenne/ADVLite/internal/config"
	"github.com/urfave/cli/v2"
)

func buildApp() *cli.App {
	return &cli.App{
		Name:    "advlite",
		Usage:   "play Lua visual novel scenarios in the terminal",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config/advlite.toml",
				Usage:   "path to the TOML config",
				EnvVars: []string{"ADVLITE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "play",
				Usage:     "run a scenario",
				ArgsUsage: "<script>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "chapter", Value: 1, Usage: "chapter number handed to the scenario"},
					&cli.IntFlag{Name: "line", Usage: "fast-forward to this script line (1-based)"},
					&cli.BoolFlag{Name: "headless", Usage: "log lines instead of drawing, advancing on every frame"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					script := c.Args().First()
					if script == "" {
						return fmt.Errorf("play: missing script name")
					}
					return runPlay(c.Context, cfg, playOptions{
						script:   script,
						chapter:  c.Int("chapter"),
						line:     c.Int("line"),
						headless: c.Bool("headless"),
					})
				},
			},
			{
				Name:  "check",
				Usage: "compile every script in the script directory",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return runCheck(c.Context, cfg)
				},
			},
			{
				Name:  "migrate",
				Usage: "apply the backlog database migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "revert the most recent migration"},
					&cli.BoolFlag{Name: "status", Usage: "print the applied version only"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return runMigrate(c.Context, cfg, c.Bool("down"), c.Bool("status"))
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
