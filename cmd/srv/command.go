package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "packbid"
	app.Usage = ""
	app.Commands = []*cli.Command{
		{
			Action:      server.startCron,
			Name:        "cron",
			Usage:       "Start the sweep worker",
			Category:    "Worker",
			Description: `Opens auctions whose start time passed and settles auctions past their deadline.`,
		},
		{
			Action:      server.startSubscriber,
			Name:        "subscriber",
			Usage:       "Start the fact subscriber",
			Category:    "Worker",
			Description: `Consumes won facts from the message queue and keeps the snapshot cache fresh.`,
		},
		{
			Action:   server.migrate,
			Name:     "migrate",
			Usage:    "Migrate database tables",
			Category: "Database",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "version",
					Value: "auto",
					Usage: "The migration version to run",
				},
			},
			Description: `Creates or updates every table of the data model.`,
		},
	}

	s.app = app
}
