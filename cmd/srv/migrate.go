package main

import (
	"fmt"

	"github.com/packbid/backend/migration"
	"github.com/packbid/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) migrate(cctx *cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadDatabase()

	version := cctx.String("version")
	migrator, ok := migration.Migrators[version]
	if !ok {
		return fmt.Errorf("not found version %s", version)
	}

	if err := migrator(s.ctx); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Migration completed")
	return nil
}
