package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hvirtan/reportpipe/internal"
	"github.com/hvirtan/reportpipe/internal/settings"
	"github.com/hvirtan/reportpipe/internal/store"
	"github.com/hvirtan/reportpipe/internal/yamlio"

	cli "github.com/urfave/cli/v3"

	_ "modernc.org/sqlite"
)

func main() {
	cmd := &cli.Command{
		Name:  "reportpipe",
		Usage: "Export and import ReportPipe configuration as YAML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database",
				Usage:   "SQLite database path",
				Value:   "file:./db.sqlite",
				Sources: cli.EnvVars("REPORTPIPE_DB_PATH"),
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "Default model for agents that do not name one",
				Value:   "claude-sonnet-4-5",
				Sources: cli.EnvVars("REPORTPIPE_LLM_MODEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write agents, data sources, pipelines, schedules and deliveries as multi-document YAML",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Destination file (stdout when omitted)",
					},
				},
				Action: exportAction,
			},
			{
				Name:      "import",
				Usage:     "Create resources from a multi-document YAML file",
				ArgsUsage: "<file>",
				Action:    importAction,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newYAMLIO(command *cli.Command, readonly bool) *yamlio.IO {
	settings.Settings = &settings.AppSettings{
		SQLiteDatabase: command.String("database"),
	}
	db := store.InitDatabase(readonly)
	if !readonly {
		store.RunMigrations(db, internal.MigrationsDir)
	}
	return yamlio.NewIO(
		store.NewAgentSQLiteStore(db, db),
		store.NewDataSourceSQLiteStore(db, db),
		store.NewPipelineSQLiteStore(db, db),
		store.NewScheduleSQLiteStore(db, db),
		store.NewDeliverySQLiteStore(db, db),
		command.String("model"),
	)
}

func exportAction(ctx context.Context, command *cli.Command) error {
	yio := newYAMLIO(command, true)
	text, err := yio.Export(ctx)
	if err != nil {
		return err
	}
	if output := command.String("output"); output != "" {
		return os.WriteFile(output, []byte(text), 0o644)
	}
	fmt.Print(text)
	return nil
}

func importAction(ctx context.Context, command *cli.Command) error {
	path := command.Args().First()
	if path == "" {
		return fmt.Errorf("usage: reportpipe import <file>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	yio := newYAMLIO(command, false)
	result, err := yio.Import(ctx, string(data))
	if err != nil {
		return err
	}
	for _, res := range result.Created {
		fmt.Printf("created %s %q\n", res.Kind, res.Name)
	}
	for _, res := range result.Skipped {
		fmt.Printf("skipped %s %q (already exists)\n", res.Kind, res.Name)
	}
	for _, message := range result.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", message)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d document(s) failed to import", len(result.Errors))
	}
	return nil
}
