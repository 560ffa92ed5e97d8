//
//   Copyright © 2019 Uncharted Software Inc.
//
//   Licensed under the Apache License, Version 2.0 (the "License");
//   you may not use this file except in compliance with the License.
//   You may obtain a copy of the License at
//
//       http://www.apache.org/licenses/LICENSE-2.0
//
//   Unless required by applicable law or agreed to in writing, software
//   distributed under the License is distributed on an "AS IS" BASIS,
//   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//   See the License for the specific language governing permissions and
//   limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"

	log "github.com/unchartedsoftware/plog"

	"github.com/uncharted-distil/distil-madmp/api"
	"github.com/uncharted-distil/distil-madmp/conf"
	"github.com/uncharted-distil/distil-madmp/convert"
	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/metrics"
	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/storage"
	"github.com/uncharted-distil/distil-madmp/util"
)

const shutdownTimeout = time.Second * 15

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Errorf("%+v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "madmp"
	app.Version = "0.1.0"
	app.Usage = "Import and export machine-actionable DMPs"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			Value:  "",
			Usage:  "The YAML configuration file path",
			EnvVar: "MADMP_CONFIG",
		},
		cli.StringFlag{
			Name:  "database",
			Usage: "The postgres database to use",
		},
		cli.StringFlag{
			Name:  "db-host",
			Usage: "The postgres database hostname",
		},
		cli.IntFlag{
			Name:  "db-port",
			Usage: "The postgres database port",
		},
		cli.StringFlag{
			Name:  "db-user",
			Usage: "The database user to use",
		},
		cli.StringFlag{
			Name:  "db-password",
			Usage: "The database password to use for authentication",
		},
		cli.StringFlag{
			Name:  "es-endpoint",
			Usage: "The Elasticsearch endpoint indexing records",
		},
		cli.StringFlag{
			Name:  "s3-bucket",
			Usage: "The S3 bucket archiving imported maDMPs",
		},
		cli.StringFlag{
			Name:  "address",
			Usage: "The REST listen address",
		},
		cli.BoolFlag{
			Name:  "notify",
			Usage: "Send notifications to the DMP tool",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "list",
			Usage:  "List the DMPs with their datasets and records",
			Action: withEnv(list),
		},
		{
			Name:      "import",
			Usage:     "Import a maDMP, `-` reads stdin",
			ArgsUsage: "<file>",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "dry-run",
					Usage: "Report the changes without storing them",
				},
				cli.BoolFlag{
					Name:  "hard-sync",
					Usage: "Update the records already associated with datasets",
				},
			},
			Action: withEnv(importDMP),
		},
		{
			Name:      "export",
			Usage:     "Export the datasets of a DMP as maDMP",
			ArgsUsage: "<dmp-id>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "output",
					Value: "",
					Usage: "The output file path, defaults to stdout",
				},
			},
			Action: withEnv(export),
		},
		{
			Name:      "validate",
			Usage:     "Validate a maDMP against the schema, `-` reads stdin",
			ArgsUsage: "<file>",
			Action:    validate,
		},
		{
			Name:  "user",
			Usage: "Manage record owner accounts",
			Subcommands: []cli.Command{
				{
					Name:      "add",
					Usage:     "Register an owner account",
					ArgsUsage: "<email>",
					Action:    withEnv(addUser),
				},
			},
		},
		{
			Name:  "db",
			Usage: "Manage the repository tables",
			Subcommands: []cli.Command{
				{
					Name:   "init",
					Usage:  "Create the repository tables",
					Action: withConfig(initDB),
				},
				{
					Name:   "drop",
					Usage:  "Drop the repository tables",
					Action: withConfig(dropDB),
				},
			},
		},
		{
			Name:  "serve",
			Usage: "Serve the REST API",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "memory",
					Usage: "Use an in-memory store instead of postgres",
				},
			},
			Action: serve,
		},
		{
			Name:  "archive",
			Usage: "Read the maDMPs archived by imports",
			Subcommands: []cli.Command{
				{
					Name:      "list",
					Usage:     "List the archived documents of a DMP, oldest first",
					ArgsUsage: "<dmp-id>",
					Action:    withArchive(listArchive),
				},
				{
					Name:      "get",
					Usage:     "Print an archived document",
					ArgsUsage: "<key>",
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "output",
							Value: "",
							Usage: "The output file path, defaults to stdout",
						},
					},
					Action: withArchive(getArchive),
				},
			},
		},
	}
	return app
}

func loadConfig(c *cli.Context) (*conf.Conf, error) {
	config, err := conf.Load(c.GlobalString("config"))
	if err != nil {
		return nil, cli.NewExitError(err.Error(), 1)
	}
	overrideConfig(c, config)
	return config, nil
}

// overrideConfig applies the global flags that were set.
func overrideConfig(c *cli.Context, config *conf.Conf) {
	values := map[string]*string{
		"database":    &config.Database.Database,
		"db-host":     &config.Database.Host,
		"db-user":     &config.Database.User,
		"db-password": &config.Database.Password,
		"es-endpoint": &config.Elastic.Endpoint,
		"s3-bucket":   &config.S3.Bucket,
		"address":     &config.Server.Address,
	}
	for name, value := range values {
		if c.GlobalIsSet(name) {
			*value = c.GlobalString(name)
		}
	}
	if c.GlobalIsSet("db-port") {
		config.Database.Port = c.GlobalInt("db-port")
	}
	if c.GlobalIsSet("notify") {
		config.DMPTool.Notify = c.GlobalBool("notify")
	}
}

func withEnv(action func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		config, err := loadConfig(c)
		if err != nil {
			return err
		}
		e, err := newEnv(context.Background(), config, false)
		if err != nil {
			return err
		}
		defer e.Close()
		return action(c, e)
	}
}

func withConfig(action func(config *conf.Conf) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		config, err := loadConfig(c)
		if err != nil {
			return err
		}
		return action(config)
	}
}

func requireArg(c *cli.Context, name string) (string, error) {
	arg := c.Args().First()
	if arg == "" {
		return "", cli.NewExitError(fmt.Sprintf("missing argument `%s`", name), 1)
	}
	return arg, nil
}

func list(c *cli.Context, e *env) error {
	plans, err := e.store.ListDMPs(context.Background())
	if err != nil {
		return err
	}
	for _, plan := range plans {
		fmt.Fprintln(c.App.Writer, plan.DMPID)
		for _, ds := range plan.Datasets {
			record := ds.RecordPID
			if record == "" {
				record = "-"
			}
			fmt.Fprintf(c.App.Writer, "    %s  %s\n", ds.DatasetID, record)
		}
	}
	return nil
}

// readMaDMP reads the document and rejects it on schema violations.
func readMaDMP(validator *madmp.Validator, path string) (*madmp.DMP, error) {
	data, err := util.ReadInput(path, os.Stdin)
	if err != nil {
		return nil, cli.NewExitError(err.Error(), 1)
	}
	violations, err := validator.ErrorMessages(data)
	if err != nil {
		return nil, cli.NewExitError(err.Error(), 1)
	}
	if len(violations) > 0 {
		return nil, cli.NewExitError("maDMP violates the schema:\n"+strings.Join(violations, "\n"), 1)
	}
	return madmp.Parse(data)
}

func importDMP(c *cli.Context, e *env) error {
	path, err := requireArg(c, "file")
	if err != nil {
		return err
	}
	doc, err := readMaDMP(e.validator, path)
	if err != nil {
		return err
	}

	result, err := e.importer.Import(context.Background(), doc, convert.Options{
		DryRun:   c.Bool("dry-run"),
		HardSync: c.Bool("hard-sync"),
	})
	if err != nil {
		if convert.IsLookupError(err) {
			return cli.NewExitError(err.Error(), 2)
		}
		return err
	}

	if result.DryRun {
		fmt.Fprintln(c.App.Writer, "dry run, nothing was stored")
	}
	for _, rec := range result.Created {
		fmt.Fprintf(c.App.Writer, "created %s\n", rec.RecID)
	}
	for _, rec := range result.Updated {
		fmt.Fprintf(c.App.Writer, "updated %s\n", rec.RecID)
	}
	for _, rec := range result.Assigned {
		fmt.Fprintf(c.App.Writer, "assigned %s\n", rec.RecID)
	}
	for _, ds := range result.Removed {
		fmt.Fprintf(c.App.Writer, "removed %s\n", ds.DatasetID)
	}
	if result.Archived != "" {
		fmt.Fprintf(c.App.Writer, "archived %s\n", result.Archived)
	}
	return nil
}

func export(c *cli.Context, e *env) error {
	dmpID, err := requireArg(c, "dmp-id")
	if err != nil {
		return err
	}
	ctx := context.Background()
	plan, err := e.store.GetDMP(ctx, dmpID)
	if storage.IsNotFound(err) {
		return cli.NewExitError(fmt.Sprintf("unknown dmp `%s`", dmpID), 1)
	}
	if err != nil {
		return err
	}

	datasets, err := e.exporter.ExportDMP(ctx, plan)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(api.MaDMPExport{DMPID: plan.DMPID, Dataset: datasets}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to encode export")
	}
	return util.WriteOutput(c.String("output"), append(data, '\n'), c.App.Writer)
}

func validate(c *cli.Context) error {
	path, err := requireArg(c, "file")
	if err != nil {
		return err
	}
	config, err := loadConfig(c)
	if err != nil {
		return err
	}
	validator, err := newValidator(config)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	data, err := util.ReadInput(path, os.Stdin)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	violations, err := validator.ErrorMessages(data)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if len(violations) > 0 {
		return cli.NewExitError(strings.Join(violations, "\n"), 1)
	}
	fmt.Fprintln(c.App.Writer, "valid")
	return nil
}

func addUser(c *cli.Context, e *env) error {
	email, err := requireArg(c, "email")
	if err != nil {
		return err
	}
	user := &model.User{Email: email, Active: true}
	err = e.store.CreateUser(context.Background(), user)
	if storage.IsConflict(err) {
		return cli.NewExitError(fmt.Sprintf("user `%s` already exists", email), 1)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "added user %d <%s>\n", user.ID, user.Email)
	return nil
}

func initDB(config *conf.Conf) error {
	database, err := openDatabase(config)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer database.Close()
	return database.CreateTables()
}

func dropDB(config *conf.Conf) error {
	database, err := openDatabase(config)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer database.Close()
	return database.DropTables()
}

func serve(c *cli.Context) error {
	config, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := newEnv(ctx, config, c.Bool("memory"))
	if err != nil {
		return err
	}
	defer e.Close()

	metrics.Register(prometheus.DefaultRegisterer)
	server := api.New(&api.Server{
		Store:     e.store,
		Importer:  e.importer,
		Exporter:  e.exporter,
		Validator: e.validator,
		Events:    e.bus,
		Gatherer:  prometheus.DefaultGatherer,
	})

	go func() {
		<-ctx.Done()
		graceful, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(graceful); err != nil {
			log.Errorf("unable to shut down: %v", err)
		}
	}()

	log.Infof("serving on %s", config.Server.Address)
	if err := server.Start(config.Server.Address); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server failed")
	}
	return nil
}
