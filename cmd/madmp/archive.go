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
	"fmt"

	"github.com/urfave/cli"

	"github.com/uncharted-distil/distil-madmp/util"
)

// archiveReader reads back the documents archived by imports.
type archiveReader interface {
	List(ctx context.Context, dmpID string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

func withArchive(action func(c *cli.Context, archive archiveReader) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		config, err := loadConfig(c)
		if err != nil {
			return err
		}
		archive, err := newArchive(config)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		return action(c, archive)
	}
}

func listArchive(c *cli.Context, archive archiveReader) error {
	dmpID, err := requireArg(c, "dmp-id")
	if err != nil {
		return err
	}
	keys, err := archive.List(context.Background(), dmpID)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if len(keys) == 0 {
		fmt.Fprintf(c.App.Writer, "no documents archived for `%s`\n", dmpID)
		return nil
	}
	for _, key := range keys {
		fmt.Fprintln(c.App.Writer, key)
	}
	return nil
}

func getArchive(c *cli.Context, archive archiveReader) error {
	key, err := requireArg(c, "key")
	if err != nil {
		return err
	}
	data, err := archive.Get(context.Background(), key)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return util.WriteOutput(c.String("output"), data, c.App.Writer)
}
