package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/driftwatch/jsonshape/codegen"
	"github.com/driftwatch/jsonshape/driver"
	"github.com/driftwatch/jsonshape/evidence"
	"github.com/driftwatch/jsonshape/jsonschema"
	"github.com/driftwatch/jsonshape/lower"
	"github.com/driftwatch/jsonshape/normalize"
	"github.com/driftwatch/jsonshape/publish"
	"github.com/driftwatch/jsonshape/serve"
)

func newRootCommand(log *logrus.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "jsonshape",
		Short:         "infer structural schemas from JSON samples and emit strict Go models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSchemaCommand(log))
	root.AddCommand(newGenCommand(log))
	root.AddCommand(newServeCommand(log))
	return root
}

func addInputFlags(cmd *cobra.Command, opts *driver.Options) {
	cmd.Flags().StringSliceVarP(&opts.Inputs, "input", "i", nil, "input paths, glob patterns, or - for stdin")
	cmd.Flags().BoolVar(&opts.NDJSON, "ndjson", false, "treat inputs as newline-delimited JSON")
	cmd.Flags().StringVar(&opts.JSONPointer, "json-pointer", "", "select a subnode in each document, e.g. /data/items")
	cmd.Flags().StringVar(&opts.JQExpr, "jq", "", "jq pre-filter applied to each document")
	_ = cmd.MarkFlagRequired("input")
}

func infer(log *logrus.Logger, opts driver.Options) (*evidence.U, int, error) {
	inf := evidence.NewInference()
	if err := driver.Collect(opts, inf); err != nil {
		return nil, 0, err
	}
	if inf.Samples() == 0 {
		return nil, 0, fmt.Errorf("no samples observed")
	}
	log.WithField("samples", inf.Samples()).Debug("fold complete")

	u := inf.State()
	normalize.Normalize(u)
	return u, inf.Samples(), nil
}

func writeOutput(out string, data []byte) error {
	if out == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(out, data, 0o644)
}

func newSchemaCommand(log *logrus.Logger) *cobra.Command {
	var opts driver.Options
	var out string
	var publishURL string
	var publishKey string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "infer and print the JSON-schema-ish debug view",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, samples, err := infer(log, opts)
			if err != nil {
				return err
			}

			ty := lower.Lower(u)
			bs, err := jsonschema.MarshalIndent(ty)
			if err != nil {
				return err
			}
			bs = append(bs, '\n')

			if publishURL != "" {
				client, err := publish.NewClient(publishKey, publishURL)
				if err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				defer cancel()
				up := &publish.SchemaUpload{
					Source:  "jsonshape schema",
					Samples: samples,
					Schema:  jsonschema.Emit(ty),
				}
				if err := client.PublishSchema(ctx, up); err != nil {
					return fmt.Errorf("publish schema: %w", err)
				}
				log.WithField("server", publishURL).Info("schema published")
			}

			return writeOutput(out, bs)
		},
	}

	addInputFlags(cmd, &opts)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output .json file (stdout if omitted)")
	cmd.Flags().StringVar(&publishURL, "publish-url", "", "collector to push the schema to")
	cmd.Flags().StringVar(&publishKey, "publish-key", "", "api key for the collector")
	return cmd
}

func newGenCommand(log *logrus.Logger) *cobra.Command {
	var opts driver.Options
	var out string
	var rootType string
	var pkg string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "infer and emit a strict Go data model",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, _, err := infer(log, opts)
			if err != nil {
				return err
			}

			src := codegen.Generate(lower.Lower(u), codegen.Options{
				Package:  pkg,
				RootType: rootType,
			})
			return writeOutput(out, []byte(src))
		},
	}

	addInputFlags(cmd, &opts)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output .go file (stdout if omitted)")
	cmd.Flags().StringVar(&rootType, "root-type", "Root", "top-level Go type name")
	cmd.Flags().StringVar(&pkg, "package", "model", "package name for the generated file")
	return cmd
}

func newServeCommand(log *logrus.Logger) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "accept samples over HTTP and serve the running schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := serve.NewServer(log)
			return s.ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8632", "listen address")
	return cmd
}
