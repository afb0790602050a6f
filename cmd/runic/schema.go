package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/runic-lang/runic/internal/cli/config"
	"github.com/runic-lang/runic/runtime/codec"
	"github.com/runic-lang/runic/runtime/conditions"
	"github.com/runic-lang/runic/runtime/schema"
)

// loadCodec builds a codec from the schema payload named on the command line
// or in runic.yml. Expression conditions declared in the payload are compiled
// into a fresh registry so CLI runs never touch the process-wide one.
func loadCodec(schemaPath, rootType string, verbose bool) (*codec.Codec, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	if schemaPath == "" {
		schemaPath = cfg.Schema.Path
	}
	if schemaPath == "" {
		return nil, "", fmt.Errorf("no schema given - pass --schema or set schema.path in runic.yml")
	}
	if rootType == "" {
		rootType = cfg.Schema.RootType
	}
	if rootType == "" {
		return nil, "", fmt.Errorf("no root type given - pass --type or set schema.root_type in runic.yml")
	}

	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read schema %s: %w", schemaPath, err)
	}
	manifest, err := schema.LoadJSON(data)
	if err != nil {
		return nil, "", err
	}

	conds := conditions.NewRegistry()
	for _, c := range manifest.Conditions {
		if err := conds.RegisterExpr(c.TypeName, c.Name, c.Expr); err != nil {
			return nil, "", err
		}
	}

	log := zap.NewNop()
	if verbose {
		if log, err = zap.NewDevelopment(); err != nil {
			return nil, "", err
		}
		conds.SetLogger(log)
	}

	c := codec.New(manifest.Registry,
		codec.WithConditions(conds),
		codec.WithLogger(log),
		codec.WithProvenance(manifest.Model, manifest.Version),
	)
	return c, rootType, nil
}
