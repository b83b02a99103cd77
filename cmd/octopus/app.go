package main

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-octopus/pkg/compiler"
	"github.com/askiada/go-octopus/pkg/config"
	"github.com/askiada/go-octopus/pkg/library"
	"github.com/askiada/go-octopus/pkg/logging"
	"github.com/askiada/go-octopus/pkg/model"
	"github.com/askiada/go-octopus/pkg/repository"
)

// app is what every command needs once the configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  hclog.Logger
	catalog *library.Catalog
	repo    repository.Repository
}

func newApp(cmd *cobra.Command, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log, cmd.ErrOrStderr())
	catalog, err := library.NewCatalog()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build template catalog")
	}

	var repo repository.Repository = repository.NewMemoryRepository(catalog)
	if cfg.Repository.Dir != "" {
		repo, err = repository.NewFileRepository(cfg.Repository.Dir, repository.YAML, catalog)
		if err != nil {
			return nil, err
		}
	}
	logger.Debug("configuration loaded", "file", configPath, "repository", cfg.Repository.Dir)

	return &app{cfg: cfg, logger: logger, catalog: catalog, repo: repo}, nil
}

// loadModel reads ref as a document file when it names one, or as a model of the repository.
func (a *app) loadModel(ref string) (*model.ProcessingModel, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		doc, err := repository.ReadDocument(ref)
		if err != nil {
			return nil, err
		}

		return model.Import(doc, a.catalog)
	}

	return a.repo.Model(ref)
}

func (a *app) compiler(cmd *cobra.Command) *compiler.Compiler {
	c := compiler.New(
		compiler.WithLogger(a.logger.Named("compiler")),
		compiler.WithBufferSize(a.cfg.Engine.BufferSize),
	)
	c.SetStandardOut(cmd.OutOrStdout())
	c.SetStandardError(cmd.ErrOrStderr())

	return c
}
