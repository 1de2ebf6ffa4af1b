package project

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/drewr95/pm/internal/logger"
	"github.com/drewr95/pm/internal/model"
	"github.com/drewr95/pm/internal/registers"
	"github.com/drewr95/pm/internal/tables"
)

// Project holds the three model trees of one project. Models the project
// file leaves out are empty trees.
type Project struct {
	Config       *Config
	Parameters   *model.Tree
	Symbols      *model.Tree
	StaticModbus *model.Tree
	Types        *registers.Catalog
}

// ModelPath returns the resolved document path of a model, or "" when the
// project file does not name one.
func (p *Project) ModelPath(kind model.ModelKind) string {
	switch kind {
	case model.ModelParameters:
		return p.Config.Resolve(p.Config.Models.Parameters)
	case model.ModelSymbols:
		return p.Config.Resolve(p.Config.Models.Symbols)
	case model.ModelStaticModbus:
		return p.Config.Resolve(p.Config.Models.StaticModbus)
	}
	return ""
}

// Paths lists the document paths the project reads.
func (p *Project) Paths() []string {
	var paths []string
	for _, kind := range []model.ModelKind{model.ModelParameters, model.ModelSymbols, model.ModelStaticModbus} {
		if path := p.ModelPath(kind); path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

func (p *Project) tree(kind model.ModelKind) **model.Tree {
	switch kind {
	case model.ModelParameters:
		return &p.Parameters
	case model.ModelSymbols:
		return &p.Symbols
	}
	return &p.StaticModbus
}

// Load reads every model document named by cfg concurrently.
func Load(ctx context.Context, cfg *Config) (*Project, error) {
	p := &Project{Config: cfg, Types: registers.Default()}

	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range []model.ModelKind{model.ModelParameters, model.ModelSymbols, model.ModelStaticModbus} {
		kind := kind
		path := p.ModelPath(kind)
		slot := p.tree(kind)
		if path == "" {
			*slot = model.NewTree(kind)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tree, err := LoadTree(path, kind)
			if err != nil {
				return err
			}
			*slot = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadTree reads one model document.
func LoadTree(path string, kind model.ModelKind) (*model.Tree, error) {
	logger.Printf("loading: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s model: %w", kind, err)
	}
	tree, err := Decode(data, FormatFromPath(path), kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// SaveTree writes tree to path in the format its extension selects.
func SaveTree(path string, tree *model.Tree) error {
	data, err := Encode(tree, FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("failed to encode %s model: %w", tree.Model, err)
	}
	logger.Printf("saving: %s", path)
	return os.WriteFile(path, data, 0644)
}

// Save writes back every model the project file names.
func (p *Project) Save() error {
	for _, kind := range []model.ModelKind{model.ModelParameters, model.ModelSymbols, model.ModelStaticModbus} {
		path := p.ModelPath(kind)
		if path == "" {
			continue
		}
		if err := SaveTree(path, *p.tree(kind)); err != nil {
			return err
		}
	}
	return nil
}

// UpdateTables regenerates the combination tree of every parameter table and
// then rebuilds every static-modbus table from it.
func (p *Project) UpdateTables() error {
	for _, pt := range p.Parameters.Find(isKind(model.KindParameterTable)) {
		if err := tables.UpdateParameterTable(pt); err != nil {
			return fmt.Errorf("parameter table %q: %w", pt.Name, err)
		}
	}
	for _, t := range p.StaticModbus.Find(isKind(model.KindTable)) {
		if err := tables.Update(t, p.Parameters, nil); err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
	}
	return nil
}

func isKind(k model.Kind) func(*model.Node) bool {
	return func(n *model.Node) bool { return n.Kind() == k }
}
