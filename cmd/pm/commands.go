package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/drewr95/pm/internal/catalog"
	"github.com/drewr95/pm/internal/cgen"
	"github.com/drewr95/pm/internal/check"
	"github.com/drewr95/pm/internal/logger"
	"github.com/drewr95/pm/internal/project"
	"github.com/drewr95/pm/internal/registers"
	"github.com/drewr95/pm/internal/symgen"
)

var errCheckFailed = errors.New("check found errors")

func loadProject(ctx context.Context, opts *options) (*project.Project, error) {
	cfg, err := project.LoadConfig(opts.config)
	if err != nil {
		return nil, err
	}
	return project.Load(ctx, cfg)
}

// writeOutput writes text to path, or to stdout when path is empty, with
// exactly one trailing newline.
func writeOutput(path, text string) error {
	text = strings.TrimRight(text, "\n") + "\n"
	if path == "" {
		_, err := os.Stdout.WriteString(text)
		return err
	}
	logger.Printf("writing: %s", path)
	return os.WriteFile(path, []byte(text), 0644)
}

func generateC(p *project.Project, node string) (string, error) {
	target := p.Parameters.Root
	if node != "" {
		id, err := uuid.Parse(node)
		if err != nil {
			return "", fmt.Errorf("invalid node uuid %q: %w", node, err)
		}
		if target, err = p.Parameters.NodeFromUUID(id); err != nil {
			return "", err
		}
	}
	return cgen.Generate(target, cgen.Options{
		DefaultType:    p.Config.C.DefaultType,
		StrictTypedefs: p.Config.C.StrictTypedefs,
		Parameters:     p.Parameters,
	})
}

func generateSym(p *project.Project) (string, error) {
	return symgen.Generate(p.Symbols.Root, symgen.Options{
		Title:      p.Config.Sym.Title,
		Parameters: p.Parameters,
	})
}

func newCCmd(opts *options) *cobra.Command {
	var node, output string
	cmd := &cobra.Command{
		Use:   "c",
		Short: "Generate C declarations for the parameter model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd.Context(), opts)
			if err != nil {
				return err
			}
			text, err := generateC(p, node)
			if err != nil {
				return err
			}
			return writeOutput(output, text)
		},
	}
	cmd.Flags().StringVar(&node, "node", "", "uuid of the subtree to generate, default the whole model")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, default stdout")
	return cmd
}

func newSymCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "sym",
		Short: "Generate the CAN symbol file for the symbols model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd.Context(), opts)
			if err != nil {
				return err
			}
			text, err := generateSym(p)
			if err != nil {
				return err
			}
			return writeOutput(output, text)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, default stdout")
	return cmd
}

func newTablesCmd(opts *options) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Regenerate parameter table combinations and static-modbus tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := p.UpdateTables(); err != nil {
				return err
			}
			if !write {
				logger.Println("tables updated, use --write to save them")
				return nil
			}
			return p.Save()
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "save the updated model documents")
	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report structural problems in the project models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd.Context(), opts)
			if err != nil {
				return err
			}
			diags := check.Run(p)
			for _, d := range diags {
				logger.Println(d.String())
			}
			if check.HasErrors(diags) {
				return errCheckFailed
			}
			if len(diags) == 0 {
				logger.Println("No issues found.")
			}
			return nil
		},
	}
}

func newCatalogCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Export the register map and symbol frames to SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := p.UpdateTables(); err != nil {
				return err
			}
			regs, err := registers.Layout(p.StaticModbus.Root, p.Types, p.Parameters)
			if err != nil {
				return err
			}
			doc, err := symgen.Build(p.Symbols.Root, symgen.Options{Title: p.Config.Sym.Title, Parameters: p.Parameters})
			if err != nil {
				return err
			}
			if output == "" {
				output = p.Config.Resolve(p.Config.Catalog.Path)
			}
			return catalog.ExportFile(cmd.Context(), output, regs, doc)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "database file, default from the project file")
	return cmd
}

type generateOptions struct {
	c, sym string
	watch  bool
}

func newGenerateCmd(opts *options) *cobra.Command {
	gen := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the C declarations and the symbol file together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if gen.c == "" && gen.sym == "" {
				return errors.New("nothing to generate, set --c or --sym")
			}
			if err := runGenerate(cmd.Context(), opts, gen); err != nil {
				if !gen.watch {
					return err
				}
				logger.Printf("generate failed: %v", err)
			}
			if !gen.watch {
				return nil
			}
			return watch(cmd.Context(), opts, func() {
				if err := runGenerate(cmd.Context(), opts, gen); err != nil {
					logger.Printf("generate failed: %v", err)
				}
			})
		},
	}
	cmd.Flags().StringVar(&gen.c, "c", "", "C output file")
	cmd.Flags().StringVar(&gen.sym, "sym", "", "symbol file output")
	cmd.Flags().BoolVar(&gen.watch, "watch", false, "regenerate when the project or a model document changes")
	return cmd
}

// runGenerate produces every requested artifact before writing any of them.
func runGenerate(ctx context.Context, opts *options, gen *generateOptions) error {
	p, err := loadProject(ctx, opts)
	if err != nil {
		return err
	}
	var cText, symText string
	if gen.c != "" {
		if cText, err = generateC(p, ""); err != nil {
			return err
		}
	}
	if gen.sym != "" {
		if symText, err = generateSym(p); err != nil {
			return err
		}
	}
	if gen.c != "" {
		if err := writeOutput(gen.c, cText); err != nil {
			return err
		}
	}
	if gen.sym != "" {
		return writeOutput(gen.sym, symText)
	}
	return nil
}

// modelPaths lists the project file and every model document it names.
func modelPaths(opts *options) []string {
	paths := []string{opts.config}
	cfg, err := project.LoadConfig(opts.config)
	if err != nil {
		return paths
	}
	p := &project.Project{Config: cfg}
	return append(paths, p.Paths()...)
}
