package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/derivedconcept-backend/internal/app"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/derivedconcept-backend/internal/pkg/errors"
	"github.com/yungbote/derivedconcept-backend/internal/services"
)

// definitionsFile is the YAML layout:
//
//	derived_concepts:
//	  - path: \Derived\BMI\
//	    query: SELECT ...
//	    dependencies: [\Source\Weight\, \Source\Height\]
type definitionsFile struct {
	DerivedConcepts []definition `yaml:"derived_concepts"`
}

type definition struct {
	Path         string   `yaml:"path"`
	Code         string   `yaml:"code"`
	Query        string   `yaml:"query"`
	Unit         string   `yaml:"unit"`
	Description  string   `yaml:"description"`
	Dependencies []string `yaml:"dependencies"`
}

func (d definition) input() services.DerivedConceptInput {
	return services.DerivedConceptInput{
		Path:         d.Path,
		Code:         d.Code,
		Query:        d.Query,
		Unit:         d.Unit,
		Description:  d.Description,
		Dependencies: d.Dependencies,
	}
}

func loadDefinitions(r io.Reader) ([]definition, error) {
	var f definitionsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode definitions: %w", err)
	}
	seen := make(map[string]int, len(f.DerivedConcepts))
	for i, d := range f.DerivedConcepts {
		key := strings.TrimSpace(d.Path)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("derived_concepts[%d]: path %q already defined at [%d]", i, key, prev)
		}
		seen[key] = i
	}
	return f.DerivedConcepts, nil
}

func main() {
	var (
		file      string
		dryRun    bool
		calculate bool
	)
	flag.StringVar(&file, "file", "", "YAML file with derived concept definitions")
	flag.BoolVar(&dryRun, "dry-run", false, "validate and print without writing")
	flag.BoolVar(&calculate, "calculate", false, "schedule a global calculation after importing")
	flag.Parse()

	if file == "" {
		fmt.Println("-file is required")
		os.Exit(2)
	}
	fh, err := os.Open(file)
	if err != nil {
		fmt.Printf("open %s: %v\n", file, err)
		os.Exit(1)
	}
	defs, err := loadDefinitions(fh)
	_ = fh.Close()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if dryRun {
		for _, d := range defs {
			fmt.Printf("%s <- %s\n", strings.TrimSpace(d.Path), strings.Join(d.Dependencies, ", "))
		}
		fmt.Printf("%d definitions\n", len(defs))
		return
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	dbc := dbctx.Context{Ctx: context.Background()}
	created, updated, cyclic := 0, 0, 0
	for i, d := range defs {
		in := d.input()
		var res *services.DerivedConceptResult
		existing, err := application.Repos.DerivedConcept.GetByPath(dbc, strings.TrimSpace(d.Path))
		switch {
		case err == nil:
			res, err = application.Services.DerivedConcept.Update(dbc, existing.ID, in)
			updated++
		case errors.Is(err, apperrors.ErrNotFound):
			res, err = application.Services.DerivedConcept.Create(dbc, in)
			created++
		}
		if err != nil {
			application.Log.Error("Import failed", "index", i, "path", d.Path, "error", err)
			application.Close()
			os.Exit(1)
		}
		if len(res.Warnings) > 0 {
			cyclic++
			application.Log.Warn("Imported with warnings", "path", res.Path, "warnings", res.Warnings)
		}
	}
	application.Log.Info("Import finished", "created", created, "updated", updated, "cyclic", cyclic)

	if calculate {
		records, err := application.Services.Calculation.Calculate(dbc, nil)
		if err != nil {
			application.Log.Error("Calculation failed", "error", err)
			application.Close()
			os.Exit(1)
		}
		fmt.Printf("scheduled %d job records\n", len(records))
	}
}
