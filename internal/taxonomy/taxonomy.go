// Package taxonomy ships the default category set new accounts start
// with.
package taxonomy

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"budgetshop/internal/core"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type taxonomyFile struct {
	Categories []struct {
		Name  string `yaml:"name"`
		Kind  string `yaml:"kind"`
		Color string `yaml:"color"`
	} `yaml:"categories"`
}

// Defaults returns the embedded starter categories in display order.
// Positions are assigned from file order.
func Defaults() ([]core.Category, error) {
	var f taxonomyFile
	if err := yaml.Unmarshal(defaultsYAML, &f); err != nil {
		return nil, fmt.Errorf("parse embedded taxonomy: %w", err)
	}
	cats := make([]core.Category, 0, len(f.Categories))
	for i, e := range f.Categories {
		c := core.Category{
			Name:     e.Name,
			Kind:     core.CategoryKind(e.Kind),
			Color:    e.Color,
			Position: i,
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("embedded taxonomy entry %q: %w", e.Name, err)
		}
		cats = append(cats, c)
	}
	return cats, nil
}

// Installer creates one category. *services.CategoryService satisfies
// it.
type Installer interface {
	Create(ctx context.Context, c core.Category) (core.Category, error)
}

// Install creates the default categories for userID and returns how
// many were created. Installation stops at the first failure.
func Install(ctx context.Context, svc Installer, userID int64) (int, error) {
	cats, err := Defaults()
	if err != nil {
		return 0, err
	}
	created := 0
	for _, c := range cats {
		c.UserID = userID
		if _, err := svc.Create(ctx, c); err != nil {
			return created, fmt.Errorf("install category %q: %w", c.Name, err)
		}
		created++
	}
	return created, nil
}
