package main

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/pet-engine/pkg/catalog"
	"github.com/jwebster45206/pet-engine/pkg/conditionals"
	"github.com/jwebster45206/pet-engine/pkg/stats"
)

func main() {
	dir := "./data"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	validator := &CatalogValidator{}
	if err := validator.validateDir(os.DirFS(dir), dir); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Catalogs are valid!")
}

type CatalogValidator struct {
	errors []string
}

func (v *CatalogValidator) validateDir(fsys fs.FS, name string) error {
	fmt.Printf("Validating %s...\n", name)
	v.errors = nil

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat, err := catalog.LoadFS(fsys, quiet)
	if err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			v.addError(line)
		}
	}

	v.validateCatalog(cat)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", name, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *CatalogValidator) validateCatalog(c *catalog.Catalog) {
	for _, food := range c.Foods.Values() {
		v.validateIDFormat("food ID", food.ID)
		v.validateEffects(fmt.Sprintf("food %s", food.ID), food.Effects)
	}

	for _, item := range c.Items.Values() {
		v.validateIDFormat("item ID", item.ID)
		v.validateEffects(fmt.Sprintf("item %s", item.ID), item.Effects)
		if c.Foods.Has(item.ID) {
			v.addError(fmt.Sprintf("item %s is also defined as a food; the food definition wins", item.ID))
		}
	}

	for _, ev := range c.Events.Values() {
		v.validateEvent(c, ev)
	}

	for _, a := range c.Achievements.Values() {
		v.validateAchievement(c, a)
	}
}

func (v *CatalogValidator) validateEvent(c *catalog.Catalog, ev catalog.EventDefinition) {
	context := fmt.Sprintf("event %s", ev.ID)
	v.validateIDFormat("event ID", ev.ID)

	if p := ev.Chance(); p < 0 || p > 1 {
		v.addError(fmt.Sprintf("%s has probability %g outside [0, 1]", context, p))
	}

	v.validateCondition(context+" condition", ev.Condition)
	v.validateEffects(context, ev.Effect.Effects)

	if ev.Effect.AddItem != "" && !c.Known(ev.Effect.AddItem) {
		v.addError(fmt.Sprintf("%s adds unknown item '%s'", context, ev.Effect.AddItem))
	}
	if ev.Effect.Quantity < 0 {
		v.addError(fmt.Sprintf("%s has negative quantity %d", context, ev.Effect.Quantity))
	}
}

func (v *CatalogValidator) validateAchievement(c *catalog.Catalog, a catalog.AchievementDefinition) {
	context := fmt.Sprintf("achievement %s", a.ID)
	v.validateIDFormat("achievement ID", a.ID)

	if a.Requirement.IsEmpty() {
		v.addError(fmt.Sprintf("%s has empty 'requirement' - it would unlock immediately", context))
	}
	v.validateCondition(context+" requirement", a.Requirement.Condition)

	if a.Reward != nil {
		if !c.Known(a.Reward.Item) {
			v.addError(fmt.Sprintf("%s rewards unknown item '%s'", context, a.Reward.Item))
		}
		if a.Reward.Quantity < 0 {
			v.addError(fmt.Sprintf("%s has negative reward quantity %d", context, a.Reward.Quantity))
		}
	}
}

func (v *CatalogValidator) validateCondition(context string, cond conditionals.Condition) {
	for _, cmp := range cond.Comparisons {
		if !slices.Contains(stats.StatNames, cmp.Field) {
			v.addError(fmt.Sprintf("%s references unknown stat '%s'", context, cmp.Field))
		}
		if !cmp.Op.Valid() {
			v.addError(fmt.Sprintf("%s has invalid operator '%s' for %s", context, cmp.Op, cmp.Field))
		}
	}
}

func (v *CatalogValidator) validateEffects(context string, e catalog.Effects) {
	for _, d := range e.Deltas() {
		if d.Amount < -100 || d.Amount > 100 {
			v.addError(fmt.Sprintf("%s changes %s by %g, outside [-100, 100]", context, d.Stat, d.Amount))
		}
	}
}

func (v *CatalogValidator) validateIDFormat(fieldName, id string) {
	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *CatalogValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
