package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// ErrReferenceData marks a catalog that could not be loaded or parsed.
var ErrReferenceData = errors.New("reference data error")

// Catalog file base names inside the data directory.
const (
	FoodsFile        = "foods"
	ItemsFile        = "items"
	EventsFile       = "events"
	AchievementsFile = "achievements"
)

var extensions = []string{".json", ".yaml", ".yml"}

// Catalog is the immutable reference data shared by every component.
type Catalog struct {
	Foods        Table[ItemInfo]
	Items        Table[ItemInfo]
	Events       Table[EventDefinition]
	Achievements Table[AchievementDefinition]
}

// Empty returns a catalog with no definitions.
func Empty() *Catalog {
	return &Catalog{
		Foods:        newTable[ItemInfo](),
		Items:        newTable[ItemInfo](),
		Events:       newTable[EventDefinition](),
		Achievements: newTable[AchievementDefinition](),
	}
}

// Lookup resolves id in the food catalog, then the item catalog.
func (c *Catalog) Lookup(id string) (ItemInfo, bool) {
	if info, ok := c.Foods.Get(id); ok {
		return info, true
	}
	return c.Items.Get(id)
}

// Known reports whether id belongs to either item catalog.
func (c *Catalog) Known(id string) bool {
	return c.Foods.Has(id) || c.Items.Has(id)
}

// Load reads every catalog from dir. See LoadFS.
func Load(dir string, logger *slog.Logger) (*Catalog, error) {
	return LoadFS(os.DirFS(dir), logger)
}

// LoadFS reads the four catalogs from fsys. It always returns a usable
// catalog: a catalog that fails to load is logged and left empty, and the
// failures are returned joined, each wrapping ErrReferenceData.
func LoadFS(fsys fs.FS, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := Empty()

	var errs []error
	load := func(name string, fn func(data []byte, format Format) error) {
		file, data, err := readCatalogFile(fsys, name)
		if err == nil {
			format, _ := FormatFor(file)
			err = fn(data, format)
		}
		if err != nil {
			logger.Error("Failed to load catalog", "catalog", name, "error", err)
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrReferenceData, name, err))
			return
		}
		logger.Debug("Loaded catalog", "catalog", name, "file", file)
	}

	load(FoodsFile, func(data []byte, format Format) error {
		t, err := ParseItems(data, format)
		c.Foods = t
		return err
	})
	load(ItemsFile, func(data []byte, format Format) error {
		t, err := ParseItems(data, format)
		c.Items = t
		return err
	})
	load(EventsFile, func(data []byte, format Format) error {
		t, err := ParseEvents(data, format)
		c.Events = t
		return err
	})
	load(AchievementsFile, func(data []byte, format Format) error {
		t, err := ParseAchievements(data, format)
		c.Achievements = t
		return err
	})

	logger.Info("Catalogs loaded",
		"foods", c.Foods.Len(),
		"items", c.Items.Len(),
		"events", c.Events.Len(),
		"achievements", c.Achievements.Len())

	return c, errors.Join(errs...)
}

func readCatalogFile(fsys fs.FS, name string) (string, []byte, error) {
	for _, ext := range extensions {
		file := name + ext
		data, err := fs.ReadFile(fsys, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return file, nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		return file, data, nil
	}
	return "", nil, fmt.Errorf("no %s catalog file found: %w", name, fs.ErrNotExist)
}

// ParseItems decodes a food or item catalog. On error the table is empty.
func ParseItems(data []byte, format Format) (Table[ItemInfo], error) {
	t := newTable[ItemInfo]()
	err := decodeOrdered(data, format, func(id string, v ItemInfo) {
		v.ID = id
		if v.Name == "" {
			v.Name = id
		}
		t.put(id, v)
	})
	if err != nil {
		return newTable[ItemInfo](), err
	}
	return t, nil
}

// ParseEvents decodes an event catalog. On error the table is empty.
func ParseEvents(data []byte, format Format) (Table[EventDefinition], error) {
	t := newTable[EventDefinition]()
	err := decodeOrdered(data, format, func(id string, v EventDefinition) {
		v.ID = id
		if v.Name == "" {
			v.Name = id
		}
		t.put(id, v)
	})
	if err != nil {
		return newTable[EventDefinition](), err
	}
	return t, nil
}

// ParseAchievements decodes an achievement catalog. On error the table is empty.
func ParseAchievements(data []byte, format Format) (Table[AchievementDefinition], error) {
	t := newTable[AchievementDefinition]()
	err := decodeOrdered(data, format, func(id string, v AchievementDefinition) {
		v.ID = id
		if v.Name == "" {
			v.Name = id
		}
		t.put(id, v)
	})
	if err != nil {
		return newTable[AchievementDefinition](), err
	}
	return t, nil
}
