// Package seed loads a facility catalog (equipment quantities and the
// exercise library) from a YAML file and applies it to the store.
// The catalog is reference data authored outside the engine; seeding
// exists so fresh deployments and tests start from a known facility.
package seed

import (
	"context"
	"fmt"
	"os"

	"groupfit/session-engine/internal/domain"
	"groupfit/session-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/yaml.v3"
)

// Catalog is the YAML shape of a facility definition.
type Catalog struct {
	Equipment []EquipmentEntry `yaml:"equipment"`
	Exercises []ExerciseEntry  `yaml:"exercises"`
}

// EquipmentEntry is one equipment item and its facility quantity.
type EquipmentEntry struct {
	Name     string `yaml:"name"`
	Quantity int    `yaml:"quantity"`
}

// ExerciseEntry is one library exercise. Substitutions reference other
// entries by name and are resolved to ids during Apply.
type ExerciseEntry struct {
	Name              string   `yaml:"name"`
	MovementPattern   string   `yaml:"movement_pattern"`
	RequiredEquipment []string `yaml:"required_equipment"`
	Substitutions     []string `yaml:"substitutions"`
}

// Load parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	if err := catalog.validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (c *Catalog) validate() error {
	seenEquipment := make(map[string]bool)
	for _, e := range c.Equipment {
		if e.Name == "" {
			return fmt.Errorf("equipment entry with empty name")
		}
		if e.Quantity < 1 {
			return fmt.Errorf("equipment %q has quantity %d, want >= 1", e.Name, e.Quantity)
		}
		if seenEquipment[e.Name] {
			return fmt.Errorf("duplicate equipment %q", e.Name)
		}
		seenEquipment[e.Name] = true
	}

	seenExercise := make(map[string]bool)
	for _, e := range c.Exercises {
		if e.Name == "" {
			return fmt.Errorf("exercise entry with empty name")
		}
		if e.MovementPattern == "" {
			return fmt.Errorf("exercise %q has no movement pattern", e.Name)
		}
		if seenExercise[e.Name] {
			return fmt.Errorf("duplicate exercise %q", e.Name)
		}
		seenExercise[e.Name] = true
		for _, eq := range e.RequiredEquipment {
			if !seenEquipment[eq] {
				return fmt.Errorf("exercise %q requires unknown equipment %q", e.Name, eq)
			}
		}
	}

	// Substitution references must resolve within the catalog.
	for _, e := range c.Exercises {
		for _, sub := range e.Substitutions {
			if !seenExercise[sub] {
				return fmt.Errorf("exercise %q declares unknown substitute %q", e.Name, sub)
			}
		}
	}

	return nil
}

// Apply writes the catalog into the store. Equipment is upserted by
// name; exercises are created in two passes so substitution references
// can be resolved to ids regardless of declaration order.
func Apply(ctx context.Context, catalog *Catalog, equipmentRepo repository.EquipmentRepository, exerciseRepo repository.ExerciseRepository) error {
	for _, entry := range catalog.Equipment {
		item := domain.EquipmentItem{Name: entry.Name, Quantity: entry.Quantity}
		if _, err := equipmentRepo.Upsert(ctx, &item); err != nil {
			return fmt.Errorf("seeding equipment %q: %w", entry.Name, err)
		}
	}

	// First pass: create exercises without substitution links.
	idsByName := make(map[string]primitive.ObjectID, len(catalog.Exercises))
	for _, entry := range catalog.Exercises {
		exercise := domain.Exercise{
			Name:              entry.Name,
			MovementPattern:   entry.MovementPattern,
			RequiredEquipment: entry.RequiredEquipment,
		}
		if exercise.RequiredEquipment == nil {
			exercise.RequiredEquipment = []string{}
		}
		id, err := exerciseRepo.Create(ctx, &exercise)
		if err != nil {
			return fmt.Errorf("seeding exercise %q: %w", entry.Name, err)
		}
		idsByName[entry.Name] = id
	}

	// Second pass: resolve declared substitutes to ids. The validate step
	// guarantees every reference exists.
	for _, entry := range catalog.Exercises {
		if len(entry.Substitutions) == 0 {
			continue
		}
		subs := make([]primitive.ObjectID, 0, len(entry.Substitutions))
		for _, name := range entry.Substitutions {
			subs = append(subs, idsByName[name])
		}
		if err := exerciseRepo.SetSubstitutions(ctx, idsByName[entry.Name], subs); err != nil {
			return fmt.Errorf("wiring substitutes for %q: %w", entry.Name, err)
		}
	}

	return nil
}
