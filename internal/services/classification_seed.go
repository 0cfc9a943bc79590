package services

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	types "github.com/statspub/measures-backend/internal/domain"
)

// classificationSeedFile is the YAML shape of the classification library
// shipped with the application.
type classificationSeedFile struct {
	// Standardiser maps raw source-data labels onto canonical values.
	Standardiser    map[string]string    `yaml:"standardiser"`
	Classifications []classificationSeed `yaml:"classifications"`
}

// LoadStandardiser reads the raw-label mapping shipped alongside the
// classification library.
func LoadStandardiser(path string) (*Standardiser, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classification seed %q: %w", path, err)
	}
	var file classificationSeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse classification seed %q: %w", path, err)
	}
	return NewStandardiser(file.Standardiser), nil
}

type classificationSeed struct {
	Code      string            `yaml:"code"`
	Family    string            `yaml:"family"`
	Subfamily string            `yaml:"subfamily"`
	Title     string            `yaml:"title"`
	Position  int               `yaml:"position"`
	Values    []seedValue       `yaml:"values"`
	Parents   []seedParentValue `yaml:"parents"`
}

type seedValue struct {
	Value    string `yaml:"value"`
	Required bool   `yaml:"required"`
	Parent   string `yaml:"parent"`
}

type seedParentValue struct {
	Value    string `yaml:"value"`
	Required bool   `yaml:"required"`
}

// SyncFromFile loads the classification library from a YAML file,
// creating classifications that are not registered yet. Existing
// classifications (matched by code) are left untouched.
func (s *classificationRegistryService) SyncFromFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read classification seed %q: %w", path, err)
	}
	var file classificationSeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse classification seed %q: %w", path, err)
	}

	var created int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, seed := range file.Classifications {
			existing, err := s.classificationRepo.GetByCode(ctx, tx, seed.Code)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := s.createFromSeed(ctx, tx, seed); err != nil {
				return fmt.Errorf("seed classification %q: %w", seed.Code, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return err
	}
	if created > 0 {
		s.log.Info("Synced classification library", "path", path, "created", created)
	}
	return nil
}

func (s *classificationRegistryService) createFromSeed(ctx context.Context, tx *gorm.DB, seed classificationSeed) error {
	c := &types.Classification{
		ID:        uuid.New(),
		Code:      seed.Code,
		Family:    seed.Family,
		Subfamily: seed.Subfamily,
		Title:     seed.Title,
		Position:  seed.Position,
	}
	if err := s.classificationRepo.Create(ctx, tx, c); err != nil {
		return err
	}

	// Resolve the whole vocabulary of this classification in one pass.
	names := make([]string, 0, len(seed.Values)+len(seed.Parents))
	for _, v := range seed.Values {
		names = append(names, v.Value)
		if v.Parent != "" {
			names = append(names, v.Parent)
		}
	}
	for _, p := range seed.Parents {
		names = append(names, p.Value)
	}
	ethnicities, err := s.ethnicityRepo.GetOrCreateByValues(ctx, tx, dedupe(names))
	if err != nil {
		return err
	}
	byValue := make(map[string]uuid.UUID, len(ethnicities))
	for _, e := range ethnicities {
		byValue[e.Value] = e.ID
	}

	parentRows := make([]*types.ClassificationParentValue, 0, len(seed.Parents))
	for i, p := range seed.Parents {
		parentRows = append(parentRows, &types.ClassificationParentValue{
			ID:               uuid.New(),
			ClassificationID: c.ID,
			EthnicityID:      byValue[p.Value],
			Position:         i + 1,
			Required:         p.Required,
		})
	}
	if err := s.classificationRepo.CreateParentValues(ctx, tx, parentRows); err != nil {
		return err
	}

	valueRows := make([]*types.ClassificationValue, 0, len(seed.Values))
	for i, v := range seed.Values {
		row := &types.ClassificationValue{
			ID:               uuid.New(),
			ClassificationID: c.ID,
			EthnicityID:      byValue[v.Value],
			Position:         i + 1,
			Required:         v.Required,
		}
		if v.Parent != "" {
			parentID := byValue[v.Parent]
			row.ParentEthnicityID = &parentID
		}
		valueRows = append(valueRows, row)
	}
	return s.classificationRepo.CreateValues(ctx, tx, valueRows)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
