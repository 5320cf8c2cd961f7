package usecase

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
)

// CreditPackage is a purchasable bundle of credits
type CreditPackage struct {
	ID           string `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	BaseCredits  int64  `yaml:"base_credits" json:"baseCredits"`
	BonusCredits int64  `yaml:"bonus_credits" json:"bonusCredits"`
	PriceMinor   int64  `yaml:"price_minor" json:"priceMinor"`
}

// TotalCredits is base plus bonus
func (p CreditPackage) TotalCredits() int64 {
	return p.BaseCredits + p.BonusCredits
}

type catalogFile struct {
	Packages []CreditPackage `yaml:"packages"`
}

// Catalog is the read-only set of packages on sale
type Catalog struct {
	packages map[string]CreditPackage
	ordered  []CreditPackage
}

// LoadCatalog reads the packages file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read packages file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse packages file: %w", err)
	}

	return NewCatalog(file.Packages)
}

// NewCatalog validates packages and indexes them by id
func NewCatalog(packages []CreditPackage) (*Catalog, error) {
	c := &Catalog{packages: make(map[string]CreditPackage, len(packages))}
	for _, p := range packages {
		switch {
		case p.ID == "":
			return nil, fmt.Errorf("package without id")
		case p.BaseCredits <= 0 || p.BonusCredits < 0 || p.PriceMinor <= 0:
			return nil, fmt.Errorf("package %s: credits and price must be positive", p.ID)
		}
		if _, dup := c.packages[p.ID]; dup {
			return nil, fmt.Errorf("duplicate package id %s", p.ID)
		}
		c.packages[p.ID] = p
		c.ordered = append(c.ordered, p)
	}
	return c, nil
}

// Get returns ErrPackageNotFound for unknown ids
func (c *Catalog) Get(id string) (CreditPackage, error) {
	p, ok := c.packages[id]
	if !ok {
		return CreditPackage{}, fmt.Errorf("%w: %s", domainErrors.ErrPackageNotFound, id)
	}
	return p, nil
}

// List returns packages in file order
func (c *Catalog) List() []CreditPackage {
	out := make([]CreditPackage, len(c.ordered))
	copy(out, c.ordered)
	return out
}
