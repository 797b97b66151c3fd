package directoryrepo

import (
	"context"
	"errors"

	"custody/internal/core/domain/model/catalog"
	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/party"
	"custody/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPartyDirectory implements ports.PartyDirectory.
type GormPartyDirectory struct {
	db *gorm.DB
}

func NewGormPartyDirectory(db *gorm.DB) *GormPartyDirectory {
	return &GormPartyDirectory{db: db}
}

func (d *GormPartyDirectory) Get(ctx context.Context, id kernel.UUID) (party.Party, error) {
	if err := id.Validate(); err != nil {
		return party.Party{}, err
	}
	var dto PartyDTO
	if err := d.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return party.Party{}, errs.NewObjectNotFoundError("party", id.String())
		}
		return party.Party{}, err
	}
	return partyToDomain(dto)
}

func (d *GormPartyDirectory) ListByRole(ctx context.Context, role kernel.Role) ([]party.Party, error) {
	var dtos []PartyDTO
	if err := d.db.WithContext(ctx).
		Where("role = ?", int(role)).
		Order("name, id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]party.Party, 0, len(dtos))
	for _, dto := range dtos {
		p, err := partyToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *GormPartyDirectory) Save(ctx context.Context, p party.Party) error {
	if err := p.Validate(); err != nil {
		return err
	}
	dto := partyFromDomain(p)
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&dto).Error
}

// GormProductCatalog implements ports.ProductCatalog.
type GormProductCatalog struct {
	db *gorm.DB
}

func NewGormProductCatalog(db *gorm.DB) *GormProductCatalog {
	return &GormProductCatalog{db: db}
}

func (c *GormProductCatalog) FindProduct(ctx context.Context, id kernel.UUID) (catalog.Product, error) {
	if err := id.Validate(); err != nil {
		return catalog.Product{}, err
	}
	var dto ProductDTO
	if err := c.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.Product{}, errs.NewObjectNotFoundError("product", id.String())
		}
		return catalog.Product{}, err
	}
	return productToDomain(dto)
}

func (c *GormProductCatalog) Save(ctx context.Context, p catalog.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	dto := productFromDomain(p)
	return c.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&dto).Error
}
