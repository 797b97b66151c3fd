// Package directoryrepo persists the party directory and the product catalog.
package directoryrepo

import (
	"custody/internal/core/domain/model/catalog"
	"custody/internal/core/domain/model/kernel"
	"custody/internal/core/domain/model/party"

	"github.com/google/uuid"
)

type PartyDTO struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"type:varchar(255);not null"`
	Role int       `gorm:"type:smallint;not null;index"`
}

func (PartyDTO) TableName() string {
	return "parties"
}

type ProductDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"type:varchar(255);not null"`
	SellerID      uuid.UUID `gorm:"type:uuid;not null;index"`
	CoordinatorID uuid.UUID `gorm:"type:uuid;not null"`
}

func (ProductDTO) TableName() string {
	return "products"
}

func partyFromDomain(p party.Party) PartyDTO {
	return PartyDTO{ID: p.ID().Bytes(), Name: p.Name(), Role: int(p.Role())}
}

func partyToDomain(dto PartyDTO) (party.Party, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return party.Party{}, err
	}
	return party.NewParty(id, dto.Name, kernel.Role(dto.Role))
}

func productFromDomain(p catalog.Product) ProductDTO {
	return ProductDTO{
		ID:            p.ID().Bytes(),
		Name:          p.Name(),
		SellerID:      p.Seller().Bytes(),
		CoordinatorID: p.Coordinator().Bytes(),
	}
}

func productToDomain(dto ProductDTO) (catalog.Product, error) {
	ids := make([]kernel.UUID, 0, 3)
	for _, raw := range []uuid.UUID{dto.ID, dto.SellerID, dto.CoordinatorID} {
		id, err := kernel.UUIDFromBytes(raw[:])
		if err != nil {
			return catalog.Product{}, err
		}
		ids = append(ids, id)
	}
	return catalog.NewProduct(ids[0], dto.Name, ids[1], ids[2])
}
