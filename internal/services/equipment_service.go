package services

import (
	"context"

	"equiploan/internal/domain"
	"equiploan/internal/repos"
)

type EquipmentService struct {
	Equipment *repos.EquipmentRepo
}

func NewEquipmentService(eq *repos.EquipmentRepo) *EquipmentService {
	return &EquipmentService{Equipment: eq}
}

func (s *EquipmentService) Types(ctx context.Context) ([]domain.EquipmentType, error) {
	return s.Equipment.Types(ctx)
}

func (s *EquipmentService) Get(ctx context.Context, id string) (domain.Equipment, error) {
	e, err := s.Equipment.Get(ctx, id)
	if repos.IsNotFound(err) {
		return e, ErrEquipmentNotFound
	}
	return e, err
}

func (s *EquipmentService) Search(ctx context.Context, q, typeID, status string, page, pageSize int) ([]domain.Equipment, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 24
	}
	offset := (page - 1) * pageSize
	return s.Equipment.Search(ctx, q, typeID, status, pageSize, offset)
}
