package proposal

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/govhub-labs/govstate-storage/internal/stage"
)

type Filter interface {
	Apply(*gorm.DB) *gorm.DB
}

type PageFilter struct {
	Offset int
	Limit  int
}

func (f PageFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Offset(f.Offset).Limit(f.Limit)
}

type StatusFilter struct {
	Status stage.ProposalStatus
}

func (f StatusFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", f.Status)
}

type CurrentStageFilter struct {
	Stage stage.Type
}

func (f CurrentStageFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("current_stage = ?", f.Stage)
}

type EmergencyFilter struct {
	IsEmergency bool
}

func (f EmergencyFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_emergency = ?", f.IsEmergency)
}

type OrderByFilter struct {
	Field string
	Desc  bool
}

func (f OrderByFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{
		Column: clause.Column{Name: f.Field},
		Desc:   f.Desc,
	})
}
