package proposal

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) GetByID(id string) (*Proposal, error) {
	var p Proposal

	err := r.db.
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Where("id = @id", sql.Named("id", id)).
		First(&p).
		Error
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *Repo) GetList(filters ...Filter) ([]Proposal, error) {
	db := r.db.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	})

	for _, f := range filters {
		db = f.Apply(db)
	}

	var list []Proposal
	if err := db.Find(&list).Error; err != nil {
		return nil, err
	}

	return list, nil
}

func (r *Repo) Count(filters ...Filter) (int64, error) {
	db := r.db.Model(&Proposal{})
	for _, f := range filters {
		db = f.Apply(db)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// Upsert replaces the stored snapshot of a proposal together with its
// nested stage collection in one transaction.
func (r *Repo) Upsert(p *Proposal) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.
			Omit("Stages").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			Create(p).
			Error
		if err != nil {
			return fmt.Errorf("upsert proposal: %w", err)
		}

		err = tx.
			Where("proposal_id = @id", sql.Named("id", p.ID)).
			Delete(&Stage{}).
			Error
		if err != nil {
			return fmt.Errorf("drop stages: %w", err)
		}

		if len(p.Stages) == 0 {
			return nil
		}

		if err := tx.Create(&p.Stages).Error; err != nil {
			return fmt.Errorf("store stages: %w", err)
		}

		return nil
	})
}

// GetSummary returns the stored AI digest of a proposal.
func (r *Repo) GetSummary(proposalID string) (string, error) {
	var info AISummary

	err := r.db.
		Where("proposal_id = @proposal_id", sql.Named("proposal_id", proposalID)).
		First(&info).
		Error
	if err != nil {
		return "", err
	}

	return info.Summary, nil
}

func (r *Repo) CreateSummary(sum *AISummary) error {
	return r.db.Create(&sum).Error
}
