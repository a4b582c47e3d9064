package entities

import (
	"github.com/phuanduong/ledger/models"
)

type ProfitSharing struct {
	*models.ProfitSharing
	Distributions []*models.ProfitDistribution `json:"distributions"`
	Allocated     int64                        `json:"allocated"`
	Residual      int64                        `json:"residual"`
}

// ProfitSharingToEntity adds the allocation totals. Residual is the VND left
// over by clamping and flooring.
func ProfitSharingToEntity(sharing *models.ProfitSharing, distributions []*models.ProfitDistribution) *ProfitSharing {
	entity := &ProfitSharing{ProfitSharing: sharing, Distributions: distributions}
	if entity.Distributions == nil {
		entity.Distributions = make([]*models.ProfitDistribution, 0)
	}

	for _, d := range distributions {
		entity.Allocated += d.CappedAmount
	}
	entity.Residual = sharing.DistributableAmount - entity.Allocated

	return entity
}
