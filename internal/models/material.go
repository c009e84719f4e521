package models

import (
	"time"
)

type MaterialType string

const (
	MaterialPlastic     MaterialType = "Plastic"
	MaterialPaper       MaterialType = "Paper"
	MaterialCardboard   MaterialType = "Cardboard"
	MaterialGlass       MaterialType = "Glass"
	MaterialMetal       MaterialType = "Metal"
	MaterialAluminum    MaterialType = "Aluminum"
	MaterialElectronics MaterialType = "Electronics"
	MaterialTextile     MaterialType = "Textile"
	MaterialOrganic     MaterialType = "Organic"
	MaterialWood        MaterialType = "Wood"
)

// MaterialTypes lists every recognised category in catalog order.
var MaterialTypes = []MaterialType{
	MaterialPlastic,
	MaterialPaper,
	MaterialCardboard,
	MaterialGlass,
	MaterialMetal,
	MaterialAluminum,
	MaterialElectronics,
	MaterialTextile,
	MaterialOrganic,
	MaterialWood,
}

func (t MaterialType) Valid() bool {
	for _, known := range MaterialTypes {
		if t == known {
			return true
		}
	}
	return false
}

type PriceEntry struct {
	Price float64   `json:"price" bson:"price"`
	Date  time.Time `json:"date" bson:"date"`
}

type Material struct {
	MaterialID        string       `json:"materialID" bson:"_id"`
	Type              MaterialType `json:"type" bson:"type"`
	AveragePricePerKg float64      `json:"averagePricePerKg" bson:"averagePricePerKg"`
	PricingHistory    []PriceEntry `json:"pricingHistory" bson:"pricingHistory"`
	CreatedAt         time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// MeanPrice is the simple mean over the whole history, 0 for an empty one.
func MeanPrice(history []PriceEntry) float64 {
	if len(history) == 0 {
		return 0
	}
	var sum float64
	for _, e := range history {
		sum += e.Price
	}
	return sum / float64(len(history))
}
