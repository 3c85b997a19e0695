package qr

import (
	"encoding/json"

	"github.com/skip2/go-qrcode"

	"ms-landscaping/internal/models"
)

// TagGenerator renders printable QR asset tags for equipment so crews can
// scan an item in the field and pull up its record.
type TagGenerator struct {
	baseURL string
}

func NewTagGenerator(baseURL string) *TagGenerator {
	return &TagGenerator{baseURL: baseURL}
}

type tagPayload struct {
	EquipmentID string `json:"equipment_id"`
	Name        string `json:"name"`
	SerialNo    string `json:"serial_no"`
	URL         string `json:"url"`
}

// GenerateTag encodes the equipment identity and lookup URL as a PNG QR
// code.
func (g *TagGenerator) GenerateTag(item models.Equipment) ([]byte, error) {
	payload := tagPayload{
		EquipmentID: item.EquipmentID,
		Name:        item.Name,
		SerialNo:    item.SerialNo,
		URL:         g.baseURL + "/api/equipment/" + item.EquipmentID,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(string(data), qrcode.Medium, 256)
}
