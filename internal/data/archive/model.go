package archive

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PurchaseRecord is the archived terminal outcome of a purchase instance.
// Written once, when the workflow reaches a terminal state.
type PurchaseRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID    string    `gorm:"index" json:"usuario_id"`
	WorkflowID string    `gorm:"index" json:"workflow_id"`
	CartID     string    `json:"carrito_id"`

	State         string          `json:"estado"`
	Outcome       string          `json:"resultado"`
	TermsAccepted bool            `json:"terminos_aceptados"`
	Total         decimal.Decimal `gorm:"type:numeric" json:"total"`
	Items         datatypes.JSON  `json:"items"`

	CarrierRequestID string `json:"carrier_request_id,omitempty"`
	TrackingID       string `json:"tracking_id,omitempty"`
	DispatchAttempts int    `json:"intentos_envio,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (PurchaseRecord) TableName() string { return "purchase_archive" }

func (r *PurchaseRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
