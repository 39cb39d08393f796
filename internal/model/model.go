package model

import (
	"time"
)

// Partner statuses. Transitions are forward-only: a partner is created awaiting
// approval and is flipped to StatusApproved exactly once.
const (
	StatusPending          = "pending"
	StatusAwaitingApproval = "aguardando_aprovacao"
	StatusApproved         = "aprovado"
)

// User categories and plans.
const (
	CategoryGuide = "guias"
	PlanBasic     = "basic"
)

// Partner represents a business listing pending or approved for display.
// PartnerID is the human-facing 6-digit identifier, assigned exactly once on
// approval and unique across all partners.
type Partner struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Email         string     `db:"email" json:"email"`
	Phone         string     `db:"phone" json:"phone"`
	PartnerID     *string    `db:"partner_id" json:"partnerId,omitempty"`
	Status        string     `db:"status" json:"status"`
	Plan          *string    `db:"plan" json:"plan,omitempty"`
	PaymentStatus *string    `db:"payment_status" json:"paymentStatus,omitempty"`
	LastPaymentID *string    `db:"last_payment_id" json:"lastPaymentId,omitempty"`
	PlanUpdatedAt *time.Time `db:"plan_updated_at" json:"planUpdatedAt,omitempty"`
	ApprovedAt    *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

// User represents an end-user of the platform (traveler or guide).
// PromotionEndDate and Plan are set at most once, by the promotion workflow.
type User struct {
	ID               string     `db:"id" json:"id"`
	Category         string     `db:"category" json:"category"`
	AccountType      string     `db:"account_type" json:"accountType"`
	Plan             *string    `db:"plan" json:"plan,omitempty"`
	PromotionEndDate *time.Time `db:"promotion_end_date" json:"promotionEndDate,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
}

// PromotionCounter tracks how many promotional slots have been granted for a
// named promotion. Count never exceeds the configured cap.
type PromotionCounter struct {
	Name  string `db:"name" json:"name"`
	Count int    `db:"count" json:"count"`
}

// Identity is the authenticated caller delivered by the hosting platform's
// call trigger. A nil Identity means the call carried no auth context.
type Identity struct {
	UID    string         `json:"uid"`
	Email  string         `json:"email"`
	Claims map[string]any `json:"claims,omitempty"`
}

// IsAdmin reports whether the identity carries the administrator role claim.
func (id *Identity) IsAdmin() bool {
	if id == nil || id.Claims == nil {
		return false
	}
	admin, ok := id.Claims["admin"].(bool)
	return ok && admin
}
