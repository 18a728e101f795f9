package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lead is an unqualified sales inquiry at the top of the pipeline.
type Lead struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LeadCode     string    `gorm:"uniqueIndex;not null" json:"lead_code"`
	CompanyName  string    `gorm:"not null" json:"company_name"`
	ContactName  string    `json:"contact_name"`
	Phone        string    `json:"phone"`
	Source       string    `json:"source"`
	Status       string    `gorm:"default:NEW;index" json:"status"`
	OwnerID      *uint     `gorm:"index" json:"owner_id"`
	Requirement  *string   `gorm:"type:text" json:"requirement"`
	CustomerID   *uint     `gorm:"index" json:"customer_id"`
	ConvertedAt  *time.Time `json:"converted_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Associations
	Owner    *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName specifies the table name for Lead
func (Lead) TableName() string {
	return "leads"
}

// Lead status constants
const (
	LeadStatusNew       = "NEW"
	LeadStatusQualified = "QUALIFIED"
	LeadStatusConverted = "CONVERTED"
	LeadStatusDropped   = "DROPPED"
)

// MayConvert returns true if the lead can still be converted
func (l *Lead) MayConvert() bool {
	return l.Status == LeadStatusNew || l.Status == LeadStatusQualified
}

// Opportunity is a qualified deal being worked toward a quote.
type Opportunity struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OpportunityCode string         `gorm:"uniqueIndex;not null" json:"opportunity_code"`
	CustomerID     uint            `gorm:"not null;index" json:"customer_id"`
	LeadID         *uint           `gorm:"index" json:"lead_id"`
	Name           string          `gorm:"not null" json:"name"`
	Stage          string          `gorm:"default:DISCOVERY;index" json:"stage"`
	ExpectedAmount decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"expected_amount"`
	ExpectedClose  *time.Time      `gorm:"type:date" json:"expected_close"`
	OwnerID        *uint           `gorm:"index" json:"owner_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Associations
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Lead     *Lead     `gorm:"foreignKey:LeadID" json:"-"`
	Quotes   []Quote   `gorm:"foreignKey:OpportunityID" json:"quotes,omitempty"`
}

// TableName specifies the table name for Opportunity
func (Opportunity) TableName() string {
	return "opportunities"
}

// Opportunity stage constants
const (
	OpportunityStageDiscovery = "DISCOVERY"
	OpportunityStageProposal  = "PROPOSAL"
	OpportunityStageWon       = "WON"
	OpportunityStageLost      = "LOST"
)

// IsOpen returns true while the deal is still being worked
func (o *Opportunity) IsOpen() bool {
	return o.Stage == OpportunityStageDiscovery || o.Stage == OpportunityStageProposal
}

// Quote is a priced proposal against an opportunity. An accepted quote
// converts into a draft contract.
type Quote struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	QuoteCode     string          `gorm:"uniqueIndex;not null" json:"quote_code"`
	OpportunityID uint            `gorm:"not null;index" json:"opportunity_id"`
	CustomerID    uint            `gorm:"not null;index" json:"customer_id"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	Status        string          `gorm:"default:DRAFT;index" json:"status"`
	ValidUntil    *time.Time      `gorm:"type:date" json:"valid_until"`
	Note          *string         `gorm:"type:text" json:"note"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Associations
	Opportunity *Opportunity `gorm:"foreignKey:OpportunityID" json:"-"`
	Customer    *Customer    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName specifies the table name for Quote
func (Quote) TableName() string {
	return "quotes"
}

// Quote status constants
const (
	QuoteStatusDraft    = "DRAFT"
	QuoteStatusSent     = "SENT"
	QuoteStatusAccepted = "ACCEPTED"
	QuoteStatusRejected = "REJECTED"
	QuoteStatusExpired  = "EXPIRED"
)

// MayAccept returns true if the quote can still be accepted
func (q *Quote) MayAccept() bool {
	if q.Status != QuoteStatusDraft && q.Status != QuoteStatusSent {
		return false
	}
	if q.ValidUntil != nil && time.Now().After(*q.ValidUntil) {
		return false
	}
	return true
}
