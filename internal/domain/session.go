package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// SessionStatus is the lifecycle of a service-request record.
type SessionStatus string

const (
	StatusRequested SessionStatus = "requested"
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusRejected  SessionStatus = "rejected"
)

// ServiceType tags what the customer asked the agent for.
type ServiceType string

const (
	ServiceKYC            ServiceType = "KYC"
	ServiceAccountOpening ServiceType = "ACCOUNT_OPENING"
	ServiceLoanApproval   ServiceType = "LOAN_APPROVAL"
	ServiceCardIssuance   ServiceType = "CARD_ISSUANCE"
	ServiceCardBlocking   ServiceType = "CARD_BLOCKING"
)

func ParseServiceType(s string) (ServiceType, error) {
	switch ServiceType(s) {
	case ServiceKYC, ServiceAccountOpening, ServiceLoanApproval,
		ServiceCardIssuance, ServiceCardBlocking:
		return ServiceType(s), nil
	}
	return "", fmt.Errorf("unknown service type %q", s)
}

// SessionRecord is the persisted representation of a service request,
// keyed by the same room id the signaling relay uses.
type SessionRecord struct {
	RoomID      string        `json:"room_id"`
	CustomerID  string        `json:"customer_id"`
	AgentID     string        `json:"agent_id,omitempty"`
	ServiceType ServiceType   `json:"service_type"`
	Status      SessionStatus `json:"status"`
	RequestedAt time.Time     `json:"requested_at"`
}

var roomPrefixes = map[ServiceType]string{
	ServiceKYC:            "kyc",
	ServiceAccountOpening: "acct",
	ServiceLoanApproval:   "loan",
	ServiceCardIssuance:   "card",
	ServiceCardBlocking:   "block",
}

// NewRoomID generates a room identifier like "kyc-7f3a2b".
func NewRoomID(service ServiceType) string {
	prefix, ok := roomPrefixes[service]
	if !ok {
		prefix = "room"
	}
	var b [3]byte
	_, _ = rand.Read(b[:])
	return prefix + "-" + hex.EncodeToString(b[:])
}
