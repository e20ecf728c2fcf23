package domain

import (
	"fmt"
	"time"
)

// Status is the contract lifecycle state. Transitions are monotonic and go
// through the table below; the only shortcuts are the administrative
// cancellation and the expiry sweep, both of which stop at the first terminal
// state. Every caller (HTTP handlers, services, expiry worker) mutates
// contracts through the methods in this file so the rules live in one place.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusPendingSignature Status = "pending_signature"
	StatusSigned           Status = "signed"
	StatusExpired          Status = "expired"
	StatusCancelled        Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusDraft:            {StatusPendingSignature, StatusExpired, StatusCancelled},
	StatusPendingSignature: {StatusSigned, StatusExpired, StatusCancelled},
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s accepts no further transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingSignature, StatusSigned, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Party identifies which side of the contract is acting. Both sign endpoints
// collapse into one code path parameterised by Party so validation cannot
// drift between the two roles.
type Party string

const (
	PartyAdmin    Party = "admin"
	PartySupplier Party = "supplier"
)

// Valid reports whether p is a known party.
func (p Party) Valid() bool {
	return p == PartyAdmin || p == PartySupplier
}

func (c *Contract) appendActivity(typ, message, actor string, at time.Time) {
	c.ActivityLog = append(c.ActivityLog, ActivityEntry{
		Type:      typ,
		Message:   message,
		ActorName: actor,
		Timestamp: at,
	})
}

func (c *Contract) transition(next Status, message, actor string, at time.Time) error {
	if !c.Status.CanTransition(next) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrValidation, c.Status, next)
	}
	c.Status = next
	c.UpdatedAt = at
	c.appendActivity(ActivityStatusUpdate, message, actor, at)
	return nil
}

// Frozen reports whether the contract's variable mapping accepts no more
// writes. Drafts stay editable; everything past draft is write-once.
func (c *Contract) Frozen() bool {
	return c.Status != StatusDraft
}

// SetVariables replaces the contract's variable mapping. Only drafts accept
// edits; the new mapping must stay total over the old one's keys so the
// render invariant (a value for every placeholder) holds.
func (c *Contract) SetVariables(vars map[string]string, at time.Time) error {
	if c.Frozen() {
		return fmt.Errorf("%w: variables are frozen once the contract leaves draft", ErrValidation)
	}
	merged := make(map[string]string, len(c.Variables))
	for k, v := range c.Variables {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	c.Variables = merged
	c.UpdatedAt = at
	return nil
}

// Send moves a draft to pending signature and freezes its variables. The
// signature request email is recorded alongside the transition.
func (c *Contract) Send(actor string, at time.Time) error {
	if c.Status != StatusDraft {
		return fmt.Errorf("%w: contract is %s, only drafts can be sent", ErrValidation, c.Status)
	}
	if err := c.transition(StatusPendingSignature, "Contract sent to supplier for signature", actor, at); err != nil {
		return err
	}
	c.appendActivity(ActivityEmail, "Signature request emailed to supplier", actor, at)
	return nil
}

// Sign records one party's signature. Each party signs exactly once and in
// any order; the contract becomes Signed the moment both signatures are
// present. Signed and terminal contracts reject all signature writes.
func (c *Contract) Sign(party Party, sig Signature, actor string, at time.Time) error {
	if !party.Valid() {
		return fmt.Errorf("%w: unknown signing party %q", ErrValidation, party)
	}
	switch c.Status {
	case StatusPendingSignature:
	case StatusDraft:
		return fmt.Errorf("%w: contract has not been sent for signature", ErrValidation)
	default:
		return ErrContractAlreadyFinal
	}
	if sig.Name == "" {
		return fmt.Errorf("%w: signer name is required", ErrValidation)
	}

	slot := &c.SupplierSignature
	if party == PartyAdmin {
		slot = &c.AdminSignature
	}
	if *slot != nil {
		return ErrAlreadySigned
	}
	s := sig
	*slot = &s
	c.UpdatedAt = at
	c.appendActivity(ActivitySignature, fmt.Sprintf("Signed by %s (%s)", sig.Name, party), actor, at)

	if c.AdminSignature != nil && c.SupplierSignature != nil {
		return c.transition(StatusSigned, "Contract signed by both parties", actor, at)
	}
	return nil
}

// Cancel is the administrative stop. Signed contracts cannot be cancelled.
func (c *Contract) Cancel(actor string, at time.Time) error {
	if c.Status == StatusSigned || c.Status.Terminal() {
		return ErrContractAlreadyFinal
	}
	return c.transition(StatusCancelled, "Contract cancelled by "+actor, actor, at)
}

// Expire marks an overdue contract. Signed and terminal contracts are left
// untouched.
func (c *Contract) Expire(at time.Time) error {
	if c.Status == StatusSigned || c.Status.Terminal() {
		return ErrContractAlreadyFinal
	}
	return c.transition(StatusExpired, "Contract expired without full signature", "system", at)
}

// CanDelete rejects deletion of anything past draft to keep the audit trail.
func (c *Contract) CanDelete() error {
	if c.Status != StatusDraft {
		return ErrInvalidStateForDeletion
	}
	return nil
}
