package types

import "fmt"

// Transitions maps a state to the states it may move to. States without an
// entry are terminal.
type Transitions[S comparable] map[S][]S

func (t Transitions[S]) Can(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}

	return false
}

func (t Transitions[S]) IsTerminal(state S) bool {
	return len(t[state]) == 0
}

// Validate returns a *StateError when from -> to is not in the table.
func (t Transitions[S]) Validate(entity, id string, from, to S) error {
	if t.Can(from, to) {
		return nil
	}

	return &StateError{Entity: entity, ID: id, From: fmt.Sprint(from), To: fmt.Sprint(to)}
}

type DepositState string

const (
	DepositPending  DepositState = "pending"
	DepositApproved DepositState = "approved"
	DepositRejected DepositState = "rejected"
)

var DepositTransitions = Transitions[DepositState]{
	DepositPending: {DepositApproved, DepositRejected},
}

type KpiState string

const (
	KpiRecorded  KpiState = "recorded"
	KpiProcessed KpiState = "processed"
)

var KpiTransitions = Transitions[KpiState]{
	KpiRecorded: {KpiProcessed},
}

type SharingState string

const (
	SharingCalculated  SharingState = "calculated"
	SharingDistributed SharingState = "distributed"
)

var SharingTransitions = Transitions[SharingState]{
	SharingCalculated: {SharingDistributed},
}

type ReferralState string

const (
	ReferralPending   ReferralState = "pending"
	ReferralCompleted ReferralState = "completed"
)

var ReferralTransitions = Transitions[ReferralState]{
	ReferralPending: {ReferralCompleted},
}

type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionApproved TransactionStatus = "approved"
	TransactionRejected TransactionStatus = "rejected"
)

var TransactionTransitions = Transitions[TransactionStatus]{
	TransactionPending: {TransactionApproved, TransactionRejected},
}

type CardState string

const (
	CardActive    CardState = "active"
	CardExhausted CardState = "exhausted"
	CardCancelled CardState = "cancelled"
)

// An exhausted card returns to active when sessions are topped up.
var CardTransitions = Transitions[CardState]{
	CardActive:    {CardExhausted, CardCancelled},
	CardExhausted: {CardActive, CardCancelled},
}
