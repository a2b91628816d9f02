// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event.
type EventType string

// Events are published after the owning transaction commits and drive the
// Redis projections.
const (
	EventStudentAdmitted  EventType = "student.admitted"
	EventStudentUpdated   EventType = "student.updated"
	EventPresenceSignaled EventType = "presence.signaled"
	EventTaskCompleted    EventType = "leaderboard.task_completed"
	EventPaymentRecorded  EventType = "payment.recorded"
	EventQuizSubmitted    EventType = "quiz.submitted"
)

// Event is anything the bus can carry.
type Event interface {
	EventID() string
	EventType() EventType
	OccurredAt() time.Time
	// AggregateID is the FCC ID of the student the event is about.
	AggregateID() string
}

// BaseEvent is embedded by every concrete event.
type BaseEvent struct {
	ID      string    `json:"id"`
	Type    EventType `json:"type"`
	At      time.Time `json:"occurred_at"`
	Student string    `json:"aggregate_id"`
}

func newBase(t EventType, fccID string, at time.Time) BaseEvent {
	return BaseEvent{ID: uuid.NewString(), Type: t, At: at, Student: fccID}
}

func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) EventType() EventType  { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.At }
func (e BaseEvent) AggregateID() string   { return e.Student }

// ═══════════════════════════════════════════════════════════════════════════
// Students
// ═══════════════════════════════════════════════════════════════════════════

type StudentAdmittedEvent struct {
	BaseEvent
	FccID    string `json:"fcc_id"`
	Name     string `json:"name"`
	FccClass string `json:"fcc_class"`
}

func NewStudentAdmittedEvent(fccID, name, fccClass string, at time.Time) StudentAdmittedEvent {
	return StudentAdmittedEvent{
		BaseEvent: newBase(EventStudentAdmitted, fccID, at),
		FccID:     fccID,
		Name:      name,
		FccClass:  fccClass,
	}
}

// StudentUpdatedEvent follows a committed profile update. PaymentStatusChanged
// is set when the update also rewrote the student's payments.
type StudentUpdatedEvent struct {
	BaseEvent
	FccID                string `json:"fcc_id"`
	PaymentStatusChanged bool   `json:"payment_status_changed"`
}

func NewStudentUpdatedEvent(fccID string, paymentStatusChanged bool, at time.Time) StudentUpdatedEvent {
	return StudentUpdatedEvent{
		BaseEvent:            newBase(EventStudentUpdated, fccID, at),
		FccID:                fccID,
		PaymentStatusChanged: paymentStatusChanged,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Presence
// ═══════════════════════════════════════════════════════════════════════════

// PresenceSignaledEvent is emitted for every accepted CTC/CTG signal.
type PresenceSignaledEvent struct {
	BaseEvent
	FccID         string `json:"fcc_id"`
	Arrived       bool   `json:"arrived"`
	Departed      bool   `json:"departed"`
	TaskCompleted bool   `json:"task_completed"`
	Inserted      bool   `json:"inserted"`
}

func NewPresenceSignaledEvent(fccID string, arrived, departed, taskCompleted, inserted bool, at time.Time) PresenceSignaledEvent {
	return PresenceSignaledEvent{
		BaseEvent:     newBase(EventPresenceSignaled, fccID, at),
		FccID:         fccID,
		Arrived:       arrived,
		Departed:      departed,
		TaskCompleted: taskCompleted,
		Inserted:      inserted,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Scoring, payments, quizzes
// ═══════════════════════════════════════════════════════════════════════════

// TaskCompletedEvent carries the post-increment total so the ranking
// projection can be set without reading PostgreSQL again.
type TaskCompletedEvent struct {
	BaseEvent
	FccID       string `json:"fcc_id"`
	TaskID      int64  `json:"task_id"`
	ScoreEarned int    `json:"score_earned"`
	NewTotal    int    `json:"new_total"`
	FccClass    string `json:"fcc_class"`
	StudentName string `json:"student_name"`
}

func NewTaskCompletedEvent(fccID string, taskID int64, scoreEarned, newTotal int, fccClass, studentName string, at time.Time) TaskCompletedEvent {
	return TaskCompletedEvent{
		BaseEvent:   newBase(EventTaskCompleted, fccID, at),
		FccID:       fccID,
		TaskID:      taskID,
		ScoreEarned: scoreEarned,
		NewTotal:    newTotal,
		FccClass:    fccClass,
		StudentName: studentName,
	}
}

type PaymentRecordedEvent struct {
	BaseEvent
	PaymentID   int64  `json:"payment_id"`
	FccID       string `json:"fcc_id"`
	GrandTotal  string `json:"grand_total"`
	ReceiptPath string `json:"receipt_path"`
}

func NewPaymentRecordedEvent(paymentID int64, fccID, grandTotal, receiptPath string, at time.Time) PaymentRecordedEvent {
	return PaymentRecordedEvent{
		BaseEvent:   newBase(EventPaymentRecorded, fccID, at),
		PaymentID:   paymentID,
		FccID:       fccID,
		GrandTotal:  grandTotal,
		ReceiptPath: receiptPath,
	}
}

type QuizSubmittedEvent struct {
	BaseEvent
	SessionID  int64  `json:"session_id"`
	FccID      string `json:"fcc_id"`
	SkillTopic string `json:"skill_topic"`
	Score      int    `json:"score"`
}

func NewQuizSubmittedEvent(sessionID int64, fccID, topic string, score int, at time.Time) QuizSubmittedEvent {
	return QuizSubmittedEvent{
		BaseEvent:  newBase(EventQuizSubmitted, fccID, at),
		SessionID:  sessionID,
		FccID:      fccID,
		SkillTopic: topic,
		Score:      score,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Bus ports
// ═══════════════════════════════════════════════════════════════════════════

type EventHandler func(event Event) error

type EventPublisher interface {
	Publish(event Event) error
}

type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
	// SubscribeAll registers handler for every event type.
	SubscribeAll(handler EventHandler) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
}
