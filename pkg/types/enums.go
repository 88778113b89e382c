package types

import "slices"

// FileType classifies an uploaded document.
type FileType string

// File types.
const (
	FileTypeCV              FileType = "cv"
	FileTypeCoverLetter     FileType = "cover_letter"
	FileTypeRecommendation  FileType = "recommendation"
	FileTypeReferenceLetter FileType = "reference_letter"
	FileTypeOther           FileType = "other"
)

// FileTypes lists every file type.
var FileTypes = []FileType{FileTypeCV, FileTypeCoverLetter, FileTypeRecommendation, FileTypeReferenceLetter, FileTypeOther}

// Valid reports whether t is a recognized file type.
func (t FileType) Valid() bool { return slices.Contains(FileTypes, t) }

// ApplicationStatus is the recruitment state of an application.
type ApplicationStatus string

// Application statuses.
const (
	StatusSent      ApplicationStatus = "sent"
	StatusInterview ApplicationStatus = "interview"
	StatusWaiting   ApplicationStatus = "waiting"
	StatusOffer     ApplicationStatus = "offer"
	StatusRejected  ApplicationStatus = "rejected"
)

// Statuses lists every application status.
var Statuses = []ApplicationStatus{StatusSent, StatusInterview, StatusWaiting, StatusOffer, StatusRejected}

// Valid reports whether s is a recognized status.
func (s ApplicationStatus) Valid() bool { return slices.Contains(Statuses, s) }

// Priority ranks applications against each other.
type Priority string

// Priorities.
const (
	PriorityNormal    Priority = "normal"
	PriorityHigh      Priority = "high"
	PriorityPromising Priority = "promising"
)

// Priorities lists every priority.
var Priorities = []Priority{PriorityNormal, PriorityHigh, PriorityPromising}

// Valid reports whether p is a recognized priority.
func (p Priority) Valid() bool { return slices.Contains(Priorities, p) }

// StepType classifies a recruitment step.
type StepType string

// Step types.
const (
	StepScreening      StepType = "screening"
	StepPhoneInterview StepType = "phone_interview"
	StepTechnical      StepType = "technical"
	StepOnsite         StepType = "onsite"
	StepHRInterview    StepType = "hr_interview"
	StepTask           StepType = "task"
	StepOffer          StepType = "offer"
	StepOther          StepType = "other"
)

// StepTypes lists every step type.
var StepTypes = []StepType{
	StepScreening, StepPhoneInterview, StepTechnical, StepOnsite,
	StepHRInterview, StepTask, StepOffer, StepOther,
}

// Valid reports whether t is a recognized step type.
func (t StepType) Valid() bool { return slices.Contains(StepTypes, t) }

// EventType classifies a calendar event.
type EventType string

// Event types.
const (
	EventInterview   EventType = "interview"
	EventPreparation EventType = "preparation"
	EventFollowUp    EventType = "follow_up"
	EventDeadline    EventType = "deadline"
	EventOther       EventType = "other"
)

// EventTypes lists every event type.
var EventTypes = []EventType{EventInterview, EventPreparation, EventFollowUp, EventDeadline, EventOther}

// Valid reports whether t is a recognized event type.
func (t EventType) Valid() bool { return slices.Contains(EventTypes, t) }
