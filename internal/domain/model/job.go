package model

import "time"

type ProviderKind string

const (
	ProviderPhoto  ProviderKind = "photo"
	ProviderAvatar ProviderKind = "avatar"
)

// JobStatus is the normalized status vocabulary shared by every provider.
// Provider-native strings ("started", "waiting", ...) are mapped onto this
// set inside the adapters and never leak past them.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusSubmitted  JobStatus = "submitted"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
	JobStatusTimeout    JobStatus = "timeout"
)

// Terminal reports whether no further status transition is permitted.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusFailed || s == JobStatusTimeout
}

// JobRecord is the unit of tracked work. ID is assigned by the provider and
// is the primary key of the store. Once Status turns terminal the record is
// immutable apart from Raw/UpdatedAt, which stay writable for auditing.
type JobRecord struct {
	ID        string       `json:"id"`
	Provider  ProviderKind `json:"provider"`
	Status    JobStatus    `json:"status"`
	VideoURL  string       `json:"video_url,omitempty"`
	ToEmail   string       `json:"to_email,omitempty"`
	OrderName string       `json:"order_name,omitempty"`
	Raw       string       `json:"raw,omitempty"`
	LastError string       `json:"last_error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// JobUpdate is a partial write merged into a JobRecord by the store.
// Zero-valued fields are left untouched; Raw/LastError use pointers so an
// explicit empty string can clear them.
type JobUpdate struct {
	Provider  ProviderKind
	Status    JobStatus
	VideoURL  string
	ToEmail   string
	OrderName string
	Raw       *string
	LastError *string
}

type VoiceVendor string

const (
	VoiceMicrosoft  VoiceVendor = "microsoft"
	VoiceElevenLabs VoiceVendor = "elevenlabs"
	VoiceHeygen     VoiceVendor = "heygen"
)

// VoiceSpec is the tagged form of the "ms:<id>" / "eleven:<id>" /
// "heygen:<id>" specifiers accepted at the ingress boundary. It is decided
// once, at parse time, and never re-parsed deeper in the core.
type VoiceSpec struct {
	Vendor VoiceVendor
	ID     string
}

func (v VoiceSpec) IsZero() bool { return v.Vendor == "" && v.ID == "" }

// DefaultVoice is used when a submission carries no voice at all.
var DefaultVoice = VoiceSpec{Vendor: VoiceMicrosoft, ID: "it-IT-GiuseppeNeural"}

// PhotoJob drives a still image. Exactly one of Script/AudioURL must be set.
type PhotoJob struct {
	ImageURL string
	Script   string
	Voice    VoiceSpec
	AudioURL string
}

// AvatarJob drives a stock avatar. Exactly one of Script/AudioURL must be set.
type AvatarJob struct {
	AvatarID string
	Script   string
	VoiceID  string
	AudioURL string
}
