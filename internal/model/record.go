package model

import "time"

// RecordType identifies the aggregate record category. The category also
// names the pending counter a record resolves when its acknowledgment
// round-trips back from the sink pipeline.
type RecordType string

const (
	RecordView     RecordType = "view"
	RecordAction   RecordType = "action"
	RecordResource RecordType = "resource"
	RecordError    RecordType = "error"
	RecordLongTask RecordType = "long_task"
)

// Action types for action records.
const (
	ActionApplicationStart = "application_start"
	ActionCustom           = "custom"
	ActionTap              = "tap"
	ActionScroll           = "scroll"
)

// Record is one fully-formed aggregate document handed to the sink.
// The envelope identifies the emitting scope chain; exactly one of the
// detail pointers matching Type is populated.
type Record struct {
	Type RecordType `json:"type"`
	Date time.Time  `json:"date"`

	Application ApplicationInfo `json:"application"`
	Session     SessionInfo     `json:"session"`
	View        ViewInfo        `json:"view"`

	User    *UserInfo    `json:"usr,omitempty"`
	Network *NetworkInfo `json:"network,omitempty"`

	Attributes map[string]any `json:"context,omitempty"`

	ViewDetail     *ViewDetail     `json:"view_detail,omitempty"`
	ActionDetail   *ActionDetail   `json:"action_detail,omitempty"`
	ResourceDetail *ResourceDetail `json:"resource_detail,omitempty"`
	ErrorDetail    *ErrorDetail    `json:"error_detail,omitempty"`
	LongTaskDetail *LongTaskDetail `json:"long_task_detail,omitempty"`

	// AckCategory names the pending counter this record resolves once the
	// sink accepts or rejects it. Defaults to Type; a resource stopped with
	// an error emits an error record that still acks as a resource. View
	// records never ack.
	AckCategory RecordType `json:"-"`
}

// ApplicationInfo identifies the instrumented application.
type ApplicationInfo struct {
	ID string `json:"id"`
}

// SessionInfo identifies the session a record belongs to.
type SessionInfo struct {
	ID string `json:"id"`
}

// ViewInfo identifies the view a record belongs to.
type ViewInfo struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// ViewDetail is the cumulative state of a view scope. DocVersion increases
// strictly across consecutive emissions for the same view.
type ViewDetail struct {
	DocVersion    int64            `json:"document_version"`
	TimeSpent     time.Duration    `json:"time_spent"`
	IsActive      bool             `json:"is_active"`
	ActionCount   int64            `json:"action_count"`
	ResourceCount int64            `json:"resource_count"`
	ErrorCount    int64            `json:"error_count"`
	CrashCount    int64            `json:"crash_count"`
	LongTaskCount int64            `json:"long_task_count"`
	LoadingTime   *time.Duration   `json:"loading_time,omitempty"`
	LoadingType   string           `json:"loading_type,omitempty"`
	CustomTimings map[string]int64 `json:"custom_timings,omitempty"`
}

// ActionDetail describes one completed user action, or the distinguished
// application-start action.
type ActionDetail struct {
	ID            string        `json:"id"`
	ActionType    string        `json:"action_type"`
	Name          string        `json:"name,omitempty"`
	Duration      time.Duration `json:"duration"`
	ResourceCount int64         `json:"resource_count"`
	ErrorCount    int64         `json:"error_count"`
	LongTaskCount int64         `json:"long_task_count"`
}

// ResourceDetail describes one completed network resource call.
type ResourceDetail struct {
	ID         string        `json:"id"`
	Key        string        `json:"key"`
	Method     string        `json:"method,omitempty"`
	URL        string        `json:"url,omitempty"`
	Duration   time.Duration `json:"duration"`
	StatusCode int64         `json:"status_code,omitempty"`
	Size       int64         `json:"size,omitempty"`
	Kind       string        `json:"kind,omitempty"`
}

// ErrorDetail describes one error occurrence.
type ErrorDetail struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	Source   string `json:"source,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Stack    string `json:"stack,omitempty"`
	IsCrash  bool   `json:"is_crash"`
	Resource string `json:"resource,omitempty"`
}

// LongTaskDetail describes one long-running task occurrence.
type LongTaskDetail struct {
	ID       string        `json:"id"`
	Duration time.Duration `json:"duration"`
	Target   string        `json:"target,omitempty"`
}

// Ack returns the category this record resolves, defaulting to its type.
func (r Record) Ack() RecordType {
	if r.AckCategory != "" {
		return r.AckCategory
	}
	return r.Type
}
