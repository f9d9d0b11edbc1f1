package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the JSON wire form of a raw event, one object per line in
// recorded streams. Only the fields relevant to the variant are populated.
type Envelope struct {
	Type    string    `json:"type"`
	TS      time.Time `json:"ts"`
	TicksNS int64     `json:"ticks_ns"`

	Key         *ViewKey       `json:"key,omitempty"`
	ResourceKey string         `json:"resource_key,omitempty"`
	Name        string         `json:"name,omitempty"`
	ActionType  string         `json:"action_type,omitempty"`
	Method      string         `json:"method,omitempty"`
	URL         string         `json:"url,omitempty"`
	StatusCode  int64          `json:"status_code,omitempty"`
	Size        int64          `json:"size,omitempty"`
	Kind        string         `json:"kind,omitempty"`
	Message     string         `json:"message,omitempty"`
	Source      string         `json:"source,omitempty"`
	Stack       string         `json:"stack,omitempty"`
	Fatal       bool           `json:"fatal,omitempty"`
	DurationNS  int64          `json:"duration_ns,omitempty"`
	Target      string         `json:"target,omitempty"`
	LoadingType string         `json:"loading_type,omitempty"`
	ViewID      string         `json:"view_id,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Encode serializes an event into its JSON envelope.
func Encode(ev Event) ([]byte, error) {
	env, err := toEnvelope(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode parses one JSON envelope back into an event. Unknown types are an
// error so malformed inbox files fail loudly at the file level, not inside
// the scope tree.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("event: decode envelope: %w", err)
	}
	return fromEnvelope(env)
}

func toEnvelope(ev Event) (Envelope, error) {
	t := ev.Occurred()
	env := Envelope{TS: t.Timestamp, TicksNS: int64(t.Ticks)}

	switch e := ev.(type) {
	case StartView:
		env.Type = "start_view"
		k := e.Key
		env.Key = &k
		env.Attributes = e.Attributes
	case StopView:
		env.Type = "stop_view"
		k := e.Key
		env.Key = &k
		env.Attributes = e.Attributes
	case StartAction:
		env.Type = "start_action"
		env.ActionType = e.ActionType
		env.Name = e.Name
		env.Attributes = e.Attributes
	case StopAction:
		env.Type = "stop_action"
		env.ActionType = e.ActionType
		env.Name = e.Name
		env.Attributes = e.Attributes
	case StartResource:
		env.Type = "start_resource"
		env.ResourceKey = e.Key
		env.Method = e.Method
		env.URL = e.URL
		env.Attributes = e.Attributes
	case StopResource:
		env.Type = "stop_resource"
		env.ResourceKey = e.Key
		env.StatusCode = e.StatusCode
		env.Size = e.Size
		env.Kind = e.Kind
		env.Attributes = e.Attributes
	case StopResourceWithError:
		env.Type = "stop_resource_with_error"
		env.ResourceKey = e.Key
		env.Message = e.Message
		env.Source = e.Source
		env.StatusCode = e.StatusCode
		env.Attributes = e.Attributes
	case AddError:
		env.Type = "add_error"
		env.Message = e.Message
		env.Source = e.Source
		env.Kind = e.Kind
		env.Stack = e.Stack
		env.Fatal = e.Fatal
		env.Attributes = e.Attributes
	case AddLongTask:
		env.Type = "add_long_task"
		env.DurationNS = int64(e.Duration)
		env.Target = e.Target
	case UpdateViewLoadingTime:
		env.Type = "update_view_loading_time"
		k := e.Key
		env.Key = &k
		env.DurationNS = int64(e.LoadingTime)
		env.LoadingType = e.LoadingType
	case AddCustomTiming:
		env.Type = "add_custom_timing"
		env.Name = e.Name
	case KeepAlive:
		env.Type = "keep_alive"
	case StopSession:
		env.Type = "stop_session"
	case ApplicationStarted:
		env.Type = "application_started"
		env.DurationNS = int64(e.AppStartTicks)
	case ResourceSent:
		env.Type = "resource_sent"
		env.ViewID = e.ViewID
	case ResourceDropped:
		env.Type = "resource_dropped"
		env.ViewID = e.ViewID
	case ActionSent:
		env.Type = "action_sent"
		env.ViewID = e.ViewID
	case ActionDropped:
		env.Type = "action_dropped"
		env.ViewID = e.ViewID
	case ErrorSent:
		env.Type = "error_sent"
		env.ViewID = e.ViewID
	case ErrorDropped:
		env.Type = "error_dropped"
		env.ViewID = e.ViewID
	case LongTaskSent:
		env.Type = "long_task_sent"
		env.ViewID = e.ViewID
	case LongTaskDropped:
		env.Type = "long_task_dropped"
		env.ViewID = e.ViewID
	default:
		return Envelope{}, fmt.Errorf("event: encode: unhandled variant %T", ev)
	}
	return env, nil
}

func fromEnvelope(env Envelope) (Event, error) {
	t := At(env.TS, time.Duration(env.TicksNS))
	key := ViewKey{}
	if env.Key != nil {
		key = *env.Key
	}

	switch env.Type {
	case "start_view":
		return StartView{Time: t, Key: key, Attributes: env.Attributes}, nil
	case "stop_view":
		return StopView{Time: t, Key: key, Attributes: env.Attributes}, nil
	case "start_action":
		return StartAction{Time: t, ActionType: env.ActionType, Name: env.Name, Attributes: env.Attributes}, nil
	case "stop_action":
		return StopAction{Time: t, ActionType: env.ActionType, Name: env.Name, Attributes: env.Attributes}, nil
	case "start_resource":
		return StartResource{Time: t, Key: env.ResourceKey, Method: env.Method, URL: env.URL, Attributes: env.Attributes}, nil
	case "stop_resource":
		return StopResource{Time: t, Key: env.ResourceKey, StatusCode: env.StatusCode, Size: env.Size, Kind: env.Kind, Attributes: env.Attributes}, nil
	case "stop_resource_with_error":
		return StopResourceWithError{Time: t, Key: env.ResourceKey, Message: env.Message, Source: env.Source, StatusCode: env.StatusCode, Attributes: env.Attributes}, nil
	case "add_error":
		return AddError{Time: t, Message: env.Message, Source: env.Source, Kind: env.Kind, Stack: env.Stack, Fatal: env.Fatal, Attributes: env.Attributes}, nil
	case "add_long_task":
		return AddLongTask{Time: t, Duration: time.Duration(env.DurationNS), Target: env.Target}, nil
	case "update_view_loading_time":
		return UpdateViewLoadingTime{Time: t, Key: key, LoadingTime: time.Duration(env.DurationNS), LoadingType: env.LoadingType}, nil
	case "add_custom_timing":
		return AddCustomTiming{Time: t, Name: env.Name}, nil
	case "keep_alive":
		return KeepAlive{Time: t}, nil
	case "stop_session":
		return StopSession{Time: t}, nil
	case "application_started":
		return ApplicationStarted{Time: t, AppStartTicks: time.Duration(env.DurationNS)}, nil
	case "resource_sent":
		return ResourceSent{Time: t, ViewID: env.ViewID}, nil
	case "resource_dropped":
		return ResourceDropped{Time: t, ViewID: env.ViewID}, nil
	case "action_sent":
		return ActionSent{Time: t, ViewID: env.ViewID}, nil
	case "action_dropped":
		return ActionDropped{Time: t, ViewID: env.ViewID}, nil
	case "error_sent":
		return ErrorSent{Time: t, ViewID: env.ViewID}, nil
	case "error_dropped":
		return ErrorDropped{Time: t, ViewID: env.ViewID}, nil
	case "long_task_sent":
		return LongTaskSent{Time: t, ViewID: env.ViewID}, nil
	case "long_task_dropped":
		return LongTaskDropped{Time: t, ViewID: env.ViewID}, nil
	default:
		return nil, fmt.Errorf("event: decode: unknown type %q", env.Type)
	}
}
