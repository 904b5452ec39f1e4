package domain

import (
	"encoding/json"
	"time"
)

// MaxActivityLog caps the activity log.
const MaxActivityLog = 500

// Activity event types emitted by controllers.
const (
	ActivityAutomationStart = "automation_start"
	ActivityAutomationStop  = "automation_stop"
	ActivityAdSkipped       = "ad_skipped"
	ActivityVideoCompleted  = "video_completed"
	ActivityLimitReached    = "limit_reached"
	ActivityAutoResumed     = "auto_resumed"
	ActivityPageSkipped     = "page_skipped"
)

// ActivityEntry is one activity log record. Fields other than Timestamp
// are supplied by the emitter; unknown top-level fields land in Extra and
// are written back unchanged.
type ActivityEntry struct {
	Type      string                     `json:"type"`
	Message   string                     `json:"message,omitempty"`
	URL       string                     `json:"url,omitempty"`
	Platform  string                     `json:"platform,omitempty"`
	Details   map[string]any             `json:"details,omitempty"`
	Timestamp time.Time                  `json:"timestamp"`
	Extra     map[string]json.RawMessage `json:"-"`
}

type activityFields ActivityEntry

//nolint:gochecknoglobals // Field set of ActivityEntry's JSON form
var activityKnownFields = map[string]struct{}{
	"type": {}, "message": {}, "url": {}, "platform": {}, "details": {}, "timestamp": {},
}

// MarshalJSON writes the known fields with Extra merged in at the top level.
func (e ActivityEntry) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(activityFields(e))
	if err != nil || len(e.Extra) == 0 {
		return known, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range e.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reads the known fields and keeps the rest in Extra.
func (e *ActivityEntry) UnmarshalJSON(data []byte) error {
	var fields activityFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range activityKnownFields {
		delete(all, k)
	}
	*e = ActivityEntry(fields)
	if len(all) > 0 {
		e.Extra = all
	}
	return nil
}
