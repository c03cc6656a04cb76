package events

import (
	"context"
	"testing"

	"genspecs/internal/models"
)

func TestNewStatusEvent_TypeMapping(t *testing.T) {
	cases := []struct {
		status models.DocumentStatus
		want   EventType
	}{
		{models.StatusError, EventError},
		{models.StatusAccepted, EventSuccess},
		{models.StatusGenerating, EventInfo},
		{models.StatusDraft, EventInfo},
		{models.StatusIdle, EventInfo},
	}

	for _, tc := range cases {
		evt := NewStatusEvent(models.DocumentReadme, tc.status, "msg")
		if evt.Type != tc.want {
			t.Fatalf("status %q: got event type %q want %q", tc.status, evt.Type, tc.want)
		}
		if evt.Document != models.DocumentReadme || evt.Status != tc.status {
			t.Fatalf("event payload malformed: %+v", evt)
		}
		if evt.ID == "" || evt.Timestamp.IsZero() {
			t.Fatalf("event identity missing: %+v", evt)
		}
	}
}

func TestSetCustomEmitter(t *testing.T) {
	defer SetCustomEmitter(nil)

	var got DocumentEvent
	SetCustomEmitter(func(_ context.Context, name string, evt DocumentEvent) {
		if name != DocumentStatusChanged {
			t.Fatalf("event name: got %q", name)
		}
		got = evt
	})

	evt := NewStatusEvent(models.DocumentBOM, models.StatusGenerating, "")
	Emit(context.Background(), DocumentStatusChanged, evt)

	if got.Document != models.DocumentBOM {
		t.Fatalf("custom emitter not invoked: %+v", got)
	}

	// A nil emitter reverts to the no-op.
	SetCustomEmitter(nil)
	Emit(context.Background(), DocumentStatusChanged, evt)
}
