package events

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

type recordingHandler struct {
	types []string
	fail  bool
}

func (h *recordingHandler) CanHandle(eventType string) bool { return true }

func (h *recordingHandler) Handle(event Event) error {
	h.types = append(h.types, event.Type())
	if h.fail {
		return errors.New("handler failed")
	}
	return nil
}

func TestMemoryEventStore_VersionsPerStream(t *testing.T) {
	store := NewMemoryEventStore()

	require.NoError(t, store.AppendEvent("SO-1", NewPlanFailedEvent("SO-1", "CONFLICT", "already planned")))
	require.NoError(t, store.AppendEvent("SO-2", NewPlanFailedEvent("SO-2", "NOT_FOUND", "missing")))
	require.NoError(t, store.AppendEvent("SO-1", NewPlanFailedEvent("SO-1", "CONFLICT", "again")))

	stream, err := store.ReadEvents("SO-1", 0)
	require.NoError(t, err)
	require.Len(t, stream, 2)
	assert.Equal(t, 1, stream[0].Version())
	assert.Equal(t, 2, stream[1].Version())

	tail, err := store.ReadEvents("SO-1", 2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "again", tail[0].Data().(PlanFailed).Reason)

	none, err := store.ReadEvents("SO-1", 3)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := store.ReadAllEvents(1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "SO-2", all[0].StreamID())
}

func TestMemoryEventStore_SubscribersRunInOrder(t *testing.T) {
	store := NewMemoryEventStore()
	failing := &recordingHandler{fail: true}
	recording := &recordingHandler{}

	require.NoError(t, store.Subscribe([]string{PlanFailedEvent}, failing))
	require.NoError(t, store.Subscribe(AllPlanEventTypes, recording))

	run := entities.NewPlanRun("SO-1", "tester")
	require.NoError(t, store.AppendEvent("SO-1", NewPlanFailedEvent("SO-1", "CONFLICT", "x")))
	require.NoError(t, store.AppendEvent("SO-1", NewPlanCompletedEvent(run, "", nil)))

	assert.Equal(t, []string{PlanFailedEvent}, failing.types)
	assert.Equal(t, []string{PlanFailedEvent, PlanCompletedEvent}, recording.types)

	require.NoError(t, store.Unsubscribe(recording))
	require.NoError(t, store.AppendEvent("SO-1", NewPlanCompletedEvent(run, "", nil)))
	assert.Len(t, recording.types, 2)
}

func TestLogHandler_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	handler := NewLogHandler(zerolog.New(&buf))

	require.NoError(t, handler.Handle(NewPlanFailedEvent("SO-9", "NOT_FOUND", "missing")))
	assert.Contains(t, buf.String(), `"event_type":"plan.failed"`)
	assert.Contains(t, buf.String(), `"stream_id":"SO-9"`)
}
