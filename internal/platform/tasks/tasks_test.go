package tasks

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTaskRoundTrip(t *testing.T) {
	task, err := NewRunTask("job-1")
	require.NoError(t, err)
	assert.Equal(t, TaskTypeScrapeRun, task.Type())

	p, err := ParseRunPayload(task)
	require.NoError(t, err)
	assert.Equal(t, "job-1", p.JobID)
}

func TestParseRunPayload_Rejects(t *testing.T) {
	_, err := ParseRunPayload(asynq.NewTask(TaskTypeScrapeRun, []byte("{")))
	assert.Error(t, err)

	_, err = ParseRunPayload(asynq.NewTask(TaskTypeScrapeRun, []byte(`{}`)))
	assert.Error(t, err)
}
