package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	topic string
	key   []byte
	value []byte
	err   error
}

func (r *recordingProducer) SendMessage(_ context.Context, topic string, key, value []byte) error {
	r.topic, r.key, r.value = topic, key, value
	return r.err
}

func (r *recordingProducer) Close() error { return nil }

func TestSendJSON(t *testing.T) {
	p := &recordingProducer{}

	err := SendJSON(context.Background(), p, AppointmentEventsTopic, "7", map[string]string{"event": "x"})

	require.NoError(t, err)
	assert.Equal(t, AppointmentEventsTopic, p.topic)
	assert.Equal(t, "7", string(p.key))
	assert.JSONEq(t, `{"event":"x"}`, string(p.value))
}

func TestSendJSONErrors(t *testing.T) {
	p := &recordingProducer{err: errors.New("broker gone")}

	assert.Error(t, SendJSON(context.Background(), p, AppointmentEventsTopic, "1", map[string]string{}))
	assert.Error(t, SendJSON(context.Background(), &recordingProducer{}, AppointmentEventsTopic, "1", make(chan int)))
}
