package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var occurred = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	e := New(LoanActivated, "LN1", "user-1", occurred, map[string]string{"nextPaymentDate": "2024-07-08"})

	assert.Equal(t, LoanActivated, e.Type)
	assert.Equal(t, "LN1", e.LoanID)
	assert.True(t, occurred.Equal(e.OccurredAt))
	assert.JSONEq(t, `{"nextPaymentDate":"2024-07-08"}`, string(e.Data))

	bare := New(LoanRejected, "LN1", "user-1", occurred, nil)
	assert.Nil(t, bare.Data)
}

func TestToMessage(t *testing.T) {
	e := New(PaymentRecorded, "LN2", "user-2", occurred, map[string]string{"amount": "100"})

	msg, err := toMessage(e)
	require.NoError(t, err)

	assert.Equal(t, []byte("LN2"), msg.Key)
	assert.True(t, occurred.Equal(msg.Time))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, PaymentRecorded, headers["event-type"])
	assert.Equal(t, e.ID.String(), headers["event-id"])

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, "user-2", decoded.UserID)
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092", "localhost:9093"}, "fiducialend.loans")
	require.NotNil(t, p)
	assert.Equal(t, "fiducialend.loans", p.writer.Topic)
	assert.NotNil(t, p.writer.Addr)
	assert.NoError(t, p.Close())
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := p.Publish(context.Background(),
		New(LoanSubmitted, "LN3", "user-3", occurred, nil),
		New(LoanOverdue, "LN4", "user-3", occurred, nil),
	)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"type":"loan.submitted"`)
	assert.Contains(t, out, `"loan_id":"LN4"`)
	assert.NoError(t, p.Close())
}
