package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentEvents_NeedsConfirmation(t *testing.T) {
	assert.True(t, NewPaymentCreated(uuid.New(), PaymentTypeOne).NeedsConfirmation())
	assert.False(t, NewPaymentCancelled(uuid.New()).NeedsConfirmation())
}

func TestPaymentEvents_OwnIdentifiers(t *testing.T) {
	paymentID := uuid.New()
	created := NewPaymentCreated(paymentID, PaymentTypeTwo)
	cancelled := NewPaymentCancelled(paymentID)

	assert.NotEqual(t, paymentID, created.ID())
	assert.NotEqual(t, created.ID(), cancelled.ID())
	assert.Equal(t, paymentID, created.AggregateID())
	assert.Equal(t, paymentID, cancelled.AggregateID())
}

func TestMarshalEvent_WritesDiscriminator(t *testing.T) {
	ev := NewPaymentCreated(uuid.New(), PaymentTypeOne)

	data, err := MarshalEvent(ev)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "paymentCreatedEvent", raw["event-type"])
	assert.Equal(t, ev.EventID.String(), raw["eventId"])
	assert.Equal(t, ev.PaymentID.String(), raw["paymentId"])
	assert.Equal(t, "TYPE1", raw["type"])
}

func TestEventCodec_RoundTrip(t *testing.T) {
	events := []PaymentEvent{
		NewPaymentCreated(uuid.New(), PaymentTypeTwo),
		NewPaymentCancelled(uuid.New()),
	}

	for _, ev := range events {
		t.Run(string(ev.Name()), func(t *testing.T) {
			data, err := MarshalEvent(ev)
			require.NoError(t, err)

			decoded, err := UnmarshalEvent(data)
			require.NoError(t, err)
			assert.Equal(t, ev, decoded)
		})
	}
}

func TestUnmarshalEvent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "not json", payload: "{", wantErr: ErrMalformedEvent},
		{name: "missing discriminator", payload: `{"eventId":"` + uuid.NewString() + `"}`, wantErr: ErrMalformedEvent},
		{name: "unknown discriminator", payload: `{"event-type":"paymentRefundedEvent"}`, wantErr: ErrUnknownEvent},
		{name: "created without payment id", payload: `{"event-type":"paymentCreatedEvent","eventId":"` + uuid.NewString() + `","type":"TYPE1"}`, wantErr: ErrMalformedEvent},
		{name: "created with bad type", payload: `{"event-type":"paymentCreatedEvent","eventId":"` + uuid.NewString() + `","paymentId":"` + uuid.NewString() + `","type":"TYPE7"}`, wantErr: ErrMalformedEvent},
		{name: "cancelled with bad uuid", payload: `{"event-type":"paymentCancelledEvent","eventId":"nope","paymentId":"` + uuid.NewString() + `"}`, wantErr: ErrMalformedEvent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := UnmarshalEvent([]byte(tc.payload))
			assert.Nil(t, ev)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}
