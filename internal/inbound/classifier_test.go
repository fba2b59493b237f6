package inbound_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susanpikesquare/keepswell-sub001/internal/inbound"
)

func TestParseLegacyPayload(t *testing.T) {
	body := []byte(`{"from": "+1 (555) 020-0001", "body": "hello there", "media_urls": ["https://cdn.example/a.jpg"]}`)

	msg, err := inbound.ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "+15550200001", msg.From)
	assert.Equal(t, "hello there", msg.Text)
	require.Len(t, msg.Media, 1)
	assert.Equal(t, "https://cdn.example/a.jpg", msg.Media[0].URL)
}

func TestParseEventEnvelope(t *testing.T) {
	body := []byte(`{
		"event_type": "message.received",
		"data": {
			"sender": "15550200001",
			"content": "hi",
			"attachments": [{"url": "https://cdn.example/b.jpg", "content_type": "image/jpeg"}]
		}
	}`)

	msg, err := inbound.ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, "15550200001", msg.From)
	assert.Equal(t, "hi", msg.Text)
	require.Len(t, msg.Media, 1)
	assert.Equal(t, "image/jpeg", msg.Media[0].ContentType)
}

func TestParseUnrecognizedShape(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`{"something": "else"}`),
		[]byte(`{"event_type": "delivery.updated", "data": {"sender": "+1555"}}`),
		[]byte(`{"from": ""}`),
	}
	for _, body := range cases {
		_, err := inbound.ParseWebhook(body)
		assert.Error(t, err, "payload %s", body)
	}
}

func TestPhoneVariants(t *testing.T) {
	assert.Equal(t, []string{"+15550200001", "15550200001"}, inbound.PhoneVariants("+1 555-020-0001"))
	assert.Equal(t, []string{"+15550200001", "15550200001"}, inbound.PhoneVariants("15550200001"))
	assert.Nil(t, inbound.PhoneVariants(""))
}
