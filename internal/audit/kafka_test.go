package audit

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMessageForKeysByUser(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{
		At:        at,
		Channel:   "line",
		EventType: "postback",
		UserID:    "U42",
		Route:     "roll",
		StateFrom: "idle",
		StateTo:   "awaiting_location",
		Game:      "food",
		Choice:    "火鍋 🍲",
	}
	msg, err := messageFor(rec)
	if err != nil {
		t.Fatalf("messageFor: %v", err)
	}
	if string(msg.Key) != "U42" {
		t.Fatalf("key = %q", msg.Key)
	}
	if !msg.Time.Equal(at) {
		t.Fatalf("time = %v", msg.Time)
	}
	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not json: %v", err)
	}
	if decoded["choice"] != "火鍋 🍲" || decoded["state_to"] != "awaiting_location" {
		t.Fatalf("decoded = %v", decoded)
	}
	if _, ok := decoded["keyword"]; ok {
		t.Fatal("empty keyword should be omitted")
	}
}

func TestNewKafkaPublisherValidates(t *testing.T) {
	if _, err := NewKafkaPublisher(nil, "t"); err == nil {
		t.Fatal("expected error without brokers")
	}
	if _, err := NewKafkaPublisher([]string{"localhost:9092"}, " "); err == nil {
		t.Fatal("expected error without topic")
	}
	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "roulette-events")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close without writes: %v", err)
	}
}
