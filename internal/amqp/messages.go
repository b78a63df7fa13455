package amqp

import (
	"encoding/json"
	"time"
)

// SMSMessage is a text notification addressed to the user's contact handle.
type SMSMessage struct {
	To        string    `json:"to"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSMSMessage(to, body string) *SMSMessage {
	return &SMSMessage{
		To:        to,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SMSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SMSMessageFromJSON creates a message from JSON bytes
func SMSMessageFromJSON(data []byte) (*SMSMessage, error) {
	var msg SMSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
