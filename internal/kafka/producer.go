package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/thebinarypenguin/scribblez-go/internal/events"
)

type Producer struct {
	noteWriter  *kafka.Writer
	groupWriter *kafka.Writer
}

// NewProducer creates a new Kafka producer with writers for different topics
func NewProducer(brokers []string) *Producer {
	noteWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        events.NoteActivityTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	groupWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        events.GroupActivityTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return &Producer{
		noteWriter:  noteWriter,
		groupWriter: groupWriter,
	}
}

// PublishNoteEvent publishes a note event to the note.activity topic
func (p *Producer) PublishNoteEvent(ctx context.Context, event *events.NoteEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal note event: %v", err)
		return err
	}

	message := kafka.Message{
		Key:   []byte(event.NoteID),
		Value: value,
		Time:  event.Timestamp,
	}

	if err := p.noteWriter.WriteMessages(ctx, message); err != nil {
		log.Printf("Failed to publish note event: %v", err)
		return err
	}

	log.Printf("Published note event: %s for note %s", event.EventType, event.NoteID)
	return nil
}

// PublishGroupEvent publishes a group event to the group.activity topic
func (p *Producer) PublishGroupEvent(ctx context.Context, event *events.GroupEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal group event: %v", err)
		return err
	}

	message := kafka.Message{
		Key:   []byte(event.GroupID),
		Value: value,
		Time:  event.Timestamp,
	}

	if err := p.groupWriter.WriteMessages(ctx, message); err != nil {
		log.Printf("Failed to publish group event: %v", err)
		return err
	}

	log.Printf("Published group event: %s for group %s", event.EventType, event.GroupID)
	return nil
}

// Close closes the Kafka writers
func (p *Producer) Close() error {
	var err1, err2 error
	if p.noteWriter != nil {
		err1 = p.noteWriter.Close()
	}
	if p.groupWriter != nil {
		err2 = p.groupWriter.Close()
	}

	if err1 != nil {
		return err1
	}
	return err2
}
