package notification

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tigerroll/idbatch/pkg/batch/core/ports"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

// WriterMessenger prints status lines to an io.Writer. The CLI uses it with stdout.
type WriterMessenger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterMessenger creates a WriterMessenger writing to w.
func NewWriterMessenger(w io.Writer) *WriterMessenger {
	return &WriterMessenger{w: w}
}

func (m *WriterMessenger) AddStatus(ctx context.Context, message string) {
	m.write(message)
}

func (m *WriterMessenger) AddError(ctx context.Context, message string) {
	m.write("ERROR: " + message)
}

func (m *WriterMessenger) write(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := fmt.Fprintln(m.w, line); err != nil {
		logger.Warnf("Notification: failed to write status message: %v", err)
	}
}

// LogMessenger sends status messages to the logger.
type LogMessenger struct{}

// NewLogMessenger creates a new instance of LogMessenger.
func NewLogMessenger() *LogMessenger {
	return &LogMessenger{}
}

func (m *LogMessenger) AddStatus(ctx context.Context, message string) {
	logger.Infof("Status: %s", message)
}

func (m *LogMessenger) AddError(ctx context.Context, message string) {
	logger.Errorf("Status: %s", message)
}

// Message is one entry captured by a RecordingMessenger.
type Message struct {
	Error bool
	Text  string
}

// RecordingMessenger keeps every message in memory, for hosts that render the
// messages themselves.
type RecordingMessenger struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecordingMessenger creates an empty RecordingMessenger.
func NewRecordingMessenger() *RecordingMessenger {
	return &RecordingMessenger{}
}

func (m *RecordingMessenger) AddStatus(ctx context.Context, message string) {
	m.add(Message{Text: message})
}

func (m *RecordingMessenger) AddError(ctx context.Context, message string) {
	m.add(Message{Error: true, Text: message})
}

func (m *RecordingMessenger) add(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// Messages returns a copy of the captured messages, oldest first.
func (m *RecordingMessenger) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

var (
	_ ports.Messenger = (*WriterMessenger)(nil)
	_ ports.Messenger = (*LogMessenger)(nil)
	_ ports.Messenger = (*RecordingMessenger)(nil)
)
