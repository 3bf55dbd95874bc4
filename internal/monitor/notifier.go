package monitor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/t77yq/sonde/internal/model"
)

// EventType identifies a progress event
type EventType string

const (
	EventRoundStarted   EventType = "round_started"
	EventSampleTaken    EventType = "sample_taken"
	EventEngineFinished EventType = "engine_finished"
)

// Event is the JSON document published for every progress step
type Event struct {
	RunID     string                  `json:"run_id"`
	Type      EventType               `json:"type"`
	Engine    string                  `json:"engine,omitempty"`
	Round     *model.Round            `json:"round,omitempty"`
	Sample    *model.RoundSample      `json:"sample,omitempty"`
	State     *model.ConvergenceState `json:"state,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// Notifier publishes progress events on NATS. Publishing is fire and forget,
// a lost event never affects the benchmark.
type Notifier struct {
	logger *zap.Logger
	nc     *nats.Conn
	prefix string
	runID  string
}

// NewNotifier creates a notifier publishing under <prefix>.<runID>
func NewNotifier(nc *nats.Conn, prefix, runID string, logger *zap.Logger) *Notifier {
	return &Notifier{
		logger: logger.Named("notifier"),
		nc:     nc,
		prefix: prefix,
		runID:  runID,
	}
}

// Subject returns the subject an event kind is published on
func (n *Notifier) Subject(kind string) string {
	return fmt.Sprintf("%s.%s.%s", n.prefix, n.runID, kind)
}

func (n *Notifier) RoundStarted(round model.Round) {
	n.publish(n.Subject("round"), Event{
		Type:  EventRoundStarted,
		Round: &round,
	})
}

func (n *Notifier) SampleTaken(engine string, sample model.RoundSample) {
	n.publish(n.Subject("sample."+engine), Event{
		Type:   EventSampleTaken,
		Engine: engine,
		Sample: &sample,
	})
}

func (n *Notifier) EngineFinished(round model.Round, state model.ConvergenceState) {
	n.publish(n.Subject("engine."+state.Engine), Event{
		Type:   EventEngineFinished,
		Engine: state.Engine,
		Round:  &round,
		State:  &state,
	})
}

func (n *Notifier) publish(subject string, event Event) {
	event.RunID = n.runID
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	if err := n.nc.Publish(subject, data); err != nil {
		n.logger.Warn("Failed to publish event",
			zap.String("subject", subject),
			zap.Error(err))
		return
	}

	n.logger.Debug("Event published",
		zap.String("subject", subject),
		zap.String("type", string(event.Type)))
}

// Connect opens the NATS connection used by the notifier
func Connect(url, name string, logger *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected",
				zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}
