// Package webhook delivers scorebox events to HTTP endpoints. Training
// environments point a hook at the competition scoreboard so score
// changes show up without polling.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// EventType names a scorebox event that can trigger webhooks.
type EventType string

const (
	EventScoreUpdated     EventType = "score.updated"
	EventCheckFailed      EventType = "check.failed"
	EventRubricConfigured EventType = "rubric.configured"
	EventQuestionAnswered EventType = "question.answered"
)

// Event is the payload posted to each matching hook.
type Event struct {
	Event         EventType      `json:"event"`
	Timestamp     string         `json:"timestamp"`
	Trigger       string         `json:"trigger,omitempty"`
	CurrentPoints int            `json:"current_points,omitempty"`
	MaxPoints     int            `json:"max_points,omitempty"`
	QuestionID    string         `json:"question_id,omitempty"`
	Error         string         `json:"error,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// HookConfig describes a single endpoint.
type HookConfig struct {
	URL     string        `json:"url" yaml:"url"`
	Secret  string        `json:"secret,omitempty" yaml:"secret,omitempty"`
	Events  []EventType   `json:"events" yaml:"events"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	Enabled bool          `json:"enabled" yaml:"enabled"`
}

// Config holds webhook delivery settings.
type Config struct {
	Hooks          []HookConfig  `json:"hooks" yaml:"hooks"`
	Enabled        bool          `json:"enabled" yaml:"enabled"`
	MaxRetries     int           `json:"max_retries" yaml:"max_retries"`
	RetryDelay     time.Duration `json:"retry_delay" yaml:"retry_delay"`
	AsyncQueueSize int           `json:"async_queue_size" yaml:"async_queue_size"`
}

// DefaultConfig returns delivery settings with no hooks configured.
func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxRetries:     3,
		RetryDelay:     5 * time.Second,
		AsyncQueueSize: 100,
	}
}

// Client sends webhook notifications.
type Client struct {
	config *Config
	http   *http.Client
	queue  chan *job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	mu     sync.RWMutex
}

type job struct {
	event Event
	hook  HookConfig
}

// NewClient creates a webhook client. A nil config uses the defaults.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.AsyncQueueSize <= 0 {
		cfg.AsyncQueueSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		config: cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		queue:  make(chan *job, cfg.AsyncQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	if cfg.Enabled {
		c.start()
	}
	return c
}

func (c *Client) start() {
	c.once.Do(func() {
		c.wg.Add(1)
		go c.worker()
	})
}

func (c *Client) worker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			// Drain what was queued before shutdown.
			for len(c.queue) > 0 {
				job := <-c.queue
				c.send(job)
			}
			return
		case job := <-c.queue:
			c.send(job)
		}
	}
}

// Send delivers an event to every matching hook. With async the event is
// queued for the background worker; otherwise it is sent inline and the
// last delivery error is returned.
func (c *Client) Send(event Event, async bool) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.config.Enabled {
		return nil
	}

	var hooks []HookConfig
	for _, hook := range c.config.Hooks {
		if !hook.Enabled {
			continue
		}
		if matchesEvent(hook, event.Event) {
			hooks = append(hooks, hook)
		}
	}
	if len(hooks) == 0 {
		return nil
	}

	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	if async {
		for _, hook := range hooks {
			select {
			case c.queue <- &job{event: event, hook: hook}:
			default:
				// Dropping beats blocking an evaluation cycle.
				fmt.Printf("Warning: webhook queue full, dropping event: %s\n", event.Event)
			}
		}
		return nil
	}

	var lastErr error
	for _, hook := range hooks {
		if err := c.sendSync(&job{event: event, hook: hook}); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *Client) send(job *job) {
	if err := c.sendSync(job); err != nil {
		fmt.Printf("Webhook error: %v\n", err)
	}
}

func (c *Client) sendSync(job *job) error {
	payload, err := json.Marshal(job.event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-c.ctx.Done():
				return c.ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		req, err := c.createRequest(job.hook, job.event.Event, payload)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	return lastErr
}

func (c *Client) createRequest(hook HookConfig, event EventType, payload []byte) (*http.Request, error) {
	req, err := http.NewRequest("POST", hook.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Scorebox-Webhook/1.0")
	req.Header.Set("X-Scorebox-Event", string(event))

	if hook.Secret != "" {
		req.Header.Set("X-Scorebox-Signature", sign(payload, hook.Secret))
	}
	return req, nil
}

// sign computes the HMAC-SHA256 signature receivers verify against.
func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func matchesEvent(hook HookConfig, event EventType) bool {
	for _, e := range hook.Events {
		if e == event || e == "*" {
			return true
		}
	}
	return false
}

// Close shuts the client down after draining queued deliveries.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.config.Enabled {
		return nil
	}
	c.cancel()
	c.wg.Wait()
	return nil
}

// SendScoreUpdated notifies hooks of a completed evaluation cycle.
func (c *Client) SendScoreUpdated(trigger string, current, max int, async bool) error {
	return c.Send(Event{
		Event:         EventScoreUpdated,
		Trigger:       trigger,
		CurrentPoints: current,
		MaxPoints:     max,
	}, async)
}

// SendCheckFailed notifies hooks of a failed evaluation cycle.
func (c *Client) SendCheckFailed(trigger, errMsg string, async bool) error {
	return c.Send(Event{
		Event:   EventCheckFailed,
		Trigger: trigger,
		Error:   errMsg,
	}, async)
}

// SendRubricConfigured notifies hooks that a rubric was (re)installed.
func (c *Client) SendRubricConfigured(max int, async bool) error {
	return c.Send(Event{
		Event:     EventRubricConfigured,
		MaxPoints: max,
	}, async)
}

// SendQuestionAnswered notifies hooks of a correctly answered question.
func (c *Client) SendQuestionAnswered(questionID string, async bool) error {
	return c.Send(Event{
		Event:      EventQuestionAnswered,
		QuestionID: questionID,
	}, async)
}
