package service

import (
	"encoding/json"
	"fmt"
	"sync"

	"platewatch/internal/logger"
	"platewatch/internal/model"
	"platewatch/internal/service/websocket"
)

// subscriberBuffer is how many frames a slow MJPEG client may lag behind
// before frames are dropped for it.
const subscriberBuffer = 2

// Subscription delivers frames of one camera to one stream client. Done is
// closed when the camera's capture ends; Frames is never closed.
type Subscription struct {
	Frames <-chan []byte
	Done   <-chan struct{}

	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func newSubscription() *Subscription {
	frames := make(chan []byte, subscriberBuffer)
	done := make(chan struct{})
	return &Subscription{Frames: frames, Done: done, frames: frames, done: done}
}

func (s *Subscription) end() {
	s.once.Do(func() { close(s.done) })
}

// Manager distributes camera frames to stream subscribers, keeps the latest
// frame per camera for snapshots, and pushes detections to websocket viewers.
// Cameras are keyed by model.Camera.StreamKey so renames keep their streams.
type Manager struct {
	websocketService *websocket.HubService
	logger           *logger.Logger

	mu            sync.RWMutex
	latest        map[string][]byte
	subscribers   map[string]map[*Subscription]struct{}
	frameCounters map[string]int
}

func NewManager(websocketService *websocket.HubService, logger *logger.Logger) *Manager {
	return &Manager{
		websocketService: websocketService,
		logger:           logger,
		latest:           make(map[string][]byte),
		subscribers:      make(map[string]map[*Subscription]struct{}),
		frameCounters:    make(map[string]int),
	}
}

// HandleCameraImage records a complete JPEG frame from camera and forwards
// it to every subscriber of that camera.
func (m *Manager) HandleCameraImage(image []byte, camera string) {
	m.mu.Lock()
	m.latest[camera] = image
	m.frameCounters[camera]++
	subs := make([]*Subscription, 0, len(m.subscribers[camera]))
	for sub := range m.subscribers[camera] {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.frames <- image:
		default:
			// slow subscriber, it will pick up a later frame
		}
	}
}

// Subscribe registers a stream client for camera until Unsubscribe.
func (m *Manager) Subscribe(camera string) *Subscription {
	sub := newSubscription()

	m.mu.Lock()
	if m.subscribers[camera] == nil {
		m.subscribers[camera] = make(map[*Subscription]struct{})
	}
	m.subscribers[camera][sub] = struct{}{}
	m.mu.Unlock()

	return sub
}

// Unsubscribe stops frame delivery to sub. Frames is not closed so a
// concurrent HandleCameraImage can never send on a closed channel.
func (m *Manager) Unsubscribe(camera string, sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.subscribers[camera], sub)
	if len(m.subscribers[camera]) == 0 {
		delete(m.subscribers, camera)
	}
}

// EndStream tells every current subscriber of camera that no more frames
// will come from its capture, and drops them.
func (m *Manager) EndStream(camera string) {
	m.mu.Lock()
	subs := m.subscribers[camera]
	delete(m.subscribers, camera)
	m.mu.Unlock()

	for sub := range subs {
		sub.end()
	}
	if len(subs) > 0 {
		m.logger.Info("Camera %s stream ended, %d client(s) released", camera, len(subs))
	}
}

// SubscriberCount reports how many stream clients watch camera.
func (m *Manager) SubscriberCount(camera string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers[camera])
}

// LatestFrame returns the most recent frame of camera, if any.
func (m *Manager) LatestFrame(camera string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	frame, ok := m.latest[camera]
	return frame, ok
}

// FrameCount is the number of frames received from camera.
func (m *Manager) FrameCount(camera string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frameCounters[camera]
}

// Forget drops everything held for camera, ending its subscribers.
func (m *Manager) Forget(camera string) {
	m.EndStream(camera)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.latest, camera)
	delete(m.frameCounters, camera)
}

// BroadcastDetection pushes a newly stored detection to websocket viewers.
func (m *Manager) BroadcastDetection(d model.Detection) error {
	msg, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode detection: %w", err)
	}
	if !m.websocketService.Broadcast(msg) {
		return fmt.Errorf("viewer queue full, detection %s not pushed", d.PlateNumber)
	}
	return nil
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}
