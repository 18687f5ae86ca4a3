package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/flight_computer/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// stateCache keeps the last JSON payload seen per topic so the web
// side always has a full snapshot to hand out, regardless of which
// record updated last.
type stateCache struct {
	mu     sync.RWMutex
	latest map[string]json.RawMessage
}

func (s *stateCache) put(name string, payload []byte) {
	cp := make(json.RawMessage, len(payload))
	copy(cp, payload)
	s.mu.Lock()
	s.latest[name] = cp
	s.mu.Unlock()
}

func (s *stateCache) snapshot() map[string]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(s.latest))
	for name, payload := range s.latest {
		out[name] = payload
	}
	return out
}

// RunWeb serves the bench monitor: a JSON snapshot endpoint, a
// websocket live stream, and static files from ./web.
func RunWeb() error {
	cfg := config.Get()
	cache := &stateCache{latest: make(map[string]json.RawMessage)}

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to every flight topic and cache the latest payload
	topics := map[string]string{
		"accels": cfg.TopicAccels,
		"gyros":  cfg.TopicGyros,
		"baro":   cfg.TopicBaroAltitude,
		"gps":    cfg.TopicGPSPosition,
		"home":   cfg.TopicHomeLocation,
		"mag":    cfg.TopicMagnetometer,
		"alarms": cfg.TopicAlarms,
	}
	for name, topic := range topics {
		name := name
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			cache.put(name, msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
	}
	log.Println("web: subscribed to flight topics")

	// 3) JSON API endpoint: full latest snapshot
	http.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		snap := cache.snapshot()
		if len(snap) == 0 {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Websocket live stream: push the snapshot on a fixed cadence
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(time.Duration(cfg.TelemetryInterval) * time.Millisecond)
		defer ticker.Stop()

		for range ticker.C {
			if err := conn.WriteJSON(cache.snapshot()); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
