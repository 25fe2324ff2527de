package websocket

import "github.com/rs/zerolog/log"

// targetedMessage is a frame addressed to one catalog item's subscribers.
type targetedMessage struct {
	itemID  string
	message []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
// All client and subscription state is owned by the Run goroutine; the
// exported channels and BroadcastTo are the only ways in.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Inbound messages from the clients for global broadcast.
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Frames addressed to a single item's subscribers.
	targeted chan targetedMessage

	// A map of catalog item IDs to the set of clients subscribed to them.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:     make(chan []byte),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		targeted:      make(chan targetedMessage),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
			// If the client connected for a specific item, subscribe them.
			if client.ItemID != "" {
				h.addSubscription(client, client.ItemID)
			}
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				// Remove from global clients and any subscriptions
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
					h.removeSubscription(client)
				}
			}
		case tm := <-h.targeted:
			for client := range h.subscriptions[tm.itemID] {
				select {
				case client.Send <- tm.message:
				default:
					close(client.Send)
					delete(h.clients, client)
					delete(h.subscriptions[tm.itemID], client)
				}
			}
		}
	}
}

// BroadcastTo sends a message to all clients subscribed to a specific item
// ID. Delivery happens on the Run goroutine, so callers on request goroutines
// never touch the client maps.
func (h *Hub) BroadcastTo(itemID string, message []byte) {
	h.targeted <- targetedMessage{itemID: itemID, message: message}
}

func (h *Hub) addSubscription(client *Client, itemID string) {
	if h.subscriptions[itemID] == nil {
		h.subscriptions[itemID] = make(map[*Client]bool)
	}
	h.subscriptions[itemID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for itemID, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, itemID)
			}
		}
	}
}
