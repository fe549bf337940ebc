package live

import (
	"encoding/json"
	"testing"

	"stripbench/internal/model"
)

// fakeClient registers a client with a buffered send channel without a
// real WebSocket connection.
func fakeClient(h *Hub) *Client {
	c := &Client{send: make(chan []byte, 16), hub: h}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

type envelope struct {
	Channel    string          `json:"channel"`
	Data       json.RawMessage `json:"data"`
	TS         string          `json:"ts"`
	Seq        int64           `json:"seq"`
	ChannelSeq int64           `json:"channel_seq"`
	Initial    bool            `json:"initial"`
}

func TestBroadcast_Envelope(t *testing.T) {
	h := NewHub()
	c := fakeClient(h)

	res := model.Result{RunID: "run-1", Impl: "strconv", Input: 100, MeanNs: 18.4}
	h.Broadcast("bench:"+res.Key(), res.JSON())

	select {
	case raw := <-c.send:
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("envelope is not valid JSON: %v\n%s", err, raw)
		}
		if env.Channel != "bench:strconv:100" {
			t.Errorf("channel: got %q", env.Channel)
		}
		if env.Seq != 1 || env.ChannelSeq != 1 {
			t.Errorf("seq/channel_seq: got %d/%d, want 1/1", env.Seq, env.ChannelSeq)
		}
		var got model.Result
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatalf("data is not a result: %v", err)
		}
		if got.MeanNs != 18.4 {
			t.Errorf("mean_ns: got %f, want 18.4", got.MeanNs)
		}
	default:
		t.Fatal("no envelope queued for client")
	}
}

func TestBroadcast_ChannelSeqsIndependent(t *testing.T) {
	h := NewHub()
	fakeClient(h)

	h.Broadcast("bench:div:100", []byte(`{}`))
	h.Broadcast("bench:div:100", []byte(`{}`))
	h.Broadcast("bench:strconv:100", []byte(`{}`))

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.channelSeqs["bench:div:100"] != 2 {
		t.Errorf("div channel seq: got %d, want 2", h.channelSeqs["bench:div:100"])
	}
	if h.channelSeqs["bench:strconv:100"] != 1 {
		t.Errorf("strconv channel seq: got %d, want 1", h.channelSeqs["bench:strconv:100"])
	}
	if h.seq != 3 {
		t.Errorf("global seq: got %d, want 3", h.seq)
	}
}

func TestSendInitialState(t *testing.T) {
	h := NewHub()
	h.Broadcast("bench:div:1000", []byte(`{"impl":"div"}`))

	// Client connecting after the broadcast still gets the snapshot
	c := fakeClient(h)
	c.sendInitialState()

	select {
	case raw := <-c.send:
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("initial envelope: %v", err)
		}
		if !env.Initial {
			t.Error("expected initial=true")
		}
		if env.Channel != "bench:div:1000" {
			t.Errorf("channel: got %q", env.Channel)
		}
	default:
		t.Fatal("no initial envelope queued")
	}
}

func TestBroadcast_SlowClientDropped(t *testing.T) {
	h := NewHub()
	c := &Client{send: make(chan []byte, 1), hub: h}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	h.Broadcast("bench:div:100", []byte(`{}`))
	h.Broadcast("bench:div:100", []byte(`{}`)) // buffer full, must not block

	if got := len(c.send); got != 1 {
		t.Errorf("queued messages: got %d, want 1", got)
	}
}
