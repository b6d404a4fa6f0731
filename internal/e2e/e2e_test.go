package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"mysteryd/internal/backend"
	"mysteryd/internal/manager"
	"mysteryd/pkg/types"
)

// TestE2E_PriorityOrderOverHTTP holds the only slot with one request, queues
// three more with different priorities and checks the backend sees them
// highest priority first.
func TestE2E_PriorityOrderOverHTTP(t *testing.T) {
	release := make(chan struct{})
	var (
		mu    sync.Mutex
		order []string
	)
	mock := backend.NewMock(backend.MockConfig{Reply: func(msgs []backend.Message) (string, error) {
		text := msgs[len(msgs)-1].Content
		if text == "blocker" {
			<-release
		}
		mu.Lock()
		order = append(order, text)
		mu.Unlock()
		return "ok", nil
	}})
	srv, mgr := newServer(t, mock, 1)

	var wg sync.WaitGroup
	post := func(text string, prio int) {
		defer wg.Done()
		resp, body := httpPost(t, srv.URL+"/summarize", fmt.Sprintf(`{"text":%q,"priority":%d}`, text, prio))
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: %d %s", text, resp.StatusCode, body)
		}
	}
	wg.Add(1)
	go post("blocker", 100)
	waitFor(t, "blocker in flight", func() bool { return mgr.Load().InFlight == 1 })

	for i, prio := range []int{1, 5, 3} {
		wg.Add(1)
		go post(fmt.Sprintf("p%d", prio), prio)
		want := i + 1
		waitFor(t, "queued item", func() bool { return mgr.Load().Pending == want })
	}
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if got := strings.Join(order, ","); !strings.HasSuffix(got, "p5,p3,p1") {
		t.Fatalf("backend order = %s", got)
	}
}

func TestE2E_DrainRejectsQueuedRequests(t *testing.T) {
	release := make(chan struct{})
	mock := backend.NewMock(backend.MockConfig{Reply: func(msgs []backend.Message) (string, error) {
		<-release
		return "ok", nil
	}})
	srv, mgr := newServer(t, mock, 1)

	codes := make(chan int, 3)
	for i := 0; i < 3; i++ {
		go func() {
			resp, _ := httpPost(t, srv.URL+"/summarize", `{"text":"round"}`)
			codes <- resp.StatusCode
		}()
	}
	waitFor(t, "two queued", func() bool { l := mgr.Load(); return l.InFlight == 1 && l.Pending == 2 })

	resp, body := httpPost(t, srv.URL+"/drain", "")
	var dr types.DrainResponse
	mustDecode(t, body, &dr)
	if resp.StatusCode != http.StatusOK || dr.Rejected != 2 {
		t.Fatalf("drain: %d %+v", resp.StatusCode, dr)
	}
	close(release)

	var ok, unavailable int
	for i := 0; i < 3; i++ {
		switch <-codes {
		case http.StatusOK:
			ok++
		case http.StatusServiceUnavailable:
			unavailable++
		}
	}
	if ok != 1 || unavailable != 2 {
		t.Fatalf("ok=%d unavailable=%d", ok, unavailable)
	}
}

func TestE2E_TransientFailuresAreRetried(t *testing.T) {
	var calls atomic.Int32
	mock := backend.NewMock(backend.MockConfig{Reply: func([]backend.Message) (string, error) {
		if calls.Add(1) == 1 {
			return "", backend.Transient("mock", fmt.Errorf("connection reset"))
		}
		return "The butler hesitates.", nil
	}})
	srv, _ := newServer(t, mock, 2)

	resp, body := httpPost(t, srv.URL+"/narrate", `{"scene":"Kitchen","players":["Ada","Brook"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("narrate: %d %s", resp.StatusCode, body)
	}
	var gen types.GenerationResponse
	mustDecode(t, body, &gen)
	if gen.Text != "The butler hesitates." {
		t.Fatalf("generation %+v", gen)
	}

	_, body = httpGet(t, srv.URL+"/stats")
	var s types.StatsResponse
	mustDecode(t, body, &s)
	if s.TotalRetries != 1 || s.TotalSucceeded != 1 || s.TotalFailed != 0 {
		t.Fatalf("stats %+v", s)
	}
}

func TestE2E_GateRecoversAfterForcedCheck(t *testing.T) {
	mock := backend.NewMock(backend.MockConfig{})
	mock.SetProbe(backend.ProbeResult{Available: false, Reason: "quota exceeded"}, nil)
	srv, _ := newServer(t, mock, 1)

	resp, body := httpPost(t, srv.URL+"/closing", `{"scene":"Library"}`)
	if resp.StatusCode != http.StatusServiceUnavailable || !strings.Contains(string(body), "quota exceeded") {
		t.Fatalf("closing while unavailable: %d %s", resp.StatusCode, body)
	}
	if resp, _ := httpGet(t, srv.URL+"/readyz"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz: %d", resp.StatusCode)
	}

	mock.SetProbe(backend.ProbeResult{Available: true}, nil)
	if resp, body := httpPost(t, srv.URL+"/availability/check?force=1", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("forced check: %d %s", resp.StatusCode, body)
	}
	if resp, _ := httpGet(t, srv.URL+"/readyz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz after recovery: %d", resp.StatusCode)
	}
	if resp, body := httpPost(t, srv.URL+"/closing", `{"scene":"Library"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("closing after recovery: %d %s", resp.StatusCode, body)
	}

	_, body = httpGet(t, srv.URL+"/status")
	var st types.StatusResponse
	mustDecode(t, body, &st)
	if st.State != manager.StateReady || !st.Availability.Available {
		t.Fatalf("status %+v", st)
	}
}

// TestE2E_OllamaAdapter runs the stack against a fake Ollama server.
func TestE2E_OllamaAdapter(t *testing.T) {
	var chats atomic.Int32
	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3:latest","model":"llama3:latest"}]}`))
		case "/api/chat":
			var req struct {
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if n := chats.Add(1); n == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":"loading model"}` + "\n"))
				return
			}
			last := req.Messages[len(req.Messages)-1].Content
			_, _ = fmt.Fprintf(w, `{"model":"llama3:latest","message":{"role":"assistant","content":%q},"done":true,"eval_count":3}`+"\n", "summary of "+last)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fake.Close)

	be, err := backend.New(backend.Config{Kind: backend.KindOllama, BaseURL: fake.URL, Model: "llama3"})
	if err != nil {
		t.Fatalf("backend: %v", err)
	}
	srv, _ := newServer(t, be, 2)

	resp, body := httpPost(t, srv.URL+"/summarize", `{"text":"Ada accused Brook."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summarize: %d %s", resp.StatusCode, body)
	}
	var sum types.SummarizeResponse
	mustDecode(t, body, &sum)
	if !strings.HasPrefix(sum.Summary, "summary of ") || !strings.Contains(sum.Summary, "Ada accused Brook.") {
		t.Fatalf("summary %+v", sum)
	}
	if chats.Load() != 2 {
		t.Fatalf("chat calls = %d, want one retry after the 503", chats.Load())
	}
}
