// The display is a headless room participant: it mirrors the shared
// queue, simulates playback with a timer, and keeps the queue advancing
// so every connected client sees the same current entry.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/jiwonMe/slamslam/internal/client"
	"github.com/jiwonMe/slamslam/internal/player"
	"github.com/jiwonMe/slamslam/internal/ytid"
)

func main() {
	_ = godotenv.Load()

	apiURL := getenv("API_URL", "http://localhost:8080")
	wsURL := getenv("WS_URL", "ws://localhost:8080/ws")
	name := getenv("DISPLAY_NAME", "display-"+uuid.NewString()[:8])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := client.NewHTTPStore(apiURL)
	st := client.NewState(store)
	if err := st.Load(ctx); err != nil {
		log.Fatalf("%s: initial load: %v", name, err)
	}

	widget := player.NewTimerWidget(func(videoID string) time.Duration {
		for _, e := range st.Entries() {
			if id, ok := ytid.ExtractVideoID(e.URL); ok && id == videoID {
				return time.Duration(ytid.ParseClock(e.DurationLabel)) * time.Second
			}
		}
		return 0
	})

	ctrl := player.NewController(widget, st)
	widget.Bind(ctrl.OnMediaEnd, ctrl.OnWidgetError)

	sub := client.NewSubscription(&client.WebsocketFeed{URL: wsURL}, client.Handlers{
		OnInsert: func(e client.Entry) {
			st.ApplyInsert(e)
			log.Printf("%s: added %q by %s", name, e.Title, e.AddedBy)
			ctrl.EnsureLoaded()
		},
		OnUpdate: func(e client.Entry) {
			st.ApplyUpdate(e)
		},
		OnDelete: func(id string) {
			st.ApplyDelete(id)
			log.Printf("%s: removed entry %s", name, id)
		},
		OnError: func(err error) {
			log.Printf("%s: subscription: %v", name, err)
		},
		OnReconnected: func() {
			log.Printf("%s: reconnected, reloading queue", name)
			if err := st.Load(ctx); err != nil {
				log.Printf("%s: reload: %v", name, err)
			}
			ctrl.LoadCurrent()
		},
	}, client.DefaultSubscriptionConfig())
	sub.Start(ctx)
	defer sub.Close()

	ctrl.Start()
	log.Printf("%s: watching %d entries via %s", name, st.Len(), apiURL)

	<-ctx.Done()
	log.Printf("%s: shutting down", name)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
