package api

import (
	"encoding/json"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/solthius/episode-manager/internal/event"
)

// SSEHandler 把批次进度事件推给浏览器
func SSEHandler(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	topics := []event.EventType{
		event.EventRenameProgress,
		event.EventRenameComplete,
		event.EventRestoreProgress,
		event.EventRestoreComplete,
		event.EventDetectComplete,
	}
	clientChan, cancel := event.GlobalBus.SubscribeChannel(topics, 16)
	defer func() {
		cancel()
		log.Println("SSE Client disconnected")
	}()

	c.SSEvent("message", "connected")
	c.Writer.Flush()

	for {
		select {
		case evt := <-clientChan:
			data, err := json.Marshal(evt.Payload)
			if err != nil {
				log.Printf("SSE JSON Marshal error: %v", err)
				continue
			}
			// 事件名即为 Topic
			c.SSEvent(string(evt.Type), string(data))
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
