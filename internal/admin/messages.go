package admin

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is a one-shot notice shown on the next rendered admin page.
type Message struct {
	Level Level  `json:"l"`
	Text  string `json:"t"`
}

const (
	messagesCookie  = "formsadmin_messages"
	pendingMessages = "admin.messages"
)

// AddMessage queues a message in the messages cookie.
func AddMessage(c *gin.Context, level Level, text string) {
	queued := append(loadMessages(c), Message{Level: level, Text: text})
	c.Set(pendingMessages, queued)

	raw, err := json.Marshal(queued)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(messagesCookie, base64.RawURLEncoding.EncodeToString(raw), 0, "/", "", false, true)
}

// ConsumeMessages returns the queued messages and clears them.
func ConsumeMessages(c *gin.Context) []Message {
	messages := loadMessages(c)
	if len(messages) == 0 {
		return nil
	}
	c.Set(pendingMessages, []Message(nil))
	c.SetCookie(messagesCookie, "", -1, "/", "", false, true)
	return messages
}

func loadMessages(c *gin.Context) []Message {
	if v, ok := c.Get(pendingMessages); ok {
		messages, _ := v.([]Message)
		return messages
	}

	raw, err := c.Cookie(messagesCookie)
	if err != nil || raw == "" {
		return nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var messages []Message
	if err := json.Unmarshal(decoded, &messages); err != nil {
		return nil
	}
	return messages
}
