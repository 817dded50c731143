package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ava-assistant/avamem-go/pkg/core"
	"github.com/ava-assistant/avamem-go/pkg/intelligence"
	"github.com/ava-assistant/avamem-go/pkg/tts"
)

// InvalidRequestText is the chat reply for a body that cannot be decoded.
const InvalidRequestText = "Invalid request."

type messageRequest struct {
	Message    string `json:"message"`
	TTSEnabled bool   `json:"tts_enabled"`
}

type acceptRequest struct {
	Fact string `json:"fact"`
}

type chatResponse struct {
	Text string `json:"text"`

	// AudioData is base64 mp3, or null when speech was not requested or failed.
	AudioData *string `json:"audio_data"`
}

type statusResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Model   string      `json:"model"`
	Details core.Status `json:"details"`
}

type factsResponse struct {
	Count int      `json:"count"`
	Facts []string `json:"facts"`
}

func (s *Server) index(c *gin.Context) {
	path := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "index.html not found"})
		return
	}
	c.File(path)
}

func (s *Server) status(c *gin.Context) {
	st := s.assistant.Status()
	resp := statusResponse{
		Status:  "OK",
		Message: "Back end is ready.",
		Model:   st.Model,
		Details: st,
	}
	if !st.Ready {
		resp.Status = "ERROR"
		resp.Message = "API initialization failed."
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) analyze(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, intelligence.Classification{})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusOK, intelligence.Classification{})
		return
	}
	c.JSON(http.StatusOK, s.assistant.Classify(c.Request.Context(), message))
}

func (s *Server) chat(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, chatResponse{Text: InvalidRequestText})
		return
	}

	reply := s.assistant.HandleTurn(c.Request.Context(), req.Message)
	resp := chatResponse{Text: reply}
	if req.TTSEnabled && speakable(reply) {
		resp.AudioData = s.synthesize(c, reply)
	}
	c.JSON(http.StatusOK, resp)
}

// speakable reports whether a reply came from the chat model. Prompts and
// memory confirmations are not read aloud.
func speakable(reply string) bool {
	return reply != core.PromptForInput &&
		!strings.HasPrefix(reply, core.MemoryTag) &&
		!strings.HasPrefix(reply, core.ErrorTag)
}

func (s *Server) synthesize(c *gin.Context, text string) *string {
	if s.speech == nil {
		return nil
	}
	audio, err := s.speech.Synthesize(c.Request.Context(), text)
	if err != nil {
		if !errors.Is(err, tts.ErrUnavailable) {
			requestLog(c, s.log).WithError(err).Warn("Reply sent without audio")
		}
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString(audio)
	return &encoded
}

func (s *Server) accept(c *gin.Context) {
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, core.AcceptResult{Success: false, Message: InvalidRequestText})
		return
	}
	c.JSON(http.StatusOK, s.assistant.AcceptFact(c.Request.Context(), req.Fact))
}

func (s *Server) facts(c *gin.Context) {
	facts := s.assistant.Facts()
	c.JSON(http.StatusOK, factsResponse{Count: len(facts), Facts: facts})
}
