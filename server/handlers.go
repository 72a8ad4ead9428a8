package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/tedrag/rag"
)

// HomePage is served on GET / to confirm the deployment is up.
const HomePage = "<h1>Deployment Successful! The API is running.</h1>"

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) home(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(HomePage))
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Stats())
}

func (s *Server) prompt(c *gin.Context) {
	question, ok := readQuestion(c)
	if !ok {
		s.fail(c, rag.KindValidation, rag.ErrNoQuestion)
		return
	}

	answer, err := s.service.Answer(c.Request.Context(), question)
	if err != nil {
		s.fail(c, rag.KindOf(err), err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// readQuestion extracts a string "question" field from the JSON body.
// Malformed bodies and non-string values are reported as missing.
func readQuestion(c *gin.Context) (string, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		return "", false
	}
	question, ok := body["question"].(string)
	if !ok {
		return "", false
	}
	return question, true
}

func (s *Server) fail(c *gin.Context, kind rag.Kind, err error) {
	status := statusFor(kind)
	c.Header(headerErrorKind, kind.String())
	if status >= http.StatusInternalServerError {
		s.logger.Error("error answering prompt", "request_id", c.GetString(ctxRequestID),
			"kind", kind.String(), "err", rag.Describe(err))
	}

	message := err.Error()
	if kind == rag.KindValidation && !errors.Is(err, rag.ErrNoQuestion) {
		message = rag.ErrNoQuestion.Error()
	}
	c.JSON(status, errorResponse{Error: message})
}

func statusFor(kind rag.Kind) int {
	if kind == rag.KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
