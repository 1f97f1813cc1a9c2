package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/quizgate/internal/session"
)

type createSessionRequest struct {
	Topic string `json:"topic" binding:"required"`
}

type submitAnswersRequest struct {
	RoundID string   `json:"round_id" binding:"required"`
	Answers []string `json:"answers"`
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	st, err := s.orch.StartTopic(req.Topic)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.store.Save(c.Request.Context(), st); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionView(st))
}

func (s *Server) getSession(c *gin.Context) {
	st, err := s.store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(st))
}

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.store.Load(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) startRound(c *gin.Context) {
	s.transition(c, s.orch.StartRound)
}

func (s *Server) submitAnswers(c *gin.Context) {
	var req submitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.transition(c, func(ctx context.Context, st *session.State) (*session.State, error) {
		return s.orch.SubmitAnswers(ctx, st, session.Submission{RoundID: req.RoundID, Answers: req.Answers})
	})
}

func (s *Server) resolveGate(c *gin.Context) {
	s.transition(c, s.orch.ResolveGate)
}

// transition loads the session, applies fn and stores the result, holding
// the session's lock throughout. A failed transition stores nothing.
func (s *Server) transition(c *gin.Context, fn func(context.Context, *session.State) (*session.State, error)) {
	id := c.Param("id")
	unlock := s.locks.Lock(id)
	defer unlock()

	ctx := c.Request.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	st, err := s.store.Load(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	next, err := fn(ctx, st)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.store.Save(ctx, next); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(next))
}
