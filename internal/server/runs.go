package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/renewal/pkg/api"
)

func (s *Server) triggerRun(c *gin.Context) {
	var req api.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrInvalidJSON, err))
		return
	}

	res, err := s.service.Trigger(
		c.Request.Context(), req.PolicyID, req.OverrideChannel,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, res)
}

func (s *Server) receiveInbound(c *gin.Context) {
	var req api.InboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrInvalidJSON, err))
		return
	}

	res, err := s.service.Inbound(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getStatus(c *gin.Context) {
	res, err := s.store.Status(c.Request.Context(), c.Param("policyID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getWorkflowLogs(c *gin.Context) {
	policyID := c.Param("policyID")
	logs, err := s.store.WorkflowLogs(c.Request.Context(), policyID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.LogsResponse{
		PolicyID: policyID,
		Logs:     logs,
	})
}

func (s *Server) listRuns(c *gin.Context) {
	if s.transcripts == nil {
		writeError(c, ErrArchiveDisabled)
		return
	}

	policyID := c.Param("policyID")
	runs, err := s.transcripts.Runs(c.Request.Context(), policyID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.RunsResponse{
		PolicyID: policyID,
		Runs:     runs,
		Count:    len(runs),
	})
}

func (s *Server) getRun(c *gin.Context) {
	if s.transcripts == nil {
		writeError(c, ErrArchiveDisabled)
		return
	}

	tr, err := s.transcripts.Get(
		c.Request.Context(), c.Param("policyID"), c.Param("runID"),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}
