package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/renewal/pkg/api"
)

const (
	defaultResolver = "Dashboard"
	allStatuses     = "ALL"
)

func (s *Server) getOverview(c *gin.Context) {
	res, err := s.store.Overview(
		c.Request.Context(), s.now().Add(-overviewWindow),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) listEscalations(c *gin.Context) {
	status := strings.ToUpper(c.DefaultQuery("status", string(api.CaseOpen)))
	if status == allStatuses {
		status = ""
	}

	cases, err := s.store.Escalations(
		c.Request.Context(), api.CaseStatus(status),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.EscalationsResponse{
		Escalations: cases,
		Count:       len(cases),
	})
}

func (s *Server) resolveEscalation(c *gin.Context) {
	caseID, err := strconv.ParseInt(c.Param("caseID"), 10, 64)
	if err != nil || caseID <= 0 {
		writeError(c, fmt.Errorf("%w: %s", ErrInvalidCaseID, c.Param("caseID")))
		return
	}

	var req api.ResolveRequest
	err = c.ShouldBindJSON(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(c, fmt.Errorf("%w: %v", ErrInvalidJSON, err))
		return
	}
	if req.ResolvedBy == "" {
		req.ResolvedBy = defaultResolver
	}

	res, err := s.service.Resolve(c.Request.Context(), caseID, req.ResolvedBy)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ResolveResponse{
		Message: fmt.Sprintf("Case %d resolved", res.CaseID),
		Status:  res.Status,
	})
}

func (s *Server) getAuditLogs(c *gin.Context) {
	policyID := c.Param("policyID")
	logs, err := s.store.AuditLogs(c.Request.Context(), policyID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.AuditLogsResponse{
		PolicyID:  policyID,
		AuditLogs: logs,
		Count:     len(logs),
	})
}

func (s *Server) listCustomers(c *gin.Context) {
	customers, err := s.store.Customers(
		c.Request.Context(), c.Query("segment"),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.CustomersResponse{
		Customers: customers,
		Count:     len(customers),
	})
}

func (s *Server) listPolicies(c *gin.Context) {
	policies, err := s.store.Policies(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.PoliciesResponse{
		Policies: policies,
		Count:    len(policies),
	})
}
