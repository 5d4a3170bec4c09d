package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/v4ult/internal/models"
	"github.com/sujalbistaa/v4ult/internal/ws"
)

type StatusInput struct {
	Status   models.Status `json:"status" binding:"required"`
	Override bool          `json:"override"`
}

type MarkPaidInput struct {
	PaymentRef string `json:"paymentRef"`
}

func (e *Env) AdminListConfessions(c *gin.Context) {
	list, err := e.Service.List(c.Request.Context())
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (e *Env) AdminGetConfession(c *gin.Context) {
	conf, err := e.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (e *Env) AdminAuditTrail(c *gin.Context) {
	events, err := e.Service.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (e *Env) AdminUpdateStatus(c *gin.Context) {
	var input StatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	conf, err := e.Service.Transition(c.Request.Context(), c.Param("id"), input.Status, input.Override, actor(c))
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (e *Env) AdminMarkPaid(c *gin.Context) {
	var input MarkPaidInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	conf, err := e.Service.MarkPaid(c.Request.Context(), c.Param("id"), input.PaymentRef, actor(c))
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (e *Env) AdminRefund(c *gin.Context) {
	conf, err := e.Service.Refund(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (e *Env) AdminPayments(c *gin.Context) {
	subs, err := e.Service.PaymentQueue(c.Request.Context())
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (e *Env) AdminLive(c *gin.Context) {
	if e.Hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live feed disabled"})
		return
	}
	ws.ServeWs(e.Hub, c.Writer, c.Request)
}
