package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/v4ult/internal/auth"
	"github.com/sujalbistaa/v4ult/internal/confession"
	"github.com/sujalbistaa/v4ult/internal/namecheck"
	"github.com/sujalbistaa/v4ult/internal/ratelimit"
	"github.com/sujalbistaa/v4ult/internal/ws"
)

// --- Structs for request binding ---
type ValidateNameInput struct {
	Name string `json:"name"`
}
type ValidateConfessionInput struct {
	Body string `json:"body"`
}

// --- Handlers ---
type Env struct {
	Service *confession.Service
	Auth    auth.Authenticator
	Limiter ratelimit.Limiter
	Hub     *ws.Hub
	Logger  *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Env) CreateConfession(c *gin.Context) {
	var input confession.SubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	receipt, err := e.Service.Submit(c.Request.Context(), input)
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

// Reveal answers 402 with a locked preview until the code is paid.
func (e *Env) Reveal(c *gin.Context) {
	preview, err := e.Service.Lookup(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		e.writeError(c, err)
		return
	}
	status := http.StatusPaymentRequired
	if preview.Paid {
		status = http.StatusOK
	}
	c.JSON(status, preview)
}

func (e *Env) SubmitPayment(c *gin.Context) {
	var input confession.PaymentProofInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	input.Origin = c.ClientIP()
	sub, err := e.Service.SubmitPayment(c.Request.Context(), c.Param("shortCode"), input)
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sessionId": sub.ID, "status": "pending"})
}

func (e *Env) MyConfessions(c *gin.Context) {
	list, err := e.Service.MyConfessions(c.Request.Context(), c.Query("authorRef"))
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (e *Env) ValidateName(c *gin.Context) {
	var input ValidateNameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, namecheck.Score(input.Name))
}

func (e *Env) ValidateConfession(c *gin.Context) {
	var input ValidateConfessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	res, err := e.Service.ClassifyBody(c.Request.Context(), input.Body)
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (e *Env) Stats(c *gin.Context) {
	st, err := e.Service.Stats(c.Request.Context())
	if err != nil {
		e.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (e *Env) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
