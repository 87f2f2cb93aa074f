package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"openbands/internal/pkg"
	"openbands/internal/service"
)

// VerifyHandler covers the company-badge pre-checks: work-email codes and
// prover input shaping. The proof itself is generated by the external
// circuit and verified on chain; neither happens here.
type VerifyHandler struct {
	emails *service.EmailService
}

type SendCodeReq struct {
	Email string `json:"email"`
}

type ConfirmCodeReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type ProofInputsReq struct {
	JWT           string `json:"jwt"`
	WalletAddress string `json:"walletAddress"`
}

func NewVerifyHandler(emails *service.EmailService) *VerifyHandler {
	return &VerifyHandler{emails: emails}
}

func (h *VerifyHandler) SendCode(c *gin.Context) {
	var req SendCodeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.emails.SendCode(req.Email); err != nil {
		if errors.Is(err, service.ErrEmailInvalid) || errors.Is(err, service.ErrEmailFreeDomain) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
			return
		}
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *VerifyHandler) ConfirmCode(c *gin.Context) {
	var req ConfirmCodeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	if err := h.emails.ConfirmCode(req.Email, req.Code); err != nil {
		if errors.Is(err, service.ErrCodeMismatch) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "reason": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ProofInputs shapes the circuit inputs from an OIDC JWT. The email inside
// the JWT must have passed the code confirmation first.
func (h *VerifyHandler) ProofInputs(c *gin.Context) {
	var req ProofInputsReq
	if err := c.ShouldBindJSON(&req); err != nil || req.JWT == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	wallet, ok := pkg.NormalizeAddress(req.WalletAddress)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid wallet address"})
		return
	}

	inputs, err := pkg.ShapeProverInputs(req.JWT, wallet)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	confirmed, err := h.emails.IsConfirmed(inputs.Email)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !confirmed {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "reason": "work email not confirmed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "inputs": inputs})
}
