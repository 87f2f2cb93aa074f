package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"openbands/internal/model"
	"openbands/internal/pkg"
	"openbands/internal/service"
)

type CommunityHandler struct {
	svc     *service.CommunityService
	members *service.MembershipService
}

type RequirementReq struct {
	AttestationType  string `json:"attestationType"`
	AttestationValue string `json:"attestationValue"`
}

type CommunityCreateReq struct {
	WalletAddress    string           `json:"walletAddress"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	CombinationLogic string           `json:"combinationLogic"`
	Requirements     []RequirementReq `json:"requirements"`
}

type WalletReq struct {
	WalletAddress string `json:"walletAddress"`
}

func NewCommunityHandler(svc *service.CommunityService, members *service.MembershipService) *CommunityHandler {
	return &CommunityHandler{svc: svc, members: members}
}

func (h *CommunityHandler) Create(c *gin.Context) {
	var req CommunityCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	wallet, ok := pkg.NormalizeAddress(req.WalletAddress)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid wallet address"})
		return
	}

	reqs := make([]model.CommunityRequirement, 0, len(req.Requirements))
	for _, r := range req.Requirements {
		reqs = append(reqs, model.CommunityRequirement{
			AttestationType:  r.AttestationType,
			AttestationValue: r.AttestationValue,
		})
	}

	community, err := h.svc.CreateCommunity(c.Request.Context(), wallet, req.Name, req.Description, req.CombinationLogic, reqs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "community": community})
}

func (h *CommunityHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid community id"})
		return
	}

	var wallet string
	if raw := c.Query("walletAddress"); raw != "" {
		var ok bool
		if wallet, ok = pkg.NormalizeAddress(raw); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid wallet address"})
			return
		}
	}

	community, isMember, err := h.svc.GetCommunity(c.Request.Context(), id, wallet)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"community": community,
		"isMember":  isMember,
	})
}

func (h *CommunityHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	attestationType := c.Query("attestationType")
	sort := c.Query("sort")

	list, total, err := h.svc.ListCommunities(c.Request.Context(), attestationType, sort, page, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	c.JSON(http.StatusOK, gin.H{
		"communities": list,
		"page":        page,
		"limit":       limit,
		"total":       total,
	})
}

func (h *CommunityHandler) Join(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid community id"})
		return
	}

	var req WalletReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	wallet, ok := pkg.NormalizeAddress(req.WalletAddress)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid wallet address"})
		return
	}

	m, err := h.members.Join(c.Request.Context(), wallet, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"membership": gin.H{
			"id":          m.ID,
			"communityId": m.CommunityID,
			"joinedAt":    m.CreatedAt,
		},
	})
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid community id"})
		return
	}

	var req WalletReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	wallet, ok := pkg.NormalizeAddress(req.WalletAddress)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid wallet address"})
		return
	}

	left, err := h.members.Leave(c.Request.Context(), wallet, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "left": left})
}
