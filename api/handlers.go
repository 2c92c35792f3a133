package api

import (
	"net/http"
	"strings"

	"cafe-order/models"
	"cafe-order/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// bindJSON decodes the body and answers 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	token, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, Username: strings.TrimSpace(req.Username)})
}

func (s *Server) handleVerify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valid": true, "username": currentAdmin(c)})
}

func (s *Server) handleListMenu(c *gin.Context) {
	s.listMenu(c, true)
}

func (s *Server) handleListAllMenu(c *gin.Context) {
	s.listMenu(c, false)
}

func (s *Server) listMenu(c *gin.Context, onlyAvailable bool) {
	items, err := s.menu.List(c.Request.Context(), onlyAvailable)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleCreateMenuItem(c *gin.Context) {
	var in services.MenuItemInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := s.menu.Create(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) handleUpdateMenuItem(c *gin.Context) {
	var patch models.MenuItemPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := s.menu.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) handleDeleteMenuItem(c *gin.Context) {
	if err := s.menu.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted successfully"})
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var in models.CreateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := s.orders.Create(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) handleGetOrder(c *gin.Context) {
	o, err := s.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) handleListOrders(c *gin.Context) {
	orders, err := s.orders.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) handleUpdateOrderStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := s.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.log.Info("status changed by admin", "order_id", o.ID, "status", o.Status, "admin", currentAdmin(c))
	c.JSON(http.StatusOK, o)
}

func (s *Server) handleDailyAnalytics(c *gin.Context) {
	stats, err := s.orders.DailyAnalytics(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleQRCode(c *gin.Context) {
	uri, err := services.QRCodeDataURI(s.frontendURL)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr_code": uri})
}
