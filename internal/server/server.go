package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"villageOrderTracking/internal/auth"
	"villageOrderTracking/internal/logging"
	"villageOrderTracking/models"
	"villageOrderTracking/repository"
)

// Server exposes the order repository and the village selector over HTTP.
type Server struct {
	repo    *repository.OrderRepository
	village *repository.VillageState
	secret  string
	log     *logrus.Logger
}

func New(repo *repository.OrderRepository, village *repository.VillageState, secret string, log *logrus.Logger) *Server {
	return &Server{repo: repo, village: village, secret: secret, log: log}
}

// Router builds the gin engine. All /api routes require a Bearer JWT
// unless the secret is empty (dev mode).
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if s.secret != "" {
		api.Use(auth.Middleware(s.secret))
	}

	api.GET("/dashboard", s.dashboard)
	api.GET("/orders", s.listOrders)
	api.POST("/orders", s.createOrder)
	api.GET("/orders/:id", s.getOrder)
	api.PATCH("/orders/:id", s.updateOrder)
	api.DELETE("/orders/:id", s.deleteOrder)
	api.POST("/orders/:id/deliver", s.deliverOrder)
	api.GET("/deliveries", s.deliveries)
	api.GET("/villages", s.villages)
	api.GET("/village", s.getVillage)
	api.PUT("/village", s.setVillage)
	api.DELETE("/village", s.clearVillage)

	return r
}

func (s *Server) dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, s.repo.Summary(time.Now()))
}

func (s *Server) listOrders(c *gin.Context) {
	status := models.DeliveryStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown delivery status"})
		return
	}
	c.JSON(http.StatusOK, s.repo.Filter(c.Query("search"), status))
}

type createOrderRequest struct {
	VillageName          string                  `json:"villageName"`
	CustomerName         string                  `json:"customerName"`
	ProductName          string                  `json:"productName"`
	Quantity             int                     `json:"quantity"`
	Price                float64                 `json:"price"`
	Landmark             string                  `json:"landmark"`
	ExpectedDeliveryDate *time.Time              `json:"expectedDeliveryDate"`
	DeliveryPriority     models.DeliveryPriority `json:"deliveryPriority"`
	DeliveryNotes        string                  `json:"deliveryNotes"`
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	now := time.Now()
	o := models.Order{
		OrderID:          models.NewOrderID(now),
		OrderDate:        now,
		VillageName:      req.VillageName,
		CustomerName:     req.CustomerName,
		ProductName:      req.ProductName,
		Quantity:         req.Quantity,
		Price:            req.Price,
		Landmark:         req.Landmark,
		DeliveryStatus:   models.DeliveryStatusPending,
		DeliveryPriority: req.DeliveryPriority,
		DeliveryNotes:    req.DeliveryNotes,
	}
	if o.VillageName == "" {
		o.VillageName = s.village.Get()
	}
	if req.ExpectedDeliveryDate != nil {
		o.ExpectedDeliveryDate = *req.ExpectedDeliveryDate
	} else {
		o.ExpectedDeliveryDate = now.AddDate(0, 0, 7)
	}
	if o.DeliveryPriority == "" {
		o.DeliveryPriority = models.DeliveryPriorityNormal
	}

	if err := s.repo.AddOrder(c.Request.Context(), o); err != nil {
		s.writeError(c, "createOrder", err)
		return
	}
	s.log.WithFields(logrus.Fields{"orderId": o.OrderID, "by": callerName(c)}).Info("order created")
	c.JSON(http.StatusCreated, o)
}

func (s *Server) getOrder(c *gin.Context) {
	o, err := s.repo.GetOrderByID(c.Param("id"))
	if err != nil {
		s.writeError(c, "getOrder", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) updateOrder(c *gin.Context) {
	var upd models.OrderUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	o, err := s.repo.UpdateOrder(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		s.writeError(c, "updateOrder", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) deleteOrder(c *gin.Context) {
	if err := s.repo.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, "deleteOrder", err)
		return
	}
	s.log.WithFields(logrus.Fields{"orderId": c.Param("id"), "by": callerName(c)}).Info("order deleted")
	c.Status(http.StatusNoContent)
}

func (s *Server) deliverOrder(c *gin.Context) {
	delivered := models.DeliveryStatusDelivered
	o, err := s.repo.UpdateOrder(c.Request.Context(), c.Param("id"), models.OrderUpdate{DeliveryStatus: &delivered})
	if err != nil {
		s.writeError(c, "deliverOrder", err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) deliveries(c *gin.Context) {
	c.JSON(http.StatusOK, s.repo.DeliveryQueue(time.Now()))
}

func (s *Server) villages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"villages": s.repo.Villages()})
}

func (s *Server) getVillage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"activeVillage": s.village.Get()})
}

type setVillageRequest struct {
	ActiveVillage string `json:"activeVillage"`
}

func (s *Server) setVillage(c *gin.Context) {
	var req setVillageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ActiveVillage == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "activeVillage must not be empty"})
		return
	}
	if err := s.village.Set(c.Request.Context(), req.ActiveVillage); err != nil {
		s.writeError(c, "setVillage", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activeVillage": s.village.Get()})
}

func (s *Server) clearVillage(c *gin.Context) {
	if err := s.village.Clear(c.Request.Context()); err != nil {
		s.writeError(c, "clearVillage", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// callerName reports the authenticated principal's name, or "anonymous"
// when auth is disabled.
func callerName(c *gin.Context) string {
	if p, ok := auth.FromContext(c.Request.Context()); ok {
		return p.Name
	}
	return "anonymous"
}

func (s *Server) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logging.Error(s.log, "server", op, err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
