package http

import (
	"log/slog"
	"net/http"

	"custody/internal/core/application/usecases/commands"
	"custody/internal/core/application/usecases/queries"
	"custody/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
)

// Server exposes the custody use cases over JSON. Every response is an
// Envelope.
type Server struct {
	// Command handlers
	placeOrderHandler           commands.PlaceOrderCommandHandler
	buildCustodyChainHandler    commands.BuildCustodyChainCommandHandler
	advanceCustodyHandler       commands.AdvanceCustodyCommandHandler
	generateTransferCodeHandler commands.GenerateTransferCodeCommandHandler
	verifyTransferCodeHandler   commands.VerifyTransferCodeCommandHandler
	registerPartyHandler        commands.RegisterPartyCommandHandler
	addProductHandler           commands.AddProductCommandHandler

	// Query handlers
	getOrderHandler              queries.GetOrderQueryHandler
	getCustodyChainHandler       queries.GetCustodyChainQueryHandler
	getTransferAuditHandler      queries.GetTransferAuditQueryHandler
	listPendingRequestsHandler   queries.ListPendingRequestsQueryHandler
	listPendingDeliveriesHandler queries.ListPendingDeliveriesQueryHandler
	listMiddlemenHandler         queries.ListMiddlemenQueryHandler

	logger *slog.Logger
}

// Handlers groups the use cases served by Server.
type Handlers struct {
	PlaceOrder           commands.PlaceOrderCommandHandler
	BuildCustodyChain    commands.BuildCustodyChainCommandHandler
	AdvanceCustody       commands.AdvanceCustodyCommandHandler
	GenerateTransferCode commands.GenerateTransferCodeCommandHandler
	VerifyTransferCode   commands.VerifyTransferCodeCommandHandler
	RegisterParty        commands.RegisterPartyCommandHandler
	AddProduct           commands.AddProductCommandHandler

	GetOrder              queries.GetOrderQueryHandler
	GetCustodyChain       queries.GetCustodyChainQueryHandler
	GetTransferAudit      queries.GetTransferAuditQueryHandler
	ListPendingRequests   queries.ListPendingRequestsQueryHandler
	ListPendingDeliveries queries.ListPendingDeliveriesQueryHandler
	ListMiddlemen         queries.ListMiddlemenQueryHandler
}

func NewServer(h Handlers, logger *slog.Logger) *Server {
	return &Server{
		placeOrderHandler:            h.PlaceOrder,
		buildCustodyChainHandler:     h.BuildCustodyChain,
		advanceCustodyHandler:        h.AdvanceCustody,
		generateTransferCodeHandler:  h.GenerateTransferCode,
		verifyTransferCodeHandler:    h.VerifyTransferCode,
		registerPartyHandler:         h.RegisterParty,
		addProductHandler:            h.AddProduct,
		getOrderHandler:              h.GetOrder,
		getCustodyChainHandler:       h.GetCustodyChain,
		getTransferAuditHandler:      h.GetTransferAudit,
		listPendingRequestsHandler:   h.ListPendingRequests,
		listPendingDeliveriesHandler: h.ListPendingDeliveries,
		listMiddlemenHandler:         h.ListMiddlemen,
		logger:                       logger.With("component", "http"),
	}
}

// RegisterRoutes mounts the API under /api/v1 behind bearer authentication.
func (s *Server) RegisterRoutes(e *echo.Echo, verifier *TokenVerifier) {
	api := e.Group("/api/v1", RequireCaller(verifier, s.logger))

	api.PUT("/parties/me", s.RegisterParty)
	api.POST("/products", s.AddProduct)

	api.POST("/orders", s.PlaceOrder)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders/:id/custody-chain", s.BuildCustodyChain)
	api.GET("/orders/:id/custody-chain", s.GetCustodyChain)
	api.POST("/orders/:id/advance", s.AdvanceCustody)
	api.POST("/orders/:id/transfer-code", s.GenerateTransferCode)
	api.POST("/orders/:id/transfer-code/verify", s.VerifyTransferCode)
	api.GET("/orders/:id/audit", s.GetTransferAudit)

	api.GET("/pending-requests", s.ListPendingRequests)
	api.GET("/pending-deliveries", s.ListPendingDeliveries)
	api.GET("/middlemen", s.ListMiddlemen)
}

// RegisterParty handles PUT /api/v1/parties/me.
func (s *Server) RegisterParty(c echo.Context) error {
	var body RegisterPartyRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, failure("Invalid request body", nil))
	}

	cmd, err := commands.NewRegisterPartyCommand(callerFrom(c), body.Name)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	p, err := s.registerPartyHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.respondError(c, err, nil)
	}
	return c.JSON(http.StatusOK, success("Party registered", RegisteredParty{
		ID:   p.ID().String(),
		Name: p.Name(),
		Role: p.Role().String(),
	}))
}

// AddProduct handles POST /api/v1/products. product_id is generated when
// absent.
func (s *Server) AddProduct(c echo.Context) error {
	var body AddProductRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, failure("Invalid request body", nil))
	}

	productID := kernel.NewUUID()
	if body.ProductID != "" {
		var err error
		if productID, err = kernel.UUIDFromString(body.ProductID); err != nil {
			return s.respondError(c, err, nil)
		}
	}
	coordinatorID, err := kernel.UUIDFromString(body.CoordinatorID)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	cmd, err := commands.NewAddProductCommand(callerFrom(c), productID, body.Name, coordinatorID)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	p, err := s.addProductHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.respondError(c, err, nil)
	}
	return c.JSON(http.StatusCreated, success("Product added", ListedProduct{
		ID:            p.ID().String(),
		Name:          p.Name(),
		SellerID:      p.Seller().String(),
		CoordinatorID: p.Coordinator().String(),
	}))
}

// PlaceOrder handles POST /api/v1/orders. order_id is generated when absent.
func (s *Server) PlaceOrder(c echo.Context) error {
	var body PlaceOrderRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, failure("Invalid request body", nil))
	}

	orderID := kernel.NewUUID()
	if body.OrderID != "" {
		var err error
		if orderID, err = kernel.UUIDFromString(body.OrderID); err != nil {
			return s.respondError(c, err, nil)
		}
	}
	productID, err := kernel.UUIDFromString(body.ProductID)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	cmd, err := commands.NewPlaceOrderCommand(callerFrom(c), orderID, productID, body.Quantity)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	o, err := s.placeOrderHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.respondError(c, err, nil)
	}
	return c.JSON(http.StatusCreated, success("Order placed", orderOf(o)))
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return s.respondError(c, err, nil)
	}
	query, err := queries.NewGetOrderQuery(callerFrom(c), orderID)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	response, err := s.getOrderHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return s.respondError(c, err, nil)
	}
	return c.JSON(http.StatusOK, success("Order retrieved", queriedOrderOf(response)))
}

// BuildCustodyChain handles POST /api/v1/orders/:id/custody-chain.
func (s *Server) BuildCustodyChain(c echo.Context) error {
	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return s.respondError(c, err, nil)
	}
	var body BuildCustodyChainRequest
	if err = c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, failure("Invalid request body", nil))
	}

	intermediaries := make([]kernel.UUID, 0, len(body.Intermediaries))
	for _, raw := range body.Intermediaries {
		id, parseErr := kernel.UUIDFromString(raw)
		if parseErr != nil {
			return s.respondError(c, parseErr, nil)
		}
		intermediaries = append(intermediaries, id)
	}

	cmd, err := commands.NewBuildCustodyChainCommand(callerFrom(c), orderID, intermediaries)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	result, err := s.buildCustodyChainHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.respondError(c, err, custodyOf(result))
	}
	return c.JSON(http.StatusCreated, success("Custody chain built", custodyOf(result)))
}

// GetCustodyChain handles GET /api/v1/orders/:id/custody-chain.
func (s *Server) GetCustodyChain(c echo.Context) error {
	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return s.respondError(c, err, nil)
	}
	query, err := queries.NewGetCustodyChainQuery(callerFrom(c), orderID)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	r, err := s.getCustodyChainHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return s.respondError(c, err, nil)
	}
	return c.JSON(http.StatusOK, success("Custody chain retrieved", CustodyChain{
		OrderID:       r.OrderID.String(),
		CurrentHolder: partyOf(r.CurrentHolder),
		Frontier:      r.Frontier,
		Track:         hopsOf(r.Track),
		AnchorID:      r.AnchorID,
	}))
}

// AdvanceCustody handles POST /api/v1/orders/:id/advance.
func (s *Server) AdvanceCustody(c echo.Context) error {
	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return s.respondError(c, err, nil)
	}
	cmd, err := commands.NewAdvanceCustodyCommand(callerFrom(c), orderID)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	result, err := s.advanceCustodyHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.respondError(c, err, advanceOf(result))
	}

	message := "Custody advanced"
	if result.Transfer.Delivered {
		message = "Order delivered"
	}
	return c.JSON(http.StatusOK, success(message, advanceOf(result)))
}

// GenerateTransferCode handles POST /api/v1/orders/:id/transfer-code.
func (s *Server) GenerateTransferCode(c echo.Context) error {
	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return s.respondError(c, err, nil)
	}
	cmd, err := commands.NewGenerateTransferCodeCommand(callerFrom(c), orderID)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	code, err := s.generateTransferCodeHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.respondError(c, err, nil)
	}
	return c.JSON(http.StatusCreated, success("Transfer code generated", IssuedTransferCode{
		Code:      code.Code(),
		TargetHop: code.TargetHop(),
		IssuedAt:  code.IssuedAt(),
		ExpiresAt: code.ExpiresAt(),
	}))
}

// VerifyTransferCode handles POST /api/v1/orders/:id/transfer-code/verify.
func (s *Server) VerifyTransferCode(c echo.Context) error {
	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return s.respondError(c, err, nil)
	}
	var body VerifyTransferCodeRequest
	if err = c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, failure("Invalid request body", nil))
	}

	cmd, err := commands.NewVerifyTransferCodeCommand(callerFrom(c), orderID, body.Code)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	code, err := s.verifyTransferCodeHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.respondError(c, err, nil)
	}
	return c.JSON(http.StatusOK, success("Transfer code verified", VerifiedTransferCode{
		TargetHop: code.TargetHop(),
		Verified:  code.IsVerified(),
		ExpiresAt: code.ExpiresAt(),
	}))
}

// GetTransferAudit handles GET /api/v1/orders/:id/audit.
func (s *Server) GetTransferAudit(c echo.Context) error {
	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return s.respondError(c, err, nil)
	}
	query, err := queries.NewGetTransferAuditQuery(callerFrom(c), orderID)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	r, err := s.getTransferAuditHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	audit := TransferAudit{
		OrderID:       r.OrderID.String(),
		Product:       productOf(r.Product),
		CurrentHolder: partyOf(r.CurrentHolder),
		Track:         hopsOf(r.Track),
		AnchorID:      r.AnchorID,
	}
	if r.TransferCode != nil {
		audit.TransferCode = &TransferCodeAudit{
			IssuedAt:  r.TransferCode.IssuedAt,
			ExpiresAt: r.TransferCode.ExpiresAt,
			TargetHop: r.TransferCode.TargetHop,
			Verified:  r.TransferCode.Verified,
			Expired:   r.TransferCode.Expired,
		}
	}
	return c.JSON(http.StatusOK, success("Transfer audit retrieved", audit))
}

// ListPendingRequests handles GET /api/v1/pending-requests.
func (s *Server) ListPendingRequests(c echo.Context) error {
	query, err := queries.NewListPendingRequestsQuery(callerFrom(c))
	if err != nil {
		return s.respondError(c, err, nil)
	}

	requests, err := s.listPendingRequestsHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	response := make([]PendingRequest, len(requests))
	for i, r := range requests {
		response[i] = PendingRequest{
			OrderID:     r.OrderID.String(),
			RequestedAt: r.RequestedAt,
			Product:     productOf(r.Product),
			Quantity:    r.Quantity,
			Buyer:       partyOf(r.Buyer),
			Seller:      partyOf(r.Seller),
		}
	}
	return c.JSON(http.StatusOK, success("Pending requests retrieved", response))
}

// ListPendingDeliveries handles GET /api/v1/pending-deliveries.
func (s *Server) ListPendingDeliveries(c echo.Context) error {
	query, err := queries.NewListPendingDeliveriesQuery(callerFrom(c))
	if err != nil {
		return s.respondError(c, err, nil)
	}

	deliveries, err := s.listPendingDeliveriesHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	response := make([]PendingDelivery, len(deliveries))
	for i, d := range deliveries {
		response[i] = PendingDelivery{
			OrderID:       d.OrderID.String(),
			ReceiveStatus: d.Received,
			GiveStatus:    d.Given,
			Product:       productOf(d.Product),
			CurrentHolder: partyOf(d.CurrentHolder),
		}
	}
	return c.JSON(http.StatusOK, success("Pending deliveries retrieved", response))
}

// ListMiddlemen handles GET /api/v1/middlemen.
func (s *Server) ListMiddlemen(c echo.Context) error {
	query, err := queries.NewListMiddlemenQuery(callerFrom(c))
	if err != nil {
		return s.respondError(c, err, nil)
	}

	middlemen, err := s.listMiddlemenHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return s.respondError(c, err, nil)
	}

	response := make([]Party, len(middlemen))
	for i, m := range middlemen {
		response[i] = partyOf(m)
	}
	return c.JSON(http.StatusOK, success("Middlemen retrieved", response))
}
