package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/checkout-backend/internal/http/handlers"
	httpMW "github.com/yungbote/checkout-backend/internal/http/middleware"
	"github.com/yungbote/checkout-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	ServiceName string

	PurchaseHandler    *httpH.PurchaseHandler
	ShippingSimHandler *httpH.ShippingSimHandler
	FleetHandler       *httpH.FleetHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "checkout-gateway"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Purchase lifecycle
	if cfg.PurchaseHandler != nil {
		r.POST("/iniciar-workflow/terminos", cfg.PurchaseHandler.StartPurchase)

		r.POST("/carrito/agregar-item", cfg.PurchaseHandler.AddItem)
		r.POST("/carrito/remover-item", cfg.PurchaseHandler.RemoveItem)
		r.GET("/carrito/:usuario_id", cfg.PurchaseHandler.GetCart)

		r.POST("/terminos/aceptar", cfg.PurchaseHandler.AcceptTerms)
		r.POST("/compra/completar", cfg.PurchaseHandler.CompletePurchase)
		r.POST("/compra/cancelar", cfg.PurchaseHandler.Cancel)
		r.POST("/envio/confirmar-recepcion", cfg.PurchaseHandler.ConfirmDelivery)
	}

	// Simulated carrier
	if cfg.ShippingSimHandler != nil {
		r.POST("/envio/despachar", cfg.ShippingSimHandler.Dispatch)
	}

	// Control plane
	if cfg.FleetHandler != nil {
		r.GET("/control/instancias", cfg.FleetHandler.ListInstances)
		r.GET("/control/archivo/:usuario_id", cfg.FleetHandler.ListArchive)
	}

	return r
}
