package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the gin engine with middleware, the API routes and the uploaded files
func NewRouter(handler *Handler, uploadDir string, corsOrigins []string, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger), CORS(corsOrigins))
	router.MaxMultipartMemory = 8 << 20

	router.Static("/uploads", uploadDir)
	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/properties", handler.ListProperties)
		api.POST("/properties", handler.CreateProperty)
		api.GET("/properties/export.xlsx", handler.ExportProperties)
		api.GET("/properties/geojson", handler.PropertiesGeoJSON)
		api.POST("/properties/import", handler.ImportProperties)
		api.GET("/properties/:id", handler.GetProperty)
		api.PUT("/properties/:id", handler.UpdateProperty)
		api.PATCH("/properties/:id", handler.UpdateProperty)
		api.DELETE("/properties/:id", handler.DeleteProperty)

		api.POST("/properties/:id/archive", handler.ArchiveProperty)
		api.POST("/properties/:id/unarchive", handler.UnarchiveProperty)
		api.POST("/properties/:id/sell", handler.propertyAction(handler.service.SellProperty))
		api.POST("/properties/:id/cancel", handler.propertyAction(handler.service.CancelProperty))
		api.POST("/properties/:id/rent", handler.propertyAction(handler.service.MarkPropertyRented))

		api.GET("/properties/:id/offers", handler.ListOffers)
		api.POST("/properties/:id/offers", handler.CreateOffer)
		api.GET("/properties/:id/messages", handler.GetPropertyMessages)
		api.GET("/properties/:id/brochure.pdf", handler.PropertyBrochure)
		api.POST("/properties/:id/send-email", handler.SendPropertyEmail)
		api.POST("/properties/:id/geocode", handler.GeocodeProperty)

		api.GET("/properties/:id/images", handler.ListImages)
		api.POST("/properties/:id/images", handler.UploadImage)
		api.DELETE("/properties/:id/images/:imageId", handler.DeleteImage)
		api.PUT("/properties/:id/main-image", handler.SetMainImage)

		api.GET("/offers/:id", handler.GetOffer)
		api.PATCH("/offers/:id", handler.UpdateOfferDeadline)
		api.POST("/offers/:id/accept", handler.offerAction(handler.service.AcceptOffer))
		api.POST("/offers/:id/refuse", handler.offerAction(handler.service.RefuseOffer))

		api.GET("/property-types", handler.ListPropertyTypes)
		api.POST("/property-types", handler.CreatePropertyType)
		api.GET("/property-types/:id", handler.GetPropertyType)
		api.PUT("/property-types/:id", handler.UpdatePropertyType)
		api.DELETE("/property-types/:id", handler.DeletePropertyType)
		api.GET("/property-types/:id/properties", handler.ListTypeProperties)

		api.GET("/property-tags", handler.ListPropertyTags)
		api.POST("/property-tags", handler.CreatePropertyTag)
		api.PUT("/property-tags/:id", handler.UpdatePropertyTag)
		api.DELETE("/property-tags/:id", handler.DeletePropertyTag)

		api.GET("/partners", handler.ListPartners)
		api.POST("/partners", handler.CreatePartner)
		api.GET("/partners/:id", handler.GetPartner)

		api.GET("/imports/:id", handler.GetImportStatus)
		api.GET("/stats", handler.GetPropertyStats)
		api.POST("/update-coordinates", handler.UpdateCoordinates)

		api.GET("/telegram/config", handler.GetTelegramConfig)
		api.PUT("/telegram/config", handler.UpdateTelegramConfig)
	}
}
